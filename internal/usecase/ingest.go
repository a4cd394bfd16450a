package usecase

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Vaibhav2543/deep-researcher/internal/adapter/extract"
	"github.com/Vaibhav2543/deep-researcher/internal/domain"
	"github.com/Vaibhav2543/deep-researcher/internal/port"
)

// FileInput is a document handed to ingestion together with its raw
// bytes. Doc.Name carries the format (by extension) and becomes the
// chunk source.
type FileInput struct {
	Doc  domain.Document
	Data []byte
}

// IngestReport summarizes one ingestion batch.
type IngestReport struct {
	Indexed     []domain.Document
	Skipped     []string
	ChunksAdded int
	Errors      []error
}

// IngestUseCase turns raw documents into indexed chunks. A failing
// file is recorded and skipped; it never aborts the batch.
type IngestUseCase struct {
	extractor port.Extractor
	chunker   port.Chunker
	index     *IndexUseCase
	logger    *zap.Logger
}

func NewIngestUseCase(
	extractor port.Extractor,
	chunker port.Chunker,
	index *IndexUseCase,
	logger *zap.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		extractor: extractor,
		chunker:   chunker,
		index:     index,
		logger:    logger,
	}
}

// IngestFile extracts, chunks and indexes a single document. Returns
// the number of chunks added.
func (u *IngestUseCase) IngestFile(doc domain.Document, data []byte) (int, error) {
	text, err := u.extractor.Extract(doc.Name, data)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", doc.Name, err)
	}

	chunks := u.chunker.Chunk(doc.Name, text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("extract %s: %w", doc.Name, extract.ErrNoText)
	}

	added, err := u.index.Add(chunks)
	if err != nil {
		return 0, fmt.Errorf("index %s: %w", doc.Name, err)
	}
	return added, nil
}

// IngestBatch processes every file, collecting per-file failures while
// the rest of the batch continues.
func (u *IngestUseCase) IngestBatch(files []FileInput) IngestReport {
	var report IngestReport
	for _, f := range files {
		added, err := u.IngestFile(f.Doc, f.Data)
		if err != nil {
			report.Skipped = append(report.Skipped, f.Doc.Name)
			report.Errors = append(report.Errors, err)
			if errors.Is(err, extract.ErrNoText) || errors.Is(err, extract.ErrUnsupported) {
				u.logger.Info("skipping file", zap.String("file", f.Doc.Name), zap.Error(err))
			} else {
				u.logger.Warn("failed to ingest file", zap.String("file", f.Doc.Name), zap.Error(err))
			}
			continue
		}
		report.Indexed = append(report.Indexed, f.Doc)
		report.ChunksAdded += added
		u.logger.Info("file indexed",
			zap.String("file", f.Doc.Name),
			zap.Int64("bytes", f.Doc.Size),
			zap.Int("chunks", added))
	}
	return report
}
