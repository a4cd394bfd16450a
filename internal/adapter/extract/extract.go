// Package extract turns uploaded file bytes into plain text.
//
// One extractor failure never aborts the rest of an upload batch; the
// ingest use case collects per-file errors instead.
package extract

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrNoText indicates a file parsed cleanly but contained no
// extractable text. It is a condition, not a parse failure.
var ErrNoText = errors.New("no extractable text")

// ErrUnsupported indicates a file type with no registered extractor.
var ErrUnsupported = errors.New("unsupported file type")

// FileExtractor dispatches on file extension, matching the formats the
// upload endpoint accepts: pdf, docx, csv and plain-text variants.
// Unknown extensions fall back to a plain-text read.
type FileExtractor struct {
	csvMaxRows int
}

func NewFileExtractor() *FileExtractor {
	return &FileExtractor{csvMaxRows: 50}
}

// Extract returns the plain text content of the named file.
func (e *FileExtractor) Extract(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNoText
	}

	var text string
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".csv":
		text, err = extractCSV(data, e.csvMaxRows)
	default:
		// .txt, .md, .log and anything else readable as text.
		text = decodeText(data)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// decodeText reads bytes as UTF-8, falling back to a Latin-1
// reinterpretation when the content is not valid UTF-8.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
