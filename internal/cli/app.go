package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Vaibhav2543/deep-researcher/config"
	"github.com/Vaibhav2543/deep-researcher/internal/adapter/chunker"
	"github.com/Vaibhav2543/deep-researcher/internal/adapter/embedding"
	"github.com/Vaibhav2543/deep-researcher/internal/adapter/extract"
	"github.com/Vaibhav2543/deep-researcher/internal/adapter/index"
	"github.com/Vaibhav2543/deep-researcher/internal/adapter/llm"
	"github.com/Vaibhav2543/deep-researcher/internal/adapter/store"
	"github.com/Vaibhav2543/deep-researcher/internal/jobs"
	"github.com/Vaibhav2543/deep-researcher/internal/logging"
	"github.com/Vaibhav2543/deep-researcher/internal/usecase"
)

// app holds every long-lived component a command may need.
type app struct {
	logger  *zap.Logger
	store   *store.BoltStore
	index   *usecase.IndexUseCase
	ingest  *usecase.IngestUseCase
	answer  *usecase.AnswerUseCase
	manager *jobs.Manager
}

// newApp builds the pipeline from configuration. Call close when done.
func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to create data directories: %w", err)
	}

	st, recreated, err := store.OpenOrRecreate(config.IndexDBPath(cfg.Index.DataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	if recreated {
		logger.Warn("index database was unreadable and has been recreated")
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to build embedder: %w", err)
	}

	idx, err := usecase.NewIndexUseCase(embedder, index.New(cfg.Index.Backend), st, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	ingest := usecase.NewIngestUseCase(
		extract.NewFileExtractor(),
		chunker.NewWindowChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap),
		idx,
		logger,
	)

	manager := jobs.New(cfg.Jobs, logger)
	answer := usecase.NewAnswerUseCase(idx, llm.NewOllamaClient(cfg.Generation), manager, cfg.GenerationTimeout(), logger)

	return &app{
		logger:  logger,
		store:   st,
		index:   idx,
		ingest:  ingest,
		answer:  answer,
		manager: manager,
	}, nil
}

func (a *app) close() {
	a.manager.Close()
	a.store.Close()
	a.logger.Sync()
}
