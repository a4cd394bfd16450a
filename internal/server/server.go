// Package server exposes the HTTP API for uploading documents and
// asking questions about them.
package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Vaibhav2543/deep-researcher/config"
	"github.com/Vaibhav2543/deep-researcher/internal/domain"
	"github.com/Vaibhav2543/deep-researcher/internal/jobs"
	"github.com/Vaibhav2543/deep-researcher/internal/usecase"
)

const defaultTopK = 3

// Server wires the use cases to HTTP endpoints.
type Server struct {
	echo    *echo.Echo
	ingest  *usecase.IngestUseCase
	answer  *usecase.AnswerUseCase
	index   *usecase.IndexUseCase
	manager *jobs.Manager
	cfg     config.ServerConfig
	logger  *zap.Logger
}

func New(
	ingest *usecase.IngestUseCase,
	answer *usecase.AnswerUseCase,
	index *usecase.IndexUseCase,
	manager *jobs.Manager,
	cfg config.ServerConfig,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		ingest:  ingest,
		answer:  answer,
		index:   index,
		manager: manager,
		cfg:     cfg,
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/upload", s.handleUpload)
	s.echo.POST("/query", s.handleQuery)
	s.echo.GET("/results/:job_id", s.handleResults)
	s.echo.GET("/indexed-files", s.handleIndexedFiles)
}

// UploadResponse is the body of POST /upload.
type UploadResponse struct {
	Uploaded []string `json:"uploaded"`
	Indexing string   `json:"indexing"`
}

// QueryResponse is the body of POST /query.
type QueryResponse struct {
	JobID string `json:"job_id"`
}

// ResultsResponse is the body of GET /results/{job_id}.
type ResultsResponse struct {
	Status string              `json:"status"`
	Result *domain.QueryResult `json:"result"`
	Error  *string             `json:"error"`
}

// IndexedFilesResponse is the body of GET /indexed-files.
type IndexedFilesResponse struct {
	Indexed []string `json:"indexed"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload saves the uploaded files and returns before indexing:
// extraction and embedding run in the background.
func (s *Server) handleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files provided")
	}

	var inputs []usecase.FileInput
	var uploaded []string
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if name == "" || name == "." || name == string(filepath.Separator) {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid filename %q", fh.Filename))
		}

		data, err := readMultipart(fh)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("failed to read %s", name))
		}

		if err := os.WriteFile(filepath.Join(s.cfg.UploadsDir, name), data, 0o644); err != nil {
			s.logger.Error("failed to save upload", zap.String("file", name), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to save file")
		}

		doc := domain.Document{
			ID:      uuid.NewString(),
			Name:    name,
			Size:    int64(len(data)),
			ModTime: time.Now(),
		}
		inputs = append(inputs, usecase.FileInput{Doc: doc, Data: data})
		uploaded = append(uploaded, name)
	}

	go func() {
		report := s.ingest.IngestBatch(inputs)
		s.logger.Info("background indexing finished",
			zap.Int("indexed", len(report.Indexed)),
			zap.Int("skipped", len(report.Skipped)),
			zap.Int("chunks", report.ChunksAdded))
	}()

	return c.JSON(http.StatusOK, UploadResponse{Uploaded: uploaded, Indexing: "started"})
}

func (s *Server) handleQuery(c echo.Context) error {
	q := c.FormValue("q")
	if strings.TrimSpace(q) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	topK := defaultTopK
	if raw := c.FormValue("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "top_k must be a positive integer")
		}
		topK = n
	}

	return c.JSON(http.StatusOK, QueryResponse{JobID: s.answer.Ask(q, topK)})
}

func (s *Server) handleResults(c echo.Context) error {
	job, err := s.manager.Get(c.Param("job_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "job not found")
	}

	resp := ResultsResponse{Status: string(job.Status), Result: job.Result}
	if job.Err != "" {
		resp.Error = &job.Err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleIndexedFiles(c echo.Context) error {
	sources := s.index.Sources()
	if sources == nil {
		sources = []string{}
	}
	return c.JSON(http.StatusOK, IndexedFilesResponse{Indexed: sources})
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func readMultipart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
