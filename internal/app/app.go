package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"FeedbackAnalyzer/internal/config"
	"FeedbackAnalyzer/internal/httpapi"
	"FeedbackAnalyzer/internal/infrastructure/blob"
	"FeedbackAnalyzer/internal/infrastructure/llm"
	"FeedbackAnalyzer/internal/infrastructure/speech"
	"FeedbackAnalyzer/internal/infrastructure/storage"
	"FeedbackAnalyzer/internal/infrastructure/textanalytics"
	"FeedbackAnalyzer/internal/logging"
	"FeedbackAnalyzer/internal/sse"
	"FeedbackAnalyzer/internal/usecase"
)

const (
	shutdownTimeout   = 10 * time.Second
	workerStopTimeout = 5 * time.Second
)

// Application wires configuration to the repository, providers, worker
// and HTTP server, and owns their lifecycle.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db     *sql.DB
	worker *usecase.Worker
	server *http.Server
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repository := storage.NewSQLiteRepository(db)
	if err := repository.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	blobStore := blob.NewS3Store(ctx, cfg.Blob, baseLogger.With("component", "blob"))
	sentiment := textanalytics.NewClient(cfg.TextAnalytics, baseLogger.With("component", "textanalytics"))
	responder := llm.NewOpenAIClient(cfg.OpenAI, baseLogger.With("component", "openai"))
	synthesizer := speech.NewSynthesizer(cfg.Speech, cfg.AudioDir, blobStore, baseLogger.With("component", "speech"))

	hub := sse.NewHub(baseLogger.With("component", "sse"))
	queue := usecase.NewJobQueue()

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Repository:  repository,
		Sentiment:   sentiment,
		Responder:   responder,
		Speech:      synthesizer,
		Broadcaster: hub,
		Logger:      baseLogger.With("component", "pipeline"),
	})
	worker := usecase.NewWorker(queue, pipeline, baseLogger.With("component", "worker"))

	api := httpapi.NewServer(httpapi.ServerDeps{
		Repository:  repository,
		Queue:       queue,
		Hub:         hub,
		Blob:        blobStore,
		Sentiment:   sentiment,
		Responder:   responder,
		Speech:      synthesizer,
		AudioDir:    cfg.AudioDir,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      baseLogger.With("component", "http"),
	})

	return &Application{
		cfg:    cfg,
		logger: baseLogger.With("component", "app"),
		db:     db,
		worker: worker,
		server: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run starts the worker and serves HTTP until ctx is cancelled, then
// shuts both down.
func (a *Application) Run(ctx context.Context) error {
	a.worker.Start(ctx)
	a.logger.Info("listening", "addr", a.cfg.HTTP.Addr)

	serveErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		a.shutdown()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.shutdown()

	if serveResult := <-serveErr; serveResult != nil && err == nil {
		err = serveResult
	}
	return err
}

func (a *Application) shutdown() {
	a.worker.Stop(workerStopTimeout)
	if err := a.db.Close(); err != nil {
		a.logger.Error("closing database", "error", err)
	}
}
