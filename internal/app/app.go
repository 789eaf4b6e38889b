// Package app wires dependencies and exposes the runnable modes:
//
//   - API mode: HTTP server for CSV intake and conversation reads
//   - Dispatcher mode: worker consuming batch notifications and running
//     the classification pipeline
//
// Each mode can run in its own process or both can be started side by
// side in one deployment.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelane/reply-engine/internal/api"
	"github.com/carelane/reply-engine/internal/core/llm"
	"github.com/carelane/reply-engine/internal/ingest/intake"
	"github.com/carelane/reply-engine/internal/platform/config"
	"github.com/carelane/reply-engine/internal/platform/observability"
	"github.com/carelane/reply-engine/internal/process/dispatch"
	"github.com/carelane/reply-engine/internal/storage"
)

const (
	llmAPIKeyMock     = "mock"
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// App holds the application dependencies and provides methods to run the
// operational modes.
type App struct {
	cfg      *config.Config
	database *storage.DB
	logger   *zerolog.Logger
}

func New(cfg *config.Config, database *storage.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.database, a.cfg.HealthPort, a.logger).Start(ctx)
}

// RunAPI serves the intake and conversation read endpoints until ctx is
// canceled.
func (a *App) RunAPI(ctx context.Context) error {
	intakeService := intake.NewService(a.cfg.BatchBucket, a.cfg.NotifyChannel, a.database, a.logger)
	server := api.NewServer(intakeService, a.database, a.logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           server.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		//nolint:contextcheck // shutdown uses a fresh context by design
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info().Int("port", a.cfg.HTTPPort).Msg("API server starting")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}

	return ctx.Err()
}

// RunDispatcher consumes batch notifications and processes batches until
// ctx is canceled.
func (a *App) RunDispatcher(ctx context.Context) error {
	listener, err := a.database.ListenForBatches(ctx, a.cfg.NotifyChannel)
	if err != nil {
		return fmt.Errorf("subscribe to batch notifications: %w", err)
	}
	defer listener.Close()

	dispatcher := dispatch.New(a.database, a.newLLMClient(), a.cfg.DispatchRowLimit, a.logger)
	worker := dispatch.NewWorker(dispatcher, a.database, listener, a.cfg.BatchBucket, a.cfg.DispatchPollInterval, a.logger)

	return worker.Run(ctx)
}

func (a *App) newLLMClient() llm.Client {
	if a.cfg.LLMAPIKey == llmAPIKeyMock {
		a.logger.Warn().Msg("using mock LLM client")

		return llm.NewMock()
	}

	return llm.NewOpenAI(a.cfg, a.logger)
}
