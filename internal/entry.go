// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/tallyhq/tally/internal/ai"
	"github.com/tallyhq/tally/internal/api"
	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/blob"
	"github.com/tallyhq/tally/internal/ingest"
	"github.com/tallyhq/tally/internal/mcpserver"
	"github.com/tallyhq/tally/internal/sse"
	"github.com/tallyhq/tally/internal/store"
	"github.com/tallyhq/tally/internal/summary"
	"github.com/tallyhq/tally/internal/todo"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("data_path", cfg.Data.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Open the SQLite store.
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// Blob storage for ingested documents.
	blobs, err := blob.NewFS(cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("init blob storage: %w", err)
	}

	// AI generator: an explicit override wins, otherwise the configured
	// endpoint, otherwise a stub that fails every generation.
	gen := app.generator
	if gen == nil {
		if cfg.AI.BaseURL != "" {
			gen = ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)
		} else {
			logger.Warn("AI endpoint not configured; generation requests will fail")
			gen = ai.Unconfigured{}
		}
	}

	authSvc := auth.NewService(db, cfg.Auth.SessionTTL)
	coordinator := summary.NewCoordinator(db, authSvc, gen, cfg.AI.ReuseWindow, logger)

	// MCP stdio mode replaces the HTTP server entirely.
	if app.mcpStdio {
		logger.Info("Starting MCP stdio server")
		return mcpserver.New(db, coordinator).ServeStdio()
	}

	broker := sse.NewBroker()
	defer broker.Close()

	executor := todo.NewExecutor(db, gen, logger, broker.PublishChange)
	ingestSvc := ingest.NewService(db, blobs)

	h := api.NewHandler(db, authSvc, coordinator, executor, ingestSvc, broker)
	apiRouter := api.NewRouter(h, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Background AI To-Do executor.
	g.Go(func() error {
		executor.Poll(gCtx, cfg.AI.PollInterval)
		return nil
	})

	// Optional ingest inbox watcher.
	if cfg.Data.Inbox != "" {
		g.Go(func() error {
			return ingest.Watch(gCtx, ingestSvc, db, cfg.Data.Inbox, logger, func(projectID, docID string) {
				broker.PublishChange("document.created", projectID, docID)
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
