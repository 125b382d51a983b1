package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/6ground-maker/TherapyTune/internal/adapters/gemini"
	"github.com/6ground-maker/TherapyTune/internal/adapters/mic"
	"github.com/6ground-maker/TherapyTune/internal/adapters/postgres"
	"github.com/6ground-maker/TherapyTune/internal/adapters/rest"
	"github.com/6ground-maker/TherapyTune/internal/adapters/sqlite"
	"github.com/6ground-maker/TherapyTune/internal/config"
	"github.com/6ground-maker/TherapyTune/internal/core/ports"
	"github.com/6ground-maker/TherapyTune/internal/core/services"
	"github.com/6ground-maker/TherapyTune/internal/worker"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Configuration (Environment Variables)
	// It's best practice to crash early if required config is missing.
	cfg := config.Load()
	if cfg.GeminiAPIKey == "" {
		logger.Error("GEMINI_API_KEY environment variable is required")
		os.Exit(1)
	}

	// 2. Initialize "Driven" Adapters (The Tools)
	// -- Session Store
	var repo ports.SessionRepository
	var repoCloser func() error

	switch cfg.StorageDriver {
	case "sqlite":
		dbAdapter, err := sqlite.NewAdapter(cfg.StoragePath)
		if err != nil {
			logger.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		repo = dbAdapter
		repoCloser = dbAdapter.Close
	case "postgres":
		dbAdapter, err := postgres.NewAdapter(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		repo = dbAdapter
		repoCloser = dbAdapter.Close
	default:
		logger.Error("unknown storage driver", "driver", cfg.StorageDriver)
		os.Exit(1)
	}
	defer repoCloser()

	// -- Gemini Adapter
	// One client serves both calls: state analysis and journey composition.
	aiClient := gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)

	// -- Microphone Adapter (optional)
	var recorder ports.Recorder
	if cfg.CaptureEnabled {
		micRecorder, err := mic.NewRecorder(cfg.SampleRate, logger)
		if err != nil {
			logger.Error("failed to initialize capture device", "error", err)
			os.Exit(1)
		}
		defer micRecorder.Close()
		recorder = micRecorder
	}

	// 3. Initialize Core Logic (The Driver)
	svc := services.NewOrchestrator(aiClient, aiClient, repo, recorder, services.Options{
		CallTimeout: cfg.CallTimeout,
		Logger:      logger,
	})

	// 4. Initialize "Driving" Adapter (The Interface)
	pool := worker.NewPool(repo, logger, cfg.QueueSize)
	pool.Start(cfg.WorkerCount)
	defer pool.Stop()

	handler := rest.NewHandler(svc, pool, recorder)

	// 5. Start the Server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("TherapyTune API is running",
			"addr", cfg.HTTPAddr,
			"storage", cfg.StorageDriver,
			"capture", cfg.CaptureEnabled)
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Expired-Session Sweeper
	go sweepSessions(ctx, repo, cfg.SessionTTL, cfg.SweepInterval, logger)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}
}

// sweepSessions periodically deletes sessions idle past the retention window.
func sweepSessions(ctx context.Context, repo ports.SessionRepository, ttl, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteStale(ctx, time.Now().UTC().Add(-ttl))
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("expired sessions removed", "count", deleted)
			}
		}
	}
}
