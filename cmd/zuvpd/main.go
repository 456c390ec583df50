package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mestsky-urad/zuvp-pipeline/internal/async"
	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/export"
	"github.com/mestsky-urad/zuvp-pipeline/internal/extract"
	"github.com/mestsky-urad/zuvp-pipeline/internal/ingest"
	"github.com/mestsky-urad/zuvp-pipeline/internal/normalize"
	"github.com/mestsky-urad/zuvp-pipeline/internal/notify"
	"github.com/mestsky-urad/zuvp-pipeline/internal/pipeline"
	"github.com/mestsky-urad/zuvp-pipeline/internal/render"
	"github.com/mestsky-urad/zuvp-pipeline/internal/server"
	"github.com/mestsky-urad/zuvp-pipeline/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Draft store
	drafts, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open draft store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Extraction cache + extractor client
	cache, err := extract.NewCache(cfg.Paths.CacheDir, logger)
	if err != nil {
		logger.Error("failed to init extraction cache", "error", err)
		os.Exit(1)
	}
	if cfg.Extractor.APIKey == "" {
		logger.Warn("EXTRACTOR_API_KEY not set; extraction calls will fail and submissions will be rejected")
	}
	extractor := extract.NewClient(extract.Config{
		BaseURL: cfg.Extractor.BaseURL,
		APIKey:  cfg.Extractor.APIKey,
		Model:   cfg.Extractor.Model,
		Timeout: cfg.Extractor.Timeout,
	}, logger)

	// Ingestion, rendering, notification
	ingestor, err := ingest.NewFSIngestor(cfg.Paths.UploadDir, logger)
	if err != nil {
		logger.Error("failed to init ingestor", "error", err)
		os.Exit(1)
	}
	renderer, err := render.NewTextRenderer(cfg.Paths.OutputDir, logger)
	if err != nil {
		logger.Error("failed to init renderer", "error", err)
		os.Exit(1)
	}
	var notifier notify.Notifier = &notify.LogNotifier{Logger: logger}
	if cfg.SMTP.User != "" && cfg.SMTP.Password != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTP, logger)
		logger.Info("SMTP notifier enabled", "clerk", cfg.SMTP.ClerkEmail)
	} else {
		logger.Warn("SMTP credentials not configured, draft notifications are logged only")
	}

	proc := pipeline.NewProcessor(
		logger, ingestor, cache, extractor,
		normalize.New(cfg.Fees.FallbackDurationDays),
		renderer, notifier, drafts, cfg.Fees.RatePerSqmDay,
	)

	// Folder watcher feeding the worker queue
	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(4),
		async.WithProcessTimeout(cfg.Extractor.Timeout+time.Minute),
	)
	if err := os.MkdirAll(cfg.Paths.WatchDir, 0o755); err != nil {
		logger.Error("failed to create watch dir", "dir", cfg.Paths.WatchDir, "error", err)
		os.Exit(1)
	}
	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Paths.WatchDir},
		InitialScan: true,
		Debounce:    2 * time.Second,
	}, logger)
	if err != nil {
		logger.Error("failed to start folder watcher", "error", err)
		os.Exit(1)
	}
	go func() {
		for {
			select {
			case path, ok := <-events:
				if !ok {
					return
				}
				_ = queue.Enqueue(ctx, async.Job{Path: path, SubmittedAt: time.Now()})
			case err, ok := <-watchErrs:
				if !ok {
					return
				}
				logger.Error("watcher reported error", "error", err)
			}
		}
	}()
	logger.Info("folder watcher started", "dir", cfg.Paths.WatchDir)

	// HTTP server
	srv := server.New(logger, proc, drafts, cache, export.NewService(drafts, logger))
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Router(),
	}
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

// openStore picks the draft store backend from configuration.
func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (store.DraftRepository, func(), error) {
	switch cfg.Database.Driver {
	case "postgres":
		pg, err := store.OpenPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "memory":
		return store.NewMemoryStore(), func() {}, nil
	default:
		sq, err := store.OpenSQLite(ctx, cfg.Paths.DraftsDB, logger)
		if err != nil {
			return nil, nil, err
		}
		return sq, func() {
			if err := sq.Close(); err != nil {
				logger.Warn("sqlite close error", "error", err)
			}
		}, nil
	}
}
