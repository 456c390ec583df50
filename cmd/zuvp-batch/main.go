package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mestsky-urad/zuvp-pipeline/constants"
	"github.com/mestsky-urad/zuvp-pipeline/internal/common"
	"github.com/mestsky-urad/zuvp-pipeline/internal/export"
	"github.com/mestsky-urad/zuvp-pipeline/internal/extract"
	"github.com/mestsky-urad/zuvp-pipeline/internal/ingest"
	"github.com/mestsky-urad/zuvp-pipeline/internal/normalize"
	"github.com/mestsky-urad/zuvp-pipeline/internal/notify"
	"github.com/mestsky-urad/zuvp-pipeline/internal/pipeline"
	"github.com/mestsky-urad/zuvp-pipeline/internal/render"
	"github.com/mestsky-urad/zuvp-pipeline/internal/store"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir = flag.String("dir", "", "directory of submissions to process (required)")
		out = flag.String("out", "", "output XLSX register path (defaults to parent directory)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "drafts.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Batch runs keep drafts in memory; the XLSX register is the output.
	drafts := store.NewMemoryStore()

	cache, err := extract.NewCache(cfg.Paths.CacheDir, logger)
	if err != nil {
		logger.Error("failed to init extraction cache", "error", err)
		os.Exit(1)
	}
	extractor := extract.NewClient(extract.Config{
		BaseURL: cfg.Extractor.BaseURL,
		APIKey:  cfg.Extractor.APIKey,
		Model:   cfg.Extractor.Model,
		Timeout: cfg.Extractor.Timeout,
	}, logger)
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

	proc := pipeline.NewProcessor(
		logger, ingestor, cache, extractor,
		normalize.New(cfg.Fees.FallbackDurationDays),
		renderer, &notify.LogNotifier{Logger: logger}, drafts, cfg.Fees.RatePerSqmDay,
	)

	var matched, drafted, rejected, failures int
	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Error("walk error", "path", path, "error", walkErr)
			failures++
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			return nil
		}
		matched++

		outcome, err := proc.ProcessPath(ctx, path)
		if err != nil {
			logger.Error("failed to process file", "path", path, "error", err)
			failures++
			return nil
		}
		if outcome.Status == constants.OutcomeDraftCreated {
			drafted++
		} else {
			rejected++
			logger.Warn("submission not drafted",
				"path", path, "status", string(outcome.Status), "message", outcome.Validation.Message)
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to walk directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	xlsxBytes, err := export.NewService(drafts, logger).ExportDraftsXLSX(ctx)
	if err != nil {
		logger.Error("failed to export drafts", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"matched", matched, "drafted", drafted,
		"rejected", rejected, "failures", failures, "output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files matched: %d\n", matched)
	fmt.Printf("- Drafts created: %d\n", drafted)
	fmt.Printf("- Rejected/incomplete: %d\n", rejected)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}
