// Command processor runs the daily workflow in batch: it ingests a
// directory of NSE participant-wise open interest reports into the local
// CSV table, oldest first, and optionally writes the display export.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"oipulse/internal/config"
	"oipulse/internal/dataprocessing"
	"oipulse/internal/errors"
	"oipulse/internal/exporter"
	"oipulse/internal/files"
	"oipulse/internal/infrastructure"
	"oipulse/internal/services"
	"oipulse/internal/spotprice"
	"oipulse/internal/storage"
	"oipulse/internal/validation"
)

func main() {
	inDir := flag.String("in", "data/uploads", "input directory for daily report files (.csv or .xlsx)")
	dbPath := flag.String("db", "", "path to the table CSV (defaults to the configured storage path)")
	exportPath := flag.String("export", "", "optional path for the display-format export CSV")
	archiveDir := flag.String("archive", "", "optional directory to move processed files into")
	noSpot := flag.Bool("no-spot", false, "skip the reference index lookup")
	spotOverride := flag.Float64("spot", 0, "fallback index close when the lookup fails (0 = none)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if *dbPath == "" {
		*dbPath = cfg.Storage.CSVPath
	}

	logger.Info("Starting batch ingestion",
		slog.String("input_dir", *inDir),
		slog.String("db_path", *dbPath))

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInputDirectory(*inDir, ""); err != nil {
		logger.Error("Input directory validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	discovery := files.NewDiscovery("", logger)
	reports, err := discovery.FindReportFiles(*inDir)
	if err != nil {
		logger.Error("Failed to discover report files", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Found %d report files\n", len(reports))
	if len(reports) == 0 {
		logger.Warn("No report files found",
			slog.String("input_dir", *inDir),
			slog.String("patterns", "*.csv *.xlsx"))
		return
	}

	store := storage.NewCSVStore(*dbPath)
	var spot services.SpotLookup
	if !*noSpot {
		spot = spotprice.New(cfg.SpotPrice)
	}
	service := services.NewSubmissionService(dataprocessing.NewEngine(), store, nil, spot, logger)
	manager := files.NewManager("")

	ctx := context.Background()
	processed, skipped := 0, 0
	for _, report := range reports {
		f, err := os.Open(report.Path)
		if err != nil {
			logger.Error("Failed to open report file",
				slog.String("file", report.Name),
				slog.String("error", err.Error()))
			os.Exit(1)
		}

		result, err := service.Submit(ctx, report.Name, f, *spotOverride)
		f.Close()
		if err != nil {
			// Already-ingested dates are expected on re-runs; anything
			// else aborts the batch.
			if errors.IsDateConflict(err) {
				logger.Info("Skipping file, dates already ingested",
					slog.String("file", report.Name))
				skipped++
				continue
			}
			logger.Error("Failed to process report file",
				slog.String("file", report.Name),
				slog.String("error", err.Error()))
			os.Exit(1)
		}

		processed++
		fmt.Printf("Processed %s: %d rows, table now %d rows\n",
			report.Name, result.RowsAdded, result.TotalRows)

		if *archiveDir != "" {
			if err := manager.Archive(report.Path, *archiveDir); err != nil {
				logger.Warn("Failed to archive processed file",
					slog.String("file", report.Name),
					slog.String("error", err.Error()))
			}
		}
	}

	logger.Info("Batch ingestion complete",
		slog.Int("processed", processed),
		slog.Int("skipped", skipped))

	if *exportPath != "" {
		if err := writeExport(ctx, store, *exportPath); err != nil {
			logger.Error("Failed to write export", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("Export written to %s\n", *exportPath)
	}
}

func writeExport(ctx context.Context, store storage.TableStore, path string) error {
	table, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return exporter.WriteExportCSV(f, table)
}
