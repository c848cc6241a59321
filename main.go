package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"airbnb-cleaner/config"
	"airbnb-cleaner/models"
	"airbnb-cleaner/services"
	"airbnb-cleaner/storage"
	"airbnb-cleaner/utils"
	"airbnb-cleaner/visualization"
)

const usage = "usage: airbnb-cleaner [input_dir] [output_dir]"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one cleaning run and returns the process exit code.
func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		logger := utils.NewLogger()
		logger.Error("Failed to load config: %v", err)
		logger.Sync()
		return 1
	}

	logger, err := utils.NewLoggerMode(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	defer logger.Sync()

	if len(args) > 2 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
	rawDir, outDir := cfg.RawDir(), cfg.ProcessedDir()
	if len(args) >= 1 {
		rawDir = args[0]
		if _, err := os.Stat(rawDir); err != nil {
			logger.Error("Input path %q does not exist", rawDir)
			return 1
		}
	}
	if len(args) == 2 {
		outDir = args[1]
	}

	logger.Info("=== Airbnb dataset cleaning starting ===")
	logger.Info("Converting from: %s | Converting to: %s", rawDir, outDir)

	seed, err := loadSeed(cfg)
	if err != nil {
		logger.Error("Failed to load classification seed: %v", err)
		return 1
	}

	paths := config.PathsFor(rawDir, cfg.InterimDir(), outDir, cfg.City)
	pipeline := services.NewPipeline(storage.NewFileStore(runID), services.PipelineOptions{
		RunID:            runID,
		SaveIntermediate: cfg.SaveIntermediate,
		Seed:             seed,
		Impute:           services.DefaultImputeConfig(),
	}, logger)

	result, err := pipeline.Run(paths)
	if err != nil {
		logger.Error("Pipeline failed: %v", err)
		return 1
	}

	services.NewReportService(logger).Print(os.Stdout, result.Report)

	if cfg.ReportPath != "" {
		if err := storage.WriteMissingReport(cfg.ReportPath, result.Report); err != nil {
			logger.Error("Report write failed: %v", err)
			return 1
		}
		logger.Info("Missing data report saved to %s", cfg.ReportPath)
	}

	if cfg.PlotDir != "" {
		plotPriceComparisons(cfg.PlotDir, result.Normalized.Listings, logger)
	}

	if err := export(cfg, result.Filled, logger); err != nil {
		logger.Error("Export failed: %v", err)
		return 1
	}

	logger.Info("Done. Final tables: %s", paths.Final)
	return 0
}

// loadSeed reads COLUMNS_SEED when set and the embedded seed otherwise.
func loadSeed(cfg *config.Config) (*models.Classification, error) {
	if cfg.ColumnsSeed != "" {
		return services.LoadClassificationSeed(cfg.ColumnsSeed)
	}
	return services.ParseClassificationSeed(config.DefaultColumnsSeed)
}

// plotPriceComparisons draws each long-term price and the cleaning fee against
// the daily price, before filling.
func plotPriceComparisons(dir string, listings *models.Table, logger *utils.Logger) {
	price, err := listings.Column("price")
	if err != nil {
		logger.Warn("[plot] %v", err)
		return
	}
	for _, name := range []string{"weekly_price", "monthly_price", "cleaning_fee"} {
		col, err := listings.Column(name)
		if err != nil {
			logger.Warn("[plot] %v", err)
			continue
		}
		path := filepath.Join(dir, "price_vs_"+name+".png")
		if err := visualization.ComparePNG(path, price, col); err != nil {
			logger.Warn("[plot] %s: %v", name, err)
			continue
		}
		logger.Info("[plot] Saved %s", path)
	}
}

func export(cfg *config.Config, ds models.Dataset, logger *utils.Logger) error {
	var writers []storage.TableWriter
	if cfg.CSVExport != "" {
		writers = append(writers, storage.NewCSVExporter(filepath.Join(cfg.CSVExport, cfg.City)))
	}
	if cfg.PostgresExport {
		pg, err := storage.NewPostgresWriter(cfg.DSN(), cfg.City, logger)
		if err != nil {
			return err
		}
		writers = append(writers, pg)
	}

	for _, w := range writers {
		err := w.WriteTables(ds.Tables()...)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
