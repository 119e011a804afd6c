// Package main runs one collection of the day's upper-limit stocks: it
// scrapes both market segments, attaches stock codes, saves a timestamped
// CSV and sends a summary notification.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	"upperlimit/internal/export"
	"upperlimit/internal/notify"
	"upperlimit/internal/pipeline"
	"upperlimit/internal/scraper"
	"upperlimit/internal/utils"

	"github.com/google/uuid"
)

// buildPipeline wires the collection stages from the loaded configuration.
// Market pages go through the headless browser when browser mode is on;
// the code directory always uses plain HTTP.
//
// Parameters:
//   - logger: Logger shared by every stage
//   - config: Validated application configuration
//
// Returns:
//   - *pipeline.Pipeline: Pipeline ready to run once
//   - func(): Cleanup that releases the browser; safe to call on error
//   - error: Any error that occurred while starting the browser
func buildPipeline(logger *utils.Logger, config *utils.Config) (*pipeline.Pipeline, func(), error) {
	httpFetcher := scraper.NewHTTPFetcher(config)
	cleanup := func() {}

	var marketFetcher scraper.Fetcher = httpFetcher
	if config.Scraper.Browser.Enabled {
		browser, err := scraper.NewBrowserFetcher(logger, config)
		if err != nil {
			return nil, cleanup, err
		}
		marketFetcher = browser
		cleanup = browser.Close
	}

	perf := utils.NewPerformanceTracker()
	codes := scraper.NewCodeDirectoryLoader(httpFetcher, config.CodeDirectory, logger)

	p := &pipeline.Pipeline{
		Snapshots:  scraper.NewSnapshotFetcher(marketFetcher, config.Markets, logger, perf),
		Normalizer: scraper.NewNormalizer(codes, logger),
		Persister:  export.NewCSVWriter(config.Output.Dir, config.Output.Prefix),
		WriteXLSX:  config.Output.XLSX,
		Out:        os.Stdout,
		Logger:     logger,
		Perf:       perf,
	}
	if config.Notify.Enabled {
		timeout := time.Duration(config.Scraper.Timeout) * time.Second
		p.Notifier = notify.NewNotifier(config.Notify.URL, config.Notify.Token, timeout, logger)
	}
	return p, cleanup, nil
}

// collect runs one pipeline execution and releases its resources before
// returning, so the caller may exit right after.
//
// Parameters:
//   - ctx: Context cancelled on interrupt
//   - logger: Logger carrying the run_id field
//   - config: Validated application configuration
//
// Returns:
//   - error: scraper.ErrNoData when nothing was collected, or any
//     unexpected error from the pipeline
func collect(ctx context.Context, logger *utils.Logger, config *utils.Config) error {
	p, cleanup, err := buildPipeline(logger, config)
	defer cleanup()
	if err != nil {
		return err
	}

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("Collected %d upper-limit stocks", len(result.Records))
	return nil
}

func main() {
	startTime := time.Now()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = utils.DefaultConfigPath
	}

	config, err := utils.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	baseLogger, err := utils.NewLogger(config.Log.Dir, config.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer baseLogger.Close()
	logger := baseLogger.WithField("run_id", uuid.NewString())

	if err := config.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting upper-limit stock collection")

	if err := collect(ctx, logger, config); err != nil {
		if errors.Is(err, scraper.ErrNoData) {
			logger.Fatal("No data collected; nothing saved or sent")
		}
		logger.Fatal("Collection failed: %v", err)
	}

	logger.Info("Total execution time: %v", time.Since(startTime).Round(time.Millisecond))
}
