package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"image-index/internal/database"
	"image-index/internal/filesystem"
	"image-index/internal/indexer"
	"image-index/internal/logging"
	"image-index/internal/memory"
	"image-index/internal/metrics"
	"image-index/internal/startup"
)

// Refresh period for the table and database size gauges
const defaultCollectInterval = time.Minute

// setupRuntime configures logging, the memory limit and metric observers.
// The returned closer releases the log file.
func setupRuntime(cmd *cobra.Command, cfg *startup.Config) (io.Closer, error) {
	opts := logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	}
	if w := cmd.ErrOrStderr(); w != os.Stderr {
		opts.Console = w
	}
	closer, err := logging.Setup(opts)
	if err != nil {
		return nil, err
	}

	memory.Configure(cfg.MemoryLimit)

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()
	info := startup.GetBuildInfo()
	metrics.SetAppInfo(info.Version, info.Commit, info.GoVersion)

	return closer, nil
}

func openStore(ctx context.Context, cfg *startup.Config) (database.Store, error) {
	return database.Connect(ctx, cfg.DatabasePath, database.WithObserver(metrics.NewQueryObserver()))
}

func newReporter() indexer.Reporter {
	return indexer.MultiReporter{indexer.LogReporter{}, metrics.NewReporter()}
}

// newCollector refreshes table and database size gauges; dbPath is empty
// for the memory store.
func newCollector(idx *indexer.Indexer, cfg *startup.Config) *metrics.Collector {
	dbPath := cfg.DatabasePath
	if cfg.IsMemoryStore() {
		dbPath = ""
	}
	return metrics.NewCollector(idx, dbPath, collectInterval(cfg))
}

func collectInterval(cfg *startup.Config) time.Duration {
	if cfg.Interval > 0 && cfg.Interval < defaultCollectInterval {
		return cfg.Interval
	}
	return defaultCollectInterval
}

// writeMetrics exports the registry when a metrics file is configured.
func writeMetrics(cfg *startup.Config, collector *metrics.Collector) {
	if cfg.MetricsFile == "" {
		return
	}
	if collector != nil {
		collector.Collect()
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		logging.Warn("Failed to write metrics: %v", err)
	}
}
