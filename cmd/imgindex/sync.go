package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"image-index/internal/indexer"
	"image-index/internal/startup"
)

func newSyncCmd() *cobra.Command {
	def := startup.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the table with a directory tree",
		Long: `sync creates the table from the directory tree when it does not exist,
rebuilds it when --force is given, and otherwise applies only the
differences: rows for deleted or modified files are removed, new and
modified files are added. Identical content is then collapsed to one row.

With --interval the sync repeats until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			closer, err := setupRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			startup.LogConfig(cfg)
			return runSync(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := cmd.Flags()
	f.SortFlags = false
	f.StringP("root", "r", "", "directory tree to index (required)")
	f.BoolP("force", "f", false, "drop the table and rebuild it from disk")
	f.StringSlice("ext", def.Extensions, `eligible extensions, or "images" for common image types`)
	f.Bool("case-sensitive", def.CaseSensitive, "match extensions case-sensitively")
	f.Bool("skip-hidden", false, "skip files and directories whose name starts with a dot")
	f.StringSlice("exclude", nil, "doublestar patterns, relative to the root, to leave out")
	f.IntP("workers", "w", 0, "fingerprinting workers (0 = 2 per CPU)")
	f.String("hash", def.HashAlgorithm, "content hash: sha256 or blake2b")
	f.String("keep", def.KeepPolicy, "duplicate survivor: newest or oldest")
	f.Int("batch-size", def.BatchSize, "records per store call")
	f.Duration("interval", 0, "repeat the sync at this interval until interrupted")

	return cmd
}

func runSync(ctx context.Context, out io.Writer, cfg *startup.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := cfg.IndexerOptions(newReporter())
	if err != nil {
		return err
	}
	idx, err := indexer.New(store, opts)
	if err != nil {
		return err
	}

	collector := newCollector(idx, cfg)

	if cfg.Interval > 0 {
		collector.Start()
		defer collector.Stop()

		startup.LogScheduleStarted(cfg.Interval)
		err := idx.RunPeriodic(ctx, cfg.Interval, func(sum indexer.Summary, err error) {
			if err == nil {
				printSummary(out, sum)
			}
			writeMetrics(cfg, collector)
		})
		startup.LogShutdownInitiated("interrupt")
		startup.LogShutdownComplete()
		return err
	}

	sum, err := idx.Sync(ctx)
	writeMetrics(cfg, collector)
	if err != nil {
		if errors.Is(err, indexer.ErrLocked) {
			return fmt.Errorf("another sync is running against %s: %w", cfg.DatabasePath, err)
		}
		return err
	}

	printSummary(out, sum)
	return nil
}

func printSummary(w io.Writer, sum indexer.Summary) {
	fmt.Fprintf(w, "%s: %s\n", sum.Table, sum)
	if sum.SchemaMismatch {
		fmt.Fprintf(w, "warning: table %s has an unexpected schema and was left untouched\n", sum.Table)
	}
}
