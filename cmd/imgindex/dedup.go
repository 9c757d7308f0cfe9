package main

import (
	"github.com/spf13/cobra"

	"image-index/internal/indexer"
	"image-index/internal/startup"
)

func newDedupCmd() *cobra.Command {
	def := startup.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Collapse rows with identical content to one survivor",
		Long: `dedup groups the rows of an existing table by content hash and deletes
every row but the survivor of each group. It does not read the filesystem.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			closer, err := setupRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx := cmd.Context()
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

			sum, err := idx.Deduplicate(ctx)
			writeMetrics(cfg, newCollector(idx, cfg))
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("keep", def.KeepPolicy, "duplicate survivor: newest or oldest")
	f.Int("batch-size", def.BatchSize, "records per store call")

	return cmd
}
