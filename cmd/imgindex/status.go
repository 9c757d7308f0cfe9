package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"image-index/internal/indexer"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the table exists and how many rows it holds",
		Args:  cobra.NoArgs,
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

			opts, err := cfg.IndexerOptions(nil)
			if err != nil {
				return err
			}
			idx, err := indexer.New(store, opts)
			if err != nil {
				return err
			}

			st, err := idx.Status(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			switch {
			case !st.Exists:
				fmt.Fprintf(out, "%s: does not exist in %s\n", st.Table, cfg.DatabasePath)
			case st.SchemaError != "":
				fmt.Fprintf(out, "%s: unexpected schema: %s\n", st.Table, st.SchemaError)
			default:
				fmt.Fprintf(out, "%s: %s rows\n", st.Table, humanize.Comma(int64(st.Rows)))
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "print the status as JSON")
	return cmd
}
