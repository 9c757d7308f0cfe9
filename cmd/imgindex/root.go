package main

import (
	"github.com/spf13/cobra"

	"image-index/internal/startup"
)

func newRootCmd() *cobra.Command {
	def := startup.DefaultConfig()

	root := &cobra.Command{
		Use:   "imgindex",
		Short: "Keep a table of image fingerprints in sync with a directory tree",
		Long: `imgindex walks a directory tree, fingerprints every eligible image and
brings a table of (uri, content_hash, modified_at) rows in line with it:
new files are added, deleted and modified files are removed or replaced,
and rows with identical content are collapsed to one survivor.`,
		Version: startup.Version,
	}

	pf := root.PersistentFlags()
	pf.SortFlags = false
	pf.StringP("config", "c", "", "config file (default ~/.imgindex/config.yaml)")
	pf.StringP("database", "d", def.DatabasePath, `database file or directory, or "memory:"`)
	pf.StringP("table", "t", def.Table, "table to synchronize")
	pf.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
	pf.String("log-file", "", "also write logs to this rotated file")
	pf.String("metrics-file", "", "write Prometheus metrics to this textfile after each run")
	pf.String("memory-limit", "", `soft memory limit for the Go runtime, e.g. "2GiB"`)

	root.AddCommand(
		newSyncCmd(),
		newDedupCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}
