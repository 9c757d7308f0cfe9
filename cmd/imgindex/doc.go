// Command imgindex keeps a table of image fingerprints in sync with a
// directory tree.
//
// # Commands
//
//	imgindex sync --root /data/images [--force] [--interval 30m]
//	imgindex dedup [--keep oldest]
//	imgindex status [--json]
//	imgindex version
//
// sync creates the table on first run, rebuilds it with --force, and
// otherwise applies only the differences between the stored rows and the
// files on disk. Every sync ends by collapsing rows with identical content
// to one survivor. dedup runs only that last step. status reports whether
// the table exists and how many rows it holds.
//
// # Configuration
//
// Settings come from, in increasing precedence: built-in defaults, the YAML
// file given by --config (default ~/.imgindex/config.yaml), IMGINDEX_*
// environment variables (IMGINDEX_BATCH_SIZE for --batch-size) and flags.
// The database defaults to ~/.imgindex/index.db and the table to
// myntra_combined.
//
//	database: /var/lib/imgindex/index.db
//	table: products
//	root: /data/images
//	ext: [.jpg, .jpeg, .png]
//	exclude: ["**/thumbs/**"]
//	keep: newest
//	metrics-file: /var/lib/node_exporter/textfile/imgindex.prom
//
// # Lifecycle
//
//  1. Configuration is merged and validated; invalid values fail before any work
//  2. Logging, the Go memory limit and metric observers are set up
//  3. The store is opened and a file lock next to it is taken for the run
//  4. The run executes; SIGINT/SIGTERM cancel it at the next batch boundary
//  5. The summary is printed and metrics are written to the textfile, if set
//
// A second sync against the same database while one is running fails
// immediately instead of waiting.
package main
