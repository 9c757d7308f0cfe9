// Package startup holds the application configuration, build information and
// the startup/shutdown log blocks.
//
// # Configuration
//
// [Config] is filled by the command layer from, lowest precedence first:
// [DefaultConfig], the YAML config file (~/.imgindex/config.yaml unless
// --config is given), IMGINDEX_* environment variables and command-line
// flags. The mapstructure tags name the flag and config keys:
//
//   - database: SQLite file or directory, or "memory:" (default: ~/.imgindex/index.db)
//   - table: target table (default: myntra_combined)
//   - root: directory tree to index
//   - force: drop and rebuild the table
//   - ext, case-sensitive: eligible file extensions (default: .jpg, case-sensitive)
//   - skip-hidden, exclude: hidden file skipping and doublestar exclude globs
//   - workers: fingerprinting pool size (default: 2 per CPU, capped)
//   - hash: sha256 or blake2b
//   - keep: newest or oldest, the duplicate survivor policy
//   - batch-size: records per store call (default: 500)
//   - log-level, log-file: logging
//   - metrics-file: Prometheus textfile written after each run
//   - memory-limit: GOMEMLIMIT source, e.g. "2GiB"
//   - interval: re-run sync periodically until interrupted
//
// [Config.Validate] resolves paths and rejects invalid values before any
// work starts. [Config.IndexerOptions] turns a validated Config into
// [indexer.Options].
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X image-index/internal/startup.Version=1.2.0 -X image-index/internal/startup.Commit=$(git rev-parse --short HEAD)"
package startup
