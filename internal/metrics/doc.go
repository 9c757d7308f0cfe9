// Package metrics provides Prometheus instrumentation for the image index.
//
// All metrics are prefixed with "imgindex_" and registered on the default
// registry through promauto. The index runs as a batch job, so metrics are
// exported by writing a textfile for node_exporter's textfile collector
// rather than serving an HTTP endpoint.
//
// # Metric Categories
//
// ## Sync Metrics
//
// Track runs of the synchronization engine:
//   - SyncRunsTotal: Counter of runs by mode (create/rebuild/update/dedup) and status
//   - SyncRunDuration: Histogram of run duration by mode
//   - SyncPhaseDuration: Histogram of phase duration (scan, read, reconcile, remove, add, dedup)
//   - SyncLastRunTimestamp, SyncLastSuccessTimestamp: Gauges of run completion times
//   - SyncRunning: Gauge indicating if a run is active
//   - SyncSchemaMismatch: Gauge set when the stored table has unexpected columns
//
// ## Row and File Metrics
//
//   - RowsChangedTotal: Counter of rows added, removed and deduplicated
//   - FilesScannedTotal, FilesSkippedTotal: Counters of fingerprinted and unreadable files
//   - DuplicateFilesLast: Gauge of duplicate-content files left out by the last run
//   - TableRows: Gauge of rows in the index table
//
// ## Fingerprint, Store and Filesystem Metrics
//
//   - FingerprintBytesTotal, FingerprintDuration: hashing throughput
//   - StoreQueryTotal, StoreQueryDuration: store operations by name and status
//   - DBSizeBytes: SQLite file sizes (main, WAL, SHM)
//   - Filesystem*: operation latency, errors and NFS stale-handle retries
//
// # Wiring
//
// Observers break the import cycles with lower packages:
//
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	store, err := database.Connect(ctx, path, database.WithObserver(metrics.NewQueryObserver()))
//	reporter := indexer.MultiReporter{indexer.LogReporter{}, metrics.NewReporter()}
//
// Call InitializeMetrics once at startup so every label combination is
// present in the first export, then WriteTextfile after each run.
package metrics
