package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync run metrics
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgindex_sync_runs_total",
			Help: "Total number of synchronization runs by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgindex_sync_run_duration_seconds",
			Help:    "Duration of synchronization runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"mode"},
	)

	SyncPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgindex_sync_phase_duration_seconds",
			Help:    "Duration of each synchronization phase in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"phase"},
	)

	SyncLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imgindex_sync_last_run_timestamp",
			Help: "Unix timestamp of the last finished run",
		},
	)

	SyncLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imgindex_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful run",
		},
	)

	SyncRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imgindex_sync_running",
			Help: "Whether a run is in progress (1 = running, 0 = idle)",
		},
	)

	SyncSchemaMismatch = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imgindex_sync_schema_mismatch",
			Help: "Whether the last run found a table with an unexpected schema",
		},
	)

	SyncWarningsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imgindex_sync_warnings_total",
			Help: "Total number of warnings raised during runs",
		},
	)
)

// Row and file metrics
var (
	RowsChangedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgindex_rows_changed_total",
			Help: "Rows changed in the index by operation",
		},
		[]string{"operation"}, // "added", "removed", "deduplicated"
	)

	FilesScannedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imgindex_files_scanned_total",
			Help: "Total number of eligible files fingerprinted",
		},
	)

	FilesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imgindex_files_skipped_total",
			Help: "Total number of files or directories skipped because they could not be read",
		},
	)

	DuplicateFilesLast = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imgindex_duplicate_files",
			Help: "Files left out of the index by the last run because their content is indexed elsewhere",
		},
	)

	TableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "imgindex_table_rows",
			Help: "Number of rows in the index table",
		},
		[]string{"table"},
	)
)

// Fingerprint metrics
var (
	FingerprintBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imgindex_fingerprint_bytes_total",
			Help: "Total bytes read while hashing file contents",
		},
	)

	FingerprintDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imgindex_fingerprint_duration_seconds",
			Help:    "Time spent hashing one file",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

// Store metrics
var (
	StoreQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgindex_store_queries_total",
			Help: "Total number of store operations",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgindex_store_query_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "imgindex_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imgindex_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgindex_filesystem_operation_errors_total",
			Help: "Filesystem operations that returned an error",
		},
		[]string{"operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgindex_filesystem_retry_attempts_total",
			Help: "Retries after an NFS stale file handle error",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgindex_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgindex_filesystem_retry_failures_total",
			Help: "Operations that still failed after exhausting retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imgindex_filesystem_stale_errors_total",
			Help: "NFS stale file handle errors seen",
		},
		[]string{"operation"},
	)
)

// Application info metric
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "imgindex_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
