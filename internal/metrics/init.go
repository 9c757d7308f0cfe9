package metrics

import "image-index/internal/indexer"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first scrape or textfile write.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Run outcomes ---
	for _, mode := range []indexer.Mode{indexer.ModeCreate, indexer.ModeRebuild, indexer.ModeUpdate, indexer.ModeDedup} {
		SyncRunsTotal.WithLabelValues(string(mode), "success")
		SyncRunsTotal.WithLabelValues(string(mode), "error")
		SyncRunDuration.WithLabelValues(string(mode))
	}

	for _, phase := range []indexer.Phase{indexer.PhaseScan, indexer.PhaseRead, indexer.PhaseReconcile,
		indexer.PhaseRemove, indexer.PhaseAdd, indexer.PhaseDedup} {
		SyncPhaseDuration.WithLabelValues(string(phase))
	}

	for _, op := range []string{"added", "removed", "deduplicated"} {
		RowsChangedTotal.WithLabelValues(op)
	}

	// --- Database storage ---
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	// --- Filesystem operations and retries ---
	for _, op := range []string{"stat", "open"} {
		FilesystemOperationDuration.WithLabelValues(op)
		FilesystemOperationErrors.WithLabelValues(op)
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	// --- Store operations ---
	for _, op := range []string{"exists", "create_table", "open_table", "drop_table",
		"append", "read_all", "delete_where"} {
		StoreQueryTotal.WithLabelValues(op, "success")
		StoreQueryTotal.WithLabelValues(op, "error")
		StoreQueryDuration.WithLabelValues(op)
	}
}
