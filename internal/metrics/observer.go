package metrics

import (
	"image-index/internal/database"
	"image-index/internal/filesystem"
)

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem metrics
// into the Prometheus counters and histograms declared in metrics.go.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveOperation(operation string, durationSeconds float64, err error) {
	FilesystemOperationDuration.WithLabelValues(operation).Observe(durationSeconds)
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(operation).Inc()
	}
}

func (o *filesystemObserver) ObserveRead(bytes int64, durationSeconds float64) {
	FingerprintBytesTotal.Add(float64(bytes))
	FingerprintDuration.Observe(durationSeconds)
}

func (o *filesystemObserver) ObserveRetryAttempt(operation string) {
	FilesystemRetryAttempts.WithLabelValues(operation).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(operation string) {
	FilesystemRetrySuccess.WithLabelValues(operation).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(operation string) {
	FilesystemRetryFailures.WithLabelValues(operation).Inc()
}

func (o *filesystemObserver) ObserveStaleError(operation string) {
	FilesystemStaleErrors.WithLabelValues(operation).Inc()
}

// queryObserver implements database.QueryObserver.
type queryObserver struct{}

// NewQueryObserver creates an observer for database.WithObserver.
func NewQueryObserver() database.QueryObserver {
	return &queryObserver{}
}

func (o *queryObserver) ObserveQuery(operation string, durationSeconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreQueryTotal.WithLabelValues(operation, status).Inc()
	StoreQueryDuration.WithLabelValues(operation).Observe(durationSeconds)
}
