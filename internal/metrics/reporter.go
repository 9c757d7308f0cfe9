package metrics

import (
	"time"

	"image-index/internal/indexer"
)

// Reporter implements indexer.Reporter by recording run events in the
// package's collectors.
type Reporter struct{}

// NewReporter returns a Reporter. Combine it with indexer.LogReporter
// through indexer.MultiReporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) RunStarted(string, indexer.Mode, string) {
	SyncRunning.Set(1)
}

func (r *Reporter) PhaseFinished(_ string, phase indexer.Phase, d time.Duration, _ int) {
	SyncPhaseDuration.WithLabelValues(string(phase)).Observe(d.Seconds())
}

func (r *Reporter) FileSkipped(string, string, error) {
	FilesSkippedTotal.Inc()
}

func (r *Reporter) Warning(string, string) {
	SyncWarningsTotal.Inc()
}

func (r *Reporter) RunFinished(s indexer.Summary, err error) {
	SyncRunning.Set(0)

	mode := string(s.Mode)
	if mode == "" {
		mode = "unknown"
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	now := float64(time.Now().Unix())
	SyncRunsTotal.WithLabelValues(mode, status).Inc()
	SyncRunDuration.WithLabelValues(mode).Observe(s.Duration.Seconds())
	SyncLastRunTimestamp.Set(now)
	if err == nil {
		SyncLastSuccessTimestamp.Set(now)
	}

	FilesScannedTotal.Add(float64(s.Scanned))
	RowsChangedTotal.WithLabelValues("added").Add(float64(s.Added))
	RowsChangedTotal.WithLabelValues("removed").Add(float64(s.Removed))
	RowsChangedTotal.WithLabelValues("deduplicated").Add(float64(s.Deduplicated))

	if s.Mode != indexer.ModeDedup {
		DuplicateFilesLast.Set(float64(s.Duplicates))
	}
	if s.SchemaMismatch {
		SyncSchemaMismatch.Set(1)
	} else if err == nil {
		SyncSchemaMismatch.Set(0)
	}
	if s.Rows >= 0 && s.Table != "" {
		TableRows.WithLabelValues(s.Table).Set(float64(s.Rows))
	}
}
