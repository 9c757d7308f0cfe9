package indexer

import (
	"time"

	"github.com/dustin/go-humanize"

	"image-index/internal/logging"
)

// Phase names one step of a run.
type Phase string

const (
	PhaseScan      Phase = "scan"
	PhaseRead      Phase = "read"
	PhaseReconcile Phase = "reconcile"
	PhaseRemove    Phase = "remove"
	PhaseAdd       Phase = "add"
	PhaseDedup     Phase = "dedup"
)

// Reporter receives progress events from a run. All calls for one run come
// from the goroutine running it.
type Reporter interface {
	RunStarted(runID string, mode Mode, table string)
	// PhaseFinished reports a completed phase and the number of items it handled.
	PhaseFinished(runID string, phase Phase, d time.Duration, items int)
	// FileSkipped reports a file or directory that could not be read.
	FileSkipped(runID, uri string, err error)
	Warning(runID, msg string)
	// RunFinished is called once per run, with the error that ended it, if any.
	RunFinished(summary Summary, err error)
}

// MultiReporter fans events out to every non-nil reporter.
type MultiReporter []Reporter

func (m MultiReporter) RunStarted(runID string, mode Mode, table string) {
	for _, r := range m {
		if r != nil {
			r.RunStarted(runID, mode, table)
		}
	}
}

func (m MultiReporter) PhaseFinished(runID string, phase Phase, d time.Duration, items int) {
	for _, r := range m {
		if r != nil {
			r.PhaseFinished(runID, phase, d, items)
		}
	}
}

func (m MultiReporter) FileSkipped(runID, uri string, err error) {
	for _, r := range m {
		if r != nil {
			r.FileSkipped(runID, uri, err)
		}
	}
}

func (m MultiReporter) Warning(runID, msg string) {
	for _, r := range m {
		if r != nil {
			r.Warning(runID, msg)
		}
	}
}

func (m MultiReporter) RunFinished(summary Summary, err error) {
	for _, r := range m {
		if r != nil {
			r.RunFinished(summary, err)
		}
	}
}

// LogReporter writes run events through the logging package.
type LogReporter struct{}

func (LogReporter) RunStarted(runID string, mode Mode, table string) {
	logging.Info("Starting %s of table %s (run %s)", mode, table, runID)
}

func (LogReporter) PhaseFinished(runID string, phase Phase, d time.Duration, items int) {
	logging.Debug("Run %s: %s finished in %v (%s items)", runID, phase, d, humanize.Comma(int64(items)))
}

func (LogReporter) FileSkipped(runID, uri string, err error) {
	logging.Warn("Run %s: skipping %s: %v", runID, uri, err)
}

func (LogReporter) Warning(runID, msg string) {
	logging.Warn("Run %s: %s", runID, msg)
}

func (LogReporter) RunFinished(s Summary, err error) {
	if err != nil {
		logging.Error("Run %s failed after %v: %v (%s)", s.RunID, s.Duration.Round(time.Millisecond), err, s)
		return
	}
	logging.Info("Run %s complete in %v: %s", s.RunID, s.Duration.Round(time.Millisecond), s)
}

type nopReporter struct{}

func (nopReporter) RunStarted(string, Mode, string)                 {}
func (nopReporter) PhaseFinished(string, Phase, time.Duration, int) {}
func (nopReporter) FileSkipped(string, string, error)               {}
func (nopReporter) Warning(string, string)                          {}
func (nopReporter) RunFinished(Summary, error)                      {}
