package indexer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"image-index/internal/database"
	"image-index/internal/logging"
)

// recordingReporter keeps every event it receives.
type recordingReporter struct {
	mu        sync.Mutex
	runIDs    []string
	modes     []Mode
	phases    []Phase
	skipped   []string
	warnings  []string
	finished  int
	finishErr error
	summary   Summary
}

func (r *recordingReporter) RunStarted(runID string, mode Mode, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runIDs = append(r.runIDs, runID)
	r.modes = append(r.modes, mode)
}

func (r *recordingReporter) PhaseFinished(runID string, phase Phase, _ time.Duration, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runIDs = append(r.runIDs, runID)
	r.phases = append(r.phases, phase)
}

func (r *recordingReporter) FileSkipped(runID, uri string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runIDs = append(r.runIDs, runID)
	r.skipped = append(r.skipped, uri)
}

func (r *recordingReporter) Warning(runID, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runIDs = append(r.runIDs, runID)
	r.warnings = append(r.warnings, msg)
}

func (r *recordingReporter) RunFinished(s Summary, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runIDs = append(r.runIDs, s.RunID)
	r.finished++
	r.finishErr = err
	r.summary = s
}

func TestReporterReceivesRunEvents(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	writeImage(t, root, "a.jpg", "alpha", time.Time{})

	first, second := &recordingReporter{}, &recordingReporter{}
	store := database.NewMemoryStore()
	idx := newIndexer(t, store, root, func(o *Options) {
		o.Reporter = MultiReporter{first, nil, second}
	})

	sum, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	for _, rec := range []*recordingReporter{first, second} {
		if rec.finished != 1 || rec.finishErr != nil {
			t.Errorf("RunFinished called %d times with %v", rec.finished, rec.finishErr)
		}
		if len(rec.modes) != 1 || rec.modes[0] != ModeCreate {
			t.Errorf("Expected one RunStarted in create mode, got %v", rec.modes)
		}
		for _, id := range rec.runIDs {
			if id != sum.RunID {
				t.Errorf("event carried run ID %s, want %s", id, sum.RunID)
			}
		}
		wantPhases := []Phase{PhaseScan, PhaseAdd, PhaseDedup}
		if len(rec.phases) != len(wantPhases) {
			t.Fatalf("phases = %v, want %v", rec.phases, wantPhases)
		}
		for i, p := range wantPhases {
			if rec.phases[i] != p {
				t.Errorf("phase %d = %s, want %s", i, rec.phases[i], p)
			}
		}
		if rec.summary.Rows != 1 {
			t.Errorf("final summary rows = %d, want 1", rec.summary.Rows)
		}
	}

	sum2, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if sum2.RunID == sum.RunID {
		t.Error("Expected a new run ID for each run")
	}
	if first.phases[len(first.phases)-1] != PhaseDedup {
		t.Errorf("Expected dedup to be the last phase, got %v", first.phases)
	}
}

func TestRunFinishedReportsFailure(t *testing.T) {
	t.Parallel()

	rec := &recordingReporter{}
	idx := newIndexer(t, database.NewMemoryStore(), "/does/not/exist", func(o *Options) { o.Reporter = rec })

	_, err := idx.Sync(context.Background())
	if !errors.Is(rec.finishErr, database.ErrNotFound) || !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected ErrNotFound to reach the reporter, got %v", rec.finishErr)
	}
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	closer, err := logging.Setup(logging.Options{Level: "debug", Console: &buf, NoColor: true})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer closer.Close()
	defer func() {
		if _, err := logging.Setup(logging.Options{Level: "info"}); err != nil {
			t.Errorf("restore logging: %v", err)
		}
	}()

	var r LogReporter
	r.RunStarted("run-1", ModeUpdate, "images")
	r.FileSkipped("run-1", "/x.jpg", errors.New("permission denied"))
	r.Warning("run-1", "schema mismatch")
	r.RunFinished(Summary{RunID: "run-1", Mode: ModeUpdate, Added: 1234, Rows: 5}, nil)

	out := buf.String()
	for _, want := range []string{
		"Starting update of table images (run run-1)",
		"skipping /x.jpg: permission denied",
		"schema mismatch",
		"added=1,234",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSummaryString(t *testing.T) {
	s := Summary{Mode: ModeCreate, Scanned: 1500, Added: 1500, Rows: -1}

	got := s.String()
	if !strings.Contains(got, "scanned=1,500") || !strings.Contains(got, "rows=?") {
		t.Errorf("String() = %q", got)
	}
	if !s.Changed() {
		t.Error("Expected a create run to count as changed")
	}
}
