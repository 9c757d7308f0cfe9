package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"image-index/internal/database"
	"image-index/internal/dedup"
	"image-index/internal/logging"
	"image-index/internal/reconcile"
	"image-index/internal/scanner"
)

const (
	// Number of records per store call
	defaultBatchSize = 500
)

// ErrLocked is returned when another run holds the lock file.
var ErrLocked = errors.New("index is locked by another run")

// Options configures an Indexer.
type Options struct {
	// Table is the target table name.
	Table string
	// Root is the directory tree to index.
	Root string
	// Force drops an existing table and rebuilds it from disk.
	Force bool
	// KeepPolicy picks the survivor among rows with equal content (default newest).
	KeepPolicy dedup.Policy
	// BatchSize is the number of records per Append or DeleteWhere call.
	BatchSize int
	// Scanner configures eligibility, exclusion and the fingerprint pool.
	Scanner scanner.Options
	// Reporter receives run events. Nil discards them.
	Reporter Reporter
	// LockPath, when set, is held with an exclusive file lock for each run.
	LockPath string
}

// Indexer synchronizes one table with one directory tree.
type Indexer struct {
	store   database.Store
	opts    Options
	scanner *scanner.Scanner
	report  Reporter
}

// New validates the options and returns an Indexer writing to store.
func New(store database.Store, opts Options) (*Indexer, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", database.ErrStore)
	}
	if err := database.ValidateTableName(opts.Table); err != nil {
		return nil, err
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.KeepPolicy == "" {
		opts.KeepPolicy = dedup.KeepNewest
	}

	// Without a root the Indexer can still deduplicate and report status.
	var sc *scanner.Scanner
	if opts.Root != "" {
		var err error
		sc, err = scanner.New(opts.Root, opts.Scanner)
		if err != nil {
			return nil, err
		}
	}

	report := opts.Reporter
	if report == nil {
		report = nopReporter{}
	}

	return &Indexer{
		store:   store,
		opts:    opts,
		scanner: sc,
		report:  report,
	}, nil
}

// lock takes the run lock, if configured. The returned func releases it.
func (idx *Indexer) lock() (func(), error) {
	if idx.opts.LockPath == "" {
		return func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(idx.opts.LockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(idx.opts.LockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", idx.opts.LockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, idx.opts.LockPath)
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			logging.Warn("Failed to release lock %s: %v", idx.opts.LockPath, err)
		}
	}, nil
}

// Sync runs one synchronization pass: create the table if it is absent (or
// rebuild it when Force is set), otherwise reconcile it with the current
// disk contents, then deduplicate. The returned Summary is valid even when
// err is non-nil and reflects the operations already applied.
func (idx *Indexer) Sync(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{
		RunID: uuid.NewString(),
		Table: idx.opts.Table,
		Rows:  -1,
	}

	unlock, err := idx.lock()
	if err != nil {
		return sum, err
	}
	defer unlock()

	err = idx.sync(ctx, &sum)
	sum.Duration = time.Since(start)
	idx.report.RunFinished(sum, err)
	return sum, err
}

func (idx *Indexer) sync(ctx context.Context, sum *Summary) error {
	name := idx.opts.Table

	exists, err := idx.store.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("check table %s: %w", name, err)
	}

	switch {
	case idx.opts.Force && exists:
		sum.Mode = ModeRebuild
	case !exists:
		sum.Mode = ModeCreate
	default:
		sum.Mode = ModeUpdate
	}
	idx.report.RunStarted(sum.RunID, sum.Mode, name)

	snap, err := idx.scan(ctx, sum)
	if err != nil {
		return err
	}

	var table database.Table
	if sum.Mode == ModeUpdate {
		table, err = idx.incrementalUpdate(ctx, sum, snap)
	} else {
		table, err = idx.createFresh(ctx, sum, snap)
	}
	if err != nil || table == nil {
		return err
	}

	if err := idx.dedup(ctx, sum, table); err != nil {
		return err
	}

	count, err := table.Count(ctx)
	if err != nil {
		return fmt.Errorf("count rows in %s: %w", name, err)
	}
	sum.Rows = count
	return nil
}

// scan builds the snapshot and reports every skipped path.
func (idx *Indexer) scan(ctx context.Context, sum *Summary) (*scanner.Snapshot, error) {
	if idx.scanner == nil {
		return nil, fmt.Errorf("%w: no root directory configured", database.ErrNotFound)
	}

	start := time.Now()
	snap, err := idx.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", idx.scanner.Root(), err)
	}

	sum.Scanned = snap.Len()
	sum.Skipped = len(snap.Skipped)
	for _, uri := range snap.SkippedURIs() {
		idx.report.FileSkipped(sum.RunID, uri, snap.Skipped[uri])
	}
	idx.report.PhaseFinished(sum.RunID, PhaseScan, time.Since(start), snap.Len())
	return snap, nil
}

// createFresh drops the table when rebuilding, creates it empty and
// inserts every scanned record.
func (idx *Indexer) createFresh(ctx context.Context, sum *Summary, snap *scanner.Snapshot) (database.Table, error) {
	name := idx.opts.Table

	if sum.Mode == ModeRebuild {
		logging.Info("Force rebuild requested, dropping table %s", name)
		if err := idx.store.Drop(ctx, name); err != nil {
			return nil, fmt.Errorf("drop table %s: %w", name, err)
		}
	}

	table, err := idx.store.Create(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("create table %s: %w", name, err)
	}

	records := idx.withoutDuplicates(sum, nil, snap.Sorted())
	if err := idx.addRecords(ctx, sum, table, records); err != nil {
		return nil, err
	}
	return table, nil
}

// incrementalUpdate reconciles an existing table with the snapshot. A table
// with the wrong columns is reported and left alone; the returned table is
// nil in that case.
func (idx *Indexer) incrementalUpdate(ctx context.Context, sum *Summary, snap *scanner.Snapshot) (database.Table, error) {
	name := idx.opts.Table

	table, err := idx.openTable(ctx, sum)
	if err != nil || table == nil {
		return nil, err
	}

	start := time.Now()
	stored, err := table.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	idx.report.PhaseFinished(sum.RunID, PhaseRead, time.Since(start), len(stored))

	start = time.Now()
	plan := reconcile.Diff(snap, stored)
	sum.Unchanged = len(plan.Unchanged)
	sum.Updated = plan.Replaced()
	idx.report.PhaseFinished(sum.RunID, PhaseReconcile, time.Since(start), len(plan.ToAdd)+len(plan.ToRemove))

	if !plan.HasChanges() {
		logging.Debug("Table %s is up to date with %s", name, idx.scanner.Root())
	}
	if len(plan.Kept) > 0 {
		logging.Debug("Keeping %d rows for paths that could not be read", len(plan.Kept))
	}

	removeURIs := plan.RemoveURIs()
	removed := make(map[string]struct{}, len(removeURIs))
	for _, uri := range removeURIs {
		removed[uri] = struct{}{}
	}
	remaining := make([]database.ImageRecord, 0, len(stored))
	for _, r := range stored {
		if _, ok := removed[r.URI]; !ok {
			remaining = append(remaining, r)
		}
	}
	toAdd := idx.withoutDuplicates(sum, remaining, plan.ToAdd)

	// Every removal precedes every add so a URI is never stored twice.
	if err := idx.removeURIs(ctx, sum, table, removeURIs); err != nil {
		return nil, err
	}
	if err := idx.addRecords(ctx, sum, table, toAdd); err != nil {
		return nil, err
	}
	return table, nil
}

// withoutDuplicates drops candidates that would lose deduplication against
// the rows that stay in the table or against each other. Stored rows that
// lose to a candidate are left for the dedup pass.
func (idx *Indexer) withoutDuplicates(sum *Summary, remaining, candidates []database.ImageRecord) []database.ImageRecord {
	if len(candidates) == 0 {
		return candidates
	}

	all := make([]database.ImageRecord, 0, len(remaining)+len(candidates))
	all = append(all, remaining...)
	all = append(all, candidates...)

	res := dedup.Plan(all, idx.opts.KeepPolicy)
	if len(res.Duplicates) == 0 {
		return candidates
	}

	losers := make(map[string]struct{}, len(res.Duplicates))
	for _, r := range res.Duplicates {
		losers[r.URI] = struct{}{}
	}

	kept := make([]database.ImageRecord, 0, len(candidates))
	for _, r := range candidates {
		if _, ok := losers[r.URI]; ok {
			sum.Duplicates++
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// openTable opens the target table. A schema mismatch is reported as a
// warning and yields a nil table and nil error.
func (idx *Indexer) openTable(ctx context.Context, sum *Summary) (database.Table, error) {
	name := idx.opts.Table

	table, err := idx.store.Open(ctx, name)
	if errors.Is(err, database.ErrSchema) {
		sum.SchemaMismatch = true
		idx.report.Warning(sum.RunID, fmt.Sprintf("table %s has an unexpected schema, leaving it untouched: %v", name, err))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", name, err)
	}
	return table, nil
}

// removeURIs deletes rows by URI in batches. ctx is checked between batches.
func (idx *Indexer) removeURIs(ctx context.Context, sum *Summary, table database.Table, uris []string) error {
	if len(uris) == 0 {
		return nil
	}

	start := time.Now()
	for i := 0; i < len(uris); i += idx.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+idx.opts.BatchSize, len(uris))
		n, err := table.DeleteWhere(ctx, database.URIIn(uris[i:end]...))
		sum.Removed += int(n)
		if err != nil {
			return fmt.Errorf("remove rows from %s: %w", table.Name(), err)
		}
	}

	idx.report.PhaseFinished(sum.RunID, PhaseRemove, time.Since(start), sum.Removed)
	return nil
}

// addRecords appends records in batches. ctx is checked between batches.
func (idx *Indexer) addRecords(ctx context.Context, sum *Summary, table database.Table, records []database.ImageRecord) error {
	start := time.Now()
	total := len(records)

	for i := 0; i < total; i += idx.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+idx.opts.BatchSize, total)
		if err := table.Append(ctx, records[i:end]); err != nil {
			return fmt.Errorf("add rows to %s: %w", table.Name(), err)
		}
		sum.Added += end - i

		if (i+idx.opts.BatchSize)%5000 == 0 || end == total {
			logging.Debug("Insert progress: %d/%d records", end, total)
		}
	}

	idx.report.PhaseFinished(sum.RunID, PhaseAdd, time.Since(start), total)
	return nil
}

// dedup removes rows whose content is already stored under another URI.
func (idx *Indexer) dedup(ctx context.Context, sum *Summary, table database.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	n, err := dedup.Apply(ctx, table, idx.opts.KeepPolicy, idx.opts.BatchSize)
	sum.Deduplicated += n
	if err != nil {
		return err
	}
	idx.report.PhaseFinished(sum.RunID, PhaseDedup, time.Since(start), n)
	return nil
}

// Deduplicate runs only the deduplication pass against the existing table.
// A missing table is database.ErrNotFound.
func (idx *Indexer) Deduplicate(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{
		RunID: uuid.NewString(),
		Table: idx.opts.Table,
		Mode:  ModeDedup,
		Rows:  -1,
	}

	unlock, err := idx.lock()
	if err != nil {
		return sum, err
	}
	defer unlock()

	err = func() error {
		idx.report.RunStarted(sum.RunID, sum.Mode, sum.Table)

		table, err := idx.openTable(ctx, &sum)
		if err != nil || table == nil {
			return err
		}
		if err := idx.dedup(ctx, &sum, table); err != nil {
			return err
		}
		count, err := table.Count(ctx)
		if err != nil {
			return fmt.Errorf("count rows in %s: %w", sum.Table, err)
		}
		sum.Rows = count
		return nil
	}()

	sum.Duration = time.Since(start)
	idx.report.RunFinished(sum, err)
	return sum, err
}

// Status describes the target table.
type Status struct {
	Table  string `json:"table"`
	Exists bool   `json:"exists"`
	Rows   int    `json:"rows"`
	// SchemaError is set when the table exists with unexpected columns.
	SchemaError string `json:"schemaError,omitempty"`
}

// Status reports whether the table exists and how many rows it holds.
func (idx *Indexer) Status(ctx context.Context) (Status, error) {
	st := Status{Table: idx.opts.Table}

	exists, err := idx.store.Exists(ctx, st.Table)
	if err != nil {
		return st, fmt.Errorf("check table %s: %w", st.Table, err)
	}
	st.Exists = exists
	if !exists {
		return st, nil
	}

	table, err := idx.store.Open(ctx, st.Table)
	if errors.Is(err, database.ErrSchema) {
		st.SchemaError = err.Error()
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("open table %s: %w", st.Table, err)
	}

	st.Rows, err = table.Count(ctx)
	if err != nil {
		return st, fmt.Errorf("count rows in %s: %w", st.Table, err)
	}
	return st, nil
}

// RunPeriodic calls Sync immediately and then every interval until ctx is
// done. Failed runs are logged and retried on the next tick. onResult, if
// non-nil, is called after every run.
func (idx *Indexer) RunPeriodic(ctx context.Context, interval time.Duration, onResult func(Summary, error)) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}

	run := func() {
		sum, err := idx.Sync(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("Periodic sync failed: %v", err)
		}
		if onResult != nil {
			onResult(sum, err)
		}
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic sync triggered")
			run()
		case <-ctx.Done():
			logging.Info("Periodic sync stopped")
			return nil
		}
	}
}
