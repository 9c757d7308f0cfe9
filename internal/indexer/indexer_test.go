package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"image-index/internal/database"
	"image-index/internal/dedup"
	"image-index/internal/fingerprint"
	"image-index/internal/scanner"
)

const testTable = "images"

func tempRoot(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks failed: %v", err)
	}
	return dir
}

func writeImage(t *testing.T, root, rel, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("Chtimes failed: %v", err)
		}
	}
	return path
}

func newIndexer(t *testing.T, store database.Store, root string, mutate ...func(*Options)) *Indexer {
	t.Helper()
	opts := Options{Table: testTable, Root: root}
	for _, m := range mutate {
		m(&opts)
	}
	idx, err := New(store, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return idx
}

func readRows(t *testing.T, store database.Store) []database.ImageRecord {
	t.Helper()
	table, err := store.Open(context.Background(), testTable)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	rows, err := table.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return rows
}

// checkInvariants verifies path and content uniqueness and that the rows
// match the eligible files on disk exactly.
func checkInvariants(t *testing.T, store database.Store, wantURIs ...string) {
	t.Helper()
	rows := readRows(t, store)

	uris := make(map[string]bool)
	hashes := make(map[string]bool)
	for _, r := range rows {
		if uris[r.URI] {
			t.Errorf("URI %s stored twice", r.URI)
		}
		if hashes[r.ContentHash] {
			t.Errorf("content hash %s stored twice", r.ContentHash)
		}
		uris[r.URI] = true
		hashes[r.ContentHash] = true
	}

	if len(rows) != len(wantURIs) {
		t.Errorf("Expected %d rows, got %d", len(wantURIs), len(rows))
	}
	for _, uri := range wantURIs {
		if !uris[uri] {
			t.Errorf("Expected row for %s", uri)
		}
	}
}

func TestSyncCreatesTable(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	a := writeImage(t, root, "a.jpg", "alpha", time.Time{})
	b := writeImage(t, root, "sub/b.jpg", "bravo", time.Time{})
	c := writeImage(t, root, "sub/deep/c.jpg", "charlie", time.Time{})
	writeImage(t, root, "ignored.png", "png", time.Time{})

	store := database.NewMemoryStore()
	sum, err := newIndexer(t, store, root).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if sum.Mode != ModeCreate {
		t.Errorf("Mode = %s, want %s", sum.Mode, ModeCreate)
	}
	if sum.Scanned != 3 || sum.Added != 3 || sum.Removed != 0 || sum.Rows != 3 {
		t.Errorf("unexpected summary: %s", sum)
	}
	if sum.RunID == "" {
		t.Error("Expected a run ID")
	}
	checkInvariants(t, store, a, b, c)
}

func TestSyncEmptyRootCreatesEmptyTable(t *testing.T) {
	t.Parallel()

	store := database.NewMemoryStore()
	sum, err := newIndexer(t, store, tempRoot(t)).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if sum.Rows != 0 || sum.Mode != ModeCreate {
		t.Errorf("unexpected summary: %s", sum)
	}

	exists, _ := store.Exists(context.Background(), testTable)
	if !exists {
		t.Error("Expected the table to exist")
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	a := writeImage(t, root, "a.jpg", "alpha", time.Time{})
	b := writeImage(t, root, "b.jpg", "bravo", time.Time{})

	store := database.NewMemoryStore()
	idx := newIndexer(t, store, root)

	if _, err := idx.Sync(context.Background()); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	sum, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}

	if sum.Mode != ModeUpdate {
		t.Errorf("Mode = %s, want %s", sum.Mode, ModeUpdate)
	}
	if sum.Added != 0 || sum.Removed != 0 || sum.Deduplicated != 0 {
		t.Errorf("Expected no changes on second run, got %s", sum)
	}
	if sum.Unchanged != 2 {
		t.Errorf("Unchanged = %d, want 2", sum.Unchanged)
	}
	if sum.Changed() {
		t.Error("Changed() = true for a no-op run")
	}
	checkInvariants(t, store, a, b)
}

func TestSyncContentChanged(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	x := writeImage(t, root, "x.jpg", "H1", time.Time{})

	store := database.NewMemoryStore()
	idx := newIndexer(t, store, root)
	if _, err := idx.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	before := readRows(t, store)[0].ContentHash

	writeImage(t, root, "x.jpg", "H2", time.Time{})
	sum, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if sum.Removed != 1 || sum.Added != 1 || sum.Updated != 1 || sum.Rows != 1 {
		t.Errorf("unexpected summary: %s", sum)
	}
	after := readRows(t, store)
	if after[0].URI != x || after[0].ContentHash == before {
		t.Errorf("Expected %s with a new hash, got %+v", x, after[0])
	}
}

func TestSyncFileDeleted(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	keep := writeImage(t, root, "keep.jpg", "k", time.Time{})
	y := writeImage(t, root, "y.jpg", "y", time.Time{})

	store := database.NewMemoryStore()
	idx := newIndexer(t, store, root)
	if _, err := idx.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if err := os.Remove(y); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	sum, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if sum.Removed != 1 || sum.Added != 0 {
		t.Errorf("unexpected summary: %s", sum)
	}
	checkInvariants(t, store, keep)
}

func TestSyncForceRebuild(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	a := writeImage(t, root, "a.jpg", "alpha", time.Time{})

	store := database.NewMemoryStore()
	_, err := store.Create(context.Background(), testTable, []database.ImageRecord{
		{URI: "/elsewhere/old.jpg", ContentHash: "stale", ModifiedAt: time.Unix(1, 0)},
		{URI: a, ContentHash: "stale-too", ModifiedAt: time.Unix(1, 0)},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sum, err := newIndexer(t, store, root, func(o *Options) { o.Force = true }).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if sum.Mode != ModeRebuild || sum.Added != 1 || sum.Rows != 1 {
		t.Errorf("unexpected summary: %s", sum)
	}
	checkInvariants(t, store, a)
	if rows := readRows(t, store); rows[0].ContentHash == "stale-too" {
		t.Error("Expected the rebuilt row to carry the current hash")
	}
}

func TestSyncDeduplicatesContent(t *testing.T) {
	t.Parallel()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	tests := []struct {
		name   string
		policy dedup.Policy
		want   string
	}{
		{name: "newest wins", policy: dedup.KeepNewest, want: "b.jpg"},
		{name: "oldest wins", policy: dedup.KeepOldest, want: "a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := tempRoot(t)
			writeImage(t, root, "a.jpg", "same bytes", older)
			writeImage(t, root, "b.jpg", "same bytes", newer)
			other := writeImage(t, root, "c.jpg", "other", older)

			store := database.NewMemoryStore()
			idx := newIndexer(t, store, root, func(o *Options) { o.KeepPolicy = tt.policy })
			sum, err := idx.Sync(context.Background())
			if err != nil {
				t.Fatalf("Sync() error = %v", err)
			}

			if sum.Duplicates != 1 || sum.Added != 2 || sum.Rows != 2 {
				t.Errorf("unexpected summary: %s", sum)
			}
			checkInvariants(t, store, filepath.Join(root, tt.want), other)

			// The duplicate is still on disk; the next run must not touch the table.
			sum, err = idx.Sync(context.Background())
			if err != nil {
				t.Fatalf("Sync() error = %v", err)
			}
			if sum.Added != 0 || sum.Removed != 0 || sum.Deduplicated != 0 || sum.Duplicates != 1 {
				t.Errorf("Expected no changes on second run, got %s", sum)
			}
			checkInvariants(t, store, filepath.Join(root, tt.want), other)
		})
	}
}

func TestSyncNewerCopyReplacesStoredRow(t *testing.T) {
	t.Parallel()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	root := tempRoot(t)
	writeImage(t, root, "a.jpg", "same bytes", older)

	store := database.NewMemoryStore()
	idx := newIndexer(t, store, root)
	if _, err := idx.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	b := writeImage(t, root, "b.jpg", "same bytes", older.Add(time.Hour))
	sum, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if sum.Added != 1 || sum.Deduplicated != 1 || sum.Rows != 1 {
		t.Errorf("unexpected summary: %s", sum)
	}
	checkInvariants(t, store, b)

	sum, err = idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if sum.Added != 0 || sum.Removed != 0 || sum.Deduplicated != 0 {
		t.Errorf("Expected no changes on third run, got %s", sum)
	}
}

func TestSyncMissingRoot(t *testing.T) {
	t.Parallel()

	store := database.NewMemoryStore()
	idx := newIndexer(t, store, filepath.Join(t.TempDir(), "missing"))

	sum, err := idx.Sync(context.Background())
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("Sync() error = %v, want ErrNotFound", err)
	}
	if sum.Added != 0 || sum.Rows != -1 {
		t.Errorf("unexpected summary: %s", sum)
	}
	if exists, _ := store.Exists(context.Background(), testTable); exists {
		t.Error("Expected no table to be created")
	}
}

func TestSyncMissingRootKeepsTableOnForce(t *testing.T) {
	t.Parallel()

	store := database.NewMemoryStore()
	if _, err := store.Create(context.Background(), testTable, []database.ImageRecord{{URI: "/a.jpg", ContentHash: "h"}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	idx := newIndexer(t, store, filepath.Join(t.TempDir(), "missing"), func(o *Options) { o.Force = true })
	if _, err := idx.Sync(context.Background()); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("Sync() error = %v, want ErrNotFound", err)
	}
	if rows := readRows(t, store); len(rows) != 1 {
		t.Errorf("Expected the existing table to survive a failed scan, got %d rows", len(rows))
	}
}

// flakyHasher fails with an IO error for one file name.
type flakyHasher struct {
	fail string
	next scanner.Hasher
}

func (h *flakyHasher) Record(path string) (database.ImageRecord, error) {
	if filepath.Base(path) == h.fail {
		return database.ImageRecord{}, fmt.Errorf("%w: permission denied", database.ErrIO)
	}
	return h.next.Record(path)
}

func TestSyncSkipsUnreadableFiles(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	a := writeImage(t, root, "a.jpg", "alpha", time.Time{})
	b := writeImage(t, root, "b.jpg", "bravo", time.Time{})

	store := database.NewMemoryStore()
	if _, err := newIndexer(t, store, root).Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	rec := &recordingReporter{}
	idx := newIndexer(t, store, root, func(o *Options) {
		o.Scanner.Hasher = &flakyHasher{fail: "b.jpg", next: fingerprint.New(fingerprint.SHA256)}
		o.Reporter = rec
	})
	sum, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if sum.Skipped != 1 || sum.Removed != 0 || sum.Scanned != 1 {
		t.Errorf("unexpected summary: %s", sum)
	}
	checkInvariants(t, store, a, b)

	if len(rec.skipped) != 1 || rec.skipped[0] != b {
		t.Errorf("Expected %s to be reported as skipped, got %v", b, rec.skipped)
	}
}

// faultStore wraps a store and injects failures.
type faultStore struct {
	database.Store
	openErr      error
	failAppendAt int
	appends      int
}

func (s *faultStore) Open(ctx context.Context, name string) (database.Table, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	t, err := s.Store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &faultTable{Table: t, store: s}, nil
}

func (s *faultStore) Create(ctx context.Context, name string, records []database.ImageRecord) (database.Table, error) {
	t, err := s.Store.Create(ctx, name, records)
	if err != nil {
		return nil, err
	}
	return &faultTable{Table: t, store: s}, nil
}

type faultTable struct {
	database.Table
	store *faultStore
}

func (t *faultTable) Append(ctx context.Context, records []database.ImageRecord) error {
	t.store.appends++
	if t.store.failAppendAt > 0 && t.store.appends >= t.store.failAppendAt {
		return fmt.Errorf("%w: disk full", database.ErrStore)
	}
	return t.Table.Append(ctx, records)
}

func TestSyncStoreFailureReportsPartialProgress(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	for i := range 5 {
		writeImage(t, root, fmt.Sprintf("%d.jpg", i), fmt.Sprint("content-", i), time.Time{})
	}

	store := &faultStore{Store: database.NewMemoryStore(), failAppendAt: 2}
	idx := newIndexer(t, store, root, func(o *Options) { o.BatchSize = 2 })

	sum, err := idx.Sync(context.Background())
	if !errors.Is(err, database.ErrStore) {
		t.Fatalf("Sync() error = %v, want ErrStore", err)
	}
	if sum.Added != 2 {
		t.Errorf("Added = %d, want 2 (the first batch)", sum.Added)
	}
	if rows := readRows(t, store.Store); len(rows) != 2 {
		t.Errorf("Expected the applied batch to remain, got %d rows", len(rows))
	}

	// A retry converges.
	store.failAppendAt = 0
	sum, err = idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("retry Sync() error = %v", err)
	}
	if sum.Added != 3 || sum.Rows != 5 {
		t.Errorf("unexpected retry summary: %s", sum)
	}
}

func TestSyncSchemaMismatchIsWarning(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	writeImage(t, root, "a.jpg", "alpha", time.Time{})

	inner := database.NewMemoryStore()
	if _, err := inner.Create(context.Background(), testTable, nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	store := &faultStore{Store: inner, openErr: fmt.Errorf("%w: missing column uri", database.ErrSchema)}

	rec := &recordingReporter{}
	idx := newIndexer(t, store, root, func(o *Options) { o.Reporter = rec })
	sum, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if !sum.SchemaMismatch || sum.Added != 0 {
		t.Errorf("unexpected summary: %s (schemaMismatch=%v)", sum, sum.SchemaMismatch)
	}
	if len(rec.warnings) != 1 {
		t.Errorf("Expected 1 warning, got %v", rec.warnings)
	}

	dsum, err := idx.Deduplicate(context.Background())
	if err != nil || !dsum.SchemaMismatch {
		t.Errorf("Deduplicate() = %v, %v; want schema mismatch and no error", dsum, err)
	}

	st, err := idx.Status(context.Background())
	if err != nil || st.SchemaError == "" {
		t.Errorf("Status() = %+v, %v; want a schema error", st, err)
	}
}

// cancelOn cancels a context when a phase finishes.
type cancelOn struct {
	recordingReporter
	phase  Phase
	cancel context.CancelFunc
}

func (c *cancelOn) PhaseFinished(runID string, phase Phase, d time.Duration, items int) {
	c.recordingReporter.PhaseFinished(runID, phase, d, items)
	if phase == c.phase {
		c.cancel()
	}
}

func TestSyncCancelsBetweenBatches(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	keep := writeImage(t, root, "keep.jpg", "k", time.Time{})
	gone := writeImage(t, root, "gone.jpg", "g", time.Time{})

	store := database.NewMemoryStore()
	if _, err := newIndexer(t, store, root).Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := os.Remove(gone); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	writeImage(t, root, "new.jpg", "n", time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rep := &cancelOn{phase: PhaseRemove, cancel: cancel}

	sum, err := newIndexer(t, store, root, func(o *Options) { o.Reporter = rep }).Sync(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Sync() error = %v, want context.Canceled", err)
	}
	if sum.Removed != 1 || sum.Added != 0 {
		t.Errorf("Expected the removal applied and no adds, got %s", sum)
	}
	checkInvariants(t, store, keep)

	if rep.finished != 1 || !errors.Is(rep.finishErr, context.Canceled) {
		t.Errorf("Expected RunFinished once with context.Canceled, got %d calls, err %v", rep.finished, rep.finishErr)
	}
}

func TestSyncLocked(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	lockPath := filepath.Join(t.TempDir(), "index.lock")

	held := flock.New(lockPath)
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock() = %v, %v", locked, err)
	}

	store := database.NewMemoryStore()
	idx := newIndexer(t, store, root, func(o *Options) { o.LockPath = lockPath })

	if _, err := idx.Sync(context.Background()); !errors.Is(err, ErrLocked) {
		t.Errorf("Sync() error = %v, want ErrLocked", err)
	}
	if _, err := idx.Deduplicate(context.Background()); !errors.Is(err, ErrLocked) {
		t.Errorf("Deduplicate() error = %v, want ErrLocked", err)
	}

	if err := held.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if _, err := idx.Sync(context.Background()); err != nil {
		t.Errorf("Sync() after unlock error = %v", err)
	}
}

func TestDeduplicateAndStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := database.NewMemoryStore()
	idx := newIndexer(t, store, tempRoot(t))

	st, err := idx.Status(ctx)
	if err != nil || st.Exists {
		t.Fatalf("Status() = %+v, %v; want missing table", st, err)
	}
	if _, err := idx.Deduplicate(ctx); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Deduplicate() error = %v, want ErrNotFound", err)
	}

	_, err = store.Create(ctx, testTable, []database.ImageRecord{
		{URI: "/A.jpg", ContentHash: "H1", ModifiedAt: time.Unix(100, 0)},
		{URI: "/B.jpg", ContentHash: "H1", ModifiedAt: time.Unix(200, 0)},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	sum, err := idx.Deduplicate(ctx)
	if err != nil {
		t.Fatalf("Deduplicate() error = %v", err)
	}
	if sum.Deduplicated != 1 || sum.Rows != 1 || sum.Mode != ModeDedup {
		t.Errorf("unexpected summary: %s", sum)
	}
	if rows := readRows(t, store); rows[0].URI != "/B.jpg" {
		t.Errorf("Expected /B.jpg to survive, got %s", rows[0].URI)
	}

	sum, err = idx.Deduplicate(ctx)
	if err != nil || sum.Deduplicated != 0 {
		t.Errorf("second Deduplicate() = %s, %v; want nothing deleted", sum, err)
	}

	st, err = idx.Status(ctx)
	if err != nil || !st.Exists || st.Rows != 1 {
		t.Errorf("Status() = %+v, %v", st, err)
	}
}

func TestSyncWithSQLiteStore(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	a := writeImage(t, root, "a.jpg", "alpha", time.Time{})
	b := writeImage(t, root, "it's \"quoted\".jpg", "bravo", time.Time{})

	store, err := database.Connect(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer store.Close()

	idx := newIndexer(t, store, root, func(o *Options) { o.Scanner.Workers = 2 })
	if _, err := idx.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	checkInvariants(t, store, a, b)

	if err := os.Remove(b); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	sum, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if sum.Removed != 1 {
		t.Errorf("Removed = %d, want 1", sum.Removed)
	}
	checkInvariants(t, store, a)
}

func TestSyncRemovesLargeBatchFromSQLite(t *testing.T) {
	t.Parallel()

	const files = 1200
	root := tempRoot(t)
	for i := range files {
		writeImage(t, root, fmt.Sprintf("d/%04d.jpg", i), fmt.Sprintf("content-%d", i), time.Time{})
	}

	store, err := database.Connect(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer store.Close()

	idx := newIndexer(t, store, root, func(o *Options) { o.BatchSize = 10000 })
	if _, err := idx.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if err := os.RemoveAll(filepath.Join(root, "d")); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	sum, err := idx.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if sum.Removed != files {
		t.Errorf("Removed = %d, want %d", sum.Removed, files)
	}
	checkInvariants(t, store)
}

func TestNewValidatesOptions(t *testing.T) {
	store := database.NewMemoryStore()

	if _, err := New(nil, Options{Table: testTable, Root: "."}); !errors.Is(err, database.ErrStore) {
		t.Errorf("New(nil store) error = %v, want ErrStore", err)
	}
	if _, err := New(store, Options{Table: "bad-name", Root: "."}); !errors.Is(err, database.ErrInvalidName) {
		t.Errorf("New(bad table) error = %v, want ErrInvalidName", err)
	}
	if _, err := New(store, Options{Table: testTable, Root: ".", Scanner: scanner.Options{Exclude: []string{"[x"}}}); err == nil {
		t.Error("New(bad exclude) expected error")
	}

	idx, err := New(store, Options{Table: testTable})
	if err != nil {
		t.Fatalf("New(empty root) error = %v", err)
	}
	if _, err := idx.Sync(context.Background()); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Sync() without root error = %v, want ErrNotFound", err)
	}
	if _, err := idx.Status(context.Background()); err != nil {
		t.Errorf("Status() without root error = %v", err)
	}
}

func TestRunPeriodic(t *testing.T) {
	t.Parallel()

	root := tempRoot(t)
	writeImage(t, root, "a.jpg", "alpha", time.Time{})

	idx := newIndexer(t, database.NewMemoryStore(), root)

	if err := idx.RunPeriodic(context.Background(), 0, nil); err == nil {
		t.Error("Expected error for zero interval")
	}

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var modes []Mode

	err := idx.RunPeriodic(ctx, 10*time.Millisecond, func(s Summary, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			t.Errorf("periodic run error = %v", err)
		}
		modes = append(modes, s.Mode)
		if len(modes) == 2 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("RunPeriodic() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(modes) < 2 || modes[0] != ModeCreate || modes[1] != ModeUpdate {
		t.Errorf("Expected create then update, got %v", modes)
	}
}
