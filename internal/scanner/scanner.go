package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"image-index/internal/database"
	"image-index/internal/filesystem"
	"image-index/internal/fingerprint"
	"image-index/internal/logging"
	"image-index/internal/mediatypes"
	"image-index/internal/workers"
)

// maxWorkers caps the fingerprinting pool.
const maxWorkers = 32

// Hasher turns an eligible file path into an index record.
type Hasher interface {
	Record(path string) (database.ImageRecord, error)
}

// Options configures a Scanner.
type Options struct {
	// Matcher selects eligible files. Nil accepts ".jpg" only.
	Matcher *mediatypes.Matcher
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the root. A matching directory is not descended.
	Exclude []string
	// Workers is the fingerprinting pool size (0 = workers.ForIO).
	Workers int
	// Hasher fingerprints files. Nil uses a SHA256 fingerprint.Fingerprinter.
	Hasher Hasher
}

// Scanner walks one root directory.
type Scanner struct {
	root    string
	opts    Options
	matcher *mediatypes.Matcher
	hasher  Hasher
}

// New validates the options and returns a scanner for root. The root itself
// is checked when scanning starts.
func New(root string, opts Options) (*Scanner, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty root directory", database.ErrNotFound)
	}

	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	s := &Scanner{
		root:    root,
		opts:    opts,
		matcher: opts.Matcher,
		hasher:  opts.Hasher,
	}
	if s.matcher == nil {
		s.matcher = mediatypes.MustMatcher(nil, true)
	}
	if s.hasher == nil {
		s.hasher = fingerprint.New(fingerprint.SHA256)
	}
	return s, nil
}

// Root returns the root as given to New.
func (s *Scanner) Root() string {
	return s.root
}

// resolveRoot returns the absolute, symlink-free root. A missing root or a
// root that is not a directory is ErrNotFound.
func (s *Scanner) resolveRoot() (string, error) {
	abs, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("%w: resolve root %s: %w", database.ErrNotFound, s.root, err)
	}

	info, err := filesystem.StatWithRetry(abs, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: root directory %s", database.ErrNotFound, abs)
		}
		return "", fmt.Errorf("%w: stat root %s: %w", database.ErrIO, abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: root %s is not a directory", database.ErrNotFound, abs)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: resolve root %s: %w", database.ErrIO, abs, err)
	}
	return resolved, nil
}

// entry is one walked path: an eligible file, or a directory that could not
// be read (err set).
type entry struct {
	path string
	err  error
}

// walkEntries visits every eligible regular file under root. Symlinks,
// devices, sockets and pipes are skipped silently. Unreadable directories
// are passed to visit with an error and not descended. Returning false from
// visit stops the walk.
func (s *Scanner) walkEntries(ctx context.Context, root string, visit func(entry) bool) error {
	stopped := false
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root {
				return fmt.Errorf("%w: read root %s: %w", database.ErrIO, root, err)
			}
			logging.Warn("Error accessing path %s: %v", path, err)
			if !visit(entry{path: path, err: fmt.Errorf("%w: %w", database.ErrIO, err)}) {
				stopped = true
				return fs.SkipAll
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		if s.opts.SkipHidden && mediatypes.IsHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if len(s.opts.Exclude) > 0 {
			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && s.excluded(filepath.ToSlash(rel)) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		if !s.matcher.Match(d.Name()) {
			return nil
		}

		if !visit(entry{path: path}) {
			stopped = true
			return fs.SkipAll
		}
		return nil
	})
	if stopped {
		return nil
	}
	return err
}

func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Walk yields a fingerprinted record for every eligible file, one at a time
// in walk order. A file that cannot be read is yielded as a record carrying
// only its URI together with an error wrapping database.ErrIO, and the walk
// continues. Any other error ends the sequence.
func (s *Scanner) Walk(ctx context.Context) iter.Seq2[database.ImageRecord, error] {
	return func(yield func(database.ImageRecord, error) bool) {
		root, err := s.resolveRoot()
		if err != nil {
			yield(database.ImageRecord{}, err)
			return
		}
		s.records(ctx, root)(yield)
	}
}

func (s *Scanner) records(ctx context.Context, root string) iter.Seq2[database.ImageRecord, error] {
	return func(yield func(database.ImageRecord, error) bool) {
		err := s.walkEntries(ctx, root, func(e entry) bool {
			if e.err != nil {
				return yield(database.ImageRecord{URI: e.path}, e.err)
			}
			rec, err := s.hasher.Record(e.path)
			if err != nil {
				return yield(database.ImageRecord{URI: e.path}, err)
			}
			return yield(rec, nil)
		})
		if err != nil {
			yield(database.ImageRecord{}, err)
		}
	}
}

// Scan builds a complete Snapshot. Fingerprinting fans out over a bounded
// pool and results are merged before Scan returns; on error no snapshot is
// returned.
func (s *Scanner) Scan(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	numWorkers := workers.Resolve(s.opts.Workers, maxWorkers)
	if numWorkers == 1 {
		return s.scanSequential(ctx, start)
	}

	root, err := s.resolveRoot()
	if err != nil {
		return nil, err
	}

	logging.Debug("Scanning %s with %d workers", root, numWorkers)

	snap := NewSnapshot(root)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	walkErr := s.walkEntries(gctx, root, func(e entry) bool {
		if e.err != nil {
			mu.Lock()
			snap.Skip(e.path, e.err)
			mu.Unlock()
			return true
		}
		g.Go(func() error {
			rec, err := s.hasher.Record(e.path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !errors.Is(err, database.ErrIO) {
					return err
				}
				snap.Skip(e.path, err)
				return nil
			}
			snap.Add(rec)
			return nil
		})
		return true
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logging.Debug("Scan of %s complete: %d records, %d skipped in %v",
		root, snap.Len(), len(snap.Skipped), time.Since(start))
	return snap, nil
}

func (s *Scanner) scanSequential(ctx context.Context, start time.Time) (*Snapshot, error) {
	root, err := s.resolveRoot()
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot(root)
	for rec, err := range s.records(ctx, root) {
		if err != nil {
			if rec.URI == "" || !errors.Is(err, database.ErrIO) {
				return nil, err
			}
			snap.Skip(rec.URI, err)
			continue
		}
		snap.Add(rec)
	}

	logging.Debug("Sequential scan of %s complete: %d records, %d skipped in %v",
		root, snap.Len(), len(snap.Skipped), time.Since(start))
	return snap, nil
}
