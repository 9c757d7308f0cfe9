package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps tables in process memory. It enforces the same
// uniqueness and naming rules as the SQLite store.
type MemoryStore struct {
	mu       sync.Mutex
	tables   map[string]*memoryTable
	observer QueryObserver
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &MemoryStore{
		tables:   make(map[string]*memoryTable),
		observer: cfg.observer,
	}
}

func (s *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	if err := ValidateTableName(name); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tables[name]
	return ok, nil
}

func (s *MemoryStore) Create(ctx context.Context, name string, records []ImageRecord) (Table, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(s.observer, "create_table", start, err) }()

	if err = ValidateTableName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, ok := s.tables[name]; ok {
		s.mu.Unlock()
		err = fmt.Errorf("%w: table %s already exists", ErrStore, name)
		return nil, err
	}
	t := &memoryTable{store: s, name: name, rows: make(map[string]ImageRecord)}
	s.tables[name] = t
	s.mu.Unlock()

	if err = t.Append(ctx, records); err != nil {
		s.mu.Lock()
		delete(s.tables, name)
		s.mu.Unlock()
		return nil, err
	}
	return t, nil
}

func (s *MemoryStore) Open(_ context.Context, name string) (Table, error) {
	if err := ValidateTableName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: table %s", ErrNotFound, name)
	}
	return t, nil
}

func (s *MemoryStore) Drop(_ context.Context, name string) error {
	if err := ValidateTableName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[name]; ok {
		t.mu.Lock()
		t.dropped = true
		t.mu.Unlock()
		delete(s.tables, name)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

type memoryTable struct {
	store   *MemoryStore
	name    string
	mu      sync.RWMutex
	rows    map[string]ImageRecord
	dropped bool
}

func (t *memoryTable) Name() string {
	return t.name
}

func (t *memoryTable) ReadAll(_ context.Context) ([]ImageRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(t.store.observer, "read_all", start, err) }()

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.dropped {
		err = fmt.Errorf("%w: table %s was dropped", ErrStore, t.name)
		return nil, err
	}

	records := make([]ImageRecord, 0, len(t.rows))
	for _, r := range t.rows {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].URI < records[j].URI
	})
	return records, nil
}

func (t *memoryTable) Append(ctx context.Context, records []ImageRecord) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery(t.store.observer, "append", start, err) }()

	if err = ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dropped {
		err = fmt.Errorf("%w: table %s was dropped", ErrStore, t.name)
		return err
	}

	// Validate the whole batch first so a failed append changes nothing.
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := t.rows[r.URI]; ok {
			err = fmt.Errorf("%w: append to %s: uri %s already present", ErrStore, t.name, r.URI)
			return err
		}
		if _, ok := seen[r.URI]; ok {
			err = fmt.Errorf("%w: append to %s: uri %s repeated in batch", ErrStore, t.name, r.URI)
			return err
		}
		seen[r.URI] = struct{}{}
	}

	for _, r := range records {
		t.rows[r.URI] = r
	}
	return nil
}

func (t *memoryTable) DeleteWhere(ctx context.Context, p Predicate) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if p.Empty() {
		return 0, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery(t.store.observer, "delete_where", start, err) }()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dropped {
		err = fmt.Errorf("%w: table %s was dropped", ErrStore, t.name)
		return 0, err
	}

	var deleted int64
	for uri, r := range t.rows {
		if p.Match(r) {
			delete(t.rows, uri)
			deleted++
		}
	}
	return deleted, nil
}

func (t *memoryTable) Count(_ context.Context) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows), nil
}
