package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Store is a collection of named index tables.
type Store interface {
	// Exists reports whether a table with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)
	// Create makes a new table and appends the initial records, if any.
	Create(ctx context.Context, name string, records []ImageRecord) (Table, error)
	// Open returns an existing table after checking its columns.
	Open(ctx context.Context, name string) (Table, error)
	// Drop removes a table. Dropping a missing table is not an error.
	Drop(ctx context.Context, name string) error
	Close() error
}

// Table is one index table.
type Table interface {
	Name() string
	// ReadAll returns every row ordered by uri.
	ReadAll(ctx context.Context) ([]ImageRecord, error)
	// Append inserts records. A record whose uri is already present fails
	// the whole call.
	Append(ctx context.Context, records []ImageRecord) error
	// DeleteWhere removes every row matching the predicate and returns
	// the number of rows removed.
	DeleteWhere(ctx context.Context, p Predicate) (int64, error)
	Count(ctx context.Context) (int, error)
}

// QueryObserver records store operation metrics. Implementations are
// provided by the metrics package.
type QueryObserver interface {
	ObserveQuery(operation string, durationSeconds float64, err error)
}

type options struct {
	observer QueryObserver
}

// Option configures Connect.
type Option func(*options)

// WithObserver records every store operation on o.
func WithObserver(o QueryObserver) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// DefaultFileName is used when the location passed to Connect is a directory.
const DefaultFileName = "index.db"

// Connect opens the store at location. "memory:" and ":memory:" select the
// in-memory store; any other location is a SQLite database file, or a
// directory holding DefaultFileName.
func Connect(ctx context.Context, location string, opts ...Option) (Store, error) {
	switch location {
	case "memory:", ":memory:":
		return NewMemoryStore(opts...), nil
	case "":
		return nil, fmt.Errorf("%w: empty store location", ErrStore)
	}

	path, err := ResolveLocation(location)
	if err != nil {
		return nil, err
	}

	return OpenSQLite(ctx, path, opts...)
}

// ResolveLocation expands a leading "~" and maps a directory to the
// database file inside it.
func ResolveLocation(location string) (string, error) {
	if location == "~" || strings.HasPrefix(location, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: resolve home directory: %w", ErrStore, err)
		}
		location = filepath.Join(home, strings.TrimPrefix(location, "~"))
	}

	path, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", ErrStore, location, err)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFileName)
	}
	return path, nil
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTableName rejects names that are not plain identifiers.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) || strings.HasPrefix(strings.ToLower(name), "sqlite_") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// recordQuery reports an operation to the observer, if any.
func recordQuery(o QueryObserver, operation string, start time.Time, err error) {
	if o == nil {
		return
	}
	o.ObserveQuery(operation, time.Since(start).Seconds(), err)
}
