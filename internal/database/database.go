package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"image-index/internal/logging"
)

// Default timeout for short catalog queries
const defaultTimeout = 5 * time.Second

// Values bound per DELETE statement, well under SQLITE_MAX_VARIABLE_NUMBER
const maxBoundValues = 500

// SQLite pragmas applied to the single store connection
const defaultPragma = `
PRAGMA journal_mode=WAL;
PRAGMA synchronous=NORMAL;
PRAGMA busy_timeout=5000;
PRAGMA temp_store=MEMORY;
`

// SQLiteStore keeps index tables in one SQLite database file.
type SQLiteStore struct {
	db       *sqlx.DB
	observer QueryObserver
}

// OpenSQLite opens (creating if needed) the database file at dbPath.
// The parent directory is created when missing.
func OpenSQLite(ctx context.Context, dbPath string, opts ...Option) (*SQLiteStore, error) {
	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}

	logging.Debug("Database path: %s", dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create database directory: %w", ErrStore, err)
	}

	// Diagnose potential permission issues
	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	connStr := fmt.Sprintf("file:%s?_txlock=immediate&mode=rwc", dbPath)

	db, err := sqlx.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrStore, err)
	}

	// One connection: pragmas are per connection and a sync run is the only writer.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("%w: failed to connect to database: %w", ErrStore, err)
	}

	if _, err := db.ExecContext(ctx, defaultPragma); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after pragma failure: %v", closeErr)
		}
		return nil, fmt.Errorf("%w: set pragmas: %w", ErrStore, err)
	}

	logging.Debug("Database opened with driver %s at %s", driverID, dbPath)

	return &SQLiteStore{
		db:       db,
		observer: cfg.observer,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Exists reports whether the table exists.
func (s *SQLiteStore) Exists(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(s.observer, "exists", start, err) }()

	if err = ValidateTableName(name); err != nil {
		return false, err
	}

	var count int
	err = s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, fmt.Errorf("%w: check table %s: %w", ErrStore, name, err)
	}
	return count > 0, nil
}

// Create makes a new table and appends records.
func (s *SQLiteStore) Create(ctx context.Context, name string, records []ImageRecord) (Table, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(s.observer, "create_table", start, err) }()

	if err = ValidateTableName(name); err != nil {
		return nil, err
	}

	exists, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		err = fmt.Errorf("%w: table %s already exists", ErrStore, name)
		return nil, err
	}

	ident := quoteIdent(name)
	schema := fmt.Sprintf(`
	CREATE TABLE %s (
		uri TEXT PRIMARY KEY NOT NULL,
		content_hash TEXT NOT NULL,
		modified_at INTEGER NOT NULL
	);

	CREATE INDEX %s ON %s(content_hash);
	`, ident, quoteIdent("idx_"+name+"_content_hash"), ident)

	if _, err = s.db.ExecContext(ctx, schema); err != nil {
		err = fmt.Errorf("%w: create table %s: %w", ErrStore, name, err)
		return nil, err
	}

	t := &sqliteTable{store: s, name: name}
	if len(records) > 0 {
		if err = t.Append(ctx, records); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Open returns an existing table after checking it carries Columns.
func (s *SQLiteStore) Open(ctx context.Context, name string) (Table, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(s.observer, "open_table", start, err) }()

	exists, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		err = fmt.Errorf("%w: table %s", ErrNotFound, name)
		return nil, err
	}

	if err = s.checkSchema(ctx, name); err != nil {
		return nil, err
	}
	return &sqliteTable{store: s, name: name}, nil
}

// checkSchema compares the table's columns against Columns and requires
// uri to be unique.
func (s *SQLiteStore) checkSchema(ctx context.Context, name string) error {
	var cols []struct {
		Name string `db:"name"`
		Type string `db:"type"`
	}
	if err := s.db.SelectContext(ctx, &cols, "SELECT name, type FROM pragma_table_info(?)", name); err != nil {
		return fmt.Errorf("%w: read columns of %s: %w", ErrStore, name, err)
	}

	actual := make(map[string]string, len(cols))
	for _, c := range cols {
		actual[c.Name] = strings.ToUpper(c.Type)
	}

	var problems []string
	for _, want := range Columns {
		got, ok := actual[want.Name]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing column %s", want.Name))
		case got != want.Type:
			problems = append(problems, fmt.Sprintf("column %s is %s, want %s", want.Name, got, want.Type))
		}
	}
	if _, ok := actual["uri"]; ok {
		unique, err := s.hasUniqueURI(ctx, name)
		if err != nil {
			return err
		}
		if !unique {
			problems = append(problems, "column uri is not a primary key or unique")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: table %s: %s", ErrSchema, name, strings.Join(problems, "; "))
	}
	return nil
}

// hasUniqueURI reports whether a unique index covers exactly the uri column.
// A TEXT primary key is backed by such an index.
func (s *SQLiteStore) hasUniqueURI(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM pragma_index_list(?) AS il
		WHERE il."unique" = 1 AND il.partial = 0
		  AND (SELECT COUNT(*) FROM pragma_index_info(il.name)) = 1
		  AND (SELECT name FROM pragma_index_info(il.name)) = 'uri'`, name)
	if err != nil {
		return false, fmt.Errorf("%w: read indexes of %s: %w", ErrStore, name, err)
	}
	return count > 0, nil
}

// Drop removes the table if present.
func (s *SQLiteStore) Drop(ctx context.Context, name string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery(s.observer, "drop_table", start, err) }()

	if err = ValidateTableName(name); err != nil {
		return err
	}
	if _, err = s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		err = fmt.Errorf("%w: drop table %s: %w", ErrStore, name, err)
	}
	return err
}

// beginBatch starts a transaction for a batch of mutations.
func (s *SQLiteStore) beginBatch(ctx context.Context) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, nil)
}

// endBatch commits or rolls back a transaction.
func (s *SQLiteStore) endBatch(tx *sqlx.Tx, err error) error {
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}

type sqliteTable struct {
	store *SQLiteStore
	name  string
}

func (t *sqliteTable) Name() string {
	return t.name
}

func (t *sqliteTable) ReadAll(ctx context.Context) ([]ImageRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(t.store.observer, "read_all", start, err) }()

	var rows []dbImageRecord
	err = t.store.db.SelectContext(ctx, &rows,
		"SELECT uri, content_hash, modified_at FROM "+quoteIdent(t.name)+" ORDER BY uri")
	if err != nil {
		err = fmt.Errorf("%w: read %s: %w", ErrStore, t.name, err)
		return nil, err
	}

	records := make([]ImageRecord, len(rows))
	for i, r := range rows {
		records[i] = r.record()
	}
	return records, nil
}

func (t *sqliteTable) Append(ctx context.Context, records []ImageRecord) error {
	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery(t.store.observer, "append", start, err) }()

	tx, err := t.store.beginBatch(ctx)
	if err != nil {
		err = fmt.Errorf("%w: begin append to %s: %w", ErrStore, t.name, err)
		return err
	}

	query := "INSERT INTO " + quoteIdent(t.name) +
		" (uri, content_hash, modified_at) VALUES (:uri, :content_hash, :modified_at)"

	var insertErr error
	for _, r := range records {
		if _, insertErr = tx.NamedExecContext(ctx, query, toDBRecord(r)); insertErr != nil {
			insertErr = fmt.Errorf("insert %s: %w", r.URI, insertErr)
			break
		}
	}

	if err = t.store.endBatch(tx, insertErr); err != nil {
		err = fmt.Errorf("%w: append to %s: %w", ErrStore, t.name, err)
	}
	return err
}

func (t *sqliteTable) DeleteWhere(ctx context.Context, p Predicate) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if p.Empty() {
		return 0, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery(t.store.observer, "delete_where", start, err) }()

	tx, err := t.store.beginBatch(ctx)
	if err != nil {
		err = fmt.Errorf("%w: begin delete from %s: %w", ErrStore, t.name, err)
		return 0, err
	}

	// Large IN lists run as several statements in one transaction.
	var affected int64
	var deleteErr error
	for _, part := range p.chunks(maxBoundValues) {
		var n int64
		if n, deleteErr = t.deleteTx(ctx, tx, part); deleteErr != nil {
			break
		}
		affected += n
	}

	if err = t.store.endBatch(tx, deleteErr); err != nil {
		err = fmt.Errorf("%w: delete from %s where %s: %w", ErrStore, t.name, p, err)
		return 0, err
	}
	return affected, nil
}

// deleteTx runs one DELETE statement inside tx.
func (t *sqliteTable) deleteTx(ctx context.Context, tx *sqlx.Tx, p Predicate) (int64, error) {
	where, args, err := p.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(t.name)+" WHERE "+where, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (t *sqliteTable) Count(ctx context.Context) (int, error) {
	var count int
	if err := t.store.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+quoteIdent(t.name)); err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", ErrStore, t.name, err)
	}
	return count, nil
}

// quoteIdent quotes a validated identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	// Check main database file
	if dbInfo, err := os.Stat(dbPath); err == nil {
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", dbPath, dbInfo.Mode(), dbInfo.Size())
		if dbInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file is read-only! Mode: %v", dbInfo.Mode())
		}
	}

	// Check WAL file
	walPath := dbPath + "-wal"
	if walInfo, err := os.Stat(walPath); err == nil {
		if walInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("WAL file is read-only! Mode: %v - this will cause write failures", walInfo.Mode())
			if chmodErr := os.Chmod(walPath, 0o600); chmodErr != nil {
				logging.Error("Failed to fix WAL file permissions: %v", chmodErr)
			} else {
				logging.Info("Fixed WAL file permissions")
			}
		}
	}

	return nil
}
