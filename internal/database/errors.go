package database

import "errors"

var (
	// ErrNotFound reports a missing root directory or table.
	ErrNotFound = errors.New("not found")
	// ErrIO reports a per-file read failure.
	ErrIO = errors.New("io error")
	// ErrStore reports a connection, create or mutation failure.
	ErrStore = errors.New("store error")
	// ErrSchema reports a table whose columns do not match Columns.
	ErrSchema = errors.New("schema mismatch")
	// ErrInvalidName reports a table name that is not a plain identifier.
	ErrInvalidName = errors.New("invalid table name")
)
