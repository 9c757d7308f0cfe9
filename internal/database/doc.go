// Package database provides the table store backing the image index.
//
// A Store holds named tables of ImageRecord rows with the fixed columns
// uri, content_hash and modified_at. Two implementations are provided:
//   - SQLite, through sqlx, for persistent indexes
//   - an in-memory store for tests and dry runs
//
// Tables are addressed by validated identifiers, checked against the
// static column list when opened, and mutated only through Append and
// DeleteWhere with typed predicates. Predicate values are always bound
// as query parameters.
package database
