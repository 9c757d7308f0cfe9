// Package indexer keeps an index table synchronized with a directory tree.
//
// An Indexer runs one pass at a time:
//
//   - If the table is absent, or Force is set, the tree is scanned and the
//     table is (re)created from the scan.
//   - Otherwise the scan is reconciled with the stored rows. Stale rows are
//     deleted first, then new and changed files are appended.
//   - Finally rows that share a content hash are collapsed to one survivor.
//
// Store calls are issued in batches of BatchSize (default 500) and a
// cancelled context stops the run only between batches. A failed run
// returns a Summary holding the counts already applied; rerunning is safe.
//
// Progress is reported to a Reporter passed in Options. LogReporter writes
// through the logging package and metrics.Reporter records Prometheus
// metrics; MultiReporter combines them.
//
// Concurrent runs against one table must be prevented. Set LockPath to hold
// an exclusive file lock for the duration of each run.
//
// An Indexer built without a Root can still run Deduplicate and Status;
// Sync returns ErrNotFound.
package indexer
