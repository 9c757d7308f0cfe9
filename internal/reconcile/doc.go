// Package reconcile diffs a filesystem scan against the rows already stored
// for it and produces the add and remove operations that synchronize them.
//
// Rows are matched by URI. A URI present in both with the same content hash
// is unchanged, even if its modification time moved. A changed URI appears
// in both ToRemove and ToAdd, and callers must apply every removal before
// any add so that no URI is ever stored twice.
package reconcile
