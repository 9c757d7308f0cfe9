// Package dedup collapses index rows that share a content hash down to one.
//
// The survivor of each group is chosen by Policy. KeepNewest, the default,
// keeps the most recently modified row; KeepOldest keeps the earliest one.
// Equal timestamps go to the lowest URI, so exactly one survivor exists for
// any input.
package dedup
