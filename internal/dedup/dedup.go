package dedup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"image-index/internal/database"
)

// DefaultBatchSize is the number of URIs deleted per store call.
const DefaultBatchSize = 500

// Policy chooses the surviving row among rows with the same content hash.
type Policy string

const (
	// KeepNewest keeps the row with the greatest ModifiedAt.
	KeepNewest Policy = "newest"
	// KeepOldest keeps the row with the smallest ModifiedAt.
	KeepOldest Policy = "oldest"
)

// ParsePolicy maps a configuration value to a Policy. Empty selects KeepNewest.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeepNewest:
		return KeepNewest, nil
	case KeepOldest:
		return KeepOldest, nil
	default:
		return "", fmt.Errorf("unknown keep policy %q (want newest or oldest)", s)
	}
}

// prefers reports whether a should survive over b. Equal timestamps go to
// the lexically lowest URI under either policy.
func (p Policy) prefers(a, b database.ImageRecord) bool {
	if !a.ModifiedAt.Equal(b.ModifiedAt) {
		if p == KeepOldest {
			return a.ModifiedAt.Before(b.ModifiedAt)
		}
		return a.ModifiedAt.After(b.ModifiedAt)
	}
	return a.URI < b.URI
}

// Result is the outcome of planning a deduplication pass.
type Result struct {
	// Survivors holds exactly one row per content hash, ordered by URI.
	Survivors []database.ImageRecord
	// Duplicates holds every other row, ordered by URI.
	Duplicates []database.ImageRecord
}

// Plan groups rows by content hash and picks one survivor per group.
// The result does not depend on the order of rows.
func Plan(rows []database.ImageRecord, policy Policy) Result {
	best := make(map[string]int, len(rows))
	for i, r := range rows {
		cur, ok := best[r.ContentHash]
		if !ok || policy.prefers(r, rows[cur]) {
			best[r.ContentHash] = i
		}
	}

	var res Result
	for i, r := range rows {
		if best[r.ContentHash] == i {
			res.Survivors = append(res.Survivors, r)
			continue
		}
		res.Duplicates = append(res.Duplicates, r)
	}

	byURI := func(records []database.ImageRecord) {
		sort.Slice(records, func(i, j int) bool {
			return records[i].URI < records[j].URI
		})
	}
	byURI(res.Survivors)
	byURI(res.Duplicates)
	return res
}

// Apply removes every duplicate row from table and returns how many rows
// were deleted. Deletes are issued in batches of batchSize URIs and ctx is
// checked between batches. On error the count reflects the batches already
// applied. A second call on the same table deletes nothing.
func Apply(ctx context.Context, table database.Table, policy Policy, batchSize int) (int, error) {
	rows, err := table.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read %s for dedup: %w", table.Name(), err)
	}

	res := Plan(rows, policy)
	if len(res.Duplicates) == 0 {
		return 0, nil
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	uris := make([]string, 0, len(res.Duplicates))
	for _, r := range res.Duplicates {
		uris = append(uris, r.URI)
	}

	deleted := 0
	for start := 0; start < len(uris); start += batchSize {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		end := min(start+batchSize, len(uris))
		n, err := table.DeleteWhere(ctx, database.URIIn(uris[start:end]...))
		deleted += int(n)
		if err != nil {
			return deleted, fmt.Errorf("delete duplicates from %s: %w", table.Name(), err)
		}
	}

	return deleted, nil
}
