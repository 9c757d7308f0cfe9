package reconcile

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"image-index/internal/database"
	"image-index/internal/scanner"
)

// Plan is the minimal set of store operations that brings the stored rows in
// line with a scan. Every slice is ordered by URI.
type Plan struct {
	// ToAdd holds scanned records that are new or whose content changed.
	ToAdd []database.ImageRecord
	// ToRemove holds stored rows for files that are gone or whose content
	// changed. They must be deleted before ToAdd is applied.
	ToRemove []database.ImageRecord
	// Unchanged holds stored rows whose uri and hash match the scan.
	Unchanged []database.ImageRecord
	// Kept holds stored URIs left untouched because the scan could not read them.
	Kept []string
}

// HasChanges reports whether applying the plan would touch the store.
func (p *Plan) HasChanges() bool {
	return len(p.ToAdd) > 0 || len(p.ToRemove) > 0
}

// RemoveURIs returns the distinct URIs in ToRemove, sorted.
func (p *Plan) RemoveURIs() []string {
	uris := make([]string, 0, len(p.ToRemove))
	for i, r := range p.ToRemove {
		if i > 0 && p.ToRemove[i-1].URI == r.URI {
			continue
		}
		uris = append(uris, r.URI)
	}
	return uris
}

// Replaced returns how many URIs appear in both ToRemove and ToAdd.
func (p *Plan) Replaced() int {
	added := make(map[string]struct{}, len(p.ToAdd))
	for _, r := range p.ToAdd {
		added[r.URI] = struct{}{}
	}
	n := 0
	for _, uri := range p.RemoveURIs() {
		if _, ok := added[uri]; ok {
			n++
		}
	}
	return n
}

// Diff compares a scan with the stored rows. It is a pure function of its
// inputs: the order of stored and of the scan's map iteration do not matter.
//
// A stored URI that the scan marked as skipped is neither removed nor re-added.
// A stored URI that appears more than once is removed in full and, if the
// file still exists, added back once.
func Diff(scan *scanner.Snapshot, stored []database.ImageRecord) *Plan {
	plan := &Plan{}

	byURI := make(map[string][]database.ImageRecord, len(stored))
	for _, r := range stored {
		byURI[r.URI] = append(byURI[r.URI], r)
	}

	storedURIs := mapset.NewThreadUnsafeSetWithSize[string](len(byURI))
	for uri := range byURI {
		storedURIs.Add(uri)
	}
	scannedURIs := mapset.NewThreadUnsafeSetWithSize[string](len(scan.Records))
	for uri := range scan.Records {
		scannedURIs.Add(uri)
	}

	for _, uri := range storedURIs.Difference(scannedURIs).ToSlice() {
		if scan.IsSkipped(uri) {
			plan.Kept = append(plan.Kept, uri)
			continue
		}
		plan.ToRemove = append(plan.ToRemove, byURI[uri]...)
	}

	for _, uri := range scannedURIs.Difference(storedURIs).ToSlice() {
		plan.ToAdd = append(plan.ToAdd, scan.Records[uri])
	}

	for _, uri := range scannedURIs.Intersect(storedURIs).ToSlice() {
		current := scan.Records[uri]
		rows := byURI[uri]
		if len(rows) == 1 && rows[0].ContentHash == current.ContentHash {
			plan.Unchanged = append(plan.Unchanged, rows[0])
			continue
		}
		plan.ToRemove = append(plan.ToRemove, rows...)
		plan.ToAdd = append(plan.ToAdd, current)
	}

	sortRecords(plan.ToAdd)
	sortRecords(plan.ToRemove)
	sortRecords(plan.Unchanged)
	sort.Strings(plan.Kept)
	return plan
}

// sortRecords orders by URI, then hash and mtime so duplicate URIs still
// have a fixed order.
func sortRecords(records []database.ImageRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.URI != b.URI {
			return a.URI < b.URI
		}
		if a.ContentHash != b.ContentHash {
			return a.ContentHash < b.ContentHash
		}
		return a.ModifiedAt.Before(b.ModifiedAt)
	})
}
