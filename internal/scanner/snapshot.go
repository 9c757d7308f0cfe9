package scanner

import (
	"path/filepath"
	"sort"
	"strings"

	"image-index/internal/database"
)

// Snapshot is one complete scan of a tree. Records are keyed by URI. Skipped
// holds files and directories that exist but could not be read, with the
// reason; their previous index rows must be left alone.
type Snapshot struct {
	Root    string
	Records map[string]database.ImageRecord
	Skipped map[string]error
}

// NewSnapshot returns an empty snapshot for root.
func NewSnapshot(root string) *Snapshot {
	return &Snapshot{
		Root:    root,
		Records: make(map[string]database.ImageRecord),
		Skipped: make(map[string]error),
	}
}

// Add stores a record, replacing any earlier record for the same URI.
func (s *Snapshot) Add(r database.ImageRecord) {
	s.Records[r.URI] = r
}

// Skip marks uri as present but unreadable.
func (s *Snapshot) Skip(uri string, err error) {
	s.Skipped[uri] = err
}

// Len returns the number of fingerprinted records.
func (s *Snapshot) Len() int {
	return len(s.Records)
}

// IsSkipped reports whether uri, or a directory containing it, was skipped.
func (s *Snapshot) IsSkipped(uri string) bool {
	if len(s.Skipped) == 0 {
		return false
	}
	if _, ok := s.Skipped[uri]; ok {
		return true
	}
	for dir := filepath.Dir(uri); ; dir = filepath.Dir(dir) {
		if _, ok := s.Skipped[dir]; ok {
			return true
		}
		if dir == s.Root || !strings.HasPrefix(dir, s.Root) || dir == filepath.Dir(dir) {
			return false
		}
	}
}

// Sorted returns the records ordered by URI.
func (s *Snapshot) Sorted() []database.ImageRecord {
	out := make([]database.ImageRecord, 0, len(s.Records))
	for _, r := range s.Records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].URI < out[j].URI
	})
	return out
}

// SkippedURIs returns the skipped paths ordered lexically.
func (s *Snapshot) SkippedURIs() []string {
	out := make([]string, 0, len(s.Skipped))
	for uri := range s.Skipped {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}
