package indexer

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Mode is how a run treated the target table.
type Mode string

const (
	// ModeCreate built a table that did not exist.
	ModeCreate Mode = "create"
	// ModeRebuild dropped an existing table and built it again.
	ModeRebuild Mode = "rebuild"
	// ModeUpdate reconciled an existing table.
	ModeUpdate Mode = "update"
	// ModeDedup only deduplicated an existing table.
	ModeDedup Mode = "dedup"
)

// Summary reports what one run did. When a run fails, the counts cover the
// store operations applied before the failure.
type Summary struct {
	RunID string `json:"runId"`
	Table string `json:"table"`
	Mode  Mode   `json:"mode"`

	// Scanned is the number of eligible files fingerprinted.
	Scanned int `json:"scanned"`
	// Added and Removed count rows written and deleted by reconciliation.
	Added   int `json:"added"`
	Removed int `json:"removed"`
	// Updated counts URIs whose content changed; each is also counted in
	// Added and Removed.
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	// Duplicates counts scanned files left out because their content is
	// indexed under another URI.
	Duplicates int `json:"duplicates"`
	// Deduplicated counts stored rows deleted because their content hash
	// was kept under another URI.
	Deduplicated int `json:"deduplicated"`
	// Skipped counts files and directories that could not be read.
	Skipped int `json:"skipped"`
	// Rows is the final row count, or -1 if the run did not get that far.
	Rows int `json:"rows"`

	// SchemaMismatch is set when the existing table did not have the
	// expected columns and was left untouched.
	SchemaMismatch bool `json:"schemaMismatch"`

	Duration time.Duration `json:"duration"`
}

func (s Summary) String() string {
	rows := "?"
	if s.Rows >= 0 {
		rows = humanize.Comma(int64(s.Rows))
	}
	return fmt.Sprintf("mode=%s scanned=%s added=%s removed=%s updated=%s unchanged=%s duplicates=%s deduplicated=%s skipped=%s rows=%s",
		s.Mode,
		humanize.Comma(int64(s.Scanned)),
		humanize.Comma(int64(s.Added)),
		humanize.Comma(int64(s.Removed)),
		humanize.Comma(int64(s.Updated)),
		humanize.Comma(int64(s.Unchanged)),
		humanize.Comma(int64(s.Duplicates)),
		humanize.Comma(int64(s.Deduplicated)),
		humanize.Comma(int64(s.Skipped)),
		rows,
	)
}

// Changed reports whether the run modified the table.
func (s Summary) Changed() bool {
	return s.Added > 0 || s.Removed > 0 || s.Deduplicated > 0 || s.Mode == ModeCreate || s.Mode == ModeRebuild
}
