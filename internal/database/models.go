package database

import "time"

// ImageRecord is one row of an image index table.
type ImageRecord struct {
	URI         string    `json:"uri"`
	ContentHash string    `json:"contentHash"`
	ModifiedAt  time.Time `json:"modifiedAt"`
}

// Column describes one column of the record shape.
type Column struct {
	Name string
	Type string
}

// Columns is the static record shape every index table must carry.
var Columns = []Column{
	{Name: "uri", Type: "TEXT"},
	{Name: "content_hash", Type: "TEXT"},
	{Name: "modified_at", Type: "INTEGER"},
}

// dbImageRecord is used for scanning rows where time is stored as Unix nanoseconds.
type dbImageRecord struct {
	URI         string `db:"uri"`
	ContentHash string `db:"content_hash"`
	ModifiedAt  int64  `db:"modified_at"`
}

func toDBRecord(r ImageRecord) dbImageRecord {
	return dbImageRecord{
		URI:         r.URI,
		ContentHash: r.ContentHash,
		ModifiedAt:  r.ModifiedAt.UnixNano(),
	}
}

func (r dbImageRecord) record() ImageRecord {
	return ImageRecord{
		URI:         r.URI,
		ContentHash: r.ContentHash,
		ModifiedAt:  time.Unix(0, r.ModifiedAt),
	}
}
