package database

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Field names a predicate-capable column.
type Field string

const (
	// FieldURI selects rows by uri.
	FieldURI Field = "uri"
	// FieldContentHash selects rows by content_hash.
	FieldContentHash Field = "content_hash"
)

// Op is a predicate comparison operator.
type Op int

const (
	// OpEq matches a single value.
	OpEq Op = iota
	// OpIn matches any of a list of values.
	OpIn
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpIn:
		return "IN"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Predicate selects rows by comparing one field against literal values.
type Predicate struct {
	Field  Field
	Op     Op
	Values []string
}

// URIEquals matches the row with the given uri.
func URIEquals(uri string) Predicate {
	return Predicate{Field: FieldURI, Op: OpEq, Values: []string{uri}}
}

// URIIn matches rows whose uri is one of uris.
func URIIn(uris ...string) Predicate {
	return Predicate{Field: FieldURI, Op: OpIn, Values: uris}
}

// ContentHashEquals matches rows with the given content hash.
func ContentHashEquals(hash string) Predicate {
	return Predicate{Field: FieldContentHash, Op: OpEq, Values: []string{hash}}
}

// Validate checks that the predicate names a known field and operator.
func (p Predicate) Validate() error {
	switch p.Field {
	case FieldURI, FieldContentHash:
	default:
		return fmt.Errorf("unknown predicate field %q", p.Field)
	}

	switch p.Op {
	case OpEq:
		if len(p.Values) != 1 {
			return fmt.Errorf("%s %s needs exactly one value, got %d", p.Field, p.Op, len(p.Values))
		}
	case OpIn:
	default:
		return fmt.Errorf("unknown predicate operator %s", p.Op)
	}
	return nil
}

// Empty reports whether the predicate can match no row.
func (p Predicate) Empty() bool {
	return p.Op == OpIn && len(p.Values) == 0
}

// Match evaluates the predicate against a record.
func (p Predicate) Match(r ImageRecord) bool {
	var v string
	switch p.Field {
	case FieldURI:
		v = r.URI
	case FieldContentHash:
		v = r.ContentHash
	default:
		return false
	}
	return slices.Contains(p.Values, v)
}

// Number of values String renders before summarizing the rest
const maxRenderedValues = 5

// String renders the predicate for logs. Values are quoted and long value
// lists are truncated.
func (p Predicate) String() string {
	shown := p.Values
	if len(shown) > maxRenderedValues {
		shown = shown[:maxRenderedValues]
	}
	quoted := make([]string, len(shown))
	for i, v := range shown {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	if p.Op == OpEq && len(quoted) == 1 {
		return fmt.Sprintf("%s = %s", p.Field, quoted[0])
	}
	if more := len(p.Values) - len(shown); more > 0 {
		quoted = append(quoted, fmt.Sprintf("... (+%d more)", more))
	}
	return fmt.Sprintf("%s %s (%s)", p.Field, p.Op, strings.Join(quoted, ", "))
}

// chunks splits an IN predicate into predicates of at most size values.
// Any other predicate is returned as is.
func (p Predicate) chunks(size int) []Predicate {
	if p.Op != OpIn || len(p.Values) <= size {
		return []Predicate{p}
	}
	parts := make([]Predicate, 0, (len(p.Values)+size-1)/size)
	for batch := range slices.Chunk(p.Values, size) {
		parts = append(parts, Predicate{Field: p.Field, Op: p.Op, Values: batch})
	}
	return parts
}

// whereClause compiles the predicate to a parameterized WHERE expression.
// Values are always bound, never interpolated.
func (p Predicate) whereClause() (string, []any, error) {
	if err := p.Validate(); err != nil {
		return "", nil, err
	}

	column := string(p.Field)
	if p.Op == OpEq {
		return column + " = ?", []any{p.Values[0]}, nil
	}

	return sqlx.In(column+" IN (?)", p.Values)
}
