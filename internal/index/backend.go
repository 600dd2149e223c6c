package index

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrUnavailable marks failures of the storage engine itself. Callers
	// treat it as fatal for the current operation.
	ErrUnavailable = errors.New("index unavailable")
	// ErrNotFound is returned by Get when no document has the id.
	ErrNotFound = errors.New("document not found")
	// ErrUnknownIndex is returned when an index was never created.
	ErrUnknownIndex = errors.New("unknown index")
	// ErrUnmappedField is returned when a Match clause targets a field the
	// index does not analyze.
	ErrUnmappedField = errors.New("field is not a text field of the index")
)

// Mapping declares which document fields are analyzed for Match clauses.
// Any field can be used by Term and Range clauses.
type Mapping struct {
	Text []string `json:"text"`
}

func (m Mapping) hasText(field string) bool {
	for _, f := range m.Text {
		if f == field {
			return true
		}
	}
	return false
}

func (m Mapping) check(q Query) error {
	fields := make(map[string]struct{})
	textFields(q.Bool, fields)
	for f := range fields {
		if !m.hasText(f) {
			return errors.Join(ErrUnmappedField, errors.New(f))
		}
	}
	return nil
}

// Hit is one scored document.
type Hit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

// Result is the outcome of a search: the number of matching documents and
// the top hits in score order.
type Result struct {
	Total int
	Hits  []Hit
}

// Backend is a scored document store partitioned into named indexes.
type Backend interface {
	// EnsureIndex creates the index if it does not exist.
	EnsureIndex(ctx context.Context, name string, mapping Mapping) error
	// Search returns the documents matching q ordered by score, then id.
	Search(ctx context.Context, name string, q Query) (*Result, error)
	// Get returns the document with id or ErrNotFound.
	Get(ctx context.Context, name, id string) (*Hit, error)
	// Upsert writes body under id, generating an id when empty, and returns
	// the id used. The write is visible to the next Search or Get.
	Upsert(ctx context.Context, name, id string, body []byte) (string, error)
	// Delete removes the document with id. Missing documents are ignored.
	Delete(ctx context.Context, name, id string) error
	// Count returns the number of documents in the index.
	Count(ctx context.Context, name string) (int, error)
	Close() error
}
