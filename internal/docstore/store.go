// Package docstore provides uniform CRUD and query primitives over named,
// schema-less document collections. Documents are JSON objects addressed by
// (collection, id); the store assigns and owns IDs.
package docstore

import (
	"context"
	"errors"
)

// ErrNoFilters is returned by ListFiltered when the filter list is empty.
// An unfiltered query must go through ListAll instead; rejecting it here
// keeps the mistake from turning into an accidental full-collection scan.
var ErrNoFilters = errors.New("no filters provided; use ListAll")

// Document is one record of a collection together with its assigned ID.
type Document struct {
	ID   string
	Data map[string]any
}

// Cursor marks the last document of a page for keyset pagination.
// A nil *Cursor means "start from the beginning" on input and
// "no further pages" on output.
type Cursor struct {
	// ID of the last document of the previous page.
	ID string
	// OrderValue is the jsonb serialization of the order-by field of that
	// document (numbers unquoted, strings quoted). Empty when the page was
	// ordered by ID alone.
	OrderValue string
}

// Store is the generic document access contract.
//
// All operations suspend until the backend responds and surface backend
// failures as errors wrapping common.ErrStorage; a Read miss is reported as
// common.ErrNotFound, which callers treat as a signal, not a failure.
type Store interface {
	// Insert creates one document and returns its newly assigned ID.
	Insert(ctx context.Context, collection string, data map[string]any) (string, error)

	// Read fetches one document, or common.ErrNotFound when id does not
	// resolve to an existing document.
	Read(ctx context.Context, collection, id string) (*Document, error)

	// Update merges the given fields into an existing document. The full
	// document is not required.
	Update(ctx context.Context, collection, id string, data map[string]any) error

	// Delete removes a document unconditionally. Deleting a nonexistent ID
	// still reports success; existence is deliberately not verified.
	Delete(ctx context.Context, collection, id string) error

	// ListAll fetches every document of a collection, unbounded. Intended for
	// small reference collections only.
	ListAll(ctx context.Context, collection string) ([]Document, error)

	// ListFiltered applies a conjunction of filters server-side. An empty
	// filter list yields ErrNoFilters without a round-trip.
	ListFiltered(ctx context.Context, collection string, filters []Filter) ([]Document, error)

	// ListPaged returns one ordered, filtered page and the cursor for the
	// next one, or a nil cursor when the returned page is the last.
	ListPaged(ctx context.Context, collection string, pageSize int, cursor *Cursor, filters []Filter, orderBy string) ([]Document, *Cursor, error)
}
