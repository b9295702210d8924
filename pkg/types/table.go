package types

import "errors"

// Record is one catalog record as it travels over the wire: field name to
// JSON-compatible value.
type Record = map[string]any

// Table provides uniform CRUD operations over the records of one resource.
// Record identifiers are decimal strings assigned by the table.
type Table interface {
	// Get retrieves the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Get(id string) (Record, error)

	// Set creates or updates a record. When id is empty a new ID is
	// assigned. Returns the actual ID used (assigned or provided).
	Set(id string, data Record) (string, error)

	// Delete removes the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Delete(id string) error

	// Fetch returns all records matching the filter. An empty filter
	// returns every record in the table.
	Fetch(filter map[string]any) ([]Record, error)
}

// Table operation errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidID   = errors.New("invalid record ID")
	ErrInvalidData = errors.New("invalid record data")
)
