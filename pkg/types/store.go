package types

import "errors"

// Store defines backend-agnostic record storage for the local catalog
// server. Callers attach to a backend, access tables by resource name, and
// detach when done.
type Store interface {
	// GetTable returns the Table for the given resource name.
	// Returns ErrTableNotFound if the name is not a catalog resource.
	GetTable(name string) (Table, error)

	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config StoreConfig) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, GetTable returns ErrStoreDetached.
	Detach() error
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrTableNotFound   = errors.New("table not found")
)
