// Package sqlite exposes the SQLite record store that backs a local catalog
// server, keeping its implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/catalog/internal/sqlite"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

// NewStore returns an unattached SQLite store holding the given resources,
// or every catalog resource when none are named.
//
// Example:
//
//	store := sqlite.NewStore()
//	err := store.Attach(types.StoreConfig{
//	    Backend: types.BackendSQLite,
//	    DataDir: dir,
//	})
//	defer store.Detach()
func NewStore(resources ...string) types.Store {
	return sqlite.NewBackend(resources...)
}
