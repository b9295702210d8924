// Package sqlite implements the SQLite record store behind the local catalog
// server.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "catalog.db"

// Backend implements types.Store using SQLite. Records survive Detach and
// are visible again on the next Attach of the same data directory.
type Backend struct {
	mu        sync.RWMutex
	attached  bool
	config    types.StoreConfig
	db        *sql.DB
	tables    map[string]*Table
	resources []string
}

// NewBackend creates a new SQLite backend serving the given resource names.
// With no names it serves every catalog resource. The backend is not
// attached; call Attach with a StoreConfig to initialize.
func NewBackend(resources ...string) *Backend {
	if len(resources) == 0 {
		resources = types.ResourceNames
	}
	return &Backend{
		tables:    make(map[string]*Table),
		resources: resources,
	}
}

// GetTable returns the Table for the specified resource name.
// Returns ErrTableNotFound if the name is not recognized.
// Returns ErrStoreDetached if the backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	table, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return table, nil
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, initializes the schema,
// and creates table accessors.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.StoreConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFileName))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers and keeps id allocation simple.
	db.SetMaxOpenConns(1)

	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true

	for _, name := range b.resources {
		b.tables[name] = newTable(b, name)
	}
	return nil
}

// Detach releases all resources held by the backend. After Detach, GetTable
// returns ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[string]*Table)
	return nil
}

var (
	_ types.Store = (*Backend)(nil)
	_ types.Table = (*Table)(nil)
)
