package entity

import "github.com/mesh-intelligence/catalog/pkg/types"

// Kind aliases the closed set of record kinds.
type Kind = types.Kind

// Error aliases so callers of this package can match without importing types.
var (
	ErrNotImplemented = types.ErrNotImplemented
	ErrUnknownModel   = types.ErrUnknownModel
)

// Catalog record variants.
var (
	Database = Variant{
		Kind:   types.KindDatabase,
		Name:   types.ResourceDatabase,
		Fields: []string{"name", "database", "id", "description"},
	}

	Table = Variant{
		Kind:   types.KindTable,
		Name:   types.ResourceTable,
		Fields: []string{"name", "database", "id", "description", "date_range"},
	}

	Grouping = Variant{
		Kind:   types.KindGrouping,
		Name:   types.ResourceGrouping,
		Fields: []string{"name", "id"},
	}

	Column = Variant{
		Kind: types.KindColumn,
		Name: types.ResourceColumn,
		Fields: []string{
			"name", "description", "data_type", "is_derived_item",
			"derivation", "tables", "grouping", "link", "id",
		},
	}
)
