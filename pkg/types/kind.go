package types

// Kind enumerates the catalog record types. The set is closed: every
// resource the client can address has a Kind.
type Kind int

// Catalog record kinds.
const (
	KindDatabase Kind = iota + 1
	KindTable
	KindGrouping
	KindColumn
)

// Resource names as they appear in /api/{resource}/.
const (
	ResourceDatabase = "database"
	ResourceTable    = "table"
	ResourceGrouping = "grouping"
	ResourceColumn   = "column"
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{KindDatabase, KindTable, KindGrouping, KindColumn}

// ResourceNames lists all resource names for enumeration.
var ResourceNames = []string{
	ResourceDatabase,
	ResourceTable,
	ResourceGrouping,
	ResourceColumn,
}

// String returns the resource name of the kind, or "unknown".
func (k Kind) String() string {
	switch k {
	case KindDatabase:
		return ResourceDatabase
	case KindTable:
		return ResourceTable
	case KindGrouping:
		return ResourceGrouping
	case KindColumn:
		return ResourceColumn
	default:
		return "unknown"
	}
}
