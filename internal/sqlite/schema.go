package sqlite

// Schema DDL. Every catalog resource shares one records table keyed by
// (resource, id); the record body is stored as a JSON document.
const (
	createRecords = `CREATE TABLE IF NOT EXISTS records (
    resource TEXT NOT NULL,
    id INTEGER NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (resource, id)
);`

	createSequences = `CREATE TABLE IF NOT EXISTS sequences (
    resource TEXT PRIMARY KEY,
    last_id INTEGER NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxRecordsUpdated = `CREATE INDEX IF NOT EXISTS idx_records_updated ON records(resource, updated_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createRecords,
	createSequences,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxRecordsUpdated,
}
