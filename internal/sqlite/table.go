package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// Table implements types.Table for one catalog resource. Record ids are
// integers allocated per resource and never reused.
type Table struct {
	name    string
	backend *Backend
}

func newTable(b *Backend, name string) *Table {
	return &Table{name: name, backend: b}
}

// Name returns the resource name served by the table.
func (t *Table) Name() string { return t.name }

// Get retrieves a record by ID.
// Returns ErrInvalidID if id is not a positive integer, ErrNotFound if absent.
func (t *Table) Get(id string) (types.Record, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrStoreDetached
	}

	var data string
	err = t.backend.db.QueryRow(
		"SELECT data FROM records WHERE resource = ? AND id = ?", t.name, n).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", t.name, n, err)
	}
	return decodeRecord(data)
}

// Set creates or updates a record. An empty id allocates the next id.
// The stored record always carries its id under "id".
func (t *Table) Set(id string, data types.Record) (string, error) {
	if data == nil {
		return "", types.ErrInvalidData
	}
	var n int64
	if id != "" {
		var err error
		if n, err = parseID(id); err != nil {
			return "", err
		}
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return "", types.ErrStoreDetached
	}

	tx, err := t.backend.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var last int64
	err = tx.QueryRow("SELECT last_id FROM sequences WHERE resource = ?", t.name).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("read sequence: %w", err)
	}
	if n == 0 {
		n = last + 1
	}
	if n > last {
		if _, err := tx.Exec(
			`INSERT INTO sequences (resource, last_id) VALUES (?, ?)
			 ON CONFLICT(resource) DO UPDATE SET last_id = excluded.last_id`, t.name, n); err != nil {
			return "", fmt.Errorf("write sequence: %w", err)
		}
	}

	rec := make(types.Record, len(data)+1)
	for k, v := range data {
		rec[k] = v
	}
	rec["id"] = n
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.Exec(
		`INSERT INTO records (resource, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(resource, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		t.name, n, string(body), now, now); err != nil {
		return "", fmt.Errorf("write %s %d: %w", t.name, n, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return strconv.FormatInt(n, 10), nil
}

// Delete removes a record by ID.
// Returns ErrInvalidID if id is malformed, ErrNotFound if absent.
func (t *Table) Delete(id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrStoreDetached
	}

	res, err := t.backend.db.Exec("DELETE FROM records WHERE resource = ? AND id = ?", t.name, n)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", t.name, n, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns records ordered by id. Each filter entry must equal the
// record field when both are rendered as text; an empty filter matches all.
func (t *Table) Fetch(filter map[string]any) ([]types.Record, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := t.backend.db.Query("SELECT data FROM records WHERE resource = ? ORDER BY id", t.name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []types.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		if matches(rec, filter) {
			out = append(out, rec)
		}
	}
	return out, rows.Err()
}

func matches(rec types.Record, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := rec[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, types.ErrInvalidID
	}
	return n, nil
}

func decodeRecord(data string) (types.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var rec types.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
