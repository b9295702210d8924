package entity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// Entity is one catalog record bound to its backend resource.
//
// Its values are always the last copy returned by the backend, or locally
// assigned defaults for a record that was never saved. User edits are staged
// on Editing and only reach the values through a successful Save.
type Entity struct {
	mu       sync.Mutex
	variant  Variant
	tr       types.Transport
	values   map[string]any
	detached bool

	Editing *Editing
}

// New creates an entity of variant v. When raw is non-nil its schema fields
// populate the entity; nil raw creates an empty record for a create flow.
func New(v Variant, tr types.Transport, raw map[string]any) *Entity {
	e := &Entity{
		variant: v,
		tr:      tr,
		values:  make(map[string]any, len(v.Fields)),
	}
	e.Editing = newEditing(e, v.EditableFields())
	if raw != nil {
		e.Update(raw)
	}
	return e
}

// Variant returns the record type of the entity.
func (e *Entity) Variant() Variant { return e.variant }

// Update overwrites every schema field with the matching entry of values.
// Schema fields missing from values are cleared; other keys are ignored.
func (e *Entity) Update(values map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updateLocked(values)
}

func (e *Entity) updateLocked(values map[string]any) {
	for _, f := range e.variant.Fields {
		if v, ok := values[f]; ok {
			e.values[f] = cloneValue(v)
		} else {
			delete(e.values, f)
		}
	}
}

// Get returns the authoritative value of a field.
func (e *Entity) Get(field string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.values[field]
	return v, ok
}

// Set assigns a local default to a field. It is meant for records that have
// not been saved yet; edits to persisted records go through Editing.
func (e *Entity) Set(field string, value any) error {
	if !e.variant.HasField(field) {
		return fmt.Errorf("%w: %s has no field %q", types.ErrUnknownField, e.variant, field)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[field] = value
	return nil
}

// ID returns the record identifier in its decimal wire form.
// The second result is false for a record that was never persisted.
func (e *Entity) ID() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return formatID(e.values[FieldID])
}

// Values returns a deep copy of the authoritative field values.
func (e *Entity) Values() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		out[k] = cloneValue(v)
	}
	return out
}

// MarshalJSON encodes the authoritative values.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Values())
}

// Edit enters edit mode seeded with the current values.
func (e *Entity) Edit() {
	e.Editing.Populate(e.Values())
}

// Cancel leaves edit mode without persisting anything.
func (e *Entity) Cancel() {
	e.Editing.Cancel()
}

// Save persists the staged edits and merges the backend's canonical copy,
// including any server-assigned id, into the entity.
// Nothing is merged when ctx is done or the entity was detached while the
// request was in flight.
func (e *Entity) Save(ctx context.Context) error {
	rec, err := e.Editing.Save(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return fmt.Errorf("save %s: %w", e.variant, types.ErrDetached)
	}
	if rec != nil {
		e.updateLocked(rec)
	}
	return nil
}

// Remove deletes the record from the backend.
func (e *Entity) Remove(ctx context.Context) error {
	return e.Editing.Delete(ctx)
}

// Detach marks the entity as evicted from its collection. Responses that
// arrive afterwards are dropped.
func (e *Entity) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detached = true
}

// Detached reports whether Detach was called.
func (e *Entity) Detached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detached
}

// Load fetches the collection of variant v and builds one entity per element
// of the results array. Any failure is returned to the caller.
func Load(ctx context.Context, v Variant, tr types.Transport) ([]*Entity, error) {
	url, err := v.URL()
	if err != nil {
		return nil, err
	}
	raw, err := tr.Request(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", v, err)
	}

	var page struct {
		Results *[]json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("load %s: decode page: %w", v, err)
	}
	if page.Results == nil {
		return nil, fmt.Errorf("load %s: decode page: %w: missing results", v, types.ErrInvalidData)
	}
	results := *page.Results

	entities := make([]*Entity, 0, len(results))
	for i, item := range results {
		rec, err := decodeRecord(item)
		if err != nil {
			return nil, fmt.Errorf("load %s: result %d: %w", v, i, err)
		}
		entities = append(entities, New(v, tr, rec))
	}
	return entities, nil
}

// Find fetches a single record of variant v by id.
func Find(ctx context.Context, v Variant, tr types.Transport, id string) (*Entity, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	url, err := v.ItemURL(id)
	if err != nil {
		return nil, err
	}
	raw, err := tr.Request(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", v, id, err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", v, id, err)
	}
	return New(v, tr, rec), nil
}

// decodeRecord decodes a JSON object keeping numbers as json.Number so ids
// and numeric fields round-trip unchanged. A nil payload decodes to nil.
func decodeRecord(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("decode record: %w", types.ErrInvalidData)
	}
	return rec, nil
}

func formatID(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case json.Number:
		return id.String(), id != ""
	case string:
		return id, id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	default:
		return fmt.Sprint(id), true
	}
}

// cloneValue deep-copies the JSON container types so staged or returned
// values never alias the entity's own.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = cloneValue(x)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = cloneValue(x)
		}
		return s
	default:
		return v
	}
}
