package entity

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// State is the position of an Editing overlay in its edit cycle.
type State int

// Overlay states. Idle is the initial state; there is no terminal state.
const (
	StateIdle State = iota
	StateEditing
	StateSaving
	StateDeleting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	case StateDeleting:
		return "deleting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Editing stages field edits for one Entity and performs its writes.
//
// The working copy is separate from the entity's values, so other readers of
// the entity never observe half-edited fields. At most one request per entity
// is in flight: Save and Delete return ErrBusy while one is pending.
type Editing struct {
	mu      sync.Mutex
	state   State
	fields  []string
	working map[string]any
	owner   *Entity
}

func newEditing(owner *Entity, fields []string) *Editing {
	return &Editing{owner: owner, fields: fields}
}

// State returns the current state.
func (ed *Editing) State() State {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.state
}

// EditMode reports whether edits are being staged.
func (ed *Editing) EditMode() bool { return ed.State() == StateEditing }

// Loading reports whether a save or delete is in flight.
func (ed *Editing) Loading() bool {
	s := ed.State()
	return s == StateSaving || s == StateDeleting
}

// Fields returns the editable field names.
func (ed *Editing) Fields() []string { return slices.Clone(ed.fields) }

// Populate enters edit mode and copies each editable field present in
// values into the working copy. It does nothing while loading.
func (ed *Editing) Populate(values map[string]any) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.loadingLocked() {
		return
	}
	ed.populateLocked(values)
}

func (ed *Editing) populateLocked(values map[string]any) {
	ed.working = make(map[string]any, len(ed.fields))
	for _, f := range ed.fields {
		if v, ok := values[f]; ok {
			ed.working[f] = cloneValue(v)
		}
	}
	ed.state = StateEditing
}

// Set stages a value for an editable field. From Idle it first populates the
// working copy from the owning entity.
func (ed *Editing) Set(field string, value any) error {
	if !slices.Contains(ed.fields, field) {
		return fmt.Errorf("%w: %q is not editable on %s", types.ErrUnknownField, field, ed.owner.variant)
	}
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.loadingLocked() {
		return types.ErrBusy
	}
	if ed.state == StateIdle {
		ed.populateLocked(ed.owner.Values())
	}
	ed.working[field] = value
	return nil
}

// Value returns the staged value of a field.
func (ed *Editing) Value(field string) (any, bool) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	v, ok := ed.working[field]
	return v, ok
}

// Working returns a copy of the staged values.
func (ed *Editing) Working() map[string]any {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	out := make(map[string]any, len(ed.working))
	for k, v := range ed.working {
		out[k] = cloneValue(v)
	}
	return out
}

// Save sends the staged editable fields to the backend: POST to the
// collection when the owner has no id, PUT to the item URL otherwise.
// It returns the decoded response for the owner to merge. On failure the
// overlay returns to Editing with the working copy intact.
func (ed *Editing) Save(ctx context.Context) (map[string]any, error) {
	v := ed.owner.variant

	ed.mu.Lock()
	if ed.loadingLocked() {
		ed.mu.Unlock()
		return nil, types.ErrBusy
	}
	if ed.state == StateIdle {
		ed.populateLocked(ed.owner.Values())
	}

	method := http.MethodPost
	url, err := v.URL()
	if id, ok := ed.owner.ID(); ok && err == nil {
		method = http.MethodPut
		url, err = v.ItemURL(id)
	}
	if err != nil {
		ed.mu.Unlock()
		return nil, err
	}

	body := make(map[string]any, len(ed.fields))
	for _, f := range ed.fields {
		if val, ok := ed.working[f]; ok {
			body[f] = cloneValue(val)
		}
	}
	ed.state = StateSaving
	ed.mu.Unlock()

	raw, err := ed.owner.tr.Request(ctx, method, url, body)
	var rec map[string]any
	if err == nil {
		rec, err = decodeRecord(raw)
	}

	ed.mu.Lock()
	defer ed.mu.Unlock()
	if err != nil {
		ed.state = StateEditing
		return nil, fmt.Errorf("save %s: %w", v, err)
	}
	ed.state = StateIdle
	ed.working = nil
	return rec, nil
}

// Delete removes the owner's record from the backend. A record without an
// id fails with ErrInvalidID and no request is made. On failure the overlay
// returns to the state it was in.
func (ed *Editing) Delete(ctx context.Context) error {
	v := ed.owner.variant

	ed.mu.Lock()
	if ed.loadingLocked() {
		ed.mu.Unlock()
		return types.ErrBusy
	}
	id, ok := ed.owner.ID()
	if !ok {
		ed.mu.Unlock()
		return fmt.Errorf("delete %s: %w", v, types.ErrInvalidID)
	}
	url, err := v.ItemURL(id)
	if err != nil {
		ed.mu.Unlock()
		return err
	}
	prev := ed.state
	ed.state = StateDeleting
	ed.mu.Unlock()

	_, err = ed.owner.tr.Request(ctx, http.MethodDelete, url, nil)

	ed.mu.Lock()
	defer ed.mu.Unlock()
	if err != nil {
		ed.state = prev
		return fmt.Errorf("delete %s %s: %w", v, id, err)
	}
	ed.state = StateIdle
	ed.working = nil
	return nil
}

// Cancel leaves edit mode and abandons the working copy. The entity's
// values are untouched.
func (ed *Editing) Cancel() {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.state == StateEditing {
		ed.state = StateIdle
		ed.working = nil
	}
}

func (ed *Editing) loadingLocked() bool {
	return ed.state == StateSaving || ed.state == StateDeleting
}
