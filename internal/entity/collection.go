package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// Collection holds the entities of one variant that a caller is presenting:
// a loaded list, a batch of staged new records, or both.
type Collection struct {
	variant Variant
	tr      types.Transport

	mu      sync.Mutex
	records []*Entity
}

// NewCollection returns an empty collection.
func NewCollection(v Variant, tr types.Transport) *Collection {
	return &Collection{variant: v, tr: tr}
}

// LoadCollection returns a collection holding every record of v.
func LoadCollection(ctx context.Context, v Variant, tr types.Transport) (*Collection, error) {
	records, err := Load(ctx, v, tr)
	if err != nil {
		return nil, err
	}
	return &Collection{variant: v, tr: tr, records: records}, nil
}

// Variant returns the record type of the collection.
func (c *Collection) Variant() Variant { return c.variant }

// Records returns the entities in order.
func (c *Collection) Records() []*Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Entity, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of entities.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// AddAnother appends and returns a new, unsaved entity.
func (c *Collection) AddAnother() *Entity {
	e := New(c.variant, c.tr, nil)
	c.mu.Lock()
	c.records = append(c.records, e)
	c.mu.Unlock()
	return e
}

// Remove deletes e from the backend, then evicts every entity with the same
// id and detaches e. Nothing is evicted when the delete fails.
func (c *Collection) Remove(ctx context.Context, e *Entity) error {
	if err := e.Remove(ctx); err != nil {
		return err
	}
	id, _ := e.ID()
	c.mu.Lock()
	kept := c.records[:0]
	for _, r := range c.records {
		if r == e {
			continue
		}
		if rid, ok := r.ID(); ok && rid == id {
			r.Detach()
			continue
		}
		kept = append(kept, r)
	}
	clear(c.records[len(kept):])
	c.records = kept
	c.mu.Unlock()
	e.Detach()
	return nil
}

// Discard evicts e without touching the backend. It is how a staged record
// that was never saved leaves the collection.
func (c *Collection) Discard(e *Entity) {
	c.mu.Lock()
	for i, r := range c.records {
		if r == e {
			c.records = append(c.records[:i], c.records[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	e.Detach()
}

// SaveAll saves every entity in order and returns the joined failures.
// One failure does not stop the remaining saves.
func (c *Collection) SaveAll(ctx context.Context) error {
	var errs []error
	for i, e := range c.Records() {
		if err := e.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
