package entity

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// Registry maps record kinds and their names to variants. It is built once
// and never mutated afterwards.
type Registry struct {
	byKind map[Kind]Variant
	byName map[string]Variant
	order  []Variant
}

// NewRegistry builds a registry over vs. It panics on a duplicate kind or
// name, or on a variant without a resource name: those are programming errors.
func NewRegistry(vs ...Variant) *Registry {
	r := &Registry{
		byKind: make(map[Kind]Variant, len(vs)),
		byName: make(map[string]Variant, len(vs)),
	}
	for _, v := range vs {
		name, err := v.APIName()
		if err != nil {
			panic(err)
		}
		if _, dup := r.byKind[v.Kind]; dup {
			panic(fmt.Sprintf("entity: duplicate kind %v", v.Kind))
		}
		if _, dup := r.byName[name]; dup {
			panic(fmt.Sprintf("entity: duplicate variant name %q", name))
		}
		r.byKind[v.Kind] = v
		r.byName[name] = v
		r.order = append(r.order, v)
	}
	return r
}

// Models is the registry of every catalog variant.
var Models = NewRegistry(Database, Table, Grouping, Column)

// Resolve returns the variant named name (case-insensitive).
// An unknown name fails with ErrUnknownModel.
func (r *Registry) Resolve(name string) (Variant, error) {
	v, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q (valid: %s)", types.ErrUnknownModel, name, strings.Join(r.Names(), ", "))
	}
	return v, nil
}

// Lookup returns the variant registered for kind.
func (r *Registry) Lookup(kind Kind) (Variant, bool) {
	v, ok := r.byKind[kind]
	return v, ok
}

// Variants returns the registered variants in registration order.
func (r *Registry) Variants() []Variant {
	out := make([]Variant, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns the registered variant names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, v := range r.order {
		names[i] = v.Name
	}
	return names
}

// Resolve looks name up in Models.
func Resolve(name string) (Variant, error) { return Models.Resolve(name) }
