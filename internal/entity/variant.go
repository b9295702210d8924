// Package entity binds in-memory catalog records to the catalog REST
// backend: the record schema per variant, the transient editing overlay,
// the load/save/remove lifecycle, and the registry of variants.
package entity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// FieldID is the identifier field every persisted record carries.
const FieldID = "id"

// Variant declares one record type: its ordered schema and the backend
// resource it lives under. Variants carry no behaviour of their own.
type Variant struct {
	Kind   Kind
	Name   string
	Fields []string

	// Editable lists the fields sent on save. Nil means every schema field.
	Editable []string
}

// APIName returns the backend resource segment of the variant.
// A variant without one fails with ErrNotImplemented.
func (v Variant) APIName() (string, error) {
	if v.Name == "" {
		return "", fmt.Errorf("%w: variant declares no resource name", ErrNotImplemented)
	}
	return v.Name, nil
}

// URL returns the collection URL, /api/{apiName}/.
func (v Variant) URL() (string, error) {
	name, err := v.APIName()
	if err != nil {
		return "", err
	}
	if len(v.Fields) == 0 {
		return "", fmt.Errorf("%w: variant %q declares no fields", ErrNotImplemented, name)
	}
	return "/api/" + name + "/", nil
}

// ItemURL returns the URL of one record, /api/{apiName}/{id}/.
// The id must be a single path segment; anything else fails with
// ErrInvalidID.
func (v Variant) ItemURL(id string) (string, error) {
	base, err := v.URL()
	if err != nil {
		return "", err
	}
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\?#%") {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidID, id)
	}
	return base + id + "/", nil
}

// EditableFields returns the fields staged by the editing overlay.
func (v Variant) EditableFields() []string {
	if v.Editable != nil {
		return slices.Clone(v.Editable)
	}
	return slices.Clone(v.Fields)
}

// HasField reports whether name is part of the schema.
func (v Variant) HasField(name string) bool {
	return slices.Contains(v.Fields, name)
}

func (v Variant) String() string {
	if v.Name == "" {
		return "entity"
	}
	return v.Name
}
