// Package heap is an in-memory host heap: objects with named fields, text
// objects, and per-type static areas, each with frozen and shared flags.
//
// It is the reference live state the harness drives the engine against.
package heap

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/summa/internal/ir"
)

// ErrNotFound is returned for unknown objects, types or fields.
var ErrNotFound = errors.New("heap: not found")

// ErrFrozen is returned when writing to a frozen object or static area.
var ErrFrozen = errors.New("heap: frozen")

// Object is a heap object.
type Object struct {
	Class  string
	Fields map[string]ir.Value
	// Arrays names the fields holding array references.
	Arrays map[string]bool
	Text   *string
	Frozen bool
	Shared bool
}

// StaticArea holds the static fields of one type.
type StaticArea struct {
	Fields map[string]ir.Value
	Arrays map[string]bool
	Frozen bool
}

// Heap maps handles to objects and type names to static areas.
type Heap struct {
	objects map[ir.ObjectRef]*Object
	statics map[ir.TypeRef]*StaticArea
	next    ir.ObjectRef
}

// New creates an empty heap. Handles are allocated from 1.
func New() *Heap {
	return &Heap{
		objects: make(map[ir.ObjectRef]*Object),
		statics: make(map[ir.TypeRef]*StaticArea),
		next:    1,
	}
}

// Put installs obj under ref, replacing any previous object.
func (h *Heap) Put(ref ir.ObjectRef, obj *Object) error {
	if ref == ir.NullRef || ref < 0 {
		return fmt.Errorf("heap: invalid handle %d", ref)
	}
	if obj.Fields == nil {
		obj.Fields = make(map[string]ir.Value)
	}
	h.objects[ref] = obj
	if ref >= h.next {
		h.next = ref + 1
	}
	return nil
}

// Alloc installs obj under a fresh handle.
func (h *Heap) Alloc(obj *Object) ir.ObjectRef {
	ref := h.next
	_ = h.Put(ref, obj)
	return ref
}

// NewText allocates a text object holding s.
func (h *Heap) NewText(s string) ir.ObjectRef {
	return h.Alloc(&Object{Class: "java.lang.String", Text: &s})
}

// PutStatic installs the static area of typ.
func (h *Heap) PutStatic(typ ir.TypeRef, area *StaticArea) {
	if area.Fields == nil {
		area.Fields = make(map[string]ir.Value)
	}
	h.statics[typ] = area
}

// Object returns the object under ref.
func (h *Heap) Object(ref ir.ObjectRef) (*Object, bool) {
	obj, ok := h.objects[ref]
	return obj, ok
}

// Static returns the static area of typ.
func (h *Heap) Static(typ ir.TypeRef) (*StaticArea, bool) {
	area, ok := h.statics[typ]
	return area, ok
}

// Field reads owner.name.
func (h *Heap) Field(owner ir.ObjectRef, name string) (ir.Value, error) {
	obj, ok := h.objects[owner]
	if !ok {
		return nil, fmt.Errorf("object %d: %w", owner, ErrNotFound)
	}
	v, ok := obj.Fields[name]
	if !ok {
		return nil, fmt.Errorf("field %d.%s: %w", owner, name, ErrNotFound)
	}
	return v, nil
}

// StaticField reads typ.name.
func (h *Heap) StaticField(typ ir.TypeRef, name string) (ir.Value, error) {
	area, ok := h.statics[typ]
	if !ok {
		return nil, fmt.Errorf("type %s: %w", typ, ErrNotFound)
	}
	v, ok := area.Fields[name]
	if !ok {
		return nil, fmt.Errorf("static %s.%s: %w", typ, name, ErrNotFound)
	}
	return v, nil
}

// SetField writes owner.name. The field must already exist; objects do
// not grow fields.
func (h *Heap) SetField(owner ir.ObjectRef, name string, v ir.Value) error {
	obj, ok := h.objects[owner]
	if !ok {
		return fmt.Errorf("object %d: %w", owner, ErrNotFound)
	}
	if _, ok := obj.Fields[name]; !ok {
		return fmt.Errorf("field %d.%s: %w", owner, name, ErrNotFound)
	}
	if obj.Frozen {
		return fmt.Errorf("object %d: %w", owner, ErrFrozen)
	}
	obj.Fields[name] = v
	return nil
}

// SetStaticField writes typ.name. The field must already exist.
func (h *Heap) SetStaticField(typ ir.TypeRef, name string, v ir.Value) error {
	area, ok := h.statics[typ]
	if !ok {
		return fmt.Errorf("type %s: %w", typ, ErrNotFound)
	}
	if _, ok := area.Fields[name]; !ok {
		return fmt.Errorf("static %s.%s: %w", typ, name, ErrNotFound)
	}
	if area.Frozen {
		return fmt.Errorf("type %s: %w", typ, ErrFrozen)
	}
	area.Fields[name] = v
	return nil
}

// Frozen reports whether owner is frozen. Unknown handles are not frozen.
func (h *Heap) Frozen(owner ir.ObjectRef) bool {
	obj, ok := h.objects[owner]
	return ok && obj.Frozen
}

// StaticFrozen reports whether the static area of typ is frozen.
func (h *Heap) StaticFrozen(typ ir.TypeRef) bool {
	area, ok := h.statics[typ]
	return ok && area.Frozen
}

// Text returns the content of a text object.
func (h *Heap) Text(ref ir.ObjectRef) (string, bool) {
	obj, ok := h.objects[ref]
	if !ok || obj.Text == nil {
		return "", false
	}
	return *obj.Text, true
}

// Shared reports whether owner is reachable from more than one thread.
func (h *Heap) Shared(owner ir.ObjectRef) bool {
	obj, ok := h.objects[owner]
	return ok && obj.Shared
}

// IsArrayField reports whether owner.name holds an array reference.
func (h *Heap) IsArrayField(owner ir.ObjectRef, name string) bool {
	obj, ok := h.objects[owner]
	return ok && obj.Arrays[name]
}

// IsStaticArrayField reports whether typ.name holds an array reference.
func (h *Heap) IsStaticArrayField(typ ir.TypeRef, name string) bool {
	area, ok := h.statics[typ]
	return ok && area.Arrays[name]
}

// Refs returns all object handles in ascending order.
func (h *Heap) Refs() []ir.ObjectRef {
	refs := make([]ir.ObjectRef, 0, len(h.objects))
	for ref := range h.objects {
		refs = append(refs, ref)
	}
	slices.Sort(refs)
	return refs
}
