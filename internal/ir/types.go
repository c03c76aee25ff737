package ir

import "strings"

// MethodID is the fully qualified identity of a method, unique per
// declaring type, name and signature (e.g. "Calc.add(II)I").
type MethodID string

// ObjectRef is a host heap handle.
type ObjectRef int32

// NullRef is the absent handle, used for static calls.
const NullRef ObjectRef = -1

// TypeRef names the declaring type of a static field.
type TypeRef string

// Constructor and type-initializer method names.
const (
	ConstructorName = "<init>"
	InitializerName = "<clinit>"
)

// MethodInfo is what the host knows about a method at call entry.
type MethodInfo struct {
	ID            MethodID `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Static        bool     `json:"static,omitempty" yaml:"static"`
	ArrayArgument bool     `json:"array_argument,omitempty" yaml:"array_argument"`
	ArrayReturn   bool     `json:"array_return,omitempty" yaml:"array_return"`
	Instructions  int      `json:"instructions,omitempty" yaml:"instructions"`
}

// SimpleName returns Name, falling back to the segment of ID between the
// last '.' before the signature and the '('.
func (m MethodInfo) SimpleName() string {
	if m.Name != "" {
		return m.Name
	}
	id := string(m.ID)
	if i := strings.IndexByte(id, '('); i >= 0 {
		id = id[:i]
	}
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		id = id[i+1:]
	}
	return id
}

// FieldKey identifies an instance field on a specific object.
type FieldKey struct {
	Owner ObjectRef
	Field string
}

// StaticKey identifies a static field of a declaring type.
type StaticKey struct {
	Type  TypeRef
	Field string
}
