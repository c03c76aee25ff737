package summary

import "github.com/roach88/summa/internal/ir"

// LiveState is the host heap as seen by matching and replay.
//
// Lookups report an error when the object, type or field does not exist.
// Text reports the content of a text object and false for any other handle.
type LiveState interface {
	Field(owner ir.ObjectRef, name string) (ir.Value, error)
	StaticField(typ ir.TypeRef, name string) (ir.Value, error)
	SetField(owner ir.ObjectRef, name string, v ir.Value) error
	SetStaticField(typ ir.TypeRef, name string, v ir.Value) error
	Frozen(owner ir.ObjectRef) bool
	StaticFrozen(typ ir.TypeRef) bool
	Text(ref ir.ObjectRef) (string, bool)
}

// captureArgument converts a text object handle to its content so later
// matching compares by content, not identity.
func captureArgument(state LiveState, v ir.Value) ir.Value {
	ref, ok := v.(ir.Ref)
	if !ok || state == nil {
		return v
	}
	if s, ok := state.Text(ir.ObjectRef(ref)); ok {
		return ir.Text(s)
	}
	return v
}

// argumentMatches compares a recorded argument to a candidate argument.
// A recorded text value matches a candidate text value or text object
// with equal content.
func argumentMatches(state LiveState, recorded, candidate ir.Value) bool {
	if text, ok := recorded.(ir.Text); ok {
		switch c := candidate.(type) {
		case ir.Text:
			return c == text
		case ir.Ref:
			if state == nil {
				return false
			}
			s, ok := state.Text(ir.ObjectRef(c))
			return ok && s == string(text)
		default:
			return false
		}
	}
	return ir.Equal(recorded, candidate)
}
