package summary

import (
	"fmt"

	"github.com/roach88/summa/internal/ir"
)

// InstanceWrite is the last value written to an instance field.
type InstanceWrite struct {
	Owner ir.ObjectRef
	Field string
	Kind  ir.Kind
	Value ir.Value
}

// StaticWrite is the last value written to a static field.
type StaticWrite struct {
	Type  ir.TypeRef
	Field string
	Kind  ir.Kind
	Value ir.Value
}

// Ledger accumulates the observable effects of a call: the last write to
// each field and the return value. Later writes overwrite earlier ones.
type Ledger struct {
	args []ir.Value

	instance       map[ir.FieldKey]int
	instanceWrites []InstanceWrite
	static         map[ir.StaticKey]int
	staticWrites   []StaticWrite

	ret ir.Value
}

// NewLedger starts an empty ledger. args is kept for reporting only.
func NewLedger(args []ir.Value) *Ledger {
	return &Ledger{
		args:     append([]ir.Value(nil), args...),
		instance: make(map[ir.FieldKey]int),
		static:   make(map[ir.StaticKey]int),
	}
}

// Args returns the call arguments the ledger was created with.
func (l *Ledger) Args() []ir.Value { return l.args }

// InstanceWrites returns instance writes in first-written order.
func (l *Ledger) InstanceWrites() []InstanceWrite { return l.instanceWrites }

// StaticWrites returns static writes in first-written order.
func (l *Ledger) StaticWrites() []StaticWrite { return l.staticWrites }

// Return returns the recorded return value, nil for void.
func (l *Ledger) Return() ir.Value { return l.ret }

// Size is the number of recorded field writes.
func (l *Ledger) Size() int { return len(l.instanceWrites) + len(l.staticWrites) }

// SetReturn records the return value; nil means void.
func (l *Ledger) SetReturn(v ir.Value) { l.ret = v }

// AddInstanceWrite records owner.field = v with the field's kind.
func (l *Ledger) AddInstanceWrite(owner ir.ObjectRef, field string, kind ir.Kind, v ir.Value) {
	w := InstanceWrite{Owner: owner, Field: field, Kind: kind, Value: v}
	key := ir.FieldKey{Owner: owner, Field: field}
	if i, ok := l.instance[key]; ok {
		l.instanceWrites[i] = w
		return
	}
	l.instance[key] = len(l.instanceWrites)
	l.instanceWrites = append(l.instanceWrites, w)
}

// AddStaticWrite records typ.field = v with the field's kind.
func (l *Ledger) AddStaticWrite(typ ir.TypeRef, field string, kind ir.Kind, v ir.Value) {
	w := StaticWrite{Type: typ, Field: field, Kind: kind, Value: v}
	key := ir.StaticKey{Type: typ, Field: field}
	if i, ok := l.static[key]; ok {
		l.staticWrites[i] = w
		return
	}
	l.static[key] = len(l.staticWrites)
	l.staticWrites = append(l.staticWrites, w)
}

// Merge folds other's writes into l; other's entries win. The return value
// of l is left unchanged.
func (l *Ledger) Merge(other *Ledger) {
	for _, w := range other.instanceWrites {
		l.AddInstanceWrite(w.Owner, w.Field, w.Kind, w.Value)
	}
	for _, w := range other.staticWrites {
		l.AddStaticWrite(w.Type, w.Field, w.Kind, w.Value)
	}
}

// AnyTargetFrozen reports whether any write target is frozen in the live
// state. A frozen target makes the summary unusable for replay.
func (l *Ledger) AnyTargetFrozen(state LiveState) bool {
	for _, w := range l.instanceWrites {
		if state.Frozen(w.Owner) {
			return true
		}
	}
	for _, w := range l.staticWrites {
		if state.StaticFrozen(w.Type) {
			return true
		}
	}
	return false
}

// Apply writes every recorded value into the live state using its recorded
// kind and returns the recorded return value. Instance writes are applied
// before static writes, each in first-written order.
func (l *Ledger) Apply(state LiveState) (ir.Value, error) {
	for _, w := range l.instanceWrites {
		v, err := ir.Coerce(w.Kind, w.Value)
		if err != nil {
			return nil, fmt.Errorf("apply %d.%s: %w", w.Owner, w.Field, err)
		}
		if err := state.SetField(w.Owner, w.Field, v); err != nil {
			return nil, fmt.Errorf("apply %d.%s: %w", w.Owner, w.Field, err)
		}
	}
	for _, w := range l.staticWrites {
		v, err := ir.Coerce(w.Kind, w.Value)
		if err != nil {
			return nil, fmt.Errorf("apply %s.%s: %w", w.Type, w.Field, err)
		}
		if err := state.SetStaticField(w.Type, w.Field, v); err != nil {
			return nil, fmt.Errorf("apply %s.%s: %w", w.Type, w.Field, err)
		}
	}
	return l.ret, nil
}
