package summary

import "github.com/roach88/summa/internal/ir"

// InstanceRead is one first-observed instance field value.
type InstanceRead struct {
	Owner ir.ObjectRef
	Field string
	Value ir.Value
}

// StaticRead is one first-observed static field value.
type StaticRead struct {
	Type  ir.TypeRef
	Field string
	Value ir.Value
}

// Footprint is the input context a summary depends on: arguments, callee,
// the first value observed for each field read, and whether the call ran
// with a single runnable thread.
//
// Reads are first-read-wins. Merge is the one exception: entries folded in
// from a replayed inner summary overwrite existing ones.
type Footprint struct {
	args     []ir.Value
	callee   ir.ObjectRef
	isolated bool

	instance      map[ir.FieldKey]int
	instanceReads []InstanceRead
	static        map[ir.StaticKey]int
	staticReads   []StaticRead
}

// NewFootprint captures the call-entry context. Text object arguments
// are captured by content. Pass ir.NullRef as callee for static calls.
func NewFootprint(state LiveState, args []ir.Value, callee ir.ObjectRef, isolated bool) *Footprint {
	captured := make([]ir.Value, len(args))
	for i, a := range args {
		captured[i] = captureArgument(state, a)
	}
	return &Footprint{
		args:     captured,
		callee:   callee,
		isolated: isolated,
		instance: make(map[ir.FieldKey]int),
		static:   make(map[ir.StaticKey]int),
	}
}

// Args returns the captured arguments.
func (f *Footprint) Args() []ir.Value { return f.args }

// Callee returns the callee handle or ir.NullRef.
func (f *Footprint) Callee() ir.ObjectRef { return f.callee }

// Isolated reports whether the call was recorded with one runnable thread.
func (f *Footprint) Isolated() bool { return f.isolated }

// InstanceReads returns instance dependencies in first-observed order.
func (f *Footprint) InstanceReads() []InstanceRead { return f.instanceReads }

// StaticReads returns static dependencies in first-observed order.
func (f *Footprint) StaticReads() []StaticRead { return f.staticReads }

// Size is the number of field dependencies.
func (f *Footprint) Size() int { return len(f.instanceReads) + len(f.staticReads) }

// ObserveInstanceRead records owner.field = v unless owner.field was
// already observed.
func (f *Footprint) ObserveInstanceRead(owner ir.ObjectRef, field string, v ir.Value) {
	key := ir.FieldKey{Owner: owner, Field: field}
	if _, ok := f.instance[key]; ok {
		return
	}
	f.instance[key] = len(f.instanceReads)
	f.instanceReads = append(f.instanceReads, InstanceRead{Owner: owner, Field: field, Value: v})
}

// ObserveStaticRead records typ.field = v unless typ.field was already
// observed.
func (f *Footprint) ObserveStaticRead(typ ir.TypeRef, field string, v ir.Value) {
	key := ir.StaticKey{Type: typ, Field: field}
	if _, ok := f.static[key]; ok {
		return
	}
	f.static[key] = len(f.staticReads)
	f.staticReads = append(f.staticReads, StaticRead{Type: typ, Field: field, Value: v})
}

// Merge folds other's field dependencies into f. Entries of other replace
// entries of f with the same key. Args, callee and isolation of f are kept.
func (f *Footprint) Merge(other *Footprint) {
	for _, r := range other.instanceReads {
		key := ir.FieldKey{Owner: r.Owner, Field: r.Field}
		if i, ok := f.instance[key]; ok {
			f.instanceReads[i].Value = r.Value
			continue
		}
		f.instance[key] = len(f.instanceReads)
		f.instanceReads = append(f.instanceReads, r)
	}
	for _, r := range other.staticReads {
		key := ir.StaticKey{Type: r.Type, Field: r.Field}
		if i, ok := f.static[key]; ok {
			f.staticReads[i].Value = r.Value
			continue
		}
		f.static[key] = len(f.staticReads)
		f.staticReads = append(f.staticReads, r)
	}
}

// Matches reports whether a call with the given arguments, callee and
// isolation can reuse a summary recorded under f, given the live state.
//
// Checks run in order: isolation, arguments, callee identity, static
// dependencies, instance dependencies. A dependency whose field no longer
// exists in the live state does not match.
func (f *Footprint) Matches(state LiveState, args []ir.Value, callee ir.ObjectRef, isolated bool) bool {
	if f.isolated != isolated {
		return false
	}
	if len(args) != len(f.args) {
		return false
	}
	for i, recorded := range f.args {
		if !argumentMatches(state, recorded, args[i]) {
			return false
		}
	}
	if f.callee != callee {
		return false
	}
	for _, r := range f.staticReads {
		live, err := state.StaticField(r.Type, r.Field)
		if err != nil || !ir.Equal(r.Value, live) {
			return false
		}
	}
	for _, r := range f.instanceReads {
		live, err := state.Field(r.Owner, r.Field)
		if err != nil || !ir.Equal(r.Value, live) {
			return false
		}
	}
	return true
}
