package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/summa/internal/heap"
	"github.com/roach88/summa/internal/ir"
)

func counterHeap(t *testing.T, count int32) (*heap.Heap, ir.ObjectRef) {
	t.Helper()
	h := heap.New()
	ref := h.Alloc(&heap.Object{Class: "Counter", Fields: map[string]ir.Value{"count": ir.Int(count)}})
	h.PutStatic("Config", &heap.StaticArea{Fields: map[string]ir.Value{"limit": ir.Int(3)}})
	return h, ref
}

func TestFootprintFirstReadWins(t *testing.T) {
	h, ref := counterHeap(t, 10)
	fp := NewFootprint(h, nil, ref, true)

	fp.ObserveInstanceRead(ref, "count", ir.Int(10))
	fp.ObserveInstanceRead(ref, "count", ir.Int(11))
	fp.ObserveStaticRead("Config", "limit", ir.Int(3))
	fp.ObserveStaticRead("Config", "limit", ir.Int(4))

	require.Len(t, fp.InstanceReads(), 1)
	assert.Equal(t, ir.Int(10), fp.InstanceReads()[0].Value)
	require.Len(t, fp.StaticReads(), 1)
	assert.Equal(t, ir.Int(3), fp.StaticReads()[0].Value)
	assert.Equal(t, 2, fp.Size())
}

func TestFootprintStaticKeyIncludesType(t *testing.T) {
	fp := NewFootprint(nil, nil, ir.NullRef, true)
	fp.ObserveStaticRead("A", "count", ir.Int(1))
	fp.ObserveStaticRead("B", "count", ir.Int(2))
	assert.Len(t, fp.StaticReads(), 2)
}

func TestFootprintMergeInnerWins(t *testing.T) {
	outer := NewFootprint(nil, []ir.Value{ir.Int(1)}, ir.NullRef, true)
	outer.ObserveInstanceRead(1, "a", ir.Int(1))
	outer.ObserveStaticRead("S", "x", ir.Int(1))

	inner := NewFootprint(nil, []ir.Value{ir.Int(9)}, 7, false)
	inner.ObserveInstanceRead(1, "a", ir.Int(2))
	inner.ObserveInstanceRead(1, "b", ir.Int(3))
	inner.ObserveStaticRead("S", "x", ir.Int(5))

	outer.Merge(inner)

	assert.Equal(t, []InstanceRead{
		{Owner: 1, Field: "a", Value: ir.Int(2)},
		{Owner: 1, Field: "b", Value: ir.Int(3)},
	}, outer.InstanceReads())
	assert.Equal(t, []StaticRead{{Type: "S", Field: "x", Value: ir.Int(5)}}, outer.StaticReads())
	assert.Equal(t, []ir.Value{ir.Int(1)}, outer.Args(), "merge keeps outer args")
	assert.Equal(t, ir.NullRef, outer.Callee())
	assert.True(t, outer.Isolated())

	// A later own read of a merged key is still ignored.
	outer.ObserveInstanceRead(1, "b", ir.Int(99))
	assert.Equal(t, ir.Int(3), outer.InstanceReads()[1].Value)
}

func TestFootprintMatches(t *testing.T) {
	h, ref := counterHeap(t, 10)

	fp := NewFootprint(h, []ir.Value{ir.Int(2), ir.Null{}}, ref, true)
	fp.ObserveInstanceRead(ref, "count", ir.Int(10))
	fp.ObserveStaticRead("Config", "limit", ir.Int(3))

	tests := []struct {
		name     string
		mutate   func()
		args     []ir.Value
		callee   ir.ObjectRef
		isolated bool
		want     bool
	}{
		{"identical", nil, []ir.Value{ir.Int(2), ir.Null{}}, ref, true, true},
		{"isolation differs", nil, []ir.Value{ir.Int(2), ir.Null{}}, ref, false, false},
		{"argument differs", nil, []ir.Value{ir.Int(3), ir.Null{}}, ref, true, false},
		{"null matches only null", nil, []ir.Value{ir.Int(2), ir.Ref(ref)}, ref, true, false},
		{"arity differs", nil, []ir.Value{ir.Int(2)}, ref, true, false},
		{"callee differs", nil, []ir.Value{ir.Int(2), ir.Null{}}, 42, true, false},
		{"static dependency changed", func() {
			require.NoError(t, h.SetStaticField("Config", "limit", ir.Int(4)))
		}, []ir.Value{ir.Int(2), ir.Null{}}, ref, true, false},
		{"instance dependency changed", func() {
			require.NoError(t, h.SetStaticField("Config", "limit", ir.Int(3)))
			require.NoError(t, h.SetField(ref, "count", ir.Int(11)))
		}, []ir.Value{ir.Int(2), ir.Null{}}, ref, true, false},
		{"restored", func() {
			require.NoError(t, h.SetField(ref, "count", ir.Int(10)))
		}, []ir.Value{ir.Int(2), ir.Null{}}, ref, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate != nil {
				tt.mutate()
			}
			assert.Equal(t, tt.want, fp.Matches(h, tt.args, tt.callee, tt.isolated))
		})
	}
}

func TestFootprintMissingDependencyDoesNotMatch(t *testing.T) {
	h := heap.New()
	fp := NewFootprint(h, nil, ir.NullRef, true)
	fp.ObserveInstanceRead(5, "gone", ir.Int(1))
	assert.False(t, fp.Matches(h, nil, ir.NullRef, true))
}

func TestFootprintTextArgumentsCompareByContent(t *testing.T) {
	h := heap.New()
	first := h.NewText("hello")
	second := h.NewText("hello")
	other := h.NewText("bye")

	fp := NewFootprint(h, []ir.Value{ir.Ref(first)}, ir.NullRef, true)
	assert.Equal(t, []ir.Value{ir.Text("hello")}, fp.Args(), "text objects are captured by content")

	assert.True(t, fp.Matches(h, []ir.Value{ir.Ref(second)}, ir.NullRef, true))
	assert.True(t, fp.Matches(h, []ir.Value{ir.Text("hello")}, ir.NullRef, true))
	assert.False(t, fp.Matches(h, []ir.Value{ir.Ref(other)}, ir.NullRef, true))
	assert.False(t, fp.Matches(h, []ir.Value{ir.Null{}}, ir.NullRef, true))
}

func TestFootprintNonTextRefsCompareByIdentity(t *testing.T) {
	h := heap.New()
	a := h.Alloc(&heap.Object{Class: "Box"})
	b := h.Alloc(&heap.Object{Class: "Box"})

	fp := NewFootprint(h, []ir.Value{ir.Ref(a)}, ir.NullRef, true)
	assert.True(t, fp.Matches(h, []ir.Value{ir.Ref(a)}, ir.NullRef, true))
	assert.False(t, fp.Matches(h, []ir.Value{ir.Ref(b)}, ir.NullRef, true))
}
