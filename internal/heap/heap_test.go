package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/summa/internal/ir"
)

func TestFieldReadWrite(t *testing.T) {
	h := New()
	ref := h.Alloc(&Object{Class: "Counter", Fields: map[string]ir.Value{"count": ir.Int(10)}})

	v, err := h.Field(ref, "count")
	require.NoError(t, err)
	assert.Equal(t, ir.Int(10), v)

	require.NoError(t, h.SetField(ref, "count", ir.Int(11)))
	v, err = h.Field(ref, "count")
	require.NoError(t, err)
	assert.Equal(t, ir.Int(11), v)
}

func TestFieldErrors(t *testing.T) {
	h := New()
	ref := h.Alloc(&Object{Class: "Counter", Fields: map[string]ir.Value{"count": ir.Int(0)}})

	_, err := h.Field(99, "count")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.Field(ref, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = h.SetField(ref, "missing", ir.Int(1))
	assert.ErrorIs(t, err, ErrNotFound, "objects do not grow fields")

	h.objects[ref].Frozen = true
	err = h.SetField(ref, "count", ir.Int(1))
	assert.ErrorIs(t, err, ErrFrozen)
	assert.True(t, h.Frozen(ref))
	assert.False(t, h.Frozen(99))
}

func TestStatics(t *testing.T) {
	h := New()
	h.PutStatic("Config", &StaticArea{Fields: map[string]ir.Value{"limit": ir.Int(3)}, Arrays: map[string]bool{"table": true}})

	v, err := h.StaticField("Config", "limit")
	require.NoError(t, err)
	assert.Equal(t, ir.Int(3), v)

	require.NoError(t, h.SetStaticField("Config", "limit", ir.Int(4)))
	v, err = h.StaticField("Config", "limit")
	require.NoError(t, err)
	assert.Equal(t, ir.Int(4), v)

	_, err = h.StaticField("Other", "limit")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, h.IsStaticArrayField("Config", "table"))
	assert.False(t, h.IsStaticArrayField("Config", "limit"))

	area, ok := h.Static("Config")
	require.True(t, ok)
	area.Frozen = true
	assert.True(t, h.StaticFrozen("Config"))
	assert.ErrorIs(t, h.SetStaticField("Config", "limit", ir.Int(5)), ErrFrozen)
}

func TestTextObjects(t *testing.T) {
	h := New()
	s := h.NewText("hello")
	plain := h.Alloc(&Object{Class: "Box"})

	text, ok := h.Text(s)
	assert.True(t, ok)
	assert.Equal(t, "hello", text)

	_, ok = h.Text(plain)
	assert.False(t, ok)
	_, ok = h.Text(404)
	assert.False(t, ok)
}

func TestPutAdvancesAllocator(t *testing.T) {
	h := New()
	require.NoError(t, h.Put(5, &Object{Class: "A"}))
	ref := h.Alloc(&Object{Class: "B"})
	assert.Equal(t, ir.ObjectRef(6), ref)
	assert.Equal(t, []ir.ObjectRef{5, 6}, h.Refs())

	assert.Error(t, h.Put(ir.NullRef, &Object{}))
}

func TestSharedAndArrayFlags(t *testing.T) {
	h := New()
	ref := h.Alloc(&Object{Class: "Buf", Shared: true, Arrays: map[string]bool{"items": true}, Fields: map[string]ir.Value{"items": ir.Ref(9)}})
	assert.True(t, h.Shared(ref))
	assert.True(t, h.IsArrayField(ref, "items"))
	assert.False(t, h.IsArrayField(ref, "size"))
}
