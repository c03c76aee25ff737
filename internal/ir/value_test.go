package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = Bool(true)
	var _ Value = Byte(1)
	var _ Value = Char('a')
	var _ Value = Short(2)
	var _ Value = Int(3)
	var _ Value = Long(4)
	var _ Value = Float(1.5)
	var _ Value = Double(2.5)
	var _ Value = Ref(7)
	var _ Value = Text("abc")
}

func TestParseValueRoundTrip(t *testing.T) {
	values := []Value{
		Null{},
		Bool(true),
		Bool(false),
		Byte(-128),
		Char(65),
		Short(-3),
		Int(2147483647),
		Long(-9223372036854775808),
		Float(1.5),
		Double(0.1),
		Ref(12),
		Text("hello world"),
		Text("a:b:c"),
		Text(""),
	}

	for _, v := range values {
		t.Run(v.String(), func(t *testing.T) {
			parsed, err := ParseValue(v.String())
			require.NoError(t, err)
			assert.True(t, Equal(v, parsed), "round trip of %s gave %s", v, parsed)
		})
	}
}

func TestParseValueErrors(t *testing.T) {
	tests := []string{
		"",
		"5",
		"integer:5",
		"int:abc",
		"byte:300",
		"char:-1",
		"bool:maybe",
		"null:x",
		"ref:99999999999",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseValue(in)
			assert.Error(t, err)
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null matches null", Null{}, Null{}, true},
		{"null does not match ref", Null{}, Ref(1), false},
		{"ref does not match null", Ref(1), Null{}, false},
		{"text by content", Text("x"), Text("x"), true},
		{"text differs", Text("x"), Text("y"), false},
		{"same int", Int(5), Int(5), true},
		{"int vs long same payload", Int(5), Long(5), false},
		{"ref identity", Ref(3), Ref(3), true},
		{"ref identity differs", Ref(3), Ref(4), false},
		{"void equals void", nil, nil, true},
		{"void vs null", nil, Null{}, false},
		{"nan matches nan", Double(math.NaN()), Double(math.NaN()), true},
		{"nan payloads match", Double(math.Float64frombits(0x7ff8000000000001)), Double(math.NaN()), true},
		{"float nan matches nan", Float(float32(math.NaN())), Float(float32(math.NaN())), true},
		{"nan never matches a number", Double(math.NaN()), Double(0), false},
		{"signed zeros differ", Double(math.Copysign(0, -1)), Double(0), false},
		{"float signed zeros differ", Float(float32(math.Copysign(0, -1))), Float(0), false},
		{"negative zero matches itself", Double(math.Copysign(0, -1)), Double(math.Copysign(0, -1)), true},
		{"float equal", Float(0.5), Float(0.5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestKindStringAndParse(t *testing.T) {
	for k := KindNull; k <= KindText; k++ {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("boolean")
	assert.Error(t, err)
	assert.True(t, KindChar.Integral())
	assert.False(t, KindBool.Integral())
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		in      Value
		want    Value
		wantErr bool
	}{
		{"int to long widens", KindLong, Int(7), Long(7), false},
		{"long to int truncates", KindInt, Long(1<<32 + 3), Int(3), false},
		{"int to byte truncates", KindByte, Int(257), Byte(1), false},
		{"int to bool nonzero", KindBool, Int(1), Bool(true), false},
		{"int to bool zero", KindBool, Int(0), Bool(false), false},
		{"bool stays bool", KindBool, Bool(true), Bool(true), false},
		{"float to double", KindDouble, Float(1.5), Double(1.5), false},
		{"double to float", KindFloat, Double(2.5), Float(2.5), false},
		{"null to ref", KindRef, Null{}, Null{}, false},
		{"ref to ref", KindRef, Ref(4), Ref(4), false},
		{"null to text", KindText, Null{}, Null{}, false},
		{"bool to int rejected", KindInt, Bool(true), nil, true},
		{"int to ref rejected", KindRef, Int(4), nil, true},
		{"double to int rejected", KindInt, Double(1), nil, true},
		{"text to ref rejected", KindRef, Text("x"), nil, true},
		{"void rejected", KindInt, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.kind, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSimpleName(t *testing.T) {
	assert.Equal(t, "add", MethodInfo{ID: "Calc.add(II)I"}.SimpleName())
	assert.Equal(t, "<init>", MethodInfo{ID: "Calc.<init>()V"}.SimpleName())
	assert.Equal(t, "run", MethodInfo{ID: "Calc.add(II)I", Name: "run"}.SimpleName())
	assert.Equal(t, "main", MethodInfo{ID: "main"}.SimpleName())
}

func TestFormatVoid(t *testing.T) {
	assert.Equal(t, "void", Format(nil))
	assert.Equal(t, "int:1", Format(Int(1)))
}
