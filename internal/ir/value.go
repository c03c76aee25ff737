package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the width/type tag carried by every Value and by every recorded
// field write.
type Kind uint8

const (
	KindNull Kind = iota + 1
	KindBool
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindRef
	KindText
)

var kindNames = map[Kind]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindByte:   "byte",
	KindChar:   "char",
	KindShort:  "short",
	KindInt:    "int",
	KindLong:   "long",
	KindFloat:  "float",
	KindDouble: "double",
	KindRef:    "ref",
	KindText:   "text",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind resolves a kind name as printed by Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// Integral reports whether k is one of the fixed-width integer kinds.
func (k Kind) Integral() bool {
	switch k {
	case KindByte, KindChar, KindShort, KindInt, KindLong:
		return true
	}
	return false
}

// Value is a sealed interface over the host's value domain.
// Only the types declared in this file implement it.
type Value interface {
	Kind() Kind
	String() string
	irValue()
}

// Null is the null reference.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// Byte is a signed 8-bit value.
type Byte int8

// Char is an unsigned 16-bit code unit.
type Char uint16

// Short is a signed 16-bit value.
type Short int16

// Int is a signed 32-bit value.
type Int int32

// Long is a signed 64-bit value.
type Long int64

// Float is a 32-bit floating point value.
type Float float32

// Double is a 64-bit floating point value.
type Double float64

// Ref is a handle to a non-text heap object.
type Ref ObjectRef

// Text is the content of a text object, compared by content.
type Text string

func (Null) irValue()   {}
func (Bool) irValue()   {}
func (Byte) irValue()   {}
func (Char) irValue()   {}
func (Short) irValue()  {}
func (Int) irValue()    {}
func (Long) irValue()   {}
func (Float) irValue()  {}
func (Double) irValue() {}
func (Ref) irValue()    {}
func (Text) irValue()   {}

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Byte) Kind() Kind   { return KindByte }
func (Char) Kind() Kind   { return KindChar }
func (Short) Kind() Kind  { return KindShort }
func (Int) Kind() Kind    { return KindInt }
func (Long) Kind() Kind   { return KindLong }
func (Float) Kind() Kind  { return KindFloat }
func (Double) Kind() Kind { return KindDouble }
func (Ref) Kind() Kind    { return KindRef }
func (Text) Kind() Kind   { return KindText }

func (Null) String() string     { return "null" }
func (v Bool) String() string   { return "bool:" + strconv.FormatBool(bool(v)) }
func (v Byte) String() string   { return "byte:" + strconv.FormatInt(int64(v), 10) }
func (v Char) String() string   { return "char:" + strconv.FormatUint(uint64(v), 10) }
func (v Short) String() string  { return "short:" + strconv.FormatInt(int64(v), 10) }
func (v Int) String() string    { return "int:" + strconv.FormatInt(int64(v), 10) }
func (v Long) String() string   { return "long:" + strconv.FormatInt(int64(v), 10) }
func (v Float) String() string  { return "float:" + strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v Double) String() string { return "double:" + strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Ref) String() string    { return "ref:" + strconv.FormatInt(int64(v), 10) }
func (v Text) String() string   { return "text:" + string(v) }

// ParseValue decodes the kind:literal form produced by Value.String.
func ParseValue(s string) (Value, error) {
	if s == "null" {
		return Null{}, nil
	}
	name, lit, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("value %q: expected kind:literal", s)
	}
	kind, err := ParseKind(name)
	if err != nil {
		return nil, fmt.Errorf("value %q: %w", s, err)
	}

	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(lit)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", s, err)
		}
		return Bool(b), nil
	case KindByte, KindShort, KindInt, KindLong, KindRef:
		n, err := strconv.ParseInt(lit, 10, bitSize(kind))
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", s, err)
		}
		return integral(kind, n), nil
	case KindChar:
		n, err := strconv.ParseUint(lit, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", s, err)
		}
		return Char(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(lit, 32)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", s, err)
		}
		return Float(f), nil
	case KindDouble:
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", s, err)
		}
		return Double(f), nil
	case KindText:
		return Text(lit), nil
	default:
		return nil, fmt.Errorf("value %q: null takes no literal", s)
	}
}

// MustParseValue is ParseValue for literals known to be valid.
func MustParseValue(s string) Value {
	v, err := ParseValue(s)
	if err != nil {
		panic(err)
	}
	return v
}

func bitSize(k Kind) int {
	switch k {
	case KindByte:
		return 8
	case KindShort, KindChar:
		return 16
	case KindInt, KindRef:
		return 32
	default:
		return 64
	}
}

func integral(k Kind, n int64) Value {
	switch k {
	case KindByte:
		return Byte(n)
	case KindChar:
		return Char(n)
	case KindShort:
		return Short(n)
	case KindInt:
		return Int(n)
	case KindRef:
		return Ref(n)
	default:
		return Long(n)
	}
}

// Equal compares two values under the matching rules: null only matches
// null, text compares by content and everything else by kind and value.
// A nil Value (void) only equals nil. Floating values compare by bit
// pattern, so -0 and +0 differ, except that every NaN equals every NaN.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Float:
		bv := b.(Float)
		if math.IsNaN(float64(av)) || math.IsNaN(float64(bv)) {
			return math.IsNaN(float64(av)) && math.IsNaN(float64(bv))
		}
		return math.Float32bits(float32(av)) == math.Float32bits(float32(bv))
	case Double:
		bv := b.(Double)
		if math.IsNaN(float64(av)) || math.IsNaN(float64(bv)) {
			return math.IsNaN(float64(av)) && math.IsNaN(float64(bv))
		}
		return math.Float64bits(float64(av)) == math.Float64bits(float64(bv))
	default:
		return a == b
	}
}

// Format renders a possibly-void value.
func Format(v Value) string {
	if v == nil {
		return "void"
	}
	return v.String()
}

// asInt64 extracts the numeric payload of an integral or boolean value.
func asInt64(v Value) (int64, bool) {
	switch x := v.(type) {
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	case Byte:
		return int64(x), true
	case Char:
		return int64(x), true
	case Short:
		return int64(x), true
	case Int:
		return int64(x), true
	case Long:
		return int64(x), true
	}
	return 0, false
}
