package ir

import "fmt"

// Coerce converts v to the representation a field of kind k stores.
// Integral values convert between widths with two's-complement truncation,
// floating values between float and double, and booleans accept integral
// 0/1 because hosts report booleans as ints. Refs and text accept null.
// Every other combination is an error.
func Coerce(k Kind, v Value) (Value, error) {
	if v == nil {
		return nil, fmt.Errorf("coerce to %s: void value", k)
	}

	switch k {
	case KindNull:
		if v.Kind() == KindNull {
			return v, nil
		}
	case KindBool:
		if n, ok := asInt64(v); ok {
			return Bool(n != 0), nil
		}
	case KindByte, KindChar, KindShort, KindInt, KindLong:
		if v.Kind() != KindBool {
			if n, ok := asInt64(v); ok {
				return integral(k, n), nil
			}
		}
	case KindFloat:
		switch x := v.(type) {
		case Float:
			return x, nil
		case Double:
			return Float(x), nil
		}
	case KindDouble:
		switch x := v.(type) {
		case Float:
			return Double(x), nil
		case Double:
			return x, nil
		}
	case KindRef:
		switch v.(type) {
		case Ref, Null:
			return v, nil
		}
	case KindText:
		switch v.(type) {
		case Text, Null:
			return v, nil
		}
	default:
		return nil, fmt.Errorf("coerce: unknown kind %s", k)
	}
	return nil, fmt.Errorf("coerce %s to %s: incompatible", v, k)
}
