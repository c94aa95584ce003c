package value

import (
	"strconv"
	"strings"
)

// Convert converts v to the target type.
// Returns false if no conversion exists. Converting to TypeNone or to the
// value's own type returns v unchanged.
func Convert(v Value, t Type) (Value, bool) {
	if t == TypeNone || v.typ == t {
		return v, true
	}
	if !v.Valid() {
		return v, false
	}

	switch t {
	case TypeImpulse:
		return Impulse(), true

	case TypeBool:
		if n, ok := v.Number(); ok {
			return Bool(n != 0), true
		}
		if s, ok := v.AsString(); ok {
			b, err := strconv.ParseBool(s)
			return Bool(b), err == nil
		}

	case TypeInt:
		if n, ok := v.Number(); ok {
			return Int(int32(n)), true
		}
		if s, ok := v.AsString(); ok {
			i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
			return Int(int32(i)), err == nil
		}

	case TypeFloat:
		if n, ok := v.Number(); ok {
			return Float(float32(n)), true
		}
		if s, ok := v.AsString(); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
			return Float(float32(f)), err == nil
		}

	case TypeChar:
		if n, ok := v.Number(); ok {
			return Char(byte(n)), true
		}
		if s, ok := v.AsString(); ok && len(s) > 0 {
			return Char(s[0]), true
		}

	case TypeString:
		return String(v.String()), true

	case TypeVec2f, TypeVec3f, TypeVec4f:
		return toVec(v, t)

	case TypeList:
		if f := v.Floats(); f != nil {
			l := make([]Value, len(f))
			for i, x := range f {
				l[i] = Float(x)
			}
			return List(l...), true
		}
		return List(v), true
	}

	return v, false
}

// toVec converts a list or a vector of matching arity, or a single number
// (broadcast), to a vector type.
func toVec(v Value, t Type) (Value, bool) {
	n := t.Arity()
	var out [4]float32

	switch {
	case v.typ == TypeList:
		if len(v.list) != n {
			return v, false
		}
		for i, e := range v.list {
			f, ok := e.Number()
			if !ok {
				return v, false
			}
			out[i] = float32(f)
		}
	case v.typ.Arity() == n:
		copy(out[:], v.vec[:n])
	default:
		f, ok := v.Number()
		if !ok {
			return v, false
		}
		for i := 0; i < n; i++ {
			out[i] = float32(f)
		}
	}

	return Value{typ: t, vec: out}, true
}
