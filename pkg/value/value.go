package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the type tag of a Value.
type Type uint8

const (
	TypeNone Type = iota
	TypeImpulse
	TypeBool
	TypeChar
	TypeInt
	TypeFloat
	TypeString
	TypeVec2f
	TypeVec3f
	TypeVec4f
	TypeList
)

// String returns the type name.
func (t Type) String() string {
	names := []string{
		"none", "impulse", "bool", "char", "int", "float",
		"string", "vec2f", "vec3f", "vec4f", "list",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// Arity returns the element count of a vector type, or 0 for other types.
func (t Type) Arity() int {
	switch t {
	case TypeVec2f:
		return 2
	case TypeVec3f:
		return 3
	case TypeVec4f:
		return 4
	default:
		return 0
	}
}

// IsNumeric reports whether values of the type are single numbers.
func (t Type) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat || t == TypeChar || t == TypeBool
}

// Fixed-size float vectors.
type (
	Vec2f [2]float32
	Vec3f [3]float32
	Vec4f [4]float32
)

// Value is an immutable typed network value.
type Value struct {
	typ  Type
	b    bool
	c    byte
	i    int32
	f    float32
	s    string
	vec  [4]float32
	list []Value
}

// None returns the absent value.
func None() Value { return Value{} }

// Impulse returns an impulse value.
func Impulse() Value { return Value{typ: TypeImpulse} }

// Bool returns a bool value.
func Bool(b bool) Value { return Value{typ: TypeBool, b: b} }

// Char returns a char value.
func Char(c byte) Value { return Value{typ: TypeChar, c: c} }

// Int returns an int value.
func Int(i int32) Value { return Value{typ: TypeInt, i: i} }

// Float returns a float value.
func Float(f float32) Value { return Value{typ: TypeFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{typ: TypeString, s: s} }

// Vec2 returns a 2-element float vector value.
func Vec2(v Vec2f) Value { return Value{typ: TypeVec2f, vec: [4]float32{v[0], v[1]}} }

// Vec3 returns a 3-element float vector value.
func Vec3(v Vec3f) Value { return Value{typ: TypeVec3f, vec: [4]float32{v[0], v[1], v[2]}} }

// Vec4 returns a 4-element float vector value.
func Vec4(v Vec4f) Value { return Value{typ: TypeVec4f, vec: [4]float32(v)} }

// List returns a list value. The elements are copied.
func List(values ...Value) Value {
	l := make([]Value, len(values))
	copy(l, values)
	return Value{typ: TypeList, list: l}
}

// Type returns the type tag.
func (v Value) Type() Type { return v.typ }

// Valid reports whether the value is not None.
func (v Value) Valid() bool { return v.typ != TypeNone }

// AsBool returns the bool payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == TypeBool }

// AsChar returns the char payload.
func (v Value) AsChar() (byte, bool) { return v.c, v.typ == TypeChar }

// AsInt returns the int payload.
func (v Value) AsInt() (int32, bool) { return v.i, v.typ == TypeInt }

// AsFloat returns the float payload.
func (v Value) AsFloat() (float32, bool) { return v.f, v.typ == TypeFloat }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.typ == TypeString }

// AsVec2 returns the vec2f payload.
func (v Value) AsVec2() (Vec2f, bool) { return Vec2f{v.vec[0], v.vec[1]}, v.typ == TypeVec2f }

// AsVec3 returns the vec3f payload.
func (v Value) AsVec3() (Vec3f, bool) {
	return Vec3f{v.vec[0], v.vec[1], v.vec[2]}, v.typ == TypeVec3f
}

// AsVec4 returns the vec4f payload.
func (v Value) AsVec4() (Vec4f, bool) { return Vec4f(v.vec), v.typ == TypeVec4f }

// AsList returns a copy of the list payload.
func (v Value) AsList() ([]Value, bool) {
	if v.typ != TypeList {
		return nil, false
	}
	l := make([]Value, len(v.list))
	copy(l, v.list)
	return l, true
}

// Floats returns the components of a vector value, or nil.
func (v Value) Floats() []float32 {
	n := v.typ.Arity()
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	copy(out, v.vec[:n])
	return out
}

// Len returns the element count for vectors and lists, 1 for scalars and
// 0 for None and Impulse.
func (v Value) Len() int {
	switch v.typ {
	case TypeNone, TypeImpulse:
		return 0
	case TypeList:
		return len(v.list)
	case TypeVec2f, TypeVec3f, TypeVec4f:
		return v.typ.Arity()
	default:
		return 1
	}
}

// Equal reports whether both values have the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeNone, TypeImpulse:
		return true
	case TypeBool:
		return v.b == o.b
	case TypeChar:
		return v.c == o.c
	case TypeInt:
		return v.i == o.i
	case TypeFloat:
		return v.f == o.f
	case TypeString:
		return v.s == o.s
	case TypeVec2f, TypeVec3f, TypeVec4f:
		return v.vec == o.vec
	case TypeList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String formats the value for display.
func (v Value) String() string {
	switch v.typ {
	case TypeNone:
		return "none"
	case TypeImpulse:
		return "impulse"
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeChar:
		return string(rune(v.c))
	case TypeInt:
		return strconv.FormatInt(int64(v.i), 10)
	case TypeFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case TypeString:
		return v.s
	case TypeVec2f, TypeVec3f, TypeVec4f:
		parts := make([]string, 0, 4)
		for _, f := range v.Floats() {
			parts = append(parts, strconv.FormatFloat(float64(f), 'g', -1, 32))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("value(%d)", v.typ)
}

// Number returns the value as a float64 for numeric types.
func (v Value) Number() (float64, bool) {
	switch v.typ {
	case TypeInt:
		return float64(v.i), true
	case TypeFloat:
		return float64(v.f), true
	case TypeChar:
		return float64(v.c), true
	case TypeBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
