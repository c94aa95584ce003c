package marshal

import (
	"unicode/utf8"

	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/value"
)

// AddressMaxLen is the size of the buffer string arguments are copied
// into, terminator included. Longer String arguments are truncated on a
// rune boundary.
const AddressMaxLen = 128

// IsTrue reports whether s is the true value. Anything else is false.
func IsTrue(s host.Slot) bool {
	return s.Kind() == host.KindTrue
}

// ReadString reads a String or Symbol argument.
func ReadString(s host.Slot) (string, error) {
	if err := CheckArgumentType(s, "String", "Symbol"); err != nil {
		return "", err
	}
	text, ok := s.AsText()
	if !ok {
		return "", errorf(KindWrongType, "(class literal %s)", s.ClassName())
	}
	if s.Kind() == host.KindString && len(text) > AddressMaxLen-1 {
		text = truncate(text, AddressMaxLen-1)
	}
	return text, nil
}

// truncate cuts text to at most n bytes without splitting a rune.
func truncate(text string, n int) string {
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

// ReadChar reads a Char argument, or the first character of a Symbol.
func ReadChar(s host.Slot) (byte, error) {
	if err := CheckArgumentType(s, "Char", "Symbol"); err != nil {
		return 0, err
	}
	if c, ok := s.AsChar(); ok {
		return c, nil
	}
	text, ok := s.AsText()
	if !ok {
		return 0, errorf(KindWrongType, "(class literal %s)", s.ClassName())
	}
	if text == "" {
		return 0, nil
	}
	return text[0], nil
}

// ReadInt reads an Integer argument.
func ReadInt(s host.Slot) (int32, error) {
	if err := CheckArgumentType(s, "Integer"); err != nil {
		return 0, err
	}
	i, ok := s.AsInt()
	if !ok {
		return 0, errorf(KindWrongType, "(class literal %s)", s.ClassName())
	}
	return int32(i), nil
}

// ReadFloat reads a Float argument. Integers are promoted.
func ReadFloat(s host.Slot) (float32, error) {
	if err := CheckArgumentType(s, "Float", "Integer"); err != nil {
		return 0, err
	}
	if f, ok := s.AsFloat(); ok {
		return float32(f), nil
	}
	i, err := ReadInt(s)
	return float32(i), err
}

// ReadType resolves the value type designated by the class of s.
// Any host value or class literal with a registered class name works.
func ReadType(s host.Slot) (value.Type, error) {
	if err := CheckArgumentDefinition(s); err != nil {
		return value.TypeNone, err
	}
	name := ResolveClassName(s)
	t, ok := CheckArgumentReference(name, TypeNames)
	if !ok {
		return value.TypeNone, errorf(KindWrongType, "(no value type for %s)", name)
	}
	return t, nil
}

// ReadValue converts a host value into a typed value.
func ReadValue(s host.Slot) (value.Value, error) {
	t, err := ReadType(s)
	if err != nil {
		return value.None(), err
	}

	switch t {
	case value.TypeInt, value.TypeFloat:
		f, err := ReadFloat(s)
		if err != nil {
			return value.None(), err
		}
		return value.Float(f), nil

	case value.TypeBool:
		return value.Bool(IsTrue(s)), nil

	case value.TypeChar:
		c, err := ReadChar(s)
		if err != nil {
			return value.None(), err
		}
		return value.Char(c), nil

	case value.TypeString:
		str, err := ReadString(s)
		if err != nil {
			return value.None(), err
		}
		return value.String(str), nil

	case value.TypeList:
		elems, err := ReadVector(s, ReadValue)
		if err != nil {
			return value.None(), err
		}
		return value.List(elems...), nil

	case value.TypeVec2f, value.TypeVec3f, value.TypeVec4f:
		comps, err := ReadArray(s, t.Arity(), ReadFloat)
		if err != nil {
			return value.None(), err
		}
		return vecValue(t, comps), nil

	case value.TypeImpulse:
		return value.Impulse(), nil
	}

	return value.None(), errorf(KindWrongType, "(unsupported type %s)", t)
}

func vecValue(t value.Type, c []float32) value.Value {
	switch t {
	case value.TypeVec2f:
		return value.Vec2(value.Vec2f{c[0], c[1]})
	case value.TypeVec3f:
		return value.Vec3(value.Vec3f{c[0], c[1], c[2]})
	default:
		return value.Vec4(value.Vec4f{c[0], c[1], c[2], c[3]})
	}
}

// ReadVector applies read to every element of the collection s, in order.
func ReadVector[T any](s host.Slot, read func(host.Slot) (T, error)) ([]T, error) {
	obj, ok := s.AsObject()
	if !ok {
		return nil, errorf(KindWrongType, "(%s is not a collection)", ResolveClassName(s))
	}

	out := make([]T, 0, len(obj.Slots))
	for _, e := range obj.Slots {
		v, err := read(e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadArray reads a collection of exactly n elements. Any other length
// fails with ErrBadValue.
func ReadArray[T any](s host.Slot, n int, read func(host.Slot) (T, error)) ([]T, error) {
	obj, ok := s.AsObject()
	if !ok {
		return nil, errorf(KindWrongType, "(%s is not a collection)", ResolveClassName(s))
	}
	if len(obj.Slots) != n {
		return nil, errorf(KindBadValue, "(expected %d elements, got %d)", n, len(obj.Slots))
	}
	return ReadVector(s, read)
}

// ReadDomain reads a domain from an Array, List or OSSIA_domain.
// Two elements give (min, max); three give (min, max, values), where the
// third element is a collection of allowed values. Nil elements leave
// the matching bound absent. Bounds are converted to t when possible.
func ReadDomain(s host.Slot, t value.Type) (value.Domain, error) {
	if err := CheckArgumentType(s, "Array", "List", "OSSIA_domain"); err != nil {
		return value.Domain{}, err
	}

	elems, err := ReadVector(s, readOptionalValue)
	if err != nil {
		return value.Domain{}, err
	}

	switch len(elems) {
	case 2:
		return value.MakeDomain(boundAs(elems[0], t), boundAs(elems[1], t)), nil
	case 3:
		var values []value.Value
		if elems[2].Valid() {
			l, ok := elems[2].AsList()
			if !ok {
				return value.Domain{}, errorf(KindBadValue, "(domain values must be a collection)")
			}
			values = l
		}
		return value.MakeDomainValues(boundAs(elems[0], t), boundAs(elems[1], t), values), nil
	}
	return value.Domain{}, errorf(KindBadValue, "(domain needs 2 or 3 elements, got %d)", len(elems))
}

func readOptionalValue(s host.Slot) (value.Value, error) {
	if s.IsNil() {
		return value.None(), nil
	}
	return ReadValue(s)
}

func boundAs(v value.Value, t value.Type) value.Value {
	if !v.Valid() || t == value.TypeNone {
		return v
	}
	if c, ok := value.Convert(v, t); ok {
		return c
	}
	return v
}

// ReadUnit parses pretty unit text from a String or Symbol.
// Unknown text yields the empty unit.
func ReadUnit(s host.Slot) (value.Unit, error) {
	text, err := ReadString(s)
	if err != nil {
		return value.Unit{}, err
	}
	return value.ParseUnit(text), nil
}

// WriteString returns a host string.
func WriteString(s string) host.Slot {
	return host.String(s)
}

// WriteArray returns a host Array of the written elements.
func WriteArray[T any](values []T, write func(T) host.Slot) host.Slot {
	elems := make([]host.Slot, len(values))
	for i, v := range values {
		elems[i] = write(v)
	}
	return host.Array(elems...)
}

// WriteValue converts a typed value into a host value. Impulses and
// absent values become nil.
func WriteValue(v value.Value) host.Slot {
	switch v.Type() {
	case value.TypeBool:
		b, _ := v.AsBool()
		return host.Bool(b)
	case value.TypeChar:
		c, _ := v.AsChar()
		return host.Char(c)
	case value.TypeInt:
		i, _ := v.AsInt()
		return host.Int(int64(i))
	case value.TypeFloat:
		f, _ := v.AsFloat()
		return host.Float(float64(f))
	case value.TypeString:
		s, _ := v.AsString()
		return WriteString(s)
	case value.TypeList:
		l, _ := v.AsList()
		return WriteArray(l, WriteValue)
	case value.TypeVec2f, value.TypeVec3f, value.TypeVec4f:
		return WriteArray(v.Floats(), func(f float32) host.Slot { return WriteValue(value.Float(f)) })
	}
	return host.Nil()
}

// WriteDomain returns [min, max, values]. Missing bounds are written as
// two nils and missing values as nil.
func WriteDomain(d value.Domain) host.Slot {
	out := make([]host.Slot, 3)
	if d.Min().Valid() && d.Max().Valid() {
		out[0] = WriteValue(d.Min())
		out[1] = WriteValue(d.Max())
	}
	if values := d.Values(); len(values) > 0 {
		out[2] = WriteArray(values, WriteValue)
	}
	return host.Array(out...)
}
