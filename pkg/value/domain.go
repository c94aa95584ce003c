package value

import (
	"errors"
	"math"
)

// Domain errors.
var (
	ErrNotInDomain = errors.New("value not in domain")
)

// Domain is the allowed range and/or enumeration of a parameter's values.
// The zero Domain is empty and accepts everything.
type Domain struct {
	min    Value
	max    Value
	values []Value
}

// MakeDomain returns a (min, max) domain. Either bound may be None.
func MakeDomain(min, max Value) Domain {
	return Domain{min: min, max: max}
}

// MakeDomainValues returns a (min, max, values) domain.
func MakeDomainValues(min, max Value, values []Value) Domain {
	d := Domain{min: min, max: max}
	if len(values) > 0 {
		d.values = make([]Value, len(values))
		copy(d.values, values)
	}
	return d
}

// Empty reports whether the domain has no bounds and no values.
func (d Domain) Empty() bool {
	return !d.min.Valid() && !d.max.Valid() && len(d.values) == 0
}

// Min returns the lower bound, or None.
func (d Domain) Min() Value { return d.min }

// Max returns the upper bound, or None.
func (d Domain) Max() Value { return d.max }

// Values returns a copy of the enumerated values.
func (d Domain) Values() []Value {
	if len(d.values) == 0 {
		return nil
	}
	out := make([]Value, len(d.values))
	copy(out, d.values)
	return out
}

// Equal reports whether both domains have the same bounds and values.
func (d Domain) Equal(o Domain) bool {
	if !d.min.Equal(o.min) || !d.max.Equal(o.max) || len(d.values) != len(o.values) {
		return false
	}
	for i := range d.values {
		if !d.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}

// Contains reports whether v is one of the enumerated values.
// A domain without enumerated values contains everything.
func (d Domain) Contains(v Value) bool {
	if len(d.values) == 0 {
		return true
	}
	for _, e := range d.values {
		if e.Equal(v) {
			return true
		}
		if c, ok := Convert(v, e.Type()); ok && c.Equal(e) {
			return true
		}
	}
	return false
}

// Clamp applies the bounding mode to v.
// With BoundFree the value is returned as is. With an enumerated value set,
// a value outside the set yields ErrNotInDomain. Numeric and vector values
// are bounded component-wise; other types pass through.
func (d Domain) Clamp(v Value, mode BoundingMode) (Value, error) {
	if mode == BoundFree || d.Empty() {
		return v, nil
	}
	if !d.Contains(v) {
		return v, ErrNotInDomain
	}

	switch v.Type() {
	case TypeInt, TypeFloat, TypeChar:
		n, _ := v.Number()
		out := d.bound(n, 0, mode)
		switch v.Type() {
		case TypeInt:
			return Int(int32(math.Round(out))), nil
		case TypeChar:
			return Char(byte(out)), nil
		default:
			return Float(float32(out)), nil
		}

	case TypeVec2f, TypeVec3f, TypeVec4f:
		comps := v.Floats()
		var out [4]float32
		for i, c := range comps {
			out[i] = float32(d.bound(float64(c), i, mode))
		}
		return Value{typ: v.Type(), vec: out}, nil
	}

	return v, nil
}

// bound applies the mode to a single component. For vector bounds, idx
// selects the matching bound component.
func (d Domain) bound(x float64, idx int, mode BoundingMode) float64 {
	lo, hasLo := component(d.min, idx)
	hi, hasHi := component(d.max, idx)

	switch mode {
	case BoundLow:
		if hasLo && x < lo {
			return lo
		}
	case BoundHigh:
		if hasHi && x > hi {
			return hi
		}
	case BoundClip:
		if hasLo && x < lo {
			return lo
		}
		if hasHi && x > hi {
			return hi
		}
	case BoundWrap:
		if hasLo && hasHi && hi > lo {
			r := hi - lo
			return lo + math.Mod(math.Mod(x-lo, r)+r, r)
		}
	case BoundFold:
		if hasLo && hasHi && hi > lo {
			r := hi - lo
			m := math.Mod(math.Mod(x-lo, 2*r)+2*r, 2*r)
			if m > r {
				m = 2*r - m
			}
			return lo + m
		}
	}
	return x
}

// component extracts a bound for the given vector index. Scalar bounds
// apply to every component.
func component(b Value, idx int) (float64, bool) {
	if f := b.Floats(); f != nil {
		if idx < len(f) {
			return float64(f[idx]), true
		}
		return 0, false
	}
	return b.Number()
}
