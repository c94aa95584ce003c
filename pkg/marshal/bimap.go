package marshal

import (
	"github.com/ossia/ossia-sc/pkg/value"
)

// Bimap maps string tokens to enum values and back.
// Several tokens may share one value; the first token registered for a
// value is its canonical spelling.
type Bimap[T comparable] struct {
	byToken map[string]T
	byValue map[T]string
	order   []string
}

// NewBimap returns an empty Bimap.
func NewBimap[T comparable]() *Bimap[T] {
	return &Bimap[T]{
		byToken: make(map[string]T),
		byValue: make(map[T]string),
	}
}

// Add registers token for v. Re-registering a token is ignored.
func (b *Bimap[T]) Add(token string, v T) *Bimap[T] {
	if _, ok := b.byToken[token]; ok {
		return b
	}
	b.byToken[token] = v
	b.order = append(b.order, token)
	if _, ok := b.byValue[v]; !ok {
		b.byValue[v] = token
	}
	return b
}

// Lookup returns the value registered for token.
func (b *Bimap[T]) Lookup(token string) (T, bool) {
	v, ok := b.byToken[token]
	return v, ok
}

// Format returns the canonical token for v.
func (b *Bimap[T]) Format(v T) (string, bool) {
	s, ok := b.byValue[v]
	return s, ok
}

// Tokens returns all tokens in registration order.
func (b *Bimap[T]) Tokens() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// TypeNames maps host class names to value types.
var TypeNames = NewBimap[value.Type]().
	Add("Integer", value.TypeInt).
	Add("Boolean", value.TypeBool).
	Add("True", value.TypeBool).
	Add("False", value.TypeBool).
	Add("Char", value.TypeChar).
	Add("Float", value.TypeFloat).
	Add("OSSIA_vec2f", value.TypeVec2f).
	Add("OSSIA_vec3f", value.TypeVec3f).
	Add("OSSIA_vec4f", value.TypeVec4f).
	Add("Array", value.TypeList).
	Add("List", value.TypeList).
	Add("Impulse", value.TypeImpulse).
	Add("Signal", value.TypeImpulse).
	Add("String", value.TypeString).
	Add("Symbol", value.TypeString)

// AccessModes maps access mode tokens.
var AccessModes = NewBimap[value.AccessMode]().
	Add("bi", value.AccessBi).
	Add("both", value.AccessBi).
	Add("rw", value.AccessBi).
	Add("get", value.AccessGet).
	Add("read", value.AccessGet).
	Add("r", value.AccessGet).
	Add("set", value.AccessSet).
	Add("write", value.AccessSet).
	Add("w", value.AccessSet)

// BoundingModes maps bounding mode tokens.
var BoundingModes = NewBimap[value.BoundingMode]().
	Add("clip", value.BoundClip).
	Add("fold", value.BoundFold).
	Add("free", value.BoundFree).
	Add("high", value.BoundHigh).
	Add("low", value.BoundLow).
	Add("wrap", value.BoundWrap)
