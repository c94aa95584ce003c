// Package value implements the typed network values carried by parameters.
//
// # Value Types
//
// A Value is a tagged union. The active payload always matches Type():
//
//	Impulse   no payload, a bang
//	Bool      true/false
//	Char      a single byte character
//	Int       32-bit signed integer
//	Float     32-bit float
//	String    UTF-8 text
//	Vec2f     fixed-size float vectors
//	Vec3f
//	Vec4f
//	List      heterogeneous list of Values
//
// The zero Value has Type None and is used as the "absent" sentinel, for
// example for a missing domain bound.
//
// # Domains
//
// A Domain restricts the values a parameter accepts. It is either empty,
// a (min, max) range, or a (min, max, values) range with an enumerated set.
// Either bound may be None. The BoundingMode decides what happens to values
// that fall outside of the range.
package value
