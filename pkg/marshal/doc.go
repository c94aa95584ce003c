// Package marshal converts between host values and typed network values
// and checks host call arguments.
//
// # Contract Checks
//
// Arguments are checked in a fixed order so that the most specific
// failure is reported:
//
//  1. definedness (CheckArgumentDefinition): nil fails with ErrUndefined
//  2. type (CheckArgumentType): class name not allowed fails with ErrWrongType
//  3. value (ReadListedAttribute etc.): bad token fails with ErrBadValue
//
// Class names are resolved with ResolveClassName, which strips the
// metaclass prefix so that an instance and its class literal are treated
// alike.
//
// # Value Conversion
//
// ReadValue dispatches on the resolved class name through the TypeNames
// table. Integers are widened to floats. WriteValue maps a typed value
// back to a host slot; impulses and absent values become nil, vectors and
// lists become arrays.
//
// # Name Tables
//
// TypeNames, AccessModes and BoundingModes are Bimaps from case-sensitive
// tokens to enums. Several tokens may map to one enum; formatting an enum
// returns the first token registered for it.
package marshal
