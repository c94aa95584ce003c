package host

import (
	"fmt"
	"strings"
)

// Kind is the variant of a Slot.
type Kind uint8

// Slot kinds.
const (
	KindNil Kind = iota
	KindTrue
	KindFalse
	KindInt
	KindFloat
	KindChar
	KindSymbol
	KindString
	KindObject
	KindClass
	KindPtr
)

var kindNames = [...]string{
	KindNil:    "nil",
	KindTrue:   "true",
	KindFalse:  "false",
	KindInt:    "int",
	KindFloat:  "float",
	KindChar:   "char",
	KindSymbol: "symbol",
	KindString: "string",
	KindObject: "object",
	KindClass:  "class",
	KindPtr:    "ptr",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// MetaPrefix is prepended to a class name to form the name of its class.
const MetaPrefix = "Meta_"

// Slot is a single host value.
type Slot struct {
	kind Kind
	i    int64
	f    float64
	c    byte
	s    string
	obj  *Object
	ptr  uint64
}

// Object is a host object instance.
type Object struct {
	Class string
	Slots []Slot
}

// NewObject returns an object with n nil slots.
func NewObject(class string, n int) *Object {
	return &Object{Class: class, Slots: make([]Slot, n)}
}

// NewCollection returns an object whose slots are the given elements.
// Used for Array, List and vector classes.
func NewCollection(class string, elems ...Slot) *Object {
	o := &Object{Class: class, Slots: make([]Slot, len(elems))}
	copy(o.Slots, elems)
	return o
}

// Nil returns the nil slot.
func Nil() Slot { return Slot{} }

// Bool returns true or false.
func Bool(b bool) Slot {
	if b {
		return Slot{kind: KindTrue}
	}
	return Slot{kind: KindFalse}
}

// Int returns an integer slot.
func Int(i int64) Slot { return Slot{kind: KindInt, i: i} }

// Float returns a float slot.
func Float(f float64) Slot { return Slot{kind: KindFloat, f: f} }

// Char returns a character slot.
func Char(c byte) Slot { return Slot{kind: KindChar, c: c} }

// Symbol returns a symbol slot.
func Symbol(s string) Slot { return Slot{kind: KindSymbol, s: s} }

// String returns a string slot.
func String(s string) Slot { return Slot{kind: KindString, s: s} }

// Obj returns a slot referencing o. A nil object yields the nil slot.
func Obj(o *Object) Slot {
	if o == nil {
		return Nil()
	}
	return Slot{kind: KindObject, obj: o}
}

// Class returns a class literal slot, e.g. Class("Float").
func Class(name string) Slot { return Slot{kind: KindClass, s: name} }

// Ptr returns an opaque pointer slot.
func Ptr(p uint64) Slot { return Slot{kind: KindPtr, ptr: p} }

// Array returns an Array object slot holding elems.
func Array(elems ...Slot) Slot { return Obj(NewCollection("Array", elems...)) }

// Kind returns the slot variant.
func (s Slot) Kind() Kind { return s.kind }

// IsNil reports whether the slot is nil.
func (s Slot) IsNil() bool { return s.kind == KindNil }

// ClassName returns the host class name of the value.
// Class literals resolve to "Meta_<name>".
func (s Slot) ClassName() string {
	switch s.kind {
	case KindNil:
		return "Nil"
	case KindTrue:
		return "True"
	case KindFalse:
		return "False"
	case KindInt:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindChar:
		return "Char"
	case KindSymbol:
		return "Symbol"
	case KindString:
		return "String"
	case KindObject:
		return s.obj.Class
	case KindClass:
		return MetaPrefix + s.s
	case KindPtr:
		return "RawPointer"
	}
	return ""
}

// AsBool returns the boolean for True/False slots.
func (s Slot) AsBool() (bool, bool) {
	switch s.kind {
	case KindTrue:
		return true, true
	case KindFalse:
		return false, true
	}
	return false, false
}

// AsInt returns the integer payload.
func (s Slot) AsInt() (int64, bool) { return s.i, s.kind == KindInt }

// AsFloat returns the float payload.
func (s Slot) AsFloat() (float64, bool) { return s.f, s.kind == KindFloat }

// AsChar returns the character payload.
func (s Slot) AsChar() (byte, bool) { return s.c, s.kind == KindChar }

// AsText returns the text of a symbol or string slot.
func (s Slot) AsText() (string, bool) {
	return s.s, s.kind == KindSymbol || s.kind == KindString
}

// AsObject returns the referenced object.
func (s Slot) AsObject() (*Object, bool) { return s.obj, s.kind == KindObject }

// AsClass returns the name of a class literal.
func (s Slot) AsClass() (string, bool) { return s.s, s.kind == KindClass }

// AsPtr returns the opaque pointer payload.
func (s Slot) AsPtr() (uint64, bool) { return s.ptr, s.kind == KindPtr }

// Elements returns the slots of a collection object, or nil.
func (s Slot) Elements() []Slot {
	if s.kind != KindObject {
		return nil
	}
	return s.obj.Slots
}

// String formats the slot in host syntax.
func (s Slot) String() string {
	switch s.kind {
	case KindNil:
		return "nil"
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", s.i)
	case KindFloat:
		return fmt.Sprintf("%g", s.f)
	case KindChar:
		return fmt.Sprintf("$%c", s.c)
	case KindSymbol:
		return "'" + s.s + "'"
	case KindString:
		return fmt.Sprintf("%q", s.s)
	case KindClass:
		return s.s
	case KindPtr:
		return fmt.Sprintf("<ptr %d>", s.ptr)
	case KindObject:
		parts := make([]string, len(s.obj.Slots))
		for i, e := range s.obj.Slots {
			parts[i] = e.String()
		}
		switch s.obj.Class {
		case "Array":
			return "[" + strings.Join(parts, ", ") + "]"
		case "List":
			return "List[" + strings.Join(parts, ", ") + "]"
		}
		return "a " + s.obj.Class
	}
	return "?"
}
