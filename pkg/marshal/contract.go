package marshal

import (
	"slices"
	"strings"

	"github.com/ossia/ossia-sc/pkg/host"
)

// ResolveClassName returns the class name of s with the metaclass prefix
// removed, so that Float and Meta_Float both resolve to "Float".
func ResolveClassName(s host.Slot) string {
	return strings.TrimPrefix(s.ClassName(), host.MetaPrefix)
}

// CheckArgumentDefinition fails with ErrUndefined if s is nil.
func CheckArgumentDefinition(s host.Slot) error {
	if s.IsNil() {
		return ErrUndefined
	}
	return nil
}

// CheckArgumentType checks definedness, then that the resolved class
// name of s is one of allowed.
func CheckArgumentType(s host.Slot, allowed ...string) error {
	if err := CheckArgumentDefinition(s); err != nil {
		return err
	}
	if !slices.Contains(allowed, ResolveClassName(s)) {
		return errorf(KindWrongType, "(got %s, want %s)", ResolveClassName(s), strings.Join(allowed, " or "))
	}
	return nil
}

// CheckArgumentReference looks token up in b. Absence is not an error;
// callers decide.
func CheckArgumentReference[T comparable](token string, b *Bimap[T]) (T, bool) {
	return b.Lookup(token)
}

// ReadListedAttribute reads a String or Symbol and maps it through b.
// An unknown token fails with ErrBadValue.
func ReadListedAttribute[T comparable](s host.Slot, b *Bimap[T]) (T, error) {
	var zero T
	if err := CheckArgumentDefinition(s); err != nil {
		return zero, err
	}

	token, err := ReadString(s)
	if err != nil {
		return zero, err
	}

	v, ok := CheckArgumentReference(token, b)
	if !ok {
		return zero, errorf(KindBadValue, "(unknown token %q)", token)
	}
	return v, nil
}

// FormatListedAttribute returns the canonical token for v, or "nil" if v
// has no registration.
func FormatListedAttribute[T comparable](v T, b *Bimap[T]) string {
	if s, ok := b.Format(v); ok {
		return s
	}
	return "nil"
}
