package marshal

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/value"
)

func vec(class string, fs ...float64) host.Slot {
	elems := make([]host.Slot, len(fs))
	for i, f := range fs {
		elems[i] = host.Float(f)
	}
	return host.Obj(host.NewCollection(class, elems...))
}

func TestValueRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   value.Value
		want value.Value
	}{
		{"bool", value.Bool(true), value.Bool(true)},
		{"char", value.Char('x'), value.Char('x')},
		{"float", value.Float(0.25), value.Float(0.25)},
		{"int widens", value.Int(7), value.Float(7)},
		{"string", value.String("hello"), value.String("hello")},
		{"list", value.List(value.Float(1), value.String("a")), value.List(value.Float(1), value.String("a"))},
		{"vec2 as list", value.Vec2(value.Vec2f{1, 2}), value.List(value.Float(1), value.Float(2))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadValue(WriteValue(tt.in))
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}

	t.Run("impulse writes nil", func(t *testing.T) {
		assert.True(t, WriteValue(value.Impulse()).IsNil())
		assert.True(t, WriteValue(value.None()).IsNil())
	})
}

func TestReadValue(t *testing.T) {
	t.Run("Vectors", func(t *testing.T) {
		got, err := ReadValue(vec("OSSIA_vec3f", 1, 2, 3))
		require.NoError(t, err)
		assert.True(t, got.Equal(value.Vec3(value.Vec3f{1, 2, 3})))

		_, err = ReadValue(vec("OSSIA_vec3f", 1, 2))
		assert.ErrorIs(t, err, ErrBadValue)
	})

	t.Run("Impulse", func(t *testing.T) {
		got, err := ReadValue(host.Class("Impulse"))
		require.NoError(t, err)
		assert.Equal(t, value.TypeImpulse, got.Type())
	})

	t.Run("Symbol", func(t *testing.T) {
		got, err := ReadValue(host.Symbol("sine"))
		require.NoError(t, err)
		assert.True(t, got.Equal(value.String("sine")))
	})

	t.Run("Unregistered", func(t *testing.T) {
		_, err := ReadValue(host.Obj(host.NewObject("Window", 0)))
		assert.ErrorIs(t, err, ErrWrongType)
	})

	t.Run("Nil", func(t *testing.T) {
		_, err := ReadValue(host.Nil())
		assert.ErrorIs(t, err, ErrUndefined)
	})
}

func TestCheckArgumentType(t *testing.T) {
	t.Run("NilIsUndefinedFirst", func(t *testing.T) {
		err := CheckArgumentType(host.Nil(), "String")
		assert.ErrorIs(t, err, ErrUndefined)
		assert.False(t, errors.Is(err, ErrWrongType))
	})

	t.Run("ClassLiteralResolves", func(t *testing.T) {
		assert.NoError(t, CheckArgumentType(host.Class("String"), "String"))
		assert.NoError(t, CheckArgumentType(host.String("x"), "String"))
	})

	t.Run("CaseSensitive", func(t *testing.T) {
		assert.ErrorIs(t, CheckArgumentType(host.String("x"), "string"), ErrWrongType)
	})
}

func TestListedAttributes(t *testing.T) {
	for _, alias := range []string{"bi", "both", "rw"} {
		t.Run(alias, func(t *testing.T) {
			got, err := ReadListedAttribute(host.Symbol(alias), AccessModes)
			require.NoError(t, err)
			assert.Equal(t, value.AccessBi, got)
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		_, err := ReadListedAttribute(host.String("maybe"), AccessModes)
		assert.ErrorIs(t, err, ErrBadValue)
	})

	t.Run("Undefined", func(t *testing.T) {
		_, err := ReadListedAttribute(host.Nil(), BoundingModes)
		assert.ErrorIs(t, err, ErrUndefined)
	})

	t.Run("CanonicalFormatting", func(t *testing.T) {
		assert.Equal(t, "bi", FormatListedAttribute(value.AccessBi, AccessModes))
		assert.Equal(t, "get", FormatListedAttribute(value.AccessGet, AccessModes))
		assert.Equal(t, "Integer", FormatListedAttribute(value.TypeInt, TypeNames))
		assert.Equal(t, "Array", FormatListedAttribute(value.TypeList, TypeNames))
		assert.Equal(t, "nil", FormatListedAttribute(value.TypeNone, TypeNames))
	})

	t.Run("Reference", func(t *testing.T) {
		_, ok := CheckArgumentReference("wrap", BoundingModes)
		assert.True(t, ok)
		_, ok = CheckArgumentReference("Wrap", BoundingModes)
		assert.False(t, ok)
	})
}

func TestReadDomain(t *testing.T) {
	t.Run("MinMax", func(t *testing.T) {
		d, err := ReadDomain(host.Array(host.Int(0), host.Int(10)), value.TypeFloat)
		require.NoError(t, err)
		assert.True(t, d.Min().Equal(value.Float(0)))
		assert.True(t, d.Max().Equal(value.Float(10)))
		assert.Empty(t, d.Values())
	})

	t.Run("WithValues", func(t *testing.T) {
		values := host.Array(host.Symbol("a"), host.Symbol("b"))
		d, err := ReadDomain(host.Array(host.Nil(), host.Nil(), values), value.TypeString)
		require.NoError(t, err)
		assert.False(t, d.Min().Valid())
		assert.Len(t, d.Values(), 2)
	})

	t.Run("DomainObject", func(t *testing.T) {
		obj := host.NewCollection("OSSIA_domain", host.Float(-1), host.Float(1))
		d, err := ReadDomain(host.Obj(obj), value.TypeFloat)
		require.NoError(t, err)
		assert.True(t, d.Min().Equal(value.Float(-1)))
	})

	t.Run("BadCount", func(t *testing.T) {
		for _, n := range []int{0, 1, 4} {
			elems := make([]host.Slot, n)
			for i := range elems {
				elems[i] = host.Float(float64(i))
			}
			_, err := ReadDomain(host.Array(elems...), value.TypeFloat)
			assert.ErrorIs(t, err, ErrBadValue, "count %d", n)
		}
	})

	t.Run("WrongType", func(t *testing.T) {
		_, err := ReadDomain(host.Float(1), value.TypeFloat)
		assert.ErrorIs(t, err, ErrWrongType)
	})

	t.Run("WriteDomain", func(t *testing.T) {
		out := WriteDomain(value.MakeDomain(value.Float(0), value.None())).Elements()
		require.Len(t, out, 3)
		assert.True(t, out[0].IsNil())
		assert.True(t, out[1].IsNil())
		assert.True(t, out[2].IsNil())
	})
}

func TestScalarReaders(t *testing.T) {
	t.Run("FloatPromotesInt", func(t *testing.T) {
		f, err := ReadFloat(host.Int(3))
		require.NoError(t, err)
		assert.Equal(t, float32(3), f)
	})

	t.Run("IntRejectsFloat", func(t *testing.T) {
		_, err := ReadInt(host.Float(3))
		assert.ErrorIs(t, err, ErrWrongType)
	})

	t.Run("CharFromSymbol", func(t *testing.T) {
		c, err := ReadChar(host.Symbol("abc"))
		require.NoError(t, err)
		assert.Equal(t, byte('a'), c)
	})

	t.Run("StringTruncated", func(t *testing.T) {
		s, err := ReadString(host.String(strings.Repeat("x", 300)))
		require.NoError(t, err)
		assert.Len(t, s, AddressMaxLen-1)
	})

	t.Run("StringTruncatedOnRuneBoundary", func(t *testing.T) {
		long := strings.Repeat("x", AddressMaxLen-2) + "é/freq"
		s, err := ReadString(host.String(long))
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("x", AddressMaxLen-2), s)
		assert.True(t, utf8.ValidString(s))
	})

	t.Run("Unit", func(t *testing.T) {
		u, err := ReadUnit(host.Symbol("gain.db"))
		require.NoError(t, err)
		assert.Equal(t, "gain.db", u.String())
	})

	t.Run("Tags", func(t *testing.T) {
		tags, err := ReadVector(host.Array(host.Symbol("a"), host.String("b")), ReadString)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, tags)
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindBadValue, KindOf(errorf(KindBadValue, "x")))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, "Wrong type for argument.", ErrWrongType.Error())
}

func TestWithContext(t *testing.T) {
	err := WithContext(ErrWrongType, "OSC Port argument.")
	assert.Equal(t, "Wrong type for argument. OSC Port argument.", err.Error())
	assert.ErrorIs(t, err, ErrWrongType)
	assert.Equal(t, "OSC Port argument.", ContextOf(err))
	assert.Equal(t, KindWrongType, KindOf(err))
	assert.NoError(t, WithContext(nil, "x"))
}
