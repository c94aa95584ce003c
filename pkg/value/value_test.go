package value

import (
	"testing"
)

func TestValueAccessors(t *testing.T) {
	t.Run("Float", func(t *testing.T) {
		v := Float(1.5)
		f, ok := v.AsFloat()
		if !ok || f != 1.5 {
			t.Errorf("AsFloat() = %v, %v; want 1.5, true", f, ok)
		}
		if _, ok := v.AsInt(); ok {
			t.Error("AsInt() on float should fail")
		}
	})

	t.Run("Vec3", func(t *testing.T) {
		v := Vec3(Vec3f{1, 2, 3})
		got, ok := v.AsVec3()
		if !ok || got != (Vec3f{1, 2, 3}) {
			t.Errorf("AsVec3() = %v, %v", got, ok)
		}
		if v.Len() != 3 {
			t.Errorf("Len() = %d, want 3", v.Len())
		}
	})

	t.Run("ListIsCopied", func(t *testing.T) {
		elems := []Value{Int(1), Int(2)}
		v := List(elems...)
		elems[0] = Int(99)
		l, _ := v.AsList()
		if !l[0].Equal(Int(1)) {
			t.Errorf("list element mutated through input slice: %v", l[0])
		}
	})

	t.Run("None", func(t *testing.T) {
		if None().Valid() {
			t.Error("None() should not be valid")
		}
		if Impulse().Len() != 0 {
			t.Error("impulse should have no elements")
		}
	})
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same int", Int(3), Int(3), true},
		{"int vs float", Int(3), Float(3), false},
		{"strings", String("a"), String("a"), true},
		{"impulses", Impulse(), Impulse(), true},
		{"vec differs", Vec2(Vec2f{1, 2}), Vec2(Vec2f{1, 3}), false},
		{"nested lists", List(Int(1), List(String("x"))), List(Int(1), List(String("x"))), true},
		{"list lengths", List(Int(1)), List(Int(1), Int(2)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name   string
		in     Value
		target Type
		want   Value
		ok     bool
	}{
		{"int to float", Int(2), TypeFloat, Float(2), true},
		{"float to int", Float(2.9), TypeInt, Int(2), true},
		{"float to bool", Float(0), TypeBool, Bool(false), true},
		{"string to float", String("0.5"), TypeFloat, Float(0.5), true},
		{"bad string to int", String("abc"), TypeInt, Int(0), false},
		{"list to vec2", List(Float(1), Int(2)), TypeVec2f, Vec2(Vec2f{1, 2}), true},
		{"short list to vec3", List(Float(1)), TypeVec3f, List(Float(1)), false},
		{"number to vec4", Float(1), TypeVec4f, Vec4(Vec4f{1, 1, 1, 1}), true},
		{"vec to list", Vec2(Vec2f{1, 2}), TypeList, List(Float(1), Float(2)), true},
		{"anything to impulse", String("x"), TypeImpulse, Impulse(), true},
		{"int to string", Int(12), TypeString, String("12"), true},
		{"none to float", None(), TypeFloat, None(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Convert(tt.in, tt.target)
			if ok != tt.ok {
				t.Fatalf("Convert() ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Convert() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDomainClamp(t *testing.T) {
	d := MakeDomain(Float(0), Float(10))

	tests := []struct {
		name string
		mode BoundingMode
		in   Value
		want Value
	}{
		{"free", BoundFree, Float(12), Float(12)},
		{"clip high", BoundClip, Float(12), Float(10)},
		{"clip low", BoundClip, Float(-1), Float(0)},
		{"low only", BoundLow, Float(12), Float(12)},
		{"high only", BoundHigh, Float(12), Float(10)},
		{"wrap", BoundWrap, Float(12), Float(2)},
		{"fold", BoundFold, Float(12), Float(8)},
		{"int keeps type", BoundClip, Int(20), Int(10)},
		{"vector components", BoundClip, Vec2(Vec2f{-5, 15}), Vec2(Vec2f{0, 10})},
		{"string passes", BoundClip, String("x"), String("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Clamp(tt.in, tt.mode)
			if err != nil {
				t.Fatalf("Clamp() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Clamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDomainValues(t *testing.T) {
	d := MakeDomainValues(None(), None(), []Value{String("a"), String("b")})

	if d.Empty() {
		t.Fatal("domain with values should not be empty")
	}
	if _, err := d.Clamp(String("c"), BoundClip); err != ErrNotInDomain {
		t.Errorf("expected ErrNotInDomain, got %v", err)
	}
	if _, err := d.Clamp(String("c"), BoundFree); err != nil {
		t.Errorf("free mode should accept anything, got %v", err)
	}
	if got, err := d.Clamp(String("b"), BoundClip); err != nil || !got.Equal(String("b")) {
		t.Errorf("Clamp(b) = %v, %v", got, err)
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gain.db", "gain.db"},
		{"Position.Cart2D", "position.cart2D"},
		{"color", "color.argb"},
		{"gain.unknown", ""},
		{"nothing", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseUnit(tt.in).String(); got != tt.want {
				t.Errorf("ParseUnit(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
