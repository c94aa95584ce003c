package inspect

import (
	"errors"
	"strings"
	"testing"

	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/value"
)

type deviceList []*model.Device

func (l deviceList) Devices() []*model.Device { return l }

func newTestDevice(t *testing.T, name string) *model.Device {
	t.Helper()
	d := model.NewDevice(name, nil)

	add := func(path string, typ value.Type, v value.Value) *model.Parameter {
		n, err := model.FindOrCreateNode(d.Root(), path)
		if err != nil {
			t.Fatalf("FindOrCreateNode(%s): %v", path, err)
		}
		p, err := n.CreateParameter(typ)
		if err != nil {
			t.Fatalf("CreateParameter(%s): %v", path, err)
		}
		if err := p.PushValue(v); err != nil {
			t.Fatalf("PushValue(%s): %v", path, err)
		}
		return p
	}

	freq := add("/osc/freq", value.TypeFloat, value.Float(440))
	freq.SetDomain(value.MakeDomain(value.Float(20), value.Float(20000)))
	freq.SetBoundingMode(value.BoundClip)
	add("/osc/wave", value.TypeString, value.String("saw"))
	add("/pos", value.TypeVec2f, value.Vec2(value.Vec2f{0, 0}))
	model.FindNode(d.Root(), "/osc").SetDescription("oscillator")
	return d
}

func mustParse(t *testing.T, input string) *Path {
	t.Helper()
	p, err := ParsePath(input)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", input, err)
	}
	return p
}

func TestInspectorResolve(t *testing.T) {
	synth := newTestDevice(t, "synth")
	single := NewInspector(deviceList{synth})

	n, err := single.Resolve(mustParse(t, "/osc/freq"))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if n.Name() != "freq" {
		t.Errorf("Resolve() = %s, want freq", n.Name())
	}

	root, err := single.Resolve(mustParse(t, "synth:"))
	if err != nil || !root.IsRoot() {
		t.Errorf("Resolve(synth:) = %v, %v; want the root", root, err)
	}

	if _, err := single.Resolve(mustParse(t, "/nope")); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Resolve(/nope) error = %v, want ErrNodeNotFound", err)
	}
	if _, err := single.Resolve(mustParse(t, "drums:/kick")); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Resolve(drums:/kick) error = %v, want ErrDeviceNotFound", err)
	}

	multi := NewInspector(deviceList{synth, newTestDevice(t, "drums")})
	if _, err := multi.Resolve(mustParse(t, "/osc")); !errors.Is(err, ErrAmbiguousDevice) {
		t.Errorf("Resolve() with two devices error = %v, want ErrAmbiguousDevice", err)
	}
	if _, err := multi.Resolve(mustParse(t, "drums:/osc/wave")); err != nil {
		t.Errorf("Resolve(drums:/osc/wave) error: %v", err)
	}
}

func TestInspect(t *testing.T) {
	i := NewInspector(deviceList{newTestDevice(t, "synth")})

	info, err := i.Inspect(mustParse(t, "/osc"))
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if info.Address != "/osc" || info.Description != "oscillator" {
		t.Errorf("Inspect() = %+v", info)
	}
	if len(info.Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(info.Children))
	}
	freq := info.Children[0]
	if freq.Parameter == nil || freq.Parameter.Type != value.TypeFloat {
		t.Fatalf("freq parameter = %+v", freq.Parameter)
	}
	if freq.Parameter.Bounding != value.BoundClip {
		t.Errorf("freq bounding = %v, want clip", freq.Parameter.Bounding)
	}

	tree := NewFormatter().FormatTree(info)
	if !strings.Contains(tree, "freq: 440 (float, bi, [20, 20000] clip)") {
		t.Errorf("FormatTree() =\n%s", tree)
	}
}

func TestReadAttribute(t *testing.T) {
	i := NewInspector(deviceList{newTestDevice(t, "synth")})

	tests := []struct {
		path    string
		want    string
		wantErr error
	}{
		{path: "/osc/freq@value", want: "440"},
		{path: "/osc/freq@type", want: "float"},
		{path: "/osc/freq@domain", want: "[20, 20000]"},
		{path: "/osc/freq@bounding", want: "clip"},
		{path: "/osc/freq@access", want: "bi"},
		{path: "/osc/freq@unit", want: "none"},
		{path: "/osc/wave@value", want: `"saw"`},
		{path: "/osc@description", want: `"oscillator"`},
		{path: "/pos@description", want: "null"},
		{path: "/osc@muted", want: "false"},
		{path: "/osc@value", wantErr: ErrNoParameter},
		{path: "/osc/freq", wantErr: ErrAttributeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := i.ReadAttribute(mustParse(t, tt.path), nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadAttribute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadAttribute() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadAttribute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteAttribute(t *testing.T) {
	d := newTestDevice(t, "synth")
	i := NewInspector(deviceList{d})
	freq := model.FindNode(d.Root(), "/osc/freq").Parameter()

	write := func(path, text string) error {
		t.Helper()
		return i.WriteAttribute(mustParse(t, path), text)
	}

	t.Run("value is bounded", func(t *testing.T) {
		if err := write("/osc/freq", "50000"); err != nil {
			t.Fatalf("WriteAttribute() error: %v", err)
		}
		if f, _ := freq.Value().AsFloat(); f != 20000 {
			t.Errorf("freq = %v, want 20000", f)
		}
	})

	t.Run("vector", func(t *testing.T) {
		if err := write("/pos@value", "[0.25, 1]"); err != nil {
			t.Fatalf("WriteAttribute() error: %v", err)
		}
		pos := model.FindNode(d.Root(), "/pos").Parameter().Value()
		if got, _ := pos.AsVec2(); got != (value.Vec2f{0.25, 1}) {
			t.Errorf("pos = %v", got)
		}
	})

	t.Run("string keeps digits", func(t *testing.T) {
		if err := write("/osc/wave", "42"); err != nil {
			t.Fatalf("WriteAttribute() error: %v", err)
		}
		wave := model.FindNode(d.Root(), "/osc/wave").Parameter().Value()
		if s, _ := wave.AsString(); s != "42" {
			t.Errorf("wave = %q, want 42", s)
		}
	})

	t.Run("metadata", func(t *testing.T) {
		for path, text := range map[string]string{
			"/osc/freq@access":   "get",
			"/osc/freq@bounding": "WRAP",
			"/osc/freq@domain":   "[0, 10]",
			"/osc/freq@unit":     "time.frequency",
			"/osc/freq@priority": "2.5",
			"/osc/freq@critical": "true",
			"/osc@tags":          "[audio, gen]",
			"/osc@description":   `"main oscillator"`,
			"/osc@muted":         "true",
		} {
			if err := write(path, text); err != nil {
				t.Errorf("WriteAttribute(%s, %s) error: %v", path, text, err)
			}
		}

		if freq.Access() != value.AccessGet {
			t.Errorf("access = %v", freq.Access())
		}
		if freq.BoundingMode() != value.BoundWrap {
			t.Errorf("bounding = %v", freq.BoundingMode())
		}
		if hi, _ := freq.Domain().Max().AsFloat(); hi != 10 {
			t.Errorf("domain max = %v", hi)
		}
		if freq.Unit().String() != "time.frequency" {
			t.Errorf("unit = %q", freq.Unit())
		}
		if freq.Priority() != 2.5 || !freq.Critical() {
			t.Errorf("priority = %v, critical = %v", freq.Priority(), freq.Critical())
		}
		osc := model.FindNode(d.Root(), "/osc")
		if tags := osc.Tags(); len(tags) != 2 || tags[1] != "gen" {
			t.Errorf("tags = %v", tags)
		}
		if desc, _ := osc.Description(); desc != "main oscillator" {
			t.Errorf("description = %q", desc)
		}
		if !osc.Muted() {
			t.Error("osc should be muted")
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		if err := write("/osc/freq@access", "sideways"); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("access error = %v", err)
		}
		if err := write("/osc/freq@value", "loud"); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("value error = %v", err)
		}
		if err := write("/osc/freq@domain", "[1]"); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("domain error = %v", err)
		}
		if err := write("/osc/freq@zombie", "true"); !errors.Is(err, ErrNotWritable) {
			t.Errorf("zombie error = %v", err)
		}
		if err := write("/osc@value", "1"); !errors.Is(err, ErrNoParameter) {
			t.Errorf("value on node error = %v", err)
		}
	})
}

func TestAttributes(t *testing.T) {
	i := NewInspector(deviceList{newTestDevice(t, "synth")})

	rows, err := i.Attributes(mustParse(t, "/osc"), nil)
	if err != nil {
		t.Fatalf("Attributes() error: %v", err)
	}
	for _, row := range rows {
		if IsParameterAttribute(row.Name) {
			t.Errorf("node without parameter lists %s", row.Name)
		}
	}

	rows, err = i.Attributes(mustParse(t, "/osc/freq"), nil)
	if err != nil {
		t.Fatalf("Attributes() error: %v", err)
	}
	if len(rows) != len(AttributeNames()) {
		t.Errorf("len(rows) = %d, want %d", len(rows), len(AttributeNames()))
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		text string
		typ  value.Type
		want value.Value
	}{
		{"3", value.TypeFloat, value.Float(3)},
		{"2.5", value.TypeInt, value.Int(2)},
		{"true", value.TypeBool, value.Bool(true)},
		{`"a b"`, value.TypeString, value.String("a b")},
		{"anything", value.TypeImpulse, value.Impulse()},
		{"[1, [2, 3]]", value.TypeList, value.List(value.Int(1), value.List(value.Int(2), value.Int(3)))},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseValue(tt.text, tt.typ)
			if err != nil {
				t.Fatalf("ParseValue() error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseValue() = %v, want %v", got, tt.want)
			}
		})
	}
}
