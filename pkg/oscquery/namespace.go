package oscquery

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/protocol"
	"github.com/ossia/ossia-sc/pkg/value"
)

// Namespace attribute keys.
const (
	AttrFullPath    = "FULL_PATH"
	AttrContents    = "CONTENTS"
	AttrType        = "TYPE"
	AttrValue       = "VALUE"
	AttrRange       = "RANGE"
	AttrAccess      = "ACCESS"
	AttrClipMode    = "CLIPMODE"
	AttrDescription = "DESCRIPTION"
	AttrTags        = "TAGS"
	AttrCritical    = "CRITICAL"
	AttrPriority    = "PRIORITY"
	AttrUnit        = "UNIT"
	AttrHostInfo    = "HOST_INFO"
)

// parameterAttributes are only present on nodes with a parameter.
var parameterAttributes = []string{
	AttrType, AttrValue, AttrRange, AttrAccess, AttrClipMode,
	AttrCritical, AttrPriority, AttrUnit,
}

// HostInfo is the answer to "?HOST_INFO".
type HostInfo struct {
	Name         string          `json:"NAME"`
	OSCIP        string          `json:"OSC_IP,omitempty"`
	OSCPort      int             `json:"OSC_PORT"`
	OSCTransport string          `json:"OSC_TRANSPORT"`
	WSPort       int             `json:"WS_PORT,omitempty"`
	Extensions   map[string]bool `json:"EXTENSIONS"`
}

// Range is one element of the RANGE attribute.
type Range struct {
	Min  any   `json:"MIN,omitempty"`
	Max  any   `json:"MAX,omitempty"`
	Vals []any `json:"VALS,omitempty"`
}

// Access values of the ACCESS attribute.
const (
	accessNone = 0
	accessGet  = 1
	accessSet  = 2
	accessBi   = 3
)

// BuildNode returns the namespace object of n and its subtree.
func BuildNode(n *model.Node) map[string]any {
	out := map[string]any{AttrFullPath: n.OSCAddress()}

	if desc, ok := n.Description(); ok {
		out[AttrDescription] = desc
	}
	if tags := n.Tags(); len(tags) > 0 {
		out[AttrTags] = tags
	}

	if p := n.Parameter(); p != nil {
		for _, attr := range parameterAttributes {
			if v, ok := Attribute(p, attr); ok {
				out[attr] = v
			}
		}
	}

	if children := n.Children(); len(children) > 0 {
		contents := make(map[string]any, len(children))
		for _, c := range children {
			if c.Hidden() {
				continue
			}
			contents[c.Name()] = BuildNode(c)
		}
		out[AttrContents] = contents
	}
	return out
}

// Attribute returns one parameter attribute in its JSON form.
func Attribute(p *model.Parameter, attr string) (any, bool) {
	switch attr {
	case AttrType:
		return TypeTag(p.Type(), p.Value()), true
	case AttrValue:
		if p.Type() == value.TypeImpulse {
			return []any{}, true
		}
		return jsonValues(p.Value()), true
	case AttrRange:
		d := p.Domain()
		if d.Empty() {
			return nil, false
		}
		return ranges(p.Type(), d), true
	case AttrAccess:
		return accessCode(p.Access()), true
	case AttrClipMode:
		return clipMode(p.BoundingMode()), true
	case AttrCritical:
		return p.Critical(), true
	case AttrPriority:
		return p.Priority(), true
	case AttrUnit:
		if p.Unit().IsZero() {
			return nil, false
		}
		return []string{p.Unit().String()}, true
	case AttrDescription:
		desc, ok := p.Node().Description()
		return desc, ok
	case AttrTags:
		tags := p.Node().Tags()
		return tags, len(tags) > 0
	}
	return nil, false
}

// TypeTag returns the OSC type tag string of a parameter.
func TypeTag(t value.Type, v value.Value) string {
	switch t {
	case value.TypeImpulse:
		return "I"
	case value.TypeBool:
		if b, _ := v.AsBool(); b {
			return "T"
		}
		return "F"
	case value.TypeChar:
		return "c"
	case value.TypeInt:
		return "i"
	case value.TypeFloat:
		return "f"
	case value.TypeString:
		return "s"
	case value.TypeVec2f, value.TypeVec3f, value.TypeVec4f:
		return strings.Repeat("f", t.Arity())
	case value.TypeList:
		var b strings.Builder
		b.WriteByte('[')
		if l, ok := v.AsList(); ok {
			for _, e := range l {
				b.WriteString(TypeTag(e.Type(), e))
			}
		}
		b.WriteByte(']')
		return b.String()
	}
	return "N"
}

// ParseTypeTag maps an OSC type tag string onto a value type.
func ParseTypeTag(tag string) value.Type {
	switch tag {
	case "", "I", "N":
		return value.TypeImpulse
	case "T", "F":
		return value.TypeBool
	case "c":
		return value.TypeChar
	case "i", "h":
		return value.TypeInt
	case "f", "d":
		return value.TypeFloat
	case "s", "S":
		return value.TypeString
	case "ff":
		return value.TypeVec2f
	case "fff":
		return value.TypeVec3f
	case "ffff":
		return value.TypeVec4f
	}
	return value.TypeList
}

func accessCode(a value.AccessMode) int {
	switch a {
	case value.AccessGet:
		return accessGet
	case value.AccessSet:
		return accessSet
	case value.AccessBi:
		return accessBi
	}
	return accessNone
}

func parseAccess(code int) value.AccessMode {
	switch code {
	case accessGet:
		return value.AccessGet
	case accessSet:
		return value.AccessSet
	}
	return value.AccessBi
}

var clipModes = map[value.BoundingMode]string{
	value.BoundFree: "none",
	value.BoundClip: "both",
	value.BoundLow:  "low",
	value.BoundHigh: "high",
	value.BoundWrap: "wrap",
	value.BoundFold: "fold",
}

func clipMode(b value.BoundingMode) string {
	if s, ok := clipModes[b]; ok {
		return s
	}
	return "none"
}

func parseClipMode(s string) value.BoundingMode {
	for mode, name := range clipModes {
		if name == s {
			return mode
		}
	}
	return value.BoundFree
}

// jsonValues flattens a value into JSON array elements.
func jsonValues(v value.Value) []any {
	args := protocol.Args(v)
	out := make([]any, len(args))
	copy(out, args)
	return out
}

// ranges builds one RANGE element per value component.
func ranges(t value.Type, d value.Domain) []Range {
	n := t.Arity()
	if n == 0 {
		r := Range{Min: scalar(d.Min()), Max: scalar(d.Max())}
		for _, v := range d.Values() {
			r.Vals = append(r.Vals, scalar(v))
		}
		return []Range{r}
	}

	out := make([]Range, n)
	for i := range out {
		out[i] = Range{Min: component(d.Min(), i), Max: component(d.Max(), i)}
	}
	return out
}

func scalar(v value.Value) any {
	args := protocol.Args(v)
	if len(args) == 1 {
		return args[0]
	}
	return nil
}

func component(v value.Value, i int) any {
	if fs := v.Floats(); fs != nil {
		if i < len(fs) {
			return fs[i]
		}
		return nil
	}
	return scalar(v)
}

// decodeValue builds a value of type t from JSON array elements.
func decodeValue(t value.Type, raw []any) (value.Value, error) {
	if t == value.TypeImpulse {
		return value.Impulse(), nil
	}
	elems := make([]value.Value, 0, len(raw))
	for _, r := range raw {
		e, err := decodeScalar(r)
		if err != nil {
			return value.None(), err
		}
		elems = append(elems, e)
	}

	var v value.Value
	switch {
	case len(elems) == 1 && t != value.TypeList:
		v = elems[0]
	default:
		v = value.List(elems...)
	}
	out, ok := value.Convert(v, t)
	if !ok {
		return value.None(), fmt.Errorf("cannot convert %v to %s", v, t)
	}
	return out, nil
}

func decodeScalar(r any) (value.Value, error) {
	switch x := r.(type) {
	case bool:
		return value.Bool(x), nil
	case string:
		return value.String(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return value.Int(int32(i)), nil
		}
		f, err := x.Float64()
		if err != nil {
			return value.None(), err
		}
		return value.Float(float32(f)), nil
	case float64:
		return value.Float(float32(x)), nil
	case nil:
		return value.None(), nil
	case []any:
		elems := make([]value.Value, 0, len(x))
		for _, e := range x {
			v, err := decodeScalar(e)
			if err != nil {
				return value.None(), err
			}
			elems = append(elems, v)
		}
		return value.List(elems...), nil
	}
	return value.None(), fmt.Errorf("unsupported JSON value %T", r)
}

// decodeDomain builds a domain from RANGE elements.
func decodeDomain(t value.Type, raw []any) value.Domain {
	if len(raw) == 0 {
		return value.Domain{}
	}
	if n := t.Arity(); n > 0 && len(raw) == n {
		mins := make([]value.Value, n)
		maxs := make([]value.Value, n)
		for i, r := range raw {
			m, _ := r.(map[string]any)
			mins[i], _ = decodeScalar(m["MIN"])
			maxs[i], _ = decodeScalar(m["MAX"])
		}
		return value.MakeDomain(vecOf(t, mins), vecOf(t, maxs))
	}

	m, _ := raw[0].(map[string]any)
	lo, _ := decodeScalar(m["MIN"])
	hi, _ := decodeScalar(m["MAX"])
	var vals []value.Value
	if list, ok := m["VALS"].([]any); ok {
		for _, e := range list {
			if v, err := decodeScalar(e); err == nil {
				vals = append(vals, v)
			}
		}
	}
	return value.MakeDomainValues(convertOrNone(lo, t), convertOrNone(hi, t), vals)
}

func convertOrNone(v value.Value, t value.Type) value.Value {
	if !v.Valid() {
		return v
	}
	if out, ok := value.Convert(v, t); ok {
		return out
	}
	return value.None()
}

// vecOf combines per-component bounds. A missing component drops the bound.
func vecOf(t value.Type, comps []value.Value) value.Value {
	for _, c := range comps {
		if !c.Valid() {
			return value.None()
		}
	}
	v, ok := value.Convert(value.List(comps...), t)
	if !ok {
		return value.None()
	}
	return v
}
