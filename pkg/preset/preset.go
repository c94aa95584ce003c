package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ossia/ossia-sc/pkg/marshal"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/value"
)

// ValueKey holds the value of a node that also has children.
const ValueKey = ":value"

// ErrBadDocument is returned by ReadJSON for text that is not a preset.
var ErrBadDocument = errors.New("invalid preset document")

// Preset maps relative addresses ("/osc/freq") to values.
type Preset map[string]value.Value

// Addresses returns the addresses in sorted order.
func (p Preset) Addresses() []string {
	out := make([]string, 0, len(p))
	for a := range p {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Make captures the values of every parameter under n, n included.
// Impulses carry no state and are skipped.
func Make(n *model.Node) Preset {
	p := make(Preset)
	collect(n, "", p)
	return p
}

func collect(n *model.Node, prefix string, out Preset) {
	if param := n.Parameter(); param != nil && param.Type() != value.TypeImpulse {
		addr := prefix
		if addr == "" {
			addr = "/"
		}
		out[addr] = param.Value()
	}
	for _, c := range n.Children() {
		collect(c, prefix+"/"+c.Name(), out)
	}
}

// Apply sends every value of p to the matching parameter under n.
// Values are stored and pushed to the network without firing callbacks,
// so Apply can run while the interpreter gate is held. List elements take
// the type of the element they replace. Addresses without a parameter are
// skipped and reported together as a node-not-found error once the rest
// is applied.
func Apply(n *model.Node, p Preset) error {
	var missing []string
	var errs []error
	for _, addr := range p.Addresses() {
		target := model.FindNode(n, addr)
		if target == nil || target.Parameter() == nil {
			missing = append(missing, addr)
			continue
		}
		param := target.Parameter()
		if err := param.SendValue(conform(p[addr], param.Value())); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
		}
	}
	if len(missing) > 0 {
		errs = append(errs, &marshal.Error{
			Kind:   marshal.KindNodeNotFound,
			Detail: strings.Join(missing, ", "),
		})
	}
	return errors.Join(errs...)
}

// conform converts the elements of list v to the types of the matching
// elements of current. Scalars are converted by the parameter itself.
func conform(v, current value.Value) value.Value {
	elems, ok := v.AsList()
	cur, curOK := current.AsList()
	if !ok || !curOK {
		return v
	}
	out := make([]value.Value, len(elems))
	for i, e := range elems {
		out[i] = e
		if i < len(cur) {
			if c, ok := value.Convert(e, cur[i].Type()); ok {
				out[i] = conform(c, cur[i])
			}
		}
	}
	return value.List(out...)
}

// WriteJSON renders p as a document rooted at name.
func WriteJSON(name string, p Preset) (string, error) {
	root := make(map[string]any)
	for _, addr := range p.Addresses() {
		if err := insert(root, splitAddress(addr), toJSON(p[addr])); err != nil {
			return "", err
		}
	}

	var body any = root
	if v, ok := root[ValueKey]; ok && len(root) == 1 {
		body = v
	}
	data, err := json.MarshalIndent(map[string]any{name: body}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAddress(addr string) []string {
	var parts []string
	for _, s := range strings.Split(addr, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

// insert stores v at path. Values and objects at the same path merge
// through ValueKey.
func insert(obj map[string]any, path []string, v any) error {
	if len(path) == 0 {
		obj[ValueKey] = v
		return nil
	}
	head := path[0]
	if len(path) == 1 {
		if sub, ok := obj[head].(map[string]any); ok {
			sub[ValueKey] = v
			return nil
		}
		obj[head] = v
		return nil
	}

	sub, ok := obj[head].(map[string]any)
	if !ok {
		sub = make(map[string]any)
		if existing, had := obj[head]; had {
			sub[ValueKey] = existing
		}
		obj[head] = sub
	}
	return insert(sub, path[1:], v)
}

func toJSON(v value.Value) any {
	switch v.Type() {
	case value.TypeBool:
		b, _ := v.AsBool()
		return b
	case value.TypeChar:
		c, _ := v.AsChar()
		return string([]byte{c})
	case value.TypeInt:
		i, _ := v.AsInt()
		return i
	case value.TypeFloat:
		f, _ := v.AsFloat()
		return floatJSON(f)
	case value.TypeString:
		s, _ := v.AsString()
		return s
	case value.TypeVec2f, value.TypeVec3f, value.TypeVec4f:
		fs := v.Floats()
		out := make([]any, len(fs))
		for i, f := range fs {
			out[i] = floatJSON(f)
		}
		return out
	case value.TypeList:
		l, _ := v.AsList()
		out := make([]any, len(l))
		for i, e := range l {
			out[i] = toJSON(e)
		}
		return out
	}
	return nil
}

// floatJSON renders f so that it reads back as a float: integral values
// keep a ".0" suffix. NaN and infinities fall back to json.Marshal, which
// rejects them.
func floatJSON(f float32) any {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return f
	}
	text := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	return json.Number(text)
}

// ReadJSON parses a document written by WriteJSON. The root name is
// dropped: addresses are relative to it.
func ReadJSON(text string) (Preset, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	if len(doc) != 1 {
		return nil, fmt.Errorf("%w: want one root, got %d", ErrBadDocument, len(doc))
	}

	p := make(Preset)
	for _, body := range doc {
		if err := flatten(body, "", p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func flatten(raw any, prefix string, out Preset) error {
	obj, ok := raw.(map[string]any)
	if !ok {
		v, err := fromJSON(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBadDocument, orRoot(prefix), err)
		}
		out[orRoot(prefix)] = v
		return nil
	}

	for key, sub := range obj {
		if key == ValueKey {
			v, err := fromJSON(sub)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrBadDocument, orRoot(prefix), err)
			}
			out[orRoot(prefix)] = v
			continue
		}
		if err := flatten(sub, prefix+"/"+key, out); err != nil {
			return err
		}
	}
	return nil
}

func orRoot(addr string) string {
	if addr == "" {
		return "/"
	}
	return addr
}

func fromJSON(raw any) (value.Value, error) {
	switch x := raw.(type) {
	case bool:
		return value.Bool(x), nil
	case string:
		return value.String(x), nil
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			if i, err := strconv.ParseInt(x.String(), 10, 32); err == nil {
				return value.Int(int32(i)), nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return value.None(), err
		}
		return value.Float(float32(f)), nil
	case []any:
		elems := make([]value.Value, len(x))
		for i, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return value.None(), err
			}
			elems[i] = v
		}
		return value.List(elems...), nil
	case nil:
		return value.None(), fmt.Errorf("null value")
	}
	return value.None(), fmt.Errorf("unsupported JSON value %T", raw)
}

// Equal reports whether two presets hold the same addresses and values.
func Equal(a, b Preset) bool {
	if len(a) != len(b) {
		return false
	}
	for addr, v := range a {
		w, ok := b[addr]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

