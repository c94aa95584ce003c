package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ossia/ossia-sc/pkg/marshal"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/value"
)

// Inspector errors.
var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrAmbiguousDevice   = errors.New("path does not name a device")
	ErrNodeNotFound      = errors.New("node not found")
	ErrNoParameter       = errors.New("node has no parameter")
	ErrNotWritable       = errors.New("attribute is not writable")
	ErrInvalidValue      = errors.New("invalid value")
	ErrAttributeRequired = errors.New("path has no attribute")
)

// DeviceSource lists the devices an Inspector can see.
type DeviceSource interface {
	Devices() []*model.Device
}

// Inspector provides inspection and mutation capabilities for local trees.
type Inspector struct {
	source DeviceSource
}

// NewInspector creates a new Inspector over the devices of source.
func NewInspector(source DeviceSource) *Inspector {
	return &Inspector{source: source}
}

// NodeInfo represents a node and its subtree for display.
type NodeInfo struct {
	Name        string
	Address     string
	Description string
	Tags        []string
	Hidden      bool
	Disabled    bool
	Muted       bool
	Zombie      bool
	Parameter   *ParameterInfo
	Children    []NodeInfo
}

// ParameterInfo represents parameter information for display.
type ParameterInfo struct {
	Type             value.Type
	Value            value.Value
	Access           value.AccessMode
	Domain           value.Domain
	Bounding         value.BoundingMode
	Unit             value.Unit
	Priority         float32
	Critical         bool
	RepetitionFilter bool
}

// Device returns the device a path designates. A path without a device
// name designates the only device, if there is exactly one.
func (i *Inspector) Device(path *Path) (*model.Device, error) {
	devices := i.source.Devices()
	if path.Device == "" {
		if len(devices) == 1 {
			return devices[0], nil
		}
		return nil, ErrAmbiguousDevice
	}
	for _, d := range devices {
		if d.Name() == path.Device {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, path.Device)
}

// Resolve returns the node a path designates.
func (i *Inspector) Resolve(path *Path) (*model.Node, error) {
	d, err := i.Device(path)
	if err != nil {
		return nil, err
	}
	if path.IsRoot() {
		return d.Root(), nil
	}
	n := model.FindNode(d.Root(), path.Address)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, path.Address)
	}
	return n, nil
}

// Inspect returns the subtree under the node a path designates.
func (i *Inspector) Inspect(path *Path) (*NodeInfo, error) {
	n, err := i.Resolve(path)
	if err != nil {
		return nil, err
	}
	info := inspectNode(n)
	return &info, nil
}

func inspectNode(n *model.Node) NodeInfo {
	info := NodeInfo{
		Name:     n.Name(),
		Address:  n.OSCAddress(),
		Tags:     n.Tags(),
		Hidden:   n.Hidden(),
		Disabled: n.Disabled(),
		Muted:    n.Muted(),
		Zombie:   n.Zombie(),
	}
	info.Description, _ = n.Description()

	if p := n.Parameter(); p != nil {
		info.Parameter = &ParameterInfo{
			Type:             p.Type(),
			Value:            p.Value(),
			Access:           p.Access(),
			Domain:           p.Domain(),
			Bounding:         p.BoundingMode(),
			Unit:             p.Unit(),
			Priority:         p.Priority(),
			Critical:         p.Critical(),
			RepetitionFilter: p.RepetitionFilter(),
		}
	}

	for _, c := range n.Children() {
		info.Children = append(info.Children, inspectNode(c))
	}
	return info
}

// Attributes returns every attribute of a node as display rows.
func (i *Inspector) Attributes(path *Path, f *Formatter) ([]AttributeRow, error) {
	n, err := i.Resolve(path)
	if err != nil {
		return nil, err
	}
	if f == nil {
		f = NewFormatter()
	}

	var rows []AttributeRow
	for _, attr := range AttributeNames() {
		if IsParameterAttribute(attr) && n.Parameter() == nil {
			continue
		}
		text, err := readAttribute(n, attr, f)
		if err != nil {
			continue
		}
		rows = append(rows, AttributeRow{Name: attr, Value: text})
	}
	return rows, nil
}

// ReadAttribute reads the attribute a path designates as display text.
func (i *Inspector) ReadAttribute(path *Path, f *Formatter) (string, error) {
	if path.Attribute == "" {
		return "", ErrAttributeRequired
	}
	n, err := i.Resolve(path)
	if err != nil {
		return "", err
	}
	if f == nil {
		f = NewFormatter()
	}
	return readAttribute(n, path.Attribute, f)
}

func readAttribute(n *model.Node, attr string, f *Formatter) (string, error) {
	p := n.Parameter()
	if IsParameterAttribute(attr) && p == nil {
		return "", fmt.Errorf("%w: %s", ErrNoParameter, n.OSCAddress())
	}

	switch attr {
	case AttrName:
		return n.Name(), nil
	case AttrDescription:
		if desc, ok := n.Description(); ok {
			return strconv.Quote(desc), nil
		}
		return "null", nil
	case AttrTags:
		return "[" + strings.Join(n.Tags(), ", ") + "]", nil
	case AttrHidden:
		return strconv.FormatBool(n.Hidden()), nil
	case AttrDisabled:
		return strconv.FormatBool(n.Disabled()), nil
	case AttrMuted:
		return strconv.FormatBool(n.Muted()), nil
	case AttrZombie:
		return strconv.FormatBool(n.Zombie()), nil
	case AttrValue:
		return f.FormatValue(p.Value(), p.Unit()), nil
	case AttrType:
		return p.Type().String(), nil
	case AttrAccess:
		return FormatAccess(p.Access()), nil
	case AttrDomain:
		return f.FormatDomain(p.Domain()), nil
	case AttrBounding:
		return FormatBounding(p.BoundingMode()), nil
	case AttrUnit:
		if p.Unit().IsZero() {
			return "none", nil
		}
		return p.Unit().String(), nil
	case AttrPriority:
		return strconv.FormatFloat(float64(p.Priority()), 'g', -1, 32), nil
	case AttrCritical:
		return strconv.FormatBool(p.Critical()), nil
	case AttrRepetitionFilter:
		return strconv.FormatBool(p.RepetitionFilter()), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAttribute, attr)
}

// WriteAttribute parses text and writes it into the attribute a path
// designates. Values are pushed through the device protocol.
func (i *Inspector) WriteAttribute(path *Path, text string) error {
	attr := path.Attribute
	if attr == "" {
		attr = AttrValue
	}
	n, err := i.Resolve(path)
	if err != nil {
		return err
	}
	p := n.Parameter()
	if IsParameterAttribute(attr) && p == nil {
		return fmt.Errorf("%w: %s", ErrNoParameter, n.OSCAddress())
	}
	text = strings.TrimSpace(text)

	switch attr {
	case AttrName:
		return n.SetName(text)
	case AttrDescription:
		n.SetDescription(unquote(text))
	case AttrTags:
		n.SetTags(splitList(text))
	case AttrHidden, AttrDisabled, AttrMuted, AttrCritical, AttrRepetitionFilter:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidValue, text)
		}
		setFlag(n, attr, b)
	case AttrValue:
		v, err := ParseValue(text, p.Type())
		if err != nil {
			return err
		}
		return p.PushValue(v)
	case AttrAccess:
		mode, ok := marshal.AccessModes.Lookup(text)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidValue, text)
		}
		p.SetAccess(mode)
	case AttrDomain:
		d, err := ParseDomain(text, p.Type())
		if err != nil {
			return err
		}
		p.SetDomain(d)
	case AttrBounding:
		mode, ok := marshal.BoundingModes.Lookup(strings.ToLower(text))
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidValue, text)
		}
		p.SetBoundingMode(mode)
	case AttrUnit:
		p.SetUnit(value.ParseUnit(text))
	case AttrPriority:
		prio, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidValue, text)
		}
		p.SetPriority(float32(prio))
	default:
		return fmt.Errorf("%w: %s", ErrNotWritable, attr)
	}
	return nil
}

func setFlag(n *model.Node, attr string, b bool) {
	switch attr {
	case AttrHidden:
		n.SetHidden(b)
	case AttrDisabled:
		n.SetDisabled(b)
	case AttrMuted:
		n.SetMuted(b)
	case AttrCritical:
		n.Parameter().SetCritical(b)
	case AttrRepetitionFilter:
		n.Parameter().SetRepetitionFilter(b)
	}
}

// ParseValue parses display text into a value of type t.
//
// Numbers, booleans, quoted or bare strings and bracketed lists such as
// "[1, 2, 3]" are accepted. Impulses accept any text.
func ParseValue(text string, t value.Type) (value.Value, error) {
	if t == value.TypeImpulse {
		return value.Impulse(), nil
	}
	v := parseScalar(strings.TrimSpace(text))
	if t == value.TypeString {
		v = value.String(unquote(text))
	}
	out, ok := value.Convert(v, t)
	if !ok {
		return value.None(), fmt.Errorf("%w: %q as %s", ErrInvalidValue, text, t)
	}
	return out, nil
}

func parseScalar(text string) value.Value {
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		items := splitList(text)
		elems := make([]value.Value, len(items))
		for i, item := range items {
			elems[i] = parseScalar(item)
		}
		return value.List(elems...)
	}
	if i, err := strconv.ParseInt(text, 10, 32); err == nil {
		return value.Int(int32(i))
	}
	if f, err := strconv.ParseFloat(text, 32); err == nil {
		return value.Float(float32(f))
	}
	if b, err := strconv.ParseBool(text); err == nil {
		return value.Bool(b)
	}
	return value.String(unquote(text))
}

// ParseDomain parses "[min, max]" into a domain of type t. "none" clears it.
func ParseDomain(text string, t value.Type) (value.Domain, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "none" {
		return value.Domain{}, nil
	}
	items := splitList(text)
	if len(items) != 2 {
		return value.Domain{}, fmt.Errorf("%w: domain needs min and max", ErrInvalidValue)
	}
	lo, err := ParseValue(items[0], t)
	if err != nil {
		return value.Domain{}, err
	}
	hi, err := ParseValue(items[1], t)
	if err != nil {
		return value.Domain{}, err
	}
	return value.MakeDomain(lo, hi), nil
}

// splitList splits "[a, b]" or "a, b" into trimmed items. Brackets nest.
func splitList(text string) []string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		text = text[1 : len(text)-1]
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var (
		out   []string
		depth int
		start int
	)
	for i, r := range text {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(text[start:]))
}

func unquote(text string) string {
	if s, err := strconv.Unquote(strings.TrimSpace(text)); err == nil {
		return s
	}
	return strings.TrimSpace(text)
}
