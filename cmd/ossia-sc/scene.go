package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ossia/ossia-sc/cmd/ossia-sc/interactive"
	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/persistence"
	"github.com/ossia/ossia-sc/pkg/primitives"
)

// Scene errors.
var (
	ErrNoDeviceName    = errors.New("device has no name")
	ErrNoParameterPath = errors.New("parameter has no path")
	ErrUnknownProtocol = errors.New("unknown exposure protocol")
)

// Scene declares the devices to create at startup.
type Scene struct {
	Devices []SceneDevice `yaml:"devices"`
}

// SceneDevice declares one device, its tree and its exposures.
type SceneDevice struct {
	Name       string           `yaml:"name"`
	Expose     []SceneExposure  `yaml:"expose,omitempty"`
	Nodes      []string         `yaml:"nodes,omitempty"`
	Parameters []SceneParameter `yaml:"parameters,omitempty"`
	Preset     string           `yaml:"preset,omitempty"`
}

// SceneExposure declares one transport of a device.
type SceneExposure struct {
	Protocol   string `yaml:"protocol"`
	Host       string `yaml:"host,omitempty"`
	RemotePort int    `yaml:"remote_port,omitempty"`
	LocalPort  int    `yaml:"local_port,omitempty"`
	OSCPort    int    `yaml:"osc_port,omitempty"`
	WSPort     int    `yaml:"ws_port,omitempty"`
}

// SceneParameter declares one parameter. Path is relative to the device
// root; missing intermediate nodes are created.
type SceneParameter struct {
	Path             string   `yaml:"path"`
	Var              string   `yaml:"var,omitempty"`
	Type             string   `yaml:"type,omitempty"`
	Domain           []any    `yaml:"domain,omitempty"`
	Bounding         string   `yaml:"bounding,omitempty"`
	Default          any      `yaml:"default,omitempty"`
	Access           string   `yaml:"access,omitempty"`
	Unit             string   `yaml:"unit,omitempty"`
	Priority         int      `yaml:"priority,omitempty"`
	Critical         bool     `yaml:"critical,omitempty"`
	RepetitionFilter bool     `yaml:"repetition_filter,omitempty"`
	Description      string   `yaml:"description,omitempty"`
	Tags             []string `yaml:"tags,omitempty"`
	Callback         bool     `yaml:"callback,omitempty"`
}

// typeClasses maps value type names to the host classes that declare them.
var typeClasses = map[string]string{
	"impulse": "Impulse",
	"bool":    "Boolean",
	"char":    "Char",
	"int":     "Integer",
	"float":   "Float",
	"string":  "String",
	"vec2f":   "OSSIA_vec2f",
	"vec3f":   "OSSIA_vec3f",
	"vec4f":   "OSSIA_vec4f",
	"list":    "List",
}

// LoadScene reads a YAML scene file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScene(data)
}

// ParseScene parses a YAML scene document.
func ParseScene(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	for i, d := range s.Devices {
		if d.Name == "" {
			return nil, fmt.Errorf("device %d: %w", i, ErrNoDeviceName)
		}
		for _, p := range d.Parameters {
			if strings.Trim(p.Path, "/") == "" {
				return nil, fmt.Errorf("device %s: %w", d.Name, ErrNoParameterPath)
			}
		}
	}
	return &s, nil
}

// SceneFromSession rebuilds the scene a saved session describes. Only
// devices and exposures are restored; values come back through presets.
func SceneFromSession(state *persistence.SessionState) *Scene {
	s := &Scene{}
	for _, d := range state.Devices {
		sd := SceneDevice{Name: d.Name, Preset: d.Preset}
		for _, e := range d.Exposures {
			sd.Expose = append(sd.Expose, SceneExposure(e))
		}
		s.Devices = append(s.Devices, sd)
	}
	return s
}

// Apply creates the scene through the operation table. Devices are bound
// in env by name and parameters by var, or "<device>:/<path>" without one.
func (s *Scene) Apply(rt *primitives.Runtime, env *interactive.Env) error {
	for _, d := range s.Devices {
		if err := applyDevice(rt, env, &d); err != nil {
			return fmt.Errorf("device %s: %w", d.Name, err)
		}
	}
	return nil
}

func applyDevice(rt *primitives.Runtime, env *interactive.Env, d *SceneDevice) error {
	dev := host.Obj(host.NewObject("OSSIA_Device", 1))
	if err := rt.Call("_OSSIA_InstantiateDevice", primitives.Frame{dev, host.Symbol(d.Name)}); err != nil {
		return err
	}
	env.Bind(d.Name, dev)

	for _, path := range d.Nodes {
		path = strings.Trim(path, "/")
		node := host.Obj(host.NewObject("OSSIA_Node", 1))
		if err := rt.Call("_OSSIA_InstantiateNode", primitives.Frame{node, dev, host.String(path)}); err != nil {
			return fmt.Errorf("node %s: %w", path, err)
		}
		env.Bind(d.Name+":/"+path, node)
	}

	for i := range d.Parameters {
		p := &d.Parameters[i]
		param, err := applyParameter(rt, dev, p)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", p.Path, err)
		}
		name := p.Var
		if name == "" {
			name = d.Name + ":/" + strings.Trim(p.Path, "/")
		}
		env.Bind(name, param)
	}

	for _, e := range d.Expose {
		if err := applyExposure(rt, dev, e); err != nil {
			return fmt.Errorf("expose %s: %w", e.Protocol, err)
		}
	}

	if d.Preset != "" {
		if err := rt.Call("_OSSIA_PresetLoad", primitives.Frame{dev, host.String(d.Preset)}); err != nil {
			return fmt.Errorf("preset: %w", err)
		}
	}
	return nil
}

func applyParameter(rt *primitives.Runtime, dev host.Slot, p *SceneParameter) (host.Slot, error) {
	param := host.Obj(host.NewObject("OSSIA_Parameter", 1))

	typ := host.Nil()
	if p.Type != "" {
		class, ok := typeClasses[strings.ToLower(p.Type)]
		if !ok {
			class = p.Type
		}
		typ = host.Class(class)
	}
	domain := host.Nil()
	if len(p.Domain) > 0 {
		domain = yamlSlot(p.Domain)
	}
	bounding := host.Nil()
	if p.Bounding != "" {
		bounding = host.Symbol(p.Bounding)
	}

	frame := primitives.Frame{
		param, dev, host.String(strings.Trim(p.Path, "/")), typ, domain,
		yamlSlot(p.Default), bounding, host.Bool(p.Critical), host.Bool(p.RepetitionFilter),
	}
	if err := rt.Call("_OSSIA_InstantiateParameter", frame); err != nil {
		return host.Nil(), err
	}

	var setters []setter
	add := func(op string, arg host.Slot) {
		setters = append(setters, setter{op, arg})
	}
	if p.Access != "" {
		add("_OSSIA_ParameterSetAccessMode", host.Symbol(p.Access))
	}
	if p.Unit != "" {
		add("_OSSIA_ParameterSetUnit", host.String(p.Unit))
	}
	if p.Priority != 0 {
		add("_OSSIA_ParameterSetPriority", host.Int(int64(p.Priority)))
	}
	if p.Description != "" {
		add("_OSSIA_NodeSetDescription", host.String(p.Description))
	}
	if len(p.Tags) > 0 {
		add("_OSSIA_NodeSetTags", yamlSlot(toAny(p.Tags)))
	}
	for _, s := range setters {
		if err := rt.Call(s.op, primitives.Frame{param, s.arg}); err != nil {
			return host.Nil(), err
		}
	}

	if p.Callback {
		if err := rt.Call("_OSSIA_ParameterSetCallback", primitives.Frame{param}); err != nil {
			return host.Nil(), err
		}
	}
	return param, nil
}

// setter is one single-argument operation applied to a new parameter.
type setter struct {
	op  string
	arg host.Slot
}

func applyExposure(rt *primitives.Runtime, dev host.Slot, e SceneExposure) error {
	switch strings.ToLower(e.Protocol) {
	case "oscquery":
		return rt.Call("_OSSIA_ExposeOSCQueryServer", primitives.Frame{
			dev, host.Int(int64(e.OSCPort)), host.Int(int64(e.WSPort)),
		})
	case "mirror":
		return rt.Call("_OSSIA_ExposeOSCQueryMirror", primitives.Frame{dev, host.String(e.Host)})
	case "minuit":
		return rt.Call("_OSSIA_ExposeMinuit", primitives.Frame{
			dev, host.String(e.Host), host.Int(int64(e.RemotePort)), host.Int(int64(e.LocalPort)),
		})
	case "osc":
		return rt.Call("_OSSIA_ExposeOSC", primitives.Frame{
			dev, host.String(e.Host), host.Int(int64(e.RemotePort)), host.Int(int64(e.LocalPort)),
		})
	}
	return fmt.Errorf("%w: %s", ErrUnknownProtocol, e.Protocol)
}

// yamlSlot converts a decoded YAML value into a host value.
func yamlSlot(v any) host.Slot {
	switch x := v.(type) {
	case nil:
		return host.Nil()
	case bool:
		return host.Bool(x)
	case int:
		return host.Int(int64(x))
	case int64:
		return host.Int(x)
	case float64:
		return host.Float(x)
	case string:
		return host.String(x)
	case []any:
		elems := make([]host.Slot, len(x))
		for i, e := range x {
			elems[i] = yamlSlot(e)
		}
		return host.Array(elems...)
	}
	return host.String(fmt.Sprint(v))
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
