// Package inspect provides tree inspection and attribute manipulation utilities.
//
// The inspect package offers a unified interface for:
//   - Parsing path expressions (e.g., "synth:/osc/freq@domain")
//   - Resolving attribute names
//   - Reading and writing node and parameter attributes
//   - Formatting output for display
package inspect

import (
	"errors"
	"fmt"
	"strings"
)

// Path errors.
var (
	ErrEmptyPath        = errors.New("empty path")
	ErrInvalidPath      = errors.New("invalid path format")
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// Path represents a parsed inspection path.
// Format: [device:]/node/node[@attribute]
type Path struct {
	// Device is the device name (empty when the path does not name one).
	Device string

	// Address is the OSC address of the node, "/" for the root.
	Address string

	// Attribute is the canonical attribute name (empty for the whole node).
	Attribute string

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string into a Path struct.
//
// Supported formats:
//   - "/osc/freq" - node of the current device
//   - "synth:/osc/freq" - node of a named device
//   - "synth:" or "synth:/" - device root
//   - "/osc/freq@value" - one attribute of a node
//
// A relative address ("osc/freq") is taken from the root.
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	p := &Path{Raw: input}
	rest := input

	if at := strings.LastIndexByte(rest, '@'); at >= 0 {
		attr, ok := ResolveAttributeName(rest[at+1:])
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, rest[at+1:])
		}
		p.Attribute = attr
		rest = rest[:at]
	}

	if colon := strings.IndexByte(rest, ':'); colon >= 0 {
		if slash := strings.IndexByte(rest, '/'); slash < 0 || colon < slash {
			p.Device = rest[:colon]
			rest = rest[colon+1:]
			if p.Device == "" {
				return nil, ErrInvalidPath
			}
		}
	}

	if strings.Contains(rest, "//") {
		return nil, ErrInvalidPath
	}
	p.Address = "/" + strings.Trim(rest, "/")
	return p, nil
}

// String returns the path in its canonical form.
func (p *Path) String() string {
	var sb strings.Builder

	if p.Device != "" {
		sb.WriteString(p.Device)
		sb.WriteString(":")
	}

	addr := p.Address
	if addr == "" {
		addr = "/"
	}
	sb.WriteString(addr)

	if p.Attribute != "" {
		sb.WriteString("@")
		sb.WriteString(p.Attribute)
	}

	return sb.String()
}

// IsRoot reports whether the path designates a device root.
func (p *Path) IsRoot() bool {
	return p.Address == "" || p.Address == "/"
}
