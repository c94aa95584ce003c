package model

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/ossia/ossia-sc/pkg/value"
)

// Node errors.
var (
	ErrNameTaken       = errors.New("name already used by a sibling")
	ErrInvalidName     = errors.New("invalid node name")
	ErrParameterExists = errors.New("node already has a parameter")
)

// Node is an addressable element of a device tree.
type Node struct {
	mu sync.RWMutex

	name   string
	parent *Node
	device *Device

	// Children in creation order.
	children []*Node

	param *Parameter

	// Extended attributes.
	description *string
	tags        []string
	disabled    bool
	hidden      bool
	muted       bool
	zombie      bool
}

// Name returns the node name.
func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

// SetName renames the node. The name is sanitized first.
// Renaming the root renames the device. Returns ErrNameTaken if a sibling
// already uses the name.
func (n *Node) SetName(name string) error {
	name = SanitizeName(name)
	if name == "" {
		return ErrInvalidName
	}

	if n.parent == nil {
		n.device.SetName(name)
		return nil
	}

	if other := n.parent.FindChild(name); other != nil && other != n {
		return ErrNameTaken
	}

	n.mu.Lock()
	n.name = name
	n.mu.Unlock()
	return nil
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Device returns the owning device.
func (n *Node) Device() *Device {
	return n.device
}

// IsRoot reports whether the node is the device root.
func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// Children returns the child nodes in creation order.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildrenNames returns the child node names in creation order.
func (n *Node) ChildrenNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	names := make([]string, len(n.children))
	for i, c := range n.children {
		names[i] = c.Name()
	}
	return names
}

// FindChild returns the direct child with the given name, or nil.
func (n *Node) FindChild(name string) *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, c := range n.children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// CreateChild adds a child node. Returns ErrNameTaken if it exists.
func (n *Node) CreateChild(name string) (*Node, error) {
	name = SanitizeName(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, c := range n.children {
		if c.Name() == name {
			return nil, ErrNameTaken
		}
	}

	child := &Node{name: name, parent: n, device: n.device}
	n.children = append(n.children, child)
	return child, nil
}

// RemoveChild removes the named child and its subtree.
// Returns false if no such child exists.
func (n *Node) RemoveChild(name string) bool {
	n.mu.Lock()
	var removed *Node
	for i, c := range n.children {
		if c.Name() == name {
			removed = c
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	n.mu.Unlock()

	if removed == nil {
		return false
	}
	removed.Walk(func(c *Node) bool {
		if p := c.Parameter(); p != nil {
			p.ClearCallbacks()
		}
		return true
	})
	return true
}

// Parameter returns the node's parameter, or nil.
func (n *Node) Parameter() *Parameter {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.param
}

// CreateParameter attaches a new parameter of the given type.
// Returns ErrParameterExists if the node already has one.
func (n *Node) CreateParameter(t value.Type) (*Parameter, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.param != nil {
		return nil, ErrParameterExists
	}
	n.param = newParameter(n, t)
	return n.param, nil
}

// RemoveParameter detaches the parameter.
func (n *Node) RemoveParameter() {
	n.mu.Lock()
	p := n.param
	n.param = nil
	n.mu.Unlock()

	if p != nil {
		p.ClearCallbacks()
	}
}

// Description returns the description and whether one is set.
func (n *Node) Description() (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.description == nil {
		return "", false
	}
	return *n.description, true
}

// SetDescription sets the description.
func (n *Node) SetDescription(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.description = &s
}

// Tags returns a copy of the tags.
func (n *Node) Tags() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.tags))
	copy(out, n.tags)
	return out
}

// SetTags replaces the tags.
func (n *Node) SetTags(tags []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tags = make([]string, len(tags))
	copy(n.tags, tags)
}

// Disabled reports the disabled flag.
func (n *Node) Disabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.disabled
}

// SetDisabled sets the disabled flag.
func (n *Node) SetDisabled(b bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disabled = b
}

// Hidden reports the hidden flag.
func (n *Node) Hidden() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.hidden
}

// SetHidden sets the hidden flag.
func (n *Node) SetHidden(b bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hidden = b
}

// Muted reports the muted flag.
func (n *Node) Muted() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.muted
}

// SetMuted sets the muted flag.
func (n *Node) SetMuted(b bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.muted = b
}

// Zombie reports whether the node was removed on the remote side of a mirror.
func (n *Node) Zombie() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.zombie
}

// SetZombie sets the zombie flag. Used by mirror protocols.
func (n *Node) SetZombie(b bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.zombie = b
}

// OSCAddress returns the node address relative to the device ("/a/b").
// The root address is "/".
func (n *Node) OSCAddress() string {
	if n.parent == nil {
		return "/"
	}

	var parts []string
	for c := n; c.parent != nil; c = c.parent {
		parts = append(parts, c.Name())
	}
	slices.Reverse(parts)
	return "/" + strings.Join(parts, "/")
}

// FullPath returns the address prefixed with the device name ("dev:/a/b").
func (n *Node) FullPath() string {
	return n.device.Name() + ":" + n.OSCAddress()
}

// Walk visits the node and its descendants depth-first.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}
