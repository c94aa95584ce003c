// Package registry binds device tree nodes to host objects.
//
// Host objects never hold node pointers. They hold a Handle, an index into
// the Registry's table, stored as a Ptr in the object's first slot. The
// tree owns its nodes; handles are non-owning. FreeDevice is the only
// operation that invalidates handles.
package registry

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/marshal"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/value"
)

// Registry errors.
var (
	ErrExists    = errors.New("node already exists")
	ErrNoSlots   = errors.New("host object has no slots")
	ErrNoParam   = errors.New("node has no parameter")
	ErrNotDevice = errors.New("node is not a device")
)

// NodeClasses are the host classes backed by a tree node.
var NodeClasses = []string{
	"OSSIA_Parameter",
	"OSSIA_Node",
	"OSSIA_MirrorParameter",
	"OSSIA_MirrorNode",
	"OSSIA_Device",
}

// Handle designates a registered node. Zero is never a valid handle.
type Handle uint64

// Registry maps handles to nodes.
type Registry struct {
	mu     sync.RWMutex
	nodes  map[Handle]*model.Node
	byNode map[*model.Node]Handle
	next   Handle

	logger *slog.Logger
}

// New creates an empty registry. A nil logger discards output.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		nodes:  make(map[Handle]*model.Node),
		byNode: make(map[*model.Node]Handle),
		logger: logger,
	}
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// Lookup returns the node for h, or nil.
func (r *Registry) Lookup(h Handle) *model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nodes[h]
}

// handleFor returns the handle of n, allocating one if needed.
func (r *Registry) handleFor(n *model.Node) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.byNode[n]; ok {
		return h
	}
	r.next++
	r.nodes[r.next] = n
	r.byNode[n] = r.next
	return r.next
}

// Register stores the handle of n in the first slot of obj. Several
// objects may designate the same node.
func (r *Registry) Register(obj *host.Object, n *model.Node) Handle {
	h := r.handleFor(n)
	if len(obj.Slots) == 0 {
		obj.Slots = make([]host.Slot, 1)
	}
	obj.Slots[0] = host.Ptr(uint64(h))
	return h
}

// GetNode returns the node designated by a node-backed host object.
func (r *Registry) GetNode(s host.Slot) (*model.Node, error) {
	if err := marshal.CheckArgumentType(s, NodeClasses...); err != nil {
		return nil, err
	}

	obj, ok := s.AsObject()
	if !ok {
		return nil, marshal.ErrWrongType
	}
	if len(obj.Slots) == 0 {
		return nil, ErrNoSlots
	}
	if obj.Slots[0].IsNil() {
		return nil, marshal.ErrUndefined
	}

	p, ok := obj.Slots[0].AsPtr()
	if !ok {
		return nil, marshal.ErrWrongType
	}
	n := r.Lookup(Handle(p))
	if n == nil {
		return nil, marshal.ErrNodeNotFound
	}
	return n, nil
}

// GetParameter returns the parameter of the designated node.
func (r *Registry) GetParameter(s host.Slot) (*model.Parameter, error) {
	n, err := r.GetNode(s)
	if err != nil {
		return nil, err
	}
	p := n.Parameter()
	if p == nil {
		return nil, ErrNoParam
	}
	return p, nil
}

// GetDevice returns the device whose root is designated by s.
func (r *Registry) GetDevice(s host.Slot) (*model.Device, error) {
	n, err := r.GetNode(s)
	if err != nil {
		return nil, err
	}
	if !n.IsRoot() {
		return nil, ErrNotDevice
	}
	return n.Device(), nil
}

// InstantiateNode creates the node name under parent and registers it
// into rcvr. An existing node of that name fails with ErrExists and the
// tree is left unchanged.
func (r *Registry) InstantiateNode(rcvr *host.Object, parent, name host.Slot) (*model.Node, error) {
	pn, err := r.GetNode(parent)
	if err != nil {
		if errors.Is(err, marshal.ErrUndefined) {
			return nil, marshal.WithContext(err, "Parent Argument. Trying in single-device mode...")
		}
		return nil, marshal.WithContext(err, "Parent Argument. Aborting...")
	}

	nm, err := marshal.ReadString(name)
	if err != nil {
		return nil, marshal.WithContext(err, "Name argument.")
	}
	if err := model.ValidatePath(nm); err != nil {
		return nil, marshal.WithContext(err, "Name argument.")
	}
	if model.FindNode(pn, nm) != nil {
		return nil, marshal.WithContext(ErrExists, nm)
	}

	n, err := model.FindOrCreateNode(pn, nm)
	if err != nil {
		return nil, marshal.WithContext(err, "Name argument.")
	}
	r.Register(rcvr, n)
	return n, nil
}

// ParameterArgs are the host arguments of InstantiateParameter.
type ParameterArgs struct {
	Parent           host.Slot
	Name             host.Slot
	Type             host.Slot
	Domain           host.Slot
	Default          host.Slot
	BoundingMode     host.Slot
	Critical         host.Slot
	RepetitionFilter host.Slot
}

// InstantiateParameter creates a parameter node under the parent and
// registers it into rcvr.
//
// Only a bad parent, a bad name, a name collision, an unresolvable type
// and an unknown bounding mode are failures; all of them are detected
// before the tree is touched. An unreadable domain or default value is
// skipped. Impulse and bool parameters ignore domain and bounding mode.
func (r *Registry) InstantiateParameter(rcvr *host.Object, a ParameterArgs) (*model.Parameter, error) {
	parent, err := r.GetNode(a.Parent)
	if err != nil {
		return nil, marshal.WithContext(err, "Parent argument, aborting...")
	}

	if err := marshal.CheckArgumentType(a.Name, "String", "Symbol"); err != nil {
		return nil, marshal.WithContext(err, "Name argument.")
	}
	name, err := marshal.ReadString(a.Name)
	if err != nil {
		return nil, marshal.WithContext(err, "Name argument.")
	}
	if err := model.ValidatePath(name); err != nil {
		return nil, marshal.WithContext(err, "Name argument.")
	}
	if model.FindNode(parent, name) != nil {
		return nil, marshal.WithContext(ErrExists, name)
	}

	typ, err := marshal.ReadType(a.Type)
	if err != nil {
		inferred, ierr := marshal.ReadType(a.Default)
		if ierr != nil {
			return nil, marshal.WithContext(err, "Type argument. Could not deduce parameter type.")
		}
		typ = inferred
	}

	bounded := typ != value.TypeImpulse && typ != value.TypeBool

	var (
		domain   value.Domain
		bounding = value.BoundFree
	)
	if bounded {
		if d, err := marshal.ReadDomain(a.Domain, typ); err == nil {
			domain = d
		} else if !a.Domain.IsNil() {
			r.logger.Debug("ignoring domain", "name", name, "error", err)
		}

		if !a.BoundingMode.IsNil() {
			bounding, err = marshal.ReadListedAttribute(a.BoundingMode, marshal.BoundingModes)
			if err != nil {
				return nil, marshal.WithContext(err, "Bounding mode argument.")
			}
		}
	}

	def, derr := marshal.ReadValue(a.Default)
	if derr != nil && !a.Default.IsNil() {
		r.logger.Debug("ignoring default value", "name", name, "error", derr)
	}

	node, err := model.FindOrCreateNode(parent, name)
	if err != nil {
		return nil, marshal.WithContext(err, "Name argument.")
	}
	param, err := node.CreateParameter(typ)
	if err != nil {
		return nil, marshal.WithContext(err, "Name argument.")
	}

	if bounded {
		param.SetBoundingMode(bounding)
		param.SetDomain(domain)
	}
	param.SetRepetitionFilter(marshal.IsTrue(a.RepetitionFilter))
	param.SetCritical(marshal.IsTrue(a.Critical))

	if derr == nil {
		if err := param.SendValue(def); err != nil {
			r.logger.Debug("default value not applied", "name", name, "error", err)
		}
	}

	r.Register(rcvr, node)
	return param, nil
}

// FreeDevice closes the device designated by *slot, drops every handle
// of its subtree and sets *slot to nil. Handles derived from the device
// must not be used afterwards.
func (r *Registry) FreeDevice(slot *host.Slot) error {
	n, err := r.Unregister(slot)
	if err != nil {
		return err
	}
	if n.IsRoot() {
		return n.Device().Close()
	}
	return nil
}

// Unregister drops every handle of the subtree designated by *slot and
// sets *slot to nil. A non-root node is removed from its parent. The
// device is left open; closing it is up to the caller.
func (r *Registry) Unregister(slot *host.Slot) (*model.Node, error) {
	n, err := r.GetNode(*slot)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	n.Walk(func(c *model.Node) bool {
		if h, ok := r.byNode[c]; ok {
			delete(r.nodes, h)
			delete(r.byNode, c)
		}
		return true
	})
	r.mu.Unlock()

	if !n.IsRoot() {
		if parent := n.Parent(); parent != nil {
			parent.RemoveChild(n.Name())
		}
	}

	if obj, ok := slot.AsObject(); ok && len(obj.Slots) > 0 {
		obj.Slots[0] = host.Nil()
	}
	*slot = host.Nil()
	return n, nil
}
