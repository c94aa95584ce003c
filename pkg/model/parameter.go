package model

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ossia/ossia-sc/pkg/value"
)

// Parameter errors.
var (
	ErrValueType = errors.New("value cannot be converted to parameter type")
	ErrReadOnly  = errors.New("parameter does not accept remote writes")
)

// CallbackID identifies a registered callback.
type CallbackID uint64

// Callback is invoked after a value change was stored.
type Callback func(p *Parameter, v value.Value)

type callbackEntry struct {
	id CallbackID
	fn Callback
}

// Parameter is a typed, bounded, observable value attached to a node.
type Parameter struct {
	mu sync.RWMutex

	node *Node
	typ  value.Type
	val  value.Value

	domain           value.Domain
	bounding         value.BoundingMode
	access           value.AccessMode
	repetitionFilter bool
	critical         bool
	priority         float32
	unit             value.Unit

	callbacks []callbackEntry
	nextID    CallbackID
}

func newParameter(n *Node, t value.Type) *Parameter {
	return &Parameter{
		node:     n,
		typ:      t,
		val:      zeroFor(t),
		bounding: value.BoundFree,
		access:   value.AccessBi,
	}
}

// zeroFor returns the initial value of a freshly created parameter.
func zeroFor(t value.Type) value.Value {
	switch t {
	case value.TypeImpulse:
		return value.Impulse()
	case value.TypeBool:
		return value.Bool(false)
	case value.TypeChar:
		return value.Char(0)
	case value.TypeInt:
		return value.Int(0)
	case value.TypeFloat:
		return value.Float(0)
	case value.TypeString:
		return value.String("")
	case value.TypeVec2f:
		return value.Vec2(value.Vec2f{})
	case value.TypeVec3f:
		return value.Vec3(value.Vec3f{})
	case value.TypeVec4f:
		return value.Vec4(value.Vec4f{})
	case value.TypeList:
		return value.List()
	default:
		return value.None()
	}
}

// Node returns the node carrying the parameter.
func (p *Parameter) Node() *Node {
	return p.node
}

// Type returns the declared value type.
func (p *Parameter) Type() value.Type {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.typ
}

// SetType changes the declared type and converts the stored value.
func (p *Parameter) SetType(t value.Type) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.typ = t
	if v, ok := value.Convert(p.val, t); ok {
		p.val = v
	} else {
		p.val = zeroFor(t)
	}
}

// Value returns the current value.
func (p *Parameter) Value() value.Value {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.val
}

// SetValueQuiet stores a value without firing callbacks or pushing it.
func (p *Parameter) SetValueQuiet(v value.Value) error {
	_, _, err := p.store(v)
	return err
}

// PushValue stores a value, fires callbacks and sends it through the
// device protocol. Muted and disabled nodes are not sent.
func (p *Parameter) PushValue(v value.Value) error {
	stored, changed, err := p.store(v)
	if err != nil {
		return err
	}
	if changed {
		p.fire(stored)
	}

	if p.node.Muted() || p.node.Disabled() {
		return nil
	}
	return p.node.device.push(p)
}

// SendValue stores a value and sends it through the device protocol
// without firing callbacks. Muted and disabled nodes are not sent.
func (p *Parameter) SendValue(v value.Value) error {
	if _, _, err := p.store(v); err != nil {
		return err
	}
	if p.node.Muted() || p.node.Disabled() {
		return nil
	}
	return p.node.device.push(p)
}

// ReceiveValue stores a value that arrived from the network, fires
// callbacks and notifies device observers. The value is not sent back.
func (p *Parameter) ReceiveValue(v value.Value, origin Protocol) error {
	if !p.Access().CanSet() {
		return ErrReadOnly
	}
	return p.SyncValue(v, origin)
}

// SyncValue is ReceiveValue without the access check. Mirrors use it for
// values sent by the device that owns the parameter.
func (p *Parameter) SyncValue(v value.Value, origin Protocol) error {
	stored, changed, err := p.store(v)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	p.fire(stored)
	p.node.device.notifyReceived(p, stored, origin)
	return nil
}

// store converts, bounds and stores v. changed is false when the
// repetition filter suppressed an equal value.
func (p *Parameter) store(v value.Value) (value.Value, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conv, ok := value.Convert(v, p.typ)
	if !ok {
		return value.Value{}, false, fmt.Errorf("%w: %s to %s", ErrValueType, v.Type(), p.typ)
	}

	bounded, err := p.domain.Clamp(conv, p.bounding)
	if err != nil {
		return value.Value{}, false, err
	}

	changed := true
	if p.repetitionFilter && p.typ != value.TypeImpulse && bounded.Equal(p.val) {
		changed = false
	}
	p.val = bounded
	return bounded, changed, nil
}

// fire invokes callbacks outside the lock.
func (p *Parameter) fire(v value.Value) {
	p.mu.RLock()
	cbs := make([]callbackEntry, len(p.callbacks))
	copy(cbs, p.callbacks)
	p.mu.RUnlock()

	for _, cb := range cbs {
		if !p.hasCallback(cb.id) {
			continue
		}
		cb.fn(p, v)
	}
}

func (p *Parameter) hasCallback(id CallbackID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, cb := range p.callbacks {
		if cb.id == id {
			return true
		}
	}
	return false
}

// AddCallback registers fn and returns its identifier.
func (p *Parameter) AddCallback(fn Callback) CallbackID {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	p.callbacks = append(p.callbacks, callbackEntry{id: p.nextID, fn: fn})
	return p.nextID
}

// RemoveCallback unregisters a callback. Unknown IDs are ignored.
func (p *Parameter) RemoveCallback(id CallbackID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, cb := range p.callbacks {
		if cb.id == id {
			p.callbacks = append(p.callbacks[:i], p.callbacks[i+1:]...)
			return
		}
	}
}

// ClearCallbacks removes all callbacks.
func (p *Parameter) ClearCallbacks() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = nil
}

// CallbackCount returns the number of registered callbacks.
func (p *Parameter) CallbackCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.callbacks)
}

// Domain returns the domain.
func (p *Parameter) Domain() value.Domain {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.domain
}

// SetDomain replaces the domain. The stored value is not re-bounded.
func (p *Parameter) SetDomain(d value.Domain) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.domain = d
}

// BoundingMode returns the bounding mode.
func (p *Parameter) BoundingMode() value.BoundingMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bounding
}

// SetBoundingMode sets the bounding mode.
func (p *Parameter) SetBoundingMode(m value.BoundingMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bounding = m
}

// Access returns the access mode.
func (p *Parameter) Access() value.AccessMode {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.access
}

// SetAccess sets the access mode.
func (p *Parameter) SetAccess(m value.AccessMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.access = m
}

// RepetitionFilter reports whether equal values are filtered.
func (p *Parameter) RepetitionFilter() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.repetitionFilter
}

// SetRepetitionFilter enables or disables the repetition filter.
func (p *Parameter) SetRepetitionFilter(b bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repetitionFilter = b
}

// Critical reports the critical flag.
func (p *Parameter) Critical() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.critical
}

// SetCritical sets the critical flag.
func (p *Parameter) SetCritical(b bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.critical = b
}

// Priority returns the priority.
func (p *Parameter) Priority() float32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.priority
}

// SetPriority sets the priority.
func (p *Parameter) SetPriority(f float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.priority = f
}

// Unit returns the unit.
func (p *Parameter) Unit() value.Unit {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.unit
}

// SetUnit sets the unit.
func (p *Parameter) SetUnit(u value.Unit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unit = u
}
