package model

import (
	"errors"
	"sync"

	"github.com/ossia/ossia-sc/pkg/value"
)

// Device errors.
var (
	ErrDeviceClosed = errors.New("device closed")
	ErrNoProtocol   = errors.New("device has no protocol")
)

// Protocol is a network transport attached to a device.
type Protocol interface {
	// Push sends the current value of the parameter to the network.
	Push(p *Parameter) error

	// Pull requests the current value of the parameter from the network.
	Pull(p *Parameter) error

	// Observe enables or disables remote change notifications for the parameter.
	Observe(p *Parameter, enable bool) error

	// Update refreshes the subtree under the node from the remote side.
	Update(n *Node) error

	// SetDevice is called when the protocol is attached to a device.
	SetDevice(d *Device)

	// Close releases network resources.
	Close() error
}

// ValueObserver is notified when a parameter value is received from the network.
type ValueObserver interface {
	// OnValueReceived is called after the value was stored.
	// origin is the protocol the value arrived on (may be nil).
	OnValueReceived(p *Parameter, v value.Value, origin Protocol)
}

// Device is the root of a parameter tree with its attached protocol.
type Device struct {
	mu sync.RWMutex

	name     string
	root     *Node
	protocol Protocol

	// Observers for network-originated changes.
	observers []ValueObserver

	closed bool
}

// NewDevice creates a device with an empty root node.
// If proto is non-nil it is attached to the device.
func NewDevice(name string, proto Protocol) *Device {
	d := &Device{
		name:     name,
		protocol: proto,
	}
	d.root = &Node{name: name, device: d}

	if proto != nil {
		proto.SetDevice(d)
	}
	return d
}

// Name returns the device name.
func (d *Device) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

// SetName renames the device and its root node.
func (d *Device) SetName(name string) {
	d.mu.Lock()
	d.name = name
	d.mu.Unlock()

	d.root.mu.Lock()
	d.root.name = name
	d.root.mu.Unlock()
}

// Root returns the root node.
func (d *Device) Root() *Node {
	return d.root
}

// Protocol returns the attached protocol, or nil.
func (d *Device) Protocol() Protocol {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.protocol
}

// Subscribe adds an observer for network-originated value changes.
func (d *Device) Subscribe(obs ValueObserver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, obs)
}

// Unsubscribe removes an observer.
func (d *Device) Unsubscribe(obs ValueObserver) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, o := range d.observers {
		if o == obs {
			d.observers = append(d.observers[:i], d.observers[i+1:]...)
			return
		}
	}
}

// Closed reports whether Close was called.
func (d *Device) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// Close closes the protocol and detaches the tree.
// It is safe to call Close multiple times.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	proto := d.protocol
	d.protocol = nil
	d.observers = nil
	d.mu.Unlock()

	// Stop callbacks from firing on a dead tree.
	d.root.Walk(func(n *Node) bool {
		if p := n.Parameter(); p != nil {
			p.ClearCallbacks()
		}
		return true
	})

	if proto != nil {
		return proto.Close()
	}
	return nil
}

// push forwards a parameter to the attached protocol.
func (d *Device) push(p *Parameter) error {
	proto := d.Protocol()
	if proto == nil {
		if d.Closed() {
			return ErrDeviceClosed
		}
		return nil
	}
	return proto.Push(p)
}

// notifyReceived notifies all observers of a network-originated change.
func (d *Device) notifyReceived(p *Parameter, v value.Value, origin Protocol) {
	d.mu.RLock()
	obs := make([]ValueObserver, len(d.observers))
	copy(obs, d.observers)
	d.mu.RUnlock()

	for _, o := range obs {
		o.OnValueReceived(p, v, origin)
	}
}
