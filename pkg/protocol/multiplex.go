package protocol

import (
	"errors"
	"sync"

	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/value"
)

// Protocol errors.
var (
	ErrUnsupported    = errors.New("operation not supported by protocol")
	ErrAlreadyExposed = errors.New("protocol already exposed")
	ErrNotExposed     = errors.New("protocol not exposed")
	ErrProtocolClosed = errors.New("protocol closed")
)

// Multiplex hosts several protocols on one device.
//
// Push and Observe fan out to every sub-protocol. Pull and Update go to
// the first sub-protocol that supports them. A value received on one
// sub-protocol is relayed to all the others.
type Multiplex struct {
	mu        sync.RWMutex
	device    *model.Device
	protocols []model.Protocol
	closed    bool
}

// NewMultiplex returns an empty multiplex protocol.
func NewMultiplex() *Multiplex {
	return &Multiplex{}
}

// SetDevice attaches the multiplex and every hosted protocol to d.
func (m *Multiplex) SetDevice(d *model.Device) {
	m.mu.Lock()
	m.device = d
	protos := m.snapshotLocked()
	m.mu.Unlock()

	d.Subscribe(m)
	for _, p := range protos {
		p.SetDevice(d)
	}
}

// ExposeTo adds a protocol. The same protocol cannot be added twice.
func (m *Multiplex) ExposeTo(p model.Protocol) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrProtocolClosed
	}
	for _, q := range m.protocols {
		if q == p {
			m.mu.Unlock()
			return ErrAlreadyExposed
		}
	}
	m.protocols = append(m.protocols, p)
	d := m.device
	m.mu.Unlock()

	if d != nil {
		p.SetDevice(d)
	}
	return nil
}

// StopExposeTo removes and closes a protocol.
func (m *Multiplex) StopExposeTo(p model.Protocol) error {
	m.mu.Lock()
	idx := -1
	for i, q := range m.protocols {
		if q == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return ErrNotExposed
	}
	m.protocols = append(m.protocols[:idx], m.protocols[idx+1:]...)
	m.mu.Unlock()

	return p.Close()
}

// Protocols returns the hosted protocols in exposure order.
func (m *Multiplex) Protocols() []model.Protocol {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Multiplex) snapshotLocked() []model.Protocol {
	out := make([]model.Protocol, len(m.protocols))
	copy(out, m.protocols)
	return out
}

// Push sends the parameter through every hosted protocol.
func (m *Multiplex) Push(p *model.Parameter) error {
	return m.fanOut(nil, func(q model.Protocol) error { return q.Push(p) })
}

// Observe forwards to every hosted protocol.
func (m *Multiplex) Observe(p *model.Parameter, enable bool) error {
	return m.fanOut(nil, func(q model.Protocol) error { return q.Observe(p, enable) })
}

// Pull asks the first protocol that supports it.
func (m *Multiplex) Pull(p *model.Parameter) error {
	return m.first(func(q model.Protocol) error { return q.Pull(p) })
}

// Update asks the first protocol that supports it.
func (m *Multiplex) Update(n *model.Node) error {
	return m.first(func(q model.Protocol) error { return q.Update(n) })
}

// Close closes every hosted protocol.
func (m *Multiplex) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	protos := m.snapshotLocked()
	m.protocols = nil
	m.mu.Unlock()

	var errs []error
	for _, p := range protos {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnValueReceived relays a network value to every protocol but its origin.
func (m *Multiplex) OnValueReceived(p *model.Parameter, _ value.Value, origin model.Protocol) {
	_ = m.fanOut(origin, func(q model.Protocol) error { return q.Push(p) })
}

func (m *Multiplex) fanOut(skip model.Protocol, fn func(model.Protocol) error) error {
	var errs []error
	for _, q := range m.Protocols() {
		if skip != nil && q == skip {
			continue
		}
		if err := fn(q); err != nil && !errors.Is(err, ErrUnsupported) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multiplex) first(fn func(model.Protocol) error) error {
	for _, q := range m.Protocols() {
		err := fn(q)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		return err
	}
	return ErrUnsupported
}

var (
	_ model.Protocol      = (*Multiplex)(nil)
	_ model.ValueObserver = (*Multiplex)(nil)
)
