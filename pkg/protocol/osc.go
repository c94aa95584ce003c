package protocol

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"github.com/ossia/ossia-sc/pkg/model"
)

// OSC is a plain OSC 1.0 transport over UDP. It has no namespace: Pull and
// Update are unsupported and every value is sent regardless of Observe.
type OSC struct {
	link *Endpoint

	mu     sync.RWMutex
	device *model.Device
}

// NewOSC binds the local port and starts receiving.
func NewOSC(cfg OSCConfig) (*OSC, error) {
	o := &OSC{}
	link, err := NewEndpoint("osc", cfg, o.handle)
	if err != nil {
		return nil, err
	}
	o.link = link
	return o, nil
}

// LocalAddr returns the bound UDP address.
func (o *OSC) LocalAddr() *net.UDPAddr {
	return o.link.LocalAddr()
}

// SetDevice attaches the transport to d.
func (o *OSC) SetDevice(d *model.Device) {
	o.mu.Lock()
	o.device = d
	o.mu.Unlock()
	o.link.SetDevice(d.Name())
}

func (o *OSC) dev() *model.Device {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.device
}

// Push sends the value of p to the remote peer.
func (o *OSC) Push(p *model.Parameter) error {
	return o.link.Send(p.Node().OSCAddress(), Args(p.Value())...)
}

// Pull is not supported by plain OSC.
func (o *OSC) Pull(*model.Parameter) error {
	return ErrUnsupported
}

// Observe is a no-op: plain OSC peers always send.
func (o *OSC) Observe(*model.Parameter, bool) error {
	return nil
}

// Update is not supported by plain OSC.
func (o *OSC) Update(*model.Node) error {
	return ErrUnsupported
}

// Close stops the receive goroutine and releases the socket.
func (o *OSC) Close() error {
	return o.link.Close()
}

func (o *OSC) handle(msg *osc.Message, from *net.UDPAddr) {
	receive(o.dev(), o, o.link, msg, from)
}

// ErrUnknownAddress is returned by Deliver for addresses without a parameter.
var ErrUnknownAddress = errors.New("no parameter at address")

// Deliver stores the value carried by msg on the parameter at its address.
func Deliver(d *model.Device, origin model.Protocol, msg *osc.Message) error {
	if d == nil {
		return ErrUnknownAddress
	}
	n := model.FindNode(d.Root(), msg.Address)
	if n == nil || n.Parameter() == nil {
		return fmt.Errorf("%s: %w", msg.Address, ErrUnknownAddress)
	}
	return n.Parameter().ReceiveValue(FromArgs(msg.Arguments), origin)
}

func receive(d *model.Device, origin model.Protocol, ep *Endpoint, msg *osc.Message, from *net.UDPAddr) {
	err := Deliver(d, origin, msg)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownAddress):
		ep.logger.Debug("unknown address", "address", msg.Address, "from", from)
	default:
		ep.logger.Debug("value rejected", "address", msg.Address, "error", err)
		ep.LogError(from, err, msg.Address)
	}
}

var _ model.Protocol = (*OSC)(nil)
