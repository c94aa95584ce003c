package primitives

import (
	"fmt"

	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/marshal"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/persistence"
	"github.com/ossia/ossia-sc/pkg/protocol"
)

// instantiateDevice: receiver, name.
func instantiateDevice(r *Runtime, f Frame) error {
	obj, err := receiver(f[0])
	if err != nil {
		return err
	}
	if err := marshal.CheckArgumentType(f[1], "String", "Symbol"); err != nil {
		return marshal.WithContext(err, "Device name argument.")
	}
	name, err := marshal.ReadString(f[1])
	if err != nil {
		return marshal.WithContext(err, "Device name argument.")
	}

	d := model.NewDevice(name, protocol.NewMultiplex())
	r.registry.Register(obj, d.Root())
	r.addDevice(d)
	return nil
}

// multiplexOf returns the device designated by s and its multiplex.
func (r *Runtime) multiplexOf(s host.Slot) (*model.Device, *protocol.Multiplex, error) {
	d, err := r.registry.GetDevice(s)
	if err != nil {
		return nil, nil, err
	}
	mux, ok := d.Protocol().(*protocol.Multiplex)
	if !ok {
		return nil, nil, ErrNoMultiplex
	}
	return d, mux, nil
}

func readPort(s host.Slot, phrase string) (int, error) {
	if err := marshal.CheckArgumentType(s, "Integer"); err != nil {
		return 0, marshal.WithContext(err, phrase)
	}
	port, err := marshal.ReadInt(s)
	if err != nil {
		return 0, marshal.WithContext(err, phrase)
	}
	return int(port), nil
}

func readAddress(s host.Slot, phrase string) (string, error) {
	if err := marshal.CheckArgumentType(s, "String", "Symbol"); err != nil {
		return "", marshal.WithContext(err, phrase)
	}
	text, err := marshal.ReadString(s)
	if err != nil {
		return "", marshal.WithContext(err, phrase)
	}
	return text, nil
}

// attach adds p to the multiplex, closing p if that fails.
func attach(mux *protocol.Multiplex, p model.Protocol) error {
	if err := mux.ExposeTo(p); err != nil {
		p.Close()
		return err
	}
	return nil
}

// exposeOSCQueryServer: device, osc port, ws port.
func exposeOSCQueryServer(r *Runtime, f Frame) error {
	d, mux, err := r.multiplexOf(f[0])
	if err != nil {
		return err
	}
	oscPort, err := readPort(f[1], "OSC Port argument.")
	if err != nil {
		return err
	}
	wsPort, err := readPort(f[2], "WS Port argument.")
	if err != nil {
		return err
	}

	p, err := r.transports.OSCQueryServer(oscPort, wsPort)
	if err != nil {
		return fmt.Errorf("oscquery server: %w", err)
	}
	if err := attach(mux, p); err != nil {
		return err
	}
	r.recordExposure(d, persistence.Exposure{Protocol: "oscquery", OSCPort: oscPort, WSPort: wsPort})
	return nil
}

// exposeOSCQueryMirror: device, host. The mirror tree is fetched before
// returning. A failed fetch detaches the mirror again.
func exposeOSCQueryMirror(r *Runtime, f Frame) error {
	d, mux, err := r.multiplexOf(f[0])
	if err != nil {
		return err
	}
	addr, err := readAddress(f[1], "Host Address argument.")
	if err != nil {
		return err
	}

	p, err := r.transports.OSCQueryMirror(addr)
	if err != nil {
		return marshal.WithContext(err, "Host Address argument.")
	}
	if err := attach(mux, p); err != nil {
		return err
	}
	if err := p.Update(d.Root()); err != nil {
		_ = mux.StopExposeTo(p)
		return fmt.Errorf("mirror update: %w", err)
	}
	r.recordExposure(d, persistence.Exposure{Protocol: "mirror", Host: addr})
	return nil
}

// udpArgs reads the remote address and both ports of Minuit and OSC.
func udpArgs(f Frame) (remote string, remotePort, localPort int, err error) {
	if remote, err = readAddress(f[1], "Remote IP argument."); err != nil {
		return
	}
	if remotePort, err = readPort(f[2], "Remote OSCPort argument."); err != nil {
		return
	}
	localPort, err = readPort(f[3], "Local OSCPort argument.")
	return
}

// exposeMinuit: device, remote ip, remote port, local port. The device
// name is the local Minuit identity.
func exposeMinuit(r *Runtime, f Frame) error {
	d, mux, err := r.multiplexOf(f[0])
	if err != nil {
		return err
	}
	remote, remotePort, localPort, err := udpArgs(f)
	if err != nil {
		return err
	}

	p, err := r.transports.Minuit(d.Name(), remote, remotePort, localPort)
	if err != nil {
		return fmt.Errorf("minuit: %w", err)
	}
	if err := attach(mux, p); err != nil {
		return err
	}
	r.recordExposure(d, persistence.Exposure{
		Protocol: "minuit", Host: remote, RemotePort: remotePort, LocalPort: localPort,
	})
	return nil
}

// exposeOSC: device, remote ip, remote port, local port.
func exposeOSC(r *Runtime, f Frame) error {
	d, mux, err := r.multiplexOf(f[0])
	if err != nil {
		return err
	}
	remote, remotePort, localPort, err := udpArgs(f)
	if err != nil {
		return err
	}

	p, err := r.transports.OSC(remote, remotePort, localPort)
	if err != nil {
		return fmt.Errorf("osc: %w", err)
	}
	if err := attach(mux, p); err != nil {
		return err
	}
	r.recordExposure(d, persistence.Exposure{
		Protocol: "osc", Host: remote, RemotePort: remotePort, LocalPort: localPort,
	})
	return nil
}
