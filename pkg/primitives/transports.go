package primitives

import (
	"log/slog"

	"github.com/ossia/ossia-sc/pkg/discovery"
	"github.com/ossia/ossia-sc/pkg/log"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/oscquery"
	"github.com/ossia/ossia-sc/pkg/protocol"
)

// Transports constructs the protocols a device can be exposed through.
type Transports interface {
	OSCQueryServer(oscPort, wsPort int) (model.Protocol, error)
	OSCQueryMirror(host string) (model.Protocol, error)
	Minuit(localName, remoteHost string, remotePort, localPort int) (model.Protocol, error)
	OSC(remoteHost string, remotePort, localPort int) (model.Protocol, error)
}

// NetworkTransports builds the real network protocols.
type NetworkTransports struct {
	// Advertiser announces OSCQuery servers over DNS-SD (optional).
	Advertiser discovery.Advertiser

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// ProtocolLogger receives transport events (optional).
	ProtocolLogger log.Logger
}

// OSCQueryServer binds an OSCQuery server to both ports.
func (t *NetworkTransports) OSCQueryServer(oscPort, wsPort int) (model.Protocol, error) {
	cfg := oscquery.DefaultServerConfig()
	cfg.OSCPort = oscPort
	cfg.WSPort = wsPort
	cfg.Advertiser = t.Advertiser
	cfg.Logger = t.Logger
	cfg.ProtocolLogger = t.ProtocolLogger
	return oscquery.NewServer(cfg)
}

// OSCQueryMirror creates a mirror of the server at host.
func (t *NetworkTransports) OSCQueryMirror(host string) (model.Protocol, error) {
	cfg := oscquery.DefaultMirrorConfig(host)
	cfg.Logger = t.Logger
	cfg.ProtocolLogger = t.ProtocolLogger
	return oscquery.NewMirror(cfg)
}

// Minuit binds a Minuit endpoint answering as localName.
func (t *NetworkTransports) Minuit(localName, remoteHost string, remotePort, localPort int) (model.Protocol, error) {
	cfg := protocol.DefaultMinuitConfig()
	cfg.LocalName = localName
	cfg.RemoteHost = remoteHost
	cfg.RemotePort = remotePort
	cfg.LocalPort = localPort
	cfg.Logger = t.Logger
	cfg.ProtocolLogger = t.ProtocolLogger
	return protocol.NewMinuit(cfg)
}

// OSC binds a plain OSC endpoint.
func (t *NetworkTransports) OSC(remoteHost string, remotePort, localPort int) (model.Protocol, error) {
	cfg := protocol.DefaultOSCConfig()
	cfg.RemoteHost = remoteHost
	cfg.RemotePort = remotePort
	cfg.LocalPort = localPort
	cfg.Logger = t.Logger
	cfg.ProtocolLogger = t.ProtocolLogger
	return protocol.NewOSC(cfg)
}

var _ Transports = (*NetworkTransports)(nil)
