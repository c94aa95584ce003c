package protocol

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hypebeast/go-osc/osc"

	"github.com/ossia/ossia-sc/pkg/log"
)

// Default ports used by the OSC transports.
const (
	DefaultRemotePort = 9997
	DefaultLocalPort  = 9996

	// DefaultReadBufferSize is the largest datagram accepted.
	DefaultReadBufferSize = 65507
)

// OSCConfig configures a UDP OSC endpoint.
type OSCConfig struct {
	// RemoteHost is the peer address values are sent to.
	RemoteHost string

	// RemotePort is the peer UDP port.
	RemotePort int

	// LocalPort is the UDP port to listen on (0 picks a free port).
	LocalPort int

	// ReadBufferSize is the maximum datagram size (default: 65507).
	ReadBufferSize int

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives one event per datagram (optional).
	ProtocolLogger log.Logger
}

// DefaultOSCConfig returns a configuration talking to localhost.
func DefaultOSCConfig() OSCConfig {
	return OSCConfig{
		RemoteHost:     "127.0.0.1",
		RemotePort:     DefaultRemotePort,
		LocalPort:      DefaultLocalPort,
		ReadBufferSize: DefaultReadBufferSize,
	}
}

// MessageHandler processes one decoded message.
type MessageHandler func(msg *osc.Message, from *net.UDPAddr)

// Endpoint is a bound UDP socket with a receive goroutine. Every OSC based
// transport sends and receives through one.
type Endpoint struct {
	protocol string
	connID   string
	conn     *net.UDPConn
	remote   *net.UDPAddr
	bufSize  int

	logger *slog.Logger
	events log.Logger

	device atomic.Value // string

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewEndpoint binds cfg.LocalPort and calls handle for every received
// message. protocol names the transport in logs and events.
func NewEndpoint(protocol string, cfg OSCConfig, handle MessageHandler) (*Endpoint, error) {
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}
	if cfg.RemoteHost == "" {
		cfg.RemoteHost = "127.0.0.1"
	}

	remote, err := net.ResolveUDPAddr("udp", net.JoinHostPort(cfg.RemoteHost, fmt.Sprint(cfg.RemotePort)))
	if err != nil {
		return nil, fmt.Errorf("resolve remote: %w", err)
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: cfg.LocalPort})
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", cfg.LocalPort, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	l := &Endpoint{
		protocol: protocol,
		connID:   uuid.New().String(),
		conn:     conn,
		remote:   remote,
		bufSize:  cfg.ReadBufferSize,
		logger:   logger.With("protocol", protocol),
		events:   log.OrNoop(cfg.ProtocolLogger),
	}
	l.device.Store("")

	l.wg.Add(1)
	go l.readLoop(handle)

	return l, nil
}

// SetDevice sets the device name reported in events.
func (l *Endpoint) SetDevice(name string) {
	l.device.Store(name)
}

// LocalAddr returns the bound address.
func (l *Endpoint) LocalAddr() *net.UDPAddr {
	return l.conn.LocalAddr().(*net.UDPAddr)
}

func (l *Endpoint) readLoop(handle MessageHandler) {
	defer l.wg.Done()

	buf := make([]byte, l.bufSize)
	for {
		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if l.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Debug("read failed", "error", err)
			continue
		}

		msgs, err := Decode(buf[:n])
		if err != nil {
			l.logger.Debug("malformed packet", "from", from, "error", err)
			l.LogError(from, err, "decode")
			continue
		}
		for _, msg := range msgs {
			l.logMessage(log.DirectionIn, from, msg, n)
			handle(msg, from)
		}
	}
}

// Send encodes and writes one message to the remote peer.
func (l *Endpoint) Send(address string, args ...any) error {
	return l.SendTo(l.remote, address, args...)
}

// SendTo encodes and writes one message to peer.
func (l *Endpoint) SendTo(peer *net.UDPAddr, address string, args ...any) error {
	if l.closed.Load() {
		return ErrProtocolClosed
	}
	msg := osc.NewMessage(address, args...)
	data, err := msg.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode %s: %w", address, err)
	}
	if _, err := l.conn.WriteToUDP(data, peer); err != nil {
		return fmt.Errorf("send %s: %w", address, err)
	}
	l.logMessage(log.DirectionOut, peer, msg, len(data))
	return nil
}

// Close stops the receive goroutine and releases the socket.
func (l *Endpoint) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := l.conn.Close()
	l.wg.Wait()
	return err
}

func (l *Endpoint) logMessage(dir log.Direction, peer *net.UDPAddr, msg *osc.Message, size int) {
	l.events.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: l.connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Protocol:     l.protocol,
		RemoteAddr:   addrString(peer),
		Device:       l.device.Load().(string),
		Message: &log.MessageEvent{
			Type:    classify(msg.Address),
			Address: msg.Address,
			Args:    msg.Arguments,
			Size:    size,
		},
	})
}

// LogError records a transport error event for peer.
func (l *Endpoint) LogError(peer *net.UDPAddr, err error, context string) {
	l.events.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: l.connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryError,
		Protocol:     l.protocol,
		RemoteAddr:   addrString(peer),
		Device:       l.device.Load().(string),
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Context: context,
		},
	})
}

// Logger returns the operational logger.
func (l *Endpoint) Logger() *slog.Logger {
	return l.logger
}

func addrString(a *net.UDPAddr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

// classify maps an address onto the event message type.
func classify(address string) log.MessageType {
	_, op, _, ok := splitMinuit(address)
	if !ok {
		return log.MessageTypeValue
	}
	switch op {
	case minuitNamespace:
		return log.MessageTypeNamespace
	case minuitGet:
		return log.MessageTypeGet
	case minuitListen:
		return log.MessageTypeListen
	}
	return log.MessageTypeValue
}
