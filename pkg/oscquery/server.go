package oscquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hypebeast/go-osc/osc"

	"github.com/ossia/ossia-sc/pkg/discovery"
	"github.com/ossia/ossia-sc/pkg/log"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/protocol"
)

// Default ports of an OSCQuery server.
const (
	DefaultOSCPort = 1234
	DefaultWSPort  = 5678
)

// Websocket commands sent as JSON text frames.
const (
	CommandListen = "LISTEN"
	CommandIgnore = "IGNORE"
)

// Command is a websocket text frame.
type Command struct {
	Command string `json:"COMMAND"`
	Data    string `json:"DATA"`
}

// ServerConfig configures an OSCQuery server.
type ServerConfig struct {
	// OSCPort is the UDP port values are received on (0 picks a free port).
	OSCPort int

	// WSPort is the HTTP and websocket port (0 picks a free port).
	WSPort int

	// BindHost restricts listening to one address. Empty means all.
	BindHost string

	// Advertiser publishes the server over DNS-SD (optional).
	Advertiser discovery.Advertiser

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives message and client events (optional).
	ProtocolLogger log.Logger
}

// DefaultServerConfig returns the standard OSCQuery ports.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		OSCPort: DefaultOSCPort,
		WSPort:  DefaultWSPort,
	}
}

// Server exposes a device over OSCQuery: the namespace as JSON over HTTP,
// value streaming over websocket and value reception over UDP.
type Server struct {
	config ServerConfig
	logger *slog.Logger
	events log.Logger

	listener net.Listener
	http     *http.Server
	udp      *protocol.Endpoint
	upgrader websocket.Upgrader

	mu        sync.RWMutex
	device    *model.Device
	clients   map[string]*wsClient
	announced []discovery.Service

	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewServer binds both ports and starts serving.
func NewServer(cfg ServerConfig) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		config:  cfg,
		logger:  logger.With("protocol", "oscquery"),
		events:  log.OrNoop(cfg.ProtocolLogger),
		clients: make(map[string]*wsClient),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(cfg.BindHost, fmt.Sprint(cfg.WSPort)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	udp, err := protocol.NewEndpoint("oscquery", protocol.OSCConfig{
		LocalPort:      cfg.OSCPort,
		Logger:         cfg.Logger,
		ProtocolLogger: cfg.ProtocolLogger,
	}, s.handleOSC)
	if err != nil {
		listener.Close()
		return nil, err
	}
	s.udp = udp

	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("http server stopped", "error", err)
		}
	}()

	return s, nil
}

// WSPort returns the bound HTTP/websocket port.
func (s *Server) WSPort() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// OSCPort returns the bound UDP port.
func (s *Server) OSCPort() int {
	return s.udp.LocalAddr().Port
}

// HostInfo returns the answer to "?HOST_INFO".
func (s *Server) HostInfo() HostInfo {
	name := ""
	if d := s.dev(); d != nil {
		name = d.Name()
	}
	return HostInfo{
		Name:         name,
		OSCPort:      s.OSCPort(),
		OSCTransport: "UDP",
		WSPort:       s.WSPort(),
		Extensions: map[string]bool{
			AttrAccess:      true,
			AttrValue:       true,
			AttrRange:       true,
			AttrDescription: true,
			AttrTags:        true,
			AttrCritical:    true,
			AttrClipMode:    true,
			AttrUnit:        true,
			CommandListen:   true,
		},
	}
}

// SetDevice attaches the server to d and advertises it.
func (s *Server) SetDevice(d *model.Device) {
	s.mu.Lock()
	s.device = d
	s.mu.Unlock()
	s.udp.SetDevice(d.Name())
	s.advertise(d.Name())
}

func (s *Server) advertise(name string) {
	adv := s.config.Advertiser
	if adv == nil {
		return
	}
	var ok []discovery.Service
	for _, svc := range discovery.OSCQueryServices(name, s.WSPort(), s.OSCPort()) {
		if err := adv.Advertise(context.Background(), svc); err != nil {
			s.logger.Warn("advertise failed", "type", svc.Type, "error", err)
			continue
		}
		ok = append(ok, svc)
	}
	s.mu.Lock()
	s.announced = ok
	s.mu.Unlock()
}

func (s *Server) dev() *model.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device
}

// Push streams the value to every websocket client listening to p.
func (s *Server) Push(p *model.Parameter) error {
	return s.broadcast(p, "")
}

func (s *Server) broadcast(p *model.Parameter, except string) error {
	addr := p.Node().OSCAddress()
	data, err := protocol.EncodeValue(addr, p.Value())
	if err != nil {
		return err
	}

	s.mu.RLock()
	targets := make([]*wsClient, 0, len(s.clients))
	for id, c := range s.clients {
		if id != except && c.listening(addr) {
			targets = append(targets, c)
		}
	}
	s.mu.RUnlock()

	var errs []error
	for _, c := range targets {
		if err := c.write(websocket.BinaryMessage, data); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logMessage(c, log.DirectionOut, addr, protocol.Args(p.Value()), len(data))
	}
	return errors.Join(errs...)
}

// Pull is not supported: the server owns the values.
func (s *Server) Pull(*model.Parameter) error {
	return protocol.ErrUnsupported
}

// Observe is a no-op: clients choose what they listen to.
func (s *Server) Observe(*model.Parameter, bool) error {
	return nil
}

// Update is not supported: the server owns the namespace.
func (s *Server) Update(*model.Node) error {
	return protocol.ErrUnsupported
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close withdraws advertisements, disconnects clients and releases both
// ports.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	announced := s.announced
	s.announced = nil
	clients := make([]*wsClient, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	if adv := s.config.Advertiser; adv != nil {
		for _, svc := range announced {
			_ = adv.Stop(svc.Instance, svc.Type)
		}
	}

	err := s.http.Close()
	for _, c := range clients {
		c.conn.Close()
	}
	if uerr := s.udp.Close(); err == nil {
		err = uerr
	}
	s.wg.Wait()
	return err
}

// ServeHTTP answers namespace queries and upgrades websocket requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.handleWebsocket(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.RawQuery
	if query == AttrHostInfo {
		writeJSON(w, http.StatusOK, s.HostInfo())
		return
	}

	d := s.dev()
	if d == nil {
		http.Error(w, "no device", http.StatusServiceUnavailable)
		return
	}

	n := model.FindNode(d.Root(), r.URL.Path)
	if n == nil || n.Hidden() {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	if query == "" {
		writeJSON(w, http.StatusOK, BuildNode(n))
		return
	}

	attr := strings.ToUpper(query)
	if attr == AttrFullPath {
		writeJSON(w, http.StatusOK, map[string]any{attr: n.OSCAddress()})
		return
	}
	p := n.Parameter()
	if p == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	v, ok := Attribute(p, attr)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{attr: v})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, "closing", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := newWSClient(uuid.New().String(), conn)
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c.id] = c
	s.wg.Add(1)
	s.mu.Unlock()
	s.logClient(c, "", "CONNECTED")
	s.logger.Debug("client connected", "client", c.id, "remote", c.remote)

	go func() {
		defer s.wg.Done()
		s.readLoop(c)

		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		conn.Close()
		s.logClient(c, "CONNECTED", "DISCONNECTED")
	}()
}

func (s *Server) readLoop(c *wsClient) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		switch kind {
		case websocket.TextMessage:
			s.handleCommand(c, data)
		case websocket.BinaryMessage:
			s.handleBinary(c, data)
		}
	}
}

func (s *Server) handleCommand(c *wsClient, data []byte) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.logger.Debug("bad command", "client", c.id, "error", err)
		return
	}
	s.logMessage(c, log.DirectionIn, cmd.Data, []any{cmd.Command}, len(data))

	switch cmd.Command {
	case CommandListen:
		c.setListen(cmd.Data, true)
	case CommandIgnore:
		c.setListen(cmd.Data, false)
	default:
		s.logger.Debug("unknown command", "client", c.id, "command", cmd.Command)
	}
}

func (s *Server) handleBinary(c *wsClient, data []byte) {
	msgs, err := protocol.Decode(data)
	if err != nil {
		s.logger.Debug("malformed packet", "client", c.id, "error", err)
		return
	}
	for _, msg := range msgs {
		s.logMessage(c, log.DirectionIn, msg.Address, msg.Arguments, len(data))
		s.deliver(msg, c.id)
	}
}

func (s *Server) handleOSC(msg *osc.Message, _ *net.UDPAddr) {
	s.deliver(msg, "")
}

// deliver stores a received value and streams it to the other listeners.
func (s *Server) deliver(msg *osc.Message, from string) {
	d := s.dev()
	if err := protocol.Deliver(d, s, msg); err != nil {
		s.logger.Debug("value rejected", "address", msg.Address, "error", err)
		return
	}
	if n := model.FindNode(d.Root(), msg.Address); n != nil && n.Parameter() != nil {
		_ = s.broadcast(n.Parameter(), from)
	}
}

func (s *Server) deviceName() string {
	if d := s.dev(); d != nil {
		return d.Name()
	}
	return ""
}

func (s *Server) logMessage(c *wsClient, dir log.Direction, addr string, args []any, size int) {
	typ := log.MessageTypeValue
	if len(args) == 1 && (args[0] == CommandListen || args[0] == CommandIgnore) {
		typ = log.MessageTypeListen
	}
	s.events.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Protocol:     "oscquery",
		RemoteAddr:   c.remote,
		Device:       s.deviceName(),
		Message: &log.MessageEvent{
			Type:    typ,
			Address: addr,
			Args:    args,
			Size:    size,
		},
	})
}

func (s *Server) logClient(c *wsClient, oldState, newState string) {
	s.events.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		Protocol:     "oscquery",
		RemoteAddr:   c.remote,
		Device:       s.deviceName(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityClient,
			OldState: oldState,
			NewState: newState,
		},
	})
}

// wsClient is one websocket connection with its listened addresses.
type wsClient struct {
	id     string
	remote string
	conn   *websocket.Conn

	wmu sync.Mutex

	mu      sync.RWMutex
	listens map[string]bool
}

func newWSClient(id string, conn *websocket.Conn) *wsClient {
	return &wsClient{
		id:      id,
		remote:  conn.RemoteAddr().String(),
		conn:    conn,
		listens: make(map[string]bool),
	}
}

func (c *wsClient) write(kind int, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(kind, data)
}

func (c *wsClient) setListen(addr string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.listens[addr] = true
	} else {
		delete(c.listens, addr)
	}
}

func (c *wsClient) listening(addr string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listens[addr]
}

var _ model.Protocol = (*Server)(nil)
