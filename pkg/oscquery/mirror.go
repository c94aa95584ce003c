package oscquery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hypebeast/go-osc/osc"

	"github.com/ossia/ossia-sc/pkg/connection"
	"github.com/ossia/ossia-sc/pkg/log"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/protocol"
	"github.com/ossia/ossia-sc/pkg/value"
)

// Mirror errors.
var (
	ErrBadHost      = errors.New("invalid OSCQuery host")
	ErrBadNamespace = errors.New("invalid namespace answer")
)

// MirrorConfig configures a mirror of a remote OSCQuery server.
type MirrorConfig struct {
	// Host is the remote server: "ws://host:port", "http://host:port" or
	// "host:port".
	Host string

	// HTTPClient fetches the namespace (default: 5s timeout).
	HTTPClient *http.Client

	// Connection supervises the websocket link.
	Connection connection.Config

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives message and link events (optional).
	ProtocolLogger log.Logger
}

// DefaultMirrorConfig returns a mirror configuration for host.
func DefaultMirrorConfig(host string) MirrorConfig {
	return MirrorConfig{
		Host:       host,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Connection: connection.DefaultConfig(),
	}
}

// Mirror reflects a remote OSCQuery namespace into a local device.
//
// Update fetches the namespace over HTTP. Values flow over a supervised
// websocket link that is redialed with backoff. While the link is down,
// Push falls back to UDP on the server's OSC port.
type Mirror struct {
	base   *url.URL
	wsURL  string
	client *http.Client
	logger *slog.Logger
	events log.Logger
	sup    *connection.Supervisor

	mu       sync.RWMutex
	device   *model.Device
	hostInfo *HostInfo
	udp      *protocol.Endpoint
	observed map[string]bool
	closed   bool
}

// NewMirror validates the host. No connection is made until Update.
func NewMirror(cfg MirrorConfig) (*Mirror, error) {
	base, err := parseHost(cfg.Host)
	if err != nil {
		return nil, err
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Connection.Logger == nil {
		cfg.Connection.Logger = logger
	}

	ws := *base
	ws.Scheme = "ws"
	ws.Path = "/"

	m := &Mirror{
		base:     base,
		wsURL:    ws.String(),
		client:   cfg.HTTPClient,
		logger:   logger.With("protocol", "mirror", "host", base.Host),
		events:   log.OrNoop(cfg.ProtocolLogger),
		observed: make(map[string]bool),
	}
	m.sup = connection.NewSupervisor(m.dial, cfg.Connection)
	m.sup.OnConnected(m.relisten)
	m.sup.OnStateChange(m.logState)
	return m, nil
}

// parseHost accepts ws, http or bare host:port forms.
func parseHost(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, ErrBadHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHost, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrBadHost, u.Scheme)
	}
	if u.Host == "" {
		return nil, ErrBadHost
	}
	u.Path = ""
	u.RawQuery = ""
	return u, nil
}

// SetDevice attaches the mirror to d.
func (m *Mirror) SetDevice(d *model.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.device = d
}

func (m *Mirror) dev() *model.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.device
}

// State returns the websocket link state.
func (m *Mirror) State() connection.State {
	return m.sup.State()
}

// HostInfo returns the last fetched host information, or nil.
func (m *Mirror) HostInfo() *HostInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hostInfo
}

// Update fetches the remote namespace below n and merges it into the
// local tree. The first call also brings the value link up.
func (m *Mirror) Update(n *model.Node) error {
	ctx := context.Background()

	if m.HostInfo() == nil {
		if err := m.fetchHostInfo(ctx); err != nil {
			return err
		}
	}

	var ns map[string]any
	if err := m.get(ctx, n.OSCAddress(), "", &ns); err != nil {
		return err
	}
	if err := m.merge(n, ns); err != nil {
		return err
	}

	if m.sup.State() == connection.StateIdle {
		if err := m.sup.Start(ctx); err != nil {
			m.logger.Warn("websocket unavailable, using UDP", "error", err)
		}
	}
	return nil
}

// Pull fetches the current value of p.
func (m *Mirror) Pull(p *model.Parameter) error {
	var ans map[string]any
	if err := m.get(context.Background(), p.Node().OSCAddress(), AttrValue, &ans); err != nil {
		return err
	}
	raw, _ := ans[AttrValue].([]any)
	v, err := decodeValue(p.Type(), raw)
	if err != nil {
		return err
	}
	return p.SyncValue(v, m)
}

// Push sends the value over the websocket link, or over UDP when the link
// is down.
func (m *Mirror) Push(p *model.Parameter) error {
	addr := p.Node().OSCAddress()
	args := protocol.Args(p.Value())

	if link, err := m.sup.Link(); err == nil {
		data, err := protocol.Encode(addr, args...)
		if err != nil {
			return err
		}
		if err := link.(*wsLink).write(websocket.BinaryMessage, data); err == nil {
			m.logMessage(log.DirectionOut, addr, args, len(data))
			return nil
		}
	}

	m.mu.RLock()
	udp := m.udp
	m.mu.RUnlock()
	if udp == nil {
		return connection.ErrNotConnected
	}
	return udp.Send(addr, args...)
}

// Observe asks the server to start or stop streaming p.
func (m *Mirror) Observe(p *model.Parameter, enable bool) error {
	addr := p.Node().OSCAddress()
	m.mu.Lock()
	if enable {
		m.observed[addr] = true
	} else {
		delete(m.observed, addr)
	}
	m.mu.Unlock()

	link, err := m.sup.Link()
	if err != nil {
		// Sent on the next connection.
		return nil
	}
	return m.sendCommand(link.(*wsLink), addr, enable)
}

func (m *Mirror) sendCommand(l *wsLink, addr string, listen bool) error {
	cmd := Command{Command: CommandListen, Data: addr}
	if !listen {
		cmd.Command = CommandIgnore
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	if err := l.write(websocket.TextMessage, data); err != nil {
		return err
	}
	m.logMessage(log.DirectionOut, addr, []any{cmd.Command}, len(data))
	return nil
}

// relisten replays the observed addresses on a fresh link.
func (m *Mirror) relisten(link connection.Link) {
	m.mu.RLock()
	addrs := make([]string, 0, len(m.observed))
	for a := range m.observed {
		addrs = append(addrs, a)
	}
	m.mu.RUnlock()

	for _, a := range addrs {
		if err := m.sendCommand(link.(*wsLink), a, true); err != nil {
			m.logger.Debug("listen failed", "address", a, "error", err)
		}
	}
}

// Close stops the link supervisor and the UDP fallback.
func (m *Mirror) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	udp := m.udp
	m.udp = nil
	m.mu.Unlock()

	err := m.sup.Close()
	if udp != nil {
		if uerr := udp.Close(); err == nil {
			err = uerr
		}
	}
	return err
}

func (m *Mirror) fetchHostInfo(ctx context.Context) error {
	var info HostInfo
	if err := m.get(ctx, "/", AttrHostInfo, &info); err != nil {
		return err
	}

	var udp *protocol.Endpoint
	if info.OSCPort > 0 {
		host := info.OSCIP
		if host == "" {
			host = m.base.Hostname()
		}
		ep, err := protocol.NewEndpoint("mirror", protocol.OSCConfig{
			RemoteHost:     host,
			RemotePort:     info.OSCPort,
			LocalPort:      0,
			Logger:         m.logger,
			ProtocolLogger: m.events,
		}, func(msg *osc.Message, _ *net.UDPAddr) { m.deliver(msg) })
		if err != nil {
			m.logger.Debug("no UDP fallback", "error", err)
		} else {
			udp = ep
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		if udp != nil {
			udp.Close()
		}
		return connection.ErrClosed
	}
	m.hostInfo = &info
	if udp != nil {
		if m.device != nil {
			udp.SetDevice(m.device.Name())
		}
		m.udp = udp
	}
	return nil
}

// get fetches path?query and decodes the JSON answer into out.
func (m *Mirror) get(ctx context.Context, path, query string, out any) error {
	u := *m.base
	u.Path = path
	u.RawQuery = query

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", u.String(), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, protocol.ErrUnknownAddress)
	default:
		return fmt.Errorf("fetch %s: %s", u.String(), resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadNamespace, err)
	}
	return nil
}

// merge applies a namespace object to n and recurses into CONTENTS.
func (m *Mirror) merge(n *model.Node, ns map[string]any) error {
	if desc, ok := ns[AttrDescription].(string); ok {
		n.SetDescription(desc)
	}
	if tags, ok := ns[AttrTags].([]any); ok {
		n.SetTags(stringsOf(tags))
	}

	if tag, ok := ns[AttrType].(string); ok {
		if err := m.mergeParameter(n, tag, ns); err != nil {
			return err
		}
	}

	contents, _ := ns[AttrContents].(map[string]any)
	for name, raw := range contents {
		sub, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not an object", ErrBadNamespace, name)
		}
		child, err := model.FindOrCreateNode(n, name)
		if err != nil {
			return err
		}
		if err := m.merge(child, sub); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mirror) mergeParameter(n *model.Node, tag string, ns map[string]any) error {
	t := ParseTypeTag(tag)
	p := n.Parameter()
	if p == nil {
		var err error
		if p, err = n.CreateParameter(t); err != nil {
			return err
		}
	} else if p.Type() != t {
		p.SetType(t)
	}

	if code, ok := ns[AttrAccess].(json.Number); ok {
		if i, err := strconv.Atoi(code.String()); err == nil {
			p.SetAccess(parseAccess(i))
		}
	}
	if mode, ok := ns[AttrClipMode].(string); ok {
		p.SetBoundingMode(parseClipMode(mode))
	}
	if rng, ok := ns[AttrRange].([]any); ok {
		p.SetDomain(decodeDomain(t, rng))
	}
	if crit, ok := ns[AttrCritical].(bool); ok {
		p.SetCritical(crit)
	}
	if prio, ok := ns[AttrPriority].(json.Number); ok {
		if f, err := prio.Float64(); err == nil {
			p.SetPriority(float32(f))
		}
	}
	if unit, ok := ns[AttrUnit].([]any); ok && len(unit) > 0 {
		if s, ok := unit[0].(string); ok {
			p.SetUnit(value.ParseUnit(s))
		}
	}
	if raw, ok := ns[AttrValue].([]any); ok {
		v, err := decodeValue(t, raw)
		if err != nil {
			m.logger.Debug("bad value", "address", n.OSCAddress(), "error", err)
			return nil
		}
		if err := p.SetValueQuiet(v); err != nil {
			m.logger.Debug("value rejected", "address", n.OSCAddress(), "error", err)
		}
	}
	return nil
}

func stringsOf(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// dial opens the websocket link and starts its read loop.
func (m *Mirror) dial(ctx context.Context) (connection.Link, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.wsURL, nil)
	if err != nil {
		return nil, err
	}
	l := &wsLink{
		id:   uuid.New().String(),
		conn: conn,
		done: make(chan struct{}),
	}
	go m.readLoop(l)
	return l, nil
}

func (m *Mirror) readLoop(l *wsLink) {
	defer l.markDone()
	for {
		kind, data, err := l.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		msgs, err := protocol.Decode(data)
		if err != nil {
			m.logger.Debug("malformed packet", "error", err)
			continue
		}
		for _, msg := range msgs {
			m.logMessage(log.DirectionIn, msg.Address, msg.Arguments, len(data))
			m.deliver(msg)
		}
	}
}

// deliver stores a value streamed by the remote device. The remote side
// owns the parameter, so its access mode does not apply.
func (m *Mirror) deliver(msg *osc.Message) {
	d := m.dev()
	if d == nil {
		return
	}
	n := model.FindNode(d.Root(), msg.Address)
	if n == nil || n.Parameter() == nil {
		m.logger.Debug("unknown address", "address", msg.Address)
		return
	}
	if err := n.Parameter().SyncValue(protocol.FromArgs(msg.Arguments), m); err != nil {
		m.logger.Debug("value rejected", "address", msg.Address, "error", err)
	}
}

func (m *Mirror) deviceName() string {
	if d := m.dev(); d != nil {
		return d.Name()
	}
	return ""
}

func (m *Mirror) logMessage(dir log.Direction, addr string, args []any, size int) {
	m.events.Log(log.Event{
		Timestamp:  time.Now(),
		Direction:  dir,
		Layer:      log.LayerTransport,
		Category:   log.CategoryMessage,
		Protocol:   "mirror",
		RemoteAddr: m.base.Host,
		Device:     m.deviceName(),
		Message: &log.MessageEvent{
			Type:    log.MessageTypeValue,
			Address: addr,
			Args:    args,
			Size:    size,
		},
	})
}

func (m *Mirror) logState(oldState, newState connection.State) {
	m.logger.Debug("link state", "from", oldState, "to", newState)
	m.events.Log(log.Event{
		Timestamp:  time.Now(),
		Layer:      log.LayerTransport,
		Category:   log.CategoryState,
		Protocol:   "mirror",
		RemoteAddr: m.base.Host,
		Device:     m.deviceName(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityTransport,
			OldState: oldState.String(),
			NewState: newState.String(),
		},
	})
}

// wsLink is a websocket connection supervised as a connection.Link.
type wsLink struct {
	id   string
	conn *websocket.Conn
	wmu  sync.Mutex
	done chan struct{}
	once sync.Once
}

func (l *wsLink) Done() <-chan struct{} { return l.done }

func (l *wsLink) markDone() { l.once.Do(func() { close(l.done) }) }

func (l *wsLink) write(kind int, data []byte) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	return l.conn.WriteMessage(kind, data)
}

// Close closes the socket. The read loop then marks the link done.
func (l *wsLink) Close() error {
	return l.conn.Close()
}

var (
	_ model.Protocol  = (*Mirror)(nil)
	_ connection.Link = (*wsLink)(nil)
)
