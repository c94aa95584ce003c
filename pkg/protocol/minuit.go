package protocol

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/value"
)

// Minuit operations.
const (
	minuitNamespace = "namespace"
	minuitGet       = "get"
	minuitListen    = "listen"
)

// Minuit node kinds in namespace answers.
const (
	minuitApplication = "Application"
	minuitContainer   = "Container"
	minuitData        = "Data"
)

// DefaultMinuitTimeout bounds how long Pull and Update wait for an answer.
const DefaultMinuitTimeout = 2 * time.Second

// ErrTimeout is returned when a Minuit peer does not answer in time.
var ErrTimeout = errors.New("minuit request timed out")

// MinuitConfig configures a Minuit endpoint.
type MinuitConfig struct {
	OSCConfig

	// LocalName is the application name the peer addresses. Empty means
	// the name of the device the protocol is attached to.
	LocalName string

	// Timeout bounds request/answer round trips (default: 2s).
	Timeout time.Duration
}

// DefaultMinuitConfig returns a configuration talking to localhost.
func DefaultMinuitConfig() MinuitConfig {
	return MinuitConfig{
		OSCConfig: DefaultOSCConfig(),
		Timeout:   DefaultMinuitTimeout,
	}
}

// Minuit speaks the Minuit request/answer dialect over OSC.
//
// Requests take the form "<sender>?<op>" and answers "<sender>:<op>",
// with the node path (and ":attribute" for get/listen) as first argument.
// Value updates travel as plain "/path args" messages.
type Minuit struct {
	link    *Endpoint
	timeout time.Duration

	mu        sync.RWMutex
	device    *model.Device
	localName string
	listened  map[string]bool
	pending   map[string][]chan []any
}

// NewMinuit binds the local port and starts receiving.
func NewMinuit(cfg MinuitConfig) (*Minuit, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultMinuitTimeout
	}
	m := &Minuit{
		timeout:   cfg.Timeout,
		localName: cfg.LocalName,
		listened:  make(map[string]bool),
		pending:   make(map[string][]chan []any),
	}
	link, err := NewEndpoint("minuit", cfg.OSCConfig, m.handle)
	if err != nil {
		return nil, err
	}
	m.link = link
	return m, nil
}

// LocalAddr returns the bound UDP address.
func (m *Minuit) LocalAddr() *net.UDPAddr {
	return m.link.LocalAddr()
}

// LocalName returns the application name used in requests and answers.
func (m *Minuit) LocalName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.localName == "" && m.device != nil {
		return m.device.Name()
	}
	return m.localName
}

// SetDevice attaches the transport to d.
func (m *Minuit) SetDevice(d *model.Device) {
	m.mu.Lock()
	m.device = d
	m.mu.Unlock()
	m.link.SetDevice(d.Name())
}

func (m *Minuit) dev() *model.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.device
}

// Push sends the value as a plain OSC message. Paths the peer listens to
// also get a listen answer.
func (m *Minuit) Push(p *model.Parameter) error {
	addr := p.Node().OSCAddress()
	args := Args(p.Value())
	if err := m.link.Send(addr, args...); err != nil {
		return err
	}

	m.mu.RLock()
	listened := m.listened[addr]
	m.mu.RUnlock()
	if !listened {
		return nil
	}
	return m.link.Send(m.LocalName()+":"+minuitListen, append([]any{addr + ":value"}, args...)...)
}

// Pull asks the peer for the current value and stores the answer.
func (m *Minuit) Pull(p *model.Parameter) error {
	addr := p.Node().OSCAddress() + ":value"
	args, err := m.request(minuitGet, addr)
	if err != nil {
		return err
	}
	return p.ReceiveValue(FromArgs(args), m)
}

// Observe asks the peer to start or stop sending updates for p.
func (m *Minuit) Observe(p *model.Parameter, enable bool) error {
	state := "disable"
	if enable {
		state = "enable"
	}
	return m.link.Send(m.LocalName()+"?"+minuitListen, p.Node().OSCAddress()+":value", state)
}

// Update browses the peer namespace below n and creates the missing
// nodes and parameters.
func (m *Minuit) Update(n *model.Node) error {
	return m.update(n, n.OSCAddress())
}

func (m *Minuit) update(n *model.Node, addr string) error {
	args, err := m.request(minuitNamespace, addr)
	if err != nil {
		return err
	}
	kind, children, attrs := parseNamespace(args)

	if kind == minuitData && n.Parameter() == nil && len(attrs) > 0 {
		if err := m.createParameter(n, addr); err != nil {
			return err
		}
	}

	for _, name := range children {
		child, err := model.FindOrCreateNode(n, name)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if err := m.update(child, joinPath(addr, name)); err != nil {
			return err
		}
	}
	return nil
}

func (m *Minuit) createParameter(n *model.Node, addr string) error {
	typeArgs, err := m.request(minuitGet, addr+":type")
	if err != nil {
		return err
	}
	t := value.TypeFloat
	if len(typeArgs) > 0 {
		if s, ok := typeArgs[0].(string); ok {
			t = minuitTypeFromName(s)
		}
	}
	p, err := n.CreateParameter(t)
	if err != nil {
		return err
	}

	valArgs, err := m.request(minuitGet, addr+":value")
	if err != nil {
		return err
	}
	return p.SetValueQuiet(FromArgs(valArgs))
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// Close stops the receive goroutine and releases the socket. Pending
// requests fail with ErrProtocolClosed.
func (m *Minuit) Close() error {
	err := m.link.Close()

	m.mu.Lock()
	for key, waiters := range m.pending {
		for _, ch := range waiters {
			close(ch)
		}
		delete(m.pending, key)
	}
	m.mu.Unlock()
	return err
}

// request sends "<local>?op subject" and waits for the matching answer.
func (m *Minuit) request(op, subject string) ([]any, error) {
	key := op + " " + subject
	ch := make(chan []any, 1)

	m.mu.Lock()
	m.pending[key] = append(m.pending[key], ch)
	m.mu.Unlock()

	if err := m.link.Send(m.LocalName()+"?"+op, subject); err != nil {
		m.dropWaiter(key, ch)
		return nil, err
	}

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case args, ok := <-ch:
		if !ok {
			return nil, ErrProtocolClosed
		}
		return args, nil
	case <-timer.C:
		m.dropWaiter(key, ch)
		return nil, fmt.Errorf("%s %s: %w", op, subject, ErrTimeout)
	}
}

func (m *Minuit) dropWaiter(key string, ch chan []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	waiters := m.pending[key]
	for i, w := range waiters {
		if w == ch {
			m.pending[key] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(m.pending[key]) == 0 {
		delete(m.pending, key)
	}
}

// resolve hands an answer to the oldest waiter for the same subject.
func (m *Minuit) resolve(op string, args []any) bool {
	if len(args) == 0 {
		return false
	}
	subject, ok := args[0].(string)
	if !ok {
		return false
	}
	key := op + " " + subject

	m.mu.Lock()
	waiters := m.pending[key]
	if len(waiters) == 0 {
		m.mu.Unlock()
		return false
	}
	ch := waiters[0]
	m.pending[key] = waiters[1:]
	if len(m.pending[key]) == 0 {
		delete(m.pending, key)
	}
	m.mu.Unlock()

	ch <- args[1:]
	return true
}

func (m *Minuit) handle(msg *osc.Message, from *net.UDPAddr) {
	_, op, isRequest, ok := splitMinuit(msg.Address)
	if !ok {
		receive(m.dev(), m, m.link, msg, from)
		return
	}

	if !isRequest {
		if m.resolve(op, msg.Arguments) {
			return
		}
		if op == minuitListen {
			m.receiveListen(msg, from)
		}
		return
	}

	d := m.dev()
	if d == nil {
		return
	}
	var err error
	switch op {
	case minuitNamespace:
		err = m.answerNamespace(d, msg.Arguments)
	case minuitGet:
		err = m.answerGet(d, msg.Arguments)
	case minuitListen:
		err = m.setListen(d, msg.Arguments)
	default:
		err = fmt.Errorf("unknown operation %q", op)
	}
	if err != nil {
		m.link.logger.Debug("request failed", "address", msg.Address, "error", err)
		m.link.LogError(from, err, msg.Address)
	}
}

// receiveListen stores the value carried by an unsolicited listen answer.
func (m *Minuit) receiveListen(msg *osc.Message, from *net.UDPAddr) {
	if len(msg.Arguments) == 0 {
		return
	}
	subject, _ := msg.Arguments[0].(string)
	path, _, _ := strings.Cut(subject, ":")
	receive(m.dev(), m, m.link, osc.NewMessage(path, msg.Arguments[1:]...), from)
}

func (m *Minuit) answerNamespace(d *model.Device, args []any) error {
	path := subjectPath(args)
	n := model.FindNode(d.Root(), path)
	if n == nil {
		return fmt.Errorf("%s: %w", path, errNoSuchNode)
	}

	kind := minuitContainer
	switch {
	case n.Parameter() != nil:
		kind = minuitData
	case n.IsRoot():
		kind = minuitApplication
	}

	out := []any{path, kind}
	if names := n.ChildrenNames(); len(names) > 0 {
		out = append(out, "nodes={")
		for _, name := range names {
			out = append(out, name)
		}
		out = append(out, "}")
	}
	out = append(out, "attributes={")
	if n.Parameter() != nil {
		for _, a := range minuitAttributes {
			out = append(out, a)
		}
	}
	out = append(out, "}")

	return m.link.Send(m.LocalName()+":"+minuitNamespace, out...)
}

func (m *Minuit) answerGet(d *model.Device, args []any) error {
	subject := subjectPath(args)
	path, attr, _ := strings.Cut(subject, ":")
	if attr == "" {
		attr = "value"
	}
	n := model.FindNode(d.Root(), path)
	if n == nil || n.Parameter() == nil {
		return fmt.Errorf("%s: %w", path, errNoSuchNode)
	}
	vals, err := attributeArgs(n.Parameter(), attr)
	if err != nil {
		return err
	}
	return m.link.Send(m.LocalName()+":"+minuitGet, append([]any{subject}, vals...)...)
}

func (m *Minuit) setListen(d *model.Device, args []any) error {
	subject := subjectPath(args)
	path, _, _ := strings.Cut(subject, ":")
	n := model.FindNode(d.Root(), path)
	if n == nil || n.Parameter() == nil {
		return fmt.Errorf("%s: %w", path, errNoSuchNode)
	}
	enable := true
	if len(args) > 1 {
		if s, ok := args[1].(string); ok && s == "disable" {
			enable = false
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if enable {
		m.listened[n.OSCAddress()] = true
	} else {
		delete(m.listened, n.OSCAddress())
	}
	return nil
}

// Listening reports whether the peer listens to the node at path.
func (m *Minuit) Listening(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listened[path]
}

var errNoSuchNode = errors.New("no such node")

var minuitAttributes = []string{
	"value", "type", "service", "rangeBounds", "rangeClipmode",
	"repetitionsFilter", "priority", "description", "tags",
}

func attributeArgs(p *model.Parameter, attr string) ([]any, error) {
	switch attr {
	case "value":
		return Args(p.Value()), nil
	case "type":
		return []any{minuitTypeName(p.Type())}, nil
	case "service":
		return []any{minuitService(p.Access())}, nil
	case "rangeBounds":
		d := p.Domain()
		return append(Args(d.Min()), Args(d.Max())...), nil
	case "rangeClipmode":
		return []any{strings.ToLower(p.BoundingMode().String())}, nil
	case "repetitionsFilter":
		if p.RepetitionFilter() {
			return []any{int32(1)}, nil
		}
		return []any{int32(0)}, nil
	case "priority":
		return []any{int32(p.Priority())}, nil
	case "description":
		desc, _ := p.Node().Description()
		return []any{desc}, nil
	case "tags":
		var out []any
		for _, t := range p.Node().Tags() {
			out = append(out, t)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown attribute %q", attr)
}

func minuitTypeName(t value.Type) string {
	switch t {
	case value.TypeImpulse:
		return "none"
	case value.TypeBool:
		return "boolean"
	case value.TypeInt:
		return "integer"
	case value.TypeFloat:
		return "decimal"
	case value.TypeChar, value.TypeString:
		return "string"
	case value.TypeVec2f, value.TypeVec3f, value.TypeVec4f, value.TypeList:
		return "array"
	}
	return "generic"
}

func minuitTypeFromName(s string) value.Type {
	switch s {
	case "none":
		return value.TypeImpulse
	case "boolean":
		return value.TypeBool
	case "integer":
		return value.TypeInt
	case "decimal":
		return value.TypeFloat
	case "string":
		return value.TypeString
	case "array", "generic":
		return value.TypeList
	}
	return value.TypeFloat
}

func minuitService(a value.AccessMode) string {
	switch a {
	case value.AccessGet:
		return "return"
	case value.AccessSet:
		return "message"
	}
	return "parameter"
}

// splitMinuit splits "<sender>?<op>" or "<sender>:<op>". Plain OSC
// addresses (starting with '/') are not Minuit messages.
func splitMinuit(address string) (sender, op string, request, ok bool) {
	if address == "" || address[0] == '/' {
		return "", "", false, false
	}
	i := strings.IndexAny(address, "?:")
	if i <= 0 || i == len(address)-1 {
		return "", "", false, false
	}
	return address[:i], address[i+1:], address[i] == '?', true
}

func subjectPath(args []any) string {
	if len(args) == 0 {
		return "/"
	}
	s, ok := args[0].(string)
	if !ok || s == "" {
		return "/"
	}
	return s
}

// parseNamespace reads "kind nodes={ ... } attributes={ ... }".
func parseNamespace(args []any) (kind string, children, attrs []string) {
	var block *[]string
	for i, a := range args {
		s, ok := a.(string)
		if !ok {
			continue
		}
		switch {
		case i == 0:
			kind = s
		case s == "nodes={":
			block = &children
		case s == "attributes={":
			block = &attrs
		case s == "}":
			block = nil
		case block != nil:
			*block = append(*block, s)
		}
	}
	return kind, children, attrs
}

var _ model.Protocol = (*Minuit)(nil)
