package callback

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/log"
	"github.com/ossia/ossia-sc/pkg/marshal"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/value"
)

// DefaultSelector is the host method invoked for every notification.
const DefaultSelector = "pvOnCallback"

// Config configures a Bridge.
type Config struct {
	// Gate serializes interpreter entries (default: host.Default).
	Gate *host.Gate

	// Interpreter receives the calls. Without one every notification is
	// dropped.
	Interpreter host.Interpreter

	// Selector is the host method name (default: DefaultSelector).
	Selector string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives callback and error events (optional).
	EventLogger log.Logger
}

// Bridge binds host objects to parameter callbacks.
type Bridge struct {
	gate     *host.Gate
	interp   host.Interpreter
	selector string
	logger   *slog.Logger
	events   log.Logger

	mu  sync.Mutex
	ids map[*model.Parameter]model.CallbackID
}

// New creates a bridge.
func New(cfg Config) *Bridge {
	if cfg.Gate == nil {
		cfg.Gate = host.Default
	}
	if cfg.Selector == "" {
		cfg.Selector = DefaultSelector
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bridge{
		gate:     cfg.Gate,
		interp:   cfg.Interpreter,
		selector: cfg.Selector,
		logger:   logger,
		events:   log.OrNoop(cfg.EventLogger),
		ids:      make(map[*model.Parameter]model.CallbackID),
	}
}

// SetCallback makes obj the host callback of p, replacing any previous
// one set through the bridge.
func (b *Bridge) SetCallback(p *model.Parameter, obj *host.Object) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := b.ids[p]; ok {
		p.RemoveCallback(id)
	}
	target := host.Obj(obj)
	b.ids[p] = p.AddCallback(func(p *model.Parameter, v value.Value) {
		b.notify(p, target, v)
	})
}

// RemoveCallback clears all callbacks of p. Notifications already inside
// the gate complete.
func (b *Bridge) RemoveCallback(p *model.Parameter) {
	b.mu.Lock()
	delete(b.ids, p)
	b.mu.Unlock()
	p.ClearCallbacks()
}

// Active reports whether p has a host callback.
func (b *Bridge) Active(p *model.Parameter) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.ids[p]
	return ok
}

// Release forgets the callbacks of every parameter under n. It is used
// when a device is freed.
func (b *Bridge) Release(n *model.Node) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n.Walk(func(c *model.Node) bool {
		if p := c.Parameter(); p != nil {
			delete(b.ids, p)
		}
		return true
	})
}

// SetValue stores v without firing callbacks, then asks the device
// protocol to send it. Muted and disabled nodes are not sent.
func (b *Bridge) SetValue(p *model.Parameter, v value.Value) error {
	return p.SendValue(v)
}

func (b *Bridge) notify(p *model.Parameter, target host.Slot, v value.Value) {
	addr := p.Node().OSCAddress()
	start := time.Now()

	var (
		callErr error
		ran     bool
	)
	if b.interp != nil {
		ran = b.gate.Enter(func() {
			b.interp.SetCanCallOS(true)
			defer b.interp.SetCanCallOS(false)
			callErr = b.interp.Call(b.selector, target, marshal.WriteValue(v))
		})
	}

	elapsed := time.Since(start)
	b.events.Log(log.Event{
		Timestamp: start,
		Layer:     log.LayerBridge,
		Category:  log.CategoryCallback,
		Device:    deviceName(p),
		Callback: &log.CallbackEvent{
			Address:  addr,
			Selector: b.selector,
			Dropped:  !ran,
			Duration: &elapsed,
		},
	})

	if !ran {
		b.logger.Debug("interpreter unavailable, notification dropped", "address", addr)
		return
	}
	if callErr != nil {
		b.logger.Warn("host callback failed", "address", addr, "error", callErr)
		b.events.Log(log.Event{
			Timestamp: time.Now(),
			Layer:     log.LayerBridge,
			Category:  log.CategoryError,
			Device:    deviceName(p),
			Error: &log.ErrorEventData{
				Layer:   log.LayerBridge,
				Message: callErr.Error(),
				Context: addr,
			},
		})
	}
}

func deviceName(p *model.Parameter) string {
	if d := p.Node().Device(); d != nil {
		return d.Name()
	}
	return ""
}
