package primitives

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ossia/ossia-sc/pkg/callback"
	"github.com/ossia/ossia-sc/pkg/discovery"
	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/log"
	"github.com/ossia/ossia-sc/pkg/marshal"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/persistence"
	"github.com/ossia/ossia-sc/pkg/registry"
)

// ErrorHeader starts every failure diagnostic.
const ErrorHeader = "OSSIA: Error!"

// Call errors.
var (
	ErrFailed           = errors.New("primitive failed")
	ErrUnknownPrimitive = errors.New("unknown primitive")
	ErrArgCount         = errors.New("wrong argument count")
	ErrNoMultiplex      = errors.New("device has no multiplex protocol")
)

// Frame holds the receiver and the arguments of one call. Results are
// written into Frame[0].
type Frame []host.Slot

// Primitive is one host-callable operation.
type Primitive struct {
	Name string
	Argc int
	run  func(r *Runtime, f Frame) error
}

// Config configures a Runtime.
type Config struct {
	// Gate serializes interpreter entries (default: host.Default).
	Gate *host.Gate

	// Interpreter receives parameter callbacks.
	Interpreter host.Interpreter

	// Transports builds exposure protocols (default: NetworkTransports).
	Transports Transports

	// Advertiser is passed to the default transports (optional).
	Advertiser discovery.Advertiser

	// Logger receives the failure diagnostics.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives host, bridge and transport events (optional).
	EventLogger log.Logger
}

// Runtime owns the registry and the callback bridge behind the table.
type Runtime struct {
	gate       *host.Gate
	registry   *registry.Registry
	bridge     *callback.Bridge
	transports Transports
	logger     *slog.Logger
	events     log.Logger
	table      map[string]Primitive

	mu      sync.Mutex
	devices []*deviceEntry

	// deferred runs after the current call released the gate. Guarded by
	// the gate.
	deferred []func() error
}

type deviceEntry struct {
	device    *model.Device
	exposures []persistence.Exposure
}

// New creates a runtime with the full operation table.
func New(cfg Config) *Runtime {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	events := log.OrNoop(cfg.EventLogger)

	transports := cfg.Transports
	if transports == nil {
		transports = &NetworkTransports{
			Advertiser:     cfg.Advertiser,
			Logger:         logger,
			ProtocolLogger: cfg.EventLogger,
		}
	}

	gate := cfg.Gate
	if gate == nil {
		gate = host.Default
	}

	r := &Runtime{
		gate:     gate,
		registry: registry.New(logger),
		bridge: callback.New(callback.Config{
			Gate:        gate,
			Interpreter: cfg.Interpreter,
			Logger:      logger,
			EventLogger: cfg.EventLogger,
		}),
		transports: transports,
		logger:     logger,
		events:     events,
		table:      make(map[string]Primitive, len(table)),
	}
	for _, p := range table {
		r.table[p.Name] = p
	}
	return r
}

// Names returns the operation names in sorted order.
func (r *Runtime) Names() []string {
	names := make([]string, 0, len(r.table))
	for n := range r.table {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Argc returns the argument count of an operation, receiver included.
func (r *Runtime) Argc(name string) (int, bool) {
	p, ok := r.table[name]
	return p.Argc, ok
}

// Registry returns the handle table.
func (r *Runtime) Registry() *registry.Registry {
	return r.registry
}

// Bridge returns the callback bridge.
func (r *Runtime) Bridge() *callback.Bridge {
	return r.bridge
}

// Call runs the named operation on frame. The operation runs with the
// interpreter gate held, so no parameter callback enters the interpreter
// until it returns. Call must not be made from inside a callback
// delivery: the delivery already holds the gate.
func (r *Runtime) Call(name string, frame Frame) error {
	p, ok := r.table[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPrimitive, name)
	}
	if len(frame) != p.Argc {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrArgCount, name, p.Argc, len(frame))
	}

	r.gate.Lock()
	err := p.run(r, frame)
	deferred := r.deferred
	r.deferred = nil
	r.gate.Unlock()

	for _, fn := range deferred {
		if derr := fn(); derr != nil && err == nil {
			err = derr
		}
	}
	if err != nil {
		r.report(name, err)
		return fmt.Errorf("%w: %s: %w", ErrFailed, name, err)
	}
	return nil
}

// afterCall schedules fn to run once the current call released the gate.
func (r *Runtime) afterCall(fn func() error) {
	r.deferred = append(r.deferred, fn)
}

// report logs the one-line diagnostic of a failed call.
func (r *Runtime) report(name string, err error) {
	r.logger.Error(ErrorHeader+" "+err.Error(), "primitive", name)

	ev := &log.ErrorEventData{
		Layer:   log.LayerHost,
		Message: err.Error(),
		Context: marshal.ContextOf(err),
	}
	if k := marshal.KindOf(err); k != 0 {
		kind := int(k)
		ev.Kind = &kind
	}
	r.events.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerHost,
		Category:  log.CategoryError,
		Error:     ev,
	})
}

// Devices returns the live devices in creation order.
func (r *Runtime) Devices() []*model.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Device, len(r.devices))
	for i, e := range r.devices {
		out[i] = e.device
	}
	return out
}

// Session describes the live devices and their exposures.
func (r *Runtime) Session() *persistence.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &persistence.SessionState{}
	for _, e := range r.devices {
		s.Devices = append(s.Devices, persistence.DeviceSession{
			Name:      e.device.Name(),
			Exposures: append([]persistence.Exposure(nil), e.exposures...),
		})
	}
	return s
}

// Close closes every live device.
func (r *Runtime) Close() error {
	r.mu.Lock()
	entries := r.devices
	r.devices = nil
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		r.bridge.Release(e.device.Root())
		if err := e.device.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.device.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runtime) addDevice(d *model.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, &deviceEntry{device: d})
}

func (r *Runtime) removeDevice(d *model.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.devices {
		if e.device == d {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			return
		}
	}
}

func (r *Runtime) recordExposure(d *model.Device, e persistence.Exposure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.devices {
		if entry.device == d {
			entry.exposures = append(entry.exposures, e)
			return
		}
	}
}

// receiver returns the host object a result or handle is stored into.
func receiver(s host.Slot) (*host.Object, error) {
	if err := marshal.CheckArgumentDefinition(s); err != nil {
		return nil, err
	}
	obj, ok := s.AsObject()
	if !ok {
		return nil, &marshal.Error{Kind: marshal.KindWrongType, Detail: "(receiver is not an object)"}
	}
	return obj, nil
}
