package connection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Supervisor errors.
var (
	ErrClosed         = errors.New("supervisor closed")
	ErrAlreadyStarted = errors.New("supervisor already started")
	ErrNotConnected   = errors.New("not connected")
)

// State is the supervisor state.
type State uint8

const (
	// StateIdle means Start has not been called.
	StateIdle State = iota

	// StateConnecting means a dial is in progress.
	StateConnecting

	// StateConnected means a link is up.
	StateConnected

	// StateReconnecting means the link dropped and redials are scheduled.
	StateReconnecting

	// StateClosed means Close was called.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Link is a live connection. Done is closed when the link drops.
type Link interface {
	Done() <-chan struct{}
	Close() error
}

// DialFunc establishes a link.
type DialFunc func(ctx context.Context) (Link, error)

// Config configures a Supervisor.
type Config struct {
	// Backoff spaces redial attempts.
	Backoff BackoffConfig

	// DialTimeout bounds a single dial (default: 5s).
	DialTimeout time.Duration

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns the default supervisor configuration.
func DefaultConfig() Config {
	return Config{
		Backoff:     DefaultBackoffConfig(),
		DialTimeout: 5 * time.Second,
	}
}

// Supervisor keeps a link up, redialing with backoff when it drops.
type Supervisor struct {
	dial    DialFunc
	backoff *Backoff
	timeout time.Duration
	logger  *slog.Logger

	mu            sync.RWMutex
	state         State
	link          Link
	onStateChange func(oldState, newState State)
	onConnected   func(Link)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor creates a supervisor for dial.
func NewSupervisor(dial DialFunc, cfg Config) *Supervisor {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultConfig().DialTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Supervisor{
		dial:    dial,
		backoff: NewBackoff(cfg.Backoff),
		timeout: cfg.DialTimeout,
		logger:  logger,
	}
}

// OnStateChange sets a callback for state transitions.
func (s *Supervisor) OnStateChange(fn func(oldState, newState State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// OnConnected sets a callback run after every successful dial, including
// the first one.
func (s *Supervisor) OnConnected(fn func(Link)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnected = fn
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Link returns the current link, or ErrNotConnected.
func (s *Supervisor) Link() (Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateConnected || s.link == nil {
		return nil, ErrNotConnected
	}
	return s.link, nil
}

// Attempts returns the number of redials since the last success.
func (s *Supervisor) Attempts() int {
	return s.backoff.Attempts()
}

// Start dials once and, on success, watches the link in the background.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateIdle:
	default:
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	s.setState(StateConnecting)
	link, err := s.dialOnce(ctx)
	if err != nil {
		s.setState(StateIdle)
		s.cancel()
		return err
	}
	if !s.connected(link) {
		return ErrClosed
	}

	s.wg.Add(1)
	go s.watch()
	return nil
}

// Close stops redialing and closes the current link.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	prev := s.state
	s.state = StateClosed
	link := s.link
	s.link = nil
	cancel := s.cancel
	fn := s.onStateChange
	s.mu.Unlock()

	if fn != nil {
		fn(prev, StateClosed)
	}
	if cancel != nil {
		cancel()
	}

	var err error
	if link != nil {
		err = link.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Supervisor) dialOnce(ctx context.Context) (Link, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.dial(ctx)
}

// connected installs a fresh link. It returns false when the supervisor
// was closed during the dial.
func (s *Supervisor) connected(link Link) bool {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		link.Close()
		return false
	}
	s.link = link
	fn := s.onConnected
	s.mu.Unlock()

	s.backoff.Reset()
	s.setState(StateConnected)
	if fn != nil {
		fn(link)
	}
	return true
}

// watch waits for the link to drop and redials until success or Close.
func (s *Supervisor) watch() {
	defer s.wg.Done()

	for {
		s.mu.RLock()
		link := s.link
		s.mu.RUnlock()
		if link == nil {
			return
		}

		select {
		case <-s.ctx.Done():
			return
		case <-link.Done():
		}

		s.logger.Debug("link lost")
		s.setState(StateReconnecting)
		if !s.redial() {
			return
		}
	}
}

func (s *Supervisor) redial() bool {
	for {
		delay := s.backoff.Next()
		s.logger.Debug("redialing", "attempt", s.backoff.Attempts(), "delay", delay)

		select {
		case <-s.ctx.Done():
			return false
		case <-time.After(delay):
		}

		link, err := s.dialOnce(s.ctx)
		if err != nil {
			s.logger.Debug("redial failed", "error", err)
			continue
		}
		return s.connected(link)
	}
}

func (s *Supervisor) setState(next State) {
	s.mu.Lock()
	prev := s.state
	if prev == StateClosed || prev == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	fn := s.onStateChange
	s.mu.Unlock()

	if fn != nil {
		fn(prev, next)
	}
}
