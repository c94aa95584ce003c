package connection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeLink struct {
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
}

func newFakeLink() *fakeLink {
	return &fakeLink{done: make(chan struct{})}
}

func (l *fakeLink) Done() <-chan struct{} { return l.done }

func (l *fakeLink) drop() { l.once.Do(func() { close(l.done) }) }

func (l *fakeLink) Close() error {
	l.closed.Store(true)
	l.drop()
	return nil
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Backoff = BackoffConfig{Initial: time.Millisecond, Max: 4 * time.Millisecond, Multiplier: 2}
	return cfg
}

func TestBackoff(t *testing.T) {
	t.Run("Sequence", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Initial: time.Second, Max: 8 * time.Second, Multiplier: 2})
		expected := []time.Duration{1, 2, 4, 8, 8}
		for i, exp := range expected {
			if got := b.Current(); got != exp*time.Second {
				t.Errorf("attempt %d: base = %v, want %v", i, got, exp*time.Second)
			}
			b.Next()
		}
		if b.Attempts() != len(expected) {
			t.Errorf("Attempts() = %d, want %d", b.Attempts(), len(expected))
		}
	})

	t.Run("Jitter", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Initial: time.Second, Jitter: 0.25})
		d := b.Next()
		if d < time.Second || d > 1250*time.Millisecond {
			t.Errorf("jittered delay %v out of [1s, 1.25s]", d)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff(DefaultBackoffConfig())
		for range 5 {
			b.Next()
		}
		b.Reset()
		if b.Current() != DefaultInitialBackoff || b.Attempts() != 0 {
			t.Errorf("after Reset: current=%v attempts=%d", b.Current(), b.Attempts())
		}
	})

	t.Run("InvalidConfigUsesDefaults", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Multiplier: 0.5, Jitter: -1})
		if b.Current() != DefaultInitialBackoff {
			t.Errorf("Current() = %v, want %v", b.Current(), DefaultInitialBackoff)
		}
	})
}

func TestSupervisorFirstDialFails(t *testing.T) {
	boom := errors.New("refused")
	s := NewSupervisor(func(context.Context) (Link, error) { return nil, boom }, fastConfig())

	if err := s.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Start() = %v, want %v", err, boom)
	}
	if s.State() != StateIdle {
		t.Errorf("State() = %v, want IDLE", s.State())
	}
	if _, err := s.Link(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Link() error = %v, want ErrNotConnected", err)
	}
}

func TestSupervisorRedials(t *testing.T) {
	var mu sync.Mutex
	var links []*fakeLink
	var calls atomic.Int32

	dial := func(context.Context) (Link, error) {
		// The second dial fails to exercise the backoff loop.
		if calls.Add(1) == 2 {
			return nil, errors.New("not yet")
		}
		l := newFakeLink()
		mu.Lock()
		links = append(links, l)
		mu.Unlock()
		return l, nil
	}

	s := NewSupervisor(dial, fastConfig())

	connected := make(chan Link, 4)
	s.OnConnected(func(l Link) { connected <- l })

	var transitions []State
	var tmu sync.Mutex
	s.OnStateChange(func(_, next State) {
		tmu.Lock()
		transitions = append(transitions, next)
		tmu.Unlock()
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	first := <-connected

	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() = %v, want ErrAlreadyStarted", err)
	}

	first.(*fakeLink).drop()

	select {
	case l := <-connected:
		if l == first {
			t.Fatal("redial returned the dropped link")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no redial")
	}

	if got := calls.Load(); got != 3 {
		t.Errorf("dial calls = %d, want 3", got)
	}
	if s.State() != StateConnected {
		t.Errorf("State() = %v, want CONNECTED", s.State())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	mu.Lock()
	last := links[len(links)-1]
	mu.Unlock()
	if !last.closed.Load() {
		t.Error("Close did not close the current link")
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close = %v, want ErrClosed", err)
	}

	tmu.Lock()
	defer tmu.Unlock()
	want := []State{StateConnecting, StateConnected, StateReconnecting, StateConnected, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "IDLE"},
		{StateConnecting, "CONNECTING"},
		{StateConnected, "CONNECTED"},
		{StateReconnecting, "RECONNECTING"},
		{StateClosed, "CLOSED"},
		{State(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
