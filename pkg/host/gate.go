package host

import (
	"sync"
	"sync/atomic"
)

// Interpreter is the entry point back into the host language.
type Interpreter interface {
	// SetCanCallOS marks the interpreter as callable from native code.
	SetCanCallOS(bool)

	// Call invokes a host method by selector with the given arguments.
	Call(selector string, args ...Slot) error
}

// Gate serializes every entry into the host interpreter.
type Gate struct {
	mu    sync.Mutex
	ready atomic.Bool
}

// Default is the process-wide interpreter gate.
var Default = &Gate{}

// SetReady sets the interpreter readiness flag. The interpreter sets it
// once compiled and clears it before shutdown.
func (g *Gate) SetReady(ready bool) {
	g.ready.Store(ready)
}

// Ready reports the readiness flag.
func (g *Gate) Ready() bool {
	return g.ready.Load()
}

// Lock acquires the gate for an interpreter-initiated section.
func (g *Gate) Lock() {
	g.mu.Lock()
}

// Unlock releases the gate.
func (g *Gate) Unlock() {
	g.mu.Unlock()
}

// Enter runs fn while holding the gate, but only if the interpreter is
// ready. It reports whether fn ran. The gate is released on all paths.
func (g *Gate) Enter(fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ready.Load() {
		return false
	}
	fn()
	return true
}
