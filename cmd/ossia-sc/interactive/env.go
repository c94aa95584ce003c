// Package interactive provides the interactive command-line interface
// for ossia-sc.
package interactive

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/ossia/ossia-sc/pkg/host"
)

// Env holds the named host values of a session and receives parameter
// callbacks as the host interpreter.
type Env struct {
	mu       sync.Mutex
	vars     map[string]host.Slot
	names    map[*host.Object]string
	out      io.Writer
	canCall  bool
	received int
}

// NewEnv creates an empty environment printing callbacks to stdout.
func NewEnv() *Env {
	return &Env{
		vars:  make(map[string]host.Slot),
		names: make(map[*host.Object]string),
		out:   os.Stdout,
	}
}

// SetOutput redirects callback output.
func (e *Env) SetOutput(w io.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.out = w
}

// Bind names a host value. Rebinding a name replaces the previous value.
func (e *Env) Bind(name string, s host.Slot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.vars[name]; ok {
		if obj, ok := old.AsObject(); ok {
			delete(e.names, obj)
		}
	}
	e.vars[name] = s
	if obj, ok := s.AsObject(); ok {
		e.names[obj] = name
	}
}

// Lookup returns the value bound to name.
func (e *Env) Lookup(name string) (host.Slot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.vars[name]
	return s, ok
}

// NameOf returns the name an object is bound to.
func (e *Env) NameOf(obj *host.Object) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	name, ok := e.names[obj]
	return name, ok
}

// Names returns the bound names, sorted.
func (e *Env) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.vars))
	for name := range e.vars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Received returns how many callbacks were delivered.
func (e *Env) Received() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.received
}

// SetCanCallOS implements host.Interpreter.
func (e *Env) SetCanCallOS(b bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.canCall = b
}

// Call implements host.Interpreter. The first argument is the callback
// target, the second the new value.
func (e *Env) Call(selector string, args ...host.Slot) error {
	if len(args) != 2 {
		return fmt.Errorf("%s: want 2 arguments, got %d", selector, len(args))
	}

	target := "?"
	if obj, ok := args[0].AsObject(); ok {
		if name, ok := e.NameOf(obj); ok {
			target = name
		} else {
			target = "a " + obj.Class
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.received++
	fmt.Fprintf(e.out, "[%s] %s = %s\n", selector, target, args[1])
	return nil
}
