package interactive

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossia/ossia-sc/pkg/discovery"
	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/primitives"
)

type fakeBrowser struct {
	entries []*discovery.ServiceEntry
	types   []string
}

func (b *fakeBrowser) Browse(_ context.Context, serviceType string) (<-chan *discovery.ServiceEntry, error) {
	b.types = append(b.types, serviceType)
	out := make(chan *discovery.ServiceEntry, len(b.entries))
	for _, e := range b.entries {
		out <- e
	}
	close(out)
	return out, nil
}

type consoleFixture struct {
	console *Console
	env     *Env
	out     *bytes.Buffer
	saved   int
}

func newConsoleFixture(t *testing.T, browser discovery.Browser) *consoleFixture {
	t.Helper()
	gate := &host.Gate{}
	gate.SetReady(true)

	f := &consoleFixture{env: NewEnv(), out: &bytes.Buffer{}}
	f.env.SetOutput(f.out)
	rt := primitives.New(primitives.Config{Gate: gate, Interpreter: f.env})
	t.Cleanup(func() { _ = rt.Close() })

	f.console = newConsole(Config{
		Runtime: rt,
		Env:     f.env,
		Browser: browser,
		SaveSession: func() error {
			f.saved++
			return nil
		},
	}, f.out)
	return f
}

// run executes lines and returns what they printed.
func (f *consoleFixture) run(t *testing.T, lines ...string) string {
	t.Helper()
	f.out.Reset()
	for _, line := range lines {
		require.True(t, f.console.Exec(context.Background(), line), "line %q quit", line)
	}
	return f.out.String()
}

// synth builds a device with one float parameter.
func (f *consoleFixture) synth(t *testing.T) {
	t.Helper()
	out := f.run(t,
		"new synth OSSIA_Device",
		"call InstantiateDevice $synth 'synth'",
		"new freq OSSIA_Parameter",
		"call _OSSIA_InstantiateParameter $freq $synth 'osc/freq' Float [20 20000] 440 'clip' false false",
	)
	require.NotContains(t, out, "Error")
}

func TestConsoleCall(t *testing.T) {
	f := newConsoleFixture(t, nil)
	f.synth(t)

	out := f.run(t, "call ParameterGetValue $freq")
	assert.Equal(t, "-> 440\n", out)

	out = f.run(t, "call NodeGetFullPath $freq")
	assert.Equal(t, "-> \"synth:/osc/freq\"\n", out)

	out = f.run(t, "call ParameterSetValue $freq 1e6", "call ParameterGetValue $freq")
	assert.Contains(t, out, "-> 20000\n")
}

func TestConsoleCallErrors(t *testing.T) {
	f := newConsoleFixture(t, nil)
	f.synth(t)

	tests := []struct {
		name string
		line string
		want string
	}{
		{"Unknown", "call NoSuchThing $freq", primitives.ErrUnknownPrimitive.Error()},
		{"ArgCount", "call ParameterSetValue $freq", primitives.ErrArgCount.Error()},
		{"Failed", "call ParameterSetValue $synth 1", primitives.ErrFailed.Error()},
		{"Unbound", "call ParameterGetValue $nope", ErrUnbound.Error()},
		{"Usage", "call", "Usage: call"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, f.run(t, tt.line), tt.want)
		})
	}
}

func TestConsoleCallback(t *testing.T) {
	f := newConsoleFixture(t, nil)
	f.synth(t)

	out := f.run(t, "call ParameterSetCallback $freq", "set synth:/osc/freq 880")
	assert.Contains(t, out, "[pvOnCallback] freq = 880\n")
	assert.Equal(t, 1, f.env.Received())
}

func TestConsoleInspect(t *testing.T) {
	f := newConsoleFixture(t, nil)
	f.synth(t)

	out := f.run(t, "tree")
	assert.Equal(t, "synth\n  osc\n    freq: 440 (float, bi, [20, 20000] clip)\n", out)

	out = f.run(t, "get /osc/freq@domain")
	assert.Equal(t, "/osc/freq@domain = [20, 20000]\n", out)

	out = f.run(t, "get synth:/osc/freq")
	assert.Equal(t, "synth:/osc/freq@value = 440\n", out)

	out = f.run(t, "set /osc/freq@access get", "get /osc/freq@access")
	assert.Equal(t, "OK\n/osc/freq@access = get\n", out)

	out = f.run(t, "attrs /osc/freq")
	assert.Contains(t, out, "/osc/freq:\n")
	assert.Contains(t, out, "bounding")
	assert.Contains(t, out, "clip")

	out = f.run(t, "get /nope@value")
	assert.Contains(t, out, "node not found")

	out = f.run(t, "set /osc/freq")
	assert.Contains(t, out, "Usage: set")
}

func TestConsoleVarsAndDevices(t *testing.T) {
	f := newConsoleFixture(t, nil)

	assert.Equal(t, "  (no variables)\n", f.run(t, "vars"))
	assert.Equal(t, "  (no devices)\n", f.run(t, "devices"))

	f.synth(t)
	out := f.run(t, "let gain 0.5", "vars")
	assert.Contains(t, out, "gain = 0.5\n")
	assert.Contains(t, out, "  freq = a OSSIA_Parameter\n")
	assert.Equal(t, "  synth (1 children)\n", f.run(t, "devices"))
}

func TestConsolePrims(t *testing.T) {
	f := newConsoleFixture(t, nil)
	out := f.run(t, "prims")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(f.console.cfg.Runtime.Names()))
	assert.Contains(t, out, "_OSSIA_InstantiateParameter")
}

func TestConsoleBrowse(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		f := newConsoleFixture(t, nil)
		assert.Equal(t, "Browsing is disabled\n", f.run(t, "browse"))
	})

	t.Run("Found", func(t *testing.T) {
		b := &fakeBrowser{entries: []*discovery.ServiceEntry{{
			Instance: "synth", Type: discovery.ServiceTypeOSCQuery,
			Host: "synth.local.", Port: 5678, Addresses: []string{"10.0.0.2"},
		}}}
		f := newConsoleFixture(t, b)

		out := f.run(t, "browse 1")
		assert.Contains(t, out, "synth  synth.local.:5678 [10.0.0.2]\n")
		assert.Contains(t, out, "1 server(s) found\n")
		assert.Equal(t, []string{discovery.ServiceTypeOSCQuery}, b.types)
	})

	t.Run("BadDuration", func(t *testing.T) {
		f := newConsoleFixture(t, &fakeBrowser{})
		assert.Contains(t, f.run(t, "browse soon"), "invalid duration")
	})
}

func TestConsoleSaveAndQuit(t *testing.T) {
	f := newConsoleFixture(t, nil)
	assert.Equal(t, "Session saved\n", f.run(t, "save"))
	assert.Equal(t, 1, f.saved)

	f.console.cfg.SaveSession = func() error { return errors.New("disk full") }
	assert.Equal(t, "Error: disk full\n", f.run(t, "save"))

	assert.Contains(t, f.run(t, "frobnicate"), "Unknown command: frobnicate")
	assert.True(t, f.console.Exec(context.Background(), "// comment"))
	assert.False(t, f.console.Exec(context.Background(), "quit"))
}
