package interactive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ossia/ossia-sc/pkg/host"
)

func TestEnvBind(t *testing.T) {
	env := NewEnv()
	a := host.NewObject("OSSIA_Node", 1)
	b := host.NewObject("OSSIA_Node", 1)

	env.Bind("x", host.Obj(a))
	name, ok := env.NameOf(a)
	assert.True(t, ok)
	assert.Equal(t, "x", name)

	env.Bind("x", host.Obj(b))
	_, ok = env.NameOf(a)
	assert.False(t, ok, "rebinding forgets the previous object")

	env.Bind("n", host.Int(3))
	s, ok := env.Lookup("n")
	assert.True(t, ok)
	assert.Equal(t, host.Int(3), s)
	assert.Equal(t, []string{"n", "x"}, env.Names())
}

func TestEnvCall(t *testing.T) {
	var out bytes.Buffer
	env := NewEnv()
	env.SetOutput(&out)

	bound := host.NewObject("OSSIA_Parameter", 1)
	env.Bind("freq", host.Obj(bound))

	assert.NoError(t, env.Call("pvOnCallback", host.Obj(bound), host.Float(440)))
	assert.NoError(t, env.Call("pvOnCallback", host.Obj(host.NewObject("OSSIA_Parameter", 1)), host.String("saw")))
	assert.Error(t, env.Call("pvOnCallback", host.Int(1)))

	assert.Equal(t, "[pvOnCallback] freq = 440\n[pvOnCallback] a OSSIA_Parameter = \"saw\"\n", out.String())
	assert.Equal(t, 2, env.Received())
}
