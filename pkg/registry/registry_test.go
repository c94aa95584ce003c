package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/marshal"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/value"
)

func newDevice(t *testing.T, r *Registry) (*model.Device, host.Slot) {
	t.Helper()
	d := model.NewDevice("dev", nil)
	obj := host.NewObject("OSSIA_Device", 1)
	r.Register(obj, d.Root())
	return d, host.Obj(obj)
}

func paramArgs(parent host.Slot, name string) ParameterArgs {
	return ParameterArgs{
		Parent:           parent,
		Name:             host.Symbol(name),
		Type:             host.Class("Float"),
		Domain:           host.Array(host.Float(0), host.Float(1)),
		Default:          host.Float(0.5),
		BoundingMode:     host.Symbol("clip"),
		Critical:         host.Bool(false),
		RepetitionFilter: host.Bool(true),
	}
}

func TestGetNode(t *testing.T) {
	r := New(nil)
	d, dev := newDevice(t, r)

	t.Run("Registered", func(t *testing.T) {
		n, err := r.GetNode(dev)
		require.NoError(t, err)
		assert.Same(t, d.Root(), n)
	})

	t.Run("WrongClass", func(t *testing.T) {
		_, err := r.GetNode(host.Obj(host.NewObject("Window", 1)))
		assert.ErrorIs(t, err, marshal.ErrWrongType)
	})

	t.Run("Nil", func(t *testing.T) {
		_, err := r.GetNode(host.Nil())
		assert.ErrorIs(t, err, marshal.ErrUndefined)
	})

	t.Run("SameNodeSameHandle", func(t *testing.T) {
		a := host.NewObject("OSSIA_Node", 1)
		b := host.NewObject("OSSIA_Node", 1)
		assert.Equal(t, r.Register(a, d.Root()), r.Register(b, d.Root()))
	})
}

func TestInstantiateNode(t *testing.T) {
	r := New(nil)
	d, dev := newDevice(t, r)

	rcvr := host.NewObject("OSSIA_Node", 1)
	n, err := r.InstantiateNode(rcvr, dev, host.String("voice"))
	require.NoError(t, err)
	assert.Equal(t, "/voice", n.OSCAddress())

	got, err := r.GetNode(host.Obj(rcvr))
	require.NoError(t, err)
	assert.Same(t, n, got)

	t.Run("SecondCallRejected", func(t *testing.T) {
		again := host.NewObject("OSSIA_Node", 1)
		_, err := r.InstantiateNode(again, dev, host.String("voice"))
		assert.ErrorIs(t, err, ErrExists)
		assert.Equal(t, []string{"voice"}, d.Root().ChildrenNames())
		assert.True(t, again.Slots[0].IsNil())
	})

	t.Run("BlankComponentLeavesNoNode", func(t *testing.T) {
		rcvr := host.NewObject("OSSIA_Node", 1)
		_, err := r.InstantiateNode(rcvr, dev, host.String("a/ /b"))
		assert.ErrorIs(t, err, model.ErrInvalidName)
		assert.Nil(t, d.Root().FindChild("a"))
		assert.True(t, rcvr.Slots[0].IsNil())
	})

	t.Run("BadParent", func(t *testing.T) {
		_, err := r.InstantiateNode(host.NewObject("OSSIA_Node", 1), host.Int(3), host.String("x"))
		assert.ErrorIs(t, err, marshal.ErrWrongType)
		assert.Equal(t, "Parent Argument. Aborting...", marshal.ContextOf(err))
	})
}

func TestInstantiateParameter(t *testing.T) {
	r := New(nil)
	d, dev := newDevice(t, r)

	t.Run("Full", func(t *testing.T) {
		rcvr := host.NewObject("OSSIA_Parameter", 1)
		p, err := r.InstantiateParameter(rcvr, paramArgs(dev, "gain"))
		require.NoError(t, err)

		assert.Equal(t, value.TypeFloat, p.Type())
		assert.Equal(t, value.BoundClip, p.BoundingMode())
		assert.True(t, p.RepetitionFilter())
		assert.False(t, p.Critical())
		assert.True(t, p.Value().Equal(value.Float(0.5)))
		assert.True(t, p.Domain().Max().Equal(value.Float(1)))

		n, err := r.GetNode(host.Obj(rcvr))
		require.NoError(t, err)
		assert.Same(t, p.Node(), n)
	})

	t.Run("Collision", func(t *testing.T) {
		_, err := r.InstantiateParameter(host.NewObject("OSSIA_Parameter", 1), paramArgs(dev, "gain"))
		assert.ErrorIs(t, err, ErrExists)
	})

	t.Run("InferFromDefault", func(t *testing.T) {
		a := paramArgs(dev, "inferred")
		a.Type = host.Nil()
		p, err := r.InstantiateParameter(host.NewObject("OSSIA_Parameter", 1), a)
		require.NoError(t, err)
		assert.Equal(t, value.TypeFloat, p.Type())
	})

	t.Run("NoType", func(t *testing.T) {
		a := paramArgs(dev, "untyped")
		a.Type = host.Nil()
		a.Default = host.Nil()
		_, err := r.InstantiateParameter(host.NewObject("OSSIA_Parameter", 1), a)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Could not deduce parameter type")
		assert.Nil(t, d.Root().FindChild("untyped"))
	})

	t.Run("ImpulseIgnoresDomainAndBounding", func(t *testing.T) {
		a := paramArgs(dev, "bang")
		a.Type = host.Class("Impulse")
		a.Domain = host.Int(42)
		a.BoundingMode = host.Symbol("nonsense")
		a.Default = host.Nil()
		p, err := r.InstantiateParameter(host.NewObject("OSSIA_Parameter", 1), a)
		require.NoError(t, err)
		assert.Equal(t, value.TypeImpulse, p.Type())
		assert.True(t, p.Domain().Empty())
		assert.Equal(t, value.BoundFree, p.BoundingMode())
		assert.True(t, p.RepetitionFilter())
	})

	t.Run("BadDomainIsSkipped", func(t *testing.T) {
		a := paramArgs(dev, "loose")
		a.Domain = host.Array(host.Float(1))
		p, err := r.InstantiateParameter(host.NewObject("OSSIA_Parameter", 1), a)
		require.NoError(t, err)
		assert.True(t, p.Domain().Empty())
	})

	t.Run("BadDefaultIsSkipped", func(t *testing.T) {
		a := paramArgs(dev, "nodefault")
		a.Default = host.Obj(host.NewObject("Window", 0))
		p, err := r.InstantiateParameter(host.NewObject("OSSIA_Parameter", 1), a)
		require.NoError(t, err)
		assert.True(t, p.Value().Equal(value.Float(0)))
	})

	t.Run("UnknownBoundingModeFails", func(t *testing.T) {
		a := paramArgs(dev, "badmode")
		a.BoundingMode = host.Symbol("squash")
		_, err := r.InstantiateParameter(host.NewObject("OSSIA_Parameter", 1), a)
		assert.ErrorIs(t, err, marshal.ErrBadValue)
		assert.Nil(t, d.Root().FindChild("badmode"))
	})

	t.Run("BlankComponentLeavesNoNode", func(t *testing.T) {
		a := paramArgs(dev, "osc/ /freq")
		_, err := r.InstantiateParameter(host.NewObject("OSSIA_Parameter", 1), a)
		assert.ErrorIs(t, err, model.ErrInvalidName)
		assert.Equal(t, "Name argument.", marshal.ContextOf(err))
		assert.Nil(t, d.Root().FindChild("osc"))
	})

	t.Run("MissingBoundingModeIsFree", func(t *testing.T) {
		a := paramArgs(dev, "freemode")
		a.BoundingMode = host.Nil()
		p, err := r.InstantiateParameter(host.NewObject("OSSIA_Parameter", 1), a)
		require.NoError(t, err)
		assert.Equal(t, value.BoundFree, p.BoundingMode())
	})
}

func TestFreeDevice(t *testing.T) {
	r := New(nil)
	d, dev := newDevice(t, r)

	child := host.NewObject("OSSIA_Node", 1)
	_, err := r.InstantiateNode(child, dev, host.String("a"))
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	slot := dev
	require.NoError(t, r.FreeDevice(&slot))

	assert.True(t, slot.IsNil())
	assert.True(t, d.Closed())
	assert.Equal(t, 0, r.Len())

	assert.ErrorIs(t, r.FreeDevice(&slot), marshal.ErrUndefined)
}

func TestUnregister(t *testing.T) {
	r := New(nil)
	d, dev := newDevice(t, r)

	child := host.NewObject("OSSIA_Node", 1)
	_, err := r.InstantiateNode(child, dev, host.String("a"))
	require.NoError(t, err)

	slot := host.Obj(child)
	n, err := r.Unregister(&slot)
	require.NoError(t, err)
	assert.Equal(t, "a", n.Name())
	assert.True(t, child.Slots[0].IsNil())
	assert.Nil(t, d.Root().FindChild("a"))
	assert.Equal(t, 1, r.Len())

	slot = dev
	_, err = r.Unregister(&slot)
	require.NoError(t, err)
	assert.False(t, d.Closed(), "the caller closes the device")
	assert.Zero(t, r.Len())
}
