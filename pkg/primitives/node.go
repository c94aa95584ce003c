package primitives

import (
	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/marshal"
	"github.com/ossia/ossia-sc/pkg/model"
	"github.com/ossia/ossia-sc/pkg/registry"
)

// instantiateNode: receiver, parent, name.
func instantiateNode(r *Runtime, f Frame) error {
	obj, err := receiver(f[0])
	if err != nil {
		return err
	}
	_, err = r.registry.InstantiateNode(obj, f[1], f[2])
	return err
}

// instantiateParameter: receiver, parent, name, type, domain, default,
// bounding mode, critical, repetition filter.
func instantiateParameter(r *Runtime, f Frame) error {
	obj, err := receiver(f[0])
	if err != nil {
		return err
	}
	_, err = r.registry.InstantiateParameter(obj, registry.ParameterArgs{
		Parent:           f[1],
		Name:             f[2],
		Type:             f[3],
		Domain:           f[4],
		Default:          f[5],
		BoundingMode:     f[6],
		Critical:         f[7],
		RepetitionFilter: f[8],
	})
	return err
}

// nodeGetMirror: receiver, root, path. Registers the node at path under
// root into the receiver.
func nodeGetMirror(r *Runtime, f Frame) error {
	obj, err := receiver(f[0])
	if err != nil {
		return err
	}
	root, err := r.registry.GetNode(f[1])
	if err != nil {
		return err
	}
	path, err := marshal.ReadString(f[2])
	if err != nil {
		return marshal.WithContext(err, "Name argument.")
	}
	n := model.FindNode(root, path)
	if n == nil {
		return marshal.WithContext(marshal.ErrNodeNotFound, path)
	}
	r.registry.Register(obj, n)
	return nil
}

// freeDevice: device. The receiver slot is set to nil. The device is
// closed once the gate is released: closing waits for transport
// goroutines that may be queued on the gate.
func freeDevice(r *Runtime, f Frame) error {
	n, err := r.registry.GetNode(f[0])
	if err != nil {
		return err
	}
	r.bridge.Release(n)
	if _, err := r.registry.Unregister(&f[0]); err != nil {
		return err
	}
	if n.IsRoot() {
		d := n.Device()
		r.removeDevice(d)
		r.afterCall(d.Close)
	}
	return nil
}

// nodeGetter builds a one-argument getter writing its result into f[0].
func nodeGetter(get func(n *model.Node) host.Slot) func(*Runtime, Frame) error {
	return func(r *Runtime, f Frame) error {
		n, err := r.registry.GetNode(f[0])
		if err != nil {
			return err
		}
		f[0] = get(n)
		return nil
	}
}

// nodeSetter builds a two-argument setter: node, value.
func nodeSetter(set func(n *model.Node, s host.Slot) error) func(*Runtime, Frame) error {
	return func(r *Runtime, f Frame) error {
		n, err := r.registry.GetNode(f[0])
		if err != nil {
			return err
		}
		return set(n, f[1])
	}
}

func writeStrings(s []string) host.Slot {
	return marshal.WriteArray(s, marshal.WriteString)
}

var (
	nodeGetName = nodeGetter(func(n *model.Node) host.Slot {
		return marshal.WriteString(n.Name())
	})
	nodeGetChildrenNames = nodeGetter(func(n *model.Node) host.Slot {
		return writeStrings(n.ChildrenNames())
	})
	nodeGetFullPath = nodeGetter(func(n *model.Node) host.Slot {
		return marshal.WriteString(n.FullPath())
	})
	nodeGetDisabled = nodeGetter(func(n *model.Node) host.Slot { return host.Bool(n.Disabled()) })
	nodeGetHidden   = nodeGetter(func(n *model.Node) host.Slot { return host.Bool(n.Hidden()) })
	nodeGetMuted    = nodeGetter(func(n *model.Node) host.Slot { return host.Bool(n.Muted()) })
	nodeGetZombie   = nodeGetter(func(n *model.Node) host.Slot { return host.Bool(n.Zombie()) })

	nodeGetDescription = nodeGetter(func(n *model.Node) host.Slot {
		desc, ok := n.Description()
		if !ok {
			desc = "null"
		}
		return marshal.WriteString(desc)
	})
	nodeGetTags = nodeGetter(func(n *model.Node) host.Slot {
		return writeStrings(n.Tags())
	})
)

var (
	nodeSetDisabled = nodeSetter(func(n *model.Node, s host.Slot) error {
		n.SetDisabled(marshal.IsTrue(s))
		return nil
	})
	nodeSetHidden = nodeSetter(func(n *model.Node, s host.Slot) error {
		n.SetHidden(marshal.IsTrue(s))
		return nil
	})
	nodeSetMuted = nodeSetter(func(n *model.Node, s host.Slot) error {
		n.SetMuted(marshal.IsTrue(s))
		return nil
	})
	nodeSetDescription = nodeSetter(func(n *model.Node, s host.Slot) error {
		desc, err := marshal.ReadString(s)
		if err != nil {
			return marshal.WithContext(err, "Description argument.")
		}
		n.SetDescription(desc)
		return nil
	})
	nodeSetTags = nodeSetter(func(n *model.Node, s host.Slot) error {
		tags, err := marshal.ReadVector(s, marshal.ReadString)
		if err != nil {
			return marshal.WithContext(err, "Tags argument.")
		}
		n.SetTags(tags)
		return nil
	})

	// Renaming a device root renames the device.
	nodeSetName = nodeSetter(func(n *model.Node, s host.Slot) error {
		name, err := marshal.ReadString(s)
		if err != nil {
			return marshal.WithContext(err, "Name argument.")
		}
		if err := n.SetName(name); err != nil {
			return marshal.WithContext(err, "Name argument.")
		}
		return nil
	})
)
