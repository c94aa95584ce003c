package primitives

import (
	"github.com/ossia/ossia-sc/pkg/host"
	"github.com/ossia/ossia-sc/pkg/marshal"
	"github.com/ossia/ossia-sc/pkg/model"
)

// paramGetter builds a one-argument parameter getter writing into f[0].
func paramGetter(get func(p *model.Parameter) host.Slot) func(*Runtime, Frame) error {
	return func(r *Runtime, f Frame) error {
		p, err := r.registry.GetParameter(f[0])
		if err != nil {
			return err
		}
		f[0] = get(p)
		return nil
	}
}

// paramSetter builds a two-argument parameter setter: parameter, value.
func paramSetter(set func(r *Runtime, p *model.Parameter, s host.Slot) error) func(*Runtime, Frame) error {
	return func(r *Runtime, f Frame) error {
		p, err := r.registry.GetParameter(f[0])
		if err != nil {
			return err
		}
		return set(r, p, f[1])
	}
}

// parameterSetCallback: parameter. The parameter object itself is the
// callback target.
func parameterSetCallback(r *Runtime, f Frame) error {
	p, err := r.registry.GetParameter(f[0])
	if err != nil {
		return err
	}
	obj, _ := f[0].AsObject()
	r.bridge.SetCallback(p, obj)
	return nil
}

// parameterRemoveCallback: parameter.
func parameterRemoveCallback(r *Runtime, f Frame) error {
	p, err := r.registry.GetParameter(f[0])
	if err != nil {
		return err
	}
	r.bridge.RemoveCallback(p)
	return nil
}

var (
	// The value is stored quietly and then pushed: firing the host
	// callback here would re-enter the interpreter from inside a call.
	parameterSetValue = paramSetter(func(r *Runtime, p *model.Parameter, s host.Slot) error {
		v, err := marshal.ReadValue(s)
		if err != nil {
			return marshal.WithContext(err, "Value argument.")
		}
		return r.bridge.SetValue(p, v)
	})
	parameterSetAccessMode = paramSetter(func(_ *Runtime, p *model.Parameter, s host.Slot) error {
		mode, err := marshal.ReadListedAttribute(s, marshal.AccessModes)
		if err != nil {
			return marshal.WithContext(err, "Access mode argument.")
		}
		p.SetAccess(mode)
		return nil
	})
	parameterSetDomain = paramSetter(func(_ *Runtime, p *model.Parameter, s host.Slot) error {
		d, err := marshal.ReadDomain(s, p.Type())
		if err != nil {
			return marshal.WithContext(err, "Domain argument.")
		}
		p.SetDomain(d)
		return nil
	})
	parameterSetBoundingMode = paramSetter(func(_ *Runtime, p *model.Parameter, s host.Slot) error {
		mode, err := marshal.ReadListedAttribute(s, marshal.BoundingModes)
		if err != nil {
			return marshal.WithContext(err, "Bounding mode argument.")
		}
		p.SetBoundingMode(mode)
		return nil
	})
	parameterSetRepetitionFilter = paramSetter(func(_ *Runtime, p *model.Parameter, s host.Slot) error {
		p.SetRepetitionFilter(marshal.IsTrue(s))
		return nil
	})
	parameterSetUnit = paramSetter(func(_ *Runtime, p *model.Parameter, s host.Slot) error {
		u, err := marshal.ReadUnit(s)
		if err != nil {
			return marshal.WithContext(err, "Unit argument.")
		}
		p.SetUnit(u)
		return nil
	})
	parameterSetPriority = paramSetter(func(_ *Runtime, p *model.Parameter, s host.Slot) error {
		prio, err := marshal.ReadInt(s)
		if err != nil {
			return marshal.WithContext(err, "Priority argument.")
		}
		p.SetPriority(float32(prio))
		return nil
	})
	parameterSetCritical = paramSetter(func(_ *Runtime, p *model.Parameter, s host.Slot) error {
		p.SetCritical(marshal.IsTrue(s))
		return nil
	})
)

var (
	parameterGetValue = paramGetter(func(p *model.Parameter) host.Slot {
		return marshal.WriteValue(p.Value())
	})
	parameterGetAccessMode = paramGetter(func(p *model.Parameter) host.Slot {
		return marshal.WriteString(marshal.FormatListedAttribute(p.Access(), marshal.AccessModes))
	})
	parameterGetDomain = paramGetter(func(p *model.Parameter) host.Slot {
		return marshal.WriteDomain(p.Domain())
	})
	parameterGetBoundingMode = paramGetter(func(p *model.Parameter) host.Slot {
		return marshal.WriteString(marshal.FormatListedAttribute(p.BoundingMode(), marshal.BoundingModes))
	})
	parameterGetRepetitionFilter = paramGetter(func(p *model.Parameter) host.Slot {
		return host.Bool(p.RepetitionFilter())
	})
	parameterGetUnit = paramGetter(func(p *model.Parameter) host.Slot {
		return marshal.WriteString(p.Unit().String())
	})
	parameterGetPriority = paramGetter(func(p *model.Parameter) host.Slot {
		return host.Int(int64(p.Priority()))
	})
	parameterGetCritical = paramGetter(func(p *model.Parameter) host.Slot {
		return host.Bool(p.Critical())
	})
)
