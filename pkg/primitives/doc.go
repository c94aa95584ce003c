// Package primitives is the flat operation table the host interpreter
// calls into.
//
// Every operation has a fixed argument count, receiver included. The
// interpreter passes a Frame whose first slot is the receiver; results are
// written back into that slot:
//
//	rt := primitives.New(primitives.Config{Interpreter: interp})
//	frame := primitives.Frame{host.Obj(devObj), host.String("synth")}
//	if err := rt.Call("_OSSIA_InstantiateDevice", frame); err != nil {
//	    // already logged as "OSSIA: Error! ..."
//	}
//
// A failing operation logs one diagnostic line naming the error kind and
// the argument or phase that failed, and returns an error wrapping
// ErrFailed. Argument checks run before any state is changed.
//
// Each call holds the interpreter gate. Operations store values without
// firing callbacks, and devices are closed after the gate is released.
//
// Devices are created over a protocol.Multiplex. The Expose operations
// add OSCQuery, Minuit or plain OSC transports to it.
package primitives
