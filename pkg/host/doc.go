// Package host models the values of the scripting language that drives
// the device tree.
//
// A Slot is one host value. The set of kinds is closed: nil, true, false,
// integer, float, character, symbol, string, object, class literal and
// opaque pointer. Objects carry a class name and an ordered list of slots;
// arrays and lists are objects whose slots are the elements.
//
// Node-backed objects (OSSIA_Node, OSSIA_Parameter, OSSIA_Device, ...)
// store their registry handle as a Ptr in Slots[0].
//
// # Interpreter Gate
//
// The host interpreter is single-threaded. Network threads that need to
// call back into it go through a Gate:
//
//	gate.Enter(func() {
//	    interp.SetCanCallOS(true)
//	    defer interp.SetCanCallOS(false)
//	    interp.Call("pvOnCallback", obj, v)
//	})
//
// Enter holds the gate lock for the whole section and runs the function
// only while the interpreter is marked ready. The lock is released on
// every path, including when the interpreter is not ready and when the
// function panics.
//
// Calls the interpreter makes into native code hold the same gate with
// Lock and Unlock. A notification raised during such a call waits until
// it returns. Native code running under the gate must not fire callbacks
// synchronously.
package host
