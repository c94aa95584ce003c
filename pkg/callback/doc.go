// Package callback delivers parameter value changes to the host
// interpreter.
//
// A parameter has at most one host callback. SetCallback replaces the
// previous one and RemoveCallback clears every callback of the parameter.
// Each notification enters the interpreter through a host.Gate, so
// notifications from network goroutines never overlap each other or an
// interpreter-initiated call. Notifications that arrive while the
// interpreter is not ready are dropped.
package callback
