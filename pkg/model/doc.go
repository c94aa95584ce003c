// Package model implements the addressable parameter tree.
//
// # Tree Hierarchy
//
// A Device owns a tree of Nodes. Any Node may carry one Parameter:
//
//	Device (my-synth)
//	└── / (root)
//	    ├── filter
//	    │   ├── cutoff    Parameter(float, [20, 20000], clip)
//	    │   └── resonance Parameter(float, [0, 1])
//	    └── trigger       Parameter(impulse)
//
// Nodes are addressed by OSC-style paths relative to the root
// ("/filter/cutoff"). The full path of a node prefixes the device name
// ("my-synth:/filter/cutoff").
//
// # Ownership
//
// The device owns its subtree. Nodes and parameters never outlive the
// device in any meaningful way: after Device.Close they are detached and
// must not be used.
//
// # Values and Callbacks
//
// A Parameter stores a typed value (see package value). Values are
// converted to the parameter's declared type and bounded by its domain.
//
// There are four ways to write a value:
//   - SetValueQuiet: store only
//   - SendValue: store, send through the device protocol
//   - PushValue: store, fire callbacks, send through the device protocol
//   - ReceiveValue: store, fire callbacks, notify device observers (used
//     by transports when a value arrives from the network)
//
// # Protocols
//
// A Device is attached to one Protocol. Protocols implement network
// exposure; a multiplexing protocol can host several concrete ones.
package model
