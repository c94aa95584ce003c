// Package preset captures and restores the parameter values of a subtree.
//
// A Preset maps addresses relative to the captured node onto values. Its
// JSON form nests one object per node under the name of the captured node:
//
//	{"synth": {"osc": {"freq": 440, "wave": "saw"}, "gain": 0.5}}
//
// A node that has both a value and children stores its value under the
// ":value" key. ':' is not allowed in node names.
package preset
