package primitives

import (
	"github.com/ossia/ossia-sc/pkg/marshal"
	"github.com/ossia/ossia-sc/pkg/persistence"
	"github.com/ossia/ossia-sc/pkg/preset"
)

// presetLoad: node, file path.
func presetLoad(r *Runtime, f Frame) error {
	n, err := r.registry.GetNode(f[0])
	if err != nil {
		return err
	}
	path, err := marshal.ReadString(f[1])
	if err != nil {
		return marshal.WithContext(err, "File path argument.")
	}

	text, err := persistence.NewPresetFile(path).Load()
	if err != nil {
		return err
	}
	p, err := preset.ReadJSON(text)
	if err != nil {
		return err
	}
	return preset.Apply(n, p)
}

// presetSave: node, file path. The document is rooted at the node name.
func presetSave(r *Runtime, f Frame) error {
	n, err := r.registry.GetNode(f[0])
	if err != nil {
		return err
	}
	path, err := marshal.ReadString(f[1])
	if err != nil {
		return marshal.WithContext(err, "File path argument.")
	}

	text, err := preset.WriteJSON(n.Name(), preset.Make(n))
	if err != nil {
		return err
	}
	return persistence.NewPresetFile(path).Save(text)
}
