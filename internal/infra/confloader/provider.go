package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// mapProvider feeds dotted-key overrides to koanf, expanded into nested
// maps so they merge with file and env values key by key.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("confloader: map provider has no byte form")
}

func (m mapProvider) Read() (map[string]any, error) {
	flat := make(map[string]any, len(m))
	for k, v := range m {
		flat[k] = v
	}
	return maps.Unflatten(flat, "."), nil
}
