package assembly

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a Spec's structural fields (name, state tree, events,
// transition wiring) from a YAML document. Callback fields (Enter, Exit,
// Condition, Action, Dynamic) are not serializable and must be attached by
// the caller after loading, keyed by state/transition name. This mirrors
// the division of labor in spec.md §1: the assembly contract's shape is a
// runtime concern, the callback bodies belong to the (external) compiler
// front-end or hand-written wiring code.
func LoadYAML(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("assembly: read %s: %w", path, err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("assembly: parse %s: %w", path, err)
	}
	return spec, nil
}

// SaveYAML writes spec's structural fields to path, suitable for round-
// tripping through LoadYAML (minus callbacks, see LoadYAML).
func SaveYAML(path string, spec Spec) error {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("assembly: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("assembly: write %s: %w", path, err)
	}
	return nil
}
