package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadOverrides reads a YAML file of section values and applies it to m.
// The file is keyed by section ID:
//
//	automation:
//	  headless: true
//	  navigation_timeout: 90s
//	downloads:
//	  download_path: ~/Videos/anime
//
// Overrides change the in-memory sections only; they are not saved.
func LoadOverrides(m *Manager, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read overrides file: %w", err)
	}
	return ApplyOverrides(m, raw)
}

// ApplyOverrides applies YAML override content to m.
func ApplyOverrides(m *Manager, raw []byte) error {
	var data map[string]map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse overrides: %w", err)
	}
	return m.Apply(data)
}
