package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a File from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if len(f.Listeners) == 0 {
		return nil, fmt.Errorf("config: at least one listener is required")
	}
	if len(f.Services) == 0 {
		return nil, fmt.Errorf("config: at least one service is required")
	}
	return &f, nil
}
