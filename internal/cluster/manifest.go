package cluster

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const ConfigFilename = "dev-lxc.yml"

// LoadConfig reads a cluster definition from disk.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cluster config: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a cluster definition from YAML.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse cluster config: %w", err)
	}
	return &cfg, nil
}
