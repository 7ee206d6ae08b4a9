package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/trafficsim/trafficsim/sim"
)

// NodeDefaults describes the performance spec of one node kind in defaults.yaml.
type NodeDefaults struct {
	MaxConcurrent int     `yaml:"max_concurrent"`
	ServiceTimeMs float64 `yaml:"service_time_ms"`
	QueueCapacity int     `yaml:"queue_capacity"`
	Cost          int     `yaml:"cost"`
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version string                  `yaml:"version"`
	Nodes   map[string]NodeDefaults `yaml:"nodes"`
}

// loadDefaultsConfig parses defaults.yaml with strict field checking.
func loadDefaultsConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading defaults file %s: %w", path, err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing defaults YAML %s: %w", path, err)
	}
	return cfg, nil
}

// NodeSpecs converts the nodes section into spec overrides keyed by kind.
// Kind names accept the same spellings as stage files.
func (c Config) NodeSpecs() (map[sim.NodeKind]sim.NodeSpec, error) {
	specs := make(map[sim.NodeKind]sim.NodeSpec, len(c.Nodes))
	for name, d := range c.Nodes {
		kind, err := sim.ParseNodeKind(name)
		if err != nil {
			return nil, fmt.Errorf("defaults nodes.%s: %w", name, err)
		}
		if d.MaxConcurrent < 0 || d.QueueCapacity < 0 || d.ServiceTimeMs < 0 {
			return nil, fmt.Errorf("defaults nodes.%s: max_concurrent, queue_capacity and service_time_ms must be >= 0", name)
		}
		spec := sim.DefaultSpec(kind)
		spec.MaxConcurrent = d.MaxConcurrent
		spec.ServiceTimeMs = d.ServiceTimeMs
		spec.QueueCapacity = d.QueueCapacity
		spec.Cost = d.Cost
		specs[kind] = spec
	}
	return specs, nil
}
