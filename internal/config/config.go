// Package config holds the configuration types for the taskdag demo CLI
// and introspection server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Traversal is the DAG walk order used by the static planner (spec §4.4(e)).
type Traversal string

const (
	TraversalInorder Traversal = "inorder"
	TraversalBFS     Traversal = "bfs"
	TraversalDFS     Traversal = "dfs"
)

// RegionConfig holds the three recognised `with_region` options (spec §6).
type RegionConfig struct {
	Static    bool      `yaml:"static"`
	Traversal Traversal `yaml:"traversal"`
	Aliasing  bool      `yaml:"aliasing"`
}

// DefaultRegionConfig returns the documented defaults: static planning,
// inorder traversal, aliasing enabled.
func DefaultRegionConfig() RegionConfig {
	return RegionConfig{
		Static:    true,
		Traversal: TraversalInorder,
		Aliasing:  true,
	}
}

// RuntimeConfig holds configuration for the demo CLI and introspection server.
type RuntimeConfig struct {
	Addr      string `yaml:"addr"`       // introspection server listen address
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
	DBPath    string `yaml:"db_path"`    // sqlite history database path
	Workers   int    `yaml:"workers"`    // simulated in-process workers
}

// DefaultRuntimeConfig returns sensible defaults.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		DBPath:    "taskdag.db",
		Workers:   4,
	}
}

// LoadRuntimeConfig reads a YAML config file, applying it on top of the
// defaults. A missing path is not an error; the defaults are returned as-is.
func LoadRuntimeConfig(path string) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
