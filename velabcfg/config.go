// Package velabcfg loads the compiler driver's configuration file.
package velabcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// APIConfig configures the optional HTTP elaboration service.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config is the driver's yaml-backed configuration: which module to
// elaborate, where to look for fixture files, and which optional stages
// (synthesis, diagnostic cache, HTTP service) to run.
type Config struct {
	RootModule  string    `yaml:"root_module"`
	SearchPaths []string  `yaml:"search_paths,omitempty"`
	Synthesize  bool      `yaml:"synthesize"`
	CacheDSN    string    `yaml:"cache_dsn,omitempty"`
	API         APIConfig `yaml:"api,omitempty"`
}

// Load reads and parses a config file. Unlike the in-memory elaboration
// invariants, a malformed config is a user input-boundary problem, so this
// returns an error rather than panicking.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("velabcfg: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("velabcfg: parsing %s: %w", path, err)
	}
	if cfg.API.Enabled && cfg.API.Addr == "" {
		cfg.API.Addr = ":8080"
	}
	return &cfg, nil
}
