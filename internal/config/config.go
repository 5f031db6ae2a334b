package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape. Fields are pointers
// so "unset" is distinguishable from a zero value; precedence is
// CLI > local > global.
type FileConfig struct {
	Include         *string `yaml:"include,omitempty"`
	Exclude         *string `yaml:"exclude,omitempty"`
	MaxBytes        *int64  `yaml:"max_bytes,omitempty"`
	Threads         *int    `yaml:"threads,omitempty"`
	DefaultExcludes *bool   `yaml:"default_excludes,omitempty"`
	NoCache         *bool   `yaml:"no_cache,omitempty"`
	Timeout         *string `yaml:"timeout,omitempty"`

	// suppression and dependency-analysis inputs
	Suppressions *string `yaml:"suppressions,omitempty"`
	Baseline     *string `yaml:"baseline,omitempty"`
	Denylist     *string `yaml:"denylist,omitempty"`
	ReleaseMeta  *string `yaml:"release_metadata,omitempty"`
	StaleDays    *int    `yaml:"stale_days,omitempty"`

	// exit-status escalation; empty disables it (the default)
	FailOn *string `yaml:"fail_on,omitempty"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".mobaudit.yml", ".mobaudit.yaml", "mobaudit.yml", "mobaudit.yaml"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "mobaudit", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}
