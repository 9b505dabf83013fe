package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by LoadLocal and LoadGlobal when no file exists.
var ErrNotFound = errors.New("config not found")

// LocalNames are the repo-local config file names, in lookup order.
var LocalNames = []string{".keyleak.yml", ".keyleak.yaml", "keyleak.yml", "keyleak.yaml"}

// FileConfig is the on-disk YAML configuration shape for keyleak. Pointer
// fields distinguish "unset" from zero values so layers can be merged.
type FileConfig struct {
	// Rule is the path of a rule file; empty means auto-detect.
	Rule    *string `yaml:"rule,omitempty"`
	Disable *string `yaml:"disable,omitempty"`

	ExcludeDirs       *string `yaml:"exclude_dirs,omitempty"`
	NoDefaultExcludes *bool   `yaml:"no_default_excludes,omitempty"`
	MaxBytes          *int64  `yaml:"max_bytes,omitempty"`
	IncludeName       *string `yaml:"include_name,omitempty"`
	ExcludeName       *string `yaml:"exclude_name,omitempty"`
	IncludeExt        *string `yaml:"include_ext,omitempty"`
	ExcludeExt        *string `yaml:"exclude_ext,omitempty"`
	Include           *string `yaml:"include,omitempty"`
	Exclude           *string `yaml:"exclude,omitempty"`
	NoIgnoreFile      *bool   `yaml:"no_ignore_file,omitempty"`

	Threads     *int    `yaml:"threads,omitempty"`
	Format      *string `yaml:"format,omitempty"`
	NoColor     *bool   `yaml:"no_color,omitempty"`
	LogLevel    *string `yaml:"log_level,omitempty"`
	MetricsFile *string `yaml:"metrics_file,omitempty"`
	Baseline    *string `yaml:"baseline,omitempty"`
	AuditLog    *string `yaml:"audit_log,omitempty"`
}

// LoadFile reads a YAML config file from the provided path. Unknown keys
// are rejected so typos surface instead of being silently ignored.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
func LoadLocal(repoRoot string) (FileConfig, error) {
	for _, name := range LocalNames {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, ErrNotFound
}

// GlobalPath returns $XDG_CONFIG_HOME/keyleak/config.yml, falling back to
// ~/.config. It is empty when neither can be determined.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "keyleak", "config.yml")
}

// LoadGlobal loads the global config file.
func LoadGlobal() (FileConfig, error) {
	p := GlobalPath()
	if p == "" {
		return FileConfig{}, ErrNotFound
	}
	if _, err := os.Stat(p); err != nil {
		return FileConfig{}, ErrNotFound
	}
	return LoadFile(p)
}
