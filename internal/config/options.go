package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options are the tunables of one engine instance. They are usually left
// at their defaults; the CLI can override them from a YAML file or flags.
type Options struct {
	// MaxRecursionDepth bounds nested poly-expression inference.
	// Zero means DefaultMaxRecursionDepth.
	MaxRecursionDepth int `yaml:"maxRecursionDepth,omitempty"`

	// Trace enables the human-readable trace observer.
	Trace bool `yaml:"trace,omitempty"`

	// Dump enables full value dumps in the trace output.
	// Only meaningful when Trace is set.
	Dump bool `yaml:"dump,omitempty"`
}

// DefaultOptions returns the options used when no file is given.
func DefaultOptions() Options {
	return Options{MaxRecursionDepth: DefaultMaxRecursionDepth}
}

// LoadOptions reads options from a YAML file, filling in defaults.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading options file: %w", err)
	}
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if opts.MaxRecursionDepth <= 0 {
		opts.MaxRecursionDepth = DefaultMaxRecursionDepth
	}
	return opts, nil
}
