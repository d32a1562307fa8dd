package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.MaxRecursionDepth != DefaultMaxRecursionDepth {
		t.Errorf("MaxRecursionDepth = %d, want %d", opts.MaxRecursionDepth, DefaultMaxRecursionDepth)
	}
	if opts.Trace || opts.Dump {
		t.Error("tracing must be off by default")
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yml")
	if err := os.WriteFile(path, []byte("maxRecursionDepth: 7\ntrace: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts.MaxRecursionDepth != 7 {
		t.Errorf("MaxRecursionDepth = %d, want 7", opts.MaxRecursionDepth)
	}
	if !opts.Trace {
		t.Error("Trace not read from the file")
	}
	if opts.Dump {
		t.Error("Dump should stay at its default")
	}
}

func TestLoadOptionsFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yml")
	if err := os.WriteFile(path, []byte("trace: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts.MaxRecursionDepth != DefaultMaxRecursionDepth {
		t.Errorf("missing depth should default, got %d", opts.MaxRecursionDepth)
	}
}

func TestLoadOptionsMissingFile(t *testing.T) {
	if _, err := LoadOptions(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("want an error for a missing file")
	}
}
