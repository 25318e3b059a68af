package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kestreldb/kestrel/internal/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"zero threads", func(c *Config) { c.Threads = 0 }, true},
		{"negative timeout", func(c *Config) { c.TimeoutMS = -1 }, true},
		{"zero max depth", func(c *Config) { c.VarLengthExtendMaxDepth = 0 }, true},
		{"zero pattern factor", func(c *Config) { c.RecursivePatternFactor = 0 }, true},
		{"bad semantic", func(c *Config) { c.RecursivePatternSemantic = "cyclic" }, true},
		{"trail semantic", func(c *Config) { c.RecursivePatternSemantic = SemanticTrail }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsError(err, errors.ConfigError) {
				t.Errorf("expected ConfigError code, got %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planner.yaml")
	content := []byte("threads: 4\ntimeout: 5000\nrecursive_pattern_semantic: acyclic\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Threads != 4 {
		t.Errorf("Threads = %d, want 4", cfg.Threads)
	}
	if cfg.TimeoutMS != 5000 {
		t.Errorf("TimeoutMS = %d, want 5000", cfg.TimeoutMS)
	}
	if cfg.RecursivePatternSemantic != SemanticAcyclic {
		t.Errorf("RecursivePatternSemantic = %q, want acyclic", cfg.RecursivePatternSemantic)
	}
	// Unset fields keep defaults.
	if cfg.VarLengthExtendMaxDepth != 30 {
		t.Errorf("VarLengthExtendMaxDepth = %d, want default 30", cfg.VarLengthExtendMaxDepth)
	}
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planner.yaml")
	if err := os.WriteFile(path, []byte("threads: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected validation error")
	}
}
