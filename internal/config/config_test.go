package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("Dimensions = %d, want 384", cfg.Embedding.Dimensions)
	}
	if cfg.Cache.MaxVectors != 10000 {
		t.Errorf("MaxVectors = %d, want 10000", cfg.Cache.MaxVectors)
	}
	if cfg.Search.DefaultThreshold != 0.15 {
		t.Errorf("DefaultThreshold = %v, want 0.15", cfg.Search.DefaultThreshold)
	}
	if cfg.Search.DefaultLimit != 5 {
		t.Errorf("DefaultLimit = %d, want 5", cfg.Search.DefaultLimit)
	}
}

func TestApplyDefaults_PreservesExplicit(t *testing.T) {
	cfg := Config{}
	cfg.Cache.MaxVectors = 42
	cfg.Search.DefaultThreshold = 0.3
	ApplyDefaults(&cfg)
	if cfg.Cache.MaxVectors != 42 {
		t.Errorf("MaxVectors overridden: %d", cfg.Cache.MaxVectors)
	}
	if cfg.Search.DefaultThreshold != 0.3 {
		t.Errorf("DefaultThreshold overridden: %v", cfg.Search.DefaultThreshold)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  port: 9090
storage:
  database_path: ./data/knowledge.db
embedding:
  dimensions: 1536
cache:
  max_vectors: 500
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("Dimensions = %d, want 1536", cfg.Embedding.Dimensions)
	}
	if cfg.Cache.MaxVectors != 500 {
		t.Errorf("MaxVectors = %d, want 500", cfg.Cache.MaxVectors)
	}
	want := filepath.Join(dir, "data/knowledge.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("DatabasePath = %s, want %s", cfg.Storage.DatabasePath, want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}
