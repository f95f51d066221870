package velabcfg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "velab.yaml")
	doc := `
root_module: top
search_paths: [rtl, lib]
synthesize: true
cache_dsn: file:velab.db
api:
  enabled: true
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RootModule != "top" {
		t.Fatalf("root module = %q, want top", cfg.RootModule)
	}
	if len(cfg.SearchPaths) != 2 {
		t.Fatalf("search paths = %v", cfg.SearchPaths)
	}
	if !cfg.Synthesize {
		t.Fatalf("synthesize flag not set")
	}
	if cfg.API.Addr != ":8080" {
		t.Fatalf("enabled api did not default its addr, got %q", cfg.API.Addr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does/not/exist.yaml"); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte(": not yaml : ["), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for malformed yaml")
	}
}
