package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "velab.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, hit, err := store.Get("top", "abc"); err != nil || hit {
		t.Fatalf("unexpected hit on empty store: hit=%v err=%v", hit, err)
	}

	entry := Entry{
		RootModule: "top",
		SourceHash: "abc",
		Errors:     2,
		Issues:     5,
		Summary:    "5 issue(s), 2 error(s)",
	}
	if err := store.Put(entry); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, hit, err := store.Get("top", "abc")
	if err != nil || !hit {
		t.Fatalf("Get after Put: hit=%v err=%v", hit, err)
	}
	if got.Errors != 2 || got.Issues != 5 || got.Summary != entry.Summary {
		t.Fatalf("entry mismatch: %+v", got)
	}

	// Replacement keeps the key unique.
	entry.Errors = 0
	if err := store.Put(entry); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	got, _, _ = store.Get("top", "abc")
	if got.Errors != 0 {
		t.Fatalf("replace did not take: %+v", got)
	}
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, []byte("modules: []"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	h1, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	h2, _ := HashFile(path)
	if h1 != h2 {
		t.Fatalf("hash is not deterministic")
	}

	if err := os.WriteFile(path, []byte("modules: [x]"), 0o644); err != nil {
		t.Fatalf("rewriting fixture: %v", err)
	}
	h3, _ := HashFile(path)
	if h3 == h1 {
		t.Fatalf("hash did not change with content")
	}
}
