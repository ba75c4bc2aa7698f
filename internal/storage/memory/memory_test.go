package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStoreSaveAndLoad(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	if _, found, err := s.Load(ctx, "payments"); err != nil || found {
		t.Fatalf("unexpected load on empty store: found=%v err=%v", found, err)
	}

	buf := []byte(`[]`)
	if err := s.Save(ctx, "payments", buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	buf[0] = 'x'

	got, found, err := s.Load(ctx, "payments")
	if err != nil || !found || string(got) != "[]" {
		t.Fatalf("unexpected load: %q found=%v err=%v", got, found, err)
	}
	if s.Saves() != 1 {
		t.Fatalf("saves = %d", s.Saves())
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	// No files -> empty store
	s := NewFromFiles(dir)
	if _, found, _ := s.Load(context.Background(), "settings"); found {
		t.Fatalf("expected nothing when files missing")
	}

	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{"name":"Ana"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s = NewFromFiles(dir)
	got, found, _ := s.Load(context.Background(), "settings")
	if !found || string(got) != `{"name":"Ana"}` {
		t.Fatalf("unexpected seed: %q found=%v", got, found)
	}
	if _, found, _ := s.Load(context.Background(), "ignored"); found {
		t.Fatalf("unknown seed file loaded")
	}
}
