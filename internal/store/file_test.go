package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileBackendPath(t *testing.T) {
	b := NewFileBackend("/data")
	p, err := b.Path("alice")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if p != filepath.Join("/data", "memory_alice.json") {
		t.Errorf("unexpected path %q", p)
	}
	if _, err := b.Path("../alice"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}

func TestFileBackendWriteLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "a", "b")
	b := NewFileBackend(dir)

	for i := 0; i < 5; i++ {
		if err := b.Write(ctx, "alice", []byte("{}\n")); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 file, got %d", len(entries))
	}
	if name := entries[0].Name(); strings.HasSuffix(name, ".tmp") {
		t.Errorf("temp file left behind: %s", name)
	}

	info, _ := entries[0].Info()
	if info.Mode().Perm() != 0o644 {
		t.Errorf("expected mode 0644, got %v", info.Mode().Perm())
	}
}

func TestFileBackendWriteIntoExistingDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := NewFileBackend(dir)

	if err := b.Write(ctx, "alice", []byte("one")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := b.Write(ctx, "alice", []byte("two")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := b.Read(ctx, "alice")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("expected 'two', got %q", got)
	}
}

func TestFileBackendRemove(t *testing.T) {
	ctx := context.Background()
	b := NewFileBackend(t.TempDir())

	if err := b.Remove(ctx, "ghost"); err != nil {
		t.Errorf("removing a missing document should not fail: %v", err)
	}

	b.Write(ctx, "alice", []byte("x"))
	if err := b.Remove(ctx, "alice"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := b.Read(ctx, "alice"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}
