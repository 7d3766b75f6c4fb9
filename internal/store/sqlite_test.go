package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	dir := t.TempDir()
	b, err := NewSQLiteBackend(filepath.Join(dir, "nested", "test.db"))
	if err != nil {
		t.Fatalf("create backend: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSQLiteReadMissing(t *testing.T) {
	b := newTestSQLite(t)
	_, err := b.Read(context.Background(), "alice")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestSQLiteVersioning(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLite(t)

	if err := b.Write(ctx, "alice", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("write v1: %v", err)
	}
	if err := b.Write(ctx, "alice", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("write v2: %v", err)
	}

	got, err := b.Read(ctx, "alice")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("expected latest version, got %s", got)
	}

	hist, err := b.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(hist))
	}
	if hist[0].Version != 2 || hist[1].Version != 1 {
		t.Errorf("expected newest first, got %d then %d", hist[0].Version, hist[1].Version)
	}
	if hist[0].ID == "" || hist[0].ID == hist[1].ID {
		t.Errorf("expected distinct row ids, got %q and %q", hist[0].ID, hist[1].ID)
	}

	old, err := b.ReadVersion(ctx, "alice", 1)
	if err != nil {
		t.Fatalf("read version: %v", err)
	}
	if string(old) != `{"v":1}` {
		t.Errorf("expected v1 body, got %s", old)
	}
}

func TestSQLiteIdentitiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLite(t)

	b.Write(ctx, "alice", []byte("a"))
	b.Write(ctx, "bob", []byte("b1"))
	b.Write(ctx, "bob", []byte("b2"))

	ids, err := b.Identities(ctx)
	if err != nil {
		t.Fatalf("identities: %v", err)
	}
	if len(ids) != 2 || ids[0] != "alice" || ids[1] != "bob" {
		t.Errorf("expected [alice bob], got %v", ids)
	}

	hist, _ := b.History(ctx, "alice")
	if len(hist) != 1 {
		t.Errorf("expected 1 version for alice, got %d", len(hist))
	}
}

func TestSQLiteRemove(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLite(t)

	b.Write(ctx, "alice", []byte("a1"))
	b.Write(ctx, "alice", []byte("a2"))
	if err := b.Remove(ctx, "alice"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := b.Read(ctx, "alice"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist after remove, got %v", err)
	}
	if err := b.Remove(ctx, "alice"); err != nil {
		t.Errorf("removing twice should not fail: %v", err)
	}

	// versions restart after a reset
	b.Write(ctx, "alice", []byte("fresh"))
	hist, _ := b.History(ctx, "alice")
	if len(hist) != 1 || hist[0].Version != 1 {
		t.Errorf("expected a single version 1, got %+v", hist)
	}
}

func TestSQLiteRejectsInvalidIdentity(t *testing.T) {
	b := newTestSQLite(t)
	err := b.Write(context.Background(), "", []byte("x"))
	if !errors.Is(err, ErrInvalidIdentity) {
		t.Errorf("expected ErrInvalidIdentity, got %v", err)
	}
}

func TestSQLiteStoreLoadMaterializes(t *testing.T) {
	ctx := context.Background()
	b := newTestSQLite(t)
	s := New(b, WithClock(fixedClock))

	res := s.Load(ctx, "alice")
	if !res.Recovered {
		t.Error("expected first load to report recovery")
	}

	hist, err := b.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected materialized version, got %d", len(hist))
	}

	again := s.Load(ctx, "alice")
	if again.Recovered {
		t.Errorf("expected stable second load, got cause %v", again.Cause)
	}
}
