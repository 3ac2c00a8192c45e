package badgerstore

import (
	"context"
	"errors"
	"testing"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	t.Parallel()
	s := openTest(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Get missing: err = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "u_1_aurahealth_daily_logs", []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "u_1_aurahealth_daily_logs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("Get = %q, want []", got)
	}

	if err := s.Delete(ctx, "u_1_aurahealth_daily_logs"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "u_1_aurahealth_daily_logs"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("Get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestKeysPrefixScan(t *testing.T) {
	t.Parallel()
	s := openTest(t)
	ctx := context.Background()

	seed := map[string]string{
		"u_1_aurahealth_daily_logs": `[]`,
		"u_1_aurahealth_sync_queue": `[]`,
		"u_2_aurahealth_daily_logs": `[]`,
	}
	for k, v := range seed {
		if err := s.Set(ctx, k, []byte(v)); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	keys, err := s.Keys(ctx, "u_1_")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Keys(u_1_) = %v, want 2 entries", keys)
	}
	for _, k := range keys {
		if k != "u_1_aurahealth_daily_logs" && k != "u_1_aurahealth_sync_queue" {
			t.Fatalf("unexpected key %s", k)
		}
	}
}

func TestPersistentOpenRejectsEmptyPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{}, nil); err == nil {
		t.Fatalf("Open with empty path must fail")
	}
}

func TestPersistentRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()

	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0
	s, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(ctx, "aurahealth_users_registry", []byte(`[{"id":"u1"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.Get(ctx, "aurahealth_users_registry")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `[{"id":"u1"}]` {
		t.Fatalf("Get after reopen = %q", got)
	}
}
