package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestLedger(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWatermark_AbsentCursorReportsFirstRun(t *testing.T) {
	store := openTestLedger(t)
	w := NewWatermarkStore(store)

	_, ok, err := w.Get(context.Background(), "voice_last_poll")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for an absent cursor")
	}
}

func TestWatermark_PutThenGetRoundTrips(t *testing.T) {
	store := openTestLedger(t)
	w := NewWatermarkStore(store)
	ctx := context.Background()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := w.Put(ctx, "voice_last_poll", &fixed); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := w.Get(ctx, "voice_last_poll")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after a put")
	}
	if !got.Equal(fixed) {
		t.Errorf("expected %v, got %v", fixed, got)
	}
}

func TestWatermark_MonotonicUpsert(t *testing.T) {
	store := openTestLedger(t)
	w := NewWatermarkStore(store)
	ctx := context.Background()

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	if err := w.Put(ctx, "voice_last_poll", &first); err != nil {
		t.Fatalf("put 1: %v", err)
	}
	if err := w.Put(ctx, "voice_last_poll", &second); err != nil {
		t.Fatalf("put 2: %v", err)
	}

	got, _, err := w.Get(ctx, "voice_last_poll")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Equal(second) {
		t.Errorf("expected the later cursor %v to win, got %v", second, got)
	}
}

func TestCaptureStager_StageIsIdempotentUnderUniqueConstraint(t *testing.T) {
	store := openTestLedger(t)
	stager := NewCaptureStager(store)
	ctx := context.Background()

	id, err := stager.Stage(ctx, "/voice/memo1.m4a", "fp-abc")
	if err != nil {
		t.Fatalf("first stage: %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty capture id")
	}

	staged, err := stager.IsStaged(ctx, "voice", "/voice/memo1.m4a")
	if err != nil {
		t.Fatalf("is staged: %v", err)
	}
	if !staged {
		t.Fatal("expected IsStaged to report true after Stage")
	}

	_, err = stager.Stage(ctx, "/voice/memo1.m4a", "fp-abc")
	if err == nil {
		t.Fatal("expected the second stage of the same path to fail")
	}
}

func TestCaptureStager_DistinctPathsBothStage(t *testing.T) {
	store := openTestLedger(t)
	stager := NewCaptureStager(store)
	ctx := context.Background()

	if _, err := stager.Stage(ctx, "/voice/a.m4a", "fp-a"); err != nil {
		t.Fatalf("stage a: %v", err)
	}
	if _, err := stager.Stage(ctx, "/voice/b.m4a", "fp-b"); err != nil {
		t.Fatalf("stage b: %v", err)
	}

	var count int
	found, err := store.QueryOne(ctx, func(r Row) error {
		return r.Scan(&count)
	}, `SELECT COUNT(*) FROM captures`)
	if err != nil || !found {
		t.Fatalf("count query: found=%v err=%v", found, err)
	}
	if count != 2 {
		t.Errorf("expected 2 rows, got %d", count)
	}
}
