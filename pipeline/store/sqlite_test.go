package store

import (
	"context"
	"errors"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates empty record", func(t *testing.T) {
		s := newTestSQLiteStore(t)

		rec, err := s.GetOrCreate(ctx, "owner-1")
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}

		if rec.ID == "" {
			t.Error("expected generated record ID")
		}
		if rec.Flags != (Flags{}) {
			t.Errorf("new record has set flags: %+v", rec.Flags)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		s := newTestSQLiteStore(t)

		first, _ := s.GetOrCreate(ctx, "owner-1")
		second, err := s.GetOrCreate(ctx, "owner-1")
		if err != nil {
			t.Fatalf("second GetOrCreate failed: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("duplicate record created: %s != %s", second.ID, first.ID)
		}
	})
}

func TestSQLiteStore_CommitStage(t *testing.T) {
	ctx := context.Background()

	t.Run("artifact and flag persist together", func(t *testing.T) {
		s := newTestSQLiteStore(t)
		_, _ = s.GetOrCreate(ctx, "owner-1")

		if err := s.CommitStage(ctx, "owner-1", StageJobDescribe, "job text"); err != nil {
			t.Fatalf("CommitStage failed: %v", err)
		}

		rec, err := s.Get(ctx, "owner-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !rec.Flags.JobDescribed {
			t.Error("flag not set after commit")
		}
		if rec.Artifacts.JobDescription != "job text" {
			t.Errorf("artifact = %q, want %q", rec.Artifacts.JobDescription, "job text")
		}
	})

	t.Run("commit clears error message", func(t *testing.T) {
		s := newTestSQLiteStore(t)
		_, _ = s.GetOrCreate(ctx, "owner-1")

		_ = s.SetError(ctx, "owner-1", "boom")
		_ = s.CommitStage(ctx, "owner-1", StageParse, "text")

		rec, _ := s.Get(ctx, "owner-1")
		if rec.ErrorMessage != "" {
			t.Errorf("error message not cleared: %q", rec.ErrorMessage)
		}
	})

	t.Run("unknown stage rejected", func(t *testing.T) {
		s := newTestSQLiteStore(t)
		_, _ = s.GetOrCreate(ctx, "owner-1")

		if err := s.CommitStage(ctx, "owner-1", Stage("bogus"), "x"); err == nil {
			t.Error("expected error for unknown stage")
		}
	})

	t.Run("missing owner returns ErrNotFound", func(t *testing.T) {
		s := newTestSQLiteStore(t)

		err := s.CommitStage(ctx, "nobody", StageParse, "text")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("missing owner returns ErrNotFound", func(t *testing.T) {
		s := newTestSQLiteStore(t)

		_, err := s.Get(ctx, "nobody")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("round-trips full record", func(t *testing.T) {
		s := newTestSQLiteStore(t)
		_, _ = s.GetOrCreate(ctx, "owner-1")

		for _, stage := range Stages() {
			if err := s.CommitStage(ctx, "owner-1", stage, "payload-"+string(stage)); err != nil {
				t.Fatalf("CommitStage(%s) failed: %v", stage, err)
			}
		}

		rec, err := s.Get(ctx, "owner-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if rec.Status() != StatusRendered {
			t.Errorf("Status = %s, want %s", rec.Status(), StatusRendered)
		}
		for _, stage := range Stages() {
			if got := rec.Artifacts.For(stage); got != "payload-"+string(stage) {
				t.Errorf("artifact for %s = %q", stage, got)
			}
		}
	})
}

func TestSQLiteStore_Close(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Second close is a no-op.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if _, err := s.Get(context.Background(), "owner-1"); err == nil {
		t.Error("expected error after Close")
	}
}
