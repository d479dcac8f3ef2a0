package llmcall

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewCall(t *testing.T) {
	started := time.Now().Add(-50 * time.Millisecond)
	opts := RecordOptions{RunID: "run-1", PromptKey: "shots.generate", Category: "claude", Model: "claude-sonnet-4-5"}

	ok := NewCall(opts, started, `{"shots":[]}`, nil)
	if !ok.Success || ok.Error != "" {
		t.Errorf("success call = %+v", ok)
	}
	if ok.LatencyMs < 50 {
		t.Errorf("LatencyMs = %d, want >= 50", ok.LatencyMs)
	}
	if ok.ID == "" {
		t.Error("expected ID")
	}

	failed := NewCall(opts, started, "", errors.New("timeout"))
	if failed.Success || failed.Error != "timeout" {
		t.Errorf("failed call = %+v", failed)
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	calls := []*Call{
		{ID: "a", Timestamp: base, RunID: "r1", PromptKey: "split.sections", Category: "claude", Model: "m", Success: true},
		{ID: "b", Timestamp: base.Add(time.Minute), RunID: "r1", PromptKey: "shots.generate", Category: "claude", Model: "m", Response: "{}", Success: true},
		{ID: "c", Timestamp: base.Add(2 * time.Minute), RunID: "r1", PromptKey: "shots.generate", Category: "claude", Model: "m", Success: false, Error: "boom"},
		{ID: "d", Timestamp: base.Add(3 * time.Minute), RunID: "r2", PromptKey: "shots.generate", Category: "gemini", Model: "g", Success: true},
	}
	for _, c := range calls {
		if err := s.Insert(ctx, c); err != nil {
			t.Fatalf("Insert(%s) error = %v", c.ID, err)
		}
	}

	t.Run("get", func(t *testing.T) {
		c, err := s.Get(ctx, "c")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if c == nil || c.Error != "boom" || c.Success {
			t.Errorf("Get() = %+v", c)
		}
		missing, err := s.Get(ctx, "zzz")
		if err != nil || missing != nil {
			t.Errorf("Get(missing) = %v, %v", missing, err)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		got, err := s.List(ctx, QueryFilter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 4 || got[0].ID != "d" || got[3].ID != "a" {
			t.Errorf("List() order = %v", ids(got))
		}
	})

	t.Run("filters", func(t *testing.T) {
		failed := false
		got, err := s.List(ctx, QueryFilter{RunID: "r1", Success: &failed})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "c" {
			t.Errorf("List(failed r1) = %v", ids(got))
		}

		got, err = s.List(ctx, QueryFilter{Category: "gemini"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 || got[0].ID != "d" {
			t.Errorf("List(gemini) = %v", ids(got))
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := s.List(ctx, QueryFilter{Limit: 2, Offset: 1})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
			t.Errorf("List(limit) = %v", ids(got))
		}
	})

	t.Run("count by prompt key", func(t *testing.T) {
		counts, err := s.CountByPromptKey(ctx, "r1")
		if err != nil {
			t.Fatalf("CountByPromptKey() error = %v", err)
		}
		if counts["shots.generate"] != 2 || counts["split.sections"] != 1 {
			t.Errorf("counts = %v", counts)
		}
	})
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	r := NewRecorder(s, nil)
	for i := 0; i < 10; i++ {
		r.RecordCall(NewCall(RecordOptions{RunID: "run", PromptKey: "k"}, time.Now(), "", nil))
	}
	r.Close()
	r.Close()

	got, err := s.List(ctx, QueryFilter{RunID: "run"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 10 {
		t.Errorf("recorded %d calls, want 10", len(got))
	}

	var nilRecorder *Recorder
	nilRecorder.RecordCall(&Call{ID: "x"})
	nilRecorder.Close()
}

func ids(calls []Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.ID
	}
	return out
}
