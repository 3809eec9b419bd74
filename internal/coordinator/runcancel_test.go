package coordinator

import (
	"context"
	"testing"
	"time"
)

func TestCancelStopsRunningRunAndRejectsDoubleCancel(t *testing.T) {
	rt := NewRunTracker()
	ctx, cancel := context.WithCancel(context.Background())
	rt.Register("run-1", "geonames", cancel)

	if err := rt.Cancel(context.Background(), "run-1", "operator abort"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatalf("expected run context to be cancelled")
	}

	status, ok := rt.Status("run-1")
	if !ok || status != RunCancelled {
		t.Fatalf("expected status cancelled, got %v (ok=%v)", status, ok)
	}

	if err := rt.Cancel(context.Background(), "run-1", "again"); err == nil {
		t.Fatalf("expected second cancel to fail")
	}
}

func TestCancelUnknownRunReturnsError(t *testing.T) {
	rt := NewRunTracker()
	if err := rt.Cancel(context.Background(), "missing", "x"); err == nil {
		t.Fatalf("expected error for unknown run")
	}
}

func TestListActiveExcludesCompletedRuns(t *testing.T) {
	rt := NewRunTracker()
	_, cancelA := context.WithCancel(context.Background())
	_, cancelB := context.WithCancel(context.Background())
	rt.Register("a", "w1", cancelA)
	rt.Register("b", "w2", cancelB)
	rt.Complete("a", RunCompleted)

	active := rt.ListActive()
	if len(active) != 1 || active[0].RunID != "b" {
		t.Fatalf("expected only run b active, got %+v", active)
	}
}

func TestCleanupRemovesOldTerminalRuns(t *testing.T) {
	rt := NewRunTracker()
	_, cancel := context.WithCancel(context.Background())
	rt.Register("a", "w1", cancel)
	rt.Complete("a", RunCompleted)
	rt.runs["a"].endedAt = time.Now().Add(-time.Hour)

	cleaned := rt.Cleanup(time.Minute)
	if cleaned != 1 {
		t.Fatalf("expected 1 cleaned, got %d", cleaned)
	}
	if _, ok := rt.Status("a"); ok {
		t.Fatalf("expected run a to be gone")
	}
}

func TestCancelAllStopsEveryRunningRun(t *testing.T) {
	rt := NewRunTracker()
	ctxA, cancelA := context.WithCancel(context.Background())
	ctxB, cancelB := context.WithCancel(context.Background())
	rt.Register("a", "w1", cancelA)
	rt.Register("b", "w2", cancelB)

	n := rt.CancelAll(context.Background(), "shutdown")
	if n != 2 {
		t.Fatalf("expected 2 cancelled, got %d", n)
	}
	for _, ctx := range []context.Context{ctxA, ctxB} {
		select {
		case <-ctx.Done():
		default:
			t.Fatalf("expected context cancelled")
		}
	}
}
