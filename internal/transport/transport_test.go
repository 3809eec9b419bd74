package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/coordinator"
	"github.com/opensearch-project/osbenchmark-go/internal/model"
)

func TestInProcRendezvousAdvancesAfterAllWorkersReport(t *testing.T) {
	tr := NewInProcTransport()
	runID := "run-1"

	var mu sync.Mutex
	var drives []time.Time
	var completes int
	_, err := tr.SubscribeDriveAt(runID, func(ts time.Time) {
		mu.Lock()
		defer mu.Unlock()
		drives = append(drives, ts)
	})
	if err != nil {
		t.Fatalf("subscribe drive: %v", err)
	}
	_, err = tr.SubscribeCompleteCurrentTask(runID, func() {
		mu.Lock()
		defer mu.Unlock()
		completes++
	})
	if err != nil {
		t.Fatalf("subscribe complete: %v", err)
	}

	broadcaster := CoordinatorBroadcaster{Transport: tr, RunID: runID}
	var finished int
	c := coordinator.New(2, broadcaster, func(ctx context.Context, jp *model.JoinPoint) error {
		finished++
		return nil
	})

	jp := &model.JoinPoint{ID: 1, PrecedingTaskCompletesParent: true}
	nextStep := time.Now().Add(time.Second)

	_, err = tr.SubscribeJoinPointReached(runID, func(a Arrival) {
		if err := c.JoinPointReached(context.Background(), jp, coordinator.Arrival{WorkerID: a.WorkerID, Timestamp: a.Timestamp}, nextStep); err != nil {
			t.Errorf("joinpoint reached: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("subscribe joinpoint: %v", err)
	}

	w0 := NewWorkerLink(tr, runID, "w0")
	w1 := NewWorkerLink(tr, runID, "w1")

	if err := w0.ReportJoinPointReached(context.Background(), jp.ID, time.Now()); err != nil {
		t.Fatalf("w0 report: %v", err)
	}
	if c.CurrentStep() != 0 {
		t.Fatalf("step advanced before every worker arrived")
	}
	if err := w1.ReportJoinPointReached(context.Background(), jp.ID, time.Now()); err != nil {
		t.Fatalf("w1 report: %v", err)
	}

	if c.CurrentStep() != 1 {
		t.Fatalf("expected current_step=1, got %d", c.CurrentStep())
	}
	mu.Lock()
	defer mu.Unlock()
	if finished != 1 {
		t.Fatalf("expected on_task_finished exactly once, got %d", finished)
	}
	if len(drives) != 1 {
		t.Fatalf("expected one drive_at broadcast, got %d", len(drives))
	}
	if completes != 1 {
		t.Fatalf("expected complete_current_task exactly once, got %d", completes)
	}
}
