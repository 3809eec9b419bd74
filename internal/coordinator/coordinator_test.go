package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/model"
)

type recordingBroadcaster struct {
	mu           sync.Mutex
	completeSent int
	drives       []time.Time
}

func (b *recordingBroadcaster) CompleteCurrentTask(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completeSent++
	return nil
}

func (b *recordingBroadcaster) DriveAt(ctx context.Context, nextStepStart time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drives = append(b.drives, nextStepStart)
	return nil
}

func TestCurrentStepAdvancesOnlyAfterAllWorkersArrive(t *testing.T) {
	b := &recordingBroadcaster{}
	var finished int
	c := New(3, b, func(ctx context.Context, jp *model.JoinPoint) error {
		finished++
		return nil
	})
	jp := &model.JoinPoint{ID: 1}

	for i, worker := range []string{"w0", "w1"} {
		if err := c.JoinPointReached(context.Background(), jp, Arrival{WorkerID: worker}, time.Now()); err != nil {
			t.Fatalf("arrival %d: %v", i, err)
		}
		if c.CurrentStep() != 0 {
			t.Fatalf("step advanced before every worker arrived")
		}
	}

	if err := c.JoinPointReached(context.Background(), jp, Arrival{WorkerID: "w2"}, time.Now()); err != nil {
		t.Fatalf("final arrival: %v", err)
	}
	if c.CurrentStep() != 1 {
		t.Fatalf("expected current_step=1 after all workers arrived, got %d", c.CurrentStep())
	}
	if finished != 1 {
		t.Fatalf("expected on_task_finished to fire exactly once, got %d", finished)
	}
	if len(b.drives) != 1 {
		t.Fatalf("expected exactly one drive_at broadcast, got %d", len(b.drives))
	}
}

func TestCompleteCurrentTaskSentOnceOnFirstArrivalAtCompletingJoinPoint(t *testing.T) {
	b := &recordingBroadcaster{}
	c := New(2, b, func(context.Context, *model.JoinPoint) error { return nil })
	jp := &model.JoinPoint{ID: 1, PrecedingTaskCompletesParent: true}

	_ = c.JoinPointReached(context.Background(), jp, Arrival{WorkerID: "w0"}, time.Now())
	_ = c.JoinPointReached(context.Background(), jp, Arrival{WorkerID: "w1"}, time.Now())

	if b.completeSent != 1 {
		t.Fatalf("expected complete_current_task exactly once, got %d", b.completeSent)
	}
}

func TestCurrentStepIsMonotone(t *testing.T) {
	b := &recordingBroadcaster{}
	c := New(1, b, func(context.Context, *model.JoinPoint) error { return nil })
	jp := &model.JoinPoint{ID: 1}

	prev := c.CurrentStep()
	for i := 0; i < 5; i++ {
		if err := c.JoinPointReached(context.Background(), jp, Arrival{WorkerID: "w0"}, time.Now()); err != nil {
			t.Fatalf("arrival %d: %v", i, err)
		}
		next := c.CurrentStep()
		if next < prev {
			t.Fatalf("current_step went backwards: %d -> %d", prev, next)
		}
		prev = next
	}
}
