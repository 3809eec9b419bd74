package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/paramsource"
	"github.com/opensearch-project/osbenchmark-go/internal/runner"
)

type nopRunner struct{}

func (nopRunner) OpType() string { return "noop" }

func (nopRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (runner.Result, error) {
	return runner.Result{Success: true}, nil
}

func TestDeterministicScheduleMatchesExpectedTimeline(t *testing.T) {
	task := &model.Task{
		Name:             "t",
		Operation:        &model.Operation{Name: "op", Type: "noop"},
		Clients:          1,
		WarmupIterations: 3,
		Iterations:       5,
	}
	records := make([]map[string]any, 8)
	for i := range records {
		records[i] = map[string]any{}
	}
	src := paramsource.NewStatic(records, false)
	sched := NewDeterministic(10, 1)
	h := New(task, src, sched, nopRunner{}, 0, 1)
	h.Start()

	wantTimes := []time.Duration{
		0, 100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond,
		400 * time.Millisecond, 500 * time.Millisecond, 600 * time.Millisecond, 700 * time.Millisecond,
	}
	wantTypes := []model.SampleType{
		model.Warmup, model.Warmup, model.Warmup,
		model.Normal, model.Normal, model.Normal, model.Normal, model.Normal,
	}

	for i, wantTime := range wantTimes {
		elem, ok, err := h.Next()
		if err != nil {
			t.Fatalf("element %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("element %d: expected more elements", i)
		}
		if elem.ExpectedScheduledTime != wantTime {
			t.Fatalf("element %d: expected time %v, got %v", i, wantTime, elem.ExpectedScheduledTime)
		}
		if elem.SampleType != wantTypes[i] {
			t.Fatalf("element %d: expected %v, got %v", i, wantTypes[i], elem.SampleType)
		}
	}

	if _, ok, err := h.Next(); err != nil || ok {
		t.Fatalf("expected stream exhausted after %d/%d iterations, ok=%v err=%v", task.WarmupIterations+task.Iterations, task.WarmupIterations+task.Iterations, ok, err)
	}
}

func TestUnthrottledFiresImmediately(t *testing.T) {
	s := &Unthrottled{}
	cur := s.Next(0)
	if cur != 0 {
		t.Fatalf("expected unthrottled next to stay at 0, got %v", cur)
	}
}
