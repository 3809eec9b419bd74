package runner

import (
	"context"
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

func TestCompositeRunsParallelSleepsConcurrentlyWithDependentTimings(t *testing.T) {
	reg := &Registry{runners: map[string]Runner{}}
	reg.Register("sleep", SleepRunner{}, nil)
	comp := NewCompositeRunner(reg)

	clients := map[string]clusterclient.Client{"default": clusterclient.NewFakeClient()}
	params := map[string]any{
		"max-connections": 4,
		"requests": []compositeEntry{
			{Stream: []compositeEntry{
				{OperationType: "sleep", Params: map[string]any{"duration": 0.2}},
				{OperationType: "sleep", Params: map[string]any{"duration": 0.2}},
			}},
		},
	}

	start := time.Now()
	res, err := comp.Run(context.Background(), clients, params)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("composite run: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected overall success")
	}
	if elapsed > 350*time.Millisecond {
		t.Fatalf("expected parallel sleeps to overlap (~0.2s), took %v", elapsed)
	}
	if len(res.DependentTimings) != 2 {
		t.Fatalf("expected 2 dependent_timing entries, got %d", len(res.DependentTimings))
	}
}

func TestCompositeRejectsNonWhitelistedOperationType(t *testing.T) {
	reg := &Registry{runners: map[string]Runner{}}
	comp := NewCompositeRunner(reg)

	clients := map[string]clusterclient.Client{"default": clusterclient.NewFakeClient()}
	params := map[string]any{
		"requests": []compositeEntry{
			{OperationType: "bulk"},
		},
	}

	_, err := comp.Run(context.Background(), clients, params)
	if err == nil {
		t.Fatalf("expected composite to reject a non-whitelisted inner operation type")
	}
}
