package run

import (
	"context"
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/runner"
	"github.com/opensearch-project/osbenchmark-go/internal/store"
)

func TestRunDrivesTwoStepSchedulePastBothJoinPoints(t *testing.T) {
	stepOne := &model.Task{
		Name:       "warm",
		Operation:  &model.Operation{Name: "warm", Type: "sleep"},
		Clients:    2,
		Iterations: 1,
		Params:     map[string]any{"duration": 0.0},
	}
	stepTwo := &model.Task{
		Name:       "measure",
		Operation:  &model.Operation{Name: "measure", Type: "sleep"},
		Clients:    2,
		Iterations: 1,
		Params:     map[string]any{"duration": 0.0},
	}
	tp := &model.TestProcedure{
		Name: "smoke",
		Schedule: []*model.ScheduleNode{
			{Task: stepOne},
			{Task: stepTwo},
		},
	}

	mem := store.NewMemoryStore()
	clients := map[string]clusterclient.Client{"default": clusterclient.NewFakeClient()}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := Run(ctx, Config{
		RunID:            "run-smoke",
		TestProcedure:    tp,
		Registry:         runner.NewRegistry(),
		Clients:          clients,
		Store:            mem,
		DownsampleFactor: 1,
		GlobalOnError:    model.OnErrorContinue,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.NumClients != 2 {
		t.Fatalf("expected 2 clients, got %d", res.NumClients)
	}
	if res.SamplesTaken == 0 {
		t.Fatalf("expected at least one sample recorded")
	}
	if len(mem.Records()) == 0 {
		t.Fatalf("expected postprocessed records in the store")
	}
}
