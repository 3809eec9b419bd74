package run

import (
	"context"
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/alloc"
	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/executor"
	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/runner"
	"github.com/opensearch-project/osbenchmark-go/internal/transport"
)

// TestDistributedSplitMatchesSingleProcessRun drives the same
// two-step schedule through RunCoordinatorSide (one process) and two
// RunClient calls (standing in for two separate worker processes),
// exercising the coordinator/worker split spec.md §1 names as distinct
// components, over the same InProcTransport used by Run's all-in-one
// mode.
func TestDistributedSplitMatchesSingleProcessRun(t *testing.T) {
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

	allocation := alloc.Allocate(tp.Schedule)
	signals := NewStepSignals(len(tp.Schedule))
	tr := transport.NewInProcTransport()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var aborted bool
	sub, err := RunCoordinatorSide(ctx, CoordinatorConfig{
		RunID:      "run-distributed",
		Transport:  tr,
		Allocation: allocation,
		Signals:    signals,
		OnAbort:    func() { aborted = true },
	})
	if err != nil {
		t.Fatalf("coordinator side: %v", err)
	}
	defer sub.Unsubscribe()

	registry := runner.NewRegistry()
	clients := map[string]clusterclient.Client{"default": clusterclient.NewFakeClient()}
	sharedStates := executor.NewSharedStates(allocation.NumClients)
	errQueue := executor.NewErrorQueue(8)

	errs := make(chan error, allocation.NumClients)
	for c := 0; c < allocation.NumClients; c++ {
		go func(clientID int) {
			errs <- RunClient(ctx, ClientConfig{
				RunID:        "run-distributed",
				Transport:    tr,
				ClientID:     clientID,
				Entries:      allocation.Allocations[clientID],
				Signals:      signals,
				Registry:     registry,
				Clients:      clients,
				SharedStates: sharedStates,
				Errors:       errQueue,
				OnError:      model.OnErrorContinue,
			})
		}(c)
	}

	for i := 0; i < allocation.NumClients; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("client error: %v", err)
		}
	}
	if aborted {
		t.Fatalf("coordinator side reported an abort")
	}
}
