package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// CreateSnapshotRunner triggers snapshot.create.
type CreateSnapshotRunner struct{}

func (CreateSnapshotRunner) OpType() string { return "create-snapshot" }

func (CreateSnapshotRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	repo, _ := params["repository"].(string)
	snapshot, _ := params["snapshot"].(string)
	body, _ := params["body"].(map[string]any)
	err := client.Snapshot().Create(ctx, repo, snapshot, body)
	return Result{Weight: 1, Unit: "ops", Success: err == nil}, err
}

// RestoreSnapshotRunner triggers snapshot.restore.
type RestoreSnapshotRunner struct{}

func (RestoreSnapshotRunner) OpType() string { return "restore-snapshot" }

func (RestoreSnapshotRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	repo, _ := params["repository"].(string)
	snapshot, _ := params["snapshot"].(string)
	body, _ := params["body"].(map[string]any)
	err := client.Snapshot().Restore(ctx, repo, snapshot, body)
	return Result{Weight: 1, Unit: "ops", Success: err == nil}, err
}

// WaitForSnapshotRunner polls snapshot status until SUCCESS/FAILED and
// computes throughput = bytes/duration, per §4.4.
type WaitForSnapshotRunner struct {
	completed bool
}

func (r *WaitForSnapshotRunner) OpType() string { return "wait-for-snapshot" }

func (r *WaitForSnapshotRunner) Completed() bool            { return r.completed }
func (r *WaitForSnapshotRunner) PercentCompleted() *float64 { return nil }

func (r *WaitForSnapshotRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	repo, _ := params["repository"].(string)
	snapshot, _ := params["snapshot"].(string)

	resp, err := client.Snapshot().Status(ctx, repo, snapshot)
	if err != nil {
		return Result{}, err
	}
	snapshots, _ := resp["snapshots"].([]any)
	if len(snapshots) == 0 {
		return Result{Weight: 1, Unit: "ops", Success: true}, nil
	}
	s, _ := snapshots[0].(map[string]any)
	state, _ := s["state"].(string)
	r.completed = state == "SUCCESS" || state == "FAILED"

	var throughput float64
	var override *float64
	if stats, ok := s["stats"].(map[string]any); ok {
		if durationMillis, ok := toFloat(stats["time_in_millis"]); ok && durationMillis > 0 {
			if total, ok := stats["total"].(map[string]any); ok {
				if totalBytes, ok2 := toFloat(total["size_in_bytes"]); ok2 {
					throughput = totalBytes / (durationMillis / 1000.0)
					override = &throughput
				}
			}
		}
	}
	return Result{
		Weight: 1, Unit: "ops", Success: state != "FAILED",
		ThroughputOverride: override, ThroughputUnit: "byte/s",
		Meta: map[string]any{"state": state},
	}, nil
}
