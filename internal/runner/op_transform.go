package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

type CreateTransformRunner struct{}

func (CreateTransformRunner) OpType() string { return "create-transform" }
func (CreateTransformRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	id, _ := params["transform_id"].(string)
	body, _ := params["body"].(map[string]any)
	err := client.Transform().PutTransform(ctx, id, body)
	return Result{Weight: 1, Unit: "ops", Success: err == nil}, err
}

type StartTransformRunner struct{}

func (StartTransformRunner) OpType() string { return "start-transform" }
func (StartTransformRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	id, _ := params["transform_id"].(string)
	err := client.Transform().StartTransform(ctx, id)
	return Result{Weight: 1, Unit: "ops", Success: err == nil}, err
}

type DeleteTransformRunner struct{}

func (DeleteTransformRunner) OpType() string { return "delete-transform" }
func (DeleteTransformRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	id, _ := params["transform_id"].(string)
	err := client.Transform().DeleteTransform(ctx, id)
	return Result{Weight: 1, Unit: "ops", Success: err == nil}, err
}

// WaitForTransformRunner polls stats until stopped/failed, surfacing
// completion and percent_completed from
// checkpointing.next.checkpoint_progress.percent_complete, per §4.4.
type WaitForTransformRunner struct {
	completed bool
	percent   *float64
}

func (r *WaitForTransformRunner) OpType() string { return "wait-for-transform" }

func (r *WaitForTransformRunner) Completed() bool            { return r.completed }
func (r *WaitForTransformRunner) PercentCompleted() *float64 { return r.percent }

func (r *WaitForTransformRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	id, _ := params["transform_id"].(string)

	resp, err := client.Transform().GetTransformStats(ctx, id)
	if err != nil {
		return Result{}, err
	}
	transforms, _ := resp["transforms"].([]any)
	if len(transforms) == 0 {
		return Result{Weight: 1, Unit: "ops", Success: true}, nil
	}
	t, _ := transforms[0].(map[string]any)
	state, _ := t["state"].(string)
	r.completed = state == "stopped" || state == "failed"

	if checkpointing, ok := t["checkpointing"].(map[string]any); ok {
		if next, ok := checkpointing["next"].(map[string]any); ok {
			if progress, ok := next["checkpoint_progress"].(map[string]any); ok {
				if v, ok := toFloat(progress["percent_complete"]); ok {
					frac := v / 100.0
					r.percent = &frac
				}
			}
		}
	}
	return Result{Weight: 1, Unit: "ops", Success: state != "failed", Meta: map[string]any{"state": state}}, nil
}
