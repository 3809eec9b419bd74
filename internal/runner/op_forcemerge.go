package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// ForceMergeRunner supports an optional polling mode: when
// params["mode"]=="polling" it polls the tasks API and reports
// completion once no forcemerge tasks remain, exposing Progress so the
// completion wrapper surfaces it.
type ForceMergeRunner struct {
	lastCompleted bool
	lastPercent   *float64
}

func (r *ForceMergeRunner) OpType() string { return "force-merge" }

func (r *ForceMergeRunner) Completed() bool            { return r.lastCompleted }
func (r *ForceMergeRunner) PercentCompleted() *float64 { return r.lastPercent }

func (r *ForceMergeRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	index, _ := params["index"].(string)
	maxSegments, _ := params["max-num-segments"].(int)

	polling, _ := params["mode"].(string)
	if polling != "polling" {
		err := client.Indices().ForceMerge(ctx, index, maxSegments)
		r.lastCompleted = true
		return Result{Weight: 1, Unit: "ops", Success: err == nil, Meta: map[string]any{"success": err == nil}}, err
	}

	resp, err := client.Tasks().List(ctx, map[string]any{"actions": "indices:admin/forcemerge"})
	if err != nil {
		return Result{}, err
	}
	remaining := 0
	if nodes, ok := resp["nodes"].(map[string]any); ok {
		for _, n := range nodes {
			node, _ := n.(map[string]any)
			tasks, _ := node["tasks"].(map[string]any)
			remaining += len(tasks)
		}
	}
	r.lastCompleted = remaining == 0
	v := 1.0
	if !r.lastCompleted {
		v = 0.5
	}
	r.lastPercent = &v
	return Result{Weight: 1, Unit: "ops", Success: true, Meta: map[string]any{"remaining-tasks": remaining}}, nil
}
