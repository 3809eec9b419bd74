package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/runner/compctx"
)

// CreatePointInTimeRunner stores the returned pit id in the composite
// context, per §4.4.
type CreatePointInTimeRunner struct{}

func (CreatePointInTimeRunner) OpType() string { return "create-point-in-time" }
func (CreatePointInTimeRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	index, _ := params["index"].(string)
	keepAlive, _ := params["keep-alive"].(string)
	if keepAlive == "" {
		keepAlive = "1m"
	}
	resp, err := client.OpenPointInTime(ctx, index, keepAlive)
	if err != nil {
		return Result{}, err
	}
	pitID, _ := resp["pit_id"].(string)
	if pitID != "" && compctx.InScope(ctx) {
		_ = compctx.Put(ctx, "pit_id", pitID)
	}
	return Result{Weight: 1, Unit: "ops", Success: true, Meta: map[string]any{"pit_id": pitID}}, nil
}

// ClosePointInTimeRunner retrieves the pit id from the composite
// context unless one is given explicitly.
type ClosePointInTimeRunner struct{}

func (ClosePointInTimeRunner) OpType() string { return "close-point-in-time" }
func (ClosePointInTimeRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	pitID, _ := params["pit_id"].(string)
	if pitID == "" && compctx.InScope(ctx) {
		if v, err := compctx.Get(ctx, "pit_id"); err == nil {
			pitID, _ = v.(string)
		}
	}
	_, err := client.ClosePointInTime(ctx, pitID)
	return Result{Weight: 1, Unit: "ops", Success: err == nil}, err
}

// ListPointInTimeRunner lists all open point-in-time ids.
type ListPointInTimeRunner struct{}

func (ListPointInTimeRunner) OpType() string { return "list-point-in-time" }
func (ListPointInTimeRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	resp, err := client.ListPointInTime(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Weight: 1, Unit: "ops", Success: true, Meta: map[string]any{"response": resp}}, nil
}
