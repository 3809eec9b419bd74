package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/runner/compctx"
)

// SubmitAsyncSearchRunner stores the returned search id in the
// composite context for sibling get/delete operations, per §4.4.
type SubmitAsyncSearchRunner struct{}

func (SubmitAsyncSearchRunner) OpType() string { return "submit-async-search" }
func (SubmitAsyncSearchRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	index, _ := params["index"].(string)
	body, _ := params["body"].(map[string]any)
	resp, err := client.AsyncSearch().Submit(ctx, index, body, params)
	if err != nil {
		return Result{}, err
	}
	id, _ := resp["id"].(string)
	if id != "" && compctx.InScope(ctx) {
		_ = compctx.Put(ctx, "async-search-id", id)
	}
	return Result{Weight: 1, Unit: "ops", Success: true, Meta: map[string]any{"id": id}}, nil
}

// GetAsyncSearchRunner returns success=true only when is_running=false;
// it is registered with retry-until-success per §4.4.
type GetAsyncSearchRunner struct{}

func (GetAsyncSearchRunner) OpType() string { return "get-async-search" }
func (GetAsyncSearchRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	id, _ := params["id"].(string)
	if id == "" && compctx.InScope(ctx) {
		if v, err := compctx.Get(ctx, "async-search-id"); err == nil {
			id, _ = v.(string)
		}
	}
	resp, err := client.AsyncSearch().Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	running, _ := resp["is_running"].(bool)
	return Result{Weight: 1, Unit: "ops", Success: !running, Meta: map[string]any{"is_running": running}}, nil
}

// DeleteAsyncSearchRunner releases a stored async search.
type DeleteAsyncSearchRunner struct{}

func (DeleteAsyncSearchRunner) OpType() string { return "delete-async-search" }
func (DeleteAsyncSearchRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	id, _ := params["id"].(string)
	if id == "" && compctx.InScope(ctx) {
		if v, err := compctx.Get(ctx, "async-search-id"); err == nil {
			id, _ = v.(string)
		}
	}
	err := client.AsyncSearch().Delete(ctx, id)
	return Result{Weight: 1, Unit: "ops", Success: err == nil}, err
}
