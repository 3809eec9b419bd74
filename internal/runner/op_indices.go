package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// indexBatchOp covers create-index / delete-index / create-data-stream
// / delete-data-stream / the three template families: batch
// creation/deletion with only-if-exists semantics, returning
// {weight=count-of-ops, success} per §4.4.
type indexBatchOp struct {
	opType string
	kind   string // "index" | "data-stream" | "index-template" | "component-template" | "composable-template"
	delete bool
}

func (o *indexBatchOp) OpType() string { return o.opType }

func (o *indexBatchOp) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	onlyIfExists, _ := params["only-if-exists"].(bool)
	names := namesFromParams(params)

	count := 0
	for _, name := range names {
		exists, existsErr := o.exists(ctx, client, name)
		if o.delete && onlyIfExists && existsErr == nil && !exists {
			continue
		}
		if !o.delete && onlyIfExists && existsErr == nil && exists {
			continue
		}
		var err error
		if o.delete {
			err = o.doDelete(ctx, client, name)
		} else {
			body, _ := params["body"].(map[string]any)
			err = o.doCreate(ctx, client, name, body)
		}
		if err != nil {
			return Result{Weight: float64(count), Unit: "ops", Success: false}, err
		}
		count++
	}
	return Result{Weight: float64(count), Unit: "ops", Success: true, Meta: map[string]any{"success": true}}, nil
}

func namesFromParams(params map[string]any) []string {
	if n, ok := params["name"].(string); ok {
		return []string{n}
	}
	if ns, ok := params["names"].([]string); ok {
		return ns
	}
	return nil
}

func (o *indexBatchOp) exists(ctx context.Context, client clusterclient.Client, name string) (bool, error) {
	switch o.kind {
	case "index":
		return client.Indices().Exists(ctx, name)
	case "index-template":
		return client.Indices().ExistsTemplate(ctx, name)
	default:
		return false, nil
	}
}

func (o *indexBatchOp) doCreate(ctx context.Context, client clusterclient.Client, name string, body map[string]any) error {
	switch o.kind {
	case "index":
		return client.Indices().Create(ctx, name, body)
	case "data-stream":
		return client.Indices().CreateDataStream(ctx, name)
	case "index-template":
		return client.Indices().PutIndexTemplate(ctx, name, body)
	case "component-template":
		return client.Cluster().PutComponentTemplate(ctx, name, body)
	case "composable-template":
		return client.Indices().PutTemplate(ctx, name, body)
	}
	return nil
}

func (o *indexBatchOp) doDelete(ctx context.Context, client clusterclient.Client, name string) error {
	switch o.kind {
	case "index":
		return client.Indices().Delete(ctx, name)
	case "data-stream":
		return client.Indices().DeleteDataStream(ctx, name)
	case "index-template":
		return client.Indices().DeleteIndexTemplate(ctx, name)
	case "component-template":
		return client.Cluster().DeleteComponentTemplate(ctx, name)
	case "composable-template":
		return client.Indices().DeleteTemplate(ctx, name)
	}
	return nil
}
