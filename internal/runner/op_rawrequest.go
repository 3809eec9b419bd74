package runner

import (
	"strings"

	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/benchmarkerrors"
	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// RawRequestRunner passes method/path/body/headers/params through,
// enforcing a leading "/" on path per §4.4.
type RawRequestRunner struct{}

func (RawRequestRunner) OpType() string { return "raw-request" }

func (RawRequestRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	method, _ := params["method"].(string)
	if method == "" {
		method = "GET"
	}
	path, _ := params["path"].(string)
	if path == "" {
		return Result{}, benchmarkerrors.Data("raw-request requires a path")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	body, _ := params["body"].([]byte)
	headers, _ := params["headers"].(map[string]string)
	reqParams, _ := params["params"].(map[string]any)

	resp, status, err := client.TransportPerformRequest(ctx, method, path, reqParams, body, headers)
	if err != nil {
		return Result{}, err
	}
	return Result{Weight: 1, Unit: "ops", Success: status < 400, Meta: map[string]any{"http-status": status, "response": resp}}, nil
}
