package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// healthOrder orders cluster status as Red < Yellow < Green < Unknown,
// per §4.4's cluster-health row.
var healthOrder = map[string]int{"red": 0, "yellow": 1, "green": 2, "unknown": 3}

// ClusterHealthRunner compares observed status against an expected
// minimum, honoring a relocating-shards constraint.
type ClusterHealthRunner struct{}

func (ClusterHealthRunner) OpType() string { return "cluster-health" }

func (ClusterHealthRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	index, _ := params["index"].(string)
	expected, _ := params["request-params"].(map[string]any)

	resp, err := client.Cluster().Health(ctx, index)
	if err != nil {
		return Result{}, err
	}

	status, _ := resp["status"].(string)
	expectedStatus := "green"
	if expected != nil {
		if v, ok := expected["wait_for_status"].(string); ok {
			expectedStatus = v
		}
	}
	statusOK := healthOrder[status] >= healthOrder[expectedStatus]

	relocatingOK := true
	if expected != nil {
		if wantZero, _ := expected["wait_for_no_relocating_shards"].(bool); wantZero {
			relocating, _ := toFloat(resp["relocating_shards"])
			relocatingOK = relocating == 0
		}
	}

	success := statusOK && relocatingOK
	return Result{
		Weight:  1,
		Unit:    "ops",
		Success: success,
		Meta: map[string]any{
			"cluster-status": status,
			"success":        success,
		},
	}, nil
}
