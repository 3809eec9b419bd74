package runner

import (
	"context"
	"strconv"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// BulkRunner executes a bulk request, per §4.4's bulk row: response is
// parsed lazily, and when params["detailed-results"] is set it computes
// per-operation-type success/error histograms, restored from
// original_source's BulkIndex.__call__ detailed-results branch.
type BulkRunner struct{}

func (BulkRunner) OpType() string { return "bulk" }

func (BulkRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	body, _ := params["body"].([]byte)
	bulkSize, _ := params["bulk-size"].(int)

	resp, err := client.Bulk(ctx, body, params)
	if err != nil {
		return Result{}, err
	}

	detailed, _ := params["detailed-results"].(bool)
	took, _ := toFloat(resp["took"])
	errored, _ := resp["errors"].(bool)

	meta := map[string]any{"took": took}
	successCount := bulkSize
	errorCount := 0

	if detailed {
		ops := map[string]map[string]int{}
		shardsHisto := map[string]int{}
		if items, ok := resp["items"].([]any); ok {
			successCount, errorCount = 0, 0
			for _, rawItem := range items {
				item, _ := rawItem.(map[string]any)
				for opName, rawAction := range item {
					action, _ := rawAction.(map[string]any)
					status, _ := toFloat(action["status"])
					opStats := ops[opName]
					if opStats == nil {
						opStats = map[string]int{"item-count": 0, "error-count": 0}
						ops[opName] = opStats
					}
					opStats["item-count"]++
					if status >= 400 {
						errorCount++
						opStats["error-count"]++
						if shards, ok := action["_shards"].(map[string]any); ok {
							failed, _ := toFloat(shards["failed"])
							key := strconv.Itoa(int(took)) + ":" + strconv.Itoa(int(failed))
							shardsHisto[key]++
						}
					} else {
						successCount++
					}
				}
			}
		}
		meta["ops"] = ops
		meta["shards_histogram"] = shardsHisto
		meta["error-count"] = errorCount
		meta["success-count"] = successCount
	} else if errored {
		errorCount = 1
	}

	meta["success"] = errorCount == 0
	return Result{
		Weight:  float64(bulkSize),
		Unit:    "docs",
		Success: errorCount == 0,
		Meta:    meta,
	}, nil
}
