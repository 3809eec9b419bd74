package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// WaitForRecoveryRunner polls indices recovery, returning when all
// shards are DONE, computing aggregate throughput across shards, per
// §4.4.
type WaitForRecoveryRunner struct {
	completed bool
}

func (r *WaitForRecoveryRunner) OpType() string { return "wait-for-recovery" }

func (r *WaitForRecoveryRunner) Completed() bool            { return r.completed }
func (r *WaitForRecoveryRunner) PercentCompleted() *float64 { return nil }

func (r *WaitForRecoveryRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	index, _ := params["index"].(string)

	resp, err := client.Indices().Recovery(ctx, index)
	if err != nil {
		return Result{}, err
	}

	allDone := true
	var totalBytes, totalSeconds float64
	for _, rawIdx := range resp {
		idx, ok := rawIdx.(map[string]any)
		if !ok {
			continue
		}
		shards, _ := idx["shards"].([]any)
		for _, rawShard := range shards {
			shard, _ := rawShard.(map[string]any)
			stage, _ := shard["stage"].(string)
			if stage != "done" {
				allDone = false
				continue
			}
			if idx2, ok := shard["index"].(map[string]any); ok {
				if size, ok := idx2["size"].(map[string]any); ok {
					recovered, _ := toFloat(size["recovered_in_bytes"])
					totalBytes += recovered
				}
				if ms, ok := toFloat(idx2["time_in_millis"]); ok {
					totalSeconds += ms / 1000.0
				}
			}
		}
	}
	r.completed = allDone

	var override *float64
	if totalSeconds > 0 {
		v := totalBytes / totalSeconds
		override = &v
	}
	return Result{
		Weight: 1, Unit: "ops", Success: true,
		ThroughputOverride: override, ThroughputUnit: "byte/s",
		Meta: map[string]any{"all-shards-done": allDone},
	}, nil
}
