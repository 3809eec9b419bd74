package runner

import (
	"context"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// VectorSearchRunner additionally computes recall@k / recall@1 (or the
// radial variants recall@max_distance / recall@min_score) from
// ground-truth neighbors, restored from original_source's KNN runner
// per SPEC_FULL.md's supplemented-features section.
type VectorSearchRunner struct{}

func (VectorSearchRunner) OpType() string { return "vector-search" }

func (VectorSearchRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	index, _ := params["index"].(string)
	body, _ := params["body"].(map[string]any)

	// §4.5c: the executor injects num_clients/num_cores; vector-search
	// also needs k for recall computation.
	k, _ := params["k"].(int)
	if k <= 0 {
		k = 10
	}

	start := time.Now()
	resp, err := client.Search(ctx, index, body, params)
	if err != nil {
		return Result{}, err
	}
	recallElapsed := time.Since(start)

	res := searchResultFromResponse(resp)

	groundTruth, _ := params["neighbors"].([]int)
	if len(groundTruth) > 0 {
		returned := extractDocIDs(resp)
		res.Meta["recall@k"] = recallAtK(returned, groundTruth, k)
		res.Meta["recall@1"] = recallAtK(returned, groundTruth, 1)
		if maxDist, ok := params["max-distance"].(float64); ok {
			res.Meta["recall@max_distance"] = recallRadial(resp, maxDist, "distance")
		}
		if minScore, ok := params["min-score"].(float64); ok {
			res.Meta["recall@min_score"] = recallRadial(resp, minScore, "score")
		}
	}
	res.Meta["recall_time_ms"] = float64(recallElapsed.Microseconds()) / 1000.0
	return res, nil
}

func extractDocIDs(resp clusterclient.Response) []int {
	var ids []int
	hitsObj, _ := resp["hits"].(map[string]any)
	hitsList, _ := hitsObj["hits"].([]any)
	for _, raw := range hitsList {
		hit, _ := raw.(map[string]any)
		if id, ok := toFloat(hit["_id"]); ok {
			ids = append(ids, int(id))
		}
	}
	return ids
}

func recallAtK(returned, groundTruth []int, k int) float64 {
	if k <= 0 || len(groundTruth) == 0 {
		return 0
	}
	if k > len(groundTruth) {
		k = len(groundTruth)
	}
	truthSet := map[int]struct{}{}
	for _, id := range groundTruth[:k] {
		truthSet[id] = struct{}{}
	}
	hit := 0
	limit := k
	if limit > len(returned) {
		limit = len(returned)
	}
	for _, id := range returned[:limit] {
		if _, ok := truthSet[id]; ok {
			hit++
		}
	}
	return float64(hit) / float64(k)
}

// recallRadial computes recall for a radial (max-distance/min-score)
// vector search: the fraction of returned hits meeting the threshold.
func recallRadial(resp clusterclient.Response, threshold float64, field string) float64 {
	hitsObj, _ := resp["hits"].(map[string]any)
	hitsList, _ := hitsObj["hits"].([]any)
	if len(hitsList) == 0 {
		return 0
	}
	met := 0
	for _, raw := range hitsList {
		hit, _ := raw.(map[string]any)
		v, ok := toFloat(hit[field])
		if !ok {
			continue
		}
		if field == "distance" {
			if v <= threshold {
				met++
			}
		} else if v >= threshold {
			met++
		}
	}
	return float64(met) / float64(len(hitsList))
}
