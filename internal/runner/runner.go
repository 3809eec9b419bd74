// Package runner implements the polymorphic Runner contract (component
// C), its decorators (component D: Retry, Assertion, Completion,
// ClusterExtraction), the registry, and every built-in operation type
// named in §4.4.
package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// Result is the normalized outcome of one runner invocation, after
// interpreting the polymorphic {nil, (weight,unit), dict} return shape
// described in §4.4.
type Result struct {
	Weight             float64
	Unit               string
	Success            bool
	ThroughputOverride *float64
	ThroughputUnit     string
	Meta               map[string]any
	DependentTimings   []DependentTiming

	// Completed/PercentCompleted are populated by completionRunner when
	// the base runner implements Progress; scroll and paginated search
	// set Completed directly on their final page.
	Completed        bool
	PercentCompleted *float64
}

// DependentTiming records timing for one leaf of a composite invocation.
type DependentTiming struct {
	Operation     string
	OperationType string
	Latency       float64 // seconds
	ServiceTime   float64 // seconds
}

// Runner executes one request against the cluster and returns a
// weight/unit/meta record, or a nested composite result.
type Runner interface {
	// Run executes against the default client unless MultiCluster()
	// is true, in which case clients carries every configured cluster
	// keyed by name ("default" at minimum).
	Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error)
	// OpType identifies this runner's registered operation-type string.
	OpType() string
}

// MultiClusterRunner is implemented by runners that want the full
// client map instead of just the default cluster.
type MultiClusterRunner interface {
	MultiCluster() bool
}

// Progress is a narrow capability exposed by runners that support
// polling ("wait for transform", "force-merge" polling mode, "wait for
// snapshot", "wait for recovery", "indices recovery", "train-knn-model").
// The completion wrapper holds a plain reference to the innermost
// runner rather than owning it, per §9's "cyclic wait-for-* progress"
// design note.
type Progress interface {
	Completed() bool
	PercentCompleted() *float64
}

func defaultClient(clients map[string]clusterclient.Client) clusterclient.Client {
	if c, ok := clients["default"]; ok {
		return c
	}
	for _, c := range clients {
		return c
	}
	return nil
}
