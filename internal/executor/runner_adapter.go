package executor

import (
	"context"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/runner"
)

// runnerResult is the executor's own normalized view of runner.Result,
// kept distinct so a transport failure can be represented without a
// real invocation.
type runnerResult struct {
	weight             float64
	unit               string
	success            bool
	throughputOverride *float64
	throughputUnit     string
	meta               map[string]any
	dependentTimings   []runner.DependentTiming
	completed          bool
	percentCompleted   *float64
}

func invoke(ctx context.Context, r runner.Runner, clients map[string]clusterclient.Client, params map[string]any) (runnerResult, error) {
	res, err := r.Run(ctx, clients, params)
	if err != nil {
		return runnerResult{}, err
	}
	weight := res.Weight
	unit := res.Unit
	if unit == "" {
		weight, unit = 1, "ops"
	}
	return runnerResult{
		weight:             weight,
		unit:               unit,
		success:            res.Success,
		throughputOverride: res.ThroughputOverride,
		throughputUnit:     res.ThroughputUnit,
		meta:               res.Meta,
		dependentTimings:   res.DependentTimings,
		completed:          res.Completed,
		percentCompleted:   res.PercentCompleted,
	}, nil
}

// transportFailureResult builds the {success:false, http-status,
// error-type:"transport", error-description} meta described in §4.5g
// for an HTTP-level transport error that did not abort the task.
func transportFailureResult(err error) runnerResult {
	meta := map[string]any{
		"error-type":        "transport",
		"error-description": err.Error(),
	}
	if te, ok := err.(*clusterclient.TransportError); ok {
		meta["http-status"] = te.StatusCode
	}
	return runnerResult{weight: 1, unit: "ops", success: false, meta: meta}
}

func convertDependentTimings(in []runner.DependentTiming) []model.DependentTiming {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.DependentTiming, len(in))
	for i, dt := range in {
		out[i] = model.DependentTiming{
			Operation:     dt.Operation,
			OperationType: dt.OperationType,
			Latency:       time.Duration(dt.Latency * float64(time.Second)),
			ServiceTime:   time.Duration(dt.ServiceTime * float64(time.Second)),
		}
	}
	return out
}
