package runner

import (
	"context"

	"github.com/opensearch-project/osbenchmark-go/internal/benchmarkerrors"
	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// completionRunner exposes Completed/PercentCompleted when the innermost
// (base) runner implements Progress, per §4.4's Completion wrapper.
type completionRunner struct {
	inner Runner
}

func newCompletionRunner(inner Runner) Runner { return &completionRunner{inner: inner} }

func (c *completionRunner) OpType() string { return c.inner.OpType() }

func (c *completionRunner) MultiCluster() bool {
	if mc, ok := c.inner.(MultiClusterRunner); ok {
		return mc.MultiCluster()
	}
	return false
}

func (c *completionRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	res, err := c.inner.Run(ctx, clients, params)
	if err != nil {
		return res, err
	}
	if p, ok := innermost(c.inner).(Progress); ok {
		res.Completed = p.Completed()
		res.PercentCompleted = p.PercentCompleted()
	}
	return res, nil
}

// innermost unwraps the assertion and cluster-extraction decorators to
// reach the base runner.
func innermost(r Runner) Runner {
	for {
		switch w := r.(type) {
		case *assertionRunner:
			r = w.inner
		case *clusterExtractionRunner:
			r = w.inner
		default:
			return r
		}
	}
}

// assertionCondition names the comparator set supported by a
// {property, condition, value} assertion.
type assertionCondition string

const (
	CondGT  assertionCondition = ">"
	CondGE  assertionCondition = ">="
	CondLT  assertionCondition = "<"
	CondLE  assertionCondition = "<="
	CondEQ  assertionCondition = "=="
)

// Assertion is one {property, condition, value} check against a
// runner's response dict.
type Assertion struct {
	Property  string
	Condition assertionCondition
	Value     float64
}

// assertionRunner checks params["assertions"] against the response dict
// when assertions are globally enabled, per §4.4. Failure raises
// BenchmarkTaskAssertionError.
type assertionRunner struct {
	inner   Runner
	enabled func() bool
}

func newAssertionRunner(inner Runner, enabled func() bool) Runner {
	return &assertionRunner{inner: inner, enabled: enabled}
}

func (a *assertionRunner) OpType() string { return a.inner.OpType() }

func (a *assertionRunner) MultiCluster() bool {
	if mc, ok := a.inner.(MultiClusterRunner); ok {
		return mc.MultiCluster()
	}
	return false
}

func (a *assertionRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	res, err := a.inner.Run(ctx, clients, params)
	if err != nil {
		return res, err
	}
	if a.enabled == nil || !a.enabled() {
		return res, nil
	}
	raw, ok := params["assertions"]
	if !ok {
		return res, nil
	}
	assertions, ok := raw.([]Assertion)
	if !ok {
		return res, nil
	}
	for _, as := range assertions {
		v, ok := res.Meta[as.Property]
		if !ok {
			return res, benchmarkerrors.TaskAssertion("assertion property %q missing from response", as.Property)
		}
		fv, ok := toFloat(v)
		if !ok {
			return res, benchmarkerrors.TaskAssertion("assertion property %q is not numeric", as.Property)
		}
		if !evalCondition(fv, as.Condition, as.Value) {
			return res, benchmarkerrors.TaskAssertion("assertion failed: %s %s %v (actual %v)", as.Property, as.Condition, as.Value, fv)
		}
	}
	return res, nil
}

func evalCondition(actual float64, cond assertionCondition, expected float64) bool {
	switch cond {
	case CondGT:
		return actual > expected
	case CondGE:
		return actual >= expected
	case CondLT:
		return actual < expected
	case CondLE:
		return actual <= expected
	case CondEQ:
		return actual == expected
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// clusterExtractionRunner maps the multi-client map down to the single
// default client unless the inner runner opts into MultiCluster.
type clusterExtractionRunner struct {
	inner Runner
}

func newClusterExtractionRunner(inner Runner) Runner { return &clusterExtractionRunner{inner: inner} }

func (c *clusterExtractionRunner) OpType() string { return c.inner.OpType() }

func (c *clusterExtractionRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	multi := false
	if mc, ok := c.inner.(MultiClusterRunner); ok {
		multi = mc.MultiCluster()
	}
	if multi {
		return c.inner.Run(ctx, clients, params)
	}
	dc := defaultClient(clients)
	return c.inner.Run(ctx, map[string]clusterclient.Client{"default": dc}, params)
}
