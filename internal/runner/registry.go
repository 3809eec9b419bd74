package runner

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/opensearch-project/osbenchmark-go/internal/benchmarkerrors"
)

var meter = otel.Meter("osbench-runner")
var registrationsCounter, _ = meter.Int64Counter("osbench_runner_registrations_total")

// Registry maps an operation-type string to its fully-decorated
// runner, grounded on plugins.go's PluginRegistry keyed-dispatch
// pattern, generalized from plugin execution to runner dispatch.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]Runner
}

// NewRegistry builds an empty registry and registers every built-in
// operation type named in §4.4.
func NewRegistry() *Registry {
	r := &Registry{runners: map[string]Runner{}}
	registerBuiltins(r)
	return r
}

// Register installs a runner under op-type, wrapped in the standard
// decorator chain Completion -> Assertion -> ClusterExtraction -> Base,
// per §4.4.
func (r *Registry) Register(opType string, base Runner, assertionsEnabled func() bool) {
	wrapped := Runner(base)
	wrapped = newClusterExtractionRunner(wrapped)
	wrapped = newAssertionRunner(wrapped, assertionsEnabled)
	wrapped = newCompletionRunner(wrapped)

	r.mu.Lock()
	r.runners[opType] = wrapped
	r.mu.Unlock()
	registrationsCounter.Add(context.Background(), 1)
}

// RegisterWithRetry is Register plus the retry decorator outermost,
// used for op-types the spec calls out as selectively retried at
// registration (e.g. get-async-search uses retry-until-success).
func (r *Registry) RegisterWithRetry(opType string, base Runner, assertionsEnabled func() bool, retryCfg RetryConfig) {
	wrapped := Runner(base)
	wrapped = newClusterExtractionRunner(wrapped)
	wrapped = newAssertionRunner(wrapped, assertionsEnabled)
	wrapped = newCompletionRunner(wrapped)
	wrapped = NewRetryRunner(wrapped, retryCfg)

	r.mu.Lock()
	r.runners[opType] = wrapped
	r.mu.Unlock()
	registrationsCounter.Add(context.Background(), 1)
}

// Lookup resolves the fully-decorated runner for an operation type.
func (r *Registry) Lookup(opType string) (Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rr, ok := r.runners[opType]
	if !ok {
		return nil, benchmarkerrors.WorkloadConfig("unknown operation type %q", opType)
	}
	return rr, nil
}
