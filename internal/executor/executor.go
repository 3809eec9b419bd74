// Package executor runs the cooperative per-client request loop
// (component F) that pulls timed elements from a Schedule Handle,
// invokes the selected runner, applies throttling, and hands finished
// samples to the Sampler. Grounded on task_executor.go's per-task otel
// span and template-resolution pattern, generalized from one-shot DAG
// task execution to a timed, repeating client loop.
package executor

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensearch-project/osbenchmark-go/internal/benchmarkerrors"
	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/core/resilience"
	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/sampler"
	"github.com/opensearch-project/osbenchmark-go/internal/schedule"
)

var tracer = otel.Tracer("osbench-executor")

// Config carries everything a client loop needs beyond its own task and
// schedule handle.
type Config struct {
	ClientID       int
	Task           *model.Task
	Handle         *schedule.Handle
	Clients        map[string]clusterclient.Client
	Sampler        *sampler.Sampler
	ProfileSampler *sampler.Sampler
	Complete       *CompleteSignal
	SharedStates   *SharedStates
	Errors         ErrorQueue
	OnError        model.OnError
	BaseTimeout    time.Duration

	// Smoother, when non-nil, additionally queues each throttled
	// request through a leaky/token-bucket hybrid after the scheduled
	// throttle sleep, smoothing client-side pacing while the feedback
	// actor is actively scaling (§4.2 expansion); a request the full
	// queue denies is skipped. Redline-disabled runs leave this nil.
	Smoother *resilience.HybridRateLimiter
}

// Run executes one client's cooperative request loop until the
// schedule is exhausted, cancel_signal fires, complete_signal fires for
// a task that does not complete its parent, or a fatal error occurs.
// A fatal error is wrapped as BenchmarkError("Cannot run task [name]: ...")
// per spec.md §4.5, for the Worker to forward to the Coordinator.
func Run(ctx context.Context, cfg Config) error {
	epoch, rampUpWait := cfg.Handle.Start()
	if rampUpWait > 0 {
		select {
		case <-time.After(rampUpWait):
		case <-ctx.Done():
			return nil
		}
	}

	var producer any // placeholder slot for a streaming-operation producer
	defer closeProducer(producer)

	for {
		if ctx.Err() != nil {
			return nil
		}
		if cfg.Complete != nil && cfg.Complete.IsSet() && !cfg.Task.CompletesParent {
			return nil
		}

		elem, ok, err := cfg.Handle.Next()
		if err != nil {
			return benchmarkerrors.BenchmarkWrap(err, "Cannot run task [%s]", cfg.Task.Name)
		}
		if !ok {
			return nil
		}

		active := cfg.SharedStates.Active(cfg.ClientID)

		completed, err := cfg.runOne(ctx, epoch, elem, active)
		if err != nil {
			return benchmarkerrors.BenchmarkWrap(err, "Cannot run task [%s]", cfg.Task.Name)
		}

		if completed {
			cfg.Handle.MarkCompleted()
			if cfg.Task.CompletesParent && cfg.Complete != nil {
				cfg.Complete.Set()
			}
			return nil
		}
	}
}

// runOne executes one scheduled element and reports whether the runner
// signaled completed=true (§4.5i).
func (cfg Config) runOne(ctx context.Context, epoch time.Time, elem schedule.Element, active bool) (bool, error) {
	ctx, span := tracer.Start(ctx, "executor.request",
		trace.WithAttributes(
			attribute.String("task", cfg.Task.Name),
			attribute.Int("client_id", cfg.ClientID),
			attribute.String("sample_type", elem.SampleType.String()),
		))
	defer span.End()

	absoluteProcessingStart := time.Now()
	processingStart := absoluteProcessingStart
	clientRequestStart := time.Now()

	cfg.Handle.BeforeRequest(clientRequestStart)

	params := elem.Params
	if elem.Runner.OpType() == "vector-search" {
		params = withVectorSearchParams(params, cfg.Task.Clients)
	}

	now := time.Now()
	totalStart := epoch
	throttleWait := time.Duration(0)
	if d := elem.ExpectedScheduledTime - now.Sub(totalStart); d > 0 {
		throttleWait = d
	}
	throttled := throttleWait > 0
	if throttled {
		if err := cfg.wait(ctx, throttleWait); err != nil {
			return false, nil
		}
	}

	requestTimeout := cfg.BaseTimeout
	if v, ok := params["timeout"].(float64); ok && v > 0 {
		requestTimeout = cfg.BaseTimeout + time.Duration(v*float64(time.Second))
	}
	runCtx := ctx
	var cancel context.CancelFunc
	if requestTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}

	requestStart := time.Now()
	var result runnerResult
	var runErr error
	if active {
		result, runErr = invoke(runCtx, elem.Runner, cfg.Clients, params)
	} else {
		result = runnerResult{weight: 1, unit: "ops", success: true}
	}
	requestEnd := time.Now()

	clientRequestEnd := time.Now()
	processingEnd := clientRequestEnd

	cfg.Handle.AfterRequest(clientRequestEnd, result.weight, result.unit, result.meta)

	if runErr != nil {
		if isConnectionError(runErr) {
			span.RecordError(runErr)
			return false, runErr
		}
		result = transportFailureResult(runErr)
		if cfg.Task.ErrorBehavior(cfg.OnError) == model.OnErrorAbort {
			span.RecordError(runErr)
			if cfg.Errors != nil {
				cfg.Errors.TrySend(runErr)
			}
			return false, runErr
		}
		if cfg.Errors != nil {
			cfg.Errors.TrySend(runErr)
		}
	}

	if !active {
		return false, nil
	}

	var latency time.Duration
	if throttled {
		latency = clientRequestEnd.Sub(clientRequestStart) + throttleWait
	} else {
		latency = requestEnd.Sub(requestStart)
	}
	serviceTime := requestEnd.Sub(requestStart)
	clientProcessingTime := clientRequestEnd.Sub(clientRequestStart) - serviceTime
	processingTime := processingEnd.Sub(processingStart)

	var throughputOverride *model.Throughput
	if result.throughputOverride != nil {
		throughputOverride = &model.Throughput{Value: *result.throughputOverride, Unit: result.throughputUnit}
	}

	meta := result.meta
	if meta == nil {
		meta = map[string]any{}
	}
	meta["success"] = result.success
	if throttled {
		meta["throughput_throttled"] = true
	}

	percentCompleted := elem.Progress
	if result.percentCompleted != nil {
		percentCompleted = result.percentCompleted
	}

	s := model.Sample{
		ClientID:             cfg.ClientID,
		AbsoluteTime:         absoluteProcessingStart,
		Task:                 cfg.Task,
		SampleType:           elem.SampleType,
		RequestMetaData:      meta,
		Latency:              latency,
		ServiceTime:          serviceTime,
		ClientProcessingTime: clientProcessingTime,
		ProcessingTime:       processingTime,
		ThroughputOverride:   throughputOverride,
		TotalOps:             result.weight,
		TotalOpsUnit:         result.unit,
		PercentCompleted:     percentCompleted,
		DependentTimings:     convertDependentTimings(result.dependentTimings),
	}
	if cfg.Sampler != nil {
		cfg.Sampler.Add(s)
	}
	if cfg.ProfileSampler != nil && cfg.ProfileSampler.Profile() {
		cfg.ProfileSampler.Add(s)
	}
	return result.completed, nil
}

func (cfg Config) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
	case <-ctx.Done():
		return ctx.Err()
	}
	if cfg.Smoother != nil {
		return cfg.Smoother.Wait(ctx)
	}
	return nil
}

func withVectorSearchParams(params map[string]any, numClients int) map[string]any {
	out := make(map[string]any, len(params)+2)
	for k, v := range params {
		out[k] = v
	}
	out["num_clients"] = numClients
	out["num_cores"] = runtime.NumCPU()
	return out
}

func isConnectionError(err error) bool {
	_, ok := err.(*clusterclient.ConnectionError)
	return ok
}

func closeProducer(p any) {
	if c, ok := p.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
