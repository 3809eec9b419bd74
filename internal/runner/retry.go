package runner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

var retryAttempts, _ = meter.Int64Counter("osbench_runner_retry_attempts_total")
var retryExhausted, _ = meter.Int64Counter("osbench_runner_retry_exhausted_total")

// RetryConfig holds the §4.4 retry-wrapper parameters. Unlike
// internal/core/resilience.Retry (exponential backoff, used for
// connection-level retries in internal/clusterclient), this wrapper is
// fixed-interval and predicate-gated, matching the spec's exact
// invocation-count contract (testable property 5).
type RetryConfig struct {
	Retries          int
	RetryUntilSuccess bool
	RetryWaitPeriod  time.Duration // default 0.5s
	RetryOnTimeout   bool          // default true
	RetryOnError     bool          // default false
}

// DefaultRetryConfig returns the spec's documented defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Retries:         0,
		RetryWaitPeriod: 500 * time.Millisecond,
		RetryOnTimeout:  true,
		RetryOnError:    false,
	}
}

// retryRunner wraps inner with the fixed-interval retry loop. It is the
// outermost decorator when present, applied selectively at
// registration (§5: "only the Retry wrapper ... retries at the runner
// layer").
type retryRunner struct {
	inner Runner
	cfg   RetryConfig
}

// NewRetryRunner constructs the retry decorator. Exported so the
// coordinator/worker can wire it per-task when a task's schedule
// options request retries, without requiring every op-type to register
// with retry by default.
func NewRetryRunner(inner Runner, cfg RetryConfig) Runner {
	if cfg.RetryWaitPeriod <= 0 {
		cfg.RetryWaitPeriod = 500 * time.Millisecond
	}
	if cfg.RetryUntilSuccess {
		cfg.RetryOnError = true
	}
	return &retryRunner{inner: inner, cfg: cfg}
}

func (r *retryRunner) OpType() string { return r.inner.OpType() }

func (r *retryRunner) MultiCluster() bool {
	if mc, ok := r.inner.(MultiClusterRunner); ok {
		return mc.MultiCluster()
	}
	return false
}

// Run invokes the inner runner up to cfg.Retries+1 times (unbounded if
// RetryUntilSuccess), honoring retry-on-timeout and retry-on-error
// predicates, sleeping a fixed RetryWaitPeriod between attempts.
func (r *retryRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	maxAttempts := r.cfg.Retries + 1
	attempt := 0
	for {
		attempt++
		retryAttempts.Add(ctx, 1, metric.WithAttributes())
		res, err := r.inner.Run(ctx, clients, params)

		last := !r.cfg.RetryUntilSuccess && attempt >= maxAttempts
		if err != nil {
			if isConnectionError(err) {
				// §5: connection errors reaching this layer are never
				// retried here; they propagate to the executor fatally.
				return res, err
			}
			retriable := r.cfg.RetryOnTimeout && isRetriableTimeout(err)
			if !retriable || last {
				if last {
					retryExhausted.Add(ctx, 1)
				}
				return res, err
			}
		} else if !res.Success {
			retriable := r.cfg.RetryOnError
			if !retriable || last {
				if last {
					retryExhausted.Add(ctx, 1)
				}
				return res, nil
			}
		} else {
			return res, nil
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(r.cfg.RetryWaitPeriod):
		}
	}
}

func isConnectionError(err error) bool {
	_, ok := err.(*clusterclient.ConnectionError)
	return ok
}

// isRetriableTimeout treats transport HTTP 408 as a retriable timeout
// per §4.4. It is the only error it recognizes: clusterclient has no
// separate connection-timeout or socket-timeout error type, and a
// ConnectionError is returned by Run before this check.
func isRetriableTimeout(err error) bool {
	if te, ok := err.(*clusterclient.TransportError); ok {
		return te.StatusCode == 408
	}
	return false
}
