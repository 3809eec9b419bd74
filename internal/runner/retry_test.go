package runner

import (
	"context"
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

type countingRunner struct {
	calls   int
	failN   int // number of calls that fail before succeeding; -1 = always fail
	errFn   func(call int) error
}

func (r *countingRunner) OpType() string { return "fake" }

func (r *countingRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	r.calls++
	if r.errFn != nil {
		if err := r.errFn(r.calls - 1); err != nil {
			return Result{}, err
		}
		return Result{Success: true}, nil
	}
	if r.failN < 0 || r.calls <= r.failN {
		return Result{}, &clusterclient.TransportError{StatusCode: 408, Message: "timeout"}
	}
	return Result{Success: true}, nil
}

func TestRetryInvokesExactlyNPlusOneTimesOnDeterministicFailure(t *testing.T) {
	inner := &countingRunner{failN: -1}
	r := NewRetryRunner(inner, RetryConfig{Retries: 3, RetryOnTimeout: true, RetryWaitPeriod: time.Millisecond})

	_, err := r.Run(context.Background(), nil, nil)
	if err == nil {
		t.Fatalf("expected the last failure to be returned verbatim")
	}
	if inner.calls != 4 {
		t.Fatalf("expected 4 invocations (retries=3 => N+1), got %d", inner.calls)
	}
}

func TestRetryUntilSuccessStopsAfterKFailuresPlusOne(t *testing.T) {
	k := 2
	inner := &countingRunner{errFn: func(call int) error {
		if call < k {
			return &clusterclient.TransportError{StatusCode: 408, Message: "timeout"}
		}
		return nil
	}}
	r := NewRetryRunner(inner, RetryConfig{RetryUntilSuccess: true, RetryOnTimeout: true, RetryWaitPeriod: time.Millisecond})

	res, err := r.Run(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success result")
	}
	if inner.calls != k+1 {
		t.Fatalf("expected %d invocations (k+1), got %d", k+1, inner.calls)
	}
}

func TestRetryNeverRetriesConnectionErrors(t *testing.T) {
	inner := &countingRunner{errFn: func(call int) error {
		return &clusterclient.ConnectionError{Message: "refused"}
	}}
	r := NewRetryRunner(inner, RetryConfig{Retries: 5, RetryOnTimeout: true, RetryOnError: true, RetryWaitPeriod: time.Millisecond})

	_, err := r.Run(context.Background(), nil, nil)
	if err == nil {
		t.Fatalf("expected connection error to propagate")
	}
	if inner.calls != 1 {
		t.Fatalf("expected exactly 1 invocation for a connection error, got %d", inner.calls)
	}
}
