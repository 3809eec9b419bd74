package executor

import (
	"context"
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/paramsource"
	"github.com/opensearch-project/osbenchmark-go/internal/runner"
	"github.com/opensearch-project/osbenchmark-go/internal/sampler"
	"github.com/opensearch-project/osbenchmark-go/internal/schedule"
)

type fakeRunner struct {
	opType string
	err    error
}

func (r fakeRunner) OpType() string { return r.opType }
func (r fakeRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (runner.Result, error) {
	if r.err != nil {
		return runner.Result{}, r.err
	}
	return runner.Result{Weight: 1, Unit: "ops", Success: true}, nil
}

func newTestTask() *model.Task {
	return &model.Task{
		Name:      "t",
		Operation: &model.Operation{Name: "op", Type: "search"},
		Clients:   1,
		Iterations: 3,
	}
}

func runTask(t *testing.T, r runner.Runner, onErr model.OnError) ([]model.Sample, error) {
	t.Helper()
	task := newTestTask()
	src := &paramsource.Func{Gen: func() (map[string]any, error) { return map[string]any{}, nil }}
	h := schedule.New(task, src, &schedule.Unthrottled{}, r, 0, 1)
	s := sampler.New()
	cfg := Config{
		ClientID:     0,
		Task:         task,
		Handle:       h,
		Clients:      map[string]clusterclient.Client{},
		Sampler:      s,
		SharedStates: NewSharedStates(1),
		Errors:       NewErrorQueue(8),
		OnError:      onErr,
		BaseTimeout:  time.Second,
	}
	err := Run(context.Background(), cfg)
	return s.Drain(), err
}

func TestRunEmitsOneSamplePerIteration(t *testing.T) {
	samples, err := runTask(t, fakeRunner{opType: "search"}, model.OnErrorContinue)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
}

func TestConnectionErrorAbortsRegardlessOfOnError(t *testing.T) {
	r := fakeRunner{opType: "search", err: &clusterclient.ConnectionError{Message: "refused"}}
	_, err := runTask(t, r, model.OnErrorContinue)
	if err == nil {
		t.Fatalf("expected fatal error from connection failure")
	}
}

func TestTransportErrorContinuesOnErrorContinue(t *testing.T) {
	r := fakeRunner{opType: "search", err: &clusterclient.TransportError{StatusCode: 500, Message: "boom"}}
	samples, err := runTask(t, r, model.OnErrorContinue)
	if err != nil {
		t.Fatalf("expected continuation, got error: %v", err)
	}
	for _, s := range samples {
		if success, _ := s.RequestMetaData["success"].(bool); success {
			t.Fatalf("expected failed sample meta")
		}
	}
}

func TestTransportErrorAbortsOnErrorAbort(t *testing.T) {
	r := fakeRunner{opType: "search", err: &clusterclient.TransportError{StatusCode: 500, Message: "boom"}}
	_, err := runTask(t, r, model.OnErrorAbort)
	if err == nil {
		t.Fatalf("expected abort")
	}
}
