package runner

import (
	"context"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
)

// SleepRunner suspends for params["duration"] seconds, bracketed by
// request-context start/end calls per §4.4.
type SleepRunner struct{}

func (SleepRunner) OpType() string { return "sleep" }

func (SleepRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	client := defaultClient(clients)
	rc := client.NewRequestContext()
	defer rc.Close()

	duration, _ := toFloat(params["duration"])

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-time.After(time.Duration(duration * float64(time.Second))):
	}
	return Result{Weight: 1, Unit: "ops", Success: true}, nil
}
