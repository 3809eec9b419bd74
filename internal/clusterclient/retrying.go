package clusterclient

import (
	"context"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/core/resilience"
)

// DialWithRetry establishes a cluster connection with jittered
// exponential backoff, grounded on internal/core/resilience.Retry — the
// one layer below the executor where backoff retry (rather than the
// Runner layer's fixed-interval retry wrapper, see internal/runner) is
// appropriate, since it only ever runs once at client construction.
func DialWithRetry(ctx context.Context, attempts int, initialDelay time.Duration, dial func() (Client, error)) (Client, error) {
	return resilience.Retry(ctx, attempts, initialDelay, dial)
}
