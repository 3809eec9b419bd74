package runner

import (
	"context"
	"sync"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/benchmarkerrors"
	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/runner/compctx"
)

var compositeInFlight, _ = meter.Int64Gauge("osbench_runner_composite_inflight")

// compositeEntry is either a single request ({operation-type, ...}) or
// a nested stream ({stream: [...]}), per §4.4.
type compositeEntry struct {
	OperationType string
	Params        map[string]any
	Stream        []compositeEntry
}

// compositeWhitelist restricts inner op types per §4.4 ("supported
// inner op types are restricted to a whitelist").
var compositeWhitelist = map[string]bool{
	"search": true, "paginated-search": true, "scroll-search": true,
	"raw-request": true, "sleep": true,
	"create-point-in-time": true, "close-point-in-time": true, "list-point-in-time": true,
	"submit-async-search": true, "get-async-search": true, "delete-async-search": true,
}

// CompositeRunner executes a nested request structure of sequential and
// parallel streams, bounded by max-connections, grounded on
// dag_engine.go's worker-pool/ready-queue pattern: here the "ready
// queue" is simply each stream's own goroutine and the "worker pool"
// bound is a counting semaphore sized to max-connections, since a
// composite's concurrency unit is a whole stream rather than a DAG
// node.
type CompositeRunner struct {
	registry *Registry
}

func NewCompositeRunner(registry *Registry) *CompositeRunner { return &CompositeRunner{registry: registry} }

func (c *CompositeRunner) OpType() string { return "composite" }

func (c *CompositeRunner) Run(ctx context.Context, clients map[string]clusterclient.Client, params map[string]any) (Result, error) {
	maxConnections := 10
	if mc, ok := params["max-connections"].(int); ok && mc > 0 {
		maxConnections = mc
	}
	rawRequests, _ := params["requests"].([]compositeEntry)

	sem := make(chan struct{}, maxConnections)
	var deps []DependentTiming
	var depsMu sync.Mutex

	var outerErr error
	err := compctx.WithScope(ctx, func(scoped context.Context) error {
		runCtx, cancel := context.WithCancel(scoped)
		defer cancel()

		var firstErr error
		var errOnce sync.Once
		fail := func(e error) {
			errOnce.Do(func() { firstErr = e; cancel() })
		}

		if err := c.runSequential(runCtx, clients, rawRequests, sem, &depsMu, &deps, fail); err != nil {
			fail(err)
		}
		return firstErr
	})
	outerErr = err

	return Result{Weight: 1, Unit: "ops", Success: outerErr == nil, DependentTimings: deps, Meta: map[string]any{}}, outerErr
}

// runSequential executes top-level entries (and entries inside one
// stream) in order; when an entry is itself a stream list, its siblings
// at the SAME level run concurrently with each other (fan-out), joined
// before the next sequential entry runs.
func (c *CompositeRunner) runSequential(ctx context.Context, clients map[string]clusterclient.Client, entries []compositeEntry, sem chan struct{}, depsMu *sync.Mutex, deps *[]DependentTiming, fail func(error)) error {
	for _, e := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if len(e.Stream) > 0 {
			if err := c.runConcurrentStreams(ctx, clients, e.Stream, sem, depsMu, deps, fail); err != nil {
				return err
			}
			continue
		}
		if err := c.runLeaf(ctx, clients, e, sem, depsMu, deps); err != nil {
			return err
		}
	}
	return nil
}

// runConcurrentStreams treats each entry as an independent stream
// running concurrently with its siblings; cancellation of one cancels
// the rest, per §5 ("Composite streams, on cancellation, also cancel
// pending child streams").
func (c *CompositeRunner) runConcurrentStreams(ctx context.Context, clients map[string]clusterclient.Client, streams []compositeEntry, sem chan struct{}, depsMu *sync.Mutex, deps *[]DependentTiming, fail func(error)) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(streams))
	for _, s := range streams {
		entries := s.Stream
		if entries == nil {
			entries = []compositeEntry{s}
		}
		wg.Add(1)
		go func(entries []compositeEntry) {
			defer wg.Done()
			if err := c.runSequential(streamCtx, clients, entries, sem, depsMu, deps, fail); err != nil {
				errCh <- err
				cancel()
			}
		}(entries)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		return err
	}
	return nil
}

func (c *CompositeRunner) runLeaf(ctx context.Context, clients map[string]clusterclient.Client, e compositeEntry, sem chan struct{}, depsMu *sync.Mutex, deps *[]DependentTiming) error {
	if !compositeWhitelist[e.OperationType] {
		return benchmarkerrors.WorkloadConfig("operation type %q is not permitted inside a composite", e.OperationType)
	}
	rr, err := c.registry.Lookup(e.OperationType)
	if err != nil {
		return err
	}

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	compositeInFlight.Record(ctx, 1)
	defer func() {
		compositeInFlight.Record(ctx, -1)
		<-sem
	}()

	start := time.Now()
	res, err := rr.Run(ctx, clients, e.Params)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	depsMu.Lock()
	*deps = append(*deps, DependentTiming{
		Operation:     e.OperationType,
		OperationType: e.OperationType,
		Latency:       elapsed.Seconds(),
		ServiceTime:   elapsed.Seconds(),
	})
	depsMu.Unlock()

	if !res.Success {
		return benchmarkerrors.Benchmark("composite sub-request %q failed", e.OperationType)
	}
	return nil
}
