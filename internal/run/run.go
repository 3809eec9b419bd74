// Package run wires the Allocator, Schedule Handles, Async Executor,
// Coordinator, and Sample Postprocessor into one end-to-end benchmark
// run, the single-process mode the teacher's root main.go served for
// its toy DAG workflow, now driving a real test-procedure schedule.
//
// Run drives a whole test procedure inside one process (coordinator
// and every worker client sharing an in-process Transport). For the
// distributed Coordinator/Worker split named in spec.md §1, see
// RunCoordinatorSide and RunClient, which the same allocation and
// step-signal plumbing backs over a wire Transport (internal/transport's
// NatsTransport).
package run

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/alloc"
	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/coordinator"
	"github.com/opensearch-project/osbenchmark-go/internal/core/resilience"
	"github.com/opensearch-project/osbenchmark-go/internal/executor"
	"github.com/opensearch-project/osbenchmark-go/internal/feedback"
	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/paramsource"
	"github.com/opensearch-project/osbenchmark-go/internal/runner"
	"github.com/opensearch-project/osbenchmark-go/internal/sampler"
	"github.com/opensearch-project/osbenchmark-go/internal/schedule"
	"github.com/opensearch-project/osbenchmark-go/internal/store"
	"github.com/opensearch-project/osbenchmark-go/internal/transport"
)

// Config describes everything needed to drive one test procedure to
// completion in a single process.
type Config struct {
	RunID         string
	TestProcedure *model.TestProcedure
	Registry      *runner.Registry
	Clients       map[string]clusterclient.Client
	Store         store.Store

	// ParamSourceFor builds the unpartitioned parameter source for a
	// task; Run partitions it per client via Source.Partition.
	ParamSourceFor func(task *model.Task) paramsource.Source
	// SchedulerFor builds the pacing scheduler for a task; defaults to
	// schedule.Unthrottled{} when nil.
	SchedulerFor func(task *model.Task) schedule.Scheduler

	GlobalOnError    model.OnError
	BaseTimeout      time.Duration
	DownsampleFactor int
	Feedback         feedback.Config
}

// Result is the summary handed back once every client has drained its
// allocation.
type Result struct {
	NumClients   int
	SamplesTaken int
}

// Run executes every step of cfg.TestProcedure.Schedule to completion
// with the coordinator and every worker client in this process.
func Run(ctx context.Context, cfg Config) (Result, error) {
	allocation := alloc.Allocate(cfg.TestProcedure.Schedule)

	tr := transport.NewInProcTransport()
	sharedStates := executor.NewSharedStates(allocation.NumClients)
	errQueue := executor.NewErrorQueue(allocation.NumClients * 4)
	samp := sampler.New()
	profileSamp := sampler.NewProfileSampler()

	signals := NewStepSignals(len(cfg.TestProcedure.Schedule))

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	coordSub, err := RunCoordinatorSide(runCtx, CoordinatorConfig{
		RunID:      cfg.RunID,
		Transport:  tr,
		Allocation: allocation,
		Signals:    signals,
		OnAbort:    cancelRun,
	})
	if err != nil {
		return Result{}, err
	}
	defer coordSub.Unsubscribe()

	// Sized to the whole run's client count at first; the feedback
	// Actor's calls to HybridRateLimiter.Resize keep it tracking the active count as redline scales clients up
	// or down (§4.2 expansion).
	var smoother *resilience.HybridRateLimiter
	if cfg.Feedback.Enabled {
		smoother = resilience.NewHybridRateLimiter(allocation.NumClients, float64(allocation.NumClients), allocation.NumClients*2, 10*time.Millisecond)
		defer smoother.Stop()
	}

	feedbackActor := feedback.New(cfg.Feedback, sharedStates, errQueue, nil, smoother)
	stopFeedback := make(chan struct{})
	if cfg.Feedback.Enabled {
		go runFeedbackLoop(runCtx, feedbackActor, stopFeedback)
	} else {
		close(stopFeedback)
	}

	var wg sync.WaitGroup
	clientErrs := make([]error, allocation.NumClients)
	for c := 0; c < allocation.NumClients; c++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			clientErrs[clientID] = RunClient(runCtx, ClientConfig{
				RunID:          cfg.RunID,
				Transport:      tr,
				ClientID:       clientID,
				Entries:        allocation.Allocations[clientID],
				Signals:        signals,
				Registry:       cfg.Registry,
				Clients:        cfg.Clients,
				Sampler:        samp,
				ProfileSampler: profileSamp,
				SharedStates:   sharedStates,
				Errors:         errQueue,
				OnError:        cfg.GlobalOnError,
				BaseTimeout:    cfg.BaseTimeout,
				ParamSourceFor: cfg.ParamSourceFor,
				SchedulerFor:   cfg.SchedulerFor,
				Smoother:       smoother,
			})
		}(c)
	}
	wg.Wait()
	close(stopFeedback)

	for _, e := range clientErrs {
		if e != nil {
			return Result{}, e
		}
	}

	post := sampler.NewPostprocessor(cfg.Store, cfg.DownsampleFactor)
	drained := samp.Drain()
	if err := post.Process(drained); err != nil {
		return Result{}, fmt.Errorf("postprocess samples: %w", err)
	}

	return Result{NumClients: allocation.NumClients, SamplesTaken: len(drained)}, nil
}

func runFeedbackLoop(ctx context.Context, actor *feedback.Actor, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case now := <-ticker.C:
			if err := actor.Tick(ctx, now); err != nil {
				slog.Error("feedback tick failed", "error", err)
			}
		}
	}
}

// NewStepSignals allocates one CompleteSignal per schedule step, shared
// by RunCoordinatorSide (which flips them) and RunClient (which reads
// them to decide whether a non-completing task should stop early).
func NewStepSignals(numSteps int) []*executor.CompleteSignal {
	signals := make([]*executor.CompleteSignal, numSteps)
	for i := range signals {
		signals[i] = &executor.CompleteSignal{}
	}
	return signals
}

// CoordinatorConfig configures the rendezvous side of one run.
type CoordinatorConfig struct {
	RunID      string
	Transport  transport.Transport
	Allocation *alloc.Result
	Signals    []*executor.CompleteSignal
	// OnAbort is invoked if a join-point rendezvous fails; callers
	// typically cancel the run's context from here.
	OnAbort func()
}

// RunCoordinatorSide subscribes to join-point arrivals for one run and
// drives the Coordinator's rendezvous bookkeeping (component J/K),
// flipping this run's step CompleteSignals as each step finishes. The
// returned Subscription must be unsubscribed when the run ends.
func RunCoordinatorSide(ctx context.Context, cfg CoordinatorConfig) (transport.Subscription, error) {
	broadcaster := transport.CoordinatorBroadcaster{Transport: cfg.Transport, RunID: cfg.RunID}
	var stepMu sync.Mutex
	onTaskFinished := func(ctx context.Context, jp *model.JoinPoint) error {
		// Join point k+1 closes step k; join point 0 precedes every step.
		stepMu.Lock()
		if step := jp.ID - 1; step >= 0 && step < len(cfg.Signals) {
			cfg.Signals[step].Set()
		}
		stepMu.Unlock()
		slog.Info("test procedure step finished", "run_id", cfg.RunID, "join_point", jp.ID)
		return nil
	}

	coord := coordinator.New(cfg.Allocation.NumClients, broadcaster, onTaskFinished)
	return cfg.Transport.SubscribeJoinPointReached(cfg.RunID, func(a transport.Arrival) {
		jp := cfg.Allocation.JoinPoints[a.JoinID]
		nextStepStart := time.Now().Add(50 * time.Millisecond)
		arrival := coordinator.Arrival{WorkerID: a.WorkerID, Timestamp: a.Timestamp}
		if err := coord.JoinPointReached(ctx, jp, arrival, nextStepStart); err != nil {
			slog.Error("join point rendezvous failed", "run_id", cfg.RunID, "error", err)
			if cfg.OnAbort != nil {
				cfg.OnAbort()
			}
		}
	})
}

// WatchCompleteBroadcasts subscribes a standalone worker process to this
// run's complete_current_task broadcasts and advances a local step
// cursor, flipping cfg.Signals in lockstep with the coordinator process
// that owns RunCoordinatorSide. A worker process that never runs
// RunCoordinatorSide itself (every real Worker, as opposed to the
// single-process Run mode) must call this before starting its
// RunClient goroutines so CompletesParent=false tasks still stop when
// the rest of the run's clients finish the step.
func WatchCompleteBroadcasts(tr transport.Transport, runID string, signals []*executor.CompleteSignal) (transport.Subscription, error) {
	currentStep := 0
	var stepMu sync.Mutex
	return tr.SubscribeCompleteCurrentTask(runID, func() {
		stepMu.Lock()
		defer stepMu.Unlock()
		if currentStep < len(signals) {
			signals[currentStep].Set()
			currentStep++
		}
	})
}

// ClientConfig configures one client's walk over its allocation.
type ClientConfig struct {
	RunID          string
	Transport      transport.Transport
	ClientID       int
	Entries        []model.AllocationEntry
	Signals        []*executor.CompleteSignal
	Registry       *runner.Registry
	Clients        map[string]clusterclient.Client
	Sampler        *sampler.Sampler
	ProfileSampler *sampler.Sampler
	SharedStates   *executor.SharedStates
	Errors         executor.ErrorQueue
	OnError        model.OnError
	BaseTimeout    time.Duration
	ParamSourceFor func(task *model.Task) paramsource.Source
	SchedulerFor   func(task *model.Task) schedule.Scheduler
	Smoother       *resilience.HybridRateLimiter
}

// RunClient walks one client's flat join/task allocation list in
// order, reporting every join point it reaches over cfg.Transport and
// running every task it is assigned to completion or until that step's
// complete signal fires. It is the per-client unit both the
// single-process Run and a standalone Worker process call into.
func RunClient(ctx context.Context, cfg ClientConfig) error {
	workerID := fmt.Sprintf("client-%d", cfg.ClientID)
	link := transport.NewWorkerLink(cfg.Transport, cfg.RunID, workerID)

	driveCh := make(chan time.Time, 1)
	driveSub, err := link.OnDriveAt(func(t time.Time) {
		select {
		case driveCh <- t:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe drive_at: %w", err)
	}
	defer driveSub.Unsubscribe()

	stepIdx := 0
	for _, entry := range cfg.Entries {
		if entry.Join != nil {
			if err := link.ReportJoinPointReached(ctx, entry.Join.ID, time.Now()); err != nil {
				return fmt.Errorf("report join point: %w", err)
			}
			select {
			case <-driveCh:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if entry.Idle() {
			stepIdx++
			continue
		}

		ta := entry.Task
		task := ta.Task
		r, err := cfg.Registry.Lookup(task.Operation.Type)
		if err != nil {
			return fmt.Errorf("lookup runner for %q: %w", task.Operation.Type, err)
		}

		var full paramsource.Source
		if cfg.ParamSourceFor != nil {
			full = cfg.ParamSourceFor(task)
		} else {
			full = paramsource.NewStatic([]map[string]any{task.Params}, true)
		}
		src := full.Partition(ta.ClientIndexInTask, ta.TotalClientsOfTask)

		var sched schedule.Scheduler
		if cfg.SchedulerFor != nil {
			sched = cfg.SchedulerFor(task)
		} else {
			sched = &schedule.Unthrottled{}
		}

		handle := schedule.New(task, src, sched, r, ta.ClientIndexInTask, ta.TotalClientsOfTask)

		var complete *executor.CompleteSignal
		if stepIdx < len(cfg.Signals) {
			complete = cfg.Signals[stepIdx]
		}

		execCfg := executor.Config{
			ClientID:       cfg.ClientID,
			Task:           task,
			Handle:         handle,
			Clients:        cfg.Clients,
			Sampler:        cfg.Sampler,
			ProfileSampler: cfg.ProfileSampler,
			Complete:       complete,
			SharedStates:   cfg.SharedStates,
			Errors:         cfg.Errors,
			OnError:        task.ErrorBehavior(cfg.OnError),
			BaseTimeout:    cfg.BaseTimeout,
			Smoother:       cfg.Smoother,
		}
		if err := executor.Run(ctx, execCfg); err != nil {
			return err
		}
		stepIdx++
	}
	return nil
}
