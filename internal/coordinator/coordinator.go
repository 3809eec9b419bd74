// Package coordinator implements the join-point rendezvous between the
// Coordinator and its Workers (component J/K): tracking which workers
// have reached the current step's join point, broadcasting
// complete_current_task and drive_at, and firing on_task_finished.
package coordinator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/opensearch-project/osbenchmark-go/internal/model"
)

var meter = otel.Meter("osbench-coordinator")
var stepsCounter, _ = meter.Int64Counter("osbench_coordinator_steps_completed_total")

// Arrival is one joinpoint_reached(worker_id, ts, task_allocs) message.
type Arrival struct {
	WorkerID   string
	Timestamp  time.Time
	TaskAllocs []model.TaskAllocation
}

// Broadcaster is how the Coordinator reaches every Worker; callers
// supply an implementation backed by internal/transport.
type Broadcaster interface {
	CompleteCurrentTask(ctx context.Context) error
	DriveAt(ctx context.Context, nextStepStart time.Time) error
}

// Coordinator owns workers_completed_current_step and current_step per
// spec.md §4.7.
type Coordinator struct {
	mu             sync.Mutex
	totalWorkers   int
	currentStep    int
	arrived        map[string]struct{}
	completeSent   bool
	broadcaster    Broadcaster
	onTaskFinished func(ctx context.Context, jp *model.JoinPoint) error
}

func New(totalWorkers int, broadcaster Broadcaster, onTaskFinished func(ctx context.Context, jp *model.JoinPoint) error) *Coordinator {
	return &Coordinator{
		totalWorkers:   totalWorkers,
		arrived:        make(map[string]struct{}, totalWorkers),
		broadcaster:    broadcaster,
		onTaskFinished: onTaskFinished,
	}
}

func (c *Coordinator) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentStep
}

// JoinPointReached handles one worker's arrival at jp. nextStepStart is
// the drive_at time to broadcast once every worker has arrived.
func (c *Coordinator) JoinPointReached(ctx context.Context, jp *model.JoinPoint, arrival Arrival, nextStepStart time.Time) error {
	c.mu.Lock()
	firstArrival := len(c.arrived) == 0
	c.arrived[arrival.WorkerID] = struct{}{}
	arrivedCount := len(c.arrived)
	shouldSendComplete := firstArrival && jp.PrecedingTaskCompletesParent && !c.completeSent
	if shouldSendComplete {
		c.completeSent = true
	}
	c.mu.Unlock()

	if shouldSendComplete && c.broadcaster != nil {
		if err := c.broadcaster.CompleteCurrentTask(ctx); err != nil {
			return err
		}
	}

	if arrivedCount < c.totalWorkers {
		return nil
	}

	c.mu.Lock()
	c.currentStep++
	c.arrived = make(map[string]struct{}, c.totalWorkers)
	c.completeSent = false
	c.mu.Unlock()

	stepsCounter.Add(ctx, 1)

	if c.onTaskFinished != nil {
		if err := c.onTaskFinished(ctx, jp); err != nil {
			return err
		}
	}
	if c.broadcaster != nil {
		return c.broadcaster.DriveAt(ctx, nextStepStart)
	}
	return nil
}
