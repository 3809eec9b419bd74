package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// RunStatus is the lifecycle state of one tracked benchmark run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// trackedRun pairs a run's cancel func with its last known status.
type trackedRun struct {
	cancel       context.CancelFunc
	workloadName string
	status       RunStatus
	cancelReason string
	cancelledAt  time.Time
	endedAt      time.Time
}

// RunTracker lets a coordinator process cancel an in-flight benchmark
// run by run-id from an external request (CLI Ctrl-C forwarded over
// HTTP, an operator-initiated abort) without tearing down the process.
type RunTracker struct {
	mu   sync.RWMutex
	runs map[string]*trackedRun

	cancellations metric.Int64Counter
	tracer        trace.Tracer
}

func NewRunTracker() *RunTracker {
	meter := otel.Meter("osbench-coordinator")
	cancellations, _ := meter.Int64Counter("osbench_run_cancellations_total")
	return &RunTracker{
		runs:          make(map[string]*trackedRun),
		cancellations: cancellations,
		tracer:        otel.Tracer("osbench-coordinator-runcancel"),
	}
}

// Register starts tracking runID as running, attached to cancel.
func (rt *RunTracker) Register(runID, workloadName string, cancel context.CancelFunc) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.runs[runID] = &trackedRun{cancel: cancel, workloadName: workloadName, status: RunRunning}
}

// Cancel aborts runID's context and marks it cancelled.
func (rt *RunTracker) Cancel(ctx context.Context, runID, reason string) error {
	ctx, span := rt.tracer.Start(ctx, "runcancel.cancel",
		trace.WithAttributes(attribute.String("run_id", runID), attribute.String("reason", reason)))
	defer span.End()

	rt.mu.Lock()
	defer rt.mu.Unlock()

	run, ok := rt.runs[runID]
	if !ok {
		return fmt.Errorf("run not found or already finished: %s", runID)
	}
	if run.status != RunRunning {
		return fmt.Errorf("run is not running: %s (status: %s)", runID, run.status)
	}

	run.cancel()
	run.status = RunCancelled
	run.cancelReason = reason
	run.cancelledAt = time.Now()

	rt.cancellations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workload", run.workloadName),
		attribute.String("reason", reason),
	))
	span.AddEvent("run_cancelled")
	return nil
}

// Complete records runID's terminal status once its executor returns.
func (rt *RunTracker) Complete(runID string, status RunStatus) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if run, ok := rt.runs[runID]; ok {
		run.status = status
		run.endedAt = time.Now()
	}
}

func (rt *RunTracker) Status(runID string) (RunStatus, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	run, ok := rt.runs[runID]
	if !ok {
		return "", false
	}
	return run.status, true
}

// RunSummary is the externally visible view of one tracked run.
type RunSummary struct {
	RunID        string
	WorkloadName string
	Status       RunStatus
}

func (rt *RunTracker) ListActive() []RunSummary {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	active := make([]RunSummary, 0)
	for id, run := range rt.runs {
		if run.status == RunRunning {
			active = append(active, RunSummary{RunID: id, WorkloadName: run.workloadName, Status: run.status})
		}
	}
	return active
}

// Cleanup drops terminal runs older than retentionPeriod, so long-lived
// coordinator processes don't accumulate history forever.
func (rt *RunTracker) Cleanup(retentionPeriod time.Duration) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	now := time.Now()
	cleaned := 0
	for runID, run := range rt.runs {
		if run.status == RunRunning {
			continue
		}
		completionTime := run.endedAt
		if run.status == RunCancelled {
			completionTime = run.cancelledAt
		}
		if !completionTime.IsZero() && now.Sub(completionTime) > retentionPeriod {
			delete(rt.runs, runID)
			cleaned++
		}
	}
	return cleaned
}

// StartCleanupLoop runs Cleanup on a timer until ctx is cancelled.
func (rt *RunTracker) StartCleanupLoop(ctx context.Context, interval, retentionPeriod time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.Cleanup(retentionPeriod)
		}
	}
}

// CancelAll aborts every running run, for process shutdown.
func (rt *RunTracker) CancelAll(ctx context.Context, reason string) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	cancelled := 0
	for runID, run := range rt.runs {
		if run.status == RunRunning {
			run.cancel()
			run.status = RunCancelled
			run.cancelReason = reason
			run.cancelledAt = time.Now()
			rt.cancellations.Add(ctx, 1, metric.WithAttributes(
				attribute.String("workload", run.workloadName),
				attribute.String("reason", reason),
			))
			cancelled++
		}
		delete(rt.runs, runID)
	}
	return cancelled
}
