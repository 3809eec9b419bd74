// Package transport implements the point-to-point message passing
// between Coordinator and Worker processes named in spec.md §1,
// concretized over NATS subjects (internal/core/natsctx), with an
// in-process channel-backed implementation for the standalone
// single-process mode and tests.
package transport

import (
	"context"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/coordinator"
)

// Arrival is the wire form of one worker's joinpoint_reached message.
type Arrival struct {
	WorkerID  string    `json:"worker_id"`
	Timestamp time.Time `json:"timestamp"`
	JoinID    int       `json:"join_id"`
}

// Subscription is an active subject subscription; Unsubscribe releases
// it.
type Subscription interface {
	Unsubscribe() error
}

// Transport is the coordinator/worker rendezvous channel for one
// benchmark run, keyed by runID so multiple runs can share a broker
// connection without cross-talk.
type Transport interface {
	PublishJoinPointReached(ctx context.Context, runID string, arrival Arrival) error
	SubscribeJoinPointReached(runID string, handler func(Arrival)) (Subscription, error)

	PublishDriveAt(ctx context.Context, runID string, nextStepStart time.Time) error
	SubscribeDriveAt(runID string, handler func(time.Time)) (Subscription, error)

	PublishCompleteCurrentTask(ctx context.Context, runID string) error
	SubscribeCompleteCurrentTask(runID string, handler func()) (Subscription, error)
}

// CoordinatorBroadcaster adapts a Transport into coordinator.Broadcaster
// for one run.
type CoordinatorBroadcaster struct {
	Transport Transport
	RunID     string
}

func (b CoordinatorBroadcaster) CompleteCurrentTask(ctx context.Context) error {
	return b.Transport.PublishCompleteCurrentTask(ctx, b.RunID)
}

func (b CoordinatorBroadcaster) DriveAt(ctx context.Context, nextStepStart time.Time) error {
	return b.Transport.PublishDriveAt(ctx, b.RunID, nextStepStart)
}

var _ coordinator.Broadcaster = CoordinatorBroadcaster{}

// Subject naming per the expansion: each worker publishes its own
// arrival on a worker-scoped subject; the coordinator subscribes once
// per run on the single-token wildcard to receive every worker's
// arrivals. drive_at/complete_current_task are coordinator->worker
// broadcasts on a single shared subject per run.
func joinpointPublishSubject(runID, workerID string) string {
	return "bench." + runID + ".worker." + workerID + ".joinpoint"
}
func joinpointSubscribeSubject(runID string) string { return "bench." + runID + ".worker.*.joinpoint" }
func driveSubject(runID string) string              { return "bench." + runID + ".coordinator.drive" }
func completeSubject(runID string) string           { return "bench." + runID + ".coordinator.complete" }
