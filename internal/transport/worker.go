package transport

import (
	"context"
	"time"
)

// WorkerLink is a worker process's view of one run's rendezvous
// channel: report arrivals, get notified of drive_at/complete_current_task.
type WorkerLink struct {
	transport Transport
	runID     string
	workerID  string
}

func NewWorkerLink(t Transport, runID, workerID string) *WorkerLink {
	return &WorkerLink{transport: t, runID: runID, workerID: workerID}
}

func (w *WorkerLink) ReportJoinPointReached(ctx context.Context, joinID int, now time.Time) error {
	return w.transport.PublishJoinPointReached(ctx, w.runID, Arrival{
		WorkerID:  w.workerID,
		Timestamp: now,
		JoinID:    joinID,
	})
}

func (w *WorkerLink) OnDriveAt(handler func(time.Time)) (Subscription, error) {
	return w.transport.SubscribeDriveAt(w.runID, handler)
}

func (w *WorkerLink) OnCompleteCurrentTask(handler func()) (Subscription, error) {
	return w.transport.SubscribeCompleteCurrentTask(w.runID, handler)
}
