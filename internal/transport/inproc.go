package transport

import (
	"context"
	"sync"
	"time"
)

// InProcTransport is a plain-channel Transport for the standalone
// single-process mode and tests, so the coordinator/worker rendezvous
// logic is exercised without a live NATS broker.
type InProcTransport struct {
	mu sync.Mutex

	joinpointSubs map[string][]func(Arrival)
	driveSubs     map[string][]func(time.Time)
	completeSubs  map[string][]func()
}

func NewInProcTransport() *InProcTransport {
	return &InProcTransport{
		joinpointSubs: map[string][]func(Arrival){},
		driveSubs:     map[string][]func(time.Time){},
		completeSubs:  map[string][]func(){},
	}
}

type inprocSubscription struct {
	unsubscribe func()
}

func (s inprocSubscription) Unsubscribe() error {
	s.unsubscribe()
	return nil
}

func (t *InProcTransport) PublishJoinPointReached(_ context.Context, runID string, arrival Arrival) error {
	t.mu.Lock()
	handlers := append([]func(Arrival){}, t.joinpointSubs[runID]...)
	t.mu.Unlock()
	for _, h := range handlers {
		h(arrival)
	}
	return nil
}

func (t *InProcTransport) SubscribeJoinPointReached(runID string, handler func(Arrival)) (Subscription, error) {
	t.mu.Lock()
	t.joinpointSubs[runID] = append(t.joinpointSubs[runID], handler)
	idx := len(t.joinpointSubs[runID]) - 1
	t.mu.Unlock()
	return inprocSubscription{unsubscribe: func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if idx < len(t.joinpointSubs[runID]) {
			t.joinpointSubs[runID][idx] = func(Arrival) {}
		}
	}}, nil
}

func (t *InProcTransport) PublishDriveAt(_ context.Context, runID string, nextStepStart time.Time) error {
	t.mu.Lock()
	handlers := append([]func(time.Time){}, t.driveSubs[runID]...)
	t.mu.Unlock()
	for _, h := range handlers {
		h(nextStepStart)
	}
	return nil
}

func (t *InProcTransport) SubscribeDriveAt(runID string, handler func(time.Time)) (Subscription, error) {
	t.mu.Lock()
	t.driveSubs[runID] = append(t.driveSubs[runID], handler)
	idx := len(t.driveSubs[runID]) - 1
	t.mu.Unlock()
	return inprocSubscription{unsubscribe: func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if idx < len(t.driveSubs[runID]) {
			t.driveSubs[runID][idx] = func(time.Time) {}
		}
	}}, nil
}

func (t *InProcTransport) PublishCompleteCurrentTask(_ context.Context, runID string) error {
	t.mu.Lock()
	handlers := append([]func(){}, t.completeSubs[runID]...)
	t.mu.Unlock()
	for _, h := range handlers {
		h()
	}
	return nil
}

func (t *InProcTransport) SubscribeCompleteCurrentTask(runID string, handler func()) (Subscription, error) {
	t.mu.Lock()
	t.completeSubs[runID] = append(t.completeSubs[runID], handler)
	idx := len(t.completeSubs[runID]) - 1
	t.mu.Unlock()
	return inprocSubscription{unsubscribe: func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if idx < len(t.completeSubs[runID]) {
			t.completeSubs[runID][idx] = func() {}
		}
	}}, nil
}

var _ Transport = (*InProcTransport)(nil)
