package transport

import (
	"context"
	"encoding/json"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/opensearch-project/osbenchmark-go/internal/core/natsctx"
)

// NatsTransport is the cross-process Transport, grounded on
// internal/core/natsctx's trace-propagating publish/subscribe helpers.
type NatsTransport struct {
	conn     *nats.Conn
	workerID string
}

// NewNatsTransport wraps an already-connected *nats.Conn. workerID is
// only used to scope this process's own joinpoint-publish subject; it
// is ignored by the coordinator side (which always subscribes on the
// wildcard).
func NewNatsTransport(conn *nats.Conn, workerID string) *NatsTransport {
	return &NatsTransport{conn: conn, workerID: workerID}
}

func (t *NatsTransport) PublishJoinPointReached(ctx context.Context, runID string, arrival Arrival) error {
	data, err := json.Marshal(arrival)
	if err != nil {
		return err
	}
	return natsctx.Publish(ctx, t.conn, joinpointPublishSubject(runID, t.workerID), data)
}

func (t *NatsTransport) SubscribeJoinPointReached(runID string, handler func(Arrival)) (Subscription, error) {
	sub, err := natsctx.Subscribe(t.conn, joinpointSubscribeSubject(runID), func(ctx context.Context, m *nats.Msg) {
		var a Arrival
		if err := json.Unmarshal(m.Data, &a); err != nil {
			return
		}
		handler(a)
	})
	if err != nil {
		return nil, err
	}
	return natsSubscription{sub}, nil
}

func (t *NatsTransport) PublishDriveAt(ctx context.Context, runID string, nextStepStart time.Time) error {
	data, err := json.Marshal(nextStepStart)
	if err != nil {
		return err
	}
	return natsctx.Publish(ctx, t.conn, driveSubject(runID), data)
}

func (t *NatsTransport) SubscribeDriveAt(runID string, handler func(time.Time)) (Subscription, error) {
	sub, err := natsctx.Subscribe(t.conn, driveSubject(runID), func(ctx context.Context, m *nats.Msg) {
		var ts time.Time
		if err := json.Unmarshal(m.Data, &ts); err != nil {
			return
		}
		handler(ts)
	})
	if err != nil {
		return nil, err
	}
	return natsSubscription{sub}, nil
}

func (t *NatsTransport) PublishCompleteCurrentTask(ctx context.Context, runID string) error {
	return natsctx.Publish(ctx, t.conn, completeSubject(runID), nil)
}

func (t *NatsTransport) SubscribeCompleteCurrentTask(runID string, handler func()) (Subscription, error) {
	sub, err := natsctx.Subscribe(t.conn, completeSubject(runID), func(ctx context.Context, m *nats.Msg) {
		handler()
	})
	if err != nil {
		return nil, err
	}
	return natsSubscription{sub}, nil
}

type natsSubscription struct{ sub *nats.Subscription }

func (s natsSubscription) Unsubscribe() error { return s.sub.Unsubscribe() }

var _ Transport = (*NatsTransport)(nil)
