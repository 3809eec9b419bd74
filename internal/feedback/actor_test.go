package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/executor"
)

var errBoom = errors.New("boom")

func TestOneErrorTripsSleepAndHalvesActiveClients(t *testing.T) {
	states := executor.NewSharedStates(4)
	errs := executor.NewErrorQueue(4)
	errs.TrySend(errBoom)

	a := New(Config{Enabled: true}, states, errs, nil, nil)

	if err := a.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if a.State() != Sleep {
		t.Fatalf("expected SLEEP, got %s", a.State())
	}
	if got := a.TotalActiveClientCount(); got != 2 {
		t.Fatalf("expected 2 active clients after scale-down, got %d", got)
	}
}

func TestNeutralWithNoErrorsAndNoCPUSource(t *testing.T) {
	states := executor.NewSharedStates(4)
	errs := executor.NewErrorQueue(4)

	a := New(Config{Enabled: true, ScaleUpInterval: time.Hour}, states, errs, nil, nil)

	if err := a.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if a.State() != Neutral {
		t.Fatalf("expected NEUTRAL, got %s", a.State())
	}
	if got := a.TotalActiveClientCount(); got != 4 {
		t.Fatalf("expected all 4 clients still active, got %d", got)
	}
}

func TestDisabledActorNeverTicks(t *testing.T) {
	states := executor.NewSharedStates(4)
	errs := executor.NewErrorQueue(4)
	errs.TrySend(errBoom)

	a := New(Config{Enabled: false}, states, errs, nil, nil)

	if err := a.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if a.State() != Neutral {
		t.Fatalf("expected disabled actor to report NEUTRAL, got %s", a.State())
	}
	if got := a.TotalActiveClientCount(); got != 4 {
		t.Fatalf("disabled actor must not scale clients, got %d active", got)
	}
}
