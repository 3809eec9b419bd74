// Package feedback implements the redline adaptive client-count
// controller (component L): it watches the error queue and, optionally,
// per-node CPU usage, and scales the set of active clients up or down
// by flipping entries in the shared client-state flags the Async
// Executor consults every iteration.
package feedback

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/core/resilience"
	"github.com/opensearch-project/osbenchmark-go/internal/executor"
)

// State mirrors the four states of spec.md §4.8.
type State int

const (
	Neutral State = iota
	ScalingUp
	ScalingDown
	Sleep
)

func (s State) String() string {
	switch s {
	case ScalingUp:
		return "SCALING_UP"
	case ScalingDown:
		return "SCALING_DOWN"
	case Sleep:
		return "SLEEP"
	default:
		return "NEUTRAL"
	}
}

// Config recognizes the redline.* options of spec.md §6.
type Config struct {
	Enabled              bool
	MaxCPUUsage          float64
	CPUWindowSeconds     time.Duration
	ScaleUpInterval      time.Duration
	ScaleDownPercentage  float64
	ErrorQuietSeconds    time.Duration
	ErrorDebounceSeconds time.Duration
	SleepSeconds         time.Duration
}

func (c Config) withDefaults() Config {
	if c.CPUWindowSeconds == 0 {
		c.CPUWindowSeconds = 60 * time.Second
	}
	if c.ScaleDownPercentage == 0 {
		c.ScaleDownPercentage = 0.5
	}
	if c.ErrorDebounceSeconds == 0 {
		c.ErrorDebounceSeconds = 5 * time.Second
	}
	if c.SleepSeconds == 0 {
		c.SleepSeconds = c.ErrorDebounceSeconds
	}
	return c
}

// ErrCPUThresholdExceeded is enqueued into the error queue when a
// node's average CPU over the configured window breaches
// max_cpu_usage; per §4.8 step 2, a CPU breach is an error signal to
// the breaker, exactly like any other drained error.
var ErrCPUThresholdExceeded = errors.New("cpu_threshold_exceeded")

// CPUSource reports each node's instantaneous CPU usage; Actor folds
// these readings into its own per-node trailing-window average (see
// window.go) rather than trusting the source to pre-average.
type CPUSource interface {
	InstantaneousCPUPerNode(ctx context.Context) (map[string]float64, error)
}

// Actor is the redline controller for one benchmark run.
type Actor struct {
	cfg      Config
	states   *executor.SharedStates
	errors   executor.ErrorQueue
	cpu      CPUSource
	breaker  *resilience.CircuitBreaker
	smoother *resilience.HybridRateLimiter

	state              State
	lastScaleUpAt      time.Time
	lastErrorAt        time.Time
	lastScaleDownCount int

	cpuWindows map[string]*cpuWindow
}

// New constructs an Actor. The breaker is configured so that a single
// drained error trips it open within ErrorDebounceSeconds (the open
// state is SLEEP) and it half-opens after SleepSeconds (the half-open
// probe window is SCALING_UP), per the (expansion) grounding note.
// smoother is optional; when non-nil, every scale-up/scale-down resizes
// it to the new active-client count (§4.2 expansion) so the executor's
// throttle gate tracks the run's current client count within the
// window instead of only at the next schedule tick.
func New(cfg Config, states *executor.SharedStates, errQueue executor.ErrorQueue, cpu CPUSource, smoother *resilience.HybridRateLimiter) *Actor {
	cfg = cfg.withDefaults()
	breaker := resilience.NewCircuitBreakerAdaptive(
		cfg.ErrorDebounceSeconds, // window
		1,                        // buckets
		1,                        // minSamples
		0.1,                      // failureRateOpen: any single failure trips it
		cfg.SleepSeconds,         // halfOpenAfter
		1,                        // maxHalfOpenProbes
	)
	return &Actor{
		cfg:        cfg,
		states:     states,
		errors:     errQueue,
		cpu:        cpu,
		breaker:    breaker,
		smoother:   smoother,
		cpuWindows: make(map[string]*cpuWindow),
	}
}

func (a *Actor) State() State { return a.state }

// Tick runs one handle_state iteration. now is injected so the caller
// controls the clock in tests rather than relying on time.Now().
func (a *Actor) Tick(ctx context.Context, now time.Time) error {
	if !a.cfg.Enabled {
		return nil
	}

	a.checkCPU(ctx, now)

	errCount := a.drainErrors()
	if errCount > 0 {
		a.lastErrorAt = now
	}

	wasSleeping := a.state == Sleep

	if errCount > 0 {
		a.breaker.RecordResult(false)
	} else {
		a.breaker.RecordResult(true)
	}

	if !a.breaker.Allow() {
		if a.state != Sleep {
			a.scaleDown()
		}
		a.state = Sleep
		return nil
	}

	if wasSleeping {
		a.state = ScalingUp
		a.scaleUp(now)
		return nil
	}

	if errCount > 0 {
		a.state = ScalingDown
		a.scaleDown()
		return nil
	}

	quietLongEnough := !a.lastErrorAt.IsZero() && now.Sub(a.lastErrorAt) >= a.cfg.ErrorQuietSeconds
	quietLongEnough = quietLongEnough || a.lastErrorAt.IsZero()
	if a.lastScaleUpAt.IsZero() {
		a.lastScaleUpAt = now
	}
	readyToScaleUp := now.Sub(a.lastScaleUpAt) >= a.cfg.ScaleUpInterval
	if quietLongEnough && readyToScaleUp {
		a.state = ScalingUp
		a.scaleUp(now)
		return nil
	}

	a.state = Neutral
	return nil
}

func (a *Actor) drainErrors() int {
	if a.errors == nil {
		return 0
	}
	n := 0
	for {
		select {
		case <-a.errors:
			n++
		default:
			return n
		}
	}
}

func (a *Actor) checkCPU(ctx context.Context, now time.Time) {
	if a.cpu == nil || a.cfg.MaxCPUUsage <= 0 {
		return
	}
	usages, err := a.cpu.InstantaneousCPUPerNode(ctx)
	if err != nil {
		return
	}
	for node, usage := range usages {
		w, ok := a.cpuWindows[node]
		if !ok {
			w = newCPUWindow(a.cfg.CPUWindowSeconds)
			a.cpuWindows[node] = w
		}
		w.record(now, usage)

		avg, ok := w.average(now)
		if ok && avg > a.cfg.MaxCPUUsage {
			if a.errors != nil {
				a.errors.TrySend(ErrCPUThresholdExceeded)
			}
			return
		}
	}
}

// scaleDown marks ⌈percentage·active⌉ clients inactive, newest (highest
// client id) first.
func (a *Actor) scaleDown() {
	active := a.activeIDs()
	n := int(math.Ceil(a.cfg.ScaleDownPercentage * float64(len(active))))
	count := 0
	for i := len(active) - 1; i >= 0 && count < n; i-- {
		a.states.SetActive(active[i], false)
		count++
	}
	a.lastScaleDownCount = count
	if a.smoother != nil {
		a.smoother.Resize(a.TotalActiveClientCount())
	}
}

// scaleUp flips up to the last scale_down count's worth of inactive
// clients back to active, lowest client id first, mirroring the most
// recent scale_down (spec.md §6 names no explicit scale-up step size).
func (a *Actor) scaleUp(now time.Time) {
	n := a.lastScaleDownCount
	if n <= 0 {
		n = 1
	}
	count := 0
	for i := 0; i < a.states.Len() && count < n; i++ {
		if !a.states.Active(i) {
			a.states.SetActive(i, true)
			count++
		}
	}
	a.lastScaleUpAt = now
	if a.smoother != nil {
		a.smoother.Resize(a.TotalActiveClientCount())
	}
}

func (a *Actor) activeIDs() []int {
	var out []int
	for i := 0; i < a.states.Len(); i++ {
		if a.states.Active(i) {
			out = append(out, i)
		}
	}
	return out
}

// TotalActiveClientCount reports how many client slots are currently
// active.
func (a *Actor) TotalActiveClientCount() int {
	return len(a.activeIDs())
}
