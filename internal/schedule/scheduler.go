// Package schedule implements the pacing scheduler (component B) and
// the Schedule Handle (component E) that fuses a parameter source and a
// scheduler into a stream of timed request elements.
package schedule

import (
	"math"
	"math/rand/v2"
	"time"
)

// Scheduler decides when the next request for a client fires.
type Scheduler interface {
	BeforeRequest(now time.Time)
	AfterRequest(now time.Time, weight float64, unit string, meta map[string]any)
	Next(current time.Duration) time.Duration
}

// Deterministic paces requests at a fixed inter-arrival interval derived
// from target throughput and client count.
type Deterministic struct {
	InterArrival time.Duration
}

// NewDeterministic builds a scheduler pacing C clients to target
// throughput T (ops/s equivalent already resolved by ParseThroughput).
func NewDeterministic(targetThroughput float64, clients int) *Deterministic {
	if targetThroughput <= 0 || clients <= 0 {
		return &Deterministic{InterArrival: 0}
	}
	return &Deterministic{InterArrival: time.Duration(float64(clients) / targetThroughput * float64(time.Second))}
}

func (d *Deterministic) BeforeRequest(time.Time) {}
func (d *Deterministic) AfterRequest(time.Time, float64, string, map[string]any) {}
func (d *Deterministic) Next(current time.Duration) time.Duration { return current + d.InterArrival }

// Poisson draws inter-arrivals from an exponential distribution with
// rate lambda = T/C, matching the teacher's jittered-delay style
// (resilience.Retry's full-jitter sleep) generalized to a continuous
// arrival process instead of a single backoff.
type Poisson struct {
	Lambda float64 // events per second
	rng    *rand.Rand
}

func NewPoisson(targetThroughput float64, clients int) *Poisson {
	lambda := 0.0
	if clients > 0 {
		lambda = targetThroughput / float64(clients)
	}
	return &Poisson{Lambda: lambda, rng: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))}
}

func (p *Poisson) BeforeRequest(time.Time) {}
func (p *Poisson) AfterRequest(time.Time, float64, string, map[string]any) {}
func (p *Poisson) Next(current time.Duration) time.Duration {
	if p.Lambda <= 0 {
		return current
	}
	u := p.rng.Float64()
	if u <= 0 {
		u = 1e-9
	}
	interArrival := -1.0 / p.Lambda * math.Log(u)
	return current + time.Duration(interArrival*float64(time.Second))
}

// Unthrottled fires the next request immediately after the current one.
type Unthrottled struct{}

func (Unthrottled) BeforeRequest(time.Time) {}
func (Unthrottled) AfterRequest(time.Time, float64, string, map[string]any) {}
func (Unthrottled) Next(current time.Duration) time.Duration { return current }
