// Package sampler buffers raw per-request samples and, at task
// completion, converts them into metrics-store records.
package sampler

import (
	"sync"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/model"
)

// Sampler is an append-only, thread-safe buffer of raw samples,
// anchored to a start timestamp used to compute relative times.
// ProfileMetricsSampler (spec.md §4.6) is the same type constructed
// with profile=true rather than a distinct type, since its only
// documented difference from Sampler is the gating flag.
type Sampler struct {
	mu             sync.Mutex
	startTimestamp time.Time
	samples        []model.Sample
	profile        bool
}

func New() *Sampler {
	return &Sampler{startTimestamp: time.Now()}
}

// NewProfileSampler returns a Sampler gated as the profile-metrics
// collector; callers check Profile() before invoking Add for profiling
// samples so that profiling can be disabled without a type switch.
func NewProfileSampler() *Sampler {
	return &Sampler{startTimestamp: time.Now(), profile: true}
}

func (s *Sampler) Profile() bool { return s.profile }

func (s *Sampler) StartTimestamp() time.Time { return s.startTimestamp }

// Add appends one raw sample, stamping RelativeTime from the start
// timestamp if the caller left it unset.
func (s *Sampler) Add(sample model.Sample) {
	if sample.RelativeTime == 0 {
		sample.RelativeTime = sample.AbsoluteTime.Sub(s.startTimestamp)
	}
	s.mu.Lock()
	s.samples = append(s.samples, sample)
	s.mu.Unlock()
}

// Drain returns and clears everything buffered so far.
func (s *Sampler) Drain() []model.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.samples
	s.samples = nil
	return out
}

// Len reports the number of buffered samples without draining them.
func (s *Sampler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}
