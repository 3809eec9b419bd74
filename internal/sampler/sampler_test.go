package sampler

import (
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/model"
)

func TestDrainedSamplesAreMonotone(t *testing.T) {
	s := New()
	base := s.StartTimestamp()
	for i := 0; i < 5; i++ {
		s.Add(model.Sample{
			ClientID:     0,
			AbsoluteTime: base.Add(time.Duration(i) * time.Millisecond),
		})
	}

	samples := s.Drain()
	if len(samples) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].AbsoluteTime.Before(samples[i-1].AbsoluteTime) {
			t.Fatalf("sample %d absolute_time went backwards", i)
		}
		if samples[i].RelativeTime < samples[i-1].RelativeTime {
			t.Fatalf("sample %d relative_time went backwards", i)
		}
	}
}

func TestDrainClearsBuffer(t *testing.T) {
	s := New()
	s.Add(model.Sample{AbsoluteTime: time.Now()})
	if s.Len() != 1 {
		t.Fatalf("expected 1 buffered sample, got %d", s.Len())
	}
	_ = s.Drain()
	if s.Len() != 0 {
		t.Fatalf("expected buffer cleared after drain, got %d", s.Len())
	}
}

func TestProfileSamplerIsGated(t *testing.T) {
	if New().Profile() {
		t.Fatalf("plain sampler must not report profile=true")
	}
	if !NewProfileSampler().Profile() {
		t.Fatalf("profile sampler must report profile=true")
	}
}
