package sampler

import (
	"testing"
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/store"
)

func TestPostprocessorDownsamplesLatencyButKeepsEveryThroughputSample(t *testing.T) {
	mem := store.NewMemoryStore()
	p := NewPostprocessor(mem, 2)

	base := time.Now()
	samples := make([]model.Sample, 4)
	for i := range samples {
		samples[i] = model.Sample{
			ClientID:     0,
			AbsoluteTime: base.Add(time.Duration(i) * time.Second),
			TotalOps:     1,
			TotalOpsUnit: "ops",
		}
	}

	if err := p.Process(samples); err != nil {
		t.Fatalf("process: %v", err)
	}

	records := mem.Records()
	var latencyCount, throughputCount int
	for _, r := range records {
		switch r.Name {
		case "latency":
			latencyCount++
		case "throughput":
			throughputCount++
		}
	}
	if latencyCount != 2 {
		t.Fatalf("expected 2 downsampled latency-family records (every 2nd of 4), got %d", latencyCount)
	}
	if throughputCount != 4 {
		t.Fatalf("expected a throughput record for every sample, got %d", throughputCount)
	}
}

func TestPostprocessorPrefersThroughputOverride(t *testing.T) {
	mem := store.NewMemoryStore()
	p := NewPostprocessor(mem, 1)

	override := &model.Throughput{Value: 42, Unit: "docs/s"}
	if err := p.Process([]model.Sample{{AbsoluteTime: time.Now(), ThroughputOverride: override}}); err != nil {
		t.Fatalf("process: %v", err)
	}

	records := mem.Records()
	found := false
	for _, r := range records {
		if r.Name == "throughput" {
			found = true
			if r.Value != 42 || r.Unit != "docs/s" {
				t.Fatalf("expected overridden throughput 42 docs/s, got %v %s", r.Value, r.Unit)
			}
		}
	}
	if !found {
		t.Fatalf("expected a throughput record")
	}
}
