package sampler

import (
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/store"
)

// Postprocessor converts raw samples into metrics-store records,
// applying downsampling to the latency-family metrics while preserving
// every throughput sample for rate accuracy (spec.md §4.6).
type Postprocessor struct {
	store            store.Store
	downsampleFactor int

	clientCounter  map[int]int
	lastSampleTime map[int]time.Time
}

func NewPostprocessor(st store.Store, downsampleFactor int) *Postprocessor {
	if downsampleFactor < 1 {
		downsampleFactor = 1
	}
	return &Postprocessor{
		store:            st,
		downsampleFactor: downsampleFactor,
		clientCounter:    make(map[int]int),
		lastSampleTime:   make(map[int]time.Time),
	}
}

// Process emits store records for every sample, in order. Samples from
// different clients may be interleaved; downsampling and throughput
// elapsed-time tracking are both keyed per client id.
func (p *Postprocessor) Process(samples []model.Sample) error {
	for _, s := range samples {
		if err := p.processOne(s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postprocessor) processOne(s model.Sample) error {
	taskName, opName, opType := "", "", ""
	if s.Task != nil {
		taskName = s.Task.Name
		if s.Task.Operation != nil {
			opName = s.Task.Operation.Name
			opType = s.Task.Operation.Type
		}
	}

	base := store.Record{
		Task:          taskName,
		Operation:     opName,
		OperationType: opType,
		SampleType:    s.SampleType.String(),
		AbsoluteTime:  s.AbsoluteTime,
		RelativeTime:  s.RelativeTime,
		MetaData:      s.RequestMetaData,
	}

	p.clientCounter[s.ClientID]++
	if p.clientCounter[s.ClientID]%p.downsampleFactor == 0 {
		latencyRec := base
		latencyRec.Name = "latency"
		latencyRec.Value = s.Latency.Seconds() * 1000
		latencyRec.Unit = "ms"
		if err := p.store.PutValueClusterLevel(latencyRec); err != nil {
			return err
		}

		serviceRec := base
		serviceRec.Name = "service_time"
		serviceRec.Value = s.ServiceTime.Seconds() * 1000
		serviceRec.Unit = "ms"
		if err := p.store.PutValueClusterLevel(serviceRec); err != nil {
			return err
		}

		clientProcRec := base
		clientProcRec.Name = "client_processing_time"
		clientProcRec.Value = s.ClientProcessingTime.Seconds() * 1000
		clientProcRec.Unit = "ms"
		if err := p.store.PutValueClusterLevel(clientProcRec); err != nil {
			return err
		}

		procRec := base
		procRec.Name = "processing_time"
		procRec.Value = s.ProcessingTime.Seconds() * 1000
		procRec.Unit = "ms"
		if err := p.store.PutValueClusterLevel(procRec); err != nil {
			return err
		}
	}

	throughputRec := base
	throughputRec.Name = "throughput"
	value, unit := p.throughput(s)
	throughputRec.Value = value
	throughputRec.Unit = unit
	return p.store.PutValueClusterLevel(throughputRec)
}

func (p *Postprocessor) throughput(s model.Sample) (float64, string) {
	if s.ThroughputOverride != nil {
		return s.ThroughputOverride.Value, s.ThroughputOverride.Unit
	}

	last, ok := p.lastSampleTime[s.ClientID]
	p.lastSampleTime[s.ClientID] = s.AbsoluteTime
	if !ok {
		return 0, s.TotalOpsUnit
	}
	elapsed := s.AbsoluteTime.Sub(last).Seconds()
	if elapsed <= 0 {
		return 0, s.TotalOpsUnit
	}
	return s.TotalOps / elapsed, s.TotalOpsUnit
}
