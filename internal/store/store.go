// Package store holds the metrics-store sink that the Sample
// Postprocessor writes to: one record per derived metric
// (latency, service_time, client_processing_time, processing_time,
// throughput), carrying its task, operation, and sample type.
package store

import (
	"time"
)

// Record is one metrics-store entry, matching the
// put_value_cluster_level(name, value, unit, task, operation,
// operation_type, sample_type, absolute_time, relative_time, meta_data)
// contract.
type Record struct {
	Name           string
	Value          float64
	Unit           string
	Task           string
	Operation      string
	OperationType  string
	SampleType     string
	AbsoluteTime   time.Time
	RelativeTime   time.Duration
	MetaData       map[string]any
}

// Store is the sink consumed by the Sample Postprocessor. A real wire
// implementation against the OpenSearch metrics index is out of scope;
// MemoryStore and BoltStore below cover standalone runs and
// tests/benchmark-engine persistence respectively.
type Store interface {
	PutValueClusterLevel(r Record) error
}
