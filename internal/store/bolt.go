// BoltStore is grounded on persistence.go's WorkflowStore: the same
// bbolt bucket layout and hot-cache-plus-disk pattern, retargeted from
// workflow/execution buckets to a single "samples" bucket holding one
// JSON record per sequence-numbered key.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var bucketSamples = []byte("samples")

// BoltStore is a persistent Store backed by go.etcd.io/bbolt, for
// benchmark-engine runs whose results must survive process restarts.
// It keeps a bounded hot cache of the most recently written records in
// memory alongside the on-disk bucket, mirroring the teacher's
// memory-cache-plus-disk pattern.
type BoltStore struct {
	db           *bbolt.DB
	mu           sync.RWMutex
	hotCache     []Record
	maxCacheSize int
	seq          uint64

	writeLatency metric.Float64Histogram
}

func NewBoltStore(dbPath string) (*BoltStore, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open boltdb: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSamples)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create samples bucket: %w", err)
	}

	meter := otel.Meter("osbench-store")
	writeLatency, _ := meter.Float64Histogram("osbench_store_write_ms")

	return &BoltStore{
		db:           db,
		maxCacheSize: 1000,
		writeLatency: writeLatency,
	}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) PutValueClusterLevel(r Record) error {
	start := time.Now()
	defer func() {
		s.writeLatency.Record(context.Background(), float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("metric", r.Name)))
	}()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal sample record: %w", err)
	}

	s.mu.Lock()
	s.seq++
	key := fmt.Sprintf("%020d", s.seq)
	s.mu.Unlock()

	if err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSamples).Put([]byte(key), data)
	}); err != nil {
		return fmt.Errorf("write sample record: %w", err)
	}

	s.mu.Lock()
	s.hotCache = append(s.hotCache, r)
	if len(s.hotCache) > s.maxCacheSize {
		s.hotCache = s.hotCache[len(s.hotCache)-s.maxCacheSize:]
	}
	s.mu.Unlock()
	return nil
}

// RecentRecords returns a snapshot of the in-memory hot cache, without
// touching the database.
func (s *BoltStore) RecentRecords() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.hotCache))
	copy(out, s.hotCache)
	return out
}
