// Package recurring triggers benchmark runs on a cron schedule
// (the expansion's recurring-run supplement to spec.md §1's one-shot
// test-procedure execution), grounded directly on the teacher's
// scheduler.go cron.Cron usage and BoltDB schedule persistence.
package recurring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.etcd.io/bbolt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var bucketSchedules = []byte("recurring_schedules")

// ScheduleConfig names one recurring benchmark-run trigger.
type ScheduleConfig struct {
	Name              string            `json:"name"`
	WorkloadName      string            `json:"workload_name"`
	TestProcedureName string            `json:"test_procedure_name"`
	CronExpr          string            `json:"cron_expr"`
	Enabled           bool              `json:"enabled"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Trigger launches one benchmark run for cfg; callers bind this to the
// coordinator's run-start path.
type Trigger func(ctx context.Context, cfg ScheduleConfig) error

// Recurring owns the cron schedule table for one coordinator process.
type Recurring struct {
	cron    *cron.Cron
	db      *bbolt.DB
	trigger Trigger

	mu      sync.Mutex
	entries map[string]cron.EntryID

	runsCounter  metric.Int64Counter
	failsCounter metric.Int64Counter
	tracer       trace.Tracer
}

func New(db *bbolt.DB, trigger Trigger) (*Recurring, error) {
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSchedules)
		return err
	}); err != nil {
		return nil, fmt.Errorf("create recurring schedules bucket: %w", err)
	}

	meter := otel.Meter("osbench-recurring")
	runsCounter, _ := meter.Int64Counter("osbench_recurring_runs_total")
	failsCounter, _ := meter.Int64Counter("osbench_recurring_failures_total")

	return &Recurring{
		cron:         cron.New(cron.WithSeconds()),
		db:           db,
		trigger:      trigger,
		entries:      make(map[string]cron.EntryID),
		runsCounter:  runsCounter,
		failsCounter: failsCounter,
		tracer:       otel.Tracer("osbench-recurring"),
	}, nil
}

func (r *Recurring) Start() { r.cron.Start() }

func (r *Recurring) Stop(ctx context.Context) error {
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddSchedule registers cfg's cron entry and persists it. Re-adding an
// existing name replaces its cron entry, unlike the raw cron.Cron API
// (which has no remove-by-name).
func (r *Recurring) AddSchedule(ctx context.Context, cfg ScheduleConfig) error {
	ctx, span := r.tracer.Start(ctx, "recurring.add_schedule",
		trace.WithAttributes(attribute.String("schedule", cfg.Name), attribute.String("cron", cfg.CronExpr)))
	defer span.End()

	r.mu.Lock()
	if existing, ok := r.entries[cfg.Name]; ok {
		r.cron.Remove(existing)
		delete(r.entries, cfg.Name)
	}
	r.mu.Unlock()

	entryID, err := r.cron.AddFunc(cfg.CronExpr, func() {
		r.fire(context.Background(), cfg)
	})
	if err != nil {
		return fmt.Errorf("add recurring schedule: %w", err)
	}

	r.mu.Lock()
	r.entries[cfg.Name] = entryID
	r.mu.Unlock()

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	if err := r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSchedules).Put([]byte(cfg.Name), data)
	}); err != nil {
		return fmt.Errorf("persist schedule: %w", err)
	}

	slog.Info("recurring schedule added", "name", cfg.Name, "cron", cfg.CronExpr)
	return nil
}

// RemoveSchedule unregisters cfg.Name's cron entry and deletes its
// persisted record.
func (r *Recurring) RemoveSchedule(ctx context.Context, name string) error {
	r.mu.Lock()
	if entryID, ok := r.entries[name]; ok {
		r.cron.Remove(entryID)
		delete(r.entries, name)
	}
	r.mu.Unlock()

	if err := r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSchedules).Delete([]byte(name))
	}); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	slog.Info("recurring schedule removed", "name", name)
	return nil
}

// ListSchedules returns every persisted schedule, regardless of whether
// it is currently armed in-process.
func (r *Recurring) ListSchedules() ([]ScheduleConfig, error) {
	var out []ScheduleConfig
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSchedules).ForEach(func(k, v []byte) error {
			var cfg ScheduleConfig
			if err := json.Unmarshal(v, &cfg); err != nil {
				return nil
			}
			out = append(out, cfg)
			return nil
		})
	})
	return out, err
}

// RestoreSchedules re-arms every persisted, enabled schedule; callers
// run this once at process startup.
func (r *Recurring) RestoreSchedules(ctx context.Context) error {
	schedules, err := r.ListSchedules()
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}
	restored, failed := 0, 0
	for _, cfg := range schedules {
		if !cfg.Enabled {
			continue
		}
		if err := r.AddSchedule(ctx, cfg); err != nil {
			slog.Error("failed to restore recurring schedule", "name", cfg.Name, "error", err)
			failed++
			continue
		}
		restored++
	}
	slog.Info("recurring schedules restored", "restored", restored, "failed", failed)
	return nil
}

func (r *Recurring) fire(ctx context.Context, cfg ScheduleConfig) {
	ctx, span := r.tracer.Start(ctx, "recurring.fire",
		trace.WithAttributes(attribute.String("schedule", cfg.Name)))
	defer span.End()

	start := time.Now()
	if err := r.trigger(ctx, cfg); err != nil {
		slog.Error("recurring trigger failed", "name", cfg.Name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		r.failsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("schedule", cfg.Name)))
		return
	}
	slog.Info("recurring run triggered", "name", cfg.Name, "duration_ms", time.Since(start).Milliseconds())
	r.runsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("schedule", cfg.Name)))
}
