package recurring

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.etcd.io/bbolt"
)

func openTestDB(t *testing.T) *bbolt.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recurring.db")
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("open bolt db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddScheduleFiresTrigger(t *testing.T) {
	db := openTestDB(t)

	var mu sync.Mutex
	fired := make(chan ScheduleConfig, 1)
	r, err := New(db, func(ctx context.Context, cfg ScheduleConfig) error {
		mu.Lock()
		defer mu.Unlock()
		fired <- cfg
		return nil
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r.Start()
	defer r.Stop(context.Background())

	cfg := ScheduleConfig{Name: "nightly", WorkloadName: "geonames", TestProcedureName: "default", CronExpr: "* * * * * *", Enabled: true}
	if err := r.AddSchedule(context.Background(), cfg); err != nil {
		t.Fatalf("add schedule: %v", err)
	}

	select {
	case got := <-fired:
		if got.Name != cfg.Name {
			t.Fatalf("expected trigger for %q, got %q", cfg.Name, got.Name)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("trigger did not fire within 3s")
	}
}

func TestRemoveScheduleStopsFiringAndDeletesPersistedRecord(t *testing.T) {
	db := openTestDB(t)
	r, err := New(db, func(ctx context.Context, cfg ScheduleConfig) error { return nil })
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	cfg := ScheduleConfig{Name: "nightly", CronExpr: "0 0 1 1 *", Enabled: true}
	if err := r.AddSchedule(context.Background(), cfg); err != nil {
		t.Fatalf("add schedule: %v", err)
	}
	if err := r.RemoveSchedule(context.Background(), cfg.Name); err != nil {
		t.Fatalf("remove schedule: %v", err)
	}

	schedules, err := r.ListSchedules()
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	for _, s := range schedules {
		if s.Name == cfg.Name {
			t.Fatalf("expected %q to be deleted from persisted schedules", cfg.Name)
		}
	}
}

func TestRestoreSchedulesSkipsDisabled(t *testing.T) {
	db := openTestDB(t)
	r, err := New(db, func(ctx context.Context, cfg ScheduleConfig) error { return nil })
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := r.AddSchedule(context.Background(), ScheduleConfig{Name: "a", CronExpr: "0 0 1 1 *", Enabled: true}); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := r.AddSchedule(context.Background(), ScheduleConfig{Name: "b", CronExpr: "0 0 1 1 *", Enabled: false}); err != nil {
		t.Fatalf("add b: %v", err)
	}

	r2, err := New(db, func(ctx context.Context, cfg ScheduleConfig) error { return nil })
	if err != nil {
		t.Fatalf("new r2: %v", err)
	}
	if err := r2.RestoreSchedules(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}

	r2.mu.Lock()
	_, aArmed := r2.entries["a"]
	_, bArmed := r2.entries["b"]
	r2.mu.Unlock()
	if !aArmed {
		t.Fatalf("expected enabled schedule 'a' to be restored")
	}
	if bArmed {
		t.Fatalf("expected disabled schedule 'b' to stay unarmed")
	}
}
