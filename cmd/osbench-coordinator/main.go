// Command osbench-coordinator is the Coordinator process (component K):
// it owns join-point rendezvous and drive_at/complete_current_task
// broadcasting for distributed runs, plus an HTTP control surface for
// launching standalone single-process runs, listing/cancelling
// in-flight runs, and managing recurring cron schedules.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"go.etcd.io/bbolt"

	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/coordinator"
	"github.com/opensearch-project/osbenchmark-go/internal/core/logging"
	"github.com/opensearch-project/osbenchmark-go/internal/core/otelinit"
	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/recurring"
	"github.com/opensearch-project/osbenchmark-go/internal/run"
	"github.com/opensearch-project/osbenchmark-go/internal/runner"
	"github.com/opensearch-project/osbenchmark-go/internal/store"
)

type runRequest struct {
	WorkloadName string `json:"workload_name"`
}

type server struct {
	registry *runner.Registry
	clients  map[string]clusterclient.Client
	store    store.Store
	tracker  *coordinator.RunTracker
	recur    *recurring.Recurring
}

// sampleTestProcedure stands in for a loaded workload's test procedure
// until a workload loader (out of scope) is wired in; it exercises a
// two-step schedule (an "index-append" step followed by a
// "default-search" step), both of which run zero-duration sleep
// operations.
func sampleTestProcedure() *model.TestProcedure {
	warmup := &model.Task{
		Name:             "index-append",
		Operation:        &model.Operation{Name: "index-append", Type: "sleep"},
		Clients:          2,
		WarmupIterations: 0,
		Iterations:       1,
		Params:           map[string]any{"duration": 0.0},
	}
	measure := &model.Task{
		Name:       "default-search",
		Operation:  &model.Operation{Name: "default-search", Type: "sleep"},
		Clients:    2,
		Iterations: 3,
		Params:     map[string]any{"duration": 0.0},
	}
	return &model.TestProcedure{
		Name: "self-test",
		Schedule: []*model.ScheduleNode{
			{Task: warmup},
			{Task: measure},
		},
	}
}

func (s *server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(s.tracker.ListActive())
	case http.MethodPost:
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		runID := model.NewRunID()
		ctx, cancel := context.WithCancel(context.Background())
		s.tracker.Register(runID, req.WorkloadName, cancel)

		go func() {
			res, err := run.Run(ctx, run.Config{
				RunID:            runID,
				TestProcedure:    sampleTestProcedure(),
				Registry:         s.registry,
				Clients:          s.clients,
				Store:            s.store,
				DownsampleFactor: 1,
				GlobalOnError:    model.OnErrorContinue,
			})
			if err != nil {
				slog.Error("run failed", "run_id", runID, "error", err)
				s.tracker.Complete(runID, coordinator.RunFailed)
				return
			}
			slog.Info("run completed", "run_id", runID, "clients", res.NumClients, "samples", res.SamplesTaken)
			s.tracker.Complete(runID, coordinator.RunCompleted)
		}()

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"run_id": runID})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	runID := r.URL.Query().Get("run_id")
	if err := s.tracker.Cancel(r.Context(), runID, "operator requested cancellation"); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		schedules, err := s.recur.ListSchedules()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(schedules)
	case http.MethodPost:
		var cfg recurring.ScheduleConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := s.recur.AddSchedule(r.Context(), cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		if err := s.recur.RemoveSchedule(r.Context(), r.URL.Query().Get("name")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func main() {
	service := "osbench-coordinator"
	logging.Init(service)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTrace := otelinit.InitTracer(ctx, service)
	shutdownMetrics, promHandler, _ := otelinit.InitMetrics(ctx, service)

	dbPath := os.Getenv("OSB_STATE_DB")
	if dbPath == "" {
		dbPath = "osbench-coordinator.db"
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		slog.Error("open state db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tracker := coordinator.NewRunTracker()
	go tracker.StartCleanupLoop(ctx, time.Minute, 24*time.Hour)

	reg := runner.NewRegistry()
	clients := map[string]clusterclient.Client{"default": clusterclient.NewFakeClient()}
	st, err := store.NewBoltStore(dbPath + ".metrics")
	if err != nil {
		slog.Error("open metrics store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	recur, err := recurring.New(db, func(ctx context.Context, cfg recurring.ScheduleConfig) error {
		runID := model.NewRunID()
		slog.Info("recurring run triggered", "run_id", runID, "schedule", cfg.Name)
		_, err := run.Run(ctx, run.Config{
			RunID:            runID,
			TestProcedure:    sampleTestProcedure(),
			Registry:         reg,
			Clients:          clients,
			Store:            st,
			DownsampleFactor: 1,
			GlobalOnError:    model.OnErrorContinue,
		})
		return err
	})
	if err != nil {
		slog.Error("init recurring scheduler", "error", err)
		os.Exit(1)
	}
	recur.Start()
	defer recur.Stop(context.Background())
	if err := recur.RestoreSchedules(ctx); err != nil {
		slog.Error("restore recurring schedules", "error", err)
	}

	srv := &server{registry: reg, clients: clients, store: st, tracker: tracker, recur: recur}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/runs", srv.handleRuns)
	mux.HandleFunc("/v1/runs/cancel", srv.handleCancel)
	mux.HandleFunc("/v1/schedules", srv.handleSchedules)
	if promHandler != nil {
		if h, ok := promHandler.(http.Handler); ok {
			mux.Handle("/metrics", h)
		}
	}

	addr := os.Getenv("OSB_LISTEN_ADDR")
	if addr == "" {
		addr = ":8081"
	}
	httpSrv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
			cancel()
		}
	}()

	slog.Info("osbench-coordinator started", "addr", addr)
	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	tracker.CancelAll(shutdownCtx, "coordinator shutting down")
	httpSrv.Shutdown(shutdownCtx)
	otelinit.Flush(shutdownCtx, shutdownTrace)
	shutdownMetrics(shutdownCtx)
	slog.Info("shutdown complete")
}
