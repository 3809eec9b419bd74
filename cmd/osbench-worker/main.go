// Command osbench-worker is a Worker process (component J): it joins a
// run over NATS, computes the same allocation the coordinator and every
// other worker computed independently from the shared test procedure,
// and drives its own slice of the global client id space.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"log/slog"

	nats "github.com/nats-io/nats.go"

	"github.com/opensearch-project/osbenchmark-go/internal/alloc"
	"github.com/opensearch-project/osbenchmark-go/internal/clusterclient"
	"github.com/opensearch-project/osbenchmark-go/internal/coordinator"
	"github.com/opensearch-project/osbenchmark-go/internal/core/logging"
	"github.com/opensearch-project/osbenchmark-go/internal/core/otelinit"
	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/run"
	"github.com/opensearch-project/osbenchmark-go/internal/runner"
	"github.com/opensearch-project/osbenchmark-go/internal/transport"
)

// sampleTestProcedure must match cmd/osbench-coordinator's
// sampleTestProcedure exactly: every worker computes allocation
// independently from the same schedule, so the two processes only
// need to agree on the definition, never exchange it.
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

func hostsFromEnv() []coordinator.HostSpec {
	spec := os.Getenv("OSB_CLUSTER_HOSTS")
	if spec == "" {
		return []coordinator.HostSpec{{Name: "localhost", Cores: 1}}
	}
	var hosts []coordinator.HostSpec
	for _, pair := range strings.Split(spec, ",") {
		parts := strings.SplitN(pair, ":", 2)
		name := parts[0]
		cores := 1
		if len(parts) == 2 {
			if n, err := strconv.Atoi(parts[1]); err == nil {
				cores = n
			}
		}
		hosts = append(hosts, coordinator.HostSpec{Name: name, Cores: cores})
	}
	return hosts
}

func main() {
	service := "osbench-worker"
	logging.Init(service)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTrace := otelinit.InitTracer(ctx, service)
	shutdownMetrics, _, _ := otelinit.InitMetrics(ctx, service)

	natsURL := os.Getenv("OSB_NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}
	conn, err := nats.Connect(natsURL)
	if err != nil {
		slog.Error("connect to nats", "error", err, "url", natsURL)
		os.Exit(1)
	}
	defer conn.Close()

	workerName := os.Getenv("OSB_WORKER_NAME")
	if workerName == "" {
		workerName = "worker-0"
	}
	runID := os.Getenv("OSB_RUN_ID")
	if runID == "" {
		slog.Error("OSB_RUN_ID is required")
		os.Exit(1)
	}

	tp := sampleTestProcedure()
	allocation := alloc.Allocate(tp.Schedule)
	signals := run.NewStepSignals(len(tp.Schedule))

	hosts := hostsFromEnv()
	assignments := coordinator.CalculateWorkerAssignments(hosts, allocation.NumClients)
	var myIDs []int
	for _, a := range assignments {
		if a.Host == workerName {
			myIDs = append(myIDs, a.ClientIDs...)
		}
	}
	if len(myIDs) == 0 {
		slog.Warn("no client ids assigned to this worker", "worker", workerName, "hosts", hosts)
	}

	tr := transport.NewNatsTransport(conn, workerName)
	registry := runner.NewRegistry()
	clients := map[string]clusterclient.Client{"default": clusterclient.NewFakeClient()}

	completeSub, err := run.WatchCompleteBroadcasts(tr, runID, signals)
	if err != nil {
		slog.Error("subscribe complete_current_task", "error", err)
		os.Exit(1)
	}
	defer completeSub.Unsubscribe()

	var wg sync.WaitGroup
	for _, clientID := range myIDs {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := run.RunClient(ctx, run.ClientConfig{
				RunID:     runID,
				Transport: tr,
				ClientID:  id,
				Entries:   allocation.Allocations[id],
				Signals:   signals,
				Registry:  registry,
				Clients:   clients,
				OnError:   model.OnErrorContinue,
			}); err != nil {
				slog.Error("client loop failed", "client_id", id, "error", err)
			}
		}(clientID)
	}

	slog.Info("osbench-worker started", "worker", workerName, "run_id", runID, "client_ids", myIDs)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("worker finished its client share")
	case <-ctx.Done():
		slog.Info("shutdown initiated")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	otelinit.Flush(shutdownCtx, shutdownTrace)
	shutdownMetrics(shutdownCtx)
	slog.Info("shutdown complete")
}
