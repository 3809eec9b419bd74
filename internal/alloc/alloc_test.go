package alloc

import (
	"testing"

	"github.com/opensearch-project/osbenchmark-go/internal/model"
)

func TestAllocatorEmitsTwoJoinPointsForSingleParallelStep(t *testing.T) {
	a := &model.Task{Name: "A", Clients: 1}
	b := &model.Task{Name: "B", Clients: 1, CompletesParent: true}
	schedule := []*model.ScheduleNode{
		{Parallel: &model.ParallelNode{Tasks: []*model.Task{a, b}, Clients: 3}},
	}

	res := Allocate(schedule)

	if res.NumClients != 3 {
		t.Fatalf("expected clients override (3) to exceed subtask sum (2), got NumClients=%d", res.NumClients)
	}
	if len(res.JoinPoints) != 2 {
		t.Fatalf("expected 2 join points, got %d", len(res.JoinPoints))
	}
	final := res.JoinPoints[1]
	if !final.PrecedingTaskCompletesParent {
		t.Fatalf("expected final join point to mark preceding_task_completes_parent")
	}
	if _, ok := final.ClientsExecutingCompletingTask[1]; !ok || len(final.ClientsExecutingCompletingTask) != 1 {
		t.Fatalf("expected clients_executing_completing_task={1}, got %v", final.ClientsExecutingCompletingTask)
	}

	// Client 2 is the extra client beyond the sum of subtask clients
	// (1+1=2); it must cycle onto subtask A rather than being dropped.
	entry := res.Allocations[2][1]
	if entry.Task == nil || entry.Task.Task != a {
		t.Fatalf("expected client 2 to cycle onto subtask A, got %+v", entry)
	}
}

func TestAllocationLengthAndEvenPositionsAreJoinPoints(t *testing.T) {
	a := &model.Task{Name: "A", Clients: 2}
	b := &model.Task{Name: "B", Clients: 2}
	schedule := []*model.ScheduleNode{
		{Task: a},
		{Parallel: &model.ParallelNode{Tasks: []*model.Task{b}}},
	}

	res := Allocate(schedule)

	wantLen := 2*len(schedule) + 1
	for c := 0; c < res.NumClients; c++ {
		entries := res.Allocations[c]
		if len(entries) != wantLen {
			t.Fatalf("client %d: expected %d entries, got %d", c, wantLen, len(entries))
		}
		for i, e := range entries {
			if i%2 == 0 && e.Join == nil {
				t.Fatalf("client %d entry %d: expected join point at even position", c, i)
			}
		}
	}
}

func TestEachClientIndexInTaskIsDenseAndDistinct(t *testing.T) {
	task := &model.Task{Name: "A", Clients: 4}
	schedule := []*model.ScheduleNode{{Task: task}}

	res := Allocate(schedule)

	seen := map[int]bool{}
	for c := 0; c < res.NumClients; c++ {
		entry := res.Allocations[c][1]
		if entry.Task == nil || entry.Task.Task != task {
			continue
		}
		seen[entry.Task.ClientIndexInTask] = true
	}
	if len(seen) != task.Clients {
		t.Fatalf("expected %d distinct client_index_in_task values, got %d", task.Clients, len(seen))
	}
	for i := 0; i < task.Clients; i++ {
		if !seen[i] {
			t.Fatalf("missing client_index_in_task=%d", i)
		}
	}
}
