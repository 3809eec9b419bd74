// Package alloc expands a test procedure's schedule DAG into a
// per-client sequence of TaskAllocation and JoinPoint entries
// (component I).
package alloc

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/opensearch-project/osbenchmark-go/internal/model"
)

var meter = otel.Meter("osbench-alloc")

var stepsGauge, _ = meter.Int64Gauge("osbench_alloc_steps_total")

// Result is the Allocator's output: one ordered entry list per client,
// plus the ordered join-point list.
type Result struct {
	Allocations [][]model.AllocationEntry // indexed by global client id
	JoinPoints  []*model.JoinPoint
	NumClients  int
}

// Allocate runs the §4.1 algorithm over a test procedure's schedule.
func Allocate(schedule []*model.ScheduleNode) *Result {
	total := totalClients(schedule)
	res := &Result{
		Allocations: make([][]model.AllocationEntry, total),
		NumClients:  total,
	}
	for c := range res.Allocations {
		res.Allocations[c] = make([]model.AllocationEntry, 0, 2*len(schedule)+1)
	}

	j0 := &model.JoinPoint{ID: 0, ClientsExecutingCompletingTask: map[int]struct{}{}}
	res.JoinPoints = append(res.JoinPoints, j0)
	appendEntry(res, j0AsEntry(j0))

	for stepIdx, node := range schedule {
		completing := map[int]struct{}{}
		anyCompletes := false

		switch {
		case node.Task != nil:
			assignBareTask(res, node.Task, total)
			if node.Task.CompletesParent {
				anyCompletes = true
				for gc := 0; gc < node.Task.Clients; gc++ {
					completing[gc] = struct{}{}
				}
			}
		case node.Parallel != nil:
			ac, cc := assignParallel(res, node.Parallel, total)
			anyCompletes = ac
			completing = cc
		}

		jp := &model.JoinPoint{
			ID:                             stepIdx + 1,
			ClientsExecutingCompletingTask: completing,
			PrecedingTaskCompletesParent:   anyCompletes,
		}
		res.JoinPoints = append(res.JoinPoints, jp)
		appendEntry(res, j0AsEntry(jp))
	}

	stepsGauge.Record(context.Background(), int64(len(schedule)))
	return res
}

func j0AsEntry(jp *model.JoinPoint) model.AllocationEntry {
	return model.AllocationEntry{Join: jp}
}

func appendEntry(res *Result, entry model.AllocationEntry) {
	for c := range res.Allocations {
		res.Allocations[c] = append(res.Allocations[c], entry)
	}
}

func idleEntry() model.AllocationEntry { return model.AllocationEntry{} }

// assignBareTask assigns a single task to a contiguous block of client
// ids [0, task.Clients); all other clients are idle this step.
func assignBareTask(res *Result, t *model.Task, total int) {
	for c := 0; c < total; c++ {
		if c < t.Clients {
			res.Allocations[c] = append(res.Allocations[c], model.AllocationEntry{
				Task: &model.TaskAllocation{
					Task:               t,
					ClientIndexInTask:  c,
					GlobalClientIndex:  c,
					TotalClientsOfTask: t.Clients,
				},
			})
		} else {
			res.Allocations[c] = append(res.Allocations[c], idleEntry())
		}
	}
}

// assignParallel implements §4.1 steps 2a-2b: contiguous blocks across
// the parallel group's subtasks, with cap-driven cycling when the
// node-level clients override exceeds the sum of subtask client counts.
func assignParallel(res *Result, p *model.ParallelNode, total int) (bool, map[int]struct{}) {
	groupSize := p.TotalClients()
	completing := map[int]struct{}{}
	anyCompletes := false

	// perClientNext[taskIdx] tracks the next dense client_index_in_task
	// to assign within that subtask (needed for the cycling case).
	perClientNext := make([]int, len(p.Tasks))

	// contiguous block boundaries for the non-cycling case.
	blockStart := make([]int, len(p.Tasks))
	cursor := 0
	for i, t := range p.Tasks {
		blockStart[i] = cursor
		cursor += t.Clients
	}

	entries := make([]model.AllocationEntry, total)
	for c := 0; c < total; c++ {
		entries[c] = idleEntry()
	}

	if groupSize <= cursor {
		// Plain contiguous-block assignment, one block per subtask.
		for i, t := range p.Tasks {
			for local := 0; local < t.Clients; local++ {
				global := blockStart[i] + local
				if global >= total {
					continue
				}
				entries[global] = model.AllocationEntry{
					Task: &model.TaskAllocation{
						Task:               t,
						ClientIndexInTask:  local,
						GlobalClientIndex:  global,
						TotalClientsOfTask: t.Clients,
					},
				}
				if t.CompletesParent {
					anyCompletes = true
					completing[global] = struct{}{}
				}
			}
		}
	} else {
		// Extra clients beyond the sum of subtask client counts cycle
		// over subtasks: client i in the group picks subtask i mod
		// len(subtasks); within that subtask it receives the next
		// dense client_index_in_task. First pass counts how many group
		// clients land on each subtask so TotalClientsOfTask is dense.
		perTaskTotal := make([]int, len(p.Tasks))
		for i := 0; i < groupSize && i < total; i++ {
			perTaskTotal[i%len(p.Tasks)]++
		}
		for i := 0; i < groupSize && i < total; i++ {
			taskIdx := i % len(p.Tasks)
			t := p.Tasks[taskIdx]
			local := perClientNext[taskIdx]
			perClientNext[taskIdx]++
			entries[i] = model.AllocationEntry{
				Task: &model.TaskAllocation{
					Task:               t,
					ClientIndexInTask:  local,
					GlobalClientIndex:  i,
					TotalClientsOfTask: perTaskTotal[taskIdx],
				},
			}
			if t.CompletesParent {
				anyCompletes = true
				completing[i] = struct{}{}
			}
		}
	}

	for c := 0; c < total; c++ {
		res.Allocations[c] = append(res.Allocations[c], entries[c])
	}
	return anyCompletes, completing
}

func totalClients(schedule []*model.ScheduleNode) int {
	max := 0
	for _, n := range schedule {
		var c int
		if n.Task != nil {
			c = n.Task.Clients
		} else {
			c = n.Parallel.TotalClients()
		}
		if c > max {
			max = c
		}
	}
	return max
}
