// Package model holds the plain data types shared by every layer of the
// load-generation engine: workloads, tasks, operations, join points,
// task allocations, and raw samples.
package model

import (
	"time"

	"github.com/google/uuid"
)

// NewRunID mints an identifier for one end-to-end benchmark run.
func NewRunID() string { return uuid.NewString() }

// SampleType distinguishes warmup samples (discarded from headline
// metrics) from the measurement window.
type SampleType int

const (
	Warmup SampleType = iota
	Normal
)

func (s SampleType) String() string {
	if s == Warmup {
		return "warmup"
	}
	return "normal"
}

// OnError is the global error-handling policy for a schedule.
type OnError string

const (
	OnErrorContinue OnError = "continue"
	OnErrorAbort    OnError = "abort"
)

// Operation names one kind of request against the cluster.
type Operation struct {
	Name            string
	Type            string
	Params          map[string]any
	ParamSourceName string
	IncludeInReporting bool
}

// Task is one named operation invoked repeatedly by a set of clients.
type Task struct {
	Name              string
	Operation         *Operation
	Clients           int
	WarmupIterations  int
	WarmupTimePeriod  time.Duration
	Iterations        int
	TimePeriod        time.Duration
	RampUpTimePeriod  time.Duration
	ScheduleName       string // "deterministic" | "poisson" | "unthrottled" | custom
	Params            map[string]any
	CompletesParent   bool

	// IgnoreResponseErrorLevel, when set to "non-fatal", overrides the
	// schedule's global on-error=abort to continue for this task alone.
	IgnoreResponseErrorLevel string
}

// ErrorBehavior derives the effective on-error policy for this task,
// honoring IgnoreResponseErrorLevel.
func (t *Task) ErrorBehavior(global OnError) OnError {
	if t.IgnoreResponseErrorLevel == "non-fatal" {
		return OnErrorContinue
	}
	return global
}

// Infinite reports whether the task has neither a fixed iteration count
// nor a fixed time period, and therefore runs until its parameter
// source signals end-of-stream (or forever, if that source is infinite
// too).
func (t *Task) Infinite() bool {
	return t.Iterations == 0 && t.TimePeriod == 0
}

// ParallelNode groups sibling tasks that execute concurrently, capped at
// an optional total client count.
type ParallelNode struct {
	Tasks   []*Task
	Clients int // 0 = sum of subtasks' clients
}

// TotalClients returns the effective client count for this parallel
// group per §4.1 step 1.
func (p *ParallelNode) TotalClients() int {
	sum := 0
	for _, t := range p.Tasks {
		sum += t.Clients
	}
	if p.Clients > 0 {
		return p.Clients
	}
	return sum
}

// ScheduleNode is either a bare Task or a ParallelNode.
type ScheduleNode struct {
	Task     *Task
	Parallel *ParallelNode
}

func (n *ScheduleNode) totalClients() int {
	if n.Task != nil {
		return n.Task.Clients
	}
	return n.Parallel.TotalClients()
}

// TestProcedure owns an ordered schedule of ScheduleNodes.
type TestProcedure struct {
	Name     string
	Schedule []*ScheduleNode
}

// Workload is a named collection of test procedures.
type Workload struct {
	Name           string
	TestProcedures []*TestProcedure
}

// JoinPoint is a synthetic rendezvous node the Allocator inserts between
// schedule steps.
type JoinPoint struct {
	ID                            int
	ClientsExecutingCompletingTask map[int]struct{}
	PrecedingTaskCompletesParent   bool
}

// TaskAllocation assigns one task instance to one client for one step.
type TaskAllocation struct {
	Task                *Task
	ClientIndexInTask   int
	GlobalClientIndex   int
	TotalClientsOfTask  int
}

// AllocationEntry is a step slot for one client: exactly one of Task,
// Join, or neither (idle) is set.
type AllocationEntry struct {
	Task *TaskAllocation
	Join *JoinPoint
}

func (e AllocationEntry) Idle() bool { return e.Task == nil && e.Join == nil }

// Sample is one raw per-request measurement.
type Sample struct {
	ClientID            int
	AbsoluteTime         time.Time
	RelativeTime         time.Duration
	Task                 *Task
	SampleType           SampleType
	RequestMetaData      map[string]any
	Latency              time.Duration
	ServiceTime          time.Duration
	ClientProcessingTime time.Duration
	ProcessingTime       time.Duration
	ThroughputOverride   *Throughput
	TotalOps             float64
	TotalOpsUnit         string
	TimePeriod           time.Duration
	PercentCompleted     *float64
	DependentTimings     []DependentTiming
}

// Throughput pairs a numeric rate with its unit (docs/s, ops/s, byte/s).
type Throughput struct {
	Value float64
	Unit  string
}

// DependentTiming records timing for one leaf of a composite invocation.
type DependentTiming struct {
	Operation   string
	OperationType string
	StartTime   time.Time
	Latency     time.Duration
	ServiceTime time.Duration
}
