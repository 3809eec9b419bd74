package schedule

import (
	"time"

	"github.com/opensearch-project/osbenchmark-go/internal/model"
	"github.com/opensearch-project/osbenchmark-go/internal/paramsource"
	"github.com/opensearch-project/osbenchmark-go/internal/runner"
)

// Element is one emitted tuple from a Handle: the expected scheduled
// time (relative to Handle.start()), the sample type, overall progress,
// the runner to invoke, and its parameters.
type Element struct {
	ExpectedScheduledTime time.Duration
	SampleType            model.SampleType
	Progress              *float64
	Runner                runner.Runner
	Params                map[string]any
}

// Completed is a plain completion flag. Nothing in the engine reads or
// sets it: the Async Executor stops a Handle through MarkCompleted
// after the runner reports completed=true (see executor §4.5i).
type Completed struct{ Value bool }

// Handle is a lazy, restartable sequence over (param source, scheduler,
// runner) fused per §4.3. It is pull-style (Next) rather than a
// language-level async generator, matching Go idiom.
type Handle struct {
	task       *model.Task
	source     paramsource.Source
	scheduler  Scheduler
	runner     runner.Runner
	clientIdx  int
	totalClientsOfTask int

	epoch         time.Time
	rampUpWait    time.Duration
	startedAt     time.Time

	iterationsDone int
	warmupDone     int
	current        time.Duration
	firstEmitted   bool

	stopped bool
}

// New constructs a Handle. rampUpWait staggers this client's first
// element so that across totalClientsOfTask clients, starts spread
// linearly over task.RampUpTimePeriod.
func New(task *model.Task, source paramsource.Source, sched Scheduler, r runner.Runner, clientIdx, totalClientsOfTask int) *Handle {
	var rampUpWait time.Duration
	if task.RampUpTimePeriod > 0 && totalClientsOfTask > 0 {
		rampUpWait = task.RampUpTimePeriod * time.Duration(clientIdx) / time.Duration(totalClientsOfTask)
	}
	return &Handle{
		task:               task,
		source:             source,
		scheduler:          sched,
		runner:             r,
		clientIdx:          clientIdx,
		totalClientsOfTask: totalClientsOfTask,
		rampUpWait:         rampUpWait,
	}
}

// Start captures the wall-clock epoch used for relative times and
// returns the ramp-up wait the caller must honor before the first Next.
func (h *Handle) Start() (epoch time.Time, rampUpWait time.Duration) {
	h.epoch = time.Now()
	h.startedAt = h.epoch
	return h.epoch, h.rampUpWait
}

func (h *Handle) BeforeRequest(now time.Time) { h.scheduler.BeforeRequest(now) }

func (h *Handle) AfterRequest(now time.Time, weight float64, unit string, meta map[string]any) {
	h.scheduler.AfterRequest(now, weight, unit, meta)
}

// Next produces the next Element, or ok=false at end of stream.
// Termination per §4.3: parameter-source end-of-stream, iterations
// exhausted, elapsed >= time_period, or the caller (executor) reporting
// the previous runner invocation completed=true (via MarkCompleted).
func (h *Handle) Next() (Element, bool, error) {
	if h.stopped {
		return Element{}, false, nil
	}
	if h.task.TimePeriod > 0 && time.Since(h.startedAt) >= h.task.TimePeriod {
		h.stopped = true
		return Element{}, false, nil
	}
	if !h.task.Infinite() && h.task.Iterations > 0 {
		totalPlanned := h.task.WarmupIterations + h.task.Iterations
		if h.iterationsDone >= totalPlanned {
			h.stopped = true
			return Element{}, false, nil
		}
	}

	params, err := h.source.Params()
	if err != nil {
		h.stopped = true
		return Element{}, false, nil
	}

	st := model.Normal
	if h.inWarmupWindow() {
		st = model.Warmup
	}

	if !h.firstEmitted {
		h.firstEmitted = true
	} else {
		h.current = h.scheduler.Next(h.current)
	}
	h.iterationsDone++

	return Element{
		ExpectedScheduledTime: h.current,
		SampleType:            st,
		Progress:              h.progress(),
		Runner:                h.runner,
		Params:                params,
	}, true, nil
}

// MarkCompleted stops the handle when the runner reports completed=true
// (§4.3 "STOP ... when the runner reports completed=True").
func (h *Handle) MarkCompleted() { h.stopped = true }

func (h *Handle) inWarmupWindow() bool {
	if h.task.WarmupTimePeriod > 0 {
		return time.Since(h.startedAt) < h.task.WarmupTimePeriod
	}
	return h.iterationsDone < h.task.WarmupIterations
}

func (h *Handle) progress() *float64 {
	if h.task.Infinite() {
		return h.source.PercentCompleted()
	}
	total := h.task.WarmupIterations + h.task.Iterations
	if total <= 0 {
		return h.source.PercentCompleted()
	}
	v := float64(min(h.iterationsDone, total)) / float64(total)
	return &v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
