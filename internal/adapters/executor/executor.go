// Package executor implements ports.Executor: it runs each ScheduledTask's
// command in its own process and guarantees at most one running process per
// task name at a time (spec §4.5). A task with rerun=true cancels and
// restarts its previous instance; rerun=false leaves the running instance
// alone, synthesizing a progress event for long-lived tasks since the
// already-running instance already satisfies the dependency.
package executor

import (
	"context"
	"sync"

	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/core/ports"
)

// activeTask tracks a single in-flight task process. cancelProcess and
// cancelProgress are independent: cancelProcess tears down the running
// process (and is also fired automatically when it exits normally), while
// cancelProgress only fires on supersession or Shutdown, so a progress_on_time
// timer longer than the process's actual runtime still fires after the
// process exits (spec §4.6).
type activeTask struct {
	cancelProcess  context.CancelFunc
	cancelProgress context.CancelFunc
	done           <-chan struct{}
}

func (a *activeTask) cancel() {
	a.cancelProcess()
	a.cancelProgress()
}

func (a *activeTask) finished() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// Executor implements ports.Executor using os/exec with a PTY (via
// github.com/creack/pty), reporting task lifecycle events through sink.
type Executor struct {
	logger ports.Logger
	sink   ports.RuntimeEventSink
	tracer ports.Tracer

	mu     sync.Mutex
	active map[string]*activeTask
}

// New constructs an Executor. sink receives TaskProgressed/TaskCompleted
// events as dispatched processes report progress or exit.
func New(logger ports.Logger, sink ports.RuntimeEventSink) *Executor {
	return &Executor{
		logger: logger,
		sink:   sink,
		active: make(map[string]*activeTask),
	}
}

// WithTracer attaches a Tracer that spans each dispatched process instance.
// Without one, runTask skips tracing entirely.
func (e *Executor) WithTracer(t ports.Tracer) *Executor {
	e.tracer = t
	return e
}

// Dispatch runs each of tasks, enforcing at most one active process per task
// name (spec §4.5).
func (e *Executor) Dispatch(ctx context.Context, tasks []domain.ScheduledTask) {
	for _, task := range tasks {
		e.dispatchOne(ctx, task)
	}
}

func (e *Executor) dispatchOne(ctx context.Context, task domain.ScheduledTask) {
	name := task.Name.String()

	e.mu.Lock()

	if existing, ok := e.active[name]; ok && !existing.finished() {
		switch {
		case task.Rerun:
			if e.logger != nil {
				e.logger.Info("rerun requested; cancelling previous process instance for " + name)
			}
			existing.cancel()
		case task.LongLived:
			if e.logger != nil {
				e.logger.Debug("task already running and rerun=false; treating as progressed: " + name)
			}
			e.mu.Unlock()
			e.sink.TaskProgressed(name)
			return
		default:
			if e.logger != nil {
				e.logger.Warn("task running, rerun=false, but not long_lived; scheduler may hang waiting for completion: " + name)
			}
			e.mu.Unlock()
			return
		}
	}

	taskCtx, cancelProcess := context.WithCancel(ctx)
	progressCtx, cancelProgress := context.WithCancel(ctx)
	done := make(chan struct{})
	e.active[name] = &activeTask{cancelProcess: cancelProcess, cancelProgress: cancelProgress, done: done}
	e.mu.Unlock()

	go func() {
		defer close(done)
		defer cancelProcess()
		e.runTask(taskCtx, progressCtx, task)
	}()
}

// Shutdown cancels every in-flight task process and its pending progress
// timers.
func (e *Executor) Shutdown(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, task := range e.active {
		task.cancel()
	}
	return nil
}
