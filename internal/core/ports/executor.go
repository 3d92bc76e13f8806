// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/watchdag/internal/core/domain"
)

// Executor dispatches ScheduledTasks to subprocesses and enforces the
// at-most-one-process-per-task invariant (spec §4.5).
//
// Implementations own the translation of RuntimeEvents produced while a
// task's process is alive (completion, progress, stdout-triggers) back onto
// the supplied RuntimeEventSink.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Dispatch runs the given ScheduledTasks. Per task name, at most one
	// process instance is ever active: if a task with the same name is
	// already running and the new dispatch has Rerun=true, the existing
	// process is cancelled first; if Rerun=false, the dispatch is dropped
	// and, for long-lived tasks, a synthetic TaskProgressed event is emitted
	// instead.
	Dispatch(ctx context.Context, tasks []domain.ScheduledTask)

	// Shutdown cancels every active task instance and waits for their
	// processes to exit.
	Shutdown(ctx context.Context) error
}

// RuntimeEventSink is how the Executor and Watcher report events back into
// the CoreRuntime (spec §4.4). It is implemented by the engine/runtime
// package's event channel adapter.
type RuntimeEventSink interface {
	TaskTriggered(task string, reason domain.TriggerReason)
	TaskProgressed(task string)
	TaskCompleted(task string, outcome domain.TaskOutcome)
}
