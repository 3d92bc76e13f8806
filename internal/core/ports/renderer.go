package ports

import (
	"context"
	"time"
)

// Renderer decouples run/task lifecycle events from presentation, so the
// same event stream coming out of CoreRuntime and the Executor can drive
// either the interactive TUI or plain linear CI-friendly log lines (spec
// §5's renderer abstraction).
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer and begins its lifecycle. Asynchronous
	// renderers (the TUI) may launch background goroutines here.
	Start(ctx context.Context) error

	// Stop signals the renderer to stop accepting new events and flush any
	// buffered output.
	Stop() error

	// Wait blocks until the renderer has fully terminated. Synchronous
	// renderers (linear) may return immediately.
	Wait() error

	// OnPlanEmit reports the Scheduler's resolved task graph once at startup:
	// taskNames in dependency-first execution order, the dependency map
	// (task -> its `after` list), and the initial trigger set.
	OnPlanEmit(taskNames []string, deps map[string][]string, initialTriggers []string)

	// OnTaskStart reports that a task's process instance began running.
	// name is the task name; parentName is unused by watchdag's flat task
	// model (always empty) but kept for renderer-tree compatibility.
	OnTaskStart(name, parentName, displayName string, startTime time.Time)

	// OnTaskLog reports a chunk of a running task's combined stdout/stderr.
	// data may contain partial lines or ANSI sequences.
	OnTaskLog(name string, data []byte)

	// OnTaskComplete reports that a task's process instance finished. err is
	// nil on success.
	OnTaskComplete(name string, endTime time.Time, err error)
}
