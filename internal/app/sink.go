package app

import (
	"time"

	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/core/ports"
	"go.trai.ch/watchdag/internal/engine/runtime"
	"go.trai.ch/zerr"
)

// timeNow is a seam for tests; production code always calls time.Now.
var timeNow = time.Now

// eventSink implements ports.RuntimeEventSink, translating Executor and
// Watcher callbacks into runtime.Events on a single bounded channel that
// driveRuntime reads from (spec §4.4), and forwarding task lifecycle
// notices to the Renderer.
type eventSink struct {
	events   chan runtime.Event
	renderer ports.Renderer
}

var _ ports.RuntimeEventSink = (*eventSink)(nil)

func newEventSink(renderer ports.Renderer) *eventSink {
	return &eventSink{
		events:   make(chan runtime.Event, eventChannelBuffer),
		renderer: renderer,
	}
}

// TaskTriggered forwards a TaskTriggered event to the CoreRuntime.
func (s *eventSink) TaskTriggered(task string, reason domain.TriggerReason) {
	s.events <- runtime.NewTaskTriggered(domain.NewInternedString(task), reason)
}

// TaskProgressed forwards a TaskProgressed event to the CoreRuntime.
func (s *eventSink) TaskProgressed(task string) {
	s.events <- runtime.NewTaskProgressed(domain.NewInternedString(task))
}

// TaskCompleted reports completion to the Renderer and forwards a
// TaskCompleted event to the CoreRuntime.
func (s *eventSink) TaskCompleted(task string, outcome domain.TaskOutcome) {
	var completeErr error
	if !outcome.Success {
		completeErr = zerr.With(domain.ErrTaskExecutionFailed, "task", task, "exit_code", outcome.ExitCode)
	}
	s.renderer.OnTaskComplete(task, timeNow(), completeErr)

	s.events <- runtime.NewTaskCompleted(domain.NewInternedString(task), outcome)
}
