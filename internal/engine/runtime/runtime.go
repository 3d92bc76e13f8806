// Package runtime implements the pure CoreRuntime state machine described in
// spec §4.4: a synchronous, deterministic transducer that consumes Events
// and produces Commands describing what the IO shell (watcher, executor,
// signal handling) should do next. It owns the Scheduler and the
// TriggerQueue and has no channels, goroutines, or IO of its own, which
// keeps it exhaustively unit-testable.
package runtime

import (
	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/engine/queue"
	"go.trai.ch/watchdag/internal/engine/scheduler"
)

// Event is something that happened that the runtime must react to.
type Event struct {
	Kind EventKind

	// Task/Reason are set for TaskTriggered.
	Task   domain.InternedString
	Reason domain.TriggerReason

	// Outcome is set for TaskCompleted.
	Outcome domain.TaskOutcome
}

// EventKind discriminates the Event union.
type EventKind int

const (
	TaskTriggered EventKind = iota
	TaskProgressed
	TaskCompleted
	ShutdownRequested
)

// NewTaskTriggered builds a TaskTriggered event.
func NewTaskTriggered(task domain.InternedString, reason domain.TriggerReason) Event {
	return Event{Kind: TaskTriggered, Task: task, Reason: reason}
}

// NewTaskProgressed builds a TaskProgressed event.
func NewTaskProgressed(task domain.InternedString) Event {
	return Event{Kind: TaskProgressed, Task: task}
}

// NewTaskCompleted builds a TaskCompleted event.
func NewTaskCompleted(task domain.InternedString, outcome domain.TaskOutcome) Event {
	return Event{Kind: TaskCompleted, Task: task, Outcome: outcome}
}

// NewShutdownRequested builds a ShutdownRequested event.
func NewShutdownRequested() Event {
	return Event{Kind: ShutdownRequested}
}

// CommandKind discriminates the Command union.
type CommandKind int

const (
	// DispatchTasks sends Tasks to the executor.
	DispatchTasks CommandKind = iota
	// RequestExit asks the IO shell to exit (used for --once when idle).
	RequestExit
)

// Command is produced by the core for the outer IO shell to execute.
type Command struct {
	Kind  CommandKind
	Tasks []domain.ScheduledTask
}

// Step is the decision returned by the core after handling a single Event.
type Step struct {
	Commands    []Command
	KeepRunning bool
}

// Options configures cross-cutting runtime behaviour.
type Options struct {
	// ExitWhenIdle requests RequestExit once the scheduler is idle and the
	// trigger queue is empty, used to implement --once.
	ExitWhenIdle bool
}

// CoreRuntime is the pure state machine described in the package doc.
type CoreRuntime struct {
	scheduler *scheduler.Scheduler
	queue     *queue.TriggerQueue
	options   Options
}

// New constructs a CoreRuntime around an already-built Scheduler.
func New(sched *scheduler.Scheduler, behaviour domain.TriggerBehaviour, queueLength int, options Options) *CoreRuntime {
	return &CoreRuntime{
		scheduler: sched,
		queue:     queue.New(behaviour, queueLength),
		options:   options,
	}
}

// IsIdle exposes scheduler idleness, mainly for tests.
func (r *CoreRuntime) IsIdle() bool {
	return r.scheduler.IsIdle()
}

// QueueIsEmpty exposes trigger-queue emptiness, mainly for tests.
func (r *CoreRuntime) QueueIsEmpty() bool {
	return r.queue.IsEmpty()
}

// Step handles a single Event, updating core state and returning the
// resulting commands for the IO shell.
func (r *CoreRuntime) Step(event Event) Step {
	switch event.Kind {
	case TaskTriggered:
		return r.handleTaskTrigger(event.Task, event.Reason)
	case TaskProgressed:
		return r.handleTaskProgress(event.Task)
	case TaskCompleted:
		return r.handleTaskCompletion(event.Task, event.Outcome)
	case ShutdownRequested:
		return Step{KeepRunning: false}
	default:
		return Step{KeepRunning: true}
	}
}

// handleTaskTrigger implements spec §4.4's trigger-merge rules: triggering
// while idle starts a new run seeded with this trigger plus anything
// already queued; triggering a task not in the active run merges it into
// that run immediately (shared run ID, parallel unrelated roots);
// triggering a task already in the active run defers it via the queue.
func (r *CoreRuntime) handleTaskTrigger(task domain.InternedString, _ domain.TriggerReason) Step {
	var commands []Command

	if r.scheduler.IsIdle() {
		triggers := dedupe(append(r.queue.DrainPending(), task))
		step := r.startNewRunFromTriggers(triggers)
		commands = append(commands, step.Commands...)
		return Step{Commands: commands, KeepRunning: true}
	}

	state, known := r.scheduler.RunStateOf(task)
	switch {
	case !known:
		// Unknown task; ignore.
	case state == domain.NotInRun:
		newlyReady := r.scheduler.HandleTrigger(task)
		if len(newlyReady) > 0 {
			commands = append(commands, Command{Kind: DispatchTasks, Tasks: newlyReady})
		}
	default:
		r.queue.RecordTrigger(task)
	}

	return Step{Commands: commands, KeepRunning: true}
}

// handleTaskProgress marks a long-lived task DoneSuccess and dispatches any
// newly-ready dependents, then starts a queued run if the scheduler went
// idle as a result (which happens when the progressed task was the last one
// still Pending or Running in the run).
func (r *CoreRuntime) handleTaskProgress(task domain.InternedString) Step {
	var commands []Command

	newlyReady := r.scheduler.HandleProgress(task)
	if len(newlyReady) > 0 {
		commands = append(commands, Command{Kind: DispatchTasks, Tasks: newlyReady})
	}

	commands = append(commands, r.maybeStartQueuedRun()...)

	return Step{Commands: commands, KeepRunning: true}
}

// handleTaskCompletion records outcome, dispatches newly-ready dependents,
// starts a queued run if the scheduler went idle, and requests exit when
// Options.ExitWhenIdle is set and both the scheduler and queue are empty.
func (r *CoreRuntime) handleTaskCompletion(task domain.InternedString, outcome domain.TaskOutcome) Step {
	var commands []Command

	newlyReady := r.scheduler.HandleCompletion(task, outcome)
	if len(newlyReady) > 0 {
		commands = append(commands, Command{Kind: DispatchTasks, Tasks: newlyReady})
	}

	commands = append(commands, r.maybeStartQueuedRun()...)

	keepRunning := true
	if r.options.ExitWhenIdle && r.scheduler.IsIdle() && r.queue.IsEmpty() {
		keepRunning = false
		commands = append(commands, Command{Kind: RequestExit})
	}

	return Step{Commands: commands, KeepRunning: keepRunning}
}

// startNewRunFromTriggers seeds a new DAG run from the given root triggers.
func (r *CoreRuntime) startNewRunFromTriggers(triggers []domain.InternedString) Step {
	if len(triggers) == 0 {
		return Step{KeepRunning: true}
	}

	r.scheduler.StartNewRun()

	var allReady []domain.ScheduledTask
	for _, task := range triggers {
		allReady = append(allReady, r.scheduler.HandleTrigger(task)...)
	}

	var commands []Command
	if len(allReady) > 0 {
		commands = append(commands, Command{Kind: DispatchTasks, Tasks: allReady})
	}

	return Step{Commands: commands, KeepRunning: true}
}

// maybeStartQueuedRun starts a new run from whatever is queued, if the
// scheduler is idle and the queue is non-empty.
func (r *CoreRuntime) maybeStartQueuedRun() []Command {
	if !r.scheduler.IsIdle() {
		return nil
	}

	triggers := r.queue.DrainPending()
	if len(triggers) == 0 {
		return nil
	}

	return r.startNewRunFromTriggers(triggers).Commands
}

func dedupe(names []domain.InternedString) []domain.InternedString {
	seen := make(map[domain.InternedString]struct{}, len(names))
	out := make([]domain.InternedString, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
