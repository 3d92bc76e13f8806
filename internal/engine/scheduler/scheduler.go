// Package scheduler implements the per-run task state machine described in
// spec §4.1/§4.2: it holds the immutable task Graph plus mutable per-run
// state, decides when a triggered task's dependencies are satisfied, and
// schedules dependents (or fails them) as tasks complete.
package scheduler

import (
	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/core/ports"
)

// Step is the rich result of a single scheduler transition: the tasks newly
// dispatched to the executor, the tasks newly marked failed in this run, and
// whether this call transitioned the run from active to idle.
type Step struct {
	NewlyScheduled  []domain.ScheduledTask
	NewlyFailed     []domain.InternedString
	RunJustFinished bool
}

// Scheduler holds the immutable DAG plus mutable per-run state.
type Scheduler struct {
	graph      *domain.Graph
	tasks      map[domain.InternedString]*domain.TaskInfo
	logger     ports.Logger
	runCounter uint64
	currentRun *uint64
}

// New constructs a Scheduler from a validated Graph.
func New(graph *domain.Graph, logger ports.Logger) *Scheduler {
	tasks := make(map[domain.InternedString]*domain.TaskInfo, graph.TaskCount())
	for _, name := range graph.TaskNames() {
		task, _ := graph.GetTask(name)
		tasks[name] = &domain.TaskInfo{Task: task}
	}

	return &Scheduler{
		graph:  graph,
		tasks:  tasks,
		logger: logger,
	}
}

// IsIdle returns true if there is currently no active run.
func (s *Scheduler) IsIdle() bool {
	return s.currentRun == nil
}

// CurrentRunID returns the active run ID and true, or (0, false) if idle.
func (s *Scheduler) CurrentRunID() (uint64, bool) {
	if s.currentRun == nil {
		return 0, false
	}
	return *s.currentRun, true
}

// RunStateOf returns the public run-state view of the named task.
func (s *Scheduler) RunStateOf(task domain.InternedString) (domain.TaskRunState, bool) {
	info, ok := s.tasks[task]
	if !ok {
		return domain.NotInRun, false
	}
	return domain.TaskRunStateFromRunState(info.RunState), true
}

// TasksInCurrentRun returns the names of tasks participating in the active
// run. If there is no active run this returns nil, even though tasks may
// still carry a terminal RunState from the previous run.
func (s *Scheduler) TasksInCurrentRun() []domain.InternedString {
	if s.currentRun == nil {
		return nil
	}

	var names []domain.InternedString
	for name, info := range s.tasks {
		if info.RunState != nil {
			names = append(names, name)
		}
	}
	return names
}

// DepsSatisfied reports whether task's dependencies are satisfied for the
// current run. Returns false, false if task is unknown.
func (s *Scheduler) DepsSatisfied(task domain.InternedString) (bool, bool) {
	info, ok := s.tasks[task]
	if !ok {
		return false, false
	}
	return s.depsSatisfiedForInfo(info), true
}

// StartNewRun begins a new DAG run, resetting per-run state but keeping
// historical success/failure information for dependency-satisfaction fallback.
func (s *Scheduler) StartNewRun() {
	s.runCounter++
	runID := s.runCounter
	s.currentRun = &runID

	for _, info := range s.tasks {
		info.RunState = nil
	}

	if s.logger != nil {
		s.logger.Debug("scheduler: starting new DAG run")
	}
}

// HandleTrigger triggers task (and pulls in any task already downstream of
// it into the run) and returns the tasks newly dispatched.
func (s *Scheduler) HandleTrigger(task domain.InternedString) []domain.ScheduledTask {
	return s.StepTrigger(task).NewlyScheduled
}

// HandleProgress marks task DoneSuccess for the current run, as reported by
// a long-lived task's progress signal, and returns the tasks newly dispatched.
func (s *Scheduler) HandleProgress(task domain.InternedString) []domain.ScheduledTask {
	return s.StepProgress(task).NewlyScheduled
}

// HandleCompletion records outcome for task and returns the tasks newly
// dispatched.
func (s *Scheduler) HandleCompletion(task domain.InternedString, outcome domain.TaskOutcome) []domain.ScheduledTask {
	return s.StepCompletion(task, outcome).NewlyScheduled
}

// StepTrigger is the rich variant of HandleTrigger.
func (s *Scheduler) StepTrigger(task domain.InternedString) Step {
	if s.currentRun == nil {
		if s.logger != nil {
			s.logger.Warn("trigger with no active run; implicitly starting a new run")
		}
		s.StartNewRun()
	}

	if _, ok := s.tasks[task]; ok {
		s.markTaskAndDependentsPending(task)
	} else if s.logger != nil {
		s.logger.Warn("trigger for unknown task; ignoring")
	}

	newlyScheduled := s.collectNewReadyTasks()
	runJustFinished := s.maybeFinishRun()

	return Step{
		NewlyScheduled:  newlyScheduled,
		RunJustFinished: runJustFinished,
	}
}

// StepProgress is the rich variant of HandleProgress.
func (s *Scheduler) StepProgress(task domain.InternedString) Step {
	if s.currentRun == nil {
		if s.logger != nil {
			s.logger.Warn("progress with no active run; ignoring")
		}
		return Step{}
	}

	info, ok := s.tasks[task]
	if !ok {
		if s.logger != nil {
			s.logger.Warn("progress from unknown task; ignoring")
		}
		return Step{}
	}

	runID := *s.currentRun
	done := domain.DoneSuccess
	info.RunState = &done
	info.LastSuccessfulRun = &runID

	newlyScheduled := s.collectNewReadyTasks()
	runJustFinished := s.maybeFinishRun()

	return Step{
		NewlyScheduled:  newlyScheduled,
		RunJustFinished: runJustFinished,
	}
}

// StepCompletion is the rich variant of HandleCompletion.
func (s *Scheduler) StepCompletion(task domain.InternedString, outcome domain.TaskOutcome) Step {
	if s.currentRun == nil {
		if s.logger != nil {
			s.logger.Warn("completion with no active run; ignoring")
		}
		return Step{}
	}

	runID := *s.currentRun
	var newlyScheduled []domain.ScheduledTask
	var newlyFailed []domain.InternedString

	info, ok := s.tasks[task]
	switch {
	case !ok:
		if s.logger != nil {
			s.logger.Warn("completion for unknown task; ignoring")
		}
	case outcome.Success:
		done := domain.DoneSuccess
		info.RunState = &done
		info.LastSuccessfulRun = &runID
		newlyScheduled = s.collectNewReadyTasks()
	default:
		failed := domain.DoneFailed
		info.RunState = &failed
		info.LastFailedRun = &runID
		if s.logger != nil {
			s.logger.Warn("task failed; failing dependents in this run")
		}
		newlyFailed = append(newlyFailed, task)
		newlyFailed = append(newlyFailed, s.markDependentsFailed(task)...)
	}

	runJustFinished := s.maybeFinishRun()

	return Step{
		NewlyScheduled:  newlyScheduled,
		NewlyFailed:     newlyFailed,
		RunJustFinished: runJustFinished,
	}
}

// TaskNames returns the task names known to the scheduler in dependency
// order, for dry-run/debug output.
func (s *Scheduler) TaskNames() []domain.InternedString {
	return s.graph.TaskNames()
}

// maybeFinishRun clears currentRun if all tasks have reached a terminal
// state. Returns true if this call transitioned running -> idle.
func (s *Scheduler) maybeFinishRun() bool {
	if s.currentRun == nil {
		return false
	}

	if !s.allTasksTerminal() {
		return false
	}

	if s.logger != nil {
		s.logger.Debug("scheduler: all tasks terminal; marking run as finished")
	}
	s.currentRun = nil
	return true
}

// markTaskAndDependentsPending includes root and every downstream dependent
// in the current run, except a dependent whose RunOnOwnFilesOnly is set: it
// must never run merely because an ancestor was triggered (spec §4.7), so
// neither it nor anything downstream of it is pulled in by this cascade.
// root itself is always marked, since root is by definition the direct
// trigger, not a DAG descendant. Tasks already participating keep their
// current state.
func (s *Scheduler) markTaskAndDependentsPending(root domain.InternedString) {
	visited := map[domain.InternedString]struct{}{root: {}}
	s.markPending(root)

	stack := append([]domain.InternedString(nil), s.graph.Dependents(root)...)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[name]; seen {
			continue
		}
		visited[name] = struct{}{}

		info, ok := s.tasks[name]
		if !ok {
			if s.logger != nil {
				s.logger.Warn("node in DAG not present in tasks map")
			}
			continue
		}

		if info.Task.RunOnOwnFilesOnly {
			continue
		}

		s.markPending(name)
		stack = append(stack, s.graph.Dependents(name)...)
	}
}

// markPending marks name Pending for the current run if it isn't already
// participating.
func (s *Scheduler) markPending(name domain.InternedString) {
	info, ok := s.tasks[name]
	if !ok {
		if s.logger != nil {
			s.logger.Warn("node in DAG not present in tasks map")
		}
		return
	}

	if info.RunState == nil {
		pending := domain.Pending
		info.RunState = &pending
	}
}

// depsSatisfiedForInfo determines whether every dependency of info is
// satisfied for the current run: either DoneSuccess this run, or not
// participating in this run but having succeeded historically.
func (s *Scheduler) depsSatisfiedForInfo(info *domain.TaskInfo) bool {
	for _, depName := range info.Deps {
		dep, ok := s.tasks[depName]
		if !ok {
			if s.logger != nil {
				s.logger.Warn("dependency missing from tasks map")
			}
			return false
		}

		if dep.RunState == nil {
			if dep.LastSuccessfulRun == nil {
				return false
			}
			continue
		}

		switch *dep.RunState {
		case domain.DoneSuccess:
			// satisfied in this run
		case domain.DoneFailed, domain.Pending, domain.Running:
			return false
		}
	}
	return true
}

// markDependentsFailed cascades DoneFailed to every triggered dependent of
// failedTask transitively, returning the newly-failed task names.
func (s *Scheduler) markDependentsFailed(failedTask domain.InternedString) []domain.InternedString {
	stack := append([]domain.InternedString(nil), s.graph.Dependents(failedTask)...)
	var newlyFailed []domain.InternedString

	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, ok := s.tasks[name]
		if !ok || info.RunState == nil {
			continue
		}

		switch *info.RunState {
		case domain.Pending, domain.Running:
			failed := domain.DoneFailed
			info.RunState = &failed
			newlyFailed = append(newlyFailed, name)
			stack = append(stack, s.graph.Dependents(name)...)
		case domain.DoneSuccess, domain.DoneFailed:
			// already terminal
		}
	}

	return newlyFailed
}

// collectNewReadyTasks marks every Pending task whose dependencies are now
// satisfied as Running and returns them as ScheduledTasks.
func (s *Scheduler) collectNewReadyTasks() []domain.ScheduledTask {
	var candidates []domain.InternedString
	for name, info := range s.tasks {
		if info.RunState == nil || *info.RunState != domain.Pending {
			continue
		}
		if s.depsSatisfiedForInfo(info) {
			candidates = append(candidates, name)
		}
	}

	runID := uint64(0)
	if s.currentRun != nil {
		runID = *s.currentRun
	}

	ready := make([]domain.ScheduledTask, 0, len(candidates))
	for _, name := range candidates {
		info := s.tasks[name]

		running := domain.Running
		info.RunState = &running

		if s.logger != nil {
			if info.LastSuccessfulRun != nil || info.LastFailedRun != nil {
				s.logger.Info("scheduling task for re-run in this DAG run")
			} else {
				s.logger.Info("scheduling task for first run in this DAG run")
			}
		}

		ready = append(ready, domain.NewScheduledTask(info, runID))
	}

	return ready
}

// allTasksTerminal reports whether every task in the tasks map has reached
// a terminal state (or never participated in the run at all).
func (s *Scheduler) allTasksTerminal() bool {
	for _, info := range s.tasks {
		if info.RunState != nil && (*info.RunState == domain.Pending || *info.RunState == domain.Running) {
			return false
		}
	}
	return true
}
