package domain

// Task is the static, config-derived description of a named unit of work.
//
// Fields below mirror a `[task.<name>]` section of Watchdag.toml plus the
// resolved `[default]` watch/exclude inheritance. Per-run state is tracked
// separately in TaskInfo, not here: a Task never changes once the config has
// been loaded and validated.
type Task struct {
	Name InternedString
	Cmd  string

	// Deps lists this task's direct dependencies (`after = [...]`).
	Deps []InternedString

	LongLived bool
	Rerun     bool

	ProgressOnStdout string
	TriggerOnStdout  string
	ProgressOnTime   string

	UseHash bool

	// RunOnOwnFilesOnly exempts this task from the watcher's DAG-aware
	// ancestor-suppression filter: it always triggers on its own watch
	// matches even when an ancestor task also matched the same changed path.
	RunOnOwnFilesOnly bool

	Watch               []string
	Exclude             []string
	AppendDefaultWatch  bool
	AppendDefaultExclude bool
}
