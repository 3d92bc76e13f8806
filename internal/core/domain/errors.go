package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a
	// name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task's `after` list references
	// a task that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrSelfDependency is returned when a task lists itself in `after`.
	ErrSelfDependency = zerr.New("task cannot depend on itself")

	// ErrCycleDetected is returned when a cycle is detected in the task
	// dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the
	// graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrNoTasksDeclared is returned when a config has zero [task.*] sections.
	ErrNoTasksDeclared = zerr.New("config must contain at least one task")

	// ErrInvalidQueueLength is returned when [config].queue_length is < 1.
	ErrInvalidQueueLength = zerr.New("queue_length must be >= 1")

	// ErrInvalidTriggerBehaviour is returned when
	// triggered_while_running_behaviour is neither "queue" nor "cancel".
	ErrInvalidTriggerBehaviour = zerr.New(`invalid triggered_while_running_behaviour, expected "queue" or "cancel"`)

	// ErrInvalidWatchPattern is returned when a watch/exclude glob pattern
	// fails to compile.
	ErrInvalidWatchPattern = zerr.New("invalid glob pattern")

	// ErrInvalidProgressOnTime is returned when progress_on_time is not a
	// valid duration string.
	ErrInvalidProgressOnTime = zerr.New("invalid progress_on_time duration")

	// ErrInvalidStdoutPattern is returned when progress_on_stdout or
	// trigger_on_stdout fails to compile as a regular expression.
	ErrInvalidStdoutPattern = zerr.New("invalid stdout regex pattern")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no config file exists at the
	// resolved path.
	ErrConfigNotFound = zerr.New("config file not found")

	// ErrTaskExecutionFailed is returned when a task process exits non-zero.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrHashStoreReadFailed is returned when the hash store file cannot be
	// read.
	ErrHashStoreReadFailed = zerr.New("failed to read hash store")

	// ErrHashStoreWriteFailed is returned when the hash store file cannot be
	// written.
	ErrHashStoreWriteFailed = zerr.New("failed to write hash store")

	// ErrFileHashFailed is returned when hashing a file's content fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrUnknownTaskRequested is returned when --task names a task absent
	// from the graph.
	ErrUnknownTaskRequested = zerr.New("requested task not found in graph")

	// ErrWatchRootInvalid is returned when the watch root cannot be resolved
	// to an absolute path.
	ErrWatchRootInvalid = zerr.New("invalid watch root")

	// ErrEmptyWatchSet is returned when a task resolves to an empty watch
	// pattern set (no task patterns and no applicable defaults).
	ErrEmptyWatchSet = zerr.New("task has no watch patterns")

	// ErrInvalidHashStorageMode is returned when [config].hash_storage_mode
	// is neither "memory" nor "file".
	ErrInvalidHashStorageMode = zerr.New(`invalid hash_storage_mode, expected "memory" or "file"`)
)
