package config

// rawFile is the direct TOML deserialization target for Watchdag.toml: one
// [config] section, one optional [default] section, and one [task.<name>]
// section per task.
type rawFile struct {
	Config  rawGlobalConfig    `toml:"config"`
	Default rawDefaultSection  `toml:"default"`
	Task    map[string]rawTask `toml:"task"`
}

// rawGlobalConfig is the [config] section.
type rawGlobalConfig struct {
	TriggeredWhileRunningBehaviour string `toml:"triggered_while_running_behaviour"`
	QueueLength                   *int   `toml:"queue_length"`
	HashStorageMode                string `toml:"hash_storage_mode"`
}

// rawDefaultSection is the [default] section, applied to every task per its
// append_default_watch/append_default_exclude/use_hash flags.
type rawDefaultSection struct {
	Watch   []string `toml:"watch"`
	Exclude []string `toml:"exclude"`
	UseHash *bool    `toml:"use_hash"`
}

// rawTask is one [task.<name>] section.
type rawTask struct {
	Cmd     string   `toml:"cmd"`
	After   []string `toml:"after"`
	Watch   []string `toml:"watch"`
	Exclude []string `toml:"exclude"`

	AppendDefaultWatch   bool  `toml:"append_default_watch"`
	AppendDefaultExclude bool  `toml:"append_default_exclude"`
	UseHash              *bool `toml:"use_hash"`

	LongLived bool  `toml:"long_lived"`
	Rerun     *bool `toml:"rerun"`

	ProgressOnStdout string `toml:"progress_on_stdout"`
	TriggerOnStdout  string `toml:"trigger_on_stdout"`
	ProgressOnTime   string `toml:"progress_on_time"`

	RunOnOwnFilesOnly bool `toml:"run_on_own_files_only"`
}

const (
	defaultQueueLength = 1

	hashStorageMemory = "memory"
	hashStorageFile   = "file"

	behaviourQueue  = "queue"
	behaviourCancel = "cancel"
)
