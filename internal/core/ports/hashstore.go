package ports

// HashStore persists the last-seen aggregate content digest per task, so
// that use_hash-enabled tasks can be skipped when their watched files'
// contents haven't actually changed (spec §4.8).
//
//go:generate mockgen -source=hashstore.go -destination=mocks/mock_hashstore.go -package=mocks
type HashStore interface {
	// Load returns the stored digest for task, or ok=false if none exists.
	Load(task string) (digest string, ok bool, err error)

	// Save persists digest as the current hash for task.
	Save(task string, digest string) error

	// Prune removes entries for tasks not present in activeTasks, e.g. after
	// a config edit drops or renames a task. App.Run calls it once at startup.
	Prune(activeTasks []string) error
}
