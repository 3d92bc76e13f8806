package ports

import "go.trai.ch/watchdag/internal/core/domain"

// LoadedConfig is the result of loading and validating a Watchdag.toml file:
// the task Graph plus the global runtime behaviour from its [config] section
// (spec §4.3/§6).
type LoadedConfig struct {
	Graph            *domain.Graph
	TriggerBehaviour domain.TriggerBehaviour
	QueueLength      int
	HashStorageMode  domain.HashStorageMode

	// DefaultWatch and DefaultExclude are the [default] section's patterns,
	// merged per task by the pattern package's append_default_* rules.
	DefaultWatch   []string
	DefaultExclude []string
}

// ConfigLoader loads and validates the watchdag configuration file.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the config file at path, validates it (cycle detection,
	// unknown/self dependencies, queue_length, glob/regex/duration syntax)
	// and returns the resulting task graph and runtime options.
	Load(path string) (*LoadedConfig, error)
}
