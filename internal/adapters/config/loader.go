// Package config loads and validates Watchdag.toml.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader by reading a TOML file (spec §6).
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// DefaultPath is the config filename used when --config is not given.
const DefaultPath = "Watchdag.toml"

// Load reads, decodes, and validates the TOML file at path.
func (l *Loader) Load(path string) (*ports.LoadedConfig, error) {
	contents, err := os.ReadFile(path) //nolint:gosec // path comes from the CLI's --config flag
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zerr.With(domain.ErrConfigNotFound, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var raw rawFile
	if _, err := toml.Decode(string(contents), &raw); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	return fromRaw(raw)
}

func fromRaw(raw rawFile) (*ports.LoadedConfig, error) {
	if len(raw.Task) == 0 {
		return nil, domain.ErrNoTasksDeclared
	}

	if err := validateDependencies(raw); err != nil {
		return nil, err
	}

	queueLength := defaultQueueLength
	if raw.Config.QueueLength != nil {
		queueLength = *raw.Config.QueueLength
	}
	if queueLength < 1 {
		return nil, zerr.With(domain.ErrInvalidQueueLength, "queue_length", queueLength)
	}

	behaviour, err := domain.ParseTriggerBehaviour(raw.Config.TriggeredWhileRunningBehaviour)
	if err != nil {
		return nil, err
	}

	hashMode, err := domain.ParseHashStorageMode(raw.Config.HashStorageMode)
	if err != nil {
		return nil, err
	}

	graph := domain.NewGraph()
	for name, rt := range raw.Task {
		if err := graph.AddTask(toDomainTask(name, rt, raw.Default)); err != nil {
			return nil, err
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}

	return &ports.LoadedConfig{
		Graph:            graph,
		TriggerBehaviour: behaviour,
		QueueLength:      queueLength,
		HashStorageMode:  hashMode,
		DefaultWatch:     raw.Default.Watch,
		DefaultExclude:   raw.Default.Exclude,
	}, nil
}

// validateDependencies rejects unknown or self `after` references before the
// Graph is even built, so the error names the offending task directly rather
// than surfacing as a generic missing-dependency error from the graph.
func validateDependencies(raw rawFile) error {
	for name, rt := range raw.Task {
		for _, dep := range rt.After {
			if dep == name {
				return zerr.With(domain.ErrSelfDependency, "task", name)
			}
			if _, ok := raw.Task[dep]; !ok {
				return zerr.With(domain.ErrMissingDependency, "task", name, "dependency", dep)
			}
		}
	}
	return nil
}

func toDomainTask(name string, rt rawTask, defaults rawDefaultSection) *domain.Task {
	deps := make([]domain.InternedString, 0, len(rt.After))
	for _, dep := range rt.After {
		deps = append(deps, domain.NewInternedString(dep))
	}

	rerun := true
	if rt.Rerun != nil {
		rerun = *rt.Rerun
	}

	useHash := false
	if defaults.UseHash != nil {
		useHash = *defaults.UseHash
	}
	if rt.UseHash != nil {
		useHash = *rt.UseHash
	}

	return &domain.Task{
		Name:                 domain.NewInternedString(name),
		Cmd:                  rt.Cmd,
		Deps:                 deps,
		LongLived:            rt.LongLived,
		Rerun:                rerun,
		ProgressOnStdout:     rt.ProgressOnStdout,
		TriggerOnStdout:      rt.TriggerOnStdout,
		ProgressOnTime:       rt.ProgressOnTime,
		UseHash:              useHash,
		RunOnOwnFilesOnly:    rt.RunOnOwnFilesOnly,
		Watch:                rt.Watch,
		Exclude:              rt.Exclude,
		AppendDefaultWatch:   rt.AppendDefaultWatch,
		AppendDefaultExclude: rt.AppendDefaultExclude,
	}
}
