// Package pattern implements PatternProfile (spec §4.7): compiled per-task
// watch/exclude glob sets, resolved from the task's own config plus the
// `[default]` section's append rules.
package pattern

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/zerr"
)

// Defaults holds the `[default]` section's watch/exclude patterns.
type Defaults struct {
	Watch   []string
	Exclude []string
}

// Profile is a task's compiled watch/exclude glob set plus the metadata the
// watcher's DAG-aware filter needs (spec §4.7).
type Profile struct {
	name    domain.InternedString
	deps    []domain.InternedString
	watch   []string
	exclude []string
	useHash bool
}

// Name returns the task this profile belongs to.
func (p *Profile) Name() domain.InternedString {
	return p.name
}

// Deps returns the task's direct dependencies, for DAG-aware ancestor
// filtering.
func (p *Profile) Deps() []domain.InternedString {
	return p.deps
}

// UseHash reports whether this task requires content-hash gating before
// triggering.
func (p *Profile) UseHash() bool {
	return p.useHash
}

// Matches reports whether relPath (relative to the project root, using `/`
// separators) is watched by this task: it must match the watch set and must
// not match the exclude set.
func (p *Profile) Matches(relPath string) bool {
	if !matchAny(p.watch, relPath) {
		return false
	}
	return !matchAny(p.exclude, relPath)
}

func matchAny(patterns []string, relPath string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, relPath); ok {
			return true
		}
	}
	return false
}

// BuildProfiles compiles a Profile for every task in graph, applying the
// append_default_watch/append_default_exclude merge rules against defaults.
func BuildProfiles(graph *domain.Graph, defaults Defaults) (map[domain.InternedString]*Profile, error) {
	profiles := make(map[domain.InternedString]*Profile, graph.TaskCount())

	for _, name := range graph.TaskNames() {
		task, ok := graph.GetTask(name)
		if !ok {
			continue
		}

		watch := effectivePatterns(task.Watch, defaults.Watch, task.AppendDefaultWatch)
		exclude := effectivePatterns(task.Exclude, defaults.Exclude, task.AppendDefaultExclude)

		if len(watch) == 0 {
			return nil, zerr.With(domain.ErrEmptyWatchSet, "task", name.String())
		}

		profiles[name] = &Profile{
			name:    name,
			deps:    task.Deps,
			watch:   watch,
			exclude: exclude,
			useHash: task.UseHash,
		}
	}

	return profiles, nil
}

// CollectMatchingFiles walks root and returns every regular file's absolute
// path that matches p, sorted for a stable, order-independent aggregate hash
// (spec §4.7 step 5).
func CollectMatchingFiles(root string, p *Profile) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip unreadable entries, fail-open at the caller
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil //nolint:nilerr
		}

		relStr := filepath.ToSlash(rel)
		if p.Matches(relStr) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "root", root)
	}

	sort.Strings(files)
	return files, nil
}

// effectivePatterns resolves the watch/exclude merge rule: when taskList is
// non-empty and appendDefault is true, the defaults are appended to it; when
// non-empty and appendDefault is false, taskList alone is used; when empty,
// the defaults are used as-is.
func effectivePatterns(taskList, defaultList []string, appendDefault bool) []string {
	if len(taskList) == 0 {
		return defaultList
	}
	if !appendDefault {
		return taskList
	}

	combined := make([]string, 0, len(taskList)+len(defaultList))
	combined = append(combined, taskList...)
	combined = append(combined, defaultList...)
	return combined
}
