package watcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/watchdag/internal/adapters/filecache"
	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/core/ports"
	"go.trai.ch/watchdag/internal/engine/pattern"
)

// EventHandler turns raw WatchEvents into TaskTriggered events on sink,
// applying the DAG-aware root filter and, for use_hash tasks, content-hash
// gating (spec §4.7).
type EventHandler struct {
	root      string
	graph     *domain.Graph
	profiles  map[domain.InternedString]*pattern.Profile
	sink      ports.RuntimeEventSink
	hashStore ports.HashStore
	fileCache *filecache.FileCache
	logger    ports.Logger
}

// NewEventHandler builds an EventHandler for the given graph and compiled
// watch profiles.
func NewEventHandler(
	root string,
	graph *domain.Graph,
	profiles map[domain.InternedString]*pattern.Profile,
	sink ports.RuntimeEventSink,
	hashStore ports.HashStore,
	fileCache *filecache.FileCache,
	logger ports.Logger,
) *EventHandler {
	return &EventHandler{
		root:      root,
		graph:     graph,
		profiles:  profiles,
		sink:      sink,
		hashStore: hashStore,
		fileCache: fileCache,
		logger:    logger,
	}
}

// HandleEvent processes a single filesystem change and emits TaskTriggered
// events for every task it resolves to.
func (h *EventHandler) HandleEvent(event ports.WatchEvent) {
	rel, ok := relativize(h.root, event.Path)
	if !ok {
		if h.logger != nil {
			h.logger.Warn("could not relativize watch event path: " + event.Path)
		}
		return
	}

	matching := h.matchingProfiles(rel)
	if len(matching) == 0 {
		return
	}

	roots := h.filterDAGRoots(matching)
	if len(roots) == 0 {
		return
	}

	for _, p := range roots {
		if h.shouldTrigger(event.Path, rel, p) {
			h.sink.TaskTriggered(p.Name().String(), domain.TriggerFileWatch)
		}
	}
}

func (h *EventHandler) matchingProfiles(rel string) []*pattern.Profile {
	var matching []*pattern.Profile
	for _, p := range h.profiles {
		if p.Matches(rel) {
			matching = append(matching, p)
		}
	}
	return matching
}

// filterDAGRoots keeps only the tasks in matching that have no ancestor also
// present in matching. A task with run_on_own_files_only set skips this
// suppression entirely: it always triggers as its own root for a path it
// matched, even when an ancestor matched the same path too.
func (h *EventHandler) filterDAGRoots(matching []*pattern.Profile) []*pattern.Profile {
	names := make(map[domain.InternedString]struct{}, len(matching))
	for _, p := range matching {
		names[p.Name()] = struct{}{}
	}

	var roots []*pattern.Profile
	for _, p := range matching {
		if h.runsOnOwnFilesOnly(p.Name()) || !h.graph.HasAncestorInSet(p.Name(), names) {
			roots = append(roots, p)
		}
	}
	return roots
}

func (h *EventHandler) runsOnOwnFilesOnly(name domain.InternedString) bool {
	task, ok := h.graph.GetTask(name)
	return ok && task.RunOnOwnFilesOnly
}

func (h *EventHandler) shouldTrigger(absPath, relPath string, p *pattern.Profile) bool {
	if !p.UseHash() {
		return true
	}

	h.fileCache.Invalidate(absPath)

	files, err := pattern.CollectMatchingFiles(h.root, p)
	if err != nil {
		h.warnFailOpen(p, err, "failed to collect watched files")
		return true
	}

	digests := make([]string, 0, len(files))
	for _, f := range files {
		digest, err := h.fileCache.GetOrCompute(f)
		if err != nil {
			h.warnFailOpen(p, err, "failed to compute file hash")
			return true
		}
		digests = append(digests, digest)
	}

	newHash := aggregateHash(digests)
	taskName := p.Name().String()

	oldHash, ok, err := h.hashStore.Load(taskName)
	if err != nil {
		h.warnFailOpen(p, err, "failed to load task hash")
		return true
	}

	if ok && oldHash == newHash {
		if h.logger != nil {
			h.logger.Info(fmt.Sprintf(
				"skipping task %q (watched content unchanged; last event path %q)",
				taskName, relPath,
			))
		}
		return false
	}

	if err := h.hashStore.Save(taskName, newHash); err != nil && h.logger != nil {
		h.logger.Warn("failed to save task hash: " + taskName)
	}

	return true
}

func (h *EventHandler) warnFailOpen(p *pattern.Profile, err error, msg string) {
	if h.logger != nil {
		h.logger.Warn(msg + "; triggering anyway: " + p.Name().String() + ": " + err.Error())
	}
}

// aggregateHash combines per-file digests, already in sorted-path order,
// into a single stable digest.
func aggregateHash(digests []string) string {
	h := xxhash.New()
	for _, d := range digests {
		_, _ = h.WriteString(d)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// relativize converts an absolute event path to a root-relative, forward
// slash separated path. Returns ok=false when path does not live under root.
func relativize(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
