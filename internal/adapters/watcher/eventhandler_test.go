package watcher_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/watchdag/internal/adapters/filecache"
	"go.trai.ch/watchdag/internal/adapters/hashstore"
	"go.trai.ch/watchdag/internal/adapters/watcher"
	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/core/ports"
	"go.trai.ch/watchdag/internal/engine/pattern"
)

type fakeSink struct {
	triggered []string
}

func (f *fakeSink) TaskTriggered(task string, _ domain.TriggerReason) {
	f.triggered = append(f.triggered, task)
}
func (f *fakeSink) TaskProgressed(string)                     {}
func (f *fakeSink) TaskCompleted(string, domain.TaskOutcome) {}

func mustGraph(t *testing.T, tasks ...*domain.Task) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	g.SetRoot(".")
	for _, task := range tasks {
		require.NoError(t, g.AddTask(task))
	}
	require.NoError(t, g.Validate())
	return g
}

func newHandler(t *testing.T, root string, g *domain.Graph, sink ports.RuntimeEventSink, store ports.HashStore) *watcher.EventHandler {
	t.Helper()
	profiles, err := pattern.BuildProfiles(g, pattern.Defaults{})
	require.NoError(t, err)
	return watcher.NewEventHandler(root, g, profiles, sink, store, filecache.New(), nil)
}

func TestEventHandler_MatchingTask_TriggersFileWatch(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))

	name := domain.NewInternedString("build")
	g := mustGraph(t, &domain.Task{Name: name, Watch: []string{"**/*.go"}})
	sink := &fakeSink{}

	h := newHandler(t, root, g, sink, hashstore.NewMemory())
	h.HandleEvent(ports.WatchEvent{Path: path, Operation: ports.OpWrite})

	assert.Equal(t, []string{"build"}, sink.triggered)
}

func TestEventHandler_DAGFilter_SuppressesDescendant(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))

	ancestor := domain.NewInternedString("compile")
	descendant := domain.NewInternedString("test")
	g := mustGraph(t,
		&domain.Task{Name: ancestor, Watch: []string{"**/*.go"}},
		&domain.Task{Name: descendant, Deps: []domain.InternedString{ancestor}, Watch: []string{"**/*.go"}},
	)
	sink := &fakeSink{}

	h := newHandler(t, root, g, sink, hashstore.NewMemory())
	h.HandleEvent(ports.WatchEvent{Path: path, Operation: ports.OpWrite})

	assert.Equal(t, []string{"compile"}, sink.triggered)
}

func TestEventHandler_RunOnOwnFilesOnly_BypassesSuppression(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))

	ancestor := domain.NewInternedString("compile")
	descendant := domain.NewInternedString("test")
	g := mustGraph(t,
		&domain.Task{Name: ancestor, Watch: []string{"**/*.go"}},
		&domain.Task{
			Name: descendant, Deps: []domain.InternedString{ancestor},
			Watch: []string{"**/*.go"}, RunOnOwnFilesOnly: true,
		},
	)
	sink := &fakeSink{}

	h := newHandler(t, root, g, sink, hashstore.NewMemory())
	h.HandleEvent(ports.WatchEvent{Path: path, Operation: ports.OpWrite})

	assert.ElementsMatch(t, []string{"compile", "test"}, sink.triggered)
}

func TestEventHandler_UseHash_SuppressesUnchangedContent(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))

	name := domain.NewInternedString("build")
	g := mustGraph(t, &domain.Task{Name: name, Watch: []string{"**/*.go"}, UseHash: true})
	sink := &fakeSink{}
	store := hashstore.NewMemory()

	h := newHandler(t, root, g, sink, store)
	h.HandleEvent(ports.WatchEvent{Path: path, Operation: ports.OpWrite})
	require.Equal(t, []string{"build"}, sink.triggered)

	// Touch the file without changing its content: the stored digest is
	// unchanged, so a second event should not retrigger.
	sink.triggered = nil
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))
	h.HandleEvent(ports.WatchEvent{Path: path, Operation: ports.OpWrite})
	assert.Empty(t, sink.triggered)
}

func TestEventHandler_UseHash_RetriggersOnContentChange(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main"), 0o644))

	name := domain.NewInternedString("build")
	g := mustGraph(t, &domain.Task{Name: name, Watch: []string{"**/*.go"}, UseHash: true})
	sink := &fakeSink{}

	h := newHandler(t, root, g, sink, hashstore.NewMemory())
	h.HandleEvent(ports.WatchEvent{Path: path, Operation: ports.OpWrite})
	require.Equal(t, []string{"build"}, sink.triggered)

	sink.triggered = nil
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc main() {}"), 0o644))
	h.HandleEvent(ports.WatchEvent{Path: path, Operation: ports.OpWrite})
	assert.Equal(t, []string{"build"}, sink.triggered)
}

func TestEventHandler_UnwatchedPath_DoesNotTrigger(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "README.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	name := domain.NewInternedString("build")
	g := mustGraph(t, &domain.Task{Name: name, Watch: []string{"**/*.go"}})
	sink := &fakeSink{}

	h := newHandler(t, root, g, sink, hashstore.NewMemory())
	h.HandleEvent(ports.WatchEvent{Path: path, Operation: ports.OpWrite})
	assert.Empty(t, sink.triggered)
}
