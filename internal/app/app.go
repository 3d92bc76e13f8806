// Package app wires the core and adapters together and drives the
// CoreRuntime event loop for watchdag's --once and continuous-watch modes
// (spec §4.4, §5, §6).
package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/watchdag/internal/adapters/config"
	"go.trai.ch/watchdag/internal/adapters/detector"
	"go.trai.ch/watchdag/internal/adapters/executor"
	"go.trai.ch/watchdag/internal/adapters/filecache"
	"go.trai.ch/watchdag/internal/adapters/hashstore"
	"go.trai.ch/watchdag/internal/adapters/linear"
	"go.trai.ch/watchdag/internal/adapters/telemetry"
	"go.trai.ch/watchdag/internal/adapters/tui"
	"go.trai.ch/watchdag/internal/adapters/watcher"
	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/core/ports"
	"go.trai.ch/watchdag/internal/engine/pattern"
	"go.trai.ch/watchdag/internal/engine/runtime"
	"go.trai.ch/watchdag/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// eventChannelBuffer bounds the single event queue between producers
// (watcher, executor) and the CoreRuntime driver loop (spec §4.4).
const eventChannelBuffer = 256

// debounceWindow bounds how long a burst of raw filesystem events for the
// same set of paths is coalesced before the DAG-match/hash pass runs once.
const debounceWindow = 75 * time.Millisecond

// hashWorkerCount bounds the pool of goroutines that run EventHandler.HandleEvent,
// so content hashing (blocking disk reads) never runs on the event-consumer
// goroutine itself and a burst of changed files hashes with bounded parallelism.
const hashWorkerCount = 4

// App wires the adapters that don't vary between runs and drives Run.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
}

// New constructs an App from its core adapters.
func New(loader ports.ConfigLoader, log ports.Logger) *App {
	return &App{configLoader: loader, logger: log}
}

// jsonSetter is implemented by logger adapters that support switching their
// output format; App degrades gracefully when the configured Logger doesn't.
type jsonSetter interface {
	SetJSON(enable bool)
}

// SetLogJSON enables or disables JSON logging output, if the configured
// Logger supports it.
func (a *App) SetLogJSON(enable bool) {
	if setter, ok := a.logger.(jsonSetter); ok {
		setter.SetJSON(enable)
	}
}

// RunOptions configures a single App.Run invocation.
type RunOptions struct {
	// ConfigPath overrides config.DefaultPath.
	ConfigPath string
	// Once exits once the scheduler and trigger queue both go idle, instead
	// of watching the filesystem continuously.
	Once bool
	// Task restricts the initial trigger set to a single named task; the
	// Scheduler adds its transitive dependents to the run but not its `after`
	// deps (spec §C.5). Ignored beyond seeding the first run.
	Task string
	// DryRun loads and validates the config, emits the plan, and exits
	// without watching or dispatching anything.
	DryRun bool
	// OutputMode overrides environment auto-detection: "auto", "tui",
	// "linear", "ci", or empty.
	OutputMode string
}

// Run loads the config at opts.ConfigPath (or config.DefaultPath) rooted at
// root, builds the engine and IO adapters, and drives the CoreRuntime until
// it requests exit (opts.Once) or ctx is cancelled.
//
//nolint:cyclop // orchestration function
func (a *App) Run(ctx context.Context, root string, opts RunOptions) error {
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath
	}

	cfg, err := a.configLoader.Load(path)
	if err != nil {
		return err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrWatchRootInvalid.Error()), "root", root)
	}
	cfg.Graph.SetRoot(absRoot)

	profiles, err := pattern.BuildProfiles(cfg.Graph, pattern.Defaults{
		Watch:   cfg.DefaultWatch,
		Exclude: cfg.DefaultExclude,
	})
	if err != nil {
		return err
	}

	initialTriggers, err := initialTriggerSet(cfg.Graph, opts.Task)
	if err != nil {
		return err
	}

	renderer := a.buildRenderer(ctx, opts.OutputMode)
	if err := renderer.Start(ctx); err != nil {
		return err
	}
	renderer.OnPlanEmit(taskNameStrings(cfg.Graph), dependencyMap(cfg.Graph), internedStrings(initialTriggers))

	if opts.DryRun {
		_ = renderer.Stop()
		return renderer.Wait()
	}

	hashStore := a.buildHashStore(cfg.HashStorageMode, absRoot)
	if pruneErr := hashStore.Prune(taskNameStrings(cfg.Graph)); pruneErr != nil && a.logger != nil {
		a.logger.Warn("failed to prune stale hash store entries: " + pruneErr.Error())
	}
	fileCache := filecache.New()

	tracerProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	tracer := telemetry.NewOTelTracer("watchdag").WithRenderer(renderer)

	sink := newEventSink(renderer)
	exec := executor.New(a.logger, sink).WithTracer(tracer)
	sched := scheduler.New(cfg.Graph, a.logger)
	core := runtime.New(sched, cfg.TriggerBehaviour, cfg.QueueLength, runtime.Options{ExitWhenIdle: opts.Once})

	fsWatcher, err := watcher.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsWatcher.Start(ctx, absRoot); err != nil {
		return err
	}

	handler := watcher.NewEventHandler(absRoot, cfg.Graph, profiles, sink, hashStore, fileCache, a.logger)

	// hashJobs decouples the debounced path stream from HandleEvent's actual
	// work: matching a task's watch patterns is cheap, but a use_hash task
	// re-hashes every matching file on disk, which blocks (spec §4.7 step 5).
	// A bounded pool of workers runs that blocking work so one slow hash pass
	// never stalls the event-consumer goroutine or unrelated file changes.
	hashJobs := make(chan string, eventChannelBuffer)

	// Coalesce a burst of raw filesystem events (editors often write+rename
	// in quick succession) into a single DAG-match/hash pass per path per
	// debounceWindow, so a flurry of writes to one file costs one hash
	// computation instead of one per raw event.
	debouncer := watcher.NewDebouncer(debounceWindow, func(paths []string) {
		for _, path := range paths {
			hashJobs <- path
		}
	})

	var eg errgroup.Group
	eg.Go(func() error {
		for event := range fsWatcher.Events() {
			debouncer.Add(event.Path)
		}
		debouncer.Flush()
		close(hashJobs)
		return nil
	})
	for range hashWorkerCount {
		eg.Go(func() error {
			for path := range hashJobs {
				handler.HandleEvent(ports.WatchEvent{Path: path, Operation: ports.OpWrite})
			}
			return nil
		})
	}

	for _, task := range initialTriggers {
		sink.TaskTriggered(task.String(), domain.TriggerManual)
	}

	runErr := driveRuntime(ctx, core, exec, sink)

	_ = fsWatcher.Stop()
	_ = exec.Shutdown(ctx)
	_ = tracer.Shutdown(ctx)
	_ = tracerProvider.Shutdown(ctx)
	_ = eg.Wait()

	_ = renderer.Stop()
	if waitErr := renderer.Wait(); waitErr != nil && runErr == nil {
		runErr = waitErr
	}

	return runErr
}

// driveRuntime pumps sink's event channel into core.Step, dispatching every
// resulting Command, until the core requests exit or ctx is cancelled
// (spec §4.4/§5's single bounded event channel and driver loop).
func driveRuntime(ctx context.Context, core *runtime.CoreRuntime, exec ports.Executor, sink *eventSink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-sink.events:
			step := core.Step(event)
			for _, cmd := range step.Commands {
				switch cmd.Kind {
				case runtime.DispatchTasks:
					for _, task := range cmd.Tasks {
						sink.renderer.OnTaskStart(task.Name.String(), "", task.Name.String(), timeNow())
					}
					exec.Dispatch(ctx, cmd.Tasks)
				case runtime.RequestExit:
					return nil
				}
			}
			if !step.KeepRunning {
				return nil
			}
		}
	}
}

// initialTriggerSet resolves the initial run's root triggers: every task in
// the graph, or just task if --task names one (spec §C.5).
func initialTriggerSet(graph *domain.Graph, task string) ([]domain.InternedString, error) {
	if task == "" {
		return graph.TaskNames(), nil
	}

	name := domain.NewInternedString(task)
	if _, ok := graph.GetTask(name); !ok {
		return nil, zerr.With(domain.ErrUnknownTaskRequested, "task", task)
	}
	return []domain.InternedString{name}, nil
}

func taskNameStrings(g *domain.Graph) []string {
	return internedStrings(g.TaskNames())
}

func internedStrings(names []domain.InternedString) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out
}

func dependencyMap(g *domain.Graph) map[string][]string {
	out := make(map[string][]string)
	for _, name := range g.TaskNames() {
		out[name.String()] = internedStrings(g.DependenciesOf(name))
	}
	return out
}

func (a *App) buildHashStore(mode domain.HashStorageMode, root string) ports.HashStore {
	if mode == domain.HashStorageFile {
		return hashstore.NewFile(root)
	}
	return hashstore.NewMemory()
}

func (a *App) buildRenderer(ctx context.Context, outputFlag string) ports.Renderer {
	mode := detector.ResolveMode(detector.DetectEnvironment(), outputFlag)
	if mode == detector.ModeLinear {
		return linear.NewRenderer(os.Stdout, os.Stderr)
	}

	model := tui.NewModel(os.Stderr)
	return tui.NewRenderer(&model, tea.WithContext(ctx))
}
