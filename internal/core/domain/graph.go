// Package domain contains the core domain models for the watchdag task DAG.
package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// visitState tracks an iterative-DFS node's progress through Validate's
// topological sort.
type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// Graph represents the validated dependency graph of tasks declared in a
// Watchdag.toml config (spec §3/§4.1).
type Graph struct {
	tasks          map[InternedString]Task
	executionOrder []InternedString
	dependents     map[InternedString][]InternedString
	root           string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks: make(map[InternedString]Task),
	}
}

// AddTask adds a task to the graph. It returns an error if a task with the
// same name already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name.String())
	}
	g.tasks[t.Name] = *t
	return nil
}

// Validate checks every `after` reference resolves to a known task and that
// the dependency graph has no cycle, using an iterative-DFS topological
// sort. It populates the execution order and the reverse (dependents) map on
// success.
func (g *Graph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.tasks))
	g.dependents = g.buildDependentsMap()

	state := make(map[InternedString]visitState, len(g.tasks))
	var path []InternedString

	for _, name := range g.namesInDeterministicOrder() {
		if state[name] == unvisited {
			if err := g.visitForToposort(name, state, &path); err != nil {
				return err
			}
		}
	}

	return nil
}

// visitForToposort runs one DFS branch of Validate's topological sort rooted
// at name, appending to g.executionOrder in dependency-first order and
// failing on a missing `after` reference or a cycle back into path.
func (g *Graph) visitForToposort(name InternedString, state map[InternedString]visitState, path *[]InternedString) error {
	state[name] = visiting
	*path = append(*path, name)

	task, exists := g.tasks[name]
	if !exists {
		return zerr.With(ErrMissingDependency, "dependency", name.String())
	}

	for _, dep := range task.Deps {
		if _, ok := g.tasks[dep]; !ok {
			err := zerr.With(ErrMissingDependency, "task", name.String())
			return zerr.With(err, "dependency", dep.String())
		}
		switch state[dep] {
		case visiting:
			return cycleError(*path, dep)
		case unvisited:
			if err := g.visitForToposort(dep, state, path); err != nil {
				return err
			}
		case visited:
		}
	}

	state[name] = visited
	*path = (*path)[:len(*path)-1]
	g.executionOrder = append(g.executionOrder, name)
	return nil
}

func (g *Graph) buildDependentsMap() map[InternedString][]InternedString {
	dependents := make(map[InternedString][]InternedString)
	for taskName, task := range g.tasks {
		for _, dep := range task.Deps {
			dependents[dep] = append(dependents[dep], taskName)
		}
	}
	return dependents
}

// namesInDeterministicOrder returns every task name sorted lexically, so
// Validate's traversal order (and therefore its cycle-error message) doesn't
// depend on Go's randomized map iteration.
func (g *Graph) namesInDeterministicOrder() []InternedString {
	names := make([]InternedString, 0, len(g.tasks))
	for name := range g.tasks {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b InternedString) int {
		return strings.Compare(a.String(), b.String())
	})
	return names
}

// cycleError renders the portion of path from dep's first occurrence back to
// dep itself as an arrow-joined chain, e.g. "A -> B -> A".
func cycleError(path []InternedString, dep InternedString) error {
	start := slices.Index(path, dep)

	chain := make([]string, 0, len(path)-start+1)
	for _, node := range path[start:] {
		chain = append(chain, node.String())
	}
	chain = append(chain, dep.String())

	return zerr.With(ErrCycleDetected, "cycle", strings.Join(chain, " -> "))
}

// Walk returns an iterator that yields tasks in dependency-first execution
// order. It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// Dependents returns the tasks that directly depend on the given task
// (`after = [task]`). Returns nil if nothing depends on it.
func (g *Graph) Dependents(task InternedString) []InternedString {
	return g.dependents[task]
}

// DependenciesOf returns the direct dependencies of the given task.
func (g *Graph) DependenciesOf(task InternedString) []InternedString {
	t, ok := g.tasks[task]
	if !ok {
		return nil
	}
	return t.Deps
}

// TaskCount returns the total number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// GetTask retrieves a task by its name.
func (g *Graph) GetTask(name InternedString) (Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// TaskNames returns all task names in dependency-first execution order.
func (g *Graph) TaskNames() []InternedString {
	return g.executionOrder
}

// Root returns the root directory the graph's watch patterns are relative to.
func (g *Graph) Root() string {
	return g.root
}

// SetRoot sets the root directory of the watched project.
func (g *Graph) SetRoot(path string) {
	g.root = path
}

// HasAncestorInSet returns true if `task` has a transitive dependency (via
// `after`) whose name is in `names`. Used by the watcher's DAG-aware root
// filter (spec §4.7) to suppress triggering a task when one of its ancestors
// also matched the same changed path.
func (g *Graph) HasAncestorInSet(task InternedString, names map[InternedString]struct{}) bool {
	stack := append([]InternedString(nil), g.DependenciesOf(task)...)
	seen := make(map[InternedString]struct{})

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := seen[current]; ok {
			continue
		}
		seen[current] = struct{}{}

		if _, ok := names[current]; ok {
			return true
		}

		stack = append(stack, g.DependenciesOf(current)...)
	}

	return false
}
