// Package watcher implements filesystem watching for watchdag's task graph:
// a fsnotify-backed Watcher host, a Debouncer that coalesces bursts of raw
// events, and a DAG-aware EventHandler that turns a settled path into
// TaskTriggered events for the tasks whose watch patterns matched it.
package watcher

import (
	"sync"
	"time"
	"unique"
)

// Debouncer coalesces a burst of rapid filesystem events for distinct paths
// into one batched callback, so a flurry of writes to the same files costs
// one DAG-match/hash pass instead of one per raw event.
//
// Each armed timer owns one inFlight credit, released either by Add/Flush
// when the timer is cancelled before firing, or by fire itself once it (and
// the callback it may run) completes. This lets Flush wait for exactly the
// fire that's pending or running, without racing Timer.Stop's return value
// against fire's own goroutine starting.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[unique.Handle[string]]struct{}
	timer    *time.Timer
	window   time.Duration
	callback func(paths []string)
	inFlight sync.WaitGroup
}

// NewDebouncer creates a new debouncer with the given time window and callback.
func NewDebouncer(window time.Duration, callback func(paths []string)) *Debouncer {
	return &Debouncer{
		pending:  make(map[unique.Handle[string]]struct{}),
		window:   window,
		callback: callback,
	}
}

// Add adds a file path to the pending events set.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handle := unique.Make(path)
	d.pending[handle] = struct{}{}

	if d.timer != nil {
		if d.timer.Stop() {
			// Cancelled before firing: that fire never runs, so release the
			// credit armed for it instead of letting it run down Done itself.
			d.inFlight.Done()
		}
		// Otherwise it already fired (or is about to); fire will Done its own
		// credit when it completes, independent of the new timer armed below.
	}

	d.inFlight.Add(1)
	d.timer = time.AfterFunc(d.window, d.fire)
}

// fire is called when the debounce window expires.
func (d *Debouncer) fire() {
	defer d.inFlight.Done()

	d.mu.Lock()

	if len(d.pending) == 0 {
		d.timer = nil
		d.mu.Unlock()
		return
	}

	paths := make([]string, 0, len(d.pending))
	for handle := range d.pending {
		paths = append(paths, handle.Value())
	}

	d.pending = make(map[unique.Handle[string]]struct{})
	d.timer = nil
	d.mu.Unlock()

	if len(paths) > 0 && d.callback != nil {
		d.callback(paths)
	}
}

// Flush immediately triggers the debounce callback with all pending paths
// and blocks until it, and any fire that was already pending or running,
// have completed. Callers that tear down state the callback depends on
// (e.g. closing a channel it sends to) must call Flush first.
func (d *Debouncer) Flush() {
	d.mu.Lock()

	if d.timer != nil {
		if d.timer.Stop() {
			d.inFlight.Done()
		}
		d.timer = nil
	}

	paths := make([]string, 0, len(d.pending))
	for handle := range d.pending {
		paths = append(paths, handle.Value())
	}
	d.pending = make(map[unique.Handle[string]]struct{})
	d.mu.Unlock()

	if len(paths) > 0 && d.callback != nil {
		d.callback(paths)
	}

	// Wait for any fire that had already started before this Flush (Stop
	// returned false above, so its credit is still outstanding) to finish.
	d.inFlight.Wait()
}
