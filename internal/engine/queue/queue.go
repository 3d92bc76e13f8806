// Package queue implements the TriggerQueue described in spec §4.3: it
// buffers task triggers that arrive while a DAG run is already in progress,
// so the runtime can start the next run from everything that accumulated
// while it was busy.
package queue

import "go.trai.ch/watchdag/internal/core/domain"

// TriggerQueue holds batches of task triggers recorded while a DAG run is
// active. Each batch is the set of task names that should be treated as
// triggers for one future run.
type TriggerQueue struct {
	behaviour domain.TriggerBehaviour
	maxRuns   int
	runs      []map[domain.InternedString]struct{}
}

// New creates a TriggerQueue with the given behaviour and maximum queued
// batches. maxRuns is clamped to at least 1.
func New(behaviour domain.TriggerBehaviour, maxRuns int) *TriggerQueue {
	if maxRuns < 1 {
		maxRuns = 1
	}
	return &TriggerQueue{
		behaviour: behaviour,
		maxRuns:   maxRuns,
	}
}

// IsEmpty reports whether there are no queued triggers.
func (q *TriggerQueue) IsEmpty() bool {
	return len(q.runs) == 0
}

// Behaviour returns the configured trigger-while-running behaviour.
func (q *TriggerQueue) Behaviour() domain.TriggerBehaviour {
	return q.behaviour
}

// RecordTrigger records that task was triggered while a DAG run is in
// progress. Under TriggerQueue behaviour it is merged into the last queued
// batch (or starts a new one), dropping the oldest batch once maxRuns is
// exceeded. Under TriggerCancel behaviour it replaces all queued batches
// with a single batch containing only task.
func (q *TriggerQueue) RecordTrigger(task domain.InternedString) {
	switch q.behaviour {
	case domain.TriggerCancel:
		q.runs = []map[domain.InternedString]struct{}{{task: {}}}
	default:
		if len(q.runs) == 0 {
			q.runs = append(q.runs, map[domain.InternedString]struct{}{task: {}})
		} else {
			q.runs[len(q.runs)-1][task] = struct{}{}
		}

		for len(q.runs) > q.maxRuns {
			q.runs = q.runs[1:]
		}
	}
}

// DrainPending removes all queued batches and merges them into a single
// slice of task names, to be used as the trigger set for the next run.
func (q *TriggerQueue) DrainPending() []domain.InternedString {
	merged := make(map[domain.InternedString]struct{})
	for _, batch := range q.runs {
		for name := range batch {
			merged[name] = struct{}{}
		}
	}
	q.runs = nil

	tasks := make([]domain.InternedString, 0, len(merged))
	for name := range merged {
		tasks = append(tasks, name)
	}
	return tasks
}
