package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// TriggerBehaviour controls what happens when a task is triggered while it
// is already participating in the active DAG run (spec §4.3).
type TriggerBehaviour int

const (
	// TriggerQueue remembers the trigger and starts a new run once the
	// current one finishes (default).
	TriggerQueue TriggerBehaviour = iota
	// TriggerCancel drops any previously queued runs and keeps only the
	// latest trigger.
	TriggerCancel
)

func (b TriggerBehaviour) String() string {
	switch b {
	case TriggerCancel:
		return "cancel"
	default:
		return "queue"
	}
}

// ParseTriggerBehaviour parses the `triggered_while_running_behaviour`
// config value ("queue" or "cancel", case-insensitive).
func ParseTriggerBehaviour(s string) (TriggerBehaviour, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "queue":
		return TriggerQueue, nil
	case "cancel":
		return TriggerCancel, nil
	default:
		return TriggerQueue, zerr.With(ErrInvalidTriggerBehaviour, "value", s)
	}
}
