package executor

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/core/ports"
)

// stdoutMonitor matches each stdout line against the task's configured
// progress_on_stdout / trigger_on_stdout regexes (spec §4.6). Either pattern
// failing to compile is logged as a warning and treated as absent, matching
// the original implementation's fail-soft behaviour.
type stdoutMonitor struct {
	name     string
	logger   ports.Logger
	sink     ports.RuntimeEventSink
	progress *regexp.Regexp
	trigger  *regexp.Regexp
}

func newStdoutMonitor(task domain.ScheduledTask, logger ports.Logger, sink ports.RuntimeEventSink) *stdoutMonitor {
	m := &stdoutMonitor{name: task.Name.String(), logger: logger, sink: sink}

	if task.ProgressOnStdout != "" {
		if re, err := regexp.Compile(task.ProgressOnStdout); err == nil {
			m.progress = re
		} else if logger != nil {
			logger.Warn("invalid progress_on_stdout regex; ignoring: " + m.name)
		}
	}

	if task.TriggerOnStdout != "" {
		if re, err := regexp.Compile(task.TriggerOnStdout); err == nil {
			m.trigger = re
		} else if logger != nil {
			logger.Warn("invalid trigger_on_stdout regex; ignoring: " + m.name)
		}
	}

	return m
}

func (m *stdoutMonitor) handleLine(line string) {
	if m.logger != nil {
		m.logger.Debug(m.name + ": " + line)
	}

	if m.progress != nil && m.progress.MatchString(line) {
		if m.logger != nil {
			m.logger.Debug("stdout matched progress_on_stdout; emitting progress: " + m.name)
		}
		m.sink.TaskProgressed(m.name)
	}

	if m.trigger != nil && m.trigger.MatchString(line) {
		if m.logger != nil {
			m.logger.Debug("stdout matched trigger_on_stdout; emitting trigger: " + m.name)
		}
		m.sink.TaskTriggered(m.name, domain.TriggerStdout)
	}
}

// scheduleProgressOnTime emits a TaskProgressed event after task's configured
// progress_on_time duration elapses, unless ctx is cancelled first.
func (e *Executor) scheduleProgressOnTime(ctx context.Context, task domain.ScheduledTask) {
	dur, err := parseDuration(task.ProgressOnTime)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("invalid progress_on_time duration; ignoring: " + task.Name.String())
		}
		return
	}

	name := task.Name.String()
	go func() {
		timer := time.NewTimer(dur)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
			if e.logger != nil {
				e.logger.Debug("progress_on_time elapsed; emitting progress: " + name)
			}
			e.sink.TaskProgressed(name)
		}
	}()
}

// parseDuration parses a duration string in the exact grammar supported by
// progress_on_time: an unsigned integer followed by one of ms, s, m, h.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errEmptyDuration
	}

	idx := 0
	for idx < len(s) && s[idx] >= '0' && s[idx] <= '9' {
		idx++
	}
	if idx == 0 {
		return 0, errInvalidDuration
	}

	value, err := strconv.ParseUint(s[:idx], 10, 64)
	if err != nil {
		return 0, errInvalidDuration
	}

	switch s[idx:] {
	case "ms":
		return time.Duration(value) * time.Millisecond, nil
	case "s":
		return time.Duration(value) * time.Second, nil
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	default:
		return 0, errUnsupportedDurationUnit
	}
}
