package executor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/watchdag/internal/core/domain"
	"go.trai.ch/watchdag/internal/core/ports"
)

// runTask spawns task.Cmd in a shell, attaches the long-lived stdout
// handlers (spec §4.6), unconditionally drains stderr, and reports the
// outcome through e.sink unless the process was cancelled (rerun=true
// superseding it), in which case no TaskCompleted event is sent at all —
// the cancelling dispatch already owns the task's next instance.
//
// progressCtx is independent of ctx: it is only cancelled by supersession or
// Shutdown, not by this process exiting, so scheduleProgressOnTime can still
// fire after the process has already completed (spec §4.6).
func (e *Executor) runTask(ctx, progressCtx context.Context, task domain.ScheduledTask) {
	name := task.Name.String()

	if e.logger != nil {
		e.logger.Info("starting task process: " + name)
	}

	var span ports.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, name)
		defer span.End()
	}

	shell, flag := "sh", "-c"
	if runtime.GOOS == "windows" {
		shell, flag = "cmd", "/C"
	}

	cmd := exec.CommandContext(ctx, shell, flag, task.Cmd) //nolint:gosec // task.Cmd is operator-authored config

	ptmx, err := pty.Start(cmd)
	if err != nil {
		if e.logger != nil {
			e.logger.Error(err)
		}
		if span != nil {
			span.RecordError(err)
		}
		e.sink.TaskCompleted(name, domain.TaskOutcome{Success: false, ExitCode: -1})
		return
	}
	if span != nil {
		span.MarkExecStart()
	}

	e.monitorStdout(ctx, task, ptmx, span)

	if task.ProgressOnTime != "" {
		e.scheduleProgressOnTime(progressCtx, task)
	}

	err = cmd.Wait()
	_ = ptmx.Close()

	if ctx.Err() != nil {
		if e.logger != nil {
			e.logger.Info("cancellation requested for running task instance; process killed: " + name)
		}
		return
	}

	if err == nil {
		if e.logger != nil {
			e.logger.Info("task process exited successfully: " + name)
		}
		e.sink.TaskCompleted(name, domain.TaskOutcome{Success: true})
		return
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	if e.logger != nil {
		e.logger.Warn("task process exited with error: " + name)
	}
	if span != nil {
		span.RecordError(err)
	}
	e.sink.TaskCompleted(name, domain.TaskOutcome{Success: false, ExitCode: exitCode})
}

// monitorStdout line-buffers the PTY's combined stdout/stderr stream (a PTY
// merges both), feeding progress_on_stdout/trigger_on_stdout regex matching
// when configured, and otherwise just draining and debug-logging lines so
// the OS pipe buffer never fills.
func (e *Executor) monitorStdout(ctx context.Context, task domain.ScheduledTask, r io.Reader, span ports.Span) {
	monitor := newStdoutMonitor(task, e.logger, e.sink)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for scanner.Scan() {
			line := strings.TrimSuffix(scanner.Text(), "\r")
			if span != nil {
				_, _ = span.Write([]byte(line + "\n"))
			}
			monitor.handleLine(line)
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
	}()
}
