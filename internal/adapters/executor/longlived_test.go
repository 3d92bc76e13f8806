package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/watchdag/internal/core/domain"
)

type recordingSink struct {
	mu         sync.Mutex
	progressed []string
	completed  chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{completed: make(chan struct{}, 1)}
}

func (s *recordingSink) TaskTriggered(string, domain.TriggerReason) {}

func (s *recordingSink) TaskProgressed(task string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressed = append(s.progressed, task)
}

func (s *recordingSink) TaskCompleted(string, domain.TaskOutcome) {
	s.completed <- struct{}{}
}

func (s *recordingSink) sawProgress(task string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.progressed {
		if p == task {
			return true
		}
	}
	return false
}

// progress_on_time must fire even after the process it's attached to has
// already exited, since the two operate independently of process lifetime
// (spec §4.6).
func TestExecutor_ProgressOnTime_FiresAfterProcessExits(t *testing.T) {
	sink := newRecordingSink()
	e := New(nil, sink)

	task := domain.ScheduledTask{
		Name:           domain.NewInternedString("quick"),
		Cmd:            "true",
		ProgressOnTime: "100ms",
		RunID:          1,
	}
	e.Dispatch(context.Background(), []domain.ScheduledTask{task})

	select {
	case <-sink.completed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for task completion")
	}
	assert.False(t, sink.sawProgress("quick"), "progress should not have fired yet; process just exited")

	require.Eventually(t, func() bool {
		return sink.sawProgress("quick")
	}, 2*time.Second, 10*time.Millisecond, "progress_on_time must still fire after the process exits")
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "milliseconds", input: "250ms", want: 250 * time.Millisecond},
		{name: "seconds", input: "3s", want: 3 * time.Second},
		{name: "minutes", input: "1m", want: time.Minute},
		{name: "hours", input: "2h", want: 2 * time.Hour},
		{name: "empty", input: "", wantErr: true},
		{name: "missing unit", input: "5", wantErr: true},
		{name: "unsupported unit", input: "5d", wantErr: true},
		{name: "non-numeric", input: "abcs", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDuration(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
