package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoyoqui/benderr/pkg/config"
	"github.com/aoyoqui/benderr/pkg/errs"
)

// sleeperScript writes a shell script that ignores any arguments the
// scheduler passes it (the fixed "-m", "--sequence", "--config" shape)
// and just sleeps for the given duration, so it stands in for a
// long-running child process under test.
func sleeperScript(t *testing.T, dur time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sleeper.sh")
	seconds := int(dur.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	content := fmt.Sprintf("#!/bin/sh\nexec sleep %d\n", seconds)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	return path
}

// fakeProvisioner hands back a fixed interpreter path regardless of the
// plan's packages policy, letting tests drive the scheduler's process
// lifecycle against real, trivial binaries instead of python.
type fakeProvisioner struct {
	interpreter string
}

func (f *fakeProvisioner) Interpreter(context.Context, string, config.PackagesConfig) (string, error) {
	return f.interpreter, nil
}

func newTestScheduler(interpreter string) *Scheduler {
	plan := &config.Plan{Tests: []config.PlanTest{
		{Name: "A", Config: "a.json"},
		{Name: "B", Config: "b.json"},
	}}
	s := New(plan, &fakeProvisioner{interpreter: interpreter}, zerolog.Nop())
	return s
}

func TestScheduler_OutOfOrderRejected(t *testing.T) {
	s := newTestScheduler("/bin/true")
	err := s.Start(context.Background(), 1)
	var outOfOrder *errs.OutOfOrder
	require.ErrorAs(t, err, &outOfOrder)
	assert.Equal(t, 0, outOfOrder.Allowed)
}

func TestScheduler_BusyRejected(t *testing.T) {
	s := newTestScheduler(sleeperScript(t, time.Second))
	require.NoError(t, s.Start(context.Background(), 0))

	err := s.Start(context.Background(), 1)
	var busy *errs.Busy
	require.ErrorAs(t, err, &busy)

	require.Eventually(t, func() bool {
		return s.StatusTable()[0].Status != StatusRunning
	}, 2*time.Second, 20*time.Millisecond)
}

func TestScheduler_AllCompletedAfterEveryEntryRuns(t *testing.T) {
	s := newTestScheduler("/bin/true")
	require.NoError(t, s.Start(context.Background(), 0))
	require.Eventually(t, func() bool {
		return s.StatusTable()[0].Status == StatusCompleted
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Start(context.Background(), 1))
	require.Eventually(t, func() bool {
		return s.StatusTable()[1].Status == StatusCompleted
	}, time.Second, 10*time.Millisecond)

	err := s.Start(context.Background(), 0)
	var allCompleted *errs.AllCompleted
	require.ErrorAs(t, err, &allCompleted)
}

func TestScheduler_FailedExitMarksEntryFailed(t *testing.T) {
	s := newTestScheduler("/bin/false")
	require.NoError(t, s.Start(context.Background(), 0))

	require.Eventually(t, func() bool {
		return s.StatusTable()[0].Status == StatusFailed
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_ShutdownTerminatesRunningEntry(t *testing.T) {
	s := newTestScheduler(sleeperScript(t, 30*time.Second))
	require.NoError(t, s.Start(context.Background(), 0))

	require.Eventually(t, func() bool {
		return s.StatusTable()[0].Status == StatusRunning
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Shutdown(context.Background()))

	require.Eventually(t, func() bool {
		return s.StatusTable()[0].Status == StatusFailed
	}, 2*time.Second, 20*time.Millisecond)
}

func TestScheduler_EntriesGetDistinctIDs(t *testing.T) {
	s := newTestScheduler("/bin/true")
	table := s.StatusTable()
	require.Len(t, table, 2)
	assert.NotEmpty(t, table[0].ID)
	assert.NotEmpty(t, table[1].ID)
	assert.NotEqual(t, table[0].ID, table[1].ID)
}

func TestScheduler_NextAllowedSkipsCompleted(t *testing.T) {
	s := newTestScheduler("/bin/true")
	assert.Equal(t, 0, s.NextAllowed())
	require.NoError(t, s.Start(context.Background(), 0))
	require.Eventually(t, func() bool {
		return s.NextAllowed() == 1
	}, time.Second, 10*time.Millisecond)
}
