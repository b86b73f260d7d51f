package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aoyoqui/benderr/pkg/config"
	"github.com/aoyoqui/benderr/pkg/errs"
)

// defaultRunnerModule is the module the scheduler asks each interpreter
// to run, mirroring br_agent's "-m br_cli.main" invocation.
const defaultRunnerModule = "benderr.cmd.run"

// killGrace is how long a Running entry's child is given to exit after
// SIGTERM before the scheduler sends SIGKILL.
const killGrace = 5 * time.Second

// runningEntry tracks the live process state for a PlanEntry currently
// Running; it is not exposed outside the scheduler.
type runningEntry struct {
	cmd   *exec.Cmd
	group *errgroup.Group
	done  chan struct{}
}

// Scheduler implements the admission, spawn and finalisation rules for a
// plan's entries. All plan state is owned by the scheduler; callers only
// ever observe it through StatusTable's value copies.
type Scheduler struct {
	plan         *config.Plan
	provisioner  Provisioner
	log          zerolog.Logger
	runnerModule string

	mu      sync.Mutex
	entries []PlanEntry
	running map[int]*runningEntry
}

// New creates a Scheduler for plan, whose entries are admitted strictly
// in order.
func New(plan *config.Plan, provisioner Provisioner, log zerolog.Logger) *Scheduler {
	entries := make([]PlanEntry, len(plan.Tests))
	for i, t := range plan.Tests {
		entries[i] = PlanEntry{ID: newEntryID(), SequenceName: t.Name, ConfigPath: t.Config, Status: StatusPending}
	}
	return &Scheduler{
		plan:         plan,
		provisioner:  provisioner,
		log:          log,
		runnerModule: defaultRunnerModule,
		entries:      entries,
		running:      make(map[int]*runningEntry),
	}
}

// NextAllowed returns the index of the first Pending entry, or -1 if none
// remains.
func (s *Scheduler) NextAllowed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextAllowedLocked()
}

func (s *Scheduler) nextAllowedLocked() int {
	for i, e := range s.entries {
		if e.Status == StatusPending {
			return i
		}
	}
	return -1
}

func (s *Scheduler) isBusyLocked() bool {
	for _, e := range s.entries {
		if e.Status == StatusRunning {
			return true
		}
	}
	return false
}

// Start admits and spawns the plan entry at index, enforcing admission
// rules: AllCompleted when no Pending entry remains, OutOfOrder when
// index is not next_allowed(), Busy when an entry is already Running.
func (s *Scheduler) Start(ctx context.Context, index int) error {
	s.mu.Lock()
	next := s.nextAllowedLocked()
	if next == -1 {
		s.mu.Unlock()
		return &errs.AllCompleted{}
	}
	if index != next {
		s.mu.Unlock()
		return &errs.OutOfOrder{Requested: index, Allowed: next}
	}
	if s.isBusyLocked() {
		s.mu.Unlock()
		return &errs.Busy{}
	}
	s.mu.Unlock()

	interpreter, err := s.provisioner.Interpreter(ctx, s.entries[index].SequenceName, s.plan.Packages)
	if err != nil {
		return fmt.Errorf("provisioning environment: %w", err)
	}

	entry := s.entries[index]
	args := []string{"-m", s.runnerModule, "--sequence", entry.SequenceName, "--config", entry.ConfigPath}
	cmd := exec.CommandContext(ctx, interpreter, args...)
	cmd.Env = os.Environ()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("attaching stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("attaching stderr: %w", err)
	}

	s.log.Info().Str("sequence", entry.SequenceName).Str("interpreter", interpreter).Msg("starting plan entry")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting child process: %w", err)
	}

	var group errgroup.Group
	group.Go(func() error { return forwardLines(stdout, os.Stdout) })
	group.Go(func() error { return forwardLines(stderr, os.Stderr) })

	rt := &runningEntry{cmd: cmd, group: &group, done: make(chan struct{})}

	s.mu.Lock()
	s.entries[index].Status = StatusRunning
	s.entries[index].PID = cmd.Process.Pid
	s.entries[index].StartedAt = time.Now().UTC()
	s.running[index] = rt
	s.mu.Unlock()

	go s.waitAndFinalize(index, rt)

	return nil
}

func forwardLines(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}
	return scanner.Err()
}

func (s *Scheduler) waitAndFinalize(index int, rt *runningEntry) {
	waitErr := rt.cmd.Wait()
	_ = rt.group.Wait()
	close(rt.done)

	s.mu.Lock()
	s.entries[index].EndedAt = time.Now().UTC()
	if waitErr == nil {
		s.entries[index].Status = StatusCompleted
	} else {
		s.entries[index].Status = StatusFailed
	}
	delete(s.running, index)
	s.mu.Unlock()

	s.log.Info().
		Str("sequence", s.entries[index].SequenceName).
		Str("status", string(s.entries[index].Status)).
		Err(waitErr).
		Msg("plan entry finished")
}

// StatusTable returns a value-copy snapshot of every entry, safe to
// render from another goroutine.
func (s *Scheduler) StatusTable() []PlanEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlanEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Shutdown terminates every Running entry: SIGTERM first, then SIGKILL
// after killGrace if the child has not exited. Terminated entries are marked Failed. Errors from
// multiple entries are aggregated.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	toStop := make(map[int]*runningEntry, len(s.running))
	for i, rt := range s.running {
		toStop[i] = rt
	}
	s.mu.Unlock()

	var result *multierror.Error
	for index, rt := range toStop {
		if err := terminateWithGrace(rt.cmd, rt.done, killGrace); err != nil {
			result = multierror.Append(result, fmt.Errorf("entry %d: %w", index, err))
		}
	}
	return result.ErrorOrNil()
}

func terminateWithGrace(cmd *exec.Cmd, done chan struct{}, grace time.Duration) error {
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Signal(terminateSignal()); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return cmd.Process.Kill()
	}
}
