// Package agent implements the scheduler: it admits plan entries strictly
// in order, spawns each as a child process in its own provisioned
// environment, forwards its output, and finalises its status once the
// child exits.
package agent

import (
	"time"

	"github.com/google/uuid"
)

// Status is a PlanEntry's position in its state machine.
// Terminal states (Completed, Failed) never transition further.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// PlanEntry is one test invocation the scheduler owns and mutates.
// Callers only ever see value copies via Scheduler.StatusTable. ID is a
// random UUID assigned once, at scheduler construction; a new Scheduler
// built from the same plan assigns new IDs.
type PlanEntry struct {
	ID           string
	SequenceName string
	ConfigPath   string
	Status       Status
	PID          int
	StartedAt    time.Time
	EndedAt      time.Time
}

// newEntryID generates a fresh identifier for a plan entry.
func newEntryID() string {
	return uuid.NewString()
}
