// Package errs defines the error taxonomy shared by the sequence runner,
// the event bus and the agent scheduler.
package errs

import "fmt"

// InvalidSpec is returned when a Spec is constructed with missing or
// contradictory bounds.
type InvalidSpec struct {
	Reason string
}

func (e *InvalidSpec) Error() string { return "invalid spec: " + e.Reason }

// StepCountError is returned when the number of registered handlers does
// not match the number of steps in the loaded configuration.
type StepCountError struct {
	Registered int
	Configured int
}

func (e *StepCountError) Error() string {
	return fmt.Sprintf("registered steps count (%d) does not match configured steps count (%d)",
		e.Registered, e.Configured)
}

// StepsConfigError is returned when a registered handler's step name does
// not match the configured step name at the same position, or when a
// handler is registered without a name.
type StepsConfigError struct {
	Reason string
}

func (e *StepsConfigError) Error() string { return "steps config error: " + e.Reason }

// SpecMismatch is returned by the matcher when a handler's return value's
// shape does not agree with its step's spec list. It is always fatal,
// regardless of stop_at_step_fail or ignore_fail.
type SpecMismatch struct {
	Reason string
}

func (e *SpecMismatch) Error() string { return "spec mismatch: " + e.Reason }

// StepFailure is raised by the runner when a step's verdict is Failed, the
// step is not ignore_fail, and stop_at_step_fail is true.
type StepFailure struct {
	StepName string
}

func (e *StepFailure) Error() string { return fmt.Sprintf("step %q failed", e.StepName) }

// OutOfOrder is returned by the agent scheduler when start(index) is called
// for an index other than next_allowed().
type OutOfOrder struct {
	Requested int
	Allowed   int
}

func (e *OutOfOrder) Error() string {
	return fmt.Sprintf("cannot start entry %d, next allowed is %d", e.Requested, e.Allowed)
}

// Busy is returned when start(index) is called while another plan entry is
// Running.
type Busy struct{}

func (e *Busy) Error() string { return "a plan entry is already running" }

// AllCompleted is returned when start(index) is called but no Pending
// entry remains.
type AllCompleted struct{}

func (e *AllCompleted) Error() string { return "all plan entries are completed" }

// EmptyPlan is returned when a plan file declares no tests.
type EmptyPlan struct{}

func (e *EmptyPlan) Error() string { return "plan declares no tests" }

// ErrUnsupportedValue is returned when a handler returns a Value whose Kind
// is outside the enumerated set (Bool, Int, Float, String, Sequence). This
// is treated as a runtime error rather than a silent Undefined verdict.
type ErrUnsupportedValue struct {
	Reason string
}

func (e *ErrUnsupportedValue) Error() string { return "unsupported handler return value: " + e.Reason }
