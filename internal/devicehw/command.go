// Package devicehw is a worked example of a "device transport" external
// collaborator: step handlers call into it, but the core orchestrator
// never does. It ports br_hw.motor to Go as the concrete device the
// bundled demo sequence drives.
package devicehw

// Command is one of the motor controller's wire-level verbs.
type Command string

const (
	CommandGetDeviceID      Command = "id"
	CommandAbsolutePosition Command = "pos"
	CommandRunDiagnostics   Command = "diag"
)
