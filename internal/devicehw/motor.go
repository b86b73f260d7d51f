package devicehw

import (
	"context"

	"github.com/aoyoqui/benderr/pkg/types"
)

// MotorDrive is the Go port of br_hw.motor.MotorDrive: the facade step
// handlers actually call, hiding which Transport backs it.
type MotorDrive struct {
	transport Transport
}

// NewMotorDrive wraps transport in a MotorDrive.
func NewMotorDrive(transport Transport) *MotorDrive {
	return &MotorDrive{transport: transport}
}

func (m *MotorDrive) Connect(ctx context.Context) error { return m.transport.Connect(ctx) }

func (m *MotorDrive) StartStream(ctx context.Context) error { return m.transport.StartStream(ctx) }

func (m *MotorDrive) StopStream() error { return m.transport.StopStream() }

// DeviceID reports the controller's identifier as a Value handlers can
// return directly from a sequence step.
func (m *MotorDrive) DeviceID(ctx context.Context) (types.Value, error) {
	return m.transport.Execute(ctx, CommandGetDeviceID)
}

// AbsolutePosition reports the controller's last known encoder position.
func (m *MotorDrive) AbsolutePosition(ctx context.Context) (types.Value, error) {
	return m.transport.Execute(ctx, CommandAbsolutePosition)
}

// RunDiagnostics asks the controller to self-test.
func (m *MotorDrive) RunDiagnostics(ctx context.Context) (types.Value, error) {
	return m.transport.Execute(ctx, CommandRunDiagnostics)
}
