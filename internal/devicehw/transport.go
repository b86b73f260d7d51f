package devicehw

import (
	"context"

	"github.com/aoyoqui/benderr/pkg/types"
)

// Transport is the port of br_hw.motor.Transport's Protocol: the set of
// operations a concrete device connection exposes. Step handlers never
// see a Transport directly; they go through MotorDrive.
type Transport interface {
	Connect(ctx context.Context) error
	Execute(ctx context.Context, cmd Command) (types.Value, error)
	StartStream(ctx context.Context) error
	StopStream() error
	Disconnect() error
}
