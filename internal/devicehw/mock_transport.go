package devicehw

import (
	"context"
	"math/rand"
	"time"

	"github.com/aoyoqui/benderr/pkg/types"
)

// MockTransport is the Go port of br_hw.motor.TransportMock: a
// connectionless stand-in a demo or test can run without real hardware
// attached.
type MockTransport struct {
	syncPeriod time.Duration
	position   int64

	cancelStream context.CancelFunc
}

// NewMockTransport creates a MockTransport streaming at the given period.
func NewMockTransport(syncPeriod time.Duration) *MockTransport {
	return &MockTransport{
		syncPeriod: syncPeriod,
		position:   rand.Int63n(131072),
	}
}

func (m *MockTransport) Connect(context.Context) error { return nil }

func (m *MockTransport) Execute(_ context.Context, cmd Command) (types.Value, error) {
	switch cmd {
	case CommandGetDeviceID:
		return types.String("0x0010"), nil
	case CommandRunDiagnostics:
		return types.Bool(true), nil
	case CommandAbsolutePosition:
		return types.Int(m.position), nil
	default:
		return types.None(), &unknownCommandError{cmd: cmd}
	}
}

// StartStream launches a background goroutine that ticks at syncPeriod
// until StopStream is called or ctx is cancelled, standing in for the
// original's daemon thread pushing telemetry onto its bus.
func (m *MockTransport) StartStream(ctx context.Context) error {
	streamCtx, cancel := context.WithCancel(ctx)
	m.cancelStream = cancel
	go func() {
		ticker := time.NewTicker(m.syncPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-streamCtx.Done():
				return
			case <-ticker.C:
				// A real transport would publish telemetry here; the mock has
				// nowhere to send it, matching the original's best-effort,
				// exception-suppressing send.
			}
		}
	}()
	return nil
}

func (m *MockTransport) StopStream() error {
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}
	return nil
}

func (m *MockTransport) Disconnect() error { return nil }

type unknownCommandError struct{ cmd Command }

func (e *unknownCommandError) Error() string { return "devicehw: unknown command " + string(e.cmd) }
