// Package demo registers the "demo" sequence used by this module's
// docs and its own end-to-end tests. It is the Go port of
// br_demos.demo_sequence.DemoSequence, extended with a couple of steps
// against the devicehw mock motor so the demo exercises a full device
// handshake rather than only literal returns.
package demo

import (
	"context"
	"time"

	"github.com/aoyoqui/benderr/internal/devicehw"
	"github.com/aoyoqui/benderr/pkg/sequence"
	"github.com/aoyoqui/benderr/pkg/types"
)

func init() {
	sequence.Register("demo", New)
}

// stepPause is the pretend device-settling delay the original marks with
// a flat time.sleep(1); shortened here so the demo stays quick to run.
const stepPause = 50 * time.Millisecond

// New builds the demo Definition. A fresh MockTransport backs each run so
// tests invoking the same sequence repeatedly do not share device state.
func New() sequence.Definition {
	motor := devicehw.NewMotorDrive(devicehw.NewMockTransport(500 * time.Millisecond))

	return sequence.NewBuilder("demo").
		Step("Step 1. Boolean Spec", func(context.Context) (types.Value, error) {
			return types.Bool(true), nil
		}).
		Step("Step 2. Boolean Spec", func(ctx context.Context) (types.Value, error) {
			select {
			case <-time.After(stepPause):
			case <-ctx.Done():
				return types.Value{}, ctx.Err()
			}
			return types.Bool(true), nil
		}).
		Step("Step 3. No Specs", func(ctx context.Context) (types.Value, error) {
			select {
			case <-time.After(stepPause):
			case <-ctx.Done():
				return types.Value{}, ctx.Err()
			}
			return types.None(), nil
		}).
		Step("Step 4. Lower limit", func(context.Context) (types.Value, error) {
			return types.Int(1), nil
		}).
		Step("Step 5. Upper limit", func(context.Context) (types.Value, error) {
			return types.Int(-1), nil
		}).
		Step("Step 6. Equality (use lower limit)", func(context.Context) (types.Value, error) {
			return types.Int(0), nil
		}).
		Step("Step 7. Lower and upper limit", func(context.Context) (types.Value, error) {
			return types.Float(0.5), nil
		}).
		Step("Step 8. Device identification", func(ctx context.Context) (types.Value, error) {
			if err := motor.Connect(ctx); err != nil {
				return types.Value{}, err
			}
			return motor.DeviceID(ctx)
		}).
		Step("Step 9. Diagnostics", func(ctx context.Context) (types.Value, error) {
			return motor.RunDiagnostics(ctx)
		})
}
