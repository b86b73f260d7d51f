package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoyoqui/benderr/pkg/config"
	"github.com/aoyoqui/benderr/pkg/sequence"
	"github.com/aoyoqui/benderr/pkg/types"
)

func fptr(v float64) *float64 { return &v }

func demoSteps(t *testing.T) []types.Step {
	t.Helper()
	boolSpec := types.NewBooleanSpec("flag", true)
	geZero, err := types.NewNumericSpec("position", types.CompGE, fptr(0), nil, "")
	require.NoError(t, err)
	leZero, err := types.NewNumericSpec("position", types.CompLE, nil, fptr(0), "")
	require.NoError(t, err)
	eqZero, err := types.NewNumericSpec("position", types.CompEQ, fptr(0), nil, "")
	require.NoError(t, err)
	band, err := types.NewNumericSpec("position", types.CompGTLT, fptr(0), fptr(1), "")
	require.NoError(t, err)

	return []types.Step{
		{Name: "Step 1. Boolean Spec", Specs: []types.Spec{boolSpec}},
		{Name: "Step 2. Boolean Spec", Specs: []types.Spec{boolSpec}},
		{Name: "Step 3. No Specs"},
		{Name: "Step 4. Lower limit", Specs: []types.Spec{geZero}},
		{Name: "Step 5. Upper limit", Specs: []types.Spec{leZero}},
		{Name: "Step 6. Equality (use lower limit)", Specs: []types.Spec{eqZero}},
		{Name: "Step 7. Lower and upper limit", Specs: []types.Spec{band}},
		{Name: "Step 8. Device identification"},
		{Name: "Step 9. Diagnostics"},
	}
}

func TestDemoSequence_RegisteredUnderDemo(t *testing.T) {
	factory, err := sequence.Lookup("demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", factory().Name())
}

func TestDemoSequence_RunsAndPasses(t *testing.T) {
	def := New()
	cfg := &config.SequenceConfig{Steps: demoSteps(t), StopAtStepFail: true}
	runner, err := sequence.New(def, cfg)
	require.NoError(t, err)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.VerdictPassed, result.Verdict)
	assert.Len(t, result.StepResults, len(cfg.Steps))
}
