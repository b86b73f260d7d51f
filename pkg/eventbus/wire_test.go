package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aoyoqui/benderr/pkg/types"
)

func TestWireStepResultRoundTrip_PreservesMeasurementValueTypes(t *testing.T) {
	boolSpec := types.NewBooleanSpec("powered", true)
	numericSpec, err := types.NewNumericSpec("rpm", types.CompGE, ptr(10.0), nil, "rpm")
	assert.NoError(t, err)
	stringSpec := types.NewStringSpec("serial", "ABC123", true)

	result := types.StepResult{
		ID:      1,
		Name:    "checks",
		Verdict: types.VerdictPassed,
		Results: []types.Measurement{
			{Value: true, Passed: true, Spec: boolSpec},
			{Value: int64(42), Passed: true, Spec: numericSpec},
			{Value: "ABC123", Passed: true, Spec: stringSpec},
		},
	}

	back := fromWireStepResult(toWireStepResult(result))

	assert.Equal(t, true, back.Results[0].Value)
	assert.Equal(t, int64(42), back.Results[1].Value)
	assert.Equal(t, "ABC123", back.Results[2].Value)
}

func ptr(f float64) *float64 { return &f }
