package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSteps_BareArrayDefaultsStopAtStepFailTrue(t *testing.T) {
	data := []byte(`[{"id":1,"name":"A"},{"id":2,"name":"B","ignore_fail":true}]`)
	cfg, err := ParseSteps(data)
	require.NoError(t, err)
	assert.True(t, cfg.StopAtStepFail)
	require.Len(t, cfg.Steps, 2)
	assert.Equal(t, "A", cfg.Steps[0].Name)
	assert.True(t, cfg.Steps[1].IgnoreFail)
}

func TestParseSteps_ObjectShapeHonoursStopAtStepFail(t *testing.T) {
	data := []byte(`{"config":{"stop_at_step_fail":false},"steps":[{"id":1,"name":"A"}]}`)
	cfg, err := ParseSteps(data)
	require.NoError(t, err)
	assert.False(t, cfg.StopAtStepFail)
	require.Len(t, cfg.Steps, 1)
}

func TestParseSteps_InvalidJSONRejected(t *testing.T) {
	_, err := ParseSteps([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseSteps_WrongTopLevelShapeRejected(t *testing.T) {
	_, err := ParseSteps([]byte(`"just a string"`))
	assert.Error(t, err)
}
