package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoyoqui/benderr/pkg/types"
)

func TestJSONFormatter_RoundTrips(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	result := &types.SequenceResult{
		StartTime: start,
		EndTime:   start.Add(time.Second),
		LogFile:   "run.log",
		Verdict:   types.VerdictPassed,
		StepResults: []types.StepResult{
			{ID: 1, Name: "step one", StartTime: start, EndTime: start.Add(time.Millisecond), Verdict: types.VerdictPassed},
		},
	}

	var f JSONFormatter
	data, err := f.Format(result)
	require.NoError(t, err)
	assert.Equal(t, ".json", f.Ext())

	var decoded types.SequenceResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.Verdict, decoded.Verdict)
	assert.Equal(t, result.LogFile, decoded.LogFile)
	require.Len(t, decoded.StepResults, 1)
	assert.Equal(t, "step one", decoded.StepResults[0].Name)
}
