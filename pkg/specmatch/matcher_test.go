package specmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoyoqui/benderr/pkg/errs"
	"github.com/aoyoqui/benderr/pkg/types"
)

func f(v float64) *float64 { return &v }

func TestMatch_NumericInBandPasses(t *testing.T) {
	spec, err := types.NewNumericSpec("range", types.CompGTLT, f(0), f(10), "")
	require.NoError(t, err)

	results, verdict, err := Match(types.Float(5.0), []types.Spec{spec}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.VerdictPassed, verdict)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Equal(t, 5.0, results[0].Value)
}

func TestMatch_NumericOutOfBandFails(t *testing.T) {
	spec, err := types.NewNumericSpec("range", types.CompGTLT, f(0), f(10), "")
	require.NoError(t, err)

	results, verdict, err := Match(types.Float(10.0), []types.Spec{spec}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.VerdictFailed, verdict)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
}

func TestMatch_ListParallel(t *testing.T) {
	boolSpec := types.NewBooleanSpec("on", true)
	numSpec, err := types.NewNumericSpec("level", types.CompGT, f(1.0), nil, "")
	require.NoError(t, err)
	specs := []types.Spec{boolSpec, numSpec}

	results, verdict, err := Match(types.Sequence(types.Bool(true), types.Float(1.5)), specs, nil)
	require.NoError(t, err)
	assert.Equal(t, types.VerdictPassed, verdict)
	assert.True(t, results[0].Passed)
	assert.True(t, results[1].Passed)

	results, verdict, err = Match(types.Sequence(types.Bool(true), types.Float(-1.0)), specs, nil)
	require.NoError(t, err)
	assert.Equal(t, types.VerdictFailed, verdict)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
}

func TestMatch_ArityMismatch(t *testing.T) {
	specs := []types.Spec{types.NewBooleanSpec("on", true)}
	_, _, err := Match(types.Sequence(types.Bool(true), types.Bool(false)), specs, nil)
	require.Error(t, err)
	var mismatch *errs.SpecMismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestMatch_EmptySpecs(t *testing.T) {
	results, verdict, err := Match(types.Float(5.0), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Equal(t, types.VerdictPassed, verdict)
}

func TestMatch_NoneSpecLogAppendsMeasurement(t *testing.T) {
	spec, err := types.NewNoneSpec("note", types.NoneLog)
	require.NoError(t, err)
	results, verdict, err := Match(types.String("hello"), []types.Spec{spec}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.VerdictPassed, verdict)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Equal(t, "hello", results[0].Value)
}

func TestMatch_NoneSpecIgnoreAppendsNothing(t *testing.T) {
	spec, err := types.NewNoneSpec("note", types.NoneIgnore)
	require.NoError(t, err)
	results, verdict, err := Match(types.String("hello"), []types.Spec{spec}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.VerdictPassed, verdict)
	assert.Empty(t, results)
}

func TestMatch_MixedNoneAndOtherIsMismatch(t *testing.T) {
	noneSpec, err := types.NewNoneSpec("note", types.NoneLog)
	require.NoError(t, err)
	boolSpec := types.NewBooleanSpec("on", true)
	_, _, err = Match(types.Bool(true), []types.Spec{noneSpec, boolSpec}, nil)
	require.Error(t, err)
}

func TestNumericComparators(t *testing.T) {
	cases := []struct {
		name       string
		comparator types.Comparator
		lower      *float64
		upper      *float64
		value      float64
		want       bool
	}{
		{"GT pass", types.CompGT, f(1), nil, 2, true},
		{"GT fail", types.CompGT, f(1), nil, 1, false},
		{"GE edge", types.CompGE, f(1), nil, 1, true},
		{"LT pass", types.CompLT, nil, f(5), 4, true},
		{"LE edge", types.CompLE, nil, f(5), 5, true},
		{"EQ pass", types.CompEQ, f(3), nil, 3, true},
		{"NEQ pass", types.CompNEQ, f(3), nil, 4, true},
		{"GTLT lower edge excluded", types.CompGTLT, f(0), f(10), 0, false},
		{"GELT lower edge included", types.CompGELT, f(0), f(10), 0, true},
		{"GTLE upper edge included", types.CompGTLE, f(0), f(10), 10, true},
		{"GELE both edges included", types.CompGELE, f(0), f(10), 10, true},
		{"LTGT below band", types.CompLTGT, f(0), f(10), -1, true},
		{"LTGT inside band", types.CompLTGT, f(0), f(10), 5, false},
		{"LTGE at upper edge", types.CompLTGE, f(0), f(10), 10, true},
		{"LEGT at lower edge", types.CompLEGT, f(0), f(10), 0, true},
		{"LEGE both edges outside", types.CompLEGE, f(0), f(10), 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := types.NewNumericSpec("s", tc.comparator, tc.lower, tc.upper, "")
			require.NoError(t, err)
			results, verdict, err := Match(types.Float(tc.value), []types.Spec{spec}, nil)
			require.NoError(t, err)
			if tc.want {
				assert.Equal(t, types.VerdictPassed, verdict)
			} else {
				assert.Equal(t, types.VerdictFailed, verdict)
			}
			_ = results
		})
	}
}

func TestNewNumericSpec_MissingBoundsRejected(t *testing.T) {
	_, err := types.NewNumericSpec("s", types.CompGT, nil, nil, "")
	require.Error(t, err)

	_, err = types.NewNumericSpec("s", types.CompGTLT, f(0), nil, "")
	require.Error(t, err)
}

func TestNewNumericSpec_UpperLessThanLowerRejected(t *testing.T) {
	_, err := types.NewNumericSpec("s", types.CompGELE, f(10), f(0), "")
	require.Error(t, err)
}
