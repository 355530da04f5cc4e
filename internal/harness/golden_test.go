package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden files live in testdata/golden. Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"reference", "request_order", "or_operator", "unknown_model"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestAssertGolden_ReusesResult(t *testing.T) {
	result, err := Run(loadTestScenario(t, "reference"))
	require.NoError(t, err)

	require.NoError(t, AssertGolden(t, "reference", result))
}

func TestSnapshotCanonical(t *testing.T) {
	result, err := Run(loadTestScenario(t, "reference"))
	require.NoError(t, err)

	snapshot := NewSnapshot("reference", result)
	first, err := snapshot.MarshalCanonical()
	require.NoError(t, err)
	second, err := snapshot.MarshalCanonical()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotContains(t, string(first), result.Fingerprint)
	assert.Contains(t, string(first), `"matches":{"Model1":[0],"Model2":[0,2]}`)
}

func TestSnapshotOmitsEmptyParts(t *testing.T) {
	snapshot := NewSnapshot("empty", NewResult(""))
	data, err := snapshot.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty"}`, string(data))
}

func TestSnapshotMarshalFromConstructor(t *testing.T) {
	result, err := Run(loadTestScenario(t, "unknown_model"))
	require.NoError(t, err)

	data, err := NewSnapshot("unknown_model", result).MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, `{"error_code":"UNKNOWN_MODEL","scenario_name":"unknown_model","trace_id":"test-trace-default"}`, string(data))
}
