package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")

// writeScenarioDir writes one scenario against the shared test catalog
// into a fresh directory and returns the directory.
func writeScenarioDir(t *testing.T, name, assertions string) string {
	t.Helper()
	abs, err := filepath.Abs(catalogDir)
	require.NoError(t, err)

	dir := t.TempDir()
	content := "name: " + name + "\n" +
		"description: generated\n" +
		"catalog: " + abs + "\n" +
		"models: [Model1]\n" +
		"values: {dateFrom: \"2025-01-01\", vvip: 1}\n" +
		"assertions:\n" + assertions
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644))
	return dir
}

func TestRunScenarios(t *testing.T) {
	out, err := execute(NewTestCommand(testRootOptions("text")), scenariosDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ reference")
	assert.Contains(t, out, "✓ scoped_mismatch")
	assert.Contains(t, out, "Test Summary: 8 passed, 0 failed, 8 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestRunScenariosJSON(t *testing.T) {
	out, err := execute(NewTestCommand(testRootOptions("json")), scenariosDir)
	require.NoError(t, err)

	var resp struct {
		Status  string     `json:"status"`
		Data    TestResult `json:"data"`
		TraceID string     `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test-trace-default", resp.TraceID)
	assert.Equal(t, 8, resp.Data.Total)
	assert.Equal(t, 8, resp.Data.Passed)
}

func TestRunScenariosFilter(t *testing.T) {
	out, err := execute(NewTestCommand(testRootOptions("text")), scenariosDir, "--filter", "scoped*")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ scoped\n")
	assert.Contains(t, out, "✓ scoped_mismatch")
	assert.NotContains(t, out, "reference")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestRunScenariosFailure(t *testing.T) {
	dir := writeScenarioDir(t, "wrong_order", "  - type: group_order\n    models: [Model2]\n")

	out, err := execute(NewTestCommand(testRootOptions("text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_order")
	assert.Contains(t, out, "Assertion failed: group_order")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestRunScenariosFailureJSON(t *testing.T) {
	dir := writeScenarioDir(t, "wrong_order", "  - type: group_order\n    models: [Model2]\n")

	out, err := execute(NewTestCommand(testRootOptions("json")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestRunScenariosInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0644))

	out, err := execute(NewTestCommand(testRootOptions("text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "load error:")
}

func TestRunScenariosGoldenUpdate(t *testing.T) {
	dir := writeScenarioDir(t, "golden_case", "  - type: group_order\n    models: [Model1]\n")
	goldenPath := filepath.Join(dir, "golden", "golden_case.golden")

	out, err := execute(NewTestCommand(testRootOptions("text")), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ golden_case (golden updated)")

	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t,
		`{"groups":["Model1: (date_from > \"2025-01-01\" AND vvip = 1)"],"scenario_name":"golden_case","trace_id":"test-trace-default"}`,
		string(data))

	// Matches the golden file it just wrote
	out, err = execute(NewTestCommand(testRootOptions("text")), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ golden_case")

	// A stale golden file fails the scenario
	require.NoError(t, os.WriteFile(goldenPath, []byte("{}"), 0644))
	out, err = execute(NewTestCommand(testRootOptions("text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "golden file mismatch")
}

func TestRunScenariosEmptyDir(t *testing.T) {
	out, err := execute(NewTestCommand(testRootOptions("text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestRunScenariosMissingDir(t *testing.T) {
	_, err := execute(NewTestCommand(testRootOptions("text")), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "reference.golden"),
		goldenFilePath(filepath.Join("scenarios", "reference.yaml")))
}
