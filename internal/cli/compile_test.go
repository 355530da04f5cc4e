package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/testutil"
)

// compiledCatalog mirrors CompilationResult with rule values decoded as
// plain strings.
type compiledCatalog struct {
	Hash    string                `json:"hash"`
	Filters []ir.FilterDescriptor `json:"filters"`
	Models  []ir.ModelSpec        `json:"models"`
	Rules   map[string][]struct {
		FilterKey string   `json:"filter_key"`
		Allowed   []string `json:"allowed"`
	} `json:"rules"`
}

func TestCompileValidCatalog(t *testing.T) {
	out, err := execute(NewCompileCommand(testRootOptions("text")), catalogDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 3 filter(s), 2 model(s)")
	assert.Contains(t, out, "  Model1: dateFrom, vvip\n")
	assert.Contains(t, out, "  Model2: bt_status (1 rule(s))\n")
	assert.Contains(t, out, "Catalog hash: "+testutil.ReferenceCatalog().Hash())
}

func TestCompileValidCatalogJSON(t *testing.T) {
	out, err := execute(NewCompileCommand(testRootOptions("json")), catalogDir)
	require.NoError(t, err)

	var resp struct {
		Status  string            `json:"status"`
		Data    compiledCatalog `json:"data"`
		TraceID string          `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test-trace-default", resp.TraceID)
	assert.Equal(t, testutil.ReferenceCatalog().Hash(), resp.Data.Hash)
	assert.Len(t, resp.Data.Filters, 3)
	assert.Len(t, resp.Data.Models, 2)
	require.Len(t, resp.Data.Rules["Model2"], 1)
	assert.Equal(t, "bt_status", resp.Data.Rules["Model2"][0].FilterKey)
	assert.Equal(t, []string{"Planning", "Approved", "Closed"}, resp.Data.Rules["Model2"][0].Allowed)
}

func TestCompileSingleFile(t *testing.T) {
	out, err := execute(NewCompileCommand(testRootOptions("text")), filepath.Join(catalogDir, "filters.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E102")
	assert.Contains(t, out, "at least one model is required")
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	out, err := execute(NewCompileCommand(testRootOptions("text")), catalogDir, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote compiled catalog to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result compiledCatalog
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, testutil.ReferenceCatalog().Hash(), result.Hash)
	assert.Len(t, result.Filters, 3)
}

func TestCompileInvalidCatalog(t *testing.T) {
	out, err := execute(NewCompileCommand(testRootOptions("text")), invalidDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "compilation failed with 2 error(s)")

	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "[INVALID_DESCRIPTOR] line 3: filter.vvip")
	assert.Contains(t, out, "[CONFLICTING_OWNERSHIP] line 6: model.Model2")
}

func TestCompileInvalidCatalogJSON(t *testing.T) {
	out, err := execute(NewCompileCommand(testRootOptions("json")), invalidDir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Error  CLIError   `json:"error"`
		Data   []CLIError `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeInvalidCatalog, resp.Error.Code)
	require.Len(t, resp.Data, 2)

	details, ok := resp.Data[1].Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "CONFLICTING_OWNERSHIP", details["code"])
	assert.Equal(t, "model.Model2", details["field"])
}

func TestCompileNonexistentPath(t *testing.T) {
	out, err := execute(NewCompileCommand(testRootOptions("text")), "/nonexistent/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestCompileEmptyDirectory(t *testing.T) {
	out, err := execute(NewCompileCommand(testRootOptions("json")), t.TempDir())
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNoFiles, resp.Error.Code)
}

func TestCompileVerbose(t *testing.T) {
	opts := testRootOptions("text")
	opts.Verbose = true
	cmd := NewCompileCommand(opts)

	errBuf := &bytes.Buffer{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{catalogDir})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, errBuf.String(), "Found 2 CUE file(s)")
	assert.Contains(t, errBuf.String(), "Compiled model: Model2")
}
