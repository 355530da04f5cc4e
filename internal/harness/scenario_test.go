package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelfilter/internal/engine"
	"github.com/roach88/modelfilter/internal/testutil"
)

// writeScenario writes a catalog and scenario into a temp dir and returns
// the scenario path.
func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.cue"), []byte(testutil.ReferenceCUE), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: basic
description: "basic scenario"
catalog: catalog.cue
models: [Model1]
values: {dateFrom: "2025-01-01", vvip: 1}
assertions:
  - type: no_leakage
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "basic", s.Name)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "catalog.cue"), s.Catalog)
	assert.Equal(t, []string{"Model1"}, s.Models)
	assert.Equal(t, "2025-01-01", s.Values["dateFrom"])
	assert.Equal(t, 1, s.Values["vvip"])
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, AssertNoLeakage, s.Assertions[0].Type)
}

func TestLoadScenario_Scoped(t *testing.T) {
	path := writeScenario(t, `
name: scoped
description: "scoped scenario"
catalog: catalog.cue
scoped:
  - model_id: Model2
    values: {bt_status: [Planning]}
assertions:
  - type: group_order
    models: [Model2]
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	require.Len(t, s.Scoped, 1)
	assert.Equal(t, "Model2", s.Scoped[0].ModelID)
	assert.Equal(t, []any{"Planning"}, s.Scoped[0].Values["bt_status"])
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "typo"
catalog: catalog.cue
models: [Model1]
values: {}
assertion:
  - type: no_leakage
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.cue"), []byte(testutil.ReferenceCUE), 0o644))

	other := t.TempDir()
	path := filepath.Join(other, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: based
description: "base path"
catalog: catalog.cue
models: [Model1]
values: {}
assertions:
  - type: no_leakage
`), 0o644))

	s, err := LoadScenarioWithBasePath(path, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "catalog.cue"), s.Catalog)
}

func TestValidateScenario(t *testing.T) {
	catalog := filepath.Join(t.TempDir(), "catalog.cue")
	require.NoError(t, os.WriteFile(catalog, []byte(testutil.ReferenceCUE), 0o644))

	valid := func() *Scenario {
		return &Scenario{
			Name:        "s",
			Description: "d",
			Catalog:     catalog,
			Models:      []string{"Model1"},
			Values:      map[string]any{},
			Assertions:  []Assertion{{Type: AssertNoLeakage}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(s *Scenario)
		wantErr string
	}{
		{"valid", func(s *Scenario) {}, ""},
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"missing catalog", func(s *Scenario) { s.Catalog = "" }, "catalog is required"},
		{"catalog not found", func(s *Scenario) { s.Catalog = catalog + ".nope" }, "catalog not found"},
		{"no request", func(s *Scenario) { s.Models = nil }, "models or scoped is required"},
		{"both request forms", func(s *Scenario) {
			s.Scoped = []engine.ScopedRequest{{ModelID: "Model1"}}
		}, "mutually exclusive"},
		{"values required", func(s *Scenario) { s.Values = nil }, "values is required"},
		{"scoped model id", func(s *Scenario) {
			s.Models = nil
			s.Scoped = []engine.ScopedRequest{{}}
		}, "scoped[0]: model_id is required"},
		{"bad default op", func(s *Scenario) { s.DefaultOp = "XOR" }, "default_op must be AND or OR"},
		{"lowercase default op", func(s *Scenario) { s.DefaultOp = "or" }, ""},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"unknown assertion", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: "final_state"}}
		}, `unknown assertion type "final_state"`},
		{"assertion type", func(s *Scenario) {
			s.Assertions = []Assertion{{}}
		}, "assertions[0]: type is required"},
		{"group_order models", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertGroupOrder}}
		}, "models list is required"},
		{"condition fields", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertCondition, Model: "Model1"}}
		}, "model and filter_key are required"},
		{"formatted fields", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertFormatted, Model: "Model1"}}
		}, "model and text are required"},
		{"error_code code", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertErrorCode}}
		}, "code is required"},
		{"matches rows", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertMatches, Model: "Model1"}}
		}, "rows is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := validateScenario(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestLoadExampleScenarios validates the scenario files in testdata/scenarios.
func TestLoadExampleScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Assertions)
		})
	}
}
