package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelfilter/internal/testutil"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCatalogSplitPackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "filters.cue", `package catalog

filter: dateFrom:  {kind: "comparison", field: "date_from", operator: "greater_than"}
filter: vvip:      {kind: "comparison", field: "vvip", operator: "equals"}
filter: bt_status: {kind: "membership", field: "bt_status", operator: "in"}
`)
	writeFile(t, dir, "models.cue", `package catalog

model: Model1: fields: ["dateFrom", "vvip"]
model: Model2: fields: ["bt_status"]
`)
	writeFile(t, dir, "README.md", "not CUE")

	def, err := LoadCatalog(dir)
	require.NoError(t, err)
	assert.Equal(t, testutil.ReferenceDescriptors(), def.Descriptors)
	assert.Equal(t, testutil.ReferenceModels(), def.Models)
}

func TestLoadCatalogSingleFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.cue", testutil.ReferenceCUE)

	def, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, def.Descriptors, 3)
	require.Len(t, def.Rules["Model2"], 1)

	cat, err := def.Catalog()
	require.NoError(t, err)
	assert.Equal(t, testutil.ReferenceCatalog().Hash(), cat.Hash())
}

func TestLoadValueErrors(t *testing.T) {
	dir := t.TempDir()
	notCUE := writeFile(t, dir, "catalog.yaml", "filter: {}")

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"not found", filepath.Join(dir, "absent"), "catalog not found"},
		{"not a CUE file", notCUE, "not a CUE file"},
		{"no CUE files", t.TempDir(), "no CUE files found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadValue(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadValueSyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "catalog.cue", "model: Model1: {\n")

	_, err := LoadValue(path)
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "cue", compileErr.Field)
	assert.True(t, compileErr.Pos.IsValid())
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cue", "")
	writeFile(t, dir, "b.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))
	writeFile(t, filepath.Join(dir, "nested"), "c.cue", "")

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.cue")}, files)
}
