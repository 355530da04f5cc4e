package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modelfilter/internal/compiler"
)

func TestLoadCatalogDirectory(t *testing.T) {
	loaded, err := LoadCatalog(catalogDir)
	require.NoError(t, err)

	assert.Equal(t, 2, loaded.FileCount)
	assert.Equal(t, catalogDir, loaded.Path)
	assert.Len(t, loaded.Def.Descriptors, 3)
	assert.Len(t, loaded.Def.Models, 2)
}

func TestLoadCatalogErrors(t *testing.T) {
	notCUE := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(notCUE, []byte("{}"), 0644))

	tests := []struct {
		name string
		path string
		code string
	}{
		{"not found", "/nonexistent/catalog", ErrCodeNotFound},
		{"empty directory", t.TempDir(), ErrCodeNoFiles},
		{"not a CUE file", notCUE, ErrCodeNoFiles},
		{"missing models", filepath.Join(catalogDir, "filters.cue"), ErrCodeModelFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(tt.path)
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestLoadCatalogFilterAttribute(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.cue"), []byte(`package catalog

filter: vvip: {kind: "comparison", field: "vvip"}
model: Model1: fields: ["vvip"]
`), 0644))

	_, err := LoadCatalog(dir)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeFilterAttr, loadErr.Code)
	assert.Contains(t, loadErr.Message, "filter.vvip.operator")
}

func TestLoadErrorFormat(t *testing.T) {
	err := &LoadError{Code: ErrCodeNotFound, Message: "catalog not found: x"}
	assert.Equal(t, "E005: catalog not found: x", err.Error())
}

func TestConvertCompileError(t *testing.T) {
	converted := convertCompileError(&compiler.CompileError{Field: "model.Model2.validate.bt_status.allowed", Message: "bad"}, ErrCodeBuildFailed)
	assert.Equal(t, ErrCodeValueRule, converted.Code)
	assert.Equal(t, "model.Model2.validate.bt_status.allowed: bad", converted.Message)

	fallback := convertCompileError(errors.New("boom"), ErrCodeLoadFailed)
	assert.Equal(t, ErrCodeLoadFailed, fallback.Code)
	assert.Equal(t, "boom", fallback.Message)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := []struct {
		field string
		code  string
	}{
		{"model", ErrCodeModelFields},
		{"model.Model1.fields", ErrCodeModelFields},
		{"filter.vvip.kind", ErrCodeFilterAttr},
		{"model.Model2.validate.bt_status.allowed", ErrCodeValueRule},
		{"cue", ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.code, MapFieldToErrorCode(tt.field))
		})
	}
}
