package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/modelfilter/internal/compiler"
)

// LoadResult contains a compiled catalog definition and where it came from.
type LoadResult struct {
	Def       *compiler.CatalogDef
	Path      string
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during catalog loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog loads and compiles a CUE catalog from a directory or a
// single .cue file. Structural errors are returned as *LoadError with a
// CLI error code; registry checks are left to the caller.
func LoadCatalog(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog: %v", err)}
	}

	fileCount := 1
	if info.IsDir() {
		files, err := compiler.FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(files) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
		fileCount = len(files)
	} else if filepath.Ext(path) != ".cue" {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a CUE file: %s", path)}
	}

	value, err := compiler.LoadValue(path)
	if err != nil {
		return nil, convertCompileError(err, ErrCodeLoadFailed)
	}

	def, err := compiler.CompileCatalog(value)
	if err != nil {
		return nil, convertCompileError(err, ErrCodeBuildFailed)
	}

	return &LoadResult{Def: def, Path: path, FileCount: fileCount}, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, fallback string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := MapFieldToErrorCode(compileErr.Field)
		if code == ErrCodeGeneric {
			code = fallback
		}
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    fallback,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeReadFailed  = "E008" // Request or records file unreadable

	// Catalog structure errors
	ErrCodeFilterAttr  = "E101" // Filter missing kind, field or operator
	ErrCodeModelFields = "E102" // Model missing or without fields
	ErrCodeValueRule   = "E103" // Malformed validate rule (including float values)

	// Catalog semantic errors (registry checks), reported with the ir code
	// in details
	ErrCodeInvalidCatalog = "E110"

	// Request errors
	ErrCodeRequestFailed = "E200" // Build rejected the request; details carry the ir code
)

// MapFieldToErrorCode maps a compiler error field to an error code.
//
// Fields look like "filter.vvip.kind", "model.Model1.fields" or
// "model.Model2.validate.bt_status.allowed".
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "model" || (strings.HasPrefix(field, "model.") && strings.HasSuffix(field, ".fields")):
		return ErrCodeModelFields
	case strings.HasPrefix(field, "filter."):
		return ErrCodeFilterAttr
	case strings.HasPrefix(field, "model.") && strings.Contains(field, ".validate."):
		return ErrCodeValueRule
	default:
		return ErrCodeGeneric
	}
}

// errorCodeFor returns the CLI code for a loader error.
func errorCodeFor(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
