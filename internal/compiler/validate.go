package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/registry"
)

// ValidationError represents one catalog problem found by Validate.
type ValidationError struct {
	Field   string       `json:"field"`
	Message string       `json:"message"`
	Code    ir.ErrorCode `json:"code"`
	Line    int          `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled definition against the registry rules and its
// value rules. Returns all errors found (does not fail-fast); an empty
// result means Catalog and Validators will both succeed.
func Validate(def *CatalogDef) []ValidationError {
	var errs []ValidationError

	if _, err := def.Catalog(); err != nil {
		errs = append(errs, def.toValidationErrors(err)...)
	}
	if _, err := def.Validators(); err != nil {
		errs = append(errs, def.toValidationErrors(err)...)
	}

	return errs
}

func (d *CatalogDef) toValidationErrors(err error) []ValidationError {
	var cfgErr *registry.ConfigError
	if !errors.As(err, &cfgErr) {
		return []ValidationError{{
			Field:   "catalog",
			Message: err.Error(),
			Code:    ir.CodeOf(err),
		}}
	}

	errs := make([]ValidationError, 0, len(cfgErr.Problems))
	for _, p := range cfgErr.Problems {
		field := "catalog"
		switch {
		case p.ModelID != "":
			field = "model." + p.ModelID
		case p.FilterKey != "":
			field = "filter." + p.FilterKey
		}

		ve := ValidationError{
			Field:   field,
			Message: p.Message,
			Code:    p.Code,
		}
		if pos, ok := d.Positions[field]; ok && pos.IsValid() {
			ve.Line = pos.Line()
		}
		if p.ModelID != "" && p.FilterKey != "" {
			ve.Message = fmt.Sprintf("%s: %s", p.FilterKey, p.Message)
		}
		errs = append(errs, ve)
	}
	return errs
}
