package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modelfilter/internal/compiler"
	"github.com/roach88/modelfilter/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [catalog]",
		Short: "Validate a catalog without printing it",
		Long: `Validate a CUE filter catalog.

Reports every problem found: duplicate or conflicting ownership,
orphan filters, invalid operators, and value rules for keys a model
does not own. Faster feedback than compile during catalog editing.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := rootOpts.catalogPath(args)
			if err != nil {
				return err
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, catalogPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	problems, err := ValidateCatalog(catalogPath)
	if err != nil {
		code, message := errorCodeFor(err)
		return outputValidateError(formatter, code, message, nil)
	}

	if len(problems) > 0 {
		return outputValidationErrors(formatter, problems)
	}

	formatter.VerboseLog("Catalog %s is valid", catalogPath)
	return outputValidateSuccess(formatter)
}

// ValidateCatalog validates the catalog at path.
//
// Returns an error only when the catalog cannot be read at all. Structural
// CUE problems with a source position are reported as validation errors
// alongside registry problems.
func ValidateCatalog(path string) ([]compiler.ValidationError, error) {
	loaded, err := LoadCatalog(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			return []compiler.ValidationError{{
				Field:   "load",
				Message: loadErr.Message,
				Code:    ir.ErrorCode(loadErr.Code),
				Line:    loadErr.Pos.Line(),
			}}, nil
		}
		return nil, err
	}
	return compiler.Validate(loaded.Def), nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Catalog valid")
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Unreadable catalogs are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.JSON() {
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    string(errs[0].Code),
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
