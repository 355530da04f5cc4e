package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/modelfilter/internal/compiler"
	"github.com/roach88/modelfilter/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the compiled catalog.
type CompilationResult struct {
	Hash    string                          `json:"hash"`
	Filters []ir.FilterDescriptor           `json:"filters"`
	Models  []ir.ModelSpec                  `json:"models"`
	Rules   map[string][]compiler.ValueRule `json:"rules,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [catalog]",
		Short: "Compile a CUE catalog and print its summary",
		Long: `Compile a CUE filter catalog into descriptors and model ownership.

The catalog is checked in full: every registry problem is reported, not
just the first. On success the content hash identifies the catalog.

The catalog defaults to catalog.dir from the config file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.catalogPath(args)
			if err != nil {
				return err
			}
			return runCompile(opts, path, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, catalogPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loaded, err := LoadCatalog(catalogPath)
	if err != nil {
		code, message := errorCodeFor(err)
		return outputCompileError(formatter, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, catalogPath)

	def := loaded.Def
	for _, d := range def.Descriptors {
		formatter.VerboseLog("Compiled filter: %s", d.Key)
	}
	for _, m := range def.Models {
		formatter.VerboseLog("Compiled model: %s", m.ID)
	}

	if problems := compiler.Validate(def); len(problems) > 0 {
		return outputCompileErrors(formatter, problems)
	}

	cat, err := def.Catalog()
	if err != nil {
		return outputCompileError(formatter, ErrCodeInvalidCatalog, err.Error(), nil)
	}

	result := &CompilationResult{
		Hash:    cat.Hash(),
		Filters: def.Descriptors,
		Models:  def.Models,
		Rules:   def.Rules,
	}

	if opts.Output != "" {
		if err := writeCatalogToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d filter(s), %d model(s)\n\n", len(result.Filters), len(result.Models))

	fmt.Fprintln(w, "Models:")
	for _, m := range result.Models {
		line := fmt.Sprintf("  %s: %s", m.ID, strings.Join(m.Fields, ", "))
		if n := len(result.Rules[m.ID]); n > 0 {
			line += fmt.Sprintf(" (%d rule(s))", n)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	if len(result.Filters) > 0 {
		fmt.Fprintln(w, "Filters:")
		for _, d := range result.Filters {
			fmt.Fprintf(w, "  %s: %s %s %s\n", d.Key, d.Field, d.Operator.Symbol(), d.Kind)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Catalog hash: %s\n", result.Hash)
	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled catalog to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs every catalog problem.
func outputCompileErrors(formatter *OutputFormatter, problems []compiler.ValidationError) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(problems))
		for i, p := range problems {
			cliErrors[i] = CLIError{
				Code:    ErrCodeInvalidCatalog,
				Message: p.Error(),
				Details: map[string]any{"code": p.Code, "field": p.Field},
			}
		}

		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(problems)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range problems {
		fmt.Fprintf(formatter.Writer, "  %s\n", p.Error())
	}
	fmt.Fprintln(formatter.Writer)

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(problems)))
}

// writeCatalogToFile writes the compilation result as indented JSON.
func writeCatalogToFile(result *CompilationResult, filename string) error {
	// Indented for readability; canonical JSON is used only for hashing
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
