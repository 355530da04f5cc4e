package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/modelfilter/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded by the root command before any subcommand runs.
	// Commands built on their own (tests) fall back to defaults.
	Config *config.Config

	// Logger receives engine diagnostics. Defaults to a logger built from Config.
	Logger *slog.Logger

	// TraceGen labels JSON responses. Defaults to UUIDv7Generator.
	TraceGen TraceGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the modelfilter CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "modelfilter",
		Short: "modelfilter - per-model filter constraints",
		Long: `Compile a flat map of filter values into per-model condition groups.

Filter descriptors and model ownership are declared in a CUE catalog.
Each requested model receives exactly the conditions for the filter
keys it owns, in request order.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			opts.Config = cfg

			// An explicit --format beats the configured one
			if !cmd.Flags().Changed("format") {
				opts.Format = cfg.Output.Format
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			if opts.Verbose {
				cfg.Log.Level = "debug"
			}
			opts.Logger = cfg.NewLogger(cmd.ErrOrStderr())
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: ./config.yaml or $XDG_CONFIG_HOME/modelfilter/config.yaml)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) config() *config.Config {
	if o.Config == nil {
		return config.GetDefaults()
	}
	return o.Config
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o *RootOptions) traceGen() TraceGenerator {
	if o.TraceGen == nil {
		return UUIDv7Generator{}
	}
	return o.TraceGen
}

// formatter builds the output formatter for a command, stamped with a
// fresh trace id.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // verbose logs go to stderr to keep JSON clean
		Verbose:   o.Verbose,
		TraceID:   o.traceGen().Generate(),
	}
}

// catalogPath returns the catalog argument, falling back to catalog.dir.
func (o *RootOptions) catalogPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if dir := o.config().Catalog.Dir; dir != "" {
		return dir, nil
	}
	return "", NewExitError(ExitCommandError, "no catalog given: pass a path or set catalog.dir")
}
