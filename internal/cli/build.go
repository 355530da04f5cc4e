package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/modelfilter/internal/queryir"
)

// BuildResult is the outcome of a successful build.
type BuildResult struct {
	CatalogHash string        `json:"catalog_hash"`
	Fingerprint string        `json:"fingerprint"`
	Groups      []GroupResult `json:"groups"`
}

// GroupResult is one model's condition group plus its rendering.
type GroupResult struct {
	queryir.ConditionGroup
	Formatted string `json:"formatted"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build [catalog]",
		Short: "Build per-model condition groups from filter values",
		Long: `Build one condition group per requested model.

Values come from a flat YAML map shared by all models (--values with
--models) or from per-model requests (--scoped). Groups are printed in
request order with a fingerprint identifying the constraint set.

Exit codes:
  0 - Constraints built
  1 - Request rejected (unknown model, missing or invalid value, ...)
  2 - Command error (catalog or input file problems)

Examples:
  modelfilter build ./catalog --models Model1,Model2 --values values.yaml
  modelfilter build ./catalog --scoped requests.yaml --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.catalogPath(args)
			if err != nil {
				return err
			}
			return runBuild(opts, path, cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runBuild(opts *RequestOptions, catalogPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	groups, eng, err := opts.build(formatter, catalogPath)
	if err != nil {
		return err
	}

	fingerprint, err := queryir.Fingerprint(groups)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("fingerprinting constraints: %v", err), nil)
	}

	result := BuildResult{
		CatalogHash: eng.Catalog().Hash(),
		Fingerprint: fingerprint,
		Groups:      make([]GroupResult, len(groups)),
	}
	for i, g := range groups {
		result.Groups[i] = GroupResult{ConditionGroup: g, Formatted: queryir.FormatGroup(g)}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Built %d group(s)\n\n", len(result.Groups))
	for _, g := range result.Groups {
		fmt.Fprintf(w, "  %s\n", g.Formatted)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)
	return nil
}
