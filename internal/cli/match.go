package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/queryexpr"
	"github.com/roach88/modelfilter/internal/queryir"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	RequestOptions
	RecordsFile string
}

// MatchResult holds the records each model's filter selected.
type MatchResult struct {
	Fingerprint string       `json:"fingerprint"`
	Models      []ModelMatch `json:"models"`
}

// ModelMatch is the evaluation of one model's filter over its records.
type ModelMatch struct {
	ModelID    string           `json:"model_id"`
	Expression string           `json:"expression"`
	Total      int              `json:"total"`
	Rows       []int            `json:"rows"`
	Records    []map[string]any `json:"records"`
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RequestOptions: RequestOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "match [catalog]",
		Short: "Evaluate built filters against in-memory records",
		Long: `Build condition groups and evaluate each model's combined filter
against the records listed for it.

The records file maps model ids to lists of rows keyed by storage field:

  Model1:
    - {date_from: "2025-03-01", vvip: 1}
  Model2:
    - {bt_status: Planning}

A row missing a referenced field fails that condition.

Examples:
  modelfilter match ./catalog --models Model1 --values values.yaml --records rows.yaml`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.catalogPath(args)
			if err != nil {
				return err
			}
			return runMatch(opts, path, cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.RecordsFile, "records", "", "YAML file mapping model ids to record lists")
	_ = cmd.MarkFlagRequired("records")

	return cmd
}

func runMatch(opts *MatchOptions, catalogPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	records := map[string][]map[string]any{}
	if loadErr := readYAML(opts.RecordsFile, &records); loadErr != nil {
		return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
	}

	groups, _, err := opts.build(formatter, catalogPath)
	if err != nil {
		return err
	}

	fingerprint, err := queryir.Fingerprint(groups)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("fingerprinting constraints: %v", err), nil)
	}

	modelIDs := make([]string, 0, len(records))
	for modelID := range records {
		modelIDs = append(modelIDs, modelID)
	}
	sort.Strings(modelIDs)
	for _, modelID := range modelIDs {
		if !requested(groups, modelID) {
			return outputCompileError(formatter, ErrCodeReadFailed,
				fmt.Sprintf("records given for model %q which is not requested", modelID), nil)
		}
	}

	result := MatchResult{Fingerprint: fingerprint, Models: []ModelMatch{}}
	for _, group := range groups {
		rows, ok := records[group.ModelID]
		if !ok {
			formatter.VerboseLog("No records for %s, skipping", group.ModelID)
			continue
		}

		tree, err := queryir.Combine(group)
		if ir.HasCode(err, ir.ErrCodeEmptyConditionGroup) {
			formatter.VerboseLog("%s has no conditions, skipping", group.ModelID)
			continue
		}
		if err != nil {
			return outputRequestError(formatter, err)
		}
		program, err := queryexpr.Compile(tree)
		if err != nil {
			return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
		}
		formatter.VerboseLog("%s: %s", group.ModelID, program.Source())

		match := ModelMatch{
			ModelID:    group.ModelID,
			Expression: queryir.Format(tree),
			Total:      len(rows),
			Rows:       []int{},
			Records:    []map[string]any{},
		}
		for i, row := range rows {
			ok, err := program.Match(row)
			if err != nil {
				return outputCompileError(formatter, ErrCodeReadFailed,
					fmt.Sprintf("%s record %d: %v", group.ModelID, i, err), nil)
			}
			if ok {
				match.Rows = append(match.Rows, i)
				match.Records = append(match.Records, row)
			}
		}
		result.Models = append(result.Models, match)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, m := range result.Models {
		fmt.Fprintf(w, "%s: %d/%d record(s) matched %s\n", m.ModelID, len(m.Rows), m.Total, formatRows(m.Rows))
		fmt.Fprintf(w, "  %s\n", m.Expression)
	}
	return nil
}

func requested(groups []queryir.ConditionGroup, modelID string) bool {
	for _, g := range groups {
		if g.ModelID == modelID {
			return true
		}
	}
	return false
}

func formatRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = fmt.Sprint(r)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
