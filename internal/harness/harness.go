package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/modelfilter/internal/compiler"
	"github.com/roach88/modelfilter/internal/engine"
	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/queryexpr"
	"github.com/roach88/modelfilter/internal/queryir"
	"github.com/roach88/modelfilter/internal/testutil"
)

// Harness is the scenario execution context.
type Harness struct {
	engine  *engine.Engine
	traceID string
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and compile the CUE catalog, including its value rules
//  2. Build the constraints (flat or scoped request)
//  3. Combine each group and evaluate it against the model's records
//  4. Evaluate assertions
//
// An error is returned only when the scenario cannot be executed at all
// (unloadable catalog, invalid catalog, malformed records). Request
// failures are recorded in the result and checked by assertions.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with an explicit logger for build diagnostics.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	traceID := testutil.NewFixedTraceGenerator(scenario.TraceID).Generate()
	logger = logger.With("scenario", scenario.Name, "trace_id", traceID)

	eng, err := newEngine(scenario, logger)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		engine:  eng,
		traceID: traceID,
		logger:  logger,
	}

	result := NewResult(traceID)
	groups, err := h.build(scenario)
	if err != nil {
		result.ErrorCode = string(ir.CodeOf(err))
		result.ErrorMessage = err.Error()
		h.logger.Info("build failed", "code", result.ErrorCode)
	} else {
		if err := h.evaluate(scenario, groups, result); err != nil {
			return nil, err
		}
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	if result.Failed() && !expectsError(scenario.Assertions) {
		result.AddError(fmt.Sprintf("unexpected build failure: %s", result.ErrorMessage))
	}

	return result, nil
}

// newEngine compiles the scenario's catalog and builds an engine wired
// with the catalog's value rules.
func newEngine(scenario *Scenario, logger *slog.Logger) (*engine.Engine, error) {
	def, err := compiler.LoadCatalog(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	cat, err := def.Catalog()
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	validators, err := def.Validators()
	if err != nil {
		return nil, fmt.Errorf("invalid catalog rules: %w", err)
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithValidators(validators),
	}
	if scenario.DefaultOp != "" {
		opts = append(opts, engine.WithDefaultOp(ir.LogicalOp(strings.ToUpper(scenario.DefaultOp))))
	}

	return engine.New(cat, opts...)
}

// build runs the scenario's request through the engine.
func (h *Harness) build(scenario *Scenario) ([]queryir.ConditionGroup, error) {
	if len(scenario.Scoped) > 0 {
		return h.engine.BuildScoped(scenario.Scoped)
	}
	return h.engine.BuildConstraints(scenario.Models, scenario.Values)
}

// evaluate fills the result from successfully built groups: formatted
// trees, fingerprint, and record matches.
func (h *Harness) evaluate(scenario *Scenario, groups []queryir.ConditionGroup, result *Result) error {
	result.Groups = groups

	fingerprint, err := queryir.Fingerprint(groups)
	if err != nil {
		return fmt.Errorf("failed to fingerprint constraints: %w", err)
	}
	result.Fingerprint = fingerprint

	for _, group := range groups {
		tree, err := queryir.Combine(group)
		if err != nil {
			// A model with no owned keys yields an empty group. Leave it
			// unformatted so assertions report it rather than aborting.
			if ir.HasCode(err, ir.ErrCodeEmptyConditionGroup) {
				continue
			}
			return fmt.Errorf("failed to combine %s: %w", group.ModelID, err)
		}
		result.Formatted[group.ModelID] = queryir.Format(tree)

		records, ok := scenario.Records[group.ModelID]
		if !ok {
			continue
		}

		program, err := queryexpr.Compile(tree)
		if err != nil {
			return fmt.Errorf("failed to compile %s: %w", group.ModelID, err)
		}

		matched := []int{}
		for i, record := range records {
			ok, err := program.Match(record)
			if err != nil {
				return fmt.Errorf("%s record %d: %w", group.ModelID, i, err)
			}
			if ok {
				matched = append(matched, i)
			}
		}
		result.Matches[group.ModelID] = matched

		h.logger.Info("records evaluated",
			"model", group.ModelID,
			"records", len(records),
			"matched", len(matched),
		)
	}

	for modelID := range scenario.Records {
		if _, ok := result.Group(modelID); !ok {
			return fmt.Errorf("records given for model %q which is not requested", modelID)
		}
	}

	return nil
}

func expectsError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertErrorCode {
			return true
		}
	}
	return false
}
