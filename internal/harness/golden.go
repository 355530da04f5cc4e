package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/queryir"
)

// Snapshot captures the observable outcome of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
//
// The constraint fingerprint is left out so that snapshots stay readable;
// it is fully determined by Groups anyway.
type Snapshot struct {
	ScenarioName string           `json:"scenario_name"`
	TraceID      string           `json:"trace_id,omitempty"`
	Groups       []string         `json:"groups,omitempty"`
	Matches      map[string][]int `json:"matches,omitempty"`
	ErrorCode    string           `json:"error_code,omitempty"`
}

// NewSnapshot builds a snapshot from a result.
func NewSnapshot(scenarioName string, result *Result) Snapshot {
	groups := make([]string, len(result.Groups))
	for i, g := range result.Groups {
		groups[i] = queryir.FormatGroup(g)
	}
	return Snapshot{
		ScenarioName: scenarioName,
		TraceID:      result.TraceID,
		Groups:       groups,
		Matches:      result.Matches,
		ErrorCode:    result.ErrorCode,
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s Snapshot) toCanonicalMap() map[string]any {
	result := map[string]any{
		"scenario_name": s.ScenarioName,
	}
	if s.TraceID != "" {
		result["trace_id"] = s.TraceID
	}
	if len(s.Groups) > 0 {
		groups := make([]any, len(s.Groups))
		for i, g := range s.Groups {
			groups[i] = g
		}
		result["groups"] = groups
	}
	if len(s.Matches) > 0 {
		matches := make(map[string]any, len(s.Matches))
		for model, rows := range s.Matches {
			list := make([]any, len(rows))
			for i, r := range rows {
				list[i] = r
			}
			matches[model] = list
		}
		result["matches"] = matches
	}
	if s.ErrorCode != "" {
		result["error_code"] = s.ErrorCode
	}
	return result
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewSnapshot(scenarioName, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
