package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/modelfilter/internal/engine"
	"github.com/roach88/modelfilter/internal/ir"
)

// Scenario defines a conformance test scenario: one request against one
// catalog, plus assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the path to a CUE catalog directory or file.
	// Relative paths are resolved against the scenario file's directory.
	Catalog string `yaml:"catalog"`

	// Models lists the requested models, in order. Used with Values.
	Models []string `yaml:"models,omitempty"`

	// Values is the flat filter value map shared by all requested models.
	Values map[string]any `yaml:"values,omitempty"`

	// Scoped carries pre-partitioned requests instead of Models/Values.
	Scoped []engine.ScopedRequest `yaml:"scoped,omitempty"`

	// DefaultOp overrides the engine's logical operator (AND or OR).
	DefaultOp string `yaml:"default_op,omitempty"`

	// Records are in-memory rows per model, evaluated by each model's
	// filter program. Keys are storage field names.
	Records map[string][]map[string]any `yaml:"records,omitempty"`

	// Assertions validate the build outcome.
	// Supported types: group_order, condition, formatted, error_code,
	// no_leakage, matches
	Assertions []Assertion `yaml:"assertions"`

	// TraceID is an optional fixed trace id.
	// If empty, defaults to "test-trace-default".
	TraceID string `yaml:"trace_id,omitempty"`
}

// Assertion validates one aspect of a scenario outcome.
type Assertion struct {
	// Type specifies the assertion type:
	// - "group_order": Models is the exact group order
	// - "condition": Model's group holds a condition for FilterKey
	// - "formatted": Model's combined tree renders as Text
	// - "error_code": the build failed with Code
	// - "no_leakage": no group references another model
	// - "matches": Model's program selects exactly Rows
	Type string `yaml:"type"`

	// Models is the expected group order (used by group_order).
	Models []string `yaml:"models,omitempty"`

	// Model is the model under test (condition, formatted, matches;
	// optional for error_code).
	Model string `yaml:"model,omitempty"`

	// FilterKey names the condition (used by condition; optional for error_code).
	FilterKey string `yaml:"filter_key,omitempty"`

	// Field, Operator and Value are optional expectations for condition.
	Field    string `yaml:"field,omitempty"`
	Operator string `yaml:"operator,omitempty"`
	Value    any    `yaml:"value,omitempty"`

	// Text is the expected rendering (used by formatted).
	Text string `yaml:"text,omitempty"`

	// Code is the expected error code (used by error_code).
	Code string `yaml:"code,omitempty"`

	// Rows are the expected matching record indices (used by matches).
	Rows []int `yaml:"rows,omitempty"`
}

// Assertion type constants.
const (
	AssertGroupOrder = "group_order"
	AssertCondition  = "condition"
	AssertFormatted  = "formatted"
	AssertErrorCode  = "error_code"
	AssertNoLeakage  = "no_leakage"
	AssertMatches    = "matches"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// catalog path relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the catalog path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve before validation so the existence check sees the real path
	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) && basePath != "" {
		scenario.Catalog = filepath.Join(basePath, scenario.Catalog)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // reject typos like "assertion:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
		return fmt.Errorf("catalog not found: %s", s.Catalog)
	}

	switch {
	case len(s.Models) > 0 && len(s.Scoped) > 0:
		return fmt.Errorf("models and scoped are mutually exclusive")
	case len(s.Models) == 0 && len(s.Scoped) == 0:
		return fmt.Errorf("models or scoped is required")
	case len(s.Scoped) == 0 && s.Values == nil:
		return fmt.Errorf("values is required with models (use an empty map if no values)")
	}

	for i, req := range s.Scoped {
		if req.ModelID == "" {
			return fmt.Errorf("scoped[%d]: model_id is required", i)
		}
	}

	if s.DefaultOp != "" && !ir.LogicalOp(strings.ToUpper(s.DefaultOp)).Valid() {
		return fmt.Errorf("default_op must be AND or OR, got %q", s.DefaultOp)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertGroupOrder:
		if a.Models == nil {
			return fmt.Errorf("assertions[%d]: models list is required for group_order", index)
		}
	case AssertCondition:
		if a.Model == "" || a.FilterKey == "" {
			return fmt.Errorf("assertions[%d]: model and filter_key are required for condition", index)
		}
	case AssertFormatted:
		if a.Model == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: model and text are required for formatted", index)
		}
	case AssertErrorCode:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error_code", index)
		}
	case AssertNoLeakage:
	case AssertMatches:
		if a.Model == "" {
			return fmt.Errorf("assertions[%d]: model is required for matches", index)
		}
		if a.Rows == nil {
			return fmt.Errorf("assertions[%d]: rows is required for matches (use [] for none)", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
