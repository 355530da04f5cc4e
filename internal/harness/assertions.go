package harness

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/queryir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string                   // Assertion type for categorization
	Expected string                   // Human-readable expected outcome
	Actual   string                   // Human-readable actual outcome
	Groups   []queryir.ConditionGroup // Built groups for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Groups) > 0 {
		fmt.Fprintf(&buf, "\nGroups:\n")
		for i, g := range e.Groups {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, queryir.FormatGroup(g))
		}
	}

	return buf.String()
}

// assertGroupOrder checks that groups exist for exactly the given models,
// in that order.
func assertGroupOrder(result *Result, assertion Assertion) error {
	actual := result.GroupOrder()
	if slices.Equal(actual, assertion.Models) {
		return nil
	}
	return &AssertionError{
		Type:     AssertGroupOrder,
		Expected: fmt.Sprintf("groups %v", assertion.Models),
		Actual:   fmt.Sprintf("groups %v", actual),
		Groups:   result.Groups,
	}
}

// assertCondition checks that a model's group holds a condition for the
// filter key. Field, operator and value are compared only when set.
func assertCondition(result *Result, assertion Assertion) error {
	group, ok := result.Group(assertion.Model)
	if !ok {
		return &AssertionError{
			Type:     AssertCondition,
			Expected: fmt.Sprintf("group for model %s", assertion.Model),
			Actual:   "not built",
			Groups:   result.Groups,
		}
	}

	for _, cond := range group.Conditions {
		if cond.FilterKey != assertion.FilterKey {
			continue
		}
		if assertion.Field != "" && cond.Field != assertion.Field {
			return conditionMismatch(result, assertion, "field", assertion.Field, cond.Field)
		}
		if assertion.Operator != "" && string(cond.Operator) != assertion.Operator {
			return conditionMismatch(result, assertion, "operator", assertion.Operator, string(cond.Operator))
		}
		if assertion.Value != nil {
			equal, err := valuesEqual(cond.Value, assertion.Value)
			if err != nil {
				return fmt.Errorf("condition %s.%s: %w", assertion.Model, assertion.FilterKey, err)
			}
			if !equal {
				return conditionMismatch(result, assertion, "value",
					fmt.Sprintf("%v", assertion.Value), queryir.FormatValue(cond.Value))
			}
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertCondition,
		Expected: fmt.Sprintf("condition %s in model %s", assertion.FilterKey, assertion.Model),
		Actual:   "not found in group",
		Groups:   result.Groups,
	}
}

func conditionMismatch(result *Result, assertion Assertion, what, expected, actual string) error {
	return &AssertionError{
		Type:     AssertCondition,
		Expected: fmt.Sprintf("%s.%s %s %s", assertion.Model, assertion.FilterKey, what, expected),
		Actual:   fmt.Sprintf("%s %s", what, actual),
		Groups:   result.Groups,
	}
}

// assertFormatted checks the rendering of a model's combined tree.
func assertFormatted(result *Result, assertion Assertion) error {
	actual, ok := result.Formatted[assertion.Model]
	if !ok {
		actual = "<not built>"
	}
	if actual == assertion.Text {
		return nil
	}
	return &AssertionError{
		Type:     AssertFormatted,
		Expected: assertion.Text,
		Actual:   actual,
		Groups:   result.Groups,
	}
}

// assertErrorCode checks that the build failed with the expected code.
// Model and filter key, when set, must appear in the error message.
func assertErrorCode(result *Result, assertion Assertion) error {
	if !result.Failed() {
		return &AssertionError{
			Type:     AssertErrorCode,
			Expected: fmt.Sprintf("build failure %s", assertion.Code),
			Actual:   "build succeeded",
			Groups:   result.Groups,
		}
	}
	if result.ErrorCode != assertion.Code {
		return &AssertionError{
			Type:     AssertErrorCode,
			Expected: assertion.Code,
			Actual:   fmt.Sprintf("%s (%s)", result.ErrorCode, result.ErrorMessage),
		}
	}
	if assertion.Model != "" && !strings.Contains(result.ErrorMessage, "model="+assertion.Model) {
		return &AssertionError{
			Type:     AssertErrorCode,
			Expected: fmt.Sprintf("error naming model %s", assertion.Model),
			Actual:   result.ErrorMessage,
		}
	}
	if assertion.FilterKey != "" && !strings.Contains(result.ErrorMessage, "filter="+assertion.FilterKey) {
		return &AssertionError{
			Type:     AssertErrorCode,
			Expected: fmt.Sprintf("error naming filter %s", assertion.FilterKey),
			Actual:   result.ErrorMessage,
		}
	}
	return nil
}

// assertNoLeakage checks that every group and its combined tree reference
// only their own model.
func assertNoLeakage(result *Result) error {
	for _, group := range result.Groups {
		for _, cond := range group.Conditions {
			if cond.ModelID != group.ModelID {
				return &AssertionError{
					Type:     AssertNoLeakage,
					Expected: fmt.Sprintf("only %s conditions in group %s", group.ModelID, group.ModelID),
					Actual:   fmt.Sprintf("condition %s belongs to %s", cond.FilterKey, cond.ModelID),
					Groups:   result.Groups,
				}
			}
		}
		if len(group.Conditions) == 0 {
			continue
		}
		tree, err := queryir.Combine(group)
		if err != nil {
			return fmt.Errorf("no_leakage: %w", err)
		}
		if v := queryir.Validate(tree); !v.Valid {
			return &AssertionError{
				Type:     AssertNoLeakage,
				Expected: fmt.Sprintf("valid tree for %s", group.ModelID),
				Actual:   strings.Join(v.Problems, "; "),
				Groups:   result.Groups,
			}
		}
	}
	return nil
}

// assertMatches checks the record indices a model's program selected.
func assertMatches(result *Result, assertion Assertion) error {
	actual, ok := result.Matches[assertion.Model]
	if !ok {
		return &AssertionError{
			Type:     AssertMatches,
			Expected: fmt.Sprintf("rows %v for model %s", assertion.Rows, assertion.Model),
			Actual:   "no records evaluated",
			Groups:   result.Groups,
		}
	}
	if slices.Equal(actual, assertion.Rows) {
		return nil
	}
	return &AssertionError{
		Type:     AssertMatches,
		Expected: fmt.Sprintf("rows %v", assertion.Rows),
		Actual:   fmt.Sprintf("rows %v", actual),
		Groups:   result.Groups,
	}
}

// valuesEqual compares a compiled value with a YAML-decoded expectation
// by canonical encoding, so []any{"a"} equals IRArray{IRString("a")}.
func valuesEqual(actual ir.IRValue, expected any) (bool, error) {
	exp, err := ir.FromGo(expected)
	if err != nil {
		return false, fmt.Errorf("expected value: %w", err)
	}
	a, err := ir.MarshalCanonical(actual)
	if err != nil {
		return false, err
	}
	b, err := ir.MarshalCanonical(exp)
	if err != nil {
		return false, err
	}
	return bytes.Equal(a, b), nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertGroupOrder:
			err = assertGroupOrder(result, assertion)
		case AssertCondition:
			err = assertCondition(result, assertion)
		case AssertFormatted:
			err = assertFormatted(result, assertion)
		case AssertErrorCode:
			err = assertErrorCode(result, assertion)
		case AssertNoLeakage:
			err = assertNoLeakage(result)
		case AssertMatches:
			err = assertMatches(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
