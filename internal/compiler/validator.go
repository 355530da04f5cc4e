package compiler

import (
	"fmt"
	"regexp"

	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/registry"
)

// FieldValidator is an optional per-model capability that may reject a
// value after its shape has been checked.
//
// Implementations must be safe for concurrent use and must not retain or
// mutate value.
type FieldValidator interface {
	ValidateField(filterKey string, value ir.IRValue) error
}

// ValidatorFunc adapts a function to FieldValidator.
type ValidatorFunc func(filterKey string, value ir.IRValue) error

// ValidateField calls f.
func (f ValidatorFunc) ValidateField(filterKey string, value ir.IRValue) error {
	return f(filterKey, value)
}

// AllowedValues restricts filter keys to an enumerated set. For membership
// values every element must be allowed. Keys without an entry are
// unrestricted.
type AllowedValues map[string][]ir.IRValue

// ValidateField implements FieldValidator.
func (a AllowedValues) ValidateField(filterKey string, value ir.IRValue) error {
	allowed, ok := a[filterKey]
	if !ok {
		return nil
	}
	for _, v := range elements(value) {
		if !containsValue(allowed, v) {
			return fmt.Errorf("value %s is not one of the allowed values", describe(v))
		}
	}
	return nil
}

// PatternValidator requires string values of a filter key to match a
// regular expression. Non-string values are rejected for keys with a
// pattern.
type PatternValidator map[string]*regexp.Regexp

// ValidateField implements FieldValidator.
func (p PatternValidator) ValidateField(filterKey string, value ir.IRValue) error {
	re, ok := p[filterKey]
	if !ok {
		return nil
	}
	for _, v := range elements(value) {
		s, ok := v.(ir.IRString)
		if !ok {
			return fmt.Errorf("pattern %q requires a string, got %s", re.String(), ir.TypeName(v))
		}
		if !re.MatchString(string(s)) {
			return fmt.Errorf("value %q does not match pattern %q", string(s), re.String())
		}
	}
	return nil
}

// ChainValidators runs validators in order and returns the first rejection.
// Nil validators are skipped.
func ChainValidators(validators ...FieldValidator) FieldValidator {
	return ValidatorFunc(func(filterKey string, value ir.IRValue) error {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if err := v.ValidateField(filterKey, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Validators builds one FieldValidator per model from the definition's
// validate blocks. A rule for a key the model does not own, or with a
// pattern that does not compile, is a configuration error; all such
// problems are reported together as a *registry.ConfigError.
func (d *CatalogDef) Validators() (map[string]FieldValidator, error) {
	owned := make(map[string]map[string]bool, len(d.Models))
	for _, m := range d.Models {
		keys := make(map[string]bool, len(m.Fields))
		for _, f := range m.Fields {
			keys[f] = true
		}
		owned[m.ID] = keys
	}

	cfgErr := &registry.ConfigError{}
	validators := make(map[string]FieldValidator)

	// Iterate models rather than the Rules map so problems are reported
	// in declaration order.
	for _, m := range d.Models {
		rules := d.Rules[m.ID]
		if len(rules) == 0 {
			continue
		}

		allowed := AllowedValues{}
		patterns := PatternValidator{}
		for _, rule := range rules {
			if !owned[m.ID][rule.FilterKey] {
				cfgErr.Problems = append(cfgErr.Problems, ir.NewError(ir.ErrCodeInvalidRule, m.ID, rule.FilterKey,
					"validate rule for a filter key the model does not own"))
				continue
			}
			if len(rule.Allowed) > 0 {
				allowed[rule.FilterKey] = rule.Allowed
			}
			if rule.Pattern != "" {
				re, err := regexp.Compile(rule.Pattern)
				if err != nil {
					problem := ir.NewError(ir.ErrCodeInvalidRule, m.ID, rule.FilterKey,
						"invalid pattern %q: %v", rule.Pattern, err)
					problem.Err = err
					cfgErr.Problems = append(cfgErr.Problems, problem)
					continue
				}
				patterns[rule.FilterKey] = re
			}
		}

		var chain []FieldValidator
		if len(allowed) > 0 {
			chain = append(chain, allowed)
		}
		if len(patterns) > 0 {
			chain = append(chain, patterns)
		}
		switch len(chain) {
		case 0:
		case 1:
			validators[m.ID] = chain[0]
		default:
			validators[m.ID] = ChainValidators(chain...)
		}
	}

	if len(cfgErr.Problems) > 0 {
		return nil, cfgErr
	}
	return validators, nil
}

func elements(value ir.IRValue) []ir.IRValue {
	if arr, ok := value.(ir.IRArray); ok {
		return arr
	}
	return []ir.IRValue{value}
}

func containsValue(set []ir.IRValue, v ir.IRValue) bool {
	for _, candidate := range set {
		if scalarEqual(candidate, v) {
			return true
		}
	}
	return false
}

func scalarEqual(a, b ir.IRValue) bool {
	switch av := a.(type) {
	case ir.IRString:
		bv, ok := b.(ir.IRString)
		return ok && av == bv
	case ir.IRInt:
		bv, ok := b.(ir.IRInt)
		return ok && av == bv
	case ir.IRBool:
		bv, ok := b.(ir.IRBool)
		return ok && av == bv
	case ir.IRTime:
		bv, ok := b.(ir.IRTime)
		return ok && av.Time().Equal(bv.Time())
	default:
		return false
	}
}

func describe(v ir.IRValue) string {
	if s, ok := v.(ir.IRString); ok {
		return fmt.Sprintf("%q", string(s))
	}
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return ir.TypeName(v)
	}
	return string(data)
}
