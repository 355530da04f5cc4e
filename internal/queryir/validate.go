package queryir

import (
	"fmt"

	"github.com/roach88/modelfilter/internal/ir"
)

// ValidationResult contains the structural analysis of a condition tree.
type ValidationResult struct {
	// Valid is true when the tree is safe to hand to a query builder
	// scoped to its root model.
	Valid bool

	// Problems lists every structural issue found. Empty when Valid is true.
	Problems []string
}

// Validate checks a condition tree built by hand or received from outside.
//
// Rules:
//  1. No cross-model leakage - every node belongs to the root's model
//  2. Composites have at least one child and an AND/OR operator
//  3. Leaf operators are known and leaf values are present
//
// Trees produced by Combine and Join always pass. Validate is a pure
// function with no side effects.
func Validate(node Node) ValidationResult {
	v := &validator{problems: []string{}}

	switch n := node.(type) {
	case *Composite:
		if n != nil {
			v.model = n.ModelID
		}
	case Condition:
		v.model = n.ModelID
	}
	v.validateNode(node)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	model    string
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateNode(node Node) {
	switch n := node.(type) {
	case nil:
		v.addProblem("nil node")
	case Condition:
		v.validateCondition(n)
	case *Composite:
		if n == nil {
			v.addProblem("nil composite")
			return
		}
		v.validateComposite(n)
	default:
		v.addProblem("unknown node type: %T", node)
	}
}

func (v *validator) validateComposite(c *Composite) {
	if c.ModelID != v.model {
		v.addProblem("composite for model %q nested under model %q", c.ModelID, v.model)
	}
	if !c.Op.Valid() {
		v.addProblem("composite for model %q has invalid operator %q", c.ModelID, c.Op)
	}
	if len(c.Children) == 0 {
		v.addProblem("composite for model %q has no children", c.ModelID)
	}
	for _, child := range c.Children {
		v.validateNode(child)
	}
}

func (v *validator) validateCondition(c Condition) {
	if c.ModelID != v.model {
		v.addProblem("condition %q on field %q belongs to model %q, not %q",
			c.FilterKey, c.Field, c.ModelID, v.model)
	}
	if c.Field == "" {
		v.addProblem("condition %q has no field", c.FilterKey)
	}
	known := ir.KindComparison.Accepts(c.Operator) || ir.KindMembership.Accepts(c.Operator)
	if !known {
		v.addProblem("condition %q has unknown operator %q", c.FilterKey, c.Operator)
	}
	if c.Value == nil {
		v.addProblem("condition %q has no value", c.FilterKey)
	}
}
