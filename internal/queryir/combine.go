package queryir

import (
	"fmt"

	"github.com/roach88/modelfilter/internal/ir"
)

// Combine folds a model's condition group into a composite condition tree.
//
// The tree's leaves are exactly the group's conditions in their original
// order. An empty group fails with EMPTY_CONDITION_GROUP; a condition bound
// to another model fails with MODEL_MISMATCH. An unset Op means AND.
func Combine(group ConditionGroup) (*Composite, error) {
	if len(group.Conditions) == 0 {
		return nil, ir.NewError(ir.ErrCodeEmptyConditionGroup, group.ModelID, "",
			"cannot combine a group with no conditions")
	}

	children := make([]Node, len(group.Conditions))
	for i, cond := range group.Conditions {
		children[i] = cond
	}

	return Join(group.ModelID, group.Op, children...)
}

// Join combines nodes of one model under op.
//
// Child composites of the same model with the same operator are spliced in
// place, which makes folding associative:
//
//	Join(m, AND, Join(m, AND, a, b), c) == Join(m, AND, a, Join(m, AND, b, c)) == Join(m, AND, a, b, c)
//
// Composites under a different operator stay nested. Child order is kept.
// Fails with EMPTY_CONDITION_GROUP when there are no children and
// MODEL_MISMATCH when any leaf belongs to another model.
func Join(modelID string, op ir.LogicalOp, children ...Node) (*Composite, error) {
	if op == "" {
		op = ir.LogicalAnd
	}
	if !op.Valid() {
		return nil, fmt.Errorf("invalid logical operator %q: must be %s or %s", op, ir.LogicalAnd, ir.LogicalOr)
	}
	if len(children) == 0 {
		return nil, ir.NewError(ir.ErrCodeEmptyConditionGroup, modelID, "",
			"cannot combine a group with no conditions")
	}

	out := &Composite{
		ModelID:  modelID,
		Op:       op,
		Children: make([]Node, 0, len(children)),
	}

	for _, child := range children {
		switch n := child.(type) {
		case Condition:
			if n.ModelID != modelID {
				return nil, ir.NewError(ir.ErrCodeModelMismatch, modelID, n.FilterKey,
					"condition belongs to model %q", n.ModelID)
			}
			out.Children = append(out.Children, n)
		case *Composite:
			if n == nil || len(n.Children) == 0 {
				return nil, ir.NewError(ir.ErrCodeEmptyConditionGroup, modelID, "",
					"cannot combine an empty composite")
			}
			if n.ModelID != modelID {
				return nil, ir.NewError(ir.ErrCodeModelMismatch, modelID, "",
					"composite belongs to model %q", n.ModelID)
			}
			for _, leaf := range Leaves(n) {
				if leaf.ModelID != modelID {
					return nil, ir.NewError(ir.ErrCodeModelMismatch, modelID, leaf.FilterKey,
						"condition belongs to model %q", leaf.ModelID)
				}
			}
			if n.Op == op {
				out.Children = append(out.Children, n.Children...)
				continue
			}
			out.Children = append(out.Children, n)
		default:
			return nil, fmt.Errorf("unsupported node type: %T", child)
		}
	}

	return out, nil
}

// Leaves returns the conditions of a tree in left-to-right order.
func Leaves(node Node) []Condition {
	var leaves []Condition
	collectLeaves(node, &leaves)
	return leaves
}

func collectLeaves(node Node, leaves *[]Condition) {
	switch n := node.(type) {
	case Condition:
		*leaves = append(*leaves, n)
	case *Composite:
		if n == nil {
			return
		}
		for _, child := range n.Children {
			collectLeaves(child, leaves)
		}
	}
}

// Fields returns the distinct storage fields referenced by a tree,
// in first-seen order.
func Fields(node Node) []string {
	seen := make(map[string]bool)
	var fields []string
	for _, leaf := range Leaves(node) {
		if !seen[leaf.Field] {
			seen[leaf.Field] = true
			fields = append(fields, leaf.Field)
		}
	}
	return fields
}
