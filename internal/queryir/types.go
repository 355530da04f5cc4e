package queryir

import (
	"github.com/roach88/modelfilter/internal/ir"
)

// Node is an element of a condition tree.
//
// This is a sealed interface - only Condition and Composite implement it.
type Node interface {
	queryNode() // Marker method - seals interface to this package
}

// Condition is a fully resolved, executable filter unit bound to one model.
//
// Semantics:
//
//	<field> <operator> <value>
//
// Example:
//
//	Condition{
//	  ModelID:   "Model1",
//	  FilterKey: "dateFrom",
//	  Field:     "date_from",
//	  Operator:  ir.OpGreaterThan,
//	  Value:     ir.IRString("2025-01-01"),
//	}
//
// Conditions are created by the compiler and never mutated afterwards.
// Membership values are deep copies of the caller's input. An IRArray
// Value is still a slice: callers must not write through it. Use ValueCopy
// when an independent value is needed.
type Condition struct {
	ModelID   string      `json:"model_id"`
	FilterKey string      `json:"filter_key"`
	Field     string      `json:"field"`
	Operator  ir.Operator `json:"operator"`
	Value     ir.IRValue  `json:"value"`
}

func (Condition) queryNode() {}

// ValueCopy returns a deep copy of the condition's value.
func (c Condition) ValueCopy() ir.IRValue {
	return ir.Clone(c.Value)
}

// ConditionGroup holds the conditions compiled for exactly one model,
// in the model's declared field order.
type ConditionGroup struct {
	ModelID    string       `json:"model_id"`
	Op         ir.LogicalOp `json:"op"`
	Conditions []Condition  `json:"conditions"`
}

// Composite combines child nodes of one model under a logical operator.
//
// Semantics:
//
//	<child1> <op> <child2> <op> ... <op> <childN>
//
// Children keep their insertion order. A Composite produced by Combine or
// Join always has at least one child.
type Composite struct {
	ModelID  string       `json:"model_id"`
	Op       ir.LogicalOp `json:"op"`
	Children []Node       `json:"children"`
}

func (*Composite) queryNode() {}
