// Package queryir provides the condition intermediate representation
// produced by the filter compiler and consumed by downstream query builders.
//
// ARCHITECTURE:
//
//	[filter values] → [Condition] → [ConditionGroup] → [Composite tree]
//	                                   (one per model)   (one per model)
//
// A ConditionGroup is the unit of filtering scoped to exactly one model.
// It is safe to apply to that model's query in isolation. Nothing in this
// package ever places conditions from two models into one group or tree.
//
// SEALED INTERFACES:
//
// Node is a sealed interface using the marker method pattern. Only Condition
// and Composite implement it, which keeps backend renderers exhaustive:
//
//	switch n := node.(type) {
//	case Condition:
//	    // leaf
//	case *Composite:
//	    // AND/OR of children
//	}
//
// COMBINATOR:
//
// Combine folds a ConditionGroup into a Composite. Join builds composites
// from arbitrary nodes and splices same-operator children of the same
// model, so AND/OR folding is associative and child order is preserved.
// Determinism matters: Format and Fingerprint outputs are stable for
// identical inputs.
package queryir
