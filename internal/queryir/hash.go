package queryir

import (
	"github.com/roach88/modelfilter/internal/ir"
)

// Fingerprint computes a content-addressed identity for a compiled
// constraint set. Identical requests against the same catalog always
// produce the same fingerprint; group and condition order are significant.
func Fingerprint(groups []ConditionGroup) (string, error) {
	arr := make(ir.IRArray, len(groups))
	for i, g := range groups {
		conds := make(ir.IRArray, len(g.Conditions))
		for j, c := range g.Conditions {
			conds[j] = ir.IRObject{
				"filter_key": ir.IRString(c.FilterKey),
				"field":      ir.IRString(c.Field),
				"operator":   ir.IRString(c.Operator),
				"value":      c.Value,
			}
		}
		op := g.Op
		if op == "" {
			op = ir.LogicalAnd
		}
		arr[i] = ir.IRObject{
			"model_id":   ir.IRString(g.ModelID),
			"op":         ir.IRString(op),
			"conditions": conds,
		}
	}

	return ir.HashCanonical(ir.DomainConstraintSet, arr)
}
