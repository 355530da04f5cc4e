package queryir

import (
	"strconv"
	"strings"

	"github.com/roach88/modelfilter/internal/ir"
)

// Format renders a condition tree as deterministic text, e.g.
//
//	(date_from > "2025-01-01" AND vvip = 1)
//	bt_status IN ["Planning"]
//
// The output is intended for logs, CLI output, and golden tests;
// it is not a query language.
func Format(node Node) string {
	var b strings.Builder
	writeNode(&b, node)
	return b.String()
}

// FormatGroup renders a group as "<model>: <tree>" without combining it.
func FormatGroup(group ConditionGroup) string {
	op := group.Op
	if op == "" {
		op = ir.LogicalAnd
	}
	parts := make([]string, len(group.Conditions))
	for i, cond := range group.Conditions {
		parts[i] = Format(cond)
	}
	return group.ModelID + ": (" + strings.Join(parts, " "+string(op)+" ") + ")"
}

func writeNode(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case Condition:
		b.WriteString(n.Field)
		b.WriteByte(' ')
		b.WriteString(n.Operator.Symbol())
		b.WriteByte(' ')
		b.WriteString(FormatValue(n.Value))
	case *Composite:
		if n == nil {
			b.WriteString("<nil>")
			return
		}
		b.WriteByte('(')
		for i, child := range n.Children {
			if i > 0 {
				b.WriteByte(' ')
				b.WriteString(string(n.Op))
				b.WriteByte(' ')
			}
			writeNode(b, child)
		}
		b.WriteByte(')')
	default:
		b.WriteString("<nil>")
	}
}

// FormatValue renders a single value: strings and times quoted,
// sequences bracketed.
func FormatValue(v ir.IRValue) string {
	switch val := v.(type) {
	case ir.IRString:
		return strconv.Quote(string(val))
	case ir.IRInt:
		return strconv.FormatInt(int64(val), 10)
	case ir.IRBool:
		return strconv.FormatBool(bool(val))
	case ir.IRTime:
		return strconv.Quote(val.String())
	case ir.IRNull:
		return "null"
	case ir.IRArray:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = FormatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case nil:
		return "<nil>"
	default:
		data, err := ir.MarshalIRValue(v)
		if err != nil {
			return "<invalid>"
		}
		return string(data)
	}
}
