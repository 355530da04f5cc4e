package queryexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/queryir"
)

// Program is a compiled predicate for one model's condition tree.
//
// A Program is immutable and safe for concurrent Match calls.
type Program struct {
	modelID string
	source  string
	params  []any
	fields  []string
	program *vm.Program
}

// env describes the evaluation environment for the type checker.
// Records are exposed as row, bound values as args.
var env = map[string]any{
	"row":  map[string]any{},
	"args": []any{},
}

// Compile converts a condition tree into a Program.
//
// Every leaf becomes a guarded comparison:
//
//	(row["vvip"] != nil && row["vvip"] == args[1])
//
// A field that is absent or nil in a record makes its leaf false, the
// same way a NULL column fails every comparison in SQL. Composites are
// parenthesized and joined with && or ||.
//
// The tree must pass queryir.Validate.
func Compile(tree *queryir.Composite) (*Program, error) {
	if tree == nil {
		return nil, fmt.Errorf("cannot compile nil tree")
	}
	if result := queryir.Validate(tree); !result.Valid {
		return nil, fmt.Errorf("invalid condition tree for model %q: %s",
			tree.ModelID, strings.Join(result.Problems, "; "))
	}

	c := &exprCompiler{}
	if err := c.compileNode(tree); err != nil {
		return nil, err
	}
	source := c.b.String()

	program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", source, err)
	}

	return &Program{
		modelID: tree.ModelID,
		source:  source,
		params:  c.params,
		fields:  queryir.Fields(tree),
		program: program,
	}, nil
}

// ModelID returns the model the program was compiled for.
func (p *Program) ModelID() string {
	return p.modelID
}

// Source returns the expression text. Values appear only as args[i].
func (p *Program) Source() string {
	return p.source
}

// Params returns a copy of the bound values in argument order.
func (p *Program) Params() []any {
	out := make([]any, len(p.params))
	copy(out, p.params)
	return out
}

// Match reports whether record satisfies the program.
//
// Referenced fields are normalized through the IR value rules before
// evaluation (any Go integer kind compares as int64). A referenced field
// holding a value the IR cannot represent, such as a float, is an error.
// Values of incompatible types (a string compared with an int) are also
// an error.
func (p *Program) Match(record map[string]any) (bool, error) {
	row := make(map[string]any, len(p.fields))
	for _, field := range p.fields {
		raw, ok := record[field]
		if !ok || raw == nil {
			continue
		}
		v, err := ir.FromGo(raw)
		if err != nil {
			return false, fmt.Errorf("field %q: %w", field, err)
		}
		row[field] = ir.ToGo(v)
	}

	out, err := expr.Run(p.program, map[string]any{
		"row":  row,
		"args": p.params,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate %s: %w", p.modelID, err)
	}

	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %s: expected bool result, got %T", p.modelID, out)
	}
	return matched, nil
}

// Filter returns the records that match, in input order.
// Stops at the first evaluation error.
func (p *Program) Filter(records []map[string]any) ([]map[string]any, error) {
	var matched []map[string]any
	for i, record := range records {
		ok, err := p.Match(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if ok {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

// exprCompiler accumulates expression text and bound parameters.
type exprCompiler struct {
	b      strings.Builder
	params []any
}

func (c *exprCompiler) compileNode(node queryir.Node) error {
	switch n := node.(type) {
	case queryir.Condition:
		return c.compileCondition(n)
	case *queryir.Composite:
		joiner := " && "
		if n.Op == ir.LogicalOr {
			joiner = " || "
		}
		c.b.WriteByte('(')
		for i, child := range n.Children {
			if i > 0 {
				c.b.WriteString(joiner)
			}
			if err := c.compileNode(child); err != nil {
				return err
			}
		}
		c.b.WriteByte(')')
		return nil
	default:
		return fmt.Errorf("unsupported node type: %T", node)
	}
}

// compileCondition renders one guarded comparison.
// CRITICAL: the value is NEVER interpolated - always args[i].
func (c *exprCompiler) compileCondition(cond queryir.Condition) error {
	op, err := exprOperator(cond.Operator)
	if err != nil {
		return fmt.Errorf("condition %q: %w", cond.FilterKey, err)
	}

	ref := "row[" + strconv.Quote(cond.Field) + "]"
	arg := fmt.Sprintf("args[%d]", len(c.params))
	c.params = append(c.params, ir.ToGo(cond.Value))

	if cond.Operator == ir.OpNotIn {
		fmt.Fprintf(&c.b, "(%s != nil && not (%s in %s))", ref, ref, arg)
		return nil
	}
	fmt.Fprintf(&c.b, "(%s != nil && %s %s %s)", ref, ref, op, arg)
	return nil
}

func exprOperator(op ir.Operator) (string, error) {
	switch op {
	case ir.OpEquals:
		return "==", nil
	case ir.OpNotEquals:
		return "!=", nil
	case ir.OpGreaterThan:
		return ">", nil
	case ir.OpLessThan:
		return "<", nil
	case ir.OpIn:
		return "in", nil
	case ir.OpNotIn:
		return "in", nil
	default:
		return "", fmt.Errorf("unsupported operator %q", op)
	}
}
