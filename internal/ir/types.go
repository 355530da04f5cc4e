package ir

// Kind classifies how a filter compares its value against a field.
type Kind string

const (
	// KindComparison resolves to a single relational operator against a scalar.
	KindComparison Kind = "comparison"
	// KindMembership resolves to a set-membership test against a sequence.
	KindMembership Kind = "membership"
)

// Operator is the relational or set operator applied by a filter.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
)

// OperatorsByKind lists the operators each kind accepts.
var OperatorsByKind = map[Kind][]Operator{
	KindComparison: {OpEquals, OpNotEquals, OpGreaterThan, OpLessThan},
	KindMembership: {OpIn, OpNotIn},
}

// Accepts reports whether op is valid for kind k.
func (k Kind) Accepts(op Operator) bool {
	for _, candidate := range OperatorsByKind[k] {
		if candidate == op {
			return true
		}
	}
	return false
}

// Ordered reports whether op requires an ordered value type.
func (op Operator) Ordered() bool {
	return op == OpGreaterThan || op == OpLessThan
}

// Symbol returns the operator's infix rendering used in formatted output.
func (op Operator) Symbol() string {
	switch op {
	case OpEquals:
		return "="
	case OpNotEquals:
		return "!="
	case OpGreaterThan:
		return ">"
	case OpLessThan:
		return "<"
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT IN"
	default:
		return string(op)
	}
}

// LogicalOp combines sibling conditions.
type LogicalOp string

const (
	LogicalAnd LogicalOp = "AND"
	LogicalOr  LogicalOp = "OR"
)

// Valid reports whether op is AND or OR.
func (op LogicalOp) Valid() bool {
	return op == LogicalAnd || op == LogicalOr
}

// FilterDescriptor describes one caller-facing filter key.
// Descriptors are defined once at startup and never carry a value.
type FilterDescriptor struct {
	Key      string   `json:"key"`
	Kind     Kind     `json:"kind"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
}

// ModelSpec lists the filter keys a model owns, in declaration order.
// A filter key belongs to exactly one model.
type ModelSpec struct {
	ID     string   `json:"id"`
	Fields []string `json:"fields"`
}
