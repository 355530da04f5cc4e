package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/registry"
)

// CatalogDef is a compiled catalog definition, before registry checks.
//
// Descriptor and model order follow declaration order in the CUE source,
// which fixes the order conditions are emitted in.
type CatalogDef struct {
	Descriptors []ir.FilterDescriptor
	Models      []ir.ModelSpec

	// Rules holds the value rules declared under each model's validate block.
	Rules map[string][]ValueRule

	// Positions maps "filter.<key>" and "model.<id>" to their source position.
	Positions map[string]token.Pos
}

// ValueRule restricts the values a model accepts for one filter key.
type ValueRule struct {
	FilterKey string       `json:"filter_key"`
	Allowed   []ir.IRValue `json:"allowed,omitempty"`
	Pattern   string       `json:"pattern,omitempty"`
}

// CompileCatalog parses a CUE value into a CatalogDef.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value is the catalog root, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`
//		filter: vvip: {kind: "comparison", field: "vvip", operator: "equals"}
//		model: Model1: fields: ["vvip"]
//	`)
//	def, err := CompileCatalog(v)
//
// Structural problems (wrong CUE types, missing attributes) fail fast with a
// *CompileError. Semantic problems (duplicate ownership, unknown operators)
// are left to Catalog and Validate, which report all of them.
func CompileCatalog(v cue.Value) (*CatalogDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &CatalogDef{
		Rules:     make(map[string][]ValueRule),
		Positions: make(map[string]token.Pos),
	}

	filterVal := v.LookupPath(cue.ParsePath("filter"))
	if filterVal.Exists() {
		iter, err := filterVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			key := labelOf(iter)
			desc, err := CompileFilter(key, iter.Value())
			if err != nil {
				return nil, err
			}
			def.Descriptors = append(def.Descriptors, desc)
			def.Positions["filter."+key] = iter.Value().Pos()
		}
	}

	modelVal := v.LookupPath(cue.ParsePath("model"))
	if !modelVal.Exists() {
		return nil, &CompileError{
			Field:   "model",
			Message: "at least one model is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := modelVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		id := labelOf(iter)
		spec, rules, err := CompileModel(id, iter.Value())
		if err != nil {
			return nil, err
		}
		def.Models = append(def.Models, spec)
		if len(rules) > 0 {
			def.Rules[id] = rules
		}
		def.Positions["model."+id] = iter.Value().Pos()
	}

	if len(def.Models) == 0 {
		return nil, &CompileError{
			Field:   "model",
			Message: "at least one model is required",
			Pos:     modelVal.Pos(),
		}
	}

	return def, nil
}

// CompileFilter parses one filter descriptor struct.
func CompileFilter(key string, v cue.Value) (ir.FilterDescriptor, error) {
	desc := ir.FilterDescriptor{Key: key}

	kind, err := requiredString(v, "kind", "filter."+key)
	if err != nil {
		return desc, err
	}
	field, err := requiredString(v, "field", "filter."+key)
	if err != nil {
		return desc, err
	}
	op, err := requiredString(v, "operator", "filter."+key)
	if err != nil {
		return desc, err
	}

	desc.Kind = ir.Kind(kind)
	desc.Field = field
	desc.Operator = ir.Operator(op)
	return desc, nil
}

// CompileModel parses one model struct: its ordered field list and
// optional validate block.
func CompileModel(id string, v cue.Value) (ir.ModelSpec, []ValueRule, error) {
	spec := ir.ModelSpec{ID: id}
	path := "model." + id

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return spec, nil, &CompileError{
			Field:   path + ".fields",
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}

	listIter, err := fieldsVal.List()
	if err != nil {
		return spec, nil, formatCUEError(err)
	}
	spec.Fields = []string{}
	for listIter.Next() {
		key, err := listIter.Value().String()
		if err != nil {
			return spec, nil, formatCUEError(err)
		}
		spec.Fields = append(spec.Fields, key)
	}

	validateVal := v.LookupPath(cue.ParsePath("validate"))
	if !validateVal.Exists() {
		return spec, nil, nil
	}

	var rules []ValueRule
	ruleIter, err := validateVal.Fields()
	if err != nil {
		return spec, nil, formatCUEError(err)
	}
	for ruleIter.Next() {
		rule, err := compileRule(path+".validate", labelOf(ruleIter), ruleIter.Value())
		if err != nil {
			return spec, nil, err
		}
		rules = append(rules, rule)
	}

	return spec, rules, nil
}

func compileRule(path, key string, v cue.Value) (ValueRule, error) {
	rule := ValueRule{FilterKey: key}
	path += "." + key

	allowedVal := v.LookupPath(cue.ParsePath("allowed"))
	if allowedVal.Exists() {
		iter, err := allowedVal.List()
		if err != nil {
			return rule, formatCUEError(err)
		}
		for iter.Next() {
			val, err := extractScalar(iter.Value(), path+".allowed")
			if err != nil {
				return rule, err
			}
			rule.Allowed = append(rule.Allowed, val)
		}
		if len(rule.Allowed) == 0 {
			return rule, &CompileError{
				Field:   path + ".allowed",
				Message: "allowed must list at least one value",
				Pos:     allowedVal.Pos(),
			}
		}
	}

	patternVal := v.LookupPath(cue.ParsePath("pattern"))
	if patternVal.Exists() {
		pattern, err := patternVal.String()
		if err != nil {
			return rule, formatCUEError(err)
		}
		rule.Pattern = pattern
	}

	if rule.Allowed == nil && rule.Pattern == "" {
		return rule, &CompileError{
			Field:   path,
			Message: "rule needs allowed or pattern",
			Pos:     v.Pos(),
		}
	}

	return rule, nil
}

// extractScalar converts a concrete CUE scalar into an IR value.
// Floats are forbidden.
func extractScalar(v cue.Value, path string) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   path,
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("unsupported value kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func requiredString(v cue.Value, name, path string) (string, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return "", &CompileError{
			Field:   path + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// labelOf returns the unquoted struct label of the current field,
// e.g. `filter: "date-from": {...}` yields date-from.
func labelOf(iter *cue.Iterator) string {
	return strings.Trim(iter.Label(), `"`)
}

// Catalog builds the registries described by the definition.
// Returns a *registry.ConfigError listing every problem found.
func (d *CatalogDef) Catalog() (*registry.Catalog, error) {
	return registry.NewCatalog(d.Descriptors, d.Models)
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
