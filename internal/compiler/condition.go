package compiler

import (
	"errors"

	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/queryir"
	"github.com/roach88/modelfilter/internal/registry"
)

// ConditionCompiler turns one caller-supplied filter value into a
// queryir.Condition bound to a model.
//
// A ConditionCompiler only reads its catalog and validators, so a single
// instance may be shared by any number of goroutines.
type ConditionCompiler struct {
	catalog    *registry.Catalog
	validators map[string]FieldValidator
}

// Option configures a ConditionCompiler.
type Option func(*ConditionCompiler)

// WithValidator registers v for modelID, replacing any earlier one.
func WithValidator(modelID string, v FieldValidator) Option {
	return func(c *ConditionCompiler) {
		c.validators[modelID] = v
	}
}

// WithValidators registers a validator per model.
func WithValidators(validators map[string]FieldValidator) Option {
	return func(c *ConditionCompiler) {
		for modelID, v := range validators {
			c.validators[modelID] = v
		}
	}
}

// NewConditionCompiler creates a compiler over cat.
func NewConditionCompiler(cat *registry.Catalog, opts ...Option) *ConditionCompiler {
	c := &ConditionCompiler{
		catalog:    cat,
		validators: make(map[string]FieldValidator),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile resolves filterKey and raw against the catalog for modelID.
//
// Steps, each failing with its own code:
//  1. descriptor lookup (UNKNOWN_FILTER_KEY)
//  2. ownership: the key must belong to modelID (UNMAPPED_FILTER_KEY,
//     MODEL_MISMATCH)
//  3. conversion to an IR value (INVALID_VALUE_SHAPE)
//  4. shape against the descriptor's kind and operator (INVALID_VALUE_SHAPE)
//  5. the model's FieldValidator, if any (VALUE_REJECTED)
//
// The returned Condition owns its value; later changes to raw are not
// visible through it.
func (c *ConditionCompiler) Compile(filterKey string, raw any, modelID string) (queryir.Condition, error) {
	desc, err := c.catalog.Lookup(filterKey)
	if err != nil {
		return queryir.Condition{}, err
	}

	owner, err := c.catalog.ModelOf(filterKey)
	if err != nil {
		return queryir.Condition{}, err
	}
	if owner != modelID {
		return queryir.Condition{}, ir.NewError(ir.ErrCodeModelMismatch, modelID, filterKey,
			"filter key belongs to model %q", owner)
	}

	value, err := ir.FromGo(raw)
	if err != nil {
		shapeErr := ir.NewError(ir.ErrCodeInvalidValueShape, modelID, filterKey, "%v", err)
		shapeErr.Err = err
		return queryir.Condition{}, shapeErr
	}

	if err := checkShape(desc, value); err != nil {
		err.ModelID = modelID
		return queryir.Condition{}, err
	}

	if v := c.validators[modelID]; v != nil {
		if err := v.ValidateField(filterKey, value); err != nil {
			return queryir.Condition{}, rejected(modelID, filterKey, err)
		}
	}

	return queryir.Condition{
		ModelID:   modelID,
		FilterKey: filterKey,
		Field:     desc.Field,
		Operator:  desc.Operator,
		Value:     value,
	}, nil
}

// checkShape verifies value against the descriptor's kind.
//
// Comparison filters take one scalar; ordering operators additionally
// reject booleans. Membership filters take a non-empty sequence of scalars
// that all share one type.
func checkShape(desc ir.FilterDescriptor, value ir.IRValue) *ir.Error {
	switch desc.Kind {
	case ir.KindComparison:
		if !ir.IsScalar(value) {
			return ir.NewError(ir.ErrCodeInvalidValueShape, "", desc.Key,
				"comparison filter requires a scalar value, got %s", ir.TypeName(value))
		}
		if _, isBool := value.(ir.IRBool); isBool && desc.Operator.Ordered() {
			return ir.NewError(ir.ErrCodeInvalidValueShape, "", desc.Key,
				"operator %s requires an ordered value, got bool", desc.Operator)
		}
	case ir.KindMembership:
		arr, ok := value.(ir.IRArray)
		if !ok {
			return ir.NewError(ir.ErrCodeInvalidValueShape, "", desc.Key,
				"membership filter requires a sequence, got %s", ir.TypeName(value))
		}
		if len(arr) == 0 {
			return ir.NewError(ir.ErrCodeInvalidValueShape, "", desc.Key,
				"membership filter requires at least one value")
		}
		first := ir.TypeName(arr[0])
		for i, elem := range arr {
			if !ir.IsScalar(elem) {
				return ir.NewError(ir.ErrCodeInvalidValueShape, "", desc.Key,
					"element %d must be a scalar, got %s", i, ir.TypeName(elem))
			}
			if name := ir.TypeName(elem); name != first {
				return ir.NewError(ir.ErrCodeInvalidValueShape, "", desc.Key,
					"element %d is %s, expected %s like element 0", i, name, first)
			}
		}
	default:
		return ir.NewError(ir.ErrCodeInvalidDescriptor, "", desc.Key, "unknown filter kind %q", desc.Kind)
	}
	return nil
}

func rejected(modelID, filterKey string, err error) error {
	var irErr *ir.Error
	if errors.As(err, &irErr) && irErr.Code == ir.ErrCodeValueRejected {
		return err
	}
	return &ir.Error{
		Code:      ir.ErrCodeValueRejected,
		Message:   err.Error(),
		ModelID:   modelID,
		FilterKey: filterKey,
		Err:       err,
	}
}
