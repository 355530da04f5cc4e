package registry

import (
	"github.com/roach88/modelfilter/internal/ir"
)

// DescriptorRegistry maps filter keys to their descriptors.
// Read-only after construction.
type DescriptorRegistry struct {
	byKey map[string]ir.FilterDescriptor
	order []string
}

// NewDescriptorRegistry builds a registry from descriptors in declaration order.
//
// Fails with DUPLICATE_FILTER_KEY when two descriptors share a key and
// INVALID_DESCRIPTOR when a descriptor has an empty key or field, an unknown
// kind, or an operator its kind does not accept. All problems are reported.
func NewDescriptorRegistry(descriptors []ir.FilterDescriptor) (*DescriptorRegistry, error) {
	r := &DescriptorRegistry{
		byKey: make(map[string]ir.FilterDescriptor, len(descriptors)),
		order: make([]string, 0, len(descriptors)),
	}

	var errs []*ir.Error
	for _, d := range descriptors {
		if err := validateDescriptor(d); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, exists := r.byKey[d.Key]; exists {
			errs = append(errs, ir.NewError(ir.ErrCodeDuplicateFilterKey, "", d.Key,
				"filter key declared more than once"))
			continue
		}
		r.byKey[d.Key] = d
		r.order = append(r.order, d.Key)
	}

	if len(errs) > 0 {
		return nil, &ConfigError{Problems: errs}
	}
	return r, nil
}

func validateDescriptor(d ir.FilterDescriptor) *ir.Error {
	switch {
	case d.Key == "":
		return ir.NewError(ir.ErrCodeInvalidDescriptor, "", "", "filter key must not be empty")
	case d.Field == "":
		return ir.NewError(ir.ErrCodeInvalidDescriptor, "", d.Key, "field must not be empty")
	case d.Kind != ir.KindComparison && d.Kind != ir.KindMembership:
		return ir.NewError(ir.ErrCodeInvalidDescriptor, "", d.Key,
			"unknown kind %q: must be %q or %q", d.Kind, ir.KindComparison, ir.KindMembership)
	case !d.Kind.Accepts(d.Operator):
		return ir.NewError(ir.ErrCodeInvalidDescriptor, "", d.Key,
			"operator %q is not valid for kind %q (allowed: %v)", d.Operator, d.Kind, ir.OperatorsByKind[d.Kind])
	}
	return nil
}

// Lookup returns the descriptor for key.
// Fails with UNKNOWN_FILTER_KEY if absent.
func (r *DescriptorRegistry) Lookup(key string) (ir.FilterDescriptor, error) {
	d, ok := r.byKey[key]
	if !ok {
		return ir.FilterDescriptor{}, ir.NewError(ir.ErrCodeUnknownFilterKey, "", key,
			"filter key is not registered")
	}
	return d, nil
}

// Has reports whether key is registered.
func (r *DescriptorRegistry) Has(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

// Keys returns filter keys in declaration order. The slice is a copy.
func (r *DescriptorRegistry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered descriptors.
func (r *DescriptorRegistry) Len() int {
	return len(r.order)
}
