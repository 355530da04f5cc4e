package registry

import (
	"github.com/roach88/modelfilter/internal/ir"
)

// ModelRegistry maps models to the ordered set of filter keys they own,
// and each owned key back to its model. Read-only after construction.
type ModelRegistry struct {
	fields map[string][]string
	owner  map[string]string
	order  []string
}

// NewModelRegistry builds a registry from model specs in declaration order.
//
// Fails with DUPLICATE_MODEL when a model id repeats, DUPLICATE_OWNED_KEY when
// a model lists the same key twice, and CONFLICTING_OWNERSHIP when one key is
// claimed by two models. All problems are reported.
func NewModelRegistry(models []ir.ModelSpec) (*ModelRegistry, error) {
	r := &ModelRegistry{
		fields: make(map[string][]string, len(models)),
		owner:  make(map[string]string),
		order:  make([]string, 0, len(models)),
	}

	var errs []*ir.Error
	for _, m := range models {
		if m.ID == "" {
			errs = append(errs, ir.NewError(ir.ErrCodeInvalidModel, "", "", "model id must not be empty"))
			continue
		}
		if _, exists := r.fields[m.ID]; exists {
			errs = append(errs, ir.NewError(ir.ErrCodeDuplicateModel, m.ID, "", "model declared more than once"))
			continue
		}

		seen := make(map[string]bool, len(m.Fields))
		owned := make([]string, 0, len(m.Fields))
		for _, key := range m.Fields {
			if seen[key] {
				errs = append(errs, ir.NewError(ir.ErrCodeDuplicateOwnedKey, m.ID, key,
					"filter key listed more than once"))
				continue
			}
			seen[key] = true

			if prev, claimed := r.owner[key]; claimed {
				errs = append(errs, ir.NewError(ir.ErrCodeConflictingOwnership, m.ID, key,
					"filter key already owned by model %q", prev))
				continue
			}
			r.owner[key] = m.ID
			owned = append(owned, key)
		}

		r.fields[m.ID] = owned
		r.order = append(r.order, m.ID)
	}

	if len(errs) > 0 {
		return nil, &ConfigError{Problems: errs}
	}
	return r, nil
}

// FieldsOf returns the filter keys owned by modelID in declaration order.
// Fails with UNKNOWN_MODEL if absent. The slice is a copy.
func (r *ModelRegistry) FieldsOf(modelID string) ([]string, error) {
	fields, ok := r.fields[modelID]
	if !ok {
		return nil, ir.NewError(ir.ErrCodeUnknownModel, modelID, "", "model is not registered")
	}
	return append([]string(nil), fields...), nil
}

// ModelOf returns the model owning key.
// Fails with UNMAPPED_FILTER_KEY if no model claims it.
func (r *ModelRegistry) ModelOf(key string) (string, error) {
	modelID, ok := r.owner[key]
	if !ok {
		return "", ir.NewError(ir.ErrCodeUnmappedFilterKey, "", key, "no model owns this filter key")
	}
	return modelID, nil
}

// Has reports whether modelID is registered.
func (r *ModelRegistry) Has(modelID string) bool {
	_, ok := r.fields[modelID]
	return ok
}

// Models returns model ids in declaration order. The slice is a copy.
func (r *ModelRegistry) Models() []string {
	return append([]string(nil), r.order...)
}

// OwnedKeys returns every owned key, grouped by model in declaration order.
func (r *ModelRegistry) OwnedKeys() []string {
	var keys []string
	for _, id := range r.order {
		keys = append(keys, r.fields[id]...)
	}
	return keys
}
