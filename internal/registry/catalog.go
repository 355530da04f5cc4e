package registry

import (
	"github.com/roach88/modelfilter/internal/ir"
)

// Catalog bundles the descriptor and model registries after checking that
// they cover each other exactly: every descriptor is owned by a model and
// every owned key has a descriptor.
//
// A Catalog is immutable and safe for concurrent use.
type Catalog struct {
	descriptors *DescriptorRegistry
	models      *ModelRegistry
	hash        string
}

// NewCatalog builds both registries and verifies coverage in one step.
//
// On any configuration problem it returns a *ConfigError listing all of
// them and a nil Catalog. Coverage problems are ORPHAN_FILTER (descriptor
// owned by no model) and MISSING_DESCRIPTOR (owned key with no descriptor).
func NewCatalog(descriptors []ir.FilterDescriptor, models []ir.ModelSpec) (*Catalog, error) {
	cfgErr := &ConfigError{}

	descReg, err := NewDescriptorRegistry(descriptors)
	cfgErr.merge(err, ir.ErrCodeInvalidDescriptor)

	modelReg, err := NewModelRegistry(models)
	cfgErr.merge(err, ir.ErrCodeInvalidModel)

	// Coverage can only be checked once both sides built cleanly; otherwise
	// it would repeat problems already reported.
	if descReg != nil && modelReg != nil {
		for _, key := range modelReg.OwnedKeys() {
			if !descReg.Has(key) {
				modelID, _ := modelReg.ModelOf(key)
				cfgErr.Problems = append(cfgErr.Problems, ir.NewError(ir.ErrCodeMissingDescriptor, modelID, key,
					"model owns a filter key with no descriptor"))
			}
		}
		for _, key := range descReg.Keys() {
			if _, err := modelReg.ModelOf(key); err != nil {
				cfgErr.Problems = append(cfgErr.Problems, ir.NewError(ir.ErrCodeOrphanFilter, "", key,
					"filter descriptor is not owned by any model"))
			}
		}
	}

	if len(cfgErr.Problems) > 0 {
		return nil, cfgErr
	}

	hash, err := ir.CatalogHash(descriptors, models)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		descriptors: descReg,
		models:      modelReg,
		hash:        hash,
	}, nil
}

// MustNewCatalog is like NewCatalog but panics on error.
// Use for catalogs declared as package-level Go data.
func MustNewCatalog(descriptors []ir.FilterDescriptor, models []ir.ModelSpec) *Catalog {
	c, err := NewCatalog(descriptors, models)
	if err != nil {
		panic(err)
	}
	return c
}

// Descriptors returns the filter descriptor registry.
func (c *Catalog) Descriptors() *DescriptorRegistry {
	return c.descriptors
}

// Models returns the model field registry.
func (c *Catalog) Models() *ModelRegistry {
	return c.models
}

// Hash returns the content-addressed identity of the catalog definition.
func (c *Catalog) Hash() string {
	return c.hash
}

// Lookup is shorthand for Descriptors().Lookup.
func (c *Catalog) Lookup(key string) (ir.FilterDescriptor, error) {
	return c.descriptors.Lookup(key)
}

// FieldsOf is shorthand for Models().FieldsOf.
func (c *Catalog) FieldsOf(modelID string) ([]string, error) {
	return c.models.FieldsOf(modelID)
}

// ModelOf is shorthand for Models().ModelOf.
func (c *Catalog) ModelOf(key string) (string, error) {
	return c.models.ModelOf(key)
}

// Describe returns the catalog contents as plain data, models and descriptors
// in declaration order.
func (c *Catalog) Describe() ([]ir.ModelSpec, []ir.FilterDescriptor) {
	var models []ir.ModelSpec
	for _, id := range c.models.Models() {
		fields, _ := c.models.FieldsOf(id)
		models = append(models, ir.ModelSpec{ID: id, Fields: fields})
	}
	var descriptors []ir.FilterDescriptor
	for _, key := range c.descriptors.Keys() {
		d, _ := c.descriptors.Lookup(key)
		descriptors = append(descriptors, d)
	}
	return models, descriptors
}
