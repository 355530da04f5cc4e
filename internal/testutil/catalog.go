package testutil

import (
	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/registry"
)

// ReferenceCUE is the reference catalog in CUE form. It declares the same
// filters and models as ReferenceDescriptors and ReferenceModels, plus an
// allowed-values rule on Model2.bt_status.
const ReferenceCUE = `
filter: dateFrom:  {kind: "comparison", field: "date_from", operator: "greater_than"}
filter: vvip:      {kind: "comparison", field: "vvip", operator: "equals"}
filter: bt_status: {kind: "membership", field: "bt_status", operator: "in"}

model: Model1: fields: ["dateFrom", "vvip"]
model: Model2: {
	fields: ["bt_status"]
	validate: bt_status: allowed: ["Planning", "Approved", "Closed"]
}
`

// ReferenceDescriptors returns the three reference filter descriptors.
func ReferenceDescriptors() []ir.FilterDescriptor {
	return []ir.FilterDescriptor{
		{Key: "dateFrom", Kind: ir.KindComparison, Field: "date_from", Operator: ir.OpGreaterThan},
		{Key: "vvip", Kind: ir.KindComparison, Field: "vvip", Operator: ir.OpEquals},
		{Key: "bt_status", Kind: ir.KindMembership, Field: "bt_status", Operator: ir.OpIn},
	}
}

// ReferenceModels returns Model1 (dateFrom, vvip) and Model2 (bt_status).
func ReferenceModels() []ir.ModelSpec {
	return []ir.ModelSpec{
		{ID: "Model1", Fields: []string{"dateFrom", "vvip"}},
		{ID: "Model2", Fields: []string{"bt_status"}},
	}
}

// ReferenceCatalog builds the reference catalog. It panics on error since
// the reference data is static.
func ReferenceCatalog() *registry.Catalog {
	return registry.MustNewCatalog(ReferenceDescriptors(), ReferenceModels())
}

// ReferenceValues returns a fresh copy of the reference request values.
func ReferenceValues() map[string]any {
	return map[string]any{
		"dateFrom":  "2025-01-01",
		"vvip":      1,
		"bt_status": []string{"Planning"},
	}
}
