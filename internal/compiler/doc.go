// Package compiler turns filter catalog definitions and caller values into
// validated query IR.
//
// Two compilers live here:
//
//   - CompileCatalog reads a CUE catalog (filter descriptors, model field
//     lists and per-model value rules) into a CatalogDef.
//   - ConditionCompiler resolves a single filter key and raw value against
//     a registry.Catalog into a queryir.Condition.
//
// Both use the CUE SDK and the ir value types directly; neither performs
// I/O or holds mutable state after construction.
package compiler
