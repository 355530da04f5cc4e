// Package registry holds the two static lookup tables that drive filter
// compilation: the FilterDescriptorRegistry (filter key → descriptor) and
// the ModelFieldRegistry (model → owned filter keys).
//
// Both registries are immutable after construction and safe for unlimited
// concurrent readers. They are built together by NewCatalog as a single
// atomic step: either every configuration check passes and a Catalog is
// returned, or a *ConfigError lists every problem and nothing is returned.
// There is no way to observe a partially-built registry.
package registry
