// Package engine builds per-model constraint sets from caller filter values.
//
// The engine is the entry point of modelfilter: it receives the list of
// models a caller wants to query and a flat map of filter values, and
// returns one queryir.ConditionGroup per model.
//
// GUARANTEES:
//
// Model scoping:
// Each group contains only conditions compiled from filter keys owned by
// its model. Conditions from different models are never merged.
//
// Ordering:
// Groups follow request order; conditions within a group follow the
// model's declared field order.
//
// Atomicity:
// A build either returns every group or returns nil groups and the first
// error. There is no partial result.
//
// Purity:
// The engine holds only a read-only catalog and per-model validators.
// Builds allocate fresh values, perform no I/O, and may run concurrently
// from any number of goroutines.
package engine
