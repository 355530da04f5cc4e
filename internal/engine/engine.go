package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/modelfilter/internal/compiler"
	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/queryir"
	"github.com/roach88/modelfilter/internal/registry"
)

// Engine is the filter constraint engine.
//
// Thread-safety model:
//   - New(): returns a fully built, immutable engine
//   - BuildConstraints/BuildScoped/BuildComposites: safe from any goroutine
type Engine struct {
	catalog   *registry.Catalog
	compiler  *compiler.ConditionCompiler
	defaultOp ir.LogicalOp
	logger    *slog.Logger

	compilerOpts []compiler.Option
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithDefaultOp sets the logical operator used for every group.
//
// Default: AND. New rejects anything other than AND or OR.
func WithDefaultOp(op ir.LogicalOp) Option {
	return func(e *Engine) {
		e.defaultOp = op
	}
}

// WithLogger sets the logger used for build diagnostics.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithValidator registers a FieldValidator for one model.
func WithValidator(modelID string, v compiler.FieldValidator) Option {
	return func(e *Engine) {
		e.compilerOpts = append(e.compilerOpts, compiler.WithValidator(modelID, v))
	}
}

// WithValidators registers FieldValidators by model, e.g. the result of
// compiler.CatalogDef.Validators.
func WithValidators(validators map[string]compiler.FieldValidator) Option {
	return func(e *Engine) {
		e.compilerOpts = append(e.compilerOpts, compiler.WithValidators(validators))
	}
}

// New creates an Engine over cat.
func New(cat *registry.Catalog, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("engine: catalog is required")
	}

	e := &Engine{
		catalog:   cat,
		defaultOp: ir.LogicalAnd,
	}

	// Apply options
	for _, opt := range opts {
		opt(e)
	}

	if !e.defaultOp.Valid() {
		return nil, fmt.Errorf("engine: invalid default operator %q: must be %s or %s",
			e.defaultOp, ir.LogicalAnd, ir.LogicalOr)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.compiler = compiler.NewConditionCompiler(cat, e.compilerOpts...)

	return e, nil
}

// Catalog returns the catalog the engine was built with.
func (e *Engine) Catalog() *registry.Catalog {
	return e.catalog
}

// BuildConstraints compiles values into one ConditionGroup per requested
// model, in request order.
//
// Every filter key owned by a requested model must be present in values
// (MISSING_FILTER_VALUE). Keys that no requested model owns are ignored.
// Fails with DUPLICATE_MODEL_REQUEST when a model is listed twice and
// UNKNOWN_MODEL for an unregistered model. On any error the returned groups
// are nil.
func (e *Engine) BuildConstraints(models []string, values map[string]any) ([]queryir.ConditionGroup, error) {
	e.logger.Debug("building constraints",
		"models", models,
		"values", len(values),
		"catalog", e.catalog.Hash(),
	)

	if err := checkDuplicates(models); err != nil {
		return e.fail(err)
	}

	groups := make([]queryir.ConditionGroup, 0, len(models))
	for _, modelID := range models {
		group, err := e.buildGroup(modelID, values)
		if err != nil {
			return e.fail(err)
		}
		groups = append(groups, group)
	}

	e.logger.Debug("constraints built", "groups", len(groups))
	return groups, nil
}

// ScopedRequest carries the filter values for one model.
type ScopedRequest struct {
	ModelID string         `json:"model_id" yaml:"model_id"`
	Values  map[string]any `json:"values" yaml:"values"`
}

// BuildScoped compiles pre-partitioned values, one request per model.
//
// Unlike BuildConstraints, every key in a request must belong to that
// request's model: a key owned by another model fails with MODEL_MISMATCH
// and a key with no descriptor with UNKNOWN_FILTER_KEY. Ordering,
// completeness and atomicity rules are the same.
func (e *Engine) BuildScoped(requests []ScopedRequest) ([]queryir.ConditionGroup, error) {
	models := make([]string, len(requests))
	for i, req := range requests {
		models[i] = req.ModelID
	}

	e.logger.Debug("building scoped constraints",
		"models", models,
		"catalog", e.catalog.Hash(),
	)

	if err := checkDuplicates(models); err != nil {
		return e.fail(err)
	}

	groups := make([]queryir.ConditionGroup, 0, len(requests))
	for _, req := range requests {
		if err := e.checkScope(req); err != nil {
			return e.fail(err)
		}
		group, err := e.buildGroup(req.ModelID, req.Values)
		if err != nil {
			return e.fail(err)
		}
		groups = append(groups, group)
	}

	e.logger.Debug("scoped constraints built", "groups", len(groups))
	return groups, nil
}

// BuildComposites builds constraints and combines each group into a
// composite tree. Trees follow request order.
func (e *Engine) BuildComposites(models []string, values map[string]any) ([]*queryir.Composite, error) {
	groups, err := e.BuildConstraints(models, values)
	if err != nil {
		return nil, err
	}

	trees := make([]*queryir.Composite, len(groups))
	for i, group := range groups {
		tree, err := queryir.Combine(group)
		if err != nil {
			return e.failTrees(err)
		}
		trees[i] = tree
	}
	return trees, nil
}

func (e *Engine) buildGroup(modelID string, values map[string]any) (queryir.ConditionGroup, error) {
	fields, err := e.catalog.FieldsOf(modelID)
	if err != nil {
		return queryir.ConditionGroup{}, err
	}

	group := queryir.ConditionGroup{
		ModelID:    modelID,
		Op:         e.defaultOp,
		Conditions: make([]queryir.Condition, 0, len(fields)),
	}

	for _, key := range fields {
		raw, ok := values[key]
		if !ok {
			return queryir.ConditionGroup{}, ir.NewError(ir.ErrCodeMissingFilterValue, modelID, key,
				"no value supplied for an owned filter key")
		}
		cond, err := e.compiler.Compile(key, raw, modelID)
		if err != nil {
			return queryir.ConditionGroup{}, err
		}
		group.Conditions = append(group.Conditions, cond)
	}

	return group, nil
}

// checkScope rejects keys in req that its model does not own.
// Keys are checked in sorted order so the reported key is deterministic.
func (e *Engine) checkScope(req ScopedRequest) error {
	if _, err := e.catalog.FieldsOf(req.ModelID); err != nil {
		return err
	}

	keys := make([]string, 0, len(req.Values))
	for key := range req.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := e.catalog.Lookup(key); err != nil {
			return ir.NewError(ir.ErrCodeUnknownFilterKey, req.ModelID, key, "no descriptor for filter key")
		}
		owner, err := e.catalog.ModelOf(key)
		if err != nil {
			return err
		}
		if owner != req.ModelID {
			return ir.NewError(ir.ErrCodeModelMismatch, req.ModelID, key,
				"filter key belongs to model %q", owner)
		}
	}
	return nil
}

func checkDuplicates(models []string) error {
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if seen[m] {
			return ir.NewError(ir.ErrCodeDuplicateModelRequest, m, "", "model requested more than once")
		}
		seen[m] = true
	}
	return nil
}

func (e *Engine) fail(err error) ([]queryir.ConditionGroup, error) {
	e.logger.Debug("build failed", "code", ir.CodeOf(err), "error", err)
	return nil, err
}

func (e *Engine) failTrees(err error) ([]*queryir.Composite, error) {
	e.logger.Debug("combine failed", "code", ir.CodeOf(err), "error", err)
	return nil, err
}
