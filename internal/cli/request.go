package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/modelfilter/internal/compiler"
	"github.com/roach88/modelfilter/internal/engine"
	"github.com/roach88/modelfilter/internal/ir"
	"github.com/roach88/modelfilter/internal/queryir"
)

// RequestOptions holds the flags shared by commands that build constraints.
type RequestOptions struct {
	*RootOptions
	Models     []string
	ValuesFile string
	ScopedFile string
	Op         string
}

func (o *RequestOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&o.Models, "models", "m", nil, "models to build, in order (comma-separated)")
	cmd.Flags().StringVar(&o.ValuesFile, "values", "", "YAML file with the flat filter value map")
	cmd.Flags().StringVar(&o.ScopedFile, "scoped", "", "YAML file with per-model requests (model_id, values)")
	cmd.Flags().StringVar(&o.Op, "op", "", "logical operator for every group (AND|OR); default from engine.default_op")
}

// request is a parsed build request in either form.
type request struct {
	models []string
	values map[string]any
	scoped []engine.ScopedRequest
}

func (o *RequestOptions) readRequest() (*request, *LoadError) {
	switch {
	case o.ScopedFile != "" && (o.ValuesFile != "" || len(o.Models) > 0):
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "--scoped cannot be combined with --models or --values"}
	case o.ScopedFile != "":
		var scoped []engine.ScopedRequest
		if err := readYAML(o.ScopedFile, &scoped); err != nil {
			return nil, err
		}
		return &request{scoped: scoped}, nil
	case len(o.Models) == 0:
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "--models is required (or use --scoped)"}
	}

	values := map[string]any{}
	if o.ValuesFile != "" {
		if err := readYAML(o.ValuesFile, &values); err != nil {
			return nil, err
		}
		if values == nil {
			values = map[string]any{}
		}
	}
	return &request{models: o.Models, values: values}, nil
}

// readYAML decodes a YAML file strictly into out.
func readYAML(path string, out any) *LoadError {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	return nil
}

// newEngine builds an engine for a compiled catalog using the configured
// operator, logger and the catalog's value rules.
func (o *RequestOptions) newEngine(def *compiler.CatalogDef) (*engine.Engine, error) {
	cat, err := def.Catalog()
	if err != nil {
		return nil, err
	}
	validators, err := def.Validators()
	if err != nil {
		return nil, err
	}

	op := o.config().DefaultOp()
	if o.Op != "" {
		op = ir.LogicalOp(strings.ToUpper(o.Op))
	}

	return engine.New(cat,
		engine.WithDefaultOp(op),
		engine.WithLogger(o.logger()),
		engine.WithValidators(validators),
	)
}

// build loads the catalog and runs the request. Command-level failures are
// returned as *ExitError already written to the formatter; request
// failures are returned as-is for the caller to report.
func (o *RequestOptions) build(formatter *OutputFormatter, catalogPath string) ([]queryir.ConditionGroup, *engine.Engine, error) {
	req, loadErr := o.readRequest()
	if loadErr != nil {
		return nil, nil, outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
	}

	loaded, err := LoadCatalog(catalogPath)
	if err != nil {
		code, message := errorCodeFor(err)
		return nil, nil, outputCompileError(formatter, code, message, nil)
	}

	eng, err := o.newEngine(loaded.Def)
	if err != nil {
		return nil, nil, outputCompileError(formatter, ErrCodeInvalidCatalog, err.Error(), nil)
	}

	var groups []queryir.ConditionGroup
	if req.scoped != nil {
		groups, err = eng.BuildScoped(req.scoped)
	} else {
		groups, err = eng.BuildConstraints(req.models, req.values)
	}
	if err != nil {
		return nil, nil, outputRequestError(formatter, err)
	}

	formatter.VerboseLog("Built %d group(s) against catalog %s", len(groups), eng.Catalog().Hash())
	return groups, eng, nil
}

// outputRequestError reports a rejected request. Exit code 1: the catalog
// is fine, the input is not.
func outputRequestError(formatter *OutputFormatter, err error) error {
	details := map[string]any{}
	var irErr *ir.Error
	if errors.As(err, &irErr) {
		details["code"] = string(irErr.Code)
		if irErr.ModelID != "" {
			details["model"] = irErr.ModelID
		}
		if irErr.FilterKey != "" {
			details["filter_key"] = irErr.FilterKey
		}
	}
	_ = formatter.Error(ErrCodeRequestFailed, err.Error(), details)
	return WrapExitError(ExitFailure, "request rejected", err)
}
