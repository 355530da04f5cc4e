package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/modelfilter/internal/ir"
)

// ConfigError reports every configuration problem found while building
// registries. It is fatal at startup: a process holding a ConfigError must
// not serve filter requests.
type ConfigError struct {
	Problems []*ir.Error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid filter catalog: " + e.Problems[0].Error()
	}
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("invalid filter catalog: %d problems: %s", len(e.Problems), strings.Join(msgs, "; "))
}

// Unwrap exposes each problem to errors.Is / errors.As.
func (e *ConfigError) Unwrap() []error {
	errs := make([]error, len(e.Problems))
	for i, p := range e.Problems {
		errs[i] = p
	}
	return errs
}

// Codes returns the problem codes in report order.
func (e *ConfigError) Codes() []ir.ErrorCode {
	codes := make([]ir.ErrorCode, len(e.Problems))
	for i, p := range e.Problems {
		codes[i] = p.Code
	}
	return codes
}

func (e *ConfigError) merge(err error, code ir.ErrorCode) {
	if err == nil {
		return
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		e.Problems = append(e.Problems, ce.Problems...)
		return
	}
	var ie *ir.Error
	if errors.As(err, &ie) {
		e.Problems = append(e.Problems, ie)
		return
	}
	// Foreign errors are filed under the code of the registry they came from.
	e.Problems = append(e.Problems, &ir.Error{
		Code:    code,
		Message: err.Error(),
		Err:     err,
	})
}
