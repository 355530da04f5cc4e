package ir

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a filter compilation failure.
type ErrorCode string

// ErrorClass separates startup configuration failures from per-request failures.
type ErrorClass string

const (
	// ClassConfig errors are fatal at startup; no request may be served.
	ClassConfig ErrorClass = "config"
	// ClassRequest errors are recoverable per call and produce no partial result.
	ClassRequest ErrorClass = "request"
)

// Configuration error codes (registry construction).
const (
	ErrCodeDuplicateFilterKey   ErrorCode = "DUPLICATE_FILTER_KEY"
	ErrCodeConflictingOwnership ErrorCode = "CONFLICTING_OWNERSHIP"
	ErrCodeInvalidDescriptor    ErrorCode = "INVALID_DESCRIPTOR"
	ErrCodeDuplicateModel       ErrorCode = "DUPLICATE_MODEL"
	ErrCodeDuplicateOwnedKey    ErrorCode = "DUPLICATE_OWNED_KEY"
	ErrCodeOrphanFilter         ErrorCode = "ORPHAN_FILTER"
	ErrCodeMissingDescriptor    ErrorCode = "MISSING_DESCRIPTOR"
	ErrCodeInvalidModel         ErrorCode = "INVALID_MODEL"
	ErrCodeInvalidRule          ErrorCode = "INVALID_RULE"
)

// Request error codes (compilation of one call).
const (
	ErrCodeUnknownModel          ErrorCode = "UNKNOWN_MODEL"
	ErrCodeDuplicateModelRequest ErrorCode = "DUPLICATE_MODEL_REQUEST"
	ErrCodeMissingFilterValue    ErrorCode = "MISSING_FILTER_VALUE"
	ErrCodeUnknownFilterKey      ErrorCode = "UNKNOWN_FILTER_KEY"
	ErrCodeUnmappedFilterKey     ErrorCode = "UNMAPPED_FILTER_KEY"
	ErrCodeModelMismatch         ErrorCode = "MODEL_MISMATCH"
	ErrCodeInvalidValueShape     ErrorCode = "INVALID_VALUE_SHAPE"
	ErrCodeValueRejected         ErrorCode = "VALUE_REJECTED"
	ErrCodeEmptyConditionGroup   ErrorCode = "EMPTY_CONDITION_GROUP"
)

var configCodes = map[ErrorCode]bool{
	ErrCodeDuplicateFilterKey:   true,
	ErrCodeConflictingOwnership: true,
	ErrCodeInvalidDescriptor:    true,
	ErrCodeDuplicateModel:       true,
	ErrCodeDuplicateOwnedKey:    true,
	ErrCodeOrphanFilter:         true,
	ErrCodeMissingDescriptor:    true,
	ErrCodeInvalidModel:         true,
	ErrCodeInvalidRule:          true,
}

// Class returns the error class a code belongs to.
func (c ErrorCode) Class() ErrorClass {
	if configCodes[c] {
		return ClassConfig
	}
	return ClassRequest
}

// Error is a typed filter error identifying the offending model and filter key.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ModelID is the model involved, if any.
	ModelID string

	// FilterKey is the filter key involved, if any.
	FilterKey string

	// Err is an optional underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.ModelID != "" && e.FilterKey != "":
		return fmt.Sprintf("%s: %s (model=%s, filter=%s)", e.Code, e.Message, e.ModelID, e.FilterKey)
	case e.ModelID != "":
		return fmt.Sprintf("%s: %s (model=%s)", e.Code, e.Message, e.ModelID)
	case e.FilterKey != "":
		return fmt.Sprintf("%s: %s (filter=%s)", e.Code, e.Message, e.FilterKey)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Class returns the class of the error's code.
func (e *Error) Class() ErrorClass {
	return e.Code.Class()
}

// NewError creates an *Error with a formatted message.
func NewError(code ErrorCode, modelID, filterKey, format string, args ...any) *Error {
	return &Error{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		ModelID:   modelID,
		FilterKey: filterKey,
	}
}

// HasCode reports whether err (or anything it wraps) is an *Error with code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
