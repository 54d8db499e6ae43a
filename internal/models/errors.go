package models

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable failure classification. Every error surfaced by the
// core maps to exactly one kind so callers can derive status/exit codes.
type ErrorKind string

const (
	KindConfig          ErrorKind = "config_error"
	KindDataFetch       ErrorKind = "data_fetch_error"
	KindDataValidation  ErrorKind = "data_validation_error"
	KindStrategy        ErrorKind = "strategy_error"
	KindBacktest        ErrorKind = "backtest_error"
	KindExperimentStore ErrorKind = "experiment_store_error"
	KindRobustness      ErrorKind = "robustness_error"
)

// exitCodes maps error kinds to stable process exit codes.
var exitCodes = map[ErrorKind]int{
	KindConfig:          2,
	KindDataFetch:       3,
	KindDataValidation:  4,
	KindStrategy:        6,
	KindBacktest:        7,
	KindExperimentStore: 8,
	KindRobustness:      9,
}

// Error is a classified domain error. It wraps an optional cause so callers
// can use errors.Is/errors.As through the chain.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified error with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error.
func WrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NewConfigError creates a configuration error.
func NewConfigError(format string, args ...interface{}) *Error {
	return NewError(KindConfig, format, args...)
}

// NewDataFetchError creates a data transport error.
func NewDataFetchError(format string, args ...interface{}) *Error {
	return NewError(KindDataFetch, format, args...)
}

// NewDataValidationError creates a data schema/integrity error.
func NewDataValidationError(format string, args ...interface{}) *Error {
	return NewError(KindDataValidation, format, args...)
}

// NewStrategyError creates a strategy plugin error.
func NewStrategyError(format string, args ...interface{}) *Error {
	return NewError(KindStrategy, format, args...)
}

// NewBacktestError creates an engine-internal error.
func NewBacktestError(format string, args ...interface{}) *Error {
	return NewError(KindBacktest, format, args...)
}

// NewExperimentStoreError creates a storage error.
func NewExperimentStoreError(format string, args ...interface{}) *Error {
	return NewError(KindExperimentStore, format, args...)
}

// NewRobustnessError creates a suite-level structural error.
func NewRobustnessError(format string, args ...interface{}) *Error {
	return NewError(KindRobustness, format, args...)
}

// KindOf resolves the error kind for any error. Unclassified errors report an
// empty kind; those are reserved for programming defects.
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// ExitCode resolves the process exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := exitCodes[KindOf(err)]; ok {
		return code
	}
	return 1
}
