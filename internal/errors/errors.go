package errors

import (
	"fmt"
)

// Error is a coded planner error.
type Error struct {
	Code    string // SQLSTATE-style code
	Message string // Primary error message
	Detail  string // Optional detailed error message
	Hint    string // Optional hint message
	Where   string // Context where the error occurred
	Node    string // Query node name if applicable
	Rel     string // Query relationship name if applicable
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (SQLSTATE %s) DETAIL: %s", e.Message, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s (SQLSTATE %s)", e.Message, e.Code)
}

// New creates a new Error with the given code and message.
func New(code string, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail adds detail to the error.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithDetailf adds formatted detail to the error.
func (e *Error) WithDetailf(format string, args ...interface{}) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint adds a hint to the error.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithWhere sets the context where the error occurred.
func (e *Error) WithWhere(where string) *Error {
	e.Where = where
	return e
}

// WithNode sets the query node name.
func (e *Error) WithNode(node string) *Error {
	e.Node = node
	return e
}

// WithRel sets the query relationship name.
func (e *Error) WithRel(rel string) *Error {
	e.Rel = rel
	return e
}

// Common error constructors

// PlanningErrorf creates a planning error.
func PlanningErrorf(format string, args ...interface{}) *Error {
	return Newf(PlanningError, format, args...)
}

// HintInfeasibleError creates an infeasible-hint error naming the offending
// pattern variable.
func HintInfeasibleError(variable string, reason string) *Error {
	return Newf(HintInfeasible, "join hint references %q: %s", variable, reason)
}

// TimeoutError creates a planning timeout error.
func TimeoutError() *Error {
	return New(PlanningTimeout, "canceling plan search due to statement timeout")
}

// QueryCanceledError creates a query canceled error.
func QueryCanceledError() *Error {
	return New(QueryCanceled, "canceling statement due to user request")
}

// FeatureNotSupportedError creates a feature not supported error.
func FeatureNotSupportedError(feature string) *Error {
	return Newf(FeatureNotSupported, "%s is not supported", feature)
}

// UndefinedVariableError creates an undefined variable error.
func UndefinedVariableError(name string) *Error {
	return Newf(UndefinedVariable, "variable %q does not exist", name)
}

// ConfigErrorf creates a configuration error.
func ConfigErrorf(format string, args ...interface{}) *Error {
	return Newf(ConfigError, format, args...)
}

// InternalErrorf creates an internal error.
func InternalErrorf(format string, args ...interface{}) *Error {
	return Newf(InternalError, format, args...)
}

// IsError checks if an error is a kestrel Error with a specific code.
func IsError(err error, code string) bool {
	if err == nil {
		return false
	}
	kErr, ok := err.(*Error)
	return ok && kErr.Code == code
}

// GetError attempts to extract a kestrel Error from any error.
func GetError(err error) *Error {
	if err == nil {
		return nil
	}
	if kErr, ok := err.(*Error); ok {
		return kErr
	}
	// Wrap generic errors as internal errors
	return InternalErrorf("%v", err)
}
