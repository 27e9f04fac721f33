package errors

import (
	"errors"
	"fmt"
)

// Code categorizes an error so callers can decide how to recover from it
type Code string

const (
	// CodeUnknown indicates an unknown error
	CodeUnknown Code = "unknown"

	// CodeValidation indicates an input failed a static domain rule (required, numeric, 1..20)
	CodeValidation Code = "validation"

	// CodeOutOfRange indicates a direct write outside a runtime ceiling such as max health
	CodeOutOfRange Code = "out_of_range"

	// CodeUnavailable indicates the store or transport could not complete the call
	CodeUnavailable Code = "unavailable"

	// CodeNotFound indicates the referenced record no longer exists
	CodeNotFound Code = "not_found"

	// CodeInvalidArgument indicates a programming error on the caller side
	CodeInvalidArgument Code = "invalid_argument"

	// CodeAlreadyExists indicates an attempt to create a record that already exists
	CodeAlreadyExists Code = "already_exists"

	// CodeInternal indicates internal system error
	CodeInternal Code = "internal"
)

// Metadata keys used across the engine
const (
	MetaField     = "field"
	MetaReason    = "reason"
	MetaOperation = "operation"
	MetaSlotID    = "slot_id"
	MetaID        = "character_id"
)

// Validation reasons
const (
	ReasonRequired = "required"
	ReasonNumeric  = "numeric"
	ReasonRange    = "range"
	ReasonLength   = "length"
	ReasonSize     = "size"
	ReasonFormat   = "format"
)

// Error is an application error with code and metadata
type Error struct {
	Code    Code
	Message string
	Cause   error
	Meta    map[string]any
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithMeta adds metadata to the error (builder pattern)
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// New creates a new error with the given code and message
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new error with formatted message
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with additional context, keeping the code of an inner *Error
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
			Meta:    copyMeta(appErr.Meta),
		}
	}

	return &Error{
		Code:    CodeUnknown,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific code
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := Wrap(err, message)
	wrapped.Code = code
	return wrapped
}

// Validation creates a field-scoped validation error
func Validation(field, reason, message string) *Error {
	return New(CodeValidation, message).
		WithMeta(MetaField, field).
		WithMeta(MetaReason, reason)
}

// OutOfRangef creates a formatted out-of-range error for a runtime-bounded field
func OutOfRangef(field string, format string, args ...any) *Error {
	return Newf(CodeOutOfRange, format, args...).
		WithMeta(MetaField, field)
}

// Transport marks err as a failure to reach the store during op.
// Errors that already carry a not-found code keep it.
func Transport(err error, op string) *Error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		return Wrapf(err, "%s failed", op).WithMeta(MetaOperation, op)
	}
	return WrapWithCode(err, CodeUnavailable, op+" failed").WithMeta(MetaOperation, op)
}

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a formatted not found error
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

// InvalidArgumentf creates a formatted invalid argument error
func InvalidArgumentf(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}

// AlreadyExistsf creates a formatted already exists error
func AlreadyExistsf(format string, args ...any) *Error {
	return Newf(CodeAlreadyExists, format, args...)
}

// Internalf creates a formatted internal error
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Is checks if the error is of a specific code
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return Is(err, CodeValidation)
}

// IsOutOfRange checks if the error is a runtime range error
func IsOutOfRange(err error) bool {
	return Is(err, CodeOutOfRange)
}

// IsTransport checks if the error came from an unreachable or failing store
func IsTransport(err error) bool {
	return Is(err, CodeUnavailable)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsInvalidArgument checks if the error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return Is(err, CodeInvalidArgument)
}

// IsAlreadyExists checks if the error is an already exists error
func IsAlreadyExists(err error) bool {
	return Is(err, CodeAlreadyExists)
}

// IsLocal reports whether err is resolved by re-prompting the user rather than retrying
func IsLocal(err error) bool {
	return IsValidation(err) || IsOutOfRange(err)
}

// GetCode returns the error code
func GetCode(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMeta returns the error metadata
func GetMeta(err error) map[string]any {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Meta
	}
	return nil
}

// Field returns the field name recorded on a validation or range error
func Field(err error) string {
	field, _ := GetMeta(err)[MetaField].(string)
	return field
}

// Reason returns the validation reason recorded on a validation error
func Reason(err error) string {
	reason, _ := GetMeta(err)[MetaReason].(string)
	return reason
}

func copyMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}

	copied := make(map[string]any, len(meta))
	for k, v := range meta {
		copied[k] = v
	}
	return copied
}
