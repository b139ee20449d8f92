package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
	ErrHasDependents         = errors.New("record has dependent records")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTooManyRequests    = errors.New("too many requests")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Attachment errors
var (
	ErrOpenAttachmentExists = errors.New("student already has an open attachment")
	ErrIllegalTransition    = errors.New("illegal attachment status transition")
)

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewHasDependentsError reports a delete blocked by referencing rows
func NewHasDependentsError(message string) error {
	return &CustomError{
		Err:     ErrHasDependents,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewUnauthorizedError wraps ErrInvalidCredentials with a client-facing message
func NewUnauthorizedError(message string) error {
	return &CustomError{
		Err:     ErrInvalidCredentials,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details interface{}) *CustomError {
	e.Details = details
	return e
}

// Message returns the client-facing message carried by err, if any.
func Message(err error) (string, bool) {
	var custom *CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message, true
	}
	return "", false
}

// Details returns the details payload carried by err, if any.
func Details(err error) interface{} {
	var custom *CustomError
	if errors.As(err, &custom) {
		return custom.Details
	}
	return nil
}
