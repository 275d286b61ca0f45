package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, device_query, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code.
// Copies made by WithCause/WithMessage/WithDetails still match their sentinel.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Device responses
	ErrDeviceQuery = &ExecutionError{
		Category: ErrCategoryDevice,
		Code:     "device_query",
		Message:  "device query failed",
	}
	ErrMalformedResponse = &ExecutionError{
		Category: ErrCategoryProtocol,
		Code:     "malformed_response",
		Message:  "malformed XML response",
	}
	ErrNoRootScene = &ExecutionError{
		Category: ErrCategoryProtocol,
		Code:     "no_root_scene",
		Message:  "no root Scene in screen snapshot",
	}
	ErrTypeCoercion = &ExecutionError{
		Category: ErrCategoryProtocol,
		Code:     "type_coercion",
		Message:  "attribute value does not match its expected type",
	}

	// Assertion errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "element_not_found",
		Message:  "element not found",
	}

	// Command errors
	ErrDeviceCommand = &ExecutionError{
		Category: ErrCategoryDevice,
		Code:     "device_command",
		Message:  "device rejected command",
	}
	ErrUnknownKey = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "unknown_key",
		Message:  "unknown button",
	}
	ErrSequenceFormat = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "sequence_format",
		Message:  "malformed key sequence entry",
	}

	// Connection errors
	ErrTransport = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "transport",
		Message:  "could not reach device",
	}
	ErrAuthChallengeTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "auth_challenge_timeout",
		Message:  "device never issued an authentication challenge",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrInvalidLocator = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_locator",
		Message:  "invalid locator",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CommandError is returned when a command endpoint answers with a non-2xx status.
type CommandError struct {
	Method string
	Path   string
	Status int
}

// Error implements the error interface
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: device returned status %d", e.Method, e.Path, e.Status)
}

// Is makes errors.Is(err, ErrDeviceCommand) hold for every CommandError.
func (e *CommandError) Is(target error) bool {
	return target == ErrDeviceCommand
}

// StatusOf extracts the HTTP status carried by a CommandError anywhere in err's chain.
func StatusOf(err error) (int, bool) {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Status, true
	}
	return 0, false
}

// IsRecoverable reports whether err is transient: the request never got a
// status, or the device answered with its error marker.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrDeviceQuery)
}

// CategoryOf returns the category of the first ExecutionError in err's chain.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	if errors.Is(err, ErrDeviceCommand) {
		return ErrCategoryDevice
	}
	return ErrCategoryNone
}
