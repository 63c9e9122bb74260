package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error codes for categorization
const (
	// Wait and assertion failures
	ErrCodeTimeout         = "TIMEOUT"
	ErrCodeAssertionFailed = "ASSERTION_FAILED"

	// Interaction failures
	ErrCodeNavigation = "NAVIGATION_FAILED"
	ErrCodeAction     = "ACTION_FAILED"
	ErrCodeNoOption   = "NO_SUCH_OPTION"

	// Suite failures
	ErrCodeScenarioFailed = "SCENARIO_FAILED"
	ErrCodeCircuitOpen    = "CIRCUIT_OPEN"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// Metadata keys attached to wait and assertion errors
const (
	MetaCondition = "condition"
	MetaTarget    = "target"
	MetaTimeout   = "timeout"
	MetaElapsed   = "elapsed"
	MetaOperation = "operation"
)

// AppError is the base error type for all suite errors
type AppError struct {
	// Error code for programmatic handling
	Code string `json:"code"`

	// Human-readable message
	Message string `json:"message"`

	// Detailed description (optional)
	Details string `json:"details,omitempty"`

	// Original error (for error wrapping)
	Cause error `json:"-"`

	// Metadata for additional context
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// Timestamp when error occurred
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Condition returns the wait condition recorded on the error, if any
func (e *AppError) Condition() string {
	s, _ := e.Metadata[MetaCondition].(string)
	return s
}

// Elapsed returns how long the failed wait ran, if recorded
func (e *AppError) Elapsed() time.Duration {
	d, _ := e.Metadata[MetaElapsed].(time.Duration)
	return d
}

// NewError creates a new AppError
func NewError(code, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Wait and assertion errors

func ErrTimeout(condition, target string, timeout, elapsed time.Duration, cause error) *AppError {
	msg := fmt.Sprintf("waiting for %s", condition)
	if target != "" {
		msg = fmt.Sprintf("waiting for %s to be %s", target, condition)
	}
	return NewError(ErrCodeTimeout, msg).
		WithCause(cause).
		WithMetadata(MetaCondition, condition).
		WithMetadata(MetaTarget, target).
		WithMetadata(MetaTimeout, timeout).
		WithMetadata(MetaElapsed, elapsed)
}

func ErrAssertionFailed(expectation, target string, timeout time.Duration, cause error) *AppError {
	return NewError(ErrCodeAssertionFailed, fmt.Sprintf("expected %s to be %s", target, expectation)).
		WithCause(cause).
		WithMetadata(MetaCondition, expectation).
		WithMetadata(MetaTarget, target).
		WithMetadata(MetaTimeout, timeout)
}

// Interaction errors

func ErrNavigation(url string, err error) *AppError {
	return NewError(ErrCodeNavigation, fmt.Sprintf("navigating to %s", url)).
		WithCause(err).
		WithMetadata(MetaTarget, url)
}

func ErrAction(operation, target string, err error) *AppError {
	return NewError(ErrCodeAction, fmt.Sprintf("%s %s", operation, target)).
		WithCause(err).
		WithMetadata(MetaOperation, operation).
		WithMetadata(MetaTarget, target)
}

func ErrNoSuchOption(target, choice string, err error) *AppError {
	return NewError(ErrCodeNoOption, fmt.Sprintf("no option %q in %s", choice, target)).
		WithCause(err).
		WithMetadata(MetaTarget, target)
}

// Suite errors

func ErrScenarioFailed(id string, attempts int, err error) *AppError {
	return NewError(ErrCodeScenarioFailed, fmt.Sprintf("scenario %s failed after %d attempt(s)", id, attempts)).
		WithCause(err).
		WithMetadata("scenario", id).
		WithMetadata("attempts", attempts)
}

func ErrCircuitOpen(reason string) *AppError {
	return NewError(ErrCodeCircuitOpen, fmt.Sprintf("site circuit open: %s", reason))
}

func ErrValidation(message string) *AppError {
	return NewError(ErrCodeValidation, message)
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetErrorCode returns the error code for an error
func GetErrorCode(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// Sentinel errors for comparison (used with errors.Is)
var (
	ErrTimeoutSentinel     = NewError(ErrCodeTimeout, "timeout")
	ErrAssertionSentinel   = NewError(ErrCodeAssertionFailed, "assertion failed")
	ErrNavigationSentinel  = NewError(ErrCodeNavigation, "navigation failed")
	ErrActionSentinel      = NewError(ErrCodeAction, "action failed")
	ErrCircuitOpenSentinel = NewError(ErrCodeCircuitOpen, "circuit open")
)
