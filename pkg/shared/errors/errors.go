// Package errors provides lightweight, component-level error wrapping
// (OperationError plus message helpers) that sits below
// internal/errors.AppError. No other package of the service imports it.
package errors

import (
	"fmt"
	"strings"
)

// OperationError describes a single failed operation with enough structure
// to log without string-parsing: what was attempted, which component ran
// it, which resource it touched, and the underlying cause.
type OperationError struct {
	Operation string
	Component string
	Resource  string
	Cause     error
}

func (e *OperationError) Error() string {
	var b strings.Builder
	b.WriteString("failed to ")
	b.WriteString(e.Operation)
	if e.Component != "" {
		b.WriteString(", component: ")
		b.WriteString(e.Component)
	}
	if e.Resource != "" {
		b.WriteString(", resource: ")
		b.WriteString(e.Resource)
	}
	if e.Cause != nil {
		b.WriteString(", cause: ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *OperationError) Unwrap() error { return e.Cause }

// FailedTo builds the minimal "failed to <action>[: cause]" error.
func FailedTo(action string, cause error) error {
	if cause != nil {
		return fmt.Errorf("failed to %s: %w", action, cause)
	}
	return &OperationError{Operation: action}
}

// FailedToWithDetails attaches component and resource to a FailedTo error.
func FailedToWithDetails(action, component, resource string, cause error) error {
	return &OperationError{
		Operation: action,
		Component: component,
		Resource:  resource,
		Cause:     cause,
	}
}

// Wrapf adds formatted context ahead of err's own message, matching
// fmt.Errorf("%w") chaining but returning a plain error to avoid pulling
// the %w verb through every call site. Returns nil when err is nil so
// callers can wrap the result of a fallible call unconditionally.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	prefix := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", prefix, err)
}

func DatabaseError(operation string, cause error) error {
	return FailedToWithDetails(operation, "database", "", cause)
}

func NetworkError(operation, endpoint string, cause error) error {
	return FailedToWithDetails(operation, "network", endpoint, cause)
}

func ValidationError(field, message string) error {
	return fmt.Errorf("validation failed for field %s: %s", field, message)
}

func ConfigurationError(setting, message string) error {
	return fmt.Errorf("configuration error for setting %s: %s", setting, message)
}

func TimeoutError(operation, duration string) error {
	return fmt.Errorf("timeout while %s after %s", operation, duration)
}

func AuthenticationError(reason string) error {
	return fmt.Errorf("authentication failed: %s", reason)
}

func AuthorizationError(action, resource string) error {
	return fmt.Errorf("authorization failed: insufficient permissions to %s %s", action, resource)
}

func ParseError(resource, format string, cause error) error {
	return Wrapf(cause, "parse %s as %s", resource, format)
}

// IsRetryable classifies transient failures (timeouts, refused connections,
// upstream unavailability) so resilience wrappers know when a retry is
// worth attempting versus a permanent failure that should fail fast.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return true
	case strings.Contains(msg, "connection refused"):
		return true
	case strings.Contains(msg, "unavailable"):
		return true
	default:
		return false
	}
}

// Chain folds multiple non-nil errors into one "multiple errors: ..." error,
// used when several independent validation or sanitation steps each fail.
func Chain(errs ...error) error {
	var present []error
	for _, e := range errs {
		if e != nil {
			present = append(present, e)
		}
	}
	switch len(present) {
	case 0:
		return nil
	case 1:
		return present[0]
	}
	msgs := make([]string, len(present))
	for i, e := range present {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("multiple errors: %s", strings.Join(msgs, "; "))
}
