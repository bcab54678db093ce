// Package validation holds the document management service's field-level
// validation error type and RFC 7807 problem-detail constructors. It holds
// no validators of its own.
package validation

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ValidationError carries a resource-scoped message plus zero or more
// per-field errors, added one field at a time.
type ValidationError struct {
	Resource    string
	Message     string
	FieldErrors map[string]string
}

func NewValidationError(resource, message string) *ValidationError {
	return &ValidationError{
		Resource:    resource,
		Message:     message,
		FieldErrors: make(map[string]string),
	}
}

func (e *ValidationError) AddFieldError(field, message string) {
	e.FieldErrors[field] = message
}

func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return fmt.Sprintf("validation error for %s: %s", e.Resource, e.Message)
	}
	return fmt.Sprintf("validation error for %s: %s (fields: %v)", e.Resource, e.Message, e.FieldErrors)
}

// ToRFC7807 renders the error as an RFC 7807 problem detail whose instance
// is /documents/<resource>.
func (e *ValidationError) ToRFC7807() *RFC7807Problem {
	return &RFC7807Problem{
		Type:     "https://docs.internal/errors/validation-error",
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   e.Message,
		Instance: fmt.Sprintf("/documents/%s", e.Resource),
		Extensions: map[string]interface{}{
			"resource":     e.Resource,
			"field_errors": e.FieldErrors,
		},
	}
}

// RFC7807Problem is the "application/problem+json" error envelope (RFC
// 7807).
type RFC7807Problem struct {
	Type       string                 `json:"type"`
	Title      string                 `json:"title"`
	Status     int                    `json:"status"`
	Detail     string                 `json:"detail,omitempty"`
	Instance   string                 `json:"instance,omitempty"`
	Extensions map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Extensions alongside the standard RFC 7807 fields so
// callers see one flat JSON object rather than a nested "extensions" key.
func (p *RFC7807Problem) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		out["detail"] = p.Detail
	}
	if p.Instance != "" {
		out["instance"] = p.Instance
	}
	for k, v := range p.Extensions {
		out[k] = v
	}
	return json.Marshal(out)
}

func (p *RFC7807Problem) Error() string {
	return fmt.Sprintf("%s (%d): %s", p.Title, p.Status, p.Detail)
}

func NewValidationErrorProblem(resource string, fieldErrors map[string]string) *RFC7807Problem {
	return &RFC7807Problem{
		Type:     "https://docs.internal/errors/validation-error",
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   fmt.Sprintf("validation failed for %s", resource),
		Instance: fmt.Sprintf("/documents/%s", resource),
		Extensions: map[string]interface{}{
			"resource":     resource,
			"field_errors": fieldErrors,
		},
	}
}

func NewNotFoundProblem(resource, id string) *RFC7807Problem {
	return &RFC7807Problem{
		Type:     "https://docs.internal/errors/not-found",
		Title:    "Resource Not Found",
		Status:   http.StatusNotFound,
		Detail:   fmt.Sprintf("%s %s was not found", resource, id),
		Instance: fmt.Sprintf("/documents/%s/%s", resource, id),
		Extensions: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewInternalErrorProblem(detail string) *RFC7807Problem {
	return &RFC7807Problem{
		Type:   "https://docs.internal/errors/internal-error",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: detail,
		Extensions: map[string]interface{}{
			"retry": true,
		},
	}
}

func NewServiceUnavailableProblem(detail string) *RFC7807Problem {
	return &RFC7807Problem{
		Type:   "https://docs.internal/errors/service-unavailable",
		Title:  "Service Unavailable",
		Status: http.StatusServiceUnavailable,
		Detail: detail,
		Extensions: map[string]interface{}{
			"retry": true,
		},
	}
}

func NewConflictProblem(resource, field, value string) *RFC7807Problem {
	return &RFC7807Problem{
		Type:     "https://docs.internal/errors/conflict",
		Title:    "Resource Conflict",
		Status:   http.StatusConflict,
		Detail:   fmt.Sprintf("%s already exists with %s = %s", resource, field, value),
		Instance: fmt.Sprintf("/documents/%s", resource),
		Extensions: map[string]interface{}{
			"resource": resource,
			"field":    field,
			"value":    value,
		},
	}
}
