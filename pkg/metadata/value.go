// Package metadata implements the validated_metadata tagged union
// (spec.md §3.2): each field key maps to either a primitive wrapper, an
// entity reference, a user reference, or null.
package metadata

import (
	"encoding/json"
	"fmt"
)

const (
	SourceOCRRaw        = "ocr_raw"
	SourceRegexMatch     = "regex_match"
	SourceDatabaseMatch  = "database_match"
	SourceGraphUserMatch = "graph_user_match"
)

// Value is implemented by every variant of the validated_metadata tagged
// union. IsNull distinguishes the explicit null variant from a Go nil
// interface so callers can pattern-match without type assertions.
type Value interface {
	IsNull() bool
}

// Primitive is a scalar field before confirmation, or any field that failed
// validation. A wrapper with IsValid false collapses to Null at confirm time
// (spec.md §3.2 invariant).
type Primitive struct {
	Val     interface{} `json:"value"`
	IsValid bool        `json:"is_valid"`
	Source  string      `json:"source"`
}

func (Primitive) IsNull() bool { return false }

// EntityRef is a non-user entity reference after sanitization.
type EntityRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Code  string `json:"code,omitempty"`
	Type  string `json:"type,omitempty"`
	Val   string `json:"value"`
}

func (EntityRef) IsNull() bool { return false }

// UserRef is a user reference after sanitization.
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Type        string `json:"type"` // always "user"
	Val         string `json:"value"`
}

func (UserRef) IsNull() bool { return false }

// Null represents a field with no value, either because it was never
// populated or because confirmation discarded an invalid wrapper.
type Null struct{}

func (Null) IsNull() bool { return true }

// Map is the validated_metadata map keyed by field_key.
type Map map[string]Value

// UnmarshalJSON dispatches each field's raw JSON to the right variant by
// shape: explicit null, a "type":"user" reference, an "id"-bearing entity
// reference, or a primitive wrapper.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Map, len(raw))
	for key, value := range raw {
		decoded, err := decodeValue(value)
		if err != nil {
			return fmt.Errorf("metadata field %q: %w", key, err)
		}
		out[key] = decoded
	}
	*m = out
	return nil
}

func decodeValue(raw json.RawMessage) (Value, error) {
	trimmed := trimSpace(raw)
	if string(trimmed) == "null" {
		return Null{}, nil
	}

	var shape struct {
		ID      *string `json:"id"`
		Type    *string `json:"type"`
		IsValid *bool   `json:"is_valid"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, err
	}

	switch {
	case shape.ID != nil && shape.Type != nil && *shape.Type == "user":
		var u UserRef
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, err
		}
		return u, nil
	case shape.ID != nil:
		var e EntityRef
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		return e, nil
	case shape.IsValid != nil:
		var p Primitive
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return Null{}, nil
	}
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isJSONSpace(b[start]) {
		start++
	}
	for end > start && isJSONSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// MarshalJSON renders Null as the JSON literal null and every other variant
// as its tagged struct, matching the shape decodeValue expects on the way
// back in.
func (m Map) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m))
	for key, value := range m {
		if value == nil || value.IsNull() {
			out[key] = nil
			continue
		}
		out[key] = value
	}
	return json.Marshal(out)
}
