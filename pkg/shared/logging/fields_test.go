package logging

import (
	"errors"
	"testing"
	"time"
)

func TestNewFields(t *testing.T) {
	fields := NewFields()
	if fields == nil {
		t.Fatal("NewFields() returned nil")
	}
	if len(fields) != 0 {
		t.Errorf("NewFields() should be empty, got %d fields", len(fields))
	}
}

func TestStandardFields_Component(t *testing.T) {
	fields := NewFields().Component("test-component")
	if fields["component"] != "test-component" {
		t.Errorf("Component() = %v, want %v", fields["component"], "test-component")
	}
}

func TestStandardFields_Resource(t *testing.T) {
	fields := NewFields().Resource("document", "doc-1")
	if fields["resource_type"] != "document" {
		t.Errorf("resource_type = %v", fields["resource_type"])
	}
	if fields["resource_name"] != "doc-1" {
		t.Errorf("resource_name = %v", fields["resource_name"])
	}
}

func TestStandardFields_ResourceWithoutName(t *testing.T) {
	fields := NewFields().Resource("document", "")
	if _, exists := fields["resource_name"]; exists {
		t.Error("Resource() should not set resource_name when empty")
	}
}

func TestStandardFields_Duration(t *testing.T) {
	fields := NewFields().Duration(150 * time.Millisecond)
	if fields["duration_ms"] != int64(150) {
		t.Errorf("duration_ms = %v", fields["duration_ms"])
	}
}

func TestStandardFields_ErrorNil(t *testing.T) {
	fields := NewFields().Error(nil)
	if _, exists := fields["error"]; exists {
		t.Error("Error(nil) should not set error field")
	}
}

func TestStandardFields_Error(t *testing.T) {
	fields := NewFields().Error(errors.New("boom"))
	if fields["error"] != "boom" {
		t.Errorf("error = %v", fields["error"])
	}
}

func TestStandardFields_UserIDEmpty(t *testing.T) {
	fields := NewFields().UserID("")
	if _, exists := fields["user_id"]; exists {
		t.Error("UserID(\"\") should not set user_id")
	}
}

func TestStandardFields_ChainedCalls(t *testing.T) {
	fields := NewFields().
		Component("ingestion").
		Operation("transfer").
		Resource("task", "T1").
		Duration(100 * time.Millisecond).
		Count(4)

	expected := map[string]interface{}{
		"component":     "ingestion",
		"operation":     "transfer",
		"resource_type": "task",
		"resource_name": "T1",
		"duration_ms":   int64(100),
		"count":         4,
	}
	for k, want := range expected {
		if fields[k] != want {
			t.Errorf("chained: %s = %v, want %v", k, fields[k], want)
		}
	}
}

func TestStandardFields_KeysAndValues(t *testing.T) {
	fields := NewFields().Component("search").Operation("query")
	kv := fields.KeysAndValues()
	if len(kv) != 4 {
		t.Fatalf("expected 4 elements (2 pairs), got %d", len(kv))
	}
}

func TestGraphFields(t *testing.T) {
	fields := GraphFields("upsert", "documents")
	expected := map[string]interface{}{
		"component":     "graphstore",
		"operation":     "upsert",
		"resource_type": "collection",
		"resource_name": "documents",
	}
	for k, want := range expected {
		if fields[k] != want {
			t.Errorf("GraphFields() %s = %v, want %v", k, fields[k], want)
		}
	}
}

func TestObjectStoreFields(t *testing.T) {
	fields := ObjectStoreFields("upload", "dms", "stage-validate/u1/T1/pdf_document.pdf")
	if fields["component"] != "objectstore" {
		t.Errorf("component = %v", fields["component"])
	}
	if fields["bucket"] != "dms" {
		t.Errorf("bucket = %v", fields["bucket"])
	}
}

func TestHTTPFields(t *testing.T) {
	fields := HTTPFields("GET", "/documents", 200)
	expected := map[string]interface{}{
		"component":   "http",
		"method":      "GET",
		"url":         "/documents",
		"status_code": 200,
	}
	for k, want := range expected {
		if fields[k] != want {
			t.Errorf("HTTPFields() %s = %v, want %v", k, fields[k], want)
		}
	}
}

func TestIngestionFields(t *testing.T) {
	fields := IngestionFields("validate", "T1")
	if fields["component"] != "ingestion" || fields["operation"] != "validate" || fields["resource_name"] != "T1" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestSecurityFields(t *testing.T) {
	fields := SecurityFields("authenticate", "user-123")
	expected := map[string]interface{}{
		"component": "security",
		"operation": "authenticate",
		"subject":   "user-123",
	}
	for k, want := range expected {
		if fields[k] != want {
			t.Errorf("SecurityFields() %s = %v, want %v", k, fields[k], want)
		}
	}
}

func TestPerformanceFields(t *testing.T) {
	fields := PerformanceFields("query_graph", 250*time.Millisecond, true)
	expected := map[string]interface{}{
		"component":   "performance",
		"operation":   "query_graph",
		"duration_ms": int64(250),
		"success":     true,
	}
	for k, want := range expected {
		if fields[k] != want {
			t.Errorf("PerformanceFields() %s = %v, want %v", k, fields[k], want)
		}
	}
}
