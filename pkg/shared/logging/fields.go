// Package logging provides a structured, chainable field builder with
// presets for the service's recurring components, plus a logr.Logger
// constructor backed by zap (the teacher corpus's logging library).
package logging

import "time"

// Fields is a chainable map of structured log fields; the preset
// constructors below fix the field names per component. The service's
// packages log through logr key/value pairs directly; outside this package
// only NewLogger is used.
type Fields map[string]interface{}

func NewFields() Fields {
	return Fields{}
}

func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

func (f Fields) Operation(op string) Fields {
	f["operation"] = op
	return f
}

func (f Fields) Resource(resourceType, resourceName string) Fields {
	f["resource_type"] = resourceType
	if resourceName != "" {
		f["resource_name"] = resourceName
	}
	return f
}

func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

func (f Fields) UserID(id string) Fields {
	if id != "" {
		f["user_id"] = id
	}
	return f
}

func (f Fields) RequestID(id string) Fields {
	f["request_id"] = id
	return f
}

func (f Fields) TraceID(id string) Fields {
	f["trace_id"] = id
	return f
}

func (f Fields) StatusCode(code int) Fields {
	f["status_code"] = code
	return f
}

func (f Fields) Method(method string) Fields {
	f["method"] = method
	return f
}

func (f Fields) URL(url string) Fields {
	f["url"] = url
	return f
}

func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

func (f Fields) Size(bytes int64) Fields {
	f["size_bytes"] = bytes
	return f
}

func (f Fields) Version(v string) Fields {
	f["version"] = v
	return f
}

func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// KeysAndValues flattens Fields into logr's alternating key/value slice.
func (f Fields) KeysAndValues() []interface{} {
	kv := make([]interface{}, 0, len(f)*2)
	for k, v := range f {
		kv = append(kv, k, v)
	}
	return kv
}

// Preset constructors, one per recurring component in the service.

func GraphFields(operation, collection string) Fields {
	return NewFields().Component("graphstore").Operation(operation).Resource("collection", collection)
}

func ObjectStoreFields(operation, bucket, path string) Fields {
	f := NewFields().Component("objectstore").Operation(operation).Custom("bucket", bucket)
	if path != "" {
		f.Custom("path", path)
	}
	return f
}

func HTTPFields(method, url string, statusCode int) Fields {
	return NewFields().Component("http").Method(method).URL(url).StatusCode(statusCode)
}

func IngestionFields(stage, taskID string) Fields {
	return NewFields().Component("ingestion").Operation(stage).Resource("task", taskID)
}

func ConfirmationFields(operation, docID string) Fields {
	return NewFields().Component("confirmation").Operation(operation).Resource("document", docID)
}

func SecurityFields(operation, subject string) Fields {
	return NewFields().Component("security").Operation(operation).Custom("subject", subject)
}

func PerformanceFields(operation string, duration time.Duration, success bool) Fields {
	return NewFields().Component("performance").Operation(operation).Duration(duration).Custom("success", success)
}
