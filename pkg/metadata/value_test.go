package metadata

import (
	"encoding/json"
	"testing"
)

func TestMap_UnmarshalJSON_Primitive(t *testing.T) {
	raw := []byte(`{"email": {"value": "jane@example.edu", "is_valid": true, "source": "ocr_raw"}}`)

	var m Map
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	p, ok := m["email"].(Primitive)
	if !ok {
		t.Fatalf("email field = %T, want Primitive", m["email"])
	}
	if p.Val != "jane@example.edu" || !p.IsValid || p.Source != SourceOCRRaw {
		t.Errorf("unexpected primitive: %+v", p)
	}
}

func TestMap_UnmarshalJSON_EntityRef(t *testing.T) {
	raw := []byte(`{"career": {"id": "E1", "name": "Systems Engineering", "code": "ISW", "type": "carrera", "value": "Systems Engineering"}}`)

	var m Map
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	e, ok := m["career"].(EntityRef)
	if !ok {
		t.Fatalf("career field = %T, want EntityRef", m["career"])
	}
	if e.ID != "E1" || e.Name != "Systems Engineering" {
		t.Errorf("unexpected entity ref: %+v", e)
	}
}

func TestMap_UnmarshalJSON_UserRef(t *testing.T) {
	raw := []byte(`{"owner": {"id": "U1", "display_name": "Jane Doe", "email": "jane@example.edu", "type": "user", "value": "Jane Doe"}}`)

	var m Map
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	u, ok := m["owner"].(UserRef)
	if !ok {
		t.Fatalf("owner field = %T, want UserRef", m["owner"])
	}
	if u.ID != "U1" || u.DisplayName != "Jane Doe" {
		t.Errorf("unexpected user ref: %+v", u)
	}
}

func TestMap_UnmarshalJSON_Null(t *testing.T) {
	raw := []byte(`{"academic_period": null}`)

	var m Map
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !m["academic_period"].IsNull() {
		t.Errorf("academic_period = %+v, want Null", m["academic_period"])
	}
}

func TestMap_MarshalJSON_RoundTrip(t *testing.T) {
	m := Map{
		"email": Primitive{Val: "jane@example.edu", IsValid: true, Source: SourceOCRRaw},
		"career": EntityRef{ID: "E1", Name: "Systems Engineering", Val: "Systems Engineering"},
		"owner": UserRef{ID: "U1", DisplayName: "Jane Doe", Type: "user", Val: "Jane Doe"},
		"gap": Null{},
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var roundTripped Map
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("Unmarshal() round trip error = %v", err)
	}

	if !roundTripped["gap"].IsNull() {
		t.Error("round-tripped null field should stay null")
	}
	if roundTripped["email"].(Primitive).Val != "jane@example.edu" {
		t.Error("round-tripped primitive should preserve value")
	}
}
