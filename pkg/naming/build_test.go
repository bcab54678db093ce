package naming

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 7, 30, 14, 5, 9, 0, time.UTC)

func TestBuildNames_MultiLevelWithoutRequiredDocument(t *testing.T) {
	path := []Node{
		{Name: "Faculty of Engineering", Code: "FCVT", CodeNumeric: 10.0},
		{Name: "Systems Engineering", Code: "ISW", CodeNumeric: 213.0},
	}

	got := BuildNames(path, nil, fixedNow)

	if got.NamePath != "Faculty of Engineering / Systems Engineering" {
		t.Errorf("NamePath = %q", got.NamePath)
	}
	if got.CodePath != "FCVT / ISW" {
		t.Errorf("CodePath = %q", got.CodePath)
	}
	if got.CodeNumericPath != "10 / 213" {
		t.Errorf("CodeNumericPath = %q", got.CodeNumericPath)
	}
	if got.NameCode != "FCVT-ISW - Systems Engineering" {
		t.Errorf("NameCode = %q", got.NameCode)
	}
	if got.NameCodeNumeric != "10-213 - Systems Engineering" {
		t.Errorf("NameCodeNumeric = %q", got.NameCodeNumeric)
	}
	if got.DisplayName != "FCVT-ISW - Systems Engineering - 20260730_140509" {
		t.Errorf("DisplayName = %q", got.DisplayName)
	}
	if got.TimestampTag != "20260730_140509" {
		t.Errorf("TimestampTag = %q", got.TimestampTag)
	}
	if got.RequiredDocumentCode != "" {
		t.Errorf("RequiredDocumentCode = %q, want empty", got.RequiredDocumentCode)
	}
}

func TestBuildNames_SingleLevel(t *testing.T) {
	path := []Node{{Name: "Systems Engineering", Code: "ISW", CodeNumeric: 213.0}}

	got := BuildNames(path, nil, fixedNow)

	if got.NameCode != "ISW - Systems Engineering" {
		t.Errorf("NameCode = %q", got.NameCode)
	}
}

func TestBuildNames_WithRequiredDocument(t *testing.T) {
	path := []Node{
		{Name: "Faculty of Engineering", Code: "FCVT", CodeNumeric: 10.0},
		{Name: "Systems Engineering", Code: "ISW", CodeNumeric: 213.9},
	}
	required := &RequiredDocument{Code: "TRANS", Name: "Transcript"}

	got := BuildNames(path, required, fixedNow)

	if got.NameCode != "FCVT-ISW-TRANS - Transcript" {
		t.Errorf("NameCode = %q", got.NameCode)
	}
	if got.NameCodeNumeric != "10-213.9-TRANS - Transcript" {
		t.Errorf("NameCodeNumeric = %q", got.NameCodeNumeric)
	}
	if got.RequiredDocumentCode != "TRANS" {
		t.Errorf("RequiredDocumentCode = %q", got.RequiredDocumentCode)
	}
}

func TestBuildNames_SkipsEmptySegments(t *testing.T) {
	path := []Node{
		{Name: "", Code: "", CodeNumeric: nil},
		{Name: "Systems Engineering", Code: "ISW", CodeNumeric: 213.0},
	}

	got := BuildNames(path, nil, fixedNow)

	if got.NamePath != "Systems Engineering" {
		t.Errorf("NamePath = %q, want empty segment skipped", got.NamePath)
	}
	if got.CodePath != "ISW" {
		t.Errorf("CodePath = %q, want empty segment skipped", got.CodePath)
	}
}
