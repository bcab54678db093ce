package metrics

import "testing"

func TestSanitizeFailureReason(t *testing.T) {
	known := []string{
		ReasonGraphUnavailable,
		ReasonObjectUnavailable,
		ReasonTransferFailed,
		ReasonContextCanceled,
		ReasonTimeout,
	}
	for _, r := range known {
		if got := SanitizeFailureReason(r); got != r {
			t.Errorf("SanitizeFailureReason(%q) = %q, want unchanged", r, got)
		}
	}

	unknown := []string{
		"connection timeout: failed to connect to arangodb",
		"user-generated content",
		"",
	}
	for _, r := range unknown {
		if got := SanitizeFailureReason(r); got != ReasonUnknown {
			t.Errorf("SanitizeFailureReason(%q) = %q, want %q", r, got, ReasonUnknown)
		}
	}
}

func TestSanitizeFailureReason_BoundedCardinality(t *testing.T) {
	messages := []string{"timeout here", "database down", "network blip", "permission denied", "resource exhausted"}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[SanitizeFailureReason(messages[i%len(messages)])] = true
	}
	if len(seen) > 6 {
		t.Errorf("cardinality should be bounded to 6, got %d", len(seen))
	}
}

func TestSanitizeValidationReason(t *testing.T) {
	known := []string{ValidationReasonRequired, ValidationReasonInvalidFormat, ValidationReasonEntityNotFound}
	for _, r := range known {
		if got := SanitizeValidationReason(r); got != r {
			t.Errorf("SanitizeValidationReason(%q) = %q, want unchanged", r, got)
		}
	}

	unknown := []string{"field must match pattern", "your input is wrong", ""}
	for _, r := range unknown {
		if got := SanitizeValidationReason(r); got != ValidationReasonInvalid {
			t.Errorf("SanitizeValidationReason(%q) = %q, want %q", r, got, ValidationReasonInvalid)
		}
	}
}

func TestSanitizeStatus(t *testing.T) {
	if got := SanitizeStatus(StatusSuccess); got != StatusSuccess {
		t.Errorf("SanitizeStatus(success) = %q, want %q", got, StatusSuccess)
	}
	for _, s := range []string{StatusFailure, "error", "pending", "unknown", ""} {
		if got := SanitizeStatus(s); got != StatusFailure {
			t.Errorf("SanitizeStatus(%q) = %q, want %q", s, got, StatusFailure)
		}
	}
}

func TestSanitizeStage(t *testing.T) {
	for _, s := range []string{StageParse, StageTransfer, StageValidate, StageNaming, StageUpsert, StageEdges} {
		if got := SanitizeStage(s); got != s {
			t.Errorf("SanitizeStage(%q) = %q, want unchanged", s, got)
		}
	}
	if got := SanitizeStage("unknown-stage"); got != "" {
		t.Errorf("SanitizeStage(unknown) = %q, want empty string", got)
	}
}

func TestSanitizeOperation(t *testing.T) {
	for _, op := range []string{OperationList, OperationGet, OperationFilter, OperationDownload} {
		if got := SanitizeOperation(op); got != op {
			t.Errorf("SanitizeOperation(%q) = %q, want unchanged", op, got)
		}
	}
	if got := SanitizeOperation("custom_query"); got != OperationFilter {
		t.Errorf("SanitizeOperation(unknown) = %q, want %q", got, OperationFilter)
	}
}

func TestOverallCardinalityBudget(t *testing.T) {
	maxFailureReasons := 6
	maxValidationReasons := 4
	maxStatuses := 2
	maxStages := 6
	maxOperations := 4

	total := maxFailureReasons + maxValidationReasons + maxStatuses + maxStages + maxOperations
	if total >= 100 {
		t.Errorf("total label cardinality budget %d should stay well under 100", total)
	}
}
