package metrics

// Known failure reasons for ingestion/confirmation/search operations. Any
// cause string that doesn't match one of these collapses to ReasonUnknown
// so an upstream error message never becomes a label value.
const (
	ReasonGraphUnavailable  = "graph_unavailable"
	ReasonObjectUnavailable = "object_unavailable"
	ReasonTransferFailed    = "transfer_failed"
	ReasonContextCanceled   = "context_canceled"
	ReasonTimeout           = "timeout"
	ReasonUnknown           = "unknown"
)

var knownReasons = map[string]bool{
	ReasonGraphUnavailable:  true,
	ReasonObjectUnavailable: true,
	ReasonTransferFailed:    true,
	ReasonContextCanceled:   true,
	ReasonTimeout:           true,
}

// SanitizeFailureReason maps a failure reason onto the bounded label set
// above, returning ReasonUnknown for anything not explicitly named.
func SanitizeFailureReason(reason string) string {
	if knownReasons[reason] {
		return reason
	}
	return ReasonUnknown
}

// Quality-check validation failure reasons (spec.md §4.6.1).
const (
	ValidationReasonRequired       = "required"
	ValidationReasonInvalidFormat  = "invalid_format"
	ValidationReasonEntityNotFound = "entity_not_found"
	ValidationReasonInvalid        = "invalid"
)

var knownValidationReasons = map[string]bool{
	ValidationReasonRequired:       true,
	ValidationReasonInvalidFormat:  true,
	ValidationReasonEntityNotFound: true,
}

// SanitizeValidationReason maps an unknown validation reason to the
// catch-all "invalid" rather than letting free text become a label.
func SanitizeValidationReason(reason string) string {
	if knownValidationReasons[reason] {
		return reason
	}
	return ValidationReasonInvalid
}

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// SanitizeStatus collapses any non-"success" status to "failure" so the
// status label never exceeds cardinality 2.
func SanitizeStatus(status string) string {
	if status == StatusSuccess {
		return StatusSuccess
	}
	return StatusFailure
}

// Pipeline stage names (spec.md §4.5), used as the "stage" label.
const (
	StageParse    = "parse"
	StageTransfer = "transfer"
	StageValidate = "validate"
	StageNaming   = "naming"
	StageUpsert   = "upsert"
	StageEdges    = "edges"
)

var knownStages = map[string]bool{
	StageParse:    true,
	StageTransfer: true,
	StageValidate: true,
	StageNaming:   true,
	StageUpsert:   true,
	StageEdges:    true,
}

// SanitizeStage maps an unknown pipeline stage name to an empty string,
// signalling the caller should not record the metric rather than guess.
func SanitizeStage(stage string) string {
	if knownStages[stage] {
		return stage
	}
	return ""
}

// Search engine operation names (spec.md §4.7), used as the "operation"
// label on SearchQueriesTotal.
const (
	OperationList     = "list"
	OperationGet      = "get"
	OperationFilter   = "filter"
	OperationDownload = "download"
)

var knownOperations = map[string]bool{
	OperationList:     true,
	OperationGet:      true,
	OperationFilter:   true,
	OperationDownload: true,
}

// SanitizeOperation maps an unknown search operation name to "filter", the
// most general read operation, rather than letting it through unbounded.
func SanitizeOperation(operation string) string {
	if knownOperations[operation] {
		return operation
	}
	return OperationFilter
}
