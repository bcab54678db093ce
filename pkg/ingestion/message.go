// Package ingestion implements the OCR ingestion pipeline (Component E,
// spec.md §4.5): a pure, step-by-step transformation from a Kafka message
// into a confirmed-or-pending document vertex plus its structural edges.
package ingestion

import "time"

// Message is the wire shape of one ingestion task published to Kafka.
type Message struct {
	TaskID       string       `json:"task_id"`
	Timestamp    time.Time    `json:"timestamp"`
	DocumentData DocumentData `json:"document_data"`
}

type DocumentData struct {
	InternalResult   InternalResult   `json:"internal_result"`
	ExternalDocument ExternalDocument `json:"external_document"`
}

type InternalResult struct {
	Filename       string        `json:"filename"`
	ProcessingTime float64       `json:"processing_time"`
	PresignedURLs  PresignedURLs `json:"presigned_urls"`
}

// PresignedURLs are the OCR service's pre-signed download links for the
// four staged artifacts (spec.md §4.5 step 2).
type PresignedURLs struct {
	MinioPDFA        string `json:"minio_pdfa"`
	MinioValidated   string `json:"minio_validated"`
	MinioText        string `json:"minio_text"`
	MinioOriginalPDF string `json:"minio_original_pdf"`
}

type ExternalDocument struct {
	Context ContextValues    `json:"context"`
	User    UserSnapshot     `json:"user"`
	Files   []FileDescriptor `json:"files"`
}

// ContextValues identifies the organizational entity a document was
// uploaded against.
type ContextValues struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type UserSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type FileDescriptor struct {
	MetadataValues  []OCRItem            `json:"metadataValues"`
	MetadataSchema  SchemaInfo           `json:"metadataSchema"`
	RequiredDocument *RequiredDocumentRef `json:"requiredDocument,omitempty"`
}

// OCRItem is one extracted field and its raw OCR response text.
type OCRItem struct {
	FieldKey string `json:"field_key"`
	Response string `json:"response"`
}

// SchemaInfo names the meta_schema a file's fields were extracted against.
type SchemaInfo struct {
	ID string `json:"id"`
}

// RequiredDocumentRef is the required-document slot a file fills, if any.
type RequiredDocumentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}
