// Package graphmodel defines the vertex and edge collections of the
// document management service's labeled property graph (spec.md §3).
package graphmodel

import (
	"time"

	"github.com/Jistoria/document-service/pkg/metadata"
)

// Entity is an organizational node: sede, facultad, carrera, departamento,
// and similar hierarchy levels. (type, code) is unique within a tenant.
type Entity struct {
	Key         string `json:"_key"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Code        string `json:"code"`
	CodeNumeric string `json:"code_numeric,omitempty"`
}

const (
	EntityTypeSede         = "sede"
	EntityTypeFacultad     = "facultad"
	EntityTypeCarrera      = "carrera"
	EntityTypeDepartamento = "departamento"
)

// ProcessCatalogNode covers subsystems, process_categories, and processes,
// which share the same shape in the catalog hierarchy.
type ProcessCatalogNode struct {
	Key  string `json:"_key"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// RequiredDocument is a catalog leaf referencing the schema that governs it.
type RequiredDocument struct {
	Key      string `json:"_key"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	SchemaID string `json:"schema_id"`
}

const (
	FieldDataTypeString = "string"
	FieldDataTypeEmail  = "email"
	FieldDataTypeDate   = "date"
	FieldDataTypeJSON   = "json"
	FieldDataTypeNumber = "number"
)

const (
	EntityTypeKeyFaculty    = "faculty"
	EntityTypeKeyCareer     = "career"
	EntityTypeKeyDepartment = "department"
	EntityTypeKeyEntity     = "entity"
	EntityTypeKeyUser       = "user"
	EntityTypeKeyPerson     = "person"
)

// SchemaField is one ordered field definition within a MetaSchema.
type SchemaField struct {
	FieldKey    string `json:"field_key"`
	Label       string `json:"label"`
	DataType    string `json:"data_type"`
	IsRequired  bool   `json:"is_required"`
	SortOrder   int    `json:"sort_order"`
	TypeInput   string `json:"type_input,omitempty"`
	EntityType  string `json:"entity_type,omitempty"`
	EntityTypeID string `json:"entity_type_id,omitempty"`
}

// MetaSchema is a named, versioned, ordered set of metadata fields.
type MetaSchema struct {
	Key     string        `json:"_key"`
	Name    string        `json:"name"`
	Version string        `json:"version"`
	Fields  []SchemaField `json:"fields"`
}

// DMSPermissions caches a user's authorization data alongside their
// identity so the search engine can resolve scopes without a round trip.
type DMSPermissions struct {
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Teams       []string `json:"teams,omitempty"`
}

// DMSUser is the local identity cache entry. Key is the sanitized GUID;
// guid_ms and email are each unique (email sparsely).
type DMSUser struct {
	Key            string          `json:"_key"`
	GUIDMS         string          `json:"guid_ms,omitempty"`
	Name           string          `json:"name"`
	LastName       string          `json:"last_name,omitempty"`
	Email          string          `json:"email,omitempty"`
	Status         string          `json:"status,omitempty"`
	Source         string          `json:"source,omitempty"`
	DMSPermissions DMSPermissions  `json:"dms_permissions"`
}

const (
	UserSourceManualCreation = "manual_validation_creation"
	UserSourceDirectory      = "directory"
	UserSourceSessionCache   = "session_cache"
)

const (
	DocumentStatusValidated          = "validated"
	DocumentStatusAttentionRequired  = "attention_required"
	DocumentStatusConfirmed          = "confirmed"
)

// Owner identifies who uploaded a document.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Naming is the hierarchical naming chain computed by the naming builder
// (spec.md §4.4).
type Naming struct {
	NamePath             string   `json:"name_path"`
	CodePath             string   `json:"code_path"`
	CodeNumericPath      string   `json:"code_numeric_path"`
	NameCode             string   `json:"name_code"`
	NameCodeNumeric      string   `json:"name_code_numeric"`
	DisplayName          string   `json:"display_name"`
	TimestampTag         string   `json:"timestamp_tag"`
	RequiredDocumentCode string   `json:"required_document_code,omitempty"`
	PathNodes            []string `json:"path_nodes,omitempty"`
}

// Storage records where a document's artifacts currently live.
type Storage struct {
	PDFPath             string `json:"pdf_path,omitempty"`
	PDFOriginalPath     string `json:"pdf_original_path,omitempty"`
	JSONPath            string `json:"json_path,omitempty"`
	TextPath            string `json:"text_path,omitempty"`
	PrimarySource       string `json:"primary_source,omitempty"`
	StorageTier         string `json:"storage_tier,omitempty"`
	PDFAConversionReq   bool   `json:"pdfa_conversion_required,omitempty"`
	PDFAConversionState string `json:"pdfa_conversion_status,omitempty"`
}

const (
	PrimarySourceOCRPDFA   = "ocr_pdfa"
	PrimarySourceOriginal  = "original"
	StorageTierStaging     = "staging"
	StorageTierArchive     = "archive"
	PDFAConversionPending  = "pending"
)

// IntegrityHashes holds the two SHA-256 digests covered by the manifest.
type IntegrityHashes struct {
	ValidatedMetadataSHA256 string `json:"validated_metadata_sha256"`
	PDFSHA256               string `json:"pdf_sha256"`
}

// IntegrityManifest is the HMAC-signed confirmation record (spec.md §4.6.2).
type IntegrityManifest struct {
	DocID             string          `json:"doc_id"`
	ConfirmedBy       string          `json:"confirmed_by"`
	ConfirmedAt       time.Time       `json:"confirmed_at"`
	KeepOriginal      bool            `json:"keep_original"`
	SelectedPDFPath   string          `json:"selected_pdf_path"`
	Hashes            IntegrityHashes `json:"hashes"`
	SignatureAlgorithm string         `json:"signature_algorithm"`
}

// Integrity bundles the manifest with its detached HMAC signature.
type Integrity struct {
	Manifest          IntegrityManifest `json:"manifest"`
	ManifestSignature string            `json:"manifest_signature"`
}

// Document is the central artifact vertex.
type Document struct {
	Key               string                 `json:"_key"`
	Owner             Owner                  `json:"owner"`
	Status            string                 `json:"status"`
	OriginalFilename  string                 `json:"original_filename"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	ConfirmedAt       *time.Time             `json:"confirmed_at,omitempty"`
	ConfirmedBy       string                 `json:"confirmed_by,omitempty"`
	ManuallyValidatedAt *time.Time           `json:"manually_validated_at,omitempty"`
	IsPublic          bool                   `json:"is_public"`
	KeepOriginal      bool                   `json:"keep_original"`
	IsLocked          bool                   `json:"is_locked"`
	DisplayName       string                 `json:"display_name,omitempty"`
	SnapContextName   string                 `json:"snap_context_name,omitempty"`
	Naming            Naming                 `json:"naming"`
	Storage           Storage                `json:"storage"`
	ValidatedMetadata metadata.Map           `json:"validated_metadata"`
	IntegrityWarnings []string               `json:"integrity_warnings"`
	ContextSnapshot   map[string]interface{} `json:"context_snapshot,omitempty"`
	Integrity         Integrity              `json:"integrity"`
}

// AuditDownload is an append-only record of a document retrieval.
type AuditDownload struct {
	Key        string    `json:"_key,omitempty"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	DownloadedAt time.Time `json:"downloaded_at"`
}
