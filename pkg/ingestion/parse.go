package ingestion

import (
	"encoding/json"
	"fmt"
)

// ParsedRecord is the typed record step 1 (Parse) produces. There is no
// partial parsing: Parse fails fatally rather than return a record with a
// missing task_id.
type ParsedRecord struct {
	TaskID           string
	OCRItems         []OCRItem
	ContextValues    ContextValues
	SchemaInfo       SchemaInfo
	UserSnapshot     UserSnapshot
	RequiredDocument *RequiredDocumentRef
	Filename         string
	PresignedURLs    PresignedURLs
}

// Parse decodes raw into a ParsedRecord. A missing task_id is a fatal parse
// error (spec.md §4.5 step 1).
func Parse(raw []byte) (*ParsedRecord, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("ingestion: parsing message: %w", err)
	}
	if msg.TaskID == "" {
		return nil, fmt.Errorf("ingestion: message missing task_id")
	}

	var file FileDescriptor
	if files := msg.DocumentData.ExternalDocument.Files; len(files) > 0 {
		file = files[0]
	}

	record := &ParsedRecord{
		TaskID:           msg.TaskID,
		OCRItems:         file.MetadataValues,
		ContextValues:    msg.DocumentData.ExternalDocument.Context,
		SchemaInfo:       file.MetadataSchema,
		UserSnapshot:     msg.DocumentData.ExternalDocument.User,
		RequiredDocument: file.RequiredDocument,
		Filename:         msg.DocumentData.InternalResult.Filename,
		PresignedURLs:    msg.DocumentData.InternalResult.PresignedURLs,
	}
	fillFromFallback(record, raw)
	return record, nil
}

// fillFromFallback patches in fields the strict shape above left blank,
// using the historical key paths a prior message schema revision used.
func fillFromFallback(record *ParsedRecord, raw []byte) {
	if record.UserSnapshot.ID != "" && record.Filename != "" && record.ContextValues.ID != "" {
		return
	}

	fallback := extractFallback(raw)
	if record.UserSnapshot.ID == "" {
		record.UserSnapshot.ID = fallback["user_id"]
		record.UserSnapshot.Name = fallback["user_name"]
		record.UserSnapshot.Email = fallback["user_email"]
	}
	if record.Filename == "" {
		record.Filename = fallback["filename"]
	}
	if record.ContextValues.ID == "" {
		record.ContextValues.ID = fallback["context_id"]
	}
}
