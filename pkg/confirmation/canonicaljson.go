package confirmation

import (
	"sort"
	"time"

	"github.com/go-faster/jx"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/metadata"
)

// canonicalMetadataJSON renders sanitized with field keys sorted
// alphabetically and each wrapper's own keys in a fixed order, so the hash
// over it is stable across runs (spec.md §4.6.2 step 6: "canonical JSON,
// sorted keys, compact separators").
func canonicalMetadataJSON(sanitized metadata.Map) []byte {
	keys := make([]string, 0, len(sanitized))
	for k := range sanitized {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var e jx.Encoder
	e.ObjStart()
	for _, k := range keys {
		e.FieldStart(k)
		encodeMetadataValue(&e, sanitized[k])
	}
	e.ObjEnd()
	return e.Bytes()
}

func encodeMetadataValue(e *jx.Encoder, v metadata.Value) {
	switch val := v.(type) {
	case metadata.Primitive:
		e.ObjStart()
		e.FieldStart("is_valid")
		e.Bool(val.IsValid)
		e.FieldStart("source")
		e.Str(val.Source)
		e.FieldStart("value")
		encodeScalar(e, val.Val)
		e.ObjEnd()
	case metadata.EntityRef:
		e.ObjStart()
		e.FieldStart("code")
		e.Str(val.Code)
		e.FieldStart("id")
		e.Str(val.ID)
		e.FieldStart("name")
		e.Str(val.Name)
		e.FieldStart("type")
		e.Str(val.Type)
		e.FieldStart("value")
		e.Str(val.Val)
		e.ObjEnd()
	case metadata.UserRef:
		e.ObjStart()
		e.FieldStart("display_name")
		e.Str(val.DisplayName)
		e.FieldStart("email")
		e.Str(val.Email)
		e.FieldStart("id")
		e.Str(val.ID)
		e.FieldStart("type")
		e.Str(val.Type)
		e.FieldStart("value")
		e.Str(val.Val)
		e.ObjEnd()
	default:
		e.Null()
	}
}

func encodeScalar(e *jx.Encoder, v interface{}) {
	switch val := v.(type) {
	case nil:
		e.Null()
	case string:
		e.Str(val)
	case bool:
		e.Bool(val)
	case float64:
		e.Float64(val)
	case int:
		e.Int(val)
	default:
		e.Null()
	}
}

// canonicalManifestJSON renders manifest with a fixed, alphabetically
// ordered field layout so manifest_signature is reproducible.
func canonicalManifestJSON(manifest graphmodel.IntegrityManifest) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("confirmed_at")
	e.Str(manifest.ConfirmedAt.UTC().Format(time.RFC3339))
	e.FieldStart("confirmed_by")
	e.Str(manifest.ConfirmedBy)
	e.FieldStart("doc_id")
	e.Str(manifest.DocID)
	e.FieldStart("hashes")
	e.ObjStart()
	e.FieldStart("pdf_sha256")
	e.Str(manifest.Hashes.PDFSHA256)
	e.FieldStart("validated_metadata_sha256")
	e.Str(manifest.Hashes.ValidatedMetadataSHA256)
	e.ObjEnd()
	e.FieldStart("keep_original")
	e.Bool(manifest.KeepOriginal)
	e.FieldStart("selected_pdf_path")
	e.Str(manifest.SelectedPDFPath)
	e.FieldStart("signature_algorithm")
	e.Str(manifest.SignatureAlgorithm)
	e.ObjEnd()
	return e.Bytes()
}
