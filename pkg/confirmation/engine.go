// Package confirmation implements the Validation & Confirmation Engine
// (Component F, spec.md §4.6): the quality-check dry run, the confirm
// contract that locks a document's metadata and archives its artifacts,
// and integrity-manifest verification.
package confirmation

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/confirmation/qualitycheck"
	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/identity"
	"github.com/Jistoria/document-service/pkg/metadata"
	"github.com/Jistoria/document-service/pkg/objectstore"
)

const (
	documentsCollection   = "documents"
	metaSchemasCollection = "meta_schemas"
	entitiesCollection    = "entities"
	dmsUsersCollection    = "dms_users"
)

// Engine wires the graph store, object store, and identity resolver behind
// the quality-check and confirm operations.
type Engine struct {
	Store    graphstore.Store
	Objects  objectstore.Store
	Resolver *identity.Resolver
	Secret   []byte
	Log      logr.Logger
	Now      func() time.Time
}

// NewEngine builds an Engine with a real wall-clock Now.
func NewEngine(store graphstore.Store, objects objectstore.Store, resolver *identity.Resolver, secret []byte, log logr.Logger) *Engine {
	return &Engine{Store: store, Objects: objects, Resolver: resolver, Secret: secret, Log: log, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Input is the confirm request (spec.md §4.6.2).
type Input struct {
	DocID        string
	CallerID     string
	Metadata     map[string]interface{}
	DisplayName  string
	IsPublic     bool
	KeepOriginal bool
}

// QualityCheck runs the read-only dry run (spec.md §4.6.1) against docID's
// current schema.
func (e *Engine) QualityCheck(ctx context.Context, docID string, proposed map[string]interface{}) (*qualitycheck.Result, error) {
	_, schema, err := e.loadDocAndSchema(ctx, docID)
	if err != nil {
		return nil, err
	}
	return qualitycheck.Check(ctx, e.Store, schema, proposed)
}

// Confirm runs the eight-step confirmation contract (spec.md §4.6.2) and
// returns the persisted document.
func (e *Engine) Confirm(ctx context.Context, in Input) (*graphmodel.Document, error) {
	if in.DisplayName != "" && len(strings.TrimSpace(in.DisplayName)) < 3 {
		return nil, fmt.Errorf("confirmation: display_name must be at least 3 characters")
	}

	doc, schema, err := e.loadDocAndSchema(ctx, in.DocID)
	if err != nil {
		return nil, err
	}
	if doc.Owner.ID != in.CallerID {
		return nil, fmt.Errorf("confirmation: %s is not the owner of document %s", in.CallerID, in.DocID)
	}

	storage := doc.Storage
	if in.KeepOriginal {
		if storage.PDFOriginalPath == "" {
			return nil, fmt.Errorf("confirmation: keep_original requested but no original was uploaded for document %s", in.DocID)
		}
		storage.PDFPath = storage.PDFOriginalPath
		storage.PrimarySource = graphmodel.PrimarySourceOriginal
		storage.PDFAConversionReq = true
		storage.PDFAConversionState = graphmodel.PDFAConversionPending
	} else {
		storage.PrimarySource = graphmodel.PrimarySourceOCRPDFA
	}

	storage, err = e.promoteArchive(ctx, doc, storage)
	if err != nil {
		return nil, err
	}

	resolved, err := e.ensureEntities(ctx, schema, in.Metadata)
	if err != nil {
		return nil, err
	}

	allowed := metadata.NewAllowedFields(schemaFieldKeys(schema))
	sanitized := metadata.Sanitize(resolved, allowed)

	integrity, err := e.buildManifest(ctx, in.DocID, in.CallerID, in.KeepOriginal, storage.PDFPath, sanitized)
	if err != nil {
		return nil, err
	}

	now := e.now()
	doc.ValidatedMetadata = sanitized
	doc.Status = graphmodel.DocumentStatusConfirmed
	doc.IntegrityWarnings = []string{}
	doc.ManuallyValidatedAt = &now
	doc.ConfirmedAt = &now
	doc.ConfirmedBy = in.CallerID
	doc.IsPublic = in.IsPublic
	doc.KeepOriginal = in.KeepOriginal
	doc.IsLocked = true
	doc.Storage = storage
	doc.Integrity = *integrity
	applyDisplayName(doc, in.DisplayName)

	if err := e.Store.UpsertVertex(ctx, documentsCollection, in.DocID, doc); err != nil {
		return nil, fmt.Errorf("confirmation: persisting document %s: %w", in.DocID, err)
	}

	if err := e.upsertSemanticReferences(ctx, doc); err != nil {
		return nil, fmt.Errorf("confirmation: upserting semantic references for document %s: %w", in.DocID, err)
	}

	return doc, nil
}

func (e *Engine) loadDocAndSchema(ctx context.Context, docID string) (*graphmodel.Document, *graphmodel.MetaSchema, error) {
	var doc graphmodel.Document
	if err := e.Store.GetVertex(ctx, documentsCollection, docID, &doc); err != nil {
		return nil, nil, fmt.Errorf("confirmation: loading document %s: %w", docID, err)
	}
	doc.Key = docID

	hits, err := e.Store.Traverse(ctx, documentsCollection+"/"+docID, 1, 1, graphstore.DirectionOutbound, []string{graphmodel.EdgeCollectionUsaEsquema})
	if err != nil {
		return nil, nil, fmt.Errorf("confirmation: resolving schema for document %s: %w", docID, err)
	}
	if len(hits) == 0 {
		return &doc, nil, nil
	}

	var schema graphmodel.MetaSchema
	if err := e.Store.GetVertex(ctx, metaSchemasCollection, hits[0].Key, &schema); err != nil {
		return nil, nil, fmt.Errorf("confirmation: loading schema %s: %w", hits[0].Key, err)
	}
	return &doc, &schema, nil
}

func schemaFieldKeys(schema *graphmodel.MetaSchema) []string {
	if schema == nil {
		return nil
	}
	keys := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		keys = append(keys, f.FieldKey)
	}
	return keys
}

// applyDisplayName implements step 7's conditional display_name update: the
// prior value moves into snap_context_name only the first time it changes,
// and naming.display_name mirrors whatever is adopted.
func applyDisplayName(doc *graphmodel.Document, proposed string) {
	proposed = strings.TrimSpace(proposed)
	if proposed == "" {
		return
	}
	current := doc.DisplayName
	if current == "" {
		current = doc.Naming.DisplayName
	}
	if proposed == current {
		return
	}
	if doc.SnapContextName == "" {
		doc.SnapContextName = current
	}
	doc.DisplayName = proposed
	doc.Naming.DisplayName = proposed
}

// upsertSemanticReferences implements step 8: a references edge from the
// document to every non-null metadata value carrying an id, skipping the
// entity already targeted by file_located_in.
func (e *Engine) upsertSemanticReferences(ctx context.Context, doc *graphmodel.Document) error {
	fileLocatedIn := e.fileLocatedInTarget(ctx, doc.Key)
	documentID := documentsCollection + "/" + doc.Key

	for _, value := range doc.ValidatedMetadata {
		var id string
		switch v := value.(type) {
		case metadata.EntityRef:
			id = v.ID
		case metadata.UserRef:
			id = v.ID
		default:
			continue
		}
		if id == "" || id == fileLocatedIn {
			continue
		}
		if _, err := e.Store.UpsertEdge(ctx, graphmodel.EdgeCollectionReferences, documentID, entitiesCollection+"/"+id); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) fileLocatedInTarget(ctx context.Context, docKey string) string {
	hits, err := e.Store.Traverse(ctx, documentsCollection+"/"+docKey, 1, 1, graphstore.DirectionOutbound, []string{graphmodel.EdgeCollectionFileLocatedIn})
	if err != nil || len(hits) == 0 {
		return ""
	}
	return hits[0].Key
}

// buildManifest implements step 6: hash the canonical sanitized metadata
// and the selected PDF's bytes, then sign the manifest with HMAC-SHA256.
func (e *Engine) buildManifest(ctx context.Context, docID, confirmedBy string, keepOriginal bool, pdfPath string, sanitized metadata.Map) (*graphmodel.Integrity, error) {
	metadataHash := sha256.Sum256(canonicalMetadataJSON(sanitized))

	reader, err := e.Objects.Stream(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("confirmation: streaming %s for hashing: %w", pdfPath, err)
	}
	defer reader.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, reader); err != nil {
		return nil, fmt.Errorf("confirmation: hashing %s: %w", pdfPath, err)
	}

	manifest := graphmodel.IntegrityManifest{
		DocID:           docID,
		ConfirmedBy:     confirmedBy,
		ConfirmedAt:     e.now().UTC(),
		KeepOriginal:    keepOriginal,
		SelectedPDFPath: pdfPath,
		Hashes: graphmodel.IntegrityHashes{
			ValidatedMetadataSHA256: hex.EncodeToString(metadataHash[:]),
			PDFSHA256:               hex.EncodeToString(hasher.Sum(nil)),
		},
		SignatureAlgorithm: "HMAC-SHA256",
	}

	mac := hmac.New(sha256.New, e.Secret)
	mac.Write(canonicalManifestJSON(manifest))

	return &graphmodel.Integrity{
		Manifest:          manifest,
		ManifestSignature: hex.EncodeToString(mac.Sum(nil)),
	}, nil
}
