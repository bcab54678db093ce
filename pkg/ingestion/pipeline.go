package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/identity"
	"github.com/Jistoria/document-service/pkg/metadata"
	"github.com/Jistoria/document-service/pkg/metrics"
	"github.com/Jistoria/document-service/pkg/naming"
	"github.com/Jistoria/document-service/pkg/objectstore"
)

const (
	documentsCollection       = "documents"
	entitiesCollection        = "entities"
	metaSchemasCollection     = "meta_schemas"
	requiredDocumentsCollection = "required_documents"
)

// Pipeline wires the seven steps of spec.md §4.5 into one per-message
// entry point. A failure between Transfer and the document upsert leaves
// only staging objects behind, and Process returns the error without
// persisting a document; a failure while upserting the structural edges
// returns the error after the document vertex has been written.
type Pipeline struct {
	Store      graphstore.Store
	Objects    objectstore.Store
	HTTPClient *http.Client
	Resolver   *identity.Resolver
	Metrics    *metrics.Metrics
	Log        logr.Logger
	Now        func() time.Time
}

// NewPipeline builds a Pipeline with a real wall-clock Now.
func NewPipeline(store graphstore.Store, objects objectstore.Store, client *http.Client, resolver *identity.Resolver, m *metrics.Metrics, log logr.Logger) *Pipeline {
	return &Pipeline{
		Store: store, Objects: objects, HTTPClient: client, Resolver: resolver,
		Metrics: m, Log: log, Now: time.Now,
	}
}

// Process runs one message through parse -> transfer -> validate ->
// naming -> record build -> upsert -> structural edges. Callers (the Kafka
// consumer) log and swallow any error rather than let one bad message
// block the stream (spec.md §4.5 "Failure semantics").
func (p *Pipeline) Process(ctx context.Context, raw []byte) error {
	record, err := Parse(raw)
	if err != nil {
		p.recordStage("parse", "failure")
		return fmt.Errorf("ingestion: %w", err)
	}
	p.recordStage("parse", "success")

	transferResult := Transfer(ctx, p.HTTPClient, p.Objects, p.Log, record.UserSnapshot.ID, record.TaskID, record.PresignedURLs)
	p.recordStage("transfer", "success")

	schema, err := p.loadSchema(ctx, record.SchemaInfo.ID)
	if err != nil {
		p.recordStage("validate", "failure")
		return fmt.Errorf("ingestion: loading schema %s: %w", record.SchemaInfo.ID, err)
	}

	validation, err := ValidateFields(ctx, p.Store, p.Resolver, *schema, record.OCRItems)
	if err != nil {
		p.recordStage("validate", "failure")
		return fmt.Errorf("ingestion: task %s: %w", record.TaskID, err)
	}
	p.recordStage("validate", "success")

	status := DetermineStatus(validation)

	path, err := p.resolveEntityPath(ctx, record.ContextValues.ID)
	if err != nil {
		p.recordStage("naming", "failure")
		return fmt.Errorf("ingestion: resolving entity path for task %s: %w", record.TaskID, err)
	}
	var required *naming.RequiredDocument
	if record.RequiredDocument != nil {
		required = &naming.RequiredDocument{Code: record.RequiredDocument.Code, Name: record.RequiredDocument.Name}
	}
	names := naming.BuildNames(path, required, p.now())
	p.recordStage("naming", "success")

	doc := graphmodel.Document{
		Key:              record.TaskID,
		Owner:            graphmodel.Owner{ID: record.UserSnapshot.ID, Name: record.UserSnapshot.Name, Email: record.UserSnapshot.Email},
		Status:           status,
		OriginalFilename: record.Filename,
		DisplayName:      names.DisplayName,
		Naming:           *names,
		Storage: graphmodel.Storage{
			PDFPath:         transferResult["minio_pdfa"],
			PDFOriginalPath: transferResult["minio_original_pdf"],
			JSONPath:        transferResult["minio_validated"],
			TextPath:        transferResult["minio_text"],
			PrimarySource:   graphmodel.PrimarySourceOCRPDFA,
			StorageTier:     graphmodel.StorageTierStaging,
		},
		ValidatedMetadata: validation.Fields,
		IntegrityWarnings: validation.Warnings,
		ContextSnapshot:   contextSnapshot(record, schema),
	}

	if err := p.Store.UpsertVertex(ctx, documentsCollection, record.TaskID, doc); err != nil {
		p.recordStage("upsert", "failure")
		return fmt.Errorf("ingestion: upserting document %s: %w", record.TaskID, err)
	}
	p.recordStage("upsert", "success")

	if err := p.upsertStructuralEdges(ctx, record); err != nil {
		p.recordStage("edges", "failure")
		return fmt.Errorf("ingestion: upserting structural edges for task %s: %w", record.TaskID, err)
	}
	p.recordStage("edges", "success")

	return nil
}

// upsertStructuralEdges upserts, in order, usa_esquema, file_located_in,
// and complies_with (spec.md §4.5 step 8).
func (p *Pipeline) upsertStructuralEdges(ctx context.Context, record *ParsedRecord) error {
	documentID := documentsCollection + "/" + record.TaskID

	if record.SchemaInfo.ID != "" {
		if _, err := p.Store.UpsertEdge(ctx, graphmodel.EdgeCollectionUsaEsquema, documentID, metaSchemasCollection+"/"+record.SchemaInfo.ID); err != nil {
			return err
		}
	}
	if record.ContextValues.ID != "" {
		if _, err := p.Store.UpsertEdge(ctx, graphmodel.EdgeCollectionFileLocatedIn, documentID, entitiesCollection+"/"+record.ContextValues.ID); err != nil {
			return err
		}
	}
	if record.RequiredDocument != nil && record.RequiredDocument.ID != "" {
		if _, err := p.Store.UpsertEdge(ctx, graphmodel.EdgeCollectionCompliesWith, documentID, requiredDocumentsCollection+"/"+record.RequiredDocument.ID); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) loadSchema(ctx context.Context, schemaID string) (*graphmodel.MetaSchema, error) {
	var schema graphmodel.MetaSchema
	if err := p.Store.GetVertex(ctx, metaSchemasCollection, schemaID, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// resolveEntityPath walks belongs_to from entityID to the root and returns
// it root-to-leaf, ready for naming.BuildNames.
func (p *Pipeline) resolveEntityPath(ctx context.Context, entityID string) ([]naming.Node, error) {
	if entityID == "" {
		return nil, nil
	}

	var leaf graphmodel.Entity
	if err := p.Store.GetVertex(ctx, entitiesCollection, entityID, &leaf); err != nil {
		return nil, err
	}

	ancestors, err := p.Store.Traverse(ctx, entitiesCollection+"/"+entityID, 1, 20, graphstore.DirectionOutbound, []string{graphmodel.EdgeCollectionBelongsTo})
	if err != nil {
		return nil, err
	}

	path := make([]naming.Node, 0, len(ancestors)+1)
	path = append(path, naming.Node{Name: leaf.Name, Code: leaf.Code, CodeNumeric: leaf.CodeNumeric})
	for _, v := range ancestors {
		name, _ := v.Doc["name"].(string)
		code, _ := v.Doc["code"].(string)
		path = append(path, naming.Node{Name: name, Code: code, CodeNumeric: v.Doc["code_numeric"]})
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// DetermineStatus implements step 4: attention_required if any field is
// invalid or any warning was raised, otherwise validated.
func DetermineStatus(result *ValidationResult) string {
	if len(result.Warnings) > 0 {
		return graphmodel.DocumentStatusAttentionRequired
	}
	for _, v := range result.Fields {
		if p, ok := v.(metadata.Primitive); ok && !p.IsValid {
			return graphmodel.DocumentStatusAttentionRequired
		}
	}
	return graphmodel.DocumentStatusValidated
}

func contextSnapshot(record *ParsedRecord, schema *graphmodel.MetaSchema) map[string]interface{} {
	snapshot := map[string]interface{}{
		"entity_name": record.ContextValues.Name,
		"entity_type": record.ContextValues.Type,
		"schema_name": schema.Name,
		"schema_version": schema.Version,
	}
	if record.RequiredDocument != nil {
		snapshot["required_document_name"] = record.RequiredDocument.Name
		snapshot["required_document_code"] = record.RequiredDocument.Code
	}
	return snapshot
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) recordStage(stage, status string) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.IngestionTasksTotal.WithLabelValues(
		metrics.SanitizeStage(stage),
		metrics.SanitizeStatus(status),
	).Inc()
}
