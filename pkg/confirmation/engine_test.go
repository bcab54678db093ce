package confirmation

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/identity"
	"github.com/Jistoria/document-service/pkg/identity/directory"
	"github.com/Jistoria/document-service/pkg/objectstore"
)

type noDirectory struct{}

func (noDirectory) ExactLookup(ctx context.Context, email, guidMS string) (directory.Candidate, bool, error) {
	return directory.Candidate{}, false, nil
}
func (noDirectory) PrefixSearch(ctx context.Context, prefix string) ([]directory.Candidate, error) {
	return nil, nil
}

func buildEngine(t *testing.T, store graphstore.Store, objects objectstore.Store) *Engine {
	t.Helper()
	resolver := identity.NewResolver(store, noDirectory{}, logr.Discard())
	return &Engine{
		Store:    store,
		Objects:  objects,
		Resolver: resolver,
		Secret:   []byte("test-secret"),
		Log:      logr.Discard(),
		Now:      func() time.Time { return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC) },
	}
}

func seedDocument(t *testing.T, store graphstore.Store, objects objectstore.Store, pdfPath string) {
	t.Helper()
	ctx := context.Background()

	store.UpsertVertex(ctx, "entities", "career1", map[string]interface{}{"name": "Systems Engineering"})
	store.UpsertVertex(ctx, "meta_schemas", "schema1", graphmodel.MetaSchema{
		Key: "schema1",
		Fields: []graphmodel.SchemaField{
			{FieldKey: "career", DataType: graphmodel.FieldDataTypeJSON, EntityType: graphmodel.EntityTypeKeyCareer, IsRequired: true},
			{FieldKey: "notes", DataType: graphmodel.FieldDataTypeString},
		},
	})

	doc := graphmodel.Document{
		Owner:  graphmodel.Owner{ID: "u1", Name: "Jane Doe"},
		Status: graphmodel.DocumentStatusValidated,
		Naming: graphmodel.Naming{
			CodePath:    "FCVT / ISW",
			DisplayName: "ISW - 20260101_000000",
		},
		Storage: graphmodel.Storage{PDFPath: pdfPath},
	}
	store.UpsertVertex(ctx, "documents", "t1", doc)
	store.UpsertEdge(ctx, graphmodel.EdgeCollectionUsaEsquema, "documents/t1", "meta_schemas/schema1")
	store.UpsertEdge(ctx, graphmodel.EdgeCollectionFileLocatedIn, "documents/t1", "entities/career1")
}

func TestConfirm_HappyPath(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemoryStore()
	objects := objectstore.NewMemoryStore("documents")

	pdfPath, _ := objects.Upload(ctx, []byte("%PDF-1.4 fake"), "stage-validate/u1/t1/pdf_document.pdf", "application/pdf")
	seedDocument(t, store, objects, pdfPath)

	e := buildEngine(t, store, objects)
	doc, err := e.Confirm(ctx, Input{
		DocID:    "t1",
		CallerID: "u1",
		Metadata: map[string]interface{}{
			"career": map[string]interface{}{"id": "career1", "name": "Systems Engineering"},
			"notes":  "looks good",
		},
	})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if doc.Status != graphmodel.DocumentStatusConfirmed {
		t.Errorf("Status = %q, want confirmed", doc.Status)
	}
	if !doc.IsLocked {
		t.Error("Confirm() should lock the document")
	}
	if doc.Storage.StorageTier != graphmodel.StorageTierArchive {
		t.Errorf("StorageTier = %q, want archive", doc.Storage.StorageTier)
	}
	if doc.Integrity.ManifestSignature == "" {
		t.Error("Confirm() should populate a manifest signature")
	}

	if _, err := objects.Stream(ctx, pdfPath); err == nil {
		t.Error("Confirm() should have removed the staging copy after archiving")
	}
	if _, err := objects.Stream(ctx, doc.Storage.PDFPath); err != nil {
		t.Errorf("Confirm() should leave a readable archive copy: %v", err)
	}
}

func TestConfirm_RejectsNonOwner(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemoryStore()
	objects := objectstore.NewMemoryStore("documents")
	pdfPath, _ := objects.Upload(ctx, []byte("pdf"), "stage-validate/u1/t1/pdf_document.pdf", "application/pdf")
	seedDocument(t, store, objects, pdfPath)

	e := buildEngine(t, store, objects)
	_, err := e.Confirm(ctx, Input{DocID: "t1", CallerID: "someone-else", Metadata: map[string]interface{}{}})
	if err == nil {
		t.Fatal("Confirm() should reject a caller who is not the owner")
	}
}

func TestConfirm_RejectsUnknownStructuralEntity(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemoryStore()
	objects := objectstore.NewMemoryStore("documents")
	pdfPath, _ := objects.Upload(ctx, []byte("pdf"), "stage-validate/u1/t1/pdf_document.pdf", "application/pdf")
	seedDocument(t, store, objects, pdfPath)

	e := buildEngine(t, store, objects)
	_, err := e.Confirm(ctx, Input{
		DocID:    "t1",
		CallerID: "u1",
		Metadata: map[string]interface{}{"career": map[string]interface{}{"id": "ghost-career"}},
	})
	if err == nil {
		t.Fatal("Confirm() should reject a structural entity reference that does not exist")
	}
}

func TestConfirm_RejectsKeepOriginalWithoutOriginal(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemoryStore()
	objects := objectstore.NewMemoryStore("documents")
	pdfPath, _ := objects.Upload(ctx, []byte("pdf"), "stage-validate/u1/t1/pdf_document.pdf", "application/pdf")
	seedDocument(t, store, objects, pdfPath)

	e := buildEngine(t, store, objects)
	_, err := e.Confirm(ctx, Input{
		DocID: "t1", CallerID: "u1", KeepOriginal: true,
		Metadata: map[string]interface{}{"career": map[string]interface{}{"id": "career1"}},
	})
	if err == nil {
		t.Fatal("Confirm() should reject keep_original when no original was uploaded")
	}
}

func TestConfirm_DisplayNameMovesCurrentIntoSnapContext(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemoryStore()
	objects := objectstore.NewMemoryStore("documents")
	pdfPath, _ := objects.Upload(ctx, []byte("pdf"), "stage-validate/u1/t1/pdf_document.pdf", "application/pdf")
	seedDocument(t, store, objects, pdfPath)

	e := buildEngine(t, store, objects)
	doc, err := e.Confirm(ctx, Input{
		DocID: "t1", CallerID: "u1", DisplayName: "My Custom Title",
		Metadata: map[string]interface{}{"career": map[string]interface{}{"id": "career1"}},
	})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if doc.DisplayName != "My Custom Title" || doc.Naming.DisplayName != "My Custom Title" {
		t.Errorf("DisplayName = %q, Naming.DisplayName = %q", doc.DisplayName, doc.Naming.DisplayName)
	}
	if doc.SnapContextName != "ISW - 20260101_000000" {
		t.Errorf("SnapContextName = %q, want the prior display name", doc.SnapContextName)
	}
}

func TestVerify_RoundTripIsValid(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemoryStore()
	objects := objectstore.NewMemoryStore("documents")
	pdfPath, _ := objects.Upload(ctx, []byte("pdf"), "stage-validate/u1/t1/pdf_document.pdf", "application/pdf")
	seedDocument(t, store, objects, pdfPath)

	e := buildEngine(t, store, objects)
	if _, err := e.Confirm(ctx, Input{
		DocID: "t1", CallerID: "u1",
		Metadata: map[string]interface{}{"career": map[string]interface{}{"id": "career1"}},
	}); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	result, err := e.Verify(ctx, "t1", "u1")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !result.IsValid {
		t.Errorf("Verify() = %+v, want all valid", result)
	}
}

func TestVerify_RejectsNonOwnerOnPrivateDocument(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemoryStore()
	objects := objectstore.NewMemoryStore("documents")
	pdfPath, _ := objects.Upload(ctx, []byte("pdf"), "stage-validate/u1/t1/pdf_document.pdf", "application/pdf")
	seedDocument(t, store, objects, pdfPath)

	e := buildEngine(t, store, objects)
	if _, err := e.Confirm(ctx, Input{
		DocID: "t1", CallerID: "u1",
		Metadata: map[string]interface{}{"career": map[string]interface{}{"id": "career1"}},
	}); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if _, err := e.Verify(ctx, "t1", "someone-else"); err == nil {
		t.Fatal("Verify() should reject a non-owner on a private document")
	}
}
