package confirmation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/objectstore"
)

// promoteArchive implements step 3: when any storage path still points
// into stage-validate/ or stage/, copy each artifact into its archive slot
// and remove the staging source, at most once even when two logical paths
// shared the same staged object (e.g. keep_original reusing the uploaded
// original as both the principal and original archive copies).
func (e *Engine) promoteArchive(ctx context.Context, doc *graphmodel.Document, storage graphmodel.Storage) (graphmodel.Storage, error) {
	if !needsPromotion(storage) {
		return storage, nil
	}

	codeSlugs := slugPath(doc.Naming.CodePath)
	processSlug := contextSnapshotString(doc.ContextSnapshot, "schema_name")
	requiredDocSlug := doc.Naming.RequiredDocumentCode

	moves := []struct {
		field *string
		file  objectstore.ArchiveFile
	}{
		{&storage.PDFPath, objectstore.ArchiveFilePrincipalPDF},
		{&storage.PDFOriginalPath, objectstore.ArchiveFileOriginalPDF},
		{&storage.JSONPath, objectstore.ArchiveFileMetadataJSON},
		{&storage.TextPath, objectstore.ArchiveFileExtractedTXT},
	}

	staged := make(map[string]bool)
	for _, m := range moves {
		src := *m.field
		if src == "" || !isStaged(src) {
			continue
		}
		dst := objectstore.ArchivePath(codeSlugs, processSlug, requiredDocSlug, doc.Key, m.file)
		if err := e.Objects.Copy(ctx, src, dst); err != nil {
			return storage, fmt.Errorf("confirmation: archiving %s: %w", src, err)
		}
		*m.field = dst
		staged[src] = true
	}

	for src := range staged {
		if err := e.Objects.Remove(ctx, src); err != nil {
			e.Log.Error(err, "confirmation: removing staged object after archiving", "path", src)
		}
	}

	storage.StorageTier = graphmodel.StorageTierArchive
	return storage, nil
}

func needsPromotion(storage graphmodel.Storage) bool {
	return isStaged(storage.PDFPath) || isStaged(storage.PDFOriginalPath) ||
		isStaged(storage.JSONPath) || isStaged(storage.TextPath)
}

func isStaged(path string) bool {
	return strings.Contains(path, "stage-validate/") || strings.Contains(path, "stage/")
}

func slugPath(codePath string) []string {
	if codePath == "" {
		return nil
	}
	segments := strings.Split(codePath, " / ")
	slugs := make([]string, 0, len(segments))
	for _, s := range segments {
		slugs = append(slugs, objectstore.Slug(s))
	}
	return slugs
}

func contextSnapshotString(snapshot map[string]interface{}, key string) string {
	s, _ := snapshot[key].(string)
	return s
}
