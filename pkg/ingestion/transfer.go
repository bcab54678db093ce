package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/objectstore"
)

// TransferResult maps each presigned-URL key to the storage path it landed
// at, or "" if that file's transfer failed.
type TransferResult map[string]string

// Transfer downloads each presigned URL and re-uploads it to
// stage-validate/<user_id>/<task_id>/<key>_document.<ext> (spec.md §4.5 step
// 2). A per-file failure is logged and recorded as "" for that key; it
// never aborts the transfer of the remaining files.
func Transfer(ctx context.Context, client *http.Client, store objectstore.Store, log logr.Logger, userID, taskID string, urls PresignedURLs) TransferResult {
	specs := []struct {
		key        string
		kind       objectstore.StageKind
		url        string
		defaultExt string
	}{
		{"minio_pdfa", objectstore.StageKindPDF, urls.MinioPDFA, "pdf"},
		{"minio_validated", objectstore.StageKindJSON, urls.MinioValidated, "json"},
		{"minio_text", objectstore.StageKindText, urls.MinioText, "txt"},
		{"minio_original_pdf", objectstore.StageKindPDFOriginalPath, urls.MinioOriginalPDF, "pdf"},
	}

	result := make(TransferResult, len(specs))
	for _, s := range specs {
		if s.url == "" {
			result[s.key] = ""
			continue
		}

		data, err := download(ctx, client, s.url)
		if err != nil {
			log.Error(err, "ingestion: transfer download failed", "task_id", taskID, "key", s.key)
			result[s.key] = ""
			continue
		}

		ext := extFromURL(s.url, s.defaultExt)
		path := objectstore.StageValidatePath(userID, taskID, s.kind, ext)
		storagePath, err := store.Upload(ctx, data, path, contentTypeFor(ext))
		if err != nil {
			log.Error(err, "ingestion: transfer upload failed", "task_id", taskID, "key", s.key)
			result[s.key] = ""
			continue
		}
		result[s.key] = storagePath
	}
	return result
}

func download(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ingestion: %s returned %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func extFromURL(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	ext := strings.TrimPrefix(filepath.Ext(u.Path), ".")
	if ext == "" {
		return fallback
	}
	return ext
}

func contentTypeFor(ext string) string {
	switch ext {
	case "pdf":
		return "application/pdf"
	case "json":
		return "application/json"
	case "txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
