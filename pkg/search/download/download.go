// Package download implements the storage-proxy authorization ladder and
// streaming of object-store artifacts (spec.md §4.7.6).
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"time"

	"github.com/Jistoria/document-service/pkg/audit"
	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/objectstore"
)

var (
	// ErrNotFound means no document references the requested object path.
	ErrNotFound = errors.New("download: object not found")
	// ErrForbidden means a document was found but the caller may not read it.
	ErrForbidden = errors.New("download: access denied")
)

// Request is one storage-proxy GET.
type Request struct {
	ObjectPath       string
	CallerID         string
	CallerEntityKeys []string // resolved via abac.ResolveEntityKeys
	HasWildcardRead  bool     // document.read scopes include "*"
	IPAddress        string
}

// Result is the streamed artifact plus what's needed to emit response
// headers.
type Result struct {
	Body        io.ReadCloser
	ContentType string
}

// Proxy resolves, authorizes, and streams storage-proxy downloads.
type Proxy struct {
	Store   graphstore.Store
	Objects objectstore.Store
	Audit   *audit.Queue
	Bucket  string
	Now     func() time.Time
}

// Fetch implements §4.7.6 steps 1-3. The audit append is enqueued
// fire-and-forget on a hit; it never delays the returned stream.
func (p *Proxy) Fetch(ctx context.Context, req Request) (*Result, error) {
	candidates := []string{req.ObjectPath, fmt.Sprintf("%s/%s", p.Bucket, req.ObjectPath)}

	v, ok, err := p.Store.FindDocumentByStoragePath(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("download: resolving object path: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	var doc graphmodel.Document
	if err := graphstore.DecodeVertex(v, &doc); err != nil {
		return nil, fmt.Errorf("download: decoding document: %w", err)
	}

	allowed, err := p.authorize(ctx, v, doc, req)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	reader, err := p.Objects.Stream(ctx, req.ObjectPath)
	if err != nil {
		return nil, fmt.Errorf("download: streaming %s: %w", req.ObjectPath, err)
	}

	if p.Audit != nil {
		p.Audit.Enqueue(audit.Record{
			DocumentID: doc.Key,
			UserID:     req.CallerID,
			IPAddress:  req.IPAddress,
			Timestamp:  p.now(),
		})
	}

	return &Result{Body: reader, ContentType: contentTypeFor(req.ObjectPath)}, nil
}

// authorize implements the ladder: public, owner, wildcard read scope, or a
// one-or-two-hop neighbor match against the caller's resolved entity keys.
func (p *Proxy) authorize(ctx context.Context, v graphstore.Vertex, doc graphmodel.Document, req Request) (bool, error) {
	if doc.IsPublic {
		return true, nil
	}
	if doc.Owner.ID == req.CallerID {
		return true, nil
	}
	if req.HasWildcardRead {
		return true, nil
	}
	if len(req.CallerEntityKeys) == 0 {
		return false, nil
	}

	start := fmt.Sprintf("%s/%s", v.Collection, v.Key)
	neighbors, err := p.Store.Traverse(ctx, start, 1, 2, graphstore.DirectionOutbound,
		[]string{"file_located_in", "belongs_to"})
	if err != nil {
		return false, fmt.Errorf("download: checking entity neighborhood: %w", err)
	}

	allowed := make(map[string]bool, len(req.CallerEntityKeys))
	for _, k := range req.CallerEntityKeys {
		allowed[k] = true
	}
	for _, n := range neighbors {
		if allowed[n.Key] {
			return true, nil
		}
	}
	return false, nil
}

func (p *Proxy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func contentTypeFor(path string) string {
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
