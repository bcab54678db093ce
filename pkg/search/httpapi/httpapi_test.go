package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/audit"
	"github.com/Jistoria/document-service/pkg/confirmation"
	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/identity"
	"github.com/Jistoria/document-service/pkg/identity/directory"
	"github.com/Jistoria/document-service/pkg/objectstore"
	"github.com/Jistoria/document-service/pkg/search/abac"
	"github.com/Jistoria/document-service/pkg/search/authctx"
	"github.com/Jistoria/document-service/pkg/search/download"
)

type fakeSessionCache struct{}

func (fakeSessionCache) Probe(ctx context.Context, keys []string) ([]byte, bool, error) {
	return nil, false, nil
}

type fakeVerifier struct{ userID string }

func (f fakeVerifier) Verify(ctx context.Context, rawToken string) (map[string]interface{}, error) {
	return map[string]interface{}{"oid": f.userID}, nil
}

type fakePermissionsKV struct {
	members map[string]map[string]bool
}

func (f fakePermissionsKV) IsMember(ctx context.Context, key, permission string) (bool, error) {
	return f.members[key][permission], nil
}

type fakeDirectory struct{}

func (fakeDirectory) ExactLookup(ctx context.Context, email, guidMS string) (directory.Candidate, bool, error) {
	return directory.Candidate{}, false, nil
}
func (fakeDirectory) PrefixSearch(ctx context.Context, prefix string) ([]directory.Candidate, error) {
	return nil, nil
}

// fakeListStore embeds a real MemoryStore for every vertex/edge operation
// and answers Query/Count with a plain Go scan over docs, standing in for
// the arango-backed Store's raw-AQL execution (which MemoryStore
// deliberately doesn't implement) in tests that exercise the list endpoint.
type fakeListStore struct {
	*graphstore.MemoryStore
	docs []graphmodel.Document
}

func (s *fakeListStore) Query(ctx context.Context, aql string, bind map[string]interface{}) ([]graphstore.Vertex, error) {
	filtered := s.filterDocs(bind)
	limit, _ := bind["limit"].(int)
	offset, _ := bind["offset"].(int)
	if offset > len(filtered) {
		offset = len(filtered)
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	out := make([]graphstore.Vertex, 0, end-offset)
	for _, d := range filtered[offset:end] {
		data, _ := json.Marshal(d)
		var m map[string]interface{}
		_ = json.Unmarshal(data, &m)
		out = append(out, graphstore.Vertex{Collection: "documents", Key: d.Key, Doc: m})
	}
	return out, nil
}

func (s *fakeListStore) Count(ctx context.Context, aql string, bind map[string]interface{}) (int, error) {
	return len(s.filterDocs(bind)), nil
}

func (s *fakeListStore) filterDocs(bind map[string]interface{}) []graphmodel.Document {
	status, hasStatus := bind["status"].(string)
	var out []graphmodel.Document
	for _, d := range s.docs {
		if hasStatus && d.Status != status {
			continue
		}
		out = append(out, d)
	}
	return out
}

func buildServer(t *testing.T, store graphstore.Store, kv fakePermissionsKV) *Server {
	t.Helper()
	objects := objectstore.NewMemoryStore("documents")
	resolver := identity.NewResolver(store, fakeDirectory{}, logr.Discard())
	engine := confirmation.NewEngine(store, objects, resolver, []byte("test-secret"), logr.Discard())
	engine.Now = func() time.Time { return time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC) }

	proxy := &download.Proxy{
		Store:   store,
		Objects: objects,
		Audit:   audit.NewQueue(noopSink{}, 4, logr.Discard(), nil),
		Bucket:  "documents",
		Now:     func() time.Time { return time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC) },
	}

	policy, err := abac.NewPolicyEngine(context.Background())
	if err != nil {
		t.Fatalf("abac.NewPolicyEngine() error = %v", err)
	}

	return &Server{
		Store:    store,
		Confirm:  engine,
		Download: proxy,
		Policy:   policy,
		AuthDeps: authctx.Dependencies{
			Sessions:       fakeSessionCache{},
			Verifier:       fakeVerifier{userID: "reader1"},
			Store:          store,
			MicroserviceID: "dms",
			Log:            logr.Discard(),
		},
		Permissions: kv,
		Tenant:      "tenant-a",
		Log:         logr.Discard(),
	}
}

type noopSink struct{}

func (noopSink) Append(ctx context.Context, r audit.Record) error { return nil }

func TestListDocuments_WildcardReadScopeSeesAll(t *testing.T) {
	mem := graphstore.NewMemoryStore()
	doc := graphmodel.Document{Key: "d1", Status: graphmodel.DocumentStatusValidated, Owner: graphmodel.Owner{ID: "owner1"}}
	store := &fakeListStore{MemoryStore: mem, docs: []graphmodel.Document{doc}}

	kv := fakePermissionsKV{members: map[string]map[string]bool{
		"perm:tenant-a:dms:reader1": {"document.read": true},
	}}
	server := buildServer(t, store, kv)

	req := httptest.NewRequest(http.MethodGet, "/documents?status=validated", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !resp.Success || *resp.Data.Count != 1 {
		t.Errorf("response = %+v, want one document", resp)
	}
}

func TestListDocuments_SensitiveStatusWithNoWorkflowScopesIsForbidden(t *testing.T) {
	store := graphstore.NewMemoryStore()
	kv := fakePermissionsKV{members: map[string]map[string]bool{}}
	server := buildServer(t, store, kv)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil) // defaults to attention_required
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body = %s", rec.Code, rec.Body.String())
	}
}

func TestListDocuments_MissingBearerTokenIsUnauthorized(t *testing.T) {
	store := graphstore.NewMemoryStore()
	server := buildServer(t, store, fakePermissionsKV{})

	req := httptest.NewRequest(http.MethodGet, "/documents?status=validated", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGetDocument_JoinsContextEntityAndSchema(t *testing.T) {
	store := graphstore.NewMemoryStore()
	ctx := context.Background()
	store.UpsertVertex(ctx, "documents", "d1", graphmodel.Document{Key: "d1"})
	store.UpsertVertex(ctx, "entities", "e1", graphmodel.Entity{Key: "e1", Name: "Systems"})
	store.UpsertEdge(ctx, graphmodel.EdgeCollectionFileLocatedIn, "documents/d1", "entities/e1")

	server := buildServer(t, store, fakePermissionsKV{})

	req := httptest.NewRequest(http.MethodGet, "/documents/d1", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("context_entity")) {
		t.Errorf("response missing context_entity: %s", rec.Body.String())
	}
}

func TestGetDocument_UnknownIDIsNotFound(t *testing.T) {
	store := graphstore.NewMemoryStore()
	server := buildServer(t, store, fakePermissionsKV{})

	req := httptest.NewRequest(http.MethodGet, "/documents/nope", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestConfirm_NonOwnerIsForbidden(t *testing.T) {
	store := graphstore.NewMemoryStore()
	ctx := context.Background()
	store.UpsertVertex(ctx, "documents", "d1", graphmodel.Document{
		Key: "d1", Owner: graphmodel.Owner{ID: "someone-else"},
	})

	server := buildServer(t, store, fakePermissionsKV{})

	body, _ := json.Marshal(confirmRequest{Metadata: map[string]interface{}{}})
	req := httptest.NewRequest(http.MethodPatch, "/documents/d1/metadata/confirm", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body = %s", rec.Code, rec.Body.String())
	}
}

func TestStorageProxy_UnknownObjectPathIsNotFound(t *testing.T) {
	store := graphstore.NewMemoryStore()
	kv := fakePermissionsKV{members: map[string]map[string]bool{
		"perm:tenant-a:dms:reader1": {"document.read": true},
	}}
	server := buildServer(t, store, kv)

	req := httptest.NewRequest(http.MethodGet, "/storage/proxy/nope.pdf", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", rec.Code, rec.Body.String())
	}
}
