package identity

import (
	"context"
	"testing"

	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/identity/directory"
)

func discardLogger() logr.Logger { return logr.Discard() }

type fakeDirectory struct {
	exact      directory.Candidate
	exactOK    bool
	exactErr   error
	candidates []directory.Candidate
	searchErr  error
}

func (f *fakeDirectory) ExactLookup(ctx context.Context, email, guidMS string) (directory.Candidate, bool, error) {
	return f.exact, f.exactOK, f.exactErr
}

func (f *fakeDirectory) PrefixSearch(ctx context.Context, prefix string) ([]directory.Candidate, error) {
	return f.candidates, f.searchErr
}

func TestResolveUser_LocalHitByEmail(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.UpsertVertex(context.Background(), dmsUsersCollection, "u1", map[string]interface{}{
		"name": "Jane", "email": "Jane.Doe@example.edu",
	})
	r := NewResolver(store, &fakeDirectory{}, discardLogger())

	user, err := r.ResolveUser(context.Background(), "", "jane.doe@example.edu", "")
	if err != nil {
		t.Fatalf("ResolveUser() error = %v", err)
	}
	if user == nil || user.Key != "u1" {
		t.Fatalf("ResolveUser() = %+v, want u1", user)
	}
}

func TestResolveUser_DirectoryExactLookupUpserts(t *testing.T) {
	store := graphstore.NewMemoryStore()
	dir := &fakeDirectory{
		exact:   directory.Candidate{GUIDMS: "GUID-123", DisplayName: "Jane Doe", Mail: "jane@example.edu"},
		exactOK: true,
	}
	r := NewResolver(store, dir, discardLogger())

	user, err := r.ResolveUser(context.Background(), "", "jane@example.edu", "")
	if err != nil {
		t.Fatalf("ResolveUser() error = %v", err)
	}
	if user == nil || user.Key != "guid123" {
		t.Fatalf("ResolveUser() = %+v, want key guid123", user)
	}

	ok, _ := store.HasVertex(context.Background(), dmsUsersCollection, "guid123")
	if !ok {
		t.Error("ResolveUser() should upsert the directory candidate")
	}
}

func TestResolveUser_NameOnly_AcceptsAboveThreshold(t *testing.T) {
	store := graphstore.NewMemoryStore()
	dir := &fakeDirectory{
		candidates: []directory.Candidate{
			{GUIDMS: "G1", DisplayName: "Jane Doe", Mail: "jane@example.edu"},
		},
	}
	r := NewResolver(store, dir, discardLogger())

	user, err := r.ResolveUser(context.Background(), "Jane Doe", "", "")
	if err != nil {
		t.Fatalf("ResolveUser() error = %v", err)
	}
	if user == nil {
		t.Fatal("ResolveUser() should accept an exact display-name match")
	}
}

func TestResolveUser_NameOnly_RejectsBelowThreshold(t *testing.T) {
	store := graphstore.NewMemoryStore()
	dir := &fakeDirectory{
		candidates: []directory.Candidate{
			{GUIDMS: "G1", DisplayName: "Someone Else Entirely", Mail: "other@example.edu"},
		},
	}
	r := NewResolver(store, dir, discardLogger())

	user, err := r.ResolveUser(context.Background(), "Jane Doe", "", "")
	if err != nil {
		t.Fatalf("ResolveUser() error = %v", err)
	}
	if user != nil {
		t.Errorf("ResolveUser() = %+v, want nil below threshold", user)
	}
}

func TestResolveUser_NoHints_ReturnsNil(t *testing.T) {
	store := graphstore.NewMemoryStore()
	r := NewResolver(store, &fakeDirectory{}, discardLogger())

	user, err := r.ResolveUser(context.Background(), "", "", "")
	if err != nil || user != nil {
		t.Fatalf("ResolveUser() = %+v, %v, want nil, nil", user, err)
	}
}

func TestCreateUser(t *testing.T) {
	store := graphstore.NewMemoryStore()
	r := NewResolver(store, &fakeDirectory{}, discardLogger())

	key, err := r.CreateUser(context.Background(), "Jane Ann Doe", "jane@example.edu")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if key == "" {
		t.Fatal("CreateUser() should return a non-empty key")
	}

	var doc map[string]interface{}
	store.GetVertex(context.Background(), dmsUsersCollection, key, &doc)
	if doc["name"] != "Jane" || doc["last_name"] != "Ann Doe" {
		t.Errorf("CreateUser() doc = %+v", doc)
	}
	if doc["source"] != "manual_validation_creation" {
		t.Errorf("CreateUser() source = %v", doc["source"])
	}
}
