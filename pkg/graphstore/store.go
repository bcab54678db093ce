// Package graphstore adapts the ArangoDB-backed labeled property graph
// (spec.md §3, §4.1) behind a narrow interface: vertex get/has/insert/upsert,
// edge upsert, traversal, and a search-view query helper.
package graphstore

import (
	"context"
	"encoding/json"
	"time"
)

// Direction constrains traversal to outbound, inbound, or both edge
// directions relative to the start vertex.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
	DirectionAny      Direction = "any"
)

// Vertex is a generic graph document: the caller's concrete type (Entity,
// Document, DMSUser, ...) decoded from the collection-qualified document.
type Vertex struct {
	Collection string
	Key        string
	Doc        map[string]interface{}
}

// SearchHit is one row from a BM25-ranked ArangoSearch view query.
type SearchHit struct {
	Key   string
	Score float64
	Doc   map[string]interface{}
}

// Store is the graph store adapter's full surface. Every method that writes
// a vertex stamps created_at on insert and updated_at on update using the
// database's own clock, never the application's.
type Store interface {
	// GetVertex decodes the document at collection/key into out. Returns
	// ErrNotFound if the vertex doesn't exist.
	GetVertex(ctx context.Context, collection, key string, out interface{}) error

	// HasVertex reports whether collection/key exists without decoding it.
	HasVertex(ctx context.Context, collection, key string) (bool, error)

	// InsertVertex creates a new document in collection and returns its key.
	// doc must not carry a _key the caller expects preserved unless the
	// collection assigns keys deterministically upstream.
	InsertVertex(ctx context.Context, collection string, doc interface{}) (key string, err error)

	// UpsertVertex creates collection/key if absent, otherwise replaces it.
	UpsertVertex(ctx context.Context, collection, key string, doc interface{}) error

	// UpsertEdge creates or replaces the edge keyed by EdgeKey(from, to) in
	// collection, lazily creating the edge collection on first write.
	UpsertEdge(ctx context.Context, collection, from, to string) (key string, err error)

	// Traverse walks the graph from start between depthMin and depthMax hops
	// along direction, restricted to edgeLabels (collection names). Results
	// are ordered nearest hop first; with depthMin 1 that is [parent,
	// grandparent, ...], without the start vertex. Callers that want
	// root-to-leaf order (the naming builder) prepend the start vertex and
	// reverse the list themselves.
	Traverse(ctx context.Context, start string, depthMin, depthMax int, direction Direction, edgeLabels []string) ([]Vertex, error)

	// SearchView runs a BM25-ranked query against an ArangoSearch view,
	// returning up to limit hits ordered by descending score.
	SearchView(ctx context.Context, viewName, query string, limit int) ([]SearchHit, error)

	// FindOneCI performs a case-insensitive exact match of field == value
	// within collection, used for lookups like dms_users by email or
	// guid_ms (spec.md §4.3: "by lower(email) == lower(input)"). Returns
	// ok=false if no document matches.
	FindOneCI(ctx context.Context, collection, field, value string) (doc Vertex, ok bool, err error)

	// FindOneByFields performs a case-insensitive exact match across every
	// field/value pair in fields (conjunctive AND), used for composite
	// lookups like an entity's type + code (spec.md §4.7.3: resolving a
	// team code's entity within a specific entity type). Returns
	// ok=false if no document matches every field.
	FindOneByFields(ctx context.Context, collection string, fields map[string]string) (doc Vertex, ok bool, err error)

	// Query runs a caller-composed AQL statement (the document search
	// filter builder, §4.7.5) and decodes each result row as a Vertex.
	Query(ctx context.Context, aql string, bindVars map[string]interface{}) ([]Vertex, error)

	// Count runs a caller-composed AQL statement expected to return a
	// single integer (a COLLECT WITH COUNT total), used for pagination.
	Count(ctx context.Context, aql string, bindVars map[string]interface{}) (int, error)

	// FindDocumentByStoragePath resolves the documents/ vertex whose
	// storage.pdf_path, pdf_original_path, json_path, or text_path equals
	// any of candidates — typically both the bare object path and its
	// bucket-prefixed form (spec.md §4.7.6 step 1).
	FindDocumentByStoragePath(ctx context.Context, candidates []string) (doc Vertex, ok bool, err error)
}

// DecodeVertex decodes v.Doc into out, used by callers that obtained a
// Vertex from Traverse, SearchView, or a FindOne* lookup and need it as a
// concrete type rather than a generic map.
func DecodeVertex(v Vertex, out interface{}) error {
	data, err := json.Marshal(v.Doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// ErrNotFound is returned by GetVertex when the document doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError signals a missing vertex. Collection/Key are populated by
// the adapter that raised it.
type NotFoundError struct {
	Collection string
	Key        string
}

func (e *NotFoundError) Error() string {
	if e.Collection == "" && e.Key == "" {
		return "graphstore: document not found"
	}
	return "graphstore: document not found: " + e.Collection + "/" + e.Key
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// timestamps is the created_at/updated_at pair in typed form. No adapter
// embeds it: both adapters write these fields straight into the stored
// document.
type timestamps struct {
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
