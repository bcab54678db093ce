package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and local development. It
// honors the same created_at/updated_at and lazy-edge-collection contracts
// as the arango-backed adapter, using its own clock in place of the
// database's.
type MemoryStore struct {
	mu       sync.Mutex
	vertices map[string]map[string]map[string]interface{} // collection -> key -> doc
	edges    map[string]map[string]map[string]interface{} // collection -> key -> edge doc
	Clock    func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vertices: make(map[string]map[string]map[string]interface{}),
		edges:    make(map[string]map[string]map[string]interface{}),
		Clock:    time.Now,
	}
}

func (s *MemoryStore) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func toDoc(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemoryStore) GetVertex(ctx context.Context, collection, key string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.vertices[collection]
	if !ok {
		return &NotFoundError{Collection: collection, Key: key}
	}
	doc, ok := col[key]
	if !ok {
		return &NotFoundError{Collection: collection, Key: key}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *MemoryStore) HasVertex(ctx context.Context, collection, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vertices[collection][key]; ok {
		return true, nil
	}
	_, ok := s.edges[collection][key]
	return ok, nil
}

func (s *MemoryStore) InsertVertex(ctx context.Context, collection string, doc interface{}) (string, error) {
	d, err := toDoc(doc)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, _ := d["_key"].(string)
	if key == "" {
		key = fmt.Sprintf("mem-%d", len(s.vertices[collection])+1)
	}
	d["_key"] = key
	d["created_at"] = s.now()

	if s.vertices[collection] == nil {
		s.vertices[collection] = make(map[string]map[string]interface{})
	}
	s.vertices[collection][key] = d
	return key, nil
}

func (s *MemoryStore) UpsertVertex(ctx context.Context, collection, key string, doc interface{}) error {
	d, err := toDoc(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vertices[collection] == nil {
		s.vertices[collection] = make(map[string]map[string]interface{})
	}
	d["_key"] = key
	if existing, ok := s.vertices[collection][key]; ok {
		d["created_at"] = existing["created_at"]
		d["updated_at"] = s.now()
	} else {
		d["created_at"] = s.now()
	}
	s.vertices[collection][key] = d
	return nil
}

func (s *MemoryStore) UpsertEdge(ctx context.Context, collection, from, to string) (string, error) {
	key := edgeKeyFromIDs(from, to)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.edges[collection] == nil {
		s.edges[collection] = make(map[string]map[string]interface{})
	}
	doc := map[string]interface{}{"_key": key, "_from": from, "_to": to}
	if existing, ok := s.edges[collection][key]; ok {
		doc["created_at"] = existing["created_at"]
		doc["updated_at"] = s.now()
	} else {
		doc["created_at"] = s.now()
	}
	s.edges[collection][key] = doc
	return key, nil
}

func edgeKeyFromIDs(from, to string) string {
	return lastSegment(from) + "_" + lastSegment(to)
}

func (s *MemoryStore) Traverse(ctx context.Context, start string, depthMin, depthMax int, direction Direction, edgeLabels []string) ([]Vertex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	labels := make(map[string]bool, len(edgeLabels))
	for _, l := range edgeLabels {
		labels[l] = true
	}

	type frame struct {
		id    string
		depth int
	}
	visited := map[string]bool{start: true}
	queue := []frame{{id: start, depth: 0}}
	var results []Vertex

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		if f.depth >= depthMin && f.depth <= depthMax && f.depth > 0 {
			collection, key := splitID(f.id)
			if doc, ok := s.vertices[collection][key]; ok {
				results = append(results, Vertex{Collection: collection, Key: key, Doc: doc})
			}
		}
		if f.depth >= depthMax {
			continue
		}

		for edgeCol, edges := range s.edges {
			if len(labels) > 0 && !labels[edgeCol] {
				continue
			}
			for _, e := range edges {
				from, _ := e["_from"].(string)
				to, _ := e["_to"].(string)
				var next string
				switch direction {
				case DirectionOutbound:
					if from == f.id {
						next = to
					}
				case DirectionInbound:
					if to == f.id {
						next = from
					}
				case DirectionAny:
					if from == f.id {
						next = to
					} else if to == f.id {
						next = from
					}
				}
				if next != "" && !visited[next] {
					visited[next] = true
					queue = append(queue, frame{id: next, depth: f.depth + 1})
				}
			}
		}
	}
	return results, nil
}

func (s *MemoryStore) FindOneCI(ctx context.Context, collection, field, value string) (Vertex, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.vertices[collection]
	if !ok {
		return Vertex{}, false, nil
	}
	needle := strings.ToLower(value)
	for key, doc := range col {
		raw, ok := doc[field]
		if !ok {
			continue
		}
		str := fmt.Sprintf("%v", raw)
		if strings.ToLower(str) == needle {
			return Vertex{Collection: collection, Key: key, Doc: doc}, true, nil
		}
	}
	return Vertex{}, false, nil
}

func (s *MemoryStore) FindOneByFields(ctx context.Context, collection string, fields map[string]string) (Vertex, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.vertices[collection]
	if !ok {
		return Vertex{}, false, nil
	}

keys:
	for key, doc := range col {
		for field, value := range fields {
			raw, ok := doc[field]
			if !ok || !strings.EqualFold(fmt.Sprintf("%v", raw), value) {
				continue keys
			}
		}
		return Vertex{Collection: collection, Key: key, Doc: doc}, true, nil
	}
	return Vertex{}, false, nil
}

func (s *MemoryStore) FindDocumentByStoragePath(ctx context.Context, candidates []string) (Vertex, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		want[c] = true
	}

	col, ok := s.vertices[documentsCollectionName]
	if !ok {
		return Vertex{}, false, nil
	}
	for key, doc := range col {
		storage, _ := doc["storage"].(map[string]interface{})
		for _, field := range []string{"pdf_path", "pdf_original_path", "json_path", "text_path"} {
			path, _ := storage[field].(string)
			if path != "" && want[path] {
				return Vertex{Collection: documentsCollectionName, Key: key, Doc: doc}, true, nil
			}
		}
	}
	return Vertex{}, false, nil
}

const documentsCollectionName = "documents"

// Query is unsupported on MemoryStore: the composed search filter is raw
// AQL text meant for the arango-backed adapter. Callers that need to unit
// test query composition exercise the builder directly rather than
// executing its output against an in-memory interpreter.
func (s *MemoryStore) Query(ctx context.Context, aql string, bindVars map[string]interface{}) ([]Vertex, error) {
	return nil, fmt.Errorf("graphstore: MemoryStore does not execute raw AQL; use the arango-backed Store")
}

func (s *MemoryStore) Count(ctx context.Context, aql string, bindVars map[string]interface{}) (int, error) {
	return 0, fmt.Errorf("graphstore: MemoryStore does not execute raw AQL; use the arango-backed Store")
}

func splitID(id string) (collection, key string) {
	if i := strings.Index(id, "/"); i >= 0 {
		return id[:i], id[i+1:]
	}
	return "", id
}

// SearchView runs a naive case-insensitive substring match over each
// document's "search_text" field, ranking by occurrence count as a stand-in
// for BM25.
func (s *MemoryStore) SearchView(ctx context.Context, viewName, query string, limit int) ([]SearchHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(query)
	var hits []SearchHit
	for _, col := range s.vertices {
		for key, doc := range col {
			text, _ := doc["search_text"].(string)
			text = strings.ToLower(text)
			if needle == "" || !strings.Contains(text, needle) {
				continue
			}
			score := float64(strings.Count(text, needle))
			hits = append(hits, SearchHit{Key: key, Score: score, Doc: doc})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
