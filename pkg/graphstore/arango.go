package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arangodb/go-driver"
	"github.com/go-logr/logr"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/resilience"
)

// arangoStore is the production Store backed by github.com/arangodb/go-driver.
// Writes go through AQL UPSERT/INSERT statements so created_at/updated_at are
// stamped by the database's own DATE_NOW(), never by application code.
type arangoStore struct {
	db      driver.Database
	log     logr.Logger
	breaker *resilience.Manager
}

// NewArangoStore wraps an already-connected database handle.
func NewArangoStore(db driver.Database, log logr.Logger, breaker *resilience.Manager) Store {
	return &arangoStore{db: db, log: log, breaker: breaker}
}

func (s *arangoStore) execute(ctx context.Context, name string, fn func() (interface{}, error)) (interface{}, error) {
	if s.breaker == nil {
		return fn()
	}
	return s.breaker.Execute(name, fn)
}

func (s *arangoStore) GetVertex(ctx context.Context, collection, key string, out interface{}) error {
	_, err := s.execute(ctx, "arango.read", func() (interface{}, error) {
		col, err := s.db.Collection(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", collection, err)
		}
		_, err = col.ReadDocument(ctx, key, out)
		if driver.IsNotFound(err) {
			return nil, &NotFoundError{Collection: collection, Key: key}
		}
		return nil, err
	})
	return err
}

func (s *arangoStore) HasVertex(ctx context.Context, collection, key string) (bool, error) {
	result, err := s.execute(ctx, "arango.read", func() (interface{}, error) {
		col, err := s.db.Collection(ctx, collection)
		if err != nil {
			return false, fmt.Errorf("collection %s: %w", collection, err)
		}
		return col.DocumentExists(ctx, key)
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (s *arangoStore) InsertVertex(ctx context.Context, collection string, doc interface{}) (string, error) {
	if err := validateIdentifier(collection); err != nil {
		return "", err
	}
	raw, err := toBindDoc(doc)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf(`
		INSERT MERGE(@doc, { created_at: DATE_ISO8601(DATE_NOW()) })
		IN @@collection
		RETURN NEW._key`)

	result, err := s.execute(ctx, "arango.write", func() (interface{}, error) {
		cursor, err := s.db.Query(ctx, query, map[string]interface{}{
			"@collection": collection,
			"doc":         raw,
		})
		if err != nil {
			return nil, err
		}
		defer cursor.Close()
		var key string
		_, err = cursor.ReadDocument(ctx, &key)
		return key, err
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (s *arangoStore) UpsertVertex(ctx context.Context, collection, key string, doc interface{}) error {
	if err := validateIdentifier(collection); err != nil {
		return err
	}
	raw, err := toBindDoc(doc)
	if err != nil {
		return err
	}

	query := `
		UPSERT { _key: @key }
		INSERT MERGE(@doc, { _key: @key, created_at: DATE_ISO8601(DATE_NOW()) })
		UPDATE MERGE(@doc, { updated_at: DATE_ISO8601(DATE_NOW()) })
		IN @@collection`

	_, err = s.execute(ctx, "arango.write", func() (interface{}, error) {
		cursor, err := s.db.Query(ctx, query, map[string]interface{}{
			"@collection": collection,
			"key":         key,
			"doc":         raw,
		})
		if err != nil {
			return nil, err
		}
		cursor.Close()
		return nil, nil
	})
	return err
}

func (s *arangoStore) UpsertEdge(ctx context.Context, collection, from, to string) (string, error) {
	if err := validateIdentifier(collection); err != nil {
		return "", err
	}
	if err := s.ensureEdgeCollection(ctx, collection); err != nil {
		return "", err
	}

	key := graphmodel.EdgeKey(lastSegment(from), lastSegment(to))
	query := `
		UPSERT { _key: @key }
		INSERT { _key: @key, _from: @from, _to: @to, created_at: DATE_ISO8601(DATE_NOW()) }
		UPDATE { updated_at: DATE_ISO8601(DATE_NOW()) }
		IN @@collection`

	_, err := s.execute(ctx, "arango.write", func() (interface{}, error) {
		cursor, err := s.db.Query(ctx, query, map[string]interface{}{
			"@collection": collection,
			"key":         key,
			"from":        from,
			"to":          to,
		})
		if err != nil {
			return nil, err
		}
		cursor.Close()
		return nil, nil
	})
	return key, err
}

// ensureEdgeCollection lazily creates collection as an edge collection if it
// doesn't already exist. It never drops an existing collection.
func (s *arangoStore) ensureEdgeCollection(ctx context.Context, collection string) error {
	exists, err := s.db.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("checking edge collection %s: %w", collection, err)
	}
	if exists {
		return nil
	}
	_, err = s.db.CreateCollection(ctx, collection, &driver.CreateCollectionOptions{
		Type: driver.CollectionTypeEdge,
	})
	if err != nil && !driver.IsConflict(err) {
		return fmt.Errorf("creating edge collection %s: %w", collection, err)
	}
	return nil
}

func (s *arangoStore) Traverse(ctx context.Context, start string, depthMin, depthMax int, direction Direction, edgeLabels []string) ([]Vertex, error) {
	dirWord, err := directionKeyword(direction)
	if err != nil {
		return nil, err
	}
	for _, label := range edgeLabels {
		if err := validateIdentifier(label); err != nil {
			return nil, err
		}
	}

	query := fmt.Sprintf(`
		FOR v IN @depthMin..@depthMax %s @start %s
			RETURN v`, dirWord, strings.Join(edgeLabels, ", "))

	result, err := s.execute(ctx, "arango.read", func() (interface{}, error) {
		cursor, err := s.db.Query(ctx, query, map[string]interface{}{
			"depthMin": depthMin,
			"depthMax": depthMax,
			"start":    start,
		})
		if err != nil {
			return nil, err
		}
		defer cursor.Close()

		var vertices []Vertex
		for {
			var doc map[string]interface{}
			meta, err := cursor.ReadDocument(ctx, &doc)
			if driver.IsNoMoreDocuments(err) {
				break
			}
			if err != nil {
				return nil, err
			}
			vertices = append(vertices, Vertex{
				Collection: meta.Collection,
				Key:        meta.Key,
				Doc:        doc,
			})
		}
		return vertices, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Vertex), nil
}

func (s *arangoStore) SearchView(ctx context.Context, viewName, query string, limit int) ([]SearchHit, error) {
	if err := validateIdentifier(viewName); err != nil {
		return nil, err
	}

	aql := `
		FOR doc IN @@view
			SEARCH ANALYZER(PHRASE(doc.search_text, @query, "text_en"), "text_en")
			SORT BM25(doc) DESC
			LIMIT @limit
			RETURN { key: doc._key, score: BM25(doc), doc: doc }`

	result, err := s.execute(ctx, "arango.search", func() (interface{}, error) {
		cursor, err := s.db.Query(ctx, aql, map[string]interface{}{
			"@view": viewName,
			"query": query,
			"limit": limit,
		})
		if err != nil {
			return nil, err
		}
		defer cursor.Close()

		var hits []SearchHit
		for {
			var row struct {
				Key   string                 `json:"key"`
				Score float64                `json:"score"`
				Doc   map[string]interface{} `json:"doc"`
			}
			_, err := cursor.ReadDocument(ctx, &row)
			if driver.IsNoMoreDocuments(err) {
				break
			}
			if err != nil {
				return nil, err
			}
			hits = append(hits, SearchHit{Key: row.Key, Score: row.Score, Doc: row.Doc})
		}
		return hits, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]SearchHit), nil
}

func (s *arangoStore) FindOneCI(ctx context.Context, collection, field, value string) (Vertex, bool, error) {
	if err := validateIdentifier(collection); err != nil {
		return Vertex{}, false, err
	}
	if err := validateIdentifier(field); err != nil {
		return Vertex{}, false, err
	}

	query := fmt.Sprintf(`
		FOR d IN @@collection
			FILTER LOWER(TO_STRING(d.%s)) == LOWER(@value)
			LIMIT 1
			RETURN d`, field)

	result, err := s.execute(ctx, "arango.read", func() (interface{}, error) {
		cursor, err := s.db.Query(ctx, query, map[string]interface{}{
			"@collection": collection,
			"value":       value,
		})
		if err != nil {
			return nil, err
		}
		defer cursor.Close()

		var doc map[string]interface{}
		meta, err := cursor.ReadDocument(ctx, &doc)
		if driver.IsNoMoreDocuments(err) {
			return Vertex{}, nil
		}
		if err != nil {
			return nil, err
		}
		return Vertex{Collection: meta.Collection, Key: meta.Key, Doc: doc}, nil
	})
	if err != nil {
		return Vertex{}, false, err
	}
	v := result.(Vertex)
	return v, v.Doc != nil, nil
}

func (s *arangoStore) FindOneByFields(ctx context.Context, collection string, fields map[string]string) (Vertex, bool, error) {
	if err := validateIdentifier(collection); err != nil {
		return Vertex{}, false, err
	}

	var filters []string
	bind := map[string]interface{}{"@collection": collection}
	i := 0
	for field, value := range fields {
		if err := validateIdentifier(field); err != nil {
			return Vertex{}, false, err
		}
		param := fmt.Sprintf("value%d", i)
		filters = append(filters, fmt.Sprintf("LOWER(TO_STRING(d.%s)) == LOWER(@%s)", field, param))
		bind[param] = value
		i++
	}

	query := fmt.Sprintf(`
		FOR d IN @@collection
			FILTER %s
			LIMIT 1
			RETURN d`, strings.Join(filters, " && "))

	result, err := s.execute(ctx, "arango.read", func() (interface{}, error) {
		cursor, err := s.db.Query(ctx, query, bind)
		if err != nil {
			return nil, err
		}
		defer cursor.Close()

		var doc map[string]interface{}
		meta, err := cursor.ReadDocument(ctx, &doc)
		if driver.IsNoMoreDocuments(err) {
			return Vertex{}, nil
		}
		if err != nil {
			return nil, err
		}
		return Vertex{Collection: meta.Collection, Key: meta.Key, Doc: doc}, nil
	})
	if err != nil {
		return Vertex{}, false, err
	}
	v := result.(Vertex)
	return v, v.Doc != nil, nil
}

func (s *arangoStore) Query(ctx context.Context, aql string, bindVars map[string]interface{}) ([]Vertex, error) {
	result, err := s.execute(ctx, "arango.read", func() (interface{}, error) {
		cursor, err := s.db.Query(ctx, aql, bindVars)
		if err != nil {
			return nil, err
		}
		defer cursor.Close()

		var vertices []Vertex
		for {
			var doc map[string]interface{}
			meta, err := cursor.ReadDocument(ctx, &doc)
			if driver.IsNoMoreDocuments(err) {
				break
			}
			if err != nil {
				return nil, err
			}
			vertices = append(vertices, Vertex{Collection: meta.Collection, Key: meta.Key, Doc: doc})
		}
		return vertices, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Vertex), nil
}

func (s *arangoStore) Count(ctx context.Context, aql string, bindVars map[string]interface{}) (int, error) {
	result, err := s.execute(ctx, "arango.read", func() (interface{}, error) {
		cursor, err := s.db.Query(ctx, aql, bindVars)
		if err != nil {
			return nil, err
		}
		defer cursor.Close()

		var total int
		if _, err := cursor.ReadDocument(ctx, &total); err != nil && !driver.IsNoMoreDocuments(err) {
			return nil, err
		}
		return total, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (s *arangoStore) FindDocumentByStoragePath(ctx context.Context, candidates []string) (Vertex, bool, error) {
	query := `
		FOR d IN documents
			FILTER d.storage.pdf_path IN @candidates
				OR d.storage.pdf_original_path IN @candidates
				OR d.storage.json_path IN @candidates
				OR d.storage.text_path IN @candidates
			LIMIT 1
			RETURN d`

	result, err := s.execute(ctx, "arango.read", func() (interface{}, error) {
		cursor, err := s.db.Query(ctx, query, map[string]interface{}{"candidates": candidates})
		if err != nil {
			return nil, err
		}
		defer cursor.Close()

		var doc map[string]interface{}
		meta, err := cursor.ReadDocument(ctx, &doc)
		if driver.IsNoMoreDocuments(err) {
			return Vertex{}, nil
		}
		if err != nil {
			return nil, err
		}
		return Vertex{Collection: meta.Collection, Key: meta.Key, Doc: doc}, nil
	})
	if err != nil {
		return Vertex{}, false, err
	}
	v := result.(Vertex)
	return v, v.Doc != nil, nil
}

func directionKeyword(d Direction) (string, error) {
	switch d {
	case DirectionOutbound:
		return "OUTBOUND", nil
	case DirectionInbound:
		return "INBOUND", nil
	case DirectionAny:
		return "ANY", nil
	default:
		return "", fmt.Errorf("graphstore: unknown direction %q", d)
	}
}

// validateIdentifier guards against AQL injection through collection/view
// names that must be string-formatted into the query rather than bound,
// since AQL doesn't allow binding collection identifiers in traversal or
// view clauses.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("graphstore: empty identifier")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return fmt.Errorf("graphstore: invalid identifier %q", name)
		}
	}
	return nil
}

func lastSegment(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

func toBindDoc(doc interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
