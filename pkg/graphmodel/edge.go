package graphmodel

import "time"

// Edge collection names (spec.md §3.3). Every edge is directed and keyed
// deterministically so replayed upserts stay idempotent.
const (
	EdgeCollectionBelongsTo         = "belongs_to"
	EdgeCollectionCatalogBelongsTo  = "catalog_belongs_to"
	EdgeCollectionFileLocatedIn     = "file_located_in"
	EdgeCollectionUsaEsquema        = "usa_esquema"
	EdgeCollectionCompliesWith      = "complies_with"
	EdgeCollectionReferences        = "references"
)

// Edge is the common shape of every directed edge in the graph. Key is
// always from_key + "_" + to_key so an upsert replay is a no-op.
type Edge struct {
	Key       string    `json:"_key"`
	From      string    `json:"_from"`
	To        string    `json:"_to"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EdgeKey builds the deterministic key for an edge from fromKey to toKey.
func EdgeKey(fromKey, toKey string) string {
	return fromKey + "_" + toKey
}
