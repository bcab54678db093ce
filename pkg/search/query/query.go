// Package query builds the additive AQL filter used to list documents
// under ABAC-resolved visibility (spec.md §4.7.5), plus the pagination
// envelope returned alongside the results.
package query

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const documentsCollection = "documents"
const documentsSearchView = "documents_search_view"

// MetadataFilter is one entry of the metadata_filters query parameter: a
// scalar fuzzy-match value, or a {gte, lte} numeric range.
type MetadataFilter struct {
	Value      interface{}
	NumericGTE *float64
	NumericLTE *float64
}

// Filter is every optional search parameter the HTTP layer accepts, already
// decoded and ABAC-resolved.
type Filter struct {
	AllowedEntityKeys []string // empty + !Wildcard ⇒ caller has no visible entities
	Wildcard          bool     // caller's allowed teams include "*"

	Status              string
	OwnerID             string
	EntityID            string
	ProcessIDs          []string
	RequiredDocumentID  string
	ReferencedEntityID  string
	SchemaID            string
	DateFrom            *time.Time
	DateTo              *time.Time
	Search              string
	MetadataFilters     map[string]MetadataFilter
	FuzzinessOverride   *int

	Page  int
	Limit int
}

// Query is the composed pair of statements: Page returns the requested
// slice, Count returns the total matching row count for pagination.
type Query struct {
	Page     string
	Count    string
	BindVars map[string]interface{}
	Offset   int
	Limit    int
}

// Build composes Filter into AQL. An empty, non-wildcard AllowedEntityKeys
// with entity-scoped visibility required short-circuits to a query that can
// never match, implementing the fail-safe "empty page" rule of §4.7.3
// without needing a special case at every call site.
func Build(f Filter) Query {
	bind := make(map[string]interface{})
	var filters []string

	if !f.Wildcard {
		if len(f.AllowedEntityKeys) == 0 {
			filters = append(filters, "false")
		} else {
			bind["allowedEntityKeys"] = f.AllowedEntityKeys
			filters = append(filters, existsNeighbor("doc", 1, 2,
				[]string{"file_located_in", "belongs_to"}, "v._key IN @allowedEntityKeys"))
		}
	}

	if f.Status != "" {
		bind["status"] = f.Status
		filters = append(filters, "doc.status == @status")
	}
	if f.OwnerID != "" {
		bind["ownerId"] = f.OwnerID
		filters = append(filters, "doc.owner.id == @ownerId")
	}
	if f.EntityID != "" {
		bind["entityId"] = f.EntityID
		filters = append(filters, existsNeighbor("doc", 1, 5,
			[]string{"file_located_in", "belongs_to"}, "v._key == @entityId"))
	}
	if len(f.ProcessIDs) > 0 {
		bind["processIds"] = f.ProcessIDs
		filters = append(filters, existsNeighbor("doc", 1, 6,
			[]string{"complies_with", "catalog_belongs_to"}, "v._key IN @processIds"))
	}
	if f.RequiredDocumentID != "" {
		bind["requiredDocumentId"] = f.RequiredDocumentID
		filters = append(filters, existsNeighbor("doc", 1, 1, []string{"complies_with"}, "v._key == @requiredDocumentId"))
	}
	if f.ReferencedEntityID != "" {
		bind["referencedEntityId"] = f.ReferencedEntityID
		filters = append(filters, existsNeighbor("doc", 1, 1, []string{"references"}, "v._key == @referencedEntityId"))
	}
	if f.SchemaID != "" {
		bind["schemaId"] = f.SchemaID
		filters = append(filters, existsNeighbor("doc", 1, 1, []string{"usa_esquema"}, "v._key == @schemaId"))
	}
	if f.DateFrom != nil {
		bind["dateFrom"] = startOfDay(*f.DateFrom)
		filters = append(filters, "doc.created_at >= @dateFrom")
	}
	if f.DateTo != nil {
		bind["dateTo"] = endOfDay(*f.DateTo)
		filters = append(filters, "doc.created_at <= @dateTo")
	}

	filters = append(filters, metadataClauses(f.MetadataFilters, f.FuzzinessOverride, bind)...)

	forSource, searchClause := searchSource(f.Search, bind)
	if searchClause != "" {
		filters = append([]string{searchClause}, filters...)
	}

	where := "true"
	if len(filters) > 0 {
		where = strings.Join(filters, " AND ")
	}

	sortClause := "SORT doc.created_at DESC"
	if f.Search != "" {
		sortClause = "SORT BM25(doc) DESC, doc.created_at DESC"
	}

	page := clampInt(f.Page, 1, math.MaxInt32)
	limit := clampInt(f.Limit, 1, math.MaxInt32)
	offset := (page - 1) * limit
	bind["offset"] = offset
	bind["limit"] = limit

	pageQuery := fmt.Sprintf(`
		FOR doc IN %s
			FILTER %s
			%s
			LIMIT @offset, @limit
			RETURN doc`, forSource, where, sortClause)

	countQuery := fmt.Sprintf(`
		FOR doc IN %s
			FILTER %s
			COLLECT WITH COUNT INTO total
			RETURN total`, forSource, where)

	return Query{Page: pageQuery, Count: countQuery, BindVars: bind, Offset: offset, Limit: limit}
}

// existsNeighbor composes a subquery-existence clause matching §4.7.5's
// "ANY node in depthMin..depthMax OUTBOUND doc over {labels} has ..." rule.
func existsNeighbor(start string, depthMin, depthMax int, labels []string, condition string) string {
	return fmt.Sprintf(
		"LENGTH(FOR v IN %d..%d OUTBOUND %s %s FILTER %s LIMIT 1 RETURN 1) > 0",
		depthMin, depthMax, start, strings.Join(labels, ", "), condition)
}

func searchSource(search string, bind map[string]interface{}) (forSource, searchClause string) {
	if search == "" {
		return documentsCollection, ""
	}
	bind["searchText"] = search
	return documentsSearchView, `SEARCH ANALYZER(PHRASE(doc.naming.display_name, @searchText, "text_es"), "text_es") OR ` +
		`ANALYZER(PHRASE(doc.original_filename, @searchText, "text_es"), "text_es")`
}

// fuzzinessFor implements the length-tiered fuzziness default: 1 for values
// up to 6 characters, 2 up to 16, 3 otherwise.
func fuzzinessFor(value string) int {
	switch {
	case len(value) <= 6:
		return 1
	case len(value) <= 16:
		return 2
	default:
		return 3
	}
}

func metadataClauses(filters map[string]MetadataFilter, fuzzinessOverride *int, bind map[string]interface{}) []string {
	if len(filters) == 0 {
		return nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clauses []string
	for i, key := range keys {
		mf := filters[key]
		keyVar := fmt.Sprintf("metaKey%d", i)
		bind[keyVar] = key
		valueExpr := fmt.Sprintf(
			`NOT_NULL(doc.validated_metadata[@%s].value, doc.validated_metadata[@%s].display_name, doc.validated_metadata[@%s].name, doc.validated_metadata[@%s])`,
			keyVar, keyVar, keyVar, keyVar)

		if mf.NumericGTE != nil || mf.NumericLTE != nil {
			var bounds []string
			if mf.NumericGTE != nil {
				gteVar := fmt.Sprintf("metaGte%d", i)
				bind[gteVar] = *mf.NumericGTE
				bounds = append(bounds, fmt.Sprintf("TO_NUMBER(%s) >= @%s", valueExpr, gteVar))
			}
			if mf.NumericLTE != nil {
				lteVar := fmt.Sprintf("metaLte%d", i)
				bind[lteVar] = *mf.NumericLTE
				bounds = append(bounds, fmt.Sprintf("TO_NUMBER(%s) <= @%s", valueExpr, lteVar))
			}
			clauses = append(clauses, strings.Join(bounds, " AND "))
			continue
		}

		text := fmt.Sprintf("%v", mf.Value)
		fuzziness := fuzzinessFor(text)
		if fuzzinessOverride != nil {
			fuzziness = *fuzzinessOverride
		}
		textVar := fmt.Sprintf("metaVal%d", i)
		fuzzVar := fmt.Sprintf("metaFuzz%d", i)
		bind[textVar] = text
		bind[fuzzVar] = fuzziness
		clauses = append(clauses, fmt.Sprintf(
			"(CONTAINS(LOWER(TO_STRING(%s)), LOWER(@%s)) OR LEVENSHTEIN_DISTANCE(TO_STRING(%s), @%s) <= @%s)",
			valueExpr, textVar, valueExpr, textVar, fuzzVar))
	}
	return clauses
}

func startOfDay(t time.Time) string {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func endOfDay(t time.Time) string {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, time.UTC).Format(time.RFC3339Nano)
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Pagination is the response envelope's pagination block (§6.2).
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	LastPage     int  `json:"lastPage"`
	PerPage      int  `json:"perPage"`
	Total        int  `json:"total"`
	To           int  `json:"to"`
	HasMorePages bool `json:"hasMorePages"`
}

// BuildPagination computes the pagination envelope from a page/limit/total
// triple and the number of items actually returned.
func BuildPagination(page, limit, total, itemCount int) Pagination {
	lastPage := int(math.Ceil(float64(total) / float64(limit)))
	if lastPage < 1 {
		lastPage = 1
	}
	offset := (page - 1) * limit
	return Pagination{
		CurrentPage:  page,
		LastPage:     lastPage,
		PerPage:      limit,
		Total:        total,
		To:           offset + itemCount,
		HasMorePages: page < lastPage,
	}
}
