package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/metrics"
	"github.com/Jistoria/document-service/pkg/search/abac"
	"github.com/Jistoria/document-service/pkg/search/authctx"
	"github.com/Jistoria/document-service/pkg/search/query"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// handleListDocuments implements GET /documents (spec.md §6.2, §4.7.3-5).
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	authCtx := authFromContext(r.Context())

	status := r.URL.Query().Get("status")
	if status == "" {
		status = graphmodel.DocumentStatusAttentionRequired
	}

	gate, err := s.gateForStatus(r.Context(), authCtx, status)
	if err != nil {
		s.recordSearch(metrics.OperationList, metrics.StatusFailure)
		writeError(w, http.StatusInternalServerError, "resolving visibility failed")
		return
	}
	if gate.Denied {
		s.recordSearch(metrics.OperationList, metrics.StatusFailure)
		writeError(w, http.StatusForbidden, "no scopes resolved for the requested status")
		return
	}

	entityKeys, wildcard, err := s.allowedEntityKeys(r.Context(), gate)
	if err != nil {
		s.recordSearch(metrics.OperationList, metrics.StatusFailure)
		writeError(w, http.StatusInternalServerError, "resolving entity scopes failed")
		return
	}

	filter := parseListFilter(r, status, wildcard, entityKeys)
	if gate.IncludeOwnerMatch {
		filter.OwnerID = authCtx.UserID
	}

	built := query.Build(filter)

	vertices, err := s.Store.Query(r.Context(), built.Page, built.BindVars)
	if err != nil {
		s.recordSearch(metrics.OperationList, metrics.StatusFailure)
		writeError(w, http.StatusInternalServerError, "listing documents failed")
		return
	}
	total, err := s.Store.Count(r.Context(), built.Count, built.BindVars)
	if err != nil {
		s.recordSearch(metrics.OperationList, metrics.StatusFailure)
		writeError(w, http.StatusInternalServerError, "counting documents failed")
		return
	}

	docs := make([]graphmodel.Document, 0, len(vertices))
	for _, v := range vertices {
		var doc graphmodel.Document
		if err := graphstore.DecodeVertex(v, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}

	pagination := query.BuildPagination(filter.Page, filter.Limit, total, len(docs))
	s.recordSearch(metrics.OperationList, metrics.StatusSuccess)
	writeList(w, "documents retrieved", docs, total, pagination)
}

// handleGetDocument implements GET /documents/{doc_id}, joining
// context_entity, used_schema, and required_document.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "doc_id")

	var doc graphmodel.Document
	if err := s.Store.GetVertex(r.Context(), "documents", docID, &doc); err != nil {
		s.recordSearch(metrics.OperationGet, metrics.StatusFailure)
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	start := "documents/" + docID
	response := map[string]interface{}{"document": doc}

	if neighbors, err := s.Store.Traverse(r.Context(), start, 1, 1, graphstore.DirectionOutbound,
		[]string{graphmodel.EdgeCollectionFileLocatedIn}); err == nil && len(neighbors) > 0 {
		var entity graphmodel.Entity
		if err := graphstore.DecodeVertex(neighbors[0], &entity); err == nil {
			response["context_entity"] = entity
		}
	}
	if neighbors, err := s.Store.Traverse(r.Context(), start, 1, 1, graphstore.DirectionOutbound,
		[]string{graphmodel.EdgeCollectionUsaEsquema}); err == nil && len(neighbors) > 0 {
		var schema graphmodel.MetaSchema
		if err := graphstore.DecodeVertex(neighbors[0], &schema); err == nil {
			response["used_schema"] = schema
		}
	}
	if neighbors, err := s.Store.Traverse(r.Context(), start, 1, 1, graphstore.DirectionOutbound,
		[]string{graphmodel.EdgeCollectionCompliesWith}); err == nil && len(neighbors) > 0 {
		var required graphmodel.RequiredDocument
		if err := graphstore.DecodeVertex(neighbors[0], &required); err == nil {
			response["required_document"] = required
		}
	}

	s.recordSearch(metrics.OperationGet, metrics.StatusSuccess)
	writeOK(w, "document retrieved", response)
}

// gateForStatus resolves read/approve/reject scopes for the caller and
// applies §4.7.4's sensitive-status gate.
func (s *Server) gateForStatus(ctx context.Context, authCtx *authctx.AuthContext, status string) (abac.StatusGate, error) {
	readTeams, err := authctx.ScopesFor(ctx, s.Permissions, s.Tenant, s.AuthDeps.MicroserviceID, permissionDocumentRead, authCtx)
	if err != nil {
		return abac.StatusGate{}, err
	}
	approveTeams, err := authctx.ScopesFor(ctx, s.Permissions, s.Tenant, s.AuthDeps.MicroserviceID, permissionWorkflowApprove, authCtx)
	if err != nil {
		return abac.StatusGate{}, err
	}
	rejectTeams, err := authctx.ScopesFor(ctx, s.Permissions, s.Tenant, s.AuthDeps.MicroserviceID, permissionWorkflowReject, authCtx)
	if err != nil {
		return abac.StatusGate{}, err
	}
	return s.Policy.Gate(ctx, status, readTeams, approveTeams, rejectTeams)
}

// allowedEntityKeys resolves the gate's allowed teams to graph entity keys,
// short-circuiting when the gate already carries the wildcard.
func (s *Server) allowedEntityKeys(ctx context.Context, gate abac.StatusGate) (keys []string, wildcard bool, err error) {
	for _, t := range gate.AllowedTeams {
		if t == "*" {
			return nil, true, nil
		}
	}
	keys, err = abac.ResolveEntityKeys(ctx, s.Store, gate.AllowedTeams)
	return keys, false, err
}

func (s *Server) recordSearch(operation, status string) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.SearchQueriesTotal.WithLabelValues(operation, status).Inc()
}

// parseListFilter decodes GET /documents' query parameters into a
// query.Filter, leaving ABAC fields to be filled in by the caller.
func parseListFilter(r *http.Request, status string, wildcard bool, entityKeys []string) query.Filter {
	q := r.URL.Query()

	filter := query.Filter{
		AllowedEntityKeys:  entityKeys,
		Wildcard:           wildcard,
		Status:             status,
		OwnerID:            q.Get("owner_id"),
		EntityID:           q.Get("entity_id"),
		RequiredDocumentID: q.Get("required_document_id"),
		ReferencedEntityID: q.Get("referenced_entity_id"),
		SchemaID:           q.Get("schema_id"),
		Search:             q.Get("search"),
		Page:               parseIntOr(q.Get("page"), defaultPage),
		Limit:              parseIntOr(q.Get("limit"), defaultLimit),
	}

	if processIDs := q["process_ids"]; len(processIDs) > 0 {
		filter.ProcessIDs = processIDs
	} else if processID := q.Get("process_id"); processID != "" {
		filter.ProcessIDs = strings.Split(processID, ",")
	}

	if dateFrom := parseDate(q.Get("date_from")); dateFrom != nil {
		filter.DateFrom = dateFrom
	}
	if dateTo := parseDate(q.Get("date_to")); dateTo != nil {
		filter.DateTo = dateTo
	}

	if raw := q.Get("fuzziness"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.FuzzinessOverride = &n
		}
	}

	if raw := q.Get("metadata_filters"); raw != "" {
		filter.MetadataFilters = parseMetadataFilters(raw)
	}

	return filter
}

func parseIntOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

// metadataFilterParam mirrors the JSON shape of one metadata_filters entry:
// either a scalar value or a {gte, lte} numeric range.
type metadataFilterParam struct {
	Value interface{} `json:"value"`
	GTE   *float64    `json:"gte"`
	LTE   *float64    `json:"lte"`
}

func parseMetadataFilters(raw string) map[string]query.MetadataFilter {
	var params map[string]metadataFilterParam
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil
	}
	out := make(map[string]query.MetadataFilter, len(params))
	for key, p := range params {
		out[key] = query.MetadataFilter{Value: p.Value, NumericGTE: p.GTE, NumericLTE: p.LTE}
	}
	return out
}
