// Package httpapi exposes the document search and authorization engine
// (spec.md §4.7, §6.2) over HTTP: listing and reading documents under
// ABAC-resolved visibility, the quality-check dry run, the confirm
// contract, and the storage proxy.
package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-logr/logr"
	"github.com/go-playground/validator/v10"

	"github.com/Jistoria/document-service/pkg/confirmation"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/metrics"
	"github.com/Jistoria/document-service/pkg/search/abac"
	"github.com/Jistoria/document-service/pkg/search/authctx"
	"github.com/Jistoria/document-service/pkg/search/download"
	"github.com/Jistoria/document-service/pkg/search/httpmetrics"
)

const (
	permissionDocumentRead   = "document.read"
	permissionWorkflowApprove = "workflow.approve"
	permissionWorkflowReject  = "workflow.reject"
)

// Server wires every Component G collaborator behind the HTTP routes of
// spec.md §6.2.
type Server struct {
	Store       graphstore.Store
	Confirm     *confirmation.Engine
	Download    *download.Proxy
	Policy      *abac.PolicyEngine
	AuthDeps    authctx.Dependencies
	Permissions authctx.PermissionsKV
	Tenant      string
	Metrics     *metrics.Metrics
	Log         logr.Logger
	Now         func() time.Time

	validate *validator.Validate
}

// Router builds the chi.Router serving every route this package implements.
func (s *Server) Router() chi.Router {
	if s.validate == nil {
		s.validate = validator.New()
	}

	r := chi.NewRouter()
	r.Use(httpmetrics.InFlightRequests(s.Metrics))
	r.Use(httpmetrics.HTTPMetrics(s.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.authenticate)

	r.Get("/documents", s.handleListDocuments)
	r.Get("/documents/{doc_id}", s.handleGetDocument)
	r.Post("/documents/{doc_id}/metadata/quality-check", s.handleQualityCheck)
	r.Patch("/documents/{doc_id}/metadata/confirm", s.handleConfirm)
	r.Get("/storage/proxy/*", s.handleStorageProxy)

	return r
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
