package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Jistoria/document-service/pkg/confirmation"
	"github.com/Jistoria/document-service/pkg/metrics"
)

// qualityCheckRequest is the body of POST /documents/{doc_id}/metadata/quality-check.
type qualityCheckRequest struct {
	Metadata map[string]interface{} `json:"metadata" validate:"required"`
}

// confirmRequest is the body of PATCH /documents/{doc_id}/metadata/confirm
// (spec.md §4.6.2).
type confirmRequest struct {
	Metadata     map[string]interface{} `json:"metadata" validate:"required"`
	DisplayName  string                  `json:"display_name,omitempty" validate:"omitempty,min=3"`
	IsPublic     bool                    `json:"is_public"`
	KeepOriginal bool                    `json:"keep_original"`
}

func (s *Server) handleQualityCheck(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "doc_id")

	var req qualityCheckRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.Confirm.QualityCheck(r.Context(), docID, req.Metadata)
	if err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	writeOK(w, "quality check complete", result)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "doc_id")
	authCtx := authFromContext(r.Context())

	var req confirmRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	doc, err := s.Confirm.Confirm(r.Context(), confirmation.Input{
		DocID:        docID,
		CallerID:     authCtx.UserID,
		Metadata:     req.Metadata,
		DisplayName:  req.DisplayName,
		IsPublic:     req.IsPublic,
		KeepOriginal: req.KeepOriginal,
	})
	if err != nil {
		s.recordConfirm(metrics.StatusFailure)
		writeConfirmError(w, err)
		return
	}

	s.recordConfirm(metrics.StatusSuccess)
	writeOK(w, "document confirmed", doc)
}

func (s *Server) recordConfirm(status string) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.ConfirmationsTotal.WithLabelValues(status).Inc()
}

// writeConfirmError maps Confirm's sentinel-free error messages onto the
// HTTP status table of §7: ownership failures are 403, a missing document
// or schema is 404, everything else (validation, e.g. a missing original
// PDF) is 400.
func writeConfirmError(w http.ResponseWriter, err error) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "is not the owner"):
		writeError(w, http.StatusForbidden, msg)
	case strings.Contains(msg, "not found"):
		writeError(w, http.StatusNotFound, msg)
	default:
		writeError(w, http.StatusBadRequest, msg)
	}
}

// decodeAndValidate JSON-decodes r.Body into dst and runs struct-tag
// validation, writing the appropriate 400 response and returning false on
// either failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
