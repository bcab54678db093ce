package httpapi

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Jistoria/document-service/pkg/metrics"
	"github.com/Jistoria/document-service/pkg/search/abac"
	"github.com/Jistoria/document-service/pkg/search/authctx"
	"github.com/Jistoria/document-service/pkg/search/download"
)

// handleStorageProxy implements GET /storage/proxy/{object_path:path}
// (spec.md §4.7.6). The caller's document.read scopes and resolved entity
// keys gate the download exactly as they gate the list endpoint.
func (s *Server) handleStorageProxy(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if objectPath == "" {
		writeError(w, http.StatusNotFound, "object not found")
		return
	}

	authCtx := authFromContext(r.Context())

	readTeams, err := authctx.ScopesFor(r.Context(), s.Permissions, s.Tenant, s.AuthDeps.MicroserviceID, permissionDocumentRead, authCtx)
	if err != nil {
		s.recordSearch(metrics.OperationDownload, metrics.StatusFailure)
		writeError(w, http.StatusInternalServerError, "resolving scopes failed")
		return
	}

	wildcard := false
	for _, t := range readTeams {
		if t == "*" {
			wildcard = true
			break
		}
	}

	var entityKeys []string
	if !wildcard {
		entityKeys, err = abac.ResolveEntityKeys(r.Context(), s.Store, readTeams)
		if err != nil {
			s.recordSearch(metrics.OperationDownload, metrics.StatusFailure)
			writeError(w, http.StatusInternalServerError, "resolving entity scopes failed")
			return
		}
	}

	result, err := s.Download.Fetch(r.Context(), download.Request{
		ObjectPath:       objectPath,
		CallerID:         authCtx.UserID,
		CallerEntityKeys: entityKeys,
		HasWildcardRead:  wildcard,
		IPAddress:        clientIP(r),
	})
	switch {
	case err == nil:
	case errors.Is(err, download.ErrNotFound):
		s.recordSearch(metrics.OperationDownload, metrics.StatusFailure)
		writeError(w, http.StatusNotFound, "object not found")
		return
	case errors.Is(err, download.ErrForbidden):
		s.recordSearch(metrics.OperationDownload, metrics.StatusFailure)
		writeError(w, http.StatusForbidden, "access denied")
		return
	default:
		s.recordSearch(metrics.OperationDownload, metrics.StatusFailure)
		writeError(w, http.StatusInternalServerError, "streaming object failed")
		return
	}
	defer result.Body.Close()

	s.recordSearch(metrics.OperationDownload, metrics.StatusSuccess)
	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, result.Body)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
