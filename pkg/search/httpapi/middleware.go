package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/Jistoria/document-service/pkg/search/authctx"
)

type contextKey int

const authContextKey contextKey = 0

// authenticate resolves the bearer token on every request and stores the
// result on the request context. A missing or unverifiable token is a 401;
// handlers never see a request without a valid AuthContext.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		authCtx, err := authctx.Resolve(r.Context(), s.AuthDeps, raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), authContextKey, authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func authFromContext(ctx context.Context) *authctx.AuthContext {
	v, _ := ctx.Value(authContextKey).(*authctx.AuthContext)
	return v
}
