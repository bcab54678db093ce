// Package httpmetrics provides chi middleware that records request duration
// and in-flight counts without letting dynamic path segments (document IDs,
// object paths) blow up Prometheus label cardinality.
package httpmetrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Jistoria/document-service/pkg/metrics"
)

var (
	uuidSegment    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	numericSegment = regexp.MustCompile(`^[0-9]+$`)
	idLikeSegment  = regexp.MustCompile(`^[0-9a-zA-Z]+(-[0-9a-zA-Z]+)+$`)
)

// normalizePath collapses UUID, numeric, and hyphenated-ID path segments to
// ":id" so that /documents/<doc_id> and /storage/proxy/<object_path> don't
// each mint a fresh label value per request.
func normalizePath(path string) string {
	segments := splitPath(path)
	for i, seg := range segments {
		if isIDSegment(seg) {
			segments[i] = ":id"
		}
	}

	rebuilt := "/" + joinPath(segments)
	if path != "/" && len(path) > 0 && path[len(path)-1] == '/' && rebuilt != "/" {
		rebuilt += "/"
	}
	return rebuilt
}

func isIDSegment(seg string) bool {
	return uuidSegment.MatchString(seg) || numericSegment.MatchString(seg) || idLikeSegment.MatchString(seg)
}

func splitPath(path string) []string {
	var segments []string
	var current string
	for _, ch := range path {
		if ch == '/' {
			if current != "" {
				segments = append(segments, current)
				current = ""
			}
			continue
		}
		current += string(ch)
	}
	if current != "" {
		segments = append(segments, current)
	}
	return segments
}

func joinPath(segments []string) string {
	out := ""
	for i, seg := range segments {
		if i > 0 {
			out += "/"
		}
		out += seg
	}
	return out
}

// HTTPMetrics records HTTPRequestDuration labeled by normalized route,
// method, and status code. A nil m is a no-op, so handlers can be wired
// before metrics are constructed (e.g. in tests).
func HTTPMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			endpoint := routePatternOr(r, normalizePath(r.URL.Path))
			m.HTTPRequestDuration.WithLabelValues(endpoint, r.Method, strconv.Itoa(ww.Status())).
				Observe(time.Since(start).Seconds())
		})
	}
}

// InFlightRequests tracks HTTPRequestsInFlight for the duration of each
// request. A nil m is a no-op.
func InFlightRequests(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()
			next.ServeHTTP(w, r)
		})
	}
}

// routePatternOr prefers chi's registered route pattern (already free of
// dynamic segments) and falls back to the normalized request path when the
// router hasn't matched yet (e.g. a 404).
func routePatternOr(r *http.Request, fallback string) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}
