package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// fallbackPaths names, for each field Parse needs, every key path the
// ingestion message has carried across schema revisions. The original
// source told these apart with a duck-typed "does this object look like a
// user" scan (spec.md §9 flags this for retirement); here the tolerated
// shapes are named explicitly instead; "//" picks the first path that
// resolves to a non-null value.
var fallbackPaths = map[string]string{
	"user_id":    `.document_data.external_document.user.id // .document_data.user.id // empty`,
	"user_name":  `.document_data.external_document.user.name // .document_data.user.name // empty`,
	"user_email": `.document_data.external_document.user.email // .document_data.user.email // empty`,
	"filename":   `.document_data.internal_result.filename // .document_data.result.filename // empty`,
	"context_id": `.document_data.external_document.context.id // .document_data.context.id // empty`,
}

var fallbackCodes = compileFallbackPaths(fallbackPaths)

func compileFallbackPaths(paths map[string]string) map[string]*gojq.Code {
	codes := make(map[string]*gojq.Code, len(paths))
	for field, src := range paths {
		query, err := gojq.Parse(src)
		if err != nil {
			panic(fmt.Sprintf("ingestion: invalid fallback query for %s: %v", field, err))
		}
		code, err := gojq.Compile(query)
		if err != nil {
			panic(fmt.Sprintf("ingestion: compiling fallback query for %s: %v", field, err))
		}
		codes[field] = code
	}
	return codes
}

// extractFallback re-derives the fields Parse found empty by walking raw
// against every known historical key path instead of the strict, current
// one. It is a best-effort enrichment: a field absent under every tolerated
// path is simply left blank rather than treated as an error.
func extractFallback(raw []byte) map[string]string {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}

	out := make(map[string]string, len(fallbackCodes))
	for field, code := range fallbackCodes {
		iter := code.Run(doc)
		v, ok := iter.Next()
		if !ok {
			continue
		}
		if err, isErr := v.(error); isErr {
			_ = err
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			out[field] = s
		}
	}
	return out
}
