// Package abac resolves a caller's team-coded scopes to graph entity keys
// and gates visibility of sensitive document statuses (spec.md §4.7.3,
// §4.7.4).
package abac

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
)

const entitiesCollection = "entities"

var prefixToEntityType = map[string]string{
	"CARR": graphmodel.EntityTypeCarrera,
	"FAC":  graphmodel.EntityTypeFacultad,
	"DEP":  graphmodel.EntityTypeDepartamento,
}

// ResolveEntityKeys resolves each "<PREFIX>:<code>" team scope to the key of
// the first matching entity of the mapped type. Scopes with an unrecognized
// prefix, or that match no entity, are silently dropped — callers that had
// scopes but none resolve must treat this as an empty page, never an error.
func ResolveEntityKeys(ctx context.Context, store graphstore.Store, teamScopes []string) ([]string, error) {
	var keys []string
	for _, scope := range teamScopes {
		prefix, code, ok := splitScope(scope)
		if !ok {
			continue
		}
		entityType, ok := prefixToEntityType[prefix]
		if !ok {
			continue
		}

		v, found, err := findEntityByCode(ctx, store, entityType, code)
		if err != nil {
			return nil, fmt.Errorf("abac: resolving scope %q: %w", scope, err)
		}
		if found {
			keys = append(keys, v.Key)
		}
	}
	return keys, nil
}

// findEntityByCode tries code, then code_numeric, returning the first hit.
func findEntityByCode(ctx context.Context, store graphstore.Store, entityType, code string) (graphstore.Vertex, bool, error) {
	v, ok, err := store.FindOneByFields(ctx, entitiesCollection, map[string]string{
		"type": entityType,
		"code": code,
	})
	if err != nil {
		return graphstore.Vertex{}, false, err
	}
	if ok {
		return v, true, nil
	}
	return store.FindOneByFields(ctx, entitiesCollection, map[string]string{
		"type":         entityType,
		"code_numeric": code,
	})
}

func splitScope(scope string) (prefix, code string, ok bool) {
	idx := strings.IndexByte(scope, ':')
	if idx < 0 {
		return "", "", false
	}
	return scope[:idx], scope[idx+1:], true
}

// StatusGate is the outcome of resolving which teams (or "*") may view
// documents at a requested status. IncludeOwnerMatch additionally narrows
// results to documents the caller owns — for sensitive statuses a
// workflow scope only ever surfaces the caller's own pending work, never
// the whole team's queue. An empty team set at a sensitive status is a
// hard deny, not a fallback to owner-only visibility (spec.md §4.7.4,
// boundary: "status=attention_required with no approve/reject scopes ⇒
// 403"). The decision itself is computed by PolicyEngine.Gate, not here.
type StatusGate struct {
	AllowedTeams      []string
	IncludeOwnerMatch bool
	Denied            bool
}
