// Package entityvalidator implements the entity-object validator spec.md
// §4.6.1 calls out: an existence check against dms_users for user fields
// and against entities for structural fields, with CREATE_USER reserved to
// user fields — structural entities are never created on the fly.
package entityvalidator

import (
	"context"
	"strings"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
)

const (
	dmsUsersCollection = "dms_users"
	entitiesCollection  = "entities"
)

// Action names the two outcomes the original entity-object validator
// distinguishes: linking an id already present in the graph, or creating a
// new dms_users entry from a display name.
type Action string

const (
	ActionCreateUser   Action = "CREATE_USER"
	ActionLinkExisting Action = "LINK_EXISTING"
)

// Outcome is the validator's verdict for one field's proposed object.
type Outcome struct {
	IsValid bool
	Action  Action
	Warning string
}

// Validate checks raw — the proposed value for a json field whose schema
// entry names entityType — against the graph. entityType ==
// graphmodel.EntityTypeKeyUser routes to the user path (existence check or
// CREATE_USER); anything else is a structural type and must reference an
// id already present in entities.
func Validate(ctx context.Context, store graphstore.Store, entityType string, raw interface{}) (Outcome, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return Outcome{Warning: "El valor debe ser un objeto."}, nil
	}

	if entityType == graphmodel.EntityTypeKeyUser {
		return validateUser(ctx, store, obj)
	}
	return validateStructural(ctx, store, obj)
}

func validateUser(ctx context.Context, store graphstore.Store, obj map[string]interface{}) (Outcome, error) {
	if action, _ := obj["action"].(string); Action(action) == ActionCreateUser {
		displayName, _ := obj["display_name"].(string)
		if strings.TrimSpace(displayName) == "" {
			return Outcome{Warning: "Falta display_name para crear el usuario."}, nil
		}
		return Outcome{IsValid: true, Action: ActionCreateUser}, nil
	}

	id, _ := obj["id"].(string)
	if id == "" {
		return Outcome{Warning: "Falta id de usuario."}, nil
	}
	exists, err := store.HasVertex(ctx, dmsUsersCollection, id)
	if err != nil {
		return Outcome{}, err
	}
	if !exists {
		return Outcome{Warning: "Usuario no encontrado."}, nil
	}
	return Outcome{IsValid: true, Action: ActionLinkExisting}, nil
}

func validateStructural(ctx context.Context, store graphstore.Store, obj map[string]interface{}) (Outcome, error) {
	if action, _ := obj["action"].(string); Action(action) == ActionCreateUser {
		return Outcome{Warning: "No se permite crear entidades estructurales."}, nil
	}

	id, _ := obj["id"].(string)
	if id == "" {
		return Outcome{Warning: "Falta id de entidad."}, nil
	}
	exists, err := store.HasVertex(ctx, entitiesCollection, id)
	if err != nil {
		return Outcome{}, err
	}
	if !exists {
		return Outcome{Warning: "Entidad no encontrada."}, nil
	}
	return Outcome{IsValid: true, Action: ActionLinkExisting}, nil
}
