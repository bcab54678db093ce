package confirmation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/metadata"
)

// ensureEntities implements step 4: user fields delegate to the identity
// resolver (trusting an existing id, resolving or creating otherwise);
// structural entity fields must already reference an existing entity and
// are rejected outright when they don't (spec.md §4.6.2 step 4: "never
// invent structural entities").
func (e *Engine) ensureEntities(ctx context.Context, schema *graphmodel.MetaSchema, proposed map[string]interface{}) (metadata.Map, error) {
	fields := schemaFieldsByKey(schema)
	resolved := make(metadata.Map, len(proposed))

	for key, value := range proposed {
		field, hasField := fields[key]
		if !hasField || field.EntityType == "" {
			resolved[key] = metadata.Primitive{Val: value, IsValid: true, Source: metadata.SourceOCRRaw}
			continue
		}

		if field.EntityType == graphmodel.EntityTypeKeyUser {
			ref, err := e.ensureUserField(ctx, value)
			if err != nil {
				return nil, fmt.Errorf("confirmation: resolving user field %q: %w", key, err)
			}
			resolved[key] = ref
			continue
		}

		ref, err := e.ensureStructuralField(ctx, key, value)
		if err != nil {
			return nil, err
		}
		resolved[key] = ref
	}
	return resolved, nil
}

func schemaFieldsByKey(schema *graphmodel.MetaSchema) map[string]graphmodel.SchemaField {
	if schema == nil {
		return nil
	}
	out := make(map[string]graphmodel.SchemaField, len(schema.Fields))
	for _, f := range schema.Fields {
		out[f.FieldKey] = f
	}
	return out
}

func (e *Engine) ensureUserField(ctx context.Context, value interface{}) (metadata.Value, error) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("value must be an object")
	}
	id, _ := obj["id"].(string)
	displayName, _ := obj["display_name"].(string)
	email, _ := obj["email"].(string)

	if id != "" {
		exists, err := e.Store.HasVertex(ctx, dmsUsersCollection, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return metadata.UserRef{ID: id, DisplayName: displayName, Email: email, Type: "user"}, nil
		}
	}

	user, err := e.Resolver.ResolveUser(ctx, displayName, email, "")
	if err != nil {
		return nil, err
	}
	if user != nil {
		return metadata.UserRef{ID: user.Key, DisplayName: user.Name, Email: user.Email, Type: "user"}, nil
	}

	if strings.TrimSpace(displayName) == "" {
		return nil, fmt.Errorf("cannot resolve or create a user with no display_name")
	}
	key, err := e.Resolver.CreateUser(ctx, displayName, email)
	if err != nil {
		return nil, err
	}
	return metadata.UserRef{ID: key, DisplayName: displayName, Email: email, Type: "user"}, nil
}

func (e *Engine) ensureStructuralField(ctx context.Context, fieldKey string, value interface{}) (metadata.Value, error) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("confirmation: field %q must be an object", fieldKey)
	}
	id, _ := obj["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("confirmation: field %q is missing a referenced entity id", fieldKey)
	}
	exists, err := e.Store.HasVertex(ctx, entitiesCollection, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("confirmation: field %q references an entity that does not exist: %s", fieldKey, id)
	}
	name, _ := obj["name"].(string)
	code, _ := obj["code"].(string)
	return metadata.EntityRef{ID: id, Name: name, Code: code}, nil
}
