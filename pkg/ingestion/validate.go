package ingestion

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
	"github.com/Jistoria/document-service/pkg/identity"
	"github.com/Jistoria/document-service/pkg/metadata"
)

const entitiesSearchView = "entities_search_view"

// entitySearchThreshold is the minimum BM25 score an entities_search_view
// hit must clear to be accepted (spec.md §4.5 step 3).
const entitySearchThreshold = 0.15

var academicPeriodPattern = regexp.MustCompile(`\b20\d{2}-[12]\b`)

var entityTypeInputKeys = map[string]bool{
	"entity": true, "faculty": true, "career": true, "user": true, "person": true,
}

// ValidationResult is the strict-OCR-validation outcome for one document:
// the field-keyed metadata map and any warnings raised along the way.
type ValidationResult struct {
	Fields   metadata.Map
	Warnings []string
}

// ValidateFields implements spec.md §4.5 step 3 against schema, consulting
// store's entities_search_view for entity fields and resolver for user
// fields.
func ValidateFields(ctx context.Context, store graphstore.Store, resolver *identity.Resolver, schema graphmodel.MetaSchema, items []OCRItem) (*ValidationResult, error) {
	byKey := make(map[string]graphmodel.SchemaField, len(schema.Fields))
	for _, f := range schema.Fields {
		byKey[f.FieldKey] = f
	}

	result := &ValidationResult{Fields: make(metadata.Map, len(items))}
	for _, item := range items {
		field, known := byKey[item.FieldKey]
		if !known {
			continue
		}

		value, warning, err := validateField(ctx, store, resolver, field, item)
		if err != nil {
			return nil, fmt.Errorf("ingestion: validating field %q: %w", item.FieldKey, err)
		}
		result.Fields[item.FieldKey] = value
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	}
	return result, nil
}

func validateField(ctx context.Context, store graphstore.Store, resolver *identity.Resolver, field graphmodel.SchemaField, item OCRItem) (metadata.Value, string, error) {
	switch {
	case isEntityField(field):
		return validateEntityField(ctx, store, resolver, field, item)
	case item.FieldKey == "academic_period":
		matched := academicPeriodPattern.MatchString(item.Response)
		return metadata.Primitive{Val: item.Response, IsValid: matched, Source: metadata.SourceRegexMatch}, "", nil
	default:
		return metadata.Primitive{
			Val:     item.Response,
			IsValid: len(item.Response) <= 100,
			Source:  metadata.SourceOCRRaw,
		}, "", nil
	}
}

func isEntityField(field graphmodel.SchemaField) bool {
	return field.EntityTypeID != "" || field.EntityType != "" || entityTypeInputKeys[field.TypeInput]
}

func validateEntityField(ctx context.Context, store graphstore.Store, resolver *identity.Resolver, field graphmodel.SchemaField, item OCRItem) (metadata.Value, string, error) {
	if field.EntityType == "user" {
		user, err := resolver.ResolveUser(ctx, item.Response, "", "")
		if err != nil {
			return nil, "", err
		}
		if user == nil {
			return invalidEntityValue(item), noMatchWarning(field), nil
		}
		return metadata.UserRef{
			ID:          user.Key,
			DisplayName: user.Name + " " + user.LastName,
			Email:       user.Email,
			Type:        "user",
			Val:         user.Name + " " + user.LastName,
		}, "", nil
	}

	hits, err := store.SearchView(ctx, entitiesSearchView, item.Response, 1)
	if err != nil {
		return nil, "", err
	}
	if len(hits) == 0 || hits[0].Score < entitySearchThreshold {
		return invalidEntityValue(item), noMatchWarning(field), nil
	}

	hit := hits[0]
	name, _ := hit.Doc["name"].(string)
	code, _ := hit.Doc["code"].(string)
	entityType, _ := hit.Doc["type"].(string)
	return metadata.EntityRef{
		ID:   hit.Key,
		Name: name,
		Code: code,
		Type: entityType,
		Val:  firstNonEmptyLocal(name, code, hit.Key),
	}, "", nil
}

func invalidEntityValue(item OCRItem) metadata.Value {
	return metadata.Primitive{Val: item.Response, IsValid: false, Source: metadata.SourceOCRRaw}
}

func noMatchWarning(field graphmodel.SchemaField) string {
	return fmt.Sprintf("Campo '%s' no coincide con registros.", field.Label)
}

func firstNonEmptyLocal(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
