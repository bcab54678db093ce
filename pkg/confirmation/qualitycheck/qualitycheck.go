// Package qualitycheck implements the quality-check dry run (spec.md
// §4.6.1): a read-only score of a proposed metadata map against a
// document's schema, with no side effects on the graph.
package qualitycheck

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/Jistoria/document-service/pkg/confirmation/entityvalidator"
	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
)

const (
	weightRequired = 2
	weightOptional = 1
)

var emailPattern = regexp.MustCompile(`[^@]+@[^@]+\.[^@]+`)

// FieldReport is one schema field's contribution to the score.
type FieldReport struct {
	FieldKey string
	IsValid  bool
	Warning  string
	Weight   int
}

// Result is the quality-check verdict.
type Result struct {
	Score           float64
	IsReady         bool
	FieldsReport    []FieldReport
	SummaryWarnings []string
}

// Check scores proposed against schema. A nil schema (no usa_esquema edge)
// short-circuits to a perfect, ready score with a summary warning (spec.md
// §4.6.1 step 1).
func Check(ctx context.Context, store graphstore.Store, schema *graphmodel.MetaSchema, proposed map[string]interface{}) (*Result, error) {
	if schema == nil {
		return &Result{
			Score:           100,
			IsReady:         true,
			FieldsReport:    []FieldReport{},
			SummaryWarnings: []string{"Sin esquema definido"},
		}, nil
	}

	reports := make([]FieldReport, 0, len(schema.Fields))
	var earned, total int
	for _, field := range schema.Fields {
		weight := weightOptional
		if field.IsRequired {
			weight = weightRequired
		}
		total += weight

		isValid, warning, err := checkField(ctx, store, field, proposed[field.FieldKey])
		if err != nil {
			return nil, err
		}
		if isValid {
			earned += weight
		}
		reports = append(reports, FieldReport{FieldKey: field.FieldKey, IsValid: isValid, Warning: warning, Weight: weight})
	}

	score := 100.0
	if total > 0 {
		score = 100 * float64(earned) / float64(total)
	}
	ready := true
	for _, r := range reports {
		if !r.IsValid {
			ready = false
			break
		}
	}
	return &Result{Score: score, IsReady: ready, FieldsReport: reports}, nil
}

func checkField(ctx context.Context, store graphstore.Store, field graphmodel.SchemaField, value interface{}) (bool, string, error) {
	if isEmpty(value) {
		if field.IsRequired {
			return false, "Campo obligatorio vacío.", nil
		}
		return true, "", nil
	}

	switch field.DataType {
	case graphmodel.FieldDataTypeEmail:
		s, _ := value.(string)
		if !emailPattern.MatchString(s) {
			return false, "Formato de correo inválido.", nil
		}
		return true, "", nil
	case graphmodel.FieldDataTypeDate:
		s, _ := value.(string)
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return false, "Formato de fecha inválido.", nil
		}
		return true, "", nil
	case graphmodel.FieldDataTypeJSON:
		if field.EntityType != "" {
			outcome, err := entityvalidator.Validate(ctx, store, field.EntityType, value)
			if err != nil {
				return false, "", err
			}
			return outcome.IsValid, outcome.Warning, nil
		}
		if _, ok := value.(map[string]interface{}); !ok {
			return false, "El valor debe ser un objeto.", nil
		}
		return true, "", nil
	default:
		return true, "", nil
	}
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]interface{}:
		return len(v) == 0
	default:
		return false
	}
}
