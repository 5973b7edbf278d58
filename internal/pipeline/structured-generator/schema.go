// internal/pipeline/structured-generator/schema.go
package structuredgenerator

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// outputSchema is the type-level contract of a model response. Cross-field rules
// are checked separately in validate.
var outputSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"introduction": map[string]interface{}{"type": []string{"string", "null"}},
		"table": map[string]interface{}{
			"type": []string{"array", "null"},
			"items": map[string]interface{}{
				"type": "object",
				"additionalProperties": map[string]interface{}{
					"type": []string{"string", "number", "boolean", "null"},
				},
			},
		},
		"pros": map[string]interface{}{
			"type":  []string{"array", "null"},
			"items": map[string]interface{}{"type": "string"},
		},
		"cons": map[string]interface{}{
			"type":  []string{"array", "null"},
			"items": map[string]interface{}{"type": "string"},
		},
		"recommendation":      map[string]interface{}{"type": []string{"string", "null"}},
		"personalized_winner": map[string]interface{}{"type": []string{"string", "null"}},
		"winner_reason":       map[string]interface{}{"type": []string{"string", "null"}},
		"message":             map[string]interface{}{"type": []string{"string", "null"}},
	},
}

func compileSchema() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(outputSchema))
	if err != nil {
		return nil, fmt.Errorf("compile output schema: %w", err)
	}
	return schema, nil
}

// checkSchema returns one message per schema violation.
func checkSchema(schema *gojsonschema.Schema, doc []byte) ([]string, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}
