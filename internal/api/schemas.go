// internal/api/schemas.go
package api

import "compair/internal/common/validation"

// Optional fields accept null and are then treated as absent.
var compareSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []string{"category", "items"},
	"properties": map[string]interface{}{
		"category": map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 64},
		"items": map[string]interface{}{
			"type":     "array",
			"minItems": 2,
			"maxItems": 4,
			"items":    map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 200},
		},
		"criteria": map[string]interface{}{"type": []string{"string", "null"}, "maxLength": 500},
		"user_preferences": map[string]interface{}{
			"type": []string{"object", "null"},
			"properties": map[string]interface{}{
				"priorities": map[string]interface{}{
					"type":     []string{"array", "null"},
					"maxItems": 10,
					"items":    map[string]interface{}{"type": "string", "maxLength": 100},
				},
				"budget":   map[string]interface{}{"type": []string{"string", "null"}, "maxLength": 100},
				"use_case": map[string]interface{}{"type": []string{"string", "null"}, "maxLength": 500},
			},
		},
	},
})

var followupSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []string{"comparison_id", "question"},
	"properties": map[string]interface{}{
		"comparison_id": map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 100},
		"question":      map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 2000},
	},
})
