package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildEventJSONSchema describes one raw event as the model returns it.
// Fields are free-form strings; canonical forms are reached by normalization.
func BuildEventJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":  map[string]any{"type": "string", "minLength": 1},
			"date":   map[string]any{"type": "string", "minLength": 1},
			"time":   map[string]any{"type": []any{"string", "null"}},
			"type":   map[string]any{"type": "string"},
			"weight": map[string]any{"type": "string"},
			"notes":  map[string]any{"type": "string"},
			"course": map[string]any{"type": "string"},
		},
		"required": []string{"title", "date", "type"},
	}
}

// BuildResponseJSONSchema describes the whole model response.
func BuildResponseJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"courseName": map[string]any{"type": "string"},
			"events": map[string]any{
				"type":  "array",
				"items": BuildEventJSONSchema(),
			},
		},
		"required": []string{"events"},
	}
}

// CompileSchema compiles a schema map once so it can validate many documents.
func CompileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
