package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summarySchema() *Schema {
	list := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return &Schema{
		Name: "test-learner-summary",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary":    map[string]any{"type": "string"},
				"strengths":  list,
				"weaknesses": list,
				"patterns":   list,
			},
			"required":             []any{"summary", "strengths", "weaknesses", "patterns"},
			"additionalProperties": false,
		},
	}
}

func detectionSchema() *Schema {
	return &Schema{
		Name: "test-error-detect",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"errors": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"category": map[string]any{
								"type": "string",
								"enum": []any{"SYMPTOME_MANQUE", "DIAGNOSTIC_INCORRECT", "INTERROGATOIRE_INCOMPLET"},
							},
							"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
						},
						"required": []any{"category", "confidence"},
					},
				},
			},
			"required": []any{"errors"},
		},
	}
}

const validSummary = `{"summary":"Bon interrogatoire.","strengths":["écoute"],"weaknesses":["examen"],"patterns":[]}`

func TestStructuredContent_Accepts(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
		raw    string
		want   string
	}{
		{"summary", summarySchema(), validSummary, validSummary},
		{"fenced summary", summarySchema(), "```json\n" + validSummary + "\n```", validSummary},
		{"bare fence", summarySchema(), "```" + validSummary + "```", validSummary},
		{"surrounding whitespace", summarySchema(), "\n  " + validSummary + "\n", validSummary},
		{"no errors", detectionSchema(), `{"errors":[]}`, `{"errors":[]}`},
		{"scored error", detectionSchema(),
			`{"errors":[{"category":"SYMPTOME_MANQUE","confidence":0.8}]}`,
			`{"errors":[{"category":"SYMPTOME_MANQUE","confidence":0.8}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := structuredContent(tt.schema, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestStructuredContent_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
		raw    string
	}{
		{"missing patterns", summarySchema(), `{"summary":"x","strengths":[],"weaknesses":[]}`},
		{"extra property", summarySchema(), `{"summary":"x","strengths":[],"weaknesses":[],"patterns":[],"score":3}`},
		{"strengths not a list", summarySchema(), `{"summary":"x","strengths":"écoute","weaknesses":[],"patterns":[]}`},
		{"unknown category", detectionSchema(), `{"errors":[{"category":"TRUC","confidence":0.5}]}`},
		{"confidence above 1", detectionSchema(), `{"errors":[{"category":"SYMPTOME_MANQUE","confidence":1.5}]}`},
		{"apology instead of JSON", summarySchema(), `Je suis désolé, je rencontre un problème technique.`},
		{"empty", summarySchema(), ``},
		{"empty fence", summarySchema(), "```json\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := structuredContent(tt.schema, json.RawMessage(tt.raw))
			var invalid *ErrInvalidResponse
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.raw, string(invalid.Content))
			assert.True(t, retryable(err, false))
		})
	}
}

func TestStructuredContent_FreeTextPassesThrough(t *testing.T) {
	got, err := structuredContent(nil, json.RawMessage("Depuis trois jours, docteur."))
	require.NoError(t, err)
	assert.Equal(t, "Depuis trois jours, docteur.", string(got))
}

func TestCompileSchema_Cached(t *testing.T) {
	first, err := compileSchema(summarySchema())
	require.NoError(t, err)
	second, err := compileSchema(summarySchema())
	require.NoError(t, err)
	assert.Same(t, first, second)
}
