package unitgen

import "github.com/cramblehq/cramble/internal/llm"

// UnitsSchema defines the JSON schema for batched review-unit generation.
var UnitsSchema = &llm.Schema{
	Name:        "review-units",
	Description: "An ordered batch of study review units for a topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"units": map[string]any{
				"type":        "array",
				"description": "The requested units, in order",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"context": map[string]any{
							"type":        "string",
							"description": "One or two sentences of background setting up the question. May be empty when the question stands alone.",
						},
						"question": map[string]any{
							"type":        "string",
							"description": "A short free-text question about the topic, answerable in a phrase",
						},
						"answer": map[string]any{
							"type":        "string",
							"description": "The expected answer phrase, also serving as the explanation",
						},
					},
					"required":             []any{"context", "question", "answer"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"units"},
		"additionalProperties": false,
	},
}

// OutlineSchema defines the JSON schema for the topic outline stage.
var OutlineSchema = &llm.Schema{
	Name:        "topic-outline",
	Description: "Section titles decomposing a study topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sections": map[string]any{
				"type":        "array",
				"description": "Between 4 and 6 short section titles covering the topic from fundamentals to applications",
				"items": map[string]any{
					"type": "string",
				},
			},
		},
		"required":             []any{"sections"},
		"additionalProperties": false,
	},
}
