package unitgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cramblehq/cramble/internal/grading"
	"github.com/cramblehq/cramble/internal/llm"
	"github.com/cramblehq/cramble/internal/pacing"
)

// LLMGenerator implements Generator using the LLM provider. Generation is
// two-stage: the topic is first decomposed into an outline of sections
// (memoized per topic and difficulty), then each batch request produces
// units assigned to those sections.
type LLMGenerator struct {
	provider llm.Provider
	config   Config

	// outlines memoizes the outline stage per "topic|difficulty" key so a
	// session issues at most one outline call.
	outlines sync.Map // map[string][]string
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// unitOutput is one raw unit from the LLM response before validation.
type unitOutput struct {
	Context  string `json:"context"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// unitsOutput is the raw batch response.
type unitsOutput struct {
	Units []unitOutput `json:"units"`
}

// outlineOutput is the raw outline response.
type outlineOutput struct {
	Sections []string `json:"sections"`
}

// Generate produces a batch of validated units starting at input.StartIndex.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) ([]*ReviewUnit, error) {
	if input.Count <= 0 {
		return nil, nil
	}

	sections, err := g.outline(ctx, input.Topic, input.Difficulty)
	if err != nil {
		return nil, err
	}

	ctx = llm.WithPurpose(ctx, "unit-gen")

	req := llm.Request{
		System: unitSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUnitMessage(input, sections, g.config.UnitsPerSection)},
		},
		Schema:      UnitsSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("unit generation failed: %w", err)
	}

	var raw unitsOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse unit response: %w", err)
	}
	if len(raw.Units) == 0 {
		return nil, &llm.ErrInvalidResponse{
			Content: resp.Content,
			Err:     fmt.Errorf("empty unit batch"),
		}
	}
	if len(raw.Units) > input.Count {
		raw.Units = raw.Units[:input.Count]
	}

	units := make([]*ReviewUnit, 0, len(raw.Units))
	seen := make(map[string]bool, len(raw.Units))
	for i, ru := range raw.Units {
		u := &ReviewUnit{
			Index:      input.StartIndex + i,
			Context:    strings.TrimSpace(ru.Context),
			Question:   strings.TrimSpace(ru.Question),
			Answer:     strings.TrimSpace(ru.Answer),
			Difficulty: input.Difficulty,
		}

		for _, v := range g.config.Validators {
			if verr := v.Validate(u, input); verr != nil {
				return nil, verr
			}
		}

		// Duplicate questions within a batch defeat the point of a batch.
		key := grading.Normalize(u.Question)
		if seen[key] {
			return nil, &ValidationError{
				Validator: "dedup",
				Message:   fmt.Sprintf("duplicate question at index %d", u.Index),
				Retryable: true,
			}
		}
		seen[key] = true

		units = append(units, u)
	}

	return units, nil
}

// outline returns the memoized section outline for a topic, generating it
// on first use. Provider failures fall back to a deterministic generic
// outline so unit generation can still proceed.
func (g *LLMGenerator) outline(ctx context.Context, topic string, difficulty pacing.Difficulty) ([]string, error) {
	key := topic + "|" + string(difficulty)
	if cached, ok := g.outlines.Load(key); ok {
		return cached.([]string), nil
	}

	sections, err := g.generateOutline(ctx, topic)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		sections = FallbackOutline(topic)
	}

	g.outlines.Store(key, sections)
	return sections, nil
}

func (g *LLMGenerator) generateOutline(ctx context.Context, topic string) ([]string, error) {
	ctx = llm.WithPurpose(ctx, "outline")

	req := llm.Request{
		System: outlineSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildOutlineMessage(topic)},
		},
		Schema:      OutlineSchema,
		MaxTokens:   g.config.OutlineMaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("outline generation failed: %w", err)
	}

	var raw outlineOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse outline response: %w", err)
	}

	var sections []string
	for _, s := range raw.Sections {
		if s = strings.TrimSpace(s); s != "" {
			sections = append(sections, s)
		}
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("outline response contained no sections")
	}
	return sections, nil
}

// FallbackOutline is the deterministic outline used when the outline stage
// fails: broad sections that fit any topic.
func FallbackOutline(topic string) []string {
	return []string{
		topic + " Basics",
		topic + " Core Concepts",
		topic + " Applications",
	}
}
