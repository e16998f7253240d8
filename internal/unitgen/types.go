package unitgen

import (
	"context"
	"strings"

	"github.com/cramblehq/cramble/internal/pacing"
)

// ReviewUnit is one atomic piece of review material: a context blurb, a
// question, and the answer/explanation. Units are immutable after
// generation, except for the one-time AudioRef attachment performed by the
// cache when narration is synthesized.
type ReviewUnit struct {
	// Index is the unit's ordinal position in the topic's sequence.
	Index int

	// Context is a short prose setup for the question. May be empty.
	Context string

	// Question is the prompt shown to the learner. Never empty.
	Question string

	// Answer is the expected answer, doubling as the explanation shown
	// after the learner responds.
	Answer string

	// Difficulty is the band this unit was generated for.
	Difficulty pacing.Difficulty

	// AudioRef is the content-hash handle of the narration clip in the
	// audio cache. Empty until narration is synthesized, and stays empty
	// when synthesis fails or narration is disabled.
	AudioRef string
}

// GenerateInput identifies one batch of units to produce.
type GenerateInput struct {
	// Topic is the normalized topic string.
	Topic string

	// Difficulty selects the difficulty band.
	Difficulty pacing.Difficulty

	// StartIndex is the ordinal of the first unit in the batch.
	StartIndex int

	// Count is the number of units requested.
	Count int
}

// Generator produces ordered review units for a topic. Implementations
// should behave as closely as possible to a pure function of
// (topic, difficulty, index) so results are safe to cache.
type Generator interface {
	// Generate produces Count units starting at StartIndex. Units come
	// back in order with their Index fields set. Returning fewer units
	// than requested signals the topic's natural budget is exhausted.
	Generate(ctx context.Context, input GenerateInput) ([]*ReviewUnit, error)
}

// Narration builds the script read aloud for a unit in review mode:
// the context, the question, a beat, then the answer.
func Narration(u *ReviewUnit) string {
	var parts []string
	if u.Context != "" {
		parts = append(parts, u.Context)
	}
	parts = append(parts, u.Question)
	parts = append(parts, "The answer is: "+u.Answer)
	return strings.Join(parts, " ... ")
}
