package voice

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cramblehq/cramble/internal/history"
)

// narrationPurpose tags synthesis events in the provider request log.
const narrationPurpose = "narration"

// LoggingSynthesizer is a decorator that records every synthesis call as
// an event. Narration shares the provider request log with LLM calls,
// carrying zero token counts and a byte-count summary in place of a
// response body.
type LoggingSynthesizer struct {
	inner     Synthesizer
	provider  string
	eventRepo history.EventRepo
}

// WithLogging wraps a Synthesizer with event logging.
func WithLogging(s Synthesizer, provider string, repo history.EventRepo) Synthesizer {
	return &LoggingSynthesizer{inner: s, provider: provider, eventRepo: repo}
}

func (l *LoggingSynthesizer) Synthesize(ctx context.Context, text string) (*Audio, error) {
	start := time.Now()

	audio, err := l.inner.Synthesize(ctx, text)

	data := history.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.VoiceID(),
		Purpose:     narrationPurpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: text,
	}

	if audio != nil {
		data.ResponseBody = fmt.Sprintf("%d bytes (%s)", len(audio.Data), audio.Format)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// Log the event but don't fail the synthesis if logging fails.
	if logErr := l.eventRepo.AppendLLMRequest(ctx, data); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log synthesis event: %v\n", logErr)
	}

	return audio, err
}

func (l *LoggingSynthesizer) VoiceID() string {
	return l.inner.VoiceID()
}
