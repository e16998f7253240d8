// Package voice synthesizes spoken narration for review units.
//
// Narration is optional: sessions work without a configured speech
// provider, and callers treat synthesis failures as non-fatal.
package voice

import "context"

// Audio is a synthesized speech clip.
type Audio struct {
	Data   []byte
	Format string // e.g. "mp3"
}

// Synthesizer converts text into spoken audio.
type Synthesizer interface {
	// Synthesize converts text to audio. Implementations should honor
	// context cancellation.
	Synthesize(ctx context.Context, text string) (*Audio, error)

	// VoiceID identifies the configured voice, for logging.
	VoiceID() string
}
