package unitcache

import "errors"

// Sentinel errors surfaced by the cache. Callers test with errors.Is.
var (
	// ErrGenerationUnavailable indicates the content generator failed
	// or timed out after bounded retries.
	ErrGenerationUnavailable = errors.New("unit generation unavailable")

	// ErrTopicExhausted indicates the generator has no unit at the
	// requested index: the topic's material ran out.
	ErrTopicExhausted = errors.New("no more units for topic")

	// ErrSynthesisUnavailable indicates audio synthesis failed. Callers
	// treat this as non-fatal and continue text-only.
	ErrSynthesisUnavailable = errors.New("audio synthesis unavailable")
)
