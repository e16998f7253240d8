package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrRateLimit reports that the provider returned HTTP 429. RetryAfter
// carries the server-requested delay when the response included one.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse reports model output that could not be used: not
// JSON at all, or JSON the requested schema rejects. Content holds the
// offending output so callers can log it.
type ErrInvalidResponse struct {
	Schema  string // name of the schema that rejected the output, if any
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	if e.Schema != "" {
		return fmt.Sprintf("response rejected by %s schema: %v", e.Schema, e.Err)
	}
	return fmt.Sprintf("unusable model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable reports a provider that is down, unreachable,
// or answering with 5xx.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded reports a response cut off at the MaxTokens
// limit. Truncated output can never pass schema validation, so adapters
// surface the truncation itself instead of the schema failure it would
// cause downstream. Content holds the partial output.
type ErrMaxTokensExceeded struct {
	Model   string
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	if e.Model == "" {
		return "response truncated at the max_tokens limit"
	}
	return fmt.Sprintf("%s response truncated at the max_tokens limit", e.Model)
}
