package engine

import "errors"

var (
	// ErrTopicRejected indicates an empty or whitespace-only topic.
	ErrTopicRejected = errors.New("topic rejected")

	// ErrInvalidTransition indicates a session operation that is not
	// legal in the session's current state.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrSessionNotFound indicates an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
)
