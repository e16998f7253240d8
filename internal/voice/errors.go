package voice

import "fmt"

// ErrSynthesisFailed indicates the speech provider rejected or failed
// a synthesis request.
type ErrSynthesisFailed struct {
	Provider string
	Status   int // HTTP status when available, 0 otherwise
	Err      error
}

func (e *ErrSynthesisFailed) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s synthesis failed (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s synthesis failed: %v", e.Provider, e.Err)
}

func (e *ErrSynthesisFailed) Unwrap() error {
	return e.Err
}
