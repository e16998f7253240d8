package unitgen

import (
	"context"
	"sync"
)

// StaticGenerator serves a fixed, seeded unit sequence. It backs tests and
// the offline demo mode, and doubles as a record of generator calls.
type StaticGenerator struct {
	mu    sync.Mutex
	units []*ReviewUnit
	calls []GenerateInput

	// Err, when set, is returned by every Generate call.
	Err error
}

// NewStaticGenerator creates a StaticGenerator serving the given units.
// Unit Index fields are assigned from position.
func NewStaticGenerator(units ...*ReviewUnit) *StaticGenerator {
	for i, u := range units {
		u.Index = i
	}
	return &StaticGenerator{units: units}
}

// Generate returns the slice of seeded units covering the requested range.
// Requests past the end return the available remainder, which may be empty.
func (s *StaticGenerator) Generate(_ context.Context, input GenerateInput) ([]*ReviewUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, input)
	if s.Err != nil {
		return nil, s.Err
	}

	if input.StartIndex >= len(s.units) || input.Count <= 0 {
		return nil, nil
	}
	end := input.StartIndex + input.Count
	if end > len(s.units) {
		end = len(s.units)
	}

	out := make([]*ReviewUnit, end-input.StartIndex)
	copy(out, s.units[input.StartIndex:end])
	return out, nil
}

// CallCount returns the number of Generate calls made.
func (s *StaticGenerator) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Calls returns a copy of the recorded inputs.
func (s *StaticGenerator) Calls() []GenerateInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GenerateInput, len(s.calls))
	copy(out, s.calls)
	return out
}
