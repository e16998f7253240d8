package voice

import (
	"context"
	"sync"
)

// MockSynthesizer is a deterministic Synthesizer for testing.
// It records all synthesized texts and returns canned audio.
type MockSynthesizer struct {
	mu    sync.Mutex
	calls []string

	// Data is the audio returned for every call.
	Data []byte
	// Err, when set, is returned instead of audio.
	Err error
}

// NewMockSynthesizer creates a MockSynthesizer with placeholder audio.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{Data: []byte("mock-audio")}
}

func (m *MockSynthesizer) Synthesize(_ context.Context, text string) (*Audio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, text)

	if m.Err != nil {
		return nil, m.Err
	}
	return &Audio{Data: m.Data, Format: "mp3"}, nil
}

// VoiceID returns "mock".
func (m *MockSynthesizer) VoiceID() string {
	return "mock"
}

// CallCount returns the number of Synthesize calls made.
func (m *MockSynthesizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of all synthesized texts.
func (m *MockSynthesizer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
