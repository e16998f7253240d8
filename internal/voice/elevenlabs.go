package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// Rachel, a clear narration voice available on the free tier.
	defaultElevenLabsVoice = "21m00Tcm4TlvDq8ikWAM"
	defaultElevenLabsModel = "eleven_turbo_v2"

	elevenLabsBaseURL = "https://api.elevenlabs.io/v1"
)

// ElevenLabsConfig holds ElevenLabs-specific configuration.
type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string // Default: Rachel
	Model   string // Default: "eleven_turbo_v2"
	BaseURL string // Optional. Override for testing.
	Timeout time.Duration
}

// ElevenLabsSynthesizer implements Synthesizer using the ElevenLabs
// text-to-speech API.
type ElevenLabsSynthesizer struct {
	apiKey  string
	voiceID string
	model   string
	baseURL string
	client  *http.Client
}

// NewElevenLabsSynthesizer creates a new ElevenLabs synthesizer.
func NewElevenLabsSynthesizer(cfg ElevenLabsConfig) (*ElevenLabsSynthesizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("elevenlabs API key is required")
	}

	voiceID := cfg.VoiceID
	if voiceID == "" {
		voiceID = defaultElevenLabsVoice
	}
	model := cfg.Model
	if model == "" {
		model = defaultElevenLabsModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &ElevenLabsSynthesizer{
		apiKey:  cfg.APIKey,
		voiceID: voiceID,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) (*Audio, error) {
	payload := elevenLabsRequest{
		Text:    text,
		ModelID: s.model,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.baseURL, s.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ErrSynthesisFailed{Provider: "elevenlabs", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ErrSynthesisFailed{
			Provider: "elevenlabs",
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(string(detail))),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrSynthesisFailed{Provider: "elevenlabs", Err: err}
	}
	if len(data) == 0 {
		return nil, &ErrSynthesisFailed{Provider: "elevenlabs", Err: fmt.Errorf("empty audio response")}
	}

	return &Audio{Data: data, Format: "mp3"}, nil
}

func (s *ElevenLabsSynthesizer) VoiceID() string {
	return s.voiceID
}
