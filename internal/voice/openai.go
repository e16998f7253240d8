package voice

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds OpenAI speech configuration.
type OpenAIConfig struct {
	APIKey  string
	Voice   string // Default: "alloy"
	Model   string // Default: "tts-1"
	BaseURL string // Optional. Override for compatible APIs or testing.
}

// OpenAISynthesizer implements Synthesizer using the OpenAI speech
// endpoint via the OpenAI SDK.
type OpenAISynthesizer struct {
	client *openai.Client
	voice  openai.SpeechVoice
	model  openai.SpeechModel
}

// NewOpenAISynthesizer creates a new OpenAI synthesizer.
func NewOpenAISynthesizer(cfg OpenAIConfig) (*OpenAISynthesizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	voice := openai.VoiceAlloy
	if cfg.Voice != "" {
		voice = openai.SpeechVoice(cfg.Voice)
	}
	model := openai.TTSModel1
	if cfg.Model != "" {
		model = openai.SpeechModel(cfg.Model)
	}

	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(config),
		voice:  voice,
		model:  model,
	}, nil
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) (*Audio, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, &ErrSynthesisFailed{Provider: "openai", Err: err}
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, &ErrSynthesisFailed{Provider: "openai", Err: err}
	}
	if len(data) == 0 {
		return nil, &ErrSynthesisFailed{Provider: "openai", Err: fmt.Errorf("empty audio response")}
	}

	return &Audio{Data: data, Format: "mp3"}, nil
}

func (s *OpenAISynthesizer) VoiceID() string {
	return string(s.voice)
}
