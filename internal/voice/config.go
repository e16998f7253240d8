package voice

import (
	"fmt"
	"os"
	"time"

	"github.com/cramblehq/cramble/internal/config"
	"github.com/cramblehq/cramble/internal/history"
)

// Config holds speech provider configuration.
type Config struct {
	// Provider selects which speech provider to use.
	// Values: "elevenlabs", "openai", "mock", "none"
	Provider string

	ElevenLabs ElevenLabsConfig
	OpenAI     OpenAIConfig
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "none",
		ElevenLabs: ElevenLabsConfig{
			VoiceID: defaultElevenLabsVoice,
			Model:   defaultElevenLabsModel,
			Timeout: 30 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Voice: "alloy",
			Model: "tts-1",
		},
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.Provider = config.EnvStr("CRAMBLE_TTS_PROVIDER", cfg.Provider)

	cfg.ElevenLabs.APIKey = config.EnvStr("CRAMBLE_ELEVENLABS_API_KEY", cfg.ElevenLabs.APIKey)
	cfg.ElevenLabs.VoiceID = config.EnvStr("CRAMBLE_ELEVENLABS_VOICE_ID", cfg.ElevenLabs.VoiceID)
	cfg.ElevenLabs.Model = config.EnvStr("CRAMBLE_ELEVENLABS_MODEL", cfg.ElevenLabs.Model)

	cfg.OpenAI.APIKey = config.EnvStr("CRAMBLE_OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.Voice = config.EnvStr("CRAMBLE_TTS_VOICE", cfg.OpenAI.Voice)

	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (ElevenLabs → OpenAI) and returns a Config for the first provider
// whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("ELEVENLABS_API_KEY"); k != "" {
		cfg.Provider = "elevenlabs"
		cfg.ElevenLabs.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// NewSynthesizer creates a Synthesizer for the configured provider,
// wrapped with event logging when eventRepo is non-nil. Returns
// (nil, nil) for provider "none": narration is disabled, not an error.
func NewSynthesizer(cfg Config, eventRepo history.EventRepo) (Synthesizer, error) {
	var base Synthesizer
	var err error

	switch cfg.Provider {
	case "elevenlabs":
		base, err = NewElevenLabsSynthesizer(cfg.ElevenLabs)
	case "openai":
		base, err = NewOpenAISynthesizer(cfg.OpenAI)
	case "mock":
		base = NewMockSynthesizer()
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown speech provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if eventRepo != nil {
		base = WithLogging(base, cfg.Provider, eventRepo)
	}
	return base, nil
}

// NewSynthesizerFromEnv builds a Synthesizer from environment
// configuration, discovering a provider from standard key env vars when
// none is set explicitly. Returns (nil, nil) when no speech provider is
// available.
func NewSynthesizerFromEnv(eventRepo history.EventRepo) (Synthesizer, error) {
	cfg := ConfigFromEnv()
	if cfg.Provider == "none" {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, nil
		}
		cfg = discovered
	}
	return NewSynthesizer(cfg, eventRepo)
}
