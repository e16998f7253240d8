package unitcache

import (
	"time"

	"github.com/cramblehq/cramble/internal/config"
)

// Config tunes cache capacity and external-call behavior.
type Config struct {
	// PrefetchWindow is the number of units requested per generator
	// call. Batches are aligned to multiples of this window so that
	// concurrent requests for nearby indices coalesce onto one call.
	PrefetchWindow int `validate:"min=1"`

	// UnitCapacity bounds the number of cached review units.
	UnitCapacity int `validate:"min=1"`

	// AudioCapacity bounds the number of cached audio clips.
	AudioCapacity int `validate:"min=1"`

	// CallTimeout bounds a single external generation or synthesis
	// call, including any retries inside the provider.
	CallTimeout time.Duration `validate:"min=1s"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PrefetchWindow: 5,
		UnitCapacity:   512,
		AudioCapacity:  128,
		CallTimeout:    30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		PrefetchWindow: config.EnvInt("CRAMBLE_PREFETCH_WINDOW", def.PrefetchWindow),
		UnitCapacity:   config.EnvInt("CRAMBLE_UNIT_CAPACITY", def.UnitCapacity),
		AudioCapacity:  config.EnvInt("CRAMBLE_AUDIO_CAPACITY", def.AudioCapacity),
		CallTimeout:    config.EnvDur("CRAMBLE_CALL_TIMEOUT", def.CallTimeout),
	}
}

// Validate checks the Config against its field constraints.
func (c Config) Validate() error {
	return config.ValidateStruct(c)
}
