package engine

import (
	"time"

	"github.com/cramblehq/cramble/internal/config"
)

// Config holds engine tunables.
type Config struct {
	// SessionLength is the number of units in one session. Sessions
	// complete earlier if the topic's material runs out.
	SessionLength int `validate:"min=1"`

	// GameClock is the fixed wall-clock budget for a game-mode session,
	// set as the deadline at start.
	GameClock time.Duration `validate:"min=1s"`

	// PrefetchAhead is how many units past the cursor to keep warm in
	// the cache.
	PrefetchAhead int `validate:"min=1"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SessionLength: 10,
		GameClock:     3 * time.Minute,
		PrefetchAhead: 5,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		SessionLength: config.EnvInt("CRAMBLE_SESSION_LENGTH", def.SessionLength),
		GameClock:     config.EnvDur("CRAMBLE_GAME_CLOCK", def.GameClock),
		PrefetchAhead: config.EnvInt("CRAMBLE_PREFETCH_AHEAD", def.PrefetchAhead),
	}
}

// Validate checks the Config against its field constraints.
func (c Config) Validate() error {
	return config.ValidateStruct(c)
}
