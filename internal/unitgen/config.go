package unitgen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators is the ordered list of validators to run on every
	// generated unit. They execute in order; the first failure stops
	// the batch.
	Validators []Validator

	// MaxTokens is the token budget for a batch response.
	MaxTokens int

	// OutlineMaxTokens is the token budget for the outline response.
	OutlineMaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// UnitsPerSection is how many consecutive unit indices share one
	// outline section before moving to the next.
	UnitsPerSection int
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
		},
		MaxTokens:        2048,
		OutlineMaxTokens: 256,
		Temperature:      0.7,
		UnitsPerSection:  3,
	}
}
