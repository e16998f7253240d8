package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cramblehq/cramble/internal/config"
	"github.com/cramblehq/cramble/internal/engine"
	"github.com/cramblehq/cramble/internal/history"
	"github.com/cramblehq/cramble/internal/llm"
	"github.com/cramblehq/cramble/internal/unitcache"
	"github.com/cramblehq/cramble/internal/unitgen"
	"github.com/cramblehq/cramble/internal/voice"
)

// sessionDeps bundles everything a live session needs.
type sessionDeps struct {
	Store  *history.Store
	Engine *engine.Engine
	logger *zap.Logger
}

func (d *sessionDeps) Close() {
	if d.logger != nil {
		_ = d.logger.Sync()
	}
	if d.Store != nil {
		_ = d.Store.Close()
	}
}

// buildSessionDeps opens the event store and wires the provider,
// generator, cache, and engine behind it. Narration is only attempted
// when withVoice is set; a missing TTS key degrades to text-only.
func buildSessionDeps(cmd *cobra.Command, length int, withVoice bool) (*sessionDeps, error) {
	ctx := cmd.Context()

	st, err := openStore(cmd)
	if err != nil {
		return nil, err
	}

	// LLM request/response capture can be switched off without losing
	// session history.
	var llmRepo history.EventRepo
	if config.EnvBool("CRAMBLE_LLM_EVENTS", true) {
		llmRepo = st.EventRepo()
	}

	provider, err := llm.NewProviderFromEnv(ctx, llmRepo)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("LLM provider: %w", err)
	}

	var synth voice.Synthesizer
	if withVoice {
		synth, err = voice.NewSynthesizerFromEnv(llmRepo)
		if err != nil {
			fmt.Fprintln(os.Stderr, "TTS not configured:", err)
			fmt.Fprintln(os.Stderr, "Narration will be unavailable.")
			synth = nil
		}
	}

	logger := newLogger(cmd)

	cacheCfg := unitcache.ConfigFromEnv()
	if err := cacheCfg.Validate(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("cache config: %w", err)
	}

	gen := unitgen.New(provider, unitgen.DefaultConfig())
	cache, err := unitcache.New(gen, synth, cacheCfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("unit cache: %w", err)
	}

	cfg := engine.ConfigFromEnv()
	if length > 0 {
		cfg.SessionLength = length
	}
	if err := cfg.Validate(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("engine config: %w", err)
	}

	eng := engine.New(cache, cfg,
		engine.WithEventRepo(st.EventRepo()),
		engine.WithLogger(logger))

	return &sessionDeps{Store: st, Engine: eng, logger: logger}, nil
}

func newLogger(cmd *cobra.Command) *zap.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
