// Package unitcache is the process-wide content cache shared by all
// sessions. It maps (topic, difficulty, index) to generated review units
// and narration-text hashes to synthesized audio, coalescing concurrent
// requests so each external call happens at most once per key.
package unitcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cramblehq/cramble/internal/pacing"
	"github.com/cramblehq/cramble/internal/unitgen"
	"github.com/cramblehq/cramble/internal/voice"
)

// unitKey addresses one cached review unit.
type unitKey struct {
	topic      string
	difficulty pacing.Difficulty
	index      int
}

// Cache is a bounded LRU cache over the content generator and voice
// synthesizer. Entries are never mutated after insertion, only evicted.
type Cache struct {
	generator unitgen.Generator
	synth     voice.Synthesizer // nil disables narration
	cfg       Config
	logger    *zap.Logger

	units *lru.Cache[unitKey, *unitgen.ReviewUnit]
	audio *lru.Cache[string, []byte]

	// group coalesces concurrent external calls per batch or clip.
	group singleflight.Group

	// mu guards one-time AudioRef attachment on cached units.
	mu sync.Mutex
}

// New creates a Cache. synth may be nil to disable audio; logger may be
// nil to disable logging.
func New(generator unitgen.Generator, synth voice.Synthesizer, cfg Config, logger *zap.Logger) (*Cache, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.PrefetchWindow <= 0 {
		cfg.PrefetchWindow = DefaultConfig().PrefetchWindow
	}
	if cfg.UnitCapacity < cfg.PrefetchWindow {
		cfg.UnitCapacity = DefaultConfig().UnitCapacity
	}
	if cfg.AudioCapacity <= 0 {
		cfg.AudioCapacity = DefaultConfig().AudioCapacity
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultConfig().CallTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	units, err := lru.New[unitKey, *unitgen.ReviewUnit](cfg.UnitCapacity)
	if err != nil {
		return nil, fmt.Errorf("unit cache: %w", err)
	}
	audio, err := lru.New[string, []byte](cfg.AudioCapacity)
	if err != nil {
		return nil, fmt.Errorf("audio cache: %w", err)
	}

	return &Cache{
		generator: generator,
		synth:     synth,
		cfg:       cfg,
		logger:    logger,
		units:     units,
		audio:     audio,
	}, nil
}

// GetOrGenerate returns the unit at (topic, difficulty, index), invoking
// the generator for the whole batch covering index on a miss. The batch
// runs on a detached context so it completes and populates the cache
// even if the caller goes away; ctx only bounds how long this caller
// waits.
func (c *Cache) GetOrGenerate(ctx context.Context, topic string, difficulty pacing.Difficulty, index int) (*unitgen.ReviewUnit, error) {
	if index < 0 {
		return nil, fmt.Errorf("negative unit index %d", index)
	}

	key := unitKey{topic: topic, difficulty: difficulty, index: index}
	if u, ok := c.units.Get(key); ok {
		return u, nil
	}

	start := index - index%c.cfg.PrefetchWindow
	flightKey := fmt.Sprintf("units|%s|%s|%d", topic, difficulty, start)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		// Another waiter on this flight may have filled the batch
		// between our miss and the flight starting.
		if _, ok := c.units.Get(key); ok {
			return nil, nil
		}

		genCtx, cancel := context.WithTimeout(context.Background(), c.cfg.CallTimeout)
		defer cancel()

		units, err := c.generator.Generate(genCtx, unitgen.GenerateInput{
			Topic:      topic,
			Difficulty: difficulty,
			StartIndex: start,
			Count:      c.cfg.PrefetchWindow,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrGenerationUnavailable, err)
		}

		for _, u := range units {
			c.units.Add(unitKey{topic: topic, difficulty: difficulty, index: u.Index}, u)
		}
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
	}

	u, ok := c.units.Get(key)
	if !ok {
		// The generator succeeded but returned fewer units than asked:
		// the topic has nothing at this index.
		return nil, ErrTopicExhausted
	}
	return u, nil
}

// Prefetch generates the batch covering index in the background.
// Failures are logged and swallowed; speculative work never fails a
// session operation.
func (c *Cache) Prefetch(topic string, difficulty pacing.Difficulty, index int) {
	if index < 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CallTimeout)
		defer cancel()

		if _, err := c.GetOrGenerate(ctx, topic, difficulty, index); err != nil {
			c.logger.Debug("prefetch failed",
				zap.String("topic", topic),
				zap.Int("index", index),
				zap.Error(err))
		}
	}()
}

// GetOrSynthesize returns an audio reference for the unit's narration,
// synthesizing and caching the clip on a miss. The clip is keyed by a
// hash of the narration text, so units with identical text share audio.
// On success the ref is attached to the unit; attachment happens once
// and later calls see the same ref.
func (c *Cache) GetOrSynthesize(ctx context.Context, u *unitgen.ReviewUnit) (string, error) {
	if c.synth == nil {
		return "", fmt.Errorf("%w: no speech provider configured", ErrSynthesisUnavailable)
	}

	text := unitgen.Narration(u)
	ref := audioRef(text)

	if _, ok := c.audio.Get(ref); ok {
		c.attachRef(u, ref)
		return ref, nil
	}

	ch := c.group.DoChan("audio|"+ref, func() (any, error) {
		if _, ok := c.audio.Get(ref); ok {
			return nil, nil
		}

		synthCtx, cancel := context.WithTimeout(context.Background(), c.cfg.CallTimeout)
		defer cancel()

		// One attempt only: narration is an enhancement, not worth a
		// retry budget.
		clip, err := c.synth.Synthesize(synthCtx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrSynthesisUnavailable, err)
		}
		c.audio.Add(ref, clip.Data)
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
	}

	c.attachRef(u, ref)
	return ref, nil
}

// AudioData returns the cached audio bytes for a ref, if still cached.
func (c *Cache) AudioData(ref string) ([]byte, bool) {
	return c.audio.Get(ref)
}

// attachRef sets the unit's audio ref once. The ref is derived from the
// unit's own text, so every caller computes the same value; first write
// wins and the unit is otherwise immutable.
func (c *Cache) attachRef(u *unitgen.ReviewUnit, ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u.AudioRef == "" {
		u.AudioRef = ref
	}
}

// audioRef hashes narration text into a stable cache key.
func audioRef(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
