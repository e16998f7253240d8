package unitcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cramblehq/cramble/internal/pacing"
	"github.com/cramblehq/cramble/internal/unitgen"
	"github.com/cramblehq/cramble/internal/voice"
)

// funcGenerator counts calls and delegates to fn.
type funcGenerator struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, input unitgen.GenerateInput) ([]*unitgen.ReviewUnit, error)
}

func (g *funcGenerator) Generate(ctx context.Context, input unitgen.GenerateInput) ([]*unitgen.ReviewUnit, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return g.fn(ctx, input)
}

func (g *funcGenerator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// makeUnits fills the requested range up to total units.
func makeUnits(input unitgen.GenerateInput, total int) []*unitgen.ReviewUnit {
	var units []*unitgen.ReviewUnit
	for i := input.StartIndex; i < input.StartIndex+input.Count && i < total; i++ {
		units = append(units, &unitgen.ReviewUnit{
			Index:      i,
			Question:   fmt.Sprintf("question %d", i),
			Answer:     fmt.Sprintf("answer %d", i),
			Difficulty: input.Difficulty,
		})
	}
	return units
}

func boundlessGenerator() *funcGenerator {
	return &funcGenerator{fn: func(_ context.Context, input unitgen.GenerateInput) ([]*unitgen.ReviewUnit, error) {
		return makeUnits(input, 1<<30), nil
	}}
}

func newTestCache(t *testing.T, gen unitgen.Generator, synth voice.Synthesizer, cfg Config) *Cache {
	t.Helper()
	c, err := New(gen, synth, cfg, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestGetOrGenerate_BatchFill(t *testing.T) {
	gen := boundlessGenerator()
	c := newTestCache(t, gen, nil, DefaultConfig())
	ctx := context.Background()

	u, err := c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyMedium, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Index)
	assert.Equal(t, "question 0", u.Question)

	// The whole batch is cached: indices 1-4 need no further call.
	for i := 1; i < 5; i++ {
		u, err := c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyMedium, i)
		require.NoError(t, err)
		assert.Equal(t, i, u.Index)
	}
	assert.Equal(t, 1, gen.CallCount())

	// Index 5 starts the next aligned batch.
	_, err = c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyMedium, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.CallCount())
}

func TestGetOrGenerate_Idempotent(t *testing.T) {
	gen := boundlessGenerator()
	c := newTestCache(t, gen, nil, DefaultConfig())
	ctx := context.Background()

	u1, err := c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyMedium, 2)
	require.NoError(t, err)
	u2, err := c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyMedium, 2)
	require.NoError(t, err)

	assert.Same(t, u1, u2)
	assert.Equal(t, 1, gen.CallCount())
}

func TestGetOrGenerate_KeysIncludeDifficulty(t *testing.T) {
	gen := boundlessGenerator()
	c := newTestCache(t, gen, nil, DefaultConfig())
	ctx := context.Background()

	_, err := c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyEasy, 0)
	require.NoError(t, err)
	_, err = c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyHard, 0)
	require.NoError(t, err)

	// Different difficulties are distinct cache entries.
	assert.Equal(t, 2, gen.CallCount())
}

func TestGetOrGenerate_CoalescesConcurrent(t *testing.T) {
	release := make(chan struct{})
	gen := &funcGenerator{fn: func(_ context.Context, input unitgen.GenerateInput) ([]*unitgen.ReviewUnit, error) {
		<-release
		return makeUnits(input, 100), nil
	}}
	c := newTestCache(t, gen, nil, DefaultConfig())

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// All indices fall in the same aligned batch.
			_, errs[n] = c.GetOrGenerate(context.Background(), "photosynthesis", pacing.DifficultyMedium, n%5)
		}(i)
	}

	// Let the workers converge on the single flight, then release it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}
	assert.Equal(t, 1, gen.CallCount())
}

func TestGetOrGenerate_ProviderFailure(t *testing.T) {
	gen := &funcGenerator{fn: func(context.Context, unitgen.GenerateInput) ([]*unitgen.ReviewUnit, error) {
		return nil, errors.New("provider down")
	}}
	c := newTestCache(t, gen, nil, DefaultConfig())

	_, err := c.GetOrGenerate(context.Background(), "photosynthesis", pacing.DifficultyMedium, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestGetOrGenerate_TopicExhausted(t *testing.T) {
	// Topic has only 3 units.
	gen := &funcGenerator{fn: func(_ context.Context, input unitgen.GenerateInput) ([]*unitgen.ReviewUnit, error) {
		return makeUnits(input, 3), nil
	}}
	c := newTestCache(t, gen, nil, DefaultConfig())
	ctx := context.Background()

	// Units 0-2 exist.
	for i := 0; i < 3; i++ {
		_, err := c.GetOrGenerate(ctx, "tiny topic", pacing.DifficultyMedium, i)
		require.NoError(t, err)
	}

	// Unit 3 does not.
	_, err := c.GetOrGenerate(ctx, "tiny topic", pacing.DifficultyMedium, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTopicExhausted)
}

func TestGetOrGenerate_NegativeIndex(t *testing.T) {
	c := newTestCache(t, boundlessGenerator(), nil, DefaultConfig())

	_, err := c.GetOrGenerate(context.Background(), "photosynthesis", pacing.DifficultyMedium, -1)
	require.Error(t, err)
}

func TestGetOrGenerate_CallerCancelDoesNotCancelFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	gen := &funcGenerator{fn: func(_ context.Context, input unitgen.GenerateInput) ([]*unitgen.ReviewUnit, error) {
		close(started)
		<-release
		return makeUnits(input, 100), nil
	}}
	c := newTestCache(t, gen, nil, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	// The canceled caller detaches without killing the flight.
	_, err := c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyMedium, 0)
	require.ErrorIs(t, err, context.Canceled)

	close(release)

	// The flight completes and populates the cache.
	require.Eventually(t, func() bool {
		return c.units.Len() > 0
	}, 2*time.Second, 10*time.Millisecond)

	u, err := c.GetOrGenerate(context.Background(), "photosynthesis", pacing.DifficultyMedium, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Index)
	assert.Equal(t, 1, gen.CallCount())
}

func TestGetOrGenerate_RefetchAfterEviction(t *testing.T) {
	gen := boundlessGenerator()
	cfg := DefaultConfig()
	cfg.PrefetchWindow = 2
	cfg.UnitCapacity = 2
	c := newTestCache(t, gen, nil, cfg)
	ctx := context.Background()

	_, err := c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyMedium, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.CallCount())

	// Next batch evicts units 0-1.
	_, err = c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyMedium, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.CallCount())

	// Unit 0 must be regenerated.
	u, err := c.GetOrGenerate(ctx, "photosynthesis", pacing.DifficultyMedium, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Index)
	assert.Equal(t, 3, gen.CallCount())
}

func TestPrefetch(t *testing.T) {
	gen := boundlessGenerator()
	c := newTestCache(t, gen, nil, DefaultConfig())

	c.Prefetch("photosynthesis", pacing.DifficultyMedium, 5)

	require.Eventually(t, func() bool {
		return c.units.Len() >= 5
	}, 2*time.Second, 10*time.Millisecond)

	// The prefetched batch serves without another call.
	_, err := c.GetOrGenerate(context.Background(), "photosynthesis", pacing.DifficultyMedium, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, gen.CallCount())
}

func TestPrefetch_FailureIsSwallowed(t *testing.T) {
	gen := &funcGenerator{fn: func(context.Context, unitgen.GenerateInput) ([]*unitgen.ReviewUnit, error) {
		return nil, errors.New("provider down")
	}}
	c := newTestCache(t, gen, nil, DefaultConfig())

	// Must not panic or surface anywhere.
	c.Prefetch("photosynthesis", pacing.DifficultyMedium, 0)

	require.Eventually(t, func() bool {
		return gen.CallCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetOrSynthesize(t *testing.T) {
	synth := voice.NewMockSynthesizer()
	c := newTestCache(t, boundlessGenerator(), synth, DefaultConfig())
	ctx := context.Background()

	u := &unitgen.ReviewUnit{
		Context:  "Plants convert light into chemical energy.",
		Question: "What do plants need?",
		Answer:   "Water and sunlight",
	}

	ref, err := c.GetOrSynthesize(ctx, u)
	require.NoError(t, err)
	assert.Len(t, ref, 64) // sha256 hex
	assert.Equal(t, ref, u.AudioRef)

	data, ok := c.AudioData(ref)
	require.True(t, ok)
	assert.Equal(t, []byte("mock-audio"), data)

	// Second call is a cache hit with the same ref.
	ref2, err := c.GetOrSynthesize(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, ref, ref2)
	assert.Equal(t, 1, synth.CallCount())
}

func TestGetOrSynthesize_SharedByText(t *testing.T) {
	synth := voice.NewMockSynthesizer()
	c := newTestCache(t, boundlessGenerator(), synth, DefaultConfig())
	ctx := context.Background()

	u1 := &unitgen.ReviewUnit{Question: "What is H2O?", Answer: "Water"}
	u2 := &unitgen.ReviewUnit{Question: "What is H2O?", Answer: "Water"}

	ref1, err := c.GetOrSynthesize(ctx, u1)
	require.NoError(t, err)
	ref2, err := c.GetOrSynthesize(ctx, u2)
	require.NoError(t, err)

	assert.Equal(t, ref1, ref2)
	assert.Equal(t, 1, synth.CallCount())
}

func TestGetOrSynthesize_FailureLeavesUnitUntouched(t *testing.T) {
	synth := voice.NewMockSynthesizer()
	synth.Err = errors.New("tts down")
	c := newTestCache(t, boundlessGenerator(), synth, DefaultConfig())

	u := &unitgen.ReviewUnit{Question: "Q?", Answer: "A"}
	_, err := c.GetOrSynthesize(context.Background(), u)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSynthesisUnavailable)
	assert.Empty(t, u.AudioRef)
}

func TestGetOrSynthesize_NoProvider(t *testing.T) {
	c := newTestCache(t, boundlessGenerator(), nil, DefaultConfig())

	u := &unitgen.ReviewUnit{Question: "Q?", Answer: "A"}
	_, err := c.GetOrSynthesize(context.Background(), u)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSynthesisUnavailable)
}
