// Package engine is the session state machine: it turns a topic into a
// running review session, paces unit delivery through the shared cache,
// grades answers, and keeps score.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cramblehq/cramble/internal/grading"
	"github.com/cramblehq/cramble/internal/history"
	"github.com/cramblehq/cramble/internal/pacing"
	"github.com/cramblehq/cramble/internal/unitcache"
	"github.com/cramblehq/cramble/internal/unitgen"
)

// Engine drives many concurrent sessions over one shared unit cache.
type Engine struct {
	cache  *unitcache.Cache
	cfg    Config
	policy pacing.Policy
	grader grading.Grader
	events history.EventRepo // nil disables event recording
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy overrides the default pacing policy.
func WithPolicy(p pacing.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithGrader overrides the default answer grader.
func WithGrader(g grading.Grader) Option {
	return func(e *Engine) { e.grader = g }
}

// WithEventRepo enables session and answer event recording.
func WithEventRepo(repo history.EventRepo) Option {
	return func(e *Engine) { e.events = repo }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// withClock overrides the time source in tests.
func withClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over the given cache.
func New(cache *unitcache.Cache, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.SessionLength <= 0 {
		cfg.SessionLength = def.SessionLength
	}
	if cfg.GameClock <= 0 {
		cfg.GameClock = def.GameClock
	}
	if cfg.PrefetchAhead <= 0 {
		cfg.PrefetchAhead = def.PrefetchAhead
	}

	e := &Engine{
		cache:    cache,
		cfg:      cfg,
		policy:   pacing.DefaultPolicy(),
		grader:   grading.ContainsGrader{},
		logger:   zap.NewNop(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start normalizes the topic, fetches its first unit, and registers a
// new Active session. The first fetch is synchronous so a bad topic or
// an unavailable generator fails here rather than mid-session.
func (e *Engine) Start(ctx context.Context, topic string, mode pacing.Mode, difficulty pacing.Difficulty) (*Session, error) {
	normalized := grading.Normalize(topic)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrTopicRejected)
	}

	s := &Session{
		ID:         uuid.New().String(),
		Topic:      normalized,
		Mode:       mode,
		Difficulty: difficulty,
		state:      StateActive,
		startedAt:  e.now(),
	}
	if mode == pacing.ModeGame {
		s.deadline = s.startedAt.Add(e.cfg.GameClock)
	}

	u, err := e.cache.GetOrGenerate(ctx, s.Topic, s.Difficulty, 0)
	if err != nil {
		return nil, err
	}
	s.current = u

	e.mu.Lock()
	e.sessions[s.ID] = s
	e.mu.Unlock()

	e.logger.Info("session started",
		zap.String("session_id", s.ID),
		zap.String("topic", s.Topic),
		zap.String("mode", string(s.Mode)),
		zap.String("difficulty", string(s.Difficulty)))

	e.recordSession(s, "started")
	e.cache.Prefetch(s.Topic, s.Difficulty, e.cfg.PrefetchAhead)

	return s, nil
}

// Current returns the unit at the session's cursor, stamping its
// presentation time on first sight and warming the cache ahead of the
// cursor. In review mode it also requests narration; synthesis failures
// are logged and never surface.
func (e *Engine) Current(ctx context.Context, sessionID string) (*Presented, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return nil, transitionErr(s.state, "present a unit in")
	}

	u, err := e.ensureCurrent(ctx, s)
	if err != nil {
		return nil, err
	}

	if s.Mode == pacing.ModeReview && u.AudioRef == "" {
		if _, err := e.cache.GetOrSynthesize(ctx, u); err != nil {
			e.logger.Warn("narration unavailable, continuing text-only",
				zap.String("session_id", s.ID),
				zap.Int("index", u.Index),
				zap.Error(err))
		}
	}

	e.cache.Prefetch(s.Topic, s.Difficulty, s.cursor+e.cfg.PrefetchAhead)

	return &Presented{
		Unit:      u,
		Budget:    e.policy.TimeBudget(s.Mode, u.Difficulty, s.streak),
		Remaining: e.remaining(s),
		Cursor:    s.cursor,
		Score:     s.score,
		Streak:    s.streak,
	}, nil
}

// SubmitAnswer grades the answer against the cursor unit. Only the
// first submission per unit scores and counts; repeats still grade so
// the presentation layer can re-show feedback. An expired budget forces
// ScoreDelta to 0 but correctness is still reported.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, answer string) (*Feedback, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return nil, transitionErr(s.state, "submit an answer to")
	}

	u, err := e.ensureCurrent(ctx, s)
	if err != nil {
		return nil, err
	}

	now := e.now()
	elapsed := now.Sub(s.presentedAt)
	budget := e.policy.TimeBudget(s.Mode, u.Difficulty, s.streak)

	expired := e.policy.IsExpired(s.Mode, elapsed, budget)
	if !s.deadline.IsZero() && now.After(s.deadline) {
		expired = true
	}

	correct := e.grader.Grade(u.Answer, answer)

	fb := &Feedback{
		Correct:  correct,
		Expired:  expired,
		Expected: u.Answer,
	}

	if s.submitted {
		fb.Score = s.score
		fb.Streak = s.streak
		return fb, nil
	}
	s.submitted = true
	s.answered++
	if correct {
		s.correct++
	}

	switch {
	case expired:
		s.streak = 0
	case correct:
		fb.ScoreDelta = e.policy.ScoreDelta(s.Mode, true, elapsed, budget)
		s.score += fb.ScoreDelta
		s.streak++
	default:
		s.streak = 0
	}

	fb.Score = s.score
	fb.Streak = s.streak

	e.recordAnswer(s, u, answer, correct, expired, fb.ScoreDelta, elapsed)

	return fb, nil
}

// Advance moves the cursor to the next unit. It returns done=true and
// completes the session when the configured length is reached, the
// game clock has run out, or the topic's material runs out. A
// generator failure leaves the session exactly where it was.
func (e *Engine) Advance(ctx context.Context, sessionID string) (bool, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return false, transitionErr(s.state, "advance")
	}

	if !s.deadline.IsZero() && e.now().After(s.deadline) {
		e.complete(s)
		return true, nil
	}

	next := s.cursor + 1
	if next >= e.cfg.SessionLength {
		s.cursor = next
		e.complete(s)
		return true, nil
	}

	u, err := e.cache.GetOrGenerate(ctx, s.Topic, s.Difficulty, next)
	if errors.Is(err, unitcache.ErrTopicExhausted) {
		s.cursor = next
		e.complete(s)
		return true, nil
	}
	if err != nil {
		return false, err
	}

	s.cursor = next
	s.current = u
	s.presentedAt = time.Time{}
	s.submitted = false

	e.cache.Prefetch(s.Topic, s.Difficulty, next+e.cfg.PrefetchAhead)

	return false, nil
}

// Pause suspends an Active session. The wall clock keeps running: a
// game-mode deadline is fixed at start and pausing does not stretch it.
func (e *Engine) Pause(sessionID string) error {
	s, err := e.session(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return transitionErr(s.state, "pause")
	}
	s.state = StatePaused
	e.recordSession(s, "paused")
	return nil
}

// Resume reactivates a Paused session.
func (e *Engine) Resume(sessionID string) error {
	s, err := e.session(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePaused {
		return transitionErr(s.state, "resume")
	}
	s.state = StateActive
	e.recordSession(s, "resumed")
	return nil
}

// Abandon ends a session from any non-terminal state. Safe to call
// while a prefetch is in flight; the flight completes and its units
// stay cached for other sessions.
func (e *Engine) Abandon(sessionID string) error {
	s, err := e.session(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return transitionErr(s.state, "abandon")
	}
	s.state = StateAbandoned
	s.endedAt = e.now()

	e.logger.Info("session abandoned",
		zap.String("session_id", s.ID),
		zap.Int("score", s.score))

	e.recordSession(s, "abandoned")
	return nil
}

// Snapshot returns a read-only view of a session's progress.
func (e *Engine) Snapshot(sessionID string) (*Progress, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return &Progress{
		SessionID:  s.ID,
		Topic:      s.Topic,
		Mode:       s.Mode,
		Difficulty: s.Difficulty,
		State:      s.state,
		Cursor:     s.cursor,
		Score:      s.score,
		Streak:     s.streak,
		Served:     s.served,
		Answered:   s.answered,
		Correct:    s.correct,
		Remaining:  e.remaining(s),
		StartedAt:  s.startedAt,
	}, nil
}

// AudioData returns cached audio bytes for a ref handed out on a unit.
func (e *Engine) AudioData(ref string) ([]byte, bool) {
	return e.cache.AudioData(ref)
}

// ensureCurrent returns the unit at the cursor, fetching it through the
// cache if needed. The presentation clock starts the first time the
// cursor unit is seen. Callers hold s.mu.
func (e *Engine) ensureCurrent(ctx context.Context, s *Session) (*unitgen.ReviewUnit, error) {
	if s.current == nil {
		u, err := e.cache.GetOrGenerate(ctx, s.Topic, s.Difficulty, s.cursor)
		if err != nil {
			return nil, err
		}
		s.current = u
	}
	if s.presentedAt.IsZero() {
		s.presentedAt = e.now()
		s.served++
	}
	return s.current, nil
}

// complete transitions to Completed and records the closing event.
// Callers hold s.mu.
func (e *Engine) complete(s *Session) {
	s.state = StateCompleted
	s.endedAt = e.now()

	e.logger.Info("session completed",
		zap.String("session_id", s.ID),
		zap.String("topic", s.Topic),
		zap.Int("score", s.score),
		zap.Int("answered", s.answered),
		zap.Int("correct", s.correct))

	e.recordSession(s, "completed")
}

// remaining reports time left on the session clock. Callers hold s.mu.
func (e *Engine) remaining(s *Session) time.Duration {
	if s.deadline.IsZero() {
		return 0
	}
	r := s.deadline.Sub(e.now())
	if r < 0 {
		return 0
	}
	return r
}

func (e *Engine) session(id string) (*Session, error) {
	e.mu.RLock()
	s, ok := e.sessions[id]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// recordSession appends a lifecycle event. Recording is best-effort:
// failures are logged, never surfaced. Callers hold s.mu.
func (e *Engine) recordSession(s *Session, action string) {
	if e.events == nil {
		return
	}

	var duration int
	end := s.endedAt
	if end.IsZero() {
		end = e.now()
	}
	duration = int(end.Sub(s.startedAt).Seconds())

	err := e.events.AppendSessionEvent(context.Background(), history.SessionEventData{
		SessionID:      s.ID,
		Topic:          s.Topic,
		Mode:           string(s.Mode),
		Difficulty:     string(s.Difficulty),
		Action:         action,
		UnitsServed:    s.served,
		CorrectAnswers: s.correct,
		Score:          s.score,
		DurationSecs:   duration,
	})
	if err != nil {
		e.logger.Warn("failed to record session event",
			zap.String("session_id", s.ID),
			zap.String("action", action),
			zap.Error(err))
	}
}

// recordAnswer appends a graded submission. Best-effort, like
// recordSession. Callers hold s.mu.
func (e *Engine) recordAnswer(s *Session, u *unitgen.ReviewUnit, answer string, correct, expired bool, delta int, elapsed time.Duration) {
	if e.events == nil {
		return
	}

	err := e.events.AppendAnswerEvent(context.Background(), history.AnswerEventData{
		SessionID:      s.ID,
		Topic:          s.Topic,
		UnitIndex:      u.Index,
		Question:       u.Question,
		ExpectedAnswer: u.Answer,
		GivenAnswer:    answer,
		Correct:        correct,
		Expired:        expired,
		ScoreDelta:     delta,
		TimeMs:         elapsed.Milliseconds(),
	})
	if err != nil {
		e.logger.Warn("failed to record answer event",
			zap.String("session_id", s.ID),
			zap.Int("index", u.Index),
			zap.Error(err))
	}
}

func transitionErr(from State, op string) error {
	return fmt.Errorf("%w: cannot %s a %s session", ErrInvalidTransition, op, from)
}
