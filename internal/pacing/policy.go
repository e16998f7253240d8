// Package pacing holds the pure timing and scoring rules for sessions.
// Everything here is deterministic and free of I/O so the rules can be
// tested exhaustively.
package pacing

import "time"

// Mode selects how a session paces and scores its units.
type Mode string

const (
	// ModeGame is the timed, scored speed-run traversal.
	ModeGame Mode = "game"

	// ModeReview is the untimed, unscored traversal, optionally narrated.
	ModeReview Mode = "review"
)

// Difficulty is the requested difficulty band for a topic's units.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseMode converts a string to a Mode, defaulting to ModeGame.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeGame, ModeReview:
		return Mode(s), true
	}
	return ModeGame, false
}

// ParseDifficulty converts a string to a Difficulty, defaulting to medium.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), true
	}
	return DifficultyMedium, false
}

// Policy carries the tunable pacing constants. The zero value is not
// usable; construct with DefaultPolicy and override fields as needed.
type Policy struct {
	// BudgetEasy/Medium/Hard are the per-unit base time budgets in game mode.
	BudgetEasy   time.Duration
	BudgetMedium time.Duration
	BudgetHard   time.Duration

	// StreakDecrement shrinks the budget per consecutive correct answer.
	StreakDecrement time.Duration

	// MinBudget is the floor the budget never shrinks below.
	MinBudget time.Duration

	// BasePoints is awarded for any in-budget correct answer.
	BasePoints int

	// BonusPoints scales with the unused fraction of the budget.
	BonusPoints int
}

// DefaultPolicy returns the standard pacing constants.
func DefaultPolicy() Policy {
	return Policy{
		BudgetEasy:      15 * time.Second,
		BudgetMedium:    30 * time.Second,
		BudgetHard:      45 * time.Second,
		StreakDecrement: 2 * time.Second,
		MinBudget:       10 * time.Second,
		BasePoints:      50,
		BonusPoints:     50,
	}
}

// TimeBudget returns the per-unit time budget. Game mode budgets shrink by
// StreakDecrement per consecutive correct answer, floored at MinBudget.
// Review mode returns 0, meaning unbounded.
func (p Policy) TimeBudget(mode Mode, difficulty Difficulty, streak int) time.Duration {
	if mode != ModeGame {
		return 0
	}

	var base time.Duration
	switch difficulty {
	case DifficultyEasy:
		base = p.BudgetEasy
	case DifficultyHard:
		base = p.BudgetHard
	default:
		base = p.BudgetMedium
	}

	if streak < 0 {
		streak = 0
	}
	budget := base - time.Duration(streak)*p.StreakDecrement
	if budget < p.MinBudget {
		budget = p.MinBudget
	}
	return budget
}

// ScoreDelta returns the score awarded for an answer. Review mode never
// scores. Game mode awards BasePoints plus a speed bonus scaled by the
// unused fraction of the budget; incorrect answers award 0. The result is
// never negative, so session scores only grow.
func (p Policy) ScoreDelta(mode Mode, correct bool, elapsed, budget time.Duration) int {
	if mode != ModeGame || !correct {
		return 0
	}
	if budget <= 0 {
		return p.BasePoints
	}

	ratio := float64(elapsed) / float64(budget)
	remaining := 1 - clamp(ratio, 0, 1)
	return p.BasePoints + int(float64(p.BonusPoints)*remaining)
}

// IsExpired reports whether the unit's time budget has run out.
// Only game mode expires; a zero budget never does.
func (p Policy) IsExpired(mode Mode, elapsed, budget time.Duration) bool {
	if mode != ModeGame || budget <= 0 {
		return false
	}
	return elapsed >= budget
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
