package pacing

import (
	"testing"
	"time"
)

func TestTimeBudget_GameBaseByDifficulty(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name       string
		difficulty Difficulty
		want       time.Duration
	}{
		{"easy", DifficultyEasy, 15 * time.Second},
		{"medium", DifficultyMedium, 30 * time.Second},
		{"hard", DifficultyHard, 45 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.TimeBudget(ModeGame, tt.difficulty, 0); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTimeBudget_ShrinksWithStreak(t *testing.T) {
	p := DefaultPolicy()

	b0 := p.TimeBudget(ModeGame, DifficultyMedium, 0)
	b3 := p.TimeBudget(ModeGame, DifficultyMedium, 3)
	if b3 >= b0 {
		t.Fatalf("budget should shrink with streak: streak 0 = %s, streak 3 = %s", b0, b3)
	}
	if b3 != 24*time.Second {
		t.Fatalf("expected 24s at streak 3, got %s", b3)
	}
}

func TestTimeBudget_FlooredAtMinimum(t *testing.T) {
	p := DefaultPolicy()

	got := p.TimeBudget(ModeGame, DifficultyEasy, 100)
	if got != p.MinBudget {
		t.Fatalf("expected floor %s, got %s", p.MinBudget, got)
	}
}

func TestTimeBudget_ReviewUnbounded(t *testing.T) {
	p := DefaultPolicy()

	if got := p.TimeBudget(ModeReview, DifficultyHard, 0); got != 0 {
		t.Fatalf("review mode should be unbounded, got %s", got)
	}
}

func TestTimeBudget_NegativeStreakTreatedAsZero(t *testing.T) {
	p := DefaultPolicy()

	if got := p.TimeBudget(ModeGame, DifficultyMedium, -5); got != p.BudgetMedium {
		t.Fatalf("expected base budget %s, got %s", p.BudgetMedium, got)
	}
}

func TestScoreDelta_FasterScoresMore(t *testing.T) {
	p := DefaultPolicy()
	budget := 10 * time.Second

	fast := p.ScoreDelta(ModeGame, true, 0, budget)
	slow := p.ScoreDelta(ModeGame, true, 9*time.Second, budget)

	if fast <= slow {
		t.Fatalf("instant answer (%d) should outscore slow answer (%d)", fast, slow)
	}
	if slow < 0 {
		t.Fatalf("slow correct answer should not be negative, got %d", slow)
	}
	if fast != p.BasePoints+p.BonusPoints {
		t.Fatalf("instant answer should earn max %d, got %d", p.BasePoints+p.BonusPoints, fast)
	}
}

func TestScoreDelta_IncorrectScoresZero(t *testing.T) {
	p := DefaultPolicy()

	if got := p.ScoreDelta(ModeGame, false, 0, 10*time.Second); got != 0 {
		t.Fatalf("incorrect answer should score 0, got %d", got)
	}
}

func TestScoreDelta_ReviewAlwaysZero(t *testing.T) {
	p := DefaultPolicy()

	cases := []struct {
		correct bool
		elapsed time.Duration
	}{
		{true, 0},
		{true, time.Minute},
		{false, 0},
	}
	for _, c := range cases {
		if got := p.ScoreDelta(ModeReview, c.correct, c.elapsed, 10*time.Second); got != 0 {
			t.Fatalf("review mode scored %d for correct=%t elapsed=%s", got, c.correct, c.elapsed)
		}
	}
}

func TestScoreDelta_OverBudgetStillBase(t *testing.T) {
	p := DefaultPolicy()

	// Elapsed past the budget clamps the bonus to zero but keeps the base.
	got := p.ScoreDelta(ModeGame, true, 20*time.Second, 10*time.Second)
	if got != p.BasePoints {
		t.Fatalf("expected base %d, got %d", p.BasePoints, got)
	}
}

func TestScoreDelta_Deterministic(t *testing.T) {
	p := DefaultPolicy()

	first := p.ScoreDelta(ModeGame, true, 4*time.Second, 10*time.Second)
	for range 10 {
		if got := p.ScoreDelta(ModeGame, true, 4*time.Second, 10*time.Second); got != first {
			t.Fatalf("non-deterministic score: %d then %d", first, got)
		}
	}
}

func TestIsExpired(t *testing.T) {
	p := DefaultPolicy()
	budget := 10 * time.Second

	tests := []struct {
		name    string
		mode    Mode
		elapsed time.Duration
		budget  time.Duration
		want    bool
	}{
		{"game within budget", ModeGame, 5 * time.Second, budget, false},
		{"game at budget", ModeGame, budget, budget, true},
		{"game past budget", ModeGame, 15 * time.Second, budget, true},
		{"review never expires", ModeReview, time.Hour, budget, false},
		{"zero budget never expires", ModeGame, time.Hour, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsExpired(tt.mode, tt.elapsed, tt.budget); got != tt.want {
				t.Fatalf("expected %t, got %t", tt.want, got)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if m, ok := ParseMode("review"); !ok || m != ModeReview {
		t.Fatalf("expected review, got %q ok=%t", m, ok)
	}
	if m, ok := ParseMode("arcade"); ok || m != ModeGame {
		t.Fatalf("expected fallback to game, got %q ok=%t", m, ok)
	}
}

func TestParseDifficulty(t *testing.T) {
	if d, ok := ParseDifficulty("hard"); !ok || d != DifficultyHard {
		t.Fatalf("expected hard, got %q ok=%t", d, ok)
	}
	if d, ok := ParseDifficulty("impossible"); ok || d != DifficultyMedium {
		t.Fatalf("expected fallback to medium, got %q ok=%t", d, ok)
	}
}
