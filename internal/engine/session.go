package engine

import (
	"sync"
	"time"

	"github.com/cramblehq/cramble/internal/pacing"
	"github.com/cramblehq/cramble/internal/unitgen"
)

// Session owns one user's traversal of a topic. All mutation happens
// through Engine methods under the session's own lock; sessions are
// independent and never contend with each other.
type Session struct {
	// ID is the UUID for this session.
	ID string

	// Topic is the normalized topic string, fixed at start.
	Topic string

	// Mode selects game or review pacing.
	Mode pacing.Mode

	// Difficulty is the requested difficulty band, fixed at start.
	Difficulty pacing.Difficulty

	mu sync.Mutex

	state State

	// cursor is the index of the unit currently presented.
	cursor int

	// current is the unit at the cursor, nil until fetched.
	current *unitgen.ReviewUnit

	// presentedAt is when the cursor unit was first shown; zero until
	// the first Current call at this cursor.
	presentedAt time.Time

	// submitted is true once an answer was graded at this cursor.
	// Repeat submissions still grade but never score again.
	submitted bool

	score    int
	streak   int
	served   int // units presented so far
	answered int // submissions graded (first per cursor)
	correct  int // submissions graded correct

	startedAt time.Time
	endedAt   time.Time

	// deadline is the fixed game-mode session deadline; zero in review
	// mode.
	deadline time.Time
}

// Presented is the engine's answer to "what should the user see now".
type Presented struct {
	Unit *unitgen.ReviewUnit

	// Budget is the per-unit time budget; 0 in review mode.
	Budget time.Duration

	// Remaining is the time left on the session clock; 0 in review
	// mode.
	Remaining time.Duration

	Cursor int
	Score  int
	Streak int
}

// Feedback is the result of grading one answer submission.
type Feedback struct {
	Correct bool

	// ScoreDelta is the points awarded; always 0 when Expired, on
	// repeat submissions, and in review mode.
	ScoreDelta int

	// Expired signals the unit's time budget had already run out at
	// submission time; the presentation layer should auto-advance.
	Expired bool

	// Expected is the unit's answer, for feedback display.
	Expected string

	Score  int
	Streak int
}

// Progress is a read-only snapshot of a session's state.
type Progress struct {
	SessionID  string
	Topic      string
	Mode       pacing.Mode
	Difficulty pacing.Difficulty
	State      State
	Cursor     int
	Score      int
	Streak     int
	Served     int
	Answered   int
	Correct    int
	Remaining  time.Duration
	StartedAt  time.Time
}
