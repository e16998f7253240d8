package history

import (
	"context"
	"database/sql"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = default of 50)
	After   int64  // sequence > After
	Purpose string // filter LLM events by purpose
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID           int
	Sequence     int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// PurposeUsage aggregates LLM token usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM token usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// SessionEventData captures a session lifecycle transition.
type SessionEventData struct {
	SessionID      string
	Topic          string
	Mode           string
	Difficulty     string
	Action         string // "started", "paused", "resumed", "completed", "abandoned"
	UnitsServed    int
	CorrectAnswers int
	Score          int
	DurationSecs   int
}

// SessionSummary is the latest recorded state of one session.
type SessionSummary struct {
	SessionID      string
	Topic          string
	Mode           string
	Difficulty     string
	Action         string
	UnitsServed    int
	CorrectAnswers int
	Score          int
	DurationSecs   int
	Timestamp      time.Time
}

// AnswerEventData captures a single graded answer submission.
type AnswerEventData struct {
	SessionID      string
	Topic          string
	UnitIndex      int
	Question       string
	ExpectedAnswer string
	GivenAnswer    string
	Correct        bool
	Expired        bool
	ScoreDelta     int
	TimeMs         int64
}

// AnswerEvent is a stored graded answer submission.
type AnswerEvent struct {
	ID             int
	Timestamp      time.Time
	SessionID      string
	Topic          string
	UnitIndex      int
	Question       string
	ExpectedAnswer string
	GivenAnswer    string
	Correct        bool
	Expired        bool
	ScoreDelta     int
	TimeMs         int64
}

// TopicStats aggregates answer outcomes for one topic.
type TopicStats struct {
	Topic     string
	Sessions  int
	Answers   int
	Correct   int
	BestScore int
}

// Accuracy returns the fraction of correct answers, or 0 when no
// answers have been recorded.
func (s TopicStats) Accuracy() float64 {
	if s.Answers == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answers)
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]*LLMEvent, error)

	// GetLLMEvent returns a single LLM event by ID, or nil if absent.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates token usage grouped by purpose.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates token usage grouped by model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// AppendSessionEvent records a session lifecycle transition.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// SessionSummaries returns the latest state per session, newest first.
	SessionSummaries(ctx context.Context, opts QueryOpts) ([]*SessionSummary, error)

	// GetSessionSummary returns the latest state of one session, or nil
	// if the session was never recorded.
	GetSessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error)

	// AppendAnswerEvent records a graded answer submission.
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error

	// SessionAnswers returns a session's answers in submission order.
	SessionAnswers(ctx context.Context, sessionID string) ([]*AnswerEvent, error)

	// AllTopicStats aggregates answer outcomes across all topics.
	AllTopicStats(ctx context.Context) ([]TopicStats, error)
}

// eventRepo implements EventRepo over raw SQL and the global sequence
// counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequence
}

const defaultQueryLimit = 50

func (o QueryOpts) limit() int {
	if o.Limit <= 0 {
		return defaultQueryLimit
	}
	return o.Limit
}
