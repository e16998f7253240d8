package history

import (
	"context"
	"fmt"
	"time"
)

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO answer_events (
			sequence, timestamp, session_id, topic, unit_index,
			question, expected_answer, given_answer,
			correct, expired, score_delta, time_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().Unix(), data.SessionID, data.Topic, data.UnitIndex,
		data.Question, data.ExpectedAnswer, data.GivenAnswer,
		boolToInt(data.Correct), boolToInt(data.Expired), data.ScoreDelta, data.TimeMs,
	)
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

// SessionAnswers returns every answer recorded for one session, oldest
// first.
func (r *eventRepo) SessionAnswers(ctx context.Context, sessionID string) ([]*AnswerEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, timestamp, session_id, topic, unit_index,
			question, expected_answer, given_answer,
			correct, expired, score_delta, time_ms
		FROM answer_events
		WHERE session_id = ?
		ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session answers: %w", err)
	}
	defer rows.Close()

	var answers []*AnswerEvent
	for rows.Next() {
		var a AnswerEvent
		var ts int64
		var correct, expired int
		err := rows.Scan(
			&a.ID, &ts, &a.SessionID, &a.Topic, &a.UnitIndex,
			&a.Question, &a.ExpectedAnswer, &a.GivenAnswer,
			&correct, &expired, &a.ScoreDelta, &a.TimeMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		a.Timestamp = time.Unix(ts, 0)
		a.Correct = correct != 0
		a.Expired = expired != 0
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}

// AllTopicStats aggregates answer outcomes per topic, joined with the
// session count and best closing score recorded for that topic.
func (r *eventRepo) AllTopicStats(ctx context.Context) ([]TopicStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.topic,
			COUNT(DISTINCT a.session_id),
			COUNT(*),
			SUM(a.correct),
			COALESCE((SELECT MAX(score) FROM session_events WHERE topic = a.topic), 0)
		FROM answer_events a
		GROUP BY a.topic
		ORDER BY a.topic`)
	if err != nil {
		return nil, fmt.Errorf("query topic stats: %w", err)
	}
	defer rows.Close()

	var stats []TopicStats
	for rows.Next() {
		var s TopicStats
		if err := rows.Scan(&s.Topic, &s.Sessions, &s.Answers, &s.Correct, &s.BestScore); err != nil {
			return nil, fmt.Errorf("scan topic stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
