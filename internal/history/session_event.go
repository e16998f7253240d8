package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO session_events (
			sequence, timestamp, session_id, topic, mode, difficulty,
			action, units_served, correct_answers, score, duration_secs
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().Unix(), data.SessionID, data.Topic, data.Mode,
		data.Difficulty, data.Action, data.UnitsServed, data.CorrectAnswers,
		data.Score, data.DurationSecs,
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

// SessionSummaries returns the latest recorded event per session, newest
// first. A session's final "completed" or "abandoned" event carries its
// closing score and duration.
func (r *eventRepo) SessionSummaries(ctx context.Context, opts QueryOpts) ([]*SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, topic, mode, difficulty, action,
			units_served, correct_answers, score, duration_secs, timestamp
		FROM session_events se
		WHERE id = (SELECT MAX(id) FROM session_events WHERE session_id = se.session_id)
		ORDER BY id DESC
		LIMIT ?`, opts.limit())
	if err != nil {
		return nil, fmt.Errorf("query session summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*SessionSummary
	for rows.Next() {
		var s SessionSummary
		var ts int64
		err := rows.Scan(
			&s.SessionID, &s.Topic, &s.Mode, &s.Difficulty, &s.Action,
			&s.UnitsServed, &s.CorrectAnswers, &s.Score, &s.DurationSecs, &ts,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		s.Timestamp = time.Unix(ts, 0)
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

func (r *eventRepo) GetSessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT session_id, topic, mode, difficulty, action,
			units_served, correct_answers, score, duration_secs, timestamp
		FROM session_events
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT 1`, sessionID)

	var s SessionSummary
	var ts int64
	err := row.Scan(
		&s.SessionID, &s.Topic, &s.Mode, &s.Difficulty, &s.Action,
		&s.UnitsServed, &s.CorrectAnswers, &s.Score, &s.DurationSecs, &ts,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session summary: %w", err)
	}
	s.Timestamp = time.Unix(ts, 0)
	return &s, nil
}
