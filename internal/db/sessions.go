package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/posture.report/internal/session"
)

// ErrSessionNotFound is returned by GetSession for an unknown id.
var ErrSessionNotFound = errors.New("session not found")

// SessionRecord is the list view of a stored session.
type SessionRecord struct {
	SessionID       string           `json:"session_id"`
	Activity        string           `json:"activity"`
	Kind            string           `json:"kind"`
	StartedAt       time.Time        `json:"started_at"`
	DurationSeconds float64          `json:"duration_seconds"`
	Frames          int              `json:"frames"`
	UsableFrames    int              `json:"usable_frames"`
	Reps            int              `json:"reps"`
	BestAccuracy    float64          `json:"best_accuracy"`
	AvgAccuracy     float64          `json:"avg_accuracy"`
	BreathingScore  float64          `json:"breathing_score"`
	Degenerate      bool             `json:"degenerate"`
	Metrics         []session.Metric `json:"metrics,omitempty"`
}

// SessionFilter narrows ListSessions. Zero values match everything.
type SessionFilter struct {
	Activity string
	Since    time.Time
	Limit    int
}

const defaultSessionLimit = 100

// SaveSummary stores s and its metrics. Saving the same session again
// replaces the earlier row.
func (db *DB) SaveSummary(ctx context.Context, s session.Summary) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	return retryOnBusy(func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO sessions (
				session_id, activity, kind, started_at, duration_seconds,
				frames, usable_frames, reps, best_accuracy, avg_accuracy,
				breathing_score, degenerate, summary_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.SessionID, s.Activity, string(s.Kind), s.StartedAt.UnixNano(), s.DurationSeconds,
			s.Frames, s.UsableFrames, s.Reps, s.BestAccuracy, s.AvgAccuracy,
			s.BreathingScore, s.Degenerate, string(blob),
		); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM session_metrics WHERE session_id = ?`, s.SessionID); err != nil {
			return err
		}
		for _, m := range s.Metrics {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_metrics (session_id, name, percent) VALUES (?, ?, ?)`,
				s.SessionID, m.Name, m.Percent,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// ListSessions returns stored sessions, newest first.
func (db *DB) ListSessions(ctx context.Context, f SessionFilter) ([]SessionRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Activity != "" {
		where = append(where, "activity = ?")
		args = append(args, f.Activity)
	}
	if !f.Since.IsZero() {
		where = append(where, "started_at >= ?")
		args = append(args, f.Since.UnixNano())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultSessionLimit
	}

	q := `SELECT session_id, activity, kind, started_at, duration_seconds,
			frames, usable_frames, reps, best_accuracy, avg_accuracy,
			breathing_score, degenerate
		FROM sessions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var (
			r       SessionRecord
			started int64
		)
		if err := rows.Scan(
			&r.SessionID, &r.Activity, &r.Kind, &started, &r.DurationSeconds,
			&r.Frames, &r.UsableFrames, &r.Reps, &r.BestAccuracy, &r.AvgAccuracy,
			&r.BreathingScore, &r.Degenerate,
		); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(0, started).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// Metrics are loaded after the cursor is closed; the pool holds a
	// single connection.
	for i := range records {
		ms, err := db.sessionMetrics(ctx, records[i].SessionID)
		if err != nil {
			return nil, err
		}
		records[i].Metrics = ms
	}
	return records, nil
}

func (db *DB) sessionMetrics(ctx context.Context, id string) ([]session.Metric, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, percent FROM session_metrics WHERE session_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics for %s: %w", id, err)
	}
	defer rows.Close()

	var ms []session.Metric
	for rows.Next() {
		var m session.Metric
		if err := rows.Scan(&m.Name, &m.Percent); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}

// GetSession returns the full stored summary, timeline included.
func (db *DB) GetSession(ctx context.Context, id string) (session.Summary, error) {
	var blob string
	err := db.QueryRowContext(ctx, `SELECT summary_json FROM sessions WHERE session_id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Summary{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return session.Summary{}, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	var s session.Summary
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return session.Summary{}, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return s, nil
}

// DeleteSession removes a session and its metrics.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	return retryOnBusy(func() error {
		res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil
	})
}
