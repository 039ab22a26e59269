package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/paceguard/internal/models"
)

// InsertFeedback stores a session report and returns its ID.
func (db *DB) InsertFeedback(ctx context.Context, athleteID uuid.UUID, fb models.SessionFeedback) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO session_feedback (id, athlete_id, completion, rpe, difficulty, feeling, notes,
			session_kind, planned_pace_sec_per_km, actual_pace_sec_per_km, week_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, id, athleteID, string(fb.Completion), fb.RPE, fb.Difficulty, string(fb.Feeling), fb.Notes,
		fb.SessionKind, fb.PlannedPaceSecPerKm, fb.ActualPaceSecPerKm, fb.WeekNumber)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting session feedback: %w", err)
	}
	return id, nil
}

// RecentFeedback returns up to limit of the athlete's latest reports, oldest first.
func (db *DB) RecentFeedback(ctx context.Context, athleteID uuid.UUID, limit int) ([]models.SessionFeedback, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT completion, rpe, difficulty, feeling, notes, session_kind,
			planned_pace_sec_per_km, actual_pace_sec_per_km, week_number
		FROM (
			SELECT * FROM session_feedback
			WHERE athlete_id = $1
			ORDER BY recorded_at DESC
			LIMIT $2
		) recent
		ORDER BY recorded_at ASC
	`, athleteID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying session feedback: %w", err)
	}
	defer rows.Close()

	var history []models.SessionFeedback
	for rows.Next() {
		var (
			fb                  models.SessionFeedback
			completion, feeling string
		)
		if err := rows.Scan(&completion, &fb.RPE, &fb.Difficulty, &feeling, &fb.Notes, &fb.SessionKind,
			&fb.PlannedPaceSecPerKm, &fb.ActualPaceSecPerKm, &fb.WeekNumber); err != nil {
			return nil, fmt.Errorf("scanning session feedback: %w", err)
		}
		fb.Completion = models.Completion(completion)
		fb.Feeling = models.Feeling(feeling)
		history = append(history, fb)
	}
	return history, rows.Err()
}
