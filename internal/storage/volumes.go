package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// volumeHistoryWeeks is how many recent weeks feed a proposal.
const volumeHistoryWeeks = 8

// currentVolumeTolerance is the relative spread within which consecutive weeks
// count as the same volume.
const currentVolumeTolerance = 0.10

// VolumeState is the history-derived half of a weekly volume proposal.
type VolumeState struct {
	PreviousKm           float64   `json:"previous_km"`
	WeeksAtCurrentVolume int       `json:"weeks_at_current_volume"`
	RecentFourWeekKm     []float64 `json:"recent_four_week_km"`
}

// RecordWeeklyVolume stores the completed distance for the week starting weekStart.
func (db *DB) RecordWeeklyVolume(ctx context.Context, athleteID uuid.UUID, weekStart time.Time, km float64) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO weekly_volumes (athlete_id, week_start, km)
		VALUES ($1, $2, $3)
		ON CONFLICT (athlete_id, week_start) DO UPDATE SET km = EXCLUDED.km
	`, athleteID, weekStart, km)
	if err != nil {
		return fmt.Errorf("recording weekly volume: %w", err)
	}
	return nil
}

// VolumeState loads recent weekly volumes and derives the proposal history fields.
func (db *DB) VolumeState(ctx context.Context, athleteID uuid.UUID) (VolumeState, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT km FROM weekly_volumes
		WHERE athlete_id = $1
		ORDER BY week_start DESC
		LIMIT $2
	`, athleteID, volumeHistoryWeeks)
	if err != nil {
		return VolumeState{}, fmt.Errorf("querying weekly volumes: %w", err)
	}
	defer rows.Close()

	var newestFirst []float64
	for rows.Next() {
		var km float64
		if err := rows.Scan(&km); err != nil {
			return VolumeState{}, fmt.Errorf("scanning weekly volume: %w", err)
		}
		newestFirst = append(newestFirst, km)
	}
	if err := rows.Err(); err != nil {
		return VolumeState{}, err
	}

	weeks := make([]float64, len(newestFirst))
	for i, km := range newestFirst {
		weeks[len(weeks)-1-i] = km
	}
	return volumeState(weeks), nil
}

// volumeState derives proposal history from weekly volumes ordered oldest to newest.
func volumeState(weeks []float64) VolumeState {
	if len(weeks) == 0 {
		return VolumeState{RecentFourWeekKm: []float64{}}
	}
	latest := weeks[len(weeks)-1]

	streak := 0
	for i := len(weeks) - 1; i >= 0; i-- {
		if !sameVolume(weeks[i], latest) {
			break
		}
		streak++
	}

	start := max(0, len(weeks)-4)
	recent := append([]float64(nil), weeks[start:]...)
	return VolumeState{
		PreviousKm:           latest,
		WeeksAtCurrentVolume: streak,
		RecentFourWeekKm:     recent,
	}
}

func sameVolume(km, reference float64) bool {
	if reference == 0 {
		return km == 0
	}
	return math.Abs(km-reference)/reference <= currentVolumeTolerance
}
