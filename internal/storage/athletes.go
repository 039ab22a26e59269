package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/paceguard/internal/models"
)

// ErrNotFound is returned when an athlete does not exist.
var ErrNotFound = errors.New("athlete not found")

// UpsertProfile creates or replaces an athlete's fitness profile.
func (db *DB) UpsertProfile(ctx context.Context, athleteID uuid.UUID, p models.FitnessProfile) error {
	tags := p.InjuryTags
	if tags == nil {
		tags = []string{}
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO athletes (id, tier, training_days_per_week, injury_tags, goal_distance_km, goal_time_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			tier = EXCLUDED.tier,
			training_days_per_week = EXCLUDED.training_days_per_week,
			injury_tags = EXCLUDED.injury_tags,
			goal_distance_km = EXCLUDED.goal_distance_km,
			goal_time_seconds = EXCLUDED.goal_time_seconds,
			updated_at = NOW()
	`, athleteID, string(p.Tier), p.TrainingDaysPerWeek, tags, p.GoalDistanceKm, p.GoalTimeSeconds)
	if err != nil {
		return fmt.Errorf("upserting athlete profile: %w", err)
	}
	return nil
}

// GetProfile loads an athlete's fitness profile.
func (db *DB) GetProfile(ctx context.Context, athleteID uuid.UUID) (*models.FitnessProfile, error) {
	var (
		p    models.FitnessProfile
		tier string
	)
	err := db.Pool.QueryRow(ctx, `
		SELECT tier, training_days_per_week, injury_tags, goal_distance_km, goal_time_seconds
		FROM athletes WHERE id = $1
	`, athleteID).Scan(&tier, &p.TrainingDaysPerWeek, &p.InjuryTags, &p.GoalDistanceKm, &p.GoalTimeSeconds)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying athlete profile: %w", err)
	}
	p.Tier = models.Tier(tier)
	return &p, nil
}

// AddPersonalBests records race results in one transaction. Duplicates are
// ignored. Returns count inserted.
func (db *DB) AddPersonalBests(ctx context.Context, athleteID uuid.UUID, bests []models.PersonalBest) (int64, error) {
	var inserted int64
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		for _, pb := range bests {
			tag, err := tx.Exec(ctx, `
				INSERT INTO personal_bests (athlete_id, distance_km, time_seconds)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING
			`, athleteID, pb.DistanceKm, pb.TimeSeconds)
			if err != nil {
				return fmt.Errorf("inserting personal best: %w", err)
			}
			inserted += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// PersonalBests returns every recorded result for an athlete.
func (db *DB) PersonalBests(ctx context.Context, athleteID uuid.UUID) ([]models.PersonalBest, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT distance_km, time_seconds FROM personal_bests
		WHERE athlete_id = $1 ORDER BY recorded_at
	`, athleteID)
	if err != nil {
		return nil, fmt.Errorf("querying personal bests: %w", err)
	}
	defer rows.Close()

	var bests []models.PersonalBest
	for rows.Next() {
		var pb models.PersonalBest
		if err := rows.Scan(&pb.DistanceKm, &pb.TimeSeconds); err != nil {
			return nil, fmt.Errorf("scanning personal best: %w", err)
		}
		bests = append(bests, pb)
	}
	return bests, rows.Err()
}
