package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/paceguard/internal/models"
)

// InsertVerdict appends a progression verdict and returns its ID.
func (db *DB) InsertVerdict(ctx context.Context, athleteID uuid.UUID, p models.WeeklyVolumeProposal, v models.ProgressionVerdict) (uuid.UUID, error) {
	checks, err := json.Marshal(v.Checks)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshaling rule checks: %w", err)
	}
	id := uuid.New()
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO progression_verdicts (id, athlete_id, previous_km, proposed_km, accepted, safe_km,
			rule_name, risk_level, rationale, checks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, athleteID, p.PreviousKm, p.ProposedKm, v.Accepted, v.SafeKm,
		string(v.RuleName), string(v.RiskLevel), v.Rationale, checks)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting progression verdict: %w", err)
	}
	return id, nil
}

// InsertPlan appends an adaptation plan. feedbackID may be uuid.Nil.
func (db *DB) InsertPlan(ctx context.Context, athleteID, feedbackID uuid.UUID, rule string, plan models.AdaptationPlan) (uuid.UUID, error) {
	var fbRef *uuid.UUID
	if feedbackID != uuid.Nil {
		fbRef = &feedbackID
	}
	id := uuid.New()
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO adaptation_plans (id, athlete_id, feedback_id, trigger_rule, action, severity,
			pace_delta_sec, volume_delta_km, recovery_days, reasoning, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, id, athleteID, fbRef, rule, string(plan.Action), string(plan.Severity),
		plan.PaceDeltaSec, plan.VolumeDeltaKm, plan.RecoveryDaysSuggested, plan.Reasoning, string(plan.Source))
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting adaptation plan: %w", err)
	}
	return id, nil
}
