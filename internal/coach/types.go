package coach

import (
	"github.com/claude/paceguard/internal/adapt"
	"github.com/claude/paceguard/internal/models"
	"github.com/claude/paceguard/internal/pace"
	"github.com/claude/paceguard/internal/safety"
)

// BestInput is a race result given either as seconds or as "h:mm:ss"/"mm:ss".
type BestInput struct {
	DistanceKm  float64 `json:"distance_km"`
	TimeSeconds int     `json:"time_seconds,omitempty"`
	Time        string  `json:"time,omitempty"`
}

// GoalInput is a goal race. GoalTime, when set, takes precedence over GoalTimeSeconds.
type GoalInput struct {
	GoalDistanceKm  float64 `json:"goal_distance_km"`
	GoalTimeSeconds int     `json:"goal_time_seconds,omitempty"`
	GoalTime        string  `json:"goal_time,omitempty"`
}

type FitnessRequest struct {
	Tier          string      `json:"tier"`
	PersonalBests []BestInput `json:"personal_bests"`
}

type FitnessResponse struct {
	Score       pace.Score        `json:"score"`
	Predictions []pace.Prediction `json:"predictions"`
}

type ZonesRequest struct {
	Tier string `json:"tier"`
	GoalInput
}

type ZonesResponse struct {
	Zones     models.PaceZoneSet `json:"zones"`
	Formatted map[string]string  `json:"formatted"`
}

type PaceRequest struct {
	ZonesRequest
	pace.SessionRequest
}

type PaceResponse struct {
	pace.SessionPace
	Zones models.PaceZoneSet `json:"zones"`
}

// PredictRequest predicts one distance, or the standard distances when DistanceKm is 0.
type PredictRequest struct {
	Score      float64 `json:"score"`
	DistanceKm float64 `json:"distance_km,omitempty"`
}

type PredictResponse struct {
	Predictions []pace.Prediction `json:"predictions"`
}

type VolumeRequest struct {
	Proposal models.WeeklyVolumeProposal `json:"proposal"`
	Profile  models.FitnessProfile       `json:"profile"`
}

type BatchRequest struct {
	Items []safety.BatchItem `json:"items"`
}

type BatchResponse struct {
	Results []safety.BatchResult `json:"results"`
}

type CutbackResponse struct {
	NeedsCutback bool    `json:"needs_cutback"`
	CutbackKm    float64 `json:"cutback_km"`
}

// FeedbackInput accepts paces as "m:ss" strings alongside the numeric fields.
type FeedbackInput struct {
	models.SessionFeedback
	PlannedPace string `json:"planned_pace,omitempty"`
	ActualPace  string `json:"actual_pace,omitempty"`
}

type FeedbackRequest struct {
	Feedback FeedbackInput            `json:"feedback"`
	History  []models.SessionFeedback `json:"history,omitempty"`
	Profile  models.FitnessProfile    `json:"profile"`
}

// FeedbackResponse wraps a decision with the normalized feedback it was made on.
type FeedbackResponse struct {
	adapt.Decision
	Feedback models.SessionFeedback `json:"feedback"`
}
