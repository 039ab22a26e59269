package models

import (
	"fmt"
	"strings"
)

// Completion describes how much of a planned session was done.
type Completion string

const (
	CompletionCompleted  Completion = "completed"
	CompletionIncomplete Completion = "incomplete"
	CompletionPartial    Completion = "partial"
)

// Feeling is the athlete's self-reported state after a session.
type Feeling string

const (
	FeelingTerrible Feeling = "terrible"
	FeelingBad      Feeling = "bad"
	FeelingOk       Feeling = "ok"
	FeelingGood     Feeling = "good"
	FeelingGreat    Feeling = "great"
)

var completionMap = map[string]Completion{
	"completed":  CompletionCompleted,
	"complete":   CompletionCompleted,
	"incomplete": CompletionIncomplete,
	"partial":    CompletionPartial,
}

var feelingMap = map[string]Feeling{
	"terrible": FeelingTerrible,
	"bad":      FeelingBad,
	"ok":       FeelingOk,
	"okay":     FeelingOk,
	"good":     FeelingGood,
	"great":    FeelingGreat,
}

// ParseCompletion maps a case-insensitive completion name to its canonical value.
func ParseCompletion(raw string) (Completion, error) {
	if c, ok := completionMap[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown completion %q", ErrInvalidInput, raw)
}

// ParseFeeling maps a case-insensitive feeling name to its canonical value.
func ParseFeeling(raw string) (Feeling, error) {
	if f, ok := feelingMap[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown feeling %q", ErrInvalidInput, raw)
}

// SessionFeedback is one workout's subjective and objective report.
type SessionFeedback struct {
	Completion          Completion `json:"completion" yaml:"completion"`
	RPE                 int        `json:"rpe" yaml:"rpe"`
	Difficulty          int        `json:"difficulty" yaml:"difficulty"`
	Feeling             Feeling    `json:"feeling" yaml:"feeling"`
	Notes               string     `json:"notes,omitempty" yaml:"notes"`
	SessionKind         string     `json:"session_kind" yaml:"session_kind"`
	PlannedPaceSecPerKm *int       `json:"planned_pace_sec_per_km,omitempty" yaml:"planned_pace_sec_per_km"`
	ActualPaceSecPerKm  *int       `json:"actual_pace_sec_per_km,omitempty" yaml:"actual_pace_sec_per_km"`
	WeekNumber          int        `json:"week_number" yaml:"week_number"`
}

// ClampScale clamps an RPE or difficulty rating to [1, 10].
func ClampScale(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

// Action is the direction of a plan adaptation.
type Action string

const (
	ActionIncrease Action = "increase"
	ActionDecrease Action = "decrease"
	ActionMaintain Action = "maintain"
)

// Severity grades how strongly a session calls for adaptation.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// PlanSource records which path produced an AdaptationPlan.
type PlanSource string

const (
	SourceReasoned PlanSource = "reasoned"
	SourceFallback PlanSource = "fallback"
)

// AdaptationPlan is the structured adjustment to the forward plan.
type AdaptationPlan struct {
	Action                Action     `json:"action"`
	Severity              Severity   `json:"severity"`
	PaceDeltaSec          int        `json:"pace_delta_sec"`
	VolumeDeltaKm         float64    `json:"volume_delta_km"`
	RecoveryDaysSuggested int        `json:"recovery_days_suggested"`
	Reasoning             string     `json:"reasoning"`
	Source                PlanSource `json:"source"`
}
