package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks malformed or out-of-domain input. Callers check it with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Tier is an athlete's experience level.
type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
	TierElite        Tier = "elite"
)

var tierMap = map[string]Tier{
	"beginner":     TierBeginner,
	"novice":       TierBeginner,
	"intermediate": TierIntermediate,
	"advanced":     TierAdvanced,
	"elite":        TierElite,
}

// ParseTier maps a case-insensitive tier name to its canonical value.
func ParseTier(raw string) (Tier, error) {
	if t, ok := tierMap[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, raw)
}

// Valid reports whether t is one of the four known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierBeginner, TierIntermediate, TierAdvanced, TierElite:
		return true
	}
	return false
}

// PersonalBest is a recorded race result.
type PersonalBest struct {
	DistanceKm  float64 `json:"distance_km" yaml:"distance_km"`
	TimeSeconds int     `json:"time_seconds" yaml:"time_seconds"`
}

// FitnessProfile is supplied per computation and never mutated by the core.
type FitnessProfile struct {
	Tier                Tier     `json:"tier" yaml:"tier"`
	TrainingDaysPerWeek int      `json:"training_days_per_week" yaml:"training_days_per_week"`
	InjuryTags          []string `json:"injury_tags,omitempty" yaml:"injury_tags"`
	GoalDistanceKm      float64  `json:"goal_distance_km" yaml:"goal_distance_km"`
	GoalTimeSeconds     int      `json:"goal_time_seconds" yaml:"goal_time_seconds"`
}

// HasInjury reports whether any non-blank injury tag is present.
func (p FitnessProfile) HasInjury() bool {
	for _, tag := range p.InjuryTags {
		if strings.TrimSpace(tag) != "" {
			return true
		}
	}
	return false
}

// PaceZoneSet holds the six training zones in seconds per km.
// Ordering: Recovery >= Easy >= MarathonEquiv >= Threshold >= Interval >= Repetition.
type PaceZoneSet struct {
	Recovery      int `json:"recovery"`
	Easy          int `json:"easy"`
	MarathonEquiv int `json:"marathon_equiv"`
	Threshold     int `json:"threshold"`
	Interval      int `json:"interval"`
	Repetition    int `json:"repetition"`
}
