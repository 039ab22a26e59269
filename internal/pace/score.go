// Package pace turns race history and goals into fitness scores, training-pace
// zones and per-session target paces. All functions are pure.
package pace

import (
	"fmt"
	"math"

	"github.com/claude/paceguard/internal/models"
)

const (
	// DefaultScore is used when no personal bests exist (Beginner-equivalent).
	DefaultScore = 35.0
	MinScore     = 25.0
	MaxScore     = 85.0
)

// Basis records what a Score was derived from.
type Basis string

const (
	BasisPersonalBests Basis = "personal_bests"
	BasisDefault       Basis = "default"
)

// Score is a VDOT-style aerobic fitness estimate.
type Score struct {
	Value float64              `json:"value"`
	Basis Basis                `json:"basis"`
	From  *models.PersonalBest `json:"from,omitempty"`
	Label string               `json:"label"`
}

var tierScoreScalar = map[models.Tier]float64{
	models.TierBeginner:     0.85,
	models.TierIntermediate: 1.0,
	models.TierAdvanced:     1.1,
	models.TierElite:        1.2,
}

// oxygenCost returns ml/kg/min for a velocity in metres per minute.
func oxygenCost(vMetersPerMin float64) float64 {
	return -4.60 + 0.182258*vMetersPerMin + 0.000104*vMetersPerMin*vMetersPerMin
}

// fractionOfMax is the sustainable share of VO2max for an effort lasting the given minutes.
func fractionOfMax(minutes float64) float64 {
	return 0.8 + 0.1894393*math.Exp(-0.012778*minutes) + 0.2989558*math.Exp(-0.1932605*minutes)
}

// rawScore computes the unscaled score for a single race result.
func rawScore(pb models.PersonalBest) float64 {
	metersPerSec := pb.DistanceKm * 1000 / float64(pb.TimeSeconds)
	minutes := float64(pb.TimeSeconds) / 60
	return oxygenCost(metersPerSec*60) / fractionOfMax(minutes)
}

// FitnessScore derives a fitness score from personal bests. The best single
// record wins; records are never averaged. With no records the result is
// DefaultScore with BasisDefault, which is a defined fallback and not an error.
func FitnessScore(bests []models.PersonalBest, tier models.Tier) (Score, error) {
	scalar, ok := tierScoreScalar[tier]
	if !ok {
		return Score{}, fmt.Errorf("%w: unknown tier %q", models.ErrInvalidInput, tier)
	}

	if len(bests) == 0 {
		return Score{Value: DefaultScore, Basis: BasisDefault, Label: Label(DefaultScore)}, nil
	}

	best := math.Inf(-1)
	var from models.PersonalBest
	for i, pb := range bests {
		if pb.DistanceKm <= 0 || pb.TimeSeconds <= 0 {
			return Score{}, fmt.Errorf("%w: personal best %d: distance and time must be positive", models.ErrInvalidInput, i)
		}
		if s := rawScore(pb); s > best {
			best = s
			from = pb
		}
	}

	value := clamp(best*scalar, MinScore, MaxScore)
	return Score{Value: value, Basis: BasisPersonalBests, From: &from, Label: Label(value)}, nil
}

// Label returns a human-readable fitness band for a score.
func Label(score float64) string {
	switch {
	case score >= 75:
		return "Elite"
	case score >= 65:
		return "Highly Competitive"
	case score >= 55:
		return "Competitive"
	case score >= 45:
		return "Advanced Recreational"
	case score >= 38:
		return "Intermediate"
	default:
		return "Beginner"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
