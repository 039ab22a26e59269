package pace

import (
	"fmt"
	"math"

	"github.com/claude/paceguard/internal/models"
)

// raceFraction is the share of the score sustainable over a race distance.
func raceFraction(distanceKm float64) float64 {
	switch {
	case distanceKm <= 5:
		return 0.98
	case distanceKm <= 10:
		return 0.94
	case distanceKm <= 21.1:
		return 0.88
	case distanceKm <= 42.2:
		return 0.83
	default:
		return 0.80
	}
}

// velocityForCost inverts oxygenCost, returning metres per minute.
func velocityForCost(vo2 float64) float64 {
	const a, b = 0.000104, 0.182258
	c := -4.60 - vo2
	return (-b + math.Sqrt(b*b-4*a*c)) / (2 * a)
}

// PredictTime estimates a finish time in seconds for distanceKm at the given score.
func PredictTime(score, distanceKm float64) (int, error) {
	if score <= 0 {
		return 0, fmt.Errorf("%w: score must be positive, got %.2f", models.ErrInvalidInput, score)
	}
	if distanceKm <= 0 {
		return 0, fmt.Errorf("%w: distance must be positive, got %.2f", models.ErrInvalidInput, distanceKm)
	}

	v := velocityForCost(score * raceFraction(distanceKm))
	if v <= 0 || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: no positive velocity for score %.2f", models.ErrInvalidInput, score)
	}
	return int(math.Round(distanceKm * 1000 / v * 60)), nil
}

// Prediction is a predicted finish for a named distance.
type Prediction struct {
	Name        string  `json:"name"`
	DistanceKm  float64 `json:"distance_km"`
	TimeSeconds int     `json:"time_seconds"`
	Time        string  `json:"time"`
	Pace        string  `json:"pace"`
}

// StandardDistances are the race distances PredictStandard reports.
var StandardDistances = []struct {
	Name       string
	DistanceKm float64
}{
	{"5k", 5},
	{"10k", 10},
	{"half", 21.0975},
	{"marathon", 42.195},
}

// PredictStandard predicts finishes for the common race distances.
func PredictStandard(score float64) ([]Prediction, error) {
	out := make([]Prediction, 0, len(StandardDistances))
	for _, d := range StandardDistances {
		secs, err := PredictTime(score, d.DistanceKm)
		if err != nil {
			return nil, err
		}
		out = append(out, Prediction{
			Name:        d.Name,
			DistanceKm:  d.DistanceKm,
			TimeSeconds: secs,
			Time:        models.FormatDuration(secs),
			Pace:        models.FormatPace(int(math.Round(float64(secs) / d.DistanceKm))),
		})
	}
	return out, nil
}
