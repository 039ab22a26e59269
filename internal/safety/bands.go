package safety

import "github.com/claude/paceguard/internal/models"

// RaceCategory buckets a goal distance for the weekly-volume band table.
type RaceCategory string

const (
	Race5K       RaceCategory = "5k"
	Race10K      RaceCategory = "10k"
	RaceHalf     RaceCategory = "half_marathon"
	RaceMarathon RaceCategory = "marathon"
)

// Band is a recommended weekly volume range in km.
type Band struct {
	MinKm     float64 `json:"min_km"`
	MaxKm     float64 `json:"max_km"`
	OptimalKm float64 `json:"optimal_km"`
}

// CategoryFor maps a goal distance to its race category.
func CategoryFor(goalDistanceKm float64) RaceCategory {
	switch {
	case goalDistanceKm <= 5.5:
		return Race5K
	case goalDistanceKm <= 12:
		return Race10K
	case goalDistanceKm <= 25:
		return RaceHalf
	default:
		return RaceMarathon
	}
}

var raceBands = map[RaceCategory]map[models.Tier]Band{
	Race5K: {
		models.TierBeginner:     {15, 25, 20},
		models.TierIntermediate: {25, 40, 32},
		models.TierAdvanced:     {40, 60, 50},
		models.TierElite:        {60, 90, 75},
	},
	Race10K: {
		models.TierBeginner:     {20, 32, 26},
		models.TierIntermediate: {28, 42, 35},
		models.TierAdvanced:     {45, 65, 55},
		models.TierElite:        {70, 100, 85},
	},
	RaceHalf: {
		models.TierBeginner:     {25, 35, 30},
		models.TierIntermediate: {30, 45, 38},
		models.TierAdvanced:     {50, 70, 60},
		models.TierElite:        {80, 120, 100},
	},
	RaceMarathon: {
		models.TierBeginner:     {35, 50, 42},
		models.TierIntermediate: {45, 65, 55},
		models.TierAdvanced:     {65, 90, 78},
		models.TierElite:        {100, 160, 130},
	},
}

// BandFor returns the weekly volume band for a goal distance and tier.
func BandFor(goalDistanceKm float64, tier models.Tier) (Band, bool) {
	b, ok := raceBands[CategoryFor(goalDistanceKm)][tier]
	return b, ok
}
