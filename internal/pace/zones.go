package pace

import (
	"fmt"
	"math"
	"strings"

	"github.com/claude/paceguard/internal/models"
)

// Fixed offsets from adjusted race pace, seconds per km. Positive is slower.
const (
	recoveryOffset   = 75
	easyOffset       = 50
	marathonOffset   = -5
	thresholdOffset  = -20
	intervalOffset   = -35
	repetitionOffset = -55
)

// Valid band for any session pace, seconds per km.
const (
	MinSessionPace = 150
	MaxSessionPace = 720
)

var tierZoneFactor = map[models.Tier]float64{
	models.TierBeginner:     1.10,
	models.TierIntermediate: 1.00,
	models.TierAdvanced:     0.95,
	models.TierElite:        0.90,
}

var tierSessionOffset = map[models.Tier]float64{
	models.TierBeginner:     15,
	models.TierIntermediate: 0,
	models.TierAdvanced:     -5,
	models.TierElite:        -10,
}

// Zones builds the six training zones around the goal race pace. The offsets are
// fixed and intentionally independent of the fitness score.
func Zones(goalDistanceKm float64, goalTimeSeconds int, tier models.Tier) (models.PaceZoneSet, error) {
	if goalDistanceKm <= 0 {
		return models.PaceZoneSet{}, fmt.Errorf("%w: goal distance must be positive, got %.2f", models.ErrInvalidInput, goalDistanceKm)
	}
	if goalTimeSeconds <= 0 {
		return models.PaceZoneSet{}, fmt.Errorf("%w: goal time must be positive, got %d", models.ErrInvalidInput, goalTimeSeconds)
	}
	factor, ok := tierZoneFactor[tier]
	if !ok {
		return models.PaceZoneSet{}, fmt.Errorf("%w: unknown tier %q", models.ErrInvalidInput, tier)
	}

	race := int(math.Round(float64(goalTimeSeconds) / goalDistanceKm * factor))
	zones := models.PaceZoneSet{
		Recovery:      race + recoveryOffset,
		Easy:          race + easyOffset,
		MarathonEquiv: race + marathonOffset,
		Threshold:     race + thresholdOffset,
		Interval:      race + intervalOffset,
		Repetition:    race + repetitionOffset,
	}
	if zones.Repetition <= 0 {
		return models.PaceZoneSet{}, fmt.Errorf("%w: goal pace %d s/km too fast to build zones", models.ErrInvalidInput, race)
	}
	return zones, nil
}

// SessionRequest describes a planned session. Nil fields mean "not known".
type SessionRequest struct {
	Kind         string   `json:"session_kind"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	AmbientTempC *float64 `json:"ambient_temp_c,omitempty"`
}

// SessionPace is the target pace for one session. Clamped is set when the
// computed pace fell outside [MinSessionPace, MaxSessionPace]; Unclamped then
// holds the raw value so callers can surface a warning.
type SessionPace struct {
	SecondsPerKm int    `json:"seconds_per_km"`
	Pace         string `json:"pace"`
	Zone         string `json:"zone"`
	Clamped      bool   `json:"clamped,omitempty"`
	Unclamped    int    `json:"unclamped,omitempty"`
}

// NormalizeKind lowercases a session kind and folds separators to "-".
func NormalizeKind(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	return strings.NewReplacer("_", "-", " ", "-").Replace(k)
}

// baseZone selects the zone pace and zone name for a session kind.
func baseZone(z models.PaceZoneSet, kind string) (int, string, bool) {
	switch kind {
	case "recovery":
		return z.Recovery, "recovery", true
	case "easy", "progression", "long":
		return z.Easy, "easy", true
	case "marathon", "marathon-pace", "race-pace":
		return z.MarathonEquiv, "marathon_equiv", true
	case "tempo", "threshold", "hill", "hills":
		return z.Threshold, "threshold", true
	case "fartlek":
		return z.Threshold - 10, "threshold", true
	case "interval", "intervals":
		return z.Interval, "interval", true
	case "repetition", "reps":
		return z.Repetition, "repetition", true
	}
	return 0, "", false
}

// longRunPenalty adds 1 s/km per km beyond 15 km, capped at 20 s.
func longRunPenalty(distanceKm float64) float64 {
	if distanceKm <= 15 {
		return 0
	}
	return math.Min(20, distanceKm-15)
}

// temperaturePenalty slows the pace away from the 12 °C optimum.
func temperaturePenalty(tempC float64) float64 {
	const optimum, band = 12.0, 4.0
	switch {
	case tempC < -5:
		return 20
	case tempC > 25:
		return math.Min(30, 10+2*(tempC-25))
	case math.Abs(tempC-optimum) <= band:
		return 0
	default:
		return math.Abs(tempC-optimum) - band
	}
}

// ForSession returns the target pace for a session of the given kind.
func ForSession(zones models.PaceZoneSet, req SessionRequest, tier models.Tier) (SessionPace, error) {
	tierOffset, ok := tierSessionOffset[tier]
	if !ok {
		return SessionPace{}, fmt.Errorf("%w: unknown tier %q", models.ErrInvalidInput, tier)
	}
	if zones.Repetition <= 0 {
		return SessionPace{}, fmt.Errorf("%w: zone set has non-positive paces", models.ErrInvalidInput)
	}

	kind := NormalizeKind(req.Kind)
	base, zone, ok := baseZone(zones, kind)
	if !ok {
		return SessionPace{}, fmt.Errorf("%w: unknown session kind %q", models.ErrInvalidInput, req.Kind)
	}

	secs := float64(base)
	if req.DistanceKm != nil {
		if *req.DistanceKm <= 0 {
			return SessionPace{}, fmt.Errorf("%w: session distance must be positive, got %.2f", models.ErrInvalidInput, *req.DistanceKm)
		}
		if kind == "long" {
			secs += longRunPenalty(*req.DistanceKm)
		}
	}
	if req.AmbientTempC != nil {
		secs += temperaturePenalty(*req.AmbientTempC)
	}
	secs += tierOffset

	raw := int(math.Round(secs))
	out := SessionPace{SecondsPerKm: raw, Zone: zone}
	if raw < MinSessionPace || raw > MaxSessionPace {
		out.Clamped = true
		out.Unclamped = raw
		out.SecondsPerKm = int(clamp(float64(raw), MinSessionPace, MaxSessionPace))
	}
	out.Pace = models.FormatPace(out.SecondsPerKm)
	return out, nil
}
