package coach

import (
	"fmt"

	"github.com/claude/paceguard/internal/adapt"
	"github.com/claude/paceguard/internal/models"
)

// Seconds resolves the goal time, preferring the string form.
func (g GoalInput) Seconds() (int, error) {
	if g.GoalTime != "" {
		return models.ParseDuration(g.GoalTime)
	}
	if g.GoalTimeSeconds <= 0 {
		return 0, fmt.Errorf("%w: goal time is required", models.ErrInvalidInput)
	}
	return g.GoalTimeSeconds, nil
}

// ParseBests resolves string times into seconds.
func ParseBests(in []BestInput) ([]models.PersonalBest, error) {
	bests := make([]models.PersonalBest, 0, len(in))
	for i, b := range in {
		secs := b.TimeSeconds
		if b.Time != "" {
			var err error
			if secs, err = models.ParseDuration(b.Time); err != nil {
				return nil, fmt.Errorf("personal best %d: %w", i, err)
			}
		}
		bests = append(bests, models.PersonalBest{DistanceKm: b.DistanceKm, TimeSeconds: secs})
	}
	return bests, nil
}

// NormalizeProfile canonicalizes the tier name.
func NormalizeProfile(p models.FitnessProfile) (models.FitnessProfile, error) {
	tier, err := models.ParseTier(string(p.Tier))
	if err != nil {
		return p, err
	}
	p.Tier = tier
	return p, nil
}

// NormalizeFeedback canonicalizes enums, parses string paces and validates the result.
func NormalizeFeedback(in FeedbackInput) (models.SessionFeedback, error) {
	fb := in.SessionFeedback
	var err error
	if fb.Completion, err = models.ParseCompletion(string(fb.Completion)); err != nil {
		return fb, err
	}
	if fb.Feeling, err = models.ParseFeeling(string(fb.Feeling)); err != nil {
		return fb, err
	}
	if in.PlannedPace != "" {
		p, err := models.ParsePace(in.PlannedPace)
		if err != nil {
			return fb, fmt.Errorf("planned pace: %w", err)
		}
		fb.PlannedPaceSecPerKm = &p
	}
	if in.ActualPace != "" {
		p, err := models.ParsePace(in.ActualPace)
		if err != nil {
			return fb, fmt.Errorf("actual pace: %w", err)
		}
		fb.ActualPaceSecPerKm = &p
	}
	fb.RPE = models.ClampScale(fb.RPE)
	fb.Difficulty = models.ClampScale(fb.Difficulty)
	if err := adapt.ValidateFeedback(fb); err != nil {
		return fb, err
	}
	return fb, nil
}

// FormatZones renders each zone as "m:ss".
func FormatZones(z models.PaceZoneSet) map[string]string {
	return map[string]string{
		"recovery":       models.FormatPace(z.Recovery),
		"easy":           models.FormatPace(z.Easy),
		"marathon_equiv": models.FormatPace(z.MarathonEquiv),
		"threshold":      models.FormatPace(z.Threshold),
		"interval":       models.FormatPace(z.Interval),
		"repetition":     models.FormatPace(z.Repetition),
	}
}
