package adapt

import "github.com/claude/paceguard/internal/models"

// ClassifySeverity grades a session from RPE, difficulty and feeling only.
func ClassifySeverity(fb models.SessionFeedback) models.Severity {
	rpe := models.ClampScale(fb.RPE)
	difficulty := models.ClampScale(fb.Difficulty)
	switch {
	case rpe >= 9 || difficulty >= 9 || fb.Feeling == models.FeelingTerrible:
		return models.SeverityHigh
	case rpe >= 7 || difficulty >= 7 || fb.Feeling == models.FeelingBad:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
