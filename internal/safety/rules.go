package safety

import (
	"fmt"

	"github.com/claude/paceguard/internal/models"
)

// epsilon absorbs float error so a proposal equal to a returned cap always passes.
const epsilon = 1e-9

// Percentage limits per tier: normal, and with any injury tag.
var percentageLimits = map[models.Tier][2]float64{
	models.TierBeginner:     {0.10, 0.08},
	models.TierIntermediate: {0.15, 0.10},
	models.TierAdvanced:     {0.20, 0.12},
	models.TierElite:        {0.20, 0.12},
}

const (
	acwrWindow       = 4
	acwrOptimalLow   = 0.8
	acwrOptimalHigh  = 1.3
	acwrDangerRatio  = 1.5
	equilibriumWeeks = 3
	unadaptedFactor  = 0.7
)

type rule struct {
	name  models.RuleName
	check func(models.WeeklyVolumeProposal, models.FitnessProfile) models.RuleCheck
}

// rules run in this order; each is independent of the others.
var rules = []rule{
	{models.RulePercentage, checkPercentage},
	{models.RuleEquilibrium, checkEquilibrium},
	{models.RuleACWR, checkACWR},
	{models.RuleRaceBand, checkRaceBand},
}

func checkPercentage(p models.WeeklyVolumeProposal, profile models.FitnessProfile) models.RuleCheck {
	rc := models.RuleCheck{Rule: models.RulePercentage}
	if p.ProposedKm <= p.PreviousKm {
		rc.Status = models.CheckPass
		rc.Detail = "no increase"
		return rc
	}
	if p.PreviousKm <= 0 {
		rc.Status = models.CheckInsufficientData
		rc.Detail = "no previous volume to compare against"
		return rc
	}

	limits := percentageLimits[profile.Tier]
	limit := limits[0]
	if profile.HasInjury() {
		limit = limits[1]
	}
	increase := (p.ProposedKm - p.PreviousKm) / p.PreviousKm
	capKm := p.PreviousKm * (1 + limit)
	if p.ProposedKm > capKm+epsilon {
		rc.Status = models.CheckFail
		rc.CapKm = capKm
		rc.Detail = fmt.Sprintf("%.0f%% increase exceeds %.0f%% limit for %s", increase*100, limit*100, profile.Tier)
		return rc
	}
	rc.Status = models.CheckPass
	rc.Detail = fmt.Sprintf("%.0f%% increase within %.0f%% limit", increase*100, limit*100)
	return rc
}

func checkEquilibrium(p models.WeeklyVolumeProposal, profile models.FitnessProfile) models.RuleCheck {
	rc := models.RuleCheck{Rule: models.RuleEquilibrium}
	increase := p.ProposedKm - p.PreviousKm
	if increase <= 0 {
		rc.Status = models.CheckPass
		rc.Detail = "no increase"
		return rc
	}

	allowed := float64(profile.TrainingDaysPerWeek)
	if p.WeeksAtCurrentVolume < equilibriumWeeks {
		allowed *= unadaptedFactor
	}
	capKm := p.PreviousKm + allowed
	if p.ProposedKm > capKm+epsilon {
		rc.Status = models.CheckFail
		rc.CapKm = capKm
		rc.Detail = fmt.Sprintf("+%.1f km exceeds +%.1f km allowed after %d week(s) at current volume", increase, allowed, p.WeeksAtCurrentVolume)
		return rc
	}
	rc.Status = models.CheckPass
	rc.Detail = fmt.Sprintf("+%.1f km within +%.1f km allowed", increase, allowed)
	return rc
}

func checkACWR(p models.WeeklyVolumeProposal, _ models.FitnessProfile) models.RuleCheck {
	rc := models.RuleCheck{Rule: models.RuleACWR}
	if len(p.RecentFourWeekKm) < acwrWindow {
		rc.Status = models.CheckInsufficientData
		rc.Detail = fmt.Sprintf("%d of %d weeks of history", len(p.RecentFourWeekKm), acwrWindow)
		return rc
	}

	window := p.RecentFourWeekKm[len(p.RecentFourWeekKm)-acwrWindow:]
	var sum float64
	for _, km := range window {
		sum += km
	}
	chronic := sum / acwrWindow
	if chronic <= 0 {
		rc.Status = models.CheckInsufficientData
		rc.Detail = "no chronic load in history"
		return rc
	}

	ratio := p.ProposedKm / chronic
	switch {
	case ratio > acwrDangerRatio:
		rc.Status = models.CheckFail
		rc.CapKm = chronic * acwrOptimalHigh
		rc.Detail = fmt.Sprintf("ratio %.2f above %.1f (chronic %.1f km)", ratio, acwrDangerRatio, chronic)
	case ratio > acwrOptimalHigh:
		rc.Status = models.CheckCaution
		rc.Detail = fmt.Sprintf("ratio %.2f above optimal band, overreaching risk", ratio)
	case ratio < acwrOptimalLow:
		rc.Status = models.CheckCaution
		rc.Detail = fmt.Sprintf("ratio %.2f below optimal band, detraining risk", ratio)
	default:
		rc.Status = models.CheckPass
		rc.Detail = fmt.Sprintf("ratio %.2f in optimal band", ratio)
	}
	return rc
}

func checkRaceBand(p models.WeeklyVolumeProposal, profile models.FitnessProfile) models.RuleCheck {
	rc := models.RuleCheck{Rule: models.RuleRaceBand}
	if profile.GoalDistanceKm <= 0 {
		rc.Status = models.CheckInsufficientData
		rc.Detail = "no goal race"
		return rc
	}
	band, ok := BandFor(profile.GoalDistanceKm, profile.Tier)
	if !ok {
		rc.Status = models.CheckInsufficientData
		rc.Detail = "no band for tier"
		return rc
	}

	category := CategoryFor(profile.GoalDistanceKm)
	switch {
	case p.ProposedKm > band.MaxKm+epsilon:
		rc.Status = models.CheckFail
		rc.CapKm = band.MaxKm
		rc.Detail = fmt.Sprintf("%.1f km above %s/%s max %.0f km", p.ProposedKm, category, profile.Tier, band.MaxKm)
	case p.ProposedKm > band.OptimalKm+epsilon:
		rc.Status = models.CheckCaution
		rc.Detail = fmt.Sprintf("%.1f km above %s/%s optimal %.0f km", p.ProposedKm, category, profile.Tier, band.OptimalKm)
	default:
		rc.Status = models.CheckPass
		rc.Detail = fmt.Sprintf("within %s/%s band %.0f-%.0f km", category, profile.Tier, band.MinKm, band.MaxKm)
	}
	return rc
}
