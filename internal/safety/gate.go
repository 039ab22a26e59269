// Package safety gates proposed weekly-volume increases against four
// injury-prevention rules and resolves their verdicts into one safe value.
package safety

import (
	"fmt"
	"math"
	"strings"

	"github.com/claude/paceguard/internal/models"
)

// Validate runs every rule against the proposal. When any rule fails, SafeKm is the
// smallest cap among the failing rules and RuleName names the rule that set it.
func Validate(p models.WeeklyVolumeProposal, profile models.FitnessProfile) (models.ProgressionVerdict, error) {
	if err := validateInput(p, profile); err != nil {
		return models.ProgressionVerdict{}, err
	}

	checks := make([]models.RuleCheck, 0, len(rules))
	for _, r := range rules {
		checks = append(checks, r.check(p, profile))
	}

	var (
		failing  []models.RuleCheck
		cautions []models.RuleCheck
	)
	for _, c := range checks {
		switch c.Status {
		case models.CheckFail:
			failing = append(failing, c)
		case models.CheckCaution:
			cautions = append(cautions, c)
		}
	}

	if len(failing) == 0 {
		v := models.ProgressionVerdict{
			Accepted:  true,
			SafeKm:    p.ProposedKm,
			RiskLevel: models.RiskSafe,
			Checks:    checks,
			Rationale: fmt.Sprintf("%.1f km accepted: all checks passed", p.ProposedKm),
		}
		if len(cautions) > 0 {
			v.RiskLevel = models.RiskCaution
			v.RuleName = cautions[0].Rule
			v.Rationale = fmt.Sprintf("%.1f km accepted with caution: %s", p.ProposedKm, joinDetails(cautions))
		}
		return v, nil
	}

	strictest := failing[0]
	for _, c := range failing[1:] {
		if c.CapKm < strictest.CapKm {
			strictest = c
		}
	}
	return models.ProgressionVerdict{
		Accepted:  false,
		SafeKm:    strictest.CapKm,
		RuleName:  strictest.Rule,
		RiskLevel: models.RiskDanger,
		Checks:    checks,
		Rationale: fmt.Sprintf("%.1f km rejected, capped at %.1f km by %s rule: %s",
			p.ProposedKm, strictest.CapKm, strictest.Rule, joinDetails(failing)),
	}, nil
}

func validateInput(p models.WeeklyVolumeProposal, profile models.FitnessProfile) error {
	if !profile.Tier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", models.ErrInvalidInput, profile.Tier)
	}
	if profile.TrainingDaysPerWeek < 1 || profile.TrainingDaysPerWeek > 7 {
		return fmt.Errorf("%w: training days per week must be 1-7, got %d", models.ErrInvalidInput, profile.TrainingDaysPerWeek)
	}
	if !finiteNonNegative(p.PreviousKm) || !finiteNonNegative(p.ProposedKm) {
		return fmt.Errorf("%w: volumes must be non-negative, got previous=%.2f proposed=%.2f", models.ErrInvalidInput, p.PreviousKm, p.ProposedKm)
	}
	if p.WeeksAtCurrentVolume < 0 {
		return fmt.Errorf("%w: weeks at current volume must be non-negative", models.ErrInvalidInput)
	}
	for i, km := range p.RecentFourWeekKm {
		if !finiteNonNegative(km) {
			return fmt.Errorf("%w: history week %d has volume %.2f", models.ErrInvalidInput, i, km)
		}
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func joinDetails(checks []models.RuleCheck) string {
	parts := make([]string, 0, len(checks))
	for _, c := range checks {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.Rule, c.Detail))
	}
	return strings.Join(parts, "; ")
}

// NeedsCutback reports whether a reduced-volume week is due.
func NeedsCutback(weeksAtCurrentVolume int, tier models.Tier) bool {
	if tier == models.TierBeginner {
		return weeksAtCurrentVolume >= 3
	}
	return weeksAtCurrentVolume >= 4
}

// CutbackVolume returns the weekly volume for a cutback week.
func CutbackVolume(currentKm float64, tier models.Tier) float64 {
	if tier == models.TierBeginner {
		return currentKm * 0.75
	}
	return currentKm * 0.80
}
