package safety

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/claude/paceguard/internal/models"
)

func checkFor(t *testing.T, v models.ProgressionVerdict, rule models.RuleName) models.RuleCheck {
	t.Helper()
	for _, c := range v.Checks {
		if c.Rule == rule {
			return c
		}
	}
	t.Fatalf("no %s check in verdict", rule)
	return models.RuleCheck{}
}

// TestValidateBeginnerJump verifies a 30% beginner jump fails both percentage and
// equilibrium rules and resolves to the stricter 22 km cap.
func TestValidateBeginnerJump(t *testing.T) {
	p := models.WeeklyVolumeProposal{PreviousKm: 20, ProposedKm: 26, WeeksAtCurrentVolume: 1}
	profile := models.FitnessProfile{Tier: models.TierBeginner, TrainingDaysPerWeek: 4}

	v, err := Validate(p, profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Accepted {
		t.Fatal("expected rejection")
	}
	if math.Abs(v.SafeKm-22) > 1e-9 {
		t.Errorf("safe_km = %.3f, want 22", v.SafeKm)
	}
	if v.RuleName != models.RulePercentage {
		t.Errorf("rule = %q, want percentage", v.RuleName)
	}
	if v.RiskLevel != models.RiskDanger {
		t.Errorf("risk = %q, want danger", v.RiskLevel)
	}

	eq := checkFor(t, v, models.RuleEquilibrium)
	if eq.Status != models.CheckFail || math.Abs(eq.CapKm-22.8) > 1e-9 {
		t.Errorf("equilibrium = %+v, want fail at 22.8", eq)
	}
	if acwr := checkFor(t, v, models.RuleACWR); acwr.Status != models.CheckInsufficientData {
		t.Errorf("acwr status = %q, want insufficient_data", acwr.Status)
	}
}

// TestACWRSpike verifies a 36 km week after a 21.5 km chronic average fails ACWR
// with a cap of chronic x 1.3.
func TestACWRSpike(t *testing.T) {
	p := models.WeeklyVolumeProposal{PreviousKm: 23, ProposedKm: 36, WeeksAtCurrentVolume: 4, RecentFourWeekKm: []float64{20, 21, 22, 23}}
	c := checkACWR(p, models.FitnessProfile{})
	if c.Status != models.CheckFail {
		t.Fatalf("status = %q, want fail", c.Status)
	}
	if math.Abs(c.CapKm-27.95) > 1e-9 {
		t.Errorf("cap = %.3f, want 27.95", c.CapKm)
	}
}

// TestACWRBands verifies the optimal band passes and the edges only warn.
func TestACWRBands(t *testing.T) {
	hist := []float64{20, 20, 20, 20}
	cases := []struct {
		proposed float64
		want     models.CheckStatus
	}{
		{20, models.CheckPass},
		{26, models.CheckPass},
		{28, models.CheckCaution},
		{30, models.CheckCaution},
		{14, models.CheckCaution},
		{31, models.CheckFail},
	}
	for _, tc := range cases {
		c := checkACWR(models.WeeklyVolumeProposal{ProposedKm: tc.proposed, RecentFourWeekKm: hist}, models.FitnessProfile{})
		if c.Status != tc.want {
			t.Errorf("proposed %.0f: status = %q, want %q", tc.proposed, c.Status, tc.want)
		}
	}
}

// TestACWRUsesLatestFourWeeks verifies only the newest four weeks feed the chronic mean.
func TestACWRUsesLatestFourWeeks(t *testing.T) {
	p := models.WeeklyVolumeProposal{ProposedKm: 40, RecentFourWeekKm: []float64{100, 30, 30, 30, 30}}
	c := checkACWR(p, models.FitnessProfile{})
	if c.Status != models.CheckCaution {
		t.Errorf("status = %q, want caution for ratio 1.33", c.Status)
	}
}

// TestPercentageInjuryLimit verifies injury tags tighten the percentage limit.
func TestPercentageInjuryLimit(t *testing.T) {
	p := models.WeeklyVolumeProposal{PreviousKm: 40, ProposedKm: 45}
	healthy := checkPercentage(p, models.FitnessProfile{Tier: models.TierIntermediate})
	if healthy.Status != models.CheckPass {
		t.Errorf("healthy status = %q, want pass", healthy.Status)
	}
	injured := checkPercentage(p, models.FitnessProfile{Tier: models.TierIntermediate, InjuryTags: []string{"shin splints"}})
	if injured.Status != models.CheckFail || math.Abs(injured.CapKm-44) > 1e-9 {
		t.Errorf("injured = %+v, want fail at 44", injured)
	}
}

// TestEquilibriumAdaptedWeeks verifies the 0.7 tightening only applies before three
// weeks at the current volume.
func TestEquilibriumAdaptedWeeks(t *testing.T) {
	profile := models.FitnessProfile{TrainingDaysPerWeek: 5}
	early := checkEquilibrium(models.WeeklyVolumeProposal{PreviousKm: 30, ProposedKm: 34, WeeksAtCurrentVolume: 2}, profile)
	if early.Status != models.CheckFail || math.Abs(early.CapKm-33.5) > 1e-9 {
		t.Errorf("early = %+v, want fail at 33.5", early)
	}
	adapted := checkEquilibrium(models.WeeklyVolumeProposal{PreviousKm: 30, ProposedKm: 34, WeeksAtCurrentVolume: 3}, profile)
	if adapted.Status != models.CheckPass {
		t.Errorf("adapted status = %q, want pass", adapted.Status)
	}
}

// TestRaceBand verifies the half-marathon intermediate band: optimal 38, max 45.
func TestRaceBand(t *testing.T) {
	profile := models.FitnessProfile{Tier: models.TierIntermediate, GoalDistanceKm: 21.0975}
	cases := []struct {
		proposed float64
		want     models.CheckStatus
	}{
		{35, models.CheckPass},
		{38, models.CheckPass},
		{42, models.CheckCaution},
		{45, models.CheckCaution},
		{48, models.CheckFail},
	}
	for _, tc := range cases {
		c := checkRaceBand(models.WeeklyVolumeProposal{ProposedKm: tc.proposed}, profile)
		if c.Status != tc.want {
			t.Errorf("proposed %.0f: status = %q, want %q", tc.proposed, c.Status, tc.want)
		}
		if c.Status == models.CheckFail && c.CapKm != 45 {
			t.Errorf("cap = %.1f, want 45", c.CapKm)
		}
	}
}

// TestValidateCautionAccepted verifies caution-only outcomes are accepted at the
// proposed volume with a caution risk level.
func TestValidateCautionAccepted(t *testing.T) {
	p := models.WeeklyVolumeProposal{PreviousKm: 40, ProposedKm: 42, WeeksAtCurrentVolume: 4, RecentFourWeekKm: []float64{38, 39, 40, 40}}
	profile := models.FitnessProfile{Tier: models.TierIntermediate, TrainingDaysPerWeek: 5, GoalDistanceKm: 21.0975}
	v, err := Validate(p, profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Accepted || v.SafeKm != 42 {
		t.Errorf("verdict = %+v, want accepted at 42", v)
	}
	if v.RiskLevel != models.RiskCaution || v.RuleName != models.RuleRaceBand {
		t.Errorf("risk = %q rule = %q, want caution from race_band", v.RiskLevel, v.RuleName)
	}
}

// TestValidateSafe verifies a modest increase passes cleanly.
func TestValidateSafe(t *testing.T) {
	p := models.WeeklyVolumeProposal{PreviousKm: 30, ProposedKm: 32, WeeksAtCurrentVolume: 3, RecentFourWeekKm: []float64{28, 29, 30, 30}}
	profile := models.FitnessProfile{Tier: models.TierIntermediate, TrainingDaysPerWeek: 5, GoalDistanceKm: 21.0975}
	v, err := Validate(p, profile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Accepted || v.RiskLevel != models.RiskSafe || v.RuleName != "" {
		t.Errorf("verdict = %+v, want safe acceptance", v)
	}
}

// TestValidateDecreasesNeverBlocked verifies any proposal at or below the previous
// week passes the percentage and equilibrium rules.
func TestValidateDecreasesNeverBlocked(t *testing.T) {
	profile := models.FitnessProfile{Tier: models.TierBeginner, TrainingDaysPerWeek: 3, InjuryTags: []string{"knee"}}
	for _, prev := range []float64{5, 20, 60} {
		for _, frac := range []float64{0, 0.5, 0.9, 1} {
			p := models.WeeklyVolumeProposal{PreviousKm: prev, ProposedKm: prev * frac}
			v, err := Validate(p, profile)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, rule := range []models.RuleName{models.RulePercentage, models.RuleEquilibrium} {
				if c := checkFor(t, v, rule); c.Status == models.CheckFail {
					t.Errorf("prev %.0f proposed %.1f: %s failed: %s", prev, p.ProposedKm, rule, c.Detail)
				}
			}
		}
	}
}

// TestValidateIdempotent verifies re-validating the returned safe volume is always accepted.
func TestValidateIdempotent(t *testing.T) {
	tiers := []models.Tier{models.TierBeginner, models.TierIntermediate, models.TierAdvanced, models.TierElite}
	histories := [][]float64{nil, {20, 21, 22, 23}, {10, 10, 10, 10}, {50, 55, 60, 65}}
	goals := []float64{0, 5, 10, 21.0975, 42.195}

	for _, tier := range tiers {
		for _, injured := range []bool{false, true} {
			for _, days := range []int{3, 5, 7} {
				for _, weeks := range []int{1, 4} {
					for _, hist := range histories {
						for _, goal := range goals {
							for _, prev := range []float64{0, 10, 20, 35, 60} {
								for _, proposed := range []float64{0, 5, 22, 26, 36, 50, 80, 130} {
									profile := models.FitnessProfile{Tier: tier, TrainingDaysPerWeek: days, GoalDistanceKm: goal}
									if injured {
										profile.InjuryTags = []string{"calf"}
									}
									p := models.WeeklyVolumeProposal{PreviousKm: prev, ProposedKm: proposed, WeeksAtCurrentVolume: weeks, RecentFourWeekKm: hist}
									v, err := Validate(p, profile)
									if err != nil {
										t.Fatalf("unexpected error: %v", err)
									}
									p.ProposedKm = v.SafeKm
									again, err := Validate(p, profile)
									if err != nil {
										t.Fatalf("unexpected error: %v", err)
									}
									if !again.Accepted {
										t.Fatalf("safe_km %.3f rejected on re-validation (%s)", v.SafeKm, again.Rationale)
									}
								}
							}
						}
					}
				}
			}
		}
	}
}

// TestValidateInvalidInput verifies malformed proposals are input errors.
func TestValidateInvalidInput(t *testing.T) {
	good := models.FitnessProfile{Tier: models.TierIntermediate, TrainingDaysPerWeek: 4}
	cases := []struct {
		name    string
		p       models.WeeklyVolumeProposal
		profile models.FitnessProfile
	}{
		{"negative previous", models.WeeklyVolumeProposal{PreviousKm: -1, ProposedKm: 10}, good},
		{"negative proposed", models.WeeklyVolumeProposal{PreviousKm: 10, ProposedKm: -2}, good},
		{"nan proposed", models.WeeklyVolumeProposal{PreviousKm: 10, ProposedKm: math.NaN()}, good},
		{"negative weeks", models.WeeklyVolumeProposal{PreviousKm: 10, ProposedKm: 11, WeeksAtCurrentVolume: -1}, good},
		{"negative history", models.WeeklyVolumeProposal{PreviousKm: 10, ProposedKm: 11, RecentFourWeekKm: []float64{1, -1}}, good},
		{"no days", models.WeeklyVolumeProposal{PreviousKm: 10, ProposedKm: 11}, models.FitnessProfile{Tier: models.TierIntermediate}},
		{"bad tier", models.WeeklyVolumeProposal{PreviousKm: 10, ProposedKm: 11}, models.FitnessProfile{Tier: "pro", TrainingDaysPerWeek: 4}},
	}
	for _, tc := range cases {
		if _, err := Validate(tc.p, tc.profile); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("%s: error = %v, want ErrInvalidInput", tc.name, err)
		}
	}
}

// TestCutback verifies cutback timing and volume per tier.
func TestCutback(t *testing.T) {
	if !NeedsCutback(3, models.TierBeginner) || NeedsCutback(2, models.TierBeginner) {
		t.Error("beginner cutback should start at 3 weeks")
	}
	if NeedsCutback(3, models.TierAdvanced) || !NeedsCutback(4, models.TierAdvanced) {
		t.Error("advanced cutback should start at 4 weeks")
	}
	if got := CutbackVolume(40, models.TierBeginner); got != 30 {
		t.Errorf("beginner cutback = %.1f, want 30", got)
	}
	if got := CutbackVolume(40, models.TierElite); got != 32 {
		t.Errorf("elite cutback = %.1f, want 32", got)
	}
}

// TestValidateBatch verifies results keep input order and per-item errors stay local.
func TestValidateBatch(t *testing.T) {
	profile := models.FitnessProfile{Tier: models.TierBeginner, TrainingDaysPerWeek: 4}
	items := []BatchItem{
		{ID: "a", Proposal: models.WeeklyVolumeProposal{PreviousKm: 20, ProposedKm: 26, WeeksAtCurrentVolume: 1}, Profile: profile},
		{ID: "b", Proposal: models.WeeklyVolumeProposal{PreviousKm: -1, ProposedKm: 10}, Profile: profile},
		{ID: "c", Proposal: models.WeeklyVolumeProposal{PreviousKm: 20, ProposedKm: 21, WeeksAtCurrentVolume: 4}, Profile: profile},
	}
	results, err := ValidateBatch(context.Background(), items, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].ID != "a" || results[0].Verdict == nil || results[0].Verdict.Accepted {
		t.Errorf("item a = %+v, want rejection", results[0])
	}
	if results[1].Error == "" || results[1].Verdict != nil {
		t.Errorf("item b = %+v, want input error", results[1])
	}
	if results[2].Verdict == nil || !results[2].Verdict.Accepted {
		t.Errorf("item c = %+v, want acceptance", results[2])
	}
}

// TestValidateBatchCancelled verifies a cancelled context fails the batch.
func TestValidateBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := []BatchItem{{ID: "a", Profile: models.FitnessProfile{Tier: models.TierBeginner, TrainingDaysPerWeek: 3}}}
	if _, err := ValidateBatch(ctx, items, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
