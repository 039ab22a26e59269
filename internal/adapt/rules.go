// Package adapt decides whether a recorded session calls for a plan adjustment
// and builds that adjustment, preferring an external reasoner and falling back
// to fixed rules.
package adapt

import (
	"fmt"

	"github.com/claude/paceguard/internal/models"
	"github.com/claude/paceguard/internal/pace"
)

// Trigger rule names, in evaluation order.
const (
	RuleNotCompleted  = "not_completed"
	RulePoorFeeling   = "poor_feeling"
	RuleMaxExertion   = "max_exertion"
	RuleRPEBand       = "rpe_out_of_band"
	RulePaceDeviation = "pace_deviation"
	RuleBorderline    = "borderline_exertion"
	RuleSevereNotes   = "severe_notes"
	RuleDefault       = "default"
)

// Trigger is the outcome of the rule cascade.
type Trigger struct {
	Adapt bool   `json:"should_adapt"`
	Rule  string `json:"rule"`
}

// triggerRule returns matched=false to defer to the next rule.
type triggerRule struct {
	name  string
	match func(models.SessionFeedback) (verdict, matched bool)
}

type rpeBand struct{ lo, hi int }

var expectedRPE = map[string]rpeBand{
	"easy":      {3, 5},
	"recovery":  {2, 4},
	"tempo":     {6, 8},
	"threshold": {6, 8},
	"interval":  {7, 9},
	"intervals": {7, 9},
	"race-pace": {7, 9},
	"long":      {4, 6},
	"fartlek":   {5, 8},
}

// Allowed |actual - planned| pace deviation in seconds/km.
var paceThresholds = map[string]int{
	"easy":      15,
	"recovery":  20,
	"long":      12,
	"tempo":     8,
	"threshold": 8,
	"interval":  5,
	"intervals": 5,
	"race-pace": 6,
	"fartlek":   15,
	"hill":      12,
	"hills":     12,
}

var triggerRules = []triggerRule{
	{RuleNotCompleted, func(fb models.SessionFeedback) (bool, bool) {
		return true, fb.Completion != models.CompletionCompleted
	}},
	{RulePoorFeeling, func(fb models.SessionFeedback) (bool, bool) {
		return true, fb.Feeling == models.FeelingTerrible || fb.Feeling == models.FeelingBad
	}},
	{RuleMaxExertion, func(fb models.SessionFeedback) (bool, bool) {
		return true, fb.RPE >= 9 || fb.Difficulty >= 9
	}},
	{RuleRPEBand, func(fb models.SessionFeedback) (bool, bool) {
		band, ok := expectedRPE[pace.NormalizeKind(fb.SessionKind)]
		if !ok {
			return false, false
		}
		return true, fb.RPE < band.lo || fb.RPE > band.hi
	}},
	{RulePaceDeviation, func(fb models.SessionFeedback) (bool, bool) {
		if fb.PlannedPaceSecPerKm == nil || fb.ActualPaceSecPerKm == nil {
			return false, false
		}
		limit, ok := paceThresholds[pace.NormalizeKind(fb.SessionKind)]
		if !ok {
			return false, false
		}
		return true, abs(*fb.ActualPaceSecPerKm-*fb.PlannedPaceSecPerKm) > limit
	}},
	{RuleBorderline, func(fb models.SessionFeedback) (bool, bool) {
		if fb.RPE != 8 && fb.Difficulty != 8 {
			return false, false
		}
		if fb.Notes == "" {
			return false, true
		}
		sig := DefaultLexicon.Classify(fb.Notes)
		switch {
		case sig.Severe:
			return true, true
		case sig.Moderate && sig.Positive:
			return false, true
		case sig.Moderate:
			return true, true
		}
		return false, false
	}},
	{RuleSevereNotes, func(fb models.SessionFeedback) (bool, bool) {
		return true, DefaultLexicon.Classify(fb.Notes).Severe
	}},
}

// Evaluate runs the trigger cascade on feedback; the first matching rule decides.
func Evaluate(fb models.SessionFeedback) Trigger {
	fb = normalize(fb)
	for _, r := range triggerRules {
		if verdict, matched := r.match(fb); matched {
			return Trigger{Adapt: verdict, Rule: r.name}
		}
	}
	return Trigger{Adapt: false, Rule: RuleDefault}
}

// ShouldAdapt reports whether the plan needs adjusting after this session.
func ShouldAdapt(fb models.SessionFeedback) bool {
	return Evaluate(fb).Adapt
}

// ValidateFeedback rejects feedback the cascade cannot interpret.
func ValidateFeedback(fb models.SessionFeedback) error {
	switch fb.Completion {
	case models.CompletionCompleted, models.CompletionIncomplete, models.CompletionPartial:
	default:
		return fmt.Errorf("%w: unknown completion %q", models.ErrInvalidInput, fb.Completion)
	}
	switch fb.Feeling {
	case models.FeelingTerrible, models.FeelingBad, models.FeelingOk, models.FeelingGood, models.FeelingGreat:
	default:
		return fmt.Errorf("%w: unknown feeling %q", models.ErrInvalidInput, fb.Feeling)
	}
	if p := fb.PlannedPaceSecPerKm; p != nil && *p <= 0 {
		return fmt.Errorf("%w: planned pace must be positive", models.ErrInvalidInput)
	}
	if p := fb.ActualPaceSecPerKm; p != nil && *p <= 0 {
		return fmt.Errorf("%w: actual pace must be positive", models.ErrInvalidInput)
	}
	return nil
}

func normalize(fb models.SessionFeedback) models.SessionFeedback {
	fb.RPE = models.ClampScale(fb.RPE)
	fb.Difficulty = models.ClampScale(fb.Difficulty)
	return fb
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
