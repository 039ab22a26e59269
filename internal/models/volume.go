package models

// WeeklyVolumeProposal is a requested change in weekly running volume.
// RecentFourWeekKm is ordered oldest to newest.
type WeeklyVolumeProposal struct {
	PreviousKm           float64   `json:"previous_km" yaml:"previous_km"`
	ProposedKm           float64   `json:"proposed_km" yaml:"proposed_km"`
	WeeksAtCurrentVolume int       `json:"weeks_at_current_volume" yaml:"weeks_at_current_volume"`
	RecentFourWeekKm     []float64 `json:"recent_four_week_km,omitempty" yaml:"recent_four_week_km"`
}

// RuleName identifies one of the four progression checks.
type RuleName string

const (
	RulePercentage  RuleName = "percentage"
	RuleEquilibrium RuleName = "equilibrium"
	RuleACWR        RuleName = "acwr"
	RuleRaceBand    RuleName = "race_band"
)

// RiskLevel grades a verdict.
type RiskLevel string

const (
	RiskSafe    RiskLevel = "safe"
	RiskCaution RiskLevel = "caution"
	RiskDanger  RiskLevel = "danger"
)

// CheckStatus is the outcome of a single rule.
type CheckStatus string

const (
	CheckPass             CheckStatus = "pass"
	CheckCaution          CheckStatus = "caution"
	CheckFail             CheckStatus = "fail"
	CheckInsufficientData CheckStatus = "insufficient_data"
)

// RuleCheck is one rule's outcome. CapKm is only meaningful when Status is CheckFail.
type RuleCheck struct {
	Rule   RuleName    `json:"rule"`
	Status CheckStatus `json:"status"`
	CapKm  float64     `json:"cap_km,omitempty"`
	Detail string      `json:"detail"`
}

// ProgressionVerdict is the single resolved answer for a WeeklyVolumeProposal.
// RuleName is empty when no rule failed or flagged caution.
type ProgressionVerdict struct {
	Accepted  bool        `json:"accepted"`
	SafeKm    float64     `json:"safe_km"`
	Rationale string      `json:"rationale"`
	RuleName  RuleName    `json:"rule_name,omitempty"`
	RiskLevel RiskLevel   `json:"risk_level"`
	Checks    []RuleCheck `json:"checks"`
}
