package adapt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/claude/paceguard/internal/models"
)

// DefaultTimeout bounds a reasoner call when the engine is built with a zero timeout.
const DefaultTimeout = 8 * time.Second

// Bounds a reasoned plan must respect.
const (
	MinPaceDeltaSec   = -15
	MaxPaceDeltaSec   = 60
	MinVolumeDeltaKm  = -20.0
	MaxVolumeDeltaKm  = 5.0
	MaxRecoveryDays   = 7
	defaultReasonNote = "reasoned adjustment"
)

var errNoAction = errors.New("no action in reasoner reply")

// Reasoner produces free-form adaptation guidance from a text context.
type Reasoner interface {
	Reason(ctx context.Context, prompt string) (string, error)
}

// Engine builds adaptation plans. A nil reasoner always uses the rule-based fallback.
type Engine struct {
	reasoner Reasoner
	timeout  time.Duration
	log      *slog.Logger
}

// NewEngine returns an Engine that waits at most timeout for the reasoner.
func NewEngine(reasoner Reasoner, timeout time.Duration, log *slog.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{reasoner: reasoner, timeout: timeout, log: log}
}

// Decision is the trigger outcome plus a plan when adaptation is needed.
type Decision struct {
	ShouldAdapt    bool                   `json:"should_adapt"`
	Rule           string                 `json:"rule"`
	Severity       models.Severity        `json:"severity"`
	LexiconVersion string                 `json:"lexicon_version"`
	Plan           *models.AdaptationPlan `json:"plan,omitempty"`
}

// Decide evaluates feedback and builds a plan when the cascade says to adapt.
func (e *Engine) Decide(ctx context.Context, fb models.SessionFeedback, history []models.SessionFeedback, profile models.FitnessProfile) Decision {
	trig := Evaluate(fb)
	d := Decision{
		ShouldAdapt:    trig.Adapt,
		Rule:           trig.Rule,
		Severity:       ClassifySeverity(fb),
		LexiconVersion: DefaultLexicon.Version,
	}
	if !trig.Adapt {
		return d
	}
	plan := e.buildPlan(ctx, normalize(fb), trig, history, profile)
	d.Plan = &plan
	return d
}

// BuildPlan produces an adaptation plan. It never fails: any reasoner problem
// yields the rule-based plan tagged with SourceFallback.
func (e *Engine) BuildPlan(ctx context.Context, fb models.SessionFeedback, history []models.SessionFeedback, profile models.FitnessProfile) models.AdaptationPlan {
	return e.buildPlan(ctx, normalize(fb), Evaluate(fb), history, profile)
}

func (e *Engine) buildPlan(ctx context.Context, fb models.SessionFeedback, trig Trigger, history []models.SessionFeedback, profile models.FitnessProfile) models.AdaptationPlan {
	trend := summarizeTrend(history)
	if trend.Sessions == 0 {
		e.log.Info("no feedback history for trend", "data", "insufficient")
	}
	if e.reasoner == nil {
		e.log.Warn("no reasoner configured", "source", "fallback", "rule", trig.Rule)
		return fallbackPlan(fb, trig)
	}

	text, err := e.ask(ctx, BuildContext(fb, trend, profile))
	if err == nil {
		var plan models.AdaptationPlan
		plan, err = parsePlan(text)
		if err == nil {
			err = checkConstraints(plan, fb, profile)
		}
		if err == nil {
			plan.Severity = ClassifySeverity(fb)
			plan.Source = models.SourceReasoned
			return plan
		}
	}
	e.log.Warn("reasoner unusable", "source", "fallback", "rule", trig.Rule, "error", err)
	return fallbackPlan(fb, trig)
}

// ask calls the reasoner without letting a slow reply hold the caller past the timeout.
func (e *Engine) ask(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		text, err := e.reasoner.Reason(ctx, prompt)
		ch <- reply{text, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("reasoner: %w", r.err)
		}
		return r.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("reasoner: %w", ctx.Err())
	}
}

// Trend summarizes recent sessions for the reasoner context.
type Trend struct {
	Sessions       int
	MeanRPE        float64
	CompletionRate float64
}

func summarizeTrend(history []models.SessionFeedback) Trend {
	t := Trend{Sessions: len(history)}
	if t.Sessions == 0 {
		return t
	}
	var rpe, done int
	for _, h := range history {
		rpe += models.ClampScale(h.RPE)
		if h.Completion == models.CompletionCompleted {
			done++
		}
	}
	t.MeanRPE = float64(rpe) / float64(t.Sessions)
	t.CompletionRate = float64(done) / float64(t.Sessions)
	return t
}

// BuildContext renders the structured context handed to the reasoner.
func BuildContext(fb models.SessionFeedback, trend Trend, profile models.FitnessProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "session: kind=%s week=%d completion=%s\n", fb.SessionKind, fb.WeekNumber, fb.Completion)
	if fb.PlannedPaceSecPerKm != nil {
		fmt.Fprintf(&b, "target_pace: %s/km\n", models.FormatPace(*fb.PlannedPaceSecPerKm))
	}
	if fb.ActualPaceSecPerKm != nil {
		fmt.Fprintf(&b, "actual_pace: %s/km\n", models.FormatPace(*fb.ActualPaceSecPerKm))
	}
	fmt.Fprintf(&b, "effort: rpe=%d difficulty=%d feeling=%s severity=%s\n",
		fb.RPE, fb.Difficulty, fb.Feeling, ClassifySeverity(fb))
	if notes := strings.TrimSpace(fb.Notes); notes != "" {
		fmt.Fprintf(&b, "notes: %s\n", notes)
	}
	if trend.Sessions > 0 {
		fmt.Fprintf(&b, "trend: sessions=%d mean_rpe=%.1f completion_rate=%.2f\n",
			trend.Sessions, trend.MeanRPE, trend.CompletionRate)
	} else {
		b.WriteString("trend: none\n")
	}
	fmt.Fprintf(&b, "athlete: tier=%s days_per_week=%d\n", profile.Tier, profile.TrainingDaysPerWeek)
	fmt.Fprintf(&b, "constraints: pace_delta_sec %d..%d, volume_delta_km %.0f..%.0f, recovery_days 0..%d\n",
		MinPaceDeltaSec, MaxPaceDeltaSec, MinVolumeDeltaKm, MaxVolumeDeltaKm, MaxRecoveryDays)
	if profile.HasInjury() {
		fmt.Fprintf(&b, "injuries: %s (no added volume or faster pace)\n", strings.Join(profile.InjuryTags, ", "))
	}
	b.WriteString("reply with: action, pace_delta_sec, volume_delta_km, recovery_days, reasoning\n")
	return b.String()
}

type reasonedReply struct {
	Action        string  `json:"action"`
	PaceDeltaSec  int     `json:"pace_delta_sec"`
	VolumeDeltaKm float64 `json:"volume_delta_km"`
	RecoveryDays  int     `json:"recovery_days"`
	Reasoning     string  `json:"reasoning"`
}

var actions = map[string]models.Action{
	"increase": models.ActionIncrease,
	"decrease": models.ActionDecrease,
	"maintain": models.ActionMaintain,
}

// parsePlan reads a JSON object or "key: value" lines from reasoner text.
func parsePlan(text string) (models.AdaptationPlan, error) {
	var r reasonedReply
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
			return models.AdaptationPlan{}, fmt.Errorf("decoding reasoner json: %w", err)
		}
	} else if err := parseLines(text, &r); err != nil {
		return models.AdaptationPlan{}, err
	}

	action, ok := actions[strings.ToLower(strings.TrimSpace(r.Action))]
	if !ok {
		if r.Action == "" {
			return models.AdaptationPlan{}, errNoAction
		}
		return models.AdaptationPlan{}, fmt.Errorf("unknown action %q", r.Action)
	}
	reasoning := strings.TrimSpace(r.Reasoning)
	if reasoning == "" {
		reasoning = defaultReasonNote
	}
	return models.AdaptationPlan{
		Action:                action,
		PaceDeltaSec:          r.PaceDeltaSec,
		VolumeDeltaKm:         r.VolumeDeltaKm,
		RecoveryDaysSuggested: r.RecoveryDays,
		Reasoning:             reasoning,
	}, nil
}

func parseLines(text string, r *reasonedReply) error {
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(strings.TrimLeft(key, "-* "))), " ", "_")
		value = strings.TrimSpace(value)
		var err error
		switch key {
		case "action":
			r.Action = value
		case "pace_delta_sec", "pace_delta":
			r.PaceDeltaSec, err = strconv.Atoi(firstNumber(value))
		case "volume_delta_km", "volume_delta":
			r.VolumeDeltaKm, err = strconv.ParseFloat(firstNumber(value), 64)
		case "recovery_days", "recovery_days_suggested":
			r.RecoveryDays, err = strconv.Atoi(firstNumber(value))
		case "reasoning", "reason":
			r.Reasoning = value
		}
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}
	}
	return nil
}

// firstNumber strips a leading "+" and any trailing unit ("10s", "-4 km").
func firstNumber(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "+")
	end := 0
	for end < len(v) && (v[end] == '-' || v[end] == '.' || (v[end] >= '0' && v[end] <= '9')) {
		end++
	}
	return v[:end]
}

func checkConstraints(plan models.AdaptationPlan, fb models.SessionFeedback, profile models.FitnessProfile) error {
	if plan.PaceDeltaSec < MinPaceDeltaSec || plan.PaceDeltaSec > MaxPaceDeltaSec {
		return fmt.Errorf("pace delta %d outside %d..%d", plan.PaceDeltaSec, MinPaceDeltaSec, MaxPaceDeltaSec)
	}
	if plan.VolumeDeltaKm < MinVolumeDeltaKm || plan.VolumeDeltaKm > MaxVolumeDeltaKm {
		return fmt.Errorf("volume delta %.1f outside %.0f..%.0f", plan.VolumeDeltaKm, MinVolumeDeltaKm, MaxVolumeDeltaKm)
	}
	if plan.RecoveryDaysSuggested < 0 || plan.RecoveryDaysSuggested > MaxRecoveryDays {
		return fmt.Errorf("recovery days %d outside 0..%d", plan.RecoveryDaysSuggested, MaxRecoveryDays)
	}
	if err := checkDirection(plan); err != nil {
		return err
	}
	// A harder plan is judged by its deltas, whatever the action is labelled.
	harder := plan.Action == models.ActionIncrease || plan.VolumeDeltaKm > 0 || plan.PaceDeltaSec < 0
	if harder && profile.HasInjury() {
		return fmt.Errorf("harder plan proposed with injury tags %v", profile.InjuryTags)
	}
	if harder && ClassifySeverity(fb) == models.SeverityHigh {
		return errors.New("harder plan proposed after a high-severity session")
	}
	return nil
}

// checkDirection rejects deltas whose signs contradict the action.
func checkDirection(plan models.AdaptationPlan) error {
	switch plan.Action {
	case models.ActionIncrease:
		if plan.VolumeDeltaKm < 0 || plan.PaceDeltaSec > 0 {
			return fmt.Errorf("increase with easing deltas (pace %+d s, volume %+.1f km)", plan.PaceDeltaSec, plan.VolumeDeltaKm)
		}
	case models.ActionDecrease:
		if plan.VolumeDeltaKm > 0 || plan.PaceDeltaSec < 0 {
			return fmt.Errorf("decrease with harder deltas (pace %+d s, volume %+.1f km)", plan.PaceDeltaSec, plan.VolumeDeltaKm)
		}
	case models.ActionMaintain:
		if plan.VolumeDeltaKm != 0 {
			return fmt.Errorf("maintain with volume delta %+.1f km", plan.VolumeDeltaKm)
		}
	}
	return nil
}

var decreaseDeltas = map[models.Severity]struct {
	paceSec  int
	volumeKm float64
}{
	models.SeverityLow:    {5, -2},
	models.SeverityMedium: {10, -4},
	models.SeverityHigh:   {15, -6},
}

var maintainReasons = map[string]string{
	RuleRPEBand:       "effort outside expected range",
	RulePaceDeviation: "pace off target",
	RuleBorderline:    "borderline exertion with negative notes",
}

// fallbackPlan is the rule-based plan used whenever the reasoner cannot be.
func fallbackPlan(fb models.SessionFeedback, trig Trigger) models.AdaptationPlan {
	plan := models.AdaptationPlan{
		Action:   models.ActionMaintain,
		Severity: ClassifySeverity(fb),
		Source:   models.SourceFallback,
	}
	var reasons []string
	if fb.RPE >= 8 || fb.Difficulty >= 8 {
		plan.Action = models.ActionDecrease
		reasons = append(reasons, "high exertion")
	}
	if fb.Completion == models.CompletionIncomplete {
		plan.Action = models.ActionDecrease
		reasons = append(reasons, "did not finish")
	}
	if fb.Feeling == models.FeelingTerrible || fb.Feeling == models.FeelingBad {
		plan.RecoveryDaysSuggested = 1
		reasons = append(reasons, "poor recovery signal")
	}
	if DefaultLexicon.Classify(fb.Notes).Severe {
		plan.Action = models.ActionDecrease
		plan.RecoveryDaysSuggested = 2
		reasons = append(reasons, "pain or injury reported")
	}
	if len(reasons) == 0 {
		switch {
		case fb.Completion == models.CompletionPartial:
			reasons = append(reasons, "partial completion")
		case maintainReasons[trig.Rule] != "":
			reasons = append(reasons, maintainReasons[trig.Rule])
		default:
			reasons = append(reasons, "no change needed")
		}
	}
	if plan.Action == models.ActionDecrease {
		d := decreaseDeltas[plan.Severity]
		plan.PaceDeltaSec = d.paceSec
		plan.VolumeDeltaKm = d.volumeKm
	}
	plan.Reasoning = strings.Join(reasons, "; ")
	return plan
}
