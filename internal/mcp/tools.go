package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/models"
	"github.com/claude/paceguard/internal/pace"
)

var tierEnum = mcp.Enum("beginner", "intermediate", "advanced", "elite")

// --- Tool definitions ---

var toolFitnessScore = mcp.NewTool("estimate_fitness_score",
	mcp.WithDescription("Estimate a VO2max-style fitness score from personal bests and predict standard race times. Without personal bests the tier default is used."),
	mcp.WithString("tier", mcp.Required(), mcp.Description("Runner tier"), tierEnum),
	mcp.WithString("personal_bests", mcp.Description("Comma-separated distance_km=time pairs, e.g. '5=23:45, 21.0975=1:52:00'")),
)

var toolComputePaceZones = mcp.NewTool("compute_pace_zones",
	mcp.WithDescription("Compute the six training pace zones (recovery, easy, marathon, threshold, interval, repetition) in seconds per km from a goal race."),
	mcp.WithString("tier", mcp.Required(), mcp.Description("Runner tier"), tierEnum),
	mcp.WithNumber("goal_distance_km", mcp.Required(), mcp.Description("Goal race distance in km")),
	mcp.WithString("goal_time", mcp.Required(), mcp.Description("Goal race time as h:mm:ss or mm:ss")),
)

var toolPaceForSession = mcp.NewTool("pace_for_session",
	mcp.WithDescription("Target pace for one session, adjusted for tier, long-run distance and heat. Paces are clamped to 2:30-12:00 per km."),
	mcp.WithString("tier", mcp.Required(), mcp.Description("Runner tier"), tierEnum),
	mcp.WithNumber("goal_distance_km", mcp.Required(), mcp.Description("Goal race distance in km")),
	mcp.WithString("goal_time", mcp.Required(), mcp.Description("Goal race time as h:mm:ss or mm:ss")),
	mcp.WithString("session_kind", mcp.Required(), mcp.Description("Session kind (recovery, easy, long, tempo, intervals, repetition, marathon, fartlek, hills, progression)")),
	mcp.WithNumber("distance_km", mcp.Description("Session distance in km. Long runs over 15 km are slowed.")),
	mcp.WithNumber("ambient_temp_c", mcp.Description("Expected temperature in Celsius. Above 15 C paces are slowed.")),
)

var toolPredictRaceTime = mcp.NewTool("predict_race_time",
	mcp.WithDescription("Predict race times from a fitness score. Without a distance, predicts 5K, 10K, half and full marathon."),
	mcp.WithNumber("score", mcp.Required(), mcp.Description("Fitness score (VO2max estimate)")),
	mcp.WithNumber("distance_km", mcp.Description("Race distance in km")),
)

var toolValidateWeeklyVolume = mcp.NewTool("validate_weekly_volume",
	mcp.WithDescription("Check a proposed weekly volume against percentage, acute:chronic workload, equilibrium and race-specific rules. Returns accepted, safe_km, risk level and the per-rule checks."),
	mcp.WithString("tier", mcp.Required(), mcp.Description("Runner tier"), tierEnum),
	mcp.WithNumber("training_days_per_week", mcp.Required(), mcp.Description("Training days per week (1-7)")),
	mcp.WithNumber("previous_km", mcp.Required(), mcp.Description("Last week's volume in km")),
	mcp.WithNumber("proposed_km", mcp.Required(), mcp.Description("Proposed volume for next week in km")),
	mcp.WithNumber("weeks_at_current_volume", mcp.Description("Consecutive weeks held at the current volume. Defaults to 0.")),
	mcp.WithString("recent_weeks_km", mcp.Description("Comma-separated weekly volumes, oldest first, e.g. '30,32,31,33'")),
	mcp.WithNumber("goal_distance_km", mcp.Description("Goal race distance in km, enables the race-specific band")),
	mcp.WithString("injury_tags", mcp.Description("Comma-separated current injuries")),
)

var toolEvaluateSessionFeedback = mcp.NewTool("evaluate_session_feedback",
	mcp.WithDescription("Decide whether the plan should adapt after a session and, if so, propose an adaptation (pace, volume and recovery changes)."),
	mcp.WithString("completion", mcp.Required(), mcp.Description("Session completion"), mcp.Enum("completed", "partial", "incomplete")),
	mcp.WithNumber("rpe", mcp.Required(), mcp.Description("Rate of perceived exertion (1-10)")),
	mcp.WithNumber("difficulty", mcp.Required(), mcp.Description("Perceived difficulty (1-10)")),
	mcp.WithString("feeling", mcp.Required(), mcp.Description("Overall feeling"), mcp.Enum("terrible", "bad", "ok", "good", "great")),
	mcp.WithString("session_kind", mcp.Required(), mcp.Description("Session kind")),
	mcp.WithString("notes", mcp.Description("Free-text notes from the runner")),
	mcp.WithString("planned_pace", mcp.Description("Planned pace as m:ss per km")),
	mcp.WithString("actual_pace", mcp.Description("Actual pace as m:ss per km")),
	mcp.WithString("tier", mcp.Description("Runner tier"), tierEnum),
	mcp.WithString("injury_tags", mcp.Description("Comma-separated current injuries")),
)

// --- Tool handlers ---

func (h *handlers) fitnessScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tier, err := req.RequireString("tier")
	if err != nil {
		return mcp.NewToolResultError("tier parameter is required"), nil
	}
	bests, err := parseBests(req.GetString("personal_bests", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := h.backend.FitnessScore(ctx, coach.FitnessRequest{Tier: tier, PersonalBests: bests})
	if err != nil {
		return h.fail("estimate_fitness_score", err), nil
	}
	return jsonResult(resp), nil
}

func (h *handlers) computePaceZones(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	zr, err := zonesRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := h.backend.Zones(ctx, zr)
	if err != nil {
		return h.fail("compute_pace_zones", err), nil
	}
	return jsonResult(resp), nil
}

func (h *handlers) paceForSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	zr, err := zonesRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("session_kind")
	if err != nil {
		return mcp.NewToolResultError("session_kind parameter is required"), nil
	}

	resp, err := h.backend.SessionPace(ctx, coach.PaceRequest{
		ZonesRequest: zr,
		SessionRequest: pace.SessionRequest{
			Kind:         kind,
			DistanceKm:   optionalFloat(req, "distance_km"),
			AmbientTempC: optionalFloat(req, "ambient_temp_c"),
		},
	})
	if err != nil {
		return h.fail("pace_for_session", err), nil
	}
	return jsonResult(resp), nil
}

func (h *handlers) predictRaceTime(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	score, err := req.RequireFloat("score")
	if err != nil {
		return mcp.NewToolResultError("score parameter is required"), nil
	}

	resp, err := h.backend.Predict(ctx, coach.PredictRequest{Score: score, DistanceKm: req.GetFloat("distance_km", 0)})
	if err != nil {
		return h.fail("predict_race_time", err), nil
	}
	return jsonResult(resp), nil
}

func (h *handlers) validateWeeklyVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tier, err := req.RequireString("tier")
	if err != nil {
		return mcp.NewToolResultError("tier parameter is required"), nil
	}
	days, err := req.RequireFloat("training_days_per_week")
	if err != nil {
		return mcp.NewToolResultError("training_days_per_week parameter is required"), nil
	}
	previous, err := req.RequireFloat("previous_km")
	if err != nil {
		return mcp.NewToolResultError("previous_km parameter is required"), nil
	}
	proposed, err := req.RequireFloat("proposed_km")
	if err != nil {
		return mcp.NewToolResultError("proposed_km parameter is required"), nil
	}
	recent, err := parseKmList(req.GetString("recent_weeks_km", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	verdict, err := h.backend.ValidateVolume(ctx, coach.VolumeRequest{
		Proposal: models.WeeklyVolumeProposal{
			PreviousKm:           previous,
			ProposedKm:           proposed,
			WeeksAtCurrentVolume: req.GetInt("weeks_at_current_volume", 0),
			RecentFourWeekKm:     recent,
		},
		Profile: models.FitnessProfile{
			Tier:                models.Tier(tier),
			TrainingDaysPerWeek: int(days),
			InjuryTags:          splitList(req.GetString("injury_tags", "")),
			GoalDistanceKm:      req.GetFloat("goal_distance_km", 0),
		},
	})
	if err != nil {
		return h.fail("validate_weekly_volume", err), nil
	}
	return jsonResult(verdict), nil
}

func (h *handlers) evaluateSessionFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	completion, err := req.RequireString("completion")
	if err != nil {
		return mcp.NewToolResultError("completion parameter is required"), nil
	}
	feeling, err := req.RequireString("feeling")
	if err != nil {
		return mcp.NewToolResultError("feeling parameter is required"), nil
	}
	kind, err := req.RequireString("session_kind")
	if err != nil {
		return mcp.NewToolResultError("session_kind parameter is required"), nil
	}

	resp, err := h.backend.EvaluateFeedback(ctx, coach.FeedbackRequest{
		Feedback: coach.FeedbackInput{
			SessionFeedback: models.SessionFeedback{
				Completion:  models.Completion(completion),
				RPE:         req.GetInt("rpe", 0),
				Difficulty:  req.GetInt("difficulty", 0),
				Feeling:     models.Feeling(feeling),
				Notes:       req.GetString("notes", ""),
				SessionKind: kind,
			},
			PlannedPace: req.GetString("planned_pace", ""),
			ActualPace:  req.GetString("actual_pace", ""),
		},
		Profile: models.FitnessProfile{
			Tier:       models.Tier(req.GetString("tier", "")),
			InjuryTags: splitList(req.GetString("injury_tags", "")),
		},
	})
	if err != nil {
		return h.fail("evaluate_session_feedback", err), nil
	}
	return jsonResult(resp), nil
}

// fail turns a backend error into a tool error. Input errors are the caller's
// problem and are not logged.
func (h *handlers) fail(tool string, err error) *mcp.CallToolResult {
	if errors.Is(err, models.ErrInvalidInput) {
		return mcp.NewToolResultError(err.Error())
	}
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError("request failed: " + err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

func zonesRequest(req mcp.CallToolRequest) (coach.ZonesRequest, error) {
	tier, err := req.RequireString("tier")
	if err != nil {
		return coach.ZonesRequest{}, errors.New("tier parameter is required")
	}
	distance, err := req.RequireFloat("goal_distance_km")
	if err != nil {
		return coach.ZonesRequest{}, errors.New("goal_distance_km parameter is required")
	}
	goal, err := req.RequireString("goal_time")
	if err != nil {
		return coach.ZonesRequest{}, errors.New("goal_time parameter is required")
	}
	return coach.ZonesRequest{Tier: tier, GoalInput: coach.GoalInput{GoalDistanceKm: distance, GoalTime: goal}}, nil
}

// optionalFloat returns nil when the argument was not supplied at all.
func optionalFloat(req mcp.CallToolRequest, key string) *float64 {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	v := req.GetFloat(key, 0)
	return &v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseKmList(s string) ([]float64, error) {
	parts := splitList(s)
	kms := make([]float64, 0, len(parts))
	for _, p := range parts {
		km, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weekly volume %q", p)
		}
		kms = append(kms, km)
	}
	return kms, nil
}

// parseBests reads "distance=time" pairs such as "5=23:45, 10=49:30".
func parseBests(s string) ([]coach.BestInput, error) {
	var bests []coach.BestInput
	for _, pair := range splitList(s) {
		dist, tm, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("personal best %q must be distance_km=time", pair)
		}
		km, err := strconv.ParseFloat(strings.TrimSpace(dist), 64)
		if err != nil {
			return nil, fmt.Errorf("personal best %q: invalid distance", pair)
		}
		bests = append(bests, coach.BestInput{DistanceKm: km, Time: strings.TrimSpace(tm)})
	}
	return bests, nil
}
