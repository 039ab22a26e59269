// Package coach adapts request payloads onto the pace, safety and adapt
// packages. The HTTP server and the local MCP backend both call it.
package coach

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/paceguard/internal/adapt"
	"github.com/claude/paceguard/internal/models"
	"github.com/claude/paceguard/internal/pace"
	"github.com/claude/paceguard/internal/safety"
)

// DefaultBatchWorkers bounds concurrent validations in a batch request.
const DefaultBatchWorkers = 8

// Service is stateless apart from its adaptation engine.
type Service struct {
	engine *adapt.Engine
	log    *slog.Logger
}

// NewService creates a Service.
func NewService(engine *adapt.Engine, log *slog.Logger) *Service {
	return &Service{engine: engine, log: log}
}

// FitnessScore scores personal bests and predicts the standard race distances.
func (s *Service) FitnessScore(_ context.Context, req FitnessRequest) (*FitnessResponse, error) {
	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		return nil, err
	}
	bests, err := ParseBests(req.PersonalBests)
	if err != nil {
		return nil, err
	}
	score, err := pace.FitnessScore(bests, tier)
	if err != nil {
		return nil, err
	}
	if score.Basis == pace.BasisDefault {
		s.log.Info("no personal bests, using default fitness score", "data", "insufficient", "score", score.Value)
	}
	predictions, err := pace.PredictStandard(score.Value)
	if err != nil {
		return nil, err
	}
	return &FitnessResponse{Score: score, Predictions: predictions}, nil
}

// Zones computes training zones from a goal race.
func (s *Service) Zones(_ context.Context, req ZonesRequest) (*ZonesResponse, error) {
	zones, _, err := zonesFor(req)
	if err != nil {
		return nil, err
	}
	return &ZonesResponse{Zones: zones, Formatted: FormatZones(zones)}, nil
}

// SessionPace computes the target pace for one session.
func (s *Service) SessionPace(_ context.Context, req PaceRequest) (*PaceResponse, error) {
	zones, tier, err := zonesFor(req.ZonesRequest)
	if err != nil {
		return nil, err
	}
	sp, err := pace.ForSession(zones, req.SessionRequest, tier)
	if err != nil {
		return nil, err
	}
	if sp.Clamped {
		s.log.Warn("session pace clamped", "kind", req.Kind, "unclamped", sp.Unclamped, "clamped", sp.SecondsPerKm)
	}
	return &PaceResponse{SessionPace: sp, Zones: zones}, nil
}

// Predict predicts finish times for a fitness score.
func (s *Service) Predict(_ context.Context, req PredictRequest) (*PredictResponse, error) {
	if req.DistanceKm == 0 {
		predictions, err := pace.PredictStandard(req.Score)
		if err != nil {
			return nil, err
		}
		return &PredictResponse{Predictions: predictions}, nil
	}
	secs, err := pace.PredictTime(req.Score, req.DistanceKm)
	if err != nil {
		return nil, err
	}
	return &PredictResponse{Predictions: []pace.Prediction{{
		Name:        fmt.Sprintf("%gk", req.DistanceKm),
		DistanceKm:  req.DistanceKm,
		TimeSeconds: secs,
		Time:        models.FormatDuration(secs),
		Pace:        models.FormatPace(int(float64(secs)/req.DistanceKm + 0.5)),
	}}}, nil
}

// ValidateVolume gates a weekly volume proposal.
func (s *Service) ValidateVolume(_ context.Context, req VolumeRequest) (*models.ProgressionVerdict, error) {
	profile, err := NormalizeProfile(req.Profile)
	if err != nil {
		return nil, err
	}
	v, err := safety.Validate(req.Proposal, profile)
	if err != nil {
		return nil, err
	}
	s.logVerdict(v)
	return &v, nil
}

// ValidateBatch gates many proposals concurrently.
func (s *Service) ValidateBatch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	items := make([]safety.BatchItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = item
		if tier, err := models.ParseTier(string(item.Profile.Tier)); err == nil {
			items[i].Profile.Tier = tier
		}
	}
	results, err := safety.ValidateBatch(ctx, items, DefaultBatchWorkers)
	if err != nil {
		return nil, fmt.Errorf("validating batch: %w", err)
	}
	return &BatchResponse{Results: results}, nil
}

// Cutback reports whether a cutback week is due and its volume.
func (s *Service) Cutback(_ context.Context, weeksAtCurrentVolume int, tierName string, currentKm float64) (*CutbackResponse, error) {
	tier, err := models.ParseTier(tierName)
	if err != nil {
		return nil, err
	}
	if weeksAtCurrentVolume < 0 || currentKm < 0 {
		return nil, fmt.Errorf("%w: weeks and current volume must be non-negative", models.ErrInvalidInput)
	}
	return &CutbackResponse{
		NeedsCutback: safety.NeedsCutback(weeksAtCurrentVolume, tier),
		CutbackKm:    safety.CutbackVolume(currentKm, tier),
	}, nil
}

// EvaluateFeedback runs the adaptation cascade and, when needed, builds a plan.
func (s *Service) EvaluateFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResponse, error) {
	fb, err := NormalizeFeedback(req.Feedback)
	if err != nil {
		return nil, err
	}
	profile := req.Profile
	if profile.Tier != "" {
		if profile, err = NormalizeProfile(profile); err != nil {
			return nil, err
		}
	}
	d := s.engine.Decide(ctx, fb, req.History, profile)
	return &FeedbackResponse{Decision: d, Feedback: fb}, nil
}

func (s *Service) logVerdict(v models.ProgressionVerdict) {
	for _, c := range v.Checks {
		if c.Status == models.CheckInsufficientData {
			s.log.Info("rule skipped", "data", "insufficient", "rule", c.Rule, "detail", c.Detail)
		}
	}
	if !v.Accepted {
		s.log.Info("volume capped", "rule", v.RuleName, "safe_km", v.SafeKm)
	}
}

func zonesFor(req ZonesRequest) (models.PaceZoneSet, models.Tier, error) {
	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		return models.PaceZoneSet{}, "", err
	}
	secs, err := req.GoalInput.Seconds()
	if err != nil {
		return models.PaceZoneSet{}, "", err
	}
	zones, err := pace.Zones(req.GoalDistanceKm, secs, tier)
	if err != nil {
		return models.PaceZoneSet{}, "", err
	}
	return zones, tier, nil
}
