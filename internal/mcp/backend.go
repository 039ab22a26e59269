package mcp

import (
	"context"

	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/models"
)

// Backend abstracts the coaching core for MCP tools. Both *coach.Service
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type Backend interface {
	FitnessScore(ctx context.Context, req coach.FitnessRequest) (*coach.FitnessResponse, error)
	Zones(ctx context.Context, req coach.ZonesRequest) (*coach.ZonesResponse, error)
	SessionPace(ctx context.Context, req coach.PaceRequest) (*coach.PaceResponse, error)
	Predict(ctx context.Context, req coach.PredictRequest) (*coach.PredictResponse, error)
	ValidateVolume(ctx context.Context, req coach.VolumeRequest) (*models.ProgressionVerdict, error)
	EvaluateFeedback(ctx context.Context, req coach.FeedbackRequest) (*coach.FeedbackResponse, error)
}

// Compile-time check: *coach.Service satisfies Backend.
var _ Backend = (*coach.Service)(nil)
