package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/models"
	"github.com/claude/paceguard/internal/storage"
)

// Store is the persistence collaborator behind the athlete routes.
// *storage.DB satisfies it.
type Store interface {
	UpsertProfile(ctx context.Context, athleteID uuid.UUID, p models.FitnessProfile) error
	GetProfile(ctx context.Context, athleteID uuid.UUID) (*models.FitnessProfile, error)
	AddPersonalBests(ctx context.Context, athleteID uuid.UUID, bests []models.PersonalBest) (int64, error)
	PersonalBests(ctx context.Context, athleteID uuid.UUID) ([]models.PersonalBest, error)
	RecordWeeklyVolume(ctx context.Context, athleteID uuid.UUID, weekStart time.Time, km float64) error
	VolumeState(ctx context.Context, athleteID uuid.UUID) (storage.VolumeState, error)
	InsertFeedback(ctx context.Context, athleteID uuid.UUID, fb models.SessionFeedback) (uuid.UUID, error)
	RecentFeedback(ctx context.Context, athleteID uuid.UUID, limit int) ([]models.SessionFeedback, error)
	InsertVerdict(ctx context.Context, athleteID uuid.UUID, p models.WeeklyVolumeProposal, v models.ProgressionVerdict) (uuid.UUID, error)
	InsertPlan(ctx context.Context, athleteID, feedbackID uuid.UUID, rule string, plan models.AdaptationPlan) (uuid.UUID, error)
}

// Compile-time check: *storage.DB satisfies Store.
var _ Store = (*storage.DB)(nil)

// feedbackHistoryLimit is how many past sessions feed the adaptation trend.
const feedbackHistoryLimit = 10

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  Store
	coach  *coach.Service
	log    *slog.Logger
	router chi.Router
}

// New creates a new Server with all routes configured. store may be nil, in
// which case the athlete routes are not mounted.
func New(store Store, svc *coach.Service, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		coach:  svc,
		log:    log,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/fitness-score", s.handleFitnessScore)
		r.Post("/zones", s.handleZones)
		r.Post("/pace", s.handlePace)
		r.Post("/predict", s.handlePredict)
		r.Post("/volume/validate", s.handleValidateVolume)
		r.Post("/volume/validate/batch", s.handleValidateBatch)
		r.Get("/volume/cutback", s.handleCutback)
		r.Post("/feedback/evaluate", s.handleEvaluateFeedback)
		r.Post("/activities/summary", s.handleActivitySummary)

		if s.store == nil {
			return
		}
		r.Route("/athletes/{id}", func(r chi.Router) {
			r.Put("/", s.handlePutAthlete)
			r.Put("/volumes", s.handlePutVolume)
			r.Get("/zones", s.handleAthleteZones)
			r.Post("/volume/validate", s.handleAthleteValidateVolume)
			r.Post("/feedback", s.handleAthleteFeedback)
		})
	})
}
