package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/models"
	"github.com/claude/paceguard/internal/storage"
)

type athleteRequest struct {
	Profile       models.FitnessProfile `json:"profile"`
	PersonalBests []coach.BestInput     `json:"personal_bests,omitempty"`
}

type volumeRecordRequest struct {
	WeekStart string  `json:"week_start"`
	Km        float64 `json:"km"`
}

type athleteZonesResponse struct {
	coach.ZonesResponse
	Fitness *coach.FitnessResponse `json:"fitness"`
}

type athleteVerdictResponse struct {
	ID       uuid.UUID                   `json:"id"`
	Proposal models.WeeklyVolumeProposal `json:"proposal"`
	Verdict  *models.ProgressionVerdict  `json:"verdict"`
}

type athleteFeedbackResponse struct {
	FeedbackID uuid.UUID  `json:"feedback_id"`
	PlanID     *uuid.UUID `json:"plan_id,omitempty"`
	*coach.FeedbackResponse
}

func athleteID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid athlete id", models.ErrInvalidInput)
	}
	return id, nil
}

func (s *Server) handlePutAthlete(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req athleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := coach.NormalizeProfile(req.Profile)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if profile.TrainingDaysPerWeek < 1 || profile.TrainingDaysPerWeek > 7 {
		s.writeError(w, fmt.Errorf("%w: training days per week must be 1-7", models.ErrInvalidInput))
		return
	}
	bests, err := coach.ParseBests(req.PersonalBests)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, pb := range bests {
		if pb.DistanceKm <= 0 || pb.TimeSeconds <= 0 {
			s.writeError(w, fmt.Errorf("%w: personal bests need positive distance and time", models.ErrInvalidInput))
			return
		}
	}

	if err := s.store.UpsertProfile(r.Context(), id, profile); err != nil {
		s.writeError(w, err)
		return
	}
	added, err := s.store.AddPersonalBests(r.Context(), id, bests)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "profile": profile, "personal_bests_added": added})
}

func (s *Server) handlePutVolume(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req volumeRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	week, err := time.Parse(time.DateOnly, req.WeekStart)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week_start must be YYYY-MM-DD"})
		return
	}
	if req.Km < 0 {
		s.writeError(w, fmt.Errorf("%w: km must be non-negative", models.ErrInvalidInput))
		return
	}
	if _, err := s.store.GetProfile(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.RecordWeeklyVolume(r.Context(), id, week, req.Km); err != nil {
		s.writeError(w, err)
		return
	}
	state, err := s.store.VolumeState(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAthleteZones(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	profile, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	bests, err := s.store.PersonalBests(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	zones, err := s.coach.Zones(r.Context(), coach.ZonesRequest{
		Tier:      string(profile.Tier),
		GoalInput: coach.GoalInput{GoalDistanceKm: profile.GoalDistanceKm, GoalTimeSeconds: profile.GoalTimeSeconds},
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	inputs := make([]coach.BestInput, 0, len(bests))
	for _, pb := range bests {
		inputs = append(inputs, coach.BestInput{DistanceKm: pb.DistanceKm, TimeSeconds: pb.TimeSeconds})
	}
	fitness, err := s.coach.FitnessScore(r.Context(), coach.FitnessRequest{Tier: string(profile.Tier), PersonalBests: inputs})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, athleteZonesResponse{ZonesResponse: *zones, Fitness: fitness})
}

func (s *Server) handleAthleteValidateVolume(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		ProposedKm float64 `json:"proposed_km"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	state, err := s.store.VolumeState(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	proposal := proposalFrom(state, req.ProposedKm)
	verdict, err := s.coach.ValidateVolume(r.Context(), coach.VolumeRequest{Proposal: proposal, Profile: *profile})
	if err != nil {
		s.writeError(w, err)
		return
	}
	verdictID, err := s.store.InsertVerdict(r.Context(), id, proposal, *verdict)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, athleteVerdictResponse{ID: verdictID, Proposal: proposal, Verdict: verdict})
}

func (s *Server) handleAthleteFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var in coach.FeedbackInput
	if !decodeJSON(w, r, &in) {
		return
	}
	profile, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	history, err := s.store.RecentFeedback(r.Context(), id, feedbackHistoryLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp, err := s.coach.EvaluateFeedback(r.Context(), coach.FeedbackRequest{Feedback: in, History: history, Profile: *profile})
	if err != nil {
		s.writeError(w, err)
		return
	}
	feedbackID, err := s.store.InsertFeedback(r.Context(), id, resp.Feedback)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := athleteFeedbackResponse{FeedbackID: feedbackID, FeedbackResponse: resp}
	if resp.Plan != nil {
		planID, err := s.store.InsertPlan(r.Context(), id, feedbackID, resp.Rule, *resp.Plan)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out.PlanID = &planID
	}
	writeJSON(w, http.StatusOK, out)
}

func proposalFrom(state storage.VolumeState, proposedKm float64) models.WeeklyVolumeProposal {
	return models.WeeklyVolumeProposal{
		PreviousKm:           state.PreviousKm,
		ProposedKm:           proposedKm,
		WeeksAtCurrentVolume: state.WeeksAtCurrentVolume,
		RecentFourWeekKm:     state.RecentFourWeekKm,
	}
}
