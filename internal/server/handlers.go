package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/paceguard/internal/activity"
	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/models"
	"github.com/claude/paceguard/internal/storage"
)

// maxActivityBytes caps uploaded FIT files.
const maxActivityBytes = 16 << 20

func (s *Server) handleFitnessScore(w http.ResponseWriter, r *http.Request) {
	var req coach.FitnessRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.coach.FitnessScore(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	var req coach.ZonesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.coach.Zones(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePace(w http.ResponseWriter, r *http.Request) {
	var req coach.PaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.coach.SessionPace(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req coach.PredictRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.coach.Predict(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidateVolume(w http.ResponseWriter, r *http.Request) {
	var req coach.VolumeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	verdict, err := s.coach.ValidateVolume(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleValidateBatch(w http.ResponseWriter, r *http.Request) {
	var req coach.BatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.coach.ValidateBatch(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCutback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	weeks, err := strconv.Atoi(q.Get("weeks"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weeks parameter must be an integer"})
		return
	}
	currentKm, err := strconv.ParseFloat(q.Get("current_km"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "current_km parameter must be a number"})
		return
	}
	resp, err := s.coach.Cutback(r.Context(), weeks, q.Get("tier"), currentKm)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvaluateFeedback(w http.ResponseWriter, r *http.Request) {
	var req coach.FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.coach.EvaluateFeedback(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivitySummary(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxActivityBytes)
	summary, err := activity.Summarize(body)
	if err != nil {
		s.log.Warn("activity summary failed", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// writeError maps input errors to 400, missing athletes to 404 and the rest to 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
