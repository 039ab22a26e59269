package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/paceguard/internal/adapt"
	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/models"
	"github.com/claude/paceguard/internal/storage"
)

// fakeStore keeps one athlete in memory.
type fakeStore struct {
	profile  *models.FitnessProfile
	bests    []models.PersonalBest
	state    storage.VolumeState
	weeks    map[string]float64
	feedback []models.SessionFeedback
	verdicts []models.ProgressionVerdict
	plans    []models.AdaptationPlan
}

func (f *fakeStore) UpsertProfile(_ context.Context, _ uuid.UUID, p models.FitnessProfile) error {
	f.profile = &p
	return nil
}

func (f *fakeStore) GetProfile(_ context.Context, _ uuid.UUID) (*models.FitnessProfile, error) {
	if f.profile == nil {
		return nil, storage.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeStore) AddPersonalBests(_ context.Context, _ uuid.UUID, bests []models.PersonalBest) (int64, error) {
	f.bests = append(f.bests, bests...)
	return int64(len(bests)), nil
}

func (f *fakeStore) PersonalBests(_ context.Context, _ uuid.UUID) ([]models.PersonalBest, error) {
	return f.bests, nil
}

func (f *fakeStore) RecordWeeklyVolume(_ context.Context, _ uuid.UUID, weekStart time.Time, km float64) error {
	if f.weeks == nil {
		f.weeks = make(map[string]float64)
	}
	f.weeks[weekStart.Format(time.DateOnly)] = km
	f.state.PreviousKm = km
	return nil
}

func (f *fakeStore) VolumeState(_ context.Context, _ uuid.UUID) (storage.VolumeState, error) {
	return f.state, nil
}

func (f *fakeStore) InsertFeedback(_ context.Context, _ uuid.UUID, fb models.SessionFeedback) (uuid.UUID, error) {
	f.feedback = append(f.feedback, fb)
	return uuid.New(), nil
}

func (f *fakeStore) RecentFeedback(_ context.Context, _ uuid.UUID, _ int) ([]models.SessionFeedback, error) {
	return f.feedback, nil
}

func (f *fakeStore) InsertVerdict(_ context.Context, _ uuid.UUID, _ models.WeeklyVolumeProposal, v models.ProgressionVerdict) (uuid.UUID, error) {
	f.verdicts = append(f.verdicts, v)
	return uuid.New(), nil
}

func (f *fakeStore) InsertPlan(_ context.Context, _, _ uuid.UUID, _ string, plan models.AdaptationPlan) (uuid.UUID, error) {
	f.plans = append(f.plans, plan)
	return uuid.New(), nil
}

func newTestServer(t *testing.T, store Store) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, coach.NewService(adapt.NewEngine(nil, 0, log), log), log)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestHealthz verifies the liveness endpoint.
func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestHandleZones verifies zones are computed from a goal race.
func TestHandleZones(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodPost, "/api/v1/zones",
		`{"tier":"intermediate","goal_distance_km":21.0975,"goal_time":"2:00:00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp coach.ZonesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Zones.Easy != 391 || resp.Formatted["easy"] != "6:31" {
		t.Errorf("easy = %d (%s), want 391 (6:31)", resp.Zones.Easy, resp.Formatted["easy"])
	}
}

// TestHandleInputErrors verifies malformed bodies and invalid values map to 400.
func TestHandleInputErrors(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name string
		path string
		body string
	}{
		{"bad json", "/api/v1/zones", `{"tier":`},
		{"missing goal time", "/api/v1/zones", `{"tier":"beginner","goal_distance_km":10}`},
		{"unknown tier", "/api/v1/pace", `{"tier":"pro","goal_distance_km":10,"goal_time_seconds":3000,"session_kind":"easy"}`},
		{"malformed best", "/api/v1/fitness-score", `{"tier":"beginner","personal_bests":[{"distance_km":5,"time":"23:99"}]}`},
		{"negative volume", "/api/v1/volume/validate", `{"proposal":{"previous_km":-1,"proposed_km":10},"profile":{"tier":"beginner","training_days_per_week":3}}`},
		{"bad feeling", "/api/v1/feedback/evaluate", `{"feedback":{"completion":"completed","rpe":5,"difficulty":5,"feeling":"meh","session_kind":"easy"}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tc.path, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body)
			}
		})
	}
}

// TestHandleValidateVolume verifies an aggressive jump is capped by the percentage rule.
func TestHandleValidateVolume(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodPost, "/api/v1/volume/validate",
		`{"proposal":{"previous_km":20,"proposed_km":26,"weeks_at_current_volume":1},"profile":{"tier":"beginner","training_days_per_week":4}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var v models.ProgressionVerdict
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if v.Accepted || v.SafeKm != 22 || v.RiskLevel != models.RiskDanger {
		t.Errorf("verdict = %+v, want danger capped at 22", v)
	}
}

// TestHandleCutback verifies query parsing for the cutback endpoint.
func TestHandleCutback(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/v1/volume/cutback?weeks=3&tier=beginner&current_km=40", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp coach.CutbackResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !resp.NeedsCutback || resp.CutbackKm != 30 {
		t.Errorf("cutback = %+v, want due at 30 km", resp)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/volume/cutback?weeks=x&tier=beginner&current_km=40", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestHandleEvaluateFeedback verifies an unfinished session yields a fallback plan.
func TestHandleEvaluateFeedback(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodPost, "/api/v1/feedback/evaluate",
		`{"feedback":{"completion":"incomplete","rpe":6,"difficulty":6,"feeling":"bad","session_kind":"easy"},"profile":{"tier":"intermediate","training_days_per_week":4}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp coach.FeedbackResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !resp.ShouldAdapt || resp.Rule != adapt.RuleNotCompleted {
		t.Errorf("decision = %+v, want not_completed", resp.Decision)
	}
	if resp.Plan == nil || resp.Plan.Source != models.SourceFallback {
		t.Errorf("plan = %+v, want fallback", resp.Plan)
	}
}

// TestHandleActivitySummaryRejectsGarbage verifies non-FIT uploads are a client error.
func TestHandleActivitySummaryRejectsGarbage(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities/summary", bytes.NewReader([]byte("not a fit file")))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestAthleteRoutesWithoutStore verifies athlete routes are absent when no store is configured.
func TestAthleteRoutesWithoutStore(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodGet, "/api/v1/athletes/"+uuid.NewString()+"/zones", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// TestAthleteUnknown verifies a missing athlete maps to 404 and a bad id to 400.
func TestAthleteUnknown(t *testing.T) {
	s := newTestServer(t, &fakeStore{})
	rec := do(t, s, http.MethodGet, "/api/v1/athletes/"+uuid.NewString()+"/zones", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/v1/athletes/not-a-uuid/zones", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestAthleteFlow verifies profile ingestion, stored-state validation and feedback persistence.
func TestAthleteFlow(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(t, store)
	base := "/api/v1/athletes/" + uuid.NewString()

	rec := do(t, s, http.MethodPut, base,
		`{"profile":{"tier":"Beginner","training_days_per_week":4,"goal_distance_km":10,"goal_time_seconds":3600},"personal_bests":[{"distance_km":5,"time":"30:00"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put athlete status = %d: %s", rec.Code, rec.Body)
	}
	if store.profile.Tier != models.TierBeginner || len(store.bests) != 1 || store.bests[0].TimeSeconds != 1800 {
		t.Fatalf("stored profile = %+v bests = %+v", store.profile, store.bests)
	}

	rec = do(t, s, http.MethodPut, base+"/volumes", `{"week_start":"2026-10-12","km":20}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put volume status = %d: %s", rec.Code, rec.Body)
	}
	store.state.WeeksAtCurrentVolume = 1

	rec = do(t, s, http.MethodGet, base+"/zones", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("zones status = %d: %s", rec.Code, rec.Body)
	}
	var zones athleteZonesResponse
	if err := json.NewDecoder(rec.Body).Decode(&zones); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if zones.Fitness == nil || zones.Zones.Recovery == 0 {
		t.Errorf("zones = %+v, want zones and fitness", zones)
	}

	rec = do(t, s, http.MethodPost, base+"/volume/validate", `{"proposed_km":26}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status = %d: %s", rec.Code, rec.Body)
	}
	var verdict athleteVerdictResponse
	if err := json.NewDecoder(rec.Body).Decode(&verdict); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if verdict.Verdict.SafeKm != 22 || verdict.Proposal.PreviousKm != 20 || len(store.verdicts) != 1 {
		t.Errorf("verdict = %+v, want capped at 22 from stored 20 km", verdict)
	}

	rec = do(t, s, http.MethodPost, base+"/feedback",
		`{"completion":"incomplete","rpe":7,"difficulty":7,"feeling":"bad","session_kind":"long"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("feedback status = %d: %s", rec.Code, rec.Body)
	}
	var fb athleteFeedbackResponse
	if err := json.NewDecoder(rec.Body).Decode(&fb); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if fb.PlanID == nil || len(store.plans) != 1 || len(store.feedback) != 1 {
		t.Errorf("feedback response = %+v, want stored feedback and plan", fb)
	}
}

// TestPutVolumeRejectsBadDate verifies week_start must be a date.
func TestPutVolumeRejectsBadDate(t *testing.T) {
	store := &fakeStore{profile: &models.FitnessProfile{Tier: models.TierBeginner, TrainingDaysPerWeek: 3}}
	rec := do(t, newTestServer(t, store), http.MethodPut, "/api/v1/athletes/"+uuid.NewString()+"/volumes", `{"week_start":"12/10/2026","km":20}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
