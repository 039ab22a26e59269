package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/claude/paceguard/internal/adapt"
	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/models"
	"github.com/claude/paceguard/internal/pace"
	"github.com/claude/paceguard/internal/server"
)

// newAPIServer runs the real REST API without a store behind an httptest server.
func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := coach.NewService(adapt.NewEngine(nil, 0, log), log)
	ts := httptest.NewServer(server.New(nil, svc, log))
	t.Cleanup(ts.Close)
	return ts
}

// TestHTTPClientZones verifies the remote backend round-trips zone requests.
func TestHTTPClientZones(t *testing.T) {
	client := NewHTTPClient(newAPIServer(t).URL + "/")
	resp, err := client.Zones(context.Background(), coach.ZonesRequest{
		Tier:      "intermediate",
		GoalInput: coach.GoalInput{GoalDistanceKm: 21.0975, GoalTime: "2:00:00"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Zones.Easy != 391 || resp.Formatted["easy"] != "6:31" {
		t.Errorf("zones = %+v", resp)
	}
}

// TestHTTPClientSessionPace verifies the flattened pace request survives the wire.
func TestHTTPClientSessionPace(t *testing.T) {
	client := NewHTTPClient(newAPIServer(t).URL)
	temp := 30.0
	resp, err := client.SessionPace(context.Background(), coach.PaceRequest{
		ZonesRequest:   coach.ZonesRequest{Tier: "beginner", GoalInput: coach.GoalInput{GoalDistanceKm: 5, GoalTimeSeconds: 3600}},
		SessionRequest: pace.SessionRequest{Kind: "recovery", AmbientTempC: &temp},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Clamped || resp.SecondsPerKm != pace.MaxSessionPace {
		t.Errorf("pace = %+v, want clamped", resp.SessionPace)
	}
}

// TestHTTPClientValidateVolume verifies verdicts decode from the remote API.
func TestHTTPClientValidateVolume(t *testing.T) {
	client := NewHTTPClient(newAPIServer(t).URL)
	v, err := client.ValidateVolume(context.Background(), coach.VolumeRequest{
		Proposal: models.WeeklyVolumeProposal{PreviousKm: 20, ProposedKm: 26, WeeksAtCurrentVolume: 1},
		Profile:  models.FitnessProfile{Tier: models.TierBeginner, TrainingDaysPerWeek: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.Accepted || v.SafeKm != 22 || len(v.Checks) != 4 {
		t.Errorf("verdict = %+v, want capped at 22 with four checks", v)
	}
}

// TestHTTPClientEvaluateFeedback verifies string paces are forwarded and parsed server-side.
func TestHTTPClientEvaluateFeedback(t *testing.T) {
	client := NewHTTPClient(newAPIServer(t).URL)
	resp, err := client.EvaluateFeedback(context.Background(), coach.FeedbackRequest{
		Feedback: coach.FeedbackInput{
			SessionFeedback: models.SessionFeedback{Completion: "completed", RPE: 4, Difficulty: 4, Feeling: "ok", SessionKind: "easy"},
			PlannedPace:     "5:00",
			ActualPace:      "5:20",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Rule != adapt.RulePaceDeviation || resp.Feedback.ActualPaceSecPerKm == nil || *resp.Feedback.ActualPaceSecPerKm != 320 {
		t.Errorf("response = %+v", resp)
	}
}

// TestHTTPClientPredictAndScore verifies the score and prediction endpoints.
func TestHTTPClientPredictAndScore(t *testing.T) {
	client := NewHTTPClient(newAPIServer(t).URL)
	score, err := client.FitnessScore(context.Background(), coach.FitnessRequest{
		Tier:          "intermediate",
		PersonalBests: []coach.BestInput{{DistanceKm: 10, Time: "40:00"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	pred, err := client.Predict(context.Background(), coach.PredictRequest{Score: score.Score.Value, DistanceKm: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(pred.Predictions) != 1 {
		t.Fatalf("predictions = %d, want 1", len(pred.Predictions))
	}
	if got := pred.Predictions[0].TimeSeconds; got < 2200 || got > 2500 {
		t.Errorf("10K prediction = %d s, want near the 2400 s best", got)
	}
}

// TestHTTPClientInvalidInput verifies a 400 reply maps to models.ErrInvalidInput
// carrying the API's error message.
func TestHTTPClientInvalidInput(t *testing.T) {
	client := NewHTTPClient(newAPIServer(t).URL)
	_, err := client.Zones(context.Background(), coach.ZonesRequest{Tier: "pro", GoalInput: coach.GoalInput{GoalDistanceKm: 10, GoalTimeSeconds: 3000}})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "pro") {
		t.Errorf("error = %v, want the server message", err)
	}
}

// TestHTTPClientServerError verifies non-200, non-400 replies surface the status and body.
func TestHTTPClientServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("request = %s %q, want JSON POST", r.Method, r.Header.Get("Content-Type"))
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).Predict(context.Background(), coach.PredictRequest{Score: 40})
	if err == nil || errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("error = %v, want a plain failure", err)
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %v, want status and body", err)
	}
}
