// Package evaluate runs YAML athlete scenarios through the coaching core and
// journals every result.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/paceguard/internal/activity"
	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/journal"
	"github.com/claude/paceguard/internal/models"
	"github.com/claude/paceguard/internal/pace"
)

// Stats tracks evaluation progress.
type Stats struct {
	FilesTotal     int
	FilesEvaluated int
	FilesSkipped   int
	FilesErrored   int
	Entries        int
	Insufficient   int
}

// Runner evaluates scenario files and journals the results.
type Runner struct {
	svc     *coach.Service
	journal *journal.Journal
	force   bool
	log     *slog.Logger
	stats   Stats
}

// New creates a Runner. With force set, files already journaled with the same
// content are evaluated again.
func New(svc *coach.Service, j *journal.Journal, force bool, log *slog.Logger) *Runner {
	return &Runner{svc: svc, journal: j, force: force, log: log}
}

// Run evaluates each file. A failing scenario is logged and counted; it does
// not stop the run.
func (r *Runner) Run(ctx context.Context, files []string) (*Stats, error) {
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &r.stats, err
		}
		r.stats.FilesTotal++

		hash, err := journal.HashFile(path)
		if err != nil {
			return &r.stats, fmt.Errorf("hashing %s: %w", path, err)
		}
		if !r.force {
			done, err := r.journal.IsEvaluated(ctx, path, hash)
			if err != nil {
				return &r.stats, fmt.Errorf("checking %s: %w", path, err)
			}
			if done {
				r.stats.FilesSkipped++
				continue
			}
		}

		if err := r.evaluateFile(ctx, path); err != nil {
			r.log.Error("scenario failed", "path", path, "error", err)
			r.stats.FilesErrored++
			continue
		}
		if err := r.journal.MarkEvaluated(ctx, path, hash); err != nil {
			return &r.stats, fmt.Errorf("marking %s: %w", path, err)
		}
		r.stats.FilesEvaluated++
	}
	return &r.stats, nil
}

func (r *Runner) evaluateFile(ctx context.Context, path string) error {
	s, err := LoadScenario(path)
	if err != nil {
		return err
	}
	r.log.Info("evaluating scenario", "name", s.Name, "path", path)

	if err := r.fitness(ctx, s); err != nil {
		return err
	}
	if s.hasGoal() {
		if err := r.zones(ctx, s); err != nil {
			return err
		}
	}

	var summary *activity.Summary
	if s.Activity != "" {
		if summary, err = r.activity(ctx, s); err != nil {
			return err
		}
	}

	if s.Session != nil {
		if err := r.sessionPace(ctx, s, summary); err != nil {
			return err
		}
	}
	if s.Proposal != nil {
		if err := r.verdict(ctx, s); err != nil {
			return err
		}
	}
	if s.Feedback != nil {
		if err := r.decision(ctx, s, summary); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) fitness(ctx context.Context, s *Scenario) error {
	resp, err := r.svc.FitnessScore(ctx, coach.FitnessRequest{Tier: string(s.Profile.Tier), PersonalBests: s.bests()})
	if err != nil {
		return fmt.Errorf("fitness score: %w", err)
	}
	quality := journal.QualityOK
	if resp.Score.Basis == pace.BasisDefault {
		quality = journal.QualityInsufficient
	}
	return r.record(ctx, journal.Entry{
		Kind:        journal.KindFitness,
		Subject:     s.Name,
		Outcome:     fmt.Sprintf("%.1f %s", resp.Score.Value, resp.Score.Label),
		DataQuality: quality,
	}, resp)
}

func (r *Runner) zones(ctx context.Context, s *Scenario) error {
	resp, err := r.svc.Zones(ctx, coach.ZonesRequest{Tier: string(s.Profile.Tier), GoalInput: s.goal()})
	if err != nil {
		return fmt.Errorf("zones: %w", err)
	}
	return r.record(ctx, journal.Entry{
		Kind:    journal.KindZones,
		Subject: s.Name,
		Outcome: "easy " + resp.Formatted["easy"] + " threshold " + resp.Formatted["threshold"],
	}, resp)
}

func (r *Runner) activity(ctx context.Context, s *Scenario) (*activity.Summary, error) {
	summary, err := activity.SummarizeFile(s.Activity)
	if err != nil {
		return nil, fmt.Errorf("activity %s: %w", s.Activity, err)
	}
	err = r.record(ctx, journal.Entry{
		Kind:    journal.KindActivity,
		Subject: s.Name,
		Outcome: fmt.Sprintf("%.2f km at %s/km", summary.DistanceKm, summary.AvgPace),
	}, summary)
	return &summary, err
}

// sessionPace uses the activity's recorded temperature when the session gives none.
func (r *Runner) sessionPace(ctx context.Context, s *Scenario, summary *activity.Summary) error {
	if !s.hasGoal() {
		return fmt.Errorf("session pace: %w: profile needs a goal race", models.ErrInvalidInput)
	}
	temp := s.Session.AmbientTempC
	if temp == nil && summary != nil {
		temp = summary.AvgTemperatureC
	}
	resp, err := r.svc.SessionPace(ctx, coach.PaceRequest{
		ZonesRequest: coach.ZonesRequest{Tier: string(s.Profile.Tier), GoalInput: s.goal()},
		SessionRequest: pace.SessionRequest{
			Kind:         s.Session.Kind,
			DistanceKm:   s.Session.DistanceKm,
			AmbientTempC: temp,
		},
	})
	if err != nil {
		return fmt.Errorf("session pace: %w", err)
	}
	outcome := fmt.Sprintf("%s %s/km", s.Session.Kind, resp.Pace)
	if resp.Clamped {
		outcome += " (clamped)"
	}
	return r.record(ctx, journal.Entry{Kind: journal.KindZones, Subject: s.Name, Outcome: outcome}, resp)
}

func (r *Runner) verdict(ctx context.Context, s *Scenario) error {
	v, err := r.svc.ValidateVolume(ctx, coach.VolumeRequest{Proposal: *s.Proposal, Profile: s.Profile})
	if err != nil {
		return fmt.Errorf("volume: %w", err)
	}
	outcome := fmt.Sprintf("accepted %.1f km", v.SafeKm)
	if !v.Accepted {
		outcome = fmt.Sprintf("capped at %.1f km by %s", v.SafeKm, v.RuleName)
	}
	quality := journal.QualityOK
	for _, c := range v.Checks {
		if c.Status == models.CheckInsufficientData {
			quality = journal.QualityInsufficient
		}
	}
	return r.record(ctx, journal.Entry{
		Kind:        journal.KindVerdict,
		Subject:     s.Name,
		Outcome:     outcome,
		DataQuality: quality,
	}, v)
}

// decision fills a missing actual pace from the activity file.
func (r *Runner) decision(ctx context.Context, s *Scenario, summary *activity.Summary) error {
	in := coach.FeedbackInput{
		SessionFeedback: s.Feedback.SessionFeedback,
		PlannedPace:     s.Feedback.PlannedPace,
		ActualPace:      s.Feedback.ActualPace,
	}
	if in.ActualPace == "" && in.ActualPaceSecPerKm == nil && summary != nil {
		p := summary.AvgPaceSecPerKm
		in.ActualPaceSecPerKm = &p
	}

	resp, err := r.svc.EvaluateFeedback(ctx, coach.FeedbackRequest{Feedback: in, History: s.History, Profile: s.Profile})
	if err != nil {
		return fmt.Errorf("feedback: %w", err)
	}

	entry := journal.Entry{Kind: journal.KindDecision, Subject: s.Name, Outcome: "keep: " + resp.Rule}
	if resp.ShouldAdapt {
		entry.Outcome = "adapt: " + resp.Rule
	}
	if resp.Plan != nil {
		entry.Outcome += " -> " + string(resp.Plan.Action)
		entry.Source = string(resp.Plan.Source)
		if len(s.History) == 0 {
			entry.DataQuality = journal.QualityInsufficient
		}
	}
	return r.record(ctx, entry, resp)
}

func (r *Runner) record(ctx context.Context, e journal.Entry, payload any) error {
	if _, err := r.journal.Record(ctx, e, payload); err != nil {
		return err
	}
	r.stats.Entries++
	if e.DataQuality == journal.QualityInsufficient {
		r.stats.Insufficient++
	}
	return nil
}
