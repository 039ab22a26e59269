package evaluate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/claude/paceguard/internal/coach"
	"github.com/claude/paceguard/internal/models"
)

// Scenario is one athlete situation to run through the coaching core.
// Every section except profile is optional.
type Scenario struct {
	Name          string                       `yaml:"name"`
	Profile       models.FitnessProfile        `yaml:"profile"`
	GoalTime      string                       `yaml:"goal_time"`
	PersonalBests []Best                       `yaml:"personal_bests"`
	Session       *Session                     `yaml:"session"`
	Proposal      *models.WeeklyVolumeProposal `yaml:"proposal"`
	Feedback      *Feedback                    `yaml:"feedback"`
	History       []models.SessionFeedback     `yaml:"history"`
	// Activity is a FIT file path, relative to the scenario file.
	Activity string `yaml:"activity"`
}

type Best struct {
	DistanceKm float64 `yaml:"distance_km"`
	Time       string  `yaml:"time"`
}

type Session struct {
	Kind         string   `yaml:"kind"`
	DistanceKm   *float64 `yaml:"distance_km"`
	AmbientTempC *float64 `yaml:"ambient_temp_c"`
}

type Feedback struct {
	models.SessionFeedback `yaml:",inline"`
	PlannedPace            string `yaml:"planned_pace"`
	ActualPace             string `yaml:"actual_pace"`
}

// LoadScenario reads a scenario file. The name defaults to the file's base name.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if s.Activity != "" && !filepath.IsAbs(s.Activity) {
		s.Activity = filepath.Join(filepath.Dir(path), s.Activity)
	}
	return &s, nil
}

func (s *Scenario) bests() []coach.BestInput {
	out := make([]coach.BestInput, 0, len(s.PersonalBests))
	for _, b := range s.PersonalBests {
		out = append(out, coach.BestInput{DistanceKm: b.DistanceKm, Time: b.Time})
	}
	return out
}

func (s *Scenario) goal() coach.GoalInput {
	return coach.GoalInput{
		GoalDistanceKm:  s.Profile.GoalDistanceKm,
		GoalTimeSeconds: s.Profile.GoalTimeSeconds,
		GoalTime:        s.GoalTime,
	}
}

func (s *Scenario) hasGoal() bool {
	return s.Profile.GoalDistanceKm > 0 && (s.Profile.GoalTimeSeconds > 0 || s.GoalTime != "")
}

// Collect expands files and directories into a sorted list of scenario files.
func Collect(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isScenarioFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func isScenarioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
