// Package activity reads recorded workouts from FIT files.
package activity

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/tormoder/fit"

	"github.com/claude/paceguard/internal/models"
)

// ErrNoSessions is returned for FIT activities without any session message.
var ErrNoSessions = errors.New("no sessions found in FIT file")

// invalidTemperature is the FIT "not recorded" value for a sint8 field.
const invalidTemperature = math.MaxInt8

// Summary is the subset of an activity used for feedback and pace adjustment.
type Summary struct {
	StartTime       time.Time `json:"start_time"`
	DistanceKm      float64   `json:"distance_km"`
	MovingSeconds   int       `json:"moving_seconds"`
	AvgPaceSecPerKm int       `json:"avg_pace_sec_per_km"`
	AvgPace         string    `json:"avg_pace"`
	AvgTemperatureC *float64  `json:"avg_temperature_c,omitempty"`
	Sessions        int       `json:"sessions"`
}

// SummarizeFile summarizes a .fit or gzipped .fit.gz file.
func SummarizeFile(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("opening activity: %w", err)
	}
	defer f.Close()
	return Summarize(f)
}

// Summarize decodes a FIT activity, gzipped or not, and totals its sessions.
func Summarize(r io.Reader) (Summary, error) {
	r, err := maybeDecompress(r)
	if err != nil {
		return Summary{}, err
	}
	f, err := fit.Decode(r)
	if err != nil {
		return Summary{}, fmt.Errorf("decoding FIT file: %w", err)
	}
	act, err := f.Activity()
	if err != nil {
		return Summary{}, fmt.Errorf("reading FIT activity: %w", err)
	}
	if len(act.Sessions) == 0 {
		return Summary{}, ErrNoSessions
	}

	var (
		distanceM, timerSec float64
		tempSum, tempN      int
	)
	for _, s := range act.Sessions {
		distanceM += s.GetTotalDistanceScaled()
		timerSec += s.GetTotalTimerTimeScaled()
		if s.AvgTemperature != invalidTemperature {
			tempSum += int(s.AvgTemperature)
			tempN++
		}
	}

	var temp *float64
	if tempN > 0 {
		t := float64(tempSum) / float64(tempN)
		temp = &t
	}
	sum, err := summarize(distanceM, timerSec, temp)
	if err != nil {
		return Summary{}, err
	}
	sum.StartTime = act.Sessions[0].StartTime
	sum.Sessions = len(act.Sessions)
	return sum, nil
}

// summarize derives pace from raw totals. NaN totals come from invalid FIT fields.
func summarize(distanceM, timerSec float64, tempC *float64) (Summary, error) {
	if math.IsNaN(distanceM) || distanceM <= 0 {
		return Summary{}, fmt.Errorf("%w: activity has no distance", models.ErrInvalidInput)
	}
	if math.IsNaN(timerSec) || timerSec <= 0 {
		return Summary{}, fmt.Errorf("%w: activity has no moving time", models.ErrInvalidInput)
	}
	km := distanceM / 1000
	pace := int(math.Round(timerSec / km))
	return Summary{
		DistanceKm:      math.Round(km*100) / 100,
		MovingSeconds:   int(math.Round(timerSec)),
		AvgPaceSecPerKm: pace,
		AvgPace:         models.FormatPace(pace),
		AvgTemperatureC: tempC,
	}, nil
}

// maybeDecompress unwraps gzip streams, as produced by watch exports, and
// passes anything else through.
func maybeDecompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil || magic[0] != 0x1f || magic[1] != 0x8b {
		return br, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("decompressing activity: %w", err)
	}
	return zr, nil
}
