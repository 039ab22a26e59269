package storage

import (
	"slices"
	"testing"
)

// TestVolumeState verifies previous volume, streak length and the four-week window.
func TestVolumeState(t *testing.T) {
	cases := []struct {
		name       string
		weeks      []float64
		previous   float64
		streak     int
		recentFour []float64
	}{
		{"empty", nil, 0, 0, []float64{}},
		{"single", []float64{20}, 20, 1, []float64{20}},
		{"steady within tolerance", []float64{10, 30, 31, 29, 30}, 30, 4, []float64{30, 31, 29, 30}},
		{"recent jump", []float64{20, 21, 22, 30}, 30, 1, []float64{20, 21, 22, 30}},
		{"long history trimmed", []float64{5, 10, 15, 20, 25, 30}, 30, 1, []float64{15, 20, 25, 30}},
		{"zero weeks", []float64{12, 0, 0}, 0, 2, []float64{12, 0, 0}},
	}
	for _, tc := range cases {
		got := volumeState(tc.weeks)
		if got.PreviousKm != tc.previous {
			t.Errorf("%s: previous = %.1f, want %.1f", tc.name, got.PreviousKm, tc.previous)
		}
		if got.WeeksAtCurrentVolume != tc.streak {
			t.Errorf("%s: weeks at current = %d, want %d", tc.name, got.WeeksAtCurrentVolume, tc.streak)
		}
		if !slices.Equal(got.RecentFourWeekKm, tc.recentFour) {
			t.Errorf("%s: recent = %v, want %v", tc.name, got.RecentFourWeekKm, tc.recentFour)
		}
	}
}
