package models

import (
	"errors"
	"testing"
)

// TestParseDuration verifies the accepted time formats and their second counts.
func TestParseDuration(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"23:45", 1425},
		{"2:00:00", 7200},
		{"1:59:30", 7170},
		{"1425", 1425},
		{" 0:45 ", 45},
		{"168:00:00", MaxDurationSeconds},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.input)
		if err != nil {
			t.Errorf("ParseDuration(%q) error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

// TestParseDurationRejectsMalformed verifies malformed input fails loudly instead of
// silently returning zero.
func TestParseDurationRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "abc", "1:2:3:4", "10:75", "0:00", "-5", "5:-1", "1::00",
		"307445734561825861:00", "9223372036854775807", "168:00:01", "10081:00"} {
		got, err := ParseDuration(input)
		if err == nil {
			t.Errorf("ParseDuration(%q) = %d, want error", input, got)
			continue
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseDuration(%q) error %v does not wrap ErrInvalidInput", input, err)
		}
	}
}

// TestParsePace verifies pace strings with and without unit suffixes.
func TestParsePace(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"5:30", 330},
		{"5:30/km", 330},
		{"4:05 min/km", 245},
		{"300", 300},
	}
	for _, tc := range cases {
		got, err := ParsePace(tc.input)
		if err != nil {
			t.Errorf("ParsePace(%q) error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePace(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}

	if _, err := ParsePace("1:05:30"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParsePace(h:mm:ss) error = %v, want ErrInvalidInput", err)
	}
	if _, err := ParsePace("fast"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParsePace(fast) error = %v, want ErrInvalidInput", err)
	}
}

// TestFormatPace verifies m:ss rendering, including zero padding.
func TestFormatPace(t *testing.T) {
	if got := FormatPace(330); got != "5:30" {
		t.Errorf("FormatPace(330) = %q, want 5:30", got)
	}
	if got := FormatPace(305); got != "5:05" {
		t.Errorf("FormatPace(305) = %q, want 5:05", got)
	}
	if got := FormatDuration(7170); got != "1:59:30" {
		t.Errorf("FormatDuration(7170) = %q, want 1:59:30", got)
	}
	if got := FormatDuration(1425); got != "23:45" {
		t.Errorf("FormatDuration(1425) = %q, want 23:45", got)
	}
	if got := FormatPace(-30); got != "0:00" {
		t.Errorf("FormatPace(-30) = %q, want 0:00", got)
	}
	if got := FormatDuration(-30); got != "0:00" {
		t.Errorf("FormatDuration(-30) = %q, want 0:00", got)
	}
}

// TestParseEnums verifies case-insensitive enum lookup and rejection of unknown names.
func TestParseEnums(t *testing.T) {
	if tier, err := ParseTier(" Advanced "); err != nil || tier != TierAdvanced {
		t.Errorf("ParseTier(Advanced) = %q, %v", tier, err)
	}
	if _, err := ParseTier("pro"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseTier(pro) error = %v, want ErrInvalidInput", err)
	}
	if c, err := ParseCompletion("INCOMPLETE"); err != nil || c != CompletionIncomplete {
		t.Errorf("ParseCompletion(INCOMPLETE) = %q, %v", c, err)
	}
	if f, err := ParseFeeling("okay"); err != nil || f != FeelingOk {
		t.Errorf("ParseFeeling(okay) = %q, %v", f, err)
	}
	if _, err := ParseFeeling("meh"); err == nil {
		t.Error("ParseFeeling(meh): expected error")
	}
}

// TestClampScale verifies ratings are clamped into [1, 10].
func TestClampScale(t *testing.T) {
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 7: 7, 10: 10, 14: 10}
	for in, want := range cases {
		if got := ClampScale(in); got != want {
			t.Errorf("ClampScale(%d) = %d, want %d", in, got, want)
		}
	}
}

// TestHasInjury verifies blank tags do not count as injuries.
func TestHasInjury(t *testing.T) {
	if (FitnessProfile{InjuryTags: []string{" ", ""}}).HasInjury() {
		t.Error("blank tags should not count as an injury")
	}
	if !(FitnessProfile{InjuryTags: []string{"achilles"}}).HasInjury() {
		t.Error("achilles tag should count as an injury")
	}
}
