package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxDurationSeconds bounds parsed durations at one week.
const MaxDurationSeconds = 7 * 24 * 3600

// ParseDuration converts "h:mm:ss", "mm:ss" or a plain number of seconds into seconds.
// Malformed or non-positive input is an error, never zero.
func ParseDuration(s string) (int, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty duration", ErrInvalidInput)
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: duration %q has too many fields", ErrInvalidInput, s)
	}

	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: duration %q: bad field %q", ErrInvalidInput, s, p)
		}
		// Every field after the leading one is a base-60 digit.
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("%w: duration %q: field %q out of range", ErrInvalidInput, s, p)
		}
		// total stays under MaxDurationSeconds, so the multiply cannot overflow.
		total = total*60 + n
		if n > MaxDurationSeconds || total > MaxDurationSeconds {
			return 0, fmt.Errorf("%w: duration %q exceeds %d seconds", ErrInvalidInput, s, MaxDurationSeconds)
		}
	}

	if total <= 0 {
		return 0, fmt.Errorf("%w: duration %q must be positive", ErrInvalidInput, s)
	}
	return total, nil
}

// ParsePace converts "m:ss", "m:ss/km" or plain seconds into seconds per km.
func ParsePace(s string) (int, error) {
	raw := strings.TrimSpace(strings.ToLower(s))
	raw = strings.TrimSuffix(raw, "min/km")
	raw = strings.TrimSuffix(raw, "/km")
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ":") > 1 {
		return 0, fmt.Errorf("%w: pace %q must be m:ss", ErrInvalidInput, s)
	}
	secs, err := ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing pace %q: %w", s, err)
	}
	return secs, nil
}

// FormatPace renders seconds per km as "m:ss". It is for display only; negative input
// renders as "0:00".
func FormatPace(secPerKm int) string {
	if secPerKm < 0 {
		secPerKm = 0
	}
	return fmt.Sprintf("%d:%02d", secPerKm/60, secPerKm%60)
}

// FormatDuration renders seconds as "h:mm:ss", or "m:ss" under an hour. Like FormatPace
// it is display-only and renders negative input as "0:00".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	sec := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
