// Package uptime converts the device's uptime strings and stored uptime
// limits to seconds, and decides whether a session has outlived its limit.
// It is the single parsing point shared by all reconciliation workers.
package uptime

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

var unitSeconds = map[byte]int64{
	'd': secondsPerDay,
	'h': secondsPerHour,
	'm': secondsPerMinute,
	's': 1,
}

// ParseUptime converts a device-reported uptime string to seconds. The
// format is "<n>d<n>h<n>m<n>s" with any subset of components present
// ("2h30m", "45s"); older firmware separates components with spaces
// ("1d 2h"), which is accepted too. An empty string is zero. A malformed
// string yields zero and a non-nil error; callers log it as a warning
// instead of failing the cycle.
func ParseUptime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var total int64
	for _, part := range strings.Fields(s) {
		digits := 0
		for i := 0; i < len(part); i++ {
			c := part[i]
			if c >= '0' && c <= '9' {
				digits++
				continue
			}
			mult, ok := unitSeconds[c]
			if !ok || digits == 0 {
				return 0, fmt.Errorf("malformed uptime %q", s)
			}
			n, err := strconv.ParseInt(part[i-digits:i], 10, 64)
			if err != nil {
				return 0, fmt.Errorf("malformed uptime %q: %w", s, err)
			}
			total += n * mult
			digits = 0
		}
		if digits != 0 {
			// trailing digits without a unit
			return 0, fmt.Errorf("malformed uptime %q", s)
		}
	}
	return total, nil
}

// ParseLimit converts a stored uptime-limit string to seconds. Accepted
// formats: "<n>d" (days), "HH:MM:SS", or a bare integer meaning seconds.
// An empty string is zero ("never expires"). A malformed string yields zero
// and a non-nil error.
func ParseLimit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if strings.ContainsRune(s, 'd') {
		days, err := strconv.ParseInt(strings.TrimSpace(strings.TrimSuffix(s, "d")), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed uptime limit %q: %w", s, err)
		}
		return days * secondsPerDay, nil
	}

	if strings.ContainsRune(s, ':') {
		parts := strings.Split(s, ":")
		if len(parts) != 3 {
			return 0, fmt.Errorf("malformed uptime limit %q", s)
		}
		var total int64
		for i, mult := range []int64{secondsPerHour, secondsPerMinute, 1} {
			n, err := strconv.ParseInt(parts[i], 10, 64)
			if err != nil {
				return 0, fmt.Errorf("malformed uptime limit %q: %w", s, err)
			}
			total += n * mult
		}
		return total, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed uptime limit %q: %w", s, err)
	}
	return n, nil
}

// LimitReached reports whether the current uptime has reached or exceeded
// the limit, both in seconds. A limit of zero or less means the session
// never expires.
func LimitReached(currentSeconds, limitSeconds int64) bool {
	if limitSeconds <= 0 {
		return false
	}
	return currentSeconds >= limitSeconds
}
