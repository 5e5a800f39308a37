package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
	year = 36525 * day / 100

	maxMillis = math.MaxInt64 / int64(time.Millisecond)
)

// ParseExpiresIn parses a token lifetime.
//
// Accepted forms:
//   - any time.ParseDuration string ("5h", "90m", "1h30m", "1.5s")
//   - a number followed by d, w or y ("2d", "1w", "1y"); y is 365.25 days
//   - a bare integer, read as milliseconds ("60000")
func ParseExpiresIn(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms > maxMillis || ms < -maxMillis {
			return 0, fmt.Errorf("duration %q out of range", s)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	if unit, ok := longUnit(s[len(s)-1]); ok {
		n, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		v := n * float64(unit)
		if math.IsNaN(v) || v >= math.MaxInt64 || v <= math.MinInt64 {
			return 0, fmt.Errorf("duration %q out of range", s)
		}
		return time.Duration(v), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

func longUnit(c byte) (time.Duration, bool) {
	switch c {
	case 'd':
		return day, true
	case 'w':
		return week, true
	case 'y':
		return year, true
	}
	return 0, false
}
