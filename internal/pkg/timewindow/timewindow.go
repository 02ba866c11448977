// Package timewindow decides how clock times relate to scheduled class
// periods: whether a lesson is running right now and whether a period has
// already ended. All functions are pure; callers inject the clock.
package timewindow

import (
	"strconv"
	"strings"
	"time"

	"github.com/Ccreature09/poko-server/internal/domain"
)

// weekdays in school order, Monday first. Ordinal position decides whether
// an entire day lies in the past relative to "now".
var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DetectCurrentClass returns the first session whose weekday matches now
// and whose [StartTime, EndTime] interval (inclusive on both ends)
// contains the current minute, or nil when no session is running.
// Sessions are assumed non-overlapping, so first match in input order wins.
func DetectCurrentClass(sessions []domain.ClassSession, now time.Time) *domain.ClassSession {
	day := now.Weekday().String()
	minute := MinutesOfDay(now)
	for i := range sessions {
		s := &sessions[i]
		if s.Day != day {
			continue
		}
		start, ok := ClockMinutes(s.StartTime)
		if !ok {
			continue
		}
		end, ok := ClockMinutes(s.EndTime)
		if !ok {
			continue
		}
		if minute >= start && minute <= end {
			return s
		}
	}
	return nil
}

// IsPeriodOver reports whether the given (day, period) slot has already
// finished relative to now: true when the day is earlier in the school week,
// or the day is today and the period's end time has passed. An unknown
// period number is never "over".
func IsPeriodOver(day string, period int, periods []domain.Period, now time.Time) bool {
	dayIdx := weekdayIndex(day)
	nowIdx := weekdayIndex(now.Weekday().String())
	if dayIdx < 0 || nowIdx < 0 {
		return false
	}
	if dayIdx < nowIdx {
		return true
	}
	if dayIdx > nowIdx {
		return false
	}
	for _, p := range periods {
		if p.Number != period {
			continue
		}
		end, ok := ClockMinutes(p.EndTime)
		if !ok {
			return false
		}
		return end < MinutesOfDay(now)
	}
	return false
}

// MinutesOfDay converts a wall-clock instant to minutes since midnight.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ClockMinutes parses an "HH:MM" string into minutes since midnight.
func ClockMinutes(s string) (int, bool) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, false
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	mins, err := strconv.Atoi(m)
	if err != nil || mins < 0 || mins > 59 {
		return 0, false
	}
	return hours*60 + mins, true
}

func weekdayIndex(day string) int {
	for i, d := range weekdays {
		if d == day {
			return i
		}
	}
	return -1
}
