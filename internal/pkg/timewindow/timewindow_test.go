package timewindow

import (
	"testing"
	"time"

	"github.com/Ccreature09/poko-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-01-05 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2026, 1, 5, hour, minute, 0, 0, time.UTC)
}

func mathSession() domain.ClassSession {
	return domain.ClassSession{
		Day:       "Monday",
		Period:    2,
		SubjectID: "sub-math",
		TeacherID: "t-1",
		StartTime: "09:10",
		EndTime:   "09:50",
	}
}

func TestDetectCurrentClass_InclusiveBounds(t *testing.T) {
	sessions := []domain.ClassSession{mathSession()}

	cases := []struct {
		name   string
		now    time.Time
		inside bool
	}{
		{"at start", monday(9, 10), true},
		{"mid lesson", monday(9, 30), true},
		{"at end", monday(9, 50), true},
		{"minute before start", monday(9, 9), false},
		{"minute after end", monday(9, 51), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectCurrentClass(sessions, tc.now)
			if tc.inside {
				require.NotNil(t, got)
				assert.Equal(t, "sub-math", got.SubjectID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestDetectCurrentClass_WrongWeekday(t *testing.T) {
	sessions := []domain.ClassSession{mathSession()}
	tuesday := monday(9, 30).AddDate(0, 0, 1)
	assert.Nil(t, DetectCurrentClass(sessions, tuesday))
}

func TestDetectCurrentClass_FirstMatchWins(t *testing.T) {
	first := mathSession()
	second := mathSession()
	second.SubjectID = "sub-history"

	got := DetectCurrentClass([]domain.ClassSession{first, second}, monday(9, 30))
	require.NotNil(t, got)
	assert.Equal(t, "sub-math", got.SubjectID)
}

func TestDetectCurrentClass_MalformedTimesSkipped(t *testing.T) {
	broken := mathSession()
	broken.StartTime = "nine"
	ok := mathSession()
	ok.SubjectID = "sub-bio"

	got := DetectCurrentClass([]domain.ClassSession{broken, ok}, monday(9, 30))
	require.NotNil(t, got)
	assert.Equal(t, "sub-bio", got.SubjectID)
}

func TestIsPeriodOver(t *testing.T) {
	periods := []domain.Period{
		{Number: 1, StartTime: "08:00", EndTime: "08:40"},
		{Number: 2, StartTime: "09:10", EndTime: "09:50"},
	}

	// Wednesday 10:00.
	now := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)

	assert.True(t, IsPeriodOver("Monday", 2, periods, now), "earlier weekday is over")
	assert.False(t, IsPeriodOver("Friday", 1, periods, now), "later weekday is not over")
	assert.True(t, IsPeriodOver("Wednesday", 2, periods, now), "today, end time passed")
	assert.False(t, IsPeriodOver("Wednesday", 2, periods, time.Date(2026, 1, 7, 9, 30, 0, 0, time.UTC)), "today, still running")
	assert.False(t, IsPeriodOver("Wednesday", 9, periods, now), "unknown period")
}

func TestClockMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"00:00", 0, true},
		{"09:10", 550, true},
		{"23:59", 1439, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"junk", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ClockMinutes(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}
