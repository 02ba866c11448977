package notification

import (
	"testing"
	"time"

	"github.com/Ccreature09/poko-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplates_EveryTypeHasAFormatter(t *testing.T) {
	types := []string{
		domain.TypeAssignmentCreated, domain.TypeAssignmentDueSoon,
		domain.TypeAssignmentSubmitted, domain.TypeAssignmentGraded,
		domain.TypeAssignmentLate, domain.TypeQuizCreated,
		domain.TypeQuizDueSoon, domain.TypeQuizGraded,
		domain.TypeQuizCheatingDetected, domain.TypeNewGrade,
		domain.TypeGradeUpdated, domain.TypeGradeDeleted,
		domain.TypeAttendanceAbsent, domain.TypeAttendanceLate,
		domain.TypeAttendanceExcused, domain.TypeAttendanceSummary,
		domain.TypeTimetableUpdated, domain.TypeTimetableSubstitution,
		domain.TypeReviewPositive, domain.TypeReviewNegative,
		domain.TypeAnnouncementClass, domain.TypeAnnouncementSchool,
		domain.TypeEventReminder, domain.TypeMeetingScheduled,
		domain.TypeReportReady, domain.TypeAccountCreated,
		domain.TypePasswordChanged, domain.TypeParentLinked,
		domain.TypeMaintenance, domain.TypeDataExport,
	}
	for _, typ := range types {
		format, ok := templates[typ]
		require.True(t, ok, "missing template for %s", typ)
		out := format(params{})
		assert.NotEmpty(t, out.Title, typ)
		assert.NotEmpty(t, out.Message, typ)
	}
}

func TestTemplates_ParamsInterpolated(t *testing.T) {
	out := templates[domain.TypeNewGrade](params{
		"studentName": "Ivan Petrov",
		"grade":       "6",
		"subjectName": "Mathematics",
	})
	assert.Equal(t, "Ivan Petrov received grade 6 in Mathematics.", out.Message)
}

func TestTemplates_MissingParamsFallBack(t *testing.T) {
	out := templates[domain.TypeAttendanceAbsent](params{})
	assert.Contains(t, out.Message, "A student")
	assert.Contains(t, out.Message, "a lesson")
}

func TestCategoryFromType(t *testing.T) {
	cases := map[string]string{
		domain.TypeAssignmentCreated:  domain.CategoryAssignments,
		domain.TypeQuizGraded:         domain.CategoryQuizzes,
		domain.TypeNewGrade:           domain.CategoryGrades,
		domain.TypeGradeUpdated:       domain.CategoryGrades,
		domain.TypeAttendanceAbsent:   domain.CategoryAttendance,
		domain.TypeReviewNegative:     domain.CategoryFeedback,
		domain.TypeAnnouncementSchool: domain.CategoryAnnouncements,
		domain.TypeTimetableUpdated:   domain.CategoryAnnouncements,
		domain.TypeMaintenance:        domain.CategorySystem,
		// Unregistered type following the naming convention still classifies.
		"assignment-reopened": domain.CategoryAssignments,
		"completely-unknown":  domain.CategorySystem,
	}
	for typ, want := range cases {
		assert.Equal(t, want, categoryFromType(typ), typ)
	}
}

func TestPriorityFromType(t *testing.T) {
	cases := map[string]string{
		domain.TypeQuizCheatingDetected: domain.PriorityUrgent,
		domain.TypeMaintenance:          domain.PriorityUrgent,
		domain.TypeAttendanceAbsent:     domain.PriorityHigh,
		domain.TypeAttendanceLate:       domain.PriorityHigh,
		domain.TypeAssignmentDueSoon:    domain.PriorityHigh,
		domain.TypeReviewNegative:       domain.PriorityHigh,
		domain.TypeAssignmentLate:       domain.PriorityHigh,
		domain.TypeNewGrade:             domain.PriorityMedium,
		domain.TypeReportReady:          domain.PriorityLow,
		domain.TypePasswordChanged:      domain.PriorityLow,
	}
	for typ, want := range cases {
		assert.Equal(t, want, priorityFromType(typ), typ)
	}
}

func TestExpiryForPriority(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := map[string]int{
		domain.PriorityUrgent: 1,
		domain.PriorityHigh:   3,
		domain.PriorityMedium: 7,
		domain.PriorityLow:    14,
		"bogus":               7, // unknown priorities age like medium
	}
	for priority, days := range cases {
		want := createdAt.AddDate(0, 0, days)
		assert.Equal(t, want, expiryForPriority(priority, createdAt), priority)
	}
}

func TestResolveLink_Precedence(t *testing.T) {
	// Explicit link always wins.
	draft := domain.NotificationDraft{
		Type:      domain.TypeAssignmentCreated,
		RelatedID: "a-1",
		Link:      "/custom",
	}
	assert.Equal(t, "/custom", resolveLink(draft, domain.CategoryAssignments))

	// Type rule applies when a related id is present.
	draft.Link = ""
	assert.Equal(t, "/assignments/a-1", resolveLink(draft, domain.CategoryAssignments))

	// No related id: fall back to the category route.
	draft.RelatedID = ""
	assert.Equal(t, "/assignments", resolveLink(draft, domain.CategoryAssignments))

	// Types without a rule use their category route.
	other := domain.NotificationDraft{Type: domain.TypeReviewPositive, RelatedID: "r-9"}
	assert.Equal(t, "/feedback", resolveLink(other, domain.CategoryFeedback))
}
