package domain

import "time"

// Notification categories. Every notification type classifies into exactly
// one category; users can opt out per category.
const (
	CategoryAssignments   = "assignments"
	CategoryQuizzes       = "quizzes"
	CategoryGrades        = "grades"
	CategoryAttendance    = "attendance"
	CategoryFeedback      = "feedback"
	CategoryAnnouncements = "announcements"
	CategorySystem        = "system"
)

// Categories lists every notification category.
var Categories = []string{
	CategoryAssignments,
	CategoryQuizzes,
	CategoryGrades,
	CategoryAttendance,
	CategoryFeedback,
	CategoryAnnouncements,
	CategorySystem,
}

// Notification priorities, highest first. Priority drives the expiry window
// and whether do-not-disturb suppression applies (urgent is never suppressed).
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Notification type names. New types classify by naming convention: the
// prefix decides the default category and priority, so adding a type only
// requires following the pattern (see the template table in the
// notification service).
const (
	TypeAssignmentCreated     = "assignment-created"
	TypeAssignmentDueSoon     = "assignment-due-soon"
	TypeAssignmentSubmitted   = "assignment-submitted"
	TypeAssignmentGraded      = "assignment-graded"
	TypeAssignmentLate        = "assignment-late-submission"
	TypeQuizCreated           = "quiz-created"
	TypeQuizDueSoon           = "quiz-due-soon"
	TypeQuizGraded            = "quiz-graded"
	TypeQuizCheatingDetected  = "quiz-cheating-detected"
	TypeNewGrade              = "new-grade"
	TypeGradeUpdated          = "grade-updated"
	TypeGradeDeleted          = "grade-deleted"
	TypeAttendanceAbsent      = "attendance-absent"
	TypeAttendanceLate        = "attendance-late"
	TypeAttendanceExcused     = "attendance-excused"
	TypeAttendanceSummary     = "attendance-weekly-summary"
	TypeTimetableUpdated      = "timetable-updated"
	TypeTimetableSubstitution = "timetable-substitution"
	TypeReviewPositive        = "review-positive"
	TypeReviewNegative        = "review-negative"
	TypeAnnouncementClass     = "announcement-class"
	TypeAnnouncementSchool    = "announcement-school"
	TypeEventReminder         = "announcement-event-reminder"
	TypeMeetingScheduled      = "announcement-meeting"
	TypeReportReady           = "system-report-ready"
	TypeAccountCreated        = "system-account-created"
	TypePasswordChanged       = "system-password-changed"
	TypeParentLinked          = "system-parent-linked"
	TypeMaintenance           = "system-maintenance"
	TypeDataExport            = "system-data-export"
)

// NotificationAction is a button rendered under a notification.
type NotificationAction struct {
	Label string `json:"label" dynamodbav:"label"`
	URL   string `json:"url" dynamodbav:"url"`
}

// Notification is one message delivered to one recipient's feed. Created by
// the dispatch service; mutated only by read-state toggles or deletion;
// pruned by the age-based cleanup sweep (expires_at_unix doubles as the
// DynamoDB TTL attribute).
type Notification struct {
	NotificationID string               `json:"id" dynamodbav:"notification_id"`
	UserID         string               `json:"user_id" dynamodbav:"user_id"`
	Type           string               `json:"type" dynamodbav:"type"`
	Category       string               `json:"category" dynamodbav:"category"`
	Priority       string               `json:"priority" dynamodbav:"priority"`
	Title          string               `json:"title" dynamodbav:"title"`
	Message        string               `json:"message" dynamodbav:"message"`
	Icon           string               `json:"icon,omitempty" dynamodbav:"icon"`
	Color          string               `json:"color,omitempty" dynamodbav:"color"`
	Link           string               `json:"link,omitempty" dynamodbav:"link"`
	RelatedID      string               `json:"related_id,omitempty" dynamodbav:"related_id"`
	Actions        []NotificationAction `json:"actions,omitempty" dynamodbav:"actions"`
	Metadata       map[string]string    `json:"metadata,omitempty" dynamodbav:"metadata"`
	Read           bool                 `json:"read" dynamodbav:"read"`
	CreatedAt      time.Time            `json:"created" dynamodbav:"created_at"`
	ExpiresAt      time.Time            `json:"expires_at" dynamodbav:"expires_at"`
	ExpiresAtUnix  int64                `json:"-" dynamodbav:"expires_at_unix"`
}

// NotificationDraft is the dispatch input. Params feed the type's template;
// any explicitly set field wins over the template output.
type NotificationDraft struct {
	Type      string               `json:"type" validate:"required"`
	Params    map[string]string    `json:"params,omitempty"`
	Title     string               `json:"title,omitempty"`
	Message   string               `json:"message,omitempty"`
	Category  string               `json:"category,omitempty"`
	Priority  string               `json:"priority,omitempty"`
	Link      string               `json:"link,omitempty"`
	RelatedID string               `json:"related_id,omitempty"`
	Actions   []NotificationAction `json:"actions,omitempty"`
	Metadata  map[string]string    `json:"metadata,omitempty"`
	// ExpiresAt overrides the priority-derived expiry when non-zero.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// CategoryPreference is a per-category delivery toggle set.
type CategoryPreference struct {
	Enabled bool `json:"enabled" dynamodbav:"enabled"`
	Email   bool `json:"email" dynamodbav:"email"`
	Push    bool `json:"push" dynamodbav:"push"`
}

// DoNotDisturb is a daily quiet window. Start/End are HH:MM; a window with
// Start > End spans midnight. Empty Days means every day.
type DoNotDisturb struct {
	Enabled bool     `json:"enabled" dynamodbav:"enabled"`
	Start   string   `json:"start" dynamodbav:"start"`
	End     string   `json:"end" dynamodbav:"end"`
	Days    []string `json:"days,omitempty" dynamodbav:"days"` // weekday names
}

// NotificationSettings is one user's delivery preferences. Created lazily
// with defaults on first read.
type NotificationSettings struct {
	UserID              string                        `json:"user_id" dynamodbav:"user_id"`
	EmailEnabled        bool                          `json:"email_enabled" dynamodbav:"email_enabled"`
	PushEnabled         bool                          `json:"push_enabled" dynamodbav:"push_enabled"`
	CategoryPreferences map[string]CategoryPreference `json:"category_preferences" dynamodbav:"category_preferences"`
	DoNotDisturb        DoNotDisturb                  `json:"do_not_disturb" dynamodbav:"do_not_disturb"`
	UpdatedAt           time.Time                     `json:"updated" dynamodbav:"updated_at"`
}

// DefaultNotificationSettings returns the settings a user gets before they
// ever touch the preferences screen: everything on, no quiet hours.
func DefaultNotificationSettings(userID string) *NotificationSettings {
	prefs := make(map[string]CategoryPreference, len(Categories))
	for _, c := range Categories {
		prefs[c] = CategoryPreference{Enabled: true, Email: true, Push: true}
	}
	return &NotificationSettings{
		UserID:              userID,
		EmailEnabled:        true,
		PushEnabled:         true,
		CategoryPreferences: prefs,
		DoNotDisturb:        DoNotDisturb{},
		UpdatedAt:           time.Now().UTC(),
	}
}

type UpdateNotificationSettingsRequest struct {
	EmailEnabled        *bool                         `json:"email_enabled"`
	PushEnabled         *bool                         `json:"push_enabled"`
	CategoryPreferences map[string]CategoryPreference `json:"category_preferences"`
	DoNotDisturb        *DoNotDisturb                 `json:"do_not_disturb"`
}
