package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/Ccreature09/poko-server/internal/domain"
)

// params is the parameter bag handed to a template formatter.
type params map[string]string

func (p params) get(key, fallback string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return fallback
}

// rendered is a template formatter's output. Unset draft fields fall
// through to these values; explicit draft fields always win. Category and
// Priority are optional: a formatter that leaves them empty gets the
// type-name prefix classification.
type rendered struct {
	Title    string
	Message  string
	Category string
	Priority string
	Icon     string
	Color    string
	Actions  []domain.NotificationAction
}

type formatter func(p params) rendered

// templates maps every notification type to its formatter. Adding a type is
// additive: register a formatter here and, if the type name follows the
// prefix conventions, category and priority classification come for free.
var templates = map[string]formatter{
	domain.TypeAssignmentCreated: func(p params) rendered {
		return rendered{
			Title:   "New Assignment",
			Message: fmt.Sprintf("A new assignment \"%s\" was posted for %s.", p.get("assignmentTitle", "Untitled"), p.get("subjectName", "a subject")),
			Icon:    "clipboard", Color: "blue",
		}
	},
	domain.TypeAssignmentDueSoon: func(p params) rendered {
		return rendered{
			Title:   "Assignment Due Soon",
			Message: fmt.Sprintf("\"%s\" (%s) is due in %s day(s).", p.get("assignmentTitle", "Untitled"), p.get("subjectName", "a subject"), p.get("daysLeft", "1")),
			Icon:    "clock", Color: "orange",
		}
	},
	domain.TypeAssignmentSubmitted: func(p params) rendered {
		return rendered{
			Title:   "Assignment Submitted",
			Message: fmt.Sprintf("%s submitted \"%s\".", p.get("studentName", "A student"), p.get("assignmentTitle", "an assignment")),
			Icon:    "check", Color: "green",
		}
	},
	domain.TypeAssignmentGraded: func(p params) rendered {
		return rendered{
			Title:   "Assignment Graded",
			Message: fmt.Sprintf("Your submission for \"%s\" received %s.", p.get("assignmentTitle", "an assignment"), p.get("grade", "a grade")),
			Icon:    "star", Color: "green",
		}
	},
	domain.TypeAssignmentLate: func(p params) rendered {
		return rendered{
			Title:   "Late Submission",
			Message: fmt.Sprintf("%s submitted \"%s\" after the deadline.", p.get("studentName", "A student"), p.get("assignmentTitle", "an assignment")),
			Icon:    "alert", Color: "orange",
		}
	},
	domain.TypeQuizCreated: func(p params) rendered {
		return rendered{
			Title:   "New Quiz",
			Message: fmt.Sprintf("A new quiz \"%s\" is available for %s.", p.get("quizTitle", "Untitled"), p.get("subjectName", "a subject")),
			Icon:    "help-circle", Color: "blue",
		}
	},
	domain.TypeQuizDueSoon: func(p params) rendered {
		return rendered{
			Title:   "Quiz Closing Soon",
			Message: fmt.Sprintf("Quiz \"%s\" closes in %s day(s).", p.get("quizTitle", "Untitled"), p.get("daysLeft", "1")),
			Icon:    "clock", Color: "orange",
		}
	},
	domain.TypeQuizGraded: func(p params) rendered {
		return rendered{
			Title:   "Quiz Graded",
			Message: fmt.Sprintf("You scored %s on \"%s\".", p.get("score", "your result"), p.get("quizTitle", "a quiz")),
			Icon:    "star", Color: "green",
		}
	},
	domain.TypeQuizCheatingDetected: func(p params) rendered {
		return rendered{
			Title:   "Suspicious Quiz Activity",
			Message: fmt.Sprintf("Suspicious activity was flagged for %s during quiz \"%s\".", p.get("studentName", "a student"), p.get("quizTitle", "a quiz")),
			Icon:    "shield-alert", Color: "red",
		}
	},
	domain.TypeNewGrade: func(p params) rendered {
		return rendered{
			Title:   "New Grade",
			Message: fmt.Sprintf("%s received grade %s in %s.", p.get("studentName", "A student"), p.get("grade", "?"), p.get("subjectName", "a subject")),
			Icon:    "award", Color: "green",
		}
	},
	domain.TypeGradeUpdated: func(p params) rendered {
		return rendered{
			Title:   "Grade Updated",
			Message: fmt.Sprintf("A grade in %s was changed to %s.", p.get("subjectName", "a subject"), p.get("grade", "?")),
			Icon:    "edit", Color: "blue",
		}
	},
	domain.TypeGradeDeleted: func(p params) rendered {
		return rendered{
			Title:   "Grade Removed",
			Message: fmt.Sprintf("A grade in %s was removed.", p.get("subjectName", "a subject")),
			Icon:    "trash", Color: "gray",
		}
	},
	domain.TypeAttendanceAbsent: func(p params) rendered {
		return rendered{
			Title:   "Absence Recorded",
			Message: fmt.Sprintf("%s was marked absent from %s, period %s.", p.get("studentName", "A student"), p.get("subjectName", "a lesson"), p.get("period", "?")),
			Icon:    "user-x", Color: "red",
		}
	},
	domain.TypeAttendanceLate: func(p params) rendered {
		return rendered{
			Title:   "Tardiness Recorded",
			Message: fmt.Sprintf("%s arrived late to %s, period %s.", p.get("studentName", "A student"), p.get("subjectName", "a lesson"), p.get("period", "?")),
			Icon:    "clock", Color: "orange",
		}
	},
	domain.TypeAttendanceExcused: func(p params) rendered {
		return rendered{
			Title:   "Excused Absence",
			Message: fmt.Sprintf("%s has an excused absence from %s, period %s.", p.get("studentName", "A student"), p.get("subjectName", "a lesson"), p.get("period", "?")),
			Icon:    "file-check", Color: "blue",
		}
	},
	domain.TypeAttendanceSummary: func(p params) rendered {
		return rendered{
			Title:   "Weekly Attendance Summary",
			Message: fmt.Sprintf("%s missed %s period(s) this week.", p.get("studentName", "A student"), p.get("absences", "0")),
			Icon:    "calendar", Color: "blue",
		}
	},
	domain.TypeTimetableUpdated: func(p params) rendered {
		return rendered{
			Title:   "Timetable Changed",
			Message: fmt.Sprintf("The timetable for %s was updated.", p.get("className", "your class")),
			Icon:    "calendar", Color: "blue",
		}
	},
	domain.TypeTimetableSubstitution: func(p params) rendered {
		return rendered{
			Title:   "Substitute Teacher",
			Message: fmt.Sprintf("%s will cover %s on %s, period %s.", p.get("teacherName", "A substitute"), p.get("subjectName", "a lesson"), p.get("day", "?"), p.get("period", "?")),
			Icon:    "users", Color: "orange",
		}
	},
	domain.TypeReviewPositive: func(p params) rendered {
		return rendered{
			Title:   "Praise Received",
			Message: fmt.Sprintf("%s received praise from %s: %s", p.get("studentName", "A student"), p.get("teacherName", "a teacher"), p.get("comment", "")),
			Icon:    "thumbs-up", Color: "green",
		}
	},
	domain.TypeReviewNegative: func(p params) rendered {
		return rendered{
			Title:   "Behavior Note",
			Message: fmt.Sprintf("%s received a note from %s: %s", p.get("studentName", "A student"), p.get("teacherName", "a teacher"), p.get("comment", "")),
			Icon:    "thumbs-down", Color: "red",
		}
	},
	domain.TypeAnnouncementClass: func(p params) rendered {
		return rendered{
			Title:   p.get("title", "Class Announcement"),
			Message: p.get("body", "A new announcement was posted for your class."),
			Icon:    "megaphone", Color: "blue",
		}
	},
	domain.TypeAnnouncementSchool: func(p params) rendered {
		return rendered{
			Title:   p.get("title", "School Announcement"),
			Message: p.get("body", "A new school-wide announcement was posted."),
			Icon:    "megaphone", Color: "blue",
		}
	},
	domain.TypeEventReminder: func(p params) rendered {
		return rendered{
			Title:   "Event Reminder",
			Message: fmt.Sprintf("\"%s\" takes place on %s.", p.get("eventName", "An event"), p.get("date", "an upcoming date")),
			Icon:    "bell", Color: "blue",
		}
	},
	domain.TypeMeetingScheduled: func(p params) rendered {
		return rendered{
			Title:   "Meeting Scheduled",
			Message: fmt.Sprintf("A meeting with %s is scheduled for %s.", p.get("teacherName", "a teacher"), p.get("date", "an upcoming date")),
			Icon:    "calendar", Color: "blue",
		}
	},
	domain.TypeReportReady: func(p params) rendered {
		return rendered{
			Title:   "Report Ready",
			Message: fmt.Sprintf("The %s report you requested is ready to download.", p.get("reportName", "requested")),
			Icon:    "file-text", Color: "green",
		}
	},
	domain.TypeAccountCreated: func(p params) rendered {
		return rendered{
			Title:   "Welcome",
			Message: fmt.Sprintf("Welcome to %s! Your account is ready.", p.get("schoolName", "your school")),
			Icon:    "user-plus", Color: "green",
		}
	},
	domain.TypePasswordChanged: func(p params) rendered {
		return rendered{
			Title:   "Password Changed",
			Message: "Your password was changed. If this wasn't you, contact your administrator.",
			Icon:    "lock", Color: "orange",
		}
	},
	domain.TypeParentLinked: func(p params) rendered {
		return rendered{
			Title:   "Parent Account Linked",
			Message: fmt.Sprintf("%s can now follow your school progress.", p.get("parentName", "A parent")),
			Icon:    "link", Color: "blue",
		}
	},
	domain.TypeMaintenance: func(p params) rendered {
		return rendered{
			Title:   "Scheduled Maintenance",
			Message: fmt.Sprintf("The platform will be unavailable on %s.", p.get("date", "an upcoming date")),
			Icon:    "tool", Color: "red",
		}
	},
	domain.TypeDataExport: func(p params) rendered {
		return rendered{
			Title:   "Data Export Complete",
			Message: "Your data export has finished and is ready to download.",
			Icon:    "download", Color: "green",
		}
	},
}

// categoryFromType classifies a type by its naming convention, so types
// added without an explicit category still land in the right bucket.
func categoryFromType(t string) string {
	switch {
	case strings.HasPrefix(t, "assignment"):
		return domain.CategoryAssignments
	case strings.HasPrefix(t, "quiz"):
		return domain.CategoryQuizzes
	case strings.Contains(t, "grade"):
		return domain.CategoryGrades
	case strings.HasPrefix(t, "attendance"):
		return domain.CategoryAttendance
	case strings.HasPrefix(t, "review"):
		return domain.CategoryFeedback
	case strings.HasPrefix(t, "announcement"), strings.HasPrefix(t, "timetable"):
		return domain.CategoryAnnouncements
	default:
		return domain.CategorySystem
	}
}

// priorityFromType classifies a type's urgency by naming convention.
func priorityFromType(t string) string {
	switch {
	case strings.Contains(t, "cheating"), strings.Contains(t, "maintenance"):
		return domain.PriorityUrgent
	case strings.HasPrefix(t, "attendance-absent"),
		strings.HasPrefix(t, "attendance-late"),
		strings.Contains(t, "due-soon"),
		strings.Contains(t, "negative"),
		strings.Contains(t, "late-submission"):
		return domain.PriorityHigh
	case strings.HasPrefix(t, "system-"):
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}

// expiryDays maps priority to notification lifetime. Urgent notifications
// are short-lived by design: they lose relevance fastest.
var expiryDays = map[string]int{
	domain.PriorityUrgent: 1,
	domain.PriorityHigh:   3,
	domain.PriorityMedium: 7,
	domain.PriorityLow:    14,
}

func expiryForPriority(priority string, createdAt time.Time) time.Time {
	days, ok := expiryDays[priority]
	if !ok {
		days = expiryDays[domain.PriorityMedium]
	}
	return createdAt.AddDate(0, 0, days)
}

// typeLinks maps types to deep-link builders; relatedID slots into the
// destination resource's route.
var typeLinks = map[string]func(relatedID string) string{
	domain.TypeAssignmentCreated:   func(id string) string { return "/assignments/" + id },
	domain.TypeAssignmentDueSoon:   func(id string) string { return "/assignments/" + id },
	domain.TypeAssignmentSubmitted: func(id string) string { return "/assignments/" + id + "/submissions" },
	domain.TypeAssignmentGraded:    func(id string) string { return "/assignments/" + id },
	domain.TypeAssignmentLate:      func(id string) string { return "/assignments/" + id + "/submissions" },
	domain.TypeQuizCreated:         func(id string) string { return "/quizzes/" + id },
	domain.TypeQuizDueSoon:         func(id string) string { return "/quizzes/" + id },
	domain.TypeQuizGraded:          func(id string) string { return "/quizzes/" + id + "/results" },
	domain.TypeQuizCheatingDetected: func(id string) string {
		return "/quizzes/" + id + "/monitoring"
	},
	domain.TypeTimetableUpdated: func(id string) string { return "/timetable" },
	domain.TypeReportReady:      func(id string) string { return "/reports/" + id },
}

// categoryRoutes are the fallback destinations when neither an explicit
// link nor a type rule applies.
var categoryRoutes = map[string]string{
	domain.CategoryAssignments:   "/assignments",
	domain.CategoryQuizzes:       "/quizzes",
	domain.CategoryGrades:        "/grades",
	domain.CategoryAttendance:    "/attendance",
	domain.CategoryFeedback:      "/feedback",
	domain.CategoryAnnouncements: "/announcements",
	domain.CategorySystem:        "/dashboard",
}

// resolveLink picks the deep link: explicit > type rule > category default.
func resolveLink(draft domain.NotificationDraft, category string) string {
	if draft.Link != "" {
		return draft.Link
	}
	if build, ok := typeLinks[draft.Type]; ok && draft.RelatedID != "" {
		return build(draft.RelatedID)
	}
	return categoryRoutes[category]
}
