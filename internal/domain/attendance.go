package domain

import (
	"fmt"
	"time"
)

// AttendanceStatus is the per-student status for one class session.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
	StatusExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	default:
		return false
	}
}

// RequiresNotification reports whether recording this status should notify
// the student and their parents. "present" never notifies.
func (s AttendanceStatus) RequiresNotification() bool {
	return s == StatusAbsent || s == StatusLate || s == StatusExcused
}

// AttendanceRecord is one student's status for one (class, subject, date,
// period) session. Display names are denormalized so report views never
// need a join. At most one record exists per session/student; the
// session_key attribute backs the upsert lookup.
type AttendanceRecord struct {
	AttendanceID   string           `json:"id" dynamodbav:"attendance_id"`
	SchoolID       string           `json:"school_id" dynamodbav:"school_id"`
	SessionKey     string           `json:"-" dynamodbav:"session_key"`
	StudentID      string           `json:"student_id" dynamodbav:"student_id"`
	StudentName    string           `json:"student_name" dynamodbav:"student_name"`
	TeacherID      string           `json:"teacher_id" dynamodbav:"teacher_id"`
	TeacherName    string           `json:"teacher_name" dynamodbav:"teacher_name"`
	ClassID        string           `json:"class_id" dynamodbav:"class_id"`
	ClassName      string           `json:"class_name" dynamodbav:"class_name"`
	SubjectID      string           `json:"subject_id" dynamodbav:"subject_id"`
	SubjectName    string           `json:"subject_name" dynamodbav:"subject_name"`
	Date           string           `json:"date" dynamodbav:"date"` // YYYY-MM-DD
	PeriodNumber   int              `json:"period" dynamodbav:"period"`
	Status         AttendanceStatus `json:"status" dynamodbav:"status"`
	Justified      bool             `json:"justified" dynamodbav:"justified"`
	NotifiedParent bool             `json:"notified_parent" dynamodbav:"notified_parent"`
	CreatedAt      time.Time        `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time        `json:"updated" dynamodbav:"updated_at"`
}

// SessionKey builds the natural key identifying one scheduled session:
// the upsert lookup is keyed by it.
func SessionKey(classID, subjectID, date string, period int) string {
	return fmt.Sprintf("%s#%s#%s#%d", classID, subjectID, date, period)
}

// StudentStatus is one incoming roster entry for attendance recording.
type StudentStatus struct {
	StudentID string           `json:"student_id" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required"`
}

type RecordAttendanceRequest struct {
	ClassID   string          `json:"class_id" validate:"required"`
	SubjectID string          `json:"subject_id" validate:"required"`
	Date      string          `json:"date" validate:"required"` // YYYY-MM-DD
	Period    int             `json:"period" validate:"required,min=1"`
	Records   []StudentStatus `json:"records" validate:"required,min=1,dive"`
}
