package domain

import "time"

// Period is one slot in a school's bell schedule.
type Period struct {
	Number    int    `json:"period" dynamodbav:"period" validate:"required,min=1"`
	StartTime string `json:"start_time" dynamodbav:"start_time" validate:"required"` // HH:MM
	EndTime   string `json:"end_time" dynamodbav:"end_time" validate:"required"`     // HH:MM
}

// ClassSession is one scheduled (day, period) lesson slot for a
// subject+teacher within a class's timetable.
type ClassSession struct {
	Day       string `json:"day" dynamodbav:"day" validate:"required"` // weekday name, e.g. "Monday"
	Period    int    `json:"period" dynamodbav:"period" validate:"required,min=1"`
	SubjectID string `json:"subject_id" dynamodbav:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id" dynamodbav:"teacher_id" validate:"required"`
	StartTime string `json:"start_time" dynamodbav:"start_time" validate:"required"` // HH:MM
	EndTime   string `json:"end_time" dynamodbav:"end_time" validate:"required"`     // HH:MM
}

// Timetable is the weekly schedule owned by one homeroom class.
// Invariant: no two entries share (day, period).
type Timetable struct {
	ClassID   string         `json:"class_id" dynamodbav:"class_id"`
	SchoolID  string         `json:"school_id" dynamodbav:"school_id"`
	Periods   []Period       `json:"periods" dynamodbav:"periods"`
	Entries   []ClassSession `json:"entries" dynamodbav:"entries"`
	CreatedAt time.Time      `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time      `json:"updated" dynamodbav:"updated_at"`
}

// TaughtSession is a ClassSession joined with class and subject display
// names, as returned by the teacher-schedule lookup.
type TaughtSession struct {
	ClassSession
	ClassID     string `json:"class_id"`
	ClassName   string `json:"class_name"`
	SubjectName string `json:"subject_name"`
}

type SaveTimetableRequest struct {
	ClassID string         `json:"class_id" validate:"required"`
	Periods []Period       `json:"periods" validate:"required,min=1,dive"`
	Entries []ClassSession `json:"entries" validate:"dive"`
}
