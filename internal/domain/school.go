package domain

import "time"

// Class is a homeroom class: the fixed cohort of students a timetable and
// attendance records are organized around.
type Class struct {
	ClassID           string    `json:"id" dynamodbav:"class_id"`
	SchoolID          string    `json:"school_id" dynamodbav:"school_id"`
	Name              string    `json:"name" dynamodbav:"name"`
	HomeroomTeacherID string    `json:"homeroom_teacher_id,omitempty" dynamodbav:"homeroom_teacher_id"`
	StudentIDs        []string  `json:"student_ids,omitempty" dynamodbav:"student_ids"`
	CreatedAt         time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time `json:"updated" dynamodbav:"updated_at"`
}

type Subject struct {
	SubjectID string    `json:"id" dynamodbav:"subject_id"`
	SchoolID  string    `json:"school_id" dynamodbav:"school_id"`
	Name      string    `json:"name" dynamodbav:"name"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}
