package domain

// SubjectAttendance is the period-weighted per-subject breakdown of a
// student report. Subject-level rates care about missed instructional
// time, so the denominator is periods, not days.
type SubjectAttendance struct {
	SubjectID      string  `json:"subject_id"`
	SubjectName    string  `json:"subject_name"`
	TotalPeriods   int     `json:"total_periods"`
	AbsentPeriods  int     `json:"absent_periods"`
	LatePeriods    int     `json:"late_periods"`
	ExcusedPeriods int     `json:"excused_periods"`
	AbsenceRate    float64 `json:"absence_rate"`
}

// AttendanceReport is a derived, non-persisted per-student aggregate.
// Student-level rates count distinct days (one absence-day spanning six
// periods counts once); the per-subject breakdown is period-weighted.
type AttendanceReport struct {
	StudentID   string                       `json:"student_id"`
	StartDate   string                       `json:"start_date"` // YYYY-MM-DD
	EndDate     string                       `json:"end_date"`   // YYYY-MM-DD
	TotalDays   int                          `json:"total_days"`
	AbsentDays  int                          `json:"absent_days"`
	LateDays    int                          `json:"late_days"`
	ExcusedDays int                          `json:"excused_days"`
	AbsenceRate float64                      `json:"absence_rate"`
	TardyRate   float64                      `json:"tardy_rate"`
	BySubject   map[string]SubjectAttendance `json:"by_subject"`
}

// ClassAttendanceStats is one class's bucket in the school-wide stats.
// AbsenceRate is computed against the class's share of total records, as
// the reporting screen has always displayed it.
type ClassAttendanceStats struct {
	ClassID       string  `json:"class_id"`
	ClassName     string  `json:"class_name"`
	TotalRecords  int     `json:"total_records"`
	AbsentRecords int     `json:"absent_records"`
	LateRecords   int     `json:"late_records"`
	AbsenceRate   float64 `json:"absence_rate"`
}

// SchoolAttendanceStats is the school-wide aggregate over a date range.
type SchoolAttendanceStats struct {
	SchoolID       string                          `json:"school_id"`
	StartDate      string                          `json:"start_date"`
	EndDate        string                          `json:"end_date"`
	TotalRecords   int                             `json:"total_records"`
	AbsentRecords  int                             `json:"absent_records"`
	LateRecords    int                             `json:"late_records"`
	ExcusedRecords int                             `json:"excused_records"`
	AbsenceRate    float64                         `json:"absence_rate"`
	ByClass        map[string]ClassAttendanceStats `json:"by_class"`
}
