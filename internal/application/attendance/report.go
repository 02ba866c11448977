package attendance

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/Ccreature09/poko-server/internal/domain"
)

// objectStore is where exported report files land.
type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// StudentReport aggregates a student's records over an inclusive date
// range. Day-level rates count distinct days: three absent periods on one
// date make one absent day. The per-subject breakdown is period-weighted
// instead, since missing six periods of one subject is worse than missing
// one.
func (s *service) StudentReport(ctx context.Context, studentID, from, to string) (*domain.AttendanceReport, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	records, err := s.records.ListByStudentRange(ctx, studentID, from, to)
	if err != nil {
		return nil, err
	}

	allDays := map[string]struct{}{}
	absentDays := map[string]struct{}{}
	lateDays := map[string]struct{}{}
	excusedDays := map[string]struct{}{}
	bySubject := map[string]domain.SubjectAttendance{}

	for _, rec := range records {
		allDays[rec.Date] = struct{}{}
		switch rec.Status {
		case domain.StatusAbsent:
			absentDays[rec.Date] = struct{}{}
		case domain.StatusLate:
			lateDays[rec.Date] = struct{}{}
		case domain.StatusExcused:
			excusedDays[rec.Date] = struct{}{}
		}

		sub := bySubject[rec.SubjectID]
		sub.SubjectID = rec.SubjectID
		sub.SubjectName = rec.SubjectName
		sub.TotalPeriods++
		switch rec.Status {
		case domain.StatusAbsent:
			sub.AbsentPeriods++
		case domain.StatusLate:
			sub.LatePeriods++
		case domain.StatusExcused:
			sub.ExcusedPeriods++
		}
		bySubject[rec.SubjectID] = sub
	}

	for subjectID, sub := range bySubject {
		sub.AbsenceRate = rate(sub.AbsentPeriods, sub.TotalPeriods)
		bySubject[subjectID] = sub
	}

	return &domain.AttendanceReport{
		StudentID:   studentID,
		StartDate:   from,
		EndDate:     to,
		TotalDays:   len(allDays),
		AbsentDays:  len(absentDays),
		LateDays:    len(lateDays),
		ExcusedDays: len(excusedDays),
		AbsenceRate: rate(len(absentDays), len(allDays)),
		TardyRate:   rate(len(lateDays), len(allDays)),
		BySubject:   bySubject,
	}, nil
}

// SchoolStats aggregates every record in the school over the range. The
// per-class AbsenceRate divides the class's absent records by the
// school-wide total, so it reads as the class's contribution to overall
// absence rather than an internal class rate. The reporting screens have
// always shown it this way.
func (s *service) SchoolStats(ctx context.Context, schoolID, from, to string) (*domain.SchoolAttendanceStats, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	records, err := s.records.ListBySchoolRange(ctx, schoolID, from, to)
	if err != nil {
		return nil, err
	}

	stats := &domain.SchoolAttendanceStats{
		SchoolID:  schoolID,
		StartDate: from,
		EndDate:   to,
		ByClass:   map[string]domain.ClassAttendanceStats{},
	}
	for _, rec := range records {
		stats.TotalRecords++
		cls := stats.ByClass[rec.ClassID]
		cls.ClassID = rec.ClassID
		cls.ClassName = rec.ClassName
		cls.TotalRecords++
		switch rec.Status {
		case domain.StatusAbsent:
			stats.AbsentRecords++
			cls.AbsentRecords++
		case domain.StatusLate:
			stats.LateRecords++
			cls.LateRecords++
		case domain.StatusExcused:
			stats.ExcusedRecords++
		}
		stats.ByClass[rec.ClassID] = cls
	}

	stats.AbsenceRate = rate(stats.AbsentRecords, stats.TotalRecords)
	for classID, cls := range stats.ByClass {
		cls.AbsenceRate = rate(cls.AbsentRecords, stats.TotalRecords)
		stats.ByClass[classID] = cls
	}
	return stats, nil
}

func (s *service) ExportStudentReportCSV(ctx context.Context, studentID, from, to string) (string, error) {
	if s.exports == nil {
		return "", fmt.Errorf("report export is not configured")
	}
	report, err := s.StudentReport(ctx, studentID, from, to)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"student_id", "start_date", "end_date", "total_days", "absent_days", "late_days", "excused_days", "absence_rate", "tardy_rate"})
	_ = w.Write([]string{
		report.StudentID, report.StartDate, report.EndDate,
		strconv.Itoa(report.TotalDays), strconv.Itoa(report.AbsentDays),
		strconv.Itoa(report.LateDays), strconv.Itoa(report.ExcusedDays),
		formatRate(report.AbsenceRate), formatRate(report.TardyRate),
	})
	_ = w.Write(nil)
	_ = w.Write([]string{"subject_id", "subject_name", "total_periods", "absent_periods", "late_periods", "excused_periods", "absence_rate"})

	subjectIDs := make([]string, 0, len(report.BySubject))
	for subjectID := range report.BySubject {
		subjectIDs = append(subjectIDs, subjectID)
	}
	sort.Strings(subjectIDs)
	for _, subjectID := range subjectIDs {
		sub := report.BySubject[subjectID]
		_ = w.Write([]string{
			sub.SubjectID, sub.SubjectName,
			strconv.Itoa(sub.TotalPeriods), strconv.Itoa(sub.AbsentPeriods),
			strconv.Itoa(sub.LatePeriods), strconv.Itoa(sub.ExcusedPeriods),
			formatRate(sub.AbsenceRate),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("render report csv: %w", err)
	}

	key := fmt.Sprintf("reports/attendance/%s/%s_%s.csv", studentID, from, to)
	return s.exports.Upload(ctx, key, bytes.NewReader(buf.Bytes()), "text/csv")
}

// rate returns hits/total as a percentage, 0 when the range is empty.
func rate(hits, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func validRange(from, to string) error {
	if _, err := weekdayOf(from); err != nil {
		return fmt.Errorf("invalid start date %q: %w", from, domain.ErrBadRequest)
	}
	if _, err := weekdayOf(to); err != nil {
		return fmt.Errorf("invalid end date %q: %w", to, domain.ErrBadRequest)
	}
	if to < from {
		return fmt.Errorf("end date precedes start date: %w", domain.ErrBadRequest)
	}
	return nil
}
