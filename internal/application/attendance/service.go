package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/Ccreature09/poko-server/internal/domain"
	"github.com/Ccreature09/poko-server/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldStatus         = "status"
	fieldJustified      = "justified"
	fieldTeacherID      = "teacher_id"
	fieldTeacherName    = "teacher_name"
	fieldNotifiedParent = "notified_parent"
)

type Service interface {
	// RecordClassAttendance upserts one attendance record per roster entry
	// for the given session and notifies students/parents about newly
	// recorded or changed non-"present" statuses.
	RecordClassAttendance(ctx context.Context, schoolID, teacherID string, req domain.RecordAttendanceRequest) error
	StudentReport(ctx context.Context, studentID, from, to string) (*domain.AttendanceReport, error)
	SchoolStats(ctx context.Context, schoolID, from, to string) (*domain.SchoolAttendanceStats, error)
	// ExportStudentReportCSV renders a student report to CSV, stores it in
	// object storage and returns the object URL.
	ExportStudentReportCSV(ctx context.Context, studentID, from, to string) (string, error)
}

type attendanceStore interface {
	Put(ctx context.Context, rec *domain.AttendanceRecord) error
	Update(ctx context.Context, attendanceID string, updates map[string]interface{}) error
	ListBySession(ctx context.Context, sessionKey string) ([]domain.AttendanceRecord, error)
	ListByStudentRange(ctx context.Context, studentID, from, to string) ([]domain.AttendanceRecord, error)
	ListBySchoolRange(ctx context.Context, schoolID, from, to string) ([]domain.AttendanceRecord, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	ListParentsOfStudent(ctx context.Context, schoolID, studentID string) ([]domain.User, error)
}

type classStore interface {
	Get(ctx context.Context, classID string) (*domain.Class, error)
}

type subjectStore interface {
	Get(ctx context.Context, subjectID string) (*domain.Subject, error)
}

// sessionChecker guards attendance entry against sessions that aren't
// actually on the timetable.
type sessionChecker interface {
	SessionExists(ctx context.Context, classID, subjectID, day string, period int) (bool, error)
}

// notifier is the dispatch entry point; suppression and delivery details
// stay inside the notification service.
type notifier interface {
	Create(ctx context.Context, userID string, draft domain.NotificationDraft) (string, error)
}

type service struct {
	records   attendanceStore
	users     userStore
	classes   classStore
	subjects  subjectStore
	timetable sessionChecker
	notifier  notifier
	exports   objectStore // nil when exports are not configured
	now       func() time.Time
}

type ServiceDeps struct {
	AttendanceRepo attendanceStore
	UserRepo       userStore
	ClassRepo      classStore
	SubjectRepo    subjectStore
	Timetable      sessionChecker
	Notifier       notifier
	Exports        objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		records:   deps.AttendanceRepo,
		users:     deps.UserRepo,
		classes:   deps.ClassRepo,
		subjects:  deps.SubjectRepo,
		timetable: deps.Timetable,
		notifier:  deps.Notifier,
		exports:   deps.Exports,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// unknownName substitutes for display names whose source document is
// missing. A broken reference must not block recording attendance.
const unknownName = "Unknown"

// RecordClassAttendance looks up what is already stored for the session and
// upserts per student. The read-then-write is not transactional: two
// teachers submitting the same session at once can both miss each other's
// pending insert and double-write. Known limitation carried over from the
// original recording flow.
func (s *service) RecordClassAttendance(ctx context.Context, schoolID, teacherID string, req domain.RecordAttendanceRequest) error {
	seen := make(map[string]struct{}, len(req.Records))
	for _, entry := range req.Records {
		if !entry.Status.Valid() {
			return fmt.Errorf("invalid attendance status %q for student %s: %w", entry.Status, entry.StudentID, domain.ErrBadRequest)
		}
		// A duplicated roster entry would race itself past the one pre-read
		// of existing records and insert twice for the same session+student.
		if _, dup := seen[entry.StudentID]; dup {
			return fmt.Errorf("student %s listed more than once: %w", entry.StudentID, domain.ErrBadRequest)
		}
		seen[entry.StudentID] = struct{}{}
	}

	day, err := weekdayOf(req.Date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", req.Date, domain.ErrBadRequest)
	}
	exists, err := s.timetable.SessionExists(ctx, req.ClassID, req.SubjectID, day, req.Period)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("no %s period %d session for this class and subject: %w", day, req.Period, domain.ErrBadRequest)
	}

	teacherName := s.userName(ctx, teacherID)
	className := s.className(ctx, req.ClassID)
	subjectName := s.subjectName(ctx, req.SubjectID)

	sessionKey := domain.SessionKey(req.ClassID, req.SubjectID, req.Date, req.Period)
	existing, err := s.records.ListBySession(ctx, sessionKey)
	if err != nil {
		return err
	}
	prior := make(map[string]*domain.AttendanceRecord, len(existing))
	for i := range existing {
		prior[existing[i].StudentID] = &existing[i]
	}

	// Per-student operations run concurrently; the call completes only when
	// every upsert (and its potential notification) has resolved. Store
	// errors on the records themselves are collected and returned;
	// notification errors are swallowed per student.
	var wg sync.WaitGroup
	errs := make([]error, len(req.Records))
	for i, entry := range req.Records {
		wg.Add(1)
		go func(i int, entry domain.StudentStatus) {
			defer wg.Done()
			errs[i] = s.upsertStudent(ctx, upsertInput{
				schoolID:    schoolID,
				teacherID:   teacherID,
				teacherName: teacherName,
				className:   className,
				subjectName: subjectName,
				sessionKey:  sessionKey,
				req:         req,
				entry:       entry,
				prior:       prior[entry.StudentID],
			})
		}(i, entry)
	}
	wg.Wait()
	return errors.Join(errs...)
}

type upsertInput struct {
	schoolID    string
	teacherID   string
	teacherName string
	className   string
	subjectName string
	sessionKey  string
	req         domain.RecordAttendanceRequest
	entry       domain.StudentStatus
	prior       *domain.AttendanceRecord
}

func (s *service) upsertStudent(ctx context.Context, in upsertInput) error {
	now := s.now()
	statusChanged := in.prior == nil || in.prior.Status != in.entry.Status

	var attendanceID string
	if in.prior != nil {
		attendanceID = in.prior.AttendanceID
		err := s.records.Update(ctx, attendanceID, map[string]interface{}{
			fieldStatus:      string(in.entry.Status),
			fieldJustified:   in.entry.Status == domain.StatusExcused,
			fieldTeacherID:   in.teacherID,
			fieldTeacherName: in.teacherName,
		})
		if err != nil {
			return fmt.Errorf("update attendance for student %s: %w", in.entry.StudentID, err)
		}
	} else {
		attendanceID = id.New()
		rec := &domain.AttendanceRecord{
			AttendanceID:   attendanceID,
			SchoolID:       in.schoolID,
			SessionKey:     in.sessionKey,
			StudentID:      in.entry.StudentID,
			StudentName:    s.userName(ctx, in.entry.StudentID),
			TeacherID:      in.teacherID,
			TeacherName:    in.teacherName,
			ClassID:        in.req.ClassID,
			ClassName:      in.className,
			SubjectID:      in.req.SubjectID,
			SubjectName:    in.subjectName,
			Date:           in.req.Date,
			PeriodNumber:   in.req.Period,
			Status:         in.entry.Status,
			Justified:      in.entry.Status == domain.StatusExcused,
			NotifiedParent: false,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.records.Put(ctx, rec); err != nil {
			return fmt.Errorf("insert attendance for student %s: %w", in.entry.StudentID, err)
		}
	}

	// Notify only for non-"present" statuses, and only when something
	// actually changed — re-saving an unchanged roster stays silent.
	if in.entry.Status.RequiresNotification() && statusChanged {
		s.notifyAbsence(ctx, in, attendanceID)
	}
	return nil
}

// notifyAbsence tells the student and every linked parent. Failures here
// never surface: a missed notification must not fail the attendance write.
func (s *service) notifyAbsence(ctx context.Context, in upsertInput, attendanceID string) {
	draft := domain.NotificationDraft{
		Type: notificationTypeFor(in.entry.Status),
		Params: map[string]string{
			"studentName": s.userName(ctx, in.entry.StudentID),
			"subjectName": in.subjectName,
			"period":      strconv.Itoa(in.req.Period),
		},
		RelatedID: attendanceID,
	}

	if _, err := s.notifier.Create(ctx, in.entry.StudentID, draft); err != nil {
		slog.Warn("attendance notification to student failed", "student_id", in.entry.StudentID, "err", err)
	}

	parents, err := s.users.ListParentsOfStudent(ctx, in.schoolID, in.entry.StudentID)
	if err != nil {
		slog.Warn("parent lookup failed", "student_id", in.entry.StudentID, "err", err)
		return
	}
	notified := false
	for _, parent := range parents {
		if _, err := s.notifier.Create(ctx, parent.UserID, draft); err != nil {
			slog.Warn("attendance notification to parent failed", "parent_id", parent.UserID, "student_id", in.entry.StudentID, "err", err)
			continue
		}
		notified = true
	}
	if notified {
		if err := s.records.Update(ctx, attendanceID, map[string]interface{}{fieldNotifiedParent: true}); err != nil {
			slog.Warn("could not flag record as parent-notified", "attendance_id", attendanceID, "err", err)
		}
	}
}

func notificationTypeFor(status domain.AttendanceStatus) string {
	switch status {
	case domain.StatusLate:
		return domain.TypeAttendanceLate
	case domain.StatusExcused:
		return domain.TypeAttendanceExcused
	default:
		return domain.TypeAttendanceAbsent
	}
}

func (s *service) userName(ctx context.Context, userID string) string {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return unknownName
	}
	return u.DisplayName()
}

func (s *service) className(ctx context.Context, classID string) string {
	c, err := s.classes.Get(ctx, classID)
	if err != nil {
		return unknownName
	}
	return c.Name
}

func (s *service) subjectName(ctx context.Context, subjectID string) string {
	sub, err := s.subjects.Get(ctx, subjectID)
	if err != nil {
		return unknownName
	}
	return sub.Name
}

func weekdayOf(date string) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", err
	}
	return t.Weekday().String(), nil
}
