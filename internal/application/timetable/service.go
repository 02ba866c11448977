package timetable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ccreature09/poko-server/internal/domain"
	"github.com/Ccreature09/poko-server/internal/pkg/timewindow"
)

type Service interface {
	Get(ctx context.Context, classID string) (*domain.Timetable, error)
	// Save replaces a class's timetable wholesale after validating the
	// (day, period) uniqueness invariant.
	Save(ctx context.Context, schoolID string, req domain.SaveTimetableRequest) (*domain.Timetable, error)
	// SessionExists reports whether a (class, subject, day, period) slot is
	// on the timetable. A class without a timetable has no sessions.
	SessionExists(ctx context.Context, classID, subjectID, day string, period int) (bool, error)
	// ClassesTaughtBy scans every timetable in the school for the teacher's
	// sessions. Deliberately uncached: timetable edits must be visible on
	// the next call.
	ClassesTaughtBy(ctx context.Context, schoolID, teacherID string) ([]domain.TaughtSession, error)
	// CurrentSessionFor returns the session the teacher is in right now,
	// or nil between lessons.
	CurrentSessionFor(ctx context.Context, schoolID, teacherID string) (*domain.TaughtSession, error)
	// PeriodOver reports whether a (day, period) slot of the class's bell
	// schedule has already finished this week.
	PeriodOver(ctx context.Context, classID, day string, period int) (bool, error)
}

type timetableStore interface {
	Put(ctx context.Context, tt *domain.Timetable) error
	Get(ctx context.Context, classID string) (*domain.Timetable, error)
	ListBySchool(ctx context.Context, schoolID string) ([]domain.Timetable, error)
}

type classStore interface {
	Get(ctx context.Context, classID string) (*domain.Class, error)
}

type subjectStore interface {
	Get(ctx context.Context, subjectID string) (*domain.Subject, error)
}

type service struct {
	timetables timetableStore
	classes    classStore
	subjects   subjectStore
	now        func() time.Time
}

type ServiceDeps struct {
	TimetableRepo timetableStore
	ClassRepo     classStore
	SubjectRepo   subjectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		timetables: deps.TimetableRepo,
		classes:    deps.ClassRepo,
		subjects:   deps.SubjectRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Get(ctx context.Context, classID string) (*domain.Timetable, error) {
	return s.timetables.Get(ctx, classID)
}

func (s *service) Save(ctx context.Context, schoolID string, req domain.SaveTimetableRequest) (*domain.Timetable, error) {
	if err := validateSchedule(req); err != nil {
		return nil, err
	}

	now := s.now()
	tt := &domain.Timetable{
		ClassID:   req.ClassID,
		SchoolID:  schoolID,
		Periods:   req.Periods,
		Entries:   req.Entries,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.timetables.Get(ctx, req.ClassID); err == nil {
		tt.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if err := s.timetables.Put(ctx, tt); err != nil {
		return nil, err
	}
	return tt, nil
}

func validateSchedule(req domain.SaveTimetableRequest) error {
	knownPeriods := make(map[int]struct{}, len(req.Periods))
	for _, p := range req.Periods {
		if _, dup := knownPeriods[p.Number]; dup {
			return fmt.Errorf("duplicate period %d in bell schedule: %w", p.Number, domain.ErrBadRequest)
		}
		if _, ok := timewindow.ClockMinutes(p.StartTime); !ok {
			return fmt.Errorf("period %d start time %q is not HH:MM: %w", p.Number, p.StartTime, domain.ErrBadRequest)
		}
		if _, ok := timewindow.ClockMinutes(p.EndTime); !ok {
			return fmt.Errorf("period %d end time %q is not HH:MM: %w", p.Number, p.EndTime, domain.ErrBadRequest)
		}
		knownPeriods[p.Number] = struct{}{}
	}

	type slot struct {
		day    string
		period int
	}
	seen := make(map[slot]struct{}, len(req.Entries))
	for _, e := range req.Entries {
		if _, ok := knownPeriods[e.Period]; !ok {
			return fmt.Errorf("entry references period %d missing from the bell schedule: %w", e.Period, domain.ErrBadRequest)
		}
		if _, ok := timewindow.ClockMinutes(e.StartTime); !ok {
			return fmt.Errorf("%s period %d entry start time %q is not HH:MM: %w", e.Day, e.Period, e.StartTime, domain.ErrBadRequest)
		}
		if _, ok := timewindow.ClockMinutes(e.EndTime); !ok {
			return fmt.Errorf("%s period %d entry end time %q is not HH:MM: %w", e.Day, e.Period, e.EndTime, domain.ErrBadRequest)
		}
		key := slot{day: e.Day, period: e.Period}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("two entries share %s period %d: %w", e.Day, e.Period, domain.ErrBadRequest)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (s *service) SessionExists(ctx context.Context, classID, subjectID, day string, period int) (bool, error) {
	tt, err := s.timetables.Get(ctx, classID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, e := range tt.Entries {
		if e.SubjectID == subjectID && e.Day == day && e.Period == period {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) ClassesTaughtBy(ctx context.Context, schoolID, teacherID string) ([]domain.TaughtSession, error) {
	timetables, err := s.timetables.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	classNames := map[string]string{}
	subjectNames := map[string]string{}
	var sessions []domain.TaughtSession
	for _, tt := range timetables {
		for _, e := range tt.Entries {
			if e.TeacherID != teacherID {
				continue
			}
			sessions = append(sessions, domain.TaughtSession{
				ClassSession: e,
				ClassID:      tt.ClassID,
				ClassName:    s.classNameCached(ctx, classNames, tt.ClassID),
				SubjectName:  s.subjectNameCached(ctx, subjectNames, e.SubjectID),
			})
		}
	}
	return sessions, nil
}

func (s *service) CurrentSessionFor(ctx context.Context, schoolID, teacherID string) (*domain.TaughtSession, error) {
	taught, err := s.ClassesTaughtBy(ctx, schoolID, teacherID)
	if err != nil {
		return nil, err
	}
	sessions := make([]domain.ClassSession, len(taught))
	for i, ts := range taught {
		sessions[i] = ts.ClassSession
	}
	current := timewindow.DetectCurrentClass(sessions, s.now())
	if current == nil {
		return nil, nil
	}
	for i := range taught {
		if taught[i].ClassSession == *current {
			return &taught[i], nil
		}
	}
	return nil, nil
}

func (s *service) PeriodOver(ctx context.Context, classID, day string, period int) (bool, error) {
	tt, err := s.timetables.Get(ctx, classID)
	if err != nil {
		return false, err
	}
	return timewindow.IsPeriodOver(day, period, tt.Periods, s.now()), nil
}

// Display-name lookups within one call share a memo; "Unknown" stands in
// for broken references so a stale timetable still renders.
func (s *service) classNameCached(ctx context.Context, memo map[string]string, classID string) string {
	if name, ok := memo[classID]; ok {
		return name
	}
	name := "Unknown"
	if c, err := s.classes.Get(ctx, classID); err == nil {
		name = c.Name
	}
	memo[classID] = name
	return name
}

func (s *service) subjectNameCached(ctx context.Context, memo map[string]string, subjectID string) string {
	if name, ok := memo[subjectID]; ok {
		return name
	}
	name := "Unknown"
	if sub, err := s.subjects.Get(ctx, subjectID); err == nil {
		name = sub.Name
	}
	memo[subjectID] = name
	return name
}
