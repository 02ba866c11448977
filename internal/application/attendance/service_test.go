package attendance

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Ccreature09/poko-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAttendanceStore struct{ mock.Mock }

func (m *mockAttendanceStore) Put(ctx context.Context, rec *domain.AttendanceRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockAttendanceStore) Update(ctx context.Context, attendanceID string, updates map[string]interface{}) error {
	return m.Called(ctx, attendanceID, updates).Error(0)
}

func (m *mockAttendanceStore) ListBySession(ctx context.Context, sessionKey string) ([]domain.AttendanceRecord, error) {
	args := m.Called(ctx, sessionKey)
	return args.Get(0).([]domain.AttendanceRecord), args.Error(1)
}

func (m *mockAttendanceStore) ListByStudentRange(ctx context.Context, studentID, from, to string) ([]domain.AttendanceRecord, error) {
	args := m.Called(ctx, studentID, from, to)
	return args.Get(0).([]domain.AttendanceRecord), args.Error(1)
}

func (m *mockAttendanceStore) ListBySchoolRange(ctx context.Context, schoolID, from, to string) ([]domain.AttendanceRecord, error) {
	args := m.Called(ctx, schoolID, from, to)
	return args.Get(0).([]domain.AttendanceRecord), args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserStore) ListParentsOfStudent(ctx context.Context, schoolID, studentID string) ([]domain.User, error) {
	args := m.Called(ctx, schoolID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

type mockClassStore struct{ mock.Mock }

func (m *mockClassStore) Get(ctx context.Context, classID string) (*domain.Class, error) {
	args := m.Called(ctx, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Class), args.Error(1)
}

type mockSubjectStore struct{ mock.Mock }

func (m *mockSubjectStore) Get(ctx context.Context, subjectID string) (*domain.Subject, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

type mockSessionChecker struct{ mock.Mock }

func (m *mockSessionChecker) SessionExists(ctx context.Context, classID, subjectID, day string, period int) (bool, error) {
	args := m.Called(ctx, classID, subjectID, day, period)
	return args.Bool(0), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Create(ctx context.Context, userID string, draft domain.NotificationDraft) (string, error) {
	args := m.Called(ctx, userID, draft)
	return args.String(0), args.Error(1)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

type testDeps struct {
	records   *mockAttendanceStore
	users     *mockUserStore
	classes   *mockClassStore
	subjects  *mockSubjectStore
	timetable *mockSessionChecker
	notifier  *mockNotifier
	exports   *mockObjectStore
}

func newTestService(t *testing.T) (*service, testDeps) {
	t.Helper()
	deps := testDeps{
		records:   &mockAttendanceStore{},
		users:     &mockUserStore{},
		classes:   &mockClassStore{},
		subjects:  &mockSubjectStore{},
		timetable: &mockSessionChecker{},
		notifier:  &mockNotifier{},
		exports:   &mockObjectStore{},
	}
	svc := NewService(ServiceDeps{
		AttendanceRepo: deps.records,
		UserRepo:       deps.users,
		ClassRepo:      deps.classes,
		SubjectRepo:    deps.subjects,
		Timetable:      deps.timetable,
		Notifier:       deps.notifier,
		Exports:        deps.exports,
	}).(*service)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC) // a Monday
	}
	return svc, deps
}

func stubNames(deps testDeps) {
	deps.users.On("Get", mock.Anything, "t-1").Return(&domain.User{UserID: "t-1", FirstName: "Maria", LastName: "Ivanova"}, nil)
	deps.users.On("Get", mock.Anything, mock.Anything).Return(&domain.User{UserID: "s-x", FirstName: "Some", LastName: "Student"}, nil)
	deps.classes.On("Get", mock.Anything, "c-1").Return(&domain.Class{ClassID: "c-1", Name: "10A"}, nil)
	deps.subjects.On("Get", mock.Anything, "sub-1").Return(&domain.Subject{SubjectID: "sub-1", Name: "Mathematics"}, nil)
}

func baseRequest(entries ...domain.StudentStatus) domain.RecordAttendanceRequest {
	return domain.RecordAttendanceRequest{
		ClassID:   "c-1",
		SubjectID: "sub-1",
		Date:      "2026-03-02", // Monday
		Period:    3,
		Records:   entries,
	}
}

func TestRecordClassAttendance_RejectsUnknownSession(t *testing.T) {
	svc, deps := newTestService(t)
	deps.timetable.On("SessionExists", mock.Anything, "c-1", "sub-1", "Monday", 3).Return(false, nil)

	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1",
		baseRequest(domain.StudentStatus{StudentID: "s-1", Status: domain.StatusPresent}))
	require.ErrorIs(t, err, domain.ErrBadRequest)
	deps.records.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRecordClassAttendance_RejectsInvalidStatus(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1",
		baseRequest(domain.StudentStatus{StudentID: "s-1", Status: "vanished"}))
	require.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRecordClassAttendance_RejectsDuplicateStudent(t *testing.T) {
	svc, deps := newTestService(t)

	// Both entries would miss each other in the one pre-write read of the
	// session and insert two records for the same student.
	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1", baseRequest(
		domain.StudentStatus{StudentID: "s-1", Status: domain.StatusAbsent},
		domain.StudentStatus{StudentID: "s-1", Status: domain.StatusAbsent},
	))
	require.ErrorIs(t, err, domain.ErrBadRequest)

	// Rejected before anything is read or written.
	deps.records.AssertNotCalled(t, "ListBySession", mock.Anything, mock.Anything)
	deps.records.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	deps.notifier.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordClassAttendance_InsertsAndNotifiesAbsence(t *testing.T) {
	svc, deps := newTestService(t)
	stubNames(deps)
	deps.timetable.On("SessionExists", mock.Anything, "c-1", "sub-1", "Monday", 3).Return(true, nil)
	deps.records.On("ListBySession", mock.Anything, "c-1#sub-1#2026-03-02#3").Return([]domain.AttendanceRecord{}, nil)

	var inserted *domain.AttendanceRecord
	deps.records.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(*domain.AttendanceRecord)
	}).Return(nil)
	deps.users.On("ListParentsOfStudent", mock.Anything, "sch-1", "s-1").Return([]domain.User{{UserID: "p-1"}}, nil)
	deps.notifier.On("Create", mock.Anything, "s-1", mock.Anything).Return("n-1", nil)
	deps.notifier.On("Create", mock.Anything, "p-1", mock.Anything).Return("n-2", nil)
	deps.records.On("Update", mock.Anything, mock.Anything, map[string]interface{}{fieldNotifiedParent: true}).Return(nil)

	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1",
		baseRequest(domain.StudentStatus{StudentID: "s-1", Status: domain.StatusAbsent}))
	require.NoError(t, err)

	require.NotNil(t, inserted)
	assert.Equal(t, "c-1#sub-1#2026-03-02#3", inserted.SessionKey)
	assert.Equal(t, domain.StatusAbsent, inserted.Status)
	assert.Equal(t, "Maria Ivanova", inserted.TeacherName)
	assert.Equal(t, "10A", inserted.ClassName)
	assert.Equal(t, "Mathematics", inserted.SubjectName)
	assert.False(t, inserted.Justified)

	// Student and parent both notified with the absence type.
	deps.notifier.AssertCalled(t, "Create", mock.Anything, "s-1", mock.MatchedBy(func(d domain.NotificationDraft) bool {
		return d.Type == domain.TypeAttendanceAbsent && d.Params["subjectName"] == "Mathematics"
	}))
	deps.notifier.AssertCalled(t, "Create", mock.Anything, "p-1", mock.Anything)
	deps.records.AssertCalled(t, "Update", mock.Anything, inserted.AttendanceID, map[string]interface{}{fieldNotifiedParent: true})
}

func TestRecordClassAttendance_PresentNeverNotifies(t *testing.T) {
	svc, deps := newTestService(t)
	stubNames(deps)
	deps.timetable.On("SessionExists", mock.Anything, "c-1", "sub-1", "Monday", 3).Return(true, nil)
	deps.records.On("ListBySession", mock.Anything, mock.Anything).Return([]domain.AttendanceRecord{}, nil)
	deps.records.On("Put", mock.Anything, mock.Anything).Return(nil)

	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1",
		baseRequest(domain.StudentStatus{StudentID: "s-1", Status: domain.StatusPresent}))
	require.NoError(t, err)
	deps.notifier.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordClassAttendance_ResubmitSameStatusStaysSilent(t *testing.T) {
	svc, deps := newTestService(t)
	stubNames(deps)
	deps.timetable.On("SessionExists", mock.Anything, "c-1", "sub-1", "Monday", 3).Return(true, nil)
	deps.records.On("ListBySession", mock.Anything, mock.Anything).Return([]domain.AttendanceRecord{
		{AttendanceID: "att-1", StudentID: "s-1", Status: domain.StatusAbsent},
	}, nil)
	deps.records.On("Update", mock.Anything, "att-1", mock.Anything).Return(nil)

	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1",
		baseRequest(domain.StudentStatus{StudentID: "s-1", Status: domain.StatusAbsent}))
	require.NoError(t, err)

	// Existing record updated in place, never duplicated, and the unchanged
	// status does not re-notify.
	deps.records.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	deps.notifier.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordClassAttendance_StatusChangeNotifies(t *testing.T) {
	svc, deps := newTestService(t)
	stubNames(deps)
	deps.timetable.On("SessionExists", mock.Anything, "c-1", "sub-1", "Monday", 3).Return(true, nil)
	deps.records.On("ListBySession", mock.Anything, mock.Anything).Return([]domain.AttendanceRecord{
		{AttendanceID: "att-1", StudentID: "s-1", Status: domain.StatusPresent},
	}, nil)
	deps.records.On("Update", mock.Anything, "att-1", mock.Anything).Return(nil)
	deps.users.On("ListParentsOfStudent", mock.Anything, "sch-1", "s-1").Return([]domain.User{}, nil)
	deps.notifier.On("Create", mock.Anything, "s-1", mock.Anything).Return("n-1", nil)

	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1",
		baseRequest(domain.StudentStatus{StudentID: "s-1", Status: domain.StatusLate}))
	require.NoError(t, err)

	deps.notifier.AssertCalled(t, "Create", mock.Anything, "s-1", mock.MatchedBy(func(d domain.NotificationDraft) bool {
		return d.Type == domain.TypeAttendanceLate
	}))
	// No parents reached, so the record keeps notified_parent false.
	deps.records.AssertNotCalled(t, "Update", mock.Anything, "att-1", map[string]interface{}{fieldNotifiedParent: true})
}

func TestRecordClassAttendance_ChangeBackToPresentStaysSilent(t *testing.T) {
	svc, deps := newTestService(t)
	stubNames(deps)
	deps.timetable.On("SessionExists", mock.Anything, "c-1", "sub-1", "Monday", 3).Return(true, nil)
	deps.records.On("ListBySession", mock.Anything, mock.Anything).Return([]domain.AttendanceRecord{
		{AttendanceID: "att-1", StudentID: "s-1", Status: domain.StatusAbsent},
	}, nil)
	deps.records.On("Update", mock.Anything, "att-1", mock.Anything).Return(nil)

	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1",
		baseRequest(domain.StudentStatus{StudentID: "s-1", Status: domain.StatusPresent}))
	require.NoError(t, err)
	deps.notifier.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordClassAttendance_NotificationFailureDoesNotFailWrite(t *testing.T) {
	svc, deps := newTestService(t)
	stubNames(deps)
	deps.timetable.On("SessionExists", mock.Anything, "c-1", "sub-1", "Monday", 3).Return(true, nil)
	deps.records.On("ListBySession", mock.Anything, mock.Anything).Return([]domain.AttendanceRecord{}, nil)
	deps.records.On("Put", mock.Anything, mock.Anything).Return(nil)
	deps.notifier.On("Create", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("sns down"))
	deps.users.On("ListParentsOfStudent", mock.Anything, "sch-1", "s-1").Return(nil, errors.New("index offline"))

	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1",
		baseRequest(domain.StudentStatus{StudentID: "s-1", Status: domain.StatusAbsent}))
	require.NoError(t, err)
}

func TestRecordClassAttendance_StoreErrorsAreCollected(t *testing.T) {
	svc, deps := newTestService(t)
	stubNames(deps)
	deps.timetable.On("SessionExists", mock.Anything, "c-1", "sub-1", "Monday", 3).Return(true, nil)
	deps.records.On("ListBySession", mock.Anything, mock.Anything).Return([]domain.AttendanceRecord{}, nil)
	deps.records.On("Put", mock.Anything, mock.MatchedBy(func(rec *domain.AttendanceRecord) bool {
		return rec.StudentID == "s-1"
	})).Return(errors.New("throughput exceeded"))
	deps.records.On("Put", mock.Anything, mock.Anything).Return(nil)

	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1", baseRequest(
		domain.StudentStatus{StudentID: "s-1", Status: domain.StatusPresent},
		domain.StudentStatus{StudentID: "s-2", Status: domain.StatusPresent},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s-1")
	// The failing student does not block the rest of the roster.
	deps.records.AssertNumberOfCalls(t, "Put", 2)
}

func TestRecordClassAttendance_MissingDisplayEntitiesFallBackToUnknown(t *testing.T) {
	svc, deps := newTestService(t)
	deps.users.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	deps.classes.On("Get", mock.Anything, "c-1").Return(nil, domain.ErrNotFound)
	deps.subjects.On("Get", mock.Anything, "sub-1").Return(nil, domain.ErrNotFound)
	deps.timetable.On("SessionExists", mock.Anything, "c-1", "sub-1", "Monday", 3).Return(true, nil)
	deps.records.On("ListBySession", mock.Anything, mock.Anything).Return([]domain.AttendanceRecord{}, nil)

	var inserted *domain.AttendanceRecord
	deps.records.On("Put", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(*domain.AttendanceRecord)
	}).Return(nil)

	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1",
		baseRequest(domain.StudentStatus{StudentID: "s-1", Status: domain.StatusPresent}))
	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.Equal(t, "Unknown", inserted.TeacherName)
	assert.Equal(t, "Unknown", inserted.ClassName)
	assert.Equal(t, "Unknown", inserted.SubjectName)
	assert.Equal(t, "Unknown", inserted.StudentName)
}

func TestRecordClassAttendance_ExcusedMarksJustified(t *testing.T) {
	svc, deps := newTestService(t)
	stubNames(deps)
	deps.timetable.On("SessionExists", mock.Anything, "c-1", "sub-1", "Monday", 3).Return(true, nil)
	deps.records.On("ListBySession", mock.Anything, mock.Anything).Return([]domain.AttendanceRecord{
		{AttendanceID: "att-1", StudentID: "s-1", Status: domain.StatusAbsent},
	}, nil)

	var updates map[string]interface{}
	deps.records.On("Update", mock.Anything, "att-1", mock.MatchedBy(func(u map[string]interface{}) bool {
		_, ok := u[fieldStatus]
		return ok
	})).Run(func(args mock.Arguments) {
		updates = args.Get(2).(map[string]interface{})
	}).Return(nil)
	deps.users.On("ListParentsOfStudent", mock.Anything, "sch-1", "s-1").Return([]domain.User{}, nil)
	deps.notifier.On("Create", mock.Anything, "s-1", mock.Anything).Return("n-1", nil)

	err := svc.RecordClassAttendance(context.Background(), "sch-1", "t-1",
		baseRequest(domain.StudentStatus{StudentID: "s-1", Status: domain.StatusExcused}))
	require.NoError(t, err)
	require.NotNil(t, updates)
	assert.Equal(t, "excused", updates[fieldStatus])
	assert.Equal(t, true, updates[fieldJustified])
}
