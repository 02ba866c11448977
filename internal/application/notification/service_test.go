package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ccreature09/poko-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotifStore struct{ mock.Mock }

func (m *mockNotifStore) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockNotifStore) BatchPut(ctx context.Context, notifications []domain.Notification) error {
	return m.Called(ctx, notifications).Error(0)
}
func (m *mockNotifStore) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotifStore) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	if n, _ := args.Get(0).([]domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotifStore) MarkRead(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}
func (m *mockNotifStore) Delete(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}
func (m *mockNotifStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

type mockSettingsStore struct{ mock.Mock }

func (m *mockSettingsStore) Get(ctx context.Context, userID string) (*domain.NotificationSettings, error) {
	args := m.Called(ctx, userID)
	if s, _ := args.Get(0).(*domain.NotificationSettings); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSettingsStore) Put(ctx context.Context, s *domain.NotificationSettings) error {
	return m.Called(ctx, s).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPush struct{ mock.Mock }

func (m *mockPush) SendPush(ctx context.Context, userID, title, message, url string) error {
	return m.Called(ctx, userID, title, message, url).Error(0)
}

// --- helpers ---

func newTestService(ns *mockNotifStore, ss *mockSettingsStore, us *mockUserStore, push *mockPush, now time.Time) *service {
	deps := ServiceDeps{NotificationRepo: ns, SettingsRepo: ss, UserRepo: us}
	if push != nil {
		deps.Push = push
	}
	svc := NewService(deps).(*service)
	svc.now = func() time.Time { return now }
	return svc
}

// noon is a harmless daytime instant, outside any test's quiet hours.
var noon = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func settingsWithDND(userID, start, end string, days ...string) *domain.NotificationSettings {
	s := domain.DefaultNotificationSettings(userID)
	s.DoNotDisturb = domain.DoNotDisturb{Enabled: true, Start: start, End: end, Days: days}
	return s
}

// --- Create ---

func TestCreate_TemplateAppliedWithOverrides(t *testing.T) {
	ns := &mockNotifStore{}
	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, "u-1").Return(nil, domain.ErrNotFound)

	var stored *domain.Notification
	ns.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Notification) }).
		Return(nil)

	svc := newTestService(ns, ss, nil, nil, noon)
	notifID, err := svc.Create(context.Background(), "u-1", domain.NotificationDraft{
		Type:   domain.TypeNewGrade,
		Params: map[string]string{"studentName": "Maria", "grade": "5", "subjectName": "Biology"},
		Title:  "Custom",
	})

	require.NoError(t, err)
	require.NotEmpty(t, notifID)
	require.NotNil(t, stored)
	// Explicit title wins; unspecified fields fall through to the template.
	assert.Equal(t, "Custom", stored.Title)
	assert.Equal(t, "Maria received grade 5 in Biology.", stored.Message)
	assert.Equal(t, domain.CategoryGrades, stored.Category)
	assert.Equal(t, domain.PriorityMedium, stored.Priority)
	assert.Equal(t, "award", stored.Icon)
	assert.Equal(t, "/grades", stored.Link)
	assert.Equal(t, noon.AddDate(0, 0, 7), stored.ExpiresAt)
	assert.False(t, stored.Read)
}

func TestCreate_FormatterClassificationWinsOverNameConvention(t *testing.T) {
	// A registered formatter may set category and priority itself; the
	// type-name prefix rules only classify formatters that leave them empty.
	const customType = "library-book-overdue"
	templates[customType] = func(p params) rendered {
		return rendered{
			Title:    "Book Overdue",
			Message:  "Please return your library book.",
			Category: domain.CategoryAnnouncements,
			Priority: domain.PriorityHigh,
		}
	}
	defer delete(templates, customType)

	ns := &mockNotifStore{}
	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, "u-1").Return(nil, domain.ErrNotFound)

	var stored *domain.Notification
	ns.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.Notification) }).
		Return(nil)

	svc := newTestService(ns, ss, nil, nil, noon)
	_, err := svc.Create(context.Background(), "u-1", domain.NotificationDraft{Type: customType})

	require.NoError(t, err)
	require.NotNil(t, stored)
	// The prefix rules would have said system/medium for this type name.
	assert.Equal(t, domain.CategoryAnnouncements, stored.Category)
	assert.Equal(t, domain.PriorityHigh, stored.Priority)
	assert.Equal(t, noon.AddDate(0, 0, 3), stored.ExpiresAt)
}

func TestCreate_CategoryDisabled_Suppressed(t *testing.T) {
	ns := &mockNotifStore{}
	ss := &mockSettingsStore{}
	settings := domain.DefaultNotificationSettings("u-1")
	settings.CategoryPreferences[domain.CategoryGrades] = domain.CategoryPreference{Enabled: false}
	ss.On("Get", mock.Anything, "u-1").Return(settings, nil)

	svc := newTestService(ns, ss, nil, nil, noon)
	notifID, err := svc.Create(context.Background(), "u-1", domain.NotificationDraft{Type: domain.TypeNewGrade})

	require.NoError(t, err)
	assert.Empty(t, notifID)
	ns.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_DoNotDisturb_SuppressesMediumButNotUrgent(t *testing.T) {
	lateEvening := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)

	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, "u-1").Return(settingsWithDND("u-1", "22:00", "07:00"), nil)

	// Medium priority at 23:00 inside a 22:00-07:00 window: suppressed.
	ns := &mockNotifStore{}
	svc := newTestService(ns, ss, nil, nil, lateEvening)
	notifID, err := svc.Create(context.Background(), "u-1", domain.NotificationDraft{Type: domain.TypeNewGrade})
	require.NoError(t, err)
	assert.Empty(t, notifID)
	ns.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)

	// Urgent priority at the same instant: delivered.
	ns2 := &mockNotifStore{}
	ns2.On("Put", mock.Anything, mock.Anything).Return(nil)
	svc2 := newTestService(ns2, ss, nil, nil, lateEvening)
	notifID, err = svc2.Create(context.Background(), "u-1", domain.NotificationDraft{Type: domain.TypeQuizCheatingDetected})
	require.NoError(t, err)
	assert.NotEmpty(t, notifID)
	ns2.AssertExpectations(t)
}

func TestCreate_DoNotDisturb_EarlyMorningWrap(t *testing.T) {
	// 06:30 still falls inside a 22:00-07:00 window that spans midnight.
	earlyMorning := time.Date(2026, 3, 3, 6, 30, 0, 0, time.UTC)
	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, "u-1").Return(settingsWithDND("u-1", "22:00", "07:00"), nil)

	ns := &mockNotifStore{}
	svc := newTestService(ns, ss, nil, nil, earlyMorning)
	notifID, err := svc.Create(context.Background(), "u-1", domain.NotificationDraft{Type: domain.TypeNewGrade})
	require.NoError(t, err)
	assert.Empty(t, notifID)
}

func TestCreate_DoNotDisturb_DayRestricted(t *testing.T) {
	// Window restricted to weekends; Monday 23:00 is not suppressed.
	mondayNight := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, "u-1").Return(settingsWithDND("u-1", "22:00", "07:00", "Saturday", "Sunday"), nil)

	ns := &mockNotifStore{}
	ns.On("Put", mock.Anything, mock.Anything).Return(nil)
	svc := newTestService(ns, ss, nil, nil, mondayNight)
	notifID, err := svc.Create(context.Background(), "u-1", domain.NotificationDraft{Type: domain.TypeNewGrade})
	require.NoError(t, err)
	assert.NotEmpty(t, notifID)
	ns.AssertExpectations(t)
}

func TestCreate_UnknownTypeWithoutContent_Rejected(t *testing.T) {
	ns := &mockNotifStore{}
	ss := &mockSettingsStore{}

	svc := newTestService(ns, ss, nil, nil, noon)
	_, err := svc.Create(context.Background(), "u-1", domain.NotificationDraft{Type: "mystery-type"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestCreate_PushFailureDoesNotPropagate(t *testing.T) {
	ns := &mockNotifStore{}
	ns.On("Put", mock.Anything, mock.Anything).Return(nil)
	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, "u-1").Return(nil, domain.ErrNotFound)
	push := &mockPush{}
	push.On("SendPush", mock.Anything, "u-1", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("sns unavailable"))

	svc := newTestService(ns, ss, nil, push, noon)
	notifID, err := svc.Create(context.Background(), "u-1", domain.NotificationDraft{Type: domain.TypeNewGrade})

	require.NoError(t, err)
	assert.NotEmpty(t, notifID)
	push.AssertExpectations(t)
}

// --- CreateBulk ---

func TestCreateBulk_DeduplicatesAndChunks(t *testing.T) {
	ns := &mockNotifStore{}
	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	var chunkSizes []int
	ns.On("BatchPut", mock.Anything, mock.AnythingOfType("[]domain.Notification")).
		Run(func(args mock.Arguments) {
			chunkSizes = append(chunkSizes, len(args.Get(1).([]domain.Notification)))
		}).
		Return(nil)

	// 60 distinct recipients plus duplicates of the first ten.
	var ids []string
	for i := 0; i < 60; i++ {
		ids = append(ids, "u-"+string(rune('A'+i/26))+string(rune('a'+i%26)))
	}
	ids = append(ids, ids[:10]...)

	svc := newTestService(ns, ss, nil, nil, noon)
	err := svc.CreateBulk(context.Background(), ids, domain.NotificationDraft{Type: domain.TypeAnnouncementSchool})

	require.NoError(t, err)
	assert.Equal(t, []int{25, 25, 10}, chunkSizes)
}

func TestCreateBulk_OptedOutRecipientsExcluded(t *testing.T) {
	ns := &mockNotifStore{}
	ss := &mockSettingsStore{}

	optedOut := domain.DefaultNotificationSettings("u-2")
	optedOut.CategoryPreferences[domain.CategoryAnnouncements] = domain.CategoryPreference{Enabled: false}
	ss.On("Get", mock.Anything, "u-1").Return(nil, domain.ErrNotFound)
	ss.On("Get", mock.Anything, "u-2").Return(optedOut, nil)
	ss.On("Get", mock.Anything, "u-3").Return(nil, domain.ErrNotFound)

	var recipients []string
	ns.On("BatchPut", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			for _, n := range args.Get(1).([]domain.Notification) {
				recipients = append(recipients, n.UserID)
			}
		}).
		Return(nil)

	svc := newTestService(ns, ss, nil, nil, noon)
	err := svc.CreateBulk(context.Background(), []string{"u-1", "u-2", "u-3"}, domain.NotificationDraft{Type: domain.TypeAnnouncementSchool})

	require.NoError(t, err)
	assert.Equal(t, []string{"u-1", "u-3"}, recipients)
}

func TestCreateBulk_CommitFailurePropagates(t *testing.T) {
	ns := &mockNotifStore{}
	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	ns.On("BatchPut", mock.Anything, mock.Anything).Return(errors.New("throughput exceeded"))

	svc := newTestService(ns, ss, nil, nil, noon)
	err := svc.CreateBulk(context.Background(), []string{"u-1", "u-2"}, domain.NotificationDraft{Type: domain.TypeAnnouncementSchool})

	assert.ErrorContains(t, err, "throughput exceeded")
}

// --- read state ---

func TestMarkRead_OwnerMismatch_Forbidden(t *testing.T) {
	ns := &mockNotifStore{}
	ns.On("Get", mock.Anything, "n-1").Return(&domain.Notification{NotificationID: "n-1", UserID: "someone-else"}, nil)
	ss := &mockSettingsStore{}

	svc := newTestService(ns, ss, nil, nil, noon)
	_, err := svc.MarkRead(context.Background(), "n-1", "u-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	ns.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
}

func TestMarkAllRead(t *testing.T) {
	ns := &mockNotifStore{}
	ns.On("ListByUser", mock.Anything, "u-1", true).Return([]domain.Notification{
		{NotificationID: "n-1", UserID: "u-1"},
		{NotificationID: "n-2", UserID: "u-1"},
	}, nil)
	ns.On("MarkRead", mock.Anything, "n-1").Return(nil)
	ns.On("MarkRead", mock.Anything, "n-2").Return(nil)
	ss := &mockSettingsStore{}

	svc := newTestService(ns, ss, nil, nil, noon)
	marked, err := svc.MarkAllRead(context.Background(), "u-1")

	require.NoError(t, err)
	assert.Equal(t, 2, marked)
	ns.AssertExpectations(t)
}

// --- settings ---

func TestGetSettings_LazyDefaultsOnFirstRead(t *testing.T) {
	ns := &mockNotifStore{}
	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, "u-1").Return(nil, domain.ErrNotFound)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.NotificationSettings")).Return(nil)

	svc := newTestService(ns, ss, nil, nil, noon)
	settings, err := svc.GetSettings(context.Background(), "u-1")

	require.NoError(t, err)
	assert.Equal(t, "u-1", settings.UserID)
	assert.True(t, settings.EmailEnabled)
	assert.True(t, settings.PushEnabled)
	assert.Len(t, settings.CategoryPreferences, len(domain.Categories))
	ss.AssertExpectations(t)
}

func TestUpdateSettings_InvalidDNDTime_Rejected(t *testing.T) {
	ns := &mockNotifStore{}
	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, "u-1").Return(domain.DefaultNotificationSettings("u-1"), nil)

	svc := newTestService(ns, ss, nil, nil, noon)
	_, err := svc.UpdateSettings(context.Background(), "u-1", domain.UpdateNotificationSettingsRequest{
		DoNotDisturb: &domain.DoNotDisturb{Enabled: true, Start: "25:00", End: "07:00"},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUpdateSettings_UnknownCategory_Rejected(t *testing.T) {
	ns := &mockNotifStore{}
	ss := &mockSettingsStore{}
	ss.On("Get", mock.Anything, "u-1").Return(domain.DefaultNotificationSettings("u-1"), nil)

	svc := newTestService(ns, ss, nil, nil, noon)
	_, err := svc.UpdateSettings(context.Background(), "u-1", domain.UpdateNotificationSettingsRequest{
		CategoryPreferences: map[string]domain.CategoryPreference{"gossip": {Enabled: true}},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}
