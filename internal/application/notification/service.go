package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ccreature09/poko-server/internal/domain"
	"github.com/Ccreature09/poko-server/internal/pkg/id"
	"github.com/Ccreature09/poko-server/internal/pkg/timewindow"
)

// batchSize is the per-chunk write limit for bulk fan-out, matching the
// store's batch-write ceiling.
const batchSize = 25

type Service interface {
	// Create builds and persists one notification. Returns the new
	// notification id, or "" when the recipient's settings suppressed it.
	Create(ctx context.Context, userID string, draft domain.NotificationDraft) (string, error)
	// CreateBulk fans the draft out to every recipient, deduplicated and
	// committed in batch chunks. Per-recipient build failures are skipped;
	// a chunk commit failure propagates.
	CreateBulk(ctx context.Context, userIDs []string, draft domain.NotificationDraft) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, notificationID, userID string) error
	// CleanupExpired removes every notification past its expiry and
	// returns how many were deleted.
	CleanupExpired(ctx context.Context) (int, error)
	GetSettings(ctx context.Context, userID string) (*domain.NotificationSettings, error)
	UpdateSettings(ctx context.Context, userID string, req domain.UpdateNotificationSettingsRequest) (*domain.NotificationSettings, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	BatchPut(ctx context.Context, notifications []domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
	Delete(ctx context.Context, notificationID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type settingsStore interface {
	Get(ctx context.Context, userID string) (*domain.NotificationSettings, error)
	Put(ctx context.Context, s *domain.NotificationSettings) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type pushSender interface {
	SendPush(ctx context.Context, userID, title, message, url string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type service struct {
	notifications notificationStore
	settings      settingsStore
	users         userStore
	push          pushSender // nil when push is not configured
	mailer        mailer     // nil when email is not configured
	now           func() time.Time
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	SettingsRepo     settingsStore
	UserRepo         userStore
	Push             pushSender
	Mailer           mailer
}

func NewService(deps ServiceDeps) Service {
	return &service{
		notifications: deps.NotificationRepo,
		settings:      deps.SettingsRepo,
		users:         deps.UserRepo,
		push:          deps.Push,
		mailer:        deps.Mailer,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, userID string, draft domain.NotificationDraft) (string, error) {
	n, err := s.build(userID, draft)
	if err != nil {
		return "", err
	}
	settings := s.settingsFor(ctx, userID)
	if !shouldSend(settings, n.Category, n.Priority, s.now()) {
		return "", nil
	}
	if err := s.notifications.Put(ctx, n); err != nil {
		return "", err
	}
	s.deliver(ctx, settings, n)
	return n.NotificationID, nil
}

func (s *service) CreateBulk(ctx context.Context, userIDs []string, draft domain.NotificationDraft) error {
	recipients := dedupe(userIDs)

	var pending []domain.Notification
	var pendingSettings []*domain.NotificationSettings
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := s.notifications.BatchPut(ctx, pending); err != nil {
			return err
		}
		// Side-channel delivery happens after the chunk commits, per
		// recipient, non-atomically.
		for i := range pending {
			s.deliver(ctx, pendingSettings[i], &pending[i])
		}
		pending = pending[:0]
		pendingSettings = pendingSettings[:0]
		return nil
	}

	for _, userID := range recipients {
		n, err := s.build(userID, draft)
		if err != nil {
			// One bad recipient never aborts the rest of the fan-out.
			slog.Warn("skipping recipient in bulk notification", "user_id", userID, "type", draft.Type, "err", err)
			continue
		}
		settings := s.settingsFor(ctx, userID)
		if pref, ok := settings.CategoryPreferences[n.Category]; ok && !pref.Enabled {
			continue
		}
		pending = append(pending, *n)
		pendingSettings = append(pendingSettings, settings)
		if len(pending) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// build assembles a Notification from the draft: template output first,
// explicit draft fields layered on top (explicit always wins), then the
// derived link and expiry.
func (s *service) build(userID string, draft domain.NotificationDraft) (*domain.Notification, error) {
	if draft.Type == "" {
		return nil, fmt.Errorf("notification type is required: %w", domain.ErrBadRequest)
	}

	var tpl rendered
	if format, ok := templates[draft.Type]; ok {
		tpl = format(params(draft.Params))
	}
	// A formatter may classify its type explicitly; the name-prefix
	// conventions are only the fallback.
	tpl.Category = firstNonEmpty(tpl.Category, categoryFromType(draft.Type))
	tpl.Priority = firstNonEmpty(tpl.Priority, priorityFromType(draft.Type))

	now := s.now()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		Type:           draft.Type,
		Category:       firstNonEmpty(draft.Category, tpl.Category),
		Priority:       firstNonEmpty(draft.Priority, tpl.Priority),
		Title:          firstNonEmpty(draft.Title, tpl.Title),
		Message:        firstNonEmpty(draft.Message, tpl.Message),
		Icon:           tpl.Icon,
		Color:          tpl.Color,
		RelatedID:      draft.RelatedID,
		Actions:        draft.Actions,
		Metadata:       draft.Metadata,
		Read:           false,
		CreatedAt:      now,
	}
	if len(n.Actions) == 0 {
		n.Actions = tpl.Actions
	}
	if n.Title == "" && n.Message == "" {
		return nil, fmt.Errorf("notification type %q has no template and no explicit content: %w", draft.Type, domain.ErrBadRequest)
	}
	n.Link = resolveLink(draft, n.Category)
	if !draft.ExpiresAt.IsZero() {
		n.ExpiresAt = draft.ExpiresAt
	} else {
		n.ExpiresAt = expiryForPriority(n.Priority, now)
	}
	n.ExpiresAtUnix = n.ExpiresAt.Unix()
	return n, nil
}

// settingsFor loads the recipient's settings, falling back to defaults
// when none are stored yet or the read fails. A settings read must never
// block a notification.
func (s *service) settingsFor(ctx context.Context, userID string) *domain.NotificationSettings {
	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return domain.DefaultNotificationSettings(userID)
	}
	return settings
}

// shouldSend decides whether the recipient receives this notification at
// all: false when the category is disabled, or when the priority is below
// urgent and now falls inside the do-not-disturb window.
func shouldSend(settings *domain.NotificationSettings, category, priority string, now time.Time) bool {
	if pref, ok := settings.CategoryPreferences[category]; ok && !pref.Enabled {
		return false
	}
	if priority == domain.PriorityUrgent {
		return true
	}
	return !inDoNotDisturb(settings.DoNotDisturb, now)
}

// inDoNotDisturb checks the quiet-hours window. Start > End means the
// window spans midnight. An empty Days list applies every day; otherwise
// the current weekday must be listed.
func inDoNotDisturb(dnd domain.DoNotDisturb, now time.Time) bool {
	if !dnd.Enabled {
		return false
	}
	if len(dnd.Days) > 0 {
		day := now.Weekday().String()
		found := false
		for _, d := range dnd.Days {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	start, ok := timewindow.ClockMinutes(dnd.Start)
	if !ok {
		return false
	}
	end, ok := timewindow.ClockMinutes(dnd.End)
	if !ok {
		return false
	}
	minute := timewindow.MinutesOfDay(now)
	if start <= end {
		return minute >= start && minute < end
	}
	// Spans midnight, e.g. 22:00-07:00.
	return minute >= start || minute < end
}

// deliver pushes the notification out on the side channels the recipient
// has enabled. Fire-and-forget: failures are logged, never propagated.
func (s *service) deliver(ctx context.Context, settings *domain.NotificationSettings, n *domain.Notification) {
	pref, hasPref := settings.CategoryPreferences[n.Category]

	if s.push != nil && settings.PushEnabled && (!hasPref || pref.Push) {
		if err := s.push.SendPush(ctx, n.UserID, n.Title, n.Message, n.Link); err != nil {
			slog.Warn("push delivery failed", "notification_id", n.NotificationID, "user_id", n.UserID, "err", err)
		}
	}

	if s.mailer != nil && settings.EmailEnabled && (!hasPref || pref.Email) {
		u, err := s.users.Get(ctx, n.UserID)
		if err != nil {
			slog.Warn("email delivery failed: recipient lookup", "user_id", n.UserID, "err", err)
			return
		}
		if err := s.mailer.SendEmail(u.Email, n.Title, n.Message); err != nil {
			slog.Warn("email delivery failed", "notification_id", n.NotificationID, "user_id", n.UserID, "err", err)
		}
	}
}

func (s *service) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, unreadOnly)
}

func (s *service) MarkRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("notification belongs to another user: %w", domain.ErrForbidden)
	}
	if err := s.notifications.MarkRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread, err := s.notifications.ListByUser(ctx, userID, true)
	if err != nil {
		return 0, err
	}
	marked := 0
	for i := range unread {
		if err := s.notifications.MarkRead(ctx, unread[i].NotificationID); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

func (s *service) Delete(ctx context.Context, notificationID, userID string) error {
	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("notification belongs to another user: %w", domain.ErrForbidden)
	}
	return s.notifications.Delete(ctx, notificationID)
}

func (s *service) CleanupExpired(ctx context.Context) (int, error) {
	return s.notifications.DeleteExpired(ctx, s.now())
}

func (s *service) GetSettings(ctx context.Context, userID string) (*domain.NotificationSettings, error) {
	settings, err := s.settings.Get(ctx, userID)
	if err == nil {
		return settings, nil
	}
	// First read: materialize defaults so later updates have a base.
	defaults := domain.DefaultNotificationSettings(userID)
	if putErr := s.settings.Put(ctx, defaults); putErr != nil {
		return nil, putErr
	}
	return defaults, nil
}

func (s *service) UpdateSettings(ctx context.Context, userID string, req domain.UpdateNotificationSettingsRequest) (*domain.NotificationSettings, error) {
	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.EmailEnabled != nil {
		settings.EmailEnabled = *req.EmailEnabled
	}
	if req.PushEnabled != nil {
		settings.PushEnabled = *req.PushEnabled
	}
	for category, pref := range req.CategoryPreferences {
		if !validCategory(category) {
			return nil, fmt.Errorf("unknown category %q: %w", category, domain.ErrBadRequest)
		}
		settings.CategoryPreferences[category] = pref
	}
	if req.DoNotDisturb != nil {
		dnd := *req.DoNotDisturb
		if dnd.Enabled {
			if _, ok := timewindow.ClockMinutes(dnd.Start); !ok {
				return nil, fmt.Errorf("invalid do-not-disturb start %q: %w", dnd.Start, domain.ErrBadRequest)
			}
			if _, ok := timewindow.ClockMinutes(dnd.End); !ok {
				return nil, fmt.Errorf("invalid do-not-disturb end %q: %w", dnd.End, domain.ErrBadRequest)
			}
		}
		settings.DoNotDisturb = dnd
	}
	settings.UpdatedAt = s.now()
	if err := s.settings.Put(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func validCategory(category string) bool {
	for _, c := range domain.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, uid := range ids {
		if uid == "" {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid)
	}
	return out
}
