package service

import (
	"context"
	"time"

	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/domain"
	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/id"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/store"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
)

// NotificationService manages in-app notifications.
type NotificationService struct {
	store *sqlite.Store
	cfg   *config.Config
	log   *logger.Logger
}

func NewNotificationService(st *sqlite.Store, cfg *config.Config, log *logger.Logger) *NotificationService {
	return &NotificationService{store: st, cfg: cfg, log: log}
}

// Push records a notification for a user. Failures are logged and swallowed:
// a notification must never fail the action that triggered it.
func (s *NotificationService) Push(ctx context.Context, receiverID, message string) {
	n := &domain.Notification{
		ID:         id.MustGenerate("notif"),
		ReceiverID: receiverID,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.log.WithError(err).Warn("failed to create notification", "receiver_id", receiverID)
	}
}

// List returns one page of the user's notifications, newest first.
// With unreadOnly set, read notifications are filtered out.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, params store.PaginationParams) (*store.Page[*domain.Notification], error) {
	if _, err := loadUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	params.Validate(s.cfg.Pages.NotificationPerPage)
	items, total, err := s.store.ListNotifications(ctx, userID, unreadOnly, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list notifications")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "count notifications")
	}
	return count, nil
}

// MarkRead marks one notification as read. Only the receiver can do this;
// anyone else sees a not-found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	err := s.store.MarkNotificationRead(ctx, notificationID, userID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("notification not found")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "mark notification read")
	}
	return nil
}

// MarkAllRead marks every unread notification as read and returns how many.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "mark notifications read")
	}
	return n, nil
}
