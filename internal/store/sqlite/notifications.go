package sqlite

import (
	"context"
	"database/sql"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

const notificationColumns = `id, created_at, receiver_id, message, is_read`

func scanNotification(scanner interface{ Scan(dest ...any) error }) (*domain.Notification, error) {
	var n domain.Notification

	var (
		createdAt string
		isRead    int
	)

	err := scanner.Scan(&n.ID, &createdAt, &n.ReceiverID, &n.Message, &isRead)
	if err != nil {
		return nil, err
	}

	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	n.IsRead = isRead != 0

	return &n, nil
}

// CreateNotification inserts a new notification.
func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, created_at, receiver_id, message, is_read)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID, formatTime(n.CreatedAt), n.ReceiverID, n.Message, boolToInt(n.IsRead))
	return err
}

// GetNotification retrieves a notification by ID.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)

	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotifications returns one page of a user's notifications, newest first.
// When unreadOnly is set, read notifications are filtered out.
func (s *Store) ListNotifications(ctx context.Context, receiverID string, unreadOnly bool, params store.PaginationParams) ([]*domain.Notification, int, error) {
	filter := ``
	if unreadOnly {
		filter = ` AND is_read = 0`
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE receiver_id = ?`+filter,
		receiverID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE receiver_id = ?`+filter+`
		ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		receiverID, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// CountUnreadNotifications returns the user's unread notification count.
func (s *Store) CountUnreadNotifications(ctx context.Context, receiverID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE receiver_id = ? AND is_read = 0`,
		receiverID).Scan(&count)
	return count, err
}

// MarkNotificationRead marks one notification as read.
// Returns store.ErrNotFound if it does not exist or belongs to someone else.
func (s *Store) MarkNotificationRead(ctx context.Context, id, receiverID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND receiver_id = ?`,
		id, receiverID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks all of a user's notifications as read.
// Returns how many were updated.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, receiverID string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE receiver_id = ? AND is_read = 0`,
		receiverID)
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
