package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

// CreateFollow inserts a follow edge.
// Returns store.ErrAlreadyExists if the edge already exists.
func (s *Store) CreateFollow(ctx context.Context, followerID, followedID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO follows (follower_id, followed_id, created_at) VALUES (?, ?, ?)`,
		followerID, followedID, formatTime(time.Now()))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DeleteFollow removes a follow edge.
// Returns store.ErrNotFound if the edge does not exist.
func (s *Store) DeleteFollow(ctx context.Context, followerID, followedID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID)
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

// IsFollowing reports whether the follow edge exists.
func (s *Store) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CountFollowers returns how many users follow the given user.
// The self-follow edge is excluded so counts reflect other people.
func (s *Store) CountFollowers(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE followed_id = ? AND follower_id != ?`,
		userID, userID).Scan(&count)
	return count, err
}

// CountFollowing returns how many users the given user follows,
// excluding the self-follow edge.
func (s *Store) CountFollowing(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ? AND followed_id != ?`,
		userID, userID).Scan(&count)
	return count, err
}

// ListFollowers returns one page of the user's followers, newest edge first.
// The self-follow edge is excluded.
func (s *Store) ListFollowers(ctx context.Context, userID string, params store.PaginationParams) ([]*domain.User, int, error) {
	total, err := s.CountFollowers(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userPrefixedColumns+` FROM users u
		JOIN follows f ON f.follower_id = u.id
		WHERE f.followed_id = ? AND f.follower_id != ?
		ORDER BY f.created_at DESC LIMIT ? OFFSET ?`,
		userID, userID, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListFollowing returns one page of users the given user follows,
// newest edge first. The self-follow edge is excluded.
func (s *Store) ListFollowing(ctx context.Context, userID string, params store.PaginationParams) ([]*domain.User, int, error) {
	total, err := s.CountFollowing(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userPrefixedColumns+` FROM users u
		JOIN follows f ON f.followed_id = u.id
		WHERE f.follower_id = ? AND f.followed_id != ?
		ORDER BY f.created_at DESC LIMIT ? OFFSET ?`,
		userID, userID, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// userPrefixedColumns qualifies userColumns with the u alias for joins.
const userPrefixedColumns = `u.id, u.created_at, u.updated_at, u.username, u.email, u.email_lower,
	u.password_hash, u.name, u.website, u.bio, u.location, u.role, u.confirmed, u.active,
	u.avatar_file, u.avatar_file_m, u.avatar_file_s, u.avatar_color,
	u.receive_comment_notification, u.receive_follow_notification,
	u.receive_collect_notification, u.public_collections`

// CreateCollect inserts a collect edge.
// Returns store.ErrAlreadyExists if the user already collected the photo.
func (s *Store) CreateCollect(ctx context.Context, collectorID, photoID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collects (collector_id, photo_id, created_at) VALUES (?, ?, ?)`,
		collectorID, photoID, formatTime(time.Now()))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DeleteCollect removes a collect edge.
// Returns store.ErrNotFound if the edge does not exist.
func (s *Store) DeleteCollect(ctx context.Context, collectorID, photoID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM collects WHERE collector_id = ? AND photo_id = ?`,
		collectorID, photoID)
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

// IsCollecting reports whether the collect edge exists.
func (s *Store) IsCollecting(ctx context.Context, collectorID, photoID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM collects WHERE collector_id = ? AND photo_id = ?`,
		collectorID, photoID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CountCollectors returns how many users collected the photo.
func (s *Store) CountCollectors(ctx context.Context, photoID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collects WHERE photo_id = ?`, photoID).Scan(&count)
	return count, err
}

// ListCollectors returns one page of users who collected the photo,
// newest edge first.
func (s *Store) ListCollectors(ctx context.Context, photoID string, params store.PaginationParams) ([]*domain.User, int, error) {
	total, err := s.CountCollectors(ctx, photoID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userPrefixedColumns+` FROM users u
		JOIN collects c ON c.collector_id = u.id
		WHERE c.photo_id = ?
		ORDER BY c.created_at DESC LIMIT ? OFFSET ?`,
		photoID, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListCollectedPhotos returns one page of photos the user collected,
// newest edge first.
func (s *Store) ListCollectedPhotos(ctx context.Context, collectorID string, params store.PaginationParams) ([]*domain.Photo, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collects WHERE collector_id = ?`, collectorID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+photoPrefixedColumns+` FROM photos p
		JOIN collects c ON c.photo_id = p.id
		WHERE c.collector_id = ?
		ORDER BY c.created_at DESC LIMIT ? OFFSET ?`,
		collectorID, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	photos, err := collectPhotos(rows)
	if err != nil {
		return nil, 0, err
	}
	return photos, total, nil
}
