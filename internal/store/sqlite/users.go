package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, username, email, email_lower,
	password_hash, name, website, bio, location, role, confirmed, active,
	avatar_file, avatar_file_m, avatar_file_s, avatar_color,
	receive_comment_notification, receive_follow_notification,
	receive_collect_notification, public_collections`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User

	var (
		createdAt      string
		updatedAt      string
		emailLower     string
		role           string
		confirmed      int
		active         int
		receiveComment int
		receiveFollow  int
		receiveCollect int
		publicCollects int
	)

	err := scanner.Scan(
		&u.ID,
		&createdAt,
		&updatedAt,
		&u.Username,
		&u.Email,
		&emailLower,
		&u.PasswordHash,
		&u.Name,
		&u.Website,
		&u.Bio,
		&u.Location,
		&role,
		&confirmed,
		&active,
		&u.AvatarFile,
		&u.AvatarFileM,
		&u.AvatarFileS,
		&u.AvatarColor,
		&receiveComment,
		&receiveFollow,
		&receiveCollect,
		&publicCollects,
	)
	if err != nil {
		return nil, err
	}

	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	u.Role = domain.Role(role)
	u.Confirmed = confirmed != 0
	u.Active = active != 0
	u.ReceiveCommentNotification = receiveComment != 0
	u.ReceiveFollowNotification = receiveFollow != 0
	u.ReceiveCollectNotification = receiveCollect != 0
	u.PublicCollections = publicCollects != 0

	return &u, nil
}

// CreateUser inserts a new user.
// Returns store.ErrAlreadyExists if the username or email is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	emailLower := strings.ToLower(strings.TrimSpace(user.Email))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			id, created_at, updated_at, username, email, email_lower,
			password_hash, name, website, bio, location, role, confirmed, active,
			avatar_file, avatar_file_m, avatar_file_s, avatar_color,
			receive_comment_notification, receive_follow_notification,
			receive_collect_notification, public_collections
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		user.Username,
		user.Email,
		emailLower,
		user.PasswordHash,
		user.Name,
		user.Website,
		user.Bio,
		user.Location,
		string(user.Role),
		boolToInt(user.Confirmed),
		boolToInt(user.Active),
		user.AvatarFile,
		user.AvatarFileM,
		user.AvatarFileS,
		user.AvatarColor,
		boolToInt(user.ReceiveCommentNotification),
		boolToInt(user.ReceiveFollowNotification),
		boolToInt(user.ReceiveCollectNotification),
		boolToInt(user.PublicCollections),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	lower := strings.ToLower(strings.TrimSpace(email))
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, lower)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns one page of users ordered by registration time,
// together with the total user count.
func (s *Store) ListUsers(ctx context.Context, params store.PaginationParams) ([]*domain.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		params.PerPage, params.Offset())
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

// SearchUsers returns users whose username or name contains the query,
// ordered by registration time.
func (s *Store) SearchUsers(ctx context.Context, query string, params store.PaginationParams) ([]*domain.User, int, error) {
	pattern := "%" + escapeLike(query) + "%"

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\'`,
		pattern, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		WHERE username LIKE ? ESCAPE '\' OR name LIKE ? ESCAPE '\'
		ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		pattern, pattern, params.PerPage, params.Offset())
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

// UpdateUser performs a full row update on an existing user.
// Returns store.ErrNotFound if the user does not exist, or
// store.ErrAlreadyExists if the new username or email is taken.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	emailLower := strings.ToLower(strings.TrimSpace(user.Email))

	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			updated_at = ?,
			username = ?,
			email = ?,
			email_lower = ?,
			password_hash = ?,
			name = ?,
			website = ?,
			bio = ?,
			location = ?,
			role = ?,
			confirmed = ?,
			active = ?,
			avatar_file = ?,
			avatar_file_m = ?,
			avatar_file_s = ?,
			avatar_color = ?,
			receive_comment_notification = ?,
			receive_follow_notification = ?,
			receive_collect_notification = ?,
			public_collections = ?
		WHERE id = ?`,
		formatTime(user.UpdatedAt),
		user.Username,
		user.Email,
		emailLower,
		user.PasswordHash,
		user.Name,
		user.Website,
		user.Bio,
		user.Location,
		string(user.Role),
		boolToInt(user.Confirmed),
		boolToInt(user.Active),
		user.AvatarFile,
		user.AvatarFileM,
		user.AvatarFileS,
		user.AvatarColor,
		boolToInt(user.ReceiveCommentNotification),
		boolToInt(user.ReceiveFollowNotification),
		boolToInt(user.ReceiveCollectNotification),
		boolToInt(user.PublicCollections),
		user.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
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

// DeleteUser removes a user. Photos, comments, follows, collects, and
// notifications cascade through foreign keys.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
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

// collectUsers drains rows into a slice.
func collectUsers(rows *sql.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
