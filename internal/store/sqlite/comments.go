package sqlite

import (
	"context"
	"database/sql"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

const commentColumns = `id, created_at, body, photo_id, author_id, replied_id, flag`

func scanComment(scanner interface{ Scan(dest ...any) error }) (*domain.Comment, error) {
	var c domain.Comment

	var (
		createdAt string
		repliedID sql.NullString
	)

	err := scanner.Scan(
		&c.ID,
		&createdAt,
		&c.Body,
		&c.PhotoID,
		&c.AuthorID,
		&repliedID,
		&c.Flag,
	)
	if err != nil {
		return nil, err
	}

	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	if repliedID.Valid {
		c.RepliedID = repliedID.String
	}

	return &c, nil
}

// CreateComment inserts a new comment.
func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, created_at, body, photo_id, author_id, replied_id, flag)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comment.ID,
		formatTime(comment.CreatedAt),
		comment.Body,
		comment.PhotoID,
		comment.AuthorID,
		nullString(comment.RepliedID),
		comment.Flag,
	)
	return err
}

// GetComment retrieves a comment by ID.
// Returns store.ErrNotFound if the comment does not exist.
func (s *Store) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)

	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCommentsForPhoto returns one page of a photo's comments, oldest first.
func (s *Store) ListCommentsForPhoto(ctx context.Context, photoID string, params store.PaginationParams) ([]*domain.Comment, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE photo_id = ?`, photoID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE photo_id = ?
		ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		photoID, params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments, err := collectComments(rows)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ListFlaggedComments returns one page of comments with at least one report,
// most-reported first.
func (s *Store) ListFlaggedComments(ctx context.Context, params store.PaginationParams) ([]*domain.Comment, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE flag > 0`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE flag > 0
		ORDER BY flag DESC, created_at DESC LIMIT ? OFFSET ?`,
		params.PerPage, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments, err := collectComments(rows)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ReportComment increments a comment's report counter.
// Returns store.ErrNotFound if the comment does not exist.
func (s *Store) ReportComment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE comments SET flag = flag + 1 WHERE id = ?`, id)
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

// DeleteComment removes a comment. Replies to it cascade.
// Returns store.ErrNotFound if the comment does not exist.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
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

func collectComments(rows *sql.Rows) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
