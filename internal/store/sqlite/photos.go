package sqlite

import (
	"context"
	"database/sql"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

// photoColumns must match the scan order in scanPhoto.
const photoColumns = `id, created_at, author_id, description,
	filename, filename_m, filename_s, blurhash, can_comment, flag`

func scanPhoto(scanner interface{ Scan(dest ...any) error }) (*domain.Photo, error) {
	var p domain.Photo

	var (
		createdAt  string
		canComment int
	)

	err := scanner.Scan(
		&p.ID,
		&createdAt,
		&p.AuthorID,
		&p.Description,
		&p.Filename,
		&p.FilenameM,
		&p.FilenameS,
		&p.Blurhash,
		&canComment,
		&p.Flag,
	)
	if err != nil {
		return nil, err
	}

	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	p.CanComment = canComment != 0

	return &p, nil
}

// CreatePhoto inserts a new photo.
func (s *Store) CreatePhoto(ctx context.Context, photo *domain.Photo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO photos (
			id, created_at, author_id, description,
			filename, filename_m, filename_s, blurhash, can_comment, flag
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		photo.ID,
		formatTime(photo.CreatedAt),
		photo.AuthorID,
		photo.Description,
		photo.Filename,
		photo.FilenameM,
		photo.FilenameS,
		photo.Blurhash,
		boolToInt(photo.CanComment),
		photo.Flag,
	)
	return err
}

// GetPhoto retrieves a photo by ID.
// Returns store.ErrNotFound if the photo does not exist.
func (s *Store) GetPhoto(ctx context.Context, id string) (*domain.Photo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)

	p, err := scanPhoto(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPhotos returns one page of all photos, newest first.
func (s *Store) ListPhotos(ctx context.Context, params store.PaginationParams) ([]*domain.Photo, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		params.PerPage, params.Offset())
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

// ListPhotosByAuthor returns one page of a user's photos, newest first.
func (s *Store) ListPhotosByAuthor(ctx context.Context, authorID string, params store.PaginationParams) ([]*domain.Photo, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM photos WHERE author_id = ?`, authorID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE author_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		authorID, params.PerPage, params.Offset())
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

// CountPhotosByAuthor returns how many photos a user has uploaded.
func (s *Store) CountPhotosByAuthor(ctx context.Context, authorID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM photos WHERE author_id = ?`, authorID).Scan(&total)
	return total, err
}

// CountCollectedPhotos returns how many photos a user has collected.
func (s *Store) CountCollectedPhotos(ctx context.Context, collectorID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collects WHERE collector_id = ?`, collectorID).Scan(&total)
	return total, err
}

// ListFeedPhotos returns one page of photos by users the viewer follows,
// newest first. The viewer's own photos are included through the self-follow
// edge created at registration.
func (s *Store) ListFeedPhotos(ctx context.Context, viewerID string, params store.PaginationParams) ([]*domain.Photo, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM photos p
		JOIN follows f ON f.followed_id = p.author_id
		WHERE f.follower_id = ?`, viewerID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+photoPrefixedColumns+` FROM photos p
		JOIN follows f ON f.followed_id = p.author_id
		WHERE f.follower_id = ?
		ORDER BY p.created_at DESC LIMIT ? OFFSET ?`,
		viewerID, params.PerPage, params.Offset())
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

// photoPrefixedColumns qualifies photoColumns with the p alias for joins.
const photoPrefixedColumns = `p.id, p.created_at, p.author_id, p.description,
	p.filename, p.filename_m, p.filename_s, p.blurhash, p.can_comment, p.flag`

// ListFlaggedPhotos returns one page of photos with at least one report,
// most-reported first.
func (s *Store) ListFlaggedPhotos(ctx context.Context, params store.PaginationParams) ([]*domain.Photo, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos WHERE flag > 0`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE flag > 0
		ORDER BY flag DESC, created_at DESC LIMIT ? OFFSET ?`,
		params.PerPage, params.Offset())
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

// UpdatePhoto updates the mutable fields of a photo.
// Returns store.ErrNotFound if the photo does not exist.
func (s *Store) UpdatePhoto(ctx context.Context, photo *domain.Photo) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE photos SET description = ?, can_comment = ?, flag = ?
		WHERE id = ?`,
		photo.Description,
		boolToInt(photo.CanComment),
		photo.Flag,
		photo.ID,
	)
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

// ReportPhoto increments a photo's report counter.
// Returns store.ErrNotFound if the photo does not exist.
func (s *Store) ReportPhoto(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE photos SET flag = flag + 1 WHERE id = ?`, id)
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

// DeletePhoto removes a photo. Comments, collects, and tag links cascade.
// Returns store.ErrNotFound if the photo does not exist.
func (s *Store) DeletePhoto(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id)
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

// PhotoNeighbors returns the IDs of the previous (newer) and next (older)
// photo by the same author, for in-profile navigation. Either may be empty.
func (s *Store) PhotoNeighbors(ctx context.Context, photo *domain.Photo) (prevID, nextID string, err error) {
	createdAt := formatTime(photo.CreatedAt)

	err = s.db.QueryRowContext(ctx, `
		SELECT id FROM photos
		WHERE author_id = ? AND (created_at > ? OR (created_at = ? AND id > ?))
		ORDER BY created_at ASC, id ASC LIMIT 1`,
		photo.AuthorID, createdAt, createdAt, photo.ID).Scan(&prevID)
	if err != nil && err != sql.ErrNoRows {
		return "", "", err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT id FROM photos
		WHERE author_id = ? AND (created_at < ? OR (created_at = ? AND id < ?))
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		photo.AuthorID, createdAt, createdAt, photo.ID).Scan(&nextID)
	if err != nil && err != sql.ErrNoRows {
		return "", "", err
	}

	return prevID, nextID, nil
}

func collectPhotos(rows *sql.Rows) ([]*domain.Photo, error) {
	var photos []*domain.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return photos, nil
}
