package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

const tagColumns = `id, created_at, name`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag
	var createdAt string

	if err := scanner.Scan(&t.ID, &createdAt, &t.Name); err != nil {
		return nil, err
	}

	var err error
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTag inserts a new tag.
// Returns store.ErrAlreadyExists if a tag with the same name exists.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (id, created_at, name) VALUES (?, ?, ?)`,
		tag.ID, formatTime(tag.CreatedAt), tag.Name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTag retrieves a tag by ID.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagByName retrieves a tag by its exact name.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name = ?`, name)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTagsForPhoto returns the tags attached to a photo, by name.
func (s *Store) ListTagsForPhoto(ctx context.Context, photoID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.created_at, t.name FROM tags t
		JOIN photo_tags pt ON pt.tag_id = t.id
		WHERE pt.photo_id = ?
		ORDER BY t.name ASC`, photoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// AttachTag links a tag to a photo. Linking twice is a no-op.
func (s *Store) AttachTag(ctx context.Context, photoID, tagID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO photo_tags (photo_id, tag_id) VALUES (?, ?)`,
		photoID, tagID)
	return err
}

// DetachTag unlinks a tag from a photo.
// Returns store.ErrNotFound if the link does not exist.
func (s *Store) DetachTag(ctx context.Context, photoID, tagID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM photo_tags WHERE photo_id = ? AND tag_id = ?`,
		photoID, tagID)
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

// DeleteTagIfUnused removes the tag when no photo references it anymore.
// Returns true when the tag was deleted.
func (s *Store) DeleteTagIfUnused(ctx context.Context, tagID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM tags WHERE id = ?
		AND NOT EXISTS (SELECT 1 FROM photo_tags WHERE tag_id = ?)`,
		tagID, tagID)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListPhotosByTag returns one page of photos carrying the tag.
// Order is by collector count descending, then newest first, so the most
// collected photos lead the tag page.
func (s *Store) ListPhotosByTag(ctx context.Context, tagID string, params store.PaginationParams) ([]*domain.Photo, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM photo_tags WHERE tag_id = ?`, tagID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+photoPrefixedColumns+` FROM photos p
		JOIN photo_tags pt ON pt.photo_id = p.id
		LEFT JOIN collects c ON c.photo_id = p.id
		WHERE pt.tag_id = ?
		GROUP BY p.id
		ORDER BY COUNT(c.collector_id) DESC, p.created_at DESC
		LIMIT ? OFFSET ?`,
		tagID, params.PerPage, params.Offset())
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
