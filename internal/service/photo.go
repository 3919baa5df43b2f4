package service

import (
	"context"
	"strings"
	"time"

	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/domain"
	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/id"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/media/images"
	"github.com/MingruiWang2017/albumy/internal/store"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
	"github.com/MingruiWang2017/albumy/internal/validation"
)

// PhotoService manages photo uploads, listings, tags, and moderation flags.
type PhotoService struct {
	store     *sqlite.Store
	pipeline  *images.Pipeline
	storage   *images.Storage
	validator *validation.Validator
	cfg       *config.Config
	log       *logger.Logger
}

func NewPhotoService(
	st *sqlite.Store,
	pipeline *images.Pipeline,
	storage *images.Storage,
	validator *validation.Validator,
	cfg *config.Config,
	log *logger.Logger,
) *PhotoService {
	return &PhotoService{
		store:     st,
		pipeline:  pipeline,
		storage:   storage,
		validator: validator,
		cfg:       cfg,
		log:       log,
	}
}

// PhotoDetail is a photo page: the photo, its author, tags, counters, and
// the author's neighboring photo IDs for timeline navigation.
type PhotoDetail struct {
	Photo          *domain.Photo `json:"photo"`
	Author         *domain.User  `json:"author"`
	Tags           []*domain.Tag `json:"tags"`
	CollectorCount int           `json:"collector_count"`
	CommentCount   int           `json:"comment_count"`
	PrevID         string        `json:"prev_id,omitempty"`
	NextID         string        `json:"next_id,omitempty"`
}

// Upload validates and stores a photo for the user. The file must be a jpg
// or png no larger than the configured limit; the pipeline derives the
// medium and small renditions and the blurhash placeholder.
func (s *PhotoService) Upload(ctx context.Context, userID, filename, description string, data []byte) (*domain.Photo, error) {
	user, err := requireUser(ctx, s.store, userID, domain.PermissionUpload)
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > s.cfg.Upload.MaxSize {
		return nil, domainerrors.Validationf("file exceeds the %d MB size limit",
			s.cfg.Upload.MaxSize/(1024*1024))
	}
	if len(data) == 0 {
		return nil, domainerrors.Validation("file is empty")
	}
	if !s.cfg.AllowedExt(extOf(filename)) {
		return nil, domainerrors.Validation("only jpg and png files are accepted")
	}
	if len(description) > 500 {
		return nil, domainerrors.Validation("description must not exceed 500 characters")
	}

	renditions, err := s.pipeline.Process(filename, data)
	if err != nil {
		return nil, domainerrors.Validation("invalid image: " + err.Error())
	}

	photo := &domain.Photo{
		ID:          id.MustGenerate("photo"),
		AuthorID:    user.ID,
		Description: description,
		Filename:    renditions.Original,
		FilenameM:   renditions.Medium,
		FilenameS:   renditions.Small,
		Blurhash:    renditions.Blurhash,
		CanComment:  true,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.store.CreatePhoto(ctx, photo); err != nil {
		deleteFiles(s.storage, s.log, []string{renditions.Original, renditions.Medium, renditions.Small})
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create photo")
	}

	s.log.Info("photo uploaded", "photo_id", photo.ID, "author_id", user.ID)
	return photo, nil
}

// Get assembles the photo page.
func (s *PhotoService) Get(ctx context.Context, photoID string) (*PhotoDetail, error) {
	photo, err := s.getPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}

	detail := &PhotoDetail{Photo: photo}

	if detail.Author, err = s.store.GetUser(ctx, photo.AuthorID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load author")
	}
	if detail.Tags, err = s.store.ListTagsForPhoto(ctx, photo.ID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list tags")
	}
	if detail.CollectorCount, err = s.store.CountCollectors(ctx, photo.ID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "count collectors")
	}
	_, detail.CommentCount, err = s.store.ListCommentsForPhoto(ctx, photo.ID, store.PaginationParams{Page: 1, PerPage: 1})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "count comments")
	}
	if detail.PrevID, detail.NextID, err = s.store.PhotoNeighbors(ctx, photo); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "find neighbors")
	}

	return detail, nil
}

// File returns the stored bytes of a photo rendition file.
func (s *PhotoService) File(filename string) ([]byte, error) {
	data, err := s.storage.Get(filename)
	if err != nil {
		return nil, domainerrors.NotFound("file not found")
	}
	return data, nil
}

// Explore returns one page of all photos, newest first.
func (s *PhotoService) Explore(ctx context.Context, params store.PaginationParams) (*store.Page[*domain.Photo], error) {
	params.Validate(s.cfg.Pages.PhotoPerPage)
	items, total, err := s.store.ListPhotos(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list photos")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

// Feed returns one page of photos by users the viewer follows, including
// the viewer's own photos through the self-follow edge.
func (s *PhotoService) Feed(ctx context.Context, userID string, params store.PaginationParams) (*store.Page[*domain.Photo], error) {
	if _, err := loadUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	params.Validate(s.cfg.Pages.PhotoPerPage)
	items, total, err := s.store.ListFeedPhotos(ctx, userID, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list feed")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

type UpdatePhotoRequest struct {
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	CanComment  *bool   `json:"can_comment,omitempty"`
}

// Update changes a photo's description or comment toggle. Only the owner or
// a moderator may do this.
func (s *PhotoService) Update(ctx context.Context, actorID, photoID string, req UpdatePhotoRequest) (*domain.Photo, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	actor, photo, err := s.requireOwnerOrModerator(ctx, actorID, photoID)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		photo.Description = *req.Description
	}
	if req.CanComment != nil {
		photo.CanComment = *req.CanComment
	}

	if err := s.store.UpdatePhoto(ctx, photo); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update photo")
	}

	s.log.Info("photo updated", "photo_id", photo.ID, "actor_id", actor.ID)
	return photo, nil
}

// Delete removes a photo, its comments, collect edges, tag links, and files.
// Only the owner or a moderator may do this.
func (s *PhotoService) Delete(ctx context.Context, actorID, photoID string) error {
	actor, photo, err := s.requireOwnerOrModerator(ctx, actorID, photoID)
	if err != nil {
		return err
	}

	tags, err := s.store.ListTagsForPhoto(ctx, photo.ID)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "list tags")
	}

	if err := s.store.DeletePhoto(ctx, photo.ID); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "delete photo")
	}

	// Tags that only this photo carried are garbage now.
	for _, tag := range tags {
		if _, err := s.store.DeleteTagIfUnused(ctx, tag.ID); err != nil {
			s.log.WithError(err).Warn("failed to clean up tag", "tag_id", tag.ID)
		}
	}

	deleteFiles(s.storage, s.log, []string{photo.Filename, photo.FilenameM, photo.FilenameS})

	s.log.Info("photo deleted", "photo_id", photo.ID, "actor_id", actor.ID)
	return nil
}

// Report increments a photo's flag counter. Any confirmed user can report;
// moderators work through the flag queue.
func (s *PhotoService) Report(ctx context.Context, actorID, photoID string) error {
	if _, err := requireConfirmed(ctx, s.store, actorID); err != nil {
		return err
	}

	if err := s.store.ReportPhoto(ctx, photoID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("photo not found")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "report photo")
	}
	return nil
}

type AddTagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,max=10,dive,min=1,max=30"`
}

// AddTags attaches tags to a photo by name, creating tags on first use.
// Only the photo's owner may tag it.
func (s *PhotoService) AddTags(ctx context.Context, actorID, photoID string, req AddTagsRequest) ([]*domain.Tag, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	actor, err := requireUser(ctx, s.store, actorID, domain.PermissionUpload)
	if err != nil {
		return nil, err
	}

	photo, err := s.getPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo.AuthorID != actor.ID {
		return nil, domainerrors.Forbidden("only the owner can tag a photo")
	}

	for _, name := range req.Tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := s.findOrCreateTag(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := s.store.AttachTag(ctx, photo.ID, tag.ID); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "attach tag")
		}
	}

	tags, err := s.store.ListTagsForPhoto(ctx, photo.ID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list tags")
	}
	return tags, nil
}

// RemoveTag detaches a tag from a photo and deletes the tag once no photo
// carries it. Owner or moderator only.
func (s *PhotoService) RemoveTag(ctx context.Context, actorID, photoID, tagID string) error {
	_, photo, err := s.requireOwnerOrModerator(ctx, actorID, photoID)
	if err != nil {
		return err
	}

	if err := s.store.DetachTag(ctx, photo.ID, tagID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("tag is not attached to this photo")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "detach tag")
	}

	if _, err := s.store.DeleteTagIfUnused(ctx, tagID); err != nil {
		s.log.WithError(err).Warn("failed to clean up tag", "tag_id", tagID)
	}
	return nil
}

// TagPhotos returns one page of photos carrying the named tag, ordered by
// how often they were collected.
func (s *PhotoService) TagPhotos(ctx context.Context, tagName string, params store.PaginationParams) (*domain.Tag, *store.Page[*domain.Photo], error) {
	tag, err := s.store.GetTagByName(ctx, tagName)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.NotFound("tag not found")
		}
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up tag")
	}

	params.Validate(s.cfg.Pages.PhotoPerPage)
	items, total, err := s.store.ListPhotosByTag(ctx, tag.ID, params)
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list photos")
	}
	page := store.NewPage(items, params, total)
	return tag, &page, nil
}

func (s *PhotoService) getPhoto(ctx context.Context, photoID string) (*domain.Photo, error) {
	photo, err := s.store.GetPhoto(ctx, photoID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("photo not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up photo")
	}
	return photo, nil
}

// requireOwnerOrModerator loads the actor and photo and checks the actor may
// manage the photo.
func (s *PhotoService) requireOwnerOrModerator(ctx context.Context, actorID, photoID string) (*domain.User, *domain.Photo, error) {
	actor, err := requireConfirmed(ctx, s.store, actorID)
	if err != nil {
		return nil, nil, err
	}

	photo, err := s.getPhoto(ctx, photoID)
	if err != nil {
		return nil, nil, err
	}

	if photo.AuthorID != actor.ID && !actor.Can(domain.PermissionModerate) {
		return nil, nil, domainerrors.Forbidden("No permission.")
	}
	return actor, photo, nil
}

func (s *PhotoService) findOrCreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	tag, err := s.store.GetTagByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !domainerrors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up tag")
	}

	tag = &domain.Tag{
		ID:        id.MustGenerate("tag"),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		// Lost a race against a concurrent create; use the winner.
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return s.store.GetTagByName(ctx, name)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create tag")
	}
	return tag, nil
}

func extOf(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		return filename[i:]
	}
	return ""
}
