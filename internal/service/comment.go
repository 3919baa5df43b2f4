package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/domain"
	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/id"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/store"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
	"github.com/MingruiWang2017/albumy/internal/validation"
)

// CommentService manages photo comments and replies.
type CommentService struct {
	store         *sqlite.Store
	notifications *NotificationService
	validator     *validation.Validator
	cfg           *config.Config
	log           *logger.Logger
}

func NewCommentService(
	st *sqlite.Store,
	notifications *NotificationService,
	validator *validation.Validator,
	cfg *config.Config,
	log *logger.Logger,
) *CommentService {
	return &CommentService{
		store:         st,
		notifications: notifications,
		validator:     validator,
		cfg:           cfg,
		log:           log,
	}
}

type CreateCommentRequest struct {
	Body      string `json:"body" validate:"required,min=1,max=500"`
	RepliedID string `json:"replied_id,omitempty"`
}

// Create posts a comment on a photo, optionally replying to another comment
// on the same photo. Comments on photos with comments disabled are a state
// conflict. The photo's author and the replied comment's author each get a
// notification when they opted in.
func (s *CommentService) Create(ctx context.Context, actorID, photoID string, req CreateCommentRequest) (*domain.Comment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	actor, err := requireUser(ctx, s.store, actorID, domain.PermissionComment)
	if err != nil {
		return nil, err
	}

	photo, err := s.store.GetPhoto(ctx, photoID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("photo not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up photo")
	}

	if !photo.CanComment {
		return nil, domainerrors.StateConflict("Comment is disabled.")
	}

	var replied *domain.Comment
	if req.RepliedID != "" {
		replied, err = s.store.GetComment(ctx, req.RepliedID)
		if err != nil {
			if domainerrors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFound("replied comment not found")
			}
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up comment")
		}
		if replied.PhotoID != photo.ID {
			return nil, domainerrors.Validation("replied comment belongs to another photo")
		}
	}

	comment := &domain.Comment{
		ID:        id.MustGenerate("comment"),
		Body:      req.Body,
		PhotoID:   photo.ID,
		AuthorID:  actor.ID,
		RepliedID: req.RepliedID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create comment")
	}

	s.notifyCommented(ctx, actor, photo, replied)
	return comment, nil
}

// List returns one page of a photo's comments, oldest first.
func (s *CommentService) List(ctx context.Context, photoID string, params store.PaginationParams) (*store.Page[*domain.Comment], error) {
	if _, err := s.store.GetPhoto(ctx, photoID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("photo not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up photo")
	}

	params.Validate(s.cfg.Pages.CommentPerPage)
	items, total, err := s.store.ListCommentsForPhoto(ctx, photoID, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list comments")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

// Delete removes a comment. Allowed for the comment's author, the photo's
// owner, and moderators. Replies to the comment go with it.
func (s *CommentService) Delete(ctx context.Context, actorID, commentID string) error {
	actor, err := requireConfirmed(ctx, s.store, actorID)
	if err != nil {
		return err
	}

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("comment not found")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "look up comment")
	}

	if comment.AuthorID != actor.ID && !actor.Can(domain.PermissionModerate) {
		photo, err := s.store.GetPhoto(ctx, comment.PhotoID)
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "look up photo")
		}
		if photo.AuthorID != actor.ID {
			return domainerrors.Forbidden("No permission.")
		}
	}

	if err := s.store.DeleteComment(ctx, comment.ID); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "delete comment")
	}

	s.log.Info("comment deleted", "comment_id", comment.ID, "actor_id", actor.ID)
	return nil
}

// Report increments a comment's flag counter.
func (s *CommentService) Report(ctx context.Context, actorID, commentID string) error {
	if _, err := requireConfirmed(ctx, s.store, actorID); err != nil {
		return err
	}

	if err := s.store.ReportComment(ctx, commentID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("comment not found")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "report comment")
	}
	return nil
}

// notifyCommented tells the photo's author about the new comment and, for a
// reply, the replied comment's author. Nobody is told about their own action.
func (s *CommentService) notifyCommented(ctx context.Context, actor *domain.User, photo *domain.Photo, replied *domain.Comment) {
	if actor.ID != photo.AuthorID {
		author, err := s.store.GetUser(ctx, photo.AuthorID)
		if err == nil && author.ReceiveCommentNotification {
			s.notifications.Push(ctx, author.ID,
				fmt.Sprintf("User %s commented on your photo.", actor.DisplayName()))
		}
	}

	if replied != nil && replied.AuthorID != actor.ID && replied.AuthorID != photo.AuthorID {
		author, err := s.store.GetUser(ctx, replied.AuthorID)
		if err == nil && author.ReceiveCommentNotification {
			s.notifications.Push(ctx, author.ID,
				fmt.Sprintf("User %s replied to your comment.", actor.DisplayName()))
		}
	}
}
