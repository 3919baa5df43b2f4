package service

import (
	"context"
	"fmt"

	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/domain"
	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/store"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
)

// SocialService manages the follow graph and photo collections.
type SocialService struct {
	store         *sqlite.Store
	notifications *NotificationService
	cfg           *config.Config
	log           *logger.Logger
}

func NewSocialService(st *sqlite.Store, notifications *NotificationService, cfg *config.Config, log *logger.Logger) *SocialService {
	return &SocialService{store: st, notifications: notifications, cfg: cfg, log: log}
}

// Follow makes the actor follow the user named by username.
// Following someone twice is a state conflict, matching the ajax-style
// responses of the original frontend.
func (s *SocialService) Follow(ctx context.Context, actorID, username string) error {
	actor, err := requireUser(ctx, s.store, actorID, domain.PermissionFollow)
	if err != nil {
		return err
	}

	target, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	if err := s.store.CreateFollow(ctx, actor.ID, target.ID); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return domainerrors.StateConflict("Already followed.")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "create follow")
	}

	if target.ReceiveFollowNotification && actor.ID != target.ID {
		s.notifications.Push(ctx, target.ID,
			fmt.Sprintf("User %s followed you.", actor.DisplayName()))
	}

	s.log.Info("user followed", "follower_id", actor.ID, "followed_id", target.ID)
	return nil
}

// Unfollow removes the actor's follow edge to the named user.
// Unfollowing someone you don't follow is a state conflict.
func (s *SocialService) Unfollow(ctx context.Context, actorID, username string) error {
	actor, err := requireUser(ctx, s.store, actorID, domain.PermissionFollow)
	if err != nil {
		return err
	}

	target, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	if err := s.store.DeleteFollow(ctx, actor.ID, target.ID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.StateConflict("Not follow yet.")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "delete follow")
	}

	return nil
}

// IsFollowing reports whether follower follows followed. An empty follower ID
// is treated as following nobody, which covers guests and values not yet
// persisted.
func (s *SocialService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	if followerID == "" || followedID == "" {
		return false, nil
	}
	return s.store.IsFollowing(ctx, followerID, followedID)
}

// Followers returns one page of the named user's followers.
// The self-follow edge everyone carries is never listed.
func (s *SocialService) Followers(ctx context.Context, username string, params store.PaginationParams) (*store.Page[*domain.User], error) {
	target, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	params.Validate(s.cfg.Pages.UserPerPage)
	items, total, err := s.store.ListFollowers(ctx, target.ID, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list followers")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

// Following returns one page of users the named user follows.
func (s *SocialService) Following(ctx context.Context, username string, params store.PaginationParams) (*store.Page[*domain.User], error) {
	target, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	params.Validate(s.cfg.Pages.UserPerPage)
	items, total, err := s.store.ListFollowing(ctx, target.ID, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list following")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

// FollowerCount returns how many other users follow the named user.
func (s *SocialService) FollowerCount(ctx context.Context, username string) (int, error) {
	target, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return 0, domainerrors.NotFound("user not found")
		}
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}
	return s.store.CountFollowers(ctx, target.ID)
}

// Collect bookmarks a photo for the actor. Collecting a photo twice is a
// state conflict. The photo's author gets a notification when they opted in.
func (s *SocialService) Collect(ctx context.Context, actorID, photoID string) error {
	actor, err := requireUser(ctx, s.store, actorID, domain.PermissionCollect)
	if err != nil {
		return err
	}

	photo, err := s.store.GetPhoto(ctx, photoID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("photo not found")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "look up photo")
	}

	if err := s.store.CreateCollect(ctx, actor.ID, photo.ID); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return domainerrors.StateConflict("Already collected.")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "create collect")
	}

	if actor.ID != photo.AuthorID {
		author, err := s.store.GetUser(ctx, photo.AuthorID)
		if err == nil && author.ReceiveCollectNotification {
			s.notifications.Push(ctx, author.ID,
				fmt.Sprintf("User %s collected your photo.", actor.DisplayName()))
		}
	}

	return nil
}

// Uncollect removes the actor's bookmark on a photo.
func (s *SocialService) Uncollect(ctx context.Context, actorID, photoID string) error {
	actor, err := requireUser(ctx, s.store, actorID, domain.PermissionCollect)
	if err != nil {
		return err
	}

	if err := s.store.DeleteCollect(ctx, actor.ID, photoID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.StateConflict("Not collect yet.")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "delete collect")
	}
	return nil
}

// Collectors returns one page of users who collected the photo.
func (s *SocialService) Collectors(ctx context.Context, photoID string, params store.PaginationParams) (*store.Page[*domain.User], error) {
	if _, err := s.store.GetPhoto(ctx, photoID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("photo not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up photo")
	}

	params.Validate(s.cfg.Pages.UserPerPage)
	items, total, err := s.store.ListCollectors(ctx, photoID, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list collectors")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

// CollectedPhotos returns one page of photos the named user collected.
// Users can mark their collections private; then only the owner and
// moderators may list them.
func (s *SocialService) CollectedPhotos(ctx context.Context, viewer domain.Identity, username string, params store.PaginationParams) (*store.Page[*domain.Photo], error) {
	target, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	if !target.PublicCollections {
		isOwner := viewer.IsAuthenticated() && viewer.User.ID == target.ID
		if !isOwner && !viewer.Can(domain.PermissionModerate) {
			return nil, domainerrors.Forbidden("This user's collections are private.")
		}
	}

	params.Validate(s.cfg.Pages.PhotoPerPage)
	items, total, err := s.store.ListCollectedPhotos(ctx, target.ID, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list collected photos")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}
