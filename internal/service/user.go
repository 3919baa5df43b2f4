package service

import (
	"context"

	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/domain"
	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/store"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
)

// UserService serves public user profiles and user search.
type UserService struct {
	store *sqlite.Store
	cfg   *config.Config
	log   *logger.Logger
}

func NewUserService(st *sqlite.Store, cfg *config.Config, log *logger.Logger) *UserService {
	return &UserService{store: st, cfg: cfg, log: log}
}

// Profile is a user page: the user plus the counters shown next to them
// and the viewer's relationship to them.
type Profile struct {
	User           *domain.User `json:"user"`
	PhotoCount     int          `json:"photo_count"`
	CollectCount   int          `json:"collect_count"`
	FollowerCount  int          `json:"follower_count"`
	FollowingCount int          `json:"following_count"`
	IsFollowing    bool         `json:"is_following"`
	IsFollowedBy   bool         `json:"is_followed_by"`
}

// Profile assembles the profile page for the named user. viewerID may be
// empty for guests; the relationship flags are then false.
func (s *UserService) Profile(ctx context.Context, username, viewerID string) (*Profile, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	p := &Profile{User: user}

	if p.PhotoCount, err = s.store.CountPhotosByAuthor(ctx, user.ID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "count photos")
	}
	if p.CollectCount, err = s.store.CountCollectedPhotos(ctx, user.ID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "count collects")
	}
	if p.FollowerCount, err = s.store.CountFollowers(ctx, user.ID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "count followers")
	}
	if p.FollowingCount, err = s.store.CountFollowing(ctx, user.ID); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "count following")
	}

	if viewerID != "" && viewerID != user.ID {
		if p.IsFollowing, err = s.store.IsFollowing(ctx, viewerID, user.ID); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "check following")
		}
		if p.IsFollowedBy, err = s.store.IsFollowing(ctx, user.ID, viewerID); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "check followed by")
		}
	}

	return p, nil
}

// Photos returns one page of the named user's photos, newest first.
func (s *UserService) Photos(ctx context.Context, username string, params store.PaginationParams) (*store.Page[*domain.Photo], error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	params.Validate(s.cfg.Pages.PhotoPerPage)
	items, total, err := s.store.ListPhotosByAuthor(ctx, user.ID, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list photos")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

// Search returns users whose username or display name contains the query.
func (s *UserService) Search(ctx context.Context, query string, params store.PaginationParams) (*store.Page[*domain.User], error) {
	if query == "" {
		return nil, domainerrors.Validation("search query must not be empty")
	}

	params.Validate(s.cfg.Pages.SearchPerPage)
	items, total, err := s.store.SearchUsers(ctx, query, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search users")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}
