package service

import (
	"context"
	"time"

	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/domain"
	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/store"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
)

// AdminService implements the moderation and administration operations.
// Moderators manage content and can lock or block users; only administrators
// change roles.
type AdminService struct {
	store *sqlite.Store
	cfg   *config.Config
	log   *logger.Logger
}

func NewAdminService(st *sqlite.Store, cfg *config.Config, log *logger.Logger) *AdminService {
	return &AdminService{store: st, cfg: cfg, log: log}
}

// ListUsers returns one page of all users, oldest account first.
func (s *AdminService) ListUsers(ctx context.Context, actorID string, params store.PaginationParams) (*store.Page[*domain.User], error) {
	if _, err := requireUser(ctx, s.store, actorID, domain.PermissionModerate); err != nil {
		return nil, err
	}

	params.Validate(s.cfg.Pages.ManagePerPage)
	items, total, err := s.store.ListUsers(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list users")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

// SetRole assigns a role to a user by name. Administrators only, and they
// cannot change their own role, so the last administrator cannot demote
// themselves by accident.
func (s *AdminService) SetRole(ctx context.Context, actorID, targetID string, role domain.Role) (*domain.User, error) {
	actor, err := requireUser(ctx, s.store, actorID, domain.PermissionAdminister)
	if err != nil {
		return nil, err
	}

	if !role.Valid() {
		return nil, domainerrors.Validationf("unknown role: %s", role)
	}
	if actor.ID == targetID {
		return nil, domainerrors.Forbidden("you cannot change your own role")
	}

	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	target.Role = role
	target.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(ctx, target); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}

	s.log.Info("role changed", "user_id", target.ID, "role", role, "actor_id", actor.ID)
	return target, nil
}

// LockUser puts a user in the locked role: they keep following and
// collecting, lose commenting and uploading. Administrators cannot be locked.
func (s *AdminService) LockUser(ctx context.Context, actorID, targetID string) (*domain.User, error) {
	return s.setLocked(ctx, actorID, targetID, true)
}

// UnlockUser restores a locked user to the regular user role.
func (s *AdminService) UnlockUser(ctx context.Context, actorID, targetID string) (*domain.User, error) {
	return s.setLocked(ctx, actorID, targetID, false)
}

func (s *AdminService) setLocked(ctx context.Context, actorID, targetID string, locked bool) (*domain.User, error) {
	actor, err := requireUser(ctx, s.store, actorID, domain.PermissionModerate)
	if err != nil {
		return nil, err
	}

	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() {
		return nil, domainerrors.Forbidden("administrators cannot be locked")
	}

	if locked {
		if target.IsLocked() {
			return nil, domainerrors.StateConflict("user is already locked")
		}
		target.Role = domain.RoleLocked
	} else {
		if !target.IsLocked() {
			return nil, domainerrors.StateConflict("user is not locked")
		}
		target.Role = domain.RoleUser
	}
	target.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, target); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}

	s.log.Info("user lock changed", "user_id", target.ID, "locked", locked, "actor_id", actor.ID)
	return target, nil
}

// BlockUser deactivates an account; login is refused until unblocked.
// Administrators cannot be blocked.
func (s *AdminService) BlockUser(ctx context.Context, actorID, targetID string) (*domain.User, error) {
	return s.setBlocked(ctx, actorID, targetID, true)
}

// UnblockUser reactivates a blocked account.
func (s *AdminService) UnblockUser(ctx context.Context, actorID, targetID string) (*domain.User, error) {
	return s.setBlocked(ctx, actorID, targetID, false)
}

func (s *AdminService) setBlocked(ctx context.Context, actorID, targetID string, blocked bool) (*domain.User, error) {
	actor, err := requireUser(ctx, s.store, actorID, domain.PermissionModerate)
	if err != nil {
		return nil, err
	}

	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() {
		return nil, domainerrors.Forbidden("administrators cannot be blocked")
	}

	if target.Active == !blocked {
		if blocked {
			return nil, domainerrors.StateConflict("user is already blocked")
		}
		return nil, domainerrors.StateConflict("user is not blocked")
	}
	target.Active = !blocked
	target.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, target); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}

	s.log.Info("user block changed", "user_id", target.ID, "blocked", blocked, "actor_id", actor.ID)
	return target, nil
}

// ConfirmUser marks an account confirmed without the email round trip.
// Administrators only.
func (s *AdminService) ConfirmUser(ctx context.Context, actorID, targetID string) (*domain.User, error) {
	actor, err := requireUser(ctx, s.store, actorID, domain.PermissionAdminister)
	if err != nil {
		return nil, err
	}

	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Confirmed {
		return nil, domainerrors.StateConflict("account is already confirmed")
	}

	target.Confirmed = true
	target.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(ctx, target); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}

	s.log.Info("user confirmed by admin", "user_id", target.ID, "actor_id", actor.ID)
	return target, nil
}

// FlaggedPhotos returns one page of reported photos, most reported first.
func (s *AdminService) FlaggedPhotos(ctx context.Context, actorID string, params store.PaginationParams) (*store.Page[*domain.Photo], error) {
	if _, err := requireUser(ctx, s.store, actorID, domain.PermissionModerate); err != nil {
		return nil, err
	}

	params.Validate(s.cfg.Pages.ManagePerPage)
	items, total, err := s.store.ListFlaggedPhotos(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list flagged photos")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

// FlaggedComments returns one page of reported comments, most reported first.
func (s *AdminService) FlaggedComments(ctx context.Context, actorID string, params store.PaginationParams) (*store.Page[*domain.Comment], error) {
	if _, err := requireUser(ctx, s.store, actorID, domain.PermissionModerate); err != nil {
		return nil, err
	}

	params.Validate(s.cfg.Pages.ManagePerPage)
	items, total, err := s.store.ListFlaggedComments(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list flagged comments")
	}
	page := store.NewPage(items, params, total)
	return &page, nil
}

func (s *AdminService) getTarget(ctx context.Context, targetID string) (*domain.User, error) {
	target, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}
	return target, nil
}
