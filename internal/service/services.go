// Package service implements the application logic between the API handlers
// and the store.
package service

import (
	"context"

	"github.com/MingruiWang2017/albumy/internal/domain"
	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/store"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
)

// Store is the persistence interface the services depend on.
// *sqlite.Store satisfies it; tests may substitute their own.
type Store = *sqlite.Store

// requireUser loads the acting user and checks the account can act at all.
// Check order matters: identity first, then account state, then confirmation,
// then the specific permission. The caller maps each failure to its own
// status, so a locked user reporting a photo sees the permission error and
// not a generic one.
func requireUser(ctx context.Context, s Store, userID string, perm domain.Permission) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("account no longer exists")
		}
		return nil, err
	}

	if !user.Active {
		return nil, domainerrors.Forbidden("Your account is blocked.")
	}
	if !user.Confirmed {
		return nil, domainerrors.Unconfirmed("Please confirm your account first.")
	}
	if !user.Can(perm) {
		return nil, domainerrors.Forbidden("No permission.")
	}

	return user, nil
}

// requireConfirmed loads the acting user and checks the account is active
// and confirmed. Used for actions any member may take, like reporting.
func requireConfirmed(ctx context.Context, s Store, userID string) (*domain.User, error) {
	user, err := loadUser(ctx, s, userID)
	if err != nil {
		return nil, err
	}
	if !user.Confirmed {
		return nil, domainerrors.Unconfirmed("Please confirm your account first.")
	}
	return user, nil
}

// loadUser loads a user without permission checks, mapping missing users to
// an unauthorized error. Used where the acting user only touches their own
// account (settings, notifications) and needs no capability.
func loadUser(ctx context.Context, s Store, userID string) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("account no longer exists")
		}
		return nil, err
	}
	if !user.Active {
		return nil, domainerrors.Forbidden("Your account is blocked.")
	}
	return user, nil
}
