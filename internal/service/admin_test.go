package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MingruiWang2017/albumy/internal/domain"
	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/store"
)

func TestAdminService_ListUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.registerUser(t, "admin", "admin@example.com")
	env.registerUser(t, "alice", "alice@example.com")

	page, err := env.admin.ListUsers(ctx, admin.ID, store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	// Regular users are shut out.
	alice, err := env.store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	_, err = env.admin.ListUsers(ctx, alice.ID, store.PaginationParams{})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))
}

func TestAdminService_SetRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.registerUser(t, "admin", "admin@example.com")
	alice := env.registerUser(t, "alice", "alice@example.com")

	updated, err := env.admin.SetRole(ctx, admin.ID, alice.ID, domain.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, updated.Role)

	// Moderators hold MODERATE but not ADMINISTER.
	_, err = env.admin.SetRole(ctx, updated.ID, admin.ID, domain.RoleUser)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))

	// Unknown roles are rejected.
	_, err = env.admin.SetRole(ctx, admin.ID, alice.ID, domain.Role("superuser"))
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	// Nobody changes their own role.
	_, err = env.admin.SetRole(ctx, admin.ID, admin.ID, domain.RoleUser)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))
}

func TestAdminService_LockUnlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.registerUser(t, "admin", "admin@example.com")
	alice := env.registerUser(t, "alice", "alice@example.com")

	locked, err := env.admin.LockUser(ctx, admin.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleLocked, locked.Role)

	// Locked users can still follow but cannot upload.
	_, err = env.photos.Upload(ctx, alice.ID, "shot.png", "", testPNG(t, 60, 60))
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))
	require.NoError(t, env.social.Follow(ctx, alice.ID, "admin"))

	_, err = env.admin.LockUser(ctx, admin.ID, alice.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStateConflict))

	unlocked, err := env.admin.UnlockUser(ctx, admin.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, unlocked.Role)

	// Administrators cannot be locked.
	_, err = env.admin.LockUser(ctx, admin.ID, admin.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))
}

func TestAdminService_BlockUnblock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.registerUser(t, "admin", "admin@example.com")
	alice := env.registerUser(t, "alice", "alice@example.com")

	blocked, err := env.admin.BlockUser(ctx, admin.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, blocked.Active)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "alice@example.com", Password: testPassword})
	require.Error(t, err, "blocked accounts cannot log in")

	_, err = env.admin.BlockUser(ctx, admin.ID, alice.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStateConflict))

	unblocked, err := env.admin.UnblockUser(ctx, admin.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, unblocked.Active)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "alice@example.com", Password: testPassword})
	assert.NoError(t, err)
}

func TestAdminService_ConfirmUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.registerUser(t, "admin", "admin@example.com")
	alice := env.registerUnconfirmed(t, "alice", "alice@example.com")

	confirmed, err := env.admin.ConfirmUser(ctx, admin.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, confirmed.Confirmed)

	_, err = env.admin.ConfirmUser(ctx, admin.ID, alice.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrStateConflict))
}

func TestAdminService_FlaggedQueues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.registerUser(t, "admin", "admin@example.com")
	alice := env.registerUser(t, "alice", "alice@example.com")
	bob := env.registerUser(t, "bob", "bob@example.com")

	clean := env.uploadPhoto(t, alice, "fine")
	bad := env.uploadPhoto(t, alice, "spam")
	require.NoError(t, env.photos.Report(ctx, bob.ID, bad.ID))

	comment, err := env.comments.Create(ctx, bob.ID, clean.ID, CreateCommentRequest{Body: "rude"})
	require.NoError(t, err)
	require.NoError(t, env.comments.Report(ctx, alice.ID, comment.ID))

	photos, err := env.admin.FlaggedPhotos(ctx, admin.ID, store.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, photos.Items, 1)
	assert.Equal(t, bad.ID, photos.Items[0].ID)

	comments, err := env.admin.FlaggedComments(ctx, admin.ID, store.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, comments.Items, 1)
	assert.Equal(t, comment.ID, comments.Items[0].ID)
}
