package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/store"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestAccountService_UpdateProfile_Partial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "alice", "alice@example.com")

	updated, err := env.account.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Bio:      strPtr("photography and coffee"),
		Location: strPtr("Berlin"),
	})
	require.NoError(t, err)

	assert.Equal(t, "photography and coffee", updated.Bio)
	assert.Equal(t, "Berlin", updated.Location)
	assert.Equal(t, "alice", updated.Username, "untouched fields keep their value")
	assert.Equal(t, "Test alice", updated.Name)
}

func TestAccountService_UpdateProfile_UsernameTaken(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice", "alice@example.com")
	bob := env.registerUser(t, "bob", "bob@example.com")

	_, err := env.account.UpdateProfile(context.Background(), bob.ID, UpdateProfileRequest{
		Username: strPtr("alice"),
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestAccountService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "alice", "alice@example.com")

	err := env.account.ChangePassword(ctx, user.ID, ChangePasswordRequest{
		OldPassword: "wrong password",
		NewPassword: "another long password",
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))

	require.NoError(t, env.account.ChangePassword(ctx, user.ID, ChangePasswordRequest{
		OldPassword: testPassword,
		NewPassword: "another long password",
	}))

	_, err = env.auth.Login(ctx, LoginRequest{Email: user.Email, Password: "another long password"})
	assert.NoError(t, err)
}

func TestAccountService_EmailChangeFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "alice", "alice@example.com")

	require.NoError(t, env.account.RequestEmailChange(ctx, user.ID, ChangeEmailRequest{
		NewEmail: "alice.new@example.com",
	}))

	msgs := env.mailer.waitForMessages(t, 2)
	last := msgs[len(msgs)-1]
	assert.Equal(t, "alice.new@example.com", last.To, "token goes to the new address")

	changed, err := env.account.ConfirmEmailChange(ctx, tokenFromMail(t, last.Body))
	require.NoError(t, err)
	assert.Equal(t, "alice.new@example.com", changed.Email)

	// The new address works for login, the old one is gone.
	_, err = env.auth.Login(ctx, LoginRequest{Email: "alice.new@example.com", Password: testPassword})
	assert.NoError(t, err)
	_, err = env.auth.Login(ctx, LoginRequest{Email: "alice@example.com", Password: testPassword})
	assert.Error(t, err)
}

func TestAccountService_RequestEmailChange_Taken(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "bob", "bob@example.com")
	user := env.registerUser(t, "alice", "alice@example.com")

	err := env.account.RequestEmailChange(context.Background(), user.ID, ChangeEmailRequest{
		NewEmail: "bob@example.com",
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestAccountService_NotificationSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "alice", "alice@example.com")

	updated, err := env.account.UpdateNotificationSettings(ctx, user.ID, NotificationSettingsRequest{
		ReceiveFollowNotification: boolPtr(false),
	})
	require.NoError(t, err)

	assert.False(t, updated.ReceiveFollowNotification)
	assert.True(t, updated.ReceiveCommentNotification, "untouched opt-ins stay on")
	assert.True(t, updated.ReceiveCollectNotification)
}

func TestAccountService_PrivacySettings(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "alice", "alice@example.com")

	updated, err := env.account.UpdatePrivacySettings(context.Background(), user.ID, PrivacySettingsRequest{
		PublicCollections: false,
	})
	require.NoError(t, err)
	assert.False(t, updated.PublicCollections)
}

func TestAccountService_UploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "alice", "alice@example.com")

	updated, err := env.account.UploadAvatar(ctx, user.ID, "me.png", testPNG(t, 100, 100))
	require.NoError(t, err)

	require.NotEmpty(t, updated.AvatarFile)
	assert.True(t, env.avatarStorage.Exists(updated.AvatarFile))
	assert.True(t, env.avatarStorage.Exists(updated.AvatarFileM))
	assert.True(t, env.avatarStorage.Exists(updated.AvatarFileS))

	// A second upload replaces the files.
	old := updated.AvatarFile
	replaced, err := env.account.UploadAvatar(ctx, user.ID, "me2.png", testPNG(t, 100, 100))
	require.NoError(t, err)
	assert.NotEqual(t, old, replaced.AvatarFile)
	assert.False(t, env.avatarStorage.Exists(old), "old avatar files are removed")
}

func TestAccountService_UploadAvatar_TooLarge(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "alice", "alice@example.com")

	big := make([]byte, avatarMaxSize+1)
	_, err := env.account.UploadAvatar(context.Background(), user.ID, "me.png", big)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestAccountService_DeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerUser(t, "alice", "alice@example.com")
	photo := env.uploadPhoto(t, user, "to be removed")

	err := env.account.DeleteAccount(ctx, user.ID, DeleteAccountRequest{Password: "wrong"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))

	require.NoError(t, env.account.DeleteAccount(ctx, user.ID, DeleteAccountRequest{Password: testPassword}))

	_, err = env.store.GetUser(ctx, user.ID)
	assert.True(t, domainerrors.Is(err, store.ErrNotFound))
	assert.False(t, env.photoStorage.Exists(photo.Filename), "photo files are removed")
	assert.False(t, env.photoStorage.Exists(photo.FilenameM))
}
