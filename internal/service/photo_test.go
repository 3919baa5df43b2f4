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

func TestPhotoService_Upload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice", "alice@example.com")

	photo, err := env.photos.Upload(ctx, alice.ID, "shot.png", "golden hour", testPNG(t, 160, 90))
	require.NoError(t, err)

	assert.Equal(t, alice.ID, photo.AuthorID)
	assert.Equal(t, "golden hour", photo.Description)
	assert.True(t, photo.CanComment)
	assert.NotEmpty(t, photo.Blurhash)
	assert.NotEqual(t, photo.Filename, photo.FilenameM, "a 160px source gets an 80px rendition")
	assert.True(t, env.photoStorage.Exists(photo.Filename))
	assert.True(t, env.photoStorage.Exists(photo.FilenameM))
	assert.True(t, env.photoStorage.Exists(photo.FilenameS))
}

func TestPhotoService_Upload_NarrowSourceReusesOriginal(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice", "alice@example.com")

	// 30px wide is narrower than both rendition targets (40 and 80).
	photo, err := env.photos.Upload(context.Background(), alice.ID, "tiny.png", "", testPNG(t, 30, 30))
	require.NoError(t, err)

	assert.Equal(t, photo.Filename, photo.FilenameM)
	assert.Equal(t, photo.Filename, photo.FilenameS)
}

func TestPhotoService_Upload_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice", "alice@example.com")

	_, err := env.photos.Upload(ctx, alice.ID, "notes.txt", "", testPNG(t, 60, 60))
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = env.photos.Upload(ctx, alice.ID, "shot.jpg", "", testPNG(t, 60, 60))
	require.Error(t, err, "png bytes behind a jpg extension are refused")

	big := make([]byte, env.cfg.Upload.MaxSize+1)
	_, err = env.photos.Upload(ctx, alice.ID, "shot.png", "", big)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestPhotoService_Upload_RequiresPermission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unconfirmed := env.registerUnconfirmed(t, "newbie", "newbie@example.com")
	_, err := env.photos.Upload(ctx, unconfirmed.ID, "shot.png", "", testPNG(t, 60, 60))
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnconfirmed))

	locked := env.registerUser(t, "locked", "locked@example.com")
	env.setRole(t, locked, domain.RoleLocked)
	_, err = env.photos.Upload(ctx, locked.ID, "shot.png", "", testPNG(t, 60, 60))
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))
}

func TestPhotoService_Get(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice", "alice@example.com")
	bob := env.registerUser(t, "bob", "bob@example.com")

	first := env.uploadPhoto(t, alice, "first")
	second := env.uploadPhoto(t, alice, "second")
	third := env.uploadPhoto(t, alice, "third")

	require.NoError(t, env.social.Collect(ctx, bob.ID, second.ID))
	_, err := env.photos.AddTags(ctx, alice.ID, second.ID, AddTagsRequest{Tags: []string{"sky"}})
	require.NoError(t, err)

	detail, err := env.photos.Get(ctx, second.ID)
	require.NoError(t, err)

	assert.Equal(t, alice.ID, detail.Author.ID)
	assert.Equal(t, 1, detail.CollectorCount)
	require.Len(t, detail.Tags, 1)
	assert.Equal(t, "sky", detail.Tags[0].Name)
	assert.Equal(t, third.ID, detail.PrevID, "prev is the newer neighbor")
	assert.Equal(t, first.ID, detail.NextID, "next is the older neighbor")
}

func TestPhotoService_Feed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice", "alice@example.com")
	bob := env.registerUser(t, "bob", "bob@example.com")
	carol := env.registerUser(t, "carol", "carol@example.com")

	own := env.uploadPhoto(t, alice, "mine")
	bobs := env.uploadPhoto(t, bob, "bobs")
	env.uploadPhoto(t, carol, "carols")

	require.NoError(t, env.social.Follow(ctx, alice.ID, "bob"))

	page, err := env.photos.Feed(ctx, alice.ID, store.PaginationParams{})
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, p := range page.Items {
		ids[p.ID] = true
	}
	assert.True(t, ids[own.ID], "own photos are in the feed")
	assert.True(t, ids[bobs.ID], "followed users' photos are in the feed")
	assert.Len(t, ids, 2, "strangers' photos are not")
}

func TestPhotoService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice", "alice@example.com")
	bob := env.registerUser(t, "bob", "bob@example.com")
	photo := env.uploadPhoto(t, alice, "before")

	_, err := env.photos.Update(ctx, bob.ID, photo.ID, UpdatePhotoRequest{Description: strPtr("hijacked")})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))

	updated, err := env.photos.Update(ctx, alice.ID, photo.ID, UpdatePhotoRequest{
		Description: strPtr("after"),
		CanComment:  boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Description)
	assert.False(t, updated.CanComment)

	// Moderators may edit any photo.
	env.setRole(t, bob, domain.RoleModerator)
	_, err = env.photos.Update(ctx, bob.ID, photo.ID, UpdatePhotoRequest{CanComment: boolPtr(true)})
	assert.NoError(t, err)
}

func TestPhotoService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice", "alice@example.com")
	photo := env.uploadPhoto(t, alice, "doomed")

	_, err := env.photos.AddTags(ctx, alice.ID, photo.ID, AddTagsRequest{Tags: []string{"onlyhere"}})
	require.NoError(t, err)

	require.NoError(t, env.photos.Delete(ctx, alice.ID, photo.ID))

	_, err = env.store.GetPhoto(ctx, photo.ID)
	assert.True(t, domainerrors.Is(err, store.ErrNotFound))
	assert.False(t, env.photoStorage.Exists(photo.Filename))
	assert.False(t, env.photoStorage.Exists(photo.FilenameM))
	assert.False(t, env.photoStorage.Exists(photo.FilenameS))

	// The tag had no other photo, so it is gone too.
	_, err = env.store.GetTagByName(ctx, "onlyhere")
	assert.True(t, domainerrors.Is(err, store.ErrNotFound))
}

func TestPhotoService_Report(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice", "alice@example.com")
	bob := env.registerUser(t, "bob", "bob@example.com")
	photo := env.uploadPhoto(t, alice, "spam?")

	require.NoError(t, env.photos.Report(ctx, bob.ID, photo.ID))
	require.NoError(t, env.photos.Report(ctx, bob.ID, photo.ID))

	flagged, err := env.store.GetPhoto(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, flagged.Flag)
}

func TestPhotoService_Tags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice", "alice@example.com")
	bob := env.registerUser(t, "bob", "bob@example.com")
	photo := env.uploadPhoto(t, alice, "tagged")

	// Only the owner tags a photo.
	_, err := env.photos.AddTags(ctx, bob.ID, photo.ID, AddTagsRequest{Tags: []string{"sky"}})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))

	tags, err := env.photos.AddTags(ctx, alice.ID, photo.ID, AddTagsRequest{Tags: []string{"sky", "sunset"}})
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	// Re-adding an existing tag is a no-op, not an error.
	tags, err = env.photos.AddTags(ctx, alice.ID, photo.ID, AddTagsRequest{Tags: []string{"sky"}})
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	tag, page, err := env.photos.TagPhotos(ctx, "sky", store.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, "sky", tag.Name)
	require.Len(t, page.Items, 1)
	assert.Equal(t, photo.ID, page.Items[0].ID)

	require.NoError(t, env.photos.RemoveTag(ctx, alice.ID, photo.ID, tag.ID))
	_, _, err = env.photos.TagPhotos(ctx, "sky", store.PaginationParams{})
	require.Error(t, err, "the unused tag is cleaned up")
}
