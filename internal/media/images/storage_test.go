package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageSaveGetDelete(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), "photos")
	require.NoError(t, err)

	data := []byte("fake image bytes")
	require.NoError(t, storage.Save("photo-abc.jpg", data))

	assert.True(t, storage.Exists("photo-abc.jpg"))

	got, err := storage.Get("photo-abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, storage.Delete("photo-abc.jpg"))
	assert.False(t, storage.Exists("photo-abc.jpg"))
}

func TestStorageDeleteMissingIsNoop(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), "photos")
	require.NoError(t, err)

	assert.NoError(t, storage.Delete("never-existed.jpg"))
}

func TestStorageRejectsTraversal(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), "photos")
	require.NoError(t, err)

	assert.Error(t, storage.Save("../escape.jpg", []byte("x")))
	assert.Error(t, storage.Save("a/b.jpg", []byte("x")))
	_, err = storage.Get("..")
	assert.Error(t, err)
	assert.False(t, storage.Exists("../escape.jpg"))
}

func TestStorageRejectsEmpty(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), "photos")
	require.NoError(t, err)

	assert.Error(t, storage.Save("", []byte("x")))
	assert.Error(t, storage.Save("photo.jpg", nil))
}

func TestStorageHash(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), "photos")
	require.NoError(t, err)

	require.NoError(t, storage.Save("a.jpg", []byte("same")))
	require.NoError(t, storage.Save("b.jpg", []byte("same")))
	require.NoError(t, storage.Save("c.jpg", []byte("different")))

	hashA, err := storage.Hash("a.jpg")
	require.NoError(t, err)
	hashB, err := storage.Hash("b.jpg")
	require.NoError(t, err)
	hashC, err := storage.Hash("c.jpg")
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
	assert.NotEqual(t, hashA, hashC)
}
