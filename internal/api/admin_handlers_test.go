package api

import (
	"bytes"
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

func TestAdminListUsers(t *testing.T) {
	ts := setupTestServer(t)
	_, adminToken := ts.createAdmin(t)
	_, aliceToken := ts.createUser(t, "alice", "alice@example.com")

	resp := ts.api.Get("/api/v1/admin/users", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[store.Page[AccountResponse]]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.Total)

	// Ordinary users are shut out.
	resp = ts.api.Get("/api/v1/admin/users", "Authorization: Bearer "+aliceToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAdminSetRole(t *testing.T) {
	ts := setupTestServer(t)
	admin, adminToken := ts.createAdmin(t)
	alice, _ := ts.createUser(t, "alice", "alice@example.com")

	resp := ts.api.Patch("/api/v1/admin/users/"+alice.ID+"/role",
		"Authorization: Bearer "+adminToken,
		map[string]any{"role": "moderator"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AccountResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "moderator", envelope.Data.Role)

	// Unknown role names are rejected.
	resp = ts.api.Patch("/api/v1/admin/users/"+alice.ID+"/role",
		"Authorization: Bearer "+adminToken,
		map[string]any{"role": "emperor"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Admins cannot change their own role.
	resp = ts.api.Patch("/api/v1/admin/users/"+admin.ID+"/role",
		"Authorization: Bearer "+adminToken,
		map[string]any{"role": "user"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAdminLockUnlock(t *testing.T) {
	ts := setupTestServer(t)
	admin, adminToken := ts.createAdmin(t)
	alice, aliceToken := ts.createUser(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/admin/users/"+alice.ID+"/lock", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AccountResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "locked", envelope.Data.Role)

	// A locked user can no longer upload.
	resp = ts.api.Post("/api/v1/photos",
		"Authorization: Bearer "+aliceToken,
		"X-Filename: shot.png",
		bytes.NewReader(testPNG(t, 8, 8)))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// Locking twice is a state conflict.
	resp = ts.api.Post("/api/v1/admin/users/"+alice.ID+"/lock", "Authorization: Bearer "+adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Delete("/api/v1/admin/users/"+alice.ID+"/lock", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "user", envelope.Data.Role)

	// Administrators cannot be locked.
	resp = ts.api.Post("/api/v1/admin/users/"+admin.ID+"/lock", "Authorization: Bearer "+adminToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAdminBlockUnblock(t *testing.T) {
	ts := setupTestServer(t)
	_, adminToken := ts.createAdmin(t)
	alice, _ := ts.createUser(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/admin/users/"+alice.ID+"/block", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AccountResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Active)

	// A blocked account cannot log in.
	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/admin/users/"+alice.ID+"/block", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code)

	ts.login(t, "alice@example.com", testPassword)
}

func TestAdminConfirmUser(t *testing.T) {
	ts := setupTestServer(t)
	_, adminToken := ts.createAdmin(t)
	alice := ts.register(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/admin/users/"+alice.ID+"/confirm", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AccountResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Confirmed)

	// Confirming an already confirmed account is a state conflict.
	resp = ts.api.Post("/api/v1/admin/users/"+alice.ID+"/confirm", "Authorization: Bearer "+adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestModeratorCannotAdminister(t *testing.T) {
	ts := setupTestServer(t)
	_, adminToken := ts.createAdmin(t)
	alice, _ := ts.createUser(t, "alice", "alice@example.com")
	mod, modToken := ts.createUser(t, "mod", "mod@example.com")

	resp := ts.api.Patch("/api/v1/admin/users/"+mod.ID+"/role",
		"Authorization: Bearer "+adminToken,
		map[string]any{"role": "moderator"})
	require.Equal(t, http.StatusOK, resp.Code)

	// Moderators can see the user list but not hand out roles.
	resp = ts.api.Get("/api/v1/admin/users", "Authorization: Bearer "+modToken)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Patch("/api/v1/admin/users/"+alice.ID+"/role",
		"Authorization: Bearer "+modToken,
		map[string]any{"role": "moderator"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestFlaggedQueues(t *testing.T) {
	ts := setupTestServer(t)
	_, adminToken := ts.createAdmin(t)
	_, aliceToken := ts.createUser(t, "alice", "alice@example.com")
	_, bobToken := ts.createUser(t, "bob", "bob@example.com")
	photoID := ts.uploadPhoto(t, aliceToken)

	resp := ts.api.Post("/api/v1/photos/"+photoID+"/report", "Authorization: Bearer "+bobToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/photos/"+photoID+"/comments",
		"Authorization: Bearer "+bobToken,
		map[string]any{"body": "spam"})
	require.Equal(t, http.StatusOK, resp.Code)
	var created testEnvelope[*domain.Comment]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = ts.api.Post("/api/v1/comments/"+created.Data.ID+"/report", "Authorization: Bearer "+aliceToken)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/admin/photos/flagged", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code)
	var photos testEnvelope[store.Page[*domain.Photo]]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &photos))
	require.Len(t, photos.Data.Items, 1)
	assert.Equal(t, photoID, photos.Data.Items[0].ID)
	assert.Equal(t, 1, photos.Data.Items[0].Flag)

	resp = ts.api.Get("/api/v1/admin/comments/flagged", "Authorization: Bearer "+adminToken)
	require.Equal(t, http.StatusOK, resp.Code)
	var comments testEnvelope[store.Page[*domain.Comment]]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &comments))
	require.Len(t, comments.Data.Items, 1)
	assert.Equal(t, created.Data.ID, comments.Data.Items[0].ID)
}
