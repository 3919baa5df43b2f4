package api

import (
	"encoding/json/v2"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MingruiWang2017/albumy/internal/mail"
)

// tokenFromMail pulls the action token out of a mailed link.
func tokenFromMail(t *testing.T, msg mail.Message) string {
	t.Helper()
	i := strings.Index(msg.Body, "token=")
	require.GreaterOrEqual(t, i, 0, "no token link in mail body:\n%s", msg.Body)

	token := msg.Body[i+len("token="):]
	if j := strings.IndexAny(token, " \n\r"); j >= 0 {
		token = token[:j]
	}
	return token
}

func TestRegister(t *testing.T) {
	ts := setupTestServer(t)

	account := ts.register(t, "alice", "alice@example.com")
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, "user", account.Role)
	assert.False(t, account.Confirmed)
	assert.True(t, account.Active)
	assert.NotEmpty(t, account.AvatarColor)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "alice",
		"email":    "other@example.com",
		"name":     "Other",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var envelope testEnvelope[any]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)
}

func TestRegisterValidation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": "bob",
		"email":    "not-an-email",
		"name":     "Bob",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, 1, envelope.V)
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "Bearer", envelope.Data.TokenType)
	assert.Equal(t, "alice", envelope.Data.User.Username)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice", "alice@example.com")

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Unknown addresses fail the same way, so the API does not leak which
	// addresses are registered.
	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "nobody@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestConfirmFlow(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice", "alice@example.com")
	authToken := ts.login(t, "alice@example.com", testPassword)

	msgs := ts.mailer.waitForMessages(t, 1)
	token := tokenFromMail(t, msgs[0])

	resp := ts.api.Post("/api/v1/auth/confirm",
		"Authorization: Bearer "+authToken,
		map[string]any{"token": token})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[AccountResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Confirmed)

	// Confirming twice is a state conflict.
	resp = ts.api.Post("/api/v1/auth/confirm",
		"Authorization: Bearer "+authToken,
		map[string]any{"token": token})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestConfirmRequiresAuth(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice", "alice@example.com")

	msgs := ts.mailer.waitForMessages(t, 1)
	token := tokenFromMail(t, msgs[0])

	resp := ts.api.Post("/api/v1/auth/confirm", map[string]any{"token": token})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestConfirmSomeoneElsesToken(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice", "alice@example.com")
	msgs := ts.mailer.waitForMessages(t, 1)
	aliceToken := tokenFromMail(t, msgs[0])

	ts.register(t, "bob", "bob@example.com")
	bobAuth := ts.login(t, "bob@example.com", testPassword)

	// Alice's mailed link does nothing in Bob's hands.
	resp := ts.api.Post("/api/v1/auth/confirm",
		"Authorization: Bearer "+bobAuth,
		map[string]any{"token": aliceToken})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestConfirmGarbageToken(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice", "alice@example.com")
	authToken := ts.login(t, "alice@example.com", testPassword)

	resp := ts.api.Post("/api/v1/auth/confirm",
		"Authorization: Bearer "+authToken,
		map[string]any{"token": "not-a-token"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestResendConfirmation(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice", "alice@example.com")
	token := ts.login(t, "alice@example.com", testPassword)
	ts.mailer.waitForMessages(t, 1)

	resp := ts.api.Post("/api/v1/auth/confirm/resend", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	msgs := ts.mailer.waitForMessages(t, 2)
	assert.Contains(t, msgs[1].To, "alice@example.com")
}

func TestPasswordResetFlow(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice", "alice@example.com")
	ts.mailer.waitForMessages(t, 1)

	resp := ts.api.Post("/api/v1/auth/forgot-password", map[string]any{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	msgs := ts.mailer.waitForMessages(t, 2)
	token := tokenFromMail(t, msgs[1])

	resp = ts.api.Post("/api/v1/auth/reset-password", map[string]any{
		"email":    "alice@example.com",
		"token":    token,
		"password": "a brand new password",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Old password no longer works, new one does.
	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	ts.login(t, "alice@example.com", "a brand new password")
}

func TestPasswordResetWrongEmail(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "alice", "alice@example.com")
	ts.register(t, "bob", "bob@example.com")
	ts.mailer.waitForMessages(t, 2)

	resp := ts.api.Post("/api/v1/auth/forgot-password", map[string]any{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	msgs := ts.mailer.waitForMessages(t, 3)
	token := tokenFromMail(t, msgs[2])

	// Alice's token presented with Bob's address is rejected; both accounts
	// keep their passwords.
	resp = ts.api.Post("/api/v1/auth/reset-password", map[string]any{
		"email":    "bob@example.com",
		"token":    token,
		"password": "a brand new password",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	ts.login(t, "alice@example.com", testPassword)
	ts.login(t, "bob@example.com", testPassword)
}

func TestForgotPasswordUnknownAddress(t *testing.T) {
	ts := setupTestServer(t)

	// Silent success: the response does not reveal whether the address exists.
	resp := ts.api.Post("/api/v1/auth/forgot-password", map[string]any{
		"email": "nobody@example.com",
	})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAdminEmailRegistersAsAdministrator(t *testing.T) {
	ts := setupTestServer(t)

	account, _ := ts.createAdmin(t)
	assert.Equal(t, "administrator", account.Role)
	assert.True(t, account.Confirmed)
}
