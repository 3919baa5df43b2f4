package api

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/MingruiWang2017/albumy/internal/auth"
	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/mail"
	"github.com/MingruiWang2017/albumy/internal/media/images"
	"github.com/MingruiWang2017/albumy/internal/service"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
	"github.com/MingruiWang2017/albumy/internal/validation"
)

const testPassword = "correct horse battery"

// testEnvelope mirrors the response envelope for unmarshaling in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// recordingMailer captures outgoing messages for assertions.
type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// waitForMessages polls until n messages arrived. Mail goes out on a
// goroutine, so tests have to wait for it.
func (m *recordingMailer) waitForMessages(t *testing.T, n int) []mail.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		if len(m.messages) >= n {
			msgs := make([]mail.Message, len(m.messages))
			copy(msgs, m.messages)
			m.mu.Unlock()
			return msgs
		}
		m.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d mail messages", n)
	return nil
}

type apiTestServer struct {
	*Server
	api    humatest.TestAPI
	mailer *recordingMailer
}

// setupTestServer wires the full stack against a temporary database and
// upload directory, with a rate limiter loose enough for test traffic.
func setupTestServer(t *testing.T) *apiTestServer {
	t.Helper()
	tmpDir := t.TempDir()

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	log := logger.New(logger.Config{Writer: io.Discard, Level: slog.LevelError})

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), slogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.SeedRoles(context.Background()))

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)
	actionTokens, err := auth.NewActionTokenService(key, time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{
			Environment: "test",
			AdminEmail:  "admin@example.com",
		},
		Server: config.ServerConfig{
			Name:    "Albumy",
			BaseURL: "http://localhost:8080",
		},
		Upload: config.UploadConfig{
			MaxSize:     3 * 1024 * 1024,
			AllowedExts: []string{".jpg", ".jpeg", ".png"},
			PhotoSizeS:  40,
			PhotoSizeM:  80,
		},
		Pages: config.PageConfig{
			PhotoPerPage:        12,
			CommentPerPage:      15,
			UserPerPage:         20,
			NotificationPerPage: 20,
			ManagePerPage:       20,
			SearchPerPage:       20,
		},
	}

	photoStorage, err := images.NewStorage(tmpDir, "photos")
	require.NoError(t, err)
	avatarStorage, err := images.NewStorage(tmpDir, "avatars")
	require.NoError(t, err)

	photoPipeline := images.NewPipeline(photoStorage, cfg.Upload.PhotoSizeS, cfg.Upload.PhotoSizeM, slogger)
	avatarPipeline := images.NewPipeline(avatarStorage, 20, 40, slogger).WithPrefix("avatar")

	mailer := &recordingMailer{}
	templates := mail.NewTemplates(cfg.Server.Name, cfg.Server.BaseURL)
	validator := validation.New()

	notifications := service.NewNotificationService(st, cfg, log)
	services := &Services{
		Auth:         service.NewAuthService(st, tokens, actionTokens, mailer, templates, validator, cfg, log),
		Account:      service.NewAccountService(st, actionTokens, mailer, templates, validator, avatarPipeline, avatarStorage, photoStorage, cfg, log),
		User:         service.NewUserService(st, cfg, log),
		Social:       service.NewSocialService(st, notifications, cfg, log),
		Photo:        service.NewPhotoService(st, photoPipeline, photoStorage, validator, cfg, log),
		Comment:      service.NewCommentService(st, notifications, validator, cfg, log),
		Notification: notifications,
		Admin:        service.NewAdminService(st, cfg, log),
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(tokens))

	humaConfig := huma.DefaultConfig("Albumy API Test", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		router:          router,
		api:             api,
		cfg:             cfg,
		authRateLimiter: NewRateLimiter(1000, time.Minute, 500),
		logger:          log,
	}
	s.registerRoutes()

	return &apiTestServer{
		Server: s,
		api:    humatest.Wrap(t, api),
		mailer: mailer,
	}
}

// register creates an account through the API and returns it.
func (ts *apiTestServer) register(t *testing.T, username, email string) AccountResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": username,
		"email":    email,
		"name":     "Test " + username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	var envelope testEnvelope[AccountResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

// login returns an access token for the given credentials.
func (ts *apiTestServer) login(t *testing.T, email, password string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data.AccessToken
}

// confirmInStore marks a user confirmed directly in the database, so tests
// that are not about the confirmation flow can skip the mailed token.
func (ts *apiTestServer) confirmInStore(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()

	user, err := ts.store.GetUser(ctx, userID)
	require.NoError(t, err)
	user.Confirmed = true
	require.NoError(t, ts.store.UpdateUser(ctx, user))
}

// createUser registers, confirms, and logs in a user, returning the account
// and a ready-to-use token.
func (ts *apiTestServer) createUser(t *testing.T, username, email string) (AccountResponse, string) {
	t.Helper()

	account := ts.register(t, username, email)
	ts.confirmInStore(t, account.ID)
	return account, ts.login(t, email, testPassword)
}

// createAdmin registers the configured admin address, which comes out
// confirmed with the administrator role.
func (ts *apiTestServer) createAdmin(t *testing.T) (AccountResponse, string) {
	t.Helper()

	account := ts.register(t, "admin", "admin@example.com")
	return account, ts.login(t, "admin@example.com", testPassword)
}

// testPNG returns an encoded PNG with a simple gradient, so renditions and
// blurhash have real pixel data to work on.
func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// uploadPhoto uploads a test image and returns the created photo ID.
func (ts *apiTestServer) uploadPhoto(t *testing.T, token string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/photos",
		"Authorization: Bearer "+token,
		"X-Filename: upload.png",
		bytes.NewReader(testPNG(t, 160, 90)))
	require.Equal(t, http.StatusOK, resp.Code, "upload failed: %s", resp.Body.String())

	var envelope testEnvelope[map[string]any]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	id, _ := envelope.Data["id"].(string)
	require.NotEmpty(t, id)
	return id
}
