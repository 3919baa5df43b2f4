package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MingruiWang2017/albumy/internal/auth"
	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/mail"
	"github.com/MingruiWang2017/albumy/internal/media/images"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
	"github.com/MingruiWang2017/albumy/internal/validation"
)

const testPassword = "correct horse battery"

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

type testEnv struct {
	store         *sqlite.Store
	auth          *AuthService
	account       *AccountService
	users         *UserService
	social        *SocialService
	photos        *PhotoService
	comments      *CommentService
	notifications *NotificationService
	admin         *AdminService
	actionTokens  *auth.ActionTokenService
	mailer        *recordingMailer
	photoStorage  *images.Storage
	avatarStorage *images.Storage
	cfg           *config.Config
}

// newTestEnv wires the full service stack against a temporary database and
// upload directory. Rendition widths are small so tiny generated images are
// enough to exercise the pipeline.
func newTestEnv(t *testing.T) *testEnv {
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
	templates := mail.NewTemplates("Albumy", "http://localhost:8080")
	validator := validation.New()

	notifications := NewNotificationService(st, cfg, log)

	return &testEnv{
		store:         st,
		auth:          NewAuthService(st, tokens, actionTokens, mailer, templates, validator, cfg, log),
		account:       NewAccountService(st, actionTokens, mailer, templates, validator, avatarPipeline, avatarStorage, photoStorage, cfg, log),
		users:         NewUserService(st, cfg, log),
		social:        NewSocialService(st, notifications, cfg, log),
		photos:        NewPhotoService(st, photoPipeline, photoStorage, validator, cfg, log),
		comments:      NewCommentService(st, notifications, validator, cfg, log),
		notifications: notifications,
		admin:         NewAdminService(st, cfg, log),
		actionTokens:  actionTokens,
		mailer:        mailer,
		photoStorage:  photoStorage,
		avatarStorage: avatarStorage,
		cfg:           cfg,
	}
}

// registerUser registers and confirms a user ready to act.
func (e *testEnv) registerUser(t *testing.T, username, email string) *domain.User {
	t.Helper()
	ctx := context.Background()

	user, err := e.auth.Register(ctx, RegisterRequest{
		Username: username,
		Email:    email,
		Name:     "Test " + username,
		Password: testPassword,
	})
	require.NoError(t, err)

	if !user.Confirmed {
		user.Confirmed = true
		require.NoError(t, e.store.UpdateUser(ctx, user))
	}
	return user
}

// registerUnconfirmed registers a user without confirming them.
func (e *testEnv) registerUnconfirmed(t *testing.T, username, email string) *domain.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    email,
		Name:     "Test " + username,
		Password: testPassword,
	})
	require.NoError(t, err)
	return user
}

// setRole changes a user's role directly in the store.
func (e *testEnv) setRole(t *testing.T, user *domain.User, role domain.Role) {
	t.Helper()
	user.Role = role
	require.NoError(t, e.store.UpdateUser(context.Background(), user))
}

// testPNG returns an encoded PNG of the given size with a simple gradient,
// so renditions and blurhash have real pixel data to work on.
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

// uploadPhoto uploads a wide test image for the given user.
func (e *testEnv) uploadPhoto(t *testing.T, user *domain.User, description string) *domain.Photo {
	t.Helper()
	photo, err := e.photos.Upload(context.Background(), user.ID, "upload.png", description, testPNG(t, 160, 90))
	require.NoError(t, err)
	return photo
}
