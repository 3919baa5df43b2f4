package service

import (
	"context"
	"strings"
	"time"

	"github.com/MingruiWang2017/albumy/internal/auth"
	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/domain"
	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/mail"
	"github.com/MingruiWang2017/albumy/internal/media/images"
	"github.com/MingruiWang2017/albumy/internal/store"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
	"github.com/MingruiWang2017/albumy/internal/validation"
)

// avatarMaxSize caps avatar uploads. Photos have their own, larger limit.
const avatarMaxSize = 2 * 1024 * 1024

// AccountService manages the authenticated user's own account: profile,
// credentials, settings, avatar, and deletion.
type AccountService struct {
	store         *sqlite.Store
	actionTokens  *auth.ActionTokenService
	mailer        mail.Mailer
	templates     *mail.Templates
	validator     *validation.Validator
	avatars       *images.Pipeline
	avatarStorage *images.Storage
	photoStorage  *images.Storage
	cfg           *config.Config
	log           *logger.Logger
}

func NewAccountService(
	st *sqlite.Store,
	actionTokens *auth.ActionTokenService,
	mailer mail.Mailer,
	templates *mail.Templates,
	validator *validation.Validator,
	avatars *images.Pipeline,
	avatarStorage *images.Storage,
	photoStorage *images.Storage,
	cfg *config.Config,
	log *logger.Logger,
) *AccountService {
	return &AccountService{
		store:         st,
		actionTokens:  actionTokens,
		mailer:        mailer,
		templates:     templates,
		validator:     validator,
		avatars:       avatars,
		avatarStorage: avatarStorage,
		photoStorage:  photoStorage,
		cfg:           cfg,
		log:           log,
	}
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1,max=20,username"`
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=30"`
	Website  *string `json:"website,omitempty" validate:"omitempty,max=255"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=120"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=50"`
}

// UpdateProfile changes the caller's profile fields. Nil fields are left
// untouched, so a PATCH with only a bio updates only the bio.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Website != nil {
		user.Website = *req.Website
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("username is already in use")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}
	return user, nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

// ChangePassword verifies the old password and replaces it.
func (s *AccountService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.OldPassword)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "verify password")
	}
	if !ok {
		return domainerrors.InvalidCredentials("old password is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "hash password")
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}

	s.log.Info("password changed", "user_id", user.ID)
	return nil
}

type ChangeEmailRequest struct {
	NewEmail string `json:"new_email" validate:"required,email,max=254"`
}

// RequestEmailChange mails a confirmation token to the new address. The
// address switches only once ConfirmEmailChange verifies the token, so a typo
// cannot lock the account out.
func (s *AccountService) RequestEmailChange(ctx context.Context, userID string, req ChangeEmailRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return err
	}

	newEmail := strings.ToLower(strings.TrimSpace(req.NewEmail))
	if newEmail == strings.ToLower(user.Email) {
		return domainerrors.StateConflict("this is already your email address")
	}
	if _, err := s.store.GetUserByEmail(ctx, newEmail); err == nil {
		return domainerrors.AlreadyExists("email is already in use")
	} else if !domainerrors.Is(err, store.ErrNotFound) {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "look up email")
	}

	token, err := s.actionTokens.Issue(user.ID, auth.ActionChangeEmail, newEmail)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "issue token")
	}

	msg := s.templates.ChangeEmail(newEmail, user.DisplayName(), token)
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.Send(sendCtx, msg); err != nil {
			s.log.WithError(err).Error("failed to send mail", "to", msg.To)
		}
	}()
	return nil
}

// ConfirmEmailChange applies the address change carried by an email-change
// token. The new address is re-checked for uniqueness: another account may
// have claimed it while the token was in flight.
func (s *AccountService) ConfirmEmailChange(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.actionTokens.Verify(token, auth.ActionChangeEmail)
	if err != nil {
		return nil, domainerrors.InvalidToken()
	}
	if claims.NewEmail == "" {
		return nil, domainerrors.InvalidToken()
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidToken()
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load user")
	}

	user.Email = claims.NewEmail
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email is already in use")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}

	s.log.Info("email changed", "user_id", user.ID)
	return user, nil
}

type NotificationSettingsRequest struct {
	ReceiveCommentNotification *bool `json:"receive_comment_notification,omitempty"`
	ReceiveFollowNotification  *bool `json:"receive_follow_notification,omitempty"`
	ReceiveCollectNotification *bool `json:"receive_collect_notification,omitempty"`
}

// UpdateNotificationSettings changes the caller's notification opt-ins.
func (s *AccountService) UpdateNotificationSettings(ctx context.Context, userID string, req NotificationSettingsRequest) (*domain.User, error) {
	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	if req.ReceiveCommentNotification != nil {
		user.ReceiveCommentNotification = *req.ReceiveCommentNotification
	}
	if req.ReceiveFollowNotification != nil {
		user.ReceiveFollowNotification = *req.ReceiveFollowNotification
	}
	if req.ReceiveCollectNotification != nil {
		user.ReceiveCollectNotification = *req.ReceiveCollectNotification
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}
	return user, nil
}

type PrivacySettingsRequest struct {
	PublicCollections bool `json:"public_collections"`
}

// UpdatePrivacySettings toggles whether the caller's collections are public.
func (s *AccountService) UpdatePrivacySettings(ctx context.Context, userID string, req PrivacySettingsRequest) (*domain.User, error) {
	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	user.PublicCollections = req.PublicCollections
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}
	return user, nil
}

// UploadAvatar stores a new avatar with 400px and 100px variants and removes
// the previous avatar's files.
func (s *AccountService) UploadAvatar(ctx context.Context, userID, filename string, data []byte) (*domain.User, error) {
	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > avatarMaxSize {
		return nil, domainerrors.Validation("avatar exceeds the 2 MB size limit")
	}

	renditions, err := s.avatars.Process(filename, data)
	if err != nil {
		return nil, domainerrors.Validation("invalid image: " + err.Error())
	}

	old := []string{user.AvatarFile, user.AvatarFileM, user.AvatarFileS}

	user.AvatarFile = renditions.Original
	user.AvatarFileM = renditions.Medium
	user.AvatarFileS = renditions.Small
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}

	deleteFiles(s.avatarStorage, s.log, old)
	return user, nil
}

// Avatar returns the stored avatar bytes for a size ("", "m", or "s").
func (s *AccountService) Avatar(filename string) ([]byte, error) {
	data, err := s.avatarStorage.Get(filename)
	if err != nil {
		return nil, domainerrors.NotFound("avatar not found")
	}
	return data, nil
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// DeleteAccount removes the account and everything it owns. The row delete
// cascades through photos, comments, edges, and notifications; the photo and
// avatar files are removed afterwards, best effort.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string, req DeleteAccountRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "verify password")
	}
	if !ok {
		return domainerrors.InvalidCredentials("password is incorrect")
	}

	var files []string
	params := store.PaginationParams{Page: 1, PerPage: 100}
	for {
		photos, _, err := s.store.ListPhotosByAuthor(ctx, user.ID, params)
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "list photos")
		}
		for _, p := range photos {
			files = append(files, p.Filename, p.FilenameM, p.FilenameS)
		}
		if len(photos) < params.PerPage {
			break
		}
		params.Page++
	}

	if err := s.store.DeleteUser(ctx, user.ID); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "delete user")
	}

	deleteFiles(s.photoStorage, s.log, files)
	deleteFiles(s.avatarStorage, s.log, []string{user.AvatarFile, user.AvatarFileM, user.AvatarFileS})

	s.log.Info("account deleted", "user_id", user.ID)
	return nil
}

// deleteFiles removes stored files, skipping empty names and duplicates.
// Renditions may share the original's filename, so names are deduplicated
// before deleting.
func deleteFiles(storage *images.Storage, log *logger.Logger, names []string) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if err := storage.Delete(name); err != nil {
			log.WithError(err).Warn("failed to delete file", "filename", name)
		}
	}
}
