package service

import (
	"context"
	"strings"
	"time"

	"github.com/MingruiWang2017/albumy/internal/auth"
	"github.com/MingruiWang2017/albumy/internal/color"
	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/domain"
	domainerrors "github.com/MingruiWang2017/albumy/internal/errors"
	"github.com/MingruiWang2017/albumy/internal/id"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/mail"
	"github.com/MingruiWang2017/albumy/internal/store"
	"github.com/MingruiWang2017/albumy/internal/store/sqlite"
	"github.com/MingruiWang2017/albumy/internal/validation"
)

// AuthService handles registration, login, and token-based account actions.
type AuthService struct {
	store        *sqlite.Store
	tokens       *auth.TokenService
	actionTokens *auth.ActionTokenService
	mailer       mail.Mailer
	templates    *mail.Templates
	validator    *validation.Validator
	cfg          *config.Config
	log          *logger.Logger
}

func NewAuthService(
	st *sqlite.Store,
	tokens *auth.TokenService,
	actionTokens *auth.ActionTokenService,
	mailer mail.Mailer,
	templates *mail.Templates,
	validator *validation.Validator,
	cfg *config.Config,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		store:        st,
		tokens:       tokens,
		actionTokens: actionTokens,
		mailer:       mailer,
		templates:    templates,
		validator:    validator,
		cfg:          cfg,
		log:          log,
	}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=20,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,min=1,max=30"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the issued token alongside the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Register creates a new account. The address configured as the admin email
// becomes an administrator and skips confirmation; everyone else starts
// unconfirmed and receives a confirmation mail. A self-follow edge is created
// so the user's own photos appear in their home feed.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	now := time.Now().UTC()

	user := &domain.User{
		ID:                         id.MustGenerate("user"),
		CreatedAt:                  now,
		UpdatedAt:                  now,
		Username:                   req.Username,
		Email:                      email,
		Name:                       req.Name,
		Role:                       domain.RoleUser,
		Active:                     true,
		ReceiveCommentNotification: true,
		ReceiveFollowNotification:  true,
		ReceiveCollectNotification: true,
		PublicCollections:          true,
	}
	user.AvatarColor = color.ForUser(user.ID)

	if s.cfg.App.AdminEmail != "" && email == s.cfg.App.AdminEmail {
		user.Role = domain.RoleAdministrator
		user.Confirmed = true
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "hash password")
	}
	user.PasswordHash = hash

	if err := s.store.CreateUser(ctx, user); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("username or email is already in use")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create user")
	}

	// Following yourself makes your own photos show up in your feed.
	if err := s.store.CreateFollow(ctx, user.ID, user.ID); err != nil {
		s.log.WithError(err).Warn("failed to create self-follow", "user_id", user.ID)
	}

	if !user.Confirmed {
		s.sendConfirmMail(user)
	}

	s.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies credentials and issues an access token. Blocked accounts
// cannot log in. Unconfirmed accounts can, so they can request a new
// confirmation mail; write operations stay gated until they confirm.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "verify password")
	}
	if !ok {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	if !user.Active {
		return nil, domainerrors.Forbidden("Your account is blocked.")
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate token")
	}

	s.log.Info("user logged in", "user_id", user.ID)
	return &LoginResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokens.AccessTokenDuration()),
		User:      user,
	}, nil
}

// Confirm marks the caller's account as confirmed. The token must have been
// issued to the caller; a confirmation link belonging to another account is
// rejected. Confirming twice is a state conflict.
func (s *AuthService) Confirm(ctx context.Context, userID, token string) (*domain.User, error) {
	claims, err := s.actionTokens.Verify(token, auth.ActionConfirm)
	if err != nil {
		return nil, domainerrors.InvalidToken()
	}
	if claims.UserID != userID {
		return nil, domainerrors.InvalidToken()
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidToken()
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "load user")
	}

	if user.Confirmed {
		return nil, domainerrors.StateConflict("account is already confirmed")
	}

	user.Confirmed = true
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}

	s.log.Info("account confirmed", "user_id", user.ID)
	return user, nil
}

// ResendConfirmation sends a fresh confirmation mail to an unconfirmed account.
func (s *AuthService) ResendConfirmation(ctx context.Context, userID string) error {
	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return err
	}
	if user.Confirmed {
		return domainerrors.StateConflict("account is already confirmed")
	}

	s.sendConfirmMail(user)
	return nil
}

// ForgotPassword sends a reset link when the address belongs to an account.
// The response is the same either way so addresses cannot be probed.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			s.log.Info("password reset requested for unknown email")
			return nil
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}

	token, err := s.actionTokens.Issue(user.ID, auth.ActionResetPassword, "")
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "issue reset token")
	}

	msg := s.templates.ResetPassword(user.Email, user.DisplayName(), token)
	s.sendMail(msg)
	return nil
}

type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// ResetPassword sets a new password. The account is resolved from the
// submitted email and the token must have been issued to that same account,
// so a leaked token is useless without the matching address. Every failure
// is the same invalid-token error; addresses stay unprobeable here too.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	claims, err := s.actionTokens.Verify(req.Token, auth.ActionResetPassword)
	if err != nil {
		return domainerrors.InvalidToken()
	}

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.InvalidToken()
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "look up user")
	}
	if claims.UserID != user.ID {
		return domainerrors.InvalidToken()
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "hash password")
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "update user")
	}

	s.log.Info("password reset", "user_id", user.ID)
	return nil
}

func (s *AuthService) sendConfirmMail(user *domain.User) {
	token, err := s.actionTokens.Issue(user.ID, auth.ActionConfirm, "")
	if err != nil {
		s.log.WithError(err).Error("failed to issue confirmation token", "user_id", user.ID)
		return
	}
	msg := s.templates.Confirm(user.Email, user.DisplayName(), token)
	s.sendMail(msg)
}

// sendMail delivers asynchronously. Requests never block on SMTP.
func (s *AuthService) sendMail(msg mail.Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.log.WithError(err).Error("failed to send mail", "to", msg.To)
		}
	}()
}
