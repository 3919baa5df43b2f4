package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/MingruiWang2017/albumy/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register a new account",
		Description: "Creates an account and mails a confirmation link",
		Tags:        []string{"Authentication"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Log in",
		Description: "Authenticates with email and password, returns an access token",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "confirmAccount",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/confirm",
		Summary:     "Confirm account",
		Description: "Confirms the signed-in account using a mailed confirmation token issued to it",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleConfirm)

	huma.Register(s.api, huma.Operation{
		OperationID: "resendConfirmation",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/confirm/resend",
		Summary:     "Resend confirmation mail",
		Description: "Mails a fresh confirmation link to the signed-in unconfirmed account",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleResendConfirmation)

	huma.Register(s.api, huma.Operation{
		OperationID: "forgotPassword",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/forgot-password",
		Summary:     "Request a password reset",
		Description: "Mails a password reset link; responds identically whether or not the address exists",
		Tags:        []string{"Authentication"},
	}, s.handleForgotPassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetPassword",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/reset-password",
		Summary:     "Reset password",
		Description: "Sets a new password using a mailed reset token and the matching email address",
		Tags:        []string{"Authentication"},
	}, s.handleResetPassword)
}

// === DTOs ===

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=20,username" doc:"Unique username"`
	Email    string `json:"email" validate:"required,email,max=254" doc:"Email address"`
	Name     string `json:"name" validate:"required,min=1,max=30" doc:"Display name"`
	Password string `json:"password" validate:"required,min=8,max=128" doc:"Password"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// RegisterOutput wraps the created account for Huma.
type RegisterOutput struct {
	Body AccountResponse
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" doc:"Email address"`
	Password string `json:"password" validate:"required" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// AuthResponse contains the access token and the authenticated user.
type AuthResponse struct {
	AccessToken string          `json:"access_token" doc:"PASETO access token"`
	TokenType   string          `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresAt   time.Time       `json:"expires_at" doc:"Token expiry"`
	User        AccountResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// TokenRequest carries a mailed action token.
type TokenRequest struct {
	Token string `json:"token" validate:"required" doc:"Action token from the mailed link"`
}

// TokenInput wraps a token request for Huma.
type TokenInput struct {
	Body TokenRequest
}

// ForgotPasswordRequest names the address to mail a reset link to.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" doc:"Email address"`
}

// ForgotPasswordInput wraps the forgot-password request for Huma.
type ForgotPasswordInput struct {
	Body ForgotPasswordRequest
}

// ResetPasswordRequest carries the account email, a reset token, and the
// new password. The token alone is not enough; it must match the account
// named by the email.
type ResetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email" doc:"Email address the reset was requested for"`
	Token    string `json:"token" validate:"required" doc:"Reset token from the mailed link"`
	Password string `json:"password" validate:"required,min=8,max=128" doc:"New password"`
}

// ResetPasswordInput wraps the reset-password request for Huma.
type ResetPasswordInput struct {
	Body ResetPasswordRequest
}

// AccountOutput wraps the owner's account view for Huma.
type AccountOutput struct {
	Body AccountResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
	user, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Username: input.Body.Username,
		Email:    input.Body.Email,
		Name:     input.Body.Name,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &RegisterOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	result, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{
		Body: AuthResponse{
			AccessToken: result.Token,
			TokenType:   "Bearer",
			ExpiresAt:   result.ExpiresAt,
			User:        mapAccount(result.User),
		},
	}, nil
}

func (s *Server) handleConfirm(ctx context.Context, input *TokenInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.Confirm(ctx, userID, input.Body.Token)
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleResendConfirmation(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Auth.ResendConfirmation(ctx, userID); err != nil {
		return nil, err
	}

	return messageOutput("Confirmation mail sent."), nil
}

func (s *Server) handleForgotPassword(ctx context.Context, input *ForgotPasswordInput) (*MessageOutput, error) {
	if err := s.services.Auth.ForgotPassword(ctx, input.Body.Email); err != nil {
		return nil, err
	}

	return messageOutput("If the address is registered, a reset link is on its way."), nil
}

func (s *Server) handleResetPassword(ctx context.Context, input *ResetPasswordInput) (*MessageOutput, error) {
	err := s.services.Auth.ResetPassword(ctx, service.ResetPasswordRequest{
		Email:    input.Body.Email,
		Token:    input.Body.Token,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return messageOutput("Password updated. You can log in now."), nil
}
