package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/MingruiWang2017/albumy/internal/service"
)

func (s *Server) registerAccountRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/account",
		Summary:     "Get current user",
		Description: "Returns the signed-in account, including settings",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/account/profile",
		Summary:     "Update profile",
		Description: "Updates profile fields; omitted fields are left untouched",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPut,
		Path:        "/api/v1/account/password",
		Summary:     "Change password",
		Description: "Replaces the password after verifying the current one",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleChangePassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "requestEmailChange",
		Method:      http.MethodPost,
		Path:        "/api/v1/account/email",
		Summary:     "Request email change",
		Description: "Mails a confirmation link to the new address; the address switches on confirmation",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRequestEmailChange)

	huma.Register(s.api, huma.Operation{
		OperationID: "confirmEmailChange",
		Method:      http.MethodPost,
		Path:        "/api/v1/account/email/confirm",
		Summary:     "Confirm email change",
		Description: "Switches the account to the new address named by the token",
		Tags:        []string{"Account"},
	}, s.handleConfirmEmailChange)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNotificationSettings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/account/notifications",
		Summary:     "Update notification settings",
		Description: "Toggles the follow, comment, and collect notification opt-ins",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateNotificationSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePrivacySettings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/account/privacy",
		Summary:     "Update privacy settings",
		Description: "Toggles whether the account's collections are publicly visible",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdatePrivacySettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadAvatar",
		Method:      http.MethodPut,
		Path:        "/api/v1/account/avatar",
		Summary:     "Upload avatar",
		Description: "Replaces the avatar with the raw image in the request body",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadAvatar)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAccount",
		Method:      http.MethodDelete,
		Path:        "/api/v1/account",
		Summary:     "Delete account",
		Description: "Permanently deletes the account and everything it owns",
		Tags:        []string{"Account"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteAccount)
}

// === DTOs ===

// UpdateProfileRequest is the request body for profile updates.
// Omitted fields keep their current value.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" doc:"New username"`
	Name     *string `json:"name,omitempty" doc:"New display name"`
	Website  *string `json:"website,omitempty" doc:"New website"`
	Bio      *string `json:"bio,omitempty" doc:"New biography"`
	Location *string `json:"location,omitempty" doc:"New location"`
}

// UpdateProfileInput wraps the profile update for Huma.
type UpdateProfileInput struct {
	Body UpdateProfileRequest
}

// ChangePasswordRequest is the request body for password changes.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required" doc:"Current password"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128" doc:"New password"`
}

// ChangePasswordInput wraps the password change for Huma.
type ChangePasswordInput struct {
	Body ChangePasswordRequest
}

// ChangeEmailRequest names the address to switch the account to.
type ChangeEmailRequest struct {
	NewEmail string `json:"new_email" validate:"required,email,max=254" doc:"New email address"`
}

// ChangeEmailInput wraps the email change request for Huma.
type ChangeEmailInput struct {
	Body ChangeEmailRequest
}

// NotificationSettingsRequest toggles notification opt-ins.
// Omitted fields keep their current value.
type NotificationSettingsRequest struct {
	ReceiveCommentNotification *bool `json:"receive_comment_notification,omitempty" doc:"Comment notification opt-in"`
	ReceiveFollowNotification  *bool `json:"receive_follow_notification,omitempty" doc:"Follow notification opt-in"`
	ReceiveCollectNotification *bool `json:"receive_collect_notification,omitempty" doc:"Collect notification opt-in"`
}

// NotificationSettingsInput wraps the settings update for Huma.
type NotificationSettingsInput struct {
	Body NotificationSettingsRequest
}

// PrivacySettingsRequest toggles collection visibility.
type PrivacySettingsRequest struct {
	PublicCollections bool `json:"public_collections" doc:"Whether collections are publicly visible"`
}

// PrivacySettingsInput wraps the privacy update for Huma.
type PrivacySettingsInput struct {
	Body PrivacySettingsRequest
}

// UploadAvatarInput carries the raw image bytes and the original file name.
type UploadAvatarInput struct {
	XFilename string `header:"X-Filename" doc:"Original file name, used for extension checking"`
	RawBody   []byte
}

// DeleteAccountRequest confirms account deletion with the password.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required" doc:"Current password"`
}

// DeleteAccountInput wraps the account deletion for Huma.
type DeleteAccountInput struct {
	Body DeleteAccountRequest
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Account.UpdateProfile(ctx, userID, service.UpdateProfileRequest{
		Username: input.Body.Username,
		Name:     input.Body.Name,
		Website:  input.Body.Website,
		Bio:      input.Body.Bio,
		Location: input.Body.Location,
	})
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	err = s.services.Account.ChangePassword(ctx, userID, service.ChangePasswordRequest{
		OldPassword: input.Body.OldPassword,
		NewPassword: input.Body.NewPassword,
	})
	if err != nil {
		return nil, err
	}

	return messageOutput("Password updated."), nil
}

func (s *Server) handleRequestEmailChange(ctx context.Context, input *ChangeEmailInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	err = s.services.Account.RequestEmailChange(ctx, userID, service.ChangeEmailRequest{
		NewEmail: input.Body.NewEmail,
	})
	if err != nil {
		return nil, err
	}

	return messageOutput("Confirmation mail sent to the new address."), nil
}

func (s *Server) handleConfirmEmailChange(ctx context.Context, input *TokenInput) (*AccountOutput, error) {
	user, err := s.services.Account.ConfirmEmailChange(ctx, input.Body.Token)
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleUpdateNotificationSettings(ctx context.Context, input *NotificationSettingsInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Account.UpdateNotificationSettings(ctx, userID, service.NotificationSettingsRequest{
		ReceiveCommentNotification: input.Body.ReceiveCommentNotification,
		ReceiveFollowNotification:  input.Body.ReceiveFollowNotification,
		ReceiveCollectNotification: input.Body.ReceiveCollectNotification,
	})
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleUpdatePrivacySettings(ctx context.Context, input *PrivacySettingsInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Account.UpdatePrivacySettings(ctx, userID, service.PrivacySettingsRequest{
		PublicCollections: input.Body.PublicCollections,
	})
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleUploadAvatar(ctx context.Context, input *UploadAvatarInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Account.UploadAvatar(ctx, userID, input.XFilename, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleDeleteAccount(ctx context.Context, input *DeleteAccountInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	err = s.services.Account.DeleteAccount(ctx, userID, service.DeleteAccountRequest{
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return messageOutput("Account deleted."), nil
}
