package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "adminListUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/users",
		Summary:     "List all users",
		Description: "Returns one page of all users, oldest first; moderators and up",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminSetRole",
		Method:      http.MethodPatch,
		Path:        "/api/v1/admin/users/{id}/role",
		Summary:     "Change a user's role",
		Description: "Assigns a new role to the user; administrators only",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminSetRole)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminLockUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/users/{id}/lock",
		Summary:     "Lock a user",
		Description: "Drops the user to the locked role; moderators and up",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminLockUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminUnlockUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/users/{id}/lock",
		Summary:     "Unlock a user",
		Description: "Restores the locked user to the default role; moderators and up",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminUnlockUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminBlockUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/users/{id}/block",
		Summary:     "Block a user",
		Description: "Deactivates the account entirely; moderators and up",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminBlockUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminUnblockUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/users/{id}/block",
		Summary:     "Unblock a user",
		Description: "Reactivates a blocked account; moderators and up",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminUnblockUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminConfirmUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/users/{id}/confirm",
		Summary:     "Confirm a user",
		Description: "Marks the account confirmed without a mailed token; administrators only",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminConfirmUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminListFlaggedPhotos",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/photos/flagged",
		Summary:     "List flagged photos",
		Description: "Returns one page of reported photos, most flagged first; moderators and up",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminListFlaggedPhotos)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminListFlaggedComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/comments/flagged",
		Summary:     "List flagged comments",
		Description: "Returns one page of reported comments, most flagged first; moderators and up",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminListFlaggedComments)
}

// === DTOs ===

// UserIDInput names a user by ID.
type UserIDInput struct {
	ID string `path:"id" doc:"User ID"`
}

// SetRoleRequest names the role to assign.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required" doc:"Role name (locked, user, moderator, administrator)"`
}

// SetRoleInput wraps the role change for Huma.
type SetRoleInput struct {
	UserIDInput
	Body SetRoleRequest
}

// AccountPageOutput wraps a page of full account views for Huma.
type AccountPageOutput struct {
	Body store.Page[AccountResponse]
}

// FlaggedPhotosOutput wraps a page of flagged photos for Huma.
type FlaggedPhotosOutput struct {
	Body store.Page[*domain.Photo]
}

// FlaggedCommentsOutput wraps a page of flagged comments for Huma.
type FlaggedCommentsOutput struct {
	Body store.Page[*domain.Comment]
}

// === Handlers ===

func (s *Server) handleAdminListUsers(ctx context.Context, input *PaginationInput) (*AccountPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Admin.ListUsers(ctx, userID, input.params())
	if err != nil {
		return nil, err
	}

	return &AccountPageOutput{Body: *mapPage(page, mapAccount)}, nil
}

func (s *Server) handleAdminSetRole(ctx context.Context, input *SetRoleInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Admin.SetRole(ctx, userID, input.ID, domain.Role(input.Body.Role))
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleAdminLockUser(ctx context.Context, input *UserIDInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Admin.LockUser(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleAdminUnlockUser(ctx context.Context, input *UserIDInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Admin.UnlockUser(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleAdminBlockUser(ctx context.Context, input *UserIDInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Admin.BlockUser(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleAdminUnblockUser(ctx context.Context, input *UserIDInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Admin.UnblockUser(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleAdminConfirmUser(ctx context.Context, input *UserIDInput) (*AccountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Admin.ConfirmUser(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &AccountOutput{Body: mapAccount(user)}, nil
}

func (s *Server) handleAdminListFlaggedPhotos(ctx context.Context, input *PaginationInput) (*FlaggedPhotosOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Admin.FlaggedPhotos(ctx, userID, input.params())
	if err != nil {
		return nil, err
	}

	return &FlaggedPhotosOutput{Body: *page}, nil
}

func (s *Server) handleAdminListFlaggedComments(ctx context.Context, input *PaginationInput) (*FlaggedCommentsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Admin.FlaggedComments(ctx, userID, input.params())
	if err != nil {
		return nil, err
	}

	return &FlaggedCommentsOutput{Body: *page}, nil
}
