package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getUserProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}",
		Summary:     "Get user profile",
		Description: "Returns a user with their counters and the viewer's relationship to them",
		Tags:        []string{"Users"},
	}, s.handleGetUserProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUserPhotos",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}/photos",
		Summary:     "List a user's photos",
		Description: "Returns one page of the user's photos, newest first",
		Tags:        []string{"Users"},
	}, s.handleListUserPhotos)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUserCollections",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}/collections",
		Summary:     "List a user's collected photos",
		Description: "Returns one page of photos the user collected; private collections are visible to the owner and moderators only",
		Tags:        []string{"Users"},
	}, s.handleListUserCollections)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFollowers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}/followers",
		Summary:     "List followers",
		Description: "Returns one page of the user's followers",
		Tags:        []string{"Users"},
	}, s.handleListFollowers)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFollowing",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}/following",
		Summary:     "List following",
		Description: "Returns one page of the users this user follows",
		Tags:        []string{"Users"},
	}, s.handleListFollowing)

	huma.Register(s.api, huma.Operation{
		OperationID: "followUser",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{username}/follow",
		Summary:     "Follow a user",
		Description: "Makes the signed-in user follow this user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFollowUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "unfollowUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{username}/follow",
		Summary:     "Unfollow a user",
		Description: "Makes the signed-in user unfollow this user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnfollowUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "Search users",
		Description: "Searches users by username or display name",
		Tags:        []string{"Users"},
	}, s.handleSearchUsers)
}

// === DTOs ===

// PaginationInput carries the shared page query parameters.
type PaginationInput struct {
	Page    int `query:"page" doc:"1-based page number"`
	PerPage int `query:"per_page" doc:"Items per page"`
}

func (p PaginationInput) params() store.PaginationParams {
	return store.PaginationParams{Page: p.Page, PerPage: p.PerPage}
}

// UsernameInput names a user by username.
type UsernameInput struct {
	Username string `path:"username" doc:"Username"`
}

// UserListInput pages through users related to a user.
type UserListInput struct {
	UsernameInput
	PaginationInput
}

// ProfileResponse is a user page: the user plus the counters shown next
// to them and the viewer's relationship to them.
type ProfileResponse struct {
	User           UserResponse `json:"user" doc:"The user"`
	PhotoCount     int          `json:"photo_count" doc:"Number of photos uploaded"`
	CollectCount   int          `json:"collect_count" doc:"Number of photos collected"`
	FollowerCount  int          `json:"follower_count" doc:"Number of followers"`
	FollowingCount int          `json:"following_count" doc:"Number of users followed"`
	IsFollowing    bool         `json:"is_following" doc:"Whether the viewer follows this user"`
	IsFollowedBy   bool         `json:"is_followed_by" doc:"Whether this user follows the viewer"`
}

// ProfileOutput wraps a profile for Huma.
type ProfileOutput struct {
	Body ProfileResponse
}

// UserPageOutput wraps a page of users for Huma.
type UserPageOutput struct {
	Body store.Page[UserResponse]
}

// PhotoPageOutput wraps a page of photos for Huma.
type PhotoPageOutput struct {
	Body store.Page[*domain.Photo]
}

// SearchUsersInput carries the search query and page parameters.
type SearchUsersInput struct {
	Query string `query:"q" doc:"Search query"`
	PaginationInput
}

// === Handlers ===

func (s *Server) handleGetUserProfile(ctx context.Context, input *UsernameInput) (*ProfileOutput, error) {
	profile, err := s.services.User.Profile(ctx, input.Username, OptionalUserID(ctx))
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{
		Body: ProfileResponse{
			User:           mapUser(profile.User),
			PhotoCount:     profile.PhotoCount,
			CollectCount:   profile.CollectCount,
			FollowerCount:  profile.FollowerCount,
			FollowingCount: profile.FollowingCount,
			IsFollowing:    profile.IsFollowing,
			IsFollowedBy:   profile.IsFollowedBy,
		},
	}, nil
}

func (s *Server) handleListUserPhotos(ctx context.Context, input *UserListInput) (*PhotoPageOutput, error) {
	page, err := s.services.User.Photos(ctx, input.Username, input.params())
	if err != nil {
		return nil, err
	}

	return &PhotoPageOutput{Body: *page}, nil
}

func (s *Server) handleListUserCollections(ctx context.Context, input *UserListInput) (*PhotoPageOutput, error) {
	viewer := s.viewerIdentity(ctx)

	page, err := s.services.Social.CollectedPhotos(ctx, viewer, input.Username, input.params())
	if err != nil {
		return nil, err
	}

	return &PhotoPageOutput{Body: *page}, nil
}

func (s *Server) handleListFollowers(ctx context.Context, input *UserListInput) (*UserPageOutput, error) {
	page, err := s.services.Social.Followers(ctx, input.Username, input.params())
	if err != nil {
		return nil, err
	}

	return &UserPageOutput{Body: *mapPage(page, mapUser)}, nil
}

func (s *Server) handleListFollowing(ctx context.Context, input *UserListInput) (*UserPageOutput, error) {
	page, err := s.services.Social.Following(ctx, input.Username, input.params())
	if err != nil {
		return nil, err
	}

	return &UserPageOutput{Body: *mapPage(page, mapUser)}, nil
}

func (s *Server) handleFollowUser(ctx context.Context, input *UsernameInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.Follow(ctx, userID, input.Username); err != nil {
		return nil, err
	}

	return messageOutput("User followed."), nil
}

func (s *Server) handleUnfollowUser(ctx context.Context, input *UsernameInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.Unfollow(ctx, userID, input.Username); err != nil {
		return nil, err
	}

	return messageOutput("User unfollowed."), nil
}

func (s *Server) handleSearchUsers(ctx context.Context, input *SearchUsersInput) (*UserPageOutput, error) {
	page, err := s.services.User.Search(ctx, input.Query, input.params())
	if err != nil {
		return nil, err
	}

	return &UserPageOutput{Body: *mapPage(page, mapUser)}, nil
}
