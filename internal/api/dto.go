package api

import (
	"time"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

// UserResponse is the public view of a user. Email and settings stay out;
// they belong to the account owner only.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Username    string    `json:"username" doc:"Unique username"`
	Name        string    `json:"name" doc:"Display name"`
	Website     string    `json:"website,omitempty" doc:"Personal website"`
	Bio         string    `json:"bio,omitempty" doc:"Short biography"`
	Location    string    `json:"location,omitempty" doc:"Location"`
	Role        string    `json:"role" doc:"Role name"`
	Avatar      string    `json:"avatar,omitempty" doc:"Original avatar URL path"`
	AvatarM     string    `json:"avatar_m,omitempty" doc:"Medium avatar URL path"`
	AvatarS     string    `json:"avatar_s,omitempty" doc:"Small avatar URL path"`
	AvatarColor string    `json:"avatar_color" doc:"Fallback avatar background color"`
	CreatedAt   time.Time `json:"created_at" doc:"Registration timestamp"`
}

// AccountResponse is the owner's (and admin's) view of a user. It adds the
// fields the public view withholds.
type AccountResponse struct {
	UserResponse
	Email                      string `json:"email" doc:"Email address"`
	Confirmed                  bool   `json:"confirmed" doc:"Whether the email address is confirmed"`
	Active                     bool   `json:"active" doc:"Whether the account is unblocked"`
	ReceiveCommentNotification bool   `json:"receive_comment_notification" doc:"Comment notification opt-in"`
	ReceiveFollowNotification  bool   `json:"receive_follow_notification" doc:"Follow notification opt-in"`
	ReceiveCollectNotification bool   `json:"receive_collect_notification" doc:"Collect notification opt-in"`
	PublicCollections          bool   `json:"public_collections" doc:"Whether collections are publicly visible"`
}

// mapUser converts a domain user to its public representation.
func mapUser(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Website:     u.Website,
		Bio:         u.Bio,
		Location:    u.Location,
		Role:        string(u.Role),
		AvatarColor: u.AvatarColor,
		CreatedAt:   u.CreatedAt,
	}
	if u.AvatarFile != "" {
		resp.Avatar = "/avatars/" + u.AvatarFile
	}
	if u.AvatarFileM != "" {
		resp.AvatarM = "/avatars/" + u.AvatarFileM
	}
	if u.AvatarFileS != "" {
		resp.AvatarS = "/avatars/" + u.AvatarFileS
	}
	return resp
}

// mapAccount converts a domain user to the owner's representation.
func mapAccount(u *domain.User) AccountResponse {
	return AccountResponse{
		UserResponse:               mapUser(u),
		Email:                      u.Email,
		Confirmed:                  u.Confirmed,
		Active:                     u.Active,
		ReceiveCommentNotification: u.ReceiveCommentNotification,
		ReceiveFollowNotification:  u.ReceiveFollowNotification,
		ReceiveCollectNotification: u.ReceiveCollectNotification,
		PublicCollections:          u.PublicCollections,
	}
}

// mapPage converts a page of domain items into a page of response DTOs.
func mapPage[T, U any](p *store.Page[T], f func(T) U) *store.Page[U] {
	items := make([]U, len(p.Items))
	for i, item := range p.Items {
		items[i] = f(item)
	}
	return &store.Page[U]{
		Items:   items,
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   p.Total,
		Pages:   p.Pages,
	}
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// messageOutput is a shorthand for handlers that only report success.
func messageOutput(msg string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: msg}}
}
