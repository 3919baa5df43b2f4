package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/MingruiWang2017/albumy/internal/domain"
	"github.com/MingruiWang2017/albumy/internal/store"
)

func (s *Server) registerNotificationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "List notifications",
		Description: "Returns one page of the signed-in user's notifications, newest first",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotifications)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUnreadCount",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications/unread-count",
		Summary:     "Count unread notifications",
		Description: "Returns the number of unread notifications",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetUnreadCount)

	huma.Register(s.api, huma.Operation{
		OperationID: "markNotificationRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/{id}/read",
		Summary:     "Mark a notification read",
		Description: "Marks one of the signed-in user's notifications as read",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkNotificationRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "markAllNotificationsRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/read-all",
		Summary:     "Mark all notifications read",
		Description: "Marks all of the signed-in user's notifications as read",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkAllNotificationsRead)
}

// === DTOs ===

// ListNotificationsInput carries the unread filter and page parameters.
type ListNotificationsInput struct {
	Filter string `query:"filter" enum:"all,unread" doc:"Show all notifications or unread only"`
	PaginationInput
}

// NotificationPageOutput wraps a page of notifications for Huma.
type NotificationPageOutput struct {
	Body store.Page[*domain.Notification]
}

// UnreadCountResponse reports the unread notification count.
type UnreadCountResponse struct {
	Count int `json:"count" doc:"Number of unread notifications"`
}

// UnreadCountOutput wraps the unread count for Huma.
type UnreadCountOutput struct {
	Body UnreadCountResponse
}

// NotificationIDInput names a notification by ID.
type NotificationIDInput struct {
	ID string `path:"id" doc:"Notification ID"`
}

// MarkedReadResponse reports how many notifications were marked read.
type MarkedReadResponse struct {
	Marked int `json:"marked" doc:"Number of notifications marked read"`
}

// MarkedReadOutput wraps the mark-all result for Huma.
type MarkedReadOutput struct {
	Body MarkedReadResponse
}

// === Handlers ===

func (s *Server) handleListNotifications(ctx context.Context, input *ListNotificationsInput) (*NotificationPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Notification.List(ctx, userID, input.Filter == "unread", input.params())
	if err != nil {
		return nil, err
	}

	return &NotificationPageOutput{Body: *page}, nil
}

func (s *Server) handleGetUnreadCount(ctx context.Context, _ *struct{}) (*UnreadCountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	count, err := s.services.Notification.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UnreadCountOutput{Body: UnreadCountResponse{Count: count}}, nil
}

func (s *Server) handleMarkNotificationRead(ctx context.Context, input *NotificationIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Notification.MarkRead(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return messageOutput("Notification marked read."), nil
}

func (s *Server) handleMarkAllNotificationsRead(ctx context.Context, _ *struct{}) (*MarkedReadOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	marked, err := s.services.Notification.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &MarkedReadOutput{Body: MarkedReadResponse{Marked: marked}}, nil
}
