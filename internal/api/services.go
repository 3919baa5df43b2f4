package api

import (
	"github.com/MingruiWang2017/albumy/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth         *service.AuthService
	Account      *service.AccountService
	User         *service.UserService
	Social       *service.SocialService
	Photo        *service.PhotoService
	Comment      *service.CommentService
	Notification *service.NotificationService
	Admin        *service.AdminService
}
