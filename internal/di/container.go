// Package di provides dependency injection configuration for the Albumy server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/MingruiWang2017/albumy/internal/auth"
	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/di/providers"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/mail"
	"github.com/MingruiWang2017/albumy/internal/service"
	"github.com/MingruiWang2017/albumy/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Storage layer
	do.Provide(injector, providers.ProvideImageStorages)
	do.Provide(injector, providers.ProvideImagePipelines)

	// Mail layer
	do.Provide(injector, providers.ProvideMailer)
	do.Provide(injector, providers.ProvideTemplates)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideActionTokenService)

	// Validation
	do.Provide(injector, providers.ProvideValidator)

	// Business services
	do.Provide(injector, providers.ProvideNotificationService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideAccountService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideSocialService)
	do.Provide(injector, providers.ProvidePhotoService)
	do.Provide(injector, providers.ProvideCommentService)
	do.Provide(injector, providers.ProvideAdminService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. This triggers lazy initialization of
// every provider in dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.ImageStorages](injector)
	_ = do.MustInvoke[*providers.ImagePipelines](injector)
	_ = do.MustInvoke[mail.Mailer](injector)
	_ = do.MustInvoke[*mail.Templates](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*auth.ActionTokenService](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	// Business services
	_ = do.MustInvoke[*service.NotificationService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.AccountService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.SocialService](injector)
	_ = do.MustInvoke[*service.PhotoService](injector)
	_ = do.MustInvoke[*service.CommentService](injector)
	_ = do.MustInvoke[*service.AdminService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
