package providers

import (
	"github.com/samber/do/v2"

	"github.com/MingruiWang2017/albumy/internal/auth"
	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/mail"
	"github.com/MingruiWang2017/albumy/internal/service"
	"github.com/MingruiWang2017/albumy/internal/validation"
)

// ProvideNotificationService provides the in-app notification service.
func ProvideNotificationService(i do.Injector) (*service.NotificationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNotificationService(storeHandle.Store, cfg, log), nil
}

// ProvideAuthService provides the registration and login service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	actionTokens := do.MustInvoke[*auth.ActionTokenService](i)
	mailer := do.MustInvoke[mail.Mailer](i)
	templates := do.MustInvoke[*mail.Templates](i)
	validator := do.MustInvoke[*validation.Validator](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, actionTokens, mailer, templates, validator, cfg, log), nil
}

// ProvideAccountService provides the account management service.
func ProvideAccountService(i do.Injector) (*service.AccountService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	actionTokens := do.MustInvoke[*auth.ActionTokenService](i)
	mailer := do.MustInvoke[mail.Mailer](i)
	templates := do.MustInvoke[*mail.Templates](i)
	validator := do.MustInvoke[*validation.Validator](i)
	storages := do.MustInvoke[*ImageStorages](i)
	pipelines := do.MustInvoke[*ImagePipelines](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAccountService(
		storeHandle.Store,
		actionTokens,
		mailer,
		templates,
		validator,
		pipelines.Avatars,
		storages.Avatars,
		storages.Photos,
		cfg,
		log,
	), nil
}

// ProvideUserService provides the public profile service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, cfg, log), nil
}

// ProvideSocialService provides the follow and collect service.
func ProvideSocialService(i do.Injector) (*service.SocialService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSocialService(storeHandle.Store, notifications, cfg, log), nil
}

// ProvidePhotoService provides the photo upload and browsing service.
func ProvidePhotoService(i do.Injector) (*service.PhotoService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storages := do.MustInvoke[*ImageStorages](i)
	pipelines := do.MustInvoke[*ImagePipelines](i)
	validator := do.MustInvoke[*validation.Validator](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPhotoService(storeHandle.Store, pipelines.Photos, storages.Photos, validator, cfg, log), nil
}

// ProvideCommentService provides the comment service.
func ProvideCommentService(i do.Injector) (*service.CommentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommentService(storeHandle.Store, notifications, validator, cfg, log), nil
}

// ProvideAdminService provides the moderation service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAdminService(storeHandle.Store, cfg, log), nil
}
