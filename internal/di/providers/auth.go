package providers

import (
	"github.com/samber/do/v2"

	"github.com/MingruiWang2017/albumy/internal/auth"
	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	// Update config with the loaded key
	cfg.Auth.TokenKey = key

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"action_token_duration", cfg.Auth.ActionTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO access token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.AccessTokenDuration)
}

// ProvideActionTokenService provides the token service for mailed
// confirmation, password reset, and email change links.
func ProvideActionTokenService(i do.Injector) (*auth.ActionTokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewActionTokenService([]byte(authKey), cfg.Auth.ActionTokenDuration)
}
