package auth

import (
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/MingruiWang2017/albumy/internal/id"
)

// Action identifies a single-purpose operation authorized by an emailed token.
type Action string

const (
	ActionConfirm       Action = "confirm"
	ActionResetPassword Action = "reset_password"
	ActionChangeEmail   Action = "change_email"
)

const actionTokenAudience = "albumy-action"

// ActionClaims are the claims carried by an email action token.
type ActionClaims struct {
	UserID string `json:"user_id"`
	Action Action `json:"action"`
	// NewEmail is set only for change-email tokens; the address takes
	// effect when the token is redeemed, not when it is issued.
	NewEmail string `json:"new_email,omitempty"`

	TokenID string `json:"jti"`
}

// ActionTokenService issues and verifies single-purpose PASETO tokens sent by
// email for account confirmation, password resets, and email changes.
// Verification fails closed: any parse, expiry, or claim mismatch yields an error.
type ActionTokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
}

// NewActionTokenService creates an action token service from a 32-byte symmetric key.
func NewActionTokenService(key []byte, duration time.Duration) (*ActionTokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &ActionTokenService{
		symmetricKey: symmetricKey,
		duration:     duration,
	}, nil
}

// Issue creates a token authorizing the action for the user.
// newEmail must be empty unless the action is ActionChangeEmail.
func (s *ActionTokenService) Issue(userID string, action Action, newEmail string) (string, error) {
	if action != ActionChangeEmail && newEmail != "" {
		return "", fmt.Errorf("new email only valid for change-email tokens")
	}

	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(userID)
	token.SetAudience(actionTokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.duration))

	tokenID, err := id.Generate("atoken")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("user_id", userID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("action", string(action))
	if newEmail != "" {
		//nolint:errcheck // Token.Set only errors on invalid types, which we control
		_ = token.Set("new_email", newEmail)
	}

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify checks that the token is valid and authorizes the expected action.
// Returns the claims, which identify the user the token was issued for.
func (s *ActionTokenService) Verify(tokenString string, expected Action) (*ActionClaims, error) {
	parser := paseto.NewParser()

	parser.AddRule(paseto.ForAudience(actionTokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims ActionClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	if claims.Action != expected {
		return nil, fmt.Errorf("token action mismatch")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token missing user")
	}

	return &claims, nil
}

// Duration returns the configured action token lifetime.
func (s *ActionTokenService) Duration() time.Duration {
	return s.duration
}
