package mail

import "fmt"

// Templates builds the messages sent for account actions.
// Links point at the public base URL so they work from any mail client.
type Templates struct {
	serverName string
	baseURL    string
}

// NewTemplates creates a template set for the given server name and base URL.
func NewTemplates(serverName, baseURL string) *Templates {
	return &Templates{serverName: serverName, baseURL: baseURL}
}

// Confirm builds the account confirmation message.
func (t *Templates) Confirm(to, name, token string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s - Confirm your account", t.serverName),
		Body: fmt.Sprintf(
			"Hello %s,\n\nWelcome to %s! Confirm your account by opening this link:\n\n%s/api/v1/auth/confirm?token=%s\n\nIf you did not register, ignore this email.\n",
			name, t.serverName, t.baseURL, token),
	}
}

// ResetPassword builds the password reset message.
func (t *Templates) ResetPassword(to, name, token string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s - Reset your password", t.serverName),
		Body: fmt.Sprintf(
			"Hello %s,\n\nTo reset your password, open this link:\n\n%s/reset-password?token=%s\n\nIf you did not request a reset, ignore this email and your password stays unchanged.\n",
			name, t.baseURL, token),
	}
}

// ChangeEmail builds the email change confirmation message, sent to the new address.
func (t *Templates) ChangeEmail(to, name, token string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s - Confirm your new email address", t.serverName),
		Body: fmt.Sprintf(
			"Hello %s,\n\nConfirm your new email address by opening this link:\n\n%s/api/v1/account/email/confirm?token=%s\n\nIf you did not request this change, ignore this email.\n",
			name, t.baseURL, token),
	}
}
