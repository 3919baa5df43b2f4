package providers

import (
	"github.com/samber/do/v2"

	"github.com/MingruiWang2017/albumy/internal/config"
	"github.com/MingruiWang2017/albumy/internal/logger"
	"github.com/MingruiWang2017/albumy/internal/mail"
	"github.com/MingruiWang2017/albumy/internal/validation"
)

// ProvideMailer provides the outgoing mailer. Without an SMTP host
// configured, mail is written to the log instead of sent.
func ProvideMailer(i do.Injector) (mail.Mailer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Mail.Enabled {
		log.Info("Mail disabled, messages will be logged")
		return mail.NewLogMailer(log), nil
	}

	mailer, err := mail.NewSMTPMailer(cfg.Mail, log)
	if err != nil {
		return nil, err
	}

	log.Info("Mail configured", "host", cfg.Mail.Host, "port", cfg.Mail.Port)
	return mailer, nil
}

// ProvideTemplates provides the email template set.
func ProvideTemplates(i do.Injector) (*mail.Templates, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return mail.NewTemplates(cfg.Server.Name, cfg.Server.BaseURL), nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
