// Package email sends transactional mail for notifications.
package email

import (
	"context"
	"fmt"

	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers a message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPSender delivers mail over SMTP.
type SMTPSender struct {
	cfg    config.EmailConfig
	logger *logger.Logger
}

func NewSMTPSender(cfg config.EmailConfig, log *logger.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: log}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.GetEmailFromName(), s.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("remitente: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("destinatario %s: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	client, err := gomail.NewClient(s.cfg.GetSMTPHost(),
		gomail.WithPort(s.cfg.GetSMTPPort()),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.GetSMTPUsername()),
		gomail.WithPassword(s.cfg.GetSMTPPassword()),
	)
	if err != nil {
		return fmt.Errorf("cliente smtp: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("enviar correo a %s: %w", to, err)
	}
	s.logger.Info("correo enviado", "to", to, "subject", subject)
	return nil
}

// NoopSender drops mail, used when email delivery is disabled.
type NoopSender struct {
	logger *logger.Logger
}

func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{logger: log}
}

func (s *NoopSender) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Debug("correo descartado (envío deshabilitado)", "to", to, "subject", subject)
	return nil
}
