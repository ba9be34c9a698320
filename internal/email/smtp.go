package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"furbabies_backend/platform/config"
	"furbabies_backend/platform/logger"
)

// SMTPSender sends mail through a configured SMTP relay using go-mail.
type SMTPSender struct {
	cfg config.EmailConfig
	log *logger.Logger
}

// NewSender returns the SMTP sender when email is configured, otherwise the
// no-op sender.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if !cfg.GetEmailEnabled() {
		log.Info("email_disabled")
		return NoopSender{}
	}
	return &SMTPSender{cfg: cfg, log: log}
}

var _ Sender = (*SMTPSender)(nil)

func (s *SMTPSender) SendContactNotification(ctx context.Context, n ContactNotification) error {
	inbox := s.cfg.GetContactInboxAddress()
	if inbox == "" {
		return nil
	}

	subject := fmt.Sprintf("[%s] New contact message: %s", n.Category, n.Subject)
	body := fmt.Sprintf("From: %s <%s>\n\n%s", n.Name, n.Email, n.Message)
	return s.send(ctx, inbox, subject, body)
}

func (s *SMTPSender) SendContactResponse(ctx context.Context, to, subject, response string) error {
	return s.send(ctx, to, "Re: "+subject, response)
}

func (s *SMTPSender) SendWelcomeEmail(ctx context.Context, to, username string) error {
	body := fmt.Sprintf("Hi %s,\n\nWelcome to FurBabies! Your account is ready.\n\nThe FurBabies team", username)
	return s.send(ctx, to, "Welcome to FurBabies", body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.GetEmailFromName(), s.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(s.cfg.GetSMTPHost(),
		mail.WithPort(s.cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.GetSMTPUsername()),
		mail.WithPassword(s.cfg.GetSMTPPassword()),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	s.log.Info("email_sent", "to", to, "subject", subject)
	return nil
}
