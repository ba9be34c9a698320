// Package email sends transactional mail over SMTP.
package email

import "context"

// ContactNotification is the payload for the new-message alert sent to the
// site's contact inbox.
type ContactNotification struct {
	Name     string
	Email    string
	Subject  string
	Category string
	Message  string
}

// Sender is the outbound email contract. Implementations must be safe for
// concurrent use.
type Sender interface {
	// SendContactNotification alerts the contact inbox about a new message.
	SendContactNotification(ctx context.Context, notification ContactNotification) error
	// SendContactResponse delivers an admin's reply to the original sender.
	SendContactResponse(ctx context.Context, to, subject, response string) error
	// SendWelcomeEmail greets a freshly registered user.
	SendWelcomeEmail(ctx context.Context, to, username string) error
}

// NoopSender is used when SMTP is not configured; every send succeeds
// silently.
type NoopSender struct{}

func (NoopSender) SendContactNotification(context.Context, ContactNotification) error { return nil }
func (NoopSender) SendContactResponse(context.Context, string, string, string) error  { return nil }
func (NoopSender) SendWelcomeEmail(context.Context, string, string) error             { return nil }

var _ Sender = NoopSender{}
