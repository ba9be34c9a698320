// Package notification reacts to domain events with outbound email.
package notification

import (
	"context"

	"furbabies_backend/internal/email"
	domainevents "furbabies_backend/internal/events"
	"furbabies_backend/platform/events"
	"furbabies_backend/platform/logger"
)

// Module subscribes to domain events and dispatches email notifications.
// It registers no HTTP routes.
type Module struct {
	sender email.Sender
	log    *logger.Logger
}

// NewModule creates the notification module.
func NewModule(sender email.Sender, log *logger.Logger) *Module {
	return &Module{sender: sender, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterHandlers subscribes to the domain events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(domainevents.ContactMessageReceivedName, m)
	bus.Subscribe(domainevents.UserSignedUpName, m)
}

// Handle routes events to the appropriate notification.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case domainevents.ContactMessageReceived:
		m.log.Info("contact_notification_dispatch", "message_id", e.MessageID.String())
		return m.sender.SendContactNotification(ctx, email.ContactNotification{
			Name:     e.Name,
			Email:    e.Email,
			Subject:  e.Subject,
			Category: e.Category,
		})
	case domainevents.UserSignedUp:
		m.log.Info("welcome_email_dispatch", "user_id", e.UserID.String())
		return m.sender.SendWelcomeEmail(ctx, e.Email, e.Username)
	default:
		return nil
	}
}

var _ events.Handler = (*Module)(nil)
