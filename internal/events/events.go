// Package events defines the domain events exchanged between modules over
// the platform event bus.
package events

import (
	"github.com/google/uuid"

	"furbabies_backend/platform/events"
)

// Event names.
const (
	UserSignedUpName           = "user.signed_up"
	PetCreatedName             = "pet.created"
	PetDeletedName             = "pet.deleted"
	ContactMessageReceivedName = "contact.message_received"
	ContactResponseSentName    = "contact.response_sent"
)

// UserSignedUp fires after a successful registration.
type UserSignedUp struct {
	events.BaseEvent
	UserID   uuid.UUID
	Email    string
	Username string
}

func (UserSignedUp) EventName() string { return UserSignedUpName }

// PetCreated fires after a listing is persisted, images included.
type PetCreated struct {
	events.BaseEvent
	PetID     uuid.UUID
	CreatorID uuid.UUID
	Name      string
	Type      string
}

func (PetCreated) EventName() string { return PetCreatedName }

// PetDeleted fires after a listing row is gone and its gallery purge has been
// dispatched. Subscribers use it to schedule the orphan sweep.
type PetDeleted struct {
	events.BaseEvent
	PetID  uuid.UUID
	Folder string
}

func (PetDeleted) EventName() string { return PetDeletedName }

// ContactMessageReceived fires when a visitor submits the contact form.
type ContactMessageReceived struct {
	events.BaseEvent
	MessageID uuid.UUID
	Name      string
	Email     string
	Subject   string
	Category  string
}

func (ContactMessageReceived) EventName() string { return ContactMessageReceivedName }

// ContactResponseSent fires when an admin responds to a contact message.
type ContactResponseSent struct {
	events.BaseEvent
	MessageID uuid.UUID
	Email     string
	Subject   string
	Response  string
}

func (ContactResponseSent) EventName() string { return ContactResponseSentName }
