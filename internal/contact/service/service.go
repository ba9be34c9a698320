// Package service implements contact message intake and admin triage.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"furbabies_backend/internal/contact/repository"
	"furbabies_backend/internal/contact/transport"
	"furbabies_backend/internal/email"
	domainevents "furbabies_backend/internal/events"
	"furbabies_backend/platform/events"
	"furbabies_backend/platform/logger"
	"furbabies_backend/platform/phone"
	"furbabies_backend/platform/sanitize"
)

const (
	defaultSubject  = "General Inquiry"
	defaultCategory = "general"
)

// Service coordinates contact message operations.
type Service struct {
	repo   repository.Repository
	sender email.Sender
	bus    events.Bus
	log    *logger.Logger
}

// New creates a new contact service.
func New(repo repository.Repository, sender email.Sender, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, sender: sender, bus: bus, log: log}
}

// Submit stores a visitor message. Free-text fields are sanitized, the phone
// number is normalized to E.164, and the client address is recorded for abuse
// triage.
func (s *Service) Submit(ctx context.Context, req transport.SubmitMessageRequest, clientIP, userAgent string) (repository.Message, error) {
	subject := defaultSubject
	if req.Subject != nil && strings.TrimSpace(*req.Subject) != "" {
		subject = sanitize.Text(*req.Subject)
	}
	category := req.Category
	if category == "" {
		category = defaultCategory
	}

	var normalizedPhone *string
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		formatted := phone.NormalizeE164(*req.Phone)
		normalizedPhone = &formatted
	}

	params := repository.CreateMessageParams{
		Name:         sanitize.Text(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        normalizedPhone,
		Subject:      subject,
		Body:         sanitize.Text(req.Message),
		Category:     category,
		RelatedPetID: req.RelatedPetID,
	}
	if clientIP != "" {
		params.IPAddress = &clientIP
	}
	if userAgent != "" {
		params.UserAgent = &userAgent
	}

	msg, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Message{}, err
	}

	s.bus.Publish(ctx, domainevents.ContactMessageReceived{
		BaseEvent: events.NewBaseEvent(),
		MessageID: msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Category:  msg.Category,
	})
	return msg, nil
}

// List returns messages for the admin inbox.
func (s *Service) List(ctx context.Context, status string, page, pageSize int) ([]repository.Message, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.List(ctx, status, pageSize, (page-1)*pageSize)
}

// Get returns one message, marking fresh messages as read.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Message, error) {
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Message{}, err
	}
	if msg.Status == "new" {
		return s.repo.UpdateStatus(ctx, id, "read")
	}
	return msg, nil
}

// Respond stores the reply, emails the original sender, and publishes the
// response event. A failed email does not roll back the stored response.
func (s *Service) Respond(ctx context.Context, id, respondedBy uuid.UUID, response string) (repository.Message, error) {
	msg, err := s.repo.SetResponse(ctx, id, sanitize.Text(response), respondedBy)
	if err != nil {
		return repository.Message{}, err
	}

	if err := s.sender.SendContactResponse(ctx, msg.Email, msg.Subject, *msg.Response); err != nil {
		s.log.Warn("contact_response_email_failed", "message_id", id.String(), "error", err.Error())
	}

	s.bus.Publish(ctx, domainevents.ContactResponseSent{
		BaseEvent: events.NewBaseEvent(),
		MessageID: msg.ID,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Response:  *msg.Response,
	})
	return msg, nil
}

// UpdateStatus moves a message through the triage lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (repository.Message, error) {
	return s.repo.UpdateStatus(ctx, id, status)
}

// Stats aggregates the inbox by status.
func (s *Service) Stats(ctx context.Context) (transport.StatsResponse, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	stats := transport.StatsResponse{ByStatus: make(map[string]int, len(counts))}
	for _, count := range counts {
		stats.ByStatus[count.Status] = count.Count
		stats.Total += count.Count
	}
	return stats, nil
}
