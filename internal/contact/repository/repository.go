// Package repository implements contact message persistence on Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"furbabies_backend/platform/apperr"
)

const messageNotFoundMessage = "contact message not found"

// Message is a visitor-submitted contact form entry.
type Message struct {
	ID           uuid.UUID  `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	Phone        *string    `db:"phone"`
	Subject      string     `db:"subject"`
	Body         string     `db:"message"`
	Category     string     `db:"category"`
	Priority     string     `db:"priority"`
	Status       string     `db:"status"`
	RelatedPetID *uuid.UUID `db:"related_pet_id"`
	IPAddress    *string    `db:"ip_address"`
	UserAgent    *string    `db:"user_agent"`
	Response     *string    `db:"response"`
	RespondedBy  *uuid.UUID `db:"responded_by"`
	RespondedAt  *string    `db:"responded_at"`
	CreatedAt    string     `db:"created_at"`
	UpdatedAt    string     `db:"updated_at"`
}

// CreateMessageParams contains data for storing a new contact message.
type CreateMessageParams struct {
	Name         string
	Email        string
	Phone        *string
	Subject      string
	Body         string
	Category     string
	RelatedPetID *uuid.UUID
	IPAddress    *string
	UserAgent    *string
}

// StatusCount is the number of messages in one status.
type StatusCount struct {
	Status string
	Count  int
}

// Repository is the contact messages persistence contract.
type Repository interface {
	Create(ctx context.Context, params CreateMessageParams) (Message, error)
	GetByID(ctx context.Context, id uuid.UUID) (Message, error)
	List(ctx context.Context, status string, limit, offset int) ([]Message, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Message, error)
	SetResponse(ctx context.Context, id uuid.UUID, response string, respondedBy uuid.UUID) (Message, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
}

// Repo implements the contact repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new contact repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const messageColumns = `id, name, email, phone, subject, message, category, priority,
	status, related_pet_id, ip_address, user_agent, response, responded_by,
	responded_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (Message, error) {
	var msg Message
	var respondedAt *time.Time
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&msg.ID, &msg.Name, &msg.Email, &msg.Phone, &msg.Subject, &msg.Body,
		&msg.Category, &msg.Priority, &msg.Status, &msg.RelatedPetID,
		&msg.IPAddress, &msg.UserAgent, &msg.Response, &msg.RespondedBy,
		&respondedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return Message{}, err
	}

	if respondedAt != nil {
		formatted := respondedAt.Format(time.RFC3339)
		msg.RespondedAt = &formatted
	}
	msg.CreatedAt = createdAt.Format(time.RFC3339)
	msg.UpdatedAt = updatedAt.Format(time.RFC3339)
	return msg, nil
}

// Create stores a new message with status "new".
func (r *Repo) Create(ctx context.Context, params CreateMessageParams) (Message, error) {
	query := fmt.Sprintf(`
		INSERT INTO contact_messages (name, email, phone, subject, message, category, related_pet_id, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, messageColumns)

	msg, err := scanMessage(r.pool.QueryRow(ctx, query,
		params.Name, params.Email, params.Phone, params.Subject, params.Body,
		params.Category, params.RelatedPetID, params.IPAddress, params.UserAgent,
	))
	if err != nil {
		return Message{}, fmt.Errorf("create contact message: %w", err)
	}
	return msg, nil
}

// GetByID retrieves one message.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM contact_messages WHERE id = $1`, messageColumns)

	msg, err := scanMessage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, apperr.NotFound(messageNotFoundMessage)
		}
		return Message{}, fmt.Errorf("get contact message: %w", err)
	}
	return msg, nil
}

// List returns messages newest-first, optionally filtered by status.
func (r *Repo) List(ctx context.Context, status string, limit, offset int) ([]Message, int, error) {
	where := ""
	args := []any{limit, offset}
	if status != "" {
		where = "WHERE status = $3"
		args = append(args, status)
	}

	query := fmt.Sprintf(`SELECT %s FROM contact_messages %s ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		messageColumns, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list contact messages: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM contact_messages`
	countArgs := []any{}
	if status != "" {
		countQuery += ` WHERE status = $1`
		countArgs = append(countArgs, status)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact messages: %w", err)
	}

	return messages, total, nil
}

// UpdateStatus moves a message to a new status.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Message, error) {
	query := fmt.Sprintf(`
		UPDATE contact_messages
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, messageColumns)

	msg, err := scanMessage(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, apperr.NotFound(messageNotFoundMessage)
		}
		return Message{}, fmt.Errorf("update contact status: %w", err)
	}
	return msg, nil
}

// SetResponse stores the admin reply and flips the status to responded.
func (r *Repo) SetResponse(ctx context.Context, id uuid.UUID, response string, respondedBy uuid.UUID) (Message, error) {
	query := fmt.Sprintf(`
		UPDATE contact_messages
		SET response = $2, responded_by = $3, responded_at = now(),
			status = 'responded', updated_at = now()
		WHERE id = $1
		RETURNING %s`, messageColumns)

	msg, err := scanMessage(r.pool.QueryRow(ctx, query, id, response, respondedBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, apperr.NotFound(messageNotFoundMessage)
		}
		return Message{}, fmt.Errorf("set contact response: %w", err)
	}
	return msg, nil
}

// CountByStatus aggregates messages per status.
func (r *Repo) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM contact_messages GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count contact messages by status: %w", err)
	}
	defer rows.Close()

	counts := make([]StatusCount, 0)
	for rows.Next() {
		var count StatusCount
		if err := rows.Scan(&count.Status, &count.Count); err != nil {
			return nil, fmt.Errorf("count contact messages by status: %w", err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count contact messages by status: %w", err)
	}
	return counts, nil
}
