// Package repository implements user account persistence on Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"furbabies_backend/platform/apperr"
)

const userNotFoundMessage = "user not found"

// User is a registered account. Roles is a text array; "admin" grants
// elevated privileges.
type User struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Roles        []string  `db:"roles"`
	CreatedAt    string    `db:"created_at"`
	UpdatedAt    string    `db:"updated_at"`
}

// CreateUserParams contains data for registering a user.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
}

// Repository is the accounts persistence contract.
type Repository interface {
	Create(ctx context.Context, params CreateUserParams) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByIdentifier(ctx context.Context, identifier string) (User, error)
}

// Repo implements the accounts repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new accounts repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const userColumns = `id, username, email, password_hash, roles, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var user User
	var createdAt, updatedAt time.Time
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Roles, &createdAt, &updatedAt)
	if err != nil {
		return User{}, err
	}
	user.CreatedAt = createdAt.Format(time.RFC3339)
	user.UpdatedAt = updatedAt.Format(time.RFC3339)
	return user, nil
}

// Create inserts a user. Username and email collisions map to conflict errors.
func (r *Repo) Create(ctx context.Context, params CreateUserParams) (User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (username, email, password_hash, roles)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		params.Username, strings.ToLower(params.Email), params.PasswordHash, params.Roles,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, apperr.Conflict("username or email is already taken")
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by id.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByIdentifier retrieves a user by email or username.
func (r *Repo) GetByIdentifier(ctx context.Context, identifier string) (User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 OR username = $2`, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query, strings.ToLower(identifier), identifier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by identifier: %w", err)
	}
	return user, nil
}
