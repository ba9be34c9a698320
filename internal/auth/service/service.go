// Package service implements account registration, login, and token issuance.
package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"furbabies_backend/internal/auth/repository"
	domainevents "furbabies_backend/internal/events"
	"furbabies_backend/platform/apperr"
	"furbabies_backend/platform/config"
	"furbabies_backend/platform/events"
	"furbabies_backend/platform/logger"
)

const bcryptCost = 12

// Service coordinates account operations.
type Service struct {
	repo repository.Repository
	cfg  config.AuthServiceConfig
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new auth service.
func New(repo repository.Repository, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log}
}

// Register creates an account and returns the user plus an access token.
func (s *Service) Register(ctx context.Context, username, email, password string) (repository.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return repository.User{}, "", apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	user, err := s.repo.Create(ctx, repository.CreateUserParams{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{"user"},
	})
	if err != nil {
		s.log.AuthEvent("register", email, false, err.Error())
		return repository.User{}, "", err
	}

	token, err := s.issueAccessToken(user)
	if err != nil {
		return repository.User{}, "", err
	}

	s.log.AuthEvent("register", user.Email, true, "")
	s.bus.Publish(ctx, domainevents.UserSignedUp{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
	})
	return user, token, nil
}

// Login authenticates by email or username. Lookup and password failures
// return the same error to avoid account enumeration.
func (s *Service) Login(ctx context.Context, identifier, password string) (repository.User, string, error) {
	invalid := apperr.Unauthorized("invalid credentials")

	user, err := s.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		s.log.AuthEvent("login", identifier, false, "unknown identifier")
		return repository.User{}, "", invalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.AuthEvent("login", identifier, false, "wrong password")
		return repository.User{}, "", invalid
	}

	token, err := s.issueAccessToken(user)
	if err != nil {
		return repository.User{}, "", err
	}

	s.log.AuthEvent("login", user.Email, true, "")
	return user, token, nil
}

// Profile returns the account for an authenticated user.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) issueAccessToken(user repository.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"roles": user.Roles,
		"type":  "access",
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to sign token", err)
	}
	return signed, nil
}
