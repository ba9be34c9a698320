// Package auth provides the accounts bounded context module.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"furbabies_backend/internal/auth/handler"
	"furbabies_backend/internal/auth/repository"
	"furbabies_backend/internal/auth/service"
	authvalidator "furbabies_backend/internal/auth/validator"
	apphttp "furbabies_backend/internal/http"
	"furbabies_backend/platform/config"
	"furbabies_backend/platform/events"
	"furbabies_backend/platform/logger"
	"furbabies_backend/platform/validator"
)

// Module is the accounts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := authvalidator.Register(val); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, cfg, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	limit := ctx.AuthRateLimiter.RateLimit()
	ctx.V1.POST("/auth/register", limit, m.handler.Register)
	ctx.V1.POST("/auth/login", limit, m.handler.Login)
	ctx.Protected.GET("/auth/profile", m.handler.Profile)
}

var _ apphttp.Module = (*Module)(nil)
