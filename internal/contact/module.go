// Package contact provides the contact messages bounded context module.
package contact

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"furbabies_backend/internal/contact/handler"
	"furbabies_backend/internal/contact/repository"
	"furbabies_backend/internal/contact/service"
	"furbabies_backend/internal/email"
	apphttp "furbabies_backend/internal/http"
	"furbabies_backend/platform/events"
	"furbabies_backend/platform/logger"
	"furbabies_backend/platform/validator"
)

// Module is the contact bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the contact module.
func NewModule(pool *pgxpool.Pool, sender email.Sender, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, sender, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contact"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts contact routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public intake, throttled like the auth endpoints.
	ctx.V1.POST("/contact", ctx.AuthRateLimiter.RateLimit(), m.handler.Submit)

	// Admin triage
	adminGroup := ctx.Admin.Group("/contact")
	adminGroup.GET("", m.handler.List)
	adminGroup.GET("/stats", m.handler.Stats)
	adminGroup.GET("/:id", m.handler.Get)
	adminGroup.POST("/:id/respond", m.handler.Respond)
	adminGroup.PATCH("/:id/status", m.handler.UpdateStatus)
}

var _ apphttp.Module = (*Module)(nil)
