// Package pets provides the pet listings bounded context module.
package pets

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "furbabies_backend/internal/http"
	"furbabies_backend/internal/media"
	"furbabies_backend/internal/pets/handler"
	"furbabies_backend/internal/pets/repository"
	"furbabies_backend/internal/pets/service"
	"furbabies_backend/platform/events"
	"furbabies_backend/platform/logger"
	"furbabies_backend/platform/validator"
)

// Module is the pets bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the pets module. sweeper may be nil when
// background scheduling is disabled.
func NewModule(pool *pgxpool.Pool, mediaMgr *media.Manager, bus events.Bus, sweeper service.SweepScheduler, val *validator.Validator, log *logger.Logger, appBaseURL string, maxBatch int) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, mediaMgr, bus, sweeper, log, appBaseURL, maxBatch)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pets"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts pets routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public read-only endpoints
	ctx.V1.GET("/pets", m.handler.ListPets)
	ctx.V1.GET("/pets/featured", m.handler.GetFeaturedPets)
	ctx.V1.GET("/pets/stats", m.handler.GetStats)
	ctx.V1.GET("/pets/type/:type", m.handler.GetPetsByType)
	ctx.V1.GET("/pets/:id", m.handler.GetPet)
	ctx.V1.GET("/pets/:id/share-qr", m.handler.ShareQR)

	// Authenticated endpoints
	upload := ctx.UploadRateLimiter.RateLimit()
	vote := ctx.VoteRateLimiter.RateLimit()
	ctx.Protected.POST("/pets", upload, m.handler.CreatePet)
	ctx.Protected.PUT("/pets/:id", upload, m.handler.UpdatePet)
	ctx.Protected.DELETE("/pets/:id", m.handler.DeletePet)
	ctx.Protected.POST("/pets/:id/vote", vote, m.handler.VotePet)
	ctx.Protected.POST("/pets/:id/rate", vote, m.handler.RatePet)
	ctx.Protected.POST("/pets/:id/images", upload, m.handler.AddImages)
	ctx.Protected.PUT("/pets/:id/images/main", m.handler.SetMainImage)
	ctx.Protected.DELETE("/pets/:id/images", m.handler.RemoveImage)

	// Admin endpoints
	ctx.Admin.PATCH("/pets/bulk", m.handler.BulkUpdate)
}

var _ apphttp.Module = (*Module)(nil)
