// Package handler exposes the pets HTTP API.
package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"furbabies_backend/internal/media"
	"furbabies_backend/internal/pets/repository"
	"furbabies_backend/internal/pets/service"
	"furbabies_backend/internal/pets/transport"
	"furbabies_backend/platform/httpkit"
	"furbabies_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid pet id"
)

// Handler handles HTTP requests for pets.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new pets handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListPets retrieves all pets with optional sorting.
// GET /api/v1/pets?sort=newest|oldest|priceHigh|priceLow
func (h *Handler) ListPets(c *gin.Context) {
	var req transport.ListPetsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	pets, err := h.svc.List(c.Request.Context(), req.Sort)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toListResponse(pets))
}

// GetFeaturedPets retrieves the featured listings.
// GET /api/v1/pets/featured
func (h *Handler) GetFeaturedPets(c *gin.Context) {
	pets, err := h.svc.ListFeatured(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toListResponse(pets))
}

// GetPetsByType retrieves listings of one type.
// GET /api/v1/pets/type/:type
func (h *Handler) GetPetsByType(c *gin.Context) {
	pets, err := h.svc.ListByType(c.Request.Context(), c.Param("type"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toListResponse(pets))
}

// GetPet retrieves one listing with recent ratings.
// GET /api/v1/pets/:id
func (h *Handler) GetPet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	pet, ratings, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toDetailResponse(pet, ratings))
}

// CreatePet creates a listing from a multipart form with an optional image.
// POST /api/v1/pets
func (h *Handler) CreatePet(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreatePetRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	image, ok := optionalFile(c, "image")
	if !ok {
		return
	}

	pet, err := h.svc.Create(c.Request.Context(), identity, req, image)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toPetResponse(pet))
}

// UpdatePet applies partial changes, optionally adding a new main image.
// PUT /api/v1/pets/:id
func (h *Handler) UpdatePet(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdatePetRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	image, ok := optionalFile(c, "image")
	if !ok {
		return
	}

	pet, err := h.svc.Update(c.Request.Context(), identity, id, req, image)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toPetResponse(pet))
}

// DeletePet removes a listing and its stored images.
// DELETE /api/v1/pets/:id
func (h *Handler) DeletePet(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), identity, id)) {
		return
	}
	httpkit.OK(c, gin.H{"message": "pet deleted"})
}

// VotePet records an up/down vote.
// POST /api/v1/pets/:id/vote
func (h *Handler) VotePet(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Vote(c.Request.Context(), identity, id, req.VoteType)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.VoteResponse{
		VotesUp:   result.Up,
		VotesDown: result.Down,
		UserVote:  result.UserVote,
	})
}

// RatePet records or revises a rating.
// POST /api/v1/pets/:id/rate
func (h *Handler) RatePet(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	summary, err := h.svc.Rate(c.Request.Context(), identity, id, req.Rating, req.Comment)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RateResponse{
		AverageRating: summary.Average,
		TotalRatings:  summary.Total,
		UserRating:    req.Rating,
	})
}

// AddImages uploads a batch of images into the gallery.
// POST /api/v1/pets/:id/images (multipart field "images")
func (h *Handler) AddImages(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "multipart form required", nil)
		return
	}

	headers := form.File["images"]
	files := make([]media.File, 0, len(headers))
	for _, header := range headers {
		file, readErr := readFile(header)
		if readErr != nil {
			httpkit.Error(c, http.StatusBadRequest, "failed to read uploaded file", header.Filename)
			return
		}
		files = append(files, file)
	}

	result, gallery, err := h.svc.AddImages(c.Request.Context(), identity, id, files)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.UploadImagesResponse{
		Uploaded: result.Succeeded,
		Failed:   make([]transport.UploadFailure, 0, len(result.Failed)),
		Images:   gallery,
	}
	for _, failure := range result.Failed {
		resp.Failed = append(resp.Failed, transport.UploadFailure{
			OriginalName: failure.OriginalName,
			Error:        failure.Err.Error(),
		})
	}

	status := http.StatusCreated
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	httpkit.JSON(c, status, resp)
}

// SetMainImage promotes a gallery image to main.
// PUT /api/v1/pets/:id/images/main
func (h *Handler) SetMainImage(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		ObjectKey string `json:"objectKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	gallery, err := h.svc.SetMainImage(c.Request.Context(), identity, id, req.ObjectKey)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.GalleryResponse{Images: gallery, ImageURL: gallery.MainURL()})
}

// RemoveImage deletes one image from the gallery.
// DELETE /api/v1/pets/:id/images?key={objectKey}
func (h *Handler) RemoveImage(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	objectKey := c.Query("key")
	if objectKey == "" {
		httpkit.Error(c, http.StatusBadRequest, "key query parameter is required", nil)
		return
	}

	gallery, err := h.svc.RemoveImage(c.Request.Context(), identity, id, objectKey)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.GalleryResponse{Images: gallery, ImageURL: gallery.MainURL()})
}

// ShareQR renders a QR code PNG linking to the listing.
// GET /api/v1/pets/:id/share-qr
func (h *Handler) ShareQR(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	png, err := h.svc.ShareQR(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GetStats aggregates marketplace statistics.
// GET /api/v1/pets/stats
func (h *Handler) GetStats(c *gin.Context) {
	overview, byType, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.StatsResponse{
		Overview: transport.StatsOverviewResponse{
			TotalPets:     overview.TotalPets,
			AvailablePets: overview.AvailablePets,
			AdoptedPets:   overview.AdoptedPets,
			AvgPriceCents: overview.AvgPriceCents,
			TotalVotes:    overview.TotalVotes,
			AvgRating:     overview.AvgRating,
		},
		ByType: make([]transport.TypeStatResponse, 0, len(byType)),
	}
	for _, stat := range byType {
		resp.ByType = append(resp.ByType, transport.TypeStatResponse{
			Type:          stat.Type,
			Count:         stat.Count,
			AvgPriceCents: stat.AvgPriceCents,
		})
	}
	httpkit.OK(c, resp)
}

// BulkUpdate applies flags to many listings at once.
// PATCH /api/v1/admin/pets/bulk
func (h *Handler) BulkUpdate(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	modified, err := h.svc.BulkUpdate(c.Request.Context(), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BulkUpdateResponse{ModifiedCount: modified})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// optionalFile reads the named multipart file if present. The bool reports
// whether handling may continue.
func optionalFile(c *gin.Context, field string) (*media.File, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		// Missing file is fine; the field is optional.
		return nil, true
	}
	file, err := readFile(header)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read uploaded file", header.Filename)
		return nil, false
	}
	return &file, true
}

func readFile(header *multipart.FileHeader) (media.File, error) {
	opened, err := header.Open()
	if err != nil {
		return media.File{}, err
	}
	defer opened.Close()

	data, err := io.ReadAll(opened)
	if err != nil {
		return media.File{}, err
	}
	return media.File{Data: data, OriginalName: header.Filename}, nil
}

func toPetResponse(pet repository.Pet) transport.PetResponse {
	return transport.PetResponse{
		ID:          pet.ID,
		Name:        pet.Name,
		Type:        pet.Type,
		Breed:       pet.Breed,
		Age:         pet.Age,
		PriceCents:  pet.PriceCents,
		Description: pet.Description,
		Available:   pet.Available,
		Featured:    pet.Featured,
		ImageURL:    pet.ImageURL,
		Images:      pet.Gallery,
		VotesUp:     pet.VotesUp,
		VotesDown:   pet.VotesDown,
		CreatedBy:   pet.CreatedBy,
		CreatedAt:   pet.CreatedAt,
		UpdatedAt:   pet.UpdatedAt,
	}
}

func toDetailResponse(pet repository.Pet, ratings []repository.Rating) transport.PetDetailResponse {
	resp := transport.PetDetailResponse{
		PetResponse: toPetResponse(pet),
		Ratings:     make([]transport.RatingResponse, 0, len(ratings)),
	}
	var sum int
	for _, rating := range ratings {
		sum += rating.Rating
		resp.Ratings = append(resp.Ratings, transport.RatingResponse{
			UserID:    rating.UserID,
			Username:  rating.Username,
			Rating:    rating.Rating,
			Comment:   rating.Comment,
			UpdatedAt: rating.UpdatedAt,
		})
	}
	resp.TotalRatings = len(ratings)
	if len(ratings) > 0 {
		resp.AverageRating = float64(sum) / float64(len(ratings))
	}
	return resp
}

func toListResponse(pets []repository.Pet) transport.PetListResponse {
	items := make([]transport.PetResponse, 0, len(pets))
	for _, pet := range pets {
		items = append(items, toPetResponse(pet))
	}
	return transport.PetListResponse{Items: items, Total: len(items)}
}
