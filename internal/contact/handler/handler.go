// Package handler exposes the contact messages HTTP API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"furbabies_backend/internal/contact/repository"
	"furbabies_backend/internal/contact/service"
	"furbabies_backend/internal/contact/transport"
	"furbabies_backend/platform/httpkit"
	"furbabies_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid message id"
)

// Handler handles HTTP requests for contact messages.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new contact handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Submit accepts a visitor contact message.
// POST /api/v1/contact
func (h *Handler) Submit(c *gin.Context) {
	var req transport.SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	msg, err := h.svc.Submit(c.Request.Context(), req, c.ClientIP(), c.Request.UserAgent())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toMessageResponse(msg))
}

// List returns the admin inbox.
// GET /api/v1/admin/contact?status=new&page=1&pageSize=20
func (h *Handler) List(c *gin.Context) {
	var req transport.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}

	messages, total, err := h.svc.List(c.Request.Context(), req.Status, req.Page, req.PageSize)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.MessageListResponse{
		Items:    make([]transport.MessageResponse, 0, len(messages)),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	for _, msg := range messages {
		resp.Items = append(resp.Items, toMessageResponse(msg))
	}
	httpkit.OK(c, resp)
}

// Get returns one message, marking it read.
// GET /api/v1/admin/contact/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	msg, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toMessageResponse(msg))
}

// Respond stores and emails an admin reply.
// POST /api/v1/admin/contact/:id/respond
func (h *Handler) Respond(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	msg, err := h.svc.Respond(c.Request.Context(), id, identity.UserID(), req.Response)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toMessageResponse(msg))
}

// UpdateStatus moves a message through the triage lifecycle.
// PATCH /api/v1/admin/contact/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	msg, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toMessageResponse(msg))
}

// Stats aggregates the inbox by status.
// GET /api/v1/admin/contact/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func toMessageResponse(msg repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:           msg.ID,
		Name:         msg.Name,
		Email:        msg.Email,
		Phone:        msg.Phone,
		Subject:      msg.Subject,
		Message:      msg.Body,
		Category:     msg.Category,
		Priority:     msg.Priority,
		Status:       msg.Status,
		RelatedPetID: msg.RelatedPetID,
		Response:     msg.Response,
		RespondedAt:  msg.RespondedAt,
		CreatedAt:    msg.CreatedAt,
		UpdatedAt:    msg.UpdatedAt,
	}
}
