// Package handler exposes the accounts HTTP API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"furbabies_backend/internal/auth/repository"
	"furbabies_backend/internal/auth/service"
	"furbabies_backend/internal/auth/transport"
	"furbabies_backend/platform/httpkit"
	"furbabies_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for accounts.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new auth handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Register creates an account.
// POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	user, token, err := h.svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.AuthResponse{Token: token, User: toUserResponse(user)})
}

// Login authenticates by email or username.
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	user, token, err := h.svc.Login(c.Request.Context(), req.Identifier, req.Password)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AuthResponse{Token: token, User: toUserResponse(user)})
}

// Profile returns the authenticated user's account.
// GET /api/v1/auth/profile
func (h *Handler) Profile(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	user, err := h.svc.Profile(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toUserResponse(user))
}

func toUserResponse(user repository.User) transport.UserResponse {
	return transport.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Roles:     user.Roles,
		CreatedAt: user.CreatedAt,
	}
}
