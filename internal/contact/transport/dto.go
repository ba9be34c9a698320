package transport

import "github.com/google/uuid"

type SubmitMessageRequest struct {
	Name         string     `json:"name" validate:"required,min=1,max=100"`
	Email        string     `json:"email" validate:"required,email"`
	Phone        *string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	Subject      *string    `json:"subject,omitempty" validate:"omitempty,max=200"`
	Message      string     `json:"message" validate:"required,min=10,max=2000"`
	Category     string     `json:"category" validate:"omitempty,oneof=general adoption support complaint suggestion partnership"`
	RelatedPetID *uuid.UUID `json:"relatedPetId,omitempty"`
}

type ListMessagesRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=new read responded resolved closed"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new read responded resolved closed"`
}

type RespondRequest struct {
	Response string `json:"response" validate:"required,min=1,max=5000"`
}

type MessageResponse struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone,omitempty"`
	Subject      string     `json:"subject"`
	Message      string     `json:"message"`
	Category     string     `json:"category"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	RelatedPetID *uuid.UUID `json:"relatedPetId,omitempty"`
	Response     *string    `json:"response,omitempty"`
	RespondedAt  *string    `json:"respondedAt,omitempty"`
	CreatedAt    string     `json:"createdAt"`
	UpdatedAt    string     `json:"updatedAt"`
}

type MessageListResponse struct {
	Items    []MessageResponse `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

type StatsResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}
