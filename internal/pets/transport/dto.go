package transport

import (
	"github.com/google/uuid"

	"furbabies_backend/internal/media"
)

// Pet listings

type CreatePetRequest struct {
	Name        string `form:"name" validate:"required,min=1,max=100"`
	Type        string `form:"type" validate:"required,oneof=dog cat bird fish rabbit hamster reptile other"`
	Breed       string `form:"breed" validate:"required,min=1,max=100"`
	Age         int    `form:"age" validate:"min=0,max=100"`
	PriceCents  int64  `form:"priceCents" validate:"min=0"`
	Description string `form:"description" validate:"required,min=10,max=2000"`
	Featured    bool   `form:"featured"`
}

type UpdatePetRequest struct {
	Name        *string `form:"name" validate:"omitempty,min=1,max=100"`
	Type        *string `form:"type" validate:"omitempty,oneof=dog cat bird fish rabbit hamster reptile other"`
	Breed       *string `form:"breed" validate:"omitempty,min=1,max=100"`
	Age         *int    `form:"age" validate:"omitempty,min=0,max=100"`
	PriceCents  *int64  `form:"priceCents" validate:"omitempty,min=0"`
	Description *string `form:"description" validate:"omitempty,min=10,max=2000"`
	Available   *bool   `form:"available"`
	Featured    *bool   `form:"featured"`
}

type ListPetsRequest struct {
	Sort string `form:"sort" validate:"omitempty,oneof=newest oldest priceHigh priceLow"`
}

type PetResponse struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Breed       string        `json:"breed"`
	Age         int           `json:"age"`
	PriceCents  int64         `json:"priceCents"`
	Description string        `json:"description"`
	Available   bool          `json:"available"`
	Featured    bool          `json:"featured"`
	ImageURL    *string       `json:"image"`
	Images      media.Gallery `json:"cloudImages"`
	VotesUp     int           `json:"votesUp"`
	VotesDown   int           `json:"votesDown"`
	CreatedBy   *uuid.UUID    `json:"createdBy,omitempty"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
}

type PetDetailResponse struct {
	PetResponse
	Ratings       []RatingResponse `json:"ratings"`
	AverageRating float64          `json:"averageRating"`
	TotalRatings  int              `json:"totalRatings"`
}

type PetListResponse struct {
	Items []PetResponse `json:"items"`
	Total int           `json:"total"`
}

// Votes and ratings

type VoteRequest struct {
	VoteType string `json:"voteType" validate:"required,oneof=up down"`
}

type VoteResponse struct {
	VotesUp   int     `json:"votesUp"`
	VotesDown int     `json:"votesDown"`
	UserVote  *string `json:"userVote"`
}

type RateRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=500"`
}

type RatingResponse struct {
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	UpdatedAt string    `json:"updatedAt"`
}

type RateResponse struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
	UserRating    int     `json:"userRating"`
}

// Gallery management

type UploadFailure struct {
	OriginalName string `json:"originalName"`
	Error        string `json:"error"`
}

type UploadImagesResponse struct {
	Uploaded []media.Descriptor `json:"uploaded"`
	Failed   []UploadFailure    `json:"failed"`
	Images   media.Gallery      `json:"cloudImages"`
}

type GalleryResponse struct {
	Images   media.Gallery `json:"cloudImages"`
	ImageURL *string       `json:"image"`
}

// Admin

type BulkUpdateRequest struct {
	PetIDs    []uuid.UUID `json:"petIds" validate:"required,min=1,max=100"`
	Available *bool       `json:"available"`
	Featured  *bool       `json:"featured"`
}

type BulkUpdateResponse struct {
	ModifiedCount int64 `json:"modifiedCount"`
}

// Stats

type StatsOverviewResponse struct {
	TotalPets     int     `json:"totalPets"`
	AvailablePets int     `json:"availablePets"`
	AdoptedPets   int     `json:"adoptedPets"`
	AvgPriceCents float64 `json:"avgPriceCents"`
	TotalVotes    int     `json:"totalVotes"`
	AvgRating     float64 `json:"avgRating"`
}

type TypeStatResponse struct {
	Type          string  `json:"type"`
	Count         int     `json:"count"`
	AvgPriceCents float64 `json:"avgPriceCents"`
}

type StatsResponse struct {
	Overview StatsOverviewResponse `json:"overview"`
	ByType   []TypeStatResponse    `json:"byType"`
}
