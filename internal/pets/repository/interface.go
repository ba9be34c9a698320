package repository

import (
	"context"

	"github.com/google/uuid"

	"furbabies_backend/internal/media"
)

// Pet is a marketplace listing. The gallery is persisted as a JSONB array on
// the row; ImageURL mirrors the main image's public URL for older clients.
type Pet struct {
	ID          uuid.UUID     `db:"id"`
	Name        string        `db:"name"`
	Type        string        `db:"type"`
	Breed       string        `db:"breed"`
	Age         int           `db:"age"`
	PriceCents  int64         `db:"price_cents"`
	Description string        `db:"description"`
	Available   bool          `db:"available"`
	Featured    bool          `db:"featured"`
	ImageURL    *string       `db:"image"`
	Gallery     media.Gallery `db:"cloud_images"`
	VotesUp     int           `db:"votes_up"`
	VotesDown   int           `db:"votes_down"`
	CreatedBy   *uuid.UUID    `db:"created_by"`
	CreatedAt   string        `db:"created_at"`
	UpdatedAt   string        `db:"updated_at"`
}

// Rating is one user's rating of a pet.
type Rating struct {
	UserID    uuid.UUID `db:"user_id"`
	Username  string    `db:"username"`
	Rating    int       `db:"rating"`
	Comment   string    `db:"comment"`
	UpdatedAt string    `db:"updated_at"`
}

// CreatePetParams contains data for creating a pet listing.
type CreatePetParams struct {
	Name        string
	Type        string
	Breed       string
	Age         int
	PriceCents  int64
	Description string
	Featured    bool
	ImageURL    *string
	Gallery     media.Gallery
	CreatedBy   *uuid.UUID
}

// UpdatePetParams contains data for updating a pet listing. Nil fields are
// left unchanged.
type UpdatePetParams struct {
	ID          uuid.UUID
	Name        *string
	Type        *string
	Breed       *string
	Age         *int
	PriceCents  *int64
	Description *string
	Available   *bool
	Featured    *bool
	ImageURL    *string
	Gallery     media.Gallery
	SetGallery  bool
}

// BulkUpdateParams applies the same changes to many pets at once.
type BulkUpdateParams struct {
	IDs       []uuid.UUID
	Available *bool
	Featured  *bool
}

// VoteResult is the post-vote tally plus the caller's current vote.
type VoteResult struct {
	Up       int
	Down     int
	UserVote *string
}

// RatingSummary is the post-rating aggregate for a pet.
type RatingSummary struct {
	Average float64
	Total   int
}

// StatsOverview aggregates listing-wide counters.
type StatsOverview struct {
	TotalPets     int
	AvailablePets int
	AdoptedPets   int
	AvgPriceCents float64
	TotalVotes    int
	AvgRating     float64
}

// TypeStat aggregates per pet type.
type TypeStat struct {
	Type          string
	Count         int
	AvgPriceCents float64
}

// Repository is the pets persistence contract.
type Repository interface {
	Create(ctx context.Context, params CreatePetParams) (Pet, error)
	GetByID(ctx context.Context, id uuid.UUID) (Pet, error)
	List(ctx context.Context, sort string) ([]Pet, error)
	ListFeatured(ctx context.Context, limit int) ([]Pet, error)
	ListByType(ctx context.Context, petType string) ([]Pet, error)
	Update(ctx context.Context, params UpdatePetParams) (Pet, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateGallery persists the gallery and the mirrored legacy URL.
	UpdateGallery(ctx context.Context, id uuid.UUID, gallery media.Gallery, imageURL *string) error
	// ListAllObjectKeys returns every object key referenced by any gallery,
	// thumbnails included. Used by the orphan sweep.
	ListAllObjectKeys(ctx context.Context) ([]string, error)

	Vote(ctx context.Context, petID, userID uuid.UUID, voteType string) (VoteResult, error)
	Rate(ctx context.Context, petID, userID uuid.UUID, rating int, comment string) (RatingSummary, error)
	ListRatings(ctx context.Context, petID uuid.UUID, limit int) ([]Rating, error)

	Stats(ctx context.Context) (StatsOverview, []TypeStat, error)
	BulkUpdate(ctx context.Context, params BulkUpdateParams) (int64, error)
}
