// Package repository implements pets persistence on Postgres.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"furbabies_backend/internal/media"
	"furbabies_backend/platform/apperr"
)

const petNotFoundMessage = "pet not found"

const petColumns = `id, name, type, breed, age, price_cents, description,
	available, featured, image, cloud_images, votes_up, votes_down,
	created_by, created_at, updated_at`

// Repo implements the pets repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new pets repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (Pet, error) {
	var pet Pet
	var galleryRaw []byte
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&pet.ID, &pet.Name, &pet.Type, &pet.Breed, &pet.Age, &pet.PriceCents,
		&pet.Description, &pet.Available, &pet.Featured, &pet.ImageURL,
		&galleryRaw, &pet.VotesUp, &pet.VotesDown, &pet.CreatedBy,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return Pet{}, err
	}

	if len(galleryRaw) > 0 {
		if err := json.Unmarshal(galleryRaw, &pet.Gallery); err != nil {
			return Pet{}, fmt.Errorf("decode gallery: %w", err)
		}
	}

	pet.CreatedAt = createdAt.Format(time.RFC3339)
	pet.UpdatedAt = updatedAt.Format(time.RFC3339)
	return pet, nil
}

func encodeGallery(gallery media.Gallery) ([]byte, error) {
	if gallery == nil {
		gallery = media.Gallery{}
	}
	raw, err := json.Marshal(gallery)
	if err != nil {
		return nil, fmt.Errorf("encode gallery: %w", err)
	}
	return raw, nil
}

// Create inserts a pet listing.
func (r *Repo) Create(ctx context.Context, params CreatePetParams) (Pet, error) {
	galleryRaw, err := encodeGallery(params.Gallery)
	if err != nil {
		return Pet{}, err
	}

	query := fmt.Sprintf(`
		INSERT INTO pets (name, type, breed, age, price_cents, description, featured, image, cloud_images, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING %s`, petColumns)

	pet, err := scanPet(r.pool.QueryRow(ctx, query,
		params.Name, params.Type, params.Breed, params.Age, params.PriceCents,
		params.Description, params.Featured, params.ImageURL, galleryRaw, params.CreatedBy,
	))
	if err != nil {
		return Pet{}, fmt.Errorf("create pet: %w", err)
	}
	return pet, nil
}

// GetByID retrieves one pet.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Pet, error) {
	query := fmt.Sprintf(`SELECT %s FROM pets WHERE id = $1`, petColumns)

	pet, err := scanPet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pet{}, apperr.NotFound(petNotFoundMessage)
		}
		return Pet{}, fmt.Errorf("get pet by id: %w", err)
	}
	return pet, nil
}

// List returns all pets ordered by the requested sort option. Unknown sorts
// fall back to newest-first.
func (r *Repo) List(ctx context.Context, sort string) ([]Pet, error) {
	orderBy := "created_at DESC"
	switch sort {
	case "oldest":
		orderBy = "created_at ASC"
	case "priceHigh":
		orderBy = "price_cents DESC"
	case "priceLow":
		orderBy = "price_cents ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM pets ORDER BY %s`, petColumns, orderBy)
	return r.queryPets(ctx, "list pets", query)
}

// ListFeatured returns up to limit featured pets.
func (r *Repo) ListFeatured(ctx context.Context, limit int) ([]Pet, error) {
	query := fmt.Sprintf(`SELECT %s FROM pets WHERE featured = true ORDER BY created_at DESC LIMIT $1`, petColumns)
	return r.queryPets(ctx, "list featured pets", query, limit)
}

// ListByType returns pets of one type.
func (r *Repo) ListByType(ctx context.Context, petType string) ([]Pet, error) {
	query := fmt.Sprintf(`SELECT %s FROM pets WHERE type = $1 ORDER BY created_at DESC`, petColumns)
	return r.queryPets(ctx, "list pets by type", query, petType)
}

func (r *Repo) queryPets(ctx context.Context, op, query string, args ...any) ([]Pet, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	pets := make([]Pet, 0)
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pets = append(pets, pet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pets, nil
}

// Update applies partial changes to a pet.
func (r *Repo) Update(ctx context.Context, params UpdatePetParams) (Pet, error) {
	var galleryRaw []byte
	if params.SetGallery {
		var err error
		galleryRaw, err = encodeGallery(params.Gallery)
		if err != nil {
			return Pet{}, err
		}
	}

	query := fmt.Sprintf(`
		UPDATE pets
		SET name = COALESCE($2, name),
			type = COALESCE($3, type),
			breed = COALESCE($4, breed),
			age = COALESCE($5, age),
			price_cents = COALESCE($6, price_cents),
			description = COALESCE($7, description),
			available = COALESCE($8, available),
			featured = COALESCE($9, featured),
			image = CASE WHEN $10 THEN $11 ELSE image END,
			cloud_images = COALESCE($12, cloud_images),
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, petColumns)

	pet, err := scanPet(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Type, params.Breed, params.Age,
		params.PriceCents, params.Description, params.Available, params.Featured,
		params.SetGallery, params.ImageURL, galleryRaw,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Pet{}, apperr.NotFound(petNotFoundMessage)
		}
		return Pet{}, fmt.Errorf("update pet: %w", err)
	}
	return pet, nil
}

// Delete removes a pet row. Votes and ratings cascade.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(petNotFoundMessage)
	}
	return nil
}

// UpdateGallery persists the gallery array and the mirrored legacy image URL.
// Plain read-modify-write: the last writer wins, matching single-row
// document semantics.
func (r *Repo) UpdateGallery(ctx context.Context, id uuid.UUID, gallery media.Gallery, imageURL *string) error {
	galleryRaw, err := encodeGallery(gallery)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx,
		`UPDATE pets SET cloud_images = $2, image = $3, updated_at = now() WHERE id = $1`,
		id, galleryRaw, imageURL,
	)
	if err != nil {
		return fmt.Errorf("update gallery: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(petNotFoundMessage)
	}
	return nil
}

// ListAllObjectKeys collects every object key referenced by any pet gallery.
func (r *Repo) ListAllObjectKeys(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT cloud_images FROM pets`)
	if err != nil {
		return nil, fmt.Errorf("list object keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("list object keys: %w", err)
		}
		if len(raw) == 0 {
			continue
		}
		var gallery media.Gallery
		if err := json.Unmarshal(raw, &gallery); err != nil {
			return nil, fmt.Errorf("list object keys: decode gallery: %w", err)
		}
		keys = append(keys, gallery.ObjectKeys()...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list object keys: %w", err)
	}
	return keys, nil
}

// Vote records, switches, or retracts a user's vote inside one transaction.
// Voting the same direction twice toggles the vote off.
func (r *Repo) Vote(ctx context.Context, petID, userID uuid.UUID, voteType string) (VoteResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return VoteResult{}, fmt.Errorf("vote: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var up, down int
	err = tx.QueryRow(ctx, `SELECT votes_up, votes_down FROM pets WHERE id = $1 FOR UPDATE`, petID).Scan(&up, &down)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VoteResult{}, apperr.NotFound(petNotFoundMessage)
		}
		return VoteResult{}, fmt.Errorf("vote: lock pet: %w", err)
	}

	var existing string
	err = tx.QueryRow(ctx, `SELECT vote_type FROM pet_votes WHERE pet_id = $1 AND user_id = $2`, petID, userID).Scan(&existing)

	var userVote *string
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := tx.Exec(ctx,
			`INSERT INTO pet_votes (pet_id, user_id, vote_type) VALUES ($1, $2, $3)`,
			petID, userID, voteType,
		); err != nil {
			return VoteResult{}, fmt.Errorf("vote: insert: %w", err)
		}
		up, down = bump(up, down, voteType, 1)
		userVote = &voteType

	case err != nil:
		return VoteResult{}, fmt.Errorf("vote: read existing: %w", err)

	case existing == voteType:
		if _, err := tx.Exec(ctx,
			`DELETE FROM pet_votes WHERE pet_id = $1 AND user_id = $2`, petID, userID,
		); err != nil {
			return VoteResult{}, fmt.Errorf("vote: retract: %w", err)
		}
		up, down = bump(up, down, voteType, -1)

	default:
		if _, err := tx.Exec(ctx,
			`UPDATE pet_votes SET vote_type = $3, voted_at = now() WHERE pet_id = $1 AND user_id = $2`,
			petID, userID, voteType,
		); err != nil {
			return VoteResult{}, fmt.Errorf("vote: switch: %w", err)
		}
		up, down = bump(up, down, existing, -1)
		up, down = bump(up, down, voteType, 1)
		userVote = &voteType
	}

	if _, err := tx.Exec(ctx,
		`UPDATE pets SET votes_up = $2, votes_down = $3, updated_at = now() WHERE id = $1`,
		petID, up, down,
	); err != nil {
		return VoteResult{}, fmt.Errorf("vote: update tally: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return VoteResult{}, fmt.Errorf("vote: commit: %w", err)
	}
	return VoteResult{Up: up, Down: down, UserVote: userVote}, nil
}

func bump(up, down int, voteType string, delta int) (int, int) {
	if voteType == "up" {
		up += delta
	} else {
		down += delta
	}
	if up < 0 {
		up = 0
	}
	if down < 0 {
		down = 0
	}
	return up, down
}

// Rate upserts a user's rating and returns the new aggregate.
func (r *Repo) Rate(ctx context.Context, petID, userID uuid.UUID, rating int, comment string) (RatingSummary, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pets WHERE id = $1)`, petID).Scan(&exists)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("rate: check pet: %w", err)
	}
	if !exists {
		return RatingSummary{}, apperr.NotFound(petNotFoundMessage)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO pet_ratings (pet_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pet_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = now()`,
		petID, userID, rating, comment,
	)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("rate: upsert: %w", err)
	}

	var summary RatingSummary
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM pet_ratings WHERE pet_id = $1`, petID,
	).Scan(&summary.Average, &summary.Total)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("rate: aggregate: %w", err)
	}
	return summary, nil
}

// ListRatings returns the most recent ratings for a pet.
func (r *Repo) ListRatings(ctx context.Context, petID uuid.UUID, limit int) ([]Rating, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pr.user_id, u.username, pr.rating, pr.comment, pr.updated_at
		FROM pet_ratings pr
		JOIN users u ON u.id = pr.user_id
		WHERE pr.pet_id = $1
		ORDER BY pr.updated_at DESC
		LIMIT $2`, petID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	ratings := make([]Rating, 0)
	for rows.Next() {
		var rating Rating
		var updatedAt time.Time
		if err := rows.Scan(&rating.UserID, &rating.Username, &rating.Rating, &rating.Comment, &updatedAt); err != nil {
			return nil, fmt.Errorf("list ratings: %w", err)
		}
		rating.UpdatedAt = updatedAt.Format(time.RFC3339)
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return ratings, nil
}

// Stats aggregates listing-wide and per-type statistics.
func (r *Repo) Stats(ctx context.Context) (StatsOverview, []TypeStat, error) {
	var overview StatsOverview
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE available),
			COALESCE(AVG(price_cents), 0),
			COALESCE(SUM(votes_up + votes_down), 0)
		FROM pets`,
	).Scan(&overview.TotalPets, &overview.AvailablePets, &overview.AvgPriceCents, &overview.TotalVotes)
	if err != nil {
		return StatsOverview{}, nil, fmt.Errorf("stats: overview: %w", err)
	}
	overview.AdoptedPets = overview.TotalPets - overview.AvailablePets

	err = r.pool.QueryRow(ctx, `SELECT COALESCE(AVG(rating), 0) FROM pet_ratings`).Scan(&overview.AvgRating)
	if err != nil {
		return StatsOverview{}, nil, fmt.Errorf("stats: avg rating: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT type, COUNT(*), COALESCE(AVG(price_cents), 0)
		FROM pets
		GROUP BY type
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return StatsOverview{}, nil, fmt.Errorf("stats: by type: %w", err)
	}
	defer rows.Close()

	byType := make([]TypeStat, 0)
	for rows.Next() {
		var stat TypeStat
		if err := rows.Scan(&stat.Type, &stat.Count, &stat.AvgPriceCents); err != nil {
			return StatsOverview{}, nil, fmt.Errorf("stats: by type: %w", err)
		}
		byType = append(byType, stat)
	}
	if err := rows.Err(); err != nil {
		return StatsOverview{}, nil, fmt.Errorf("stats: by type: %w", err)
	}
	return overview, byType, nil
}

// BulkUpdate applies availability/featured flags to many pets at once.
func (r *Repo) BulkUpdate(ctx context.Context, params BulkUpdateParams) (int64, error) {
	if len(params.IDs) == 0 {
		return 0, apperr.Validation("pet ids are required")
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE pets
		SET available = COALESCE($2, available),
			featured = COALESCE($3, featured),
			updated_at = now()
		WHERE id = ANY($1)`,
		params.IDs, params.Available, params.Featured,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk update pets: %w", err)
	}
	return result.RowsAffected(), nil
}
