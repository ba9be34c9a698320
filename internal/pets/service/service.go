// Package service implements pets business logic: listings, voting, ratings,
// and gallery management on top of the media manager.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	domainevents "furbabies_backend/internal/events"
	"furbabies_backend/internal/media"
	"furbabies_backend/internal/pets/repository"
	"furbabies_backend/internal/pets/transport"
	"furbabies_backend/platform/apperr"
	"furbabies_backend/platform/events"
	"furbabies_backend/platform/httpkit"
	"furbabies_backend/platform/logger"
	"furbabies_backend/platform/sanitize"
)

// imageFolder is the object store folder for all pet listing images.
const imageFolder = "pets"

const ratingsPreviewLimit = 5

// SweepScheduler enqueues background cleanup of orphaned store objects.
type SweepScheduler interface {
	EnqueueOrphanSweep(ctx context.Context, folder string) error
}

// Service coordinates pets operations.
type Service struct {
	repo       repository.Repository
	mediaMgr   *media.Manager
	bus        events.Bus
	sweeper    SweepScheduler
	log        *logger.Logger
	appBaseURL string
	maxBatch   int
}

// New creates a new pets service. sweeper may be nil when background
// scheduling is disabled.
func New(repo repository.Repository, mediaMgr *media.Manager, bus events.Bus, sweeper SweepScheduler, log *logger.Logger, appBaseURL string, maxBatch int) *Service {
	return &Service{
		repo:       repo,
		mediaMgr:   mediaMgr,
		bus:        bus,
		sweeper:    sweeper,
		log:        log,
		appBaseURL: appBaseURL,
		maxBatch:   maxBatch,
	}
}

// Create persists a new listing. An optional image is uploaded before the row
// exists, so its descriptor briefly has no owner id; the id is backfilled
// right after the insert.
func (s *Service) Create(ctx context.Context, identity httpkit.Identity, req transport.CreatePetRequest, image *media.File) (repository.Pet, error) {
	var gallery media.Gallery
	var imageURL *string

	if image != nil {
		desc, err := s.mediaMgr.UploadOne(ctx, *image, imageFolder, "")
		if err != nil {
			return repository.Pet{}, err
		}
		desc.IsMain = true
		gallery = media.Gallery{desc}
		imageURL = gallery.MainURL()
	}

	creatorID := identity.UserID()
	pet, err := s.repo.Create(ctx, repository.CreatePetParams{
		Name:        sanitize.Text(req.Name),
		Type:        req.Type,
		Breed:       sanitize.Text(req.Breed),
		Age:         req.Age,
		PriceCents:  req.PriceCents,
		Description: sanitize.Text(req.Description),
		Featured:    req.Featured,
		ImageURL:    imageURL,
		Gallery:     gallery,
		CreatedBy:   &creatorID,
	})
	if err != nil {
		return repository.Pet{}, err
	}

	if len(gallery) > 0 {
		pet.Gallery = pet.Gallery.BackfillOwner(pet.ID.String())
		if err := s.repo.UpdateGallery(ctx, pet.ID, pet.Gallery, pet.Gallery.MainURL()); err != nil {
			return repository.Pet{}, err
		}
	}

	s.bus.Publish(ctx, domainevents.PetCreated{
		BaseEvent: events.NewBaseEvent(),
		PetID:     pet.ID,
		CreatorID: creatorID,
		Name:      pet.Name,
		Type:      pet.Type,
	})
	return pet, nil
}

// Get returns one listing with its recent ratings.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Pet, []repository.Rating, error) {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Pet{}, nil, err
	}
	ratings, err := s.repo.ListRatings(ctx, id, ratingsPreviewLimit)
	if err != nil {
		return repository.Pet{}, nil, err
	}
	return pet, ratings, nil
}

// List returns all listings in the requested order.
func (s *Service) List(ctx context.Context, sort string) ([]repository.Pet, error) {
	return s.repo.List(ctx, sort)
}

// ListFeatured returns up to ten featured listings.
func (s *Service) ListFeatured(ctx context.Context) ([]repository.Pet, error) {
	return s.repo.ListFeatured(ctx, 10)
}

// ListByType returns listings of one pet type.
func (s *Service) ListByType(ctx context.Context, petType string) ([]repository.Pet, error) {
	return s.repo.ListByType(ctx, petType)
}

// Update applies partial changes. A new image, when supplied, joins the
// gallery as the new main image.
func (s *Service) Update(ctx context.Context, identity httpkit.Identity, id uuid.UUID, req transport.UpdatePetRequest, image *media.File) (repository.Pet, error) {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Pet{}, err
	}
	if err := s.authorize(identity, pet); err != nil {
		return repository.Pet{}, err
	}

	params := repository.UpdatePetParams{
		ID:          id,
		Name:        sanitize.TextPtr(req.Name),
		Type:        req.Type,
		Breed:       sanitize.TextPtr(req.Breed),
		Age:         req.Age,
		PriceCents:  req.PriceCents,
		Description: sanitize.TextPtr(req.Description),
		Available:   req.Available,
		Featured:    req.Featured,
	}

	if image != nil {
		desc, err := s.mediaMgr.UploadOne(ctx, *image, imageFolder, id.String())
		if err != nil {
			return repository.Pet{}, err
		}
		desc.IsMain = true
		gallery := pet.Gallery
		for i := range gallery {
			gallery[i].IsMain = false
		}
		gallery = append(gallery, desc)

		params.Gallery = gallery
		params.SetGallery = true
		params.ImageURL = gallery.MainURL()
	}

	return s.repo.Update(ctx, params)
}

// Delete removes the listing, purges its objects best-effort, and schedules
// the orphan sweep to reclaim anything the purge missed.
func (s *Service) Delete(ctx context.Context, identity httpkit.Identity, id uuid.UUID) error {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(identity, pet); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.mediaMgr.PurgeAll(ctx, pet.Gallery)

	if s.sweeper != nil {
		if err := s.sweeper.EnqueueOrphanSweep(ctx, imageFolder); err != nil {
			s.log.Warn("orphan_sweep_enqueue_failed", "pet_id", id.String(), "error", err.Error())
		}
	}

	s.bus.Publish(ctx, domainevents.PetDeleted{
		BaseEvent: events.NewBaseEvent(),
		PetID:     id,
		Folder:    imageFolder,
	})
	return nil
}

// Vote records an up/down vote; same-direction repeats toggle the vote off.
func (s *Service) Vote(ctx context.Context, identity httpkit.Identity, id uuid.UUID, voteType string) (repository.VoteResult, error) {
	if voteType != "up" && voteType != "down" {
		return repository.VoteResult{}, apperr.Validation("voteType must be up or down")
	}
	return s.repo.Vote(ctx, id, identity.UserID(), voteType)
}

// Rate records or revises a 1-5 rating with an optional comment.
func (s *Service) Rate(ctx context.Context, identity httpkit.Identity, id uuid.UUID, rating int, comment string) (repository.RatingSummary, error) {
	if rating < 1 || rating > 5 {
		return repository.RatingSummary{}, apperr.Validation("rating must be between 1 and 5")
	}
	return s.repo.Rate(ctx, id, identity.UserID(), rating, sanitize.Text(comment))
}

// AddImages uploads a batch into the listing's gallery. New images join as
// non-main; if the gallery was empty the first success becomes main.
func (s *Service) AddImages(ctx context.Context, identity httpkit.Identity, id uuid.UUID, files []media.File) (media.BatchResult, media.Gallery, error) {
	if len(files) == 0 {
		return media.BatchResult{}, nil, apperr.Validation("no image files provided")
	}
	if len(files) > s.maxBatch {
		return media.BatchResult{}, nil, apperr.Validation("too many files in one upload")
	}

	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return media.BatchResult{}, nil, err
	}
	if err := s.authorize(identity, pet); err != nil {
		return media.BatchResult{}, nil, err
	}

	result, err := s.mediaMgr.UploadBatch(ctx, files, imageFolder, id.String())
	if err != nil {
		return media.BatchResult{}, nil, err
	}

	gallery := append(pet.Gallery, result.Succeeded...)
	gallery = gallery.Normalize()
	if err := s.repo.UpdateGallery(ctx, id, gallery, gallery.MainURL()); err != nil {
		return media.BatchResult{}, nil, err
	}
	return result, gallery, nil
}

// SetMainImage promotes one gallery image to main.
func (s *Service) SetMainImage(ctx context.Context, identity httpkit.Identity, id uuid.UUID, objectKey string) (media.Gallery, error) {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(identity, pet); err != nil {
		return nil, err
	}

	gallery, err := s.mediaMgr.SetMain(pet.Gallery, objectKey)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateGallery(ctx, id, gallery, gallery.MainURL()); err != nil {
		return nil, err
	}
	return gallery, nil
}

// RemoveImage drops one image from the gallery, re-electing a main image
// when needed.
func (s *Service) RemoveImage(ctx context.Context, identity httpkit.Identity, id uuid.UUID, objectKey string) (media.Gallery, error) {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(identity, pet); err != nil {
		return nil, err
	}

	gallery, err := s.mediaMgr.Remove(ctx, pet.Gallery, objectKey)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateGallery(ctx, id, gallery, gallery.MainURL()); err != nil {
		return nil, err
	}
	return gallery, nil
}

// ShareQR renders a QR code PNG linking to the listing's adoption page.
func (s *Service) ShareQR(ctx context.Context, id uuid.UUID) ([]byte, error) {
	pet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(s.appBaseURL+"/pets/"+pet.ID.String(), qrcode.Medium, 256)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to render QR code", err)
	}
	return png, nil
}

// Stats aggregates marketplace statistics.
func (s *Service) Stats(ctx context.Context) (repository.StatsOverview, []repository.TypeStat, error) {
	return s.repo.Stats(ctx)
}

// BulkUpdate applies flags to many listings. Admin only.
func (s *Service) BulkUpdate(ctx context.Context, identity httpkit.Identity, req transport.BulkUpdateRequest) (int64, error) {
	if !identity.IsAdmin() {
		return 0, apperr.Forbidden("admin access required")
	}
	return s.repo.BulkUpdate(ctx, repository.BulkUpdateParams{
		IDs:       req.PetIDs,
		Available: req.Available,
		Featured:  req.Featured,
	})
}

// authorize permits the listing's creator and admins. Listings without a
// recorded creator are open to any authenticated user, matching legacy rows.
func (s *Service) authorize(identity httpkit.Identity, pet repository.Pet) error {
	if pet.CreatedBy == nil {
		return nil
	}
	if *pet.CreatedBy == identity.UserID() || identity.IsAdmin() {
		return nil
	}
	return apperr.Forbidden("not authorized to modify this pet")
}
