package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"furbabies_backend/internal/media"
	"furbabies_backend/internal/pets/repository"
	"furbabies_backend/internal/pets/transport"
	"furbabies_backend/internal/storage"
	"furbabies_backend/platform/apperr"
	"furbabies_backend/platform/events"
	"furbabies_backend/platform/httpkit"
	"furbabies_backend/platform/logger"
)

// fakeRepo is an in-memory pets repository.
type fakeRepo struct {
	pets map[uuid.UUID]repository.Pet
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{pets: make(map[uuid.UUID]repository.Pet)}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreatePetParams) (repository.Pet, error) {
	pet := repository.Pet{
		ID:          uuid.New(),
		Name:        params.Name,
		Type:        params.Type,
		Breed:       params.Breed,
		Age:         params.Age,
		PriceCents:  params.PriceCents,
		Description: params.Description,
		Available:   true,
		Featured:    params.Featured,
		ImageURL:    params.ImageURL,
		Gallery:     params.Gallery,
		CreatedBy:   params.CreatedBy,
	}
	f.pets[pet.ID] = pet
	return pet, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Pet, error) {
	pet, ok := f.pets[id]
	if !ok {
		return repository.Pet{}, apperr.NotFound("pet not found")
	}
	return pet, nil
}

func (f *fakeRepo) List(context.Context, string) ([]repository.Pet, error)       { return nil, nil }
func (f *fakeRepo) ListFeatured(context.Context, int) ([]repository.Pet, error)  { return nil, nil }
func (f *fakeRepo) ListByType(context.Context, string) ([]repository.Pet, error) { return nil, nil }

func (f *fakeRepo) Update(_ context.Context, params repository.UpdatePetParams) (repository.Pet, error) {
	pet, ok := f.pets[params.ID]
	if !ok {
		return repository.Pet{}, apperr.NotFound("pet not found")
	}
	if params.Name != nil {
		pet.Name = *params.Name
	}
	if params.Available != nil {
		pet.Available = *params.Available
	}
	if params.SetGallery {
		pet.Gallery = params.Gallery
		pet.ImageURL = params.ImageURL
	}
	f.pets[params.ID] = pet
	return pet, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.pets[id]; !ok {
		return apperr.NotFound("pet not found")
	}
	delete(f.pets, id)
	return nil
}

func (f *fakeRepo) UpdateGallery(_ context.Context, id uuid.UUID, gallery media.Gallery, imageURL *string) error {
	pet, ok := f.pets[id]
	if !ok {
		return apperr.NotFound("pet not found")
	}
	pet.Gallery = gallery
	pet.ImageURL = imageURL
	f.pets[id] = pet
	return nil
}

func (f *fakeRepo) ListAllObjectKeys(context.Context) ([]string, error) {
	var keys []string
	for _, pet := range f.pets {
		keys = append(keys, pet.Gallery.ObjectKeys()...)
	}
	return keys, nil
}

func (f *fakeRepo) Vote(_ context.Context, petID, _ uuid.UUID, voteType string) (repository.VoteResult, error) {
	if _, ok := f.pets[petID]; !ok {
		return repository.VoteResult{}, apperr.NotFound("pet not found")
	}
	return repository.VoteResult{Up: 1, UserVote: &voteType}, nil
}

func (f *fakeRepo) Rate(_ context.Context, petID, _ uuid.UUID, rating int, _ string) (repository.RatingSummary, error) {
	if _, ok := f.pets[petID]; !ok {
		return repository.RatingSummary{}, apperr.NotFound("pet not found")
	}
	return repository.RatingSummary{Average: float64(rating), Total: 1}, nil
}

func (f *fakeRepo) ListRatings(context.Context, uuid.UUID, int) ([]repository.Rating, error) {
	return nil, nil
}

func (f *fakeRepo) Stats(context.Context) (repository.StatsOverview, []repository.TypeStat, error) {
	return repository.StatsOverview{}, nil, nil
}

func (f *fakeRepo) BulkUpdate(_ context.Context, params repository.BulkUpdateParams) (int64, error) {
	return int64(len(params.IDs)), nil
}

var _ repository.Repository = (*fakeRepo)(nil)

// fakeSweeper records sweep enqueues.
type fakeSweeper struct {
	folders []string
}

func (f *fakeSweeper) EnqueueOrphanSweep(_ context.Context, folder string) error {
	f.folders = append(f.folders, folder)
	return nil
}

var pngMagic = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func newTestService(t *testing.T) (*Service, *fakeRepo, *storage.MemoryStore, *fakeSweeper) {
	t.Helper()
	repo := newFakeRepo()
	store := storage.NewMemoryStore("pet-images")
	log := logger.New("development")
	mgr := media.NewManager(store, media.NoopDeriver{}, log, 0)
	sweeper := &fakeSweeper{}
	svc := New(repo, mgr, events.NewInMemoryBus(log), sweeper, log, "https://furbabies.example", 5)
	return svc, repo, store, sweeper
}

func validCreateRequest() transport.CreatePetRequest {
	return transport.CreatePetRequest{
		Name:        "Rex",
		Type:        "dog",
		Breed:       "Labrador",
		Age:         3,
		PriceCents:  25000,
		Description: "A very friendly labrador looking for a home.",
	}
}

func TestCreateWithImageBackfillsOwner(t *testing.T) {
	svc, repo, store, _ := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(),
		&media.File{Data: pngMagic, OriginalName: "rex.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pet.Gallery) != 1 {
		t.Fatalf("want 1 image, got %d", len(pet.Gallery))
	}
	if !pet.Gallery[0].IsMain {
		t.Error("first image on create should be main")
	}
	if pet.Gallery[0].OwnerID != pet.ID.String() {
		t.Errorf("owner id not backfilled: %q", pet.Gallery[0].OwnerID)
	}

	stored := repo.pets[pet.ID]
	if stored.ImageURL == nil || *stored.ImageURL != pet.Gallery[0].PublicURL {
		t.Error("legacy image URL should mirror the main image")
	}
	if !store.Has(pet.Gallery[0].ObjectKey) {
		t.Error("image object should be in the store")
	}
}

func TestCreateSanitizesInput(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	req := validCreateRequest()
	req.Name = "<script>alert(1)</script>Rex"
	req.Description = "A very <b>friendly</b> labrador looking for a home."

	pet, err := svc.Create(context.Background(), httpkit.NewIdentity(uuid.New()), req, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pet.Name != "alert(1)Rex" {
		t.Errorf("name not sanitized: %q", pet.Name)
	}
	if pet.Description != "A very friendly labrador looking for a home." {
		t.Errorf("description not sanitized: %q", pet.Description)
	}
}

func TestUpdateDeniedForStranger(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stranger := httpkit.NewIdentity(uuid.New())
	name := "Stolen"
	_, err = svc.Update(context.Background(), stranger, pet.ID, transport.UpdatePetRequest{Name: &name}, nil)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("want forbidden, got %v", err)
	}
}

func TestUpdateAllowedForAdmin(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	admin := httpkit.NewIdentity(uuid.New(), httpkit.AdminRole)
	name := "Rexford"
	updated, err := svc.Update(context.Background(), admin, pet.ID, transport.UpdatePetRequest{Name: &name}, nil)
	if err != nil {
		t.Fatalf("admin update should succeed: %v", err)
	}
	if updated.Name != "Rexford" {
		t.Errorf("name not updated: %q", updated.Name)
	}
}

func TestUpdateWithNewImagePromotesIt(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(),
		&media.File{Data: pngMagic, OriginalName: "old.png"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), owner, pet.ID, transport.UpdatePetRequest{},
		&media.File{Data: pngMagic, OriginalName: "new.png"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(updated.Gallery) != 2 {
		t.Fatalf("want 2 images, got %d", len(updated.Gallery))
	}
	if updated.Gallery.MainCount() != 1 {
		t.Fatalf("want exactly one main, got %d", updated.Gallery.MainCount())
	}
	if !updated.Gallery[1].IsMain || updated.Gallery[1].OriginalName != "new.png" {
		t.Error("the new image should be main")
	}
	if updated.ImageURL == nil || *updated.ImageURL != updated.Gallery[1].PublicURL {
		t.Error("legacy URL should follow the new main image")
	}
}

func TestDeletePurgesAndSchedulesSweep(t *testing.T) {
	svc, repo, store, sweeper := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(),
		&media.File{Data: pngMagic, OriginalName: "rex.png"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), owner, pet.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, ok := repo.pets[pet.ID]; ok {
		t.Error("pet row should be gone")
	}
	if store.Len() != 0 {
		t.Errorf("gallery objects should be purged, %d left", store.Len())
	}
	if len(sweeper.folders) != 1 || sweeper.folders[0] != "pets" {
		t.Errorf("sweep should be enqueued for the pets folder, got %v", sweeper.folders)
	}
}

func TestAddImagesFirstBecomesMainOnEmptyGallery(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, gallery, err := svc.AddImages(context.Background(), owner, pet.ID, []media.File{
		{Data: pngMagic, OriginalName: "a.png"},
		{Data: pngMagic, OriginalName: "b.png"},
	})
	if err != nil {
		t.Fatalf("add images: %v", err)
	}

	if gallery.MainCount() != 1 || !gallery[0].IsMain {
		t.Error("first image into an empty gallery should become main")
	}
	if repo.pets[pet.ID].ImageURL == nil {
		t.Error("legacy URL should be set once images exist")
	}
}

func TestAddImagesKeepsExistingMain(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(),
		&media.File{Data: pngMagic, OriginalName: "main.png"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, gallery, err := svc.AddImages(context.Background(), owner, pet.ID, []media.File{
		{Data: pngMagic, OriginalName: "extra.png"},
	})
	if err != nil {
		t.Fatalf("add images: %v", err)
	}
	if !gallery[0].IsMain || gallery[1].IsMain {
		t.Error("additional images must not steal the main flag")
	}
}

func TestAddImagesBatchLimit(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	files := make([]media.File, 6)
	for i := range files {
		files[i] = media.File{Data: pngMagic, OriginalName: "x.png"}
	}
	_, _, err = svc.AddImages(context.Background(), owner, pet.ID, files)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("want validation error for oversize batch, got %v", err)
	}
}

func TestSetMainAndRemoveKeepLegacyURLInSync(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(),
		&media.File{Data: pngMagic, OriginalName: "first.png"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, gallery, err := svc.AddImages(context.Background(), owner, pet.ID, []media.File{
		{Data: pngMagic, OriginalName: "second.png"},
	})
	if err != nil {
		t.Fatalf("add images: %v", err)
	}

	secondKey := gallery[1].ObjectKey
	gallery, err = svc.SetMainImage(context.Background(), owner, pet.ID, secondKey)
	if err != nil {
		t.Fatalf("set main: %v", err)
	}
	if !gallery[1].IsMain || gallery.MainCount() != 1 {
		t.Error("second image should now be the only main")
	}
	stored := repo.pets[pet.ID]
	if stored.ImageURL == nil || *stored.ImageURL != gallery[1].PublicURL {
		t.Error("legacy URL should follow set-main")
	}

	gallery, err = svc.RemoveImage(context.Background(), owner, pet.ID, secondKey)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(gallery) != 1 || !gallery[0].IsMain {
		t.Error("remaining image should be promoted to main")
	}
	stored = repo.pets[pet.ID]
	if stored.ImageURL == nil || *stored.ImageURL != gallery[0].PublicURL {
		t.Error("legacy URL should follow re-election")
	}

	gallery, err = svc.RemoveImage(context.Background(), owner, pet.ID, gallery[0].ObjectKey)
	if err != nil {
		t.Fatalf("remove last: %v", err)
	}
	if len(gallery) != 0 {
		t.Fatalf("gallery should be empty, got %d", len(gallery))
	}
	stored = repo.pets[pet.ID]
	if stored.ImageURL != nil {
		t.Error("legacy URL should be null for an empty gallery")
	}
}

func TestVoteRejectsUnknownDirection(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Vote(context.Background(), owner, pet.ID, "sideways")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("want validation error, got %v", err)
	}
}

func TestRateBounds(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	owner := httpkit.NewIdentity(uuid.New())

	pet, err := svc.Create(context.Background(), owner, validCreateRequest(), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, rating := range []int{0, 6, -1} {
		if _, err := svc.Rate(context.Background(), owner, pet.ID, rating, ""); !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("rating %d: want validation error, got %v", rating, err)
		}
	}
	if _, err := svc.Rate(context.Background(), owner, pet.ID, 5, "great"); err != nil {
		t.Errorf("valid rating should pass: %v", err)
	}
}

func TestBulkUpdateRequiresAdmin(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	req := transport.BulkUpdateRequest{PetIDs: []uuid.UUID{uuid.New()}}
	_, err := svc.BulkUpdate(context.Background(), httpkit.NewIdentity(uuid.New()), req)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("want forbidden, got %v", err)
	}

	if _, err := svc.BulkUpdate(context.Background(), httpkit.NewIdentity(uuid.New(), httpkit.AdminRole), req); err != nil {
		t.Errorf("admin bulk update should pass: %v", err)
	}
}
