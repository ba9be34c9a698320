package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"furbabies_backend/internal/auth/repository"
	"furbabies_backend/platform/apperr"
	"furbabies_backend/platform/events"
	"furbabies_backend/platform/logger"
)

type fakeRepo struct {
	users map[uuid.UUID]repository.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[uuid.UUID]repository.User)}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateUserParams) (repository.User, error) {
	for _, existing := range f.users {
		if existing.Username == params.Username || existing.Email == params.Email {
			return repository.User{}, apperr.Conflict("username or email is already taken")
		}
	}
	user := repository.User{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Roles:        params.Roles,
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	user, ok := f.users[id]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeRepo) GetByIdentifier(_ context.Context, identifier string) (repository.User, error) {
	for _, user := range f.users {
		if user.Email == identifier || user.Username == identifier {
			return user, nil
		}
	}
	return repository.User{}, apperr.NotFound("user not found")
}

var _ repository.Repository = (*fakeRepo)(nil)

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string       { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration { return time.Hour }

func newTestService() *Service {
	log := logger.New("development")
	return New(newFakeRepo(), testConfig{}, events.NewInMemoryBus(log), log)
}

func TestRegisterIssuesAccessToken(t *testing.T) {
	svc := newTestService()

	user, token, err := svc.Register(context.Background(), "rexfan", "rex@example.com", "password1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "rexfan" {
		t.Errorf("unexpected username %q", user.Username)
	}

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token should verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != user.ID.String() {
		t.Errorf("sub claim mismatch: %v", claims["sub"])
	}
	if claims["type"] != "access" {
		t.Errorf("type claim should be access, got %v", claims["type"])
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newTestService()

	if _, _, err := svc.Register(context.Background(), "rexfan", "rex@example.com", "password1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, _, err := svc.Register(context.Background(), "rexfan", "other@example.com", "password1")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("want conflict, got %v", err)
	}
}

func TestLoginByEmailAndUsername(t *testing.T) {
	svc := newTestService()

	if _, _, err := svc.Register(context.Background(), "rexfan", "rex@example.com", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, identifier := range []string{"rex@example.com", "rexfan"} {
		if _, _, err := svc.Login(context.Background(), identifier, "password1"); err != nil {
			t.Errorf("login by %q should succeed: %v", identifier, err)
		}
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService()

	if _, _, err := svc.Register(context.Background(), "rexfan", "rex@example.com", "password1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, wrongPassword := svc.Login(context.Background(), "rexfan", "nope")
	_, _, unknownUser := svc.Login(context.Background(), "ghost", "nope")

	if !apperr.Is(wrongPassword, apperr.KindUnauthorized) || !apperr.Is(unknownUser, apperr.KindUnauthorized) {
		t.Fatalf("both failures should be unauthorized: %v / %v", wrongPassword, unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Error("failure messages must not reveal whether the account exists")
	}
}
