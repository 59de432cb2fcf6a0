package service

import (
	"context"
	"testing"
	"time"

	"leadmarket_backend/internal/auth/repository"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	users        map[uuid.UUID]repository.User
	usersByEmail map[string]uuid.UUID
	roles        map[uuid.UUID][]string
	refresh      map[string]refreshRow
}

type refreshRow struct {
	userID    uuid.UUID
	expiresAt time.Time
	revoked   bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:        make(map[uuid.UUID]repository.User),
		usersByEmail: make(map[string]uuid.UUID),
		roles:        make(map[uuid.UUID][]string),
		refresh:      make(map[string]refreshRow),
	}
}

func (f *fakeRepo) CreateUser(_ context.Context, email, passwordHash string, firstName, lastName *string) (repository.User, error) {
	if _, exists := f.usersByEmail[email]; exists {
		return repository.User{}, apperr.Conflict("email already registered")
	}
	user := repository.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.users[user.ID] = user
	f.usersByEmail[email] = user.ID
	return user, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	id, ok := f.usersByEmail[email]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	user := f.users[id]
	user.Roles = f.roles[id]
	return user, nil
}

func (f *fakeRepo) GetUserByID(_ context.Context, userID uuid.UUID) (repository.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	user.Roles = f.roles[userID]
	return user, nil
}

func (f *fakeRepo) ListUsers(_ context.Context) ([]repository.User, error) {
	var users []repository.User
	for id, user := range f.users {
		user.Roles = f.roles[id]
		users = append(users, user)
	}
	return users, nil
}

func (f *fakeRepo) CreateRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	f.refresh[tokenHash] = refreshRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeRepo) GetRefreshToken(_ context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	row, ok := f.refresh[tokenHash]
	if !ok || row.revoked {
		return uuid.Nil, time.Time{}, apperr.NotFound("refresh token not found")
	}
	return row.userID, row.expiresAt, nil
}

func (f *fakeRepo) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if row, ok := f.refresh[tokenHash]; ok {
		row.revoked = true
		f.refresh[tokenHash] = row
	}
	return nil
}

func (f *fakeRepo) RevokeAllRefreshTokens(_ context.Context, userID uuid.UUID) error {
	for hash, row := range f.refresh {
		if row.userID == userID {
			row.revoked = true
			f.refresh[hash] = row
		}
	}
	return nil
}

func (f *fakeRepo) GetUserRoles(_ context.Context, userID uuid.UUID) ([]string, error) {
	return f.roles[userID], nil
}

func (f *fakeRepo) SetUserRoles(_ context.Context, userID uuid.UUID, roles []string) error {
	f.roles[userID] = roles
	return nil
}

func (f *fakeRepo) ListRoles(_ context.Context) ([]repository.Role, error)  { return nil, nil }
func (f *fakeRepo) DeleteRole(_ context.Context, _ uuid.UUID) error         { return nil }
func (f *fakeRepo) CreateRole(_ context.Context, name, desc string) (repository.Role, error) {
	return repository.Role{ID: uuid.New(), Name: name, Description: desc}, nil
}

var _ repository.AuthRepository = (*fakeRepo)(nil)

func newTestService(repo repository.AuthRepository) *Service {
	cfg := &config.Config{
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  24 * time.Hour,
	}
	log := logger.New("development")
	return New(repo, cfg, events.NewInMemoryBus(log), log)
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	pair, err := svc.Register(ctx, "Marketer@Example.com", "s3cret-password", nil, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens after register")
	}

	// Email is lowercased on write; login must match case-insensitively too.
	if _, err := svc.Login(ctx, "marketer@example.com", "s3cret-password"); err != nil {
		t.Fatalf("login: %v", err)
	}

	id := repo.usersByEmail["marketer@example.com"]
	roles := repo.roles[id]
	if len(roles) != 1 || roles[0] != "marketer" {
		t.Fatalf("expected marketer role, got %v", roles)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "user@example.com", "correct-password", nil, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(ctx, "user@example.com", "wrong-password")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	pair, err := svc.Register(ctx, "user@example.com", "s3cret-password", nil, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("expected a new refresh token after rotation")
	}

	// The old token must be single-use.
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for reused token, got %v", err)
	}
}

func TestEnsureAdminAccountIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	cfg := &config.Config{
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  24 * time.Hour,
		AdminEmail:       "admin@example.com",
		AdminPassword:    "admin-password",
	}
	log := logger.New("development")
	svc := New(repo, cfg, events.NewInMemoryBus(log), log)
	ctx := context.Background()

	if err := svc.EnsureAdminAccount(ctx); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if err := svc.EnsureAdminAccount(ctx); err != nil {
		t.Fatalf("second ensure: %v", err)
	}

	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one user, got %d", len(repo.users))
	}
	id := repo.usersByEmail["admin@example.com"]
	if roles := repo.roles[id]; len(roles) != 1 || roles[0] != "admin" {
		t.Fatalf("expected admin role, got %v", roles)
	}
}
