package service

import (
	"context"
	"strings"
	"time"

	"leadmarket_backend/internal/auth/repository"
	"leadmarket_backend/internal/auth/token"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

// Role names known to the system. The roles table can hold more, but these
// two drive authorization decisions.
const (
	RoleAdmin    = "admin"
	RoleMarketer = "marketer"
)

// Profile represents user information that can be shared with other domains.
type Profile struct {
	ID        uuid.UUID
	Email     string
	FirstName *string
	LastName  *string
	Roles     []string
	Credits   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Service struct {
	repo repository.AuthRepository
	cfg  config.AuthServiceConfig
	bus  events.Bus
	log  *logger.Logger
}

func New(repo repository.AuthRepository, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log}
}

// TokenPair holds an access token plus the opaque refresh token issued with it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Register creates a new marketer account and signs the user in.
func (s *Service) Register(ctx context.Context, email, plainPassword string, firstName, lastName *string) (TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "failed to hash password", err)
	}

	user, err := s.repo.CreateUser(ctx, email, string(hash), firstName, lastName)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.repo.SetUserRoles(ctx, user.ID, []string{RoleMarketer}); err != nil {
		return TokenPair{}, err
	}

	s.log.AuthEvent("register", email, true, "")
	s.bus.Publish(ctx, events.UserRegistered{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
		Role:      RoleMarketer,
	})

	return s.issueTokens(ctx, user.ID)
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		s.log.AuthEvent("login", email, false, "unknown user")
		return TokenPair{}, apperr.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(plainPassword)); err != nil {
		s.log.AuthEvent("login", email, false, "bad password")
		return TokenPair{}, apperr.Unauthorized("invalid credentials")
	}

	s.log.AuthEvent("login", email, true, "")
	return s.issueTokens(ctx, user.ID)
}

// Refresh rotates a refresh token and issues a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	hash := token.HashSHA256(refreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}

	if time.Now().After(expiresAt) {
		_ = s.repo.RevokeRefreshToken(ctx, hash)
		return TokenPair{}, apperr.Unauthorized("refresh token expired")
	}

	// Rotation: the old token is single-use.
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil {
		return TokenPair{}, err
	}
	return s.issueTokens(ctx, userID)
}

// Logout revokes the given refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, token.HashSHA256(refreshToken))
}

// GetMe returns the caller's profile.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (Profile, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return toProfile(user), nil
}

// ListUsers returns all users with their roles, for admin screens.
func (s *Service) ListUsers(ctx context.Context) ([]Profile, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]Profile, 0, len(users))
	for _, user := range users {
		profiles = append(profiles, toProfile(user))
	}
	return profiles, nil
}

// SetUserRoles replaces a user's role assignments.
func (s *Service) SetUserRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return err
	}
	return s.repo.SetUserRoles(ctx, userID, roles)
}

// ListRoles returns the role catalog.
func (s *Service) ListRoles(ctx context.Context) ([]repository.Role, error) {
	return s.repo.ListRoles(ctx)
}

// CreateRole adds a role to the catalog.
func (s *Service) CreateRole(ctx context.Context, name, description string) (repository.Role, error) {
	return s.repo.CreateRole(ctx, strings.ToLower(strings.TrimSpace(name)), description)
}

// DeleteRole removes a role from the catalog. The built-in roles stay.
func (s *Service) DeleteRole(ctx context.Context, roleID uuid.UUID) error {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if role.ID == roleID && (role.Name == RoleAdmin || role.Name == RoleMarketer) {
			return apperr.Forbidden("built-in roles cannot be deleted")
		}
	}
	return s.repo.DeleteRole(ctx, roleID)
}

// EnsureAdminAccount creates the bootstrap admin account if it is configured
// and does not exist yet. Called once at startup.
func (s *Service) EnsureAdminAccount(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(s.cfg.GetAdminEmail()))
	password := s.cfg.GetAdminPassword()
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to hash admin password", err)
	}

	user, err := s.repo.CreateUser(ctx, email, string(hash), nil, nil)
	if err != nil {
		return err
	}
	if err := s.repo.SetUserRoles(ctx, user.ID, []string{RoleAdmin}); err != nil {
		return err
	}

	s.log.Info("bootstrap admin account created", "email", email)
	return nil
}

// GetUserByID mirrors GetMe under the name other bounded contexts use
// through the auth.UserProvider interface.
func (s *Service) GetUserByID(ctx context.Context, userID uuid.UUID) (Profile, error) {
	return s.GetMe(ctx, userID)
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	roles, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}

	accessToken, err := s.signJWT(userID, roles, s.cfg.GetAccessTokenTTL(), accessTokenType, s.cfg.GetJWTAccessSecret())
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "failed to sign token", err)
	}

	refreshToken, err := token.GenerateRandomToken(48)
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "failed to generate refresh token", err)
	}

	hash := token.HashSHA256(refreshToken)
	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, userID, hash, expiresAt); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) signJWT(userID uuid.UUID, roles []string, ttl time.Duration, tokenType, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  tokenType,
		"roles": roles,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(secret))
}

func toProfile(user repository.User) Profile {
	return Profile{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     user.Roles,
		Credits:   user.Credits,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
