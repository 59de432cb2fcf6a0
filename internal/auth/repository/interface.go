package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthRepository defines the interface for authentication data operations.
// Services depend on this abstraction rather than the concrete implementation,
// improving testability and modularity.
type AuthRepository interface {
	// User operations
	CreateUser(ctx context.Context, email, passwordHash string, firstName, lastName *string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)

	// Refresh token operations
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error

	// Role assignment operations
	GetUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
	SetUserRoles(ctx context.Context, userID uuid.UUID, roles []string) error

	// Role catalog operations
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	DeleteRole(ctx context.Context, roleID uuid.UUID) error
}

// Ensure Repository implements AuthRepository
var _ AuthRepository = (*Repository)(nil)
