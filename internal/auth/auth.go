// Package auth provides authentication and authorization functionality.
// This file defines the public API of the auth bounded context.
// Only types and interfaces defined here should be imported by other domains.
package auth

import (
	"context"

	"leadmarket_backend/internal/auth/service"

	"github.com/google/uuid"
)

// Role names known to the system.
const (
	RoleAdmin    = service.RoleAdmin
	RoleMarketer = service.RoleMarketer
)

// Profile represents user information that can be shared with other domains.
type Profile = service.Profile

// UserProvider is an interface that other domains can use to get user information.
// This abstracts authentication details from other bounded contexts.
type UserProvider interface {
	// GetUserByID returns basic user information needed by other domains.
	GetUserByID(ctx context.Context, userID uuid.UUID) (Profile, error)
}

// Compile-time check that the auth service satisfies UserProvider.
var _ UserProvider = (*service.Service)(nil)
