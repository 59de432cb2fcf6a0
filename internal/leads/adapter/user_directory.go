// Package adapter contains anti-corruption adapters that translate other
// bounded contexts' APIs into the ports the leads domain defines.
package adapter

import (
	"context"

	"leadmarket_backend/internal/auth"
	"leadmarket_backend/internal/leads/service"

	"github.com/google/uuid"
)

// UserDirectoryAdapter adapts the auth UserProvider to the leads
// UserDirectory port.
type UserDirectoryAdapter struct {
	provider auth.UserProvider
}

func NewUserDirectoryAdapter(provider auth.UserProvider) *UserDirectoryAdapter {
	return &UserDirectoryAdapter{provider: provider}
}

func (a *UserDirectoryAdapter) GetUser(ctx context.Context, userID uuid.UUID) (service.UserInfo, error) {
	profile, err := a.provider.GetUserByID(ctx, userID)
	if err != nil {
		return service.UserInfo{}, err
	}
	return service.UserInfo{ID: profile.ID, Email: profile.Email}, nil
}

var _ service.UserDirectory = (*UserDirectoryAdapter)(nil)
