// Package adapters contains the anti-corruption layer: thin translators
// between one module's exposed service and another module's port, wired
// in the composition root so bounded contexts never import each other.
package adapters

import (
	"context"
	"io"
	"time"

	"leadmarket_backend/internal/adapters/storage"
	"leadmarket_backend/internal/auth"
	billingsvc "leadmarket_backend/internal/billing/service"

	"github.com/google/uuid"
)

// UserEmailAdapter adapts the auth UserProvider to the email-lookup ports
// of the billing and notification modules.
type UserEmailAdapter struct {
	provider auth.UserProvider
}

func NewUserEmailAdapter(provider auth.UserProvider) *UserEmailAdapter {
	return &UserEmailAdapter{provider: provider}
}

func (a *UserEmailAdapter) GetUserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	profile, err := a.provider.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return profile.Email, nil
}

var _ billingsvc.UserDirectory = (*UserEmailAdapter)(nil)

// InvoiceArchiveAdapter binds the generic document store to the invoices
// bucket for the billing module.
type InvoiceArchiveAdapter struct {
	store  storage.DocumentStore
	bucket string
}

func NewInvoiceArchiveAdapter(store storage.DocumentStore, bucket string) *InvoiceArchiveAdapter {
	return &InvoiceArchiveAdapter{store: store, bucket: bucket}
}

func (a *InvoiceArchiveAdapter) Upload(ctx context.Context, folder, fileName string, reader io.Reader, size int64) (string, error) {
	return a.store.Upload(ctx, a.bucket, folder, fileName, "application/pdf", reader, size)
}

func (a *InvoiceArchiveAdapter) PresignDownload(ctx context.Context, fileKey string) (string, time.Time, error) {
	return a.store.PresignDownload(ctx, a.bucket, fileKey)
}

var _ billingsvc.InvoiceArchive = (*InvoiceArchiveAdapter)(nil)
