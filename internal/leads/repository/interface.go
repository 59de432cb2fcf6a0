package repository

import (
	"context"

	"github.com/google/uuid"
)

// LeadRepository defines the interface for lead data operations.
// Services depend on this abstraction rather than the concrete implementation,
// improving testability and modularity.
type LeadRepository interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, filter ListFilter) ([]Lead, error)
	ListPurchasedBy(ctx context.Context, userID uuid.UUID) ([]PurchasedLead, error)

	Publish(ctx context.Context, id uuid.UUID, price int) (Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error)
	UpdateCallStatus(ctx context.Context, id uuid.UUID, callStatus string) (Lead, error)

	HasPurchased(ctx context.Context, leadID, userID uuid.UUID) (bool, error)
	ListPurchaserIDs(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error)

	// Purchase runs the entire purchase workflow in a single transaction.
	Purchase(ctx context.Context, leadID, userID uuid.UUID) (PurchaseResult, error)

	// ReconcilePurchaseCounts recomputes current_purchases from the
	// purchase rows and returns the ids of leads that were out of sync.
	ReconcilePurchaseCounts(ctx context.Context) ([]uuid.UUID, error)
}

// Ensure Repository implements LeadRepository
var _ LeadRepository = (*Repository)(nil)
