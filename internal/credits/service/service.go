package service

import (
	"context"

	"leadmarket_backend/internal/credits/repository"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// Ledger is the read-side port onto the credit store.
type Ledger interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]repository.Transaction, error)
}

type Service struct {
	ledger  Ledger
	catalog *Catalog
	log     *logger.Logger
}

func New(ledger Ledger, catalog *Catalog, log *logger.Logger) *Service {
	return &Service{ledger: ledger, catalog: catalog, log: log}
}

// Balance returns the caller's current credit balance.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.ledger.GetBalance(ctx, userID)
}

// Transactions returns the caller's ledger history, newest first.
func (s *Service) Transactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]repository.Transaction, error) {
	return s.ledger.ListTransactions(ctx, userID, limit, offset)
}

// Packages returns the purchasable credit packages.
func (s *Service) Packages() []Package {
	return s.catalog.All()
}

// PackageByID looks up one package.
func (s *Service) PackageByID(id string) (Package, error) {
	return s.catalog.Get(id)
}
