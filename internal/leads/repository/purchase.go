package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadmarket_backend/internal/leads/domain"
	"leadmarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PurchaseResult describes a committed purchase.
type PurchaseResult struct {
	LeadID           uuid.UUID
	UserID           uuid.UUID
	CompanyName      string
	CreditsSpent     int
	RemainingCredits int
	PurchasedAt      time.Time
}

// Purchase executes the whole purchase workflow as one transaction:
// lock the lead row, verify it is purchasable for this user, debit the
// buyer conditionally, bump the purchase counter, record the purchase
// row and the ledger entry. Any precondition failure rolls everything
// back, so no partial state can leak out.
func (r *Repository) Purchase(ctx context.Context, leadID, userID uuid.UUID) (PurchaseResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("begin purchase: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		companyName string
		price       int
		published   bool
		purchases   int
	)
	err = tx.QueryRow(ctx, `
		SELECT company_name, price, published, current_purchases
		FROM leads WHERE id = $1
		FOR UPDATE
	`, leadID).Scan(&companyName, &price, &published, &purchases)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseResult{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("lock lead: %w", err)
	}

	if !published {
		return PurchaseResult{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	if purchases >= domain.MaxPurchasesPerLead {
		return PurchaseResult{}, apperr.Conflict("lead has reached the purchase limit").WithCode("PURCHASE_LIMIT_REACHED")
	}

	var alreadyPurchased bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM lead_purchases WHERE lead_id = $1 AND user_id = $2)
	`, leadID, userID).Scan(&alreadyPurchased)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("check duplicate purchase: %w", err)
	}
	if alreadyPurchased {
		return PurchaseResult{}, apperr.Conflict("lead already purchased").WithCode("ALREADY_PURCHASED")
	}

	// Conditional debit: the WHERE clause guarantees the balance can
	// never go negative, even under concurrent spends.
	var remaining int
	err = tx.QueryRow(ctx, `
		UPDATE users SET credits = credits - $2, updated_at = now()
		WHERE id = $1 AND credits >= $2
		RETURNING credits
	`, userID, price).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseResult{}, apperr.PaymentRequired("insufficient credits").WithCode("INSUFFICIENT_CREDITS")
	}
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("debit credits: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE leads SET current_purchases = current_purchases + 1, updated_at = now()
		WHERE id = $1
	`, leadID); err != nil {
		return PurchaseResult{}, fmt.Errorf("increment purchase count: %w", err)
	}

	var purchasedAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO lead_purchases (lead_id, user_id, price_paid)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, leadID, userID, price).Scan(&purchasedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return PurchaseResult{}, apperr.Conflict("lead already purchased").WithCode("ALREADY_PURCHASED")
		}
		return PurchaseResult{}, fmt.Errorf("record purchase: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO credit_transactions (user_id, lead_id, amount, type, status, description)
		VALUES ($1, $2, $3, 'lead_purchase', 'completed', $4)
	`, userID, leadID, -price, fmt.Sprintf("Lead purchase: %s", companyName)); err != nil {
		return PurchaseResult{}, fmt.Errorf("record ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return PurchaseResult{}, apperr.Wrap(apperr.KindInternal, "failed to complete purchase", err).WithCode("STORE_WRITE_FAILED")
	}

	return PurchaseResult{
		LeadID:           leadID,
		UserID:           userID,
		CompanyName:      companyName,
		CreditsSpent:     price,
		RemainingCredits: remaining,
		PurchasedAt:      purchasedAt,
	}, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
