package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadmarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Transaction is one append-only ledger row.
type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	LeadID      *uuid.UUID
	Amount      int
	Type        string
	Status      string
	Description string
	CreatedAt   time.Time
}

// GetBalance returns the user's current credit balance.
func (r *Repository) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `
		SELECT credits FROM users WHERE id = $1
	`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("user not found")
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// ListTransactions returns the user's ledger entries, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, lead_id, amount, type, status, description, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	items := make([]Transaction, 0)
	for rows.Next() {
		var item Transaction
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.LeadID,
			&item.Amount,
			&item.Type,
			&item.Status,
			&item.Description,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
