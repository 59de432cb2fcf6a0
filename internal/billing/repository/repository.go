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

// Checkout session statuses.
const (
	SessionPending   = "pending"
	SessionCompleted = "completed"
	SessionExpired   = "expired"
	SessionFailed    = "failed"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type CheckoutSession struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	PackageID         string
	Credits           int
	AmountCents       int
	ProviderSessionID string
	Status            string
	ExpiresAt         time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Invoice struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Number      string
	AmountCents int
	Status      string
	PDFKey      *string
	CreatedAt   time.Time
}

// TopUpResult describes a completed checkout.
type TopUpResult struct {
	Session    CheckoutSession
	NewBalance int
	Invoice    Invoice
}

type CreateSessionParams struct {
	UserID            uuid.UUID
	PackageID         string
	Credits           int
	AmountCents       int
	ProviderSessionID string
	ExpiresAt         time.Time
}

const sessionColumns = `id, user_id, package_id, credits, amount_cents,
	provider_session_id, status, expires_at, created_at, updated_at`

func scanSession(row pgx.Row) (CheckoutSession, error) {
	var s CheckoutSession
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.PackageID,
		&s.Credits,
		&s.AmountCents,
		&s.ProviderSessionID,
		&s.Status,
		&s.ExpiresAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *Repository) CreateSession(ctx context.Context, params CreateSessionParams) (CheckoutSession, error) {
	session, err := scanSession(r.pool.QueryRow(ctx, `
		INSERT INTO checkout_sessions (user_id, package_id, credits, amount_cents, provider_session_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+sessionColumns+`
	`,
		params.UserID,
		params.PackageID,
		params.Credits,
		params.AmountCents,
		params.ProviderSessionID,
		params.ExpiresAt,
	))
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return session, nil
}

func (r *Repository) GetSessionByID(ctx context.Context, id uuid.UUID) (CheckoutSession, error) {
	session, err := scanSession(r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM checkout_sessions WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return CheckoutSession{}, apperr.NotFound("checkout session not found")
	}
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("get checkout session: %w", err)
	}
	return session, nil
}

// CompleteTopUp finishes a pending checkout in one transaction: the
// session flips to completed, the buyer is credited, the ledger gets a
// subscription entry, and the invoice row is recorded. A session that is
// not pending anymore is a conflict, which makes webhook retries safe.
func (r *Repository) CompleteTopUp(ctx context.Context, providerSessionID, invoiceNumber string, pdfKey *string) (TopUpResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return TopUpResult{}, fmt.Errorf("begin top-up: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := scanSession(tx.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM checkout_sessions
		WHERE provider_session_id = $1
		FOR UPDATE
	`, providerSessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return TopUpResult{}, apperr.NotFound("checkout session not found")
	}
	if err != nil {
		return TopUpResult{}, fmt.Errorf("lock checkout session: %w", err)
	}

	if session.Status != SessionPending {
		return TopUpResult{}, apperr.Conflict("checkout session already settled").WithCode("SESSION_SETTLED")
	}

	if _, err := tx.Exec(ctx, `
		UPDATE checkout_sessions SET status = $2, updated_at = now() WHERE id = $1
	`, session.ID, SessionCompleted); err != nil {
		return TopUpResult{}, fmt.Errorf("complete session: %w", err)
	}

	var newBalance int
	err = tx.QueryRow(ctx, `
		UPDATE users SET credits = credits + $2, updated_at = now()
		WHERE id = $1
		RETURNING credits
	`, session.UserID, session.Credits).Scan(&newBalance)
	if err != nil {
		return TopUpResult{}, fmt.Errorf("credit user: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO credit_transactions (user_id, amount, type, status, description)
		VALUES ($1, $2, 'subscription', 'completed', $3)
	`, session.UserID, session.Credits, fmt.Sprintf("Credit top-up: %s package", session.PackageID)); err != nil {
		return TopUpResult{}, fmt.Errorf("record ledger entry: %w", err)
	}

	var invoice Invoice
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (user_id, checkout_session_id, number, amount_cents, status, pdf_key)
		VALUES ($1, $2, $3, $4, 'paid', $5)
		RETURNING id, user_id, number, amount_cents, status, pdf_key, created_at
	`, session.UserID, session.ID, invoiceNumber, session.AmountCents, pdfKey).Scan(
		&invoice.ID,
		&invoice.UserID,
		&invoice.Number,
		&invoice.AmountCents,
		&invoice.Status,
		&invoice.PDFKey,
		&invoice.CreatedAt,
	)
	if err != nil {
		return TopUpResult{}, fmt.Errorf("record invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return TopUpResult{}, fmt.Errorf("commit top-up: %w", err)
	}

	session.Status = SessionCompleted
	return TopUpResult{Session: session, NewBalance: newBalance, Invoice: invoice}, nil
}

// MarkSessionFailed flags a pending session the provider reported as failed.
func (r *Repository) MarkSessionFailed(ctx context.Context, providerSessionID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE checkout_sessions SET status = $2, updated_at = now()
		WHERE provider_session_id = $1 AND status = $3
	`, providerSessionID, SessionFailed, SessionPending)
	if err != nil {
		return fmt.Errorf("mark session failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("no pending checkout session for provider id")
	}
	return nil
}

// ExpireSession expires a pending session past its deadline. Expiring an
// already settled session is a no-op.
func (r *Repository) ExpireSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE checkout_sessions SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3 AND expires_at <= now()
	`, sessionID, SessionExpired, SessionPending)
	if err != nil {
		return false, fmt.Errorf("expire session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ExpireStaleSessions expires every pending session past its deadline.
// Safety net for sessions whose scheduled expiry task never ran.
func (r *Repository) ExpireStaleSessions(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE checkout_sessions SET status = $1, updated_at = now()
		WHERE status = $2 AND expires_at <= now()
	`, SessionExpired, SessionPending)
	if err != nil {
		return 0, fmt.Errorf("expire stale sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) ListInvoices(ctx context.Context, userID uuid.UUID) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, number, amount_cents, status, pdf_key, created_at
		FROM invoices
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	items := make([]Invoice, 0)
	for rows.Next() {
		var invoice Invoice
		if err := rows.Scan(
			&invoice.ID,
			&invoice.UserID,
			&invoice.Number,
			&invoice.AmountCents,
			&invoice.Status,
			&invoice.PDFKey,
			&invoice.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		items = append(items, invoice)
	}
	return items, rows.Err()
}

func (r *Repository) GetInvoice(ctx context.Context, id, userID uuid.UUID) (Invoice, error) {
	var invoice Invoice
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, number, amount_cents, status, pdf_key, created_at
		FROM invoices
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(
		&invoice.ID,
		&invoice.UserID,
		&invoice.Number,
		&invoice.AmountCents,
		&invoice.Status,
		&invoice.PDFKey,
		&invoice.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, apperr.NotFound("invoice not found")
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return invoice, nil
}
