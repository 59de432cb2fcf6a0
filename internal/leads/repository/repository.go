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
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID               uuid.UUID
	CompanyName      string
	ContactName      string
	Email            string
	Phone            string
	Description      string
	BudgetRange      string
	Timeline         string
	Location         string
	Price            int
	Status           string
	CallStatus       string
	Published        bool
	PublishedAt      *time.Time
	CurrentPurchases int
	CreatedBy        *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PurchasedLead is a lead joined with the caller's purchase row.
type PurchasedLead struct {
	Lead
	PurchasedAt time.Time
	PricePaid   int
}

type CreateLeadParams struct {
	CompanyName string
	ContactName string
	Email       string
	Phone       string
	Description string
	BudgetRange string
	Timeline    string
	Location    string
	CreatedBy   *uuid.UUID
}

// ListFilter narrows the lead listing. Zero values mean "no constraint".
type ListFilter struct {
	PublishedOnly bool
	Status        string
	Location      string
	Limit         int
	Offset        int
}

const leadColumns = `id, company_name, contact_name, email, phone, description,
	budget_range, timeline, location, price, status, call_status,
	published, published_at, current_purchases, created_by, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID,
		&lead.CompanyName,
		&lead.ContactName,
		&lead.Email,
		&lead.Phone,
		&lead.Description,
		&lead.BudgetRange,
		&lead.Timeline,
		&lead.Location,
		&lead.Price,
		&lead.Status,
		&lead.CallStatus,
		&lead.Published,
		&lead.PublishedAt,
		&lead.CurrentPurchases,
		&lead.CreatedBy,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	return lead, err
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (company_name, contact_name, email, phone, description,
			budget_range, timeline, location, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+leadColumns+`
	`,
		params.CompanyName,
		params.ContactName,
		params.Email,
		params.Phone,
		params.Description,
		params.BudgetRange,
		params.Timeline,
		params.Location,
		params.CreatedBy,
	))
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := make([]interface{}, 0, 4)

	if filter.PublishedOnly {
		query += ` AND published = true`
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Location != "" {
		args = append(args, "%"+filter.Location+"%")
		query += fmt.Sprintf(` AND location ILIKE $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, lead)
	}
	return items, rows.Err()
}

func (r *Repository) ListPurchasedBy(ctx context.Context, userID uuid.UUID) ([]PurchasedLead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.company_name, l.contact_name, l.email, l.phone, l.description,
			l.budget_range, l.timeline, l.location, l.price, l.status, l.call_status,
			l.published, l.published_at, l.current_purchases, l.created_by, l.created_at, l.updated_at,
			lp.created_at, lp.price_paid
		FROM leads l
		JOIN lead_purchases lp ON lp.lead_id = l.id
		WHERE lp.user_id = $1
		ORDER BY lp.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchased leads: %w", err)
	}
	defer rows.Close()

	items := make([]PurchasedLead, 0)
	for rows.Next() {
		var item PurchasedLead
		if err := rows.Scan(
			&item.ID,
			&item.CompanyName,
			&item.ContactName,
			&item.Email,
			&item.Phone,
			&item.Description,
			&item.BudgetRange,
			&item.Timeline,
			&item.Location,
			&item.Price,
			&item.Status,
			&item.CallStatus,
			&item.Published,
			&item.PublishedAt,
			&item.CurrentPurchases,
			&item.CreatedBy,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.PurchasedAt,
			&item.PricePaid,
		); err != nil {
			return nil, fmt.Errorf("scan purchased lead: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Publish marks an unpublished lead as published with the given price.
// The price is immutable once published: a second publish is a conflict.
func (r *Repository) Publish(ctx context.Context, id uuid.UUID, price int) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads
		SET published = true, published_at = now(), price = $2, updated_at = now()
		WHERE id = $1 AND published = false
		RETURNING `+leadColumns+`
	`, id, price))
	if errors.Is(err, pgx.ErrNoRows) {
		// Either missing or already published; look it up to tell the two apart.
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return Lead{}, getErr
		}
		if existing.Published {
			return Lead{}, apperr.Conflict("lead is already published").WithCode("ALREADY_PUBLISHED")
		}
		return Lead{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	if err != nil {
		return Lead{}, fmt.Errorf("publish lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns+`
	`, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	if err != nil {
		return Lead{}, fmt.Errorf("update lead status: %w", err)
	}
	return lead, nil
}

func (r *Repository) UpdateCallStatus(ctx context.Context, id uuid.UUID, callStatus string) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET call_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns+`
	`, id, callStatus))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	if err != nil {
		return Lead{}, fmt.Errorf("update lead call status: %w", err)
	}
	return lead, nil
}

func (r *Repository) HasPurchased(ctx context.Context, leadID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM lead_purchases WHERE lead_id = $1 AND user_id = $2)
	`, leadID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return exists, nil
}

func (r *Repository) ListPurchaserIDs(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM lead_purchases WHERE lead_id = $1 ORDER BY created_at
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list purchasers: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, domain.MaxPurchasesPerLead)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan purchaser: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReconcilePurchaseCounts repairs current_purchases counters that have
// drifted from the lead_purchases rows (the counter and the rows are written
// in one transaction, so drift indicates manual intervention or a bug).
func (r *Repository) ReconcilePurchaseCounts(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE leads l
		SET current_purchases = sub.actual, updated_at = now()
		FROM (
			SELECT l2.id, COALESCE(p.cnt, 0) AS actual
			FROM leads l2
			LEFT JOIN (
				SELECT lead_id, COUNT(*) AS cnt FROM lead_purchases GROUP BY lead_id
			) p ON p.lead_id = l2.id
		) sub
		WHERE l.id = sub.id AND l.current_purchases <> sub.actual
		RETURNING l.id
	`)
	if err != nil {
		return nil, fmt.Errorf("reconcile purchase counts: %w", err)
	}
	defer rows.Close()

	var repaired []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan repaired lead: %w", err)
		}
		repaired = append(repaired, id)
	}
	return repaired, rows.Err()
}
