package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"leadmarket_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// settingsKey is the singleton row in admin_settings holding the
// matching configuration as JSONB.
const settingsKey = "lead_matching"

// Settings is the admin-tunable matching configuration. Weights are
// independent magnitudes in [0,1]; they are not required to sum to 1.
type Settings struct {
	MinScore          float64 `json:"minScore"`
	MaxMatchesPerLead int     `json:"maxMatchesPerLead"`
	ConsiderExpertise bool    `json:"considerExpertise"`
	ConsiderPortfolio bool    `json:"considerPortfolio"`
	ConsiderBudget    bool    `json:"considerBudget"`
	WeightExpertise   float64 `json:"weightExpertise"`
	WeightPortfolio   float64 `json:"weightPortfolio"`
	WeightBudget      float64 `json:"weightBudget"`
	WeightLocation    float64 `json:"weightLocation"`
}

// DefaultSettings applies until an admin saves their own configuration.
func DefaultSettings() Settings {
	return Settings{
		MinScore:          0.3,
		MaxMatchesPerLead: 10,
		ConsiderExpertise: true,
		ConsiderPortfolio: true,
		ConsiderBudget:    true,
		WeightExpertise:   0.4,
		WeightPortfolio:   0.2,
		WeightBudget:      0.2,
		WeightLocation:    0.2,
	}
}

// Profile describes a marketer for matching purposes.
type Profile struct {
	UserID         uuid.UUID
	Expertise      []string
	PortfolioCount int
	BudgetBucket   string
	Location       string
	UpdatedAt      time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetSettings returns the stored configuration, or the defaults when no
// admin has saved one yet.
func (r *Repository) GetSettings(ctx context.Context) (Settings, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM admin_settings WHERE key = $1`, settingsKey,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, apperr.Wrap(apperr.KindInternal, "failed to load matching settings", err)
	}

	var settings Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return Settings{}, apperr.Wrap(apperr.KindInternal, "corrupt matching settings", err)
	}
	return settings, nil
}

// SaveSettings upserts the singleton configuration row.
func (r *Repository) SaveSettings(ctx context.Context, settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to encode matching settings", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO admin_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, settingsKey, raw)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to save matching settings", err)
	}
	return nil
}

// UpsertProfile creates or replaces a marketer's matching profile.
func (r *Repository) UpsertProfile(ctx context.Context, profile Profile) (Profile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO marketer_profiles (user_id, expertise, portfolio_count, budget_bucket, location, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			expertise = EXCLUDED.expertise,
			portfolio_count = EXCLUDED.portfolio_count,
			budget_bucket = EXCLUDED.budget_bucket,
			location = EXCLUDED.location,
			updated_at = NOW()
		RETURNING user_id, expertise, portfolio_count, budget_bucket, location, updated_at
	`, profile.UserID, profile.Expertise, profile.PortfolioCount, profile.BudgetBucket, profile.Location)

	return scanProfile(row)
}

// GetProfile returns a marketer's profile.
func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, expertise, portfolio_count, budget_bucket, location, updated_at
		FROM marketer_profiles WHERE user_id = $1
	`, userID)

	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound("marketer profile not found")
	}
	if err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// ListProfiles returns every marketer profile, for match scoring.
func (r *Repository) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, expertise, portfolio_count, budget_bucket, location, updated_at
		FROM marketer_profiles ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list marketer profiles", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var profile Profile
	err := row.Scan(
		&profile.UserID,
		&profile.Expertise,
		&profile.PortfolioCount,
		&profile.BudgetBucket,
		&profile.Location,
		&profile.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, err
	}
	if err != nil {
		return Profile{}, apperr.Wrap(apperr.KindInternal, "failed to scan marketer profile", err)
	}
	return profile, nil
}
