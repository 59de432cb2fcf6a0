package service

import (
	"context"
	"sort"
	"strings"

	"leadmarket_backend/internal/leads/domain"
	"leadmarket_backend/internal/matching/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// portfolioCeiling is where the portfolio component saturates: marketers
// with this many reference projects or more all score 1.0 on it.
const portfolioCeiling = 10

// LeadSource lets the matcher look up a lead without depending on the
// leads module directly. Wired via an adapter in the composition root.
type LeadSource interface {
	LeadSummary(ctx context.Context, leadID uuid.UUID) (domain.Summary, error)
}

// MatchRepository is the persistence surface the matcher needs.
type MatchRepository interface {
	GetSettings(ctx context.Context) (repository.Settings, error)
	SaveSettings(ctx context.Context, settings repository.Settings) error
	UpsertProfile(ctx context.Context, profile repository.Profile) (repository.Profile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (repository.Profile, error)
	ListProfiles(ctx context.Context) ([]repository.Profile, error)
}

// Match is one marketer recommendation for a lead.
type Match struct {
	UserID uuid.UUID
	Score  float64
}

type Service struct {
	repo  MatchRepository
	leads LeadSource
	log   *logger.Logger
}

func New(repo MatchRepository, leads LeadSource, log *logger.Logger) *Service {
	return &Service{repo: repo, leads: leads, log: log}
}

// Settings returns the current matching configuration.
func (s *Service) Settings(ctx context.Context) (repository.Settings, error) {
	return s.repo.GetSettings(ctx)
}

// UpdateSettings validates and stores the matching configuration.
func (s *Service) UpdateSettings(ctx context.Context, settings repository.Settings) (repository.Settings, error) {
	if err := validateSettings(settings); err != nil {
		return repository.Settings{}, err
	}
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return repository.Settings{}, err
	}
	return settings, nil
}

func validateSettings(settings repository.Settings) error {
	if settings.MinScore < 0 || settings.MinScore > 1 {
		return apperr.Validation("minScore must be between 0 and 1")
	}
	if settings.MaxMatchesPerLead < 1 {
		return apperr.Validation("maxMatchesPerLead must be at least 1")
	}
	for _, weight := range []float64{
		settings.WeightExpertise,
		settings.WeightPortfolio,
		settings.WeightBudget,
		settings.WeightLocation,
	} {
		if weight < 0 || weight > 1 {
			return apperr.Validation("weights must be between 0 and 1")
		}
	}
	return nil
}

// SaveProfile upserts the caller's marketing profile.
func (s *Service) SaveProfile(ctx context.Context, profile repository.Profile) (repository.Profile, error) {
	cleaned := make([]string, 0, len(profile.Expertise))
	for _, tag := range profile.Expertise {
		tag = strings.TrimSpace(strings.ToLower(tag))
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	profile.Expertise = cleaned

	if profile.PortfolioCount < 0 {
		return repository.Profile{}, apperr.Validation("portfolioCount cannot be negative")
	}
	return s.repo.UpsertProfile(ctx, profile)
}

// Profile returns the caller's matching profile.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (repository.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// MatchLead scores every marketer profile against the lead and returns
// the best matches above the configured threshold, best first.
func (s *Service) MatchLead(ctx context.Context, leadID uuid.UUID) ([]Match, error) {
	lead, err := s.leads.LeadSummary(ctx, leadID)
	if err != nil {
		return nil, err
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, profile := range profiles {
		score := ComputeScore(settings, profile, lead)
		if score >= settings.MinScore {
			matches = append(matches, Match{UserID: profile.UserID, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > settings.MaxMatchesPerLead {
		matches = matches[:settings.MaxMatchesPerLead]
	}
	return matches, nil
}

// ComputeScore is the weighted sum of four components in [0,1]. Disabled
// toggles zero their component; the location component has no toggle.
func ComputeScore(settings repository.Settings, profile repository.Profile, lead domain.Summary) float64 {
	var score float64
	if settings.ConsiderExpertise {
		score += settings.WeightExpertise * expertiseComponent(profile.Expertise, lead)
	}
	if settings.ConsiderPortfolio {
		score += settings.WeightPortfolio * portfolioComponent(profile.PortfolioCount)
	}
	if settings.ConsiderBudget {
		score += settings.WeightBudget * budgetComponent(profile.BudgetBucket, lead.BudgetRange)
	}
	score += settings.WeightLocation * locationComponent(profile.Location, lead.Location)
	return score
}

// expertiseComponent is the fraction of the marketer's expertise tags
// that appear in the lead's description or company name.
func expertiseComponent(tags []string, lead domain.Summary) float64 {
	if len(tags) == 0 {
		return 0
	}
	haystack := strings.ToLower(lead.Description + " " + lead.CompanyName)
	hits := 0
	for _, tag := range tags {
		if strings.Contains(haystack, tag) {
			hits++
		}
	}
	return float64(hits) / float64(len(tags))
}

func portfolioComponent(count int) float64 {
	if count >= portfolioCeiling {
		return 1
	}
	if count <= 0 {
		return 0
	}
	return float64(count) / portfolioCeiling
}

func budgetComponent(bucket, leadRange string) float64 {
	if bucket == "" || leadRange == "" {
		return 0
	}
	if strings.EqualFold(bucket, leadRange) {
		return 1
	}
	return 0
}

func locationComponent(profileLoc, leadLoc string) float64 {
	if profileLoc == "" || leadLoc == "" {
		return 0
	}
	if strings.EqualFold(strings.TrimSpace(profileLoc), strings.TrimSpace(leadLoc)) {
		return 1
	}
	return 0
}
