package service

import (
	"context"
	"testing"

	"leadmarket_backend/internal/leads/domain"
	"leadmarket_backend/internal/matching/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeMatchRepo struct {
	settings *repository.Settings
	profiles map[uuid.UUID]repository.Profile
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{profiles: make(map[uuid.UUID]repository.Profile)}
}

func (f *fakeMatchRepo) GetSettings(_ context.Context) (repository.Settings, error) {
	if f.settings == nil {
		return repository.DefaultSettings(), nil
	}
	return *f.settings, nil
}

func (f *fakeMatchRepo) SaveSettings(_ context.Context, settings repository.Settings) error {
	f.settings = &settings
	return nil
}

func (f *fakeMatchRepo) UpsertProfile(_ context.Context, profile repository.Profile) (repository.Profile, error) {
	f.profiles[profile.UserID] = profile
	return profile, nil
}

func (f *fakeMatchRepo) GetProfile(_ context.Context, userID uuid.UUID) (repository.Profile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return repository.Profile{}, apperr.NotFound("marketer profile not found")
	}
	return profile, nil
}

func (f *fakeMatchRepo) ListProfiles(_ context.Context) ([]repository.Profile, error) {
	var items []repository.Profile
	for _, profile := range f.profiles {
		items = append(items, profile)
	}
	return items, nil
}

var _ MatchRepository = (*fakeMatchRepo)(nil)

type fakeLeadSource struct {
	leads map[uuid.UUID]domain.Summary
}

func (f *fakeLeadSource) LeadSummary(_ context.Context, leadID uuid.UUID) (domain.Summary, error) {
	lead, ok := f.leads[leadID]
	if !ok {
		return domain.Summary{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func TestComputeScoreFullMatch(t *testing.T) {
	settings := repository.DefaultSettings()
	lead := domain.Summary{
		CompanyName: "Bakkerij Jansen",
		Description: "Local bakery looking for seo and social media marketing",
		BudgetRange: "1000-5000",
		Location:    "Amsterdam",
	}
	profile := repository.Profile{
		Expertise:      []string{"seo", "social media"},
		PortfolioCount: 10,
		BudgetBucket:   "1000-5000",
		Location:       "amsterdam",
	}

	score := ComputeScore(settings, profile, lead)
	want := settings.WeightExpertise + settings.WeightPortfolio + settings.WeightBudget + settings.WeightLocation
	if score != want {
		t.Fatalf("full match score = %v, want %v", score, want)
	}
}

func TestComputeScorePartialExpertise(t *testing.T) {
	settings := repository.Settings{
		ConsiderExpertise: true,
		WeightExpertise:   1,
	}
	lead := domain.Summary{Description: "need help with seo"}
	profile := repository.Profile{Expertise: []string{"seo", "ppc", "branding", "email"}}

	score := ComputeScore(settings, profile, lead)
	if score != 0.25 {
		t.Fatalf("expected one of four tags to match (0.25), got %v", score)
	}
}

func TestComputeScoreDisabledTogglesZeroComponents(t *testing.T) {
	settings := repository.Settings{
		ConsiderExpertise: false,
		ConsiderPortfolio: false,
		ConsiderBudget:    false,
		WeightExpertise:   1,
		WeightPortfolio:   1,
		WeightBudget:      1,
		WeightLocation:    0.5,
	}
	lead := domain.Summary{
		Description: "seo work",
		BudgetRange: "500-1000",
		Location:    "Utrecht",
	}
	profile := repository.Profile{
		Expertise:      []string{"seo"},
		PortfolioCount: 10,
		BudgetBucket:   "500-1000",
		Location:       "Utrecht",
	}

	// Only the location component survives the disabled toggles.
	if score := ComputeScore(settings, profile, lead); score != 0.5 {
		t.Fatalf("expected 0.5 from location only, got %v", score)
	}
}

func TestMatchLeadOrdersAndCaps(t *testing.T) {
	repo := newFakeMatchRepo()
	repo.settings = &repository.Settings{
		MinScore:          0.2,
		MaxMatchesPerLead: 2,
		ConsiderExpertise: true,
		ConsiderPortfolio: true,
		WeightExpertise:   0.5,
		WeightPortfolio:   0.5,
	}

	leadID := uuid.New()
	leads := &fakeLeadSource{leads: map[uuid.UUID]domain.Summary{
		leadID: {Description: "webshop wants seo and ads"},
	}}
	svc := New(repo, leads, logger.New("development"))
	ctx := context.Background()

	strong := uuid.New()
	medium := uuid.New()
	weak := uuid.New()
	repo.profiles[strong] = repository.Profile{UserID: strong, Expertise: []string{"seo", "ads"}, PortfolioCount: 10}
	repo.profiles[medium] = repository.Profile{UserID: medium, Expertise: []string{"seo"}, PortfolioCount: 5}
	repo.profiles[weak] = repository.Profile{UserID: weak, Expertise: []string{"print"}, PortfolioCount: 0}

	matches, err := svc.MatchLead(ctx, leadID)
	if err != nil {
		t.Fatalf("match lead: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected cap of 2 matches, got %d", len(matches))
	}
	if matches[0].UserID != strong || matches[1].UserID != medium {
		t.Fatalf("matches out of order: %+v", matches)
	}
	for _, match := range matches {
		if match.UserID == weak {
			t.Fatal("below-threshold profile matched")
		}
	}
}

func TestUpdateSettingsValidatesWeights(t *testing.T) {
	svc := New(newFakeMatchRepo(), &fakeLeadSource{}, logger.New("development"))
	ctx := context.Background()

	bad := repository.DefaultSettings()
	bad.WeightExpertise = 1.5
	if _, err := svc.UpdateSettings(ctx, bad); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for weight > 1, got %v", err)
	}

	bad = repository.DefaultSettings()
	bad.MaxMatchesPerLead = 0
	if _, err := svc.UpdateSettings(ctx, bad); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for zero max matches, got %v", err)
	}

	good := repository.DefaultSettings()
	good.MinScore = 0.6
	saved, err := svc.UpdateSettings(ctx, good)
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if saved.MinScore != 0.6 {
		t.Fatalf("settings not persisted: %+v", saved)
	}

	loaded, err := svc.Settings(ctx)
	if err != nil || loaded.MinScore != 0.6 {
		t.Fatalf("reload settings: %+v %v", loaded, err)
	}
}

func TestSaveProfileNormalizesTags(t *testing.T) {
	repo := newFakeMatchRepo()
	svc := New(repo, &fakeLeadSource{}, logger.New("development"))
	userID := uuid.New()

	saved, err := svc.SaveProfile(context.Background(), repository.Profile{
		UserID:    userID,
		Expertise: []string{"  SEO ", "Social Media", ""},
	})
	if err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if len(saved.Expertise) != 2 || saved.Expertise[0] != "seo" || saved.Expertise[1] != "social media" {
		t.Fatalf("tags not normalized: %v", saved.Expertise)
	}
}
