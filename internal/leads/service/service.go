package service

import (
	"context"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/leads/domain"
	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/phone"
	"leadmarket_backend/platform/sanitize"

	"github.com/google/uuid"
)

// UserDirectory is the port through which the leads domain looks up buyer
// details. Wired to the auth module via an adapter in the composition root.
type UserDirectory interface {
	GetUser(ctx context.Context, userID uuid.UUID) (UserInfo, error)
}

// UserInfo is the minimal buyer view the leads domain needs.
type UserInfo struct {
	ID    uuid.UUID
	Email string
}

type Service struct {
	repo         repository.LeadRepository
	users        UserDirectory
	bus          events.Bus
	log          *logger.Logger
	lowCreditMin int
}

func New(repo repository.LeadRepository, users UserDirectory, bus events.Bus, log *logger.Logger, lowCreditThreshold int) *Service {
	return &Service{
		repo:         repo,
		users:        users,
		bus:          bus,
		log:          log,
		lowCreditMin: lowCreditThreshold,
	}
}

// Create adds a new lead in the pending, unpublished state.
func (s *Service) Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	params.CompanyName = sanitize.Text(params.CompanyName)
	params.ContactName = sanitize.Text(params.ContactName)
	params.Description = sanitize.Text(params.Description)
	params.Phone = phone.NormalizeE164(params.Phone)

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadSubmitted{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		CompanyName: lead.CompanyName,
	})
	return lead, nil
}

// GetForAdmin returns the full lead regardless of publication state.
func (s *Service) GetForAdmin(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForMarketer returns the lead as seen by a marketer: full detail for
// purchasers, not found for unpublished leads. Redaction of unpurchased
// leads happens in the handler via the market view.
func (s *Service) GetForMarketer(ctx context.Context, id, userID uuid.UUID) (repository.Lead, bool, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, false, err
	}
	if !lead.Published {
		return repository.Lead{}, false, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}

	purchased, err := s.repo.HasPurchased(ctx, id, userID)
	if err != nil {
		return repository.Lead{}, false, err
	}
	return lead, purchased, nil
}

// ListForAdmin returns all leads matching the filter.
func (s *Service) ListForAdmin(ctx context.Context, filter repository.ListFilter) ([]repository.Lead, error) {
	return s.repo.List(ctx, filter)
}

// ListMarket returns published leads with a purchased flag for the caller.
func (s *Service) ListMarket(ctx context.Context, userID uuid.UUID, filter repository.ListFilter) ([]repository.Lead, map[uuid.UUID]bool, error) {
	filter.PublishedOnly = true
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	purchased := make(map[uuid.UUID]bool, len(items))
	for _, lead := range items {
		owned, err := s.repo.HasPurchased(ctx, lead.ID, userID)
		if err != nil {
			return nil, nil, err
		}
		purchased[lead.ID] = owned
	}
	return items, purchased, nil
}

// ListPurchased returns the leads the caller has bought.
func (s *Service) ListPurchased(ctx context.Context, userID uuid.UUID) ([]repository.PurchasedLead, error) {
	return s.repo.ListPurchasedBy(ctx, userID)
}

// Publish puts a lead up for sale at the given price. The price must be
// positive and cannot change once the lead is published.
func (s *Service) Publish(ctx context.Context, id uuid.UUID, price int) (repository.Lead, error) {
	if price <= 0 {
		return repository.Lead{}, apperr.Validation("price must be positive")
	}

	lead, err := s.repo.Publish(ctx, id, price)
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadPublished{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		CompanyName: lead.CompanyName,
		Price:       lead.Price,
	})
	return lead, nil
}

// UpdateStatus moderates a published lead. Only pending leads can move,
// to approved or rejected; a moderated lead never changes status again.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (repository.Lead, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}
	if !current.Published {
		return repository.Lead{}, apperr.Conflict("lead must be published before moderation").WithCode("NOT_PUBLISHED")
	}
	if current.Status != domain.StatusPending {
		return repository.Lead{}, apperr.Conflict("lead has already been moderated").WithCode("ALREADY_MODERATED")
	}

	lead, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		OldStatus: current.Status,
		NewStatus: lead.Status,
	})
	return lead, nil
}

// UpdateCallStatus records the admin's calling progress on a lead.
func (s *Service) UpdateCallStatus(ctx context.Context, id uuid.UUID, callStatus string) (repository.Lead, error) {
	return s.repo.UpdateCallStatus(ctx, id, callStatus)
}

// Reconcile repairs purchase-counter drift and returns the repaired ids.
func (s *Service) Reconcile(ctx context.Context) ([]uuid.UUID, error) {
	repaired, err := s.repo.ReconcilePurchaseCounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(repaired) > 0 {
		s.log.Warn("purchase counters repaired", "count", len(repaired))
	}
	return repaired, nil
}

// ToSummary converts a repository lead to the shared summary shape.
func ToSummary(lead repository.Lead) domain.Summary {
	return domain.Summary{
		ID:               lead.ID,
		CompanyName:      lead.CompanyName,
		Description:      lead.Description,
		BudgetRange:      lead.BudgetRange,
		Timeline:         lead.Timeline,
		Location:         lead.Location,
		Price:            lead.Price,
		Status:           lead.Status,
		CurrentPurchases: lead.CurrentPurchases,
		PublishedAt:      lead.PublishedAt,
	}
}

// PublishedSummaries lists the published leads as feed summaries.
func (s *Service) PublishedSummaries(ctx context.Context) ([]domain.Summary, error) {
	items, err := s.repo.List(ctx, repository.ListFilter{PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.Summary, 0, len(items))
	for _, lead := range items {
		summaries = append(summaries, ToSummary(lead))
	}
	return summaries, nil
}
