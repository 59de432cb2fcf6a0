package adapters

import (
	"context"

	"leadmarket_backend/internal/leads/domain"
	leadsvc "leadmarket_backend/internal/leads/service"
	matchsvc "leadmarket_backend/internal/matching/service"
	"leadmarket_backend/internal/notification"

	"github.com/google/uuid"
)

// LeadSummaryAdapter adapts the leads service to the matcher's lead
// lookup port.
type LeadSummaryAdapter struct {
	leads *leadsvc.Service
}

func NewLeadSummaryAdapter(leads *leadsvc.Service) *LeadSummaryAdapter {
	return &LeadSummaryAdapter{leads: leads}
}

func (a *LeadSummaryAdapter) LeadSummary(ctx context.Context, leadID uuid.UUID) (domain.Summary, error) {
	lead, err := a.leads.GetForAdmin(ctx, leadID)
	if err != nil {
		return domain.Summary{}, err
	}
	return leadsvc.ToSummary(lead), nil
}

var _ matchsvc.LeadSource = (*LeadSummaryAdapter)(nil)

// MatcherAdapter exposes the matching service to the notification module.
type MatcherAdapter struct {
	matcher *matchsvc.Service
}

func NewMatcherAdapter(matcher *matchsvc.Service) *MatcherAdapter {
	return &MatcherAdapter{matcher: matcher}
}

func (a *MatcherAdapter) MatchLead(ctx context.Context, leadID uuid.UUID) ([]notification.MatchedMarketer, error) {
	matches, err := a.matcher.MatchLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	recipients := make([]notification.MatchedMarketer, 0, len(matches))
	for _, match := range matches {
		recipients = append(recipients, notification.MatchedMarketer{
			UserID: match.UserID,
			Score:  match.Score,
		})
	}
	return recipients, nil
}

var _ notification.Matcher = (*MatcherAdapter)(nil)
