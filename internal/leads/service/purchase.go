package service

import (
	"context"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/platform/apperr"

	"github.com/google/uuid"
)

// Purchase buys a published lead for the given user. The repository runs
// the debit, counter increment, purchase row, and ledger entry in one
// transaction; this layer adds logging and event publication.
func (s *Service) Purchase(ctx context.Context, leadID, userID uuid.UUID) (repository.PurchaseResult, error) {
	result, err := s.repo.Purchase(ctx, leadID, userID)
	if err != nil {
		outcome := "failed"
		if code := errorCode(err); code != "" {
			outcome = code
		}
		s.log.PurchaseEvent(leadID.String(), userID.String(), 0, 0, outcome)
		return repository.PurchaseResult{}, err
	}

	s.log.PurchaseEvent(leadID.String(), userID.String(), result.CreditsSpent, result.RemainingCredits, "completed")

	s.bus.Publish(ctx, events.LeadPurchased{
		BaseEvent:        events.NewBaseEvent(),
		LeadID:           result.LeadID,
		UserID:           result.UserID,
		CompanyName:      result.CompanyName,
		CreditsSpent:     result.CreditsSpent,
		RemainingCredits: result.RemainingCredits,
	})

	if result.RemainingCredits < s.lowCreditMin {
		s.publishLowBalance(ctx, userID, result.RemainingCredits)
	}

	return result, nil
}

func (s *Service) publishLowBalance(ctx context.Context, userID uuid.UUID, balance int) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.log.Warn("low balance lookup failed", "user_id", userID.String(), "error", err.Error())
		return
	}
	s.bus.Publish(ctx, events.LowCreditBalance{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		Email:     user.Email,
		Balance:   balance,
	})
}

func errorCode(err error) string {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr.Code
	}
	return ""
}
