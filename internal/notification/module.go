// Package notification turns domain events into outbound email. It
// subscribes to the event bus and inverts the dependency: domain modules
// never talk to email providers or templates directly.
package notification

import (
	"context"
	"fmt"

	"leadmarket_backend/internal/email"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// Matcher selects the marketers a newly published lead should be offered to.
type Matcher interface {
	MatchLead(ctx context.Context, leadID uuid.UUID) ([]MatchedMarketer, error)
}

// MatchedMarketer is one recipient of a new-lead notification.
type MatchedMarketer struct {
	UserID uuid.UUID
	Score  float64
}

// UserDirectory resolves user ids to email addresses.
type UserDirectory interface {
	GetUserEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

type Module struct {
	sender  email.Sender
	matcher Matcher
	users   UserDirectory
	baseURL string
	log     *logger.Logger
}

func NewModule(sender email.Sender, matcher Matcher, users UserDirectory, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{
		sender:  sender,
		matcher: matcher,
		users:   users,
		baseURL: cfg.GetAppBaseURL(),
		log:     log,
	}
}

// Subscribe registers the module for every event it emails about.
func (m *Module) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadPublished{}.EventName(), m)
	bus.Subscribe(events.LeadPurchased{}.EventName(), m)
	bus.Subscribe(events.CreditsToppedUp{}.EventName(), m)
	bus.Subscribe(events.LowCreditBalance{}.EventName(), m)
}

// Handle dispatches a domain event to its email handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadPublished:
		return m.handleLeadPublished(ctx, e)
	case events.LeadPurchased:
		return m.handleLeadPurchased(ctx, e)
	case events.CreditsToppedUp:
		return m.handleCreditsToppedUp(ctx, e)
	case events.LowCreditBalance:
		return m.handleLowCreditBalance(ctx, e)
	default:
		return nil
	}
}

// handleLeadPublished fans a new-lead email out to every matched marketer.
// One failed recipient does not stop the others.
func (m *Module) handleLeadPublished(ctx context.Context, e events.LeadPublished) error {
	matches, err := m.matcher.MatchLead(ctx, e.LeadID)
	if err != nil {
		return fmt.Errorf("match lead %s: %w", e.LeadID, err)
	}

	leadURL := m.baseURL + "/leads/" + e.LeadID.String()
	for _, match := range matches {
		toEmail, err := m.users.GetUserEmail(ctx, match.UserID)
		if err != nil {
			m.log.Warn("skipping match notification, no email",
				"lead_id", e.LeadID, "user_id", match.UserID, "error", err)
			continue
		}

		err = m.sender.SendLeadMatch(ctx, toEmail, email.LeadMatchData{
			CompanyName: e.CompanyName,
			Price:       e.Price,
			LeadURL:     leadURL,
		})
		if err != nil {
			m.log.Error("lead match email failed",
				"lead_id", e.LeadID, "user_id", match.UserID, "error", err)
		}
	}
	return nil
}

func (m *Module) handleLeadPurchased(ctx context.Context, e events.LeadPurchased) error {
	toEmail, err := m.users.GetUserEmail(ctx, e.UserID)
	if err != nil {
		return fmt.Errorf("resolve buyer email: %w", err)
	}
	return m.sender.SendPurchaseReceipt(ctx, toEmail, email.PurchaseReceiptData{
		CompanyName:      e.CompanyName,
		CreditsSpent:     e.CreditsSpent,
		RemainingCredits: e.RemainingCredits,
	})
}

func (m *Module) handleCreditsToppedUp(ctx context.Context, e events.CreditsToppedUp) error {
	return m.sender.SendTopUpConfirmation(ctx, e.Email, email.TopUpConfirmationData{
		PackageName: e.PackageID,
		Credits:     e.Credits,
		NewBalance:  e.NewBalance,
		AmountCents: e.AmountCents,
	})
}

func (m *Module) handleLowCreditBalance(ctx context.Context, e events.LowCreditBalance) error {
	return m.sender.SendLowBalanceWarning(ctx, e.Email, e.Balance)
}

var _ events.Handler = (*Module)(nil)
