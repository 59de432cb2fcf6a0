package notification

import (
	"context"
	"testing"

	"leadmarket_backend/internal/email"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingSender struct {
	matches  []string
	receipts []string
	topups   []string
	warnings []string
}

func (r *recordingSender) SendPurchaseReceipt(_ context.Context, toEmail string, _ email.PurchaseReceiptData) error {
	r.receipts = append(r.receipts, toEmail)
	return nil
}

func (r *recordingSender) SendTopUpConfirmation(_ context.Context, toEmail string, _ email.TopUpConfirmationData) error {
	r.topups = append(r.topups, toEmail)
	return nil
}

func (r *recordingSender) SendLowBalanceWarning(_ context.Context, toEmail string, _ int) error {
	r.warnings = append(r.warnings, toEmail)
	return nil
}

func (r *recordingSender) SendLeadMatch(_ context.Context, toEmail string, _ email.LeadMatchData) error {
	r.matches = append(r.matches, toEmail)
	return nil
}

var _ email.Sender = (*recordingSender)(nil)

type fakeMatcher struct {
	matches []MatchedMarketer
}

func (f *fakeMatcher) MatchLead(_ context.Context, _ uuid.UUID) ([]MatchedMarketer, error) {
	return f.matches, nil
}

type fakeDirectory struct {
	emails map[uuid.UUID]string
}

func (f *fakeDirectory) GetUserEmail(_ context.Context, userID uuid.UUID) (string, error) {
	addr, ok := f.emails[userID]
	if !ok {
		return "", apperr.NotFound("user not found")
	}
	return addr, nil
}

type stubConfig struct{}

func (stubConfig) GetAppBaseURL() string { return "http://localhost:5173" }

func TestLeadPublishedNotifiesMatchedMarketers(t *testing.T) {
	withEmail := uuid.New()
	withoutEmail := uuid.New()

	sender := &recordingSender{}
	module := NewModule(
		sender,
		&fakeMatcher{matches: []MatchedMarketer{
			{UserID: withEmail, Score: 0.8},
			{UserID: withoutEmail, Score: 0.5},
		}},
		&fakeDirectory{emails: map[uuid.UUID]string{withEmail: "marketer@example.com"}},
		stubConfig{},
		logger.New("development"),
	)

	err := module.Handle(context.Background(), events.LeadPublished{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      uuid.New(),
		CompanyName: "Bakkerij Jansen",
		Price:       10,
	})
	if err != nil {
		t.Fatalf("handle published: %v", err)
	}

	// The recipient without a known address is skipped, not fatal.
	if len(sender.matches) != 1 || sender.matches[0] != "marketer@example.com" {
		t.Fatalf("unexpected match emails: %v", sender.matches)
	}
}

func TestLeadPurchasedSendsReceipt(t *testing.T) {
	buyer := uuid.New()
	sender := &recordingSender{}
	module := NewModule(
		sender,
		&fakeMatcher{},
		&fakeDirectory{emails: map[uuid.UUID]string{buyer: "buyer@example.com"}},
		stubConfig{},
		logger.New("development"),
	)

	err := module.Handle(context.Background(), events.LeadPurchased{
		BaseEvent:        events.NewBaseEvent(),
		LeadID:           uuid.New(),
		UserID:           buyer,
		CompanyName:      "Webshop De Groot",
		CreditsSpent:     10,
		RemainingCredits: 15,
	})
	if err != nil {
		t.Fatalf("handle purchased: %v", err)
	}
	if len(sender.receipts) != 1 || sender.receipts[0] != "buyer@example.com" {
		t.Fatalf("unexpected receipts: %v", sender.receipts)
	}
}

func TestBalanceEventsUseEventEmail(t *testing.T) {
	sender := &recordingSender{}
	module := NewModule(sender, &fakeMatcher{}, &fakeDirectory{}, stubConfig{}, logger.New("development"))
	ctx := context.Background()

	if err := module.Handle(ctx, events.CreditsToppedUp{
		BaseEvent: events.NewBaseEvent(),
		UserID:    uuid.New(),
		Email:     "buyer@example.com",
		PackageID: "pro",
		Credits:   25,
	}); err != nil {
		t.Fatalf("handle topped up: %v", err)
	}
	if err := module.Handle(ctx, events.LowCreditBalance{
		BaseEvent: events.NewBaseEvent(),
		UserID:    uuid.New(),
		Email:     "buyer@example.com",
		Balance:   2,
	}); err != nil {
		t.Fatalf("handle low balance: %v", err)
	}

	if len(sender.topups) != 1 || len(sender.warnings) != 1 {
		t.Fatalf("expected one topup and one warning, got %v / %v", sender.topups, sender.warnings)
	}
}
