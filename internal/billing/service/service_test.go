package service

import (
	"context"
	"io"
	"testing"
	"time"

	"leadmarket_backend/internal/billing/provider"
	"leadmarket_backend/internal/billing/repository"
	creditsvc "leadmarket_backend/internal/credits/service"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeBillingRepo struct {
	sessions  map[string]repository.CheckoutSession // by provider id
	balances  map[uuid.UUID]int
	invoices  []repository.Invoice
	ledgerLen int
}

func newFakeBillingRepo() *fakeBillingRepo {
	return &fakeBillingRepo{
		sessions: make(map[string]repository.CheckoutSession),
		balances: make(map[uuid.UUID]int),
	}
}

func (f *fakeBillingRepo) CreateSession(_ context.Context, params repository.CreateSessionParams) (repository.CheckoutSession, error) {
	session := repository.CheckoutSession{
		ID:                uuid.New(),
		UserID:            params.UserID,
		PackageID:         params.PackageID,
		Credits:           params.Credits,
		AmountCents:       params.AmountCents,
		ProviderSessionID: params.ProviderSessionID,
		Status:            repository.SessionPending,
		ExpiresAt:         params.ExpiresAt,
	}
	f.sessions[params.ProviderSessionID] = session
	return session, nil
}

func (f *fakeBillingRepo) GetSessionByID(_ context.Context, id uuid.UUID) (repository.CheckoutSession, error) {
	for _, session := range f.sessions {
		if session.ID == id {
			return session, nil
		}
	}
	return repository.CheckoutSession{}, apperr.NotFound("checkout session not found")
}

func (f *fakeBillingRepo) CompleteTopUp(_ context.Context, providerSessionID, invoiceNumber string, pdfKey *string) (repository.TopUpResult, error) {
	session, ok := f.sessions[providerSessionID]
	if !ok {
		return repository.TopUpResult{}, apperr.NotFound("checkout session not found")
	}
	if session.Status != repository.SessionPending {
		return repository.TopUpResult{}, apperr.Conflict("checkout session already settled").WithCode("SESSION_SETTLED")
	}

	session.Status = repository.SessionCompleted
	f.sessions[providerSessionID] = session
	f.balances[session.UserID] += session.Credits
	f.ledgerLen++

	invoice := repository.Invoice{
		ID:          uuid.New(),
		UserID:      session.UserID,
		Number:      invoiceNumber,
		AmountCents: session.AmountCents,
		Status:      "paid",
		PDFKey:      pdfKey,
	}
	f.invoices = append(f.invoices, invoice)

	return repository.TopUpResult{
		Session:    session,
		NewBalance: f.balances[session.UserID],
		Invoice:    invoice,
	}, nil
}

func (f *fakeBillingRepo) MarkSessionFailed(_ context.Context, providerSessionID string) error {
	session, ok := f.sessions[providerSessionID]
	if !ok || session.Status != repository.SessionPending {
		return apperr.NotFound("no pending checkout session for provider id")
	}
	session.Status = repository.SessionFailed
	f.sessions[providerSessionID] = session
	return nil
}

func (f *fakeBillingRepo) ExpireSession(_ context.Context, sessionID uuid.UUID) (bool, error) {
	for key, session := range f.sessions {
		if session.ID == sessionID && session.Status == repository.SessionPending {
			session.Status = repository.SessionExpired
			f.sessions[key] = session
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBillingRepo) ExpireStaleSessions(_ context.Context) (int, error) {
	expired := 0
	for key, session := range f.sessions {
		if session.Status == repository.SessionPending && session.ExpiresAt.Before(time.Now()) {
			session.Status = repository.SessionExpired
			f.sessions[key] = session
			expired++
		}
	}
	return expired, nil
}

func (f *fakeBillingRepo) ListInvoices(_ context.Context, userID uuid.UUID) ([]repository.Invoice, error) {
	var items []repository.Invoice
	for _, invoice := range f.invoices {
		if invoice.UserID == userID {
			items = append(items, invoice)
		}
	}
	return items, nil
}

func (f *fakeBillingRepo) GetInvoice(_ context.Context, id, userID uuid.UUID) (repository.Invoice, error) {
	for _, invoice := range f.invoices {
		if invoice.ID == id && invoice.UserID == userID {
			return invoice, nil
		}
	}
	return repository.Invoice{}, apperr.NotFound("invoice not found")
}

var _ BillingRepository = (*fakeBillingRepo)(nil)

type fakeProvider struct {
	sessions int
}

func (f *fakeProvider) CreateSession(_ context.Context, params provider.CreateSessionParams) (provider.Session, error) {
	f.sessions++
	return provider.Session{ID: "sess_" + params.Reference, RedirectURL: "https://pay.example.com/" + params.Reference}, nil
}

func (f *fakeProvider) FetchInvoicePDF(_ context.Context, _ string) (io.ReadCloser, int64, error) {
	return nil, 0, apperr.NotFound("no pdf in tests")
}

type fakeScheduler struct {
	scheduled []uuid.UUID
}

func (f *fakeScheduler) ScheduleCheckoutExpiry(_ context.Context, sessionID uuid.UUID, _ time.Time) error {
	f.scheduled = append(f.scheduled, sessionID)
	return nil
}

type fakeDirectory struct{}

func (fakeDirectory) GetUserEmail(_ context.Context, _ uuid.UUID) (string, error) {
	return "buyer@example.com", nil
}

func newBillingService(repo *fakeBillingRepo, sched *fakeScheduler) *Service {
	log := logger.New("development")
	packages, _ := creditsvc.LoadPackages("")
	cfg := &config.Config{
		CheckoutProviderURL:   "https://provider.example.com",
		CheckoutAPIKey:        "key",
		CheckoutWebhookSecret: "secret",
		CheckoutSessionTTL:    time.Hour,
	}
	return New(repo, &fakeProvider{}, nil, sched, fakeDirectory{}, creditsvc.NewCatalog(packages), events.NewInMemoryBus(log), log, cfg, "http://localhost:5173")
}

func TestCreateCheckoutStoresPendingSession(t *testing.T) {
	repo := newFakeBillingRepo()
	sched := &fakeScheduler{}
	svc := newBillingService(repo, sched)
	ctx := context.Background()
	userID := uuid.New()

	redirect, err := svc.CreateCheckout(ctx, userID, "pro")
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if redirect.RedirectURL == "" {
		t.Fatal("expected a redirect URL")
	}

	// No credits are granted at checkout time.
	if repo.balances[userID] != 0 {
		t.Fatalf("checkout granted credits prematurely: %d", repo.balances[userID])
	}
	if len(sched.scheduled) != 1 {
		t.Fatalf("expected one expiry task scheduled, got %d", len(sched.scheduled))
	}
}

func TestCreateCheckoutUnknownPackage(t *testing.T) {
	svc := newBillingService(newFakeBillingRepo(), &fakeScheduler{})

	_, err := svc.CreateCheckout(context.Background(), uuid.New(), "platinum")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown package, got %v", err)
	}
}

func TestWebhookCompletesOnce(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := newBillingService(repo, &fakeScheduler{})
	ctx := context.Background()
	userID := uuid.New()

	redirect, err := svc.CreateCheckout(ctx, userID, "basic")
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	session, err := repo.GetSessionByID(ctx, redirect.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	event := WebhookEvent{
		Type:              EventCheckoutCompleted,
		ProviderSessionID: session.ProviderSessionID,
		InvoiceNumber:     "INV-0001",
	}
	if err := svc.HandleWebhook(ctx, event); err != nil {
		t.Fatalf("first webhook: %v", err)
	}
	if repo.balances[userID] != 10 {
		t.Fatalf("expected 10 credits granted, got %d", repo.balances[userID])
	}
	if repo.ledgerLen != 1 {
		t.Fatalf("expected one ledger entry, got %d", repo.ledgerLen)
	}

	// Webhook retries must not double-credit.
	if err := svc.HandleWebhook(ctx, event); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on replay, got %v", err)
	}
	if repo.balances[userID] != 10 {
		t.Fatalf("replay changed balance: %d", repo.balances[userID])
	}
}

func TestWebhookFailureMarksSession(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := newBillingService(repo, &fakeScheduler{})
	ctx := context.Background()
	userID := uuid.New()

	redirect, err := svc.CreateCheckout(ctx, userID, "basic")
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	session, _ := repo.GetSessionByID(ctx, redirect.SessionID)

	if err := svc.HandleWebhook(ctx, WebhookEvent{
		Type:              EventCheckoutFailed,
		ProviderSessionID: session.ProviderSessionID,
	}); err != nil {
		t.Fatalf("failed webhook: %v", err)
	}

	updated, _ := repo.GetSessionByID(ctx, redirect.SessionID)
	if updated.Status != repository.SessionFailed {
		t.Fatalf("expected failed status, got %s", updated.Status)
	}
	if repo.balances[userID] != 0 {
		t.Fatalf("failed checkout granted credits: %d", repo.balances[userID])
	}
}

func TestExpireSessionOnlyPending(t *testing.T) {
	repo := newFakeBillingRepo()
	svc := newBillingService(repo, &fakeScheduler{})
	ctx := context.Background()

	redirect, err := svc.CreateCheckout(ctx, uuid.New(), "basic")
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	session, _ := repo.GetSessionByID(ctx, redirect.SessionID)

	// Settle it, then try to expire: nothing should change.
	if err := svc.HandleWebhook(ctx, WebhookEvent{
		Type:              EventCheckoutCompleted,
		ProviderSessionID: session.ProviderSessionID,
		InvoiceNumber:     "INV-0002",
	}); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if err := svc.ExpireSession(ctx, redirect.SessionID); err != nil {
		t.Fatalf("expire settled session: %v", err)
	}
	updated, _ := repo.GetSessionByID(ctx, redirect.SessionID)
	if updated.Status != repository.SessionCompleted {
		t.Fatalf("expire overrode settled status: %s", updated.Status)
	}
}
