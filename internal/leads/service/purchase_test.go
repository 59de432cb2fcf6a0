package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/leads/domain"
	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore mimics the repository's transactional purchase semantics in
// memory: a failed purchase leaves every balance and counter untouched.
type fakeStore struct {
	leads     map[uuid.UUID]repository.Lead
	balances  map[uuid.UUID]int
	purchases map[uuid.UUID][]uuid.UUID // lead -> purchasers in order
	ledger    []ledgerEntry
}

type ledgerEntry struct {
	userID uuid.UUID
	leadID uuid.UUID
	amount int
	txType string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:     make(map[uuid.UUID]repository.Lead),
		balances:  make(map[uuid.UUID]int),
		purchases: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeStore) addLead(price int, published bool) uuid.UUID {
	id := uuid.New()
	f.leads[id] = repository.Lead{
		ID:          id,
		CompanyName: fmt.Sprintf("Company %s", id.String()[:8]),
		Price:       price,
		Published:   published,
		Status:      domain.StatusPending,
		CallStatus:  domain.CallStatusNotCalled,
	}
	return id
}

func (f *fakeStore) addUser(credits int) uuid.UUID {
	id := uuid.New()
	f.balances[id] = credits
	return id
}

func (f *fakeStore) Purchase(_ context.Context, leadID, userID uuid.UUID) (repository.PurchaseResult, error) {
	lead, ok := f.leads[leadID]
	if !ok || !lead.Published {
		return repository.PurchaseResult{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	if len(f.purchases[leadID]) >= domain.MaxPurchasesPerLead {
		return repository.PurchaseResult{}, apperr.Conflict("lead has reached the purchase limit").WithCode("PURCHASE_LIMIT_REACHED")
	}
	for _, buyer := range f.purchases[leadID] {
		if buyer == userID {
			return repository.PurchaseResult{}, apperr.Conflict("lead already purchased").WithCode("ALREADY_PURCHASED")
		}
	}
	if f.balances[userID] < lead.Price {
		return repository.PurchaseResult{}, apperr.PaymentRequired("insufficient credits").WithCode("INSUFFICIENT_CREDITS")
	}

	f.balances[userID] -= lead.Price
	f.purchases[leadID] = append(f.purchases[leadID], userID)
	lead.CurrentPurchases++
	f.leads[leadID] = lead
	f.ledger = append(f.ledger, ledgerEntry{userID: userID, leadID: leadID, amount: -lead.Price, txType: "lead_purchase"})

	return repository.PurchaseResult{
		LeadID:           leadID,
		UserID:           userID,
		CompanyName:      lead.CompanyName,
		CreditsSpent:     lead.Price,
		RemainingCredits: f.balances[userID],
		PurchasedAt:      time.Now(),
	}, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	return lead, nil
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	id := f.addLead(0, false)
	lead := f.leads[id]
	lead.CompanyName = params.CompanyName
	lead.Phone = params.Phone
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) List(_ context.Context, filter repository.ListFilter) ([]repository.Lead, error) {
	var items []repository.Lead
	for _, lead := range f.leads {
		if filter.PublishedOnly && !lead.Published {
			continue
		}
		items = append(items, lead)
	}
	return items, nil
}

func (f *fakeStore) ListPurchasedBy(_ context.Context, userID uuid.UUID) ([]repository.PurchasedLead, error) {
	var items []repository.PurchasedLead
	for leadID, buyers := range f.purchases {
		for _, buyer := range buyers {
			if buyer == userID {
				items = append(items, repository.PurchasedLead{Lead: f.leads[leadID]})
			}
		}
	}
	return items, nil
}

func (f *fakeStore) Publish(_ context.Context, id uuid.UUID, price int) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	if lead.Published {
		return repository.Lead{}, apperr.Conflict("lead is already published").WithCode("ALREADY_PUBLISHED")
	}
	now := time.Now()
	lead.Published = true
	lead.PublishedAt = &now
	lead.Price = price
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	lead.Status = status
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) UpdateCallStatus(_ context.Context, id uuid.UUID, callStatus string) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found").WithCode("LEAD_NOT_FOUND")
	}
	lead.CallStatus = callStatus
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) HasPurchased(_ context.Context, leadID, userID uuid.UUID) (bool, error) {
	for _, buyer := range f.purchases[leadID] {
		if buyer == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListPurchaserIDs(_ context.Context, leadID uuid.UUID) ([]uuid.UUID, error) {
	return f.purchases[leadID], nil
}

func (f *fakeStore) ReconcilePurchaseCounts(_ context.Context) ([]uuid.UUID, error) {
	var repaired []uuid.UUID
	for id, lead := range f.leads {
		actual := len(f.purchases[id])
		if lead.CurrentPurchases != actual {
			lead.CurrentPurchases = actual
			f.leads[id] = lead
			repaired = append(repaired, id)
		}
	}
	return repaired, nil
}

var _ repository.LeadRepository = (*fakeStore)(nil)

type fakeUsers struct {
	emails map[uuid.UUID]string
}

func (f *fakeUsers) GetUser(_ context.Context, userID uuid.UUID) (UserInfo, error) {
	return UserInfo{ID: userID, Email: f.emails[userID]}, nil
}

func newPurchaseService(store *fakeStore) (*Service, events.Bus) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	users := &fakeUsers{emails: make(map[uuid.UUID]string)}
	return New(store, users, bus, log, 5), bus
}

func TestPurchaseHappyPath(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)
	ctx := context.Background()

	leadID := store.addLead(10, true)
	userID := store.addUser(25)

	result, err := svc.Purchase(ctx, leadID, userID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if result.CreditsSpent != 10 {
		t.Fatalf("expected 10 credits spent, got %d", result.CreditsSpent)
	}
	if result.RemainingCredits != 15 {
		t.Fatalf("expected remaining 15, got %d", result.RemainingCredits)
	}
	if store.leads[leadID].CurrentPurchases != 1 {
		t.Fatalf("expected purchase counter 1, got %d", store.leads[leadID].CurrentPurchases)
	}
	if len(store.ledger) != 1 || store.ledger[0].amount != -10 || store.ledger[0].txType != "lead_purchase" {
		t.Fatalf("expected one -10 lead_purchase ledger entry, got %+v", store.ledger)
	}
	// Counter matches the purchase rows.
	if store.leads[leadID].CurrentPurchases != len(store.purchases[leadID]) {
		t.Fatal("counter and purchase rows diverged")
	}
}

func TestPurchaseUnknownLead(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)

	_, err := svc.Purchase(context.Background(), uuid.New(), store.addUser(100))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPurchaseUnpublishedLeadIsNotFound(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)

	leadID := store.addLead(10, false)
	_, err := svc.Purchase(context.Background(), leadID, store.addUser(100))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unpublished lead, got %v", err)
	}
}

func TestPurchaseInsufficientCreditsLeavesStateUnchanged(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)
	ctx := context.Background()

	leadID := store.addLead(50, true)
	userID := store.addUser(49)

	_, err := svc.Purchase(ctx, leadID, userID)
	if !apperr.Is(err, apperr.KindPaymentRequired) {
		t.Fatalf("expected payment required, got %v", err)
	}
	if store.balances[userID] != 49 {
		t.Fatalf("balance changed on failed purchase: %d", store.balances[userID])
	}
	if store.leads[leadID].CurrentPurchases != 0 || len(store.ledger) != 0 {
		t.Fatal("failed purchase left partial state")
	}
}

func TestPurchaseExactBalanceSucceeds(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)

	leadID := store.addLead(50, true)
	userID := store.addUser(50)

	result, err := svc.Purchase(context.Background(), leadID, userID)
	if err != nil {
		t.Fatalf("purchase with exact balance: %v", err)
	}
	if result.RemainingCredits != 0 {
		t.Fatalf("expected zero remaining, got %d", result.RemainingCredits)
	}
}

func TestPurchaseDuplicateIsConflict(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)
	ctx := context.Background()

	leadID := store.addLead(10, true)
	userID := store.addUser(100)

	if _, err := svc.Purchase(ctx, leadID, userID); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	_, err := svc.Purchase(ctx, leadID, userID)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for duplicate purchase, got %v", err)
	}
	if store.balances[userID] != 90 {
		t.Fatalf("duplicate purchase changed balance: %d", store.balances[userID])
	}
	if len(store.ledger) != 1 {
		t.Fatalf("expected single ledger entry, got %d", len(store.ledger))
	}
}

func TestPurchaseLimitReached(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)
	ctx := context.Background()

	leadID := store.addLead(10, true)

	// Five distinct buyers fill the lead.
	for i := 0; i < domain.MaxPurchasesPerLead; i++ {
		userID := store.addUser(100)
		if _, err := svc.Purchase(ctx, leadID, userID); err != nil {
			t.Fatalf("purchase %d: %v", i+1, err)
		}
	}

	// The sixth buyer with plenty of credits is rejected and unchanged.
	sixth := store.addUser(100)
	_, err := svc.Purchase(ctx, leadID, sixth)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict at purchase limit, got %v", err)
	}
	if store.balances[sixth] != 100 {
		t.Fatalf("rejected buyer was charged: %d", store.balances[sixth])
	}
	if got := store.leads[leadID].CurrentPurchases; got != domain.MaxPurchasesPerLead {
		t.Fatalf("expected counter %d, got %d", domain.MaxPurchasesPerLead, got)
	}
}

func TestPurchaseEmitsLowBalanceWarning(t *testing.T) {
	store := newFakeStore()
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	users := &fakeUsers{emails: map[uuid.UUID]string{}}
	svc := New(store, users, bus, log, 5)
	ctx := context.Background()

	leadID := store.addLead(8, true)
	userID := store.addUser(10)
	users.emails[userID] = "buyer@example.com"

	received := make(chan events.LowCreditBalance, 1)
	bus.Subscribe(events.LowCreditBalance{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		if low, ok := e.(events.LowCreditBalance); ok {
			received <- low
		}
		return nil
	}))

	if _, err := svc.Purchase(ctx, leadID, userID); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	select {
	case low := <-received:
		if low.Balance != 2 {
			t.Fatalf("expected balance 2 in warning, got %d", low.Balance)
		}
		if low.Email != "buyer@example.com" {
			t.Fatalf("unexpected email: %s", low.Email)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a low balance event")
	}
}

func TestReconcileRepairsDrift(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)
	ctx := context.Background()

	leadID := store.addLead(10, true)
	userID := store.addUser(50)
	if _, err := svc.Purchase(ctx, leadID, userID); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	// Inject counter drift.
	lead := store.leads[leadID]
	lead.CurrentPurchases = 4
	store.leads[leadID] = lead

	repaired, err := svc.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(repaired) != 1 || repaired[0] != leadID {
		t.Fatalf("expected one repaired lead, got %v", repaired)
	}
	if store.leads[leadID].CurrentPurchases != 1 {
		t.Fatalf("expected counter repaired to 1, got %d", store.leads[leadID].CurrentPurchases)
	}
}

func TestPublishThenModerate(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)
	ctx := context.Background()

	leadID := store.addLead(0, false)

	// Moderating an unpublished lead is rejected.
	if _, err := svc.UpdateStatus(ctx, leadID, domain.StatusApproved); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for unpublished moderation, got %v", err)
	}

	if _, err := svc.Publish(ctx, leadID, 15); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Publishing twice conflicts: the price is immutable once set.
	if _, err := svc.Publish(ctx, leadID, 20); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for double publish, got %v", err)
	}

	lead, err := svc.UpdateStatus(ctx, leadID, domain.StatusApproved)
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	if lead.Status != domain.StatusApproved {
		t.Fatalf("expected approved, got %s", lead.Status)
	}
}

func TestModerationIsFinal(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)
	ctx := context.Background()

	leadID := store.addLead(0, false)
	if _, err := svc.Publish(ctx, leadID, 15); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, leadID, domain.StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// An approved lead cannot be moderated again in either direction.
	_, err := svc.UpdateStatus(ctx, leadID, domain.StatusRejected)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict re-moderating an approved lead, got %v", err)
	}
	if got := store.leads[leadID].Status; got != domain.StatusApproved {
		t.Fatalf("status changed on rejected moderation: %s", got)
	}

	_, err = svc.UpdateStatus(ctx, leadID, domain.StatusApproved)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict re-approving, got %v", err)
	}
}

func TestPublishRejectsNonPositivePrice(t *testing.T) {
	store := newFakeStore()
	svc, _ := newPurchaseService(store)

	leadID := store.addLead(0, false)
	if _, err := svc.Publish(context.Background(), leadID, 0); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for zero price, got %v", err)
	}
}
