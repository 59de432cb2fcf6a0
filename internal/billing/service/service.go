package service

import (
	"context"
	"fmt"
	"io"
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

// BillingRepository is the persistence port for checkout state.
type BillingRepository interface {
	CreateSession(ctx context.Context, params repository.CreateSessionParams) (repository.CheckoutSession, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (repository.CheckoutSession, error)
	CompleteTopUp(ctx context.Context, providerSessionID, invoiceNumber string, pdfKey *string) (repository.TopUpResult, error)
	MarkSessionFailed(ctx context.Context, providerSessionID string) error
	ExpireSession(ctx context.Context, sessionID uuid.UUID) (bool, error)
	ExpireStaleSessions(ctx context.Context) (int, error)
	ListInvoices(ctx context.Context, userID uuid.UUID) ([]repository.Invoice, error)
	GetInvoice(ctx context.Context, id, userID uuid.UUID) (repository.Invoice, error)
}

// CheckoutProvider is the port onto the hosted payment provider.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, params provider.CreateSessionParams) (provider.Session, error)
	FetchInvoicePDF(ctx context.Context, providerInvoiceID string) (io.ReadCloser, int64, error)
}

// InvoiceArchive stores invoice PDFs and presigns downloads for them.
type InvoiceArchive interface {
	Upload(ctx context.Context, folder, fileName string, reader io.Reader, size int64) (string, error)
	PresignDownload(ctx context.Context, fileKey string) (string, time.Time, error)
}

// ExpiryScheduler schedules the background task that expires a pending
// session at its deadline.
type ExpiryScheduler interface {
	ScheduleCheckoutExpiry(ctx context.Context, sessionID uuid.UUID, at time.Time) error
}

// UserDirectory resolves buyer emails for top-up notifications.
type UserDirectory interface {
	GetUserEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

type Service struct {
	repo      BillingRepository
	provider  CheckoutProvider
	archive   InvoiceArchive
	scheduler ExpiryScheduler
	users     UserDirectory
	packages  *creditsvc.Catalog
	bus       events.Bus
	log       *logger.Logger
	cfg       config.CheckoutConfig
	baseURL   string
}

func New(
	repo BillingRepository,
	checkout CheckoutProvider,
	archive InvoiceArchive,
	scheduler ExpiryScheduler,
	users UserDirectory,
	packages *creditsvc.Catalog,
	bus events.Bus,
	log *logger.Logger,
	cfg config.CheckoutConfig,
	appBaseURL string,
) *Service {
	return &Service{
		repo:      repo,
		provider:  checkout,
		archive:   archive,
		scheduler: scheduler,
		users:     users,
		packages:  packages,
		bus:       bus,
		log:       log,
		cfg:       cfg,
		baseURL:   appBaseURL,
	}
}

// CheckoutRedirect is what the client needs to continue the purchase.
type CheckoutRedirect struct {
	SessionID   uuid.UUID
	RedirectURL string
	ExpiresAt   time.Time
}

// CreateCheckout starts a hosted checkout for a credit package. Credits
// are only granted later, by the provider webhook; this never touches
// the balance.
func (s *Service) CreateCheckout(ctx context.Context, userID uuid.UUID, packageID string) (CheckoutRedirect, error) {
	if !s.cfg.IsCheckoutEnabled() {
		return CheckoutRedirect{}, apperr.New(apperr.KindInternal, "checkout is not configured")
	}

	pkg, err := s.packages.Get(packageID)
	if err != nil {
		return CheckoutRedirect{}, err
	}

	expiresAt := time.Now().Add(s.cfg.GetCheckoutSessionTTL())
	reference := uuid.New().String()

	session, err := s.provider.CreateSession(ctx, provider.CreateSessionParams{
		Reference:   reference,
		AmountCents: pkg.PriceCents,
		Currency:    "EUR",
		Description: fmt.Sprintf("%s credit package (%d credits)", pkg.Name, pkg.Credits),
		SuccessURL:  s.baseURL + "/credits?checkout=success",
		CancelURL:   s.baseURL + "/credits?checkout=cancelled",
		ExpiresIn:   int(s.cfg.GetCheckoutSessionTTL().Seconds()),
	})
	if err != nil {
		return CheckoutRedirect{}, apperr.Wrap(apperr.KindInternal, "checkout provider unavailable", err)
	}

	stored, err := s.repo.CreateSession(ctx, repository.CreateSessionParams{
		UserID:            userID,
		PackageID:         pkg.ID,
		Credits:           pkg.Credits,
		AmountCents:       pkg.PriceCents,
		ProviderSessionID: session.ID,
		ExpiresAt:         expiresAt,
	})
	if err != nil {
		return CheckoutRedirect{}, err
	}

	if err := s.scheduleExpiry(ctx, stored.ID, expiresAt); err != nil {
		// The periodic reconciler sweeps stragglers, so a scheduling
		// failure should not block the checkout.
		s.log.Warn("failed to schedule checkout expiry", "session_id", stored.ID.String(), "error", err.Error())
	}

	return CheckoutRedirect{
		SessionID:   stored.ID,
		RedirectURL: session.RedirectURL,
		ExpiresAt:   expiresAt,
	}, nil
}

// scheduleExpiry is a no-op without a scheduler: the periodic reconcile
// sweep then remains the only path that expires stale sessions.
func (s *Service) scheduleExpiry(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.ScheduleCheckoutExpiry(ctx, sessionID, at)
}

// WebhookEvent is the provider's parsed webhook payload.
type WebhookEvent struct {
	Type              string `json:"type"`
	ProviderSessionID string `json:"sessionId"`
	ProviderInvoiceID string `json:"invoiceId"`
	InvoiceNumber     string `json:"invoiceNumber"`
}

// Webhook event types.
const (
	EventCheckoutCompleted = "checkout.completed"
	EventCheckoutFailed    = "checkout.failed"
)

// HandleWebhook settles a checkout session from a verified provider event.
func (s *Service) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	switch event.Type {
	case EventCheckoutCompleted:
		return s.completeCheckout(ctx, event)
	case EventCheckoutFailed:
		return s.repo.MarkSessionFailed(ctx, event.ProviderSessionID)
	default:
		s.log.Warn("ignoring unknown webhook event", "type", event.Type)
		return nil
	}
}

func (s *Service) completeCheckout(ctx context.Context, event WebhookEvent) error {
	pdfKey := s.archiveInvoicePDF(ctx, event)

	result, err := s.repo.CompleteTopUp(ctx, event.ProviderSessionID, event.InvoiceNumber, pdfKey)
	if err != nil {
		return err
	}

	s.log.LedgerEvent(result.Session.UserID.String(), "subscription", result.Session.Credits)

	email, err := s.users.GetUserEmail(ctx, result.Session.UserID)
	if err != nil {
		s.log.Warn("top-up email lookup failed", "user_id", result.Session.UserID.String(), "error", err.Error())
	}

	s.bus.Publish(ctx, events.CreditsToppedUp{
		BaseEvent:   events.NewBaseEvent(),
		UserID:      result.Session.UserID,
		Email:       email,
		PackageID:   result.Session.PackageID,
		Credits:     result.Session.Credits,
		NewBalance:  result.NewBalance,
		AmountCents: result.Session.AmountCents,
	})
	return nil
}

// archiveInvoicePDF best-effort fetches and stores the provider invoice.
// The top-up itself must not fail because a PDF was unavailable.
func (s *Service) archiveInvoicePDF(ctx context.Context, event WebhookEvent) *string {
	if s.archive == nil || event.ProviderInvoiceID == "" {
		return nil
	}

	body, size, err := s.provider.FetchInvoicePDF(ctx, event.ProviderInvoiceID)
	if err != nil {
		s.log.Warn("invoice pdf fetch failed", "invoice_id", event.ProviderInvoiceID, "error", err.Error())
		return nil
	}
	defer body.Close()

	fileName := event.InvoiceNumber
	if fileName == "" {
		fileName = event.ProviderInvoiceID
	}
	key, err := s.archive.Upload(ctx, "invoices", fileName+".pdf", body, size)
	if err != nil {
		s.log.Warn("invoice pdf upload failed", "invoice_id", event.ProviderInvoiceID, "error", err.Error())
		return nil
	}
	return &key
}

// ExpireSession expires a pending session; invoked by the worker.
func (s *Service) ExpireSession(ctx context.Context, sessionID uuid.UUID) error {
	expired, err := s.repo.ExpireSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if expired {
		s.log.Info("checkout session expired", "session_id", sessionID.String())
	}
	return nil
}

// ExpireStaleSessions sweeps every pending session past its deadline and
// returns how many were expired.
func (s *Service) ExpireStaleSessions(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireStaleSessions(ctx)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.log.Info("expired stale checkout sessions", "count", expired)
	}
	return expired, nil
}

// ListInvoices returns the caller's invoices, newest first.
func (s *Service) ListInvoices(ctx context.Context, userID uuid.UUID) ([]repository.Invoice, error) {
	return s.repo.ListInvoices(ctx, userID)
}

// InvoiceDownloadURL presigns a download link for an archived invoice PDF.
func (s *Service) InvoiceDownloadURL(ctx context.Context, invoiceID, userID uuid.UUID) (string, time.Time, error) {
	invoice, err := s.repo.GetInvoice(ctx, invoiceID, userID)
	if err != nil {
		return "", time.Time{}, err
	}
	if invoice.PDFKey == nil {
		return "", time.Time{}, apperr.Gone("no archived document for this invoice")
	}
	if s.archive == nil {
		return "", time.Time{}, apperr.New(apperr.KindInternal, "document storage is not configured")
	}
	return s.archive.PresignDownload(ctx, *invoice.PDFKey)
}
