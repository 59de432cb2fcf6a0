// Package billing provides the checkout boundary bounded context: hosted
// checkout sessions, the settlement webhook, and invoice archiving.
// Payment capture itself stays with the external provider.
package billing

import (
	"leadmarket_backend/internal/billing/handler"
	"leadmarket_backend/internal/billing/repository"
	"leadmarket_backend/internal/billing/service"
	creditsvc "leadmarket_backend/internal/credits/service"
	"leadmarket_backend/internal/events"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the billing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the billing module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	checkout service.CheckoutProvider,
	archive service.InvoiceArchive,
	scheduler service.ExpiryScheduler,
	users service.UserDirectory,
	packages *creditsvc.Catalog,
	bus events.Bus,
	log *logger.Logger,
	validate *validator.Validator,
	cfg config.CheckoutConfig,
	appBaseURL string,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, checkout, archive, scheduler, users, packages, bus, log, cfg, appBaseURL)
	h := handler.New(svc, cfg, log, validate)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "billing"
}

// Service returns the billing service for use by the background worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts billing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// The webhook is authenticated by signature, not by JWT.
	ctx.V1.POST("/billing/webhook", m.handler.Webhook)

	ctx.Protected.POST("/credits/checkout", m.handler.Checkout)
	ctx.Protected.GET("/billing/invoices", m.handler.ListInvoices)
	ctx.Protected.GET("/billing/invoices/:id/download", m.handler.DownloadInvoice)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
