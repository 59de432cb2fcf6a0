// This file defines the module that encapsulates all lead setup and route registration.
package leads

import (
	"context"

	"leadmarket_backend/internal/events"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/leads/feed"
	"leadmarket_backend/internal/leads/handler"
	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/internal/leads/service"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	service   *service.Service
	projector *feed.Projector
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, users service.UserDirectory, bus events.Bus, log *logger.Logger, validate *validator.Validator, lowCreditThreshold int) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, users, bus, log, lowCreditThreshold)

	cache := feed.NewCache()
	projector := feed.NewProjector(cache, svc, log)
	projector.Subscribe(bus)

	h := handler.New(svc, cache, validate)

	return &Module{
		handler:   h,
		service:   svc,
		projector: projector,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for use by other modules' adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// WarmFeed loads the initial feed snapshot. Called once at startup.
func (m *Module) WarmFeed(ctx context.Context) error {
	return m.projector.Warm(ctx)
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/leads", m.handler.List)
	ctx.Protected.GET("/leads/feed", m.handler.Feed)
	ctx.Protected.GET("/leads/mine", m.handler.ListPurchased)
	ctx.Protected.GET("/leads/:id", m.handler.Get)
	ctx.Protected.POST("/leads/:id/purchase", m.handler.Purchase)

	ctx.Admin.POST("/leads", m.handler.Create)
	ctx.Admin.POST("/leads/:id/publish", m.handler.Publish)
	ctx.Admin.PATCH("/leads/:id/status", m.handler.UpdateStatus)
	ctx.Admin.PATCH("/leads/:id/call-status", m.handler.UpdateCallStatus)
	ctx.Admin.POST("/leads/reconcile", m.handler.Reconcile)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
