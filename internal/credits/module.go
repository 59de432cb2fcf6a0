// This file defines the module that encapsulates credit ledger setup and route registration.
package credits

import (
	"leadmarket_backend/internal/credits/handler"
	"leadmarket_backend/internal/credits/repository"
	"leadmarket_backend/internal/credits/service"
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the credits bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the credits module with all its dependencies.
func NewModule(pool *pgxpool.Pool, catalog *service.Catalog, log *logger.Logger, validate *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, catalog, log)
	h := handler.New(svc, validate)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "credits"
}

// Service returns the credits service for use by other modules' adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts credit routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/credits/balance", m.handler.Balance)
	ctx.Protected.GET("/credits/transactions", m.handler.Transactions)
	ctx.Protected.GET("/credits/packages", m.handler.Packages)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
