package matching

import (
	apphttp "leadmarket_backend/internal/http"
	"leadmarket_backend/internal/matching/handler"
	"leadmarket_backend/internal/matching/repository"
	"leadmarket_backend/internal/matching/service"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the matching bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the matching module. The lead source
// is an adapter over the leads module, wired in the composition root.
func NewModule(pool *pgxpool.Pool, leads service.LeadSource, log *logger.Logger, validate *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, log)
	h := handler.New(svc, validate)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "matching"
}

// Service returns the matching service for use by other modules' adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts matching routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/settings/lead-matching", m.handler.GetSettings)
	ctx.Admin.PUT("/settings/lead-matching", m.handler.UpdateSettings)

	ctx.Protected.GET("/marketers/profile", m.handler.GetProfile)
	ctx.Protected.PUT("/marketers/profile", m.handler.SaveProfile)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
