package http

import (
	"context"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"
)

// RouterConfig is the slice of configuration the router needs.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App carries everything the router needs, assembled by the composition
// root in main. Modules register their own routes; the router never
// knows individual endpoints.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health backs the readiness endpoint, normally a DB ping.
	Health HealthChecker
	// EventBus is handed to modules that subscribe at startup.
	EventBus events.Bus
	Modules  []Module
}
