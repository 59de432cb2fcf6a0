// Package http wires domain modules onto the gin engine. Each bounded
// context implements Module and mounts its own routes, so the router
// stays ignorant of individual endpoints.
package http

import (
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that owns a set of HTTP routes.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// RegisterRoutes mounts the module's endpoints on the shared groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext bundles the route groups and shared middleware a module
// can mount on, so RegisterRoutes takes one argument instead of six.
type RouterContext struct {
	// Engine is the root engine, for the rare module that needs it.
	Engine *gin.Engine
	// V1 is the public /api/v1 group.
	V1 *gin.RouterGroup
	// Protected requires a valid access token.
	Protected *gin.RouterGroup
	// Admin additionally requires the admin role.
	Admin *gin.RouterGroup
	// Config exposes JWT settings for modules that parse tokens themselves.
	Config config.JWTConfig
	// AuthMiddleware is the token check, for modules guarding extra groups.
	AuthMiddleware gin.HandlerFunc
	// AuthRateLimiter is the stricter limiter applied to login routes.
	AuthRateLimiter *httpkit.AuthRateLimiter
}
