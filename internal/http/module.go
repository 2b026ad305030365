// Package http provides HTTP server infrastructure including the Module
// interface every domain module implements for route registration.
package http

import (
	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that registers its own HTTP routes, keeping the
// router decoupled from specific endpoints.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// RegisterRoutes mounts the module's routes using the shared context.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the shared dependencies modules need to mount routes.
type RouterContext struct {
	// Engine is the root Gin engine for modules needing engine-level access.
	Engine *gin.Engine
	// V1 is the public /api/v1 route group.
	V1 *gin.RouterGroup
	// Protected is the authenticated route group under /api/v1.
	Protected *gin.RouterGroup
	// Admin is the authenticated group restricted to administrators.
	Admin *gin.RouterGroup
	// Config provides JWT settings for auth middleware.
	Config config.JWTConfig
	// AuthMiddleware authenticates requests with a bearer access token.
	AuthMiddleware gin.HandlerFunc
	// AuthRateLimiter throttles credential endpoints.
	AuthRateLimiter *httpkit.AuthRateLimiter
}
