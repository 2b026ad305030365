package http

import (
	"context"

	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/events"
	"crm_viajes_backend/platform/logger"
)

// RouterConfig combines the config interfaces the HTTP router needs.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes the minimal surface for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies. The composition
// root populates it and hands it to the router.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}
