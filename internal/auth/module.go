// Package auth wires the authentication bounded context.
package auth

import (
	"crm_viajes_backend/internal/auth/handler"
	"crm_viajes_backend/internal/auth/repository"
	"crm_viajes_backend/internal/auth/service"
	apphttp "crm_viajes_backend/internal/http"
	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	return &Module{handler: handler.New(svc)}
}

func (m *Module) Name() string { return "auth" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/auth")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	public.POST("/login", m.handler.Login)
	public.POST("/refresh", m.handler.Refresh)

	protected := ctx.Protected.Group("/auth")
	protected.POST("/logout", m.handler.Logout)
	protected.GET("/me", m.handler.Me)
}
