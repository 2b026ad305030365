// Package users wires account administration.
package users

import (
	apphttp "crm_viajes_backend/internal/http"
	"crm_viajes_backend/internal/users/handler"
	"crm_viajes_backend/internal/users/repository"
	"crm_viajes_backend/internal/users/service"
	"crm_viajes_backend/platform/logger"
	"crm_viajes_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), val, log)
	return &Module{handler: handler.New(svc), service: svc}
}

func (m *Module) Name() string { return "users" }

// Service exposes the user service for other modules (notifications look up
// recipient emails through it).
func (m *Module) Service() *service.Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Assignment picker, available to any authenticated user.
	ctx.Protected.GET("/agentes", m.handler.ListAgentes)

	admin := ctx.Admin.Group("/usuarios")
	admin.POST("", m.handler.Create)
	admin.GET("", m.handler.List)
	admin.PUT("/:id", m.handler.Update)
	admin.DELETE("/:id", m.handler.Delete)
}
