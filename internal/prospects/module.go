// Package prospects wires the prospect repository, services and HTTP routes.
package prospects

import (
	apphttp "crm_viajes_backend/internal/http"
	"crm_viajes_backend/internal/prospects/dedup"
	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/internal/prospects/handler"
	"crm_viajes_backend/internal/prospects/lifecycle"
	"crm_viajes_backend/internal/prospects/management"
	"crm_viajes_backend/internal/prospects/repository"
	platformevents "crm_viajes_backend/platform/events"
	"crm_viajes_backend/platform/httpkit"
	"crm_viajes_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	repo    *repository.Repository
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, objects lifecycle.ObjectStore, bus platformevents.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	h := handler.New(
		dedup.NewService(repo, bus, log),
		lifecycle.NewService(repo, objects, bus, log),
		management.NewService(repo, bus, log),
	)
	return &Module{repo: repo, handler: h}
}

func (m *Module) Name() string { return "prospects" }

// Repo exposes the repository to modules that read prospect data directly.
func (m *Module) Repo() *repository.Repository { return m.repo }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/prospectos")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/cerrados", m.handler.ListClosed)
	group.GET("/buscar", m.handler.Search)
	group.GET("/historial-cliente", m.handler.CustomerHistory)
	group.GET("/destinos", m.handler.Destinos)
	group.GET("/:id", m.handler.Detail)
	group.PUT("/:id", m.handler.Update)
	group.PATCH("/:id/viaje", m.handler.UpdateViaje)
	group.DELETE("/:id", m.handler.Delete)
	group.POST("/:id/asignar",
		httpkit.RequireRole(string(domain.RolAdministrador), string(domain.RolSupervisor)),
		m.handler.Assign)
	group.POST("/:id/interacciones", m.handler.CreateInteraccion)
	group.POST("/:id/documentos", m.handler.UploadDocumento)
	group.POST("/:id/reactivar", m.handler.Reactivar)

	ctx.Protected.GET("/documentos/:id/descargar", m.handler.DownloadDocumento)

	ctx.Admin.POST("/destinos/renombrar", m.handler.RenameDestino)
}
