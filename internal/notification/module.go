package notification

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"crm_viajes_backend/internal/email"
	"crm_viajes_backend/internal/events"
	apphttp "crm_viajes_backend/internal/http"
	"crm_viajes_backend/platform/config"
	platformevents "crm_viajes_backend/platform/events"
	"crm_viajes_backend/platform/httpkit"
	"crm_viajes_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	service *Service
	logger  *logger.Logger
}

func NewModule(pool *pgxpool.Pool, sender email.Sender, scheduler Scheduler, cfg config.NotificationConfig, bus platformevents.Bus, log *logger.Logger) *Module {
	svc := NewService(NewRepository(pool), sender, scheduler, cfg, log)
	m := &Module{service: svc, logger: log}

	bus.Subscribe(events.TypeProspectAssigned, platformevents.HandlerFunc(func(ctx context.Context, e platformevents.Event) error {
		evt, ok := e.(events.ProspectAssigned)
		if !ok {
			return nil
		}
		return svc.HandleProspectAssigned(ctx, evt)
	}))

	return m
}

func (m *Module) Name() string { return "notification" }

// Service exposes the notification service to the worker binary.
func (m *Module) Service() *Service { return m.service }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/notificaciones")
	group.GET("", m.list)
	group.PATCH("/:id/leida", m.markRead)
	group.POST("/leidas", m.markAllRead)
}

type notificacionResponse struct {
	ID              int64      `json:"id"`
	ProspectoID     *int64     `json:"prospecto_id,omitempty"`
	Tipo            string     `json:"tipo"`
	Mensaje         string     `json:"mensaje"`
	FechaProgramada *time.Time `json:"fecha_programada,omitempty"`
	Leida           bool       `json:"leida"`
	FechaCreacion   time.Time  `json:"fecha_creacion"`
}

func (m *Module) list(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	items, err := m.service.List(c.Request.Context(), identity.UserID(), c.Query("solo_no_leidas") == "true")
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]notificacionResponse, len(items))
	noLeidas := 0
	for i, n := range items {
		out[i] = notificacionResponse{
			ID:              n.ID,
			ProspectoID:     n.ProspectoID,
			Tipo:            n.Tipo,
			Mensaje:         n.Mensaje,
			FechaProgramada: n.FechaProgramada,
			Leida:           n.Leida,
			FechaCreacion:   n.FechaCreacion,
		}
		if !n.Leida {
			noLeidas++
		}
	}
	httpkit.OK(c, gin.H{"notificaciones": out, "no_leidas": noLeidas})
}

func (m *Module) markRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "id inválido", nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if err := m.service.MarkRead(c.Request.Context(), identity.UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "notificación marcada como leída"})
}

func (m *Module) markAllRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	n, err := m.service.MarkAllRead(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"marcadas": n})
}
