package channels

import (
	"net/http"
	"strconv"
	"strings"

	apphttp "crm_viajes_backend/internal/http"
	"crm_viajes_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	repo *Repository
}

func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{repo: NewRepository(pool)}
}

func (m *Module) Name() string { return "channels" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/medios-ingreso", m.list)

	admin := ctx.Admin.Group("/medios-ingreso")
	admin.POST("", m.create)
	admin.PATCH("/:id/activo", m.setActivo)
}

type medioResponse struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Activo bool   `json:"activo"`
}

func (m *Module) list(c *gin.Context) {
	items, err := m.repo.List(c.Request.Context(), c.Query("solo_activos") != "false")
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "no se pudieron listar los medios de ingreso", nil)
		return
	}
	out := make([]medioResponse, len(items))
	for i, item := range items {
		out[i] = medioResponse{ID: item.ID, Nombre: item.Nombre, Activo: item.Activo}
	}
	httpkit.OK(c, gin.H{"medios_ingreso": out})
}

type createRequest struct {
	Nombre string `json:"nombre" binding:"required"`
}

func (m *Module) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "nombre es obligatorio", nil)
		return
	}

	nombre := strings.ToUpper(strings.TrimSpace(req.Nombre))
	created, err := m.repo.Create(c.Request.Context(), nombre)
	if err == ErrDuplicate {
		httpkit.Error(c, http.StatusConflict, "el medio de ingreso ya existe", nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "no se pudo crear el medio de ingreso", nil)
		return
	}
	httpkit.JSON(c, http.StatusCreated, medioResponse{ID: created.ID, Nombre: created.Nombre, Activo: created.Activo})
}

type activoRequest struct {
	Activo *bool `json:"activo" binding:"required"`
}

func (m *Module) setActivo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "id inválido", nil)
		return
	}
	var req activoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "activo es obligatorio", nil)
		return
	}

	updated, err := m.repo.SetActivo(c.Request.Context(), id, *req.Activo)
	if err == ErrNotFound {
		httpkit.Error(c, http.StatusNotFound, "medio de ingreso no encontrado", nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "no se pudo actualizar el medio de ingreso", nil)
		return
	}
	httpkit.OK(c, medioResponse{ID: updated.ID, Nombre: updated.Nombre, Activo: updated.Activo})
}
