// Package exports streams prospect listings as CSV downloads.
package exports

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apphttp "crm_viajes_backend/internal/http"
	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/internal/prospects/repository"
	"crm_viajes_backend/platform/httpkit"
	"crm_viajes_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const exportLimit = 10000

type Module struct {
	repo   *repository.Repository
	logger *logger.Logger
}

func NewModule(repo *repository.Repository, log *logger.Logger) *Module {
	return &Module{repo: repo, logger: log}
}

func (m *Module) Name() string { return "exports" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/exportar/prospectos", m.exportProspectos)
}

var csvHeader = []string{
	"id_cliente", "nombre", "apellido", "telefono", "correo_electronico",
	"ciudad_origen", "destino", "fecha_ida", "fecha_vuelta",
	"pasajeros_adultos", "pasajeros_ninos", "pasajeros_infantes",
	"estado", "cliente_recurrente", "fecha_registro",
}

// exportProspectos streams the actor's visible prospects as CSV. Agents get
// only their own records.
func (m *Module) exportProspectos(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	rol, err := domain.ParseRol(identity.Role())
	if httpkit.HandleError(c, err) {
		return
	}

	params := repository.ListParams{Limit: exportLimit}
	if !rol.IsPrivileged() {
		usuarioID := identity.UserID()
		params.AgenteID = &usuarioID
	}
	if raw := c.Query("estado"); raw != "" {
		estado, err := domain.ParseEstado(raw)
		if httpkit.HandleError(c, err) {
			return
		}
		params.Estado = &estado
	}

	items, _, err := m.repo.List(c.Request.Context(), params)
	if err != nil {
		m.logger.Error("exportar prospectos", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "no se pudo generar la exportación", nil)
		return
	}

	filename := fmt.Sprintf("prospectos-%s.csv", time.Now().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	w := csv.NewWriter(c.Writer)
	if err := w.Write(csvHeader); err != nil {
		return
	}
	for _, p := range items {
		if err := w.Write(csvRow(p)); err != nil {
			return
		}
	}
	w.Flush()
}

func csvRow(p repository.Prospecto) []string {
	return []string{
		deref(p.IDCliente),
		deref(p.Nombre),
		deref(p.Apellido),
		p.IndicativoTelefono + p.Telefono,
		deref(p.CorreoElectronico),
		deref(p.CiudadOrigen),
		deref(p.Destino),
		dateOrEmpty(p.FechaIda),
		dateOrEmpty(p.FechaVuelta),
		strconv.Itoa(p.PasajerosAdultos),
		strconv.Itoa(p.PasajerosNinos),
		strconv.Itoa(p.PasajerosInfantes),
		string(p.Estado),
		strconv.FormatBool(p.ClienteRecurrente),
		p.FechaRegistro.Format("02/01/2006 15:04"),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
