package reports

import (
	"net/http"
	"strconv"
	"time"

	apphttp "crm_viajes_backend/internal/http"
	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/platform/httpkit"
	"crm_viajes_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	service *Service
	logger  *logger.Logger
}

func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return &Module{service: NewService(NewRepository(pool), log), logger: log}
}

func (m *Module) Name() string { return "reports" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/reportes")
	group.GET("/dashboard", m.dashboard)
	group.GET("/cotizaciones", m.cotizaciones)
}

// scope resolves which agent the report is filtered by. Agents always see
// their own numbers; privileged roles see everything unless they pick an
// agent explicitly.
func scope(c *gin.Context) (*int64, bool) {
	identity := httpkit.MustGetIdentity(c)
	rol, err := domain.ParseRol(identity.Role())
	if err != nil {
		httpkit.Error(c, http.StatusForbidden, "rol desconocido", nil)
		return nil, false
	}
	if !rol.IsPrivileged() {
		usuarioID := identity.UserID()
		return &usuarioID, true
	}
	if raw := c.Query("agente_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpkit.Error(c, http.StatusBadRequest, "agente_id inválido", nil)
			return nil, false
		}
		return &id, true
	}
	return nil, true
}

func (m *Module) dashboard(c *gin.Context) {
	agenteID, ok := scope(c)
	if !ok {
		return
	}

	d := m.service.GetDashboard(c.Request.Context(),
		c.Query("periodo"), c.Query("fecha_inicio"), c.Query("fecha_fin"), agenteID)

	topDestinos := make([]gin.H, len(d.TopDestinos))
	for i, dest := range d.TopDestinos {
		topDestinos[i] = gin.H{"destino": dest.Destino, "prospectos": dest.Prospectos}
	}
	porAgente := make([]gin.H, len(d.PorAgente))
	for i, a := range d.PorAgente {
		porAgente[i] = gin.H{
			"agente_id": a.AgenteID,
			"username":  a.Username,
			"asignados": a.Asignados,
			"cotizados": a.Cotizados,
			"ganados":   a.Ganados,
		}
	}

	httpkit.OK(c, gin.H{
		"periodo":             d.Periodo,
		"fecha_inicio":        d.Inicio.Format(time.RFC3339),
		"fecha_fin":           d.Fin.Format(time.RFC3339),
		"total":               d.Total,
		"con_datos_completos": d.ConDatosCompletos,
		"sin_datos_completos": d.SinDatosCompletos,
		"asignados":           d.Asignados,
		"sin_asignar":         d.SinAsignar,
		"destinos_distintos":  d.DestinosDistintos,
		"top_destinos":        topDestinos,
		"nuevos":              d.Nuevos,
		"en_seguimiento":      d.EnSeguimiento,
		"cotizados":           d.Cotizados,
		"ganados":             d.Ganados,
		"cerrados_perdidos":   d.CerradosPerdidos,
		"por_agente":          porAgente,
	})
}

type cotizacionResponse struct {
	IDCotizacion    *string `json:"id_cotizacion"`
	ProspectoID     int64   `json:"prospecto_id"`
	IDCliente       *string `json:"id_cliente"`
	NombreProspecto *string `json:"nombre_prospecto"`
	Destino         *string `json:"destino"`
	AgenteID        *int64  `json:"agente_id"`
	AgenteUsername  *string `json:"agente_username"`
	FechaCotizacion string  `json:"fecha_cotizacion"`
}

func (m *Module) cotizaciones(c *gin.Context) {
	agenteID, ok := scope(c)
	if !ok {
		return
	}

	report, err := m.service.GetCotizaciones(c.Request.Context(),
		c.Query("periodo"), c.Query("fecha_inicio"), c.Query("fecha_fin"), agenteID)
	if err != nil {
		m.logger.Error("reporte de cotizaciones", "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "no se pudo generar el reporte", nil)
		return
	}

	items := make([]cotizacionResponse, len(report.Cotizaciones))
	for i, q := range report.Cotizaciones {
		items[i] = cotizacionResponse{
			IDCotizacion:    q.IDCotizacion,
			ProspectoID:     q.ProspectoID,
			IDCliente:       q.IDCliente,
			NombreProspecto: q.NombreProspecto,
			Destino:         q.Destino,
			AgenteID:        q.AgenteID,
			AgenteUsername:  q.AgenteUsername,
			FechaCotizacion: q.FechaCotizacion.Format("2006-01-02"),
		}
	}

	porAgente := make([]gin.H, len(report.PorAgente))
	for i, a := range report.PorAgente {
		porAgente[i] = gin.H{
			"agente_id":    a.AgenteID,
			"username":     a.Username,
			"cotizaciones": a.Cotizaciones,
		}
	}

	httpkit.OK(c, gin.H{
		"periodo":      report.Periodo,
		"fecha_inicio": report.Inicio.Format(time.RFC3339),
		"fecha_fin":    report.Fin.Format(time.RFC3339),
		"total":        report.Total,
		"cotizaciones": items,
		"por_agente":   porAgente,
	})
}
