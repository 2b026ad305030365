package reports

import (
	"context"
	"time"

	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Store is the query surface the reports need.
type Store interface {
	CountNuevos(ctx context.Context, inicio, fin time.Time, agenteID *int64) (int, error)
	CountByHistorial(ctx context.Context, estado string, inicio, fin time.Time, agenteID *int64) (int, error)
	CountCotizados(ctx context.Context, inicio, fin time.Time, agenteID *int64) (int, error)
	CountSinAsignar(ctx context.Context, inicio, fin time.Time) (int, error)
	CountAsignados(ctx context.Context, inicio, fin time.Time, agenteID *int64) (int, error)
	CountDatosCompletos(ctx context.Context, inicio, fin time.Time, agenteID *int64) (int, int, error)
	CountDestinos(ctx context.Context, inicio, fin time.Time, agenteID *int64) (int, []DestinoConteo, error)
	ConversionPorAgente(ctx context.Context, inicio, fin time.Time) ([]ConversionAgente, error)
	ListCotizaciones(ctx context.Context, inicio, fin time.Time, agenteID *int64) ([]Cotizacion, error)
	CountCotizacionesPorAgente(ctx context.Context, inicio, fin time.Time) ([]AgenteResumen, error)
}

type Service struct {
	store  Store
	logger *logger.Logger
	now    func() time.Time
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, logger: log, now: time.Now}
}

// Dashboard is the per-state activity summary for a window. Each state is
// counted on its own time base: nuevo by registration date, cotizado by
// quotation date, and the remaining states by when prospects entered them
// according to the audit trail.
type Dashboard struct {
	Periodo           string
	Inicio            time.Time
	Fin               time.Time
	Total             int
	ConDatosCompletos int
	SinDatosCompletos int
	Asignados         int
	SinAsignar        int
	DestinosDistintos int
	TopDestinos       []DestinoConteo
	Nuevos            int
	EnSeguimiento     int
	Cotizados         int
	Ganados           int
	CerradosPerdidos  int
	PorAgente         []ConversionAgente
}

// GetDashboard resolves the window and gathers the counts. A query failure
// degrades the whole summary to zeros instead of failing the dashboard; the
// error is logged. The per-agent conversion breakdown and the unassigned
// count are gathered only on the unscoped (privileged) view.
func (s *Service) GetDashboard(ctx context.Context, periodo, fechaInicio, fechaFin string, agenteID *int64) Dashboard {
	rango := ResolveRango(periodo, fechaInicio, fechaFin, s.now())
	empty := Dashboard{Periodo: rango.Periodo, Inicio: rango.Inicio, Fin: rango.Fin}
	out := empty

	fail := func(what string, err error) Dashboard {
		s.logger.Error("dashboard: "+what, "error", err)
		return empty
	}

	var err error
	if out.Total, err = s.store.CountNuevos(ctx, rango.Inicio, rango.Fin, agenteID); err != nil {
		return fail("contar registros", err)
	}
	// Every prospect starts as nuevo, so the new-state count shares the
	// registration time base with the total.
	out.Nuevos = out.Total
	if out.ConDatosCompletos, out.SinDatosCompletos, err = s.store.CountDatosCompletos(ctx, rango.Inicio, rango.Fin, agenteID); err != nil {
		return fail("contar completitud", err)
	}
	if out.Asignados, err = s.store.CountAsignados(ctx, rango.Inicio, rango.Fin, agenteID); err != nil {
		return fail("contar asignados", err)
	}
	if out.DestinosDistintos, out.TopDestinos, err = s.store.CountDestinos(ctx, rango.Inicio, rango.Fin, agenteID); err != nil {
		return fail("contar destinos", err)
	}
	if out.EnSeguimiento, err = s.store.CountByHistorial(ctx, string(domain.EstadoEnSeguimiento), rango.Inicio, rango.Fin, agenteID); err != nil {
		return fail("contar en_seguimiento", err)
	}
	if out.Cotizados, err = s.store.CountCotizados(ctx, rango.Inicio, rango.Fin, agenteID); err != nil {
		return fail("contar cotizados", err)
	}
	if out.Ganados, err = s.store.CountByHistorial(ctx, string(domain.EstadoGanado), rango.Inicio, rango.Fin, agenteID); err != nil {
		return fail("contar ganados", err)
	}
	if out.CerradosPerdidos, err = s.store.CountByHistorial(ctx, string(domain.EstadoCerradoPerdido), rango.Inicio, rango.Fin, agenteID); err != nil {
		return fail("contar cerrados", err)
	}

	if agenteID == nil {
		if out.SinAsignar, err = s.store.CountSinAsignar(ctx, rango.Inicio, rango.Fin); err != nil {
			return fail("contar sin asignar", err)
		}
		if out.PorAgente, err = s.store.ConversionPorAgente(ctx, rango.Inicio, rango.Fin); err != nil {
			return fail("conversión por agente", err)
		}
	}

	return out
}

// CotizacionesReport is the quotation statistics view over a window.
type CotizacionesReport struct {
	Periodo      string
	Inicio       time.Time
	Fin          time.Time
	Total        int
	Cotizaciones []Cotizacion
	PorAgente    []AgenteResumen
}

// GetCotizaciones resolves the window and lists its quotation stats with the
// per-agent tallies.
func (s *Service) GetCotizaciones(ctx context.Context, periodo, fechaInicio, fechaFin string, agenteID *int64) (CotizacionesReport, error) {
	rango := ResolveRango(periodo, fechaInicio, fechaFin, s.now())

	var (
		cotizaciones []Cotizacion
		porAgente    []AgenteResumen
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cotizaciones, err = s.store.ListCotizaciones(gctx, rango.Inicio, rango.Fin, agenteID)
		return err
	})
	g.Go(func() error {
		var err error
		porAgente, err = s.store.CountCotizacionesPorAgente(gctx, rango.Inicio, rango.Fin)
		return err
	})
	if err := g.Wait(); err != nil {
		return CotizacionesReport{}, err
	}

	return CotizacionesReport{
		Periodo:      rango.Periodo,
		Inicio:       rango.Inicio,
		Fin:          rango.Fin,
		Total:        len(cotizaciones),
		Cotizaciones: cotizaciones,
		PorAgente:    porAgente,
	}, nil
}
