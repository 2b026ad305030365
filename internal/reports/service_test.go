package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_viajes_backend/platform/logger"
)

type fakeStore struct {
	historialCalls  []string
	sinAsignarCalls int
	conversionCalls int
	failNuevos      bool
	failHistorial   bool
}

func (f *fakeStore) CountNuevos(context.Context, time.Time, time.Time, *int64) (int, error) {
	if f.failNuevos {
		return 0, errors.New("boom")
	}
	return 4, nil
}

func (f *fakeStore) CountByHistorial(_ context.Context, estado string, _, _ time.Time, _ *int64) (int, error) {
	if f.failHistorial {
		return 0, errors.New("boom")
	}
	f.historialCalls = append(f.historialCalls, estado)
	return 2, nil
}

func (f *fakeStore) CountCotizados(context.Context, time.Time, time.Time, *int64) (int, error) {
	return 3, nil
}

func (f *fakeStore) CountSinAsignar(context.Context, time.Time, time.Time) (int, error) {
	f.sinAsignarCalls++
	return 1, nil
}

func (f *fakeStore) CountAsignados(context.Context, time.Time, time.Time, *int64) (int, error) {
	return 3, nil
}

func (f *fakeStore) CountDatosCompletos(context.Context, time.Time, time.Time, *int64) (int, int, error) {
	return 1, 3, nil
}

func (f *fakeStore) CountDestinos(context.Context, time.Time, time.Time, *int64) (int, []DestinoConteo, error) {
	return 2, []DestinoConteo{{Destino: "Cancún", Prospectos: 3}, {Destino: "Madrid", Prospectos: 1}}, nil
}

func (f *fakeStore) ConversionPorAgente(context.Context, time.Time, time.Time) ([]ConversionAgente, error) {
	f.conversionCalls++
	return []ConversionAgente{{AgenteID: 5, Username: "ana", Asignados: 3, Cotizados: 2, Ganados: 1}}, nil
}

func (f *fakeStore) ListCotizaciones(context.Context, time.Time, time.Time, *int64) ([]Cotizacion, error) {
	return []Cotizacion{{ProspectoID: 1}, {ProspectoID: 2}}, nil
}

func (f *fakeStore) CountCotizacionesPorAgente(context.Context, time.Time, time.Time) ([]AgenteResumen, error) {
	return []AgenteResumen{{AgenteID: 5, Username: "ana", Cotizaciones: 2}}, nil
}

func newService(store *fakeStore) *Service {
	svc := NewService(store, logger.New("development"))
	svc.now = func() time.Time { return now }
	return svc
}

func TestGetDashboardMixedTimeBases(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)

	d := svc.GetDashboard(context.Background(), PeriodoMes, "", "", nil)

	if d.Total != 4 || d.Nuevos != 4 || d.Cotizados != 3 || d.SinAsignar != 1 {
		t.Errorf("dashboard = %+v", d)
	}
	if d.ConDatosCompletos != 1 || d.SinDatosCompletos != 3 || d.Asignados != 3 {
		t.Errorf("registro-based counts = %+v", d)
	}
	if d.DestinosDistintos != 2 || len(d.TopDestinos) != 2 || d.TopDestinos[0].Destino != "Cancún" {
		t.Errorf("destinos = %+v", d.TopDestinos)
	}
	if len(d.PorAgente) != 1 || d.PorAgente[0].Ganados != 1 {
		t.Errorf("por agente = %+v", d.PorAgente)
	}
	if d.EnSeguimiento != 2 || d.Ganados != 2 || d.CerradosPerdidos != 2 {
		t.Errorf("historial-based counts = %+v", d)
	}
	// Only the audit-trail states go through the historial query; nuevo and
	// cotizado have their own time bases.
	want := []string{"en_seguimiento", "ganado", "cerrado_perdido"}
	if len(store.historialCalls) != len(want) {
		t.Fatalf("historial calls = %v", store.historialCalls)
	}
	for i, estado := range want {
		if store.historialCalls[i] != estado {
			t.Errorf("historial call %d = %q, want %q", i, store.historialCalls[i], estado)
		}
	}
	if d.Periodo != PeriodoMes {
		t.Errorf("periodo = %q", d.Periodo)
	}
}

func TestGetDashboardDegradesToZeros(t *testing.T) {
	for _, store := range []*fakeStore{{failNuevos: true}, {failHistorial: true}} {
		svc := newService(store)
		d := svc.GetDashboard(context.Background(), PeriodoMes, "", "", nil)
		if d.Nuevos != 0 || d.EnSeguimiento != 0 || d.Cotizados != 0 ||
			d.Ganados != 0 || d.CerradosPerdidos != 0 || d.SinAsignar != 0 {
			t.Errorf("failing store must degrade to zeros, got %+v", d)
		}
		if d.Periodo != PeriodoMes {
			t.Errorf("periodo must survive degradation, got %q", d.Periodo)
		}
	}
}

func TestGetDashboardAgentScopeSkipsGlobalCounts(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)

	agente := int64(9)
	d := svc.GetDashboard(context.Background(), PeriodoMes, "", "", &agente)

	if store.sinAsignarCalls != 0 || store.conversionCalls != 0 {
		t.Errorf("scoped dashboard must not run global queries: sinAsignar=%d conversion=%d",
			store.sinAsignarCalls, store.conversionCalls)
	}
	if d.SinAsignar != 0 || len(d.PorAgente) != 0 {
		t.Errorf("scoped dashboard = %+v", d)
	}
}

func TestGetCotizaciones(t *testing.T) {
	svc := newService(&fakeStore{})

	report, err := svc.GetCotizaciones(context.Background(), PeriodoSemana, "", "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Total != 2 {
		t.Errorf("total = %d, want 2", report.Total)
	}
	if len(report.PorAgente) != 1 || report.PorAgente[0].Cotizaciones != 2 {
		t.Errorf("por agente = %+v", report.PorAgente)
	}
	if report.Periodo != PeriodoSemana {
		t.Errorf("periodo = %q", report.Periodo)
	}
}
