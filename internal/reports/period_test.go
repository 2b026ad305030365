package reports

import (
	"testing"
	"time"
)

// Thursday 2026-08-27 15:04:05 UTC.
var now = time.Date(2026, 8, 27, 15, 4, 5, 0, time.UTC)

func TestResolveRangoDia(t *testing.T) {
	r := ResolveRango(PeriodoDia, "", "", now)
	wantInicio := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	wantFin := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	if !r.Inicio.Equal(wantInicio) || !r.Fin.Equal(wantFin) {
		t.Errorf("dia = [%v, %v], want the full calendar day", r.Inicio, r.Fin)
	}
}

func TestResolveRangoSemanaStartsMonday(t *testing.T) {
	r := ResolveRango(PeriodoSemana, "", "", now)
	want := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !r.Inicio.Equal(want) {
		t.Errorf("semana inicio = %v, want Monday %v", r.Inicio, want)
	}
	wantFin := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	if !r.Fin.Equal(wantFin) {
		t.Errorf("semana fin = %v, want end of Sunday", r.Fin)
	}

	// A Monday resolves to itself.
	monday := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	r = ResolveRango(PeriodoSemana, "", "", monday)
	if !r.Inicio.Equal(want) {
		t.Errorf("semana inicio on Monday = %v, want %v", r.Inicio, want)
	}
}

func TestResolveRangoMesYAno(t *testing.T) {
	r := ResolveRango(PeriodoMes, "", "", now)
	if !r.Inicio.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("mes inicio = %v", r.Inicio)
	}
	if !r.Fin.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)) {
		t.Errorf("mes fin = %v, want last instant of August", r.Fin)
	}

	r = ResolveRango(PeriodoAno, "", "", now)
	if !r.Inicio.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("año inicio = %v", r.Inicio)
	}
	if !r.Fin.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)) {
		t.Errorf("año fin = %v, want last instant of the year", r.Fin)
	}
}

func TestResolveRangoPersonalizado(t *testing.T) {
	r := ResolveRango(PeriodoPersonalizado, "01/03/2026", "15/03/2026", now)
	if !r.Inicio.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("inicio = %v", r.Inicio)
	}
	// End bound covers the whole closing day.
	if r.Fin.Before(time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("fin = %v, must reach end of day", r.Fin)
	}
	if r.Fin.After(time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("fin = %v, must stay inside the closing day", r.Fin)
	}
}

func TestResolveRangoFallsBackToMes(t *testing.T) {
	mes := ResolveRango(PeriodoMes, "", "", now)

	for _, tc := range []struct {
		periodo, inicio, fin string
	}{
		{"trimestre", "", ""},
		{"", "", ""},
		{PeriodoPersonalizado, "2026-03-01", "2026-03-15"},
		{PeriodoPersonalizado, "31/02/2026", "15/03/2026"},
		{PeriodoPersonalizado, "01/03/2026", ""},
	} {
		r := ResolveRango(tc.periodo, tc.inicio, tc.fin, now)
		if r.Periodo != PeriodoMes || !r.Inicio.Equal(mes.Inicio) {
			t.Errorf("ResolveRango(%q, %q, %q) did not fall back to mes: %+v", tc.periodo, tc.inicio, tc.fin, r)
		}
	}
}
