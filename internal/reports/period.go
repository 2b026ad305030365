// Package reports aggregates funnel activity over time windows: the
// dashboard per-state counts and the quotation statistics view.
package reports

import "time"

// Period labels accepted by the reporting endpoints.
const (
	PeriodoDia           = "dia"
	PeriodoSemana        = "semana"
	PeriodoMes           = "mes"
	PeriodoAno           = "año"
	PeriodoPersonalizado = "personalizado"
)

// customDateLayout is the wire format for custom range bounds.
const customDateLayout = "02/01/2006"

// Rango is a resolved reporting window, inclusive on both ends.
type Rango struct {
	Inicio  time.Time
	Fin     time.Time
	Periodo string
}

// ResolveRango maps a period label to a concrete calendar window: every
// bound stretches to the last instant of its closing day, so `dia` covers
// today in full and `semana` runs Monday through the end of Sunday. Custom
// ranges take their bounds from DD/MM/YYYY strings. Unknown labels and
// malformed custom dates silently fall back to the current month, matching
// the dashboard's lenient contract.
func ResolveRango(periodo, fechaInicio, fechaFin string, now time.Time) Rango {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch periodo {
	case PeriodoDia:
		return Rango{Inicio: startOfDay, Fin: endOfDay(startOfDay), Periodo: PeriodoDia}
	case PeriodoSemana:
		// Weeks start on Monday.
		offset := (int(now.Weekday()) + 6) % 7
		monday := startOfDay.AddDate(0, 0, -offset)
		return Rango{Inicio: monday, Fin: endOfDay(monday.AddDate(0, 0, 6)), Periodo: PeriodoSemana}
	case PeriodoMes:
		inicio := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Rango{Inicio: inicio, Fin: inicio.AddDate(0, 1, 0).Add(-time.Nanosecond), Periodo: PeriodoMes}
	case PeriodoAno:
		inicio := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return Rango{Inicio: inicio, Fin: inicio.AddDate(1, 0, 0).Add(-time.Nanosecond), Periodo: PeriodoAno}
	case PeriodoPersonalizado:
		inicio, errInicio := time.ParseInLocation(customDateLayout, fechaInicio, now.Location())
		fin, errFin := time.ParseInLocation(customDateLayout, fechaFin, now.Location())
		if errInicio != nil || errFin != nil {
			return ResolveRango(PeriodoMes, "", "", now)
		}
		return Rango{Inicio: inicio, Fin: endOfDay(fin), Periodo: PeriodoPersonalizado}
	default:
		return ResolveRango(PeriodoMes, "", "", now)
	}
}

func endOfDay(startOfDay time.Time) time.Time {
	return startOfDay.Add(24*time.Hour - time.Nanosecond)
}
