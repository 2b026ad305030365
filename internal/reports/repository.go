package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountNuevos counts prospects registered inside the window.
func (r *Repository) CountNuevos(ctx context.Context, inicio, fin time.Time, agenteID *int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM prospectos
		WHERE fecha_registro BETWEEN $1 AND $2
		  AND ($3::bigint IS NULL OR agente_asignado_id = $3)
	`, inicio, fin, agenteID).Scan(&count)
	return count, err
}

// CountByHistorial counts prospects that entered the given state inside the
// window, according to the audit trail. A prospect entering the state twice
// in the window counts once.
func (r *Repository) CountByHistorial(ctx context.Context, estado string, inicio, fin time.Time, agenteID *int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT h.prospecto_id)
		FROM historial_estados h
		JOIN prospectos p ON p.id = h.prospecto_id
		WHERE h.estado_nuevo = $1
		  AND h.fecha_cambio BETWEEN $2 AND $3
		  AND ($4::bigint IS NULL OR p.agente_asignado_id = $4)
	`, estado, inicio, fin, agenteID).Scan(&count)
	return count, err
}

// CountCotizados counts prospects quoted inside the window, by quotation date.
func (r *Repository) CountCotizados(ctx context.Context, inicio, fin time.Time, agenteID *int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT prospecto_id)
		FROM estadisticas_cotizacion
		WHERE fecha_cotizacion BETWEEN $1::date AND $2::date
		  AND ($3::bigint IS NULL OR agente_id = $3)
	`, inicio, fin, agenteID).Scan(&count)
	return count, err
}

// CountSinAsignar counts unassigned new prospects registered inside the window.
func (r *Repository) CountSinAsignar(ctx context.Context, inicio, fin time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM prospectos
		WHERE agente_asignado_id IS NULL
		  AND estado = 'nuevo'
		  AND fecha_registro BETWEEN $1 AND $2
	`, inicio, fin).Scan(&count)
	return count, err
}

// CountAsignados counts prospects registered inside the window that have an
// agent.
func (r *Repository) CountAsignados(ctx context.Context, inicio, fin time.Time, agenteID *int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM prospectos
		WHERE agente_asignado_id IS NOT NULL
		  AND fecha_registro BETWEEN $1 AND $2
		  AND ($3::bigint IS NULL OR agente_asignado_id = $3)
	`, inicio, fin, agenteID).Scan(&count)
	return count, err
}

// CountDatosCompletos splits the window's registrations by the completeness
// flag.
func (r *Repository) CountDatosCompletos(ctx context.Context, inicio, fin time.Time, agenteID *int64) (completos, incompletos int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE tiene_datos_completos),
		       COUNT(*) FILTER (WHERE NOT tiene_datos_completos)
		FROM prospectos
		WHERE fecha_registro BETWEEN $1 AND $2
		  AND ($3::bigint IS NULL OR agente_asignado_id = $3)
	`, inicio, fin, agenteID).Scan(&completos, &incompletos)
	return completos, incompletos, err
}

// DestinoConteo is one destination with its registration count.
type DestinoConteo struct {
	Destino    string
	Prospectos int
}

// CountDestinos returns the number of distinct non-empty destinations and the
// five most frequent ones for registrations inside the window.
func (r *Repository) CountDestinos(ctx context.Context, inicio, fin time.Time, agenteID *int64) (int, []DestinoConteo, error) {
	var distintos int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT destino) FROM prospectos
		WHERE destino IS NOT NULL AND TRIM(destino) <> ''
		  AND fecha_registro BETWEEN $1 AND $2
		  AND ($3::bigint IS NULL OR agente_asignado_id = $3)
	`, inicio, fin, agenteID).Scan(&distintos)
	if err != nil {
		return 0, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT destino, COUNT(*) FROM prospectos
		WHERE destino IS NOT NULL AND TRIM(destino) <> ''
		  AND fecha_registro BETWEEN $1 AND $2
		  AND ($3::bigint IS NULL OR agente_asignado_id = $3)
		GROUP BY destino
		ORDER BY COUNT(*) DESC
		LIMIT 5
	`, inicio, fin, agenteID)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	top := make([]DestinoConteo, 0, 5)
	for rows.Next() {
		var d DestinoConteo
		if err := rows.Scan(&d.Destino, &d.Prospectos); err != nil {
			return 0, nil, err
		}
		top = append(top, d)
	}
	return distintos, top, rows.Err()
}

// ConversionAgente is one agent's funnel inside the window.
type ConversionAgente struct {
	AgenteID  int64
	Username  string
	Asignados int
	Cotizados int
	Ganados   int
}

// ConversionPorAgente computes the per-agent funnel: prospects assigned to the
// agent registered in the window, quotations by quotation date, and wins by
// audit-trail date.
func (r *Repository) ConversionPorAgente(ctx context.Context, inicio, fin time.Time) ([]ConversionAgente, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.username,
		       (SELECT COUNT(*) FROM prospectos p
		        WHERE p.agente_asignado_id = u.id AND p.fecha_registro BETWEEN $1 AND $2),
		       (SELECT COUNT(*) FROM estadisticas_cotizacion e
		        WHERE e.agente_id = u.id AND e.fecha_cotizacion BETWEEN $1::date AND $2::date),
		       (SELECT COUNT(DISTINCT h.prospecto_id)
		        FROM historial_estados h
		        JOIN prospectos p ON p.id = h.prospecto_id
		        WHERE p.agente_asignado_id = u.id
		          AND h.estado_nuevo = 'ganado'
		          AND h.fecha_cambio BETWEEN $1 AND $2)
		FROM usuarios u
		WHERE u.tipo_usuario = 'agente' AND u.activo
		ORDER BY u.username ASC
	`, inicio, fin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ConversionAgente, 0)
	for rows.Next() {
		var a ConversionAgente
		if err := rows.Scan(&a.AgenteID, &a.Username, &a.Asignados, &a.Cotizados, &a.Ganados); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// Cotizacion is one quotation stat row joined with its prospect and agent.
type Cotizacion struct {
	IDCotizacion    *string
	ProspectoID     int64
	IDCliente       *string
	NombreProspecto *string
	Destino         *string
	AgenteID        *int64
	AgenteUsername  *string
	FechaCotizacion time.Time
}

// ListCotizaciones returns the quotation stats inside the window, newest
// quotation first.
func (r *Repository) ListCotizaciones(ctx context.Context, inicio, fin time.Time, agenteID *int64) ([]Cotizacion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id_cotizacion, e.prospecto_id, p.id_cliente,
		       NULLIF(TRIM(COALESCE(p.nombre, '') || ' ' || COALESCE(p.apellido, '')), ''),
		       p.destino, e.agente_id, u.username, e.fecha_cotizacion
		FROM estadisticas_cotizacion e
		JOIN prospectos p ON p.id = e.prospecto_id
		LEFT JOIN usuarios u ON u.id = e.agente_id
		WHERE e.fecha_cotizacion BETWEEN $1::date AND $2::date
		  AND ($3::bigint IS NULL OR e.agente_id = $3)
		ORDER BY e.fecha_cotizacion DESC, e.id DESC
	`, inicio, fin, agenteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Cotizacion, 0)
	for rows.Next() {
		var c Cotizacion
		if err := rows.Scan(&c.IDCotizacion, &c.ProspectoID, &c.IDCliente, &c.NombreProspecto,
			&c.Destino, &c.AgenteID, &c.AgenteUsername, &c.FechaCotizacion); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// AgenteResumen is the per-agent quotation tally.
type AgenteResumen struct {
	AgenteID     int64
	Username     string
	Cotizaciones int
}

// CountCotizacionesPorAgente tallies quotations per agent inside the window.
func (r *Repository) CountCotizacionesPorAgente(ctx context.Context, inicio, fin time.Time) ([]AgenteResumen, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.username, COUNT(*)
		FROM estadisticas_cotizacion e
		JOIN usuarios u ON u.id = e.agente_id
		WHERE e.fecha_cotizacion BETWEEN $1::date AND $2::date
		GROUP BY u.id, u.username
		ORDER BY COUNT(*) DESC, u.username ASC
	`, inicio, fin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]AgenteResumen, 0)
	for rows.Next() {
		var a AgenteResumen
		if err := rows.Scan(&a.AgenteID, &a.Username, &a.Cotizaciones); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
