package repository

import (
	"context"
	"errors"
	"time"

	"crm_viajes_backend/internal/prospects/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("prospecto not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Prospecto mirrors the prospectos table.
type Prospecto struct {
	ID                           int64
	IDCliente                    *string
	Nombre                       *string
	Apellido                     *string
	CorreoElectronico            *string
	Telefono                     string
	IndicativoTelefono           string
	TelefonoSecundario           *string
	IndicativoTelefonoSecundario *string
	CiudadOrigen                 *string
	Destino                      *string
	FechaIda                     *time.Time
	FechaVuelta                  *time.Time
	PasajerosAdultos             int
	PasajerosNinos               int
	PasajerosInfantes            int
	MedioIngresoID               *int64
	Observaciones                *string
	FechaRegistro                time.Time
	AgenteAsignadoID             *int64
	Estado                       domain.Estado
	TieneDatosCompletos          bool
	ClienteRecurrente            bool
	ProspectoOriginalID          *int64
}

const prospectoColumns = `id, id_cliente, nombre, apellido, correo_electronico, telefono,
	indicativo_telefono, telefono_secundario, indicativo_telefono_secundario,
	ciudad_origen, destino, fecha_ida, fecha_vuelta,
	pasajeros_adultos, pasajeros_ninos, pasajeros_infantes,
	medio_ingreso_id, observaciones, fecha_registro, agente_asignado_id,
	estado, tiene_datos_completos, cliente_recurrente, prospecto_original_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProspecto(row rowScanner) (Prospecto, error) {
	var p Prospecto
	var estado string
	err := row.Scan(
		&p.ID, &p.IDCliente, &p.Nombre, &p.Apellido, &p.CorreoElectronico, &p.Telefono,
		&p.IndicativoTelefono, &p.TelefonoSecundario, &p.IndicativoTelefonoSecundario,
		&p.CiudadOrigen, &p.Destino, &p.FechaIda, &p.FechaVuelta,
		&p.PasajerosAdultos, &p.PasajerosNinos, &p.PasajerosInfantes,
		&p.MedioIngresoID, &p.Observaciones, &p.FechaRegistro, &p.AgenteAsignadoID,
		&estado, &p.TieneDatosCompletos, &p.ClienteRecurrente, &p.ProspectoOriginalID,
	)
	if err != nil {
		return Prospecto{}, err
	}
	p.Estado = domain.Estado(estado)
	return p, nil
}

func collectProspectos(rows pgx.Rows) ([]Prospecto, error) {
	defer rows.Close()

	items := make([]Prospecto, 0)
	for rows.Next() {
		p, err := scanProspecto(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// CreateProspectoParams holds all fields for inserting a prospect row.
type CreateProspectoParams struct {
	Nombre                       *string
	Apellido                     *string
	CorreoElectronico            *string
	Telefono                     string
	IndicativoTelefono           string
	TelefonoSecundario           *string
	IndicativoTelefonoSecundario *string
	CiudadOrigen                 *string
	Destino                      *string
	FechaIda                     *time.Time
	FechaVuelta                  *time.Time
	PasajerosAdultos             int
	PasajerosNinos               int
	PasajerosInfantes            int
	MedioIngresoID               *int64
	Observaciones                *string
	AgenteAsignadoID             *int64
	TieneDatosCompletos          bool
	ClienteRecurrente            bool
	ProspectoOriginalID          *int64
}

// SystemInteraction is an optional log entry written in the same transaction
// as the prospect insert.
type SystemInteraction struct {
	UsuarioID       int64
	TipoInteraccion string
	Descripcion     string
	EstadoAnterior  *string
	EstadoNuevo     *string
}

// Create inserts a prospect, stamps its client identifier and optionally
// writes a system interaction, all in one transaction. A failure at any step
// rolls everything back so no partial prospect/interaction pair survives.
func (r *Repository) Create(ctx context.Context, params CreateProspectoParams, logEntry *SystemInteraction) (Prospecto, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Prospecto{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var p Prospecto
	p, err = scanProspecto(tx.QueryRow(ctx, `
		INSERT INTO prospectos (
			nombre, apellido, correo_electronico, telefono, indicativo_telefono,
			telefono_secundario, indicativo_telefono_secundario, ciudad_origen, destino,
			fecha_ida, fecha_vuelta, pasajeros_adultos, pasajeros_ninos, pasajeros_infantes,
			medio_ingreso_id, observaciones, agente_asignado_id,
			tiene_datos_completos, cliente_recurrente, prospecto_original_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING `+prospectoColumns,
		params.Nombre, params.Apellido, params.CorreoElectronico, params.Telefono, params.IndicativoTelefono,
		params.TelefonoSecundario, params.IndicativoTelefonoSecundario, params.CiudadOrigen, params.Destino,
		params.FechaIda, params.FechaVuelta, params.PasajerosAdultos, params.PasajerosNinos, params.PasajerosInfantes,
		params.MedioIngresoID, params.Observaciones, params.AgenteAsignadoID,
		params.TieneDatosCompletos, params.ClienteRecurrente, params.ProspectoOriginalID,
	))
	if err != nil {
		return Prospecto{}, err
	}

	// Row id is assigned now; stamp the immutable client identifier.
	idCliente, err := domain.GenerateID("", domain.PrefijoCliente, time.Now(), p.ID)
	if err != nil {
		return Prospecto{}, err
	}
	if _, err = tx.Exec(ctx, `UPDATE prospectos SET id_cliente = $1 WHERE id = $2`, idCliente, p.ID); err != nil {
		return Prospecto{}, err
	}
	p.IDCliente = &idCliente

	if logEntry != nil {
		if _, err = tx.Exec(ctx, `
			INSERT INTO interacciones (prospecto_id, usuario_id, tipo_interaccion, descripcion, estado_anterior, estado_nuevo)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, p.ID, logEntry.UsuarioID, logEntry.TipoInteraccion, logEntry.Descripcion, logEntry.EstadoAnterior, logEntry.EstadoNuevo); err != nil {
			return Prospecto{}, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return Prospecto{}, err
	}

	return p, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Prospecto, error) {
	p, err := scanProspecto(r.pool.QueryRow(ctx, `
		SELECT `+prospectoColumns+` FROM prospectos WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Prospecto{}, ErrNotFound
	}
	return p, err
}

// FindByPhones returns every prospect whose primary or secondary phone equals
// the candidate primary number, unioned with matches on the candidate
// secondary number when provided. Matching is exact-string: no punctuation or
// whitespace normalization is applied. Most recent registration first.
func (r *Repository) FindByPhones(ctx context.Context, telefono string, telefonoSecundario *string) ([]Prospecto, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prospectoColumns+`
		FROM prospectos
		WHERE telefono = $1 OR telefono_secundario = $1
		   OR ($2::text IS NOT NULL AND (telefono = $2 OR telefono_secundario = $2))
		ORDER BY fecha_registro DESC
	`, telefono, telefonoSecundario)
	if err != nil {
		return nil, err
	}
	return collectProspectos(rows)
}

// UpdateProspectoParams holds the editable prospect fields.
type UpdateProspectoParams struct {
	Nombre                       *string
	Apellido                     *string
	CorreoElectronico            *string
	Telefono                     string
	IndicativoTelefono           string
	TelefonoSecundario           *string
	IndicativoTelefonoSecundario *string
	CiudadOrigen                 *string
	Destino                      *string
	FechaIda                     *time.Time
	FechaVuelta                  *time.Time
	PasajerosAdultos             int
	PasajerosNinos               int
	PasajerosInfantes            int
	MedioIngresoID               *int64
	Observaciones                *string
	TieneDatosCompletos          bool
}

func (r *Repository) Update(ctx context.Context, id int64, params UpdateProspectoParams) (Prospecto, error) {
	p, err := scanProspecto(r.pool.QueryRow(ctx, `
		UPDATE prospectos SET
			nombre = $2, apellido = $3, correo_electronico = $4, telefono = $5,
			indicativo_telefono = $6, telefono_secundario = $7, indicativo_telefono_secundario = $8,
			ciudad_origen = $9, destino = $10, fecha_ida = $11, fecha_vuelta = $12,
			pasajeros_adultos = $13, pasajeros_ninos = $14, pasajeros_infantes = $15,
			medio_ingreso_id = $16, observaciones = $17, tiene_datos_completos = $18
		WHERE id = $1
		RETURNING `+prospectoColumns,
		id, params.Nombre, params.Apellido, params.CorreoElectronico, params.Telefono,
		params.IndicativoTelefono, params.TelefonoSecundario, params.IndicativoTelefonoSecundario,
		params.CiudadOrigen, params.Destino, params.FechaIda, params.FechaVuelta,
		params.PasajerosAdultos, params.PasajerosNinos, params.PasajerosInfantes,
		params.MedioIngresoID, params.Observaciones, params.TieneDatosCompletos,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Prospecto{}, ErrNotFound
	}
	return p, err
}

// UpdateViajeParams holds the trip fields updated from the follow-up view.
type UpdateViajeParams struct {
	CorreoElectronico   *string
	CiudadOrigen        *string
	Destino             *string
	FechaIda            *time.Time
	FechaVuelta         *time.Time
	PasajerosAdultos    int
	PasajerosNinos      int
	PasajerosInfantes   int
	TelefonoSecundario  *string
	TieneDatosCompletos bool
}

// UpdateViaje updates trip information and logs a system interaction in one
// transaction.
func (r *Repository) UpdateViaje(ctx context.Context, id int64, params UpdateViajeParams, logEntry SystemInteraction) (Prospecto, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Prospecto{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var p Prospecto
	p, err = scanProspecto(tx.QueryRow(ctx, `
		UPDATE prospectos SET
			correo_electronico = $2, ciudad_origen = $3, destino = $4,
			fecha_ida = $5, fecha_vuelta = $6,
			pasajeros_adultos = $7, pasajeros_ninos = $8, pasajeros_infantes = $9,
			telefono_secundario = $10, tiene_datos_completos = $11
		WHERE id = $1
		RETURNING `+prospectoColumns,
		id, params.CorreoElectronico, params.CiudadOrigen, params.Destino,
		params.FechaIda, params.FechaVuelta,
		params.PasajerosAdultos, params.PasajerosNinos, params.PasajerosInfantes,
		params.TelefonoSecundario, params.TieneDatosCompletos,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		err = ErrNotFound
		return Prospecto{}, err
	}
	if err != nil {
		return Prospecto{}, err
	}

	estado := string(p.Estado)
	if _, err = tx.Exec(ctx, `
		INSERT INTO interacciones (prospecto_id, usuario_id, tipo_interaccion, descripcion, estado_anterior, estado_nuevo)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, logEntry.UsuarioID, logEntry.TipoInteraccion, logEntry.Descripcion, estado, estado); err != nil {
		return Prospecto{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Prospecto{}, err
	}
	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prospectos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAgente assigns (or clears) the prospect's agent.
func (r *Repository) SetAgente(ctx context.Context, id int64, agenteID *int64) (Prospecto, error) {
	p, err := scanProspecto(r.pool.QueryRow(ctx, `
		UPDATE prospectos SET agente_asignado_id = $2 WHERE id = $1
		RETURNING `+prospectoColumns,
		id, agenteID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Prospecto{}, ErrNotFound
	}
	return p, err
}

// ListParams filters the prospect listing.
type ListParams struct {
	AgenteID       *int64
	Estado         *domain.Estado
	DatosCompletos *bool
	SinAsignar     bool
	Asignados      bool
	Destino        *string
	Desde          *time.Time
	Hasta          *time.Time
	Limit          int
	Offset         int
}

// List returns prospects matching the filters plus the unpaginated total.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Prospecto, int, error) {
	where := `WHERE ($1::bigint IS NULL OR agente_asignado_id = $1)
		AND ($2::text IS NULL OR estado = $2)
		AND ($3::boolean IS NULL OR tiene_datos_completos = $3)
		AND (NOT $4::boolean OR agente_asignado_id IS NULL)
		AND (NOT $5::boolean OR agente_asignado_id IS NOT NULL)
		AND ($6::text IS NULL OR destino ILIKE '%' || $6 || '%')
		AND ($7::timestamptz IS NULL OR fecha_registro >= $7)
		AND ($8::timestamptz IS NULL OR fecha_registro <= $8)`

	var estado *string
	if params.Estado != nil {
		value := string(*params.Estado)
		estado = &value
	}

	args := []any{params.AgenteID, estado, params.DatosCompletos, params.SinAsignar,
		params.Asignados, params.Destino, params.Desde, params.Hasta}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prospectos `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+prospectoColumns+` FROM prospectos `+where+`
		ORDER BY fecha_registro DESC
		LIMIT $9 OFFSET $10
	`, append(args, limit, params.Offset)...)
	if err != nil {
		return nil, 0, err
	}

	items, err := collectProspectos(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ClosedListParams filters the closed-prospect listing. Closure dates are
// matched against the state audit trail, not against registration time.
type ClosedListParams struct {
	AgenteID         *int64
	Destino          *string
	RegistroDesde    *time.Time
	RegistroHasta    *time.Time
	CierreDesde      *time.Time
	CierreHasta      *time.Time
	FiltrarPorCierre bool
}

// ListClosed returns prospects in a terminal state, most recent registration first.
func (r *Repository) ListClosed(ctx context.Context, params ClosedListParams) ([]Prospecto, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prospectoColumns+`
		FROM prospectos p
		WHERE estado IN ('ganado', 'cerrado_perdido')
		  AND ($1::bigint IS NULL OR agente_asignado_id = $1)
		  AND ($2::text IS NULL OR destino ILIKE '%' || $2 || '%')
		  AND ($3::timestamptz IS NULL OR fecha_registro >= $3)
		  AND ($4::timestamptz IS NULL OR fecha_registro <= $4)
		  AND (NOT $5::boolean OR EXISTS (
			SELECT 1 FROM historial_estados h
			WHERE h.prospecto_id = p.id
			  AND h.estado_nuevo IN ('ganado', 'cerrado_perdido')
			  AND ($6::timestamptz IS NULL OR h.fecha_cambio >= $6)
			  AND ($7::timestamptz IS NULL OR h.fecha_cambio <= $7)
		  ))
		ORDER BY fecha_registro DESC
	`, params.AgenteID, params.Destino, params.RegistroDesde, params.RegistroHasta,
		params.FiltrarPorCierre, params.CierreDesde, params.CierreHasta)
	if err != nil {
		return nil, err
	}
	return collectProspectos(rows)
}

// FindByHistorialTelefono returns every prospect registered under the given
// phone number (primary or secondary), most recent first. Used by the
// customer-history view.
func (r *Repository) FindByHistorialTelefono(ctx context.Context, telefono string) ([]Prospecto, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prospectoColumns+`
		FROM prospectos
		WHERE telefono = $1 OR telefono_secundario = $1
		ORDER BY fecha_registro DESC
	`, telefono)
	if err != nil {
		return nil, err
	}
	return collectProspectos(rows)
}
