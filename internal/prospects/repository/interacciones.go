package repository

import (
	"context"
	"time"
)

// Interaccion is one log entry on a prospect (or a global system entry when
// ProspectoID is nil).
type Interaccion struct {
	ID              int64
	ProspectoID     *int64
	UsuarioID       *int64
	TipoInteraccion *string
	Descripcion     string
	FechaCreacion   time.Time
	EstadoAnterior  *string
	EstadoNuevo     *string
}

func collectInteracciones(ctx context.Context, r *Repository, query string, args ...any) ([]Interaccion, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Interaccion, 0)
	for rows.Next() {
		var i Interaccion
		if err := rows.Scan(&i.ID, &i.ProspectoID, &i.UsuarioID, &i.TipoInteraccion,
			&i.Descripcion, &i.FechaCreacion, &i.EstadoAnterior, &i.EstadoNuevo); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const interaccionColumns = `id, prospecto_id, usuario_id, tipo_interaccion, descripcion, fecha_creacion, estado_anterior, estado_nuevo`

// ListInteracciones returns all interactions of a prospect, newest first.
func (r *Repository) ListInteracciones(ctx context.Context, prospectoID int64) ([]Interaccion, error) {
	return collectInteracciones(ctx, r, `
		SELECT `+interaccionColumns+`
		FROM interacciones
		WHERE prospecto_id = $1
		ORDER BY fecha_creacion DESC, id DESC
	`, prospectoID)
}

// ListRecentInteracciones returns the most recent interactions across a set
// of prospects, capped at limit.
func (r *Repository) ListRecentInteracciones(ctx context.Context, prospectoIDs []int64, limit int) ([]Interaccion, error) {
	if len(prospectoIDs) == 0 {
		return []Interaccion{}, nil
	}
	return collectInteracciones(ctx, r, `
		SELECT `+interaccionColumns+`
		FROM interacciones
		WHERE prospecto_id = ANY($1)
		ORDER BY fecha_creacion DESC, id DESC
		LIMIT $2
	`, prospectoIDs, limit)
}

// CountInteracciones returns the interaction count across a set of prospects.
func (r *Repository) CountInteracciones(ctx context.Context, prospectoIDs []int64) (int, error) {
	if len(prospectoIDs) == 0 {
		return 0, nil
	}
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM interacciones WHERE prospecto_id = ANY($1)
	`, prospectoIDs).Scan(&count)
	return count, err
}

// InsertGlobalInteraccion writes a system log entry not tied to any prospect,
// used for administrative actions such as bulk destination renames.
func (r *Repository) InsertGlobalInteraccion(ctx context.Context, usuarioID int64, descripcion string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO interacciones (prospecto_id, usuario_id, tipo_interaccion, descripcion)
		VALUES (NULL, $1, 'sistema', $2)
	`, usuarioID, descripcion)
	return err
}
