package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// FindByIDCliente resolves a prospect by its human-facing client identifier,
// exact match first, then unique-prefix match.
func (r *Repository) FindByIDCliente(ctx context.Context, idCliente string) (Prospecto, error) {
	p, err := scanProspecto(r.pool.QueryRow(ctx, `
		SELECT `+prospectoColumns+` FROM prospectos WHERE id_cliente = $1
	`, idCliente))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Prospecto{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+prospectoColumns+` FROM prospectos
		WHERE id_cliente LIKE $1 || '%'
		ORDER BY fecha_registro DESC
		LIMIT 2
	`, idCliente)
	if err != nil {
		return Prospecto{}, err
	}
	matches, err := collectProspectos(rows)
	if err != nil {
		return Prospecto{}, err
	}
	if len(matches) != 1 {
		return Prospecto{}, ErrNotFound
	}
	return matches[0], nil
}

// FindProspectoByIDDocumento resolves the owning prospect of a document
// identifier.
func (r *Repository) FindProspectoByIDDocumento(ctx context.Context, idDocumento string) (Prospecto, error) {
	p, err := scanProspecto(r.pool.QueryRow(ctx, `
		SELECT `+prospectoColumns+`
		FROM prospectos p
		JOIN documentos d ON d.prospecto_id = p.id
		WHERE d.id_documento = $1
	`, idDocumento))
	if errors.Is(err, pgx.ErrNoRows) {
		return Prospecto{}, ErrNotFound
	}
	return p, err
}

// FindProspectoByIDCotizacion resolves the owning prospect of a quotation
// identifier.
func (r *Repository) FindProspectoByIDCotizacion(ctx context.Context, idCotizacion string) (Prospecto, error) {
	p, err := scanProspecto(r.pool.QueryRow(ctx, `
		SELECT `+prospectoColumns+`
		FROM prospectos p
		JOIN estadisticas_cotizacion e ON e.prospecto_id = p.id
		WHERE e.id_cotizacion = $1
	`, idCotizacion))
	if errors.Is(err, pgx.ErrNoRows) {
		return Prospecto{}, ErrNotFound
	}
	return p, err
}

// ListDestinos returns the distinct non-empty destinations recorded on
// prospects, alphabetically, optionally narrowed by a case-insensitive
// substring.
func (r *Repository) ListDestinos(ctx context.Context, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT destino FROM prospectos
		WHERE destino IS NOT NULL AND btrim(destino) <> ''
		  AND ($1 = '' OR destino ILIKE '%' || $1 || '%')
		ORDER BY destino ASC
	`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	destinos := make([]string, 0)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		destinos = append(destinos, d)
	}
	return destinos, rows.Err()
}

// RenameDestino rewrites every prospect carrying the old destination to the
// new spelling and returns how many rows changed.
func (r *Repository) RenameDestino(ctx context.Context, oldDestino, newDestino string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE prospectos SET destino = $2 WHERE destino = $1
	`, oldDestino, newDestino)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
