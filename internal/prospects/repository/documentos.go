package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Documento is a stored file attached to a prospect. RutaArchivo is the
// object key in the document bucket.
type Documento struct {
	ID            int64
	IDDocumento   *string
	ProspectoID   int64
	UsuarioID     *int64
	NombreArchivo string
	TipoDocumento string
	RutaArchivo   string
	FechaSubida   time.Time
	Descripcion   *string
}

const documentoColumns = `id, id_documento, prospecto_id, usuario_id, nombre_archivo, tipo_documento, ruta_archivo, fecha_subida, descripcion`

func (r *Repository) GetDocumento(ctx context.Context, id int64) (Documento, error) {
	var d Documento
	err := r.pool.QueryRow(ctx, `
		SELECT `+documentoColumns+` FROM documentos WHERE id = $1
	`, id).Scan(&d.ID, &d.IDDocumento, &d.ProspectoID, &d.UsuarioID, &d.NombreArchivo,
		&d.TipoDocumento, &d.RutaArchivo, &d.FechaSubida, &d.Descripcion)
	if errors.Is(err, pgx.ErrNoRows) {
		return Documento{}, ErrNotFound
	}
	return d, err
}

// ListDocumentos returns the documents of a prospect, newest upload first.
func (r *Repository) ListDocumentos(ctx context.Context, prospectoID int64) ([]Documento, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+documentoColumns+`
		FROM documentos
		WHERE prospecto_id = $1
		ORDER BY fecha_subida DESC, id DESC
	`, prospectoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Documento, 0)
	for rows.Next() {
		var d Documento
		if err := rows.Scan(&d.ID, &d.IDDocumento, &d.ProspectoID, &d.UsuarioID, &d.NombreArchivo,
			&d.TipoDocumento, &d.RutaArchivo, &d.FechaSubida, &d.Descripcion); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// CountDocumentos returns the document count across a set of prospects.
func (r *Repository) CountDocumentos(ctx context.Context, prospectoIDs []int64) (int, error) {
	if len(prospectoIDs) == 0 {
		return 0, nil
	}
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM documentos WHERE prospecto_id = ANY($1)
	`, prospectoIDs).Scan(&count)
	return count, err
}

// DeleteDocumento removes a document row. The caller is responsible for
// removing the stored object.
func (r *Repository) DeleteDocumento(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documentos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
