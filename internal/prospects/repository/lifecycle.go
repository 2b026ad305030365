package repository

import (
	"context"
	"time"

	"crm_viajes_backend/internal/prospects/domain"

	"github.com/jackc/pgx/v5"
)

// RecordInteractionParams describes an agent interaction, optionally carrying
// a lifecycle transition.
type RecordInteractionParams struct {
	ProspectoID     int64
	UsuarioID       int64
	TipoInteraccion string
	Descripcion     string
	EstadoAnterior  domain.Estado
	EstadoNuevo     *domain.Estado
	AgenteID        *int64
}

// RecordInteraction persists an interaction and, when a new state is given,
// the accompanying transition: the audit trail row is written before the
// prospect row is mutated, and a move into cotizado on an assigned prospect
// upserts the quotation stat. Everything runs in one transaction.
func (r *Repository) RecordInteraction(ctx context.Context, params RecordInteractionParams) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	transitions := params.EstadoNuevo != nil && *params.EstadoNuevo != params.EstadoAnterior

	if transitions {
		if _, err = tx.Exec(ctx, `
			INSERT INTO historial_estados (prospecto_id, estado_anterior, estado_nuevo, usuario_id, comentario)
			VALUES ($1, $2, $3, $4, $5)
		`, params.ProspectoID, string(params.EstadoAnterior), string(*params.EstadoNuevo), params.UsuarioID, params.Descripcion); err != nil {
			return err
		}
	}

	var estadoNuevo *string
	if params.EstadoNuevo != nil {
		value := string(*params.EstadoNuevo)
		estadoNuevo = &value
	}
	estadoAnterior := string(params.EstadoAnterior)
	if _, err = tx.Exec(ctx, `
		INSERT INTO interacciones (prospecto_id, usuario_id, tipo_interaccion, descripcion, estado_anterior, estado_nuevo)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, params.ProspectoID, params.UsuarioID, params.TipoInteraccion, params.Descripcion, estadoAnterior, estadoNuevo); err != nil {
		return err
	}

	if transitions {
		// The quotation stat needs an owning agent; an unassigned prospect
		// moving into cotizado gets its stat later, on quotation upload.
		if *params.EstadoNuevo == domain.EstadoCotizado && params.AgenteID != nil {
			if err = upsertEstadisticaCotizacion(ctx, tx, params.ProspectoID, params.AgenteID); err != nil {
				return err
			}
		}
		if _, err = tx.Exec(ctx, `
			UPDATE prospectos SET estado = $2 WHERE id = $1
		`, params.ProspectoID, string(*params.EstadoNuevo)); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// upsertEstadisticaCotizacion keeps at most one quotation stat per prospect:
// the first quote inserts, later quotes only refresh the quotation date. The
// UNIQUE constraint on prospecto_id makes concurrent first quotes converge on
// the update path.
func upsertEstadisticaCotizacion(ctx context.Context, tx pgx.Tx, prospectoID int64, agenteID *int64) error {
	var id int64
	var idCotizacion *string
	err := tx.QueryRow(ctx, `
		INSERT INTO estadisticas_cotizacion (prospecto_id, agente_id, fecha_cotizacion)
		VALUES ($1, $2, CURRENT_DATE)
		ON CONFLICT (prospecto_id)
		DO UPDATE SET fecha_cotizacion = EXCLUDED.fecha_cotizacion
		RETURNING id, id_cotizacion
	`, prospectoID, agenteID).Scan(&id, &idCotizacion)
	if err != nil {
		return err
	}

	if idCotizacion == nil {
		generated, err := domain.GenerateID("", domain.PrefijoCotizacion, time.Now(), id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE estadisticas_cotizacion SET id_cotizacion = $1 WHERE id = $2
		`, generated, id); err != nil {
			return err
		}
	}
	return nil
}

// UploadDocumentParams describes a stored document to register.
type UploadDocumentParams struct {
	ProspectoID   int64
	UsuarioID     int64
	NombreArchivo string
	TipoDocumento string
	RutaArchivo   string
	Descripcion   *string
	EstadoActual  domain.Estado
	AgenteID      *int64
}

// UploadDocument registers a stored document, stamps its identifier and logs
// the upload. A quotation document additionally forces the prospect into
// cotizado: audit trail row, second interaction, quotation stat upsert and
// the state write, all in the same transaction.
func (r *Repository) UploadDocument(ctx context.Context, params UploadDocumentParams) (docID int64, idDocumento string, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO documentos (prospecto_id, usuario_id, nombre_archivo, tipo_documento, ruta_archivo, descripcion)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, params.ProspectoID, params.UsuarioID, params.NombreArchivo, params.TipoDocumento, params.RutaArchivo, params.Descripcion).Scan(&docID)
	if err != nil {
		return 0, "", err
	}

	idDocumento, err = domain.GenerateID("", domain.PrefijoDocumento, time.Now(), docID)
	if err != nil {
		return 0, "", err
	}
	if _, err = tx.Exec(ctx, `UPDATE documentos SET id_documento = $1 WHERE id = $2`, idDocumento, docID); err != nil {
		return 0, "", err
	}

	estadoActual := string(params.EstadoActual)
	if _, err = tx.Exec(ctx, `
		INSERT INTO interacciones (prospecto_id, usuario_id, tipo_interaccion, descripcion, estado_anterior, estado_nuevo)
		VALUES ($1, $2, 'documento', $3, $4, $4)
	`, params.ProspectoID, params.UsuarioID, "Documento subido: "+params.NombreArchivo, estadoActual); err != nil {
		return 0, "", err
	}

	if params.TipoDocumento == "cotizacion" {
		if err = upsertEstadisticaCotizacion(ctx, tx, params.ProspectoID, params.AgenteID); err != nil {
			return 0, "", err
		}

		if params.EstadoActual != domain.EstadoCotizado {
			cotizado := string(domain.EstadoCotizado)
			if _, err = tx.Exec(ctx, `
				INSERT INTO historial_estados (prospecto_id, estado_anterior, estado_nuevo, usuario_id, comentario)
				VALUES ($1, $2, $3, $4, 'Cotización subida')
			`, params.ProspectoID, estadoActual, cotizado, params.UsuarioID); err != nil {
				return 0, "", err
			}
			if _, err = tx.Exec(ctx, `
				INSERT INTO interacciones (prospecto_id, usuario_id, tipo_interaccion, descripcion, estado_anterior, estado_nuevo)
				VALUES ($1, $2, 'cambio_estado', 'Estado actualizado por subida de cotización', $3, $4)
			`, params.ProspectoID, params.UsuarioID, estadoActual, cotizado); err != nil {
				return 0, "", err
			}
			if _, err = tx.Exec(ctx, `
				UPDATE prospectos SET estado = $2 WHERE id = $1
			`, params.ProspectoID, cotizado); err != nil {
				return 0, "", err
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, "", err
	}
	return docID, idDocumento, nil
}

// Reactivar moves a closed prospect back into en_seguimiento and logs the
// reactivation as an interaction. Reactivations are deliberately absent from
// historial_estados so closure counts in reports keep their original closing
// entry as the last audit row.
func (r *Repository) Reactivar(ctx context.Context, prospectoID, usuarioID int64, estadoActual domain.Estado, motivo string) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE prospectos SET estado = $2 WHERE id = $1
	`, prospectoID, string(domain.EstadoEnSeguimiento))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO interacciones (prospecto_id, usuario_id, tipo_interaccion, descripcion, estado_anterior, estado_nuevo)
		VALUES ($1, $2, 'reactivacion', $3, $4, $5)
	`, prospectoID, usuarioID, motivo, string(estadoActual), string(domain.EstadoEnSeguimiento)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// HistorialEntry is one audit trail row.
type HistorialEntry struct {
	ID             int64
	ProspectoID    int64
	EstadoAnterior *string
	EstadoNuevo    string
	UsuarioID      *int64
	FechaCambio    time.Time
	Comentario     *string
}

// ListHistorial returns the state audit trail for a prospect, oldest first.
func (r *Repository) ListHistorial(ctx context.Context, prospectoID int64) ([]HistorialEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, prospecto_id, estado_anterior, estado_nuevo, usuario_id, fecha_cambio, comentario
		FROM historial_estados
		WHERE prospecto_id = $1
		ORDER BY fecha_cambio ASC, id ASC
	`, prospectoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]HistorialEntry, 0)
	for rows.Next() {
		var e HistorialEntry
		if err := rows.Scan(&e.ID, &e.ProspectoID, &e.EstadoAnterior, &e.EstadoNuevo, &e.UsuarioID, &e.FechaCambio, &e.Comentario); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
