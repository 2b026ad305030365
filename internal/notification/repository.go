// Package notification keeps agents informed: assignment notices, scheduled
// follow-up reminders and inactivity alerts.
package notification

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TipoAsignacion  = "asignacion"
	TipoSeguimiento = "seguimiento"
	TipoInactividad = "inactividad"
)

// Notificacion mirrors the notificaciones table.
type Notificacion struct {
	ID              int64
	UsuarioID       int64
	ProspectoID     *int64
	Tipo            string
	Mensaje         string
	FechaProgramada *time.Time
	Leida           bool
	EmailEnviado    bool
	FechaCreacion   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notificacionColumns = `id, usuario_id, prospecto_id, tipo, mensaje, fecha_programada, leida, email_enviado, fecha_creacion`

// Insert creates a notification and returns its id.
func (r *Repository) Insert(ctx context.Context, usuarioID int64, prospectoID *int64, tipo, mensaje string, fechaProgramada *time.Time) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notificaciones (usuario_id, prospecto_id, tipo, mensaje, fecha_programada)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, usuarioID, prospectoID, tipo, mensaje, fechaProgramada).Scan(&id)
	return id, err
}

// ListByUsuario returns a user's notifications, unread first, newest first.
func (r *Repository) ListByUsuario(ctx context.Context, usuarioID int64, soloNoLeidas bool) ([]Notificacion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notificacionColumns+`
		FROM notificaciones
		WHERE usuario_id = $1
		  AND (NOT $2::boolean OR NOT leida)
		ORDER BY leida ASC, fecha_creacion DESC
		LIMIT 100
	`, usuarioID, soloNoLeidas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Notificacion, 0)
	for rows.Next() {
		var n Notificacion
		if err := rows.Scan(&n.ID, &n.UsuarioID, &n.ProspectoID, &n.Tipo, &n.Mensaje,
			&n.FechaProgramada, &n.Leida, &n.EmailEnviado, &n.FechaCreacion); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// MarkRead marks one of the user's notifications read and reports whether it
// existed.
func (r *Repository) MarkRead(ctx context.Context, usuarioID, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notificaciones SET leida = TRUE WHERE id = $1 AND usuario_id = $2
	`, id, usuarioID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkAllRead marks every notification of the user read.
func (r *Repository) MarkAllRead(ctx context.Context, usuarioID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notificaciones SET leida = TRUE WHERE usuario_id = $1 AND NOT leida
	`, usuarioID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkEmailSent stamps the notification after its email went out.
func (r *Repository) MarkEmailSent(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notificaciones SET email_enviado = TRUE WHERE id = $1
	`, id)
	return err
}

// DueReminder is a scheduled reminder whose time has come, joined with its
// recipient.
type DueReminder struct {
	Notificacion
	Email    string
	Username string
}

// DueReminders returns scheduled notifications due by now whose email has not
// gone out. The partial index on (fecha_programada) keeps this cheap.
func (r *Repository) DueReminders(ctx context.Context, now time.Time) ([]DueReminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT n.id, n.usuario_id, n.prospecto_id, n.tipo, n.mensaje,
		       n.fecha_programada, n.leida, n.email_enviado, n.fecha_creacion,
		       u.email, u.username
		FROM notificaciones n
		JOIN usuarios u ON u.id = n.usuario_id
		WHERE n.fecha_programada IS NOT NULL
		  AND n.fecha_programada <= $1
		  AND NOT n.email_enviado
		  AND u.activo
		ORDER BY n.fecha_programada ASC
		LIMIT 200
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]DueReminder, 0)
	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(&d.ID, &d.UsuarioID, &d.ProspectoID, &d.Tipo, &d.Mensaje,
			&d.FechaProgramada, &d.Leida, &d.EmailEnviado, &d.FechaCreacion,
			&d.Email, &d.Username); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// InactiveProspect is a followed prospect with no recent interactions.
type InactiveProspect struct {
	ProspectoID  int64
	IDCliente    *string
	AgenteID     int64
	DiasSinTocar int
}

// FindInactive returns en_seguimiento prospects whose latest interaction (or
// registration, if none) is older than the threshold and that have no unread
// inactivity alert yet.
func (r *Repository) FindInactive(ctx context.Context, threshold time.Duration, now time.Time) ([]InactiveProspect, error) {
	cutoff := now.Add(-threshold)
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.id_cliente, p.agente_asignado_id,
		       EXTRACT(DAY FROM $2::timestamptz - COALESCE(MAX(i.fecha_creacion), p.fecha_registro))::int
		FROM prospectos p
		LEFT JOIN interacciones i ON i.prospecto_id = p.id
		WHERE p.estado = 'en_seguimiento'
		  AND p.agente_asignado_id IS NOT NULL
		  AND NOT EXISTS (
			SELECT 1 FROM notificaciones n
			WHERE n.prospecto_id = p.id AND n.tipo = 'inactividad' AND NOT n.leida
		  )
		GROUP BY p.id, p.id_cliente, p.agente_asignado_id, p.fecha_registro
		HAVING COALESCE(MAX(i.fecha_creacion), p.fecha_registro) < $1
	`, cutoff, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]InactiveProspect, 0)
	for rows.Next() {
		var p InactiveProspect
		if err := rows.Scan(&p.ProspectoID, &p.IDCliente, &p.AgenteID, &p.DiasSinTocar); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// UserEmail returns the email and username of an active user.
func (r *Repository) UserEmail(ctx context.Context, usuarioID int64) (email, username string, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT email, username FROM usuarios WHERE id = $1 AND activo
	`, usuarioID).Scan(&email, &username)
	return email, username, err
}
