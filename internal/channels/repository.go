// Package channels manages the intake-channel reference data
// (medios_ingreso).
package channels

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("medio de ingreso not found")
	ErrDuplicate = errors.New("medio de ingreso already exists")
)

// MedioIngreso is one intake channel.
type MedioIngreso struct {
	ID     int64
	Nombre string
	Activo bool
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns channels, active ones first.
func (r *Repository) List(ctx context.Context, soloActivos bool) ([]MedioIngreso, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, nombre, activo FROM medios_ingreso
		WHERE NOT $1::boolean OR activo
		ORDER BY activo DESC, nombre ASC
	`, soloActivos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]MedioIngreso, 0)
	for rows.Next() {
		var m MedioIngreso
		if err := rows.Scan(&m.ID, &m.Nombre, &m.Activo); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *Repository) Create(ctx context.Context, nombre string) (MedioIngreso, error) {
	var m MedioIngreso
	err := r.pool.QueryRow(ctx, `
		INSERT INTO medios_ingreso (nombre) VALUES ($1)
		RETURNING id, nombre, activo
	`, nombre).Scan(&m.ID, &m.Nombre, &m.Activo)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return MedioIngreso{}, ErrDuplicate
	}
	return m, err
}

// SetActivo enables or disables a channel; disabled channels stay referenced
// by historical prospects.
func (r *Repository) SetActivo(ctx context.Context, id int64, activo bool) (MedioIngreso, error) {
	var m MedioIngreso
	err := r.pool.QueryRow(ctx, `
		UPDATE medios_ingreso SET activo = $2 WHERE id = $1
		RETURNING id, nombre, activo
	`, id, activo).Scan(&m.ID, &m.Nombre, &m.Activo)
	if errors.Is(err, pgx.ErrNoRows) {
		return MedioIngreso{}, ErrNotFound
	}
	return m, err
}
