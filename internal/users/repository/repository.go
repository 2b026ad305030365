package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("username or email already taken")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Usuario mirrors the usuarios table.
type Usuario struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
	TipoUsuario    string
	Activo         bool
	FechaCreacion  time.Time
}

const usuarioColumns = `id, username, email, hashed_password, tipo_usuario, activo, fecha_creacion`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.TipoUsuario, &u.Activo, &u.FechaCreacion)
	if errors.Is(err, pgx.ErrNoRows) {
		return Usuario{}, ErrNotFound
	}
	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *Repository) Create(ctx context.Context, username, email, hashedPassword, tipoUsuario string) (Usuario, error) {
	u, err := scanUsuario(r.pool.QueryRow(ctx, `
		INSERT INTO usuarios (username, email, hashed_password, tipo_usuario)
		VALUES ($1, $2, $3, $4)
		RETURNING `+usuarioColumns,
		username, email, hashedPassword, tipoUsuario))
	if isUniqueViolation(err) {
		return Usuario{}, ErrDuplicate
	}
	return u, err
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Usuario, error) {
	return scanUsuario(r.pool.QueryRow(ctx, `
		SELECT `+usuarioColumns+` FROM usuarios WHERE id = $1
	`, id))
}

// List returns every account, optionally only a given role, active first.
func (r *Repository) List(ctx context.Context, tipoUsuario *string, soloActivos bool) ([]Usuario, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+usuarioColumns+` FROM usuarios
		WHERE ($1::text IS NULL OR tipo_usuario = $1)
		  AND (NOT $2::boolean OR activo)
		ORDER BY activo DESC, username ASC
	`, tipoUsuario, soloActivos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Usuario, 0)
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

// UpdateParams carries the editable account fields. Nil fields are left
// untouched.
type UpdateParams struct {
	Email          *string
	HashedPassword *string
	TipoUsuario    *string
	Activo         *bool
}

func (r *Repository) Update(ctx context.Context, id int64, params UpdateParams) (Usuario, error) {
	u, err := scanUsuario(r.pool.QueryRow(ctx, `
		UPDATE usuarios SET
			email = COALESCE($2, email),
			hashed_password = COALESCE($3, hashed_password),
			tipo_usuario = COALESCE($4, tipo_usuario),
			activo = COALESCE($5, activo)
		WHERE id = $1
		RETURNING `+usuarioColumns,
		id, params.Email, params.HashedPassword, params.TipoUsuario, params.Activo))
	if isUniqueViolation(err) {
		return Usuario{}, ErrDuplicate
	}
	return u, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
