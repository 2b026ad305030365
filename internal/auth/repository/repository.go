package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrTokenUnknown = errors.New("refresh token not found")
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

func (r *Repository) GetByUsername(ctx context.Context, username string) (Usuario, error) {
	return scanUsuario(r.pool.QueryRow(ctx, `
		SELECT `+usuarioColumns+` FROM usuarios WHERE username = $1
	`, username))
}

func (r *Repository) GetByID(ctx context.Context, id int64) (Usuario, error) {
	return scanUsuario(r.pool.QueryRow(ctx, `
		SELECT `+usuarioColumns+` FROM usuarios WHERE id = $1
	`, id))
}

// StoreRefreshToken saves a hashed refresh token.
func (r *Repository) StoreRefreshToken(ctx context.Context, usuarioID int64, tokenHash string, expiraEn time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (usuario_id, token_hash, expira_en)
		VALUES ($1, $2, $3)
	`, usuarioID, tokenHash, expiraEn)
	return err
}

// ConsumeRefreshToken deletes the token and returns its owner, enforcing
// single use. Expired tokens are rejected.
func (r *Repository) ConsumeRefreshToken(ctx context.Context, tokenHash string) (int64, error) {
	var usuarioID int64
	var expiraEn time.Time
	err := r.pool.QueryRow(ctx, `
		DELETE FROM refresh_tokens WHERE token_hash = $1
		RETURNING usuario_id, expira_en
	`, tokenHash).Scan(&usuarioID, &expiraEn)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrTokenUnknown
	}
	if err != nil {
		return 0, err
	}
	if time.Now().After(expiraEn) {
		return 0, ErrTokenUnknown
	}
	return usuarioID, nil
}

// RevokeUserTokens drops every refresh token of a user.
func (r *Repository) RevokeUserTokens(ctx context.Context, usuarioID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE usuario_id = $1`, usuarioID)
	return err
}

// PurgeExpiredTokens clears expired refresh tokens.
func (r *Repository) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expira_en < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
