// Package service implements account administration.
package service

import (
	"context"
	"strings"

	"crm_viajes_backend/internal/prospects/domain"
	"crm_viajes_backend/internal/users/repository"
	"crm_viajes_backend/platform/apperr"
	"crm_viajes_backend/platform/logger"
	"crm_viajes_backend/platform/validator"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// Store is the persistence surface the user service needs.
type Store interface {
	Create(ctx context.Context, username, email, hashedPassword, tipoUsuario string) (repository.Usuario, error)
	GetByID(ctx context.Context, id int64) (repository.Usuario, error)
	List(ctx context.Context, tipoUsuario *string, soloActivos bool) ([]repository.Usuario, error)
	Update(ctx context.Context, id int64, params repository.UpdateParams) (repository.Usuario, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	store  Store
	val    *validator.Validator
	logger *logger.Logger
}

func New(store Store, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{store: store, val: val, logger: log}
}

// User is the public view of an account; it never carries the hash.
type User struct {
	ID          int64
	Username    string
	Email       string
	TipoUsuario string
	Activo      bool
}

func publicUser(u repository.Usuario) User {
	return User{ID: u.ID, Username: u.Username, Email: u.Email, TipoUsuario: u.TipoUsuario, Activo: u.Activo}
}

// CreateInput carries a new account.
type CreateInput struct {
	Username    string
	Email       string
	Password    string
	TipoUsuario string
}

func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || email == "" {
		return User{}, apperr.Validation("username y email son obligatorios")
	}
	if err := s.val.Var(email, "email"); err != nil {
		return User{}, apperr.Validation("email inválido")
	}
	if len(input.Password) < minPasswordLen {
		return User{}, apperr.Validation("la contraseña debe tener al menos 8 caracteres")
	}
	rol, err := domain.ParseRol(input.TipoUsuario)
	if err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, apperr.Wrap(apperr.KindInternal, "hashear contraseña", err)
	}

	created, err := s.store.Create(ctx, username, email, string(hash), string(rol))
	if err != nil {
		if err == repository.ErrDuplicate {
			return User{}, apperr.Conflict("username o email ya registrados")
		}
		return User{}, apperr.Wrap(apperr.KindInternal, "crear usuario", err)
	}
	s.logger.Info("usuario creado", "usuario_id", created.ID, "username", created.Username, "rol", created.TipoUsuario)
	return publicUser(created), nil
}

// List returns accounts, optionally narrowed to one role.
func (s *Service) List(ctx context.Context, tipoUsuario string, soloActivos bool) ([]User, error) {
	var filtro *string
	if tipoUsuario != "" {
		rol, err := domain.ParseRol(tipoUsuario)
		if err != nil {
			return nil, err
		}
		value := string(rol)
		filtro = &value
	}

	items, err := s.store.List(ctx, filtro, soloActivos)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "listar usuarios", err)
	}
	out := make([]User, len(items))
	for i, u := range items {
		out[i] = publicUser(u)
	}
	return out, nil
}

// ListAgentes returns active agents for assignment pickers.
func (s *Service) ListAgentes(ctx context.Context) ([]User, error) {
	return s.List(ctx, string(domain.RolAgente), true)
}

// UpdateInput carries an account edit. Empty fields are left untouched.
type UpdateInput struct {
	Email       string
	Password    string
	TipoUsuario string
	Activo      *bool
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (User, error) {
	params := repository.UpdateParams{Activo: input.Activo}

	if email := strings.TrimSpace(input.Email); email != "" {
		if err := s.val.Var(email, "email"); err != nil {
			return User{}, apperr.Validation("email inválido")
		}
		params.Email = &email
	}
	if input.Password != "" {
		if len(input.Password) < minPasswordLen {
			return User{}, apperr.Validation("la contraseña debe tener al menos 8 caracteres")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, apperr.Wrap(apperr.KindInternal, "hashear contraseña", err)
		}
		value := string(hash)
		params.HashedPassword = &value
	}
	if input.TipoUsuario != "" {
		rol, err := domain.ParseRol(input.TipoUsuario)
		if err != nil {
			return User{}, err
		}
		value := string(rol)
		params.TipoUsuario = &value
	}

	updated, err := s.store.Update(ctx, id, params)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return User{}, apperr.NotFound("usuario no encontrado")
		case repository.ErrDuplicate:
			return User{}, apperr.Conflict("email ya registrado")
		}
		return User{}, apperr.Wrap(apperr.KindInternal, "actualizar usuario", err)
	}
	return publicUser(updated), nil
}

// Delete removes an account. Administrators cannot delete themselves.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return apperr.Validation("no puede eliminar su propia cuenta")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound("usuario no encontrado")
		}
		return apperr.Wrap(apperr.KindInternal, "eliminar usuario", err)
	}
	s.logger.Info("usuario eliminado", "usuario_id", id, "por", actorID)
	return nil
}
