package service

import (
	"context"
	"testing"

	"crm_viajes_backend/internal/users/repository"
	"crm_viajes_backend/platform/apperr"
	"crm_viajes_backend/platform/logger"
	"crm_viajes_backend/platform/validator"

	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	created    []repository.Usuario
	duplicates bool
	deleted    []int64
	listFilter *string
}

func (f *fakeStore) Create(ctx context.Context, username, email, hash, tipoUsuario string) (repository.Usuario, error) {
	if f.duplicates {
		return repository.Usuario{}, repository.ErrDuplicate
	}
	u := repository.Usuario{
		ID:             int64(len(f.created) + 1),
		Username:       username,
		Email:          email,
		HashedPassword: hash,
		TipoUsuario:    tipoUsuario,
		Activo:         true,
	}
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (repository.Usuario, error) {
	return repository.Usuario{ID: id}, nil
}

func (f *fakeStore) List(ctx context.Context, tipoUsuario *string, soloActivos bool) ([]repository.Usuario, error) {
	f.listFilter = tipoUsuario
	return nil, nil
}

func (f *fakeStore) Update(ctx context.Context, id int64, params repository.UpdateParams) (repository.Usuario, error) {
	return repository.Usuario{ID: id}, nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newService(store *fakeStore) *Service {
	return New(store, validator.New(), logger.New("development"))
}

func TestCreateHashesPassword(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)

	u, err := svc.Create(context.Background(), CreateInput{
		Username:    "mrojas",
		Email:       "mrojas@agencia.co",
		Password:    "contraseña-larga",
		TipoUsuario: "agente",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.TipoUsuario != "agente" || !u.Activo {
		t.Errorf("usuario = %+v", u)
	}
	hash := store.created[0].HashedPassword
	if hash == "contraseña-larga" {
		t.Fatal("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("contraseña-larga")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name  string
		input CreateInput
	}{
		{"short password", CreateInput{Username: "a", Email: "a@b.co", Password: "corta", TipoUsuario: "agente"}},
		{"bad email", CreateInput{Username: "a", Email: "no-es-correo", Password: "contraseña-larga", TipoUsuario: "agente"}},
		{"unknown role", CreateInput{Username: "a", Email: "a@b.co", Password: "contraseña-larga", TipoUsuario: "gerente"}},
		{"missing username", CreateInput{Email: "a@b.co", Password: "contraseña-larga", TipoUsuario: "agente"}},
	}

	svc := newService(&fakeStore{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			if apperr.GetKind(err) != apperr.KindValidation {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func TestCreateDuplicateConflicts(t *testing.T) {
	svc := newService(&fakeStore{duplicates: true})
	_, err := svc.Create(context.Background(), CreateInput{
		Username: "mrojas", Email: "mrojas@agencia.co", Password: "contraseña-larga", TipoUsuario: "agente",
	})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestListAgentesFiltersRole(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)

	if _, err := svc.ListAgentes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.listFilter == nil || *store.listFilter != "agente" {
		t.Errorf("filtro = %v, want agente", store.listFilter)
	}
}

func TestDeleteRejectsSelf(t *testing.T) {
	store := &fakeStore{}
	svc := newService(store)

	if err := svc.Delete(context.Background(), 7, 7); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation", err)
	}
	if len(store.deleted) != 0 {
		t.Fatal("self-deletion must not reach the store")
	}

	if err := svc.Delete(context.Background(), 7, 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
