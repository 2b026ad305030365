package service

import (
	"context"
	"testing"
	"time"

	"crm_viajes_backend/internal/auth/repository"
	"crm_viajes_backend/platform/apperr"
	"crm_viajes_backend/platform/logger"

	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	user   repository.Usuario
	tokens map[string]int64
}

func (f *fakeStore) GetByUsername(_ context.Context, username string) (repository.Usuario, error) {
	if username != f.user.Username {
		return repository.Usuario{}, repository.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (repository.Usuario, error) {
	if id != f.user.ID {
		return repository.Usuario{}, repository.ErrNotFound
	}
	return f.user, nil
}

func (f *fakeStore) StoreRefreshToken(_ context.Context, usuarioID int64, tokenHash string, _ time.Time) error {
	if f.tokens == nil {
		f.tokens = make(map[string]int64)
	}
	f.tokens[tokenHash] = usuarioID
	return nil
}

func (f *fakeStore) ConsumeRefreshToken(_ context.Context, tokenHash string) (int64, error) {
	id, ok := f.tokens[tokenHash]
	if !ok {
		return 0, repository.ErrTokenUnknown
	}
	delete(f.tokens, tokenHash)
	return id, nil
}

func (f *fakeStore) RevokeUserTokens(context.Context, int64) error {
	f.tokens = nil
	return nil
}

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string        { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testConfig) GetRefreshTokenTTL() time.Duration { return 24 * time.Hour }

func newFixture(t *testing.T, activo bool) (*Service, *fakeStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secreta123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	store := &fakeStore{user: repository.Usuario{
		ID: 1, Username: "ana", Email: "ana@example.com",
		HashedPassword: string(hash), TipoUsuario: "agente", Activo: activo,
	}}
	return New(store, testConfig{}, logger.New("development")), store
}

func TestLogin(t *testing.T) {
	svc, store := newFixture(t, true)

	pair, user, err := svc.Login(context.Background(), "ana", "secreta123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("both tokens must be issued")
	}
	if user.Username != "ana" || user.TipoUsuario != "agente" {
		t.Errorf("user = %+v", user)
	}
	if len(store.tokens) != 1 {
		t.Error("refresh token must be persisted hashed")
	}
	for hash := range store.tokens {
		if hash == pair.RefreshToken {
			t.Error("refresh token must not be stored in the clear")
		}
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newFixture(t, true)

	for _, tc := range []struct{ username, password string }{
		{"ana", "equivocada"},
		{"desconocida", "secreta123"},
	} {
		_, _, err := svc.Login(context.Background(), tc.username, tc.password)
		if apperr.GetKind(err) != apperr.KindUnauthorized {
			t.Errorf("login(%q): kind = %v, want unauthorized", tc.username, apperr.GetKind(err))
		}
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, _ := newFixture(t, false)

	_, _, err := svc.Login(context.Background(), "ana", "secreta123")
	if apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Fatalf("kind = %v, want unauthorized", apperr.GetKind(err))
	}
}

func TestRefreshRotatesAndIsSingleUse(t *testing.T) {
	svc, _ := newFixture(t, true)
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, "ana", "secreta123")
	if err != nil {
		t.Fatal(err)
	}

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Error("refresh must rotate the token")
	}

	if _, err := svc.Refresh(ctx, pair.RefreshToken); apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Error("used refresh token must be rejected")
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	svc, store := newFixture(t, true)
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, "ana", "secreta123")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.tokens) != 0 {
		t.Error("logout must revoke stored tokens")
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Error("revoked refresh token must be rejected")
	}
}
