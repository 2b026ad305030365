// Package service implements credential checking and token issuance.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"crm_viajes_backend/internal/auth/repository"
	"crm_viajes_backend/platform/apperr"
	"crm_viajes_backend/platform/config"
	"crm_viajes_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Store is the persistence surface the auth service needs.
type Store interface {
	GetByUsername(ctx context.Context, username string) (repository.Usuario, error)
	GetByID(ctx context.Context, id int64) (repository.Usuario, error)
	StoreRefreshToken(ctx context.Context, usuarioID int64, tokenHash string, expiraEn time.Time) error
	ConsumeRefreshToken(ctx context.Context, tokenHash string) (int64, error)
	RevokeUserTokens(ctx context.Context, usuarioID int64) error
}

type Service struct {
	store  Store
	cfg    config.AuthServiceConfig
	logger *logger.Logger
}

func New(store Store, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{store: store, cfg: cfg, logger: log}
}

// TokenPair is an access token with its refresh counterpart.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// User is the public view of an account.
type User struct {
	ID          int64
	Username    string
	Email       string
	TipoUsuario string
}

func publicUser(u repository.Usuario) User {
	return User{ID: u.ID, Username: u.Username, Email: u.Email, TipoUsuario: u.TipoUsuario}
}

// Login checks credentials and issues a token pair. Disabled accounts and
// bad credentials fail with the same unauthorized error.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, User, error) {
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if err == repository.ErrNotFound {
			// Burn a comparison anyway so unknown usernames cost as much as
			// wrong passwords.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
			s.logger.AuthEvent("login_failed", username, false, "")
			return TokenPair{}, User{}, apperr.Unauthorized("credenciales inválidas")
		}
		return TokenPair{}, User{}, apperr.Wrap(apperr.KindInternal, "cargar usuario", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		s.logger.AuthEvent("login_failed", username, false, "")
		return TokenPair{}, User{}, apperr.Unauthorized("credenciales inválidas")
	}
	if !user.Activo {
		s.logger.AuthEvent("login_inactive", username, false, "")
		return TokenPair{}, User{}, apperr.Unauthorized("credenciales inválidas")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return TokenPair{}, User{}, err
	}
	s.logger.AuthEvent("login_ok", username, true, "")
	return pair, publicUser(user), nil
}

// Refresh consumes a refresh token and issues a fresh pair (rotation).
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	usuarioID, err := s.store.ConsumeRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		if err == repository.ErrTokenUnknown {
			return TokenPair{}, apperr.Unauthorized("sesión expirada")
		}
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "consumir refresh token", err)
	}

	user, err := s.store.GetByID(ctx, usuarioID)
	if err != nil || !user.Activo {
		return TokenPair{}, apperr.Unauthorized("sesión expirada")
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes every refresh token of the user.
func (s *Service) Logout(ctx context.Context, usuarioID int64) error {
	if err := s.store.RevokeUserTokens(ctx, usuarioID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "revocar tokens", err)
	}
	return nil
}

// Me loads the current account.
func (s *Service) Me(ctx context.Context, usuarioID int64) (User, error) {
	user, err := s.store.GetByID(ctx, usuarioID)
	if err != nil {
		if err == repository.ErrNotFound {
			return User{}, apperr.NotFound("usuario no encontrado")
		}
		return User{}, apperr.Wrap(apperr.KindInternal, "cargar usuario", err)
	}
	return publicUser(user), nil
}

func (s *Service) issueTokens(ctx context.Context, user repository.Usuario) (TokenPair, error) {
	accessTTL := s.cfg.GetAccessTokenTTL()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(user.ID, 10),
		"username": user.Username,
		"role":     user.TipoUsuario,
		"type":     "access",
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(accessTTL).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "firmar access token", err)
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "generar refresh token", err)
	}
	expiraEn := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.store.StoreRefreshToken(ctx, user.ID, hashToken(refresh), expiraEn); err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "guardar refresh token", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTTL.Seconds()),
	}, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Refresh tokens are stored hashed so a database leak does not expose live
// sessions.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
