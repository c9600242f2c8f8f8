package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"user-auth/internal/domain"
	"user-auth/internal/repository"
)

type CredentialKind int

const (
	CredentialToken CredentialKind = iota + 1
	CredentialPassword
)

// Credential es un token bearer o un par username/password.
type Credential struct {
	Kind     CredentialKind
	Token    string
	Username string
	Password string
}

func TokenCredential(token string) Credential {
	return Credential{Kind: CredentialToken, Token: token}
}

func PasswordCredential(username, password string) Credential {
	return Credential{Kind: CredentialPassword, Username: username, Password: password}
}

// AuthenticatedUser es la identidad resuelta para una peticion.
type AuthenticatedUser struct {
	ID        string
	Username  string
	Confirmed bool
}

func authenticatedFrom(u domain.User) AuthenticatedUser {
	return AuthenticatedUser{
		ID:        u.ID,
		Username:  u.Username,
		Confirmed: u.RegistrationConfirmed,
	}
}

// Authenticator resuelve credenciales a un AuthenticatedUser. Toda causa de
// rechazo se reduce a ErrUnauthenticated.
type Authenticator struct {
	logger    *zap.Logger
	users     repository.UserRepository
	tokens    *TokenService
	hasher    PasswordHasher
	dummyHash string
}

func NewAuthenticator(logger *zap.Logger, users repository.UserRepository, tokens *TokenService, hasher PasswordHasher) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = NewArgon2idHasher(DefaultArgon2Params)
	}
	// Hash de relleno para que un username inexistente cueste lo mismo que
	// un password incorrecto.
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		logger.Warn("dummy hash unavailable", zap.Error(err))
	}
	return &Authenticator{
		logger:    logger,
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		dummyHash: dummy,
	}
}

// Authenticate verifica una credencial.
func (a *Authenticator) Authenticate(ctx context.Context, cred Credential) (AuthenticatedUser, error) {
	if a.users == nil {
		return AuthenticatedUser{}, errors.New("authenticator not configured")
	}
	switch cred.Kind {
	case CredentialToken:
		return a.authenticateToken(ctx, cred.Token)
	case CredentialPassword:
		return a.authenticatePassword(ctx, cred.Username, cred.Password)
	default:
		return AuthenticatedUser{}, ErrUnauthenticated
	}
}

// AuthenticateFirst prueba las credenciales en orden y devuelve el primer
// exito. Un fallo de almacenamiento corta la busqueda.
func (a *Authenticator) AuthenticateFirst(ctx context.Context, creds ...Credential) (AuthenticatedUser, error) {
	for _, cred := range creds {
		user, err := a.Authenticate(ctx, cred)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, ErrUnauthenticated) {
			return AuthenticatedUser{}, err
		}
	}
	return AuthenticatedUser{}, ErrUnauthenticated
}

// IssueToken emite un token para un usuario ya autenticado. ttl <= 0 usa
// la vigencia por defecto del TokenService.
func (a *Authenticator) IssueToken(user AuthenticatedUser, ttl time.Duration) (string, error) {
	if a.tokens == nil {
		return "", errors.New("token service not configured")
	}
	if user.ID == "" {
		return "", ErrUnauthenticated
	}
	return a.tokens.Issue(user.ID, ttl)
}

func (a *Authenticator) authenticateToken(ctx context.Context, token string) (AuthenticatedUser, error) {
	if a.tokens == nil {
		return AuthenticatedUser{}, ErrUnauthenticated
	}
	userID, err := a.tokens.Verify(token)
	if err != nil {
		a.logger.Debug("token rejected", zap.Error(err))
		return AuthenticatedUser{}, ErrUnauthenticated
	}
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthenticatedUser{}, ErrUnauthenticated
		}
		a.logger.Error("token user lookup failed", zap.Error(err))
		return AuthenticatedUser{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return authenticatedFrom(user), nil
}

func (a *Authenticator) authenticatePassword(ctx context.Context, username, password string) (AuthenticatedUser, error) {
	if username == "" {
		a.hasher.Verify(password, a.dummyHash)
		return AuthenticatedUser{}, ErrUnauthenticated
	}
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			a.hasher.Verify(password, a.dummyHash)
			return AuthenticatedUser{}, ErrUnauthenticated
		}
		a.logger.Error("password user lookup failed", zap.Error(err))
		return AuthenticatedUser{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	if !a.hasher.Verify(password, user.PasswordHash) {
		return AuthenticatedUser{}, ErrUnauthenticated
	}
	return authenticatedFrom(user), nil
}

// DefaultTokenTTL devuelve la vigencia aplicada cuando IssueToken recibe ttl <= 0.
func (a *Authenticator) DefaultTokenTTL() time.Duration {
	if a.tokens == nil {
		return DefaultTokenTTL
	}
	return a.tokens.DefaultTTL()
}
