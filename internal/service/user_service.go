package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"user-auth/internal/domain"
	"user-auth/internal/email"
	"user-auth/internal/repository"
)

// Rango inclusivo del codigo de confirmacion de registro.
const (
	registrationCodeMin = 10000
	registrationCodeMax = 99999
)

// DefaultRegistrationDelay es la pausa fija previa a los chequeos de
// existencia en Register.
const DefaultRegistrationDelay = time.Second

var (
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUserNotFound    = errors.New("user not found")
	ErrCodeMismatch    = errors.New("registration code mismatch")
	ErrForbidden       = errors.New("forbidden")
	ErrStorageFailure  = errors.New("storage failure")
	ErrDeliveryFailure = errors.New("email delivery failed")
	ErrInvalidInput    = errors.New("invalid input")
)

// ConflictError indica que el valor de Field ya esta en uso.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// UserService coordina el registro y la confirmacion de usuarios.
type UserService struct {
	logger            *zap.Logger
	users             repository.UserRepository
	hasher            PasswordHasher
	emailSender       email.Sender
	cache             UserViewCache
	registrationDelay time.Duration

	sleep        func(time.Duration)
	now          func() time.Time
	generateCode func() (int, error)
}

func NewUserService(
	logger *zap.Logger,
	users repository.UserRepository,
	hasher PasswordHasher,
	emailSender email.Sender,
	cache UserViewCache,
	registrationDelay time.Duration,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = NewArgon2idHasher(DefaultArgon2Params)
	}
	if registrationDelay < 0 {
		registrationDelay = DefaultRegistrationDelay
	}
	return &UserService{
		logger:            logger,
		users:             users,
		hasher:            hasher,
		emailSender:       emailSender,
		cache:             cache,
		registrationDelay: registrationDelay,
		sleep:             time.Sleep,
		now:               time.Now,
		generateCode:      generateRegistrationCode,
	}
}

type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// Registration es el resultado de Register. Code solo debe salir por el
// canal de email.
type Registration struct {
	User domain.User
	Code int
}

// Register crea un usuario pendiente de confirmacion. La pausa fija se
// aplica siempre, antes de cualquier chequeo.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (Registration, error) {
	s.sleep(s.registrationDelay)

	if s.users == nil {
		return Registration{}, errors.New("user service not configured")
	}

	// Username y email se guardan tal cual llegan; las busquedas posteriores
	// son exactas.
	username := input.Username
	emailAddr := input.Email
	if username == "" || emailAddr == "" {
		return Registration{}, ErrInvalidInput
	}

	if err := s.ensureAvailable(ctx, "username", username, s.users.GetByUsername); err != nil {
		return Registration{}, err
	}
	if err := s.ensureAvailable(ctx, "email", emailAddr, s.users.GetByEmail); err != nil {
		return Registration{}, err
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return Registration{}, fmt.Errorf("hash password: %w", err)
	}

	code, err := s.generateCode()
	if err != nil {
		return Registration{}, fmt.Errorf("generate registration code: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:                    uuid.NewString(),
		Username:              username,
		Email:                 emailAddr,
		FirstName:             strings.TrimSpace(input.FirstName),
		LastName:              strings.TrimSpace(input.LastName),
		PasswordHash:          passwordHash,
		RegistrationCode:      code,
		RegistrationConfirmed: false,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			s.logger.Info("registration lost uniqueness race", zap.String("field", dup.Field))
			return Registration{}, &ConflictError{Field: dup.Field}
		}
		s.logger.Error("could not add user", zap.String("username", username), zap.Error(err))
		return Registration{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	s.logger.Info("user committed to storage", zap.String("username", username), zap.String("user_id", user.ID))
	return Registration{User: user, Code: code}, nil
}

func (s *UserService) ensureAvailable(
	ctx context.Context,
	field, value string,
	lookup func(context.Context, string) (domain.User, error),
) error {
	_, err := lookup(ctx, value)
	if err == nil {
		s.logger.Info("registration conflict", zap.String("field", field))
		return &ConflictError{Field: field}
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	s.logger.Error("registration lookup failed", zap.String("field", field), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}

// DeliverRegistrationCode envia el codigo al email del usuario. Un fallo
// aqui no deshace el registro.
func (s *UserService) DeliverRegistrationCode(ctx context.Context, reg Registration) error {
	if s.emailSender == nil {
		return ErrDeliveryFailure
	}
	if err := s.emailSender.SendRegistrationCode(ctx, reg.User.Email, reg.Code); err != nil {
		s.logger.Error("failed to email registration code",
			zap.String("user_id", reg.User.ID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrDeliveryFailure, err)
	}
	return nil
}

// ConfirmRegistration marca la cuenta como confirmada si code coincide con
// el codigo guardado. Confirmar una cuenta ya confirmada con el codigo
// correcto devuelve el estado actual.
func (s *UserService) ConfirmRegistration(ctx context.Context, caller AuthenticatedUser, username string, code int) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		s.logger.Error("confirm lookup failed", zap.String("username", username), zap.Error(err))
		return domain.User{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	if caller.ID != user.ID {
		s.logger.Info("confirmation attempted by another user",
			zap.String("username", username),
			zap.String("caller_id", caller.ID),
		)
		return domain.User{}, ErrForbidden
	}

	if code != user.RegistrationCode {
		s.logger.Info("registration code did not match", zap.String("username", username))
		return domain.User{}, ErrCodeMismatch
	}

	if user.RegistrationConfirmed {
		return user, nil
	}

	confirmed := user
	confirmed.RegistrationConfirmed = true
	confirmed.UpdatedAt = s.now().UTC()
	if err := s.users.Upsert(ctx, confirmed); err != nil {
		s.logger.Error("could not commit confirmation", zap.String("username", username), zap.Error(err))
		return domain.User{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	// Toda escritura persistida invalida la vista cacheada.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, username); err != nil {
			s.logger.Warn("user cache invalidate failed", zap.String("username", username), zap.Error(err))
		}
	}
	return confirmed, nil
}

// GetUser devuelve la vista publica del usuario, usando el cache si existe.
func (s *UserService) GetUser(ctx context.Context, caller AuthenticatedUser, username string) (domain.UserView, error) {
	if s.users == nil {
		return domain.UserView{}, errors.New("user service not configured")
	}

	if s.cache != nil {
		view, ok, err := s.cache.Get(ctx, username)
		if err != nil {
			s.logger.Warn("user cache get failed", zap.String("username", username), zap.Error(err))
		} else if ok {
			return view, nil
		}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("user not found",
				zap.String("username", username),
				zap.String("caller_id", caller.ID),
			)
			return domain.UserView{}, ErrUserNotFound
		}
		s.logger.Error("get user failed", zap.String("username", username), zap.Error(err))
		return domain.UserView{}, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	view := user.View()
	if s.cache != nil {
		if err := s.cache.Set(ctx, view); err != nil {
			s.logger.Warn("user cache set failed", zap.String("username", username), zap.Error(err))
		}
	}
	return view, nil
}

func generateRegistrationCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(registrationCodeMax-registrationCodeMin+1))
	if err != nil {
		return 0, err
	}
	return registrationCodeMin + int(n.Int64()), nil
}
