package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"user-auth/internal/domain"
)

// ErrNotFound indica que no existe un registro para la busqueda.
var ErrNotFound = errors.New("record not found")

// DuplicateError se devuelve cuando un upsert viola una restriccion de unicidad.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Field
}

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	Upsert(ctx context.Context, user domain.User) error
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool pgxQuerier
}

func NewPgUserRepository(pool pgxQuerier) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const selectUserColumns = `
		SELECT id, username, email, password_hash,
		       COALESCE(first_name, ''), COALESCE(last_name, ''),
		       registration_code, registration_confirmed, created_at, updated_at
		FROM users
`

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUserColumns+`WHERE username = $1`, username))
	if err != nil {
		return domain.User{}, wrapLookupErr(err, "username", username)
	}
	return user, nil
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUserColumns+`WHERE email = $1`, email))
	if err != nil {
		return domain.User{}, wrapLookupErr(err, "email", email)
	}
	return user, nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, selectUserColumns+`WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, wrapLookupErr(err, "id", id)
	}
	return user, nil
}

// Upsert inserta el usuario o actualiza el existente con el mismo id.
// created_at no se modifica en una actualizacion.
func (r *PgUserRepository) Upsert(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (
			id, username, email, password_hash, first_name, last_name,
			registration_code, registration_confirmed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			registration_code = EXCLUDED.registration_code,
			registration_confirmed = EXCLUDED.registration_confirmed,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.RegistrationCode,
		user.RegistrationConfirmed,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if field := constraintField(pgErr.ConstraintName); field != "" {
			return &DuplicateError{Field: field}
		}
	}
	return oops.Code("USER_UPSERT_FAILED").
		With("operation", "upsert user").
		With("user_id", user.ID).
		Wrap(err)
}

func constraintField(constraint string) string {
	switch constraint {
	case "users_username_key":
		return "username"
	case "users_email_key":
		return "email"
	default:
		return ""
	}
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.RegistrationCode,
		&u.RegistrationConfirmed,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func wrapLookupErr(err error, by, value string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return oops.Code("USER_LOOKUP_FAILED").
		With("operation", "get user by "+by).
		With(by, value).
		Wrap(err)
}
