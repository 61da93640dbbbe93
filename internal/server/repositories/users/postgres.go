package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clinicdesk/identity/internal/common"
	"github.com/clinicdesk/identity/internal/dbx"
	"github.com/clinicdesk/identity/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	emailIndex            = "users_email_lower_idx"
	verificationCodeIndex = "users_verification_token_idx"
)

const userColumns = `id, email, password_hash, name, is_verified,
		 verification_token, verification_token_expires_at,
		 reset_password_token, reset_password_expires_at,
		 last_login, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.IsVerified,
		&u.VerificationToken, &u.VerificationTokenExpiresAt,
		&u.ResetPasswordToken, &u.ResetPasswordExpiresAt,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE lower(email) = lower($1)
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// Create inserts user. Uniqueness of the email and of the verification code
// is left to the indexes, so two concurrent signups for one address yield
// exactly one row and one common.ErrorDuplicateEmail. A code already held by
// another account yields common.ErrorDuplicateCode.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, password_hash, name, is_verified, verification_token, verification_token_expires_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.IsVerified,
		user.VerificationToken, user.VerificationTokenExpiresAt).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case verificationCodeIndex:
				return nil, common.ErrorDuplicateCode
			case emailIndex:
				return nil, common.ErrorDuplicateEmail
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// ConsumeVerificationToken marks the holder of an unexpired code verified and
// clears the code in the same statement, so a code succeeds at most once.
func (r *PostgresRepository) ConsumeVerificationToken(ctx context.Context, code string, now time.Time) (*models.User, error) {
	query :=
		`UPDATE users SET is_verified = TRUE,
		 verification_token = NULL, verification_token_expires_at = NULL, updated_at = $2
		 WHERE verification_token = $1 AND verification_token_expires_at > $2
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, code, now))
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	query :=
		`UPDATE users SET reset_password_token = $2, reset_password_expires_at = $3, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, token, expiresAt)
}

// ConsumeResetToken replaces the password of the holder of an unexpired reset
// token and clears the token in the same statement.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time, newHash string) (*models.User, error) {
	query :=
		`UPDATE users SET password_hash = $3,
		 reset_password_token = NULL, reset_password_expires_at = NULL, updated_at = $2
		 WHERE reset_password_token = $1 AND reset_password_expires_at > $2
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, token, now, newHash))
}

func (r *PostgresRepository) TouchLogin(ctx context.Context, id string, now time.Time) error {
	query :=
		`UPDATE users SET last_login = $2, updated_at = $2
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, now)
}

func (r *PostgresRepository) ClearExpiredVerificationCodes(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`UPDATE users SET verification_token = NULL, verification_token_expires_at = NULL
		 WHERE verification_token_expires_at <= $1
		 `
	return r.exec(ctx, query, now)
}

func (r *PostgresRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`UPDATE users SET reset_password_token = NULL, reset_password_expires_at = NULL
		 WHERE reset_password_expires_at <= $1
		 `
	return r.exec(ctx, query, now)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	n, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
