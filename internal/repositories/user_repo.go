package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/cis-membership/internal/database"
	"github.com/BradenHooton/cis-membership/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, email_verified, verification_token_hash, reset_otp, reset_otp_expires_at, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner is satisfied by pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.EmailVerified,
		&user.VerificationTokenHash, &user.ResetOTP, &user.ResetOTPExpiresAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

// Create inserts a new user. A duplicate email surfaces as models.ErrConflict
// from the unique index, so two concurrent registrations cannot both succeed.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, password_hash, email_verified, verification_token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	created, err := scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.EmailVerified,
		user.VerificationTokenHash, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return exists, nil
}

// ConsumeVerificationToken marks the owner of tokenHash verified and clears
// the hash in one statement. Returns models.ErrNotFound if no user holds it.
func (r *UserRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string) (*models.User, error) {
	query := `
		UPDATE users
		SET email_verified = TRUE, verification_token_hash = NULL, updated_at = NOW()
		WHERE verification_token_hash = $1
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query, tokenHash))
}

// SetResetOTP stores a reset code, replacing any previous one.
func (r *UserRepository) SetResetOTP(ctx context.Context, email, otp string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_otp = $2, reset_otp_expires_at = $3, updated_at = NOW()
		WHERE email = $1
	`

	tag, err := r.pool.Exec(ctx, query, email, otp, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set reset OTP: %w", database.MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ResetPassword replaces the password hash and clears the reset code, but
// only while otp is still the stored, unexpired code. Returns
// models.ErrNotFound when that condition no longer holds.
func (r *UserRepository) ResetPassword(ctx context.Context, email, otp, passwordHash string, now time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_otp = NULL, reset_otp_expires_at = NULL, updated_at = NOW()
		WHERE email = $1 AND reset_otp = $3 AND reset_otp_expires_at > $4
	`

	tag, err := r.pool.Exec(ctx, query, email, passwordHash, otp, now)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", database.MapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ClearExpiredResetOTPs removes reset codes that expired before the cutoff.
func (r *UserRepository) ClearExpiredResetOTPs(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE users
		SET reset_otp = NULL, reset_otp_expires_at = NULL, updated_at = NOW()
		WHERE reset_otp_expires_at < $1
	`

	tag, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset OTPs: %w", database.MapPostgresError(err))
	}

	return tag.RowsAffected(), nil
}
